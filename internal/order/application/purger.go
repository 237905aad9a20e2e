package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/megamart/orderflow/internal/metrics"
)

// Purger hard-deletes archived orders whose retention window has passed.
// It runs until the context is cancelled.
type Purger struct {
	log      *slog.Logger
	archive  ArchiveStore
	metrics  *metrics.Metrics
	interval time.Duration
	now      func() time.Time
}

func NewPurger(log *slog.Logger, archive ArchiveStore, m *metrics.Metrics, interval time.Duration) *Purger {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Purger{
		log:      log,
		archive:  archive,
		metrics:  m,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (p *Purger) Run(ctx context.Context) error {
	t := time.NewTicker(p.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("archive purger stopping")
			return nil
		case <-t.C:
			n, err := p.archive.PurgeExpired(ctx, p.now())
			if err != nil {
				p.log.Error("archive purge error", "err", err)
				continue
			}
			if n > 0 {
				p.metrics.ArchivesPurged.Add(float64(n))
				p.log.Info("archived orders purged", "count", n)
			}
		}
	}
}
