package postgres

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/megamart/orderflow/internal/order/domain"
)

// ArchiveStore keeps removed orders as JSON snapshots for the retention
// window. Rows past their auto-delete date are reaped by the purger.
type ArchiveStore struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewArchiveStore(log *slog.Logger, pool *pgxpool.Pool) *ArchiveStore {
	return &ArchiveStore{log: log, pool: pool}
}

func (s *ArchiveStore) Archive(ctx context.Context, o domain.Order) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO archived_orders (order_id, payload, archived_at, archived_by, reason, auto_delete_date)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (order_id) DO UPDATE SET payload=$2, archived_at=$3, archived_by=$4, reason=$5, auto_delete_date=$6`,
		o.ID, payload, o.ArchivedAt, string(o.ArchivedBy), o.ArchivedReason, o.AutoDeleteDate)
	return err
}

func (s *ArchiveStore) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	ct, err := s.pool.Exec(ctx, `DELETE FROM archived_orders WHERE auto_delete_date < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
