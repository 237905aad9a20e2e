package location

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/megamart/orderflow/pkg/fault"
)

type Store interface {
	List(ctx context.Context) ([]Location, error)
}

// Directory is a read-through cache over the reference data. Locations
// change rarely; a short TTL keeps admin edits visible without hitting the
// store on every transition.
type Directory struct {
	store Store
	ttl   time.Duration
	now   func() time.Time

	mu     sync.Mutex
	cached []Location
	loaded time.Time
}

func NewDirectory(store Store, ttl time.Duration) *Directory {
	return &Directory{store: store, ttl: ttl, now: time.Now}
}

func (d *Directory) List(ctx context.Context) ([]Location, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cached != nil && d.now().Sub(d.loaded) < d.ttl {
		out := make([]Location, len(d.cached))
		copy(out, d.cached)
		return out, nil
	}
	locs, err := d.store.List(ctx)
	if err != nil {
		// Serve stale data over nothing when the store is down.
		if d.cached != nil {
			out := make([]Location, len(d.cached))
			copy(out, d.cached)
			return out, nil
		}
		return nil, err
	}
	d.cached = locs
	d.loaded = d.now()
	out := make([]Location, len(locs))
	copy(out, locs)
	return out, nil
}

func (d *Directory) Get(ctx context.Context, id int64) (*Location, error) {
	locs, err := d.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range locs {
		if locs[i].ID == id {
			return &locs[i], nil
		}
	}
	return nil, fault.NotFound("processing location", strconv.FormatInt(id, 10))
}
