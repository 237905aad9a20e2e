package location

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/megamart/orderflow/pkg/fault"
)

// PGStore reads the processing_locations reference table.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) List(ctx context.Context) ([]Location, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, address, city, state, postal_code, country, type FROM processing_locations ORDER BY id`)
	if err != nil {
		return nil, fault.Unavailable("order-db", err)
	}
	defer rows.Close()

	var locs []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Address, &l.City, &l.State, &l.PostalCode, &l.Country, &l.Type); err != nil {
			return nil, fault.Unavailable("order-db", err)
		}
		locs = append(locs, l)
	}
	return locs, rows.Err()
}
