package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/megamart/orderflow/internal/order/domain"
	"github.com/megamart/orderflow/pkg/fault"
	"github.com/megamart/orderflow/pkg/outbox"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

const orderColumns = `id, order_number, customer_id, customer_info, total, payment_type, payment_status,
	shipping_address, status, current_location, processing_notes,
	visible_to_admin, visible_to_customer,
	is_archived, archived_at, archived_by, archived_reason, auto_delete_date,
	cancelled_at, cancelled_by, cancellation_reason,
	created_at, updated_at, updated_by`

// SaveWithOutbox upserts the order, its items and new tracking entries, and
// writes the lifecycle event row in the same transaction.
func (r *Repository) SaveWithOutbox(ctx context.Context, o domain.Order, eventType string, payload []byte) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
		ON CONFLICT (id) DO UPDATE SET
			payment_status=$7, status=$9, current_location=$10, processing_notes=$11,
			visible_to_admin=$12, visible_to_customer=$13,
			is_archived=$14, archived_at=$15, archived_by=$16, archived_reason=$17, auto_delete_date=$18,
			cancelled_at=$19, cancelled_by=$20, cancellation_reason=$21,
			updated_at=$23, updated_by=$24`,
		o.ID, o.Number, o.CustomerID, o.Customer, o.Total, o.PaymentType, o.PaymentStatus,
		o.Shipping, o.Status, o.CurrentLocation, o.ProcessingNotes,
		o.VisibleToAdmin, o.VisibleToCustomer,
		o.IsArchived, o.ArchivedAt, string(o.ArchivedBy), o.ArchivedReason, o.AutoDeleteDate,
		o.CancelledAt, string(o.CancelledBy), o.CancellationReason,
		o.CreatedAt, o.UpdatedAt, o.UpdatedBy)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, item := range o.Items {
		batch.Queue(`INSERT INTO order_items (order_id, product_id, quantity, line_total)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (order_id, product_id) DO UPDATE SET quantity=$3, line_total=$4`,
			o.ID, item.ProductID, item.Quantity, item.LineTotal)
	}
	// Tracking rows are append-only; replays of already-stored entries are
	// dropped by the conflict target.
	for _, entry := range o.Tracking {
		batch.Queue(`INSERT INTO order_tracking (order_id, seq, status, location, description, notes, ts, updated_by)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (order_id, seq) DO NOTHING`,
			o.ID, entry.Seq, entry.Status, entry.Location, entry.Description, entry.Notes, entry.Timestamp, entry.UpdatedBy)
	}
	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, status)
		VALUES ($1,$2,$3,$4,'pending')`,
		"order", o.ID, eventType, payload)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, fault.NotFound("order", id)
		}
		return domain.Order{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT product_id, quantity, line_total FROM order_items WHERE order_id=$1 ORDER BY product_id`, id)
	if err != nil {
		return domain.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.LineTotal); err != nil {
			return domain.Order{}, err
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return domain.Order{}, err
	}

	trows, err := r.pool.Query(ctx, `SELECT seq, status, location, description, notes, ts, updated_by
		FROM order_tracking WHERE order_id=$1 ORDER BY seq`, id)
	if err != nil {
		return domain.Order{}, err
	}
	defer trows.Close()
	for trows.Next() {
		var e domain.TrackingEntry
		if err := trows.Scan(&e.Seq, &e.Status, &e.Location, &e.Description, &e.Notes, &e.Timestamp, &e.UpdatedBy); err != nil {
			return domain.Order{}, err
		}
		o.Tracking = append(o.Tracking, e)
	}
	return o, trows.Err()
}

// DeleteWithOutbox removes the order with its items and tracking rows, and
// writes the removal event in the same transaction.
func (r *Repository) DeleteWithOutbox(ctx context.Context, id, eventType string, payload []byte) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM order_tracking WHERE order_id=$1`, id); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, id); err != nil {
		return err
	}
	ct, err := tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fault.NotFound("order", id)
	}

	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, status)
		VALUES ($1,$2,$3,$4,'pending')`,
		"order", id, eventType, payload)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) ListAll(ctx context.Context, page, size int) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE visible_to_admin
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, pageArgs(page, size)...)
}

func (r *Repository) ListByCustomer(ctx context.Context, customerID int64, page, size int) ([]domain.Order, error) {
	args := pageArgs(page, size)
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE customer_id=$1 AND visible_to_customer
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, customerID, args[0], args[1])
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, 0, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids = append(ids, o.ID)
		index[o.ID] = i
	}
	irows, err := r.pool.Query(ctx, `SELECT order_id, product_id, quantity, line_total
		FROM order_items WHERE order_id = ANY($1) ORDER BY product_id`, ids)
	if err != nil {
		return nil, err
	}
	defer irows.Close()
	for irows.Next() {
		var orderID string
		var item domain.Item
		if err := irows.Scan(&orderID, &item.ProductID, &item.Quantity, &item.LineTotal); err != nil {
			return nil, err
		}
		i := index[orderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return orders, irows.Err()
}

func pageArgs(page, size int) []any {
	if size <= 0 || size > 100 {
		size = 20
	}
	if page < 1 {
		page = 1
	}
	return []any{size, (page - 1) * size}
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var archivedBy, cancelledBy string
	err := row.Scan(
		&o.ID, &o.Number, &o.CustomerID, &o.Customer, &o.Total, &o.PaymentType, &o.PaymentStatus,
		&o.Shipping, &o.Status, &o.CurrentLocation, &o.ProcessingNotes,
		&o.VisibleToAdmin, &o.VisibleToCustomer,
		&o.IsArchived, &o.ArchivedAt, &archivedBy, &o.ArchivedReason, &o.AutoDeleteDate,
		&o.CancelledAt, &cancelledBy, &o.CancellationReason,
		&o.CreatedAt, &o.UpdatedAt, &o.UpdatedBy)
	if err != nil {
		return domain.Order{}, err
	}
	o.ArchivedBy = domain.Actor(archivedBy)
	o.CancelledBy = domain.Actor(cancelledBy)
	return o, nil
}

// OutboxStore is the relay-facing view of the outbox table.
type OutboxStore struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewOutboxStore(log *slog.Logger, pool *pgxpool.Pool) *OutboxStore {
	return &OutboxStore{log: log, pool: pool}
}

func (s *OutboxStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]outbox.Event, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, type, payload, created_at
		FROM outbox
		WHERE status = 'pending'
		   OR (status = 'in_progress' AND lease_until < now())
		ORDER BY id
		FOR UPDATE SKIP LOCKED
		LIMIT $1
	`, batchSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []outbox.Event
	for rows.Next() {
		var event outbox.Event
		if err := rows.Scan(&event.ID, &event.AggregateType, &event.AggregateID, &event.Type, &event.Payload, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, tx.Commit(ctx)
	}

	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	_, err = tx.Exec(ctx, `UPDATE outbox SET status='in_progress', relay_id=$1, lease_until=now() + $2::interval WHERE id = ANY($3)`,
		relayID, lease.String(), ids)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, ids []int64) error {
	ct, err := s.pool.Exec(ctx, `UPDATE outbox SET status='sent' WHERE id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.New("no rows updated")
	}
	return nil
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := s.pool.Exec(ctx, `UPDATE outbox SET status='failed', last_error=$2, retry_count=retry_count+1 WHERE id=$1`, id, errMsg)
	return err
}

func (s *OutboxStore) ExtendLease(ctx context.Context, relayID string, ids []int64, lease time.Duration) error {
	_, err := s.pool.Exec(ctx, `UPDATE outbox SET lease_until=now() + $1::interval WHERE id = ANY($2) AND relay_id=$3`,
		lease.String(), ids, relayID)
	return err
}
