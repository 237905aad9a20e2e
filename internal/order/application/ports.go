package application

import (
	"context"
	"time"

	"github.com/megamart/orderflow/internal/cart"
	"github.com/megamart/orderflow/internal/catalog"
	"github.com/megamart/orderflow/internal/location"
	"github.com/megamart/orderflow/internal/notify"
	"github.com/megamart/orderflow/internal/order/domain"
)

type OrderRepository interface {
	// SaveWithOutbox upserts the order and writes the lifecycle event in the
	// same transaction.
	SaveWithOutbox(ctx context.Context, o domain.Order, eventType string, payload []byte) error
	Get(ctx context.Context, id string) (domain.Order, error)
	// DeleteWithOutbox removes the order and its tracking rows, writing the
	// event in the same transaction.
	DeleteWithOutbox(ctx context.Context, id, eventType string, payload []byte) error
	ListAll(ctx context.Context, page, size int) ([]domain.Order, error)
	ListByCustomer(ctx context.Context, customerID int64, page, size int) ([]domain.Order, error)
}

type ArchiveStore interface {
	Archive(ctx context.Context, o domain.Order) error
	// PurgeExpired deletes archive rows whose auto-delete date has passed and
	// returns how many were removed.
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type CartClient interface {
	Get(ctx context.Context, customerID int64) (cart.Cart, error)
	Clear(ctx context.Context, customerID int64) error
}

type ProductClient interface {
	Get(ctx context.Context, productID int64) (catalog.Product, error)
	AdjustStock(ctx context.Context, productID int64, delta int) error
}

type NotificationClient interface {
	Send(ctx context.Context, n notify.Notification) error
}

type LocationDirectory interface {
	Get(ctx context.Context, id int64) (*location.Location, error)
	List(ctx context.Context) ([]location.Location, error)
}
