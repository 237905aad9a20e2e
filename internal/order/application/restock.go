package application

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/megamart/orderflow/internal/order/domain"
	"github.com/megamart/orderflow/pkg/fault"
)

const defaultRestockConcurrency = 8

// RestockCoordinator returns reserved quantities to product stock when a
// non-delivered order is cancelled or removed. Per-item calls fan out
// concurrently and every call settles before the coordinator returns; item
// failures come back as one PartialFailure and never block the caller's
// removal flow.
type RestockCoordinator struct {
	log      *slog.Logger
	products ProductClient
	limit    int
}

func NewRestockCoordinator(log *slog.Logger, products ProductClient) *RestockCoordinator {
	return &RestockCoordinator{log: log, products: products, limit: defaultRestockConcurrency}
}

func (r *RestockCoordinator) Restock(ctx context.Context, o domain.Order) error {
	if o.Status == domain.StatusDelivered || len(o.Items) == 0 {
		return nil
	}

	var (
		mu     sync.Mutex
		failed []string
		errs   []error
	)
	g := new(errgroup.Group)
	g.SetLimit(r.limit)
	for _, item := range o.Items {
		if item.ProductID == 0 || item.Quantity <= 0 {
			continue
		}
		g.Go(func() error {
			if err := r.products.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
				r.log.Error("restock failed", "order_id", o.ID, "product_id", item.ProductID, "qty", item.Quantity, "err", err)
				mu.Lock()
				failed = append(failed, strconv.FormatInt(item.ProductID, 10))
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		return &fault.PartialFailureError{Op: "restock", Failed: failed, Errs: errs}
	}
	return nil
}
