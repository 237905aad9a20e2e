package application

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/megamart/orderflow/internal/order/domain"
	"github.com/megamart/orderflow/pkg/fault"
)

func restockOrder(status domain.Status, items []domain.Item) domain.Order {
	o := domain.New("ord-r", "ORD-R", 42, domain.CustomerInfo{Name: "A"}, items,
		decimal.NewFromInt(100), domain.PaymentCard, domain.ShippingAddress{FullName: "A", AddressLine1: "1 Main St"},
		time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	o.Status = status
	return o
}

func TestRestockAllItems(t *testing.T) {
	products := newFakeProducts(map[int64]int{1: 0, 2: 0, 3: 0})
	c := NewRestockCoordinator(slog.New(slog.DiscardHandler), products)
	o := restockOrder(domain.StatusCancelled, []domain.Item{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
		{ProductID: 3, Quantity: 5},
	})
	if err := c.Restock(context.Background(), o); err != nil {
		t.Fatal(err)
	}
	if products.stock[1] != 2 || products.stock[2] != 1 || products.stock[3] != 5 {
		t.Errorf("stock: %v", products.stock)
	}
}

func TestRestockPartialFailure(t *testing.T) {
	products := newFakeProducts(map[int64]int{1: 0, 2: 0, 3: 0})
	products.adjustErrs[2] = fault.Unavailable("product-admin", errors.New("boom"))
	c := NewRestockCoordinator(slog.New(slog.DiscardHandler), products)
	o := restockOrder(domain.StatusCancelled, []domain.Item{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
		{ProductID: 3, Quantity: 5},
	})

	err := c.Restock(context.Background(), o)
	if !fault.IsPartialFailure(err) {
		t.Fatalf("got %v, want PartialFailure", err)
	}
	var pf *fault.PartialFailureError
	if !errors.As(err, &pf) {
		t.Fatal("errors.As failed")
	}
	if len(pf.Failed) != 1 || pf.Failed[0] != "2" {
		t.Errorf("failed ids: %v", pf.Failed)
	}
	// The other items still went through.
	if products.stock[1] != 2 || products.stock[3] != 5 {
		t.Errorf("stock: %v", products.stock)
	}
}

func TestRestockSkips(t *testing.T) {
	products := newFakeProducts(map[int64]int{1: 0})
	c := NewRestockCoordinator(slog.New(slog.DiscardHandler), products)

	delivered := restockOrder(domain.StatusDelivered, []domain.Item{{ProductID: 1, Quantity: 2}})
	if err := c.Restock(context.Background(), delivered); err != nil {
		t.Fatal(err)
	}
	if products.adjusts != 0 {
		t.Error("delivered orders must not be restocked")
	}

	junk := restockOrder(domain.StatusCancelled, []domain.Item{
		{ProductID: 0, Quantity: 2},
		{ProductID: 1, Quantity: 0},
	})
	if err := c.Restock(context.Background(), junk); err != nil {
		t.Fatal(err)
	}
	if products.adjusts != 0 {
		t.Error("zero product ids and quantities must be skipped")
	}
}
