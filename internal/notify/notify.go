// Package notify delivers customer notifications. Delivery is best-effort
// everywhere it is used: a failed send is logged, never fatal.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/megamart/orderflow/pkg/httpx"
	"github.com/megamart/orderflow/pkg/idempotency"
)

const TypeOrderRemoved = "order_removed"

type Notification struct {
	ID            string          `json:"id"`
	OrderNumber   string          `json:"orderNumber"`
	CustomerEmail string          `json:"customerEmail"`
	CustomerName  string          `json:"customerName"`
	Type          string          `json:"type"`
	Title         string          `json:"title"`
	Message       string          `json:"message"`
	Reason        string          `json:"reason,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"createdAt"`
	Read          bool            `json:"read"`
}

// OrderRemoved composes the message shown to a customer whose order an admin
// removed.
func OrderRemoved(orderNumber, customerName, customerEmail, reason string, amount decimal.Decimal, now time.Time) Notification {
	if reason == "" {
		reason = "unforeseen circumstances"
	}
	return Notification{
		ID:            uuid.NewString(),
		OrderNumber:   orderNumber,
		CustomerEmail: customerEmail,
		CustomerName:  customerName,
		Type:          TypeOrderRemoved,
		Title:         "Order Cancelled - Refund Processed",
		Message: fmt.Sprintf(
			"Dear %s, your order %s has been cancelled due to: %s. A refund of $%s will be processed within 3-5 business days.",
			customerName, orderNumber, reason, amount.StringFixed(2)),
		Reason:    reason,
		Amount:    amount,
		CreatedAt: now,
	}
}

// Deduper is satisfied by idempotency.Store.
type Deduper interface {
	Seen(ctx context.Context, key string) (bool, error)
}

type Client struct {
	log   *slog.Logger
	http  *httpx.Client
	dedup Deduper
}

// NewClient builds a notification client. dedup may be nil, in which case
// every Send goes out.
func NewClient(log *slog.Logger, http *httpx.Client, dedup Deduper) *Client {
	return &Client{log: log, http: http, dedup: dedup}
}

func (c *Client) Send(ctx context.Context, n Notification) error {
	if c.dedup != nil {
		key := idempotency.Key("notify", n.Type, n.OrderNumber)
		seen, err := c.dedup.Seen(ctx, key)
		if err != nil {
			c.log.Warn("notification dedupe check failed", "key", key, "err", err)
		} else if seen {
			c.log.Info("duplicate notification suppressed", "key", key)
			return nil
		}
	}
	return c.http.Post(ctx, "/notifications", n, nil)
}
