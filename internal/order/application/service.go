package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/megamart/orderflow/internal/location"
	"github.com/megamart/orderflow/internal/metrics"
	"github.com/megamart/orderflow/internal/notify"
	"github.com/megamart/orderflow/internal/order/domain"
	"github.com/megamart/orderflow/pkg/fault"
)

type Service struct {
	log       *slog.Logger
	orders    OrderRepository
	archive   ArchiveStore
	carts     CartClient
	products  ProductClient
	notifier  NotificationClient
	locations LocationDirectory
	restock   *RestockCoordinator
	metrics   *metrics.Metrics

	now   func() time.Time
	newID func() string
}

func NewService(
	log *slog.Logger,
	orders OrderRepository,
	archive ArchiveStore,
	carts CartClient,
	products ProductClient,
	notifier NotificationClient,
	locations LocationDirectory,
	restock *RestockCoordinator,
	m *metrics.Metrics,
) *Service {
	return &Service{
		log:       log,
		orders:    orders,
		archive:   archive,
		carts:     carts,
		products:  products,
		notifier:  notifier,
		locations: locations,
		restock:   restock,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// CheckoutRequest carries everything the checkout snapshot needs. CustomerID
// must already be the canonical id (resolved by the identity resolver).
type CheckoutRequest struct {
	CustomerID  int64
	Customer    domain.CustomerInfo
	Shipping    domain.ShippingAddress
	PaymentType domain.PaymentType
}

// CreateFromCart turns the customer's cart into a pending order. The cart
// must be non-empty and every line must have stock. After the order is
// persisted, stock is decremented and the cart cleared, both best-effort.
func (s *Service) CreateFromCart(ctx context.Context, req CheckoutRequest) (domain.Order, error) {
	switch req.PaymentType {
	case domain.PaymentCard, domain.PaymentUPI, domain.PaymentCOD:
	default:
		return domain.Order{}, fault.Invalid("paymentType", "must be one of card, upi, cod")
	}
	if req.Shipping.FullName == "" || req.Shipping.AddressLine1 == "" {
		return domain.Order{}, fault.Invalid("shippingAddress", "full name and address line 1 are required")
	}

	c, err := s.carts.Get(ctx, req.CustomerID)
	if err != nil {
		if fault.IsNotFound(err) {
			return domain.Order{}, fault.Invalid("cart", "cart is empty")
		}
		return domain.Order{}, err
	}
	if c.Empty() {
		return domain.Order{}, fault.Invalid("cart", "cart is empty")
	}

	items := make([]domain.Item, 0, len(c.Items))
	total := decimal.Zero
	for _, ci := range c.Items {
		p, err := s.products.Get(ctx, ci.ProductID)
		if err != nil {
			return domain.Order{}, err
		}
		if p.Stock < ci.Quantity {
			return domain.Order{}, fault.Invalid("stock", "insufficient stock for product "+p.Title)
		}
		items = append(items, domain.Item{ProductID: ci.ProductID, Quantity: ci.Quantity, LineTotal: ci.LineTotal})
		total = total.Add(ci.LineTotal)
	}

	id := s.newID()
	number := "ORD-" + strings.ToUpper(strings.ReplaceAll(id, "-", ""))[:12]
	o := domain.New(id, number, req.CustomerID, req.Customer, items, total, req.PaymentType, req.Shipping, s.now())

	payload, err := json.Marshal(domain.OrderCreated{
		OrderID: o.ID, Number: o.Number, CustomerID: o.CustomerID, Total: o.Total, Items: o.Items,
	})
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.orders.SaveWithOutbox(ctx, o, domain.EventOrderCreated, payload); err != nil {
		return domain.Order{}, err
	}
	s.metrics.OrdersCreated.Inc()

	for _, item := range items {
		if err := s.products.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
			s.log.Error("stock decrement failed", "order_id", o.ID, "product_id", item.ProductID, "err", err)
		}
	}
	if err := s.carts.Clear(ctx, req.CustomerID); err != nil {
		s.log.Warn("cart clear failed after checkout", "customer_id", req.CustomerID, "err", err)
	}

	s.log.Info("order created", "order_id", o.ID, "number", o.Number, "customer_id", o.CustomerID)
	return o, nil
}

func (s *Service) Get(ctx context.Context, orderID string) (domain.Order, error) {
	return s.orders.Get(ctx, orderID)
}

func (s *Service) TrackingHistory(ctx context.Context, orderID string) ([]domain.TrackingEntry, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return o.Tracking, nil
}

func (s *Service) ListAll(ctx context.Context, page, size int) ([]domain.Order, error) {
	return s.orders.ListAll(ctx, page, size)
}

func (s *Service) ListForCustomer(ctx context.Context, customerID int64, page, size int) ([]domain.Order, error) {
	return s.orders.ListByCustomer(ctx, customerID, page, size)
}

func (s *Service) Locations(ctx context.Context) ([]location.Location, error) {
	return s.locations.List(ctx)
}

// Transition drives the order one step along the legal graph. The location
// lookup is best-effort: an unreachable directory degrades the tracking entry
// to location-less wording rather than failing the transition.
func (s *Service) Transition(ctx context.Context, orderID string, target domain.Status, locationID *int64, notes, actor string) (domain.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	var loc *location.Location
	if locationID != nil {
		loc, err = s.locations.Get(ctx, *locationID)
		if err != nil {
			s.log.Warn("location lookup failed, proceeding without", "location_id", *locationID, "err", err)
			loc = nil
		}
	}

	from := o.Status
	if err := o.Transition(target, loc, notes, actor, s.now()); err != nil {
		return domain.Order{}, err
	}

	payload, err := json.Marshal(domain.OrderStatusChanged{
		OrderID: o.ID, From: from, To: target, Location: o.CurrentLocation, UpdatedBy: actor,
	})
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.orders.SaveWithOutbox(ctx, o, domain.EventOrderStatusChanged, payload); err != nil {
		return domain.Order{}, err
	}
	s.metrics.Transitions.WithLabelValues(string(target)).Inc()
	return o, nil
}

type CancelResult struct {
	Order     domain.Order
	RefundDue bool
}

// CancelByCustomer cancels a confirmed or processing order and restocks its
// items. RefundDue feeds the customer-facing message only; no refund is
// executed here.
func (s *Service) CancelByCustomer(ctx context.Context, orderID, reason string) (CancelResult, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return CancelResult{}, err
	}
	if err := o.CancelByCustomer(reason, s.now()); err != nil {
		return CancelResult{}, err
	}

	payload, err := json.Marshal(domain.OrderCancelled{OrderID: o.ID, CancelledBy: domain.ActorCustomer, Reason: reason})
	if err != nil {
		return CancelResult{}, err
	}
	if err := s.orders.SaveWithOutbox(ctx, o, domain.EventOrderCancelled, payload); err != nil {
		return CancelResult{}, err
	}
	s.metrics.Cancellations.WithLabelValues(string(domain.ActorCustomer)).Inc()

	if err := s.restock.Restock(ctx, o); err != nil {
		s.recordRestockFailure(o.ID, err)
	}
	return CancelResult{Order: o, RefundDue: o.RefundDue()}, nil
}

type RemovalResult struct {
	Archived         bool
	AutoDeleteDate   *time.Time
	NotificationSent bool
}

// Remove is the admin removal flow. Delivered orders are hard-deleted with no
// notification or restock. Anything else is archived for 30 days, the
// customer optionally notified (best-effort), items restocked (best-effort),
// and the order deleted from the primary store.
func (s *Service) Remove(ctx context.Context, orderID, reason string, sendNotification bool) (RemovalResult, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return RemovalResult{}, err
	}

	if o.Status == domain.StatusDelivered {
		payload, err := json.Marshal(domain.OrderRemoved{OrderID: o.ID, Reason: reason})
		if err != nil {
			return RemovalResult{}, err
		}
		if err := s.orders.DeleteWithOutbox(ctx, o.ID, domain.EventOrderRemoved, payload); err != nil {
			return RemovalResult{}, err
		}
		s.metrics.Removals.Inc()
		s.log.Info("delivered order deleted", "order_id", o.ID)
		return RemovalResult{}, nil
	}

	if err := o.MarkRemovedByAdmin(reason, s.now()); err != nil {
		return RemovalResult{}, err
	}
	if err := s.archive.Archive(ctx, o); err != nil {
		return RemovalResult{}, err
	}

	result := RemovalResult{Archived: true, AutoDeleteDate: o.AutoDeleteDate}
	if sendNotification {
		n := notify.OrderRemoved(o.Number, o.Customer.Name, o.Customer.Email, reason, o.Total, s.now())
		if err := s.notifier.Send(ctx, n); err != nil {
			s.log.Error("removal notification failed", "order_id", o.ID, "err", err)
		} else {
			result.NotificationSent = true
		}
	}

	if err := s.restock.Restock(ctx, o); err != nil {
		s.recordRestockFailure(o.ID, err)
	}

	payload, err := json.Marshal(domain.OrderRemoved{OrderID: o.ID, Reason: reason, Archived: true, AutoDeleteDate: o.AutoDeleteDate})
	if err != nil {
		return RemovalResult{}, err
	}
	if err := s.orders.DeleteWithOutbox(ctx, o.ID, domain.EventOrderRemoved, payload); err != nil {
		return RemovalResult{}, err
	}
	s.metrics.Removals.Inc()
	s.metrics.Cancellations.WithLabelValues(string(domain.ActorAdmin)).Inc()
	s.log.Info("order removed", "order_id", o.ID, "archived_until", o.AutoDeleteDate)
	return result, nil
}

func (s *Service) recordRestockFailure(orderID string, err error) {
	var pf *fault.PartialFailureError
	if errors.As(err, &pf) {
		s.metrics.RestockFailures.Add(float64(len(pf.Failed)))
	}
	s.log.Error("restock degraded", "order_id", orderID, "err", err)
}
