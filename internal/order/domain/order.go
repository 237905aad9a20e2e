package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/megamart/orderflow/internal/location"
	"github.com/megamart/orderflow/pkg/fault"
)

type PaymentType string

const (
	PaymentCard PaymentType = "card"
	PaymentUPI  PaymentType = "upi"
	PaymentCOD  PaymentType = "cod"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type Actor string

const (
	ActorCustomer Actor = "customer"
	ActorAdmin    Actor = "admin"
	ActorSystem   Actor = "system"
)

// ArchiveRetention is how long an archived order is kept before the purger
// may hard-delete it.
const ArchiveRetention = 30 * 24 * time.Hour

type Item struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// CustomerInfo is snapshotted from the session at checkout so removal
// notifications do not depend on the user-admin service being up.
type CustomerInfo struct {
	Name  string `json:"fullName"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type ShippingAddress struct {
	FullName     string `json:"fullName"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
}

// TrackingEntry is an immutable audit record of one status change. Seq is the
// position in the order's history and never reused.
type TrackingEntry struct {
	Seq         int       `json:"seq"`
	Status      Status    `json:"status"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description"`
	Notes       string    `json:"notes,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	UpdatedBy   string    `json:"updatedBy"`
}

type Order struct {
	ID         string          `json:"id"`
	Number     string          `json:"orderNumber"`
	CustomerID int64           `json:"customerId"`
	Customer   CustomerInfo    `json:"customerInfo"`
	Items      []Item          `json:"items"`
	Total      decimal.Decimal `json:"total"`

	PaymentType   PaymentType   `json:"paymentType"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`

	Shipping ShippingAddress `json:"shippingAddress"`

	Status          Status          `json:"orderStatus"`
	Tracking        []TrackingEntry `json:"trackingHistory"`
	CurrentLocation string          `json:"currentLocation,omitempty"`
	ProcessingNotes string          `json:"processingNotes,omitempty"`

	VisibleToAdmin    bool `json:"visibleToAdmin"`
	VisibleToCustomer bool `json:"visibleToCustomer"`

	IsArchived     bool       `json:"isArchived"`
	ArchivedAt     *time.Time `json:"archivedAt,omitempty"`
	ArchivedBy     Actor      `json:"archivedBy,omitempty"`
	ArchivedReason string     `json:"archivedReason,omitempty"`
	AutoDeleteDate *time.Time `json:"autoDeleteDate,omitempty"`

	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CancelledBy        Actor      `json:"cancelledBy,omitempty"`
	CancellationReason string     `json:"cancellationReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
}

// New builds a pending order from a cart snapshot, with the initial tracking
// entry already appended. Payment starts pending for cash-on-delivery and
// completed otherwise (gateway mechanics are outside this core).
func New(id, number string, customerID int64, customer CustomerInfo, items []Item, total decimal.Decimal, paymentType PaymentType, shipping ShippingAddress, now time.Time) Order {
	payStatus := PaymentCompleted
	if paymentType == PaymentCOD {
		payStatus = PaymentPending
	}
	o := Order{
		ID:                id,
		Number:            number,
		CustomerID:        customerID,
		Customer:          customer,
		Items:             items,
		Total:             total,
		PaymentType:       paymentType,
		PaymentStatus:     payStatus,
		Shipping:          shipping,
		Status:            StatusPending,
		VisibleToAdmin:    true,
		VisibleToCustomer: true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	o.appendTracking(StatusPending, nil, "", string(ActorSystem), now)
	return o
}

// Transition moves the order along the legal graph and appends a tracking
// entry. location and notes are optional; actor is recorded on the entry.
func (o *Order) Transition(target Status, loc *location.Location, notes, actor string, now time.Time) error {
	if !o.Status.CanTransitionTo(target) {
		return &InvalidTransitionError{From: o.Status, To: target}
	}
	o.Status = target
	o.appendTracking(target, loc, notes, actor, now)
	if loc != nil {
		o.CurrentLocation = loc.Label()
	}
	if notes != "" {
		o.ProcessingNotes = notes
	}
	o.UpdatedAt = now
	o.UpdatedBy = actor
	return nil
}

// CancelByCustomer cancels an order that is confirmed or processing. A reason
// is mandatory. Completed payments flip to refunded; COD payments never
// complete before delivery, so nothing is refunded for them.
func (o *Order) CancelByCustomer(reason string, now time.Time) error {
	if reason == "" {
		return fault.Invalid("reason", "cancellation reason is required")
	}
	if o.Status != StatusConfirmed && o.Status != StatusProcessing {
		return &InvalidTransitionError{From: o.Status, To: StatusCancelled}
	}
	o.cancel(ActorCustomer, reason, now)
	if o.PaymentStatus == PaymentCompleted {
		o.PaymentStatus = PaymentRefunded
	}
	o.VisibleToAdmin = true
	o.VisibleToCustomer = true
	return nil
}

// MarkRemovedByAdmin records cancellation and archival metadata ahead of the
// order being moved to the archive store. Not valid for delivered orders,
// which are hard-deleted without archival.
func (o *Order) MarkRemovedByAdmin(reason string, now time.Time) error {
	if o.Status == StatusDelivered {
		return fmt.Errorf("delivered orders are deleted, not archived")
	}
	o.cancel(ActorAdmin, reason, now)
	archivedAt := now
	deleteAt := now.Add(ArchiveRetention)
	o.IsArchived = true
	o.ArchivedAt = &archivedAt
	o.ArchivedBy = ActorAdmin
	o.ArchivedReason = reason
	o.AutoDeleteDate = &deleteAt
	return nil
}

// RefundDue reports whether the customer should be told a refund is coming
// after cancellation. Informational only; nothing is enforced here.
func (o *Order) RefundDue() bool {
	return o.PaymentType != PaymentCOD
}

func (o *Order) cancel(by Actor, reason string, now time.Time) {
	cancelledAt := now
	o.Status = StatusCancelled
	o.CancelledAt = &cancelledAt
	o.CancelledBy = by
	o.CancellationReason = reason
	o.appendTracking(StatusCancelled, nil, "", string(by), now)
	o.UpdatedAt = now
	o.UpdatedBy = string(by)
}

func (o *Order) appendTracking(status Status, loc *location.Location, notes, actor string, now time.Time) {
	entry := TrackingEntry{
		Seq:         len(o.Tracking),
		Status:      status,
		Description: statusDescription(status, loc),
		Notes:       notes,
		Timestamp:   now,
		UpdatedBy:   actor,
	}
	if loc != nil {
		entry.Location = loc.Label()
	}
	o.Tracking = append(o.Tracking, entry)
}

func statusDescription(status Status, loc *location.Location) string {
	switch status {
	case StatusPending:
		return "Order received and pending confirmation"
	case StatusConfirmed:
		return "Order confirmed and payment verified"
	case StatusProcessing:
		if loc != nil {
			return fmt.Sprintf("Order is being processed at %s", loc.Name)
		}
		return "Order is being processed"
	case StatusShipped:
		if loc != nil {
			return fmt.Sprintf("Order shipped from %s", loc.Name)
		}
		return "Order has been shipped"
	case StatusDelivered:
		return "Order has been delivered to customer"
	case StatusCancelled:
		return "Order has been cancelled"
	}
	return "Status updated"
}
