package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/megamart/orderflow/internal/location"
	"github.com/megamart/orderflow/pkg/fault"
)

func testOrder(t *testing.T, paymentType PaymentType) Order {
	t.Helper()
	items := []Item{
		{ProductID: 1, Quantity: 2, LineTotal: decimal.NewFromInt(500)},
		{ProductID: 2, Quantity: 1, LineTotal: decimal.NewFromInt(300)},
	}
	customer := CustomerInfo{Name: "A Customer", Email: "a@example.com"}
	return New("ord-1", "ORD-0001", 42, customer, items, decimal.NewFromInt(800), paymentType, ShippingAddress{FullName: "A Customer", City: "Pune"}, time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC))
}

func TestTransitionGraph(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusProcessing, false},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusDelivered, false},
		{StatusConfirmed, StatusProcessing, true},
		{StatusConfirmed, StatusShipped, false},
		{StatusConfirmed, StatusCancelled, false},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusDelivered, false},
		{StatusProcessing, StatusCancelled, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestTerminalStatesAbsorbing(t *testing.T) {
	for _, terminal := range []Status{StatusDelivered, StatusCancelled} {
		if !terminal.Terminal() {
			t.Fatalf("%s should be terminal", terminal)
		}
		for _, target := range AllStatuses {
			o := testOrder(t, PaymentCard)
			o.Status = terminal
			err := o.Transition(target, nil, "", "admin", time.Now())
			if !IsInvalidTransition(err) {
				t.Errorf("transition %s -> %s: got %v, want InvalidTransition", terminal, target, err)
			}
		}
	}
}

func TestTransitionNotIdempotent(t *testing.T) {
	o := testOrder(t, PaymentCard)
	o.Status = StatusConfirmed
	now := time.Now()
	if err := o.Transition(StatusProcessing, nil, "", "admin", now); err != nil {
		t.Fatalf("first transition: %v", err)
	}
	err := o.Transition(StatusProcessing, nil, "", "admin", now)
	if !IsInvalidTransition(err) {
		t.Fatalf("second transition: got %v, want InvalidTransition", err)
	}
}

func TestTrackingHistoryRoundTrip(t *testing.T) {
	o := testOrder(t, PaymentCard)
	steps := []Status{StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered}
	base := o.CreatedAt
	for i, s := range steps {
		if err := o.Transition(s, nil, "", "admin", base.Add(time.Duration(i+1)*time.Hour)); err != nil {
			t.Fatalf("transition to %s: %v", s, err)
		}
	}

	// Initial pending entry plus one per transition.
	if len(o.Tracking) != len(steps)+1 {
		t.Fatalf("tracking length: got %d, want %d", len(o.Tracking), len(steps)+1)
	}
	for i, entry := range o.Tracking {
		if entry.Seq != i {
			t.Errorf("entry %d seq: got %d", i, entry.Seq)
		}
		if i == 0 {
			continue
		}
		if entry.Status != steps[i-1] {
			t.Errorf("entry %d status: got %s, want %s", i, entry.Status, steps[i-1])
		}
		if !entry.Timestamp.After(o.Tracking[i-1].Timestamp) {
			t.Errorf("entry %d timestamp not after previous", i)
		}
	}
}

func TestTransitionWithLocation(t *testing.T) {
	o := testOrder(t, PaymentCard)
	o.Status = StatusConfirmed
	loc := &location.Location{ID: 7, Name: "Mumbai Central Warehouse", City: "Mumbai", Type: location.TypeWarehouse}
	if err := o.Transition(StatusProcessing, loc, "priority", "admin", time.Now()); err != nil {
		t.Fatal(err)
	}
	last := o.Tracking[len(o.Tracking)-1]
	if last.Location != "Mumbai Central Warehouse, Mumbai" {
		t.Errorf("location: got %q", last.Location)
	}
	if last.Description != "Order is being processed at Mumbai Central Warehouse" {
		t.Errorf("description: got %q", last.Description)
	}
	if o.CurrentLocation != loc.Label() {
		t.Errorf("currentLocation: got %q", o.CurrentLocation)
	}
	if o.ProcessingNotes != "priority" {
		t.Errorf("processingNotes: got %q", o.ProcessingNotes)
	}
}

func TestCancelByCustomer(t *testing.T) {
	t.Run("requires reason", func(t *testing.T) {
		o := testOrder(t, PaymentCard)
		o.Status = StatusConfirmed
		err := o.CancelByCustomer("", time.Now())
		if !fault.IsValidation(err) {
			t.Fatalf("got %v, want ValidationError", err)
		}
	})

	t.Run("rejected outside confirmed/processing", func(t *testing.T) {
		for _, s := range []Status{StatusPending, StatusShipped, StatusDelivered, StatusCancelled} {
			o := testOrder(t, PaymentCard)
			o.Status = s
			err := o.CancelByCustomer("changed my mind", time.Now())
			if !IsInvalidTransition(err) {
				t.Errorf("status %s: got %v, want InvalidTransition", s, err)
			}
		}
	})

	t.Run("refunds completed payment", func(t *testing.T) {
		o := testOrder(t, PaymentCard)
		o.Status = StatusProcessing
		if err := o.CancelByCustomer("ordered by mistake", time.Now()); err != nil {
			t.Fatal(err)
		}
		if o.Status != StatusCancelled {
			t.Errorf("status: got %s", o.Status)
		}
		if o.CancelledBy != ActorCustomer {
			t.Errorf("cancelledBy: got %s", o.CancelledBy)
		}
		if o.PaymentStatus != PaymentRefunded {
			t.Errorf("paymentStatus: got %s", o.PaymentStatus)
		}
		if !o.VisibleToAdmin || !o.VisibleToCustomer {
			t.Error("cancelled order should stay visible to both audiences")
		}
		if !o.RefundDue() {
			t.Error("card payment should be refund-eligible")
		}
	})

	t.Run("cod gets no refund", func(t *testing.T) {
		o := testOrder(t, PaymentCOD)
		o.Status = StatusConfirmed
		if err := o.CancelByCustomer("found cheaper", time.Now()); err != nil {
			t.Fatal(err)
		}
		if o.PaymentStatus != PaymentPending {
			t.Errorf("paymentStatus: got %s, want pending", o.PaymentStatus)
		}
		if o.RefundDue() {
			t.Error("COD order must not be refund-eligible")
		}
	})
}

func TestMarkRemovedByAdmin(t *testing.T) {
	o := testOrder(t, PaymentCard)
	o.Status = StatusProcessing
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := o.MarkRemovedByAdmin("stock damaged", now); err != nil {
		t.Fatal(err)
	}
	if o.Status != StatusCancelled {
		t.Errorf("status: got %s", o.Status)
	}
	if !o.IsArchived || o.ArchivedBy != ActorAdmin || o.ArchivedReason != "stock damaged" {
		t.Errorf("archival fields: %+v", o)
	}
	want := now.Add(ArchiveRetention)
	if o.AutoDeleteDate == nil || !o.AutoDeleteDate.Equal(want) {
		t.Errorf("autoDeleteDate: got %v, want %v", o.AutoDeleteDate, want)
	}
	if o.CancelledBy != ActorAdmin || o.CancellationReason != "stock damaged" {
		t.Errorf("cancellation fields: %+v", o)
	}

	delivered := testOrder(t, PaymentCard)
	delivered.Status = StatusDelivered
	if err := delivered.MarkRemovedByAdmin("cleanup", now); err == nil {
		t.Error("delivered order must not be archived")
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range AllStatuses {
		got, err := ParseStatus(string(s))
		if err != nil || got != s {
			t.Errorf("ParseStatus(%q) = %v, %v", s, got, err)
		}
	}
	if _, err := ParseStatus("returned"); err == nil {
		t.Error("unknown status must be rejected")
	}
}

func TestErrorTaxonomyUnwrap(t *testing.T) {
	err := error(&InvalidTransitionError{From: StatusShipped, To: StatusCancelled})
	var it *InvalidTransitionError
	if !errors.As(err, &it) {
		t.Fatal("errors.As failed for InvalidTransitionError")
	}
	if it.From != StatusShipped {
		t.Errorf("From: got %s", it.From)
	}
}
