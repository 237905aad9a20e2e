package domain

import "fmt"

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// AllStatuses enumerates every lifecycle status. Keep in sync with the
// transition table below; init verifies the table covers all of them.
var AllStatuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// transitions is the legal forward graph. Cancellation from confirmed or
// processing is not a generic transition; it only happens through the
// customer-cancel and admin-removal operations.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

func init() {
	for _, s := range AllStatuses {
		if _, ok := transitions[s]; !ok {
			panic(fmt.Sprintf("order status %q missing from transition table", s))
		}
	}
	if len(transitions) != len(AllStatuses) {
		panic("order transition table lists an unknown status")
	}
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	for _, known := range AllStatuses {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

func (s Status) String() string { return string(s) }

// Terminal reports whether the status has no outgoing edges.
func (s Status) Terminal() bool { return len(transitions[s]) == 0 }

func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// AllowedTargets returns a copy of the legal targets from s.
func (s Status) AllowedTargets() []Status {
	out := make([]Status, len(transitions[s]))
	copy(out, transitions[s])
	return out
}
