// Package fault defines the error taxonomy shared by the order core and its
// service clients: NotFound, ValidationFailed, Unavailable, PartialFailure.
// The order-specific InvalidTransition error lives with the order domain.
package fault

import (
	"errors"
	"fmt"
	"strings"
)

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UnavailableError marks a network or service failure. Required steps abort
// on it; best-effort steps log it and move on.
type UnavailableError struct {
	Service string
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func Unavailable(service string, err error) *UnavailableError {
	return &UnavailableError{Service: service, Err: err}
}

func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// PartialFailureError records a best-effort batch where some sub-operations
// failed but the operation as a whole proceeded.
type PartialFailureError struct {
	Op     string
	Failed []string
	Errs   []error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s partially failed for [%s]", e.Op, strings.Join(e.Failed, ", "))
}

func (e *PartialFailureError) Unwrap() []error { return e.Errs }

func IsPartialFailure(err error) bool {
	var pf *PartialFailureError
	return errors.As(err, &pf)
}
