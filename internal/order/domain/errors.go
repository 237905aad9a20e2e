package domain

import (
	"errors"
	"fmt"
	"strings"
)

// InvalidTransitionError rejects a status change outside the legal graph.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	allowed := e.From.AllowedTargets()
	if len(allowed) == 0 {
		return fmt.Sprintf("cannot change status from %s to %s: %s is a final state", e.From, e.To, e.From)
	}
	names := make([]string, len(allowed))
	for i, s := range allowed {
		names[i] = string(s)
	}
	return fmt.Sprintf("cannot change status from %s to %s, allowed: %s", e.From, e.To, strings.Join(names, ", "))
}

func IsInvalidTransition(err error) bool {
	var it *InvalidTransitionError
	return errors.As(err, &it)
}
