package service

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateItem      = errors.New("item already in cart")
	ErrNotAuthenticated   = errors.New("buyer is not authenticated")
	ErrCheckoutInProgress = errors.New("a checkout is already in progress")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrTimedOut           = errors.New("payment gateway did not answer in time")
	ErrUnknownOrder       = errors.New("unknown order")
)

// ValidationError reports input rejected before any state changed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransportError wraps a failed call to a remote store or service. The
// operation can be retried.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// GatewayCallbackError carries the message the payment gateway reported.
type GatewayCallbackError struct {
	Message string
}

func (e *GatewayCallbackError) Error() string {
	return "payment gateway error: " + e.Message
}
