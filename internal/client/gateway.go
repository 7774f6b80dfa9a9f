package client

import (
	"context"
	"errors"

	"linkcart/internal/model"
)

var ErrGatewayNotConfigured = errors.New("payment gateway is not configured")

// PaymentGateway starts a payment for one checkout attempt.
type PaymentGateway interface {
	// Ready reports whether the gateway has the credentials it needs.
	Ready() bool
	Initiate(ctx context.Context, req model.PaymentRequest) (*Initiation, error)
}

// Initiation is the gateway's answer to a payment request. Redirect gateways
// fill ApprovalURL and report the outcome later through callbacks; server-side
// charge gateways fill Immediate.
type Initiation struct {
	GatewayOrderID string
	ApprovalURL    string
	Immediate      *GatewayResult
}

type GatewayResult struct {
	Completed bool
	Message   string
}
