package client

import (
	"context"
	"errors"
	"fmt"

	"linkcart/internal/config"
	"linkcart/internal/model"

	"github.com/braintree-go/braintree-go"
	"github.com/shopspring/decimal"
)

var ErrMissingPaymentNonce = errors.New("braintree checkout requires a payment nonce")

type braintreeClientImpl struct {
	gateway    *braintree.Braintree
	merchantID string
}

// NewBraintreeClient returns a gateway that charges the buyer's nonce
// server-side, so every Initiation carries an Immediate result.
func NewBraintreeClient(cfg *config.Braintree) PaymentGateway {
	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	gateway := braintree.New(
		env,
		cfg.MerchantID,
		cfg.PublicKey,
		cfg.PrivateKey,
	)

	return &braintreeClientImpl{
		gateway:    gateway,
		merchantID: cfg.MerchantID,
	}
}

func (c *braintreeClientImpl) Ready() bool {
	return c.merchantID != ""
}

func (c *braintreeClientImpl) Initiate(ctx context.Context, pr model.PaymentRequest) (*Initiation, error) {
	if pr.PaymentNonce == "" {
		return nil, ErrMissingPaymentNonce
	}

	decAmount, err := decimal.NewFromString(pr.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}

	// braintree wants NewDecimal(unscaled, scale): "50.00" -> NewDecimal(5000, 2)
	cents := decAmount.Mul(decimal.NewFromInt(100)).IntPart()
	btAmount := braintree.NewDecimal(cents, 2)

	req := &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             btAmount,
		OrderId:            pr.OrderID,
		PaymentMethodNonce: pr.PaymentNonce,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: true,
		},
	}

	tx, err := c.gateway.Transaction().Create(ctx, req)
	if err != nil {
		var btErr *braintree.BraintreeError
		if errors.As(err, &btErr) {
			// validation failures come back as errors but are gateway verdicts
			return &Initiation{Immediate: &GatewayResult{Message: btErr.Error()}}, nil
		}
		return nil, fmt.Errorf("transaction creation failed: %w", err)
	}

	if tx.Status == braintree.TransactionStatusProcessorDeclined {
		return &Initiation{
			GatewayOrderID: tx.Id,
			Immediate:      &GatewayResult{Message: fmt.Sprintf("transaction declined by processor: %s", tx.ProcessorResponseText)},
		}, nil
	}

	return &Initiation{
		GatewayOrderID: tx.Id,
		Immediate:      &GatewayResult{Completed: true},
	}, nil
}
