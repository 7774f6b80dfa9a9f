package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"linkcart/internal/client"
	"linkcart/internal/model"

	"go.uber.org/zap"
)

// PaypalService turns PayPal redirects and webhooks into checkout callbacks.
type PaypalService interface {
	// Approve captures the PayPal order the buyer approved and completes
	// orderID. token is the PayPal order id from the return redirect.
	Approve(ctx context.Context, orderID, token string) error
	Cancel(ctx context.Context, orderID string) error
	HandleWebhook(ctx context.Context, headers http.Header, body []byte) error
}

type paypalServiceImpl struct {
	paypalClient client.PaypalClient
	checkout     CheckoutService
	logger       *zap.Logger
}

func NewPaypalService(paypalClient client.PaypalClient, checkout CheckoutService, logger *zap.Logger) PaypalService {
	return &paypalServiceImpl{
		paypalClient: paypalClient,
		checkout:     checkout,
		logger:       logger,
	}
}

func (s *paypalServiceImpl) Approve(ctx context.Context, orderID, token string) error {
	snap, err := s.checkout.Lookup(orderID)
	if err != nil {
		return err
	}
	switch snap.State {
	case model.CheckoutCompleted:
		return nil
	case model.CheckoutDismissed, model.CheckoutErrored:
		// The buyer has been told this attempt failed; never charge it now.
		return &ValidationError{Field: "order", Reason: "checkout already ended as " + snap.State.String()}
	}
	if token == "" || token != snap.GatewayOrderID {
		return &ValidationError{Field: "token", Reason: "does not match the order"}
	}

	if err := s.paypalClient.CaptureOrder(ctx, token); err != nil {
		// A cancelled request says nothing about the payment itself.
		if ctx.Err() == nil {
			if ferr := s.checkout.OnError(ctx, orderID, err.Error()); ferr != nil {
				s.logger.Warn("record capture failure", zap.String("order_id", orderID), zap.Error(ferr))
			}
		}
		return &TransportError{Op: "paypal capture order", Err: err}
	}

	return s.checkout.OnCompleted(ctx, orderID)
}

func (s *paypalServiceImpl) Cancel(ctx context.Context, orderID string) error {
	return s.checkout.OnDismissed(ctx, orderID)
}

func (s *paypalServiceImpl) HandleWebhook(ctx context.Context, headers http.Header, body []byte) error {
	err := s.paypalClient.VerifyWebhookSignature(ctx, headers, body)
	if err != nil {
		return fmt.Errorf("verify webhook signature: %w", err)
	}

	var event model.PayPalWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode webhook payload: %w", err)
	}

	orderID := event.Resource.CustomID
	log := s.logger.With(
		zap.String("event_id", event.ID),
		zap.String("event_type", event.EventType),
		zap.String("order_id", orderID))

	switch event.EventType {
	case "PAYMENT.CAPTURE.COMPLETED":
		err = s.checkout.OnCompleted(ctx, orderID)
	case "PAYMENT.CAPTURE.DENIED", "PAYMENT.CAPTURE.DECLINED":
		detail := event.Resource.StatusDetails.Reason
		if detail == "" {
			detail = event.Summary
		}
		err = s.checkout.OnError(ctx, orderID, detail)
	default:
		log.Debug("webhook event ignored")
		return nil
	}

	// Unknown orders are acknowledged so PayPal stops redelivering them.
	if errors.Is(err, ErrUnknownOrder) {
		log.Warn("webhook for unknown order")
		return nil
	}
	return err
}
