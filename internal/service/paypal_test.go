package service

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"linkcart/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePaypalClient struct {
	*fakeGateway
	captureErr error
	verifyErr  error
	captured   []string
}

func (c *fakePaypalClient) CaptureOrder(ctx context.Context, paypalOrderID string) error {
	c.captured = append(c.captured, paypalOrderID)
	return c.captureErr
}

func (c *fakePaypalClient) VerifyWebhookSignature(ctx context.Context, headers http.Header, body []byte) error {
	return c.verifyErr
}

type paypalFixture struct {
	checkoutFixture
	paypal *fakePaypalClient
	svc    PaypalService
}

func newPaypalFixture(t *testing.T) paypalFixture {
	t.Helper()
	pc := &fakePaypalClient{fakeGateway: newRedirectGateway()}
	cf := newCheckoutFixture(t, pc.fakeGateway, time.Minute)
	return paypalFixture{
		checkoutFixture: cf,
		paypal:          pc,
		svc:             NewPaypalService(pc, cf.svc, zap.NewNop()),
	}
}

func (f paypalFixture) begin(t *testing.T) *Attempt {
	t.Helper()
	f.fillCart(t, buyerA(), widget())
	attempt, err := f.checkoutFixture.svc.BeginCheckout(context.Background(), buyerA(), "")
	require.NoError(t, err)
	return attempt
}

func webhookBody(t *testing.T, eventType, customID, reason string) []byte {
	t.Helper()
	body, err := json.Marshal(model.PayPalWebhookEvent{
		ID:        "WH-1",
		EventType: eventType,
		Resource: model.PaypalResource{
			ID: "CAP-1", CustomID: customID, StatusDetails: model.StatusDetails{Reason: reason},
		},
	})
	require.NoError(t, err)
	return body
}

func TestPaypalService_Approve(t *testing.T) {
	ctx := context.Background()
	f := newPaypalFixture(t)
	attempt := f.begin(t)

	err := f.svc.Approve(ctx, attempt.Request.OrderID, "PP-OTHER")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, f.paypal.captured)

	require.NoError(t, f.svc.Approve(ctx, attempt.Request.OrderID, attempt.GatewayOrderID))
	assert.Equal(t, []string{"PP-ORDER-1"}, f.paypal.captured)

	snap, err := f.checkoutFixture.svc.Lookup(attempt.Request.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.CheckoutCompleted, snap.State)

	// A reloaded return page does not capture twice.
	require.NoError(t, f.svc.Approve(ctx, attempt.Request.OrderID, attempt.GatewayOrderID))
	assert.Len(t, f.paypal.captured, 1)
}

func TestPaypalService_ApproveAfterCancelDoesNotCapture(t *testing.T) {
	ctx := context.Background()
	f := newPaypalFixture(t)
	attempt := f.begin(t)
	require.NoError(t, f.svc.Cancel(ctx, attempt.Request.OrderID))

	err := f.svc.Approve(ctx, attempt.Request.OrderID, attempt.GatewayOrderID)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "order", verr.Field)
	assert.Empty(t, f.paypal.captured)

	snap, err := f.checkoutFixture.svc.Lookup(attempt.Request.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.CheckoutDismissed, snap.State)
}

func TestPaypalService_ApproveCaptureFails(t *testing.T) {
	ctx := context.Background()
	f := newPaypalFixture(t)
	f.paypal.captureErr = errBoom
	attempt := f.begin(t)

	err := f.svc.Approve(ctx, attempt.Request.OrderID, attempt.GatewayOrderID)
	var terr *TransportError
	require.ErrorAs(t, err, &terr)

	snap, err := f.checkoutFixture.svc.Lookup(attempt.Request.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.CheckoutErrored, snap.State)

	items, err := f.cart.Items(ctx, buyerA())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestPaypalService_Cancel(t *testing.T) {
	f := newPaypalFixture(t)
	attempt := f.begin(t)

	require.NoError(t, f.svc.Cancel(context.Background(), attempt.Request.OrderID))
	snap, err := f.checkoutFixture.svc.Lookup(attempt.Request.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.CheckoutDismissed, snap.State)
}

func TestPaypalService_HandleWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("capture completed", func(t *testing.T) {
		f := newPaypalFixture(t)
		attempt := f.begin(t)

		body := webhookBody(t, "PAYMENT.CAPTURE.COMPLETED", attempt.Request.OrderID, "")
		require.NoError(t, f.svc.HandleWebhook(ctx, http.Header{}, body))
		require.NoError(t, f.svc.HandleWebhook(ctx, http.Header{}, body))

		items, err := f.cart.Items(ctx, buyerA())
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("capture denied", func(t *testing.T) {
		f := newPaypalFixture(t)
		attempt := f.begin(t)

		body := webhookBody(t, "PAYMENT.CAPTURE.DENIED", attempt.Request.OrderID, "DECLINED_BY_RISK_FRAUD_FILTERS")
		require.NoError(t, f.svc.HandleWebhook(ctx, http.Header{}, body))

		out, err := f.checkoutFixture.svc.Wait(ctx, attempt.Request.OrderID)
		require.NoError(t, err)
		assert.Equal(t, model.CheckoutErrored, out.State)
		assert.EqualError(t, out.Err, "payment gateway error: DECLINED_BY_RISK_FRAUD_FILTERS")
	})

	t.Run("unknown order is acknowledged", func(t *testing.T) {
		f := newPaypalFixture(t)
		body := webhookBody(t, "PAYMENT.CAPTURE.COMPLETED", "ORDER-NEVER", "")
		assert.NoError(t, f.svc.HandleWebhook(ctx, http.Header{}, body))
	})

	t.Run("other events ignored", func(t *testing.T) {
		f := newPaypalFixture(t)
		body := webhookBody(t, "CHECKOUT.ORDER.APPROVED", "ORDER-1", "")
		assert.NoError(t, f.svc.HandleWebhook(ctx, http.Header{}, body))
	})

	t.Run("bad signature", func(t *testing.T) {
		f := newPaypalFixture(t)
		f.paypal.verifyErr = errBoom
		err := f.svc.HandleWebhook(ctx, http.Header{}, webhookBody(t, "PAYMENT.CAPTURE.COMPLETED", "ORDER-1", ""))
		assert.ErrorIs(t, err, errBoom)
	})
}
