package model

// PaymentRequest is what the gateway is asked to charge for one checkout
// attempt. It is never persisted; a retry gets a new OrderID.
type PaymentRequest struct {
	OrderID     string `json:"orderId"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	BuyerEmail  string `json:"buyerEmail"`
	ItemSummary string `json:"itemSummary"`
	// PaymentNonce is only used by server-side charge gateways.
	PaymentNonce string `json:"-"`
}

type CheckoutState string

const (
	CheckoutIdle       CheckoutState = "IDLE"
	CheckoutRequesting CheckoutState = "REQUESTING"
	CheckoutCompleted  CheckoutState = "COMPLETED"
	CheckoutDismissed  CheckoutState = "DISMISSED"
	CheckoutErrored    CheckoutState = "ERRORED"
	CheckoutTimedOut   CheckoutState = "TIMED_OUT"
)

func (s CheckoutState) IsTerminal() bool {
	switch s {
	case CheckoutCompleted, CheckoutDismissed, CheckoutErrored, CheckoutTimedOut:
		return true
	}
	return false
}

func (s CheckoutState) String() string {
	return string(s)
}
