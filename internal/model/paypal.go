package model

type PaypalLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

type PaypalResult struct {
	ID     string       `json:"id"`
	Links  []PaypalLink `json:"links"`
	Status string       `json:"status"`
}

type Amount struct {
	Currency string `json:"currency_code"`
	Value    string `json:"value"`
}

type RelatedIDs struct {
	OrderID string `json:"order_id"`
}

type SupplementaryData struct {
	RelatedIDs RelatedIDs `json:"related_ids"`
}

type StatusDetails struct {
	Reason string `json:"reason"`
}

// PaypalResource is the capture resource carried by PAYMENT.CAPTURE.* events.
// CustomID holds our order id.
type PaypalResource struct {
	ID                string            `json:"id"`
	Status            string            `json:"status"`
	CustomID          string            `json:"custom_id"`
	Amount            Amount            `json:"amount"`
	StatusDetails     StatusDetails     `json:"status_details"`
	SupplementaryData SupplementaryData `json:"supplementary_data"`
}

type PayPalWebhookEvent struct {
	ID         string         `json:"id"`
	EventType  string         `json:"event_type"`
	CreateTime string         `json:"create_time"`
	Summary    string         `json:"summary"`
	Resource   PaypalResource `json:"resource"`
}
