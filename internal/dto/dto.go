package dto

import (
	"linkcart/internal/model"

	"github.com/shopspring/decimal"
)

type AddLinkRequest struct {
	Link string `json:"link"`
}

type PendingLinksResponse struct {
	Links []string `json:"links"`
}

type CreateInvoiceRequest struct {
	ProductName string          `json:"productName"`
	Details     string          `json:"details"`
	Price       decimal.Decimal `json:"price"`
	Shipping    decimal.Decimal `json:"shipping"`
	ImageURL    string          `json:"imageUrl"`
	Link        string          `json:"link"`
	BuyerEmail  string          `json:"buyerEmail"`
}

type RemoveInvoiceRequest struct {
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
}

type LastOrderedRequest struct {
	Items []model.OrderedItem `json:"items"`
}

type CartResponse struct {
	Items    []model.CartItem `json:"items"`
	Subtotal string           `json:"subtotal"`
	Shipping string           `json:"shipping"`
	Total    string           `json:"total"`
}

type CheckoutRequest struct {
	// PaymentNonce is required by the braintree provider only.
	PaymentNonce string `json:"paymentNonce"`
}

type CheckoutResponse struct {
	OrderID     string `json:"order_id"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	ApprovalURL string `json:"approval_url,omitempty"`
	State       string `json:"state"`
}

type CheckoutOutcomeResponse struct {
	OrderID string `json:"order_id"`
	State   string `json:"state"`
	Error   string `json:"error,omitempty"`
}

type AddCartItemRequest struct {
	ProductName string          `json:"productName"`
	Details     string          `json:"details"`
	Price       decimal.Decimal `json:"price"`
	Shipping    decimal.Decimal `json:"shipping"`
	ImageURL    string          `json:"imageUrl"`
	Link        string          `json:"link"`
}

type InvoicesResponse struct {
	Items []model.InvoiceLineItem `json:"items"`
}

type GroupedSubmissionsResponse struct {
	Groups map[string][]*model.SubmittedLinkBatch `json:"groups"`
}
