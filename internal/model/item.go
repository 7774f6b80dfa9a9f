package model

import "github.com/shopspring/decimal"

// NaturalKey identifies an invoice line item across fetches. Two items are the
// same iff product name, price and buyer email all match exactly.
type NaturalKey struct {
	ProductName string
	Price       decimal.Decimal
	BuyerEmail  string
}

func (k NaturalKey) Equal(o NaturalKey) bool {
	return k.ProductName == o.ProductName &&
		k.Price.Equal(o.Price) &&
		k.BuyerEmail == o.BuyerEmail
}

// String renders productName|price|buyerEmail. Equal keys render equally.
func (k NaturalKey) String() string {
	return k.ProductName + "|" + FormatPrice(k.Price) + "|" + k.BuyerEmail
}

// FormatPrice renders a price canonically: two decimals unless more precision
// is present.
func FormatPrice(d decimal.Decimal) string {
	if d.Equal(d.Round(2)) {
		return d.StringFixed(2)
	}
	return d.String()
}

func (i InvoiceLineItem) Key() NaturalKey {
	return NaturalKey{ProductName: i.ProductName, Price: i.Price, BuyerEmail: i.BuyerEmail}
}

// CartItem is an invoice line item the buyer moved into their cart.
type CartItem struct {
	ProductName string          `json:"productName"`
	Details     string          `json:"details"`
	Price       decimal.Decimal `json:"price"`
	Shipping    decimal.Decimal `json:"shipping"`
	ImageURL    string          `json:"imageUrl"`
	Link        string          `json:"link"`
	BuyerEmail  string          `json:"buyerEmail"`
}

func (c CartItem) Key() NaturalKey {
	return NaturalKey{ProductName: c.ProductName, Price: c.Price, BuyerEmail: c.BuyerEmail}
}

func CartItemFromInvoice(i InvoiceLineItem) CartItem {
	return CartItem{
		ProductName: i.ProductName,
		Details:     i.Details,
		Price:       i.Price,
		Shipping:    i.Shipping,
		ImageURL:    i.ImageURL,
		Link:        i.Link,
		BuyerEmail:  i.BuyerEmail,
	}
}

// OrderedItem is one record of the last-ordered marker written by the
// cash-on-delivery confirmation flow.
type OrderedItem struct {
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	BuyerEmail  string          `json:"buyerEmail"`
}

func (o OrderedItem) Key() NaturalKey {
	return NaturalKey{ProductName: o.ProductName, Price: o.Price, BuyerEmail: o.BuyerEmail}
}
