package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubmittedLinkBatch is one buyer submission of external product links,
// waiting for an operator to convert it into invoice line items.
type SubmittedLinkBatch struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	SubmitterID    string    `gorm:"size:128;index" json:"submitterId"`
	SubmitterName  string    `gorm:"size:255" json:"submitterName"`
	SubmitterEmail string    `gorm:"size:255;index" json:"submitterEmail"`
	Links          []string  `gorm:"serializer:json;not null" json:"links"`
	SubmittedAt    time.Time `gorm:"index;not null" json:"submittedAt"`
}

func (SubmittedLinkBatch) TableName() string { return "submitted_links" }

// InvoiceLineItem is a priced item the operator created for a buyer. It has no
// surrogate identity visible to the pipeline; see Key.
type InvoiceLineItem struct {
	ID          uint            `gorm:"primaryKey" json:"-"`
	ProductName string          `gorm:"size:255;not null" json:"productName"`
	Details     string          `gorm:"type:text" json:"details"`
	Price       decimal.Decimal `gorm:"type:varchar(32);not null" json:"price"`
	Shipping    decimal.Decimal `gorm:"type:varchar(32);not null" json:"shipping"`
	ImageURL    string          `gorm:"size:1024" json:"imageUrl"`
	Link        string          `gorm:"size:2048" json:"link"`
	BuyerEmail  string          `gorm:"size:255;index;not null" json:"buyerEmail"`
	CreatedAt   time.Time       `json:"-"`
}

func (InvoiceLineItem) TableName() string { return "invoices" }

// PaymentCompletion records that the gateway reported an order as paid.
// One row per order id, never updated.
type PaymentCompletion struct {
	OrderID     string `gorm:"primaryKey;size:64;not null"`
	BuyerEmail  string `gorm:"size:255;index;not null"`
	Amount      string `gorm:"size:32;not null"`
	Currency    string `gorm:"size:8;not null"`
	CompletedAt time.Time
}

// LocalState is one buyer-scoped value of the local state store.
type LocalState struct {
	Scope     string `gorm:"primaryKey;size:320;not null"`
	Key       string `gorm:"column:state_key;primaryKey;size:64;not null"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}
