package service

import (
	"context"
	"strings"

	"linkcart/internal/model"
	"linkcart/internal/repository"

	"go.uber.org/zap"
)

type InvoiceService interface {
	// Fetch returns every line item billed to buyerEmail. Nothing found is an
	// empty slice, not an error.
	Fetch(ctx context.Context, buyerEmail string) ([]model.InvoiceLineItem, error)
	Create(ctx context.Context, item *model.InvoiceLineItem) error
}

type invoiceServiceImpl struct {
	invoiceRepo repository.InvoiceRepository
	logger      *zap.Logger
}

func NewInvoiceService(invoiceRepo repository.InvoiceRepository, logger *zap.Logger) InvoiceService {
	return &invoiceServiceImpl{
		invoiceRepo: invoiceRepo,
		logger:      logger,
	}
}

func (s *invoiceServiceImpl) Fetch(ctx context.Context, buyerEmail string) ([]model.InvoiceLineItem, error) {
	rows, err := s.invoiceRepo.FindByBuyerEmail(ctx, buyerEmail)
	if ctxErr := ctx.Err(); ctxErr != nil {
		// The caller gave up; a late result must not be applied.
		return nil, ctxErr
	}
	if err != nil {
		return nil, &TransportError{Op: "fetch invoices", Err: err}
	}

	items := make([]model.InvoiceLineItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, *r)
	}
	return items, nil
}

func (s *invoiceServiceImpl) Create(ctx context.Context, item *model.InvoiceLineItem) error {
	item.ProductName = strings.TrimSpace(item.ProductName)
	item.BuyerEmail = strings.TrimSpace(item.BuyerEmail)
	switch {
	case item.ProductName == "":
		return &ValidationError{Field: "productName", Reason: "must not be empty"}
	case item.BuyerEmail == "":
		return &ValidationError{Field: "buyerEmail", Reason: "must not be empty"}
	case item.Price.IsNegative():
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	case item.Shipping.IsNegative():
		return &ValidationError{Field: "shipping", Reason: "must not be negative"}
	}

	if err := s.invoiceRepo.Create(ctx, item); err != nil {
		return &TransportError{Op: "create invoice", Err: err}
	}
	s.logger.Info("invoice line item created",
		zap.Uint("id", item.ID),
		zap.String("buyer_email", item.BuyerEmail),
		zap.String("product", item.ProductName))
	return nil
}
