package handler

import (
	"net/http"

	"linkcart/internal/dto"
	"linkcart/internal/middleware"
	"linkcart/internal/model"
	"linkcart/internal/service"

	"github.com/labstack/echo/v4"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
	ledgerService  service.LedgerService
}

func NewInvoiceHandler(invoiceService service.InvoiceService, ledgerService service.LedgerService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		ledgerService:  ledgerService,
	}
}

// Visible lists the caller's invoice line items minus the ones they removed.
func (h *InvoiceHandler) Visible(c echo.Context) error {
	items, err := h.ledgerService.Visible(c.Request().Context(), middleware.BuyerFrom(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, &dto.InvoicesResponse{Items: items})
}

func (h *InvoiceHandler) Remove(c echo.Context) error {
	var req dto.RemoveInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	buyer := middleware.BuyerFrom(c)
	key := model.NaturalKey{ProductName: req.ProductName, Price: req.Price, BuyerEmail: buyer.Email}
	if err := h.ledgerService.Remove(c.Request().Context(), buyer, key); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *InvoiceHandler) RecordLastOrdered(c echo.Context) error {
	var req dto.LastOrderedRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	if err := h.ledgerService.RecordLastOrdered(c.Request().Context(), middleware.BuyerFrom(c), req.Items); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Create is the operator's conversion of a submitted link into a priced item.
func (h *InvoiceHandler) Create(c echo.Context) error {
	var req dto.CreateInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	item := &model.InvoiceLineItem{
		ProductName: req.ProductName,
		Details:     req.Details,
		Price:       req.Price,
		Shipping:    req.Shipping,
		ImageURL:    req.ImageURL,
		Link:        req.Link,
		BuyerEmail:  req.BuyerEmail,
	}
	if err := h.invoiceService.Create(c.Request().Context(), item); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, item)
}
