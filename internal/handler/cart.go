package handler

import (
	"net/http"
	"strconv"

	"linkcart/internal/dto"
	"linkcart/internal/middleware"
	"linkcart/internal/model"
	"linkcart/internal/service"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	cartService   service.CartService
	ledgerService service.LedgerService
}

func NewCartHandler(cartService service.CartService, ledgerService service.LedgerService) *CartHandler {
	return &CartHandler{
		cartService:   cartService,
		ledgerService: ledgerService,
	}
}

func (h *CartHandler) Get(c echo.Context) error {
	items, err := h.cartService.Items(c.Request().Context(), middleware.BuyerFrom(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cartResponse(items))
}

// Add puts an item in the cart. Authenticated buyers can only add line items
// currently visible to them; the stored copy is the invoice, not the request.
func (h *CartHandler) Add(c echo.Context) error {
	var req dto.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	ctx := c.Request().Context()
	buyer := middleware.BuyerFrom(c)
	item := model.CartItem{
		ProductName: req.ProductName,
		Details:     req.Details,
		Price:       req.Price,
		Shipping:    req.Shipping,
		ImageURL:    req.ImageURL,
		Link:        req.Link,
	}

	if buyer.Authenticated() {
		visible, err := h.ledgerService.Visible(ctx, buyer)
		if err != nil {
			return httpError(err)
		}
		key := model.NaturalKey{ProductName: req.ProductName, Price: req.Price, BuyerEmail: buyer.Email}
		found := false
		for _, inv := range visible {
			if inv.Key().Equal(key) {
				item = model.CartItemFromInvoice(inv)
				found = true
				break
			}
		}
		if !found {
			return echo.NewHTTPError(http.StatusNotFound, "invoice item not found")
		}
	}

	items, err := h.cartService.Add(ctx, buyer, item)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cartResponse(items))
}

func (h *CartHandler) RemoveAt(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid index")
	}

	items, err := h.cartService.RemoveAt(c.Request().Context(), middleware.BuyerFrom(c), index)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cartResponse(items))
}

func (h *CartHandler) Clear(c echo.Context) error {
	if err := h.cartService.Clear(c.Request().Context(), middleware.BuyerFrom(c)); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cartResponse([]model.CartItem{}))
}

func cartResponse(items []model.CartItem) *dto.CartResponse {
	totals := service.ComputeTotals(items)
	return &dto.CartResponse{
		Items:    items,
		Subtotal: totals.Subtotal.StringFixed(2),
		Shipping: totals.Shipping.StringFixed(2),
		Total:    totals.Total.StringFixed(2),
	}
}
