package handler

import (
	"net/http"

	"linkcart/internal/dto"
	"linkcart/internal/middleware"
	"linkcart/internal/service"

	"github.com/labstack/echo/v4"
)

type SubmissionHandler struct {
	submissionService service.SubmissionService
}

func NewSubmissionHandler(submissionService service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
	}
}

func (h *SubmissionHandler) ListPending(c echo.Context) error {
	links, err := h.submissionService.Pending(c.Request().Context(), middleware.BuyerFrom(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, &dto.PendingLinksResponse{Links: links})
}

func (h *SubmissionHandler) AddPending(c echo.Context) error {
	var req dto.AddLinkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	links, err := h.submissionService.AddPending(c.Request().Context(), middleware.BuyerFrom(c), req.Link)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, &dto.PendingLinksResponse{Links: links})
}

func (h *SubmissionHandler) ClearPending(c echo.Context) error {
	if err := h.submissionService.ClearPending(c.Request().Context(), middleware.BuyerFrom(c)); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SubmissionHandler) Submit(c echo.Context) error {
	batch, err := h.submissionService.Submit(c.Request().Context(), middleware.BuyerFrom(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, batch)
}

func (h *SubmissionHandler) Grouped(c echo.Context) error {
	groups, err := h.submissionService.Grouped(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, &dto.GroupedSubmissionsResponse{Groups: groups})
}
