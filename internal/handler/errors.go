package handler

import (
	"context"
	"errors"
	"net/http"

	"linkcart/internal/service"

	"github.com/labstack/echo/v4"
)

// httpError maps service errors onto status codes. Anything unrecognised is
// returned as is and ends up a 500.
func httpError(err error) error {
	var verr *service.ValidationError
	var terr *service.TransportError
	var gerr *service.GatewayCallbackError

	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, verr.Error())
	case errors.Is(err, service.ErrNotAuthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrDuplicateItem),
		errors.Is(err, service.ErrCheckoutInProgress):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnknownOrder):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrGatewayUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "request timed out")
	case errors.As(err, &gerr), errors.As(err, &terr):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error()).SetInternal(err)
	}
	return err
}
