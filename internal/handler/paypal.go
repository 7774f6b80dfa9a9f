package handler

import (
	"fmt"
	"html/template"
	"io"
	"net/http"

	"linkcart/internal/service"

	"github.com/labstack/echo/v4"
)

type PaypalHandler struct {
	paypalService service.PaypalService
}

func NewPaypalHandler(paypalService service.PaypalService) *PaypalHandler {
	return &PaypalHandler{
		paypalService: paypalService,
	}
}

var resultPage = template.Must(template.New("result").Parse(`
	<!DOCTYPE html>
	<html>
	<head>
		<meta charset="utf-8">
		<title>{{.Title}}</title>
		<style>
			body {
				font-family: Arial, sans-serif;
				text-align: center;
				margin-top: 80px;
			}
			.countdown {
				font-size: 24px;
				font-weight: bold;
			}
		</style>
	</head>
	<body>
		<h2>{{.Title}}</h2>
		<p>{{.Message}}</p>
		<p>Redirecting to your cart in <span class="countdown" id="countdown">5</span> seconds…</p>

		<script>
			let seconds = 5;
			const el = document.getElementById("countdown");

			const timer = setInterval(function () {
				seconds--;
				el.textContent = seconds;

				if (seconds <= 0) {
					clearInterval(timer);
					window.location.href = "/";
				}
			}, 1000);
		</script>
	</body>
	</html>
`))

func renderResult(c echo.Context, status int, title, message string) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	return resultPage.Execute(c.Response(), map[string]string{"Title": title, "Message": message})
}

// HandleSuccess is PayPal's return URL. PayPal appends token (its order id);
// order_id is ours.
func (h *PaypalHandler) HandleSuccess(c echo.Context) error {
	ctx := c.Request().Context()

	orderID := c.QueryParam("order_id")
	token := c.QueryParam("token")
	if orderID == "" || token == "" {
		return c.String(http.StatusBadRequest, "missing order token")
	}

	if err := h.paypalService.Approve(ctx, orderID, token); err != nil {
		if he, ok := httpError(err).(*echo.HTTPError); ok {
			return renderResult(c, he.Code, "Payment failed", fmt.Sprint(he.Message))
		}
		return err
	}

	return renderResult(c, http.StatusOK, "Payment completed", "Thank you, your order has been paid.")
}

func (h *PaypalHandler) HandleCancel(c echo.Context) error {
	orderID := c.QueryParam("order_id")
	if orderID == "" {
		return c.String(http.StatusBadRequest, "missing order id")
	}

	if err := h.paypalService.Cancel(c.Request().Context(), orderID); err != nil {
		return httpError(err)
	}

	return renderResult(c, http.StatusOK, "Payment cancelled", "Your cart has been kept.")
}

func (h *PaypalHandler) PayPalWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	err = h.paypalService.HandleWebhook(ctx, c.Request().Header, body)
	if err != nil {
		return fmt.Errorf("handle webhook: %w", err)
	}

	return c.NoContent(http.StatusOK)
}
