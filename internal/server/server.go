package server

import (
	"context"
	"net/http"

	"linkcart/internal/handler"
	authmw "linkcart/internal/middleware"
	"linkcart/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Services are the domain services the HTTP surface exposes. Paypal is nil
// when another checkout provider is configured.
type Services struct {
	Submissions service.SubmissionService
	Invoices    service.InvoiceService
	Ledger      service.LedgerService
	Cart        service.CartService
	Checkout    service.CheckoutService
	Paypal      service.PaypalService
}

type Server struct {
	echo              *echo.Echo
	submissionHandler *handler.SubmissionHandler
	invoiceHandler    *handler.InvoiceHandler
	cartHandler       *handler.CartHandler
	checkoutHandler   *handler.CheckoutHandler
	paypalHandler     *handler.PaypalHandler
}

func NewServer(svcs Services, jwtSecret string, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				logger.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:              e,
		submissionHandler: handler.NewSubmissionHandler(svcs.Submissions),
		invoiceHandler:    handler.NewInvoiceHandler(svcs.Invoices, svcs.Ledger),
		cartHandler:       handler.NewCartHandler(svcs.Cart, svcs.Ledger),
		checkoutHandler:   handler.NewCheckoutHandler(svcs.Checkout),
	}
	if svcs.Paypal != nil {
		s.paypalHandler = handler.NewPaypalHandler(svcs.Paypal)
	}

	s.setupRoutes(jwtSecret)
	return s
}

func (s *Server) setupRoutes(jwtSecret string) {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// -------- paypal webhooks / callbacks --------
	// PayPal calls these without our credentials.
	if s.paypalHandler != nil {
		paypal := api.Group("/paypal")
		paypal.GET("/success", s.paypalHandler.HandleSuccess)
		paypal.GET("/cancel", s.paypalHandler.HandleCancel)
		paypal.POST("/webhook", s.paypalHandler.PayPalWebhook)
	}

	buyer := api.Group("", authmw.Auth(jwtSecret))

	buyer.GET("/links", s.submissionHandler.ListPending)
	buyer.POST("/links", s.submissionHandler.AddPending)
	buyer.DELETE("/links", s.submissionHandler.ClearPending)
	buyer.POST("/submissions", s.submissionHandler.Submit)

	buyer.GET("/invoices", s.invoiceHandler.Visible)
	buyer.POST("/invoices/remove", s.invoiceHandler.Remove)
	buyer.POST("/invoices/last-ordered", s.invoiceHandler.RecordLastOrdered)

	buyer.GET("/cart", s.cartHandler.Get)
	buyer.POST("/cart", s.cartHandler.Add)
	buyer.DELETE("/cart", s.cartHandler.Clear)
	buyer.DELETE("/cart/:index", s.cartHandler.RemoveAt)

	buyer.POST("/checkout", s.checkoutHandler.Begin)
	buyer.GET("/checkout/:orderID", s.checkoutHandler.Status)

	// -------- operator --------
	operator := buyer.Group("/operator", authmw.RequireRole(authmw.RoleOperator))
	operator.GET("/submissions", s.submissionHandler.Grouped)
	operator.POST("/invoices", s.invoiceHandler.Create)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
