package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"payflow/internal/backend"
	"payflow/internal/catalog"
	"payflow/internal/handler/api"
	"payflow/internal/middleware"
	"payflow/internal/outcome"
	"payflow/internal/repository"
	"payflow/internal/verify"
)

// Deps carries the long-lived services the routes are built from.
type Deps struct {
	DB       *gorm.DB
	Backend  *backend.Client
	Manager  *verify.Manager
	Outcomes *outcome.Router
	Policy   verify.Policy
	APIKey   string
	Logger   *zap.Logger
}

// Setup configures all routes for the Echo server.
func Setup(e *echo.Echo, deps Deps) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())

	payments := repository.NewPaymentRepository(deps.DB)
	resolver := catalog.NewResolver(deps.Backend, deps.Logger)

	catalogHandler := api.NewCatalogHandler(resolver, deps.Logger)
	checkoutHandler := api.NewCheckoutHandler(
		resolver,
		deps.Backend,
		deps.Manager,
		deps.Outcomes,
		payments,
		deps.Policy,
		deps.Logger,
	)
	paymentHandler := api.NewPaymentHandler(payments, deps.Logger)

	// Storefront routes: consumed by the checkout pages, no auth beyond
	// the per-page client id.
	store := e.Group("/api/checkout")
	store.GET("/item", catalogHandler.Item)
	store.GET("/methods", catalogHandler.Methods)
	store.POST("", checkoutHandler.Submit)
	store.GET("/status", checkoutHandler.Status)
	store.GET("/result", checkoutHandler.Result)

	// Merchant routes behind the API key.
	admin := e.Group("/api/admin")
	admin.Use(middleware.APIAuth(deps.APIKey))
	admin.GET("/payments", paymentHandler.List)
	admin.GET("/payments/:reference", paymentHandler.Get)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
}
