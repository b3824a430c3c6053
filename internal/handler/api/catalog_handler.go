package api

import (
	"errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"payflow/internal/backend"
	"payflow/internal/catalog"
	"payflow/internal/models"
)

// CatalogHandler serves the storefront's read-only checkout data: the
// purchasable item and the payment method list.
type CatalogHandler struct {
	resolver *catalog.Resolver
	logger   *zap.Logger
}

func NewCatalogHandler(resolver *catalog.Resolver, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{resolver: resolver, logger: logger}
}

// Item resolves what a checkout session is buying.
// GET /api/checkout/item?kind=offer|product|group&id=...&package=1
func (h *CatalogHandler) Item(c echo.Context) error {
	kind := models.ItemKind(c.QueryParam("kind"))
	id := c.QueryParam("id")
	packagePurchase := c.QueryParam("package") == "1"

	if !kind.Valid() || id == "" {
		return errorResponse(c, "kind and id are required")
	}

	res, err := h.resolver.Resolve(c.Request().Context(), kind, id, packagePurchase)
	switch {
	case errors.Is(err, catalog.ErrGroupNotPackage):
		// Not a failure: the storefront must show the group listing
		// instead of the checkout form.
		return successResponse(c, "Group is a listing, not a package", map[string]interface{}{
			"reroute": "listing",
			"group":   res.Group,
		})
	case errors.Is(err, backend.ErrNotFound):
		return errorResponse(c, "Item not found or no longer available")
	case err != nil:
		h.logger.Error("item resolution failed",
			zap.String("kind", string(kind)),
			zap.String("id", id),
			zap.Error(err))
		return errorResponse(c, "Could not load the item")
	}

	return successResponse(c, "Successful", map[string]interface{}{
		"item":  res.Item,
		"group": res.Group,
	})
}

// Methods lists the enabled payment methods with the extra fields each
// one requires. An empty list is a valid answer.
// GET /api/checkout/methods
func (h *CatalogHandler) Methods(c echo.Context) error {
	methods, err := h.resolver.Methods(c.Request().Context())
	if err != nil {
		h.logger.Error("payment method fetch failed", zap.Error(err))
		return errorResponse(c, "Could not load payment methods")
	}

	items := make([]map[string]interface{}, 0, len(methods))
	for _, m := range methods {
		items = append(items, map[string]interface{}{
			"id":              m.ID,
			"name":            m.Name,
			"type":            m.Type,
			"channel":         m.Channel,
			"country":         m.Country,
			"logo":            m.Logo,
			"required_fields": m.RequiredFields(),
		})
	}
	return successResponse(c, "Successful", map[string]interface{}{
		"payment_methods": items,
	})
}
