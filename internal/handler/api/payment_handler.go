package api

import (
	"errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"payflow/internal/repository"
)

// PaymentHandler serves the merchant-side view of recorded checkout
// attempts. Read-only: records are written by the verification pipeline.
type PaymentHandler struct {
	payments *repository.PaymentRepository
	logger   *zap.Logger
}

func NewPaymentHandler(payments *repository.PaymentRepository, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, logger: logger}
}

// List returns payment records, paginated, optionally filtered by a
// search over reference, email and item name.
// GET /api/admin/payments?page=&limit=&q=
func (h *PaymentHandler) List(c echo.Context) error {
	limit := queryInt(c, "limit", 50)
	page := queryInt(c, "page", 1)
	if limit > 1000 {
		limit = 1000
	}

	records, total, err := h.payments.FindAll(limit, page, c.QueryParam("q"))
	if err != nil {
		h.logger.Error("Failed to list payments", zap.Error(err))
		return errorResponse(c, "Failed to retrieve payments")
	}

	return successResponse(c, "Successful", paginatedResponse(records, total, page, limit))
}

// Get returns a single payment record by its platform reference.
// GET /api/admin/payments/:reference
func (h *PaymentHandler) Get(c echo.Context) error {
	reference := c.Param("reference")
	if reference == "" {
		return errorResponse(c, "reference is required")
	}

	record, err := h.payments.FindByReference(reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, "Payment not found")
		}
		h.logger.Error("Failed to load payment", zap.String("reference", reference), zap.Error(err))
		return errorResponse(c, "Failed to retrieve payment")
	}

	return successResponse(c, "Successful", record)
}
