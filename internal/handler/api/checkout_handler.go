package api

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"payflow/internal/backend"
	"payflow/internal/catalog"
	"payflow/internal/checkout"
	"payflow/internal/models"
	"payflow/internal/outcome"
	"payflow/internal/repository"
	"payflow/internal/verify"
)

// CheckoutHandler orchestrates a checkout attempt: validate, initiate,
// persist, start verification, and serve the polling status and the
// read-once terminal result.
type CheckoutHandler struct {
	resolver *catalog.Resolver
	client   *backend.Client
	manager  *verify.Manager
	outcomes *outcome.Router
	payments *repository.PaymentRepository
	policy   verify.Policy
	logger   *zap.Logger
}

func NewCheckoutHandler(
	resolver *catalog.Resolver,
	client *backend.Client,
	manager *verify.Manager,
	outcomes *outcome.Router,
	payments *repository.PaymentRepository,
	policy verify.Policy,
	logger *zap.Logger,
) *CheckoutHandler {
	return &CheckoutHandler{
		resolver: resolver,
		client:   client,
		manager:  manager,
		outcomes: outcomes,
		payments: payments,
		policy:   policy,
		logger:   logger,
	}
}

// submitBody is the checkout form submission plus its purchase target.
type submitBody struct {
	ClientID string          `json:"client_id"`
	Kind     models.ItemKind `json:"kind"`
	ItemID   string          `json:"id"`
	checkout.Submission
}

// Submit runs one checkout attempt end to end.
// POST /api/checkout
func (h *CheckoutHandler) Submit(c echo.Context) error {
	var body submitBody
	if err := c.Bind(&body); err != nil {
		return errorResponse(c, "Invalid request body")
	}

	client := body.ClientID
	if client == "" {
		client = clientID(c)
	}
	if client == "" {
		return errorResponse(c, "client_id is required")
	}
	if !body.Kind.Valid() || body.ItemID == "" {
		return errorResponse(c, "kind and id are required")
	}

	// The form is disabled while a previous submission is still being
	// verified; enforce the same rule server-side.
	if _, live := h.manager.Active(client); live {
		return errorResponse(c, "A payment is already being processed for this checkout")
	}

	ctx := c.Request().Context()

	// A submission always targets a concrete purchasable; for a group
	// that can only mean buying it as a package.
	res, err := h.resolver.Resolve(ctx, body.Kind, body.ItemID, true)
	switch {
	case errors.Is(err, catalog.ErrGroupNotPackage):
		// Submitting against a non-package group is a state the UI must
		// never reach; refuse rather than initiate.
		return errorResponse(c, "This group is not sold as a package")
	case errors.Is(err, backend.ErrNotFound):
		return errorResponse(c, "Item not found or no longer available")
	case err != nil:
		h.logger.Error("checkout resolution failed", zap.Error(err))
		return errorResponse(c, "Could not load the item")
	}

	methods, err := h.resolver.Methods(ctx)
	if err != nil {
		h.logger.Error("payment method fetch failed", zap.Error(err))
		return errorResponse(c, "Could not load payment methods")
	}
	method := catalog.MethodByID(methods, body.PaymentMethodID)

	if errs := checkout.Validate(body.Submission, method); len(errs) > 0 {
		return c.JSON(200, models.APIResponse{
			Status: false,
			Msg:    "Validation failed",
			Obj:    map[string]interface{}{"errors": errs},
		})
	}

	target := models.PurchaseTarget{Kind: res.Item.Kind, ID: res.Item.ID}
	req := checkout.BuildRequest(body.Submission, method, target)

	init, err := h.client.InitiatePayment(ctx, req)
	if err != nil {
		var initErr *backend.InitiationError
		if errors.As(err, &initErr) {
			return errorResponse(c, initErr.Message)
		}
		h.logger.Error("payment initiation failed", zap.Error(err))
		return errorResponse(c, "Payment could not be initiated")
	}

	sessionID := uuid.NewString()

	record := &models.PaymentRecord{
		SessionID:        sessionID,
		ClientID:         client,
		Reference:        init.Reference,
		GatewayReference: init.GatewayReference,
		PaymentID:        init.PaymentID,
		TransactionID:    init.TransactionID,
		Kind:             string(target.Kind),
		ItemID:           target.ID,
		ItemName:         res.Item.Name,
		Email:            req.Email,
		MethodID:         req.PaymentMethodID,
		Amount:           init.Amount.String(),
		Currency:         init.Currency,
		Status:           models.PaymentStatusProcessing,
	}
	if h.payments != nil {
		if err := h.payments.Create(record); err != nil {
			h.logger.Error("failed to store payment record",
				zap.String("reference", init.Reference),
				zap.Error(err))
		}
	}

	base := outcome.Record{
		SessionID: sessionID,
		Payment: outcome.PaymentInfo{
			Reference:        init.Reference,
			GatewayReference: init.GatewayReference,
			PaymentID:        init.PaymentID,
			TransactionID:    init.TransactionID,
			Amount:           init.Amount,
			Currency:         init.Currency,
			Kind:             target.Kind,
			ItemName:         res.Item.Name,
		},
		Package: target.Kind == models.KindGroupPackage,
	}

	// The initiation tuple must be durable before the first poll: a
	// reload mid-verification recovers this record. Without it the
	// attempt must not start polling at all; the stale-record sweep
	// reconciles the merchant row later.
	if err := h.outcomes.Begin(ctx, client, base); err != nil {
		h.logger.Error("failed to persist initiation record",
			zap.String("reference", init.Reference),
			zap.Error(err))
		return errorResponse(c, "Checkout could not be started, please try again")
	}

	session := verify.NewSession(verify.Config{
		SessionID:        sessionID,
		Kind:             target.Kind,
		Reference:        init.Reference,
		GatewayReference: init.GatewayReference,
		Verifier:         h.client,
		Policy:           h.policy,
		Logger:           h.logger,
		OnTerminal: func(res verify.Result) {
			h.outcomes.Publish(client, base, res)
		},
	})
	h.manager.Start(client, session)

	h.logger.Info("checkout initiated",
		zap.String("session_id", sessionID),
		zap.String("reference", init.Reference),
		zap.String("kind", string(target.Kind)))

	return successResponse(c, "Payment initiated", map[string]interface{}{
		"session_id": sessionID,
		"reference":  init.Reference,
		"amount":     init.Amount,
		"currency":   init.Currency,
		"status_url": fmt.Sprintf("/api/checkout/status?session=%s&client=%s", sessionID, url.QueryEscape(client)),
	})
}

// Status serves the polling UI: current state, attempt counter out of the
// budget, and the user-facing message.
// GET /api/checkout/status?session=...
func (h *CheckoutHandler) Status(c echo.Context) error {
	sessionID := c.QueryParam("session")
	if sessionID == "" {
		return errorResponse(c, "session is required")
	}

	if session, ok := h.manager.Get(sessionID); ok {
		status, attempt, max, message, result := session.Snapshot()
		obj := map[string]interface{}{
			"status":       status,
			"attempt":      attempt,
			"max_attempts": max,
			"message":      message,
		}
		if result != nil {
			obj["route"] = outcomeRouteFor(status)
		}
		return successResponse(c, "Successful", obj)
	}

	// The session is gone (restart or pruned): fall back to the durable
	// record so a reloaded page still gets an answer.
	if record, err := h.outcomes.Peek(c.Request().Context(), clientID(c)); err == nil && record != nil {
		obj := map[string]interface{}{
			"status":  record.Status,
			"message": statusMessage(record),
		}
		if record.Terminal() {
			obj["route"] = outcome.RouteFor(record)
		}
		return successResponse(c, "Successful", obj)
	}

	return errorResponse(c, "Unknown verification session")
}

// Result hands the terminal record to the success/failure page, exactly
// once. The page reads this instead of re-deriving or re-verifying.
// GET /api/checkout/result?client=...
func (h *CheckoutHandler) Result(c echo.Context) error {
	client := clientID(c)
	if client == "" {
		return errorResponse(c, "client is required")
	}

	record, err := h.outcomes.Take(c.Request().Context(), client)
	if err != nil {
		h.logger.Error("failed to read checkout result", zap.Error(err))
		return errorResponse(c, "Could not read the checkout result")
	}
	if record == nil {
		return errorResponse(c, "No checkout result available")
	}

	return successResponse(c, "Successful", map[string]interface{}{
		"record": record,
		"route":  outcome.RouteFor(record),
	})
}

func outcomeRouteFor(status verify.Status) outcome.Route {
	rec := outcome.Record{Status: string(status)}
	return outcome.RouteFor(&rec)
}

func statusMessage(rec *outcome.Record) string {
	switch rec.Status {
	case models.PaymentStatusProcessing:
		return "Your payment is being processed..."
	case models.PaymentStatusCompleted:
		return "Payment confirmed"
	case models.PaymentStatusTimeout:
		return verify.TimeoutMessage
	default:
		return rec.FailureMessage
	}
}
