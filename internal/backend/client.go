package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"payflow/internal/models"
	"payflow/internal/pkg/httpclient"
)

// ErrNotFound is returned when the platform reports an unknown or
// inactive item.
var ErrNotFound = errors.New("item not found")

// InitiationError is a terminal failure of a payment initiation attempt.
// The caller shows the message and does not start verification.
type InitiationError struct {
	Message string
}

func (e *InitiationError) Error() string {
	return "payment initiation failed: " + e.Message
}

// Initiation is the tuple returned by the platform when a payment request
// is accepted. Reference and GatewayReference are opaque and immutable.
type Initiation struct {
	Reference        string          `json:"reference"`
	GatewayReference string          `json:"gateway_reference"`
	PaymentID        string          `json:"payment_id"`
	TransactionID    string          `json:"transaction_id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
}

// Client talks to the payment platform REST backend.
type Client struct {
	http   *httpclient.Client
	logger *zap.Logger
}

// New creates a platform client rooted at baseURL.
func New(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	h := httpclient.New().
		WithBaseURL(baseURL).
		WithTimeout(timeout)
	if apiKey != "" {
		h.WithBearerToken(apiKey)
	}
	return &Client{http: h, logger: logger}
}

// NewWithHTTP creates a platform client over an existing HTTP wrapper.
// Used by tests to point at an httptest server.
func NewWithHTTP(h *httpclient.Client, logger *zap.Logger) *Client {
	return &Client{http: h, logger: logger}
}

// envelope is the common response wrapper used by all platform endpoints.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Offer   json.RawMessage `json:"offer"`
	Product json.RawMessage `json:"product"`
	Group   json.RawMessage `json:"group"`
	Item    json.RawMessage `json:"item"`
}

func itemPath(kind models.ItemKind, id string) string {
	switch kind {
	case models.KindOffer:
		return "/api/v1/offers/" + id
	case models.KindProduct:
		return "/api/v1/products/" + id
	default:
		return "/api/v1/groups/" + id
	}
}

// GetItem fetches the raw offer or product payload by id.
func (c *Client) GetItem(ctx context.Context, kind models.ItemKind, id string) (*RawItem, error) {
	code, body, err := c.http.Get(ctx, itemPath(kind, id))
	if err != nil {
		return nil, fmt.Errorf("fetch %s %s: %w", kind, id, err)
	}
	if code == http.StatusNotFound {
		return nil, ErrNotFound
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", kind, err)
	}
	if env.Status != "success" {
		return nil, ErrNotFound
	}

	raw := env.Offer
	if kind == models.KindProduct {
		raw = env.Product
	}
	if raw == nil {
		raw = env.Item
	}
	if raw == nil {
		return nil, ErrNotFound
	}

	var item RawItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", kind, err)
	}
	return &item, nil
}

// GetGroup fetches a group with its member items.
func (c *Client) GetGroup(ctx context.Context, id string) (*RawGroup, error) {
	code, body, err := c.http.Get(ctx, itemPath(models.KindGroupPackage, id))
	if err != nil {
		return nil, fmt.Errorf("fetch group %s: %w", id, err)
	}
	if code == http.StatusNotFound {
		return nil, ErrNotFound
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode group response: %w", err)
	}
	if env.Status != "success" || env.Group == nil {
		return nil, ErrNotFound
	}

	var group RawGroup
	if err := json.Unmarshal(env.Group, &group); err != nil {
		return nil, fmt.Errorf("decode group payload: %w", err)
	}
	return &group, nil
}

// ListPaymentMethods returns the enabled payment methods. An empty list is
// a valid response, not an error.
func (c *Client) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	code, body, err := c.http.Get(ctx, "/api/v1/payment-methods")
	if err != nil {
		return nil, fmt.Errorf("fetch payment methods: %w", err)
	}
	if code != http.StatusOK {
		return nil, fmt.Errorf("fetch payment methods: unexpected status %d", code)
	}

	var resp struct {
		Status         string                 `json:"status"`
		PaymentMethods []models.PaymentMethod `json:"payment_methods"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode payment methods: %w", err)
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("fetch payment methods: status %q", resp.Status)
	}
	return resp.PaymentMethods, nil
}

func initiatePath(kind models.ItemKind) string {
	switch kind {
	case models.KindOffer:
		return "/api/v1/payments/offers"
	case models.KindProduct:
		return "/api/v1/payments/products"
	default:
		return "/api/v1/payments/groups"
	}
}

// InitiatePayment submits a normalized checkout request. The endpoint is a
// pure function of the purchase kind. Any non-success response, transport
// failure included, is an InitiationError: terminal for this attempt.
func (c *Client) InitiatePayment(ctx context.Context, req models.CheckoutRequest) (*Initiation, error) {
	_, body, err := c.http.Post(ctx, initiatePath(req.Target.Kind), req)
	if err != nil {
		c.logger.Warn("payment initiation transport failure",
			zap.String("kind", string(req.Target.Kind)),
			zap.Error(err))
		return nil, &InitiationError{Message: "could not reach the payment service"}
	}

	var resp struct {
		Status           string          `json:"status"`
		Message          string          `json:"message"`
		PaymentID        string          `json:"payment_id"`
		TransactionID    string          `json:"transaction_id"`
		Reference        string          `json:"reference"`
		GatewayReference string          `json:"gateway_reference"`
		Amount           decimal.Decimal `json:"amount"`
		Currency         string          `json:"currency"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &InitiationError{Message: "unexpected response from the payment service"}
	}
	if resp.Status != "success" {
		msg := resp.Message
		if msg == "" {
			msg = "payment could not be initiated"
		}
		return nil, &InitiationError{Message: msg}
	}

	return &Initiation{
		Reference:        resp.Reference,
		GatewayReference: resp.GatewayReference,
		PaymentID:        resp.PaymentID,
		TransactionID:    resp.TransactionID,
		Amount:           resp.Amount,
		Currency:         resp.Currency,
	}, nil
}
