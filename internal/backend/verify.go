package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"payflow/internal/models"
)

// VerifyState tags a verification outcome. The poller's transition table
// consumes only these variants, never raw transport errors.
type VerifyState int

const (
	// VerifyPending means the gateway has not settled yet; keep polling.
	VerifyPending VerifyState = iota
	// VerifyCompleted means the payment settled and tickets were issued.
	VerifyCompleted
	// VerifyFailed means the backend reported an explicit business failure.
	VerifyFailed
	// VerifyTransient means the check itself failed (network, bad payload).
	// Not a payment failure: the poller retries, consuming one attempt.
	VerifyTransient
)

func (s VerifyState) String() string {
	switch s {
	case VerifyPending:
		return "pending"
	case VerifyCompleted:
		return "completed"
	case VerifyFailed:
		return "failed"
	default:
		return "transient"
	}
}

// VerifyOutcome is the classified result of one verification attempt.
type VerifyOutcome struct {
	State VerifyState

	// Completed only.
	Tickets   []models.TicketCredential
	GroupName string
	Package   bool

	// Failed: backend-supplied message. Pending: optional progress message.
	Message string

	// Transient only: the underlying cause, for logging.
	Err error
}

func verifyPath(kind models.ItemKind) string {
	switch kind {
	case models.KindOffer:
		return "/api/v1/payments/offers/verify"
	case models.KindProduct:
		return "/api/v1/payments/products/verify"
	default:
		return "/api/v1/payments/groups/verify"
	}
}

// VerifyPayment asks the platform whether the referenced payment settled.
// Transport errors come back as a Transient outcome; the only returned
// error is the caller's own context cancellation, which the caller must
// treat as "discard, no state change".
func (c *Client) VerifyPayment(ctx context.Context, kind models.ItemKind, reference, gatewayReference string) (VerifyOutcome, error) {
	body := map[string]string{
		"reference":         reference,
		"gateway_reference": gatewayReference,
	}
	_, respBody, err := c.http.Post(ctx, verifyPath(kind), body)
	if err != nil {
		if ctx.Err() != nil {
			return VerifyOutcome{}, ctx.Err()
		}
		return VerifyOutcome{State: VerifyTransient, Err: err}, nil
	}

	var resp struct {
		Status    string                    `json:"status"`
		Message   string                    `json:"message"`
		Ticket    *models.TicketCredential  `json:"ticket"`
		Tickets   []models.TicketCredential `json:"tickets"`
		OfferType string                    `json:"offer_type"`
		GroupName string                    `json:"group_name"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return VerifyOutcome{State: VerifyTransient, Err: fmt.Errorf("decode verify response: %w", err)}, nil
	}

	switch resp.Status {
	case "success":
		out := VerifyOutcome{
			State:     VerifyCompleted,
			GroupName: resp.GroupName,
			Package:   kind == models.KindGroupPackage || resp.OfferType == "package",
		}
		// The platform sends either a single ticket or a list, depending
		// on single item vs package. Decode once here; downstream only
		// ever sees the list form.
		switch {
		case len(resp.Tickets) > 0:
			out.Tickets = resp.Tickets
		case resp.Ticket != nil:
			out.Tickets = []models.TicketCredential{*resp.Ticket}
		default:
			c.logger.Warn("settled payment without tickets",
				zap.String("reference", reference))
		}
		return out, nil
	case "pending":
		return VerifyOutcome{State: VerifyPending, Message: resp.Message}, nil
	case "error":
		msg := resp.Message
		if msg == "" {
			msg = "payment was not successful"
		}
		return VerifyOutcome{State: VerifyFailed, Message: msg}, nil
	default:
		return VerifyOutcome{State: VerifyTransient, Err: fmt.Errorf("unknown verify status %q", resp.Status)}, nil
	}
}
