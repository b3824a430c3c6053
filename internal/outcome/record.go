package outcome

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"payflow/internal/models"
)

// SchemaVersion guards the cross-page handoff blob. Stored records with a
// different version are ignored rather than trusted.
const SchemaVersion = 1

// PaymentInfo is the initiation context persisted before polling begins,
// so a reload mid-verification still has enough to show a processing
// state or resume.
type PaymentInfo struct {
	Reference        string          `json:"reference"`
	GatewayReference string          `json:"gateway_reference"`
	PaymentID        string          `json:"payment_id"`
	TransactionID    string          `json:"transaction_id,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Kind             models.ItemKind `json:"kind"`
	ItemName         string          `json:"item_name,omitempty"`
}

// Record is the durable checkout handoff. One record lives per client
// under a fixed key, overwritten by the next checkout attempt and read
// once by the terminal page.
type Record struct {
	Version   int         `json:"version"`
	SessionID string      `json:"session_id"`
	Payment   PaymentInfo `json:"payment"`

	// processing | completed | failed | timeout
	Status   string `json:"status"`
	TimedOut bool   `json:"timed_out"`

	Tickets        []models.TicketCredential `json:"tickets,omitempty"`
	Package        bool                      `json:"package"`
	GroupName      string                    `json:"group_name,omitempty"`
	FailureMessage string                    `json:"failure_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

var errBadRecord = errors.New("malformed checkout record")

// Validate rejects records the terminal page must not trust.
func (r *Record) Validate() error {
	if r.Version != SchemaVersion {
		return errBadRecord
	}
	if r.SessionID == "" || r.Payment.Reference == "" {
		return errBadRecord
	}
	switch r.Status {
	case models.PaymentStatusProcessing, models.PaymentStatusCompleted,
		models.PaymentStatusFailed, models.PaymentStatusTimeout:
	default:
		return errBadRecord
	}
	return nil
}

// Terminal reports whether the record holds a final outcome.
func (r *Record) Terminal() bool {
	return r.Status != models.PaymentStatusProcessing
}

// Route is the terminal destination the storefront navigates to.
type Route struct {
	Path string `json:"path"`
	// Unconfirmed marks the timeout case: routed to the success page but
	// the page must say "we could not confirm in time", never claim a
	// confirmed settlement.
	Unconfirmed bool `json:"unconfirmed"`
}

// RouteFor decides the terminal destination. Completed and timeout both
// go to the success page (timeout carries the unconfirmed flag, since the
// gateway may still settle after we stopped waiting); only an explicit
// failure goes to the failure page.
func RouteFor(rec *Record) Route {
	if rec.Status == models.PaymentStatusFailed {
		return Route{Path: "/checkout/failure"}
	}
	return Route{
		Path:        "/checkout/success",
		Unconfirmed: rec.Status == models.PaymentStatusTimeout,
	}
}
