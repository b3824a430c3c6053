package outcome

import (
	"context"
	"time"

	"go.uber.org/zap"

	"payflow/internal/models"
	"payflow/internal/repository"
	"payflow/internal/verify"
)

// Notifier receives terminal outcomes. Implemented by the telegram
// merchant notifier; a nil Notifier disables notification.
type Notifier interface {
	PaymentOutcome(rec *Record)
}

// Router persists checkout outcomes and decides where the storefront
// navigates. It is the single writer of the per-client record: only the
// active verification session reaches it.
type Router struct {
	store    Store
	payments *repository.PaymentRepository
	notifier Notifier
	logger   *zap.Logger
}

func NewRouter(store Store, payments *repository.PaymentRepository, notifier Notifier, logger *zap.Logger) *Router {
	return &Router{store: store, payments: payments, notifier: notifier, logger: logger}
}

// Begin durably persists the initiation context before polling starts, so
// a page reload mid-verification can still show an informative processing
// state.
func (r *Router) Begin(ctx context.Context, clientID string, rec Record) error {
	rec.Version = SchemaVersion
	rec.Status = models.PaymentStatusProcessing
	rec.CreatedAt = time.Now()
	return r.store.Put(ctx, clientID, rec)
}

// Publish merges a terminal verification result into the persisted record,
// updates the merchant-side row, and notifies. Called exactly once per
// session, on the terminal transition.
func (r *Router) Publish(clientID string, base Record, res verify.Result) Route {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rec := base
	rec.Version = SchemaVersion
	rec.Status = string(res.Status)
	rec.TimedOut = res.TimedOut
	rec.Tickets = res.Tickets
	rec.Package = rec.Package || res.Package
	if res.GroupName != "" {
		rec.GroupName = res.GroupName
	}
	rec.FailureMessage = res.FailureMessage
	rec.CreatedAt = time.Now()

	if err := r.store.Put(ctx, clientID, rec); err != nil {
		r.logger.Error("failed to persist checkout outcome",
			zap.String("session_id", rec.SessionID),
			zap.Error(err))
	}

	if r.payments != nil {
		updates := map[string]interface{}{
			"status":          rec.Status,
			"timed_out":       rec.TimedOut,
			"attempts":        res.Attempts,
			"failure_message": rec.FailureMessage,
			"ticket_count":    len(rec.Tickets),
		}
		if err := r.payments.UpdateBySessionID(rec.SessionID, updates); err != nil {
			r.logger.Error("failed to update payment record",
				zap.String("session_id", rec.SessionID),
				zap.Error(err))
		}
	}

	if r.notifier != nil {
		r.notifier.PaymentOutcome(&rec)
	}

	route := RouteFor(&rec)
	r.logger.Info("checkout reached terminal state",
		zap.String("session_id", rec.SessionID),
		zap.String("status", rec.Status),
		zap.Int("attempts", res.Attempts),
		zap.String("route", route.Path))
	return route
}

// Peek exposes the stored record without consuming it, for the status
// endpoint's reload path.
func (r *Router) Peek(ctx context.Context, clientID string) (*Record, error) {
	return r.store.Peek(ctx, clientID)
}

// Take hands the record to the terminal page exactly once.
func (r *Router) Take(ctx context.Context, clientID string) (*Record, error) {
	return r.store.Take(ctx, clientID)
}
