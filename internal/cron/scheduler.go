package cron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"payflow/internal/models"
	"payflow/internal/notify"
	"payflow/internal/outcome"
	"payflow/internal/repository"
	"payflow/internal/verify"
)

// Scheduler runs the background sweeps: session registry pruning,
// outcome store expiry, stale record reconciliation, and the daily
// merchant digest.
type Scheduler struct {
	cron     *cron.Cron
	logger   *zap.Logger
	manager  *verify.Manager
	store    outcome.Store
	payments *repository.PaymentRepository
	notifier *notify.Notifier
	policy   verify.Policy
}

func New(
	manager *verify.Manager,
	store outcome.Store,
	payments *repository.PaymentRepository,
	notifier *notify.Notifier,
	policy verify.Policy,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger,
		manager:  manager,
		store:    store,
		payments: payments,
		notifier: notifier,
		policy:   policy,
	}
}

// Start registers and starts all cron jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting cron scheduler...")

	// Drop terminal sessions from the registry - every 5 minutes. Their
	// outcomes already live in durable storage.
	s.cron.AddFunc("0 */5 * * * *", func() {
		if removed := s.manager.Prune(); removed > 0 {
			s.logger.Debug("pruned terminal verification sessions", zap.Int("removed", removed))
		}
	})

	// Expire stale outcome records - hourly. Only effective for the
	// in-memory store; redis enforces TTLs itself.
	s.cron.AddFunc("0 0 * * * *", func() {
		if removed := outcome.PurgeExpired(s.store); removed > 0 {
			s.logger.Debug("purged expired outcome records", zap.Int("removed", removed))
		}
	})

	// Reconcile records stuck in processing - every 10 minutes. A record
	// older than the whole polling budget can no longer be resolved by a
	// live session (crash, restart), so it is marked unconfirmed.
	s.cron.AddFunc("0 */10 * * * *", func() {
		s.reconcileStaleRecords()
	})

	// Daily digest - 08:00 server time.
	s.cron.AddFunc("0 0 8 * * *", func() {
		s.sendDailySummary()
	})

	s.cron.Start()
	s.logger.Info("Cron scheduler started")
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron scheduler stopped")
}

// budget is the longest a verification session can run, plus slack for
// slow verification calls.
func (s *Scheduler) budget() time.Duration {
	return s.policy.InitialDelay +
		time.Duration(s.policy.MaxAttempts)*s.policy.PollInterval +
		2*time.Minute
}

func (s *Scheduler) reconcileStaleRecords() {
	cutoff := time.Now().Add(-s.budget())
	records, err := s.payments.StaleProcessing(cutoff)
	if err != nil {
		s.logger.Error("stale record sweep failed", zap.Error(err))
		return
	}
	for _, rec := range records {
		updates := map[string]interface{}{
			"status":    models.PaymentStatusTimeout,
			"timed_out": true,
		}
		if err := s.payments.UpdateBySessionID(rec.SessionID, updates); err != nil {
			s.logger.Error("failed to mark stale payment record",
				zap.String("session_id", rec.SessionID),
				zap.Error(err))
			continue
		}
		s.logger.Warn("marked abandoned payment record unconfirmed",
			zap.String("session_id", rec.SessionID),
			zap.String("reference", rec.Reference))
	}
}

func (s *Scheduler) sendDailySummary() {
	if s.notifier == nil {
		return
	}

	var counts [4]int64
	statuses := []string{
		models.PaymentStatusCompleted,
		models.PaymentStatusFailed,
		models.PaymentStatusTimeout,
		models.PaymentStatusProcessing,
	}
	for i, status := range statuses {
		n, err := s.payments.CountByStatus(status)
		if err != nil {
			s.logger.Error("daily summary count failed",
				zap.String("status", status),
				zap.Error(err))
			return
		}
		counts[i] = n
	}

	s.notifier.Summary(fmt.Sprintf(
		"📊 Checkout summary\nCompleted: %d\nFailed: %d\nUnconfirmed: %d\nIn flight: %d",
		counts[0], counts[1], counts[2], counts[3]))
}
