package verify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"payflow/internal/backend"
	"payflow/internal/models"
)

// Status is the verification state machine's state. The three terminal
// states are absorbing: no transition ever leaves them.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusTimeout    Status = "timeout"
)

// Terminal reports whether no further transition can occur.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusTimeout
}

// Policy fixes the polling schedule. The defaults give the gateway three
// seconds before the first check, then poll every five seconds, for at
// most sixty attempts: a hard ceiling of five minutes.
type Policy struct {
	InitialDelay time.Duration
	PollInterval time.Duration
	MaxAttempts  int
}

// DefaultPolicy is the production schedule.
var DefaultPolicy = Policy{
	InitialDelay: 3 * time.Second,
	PollInterval: 5 * time.Second,
	MaxAttempts:  60,
}

// Verifier is the session's view of the platform client.
type Verifier interface {
	VerifyPayment(ctx context.Context, kind models.ItemKind, reference, gatewayReference string) (backend.VerifyOutcome, error)
}

// Result is the terminal payload of a session: issued tickets on
// completion, the backend failure message on failure, or the timeout
// marker when the attempt budget ran out while the gateway was still
// settling.
type Result struct {
	Status         Status                    `json:"status"`
	TimedOut       bool                      `json:"timed_out"`
	Tickets        []models.TicketCredential `json:"tickets,omitempty"`
	GroupName      string                    `json:"group_name,omitempty"`
	Package        bool                      `json:"package"`
	FailureMessage string                    `json:"failure_message,omitempty"`
	Attempts       int                       `json:"attempts"`
}

// TimeoutMessage is shown when polling stops without a settled answer.
// Deliberately not phrased as a failure: the payment may still settle
// server-side after we stop waiting.
const TimeoutMessage = "We could not confirm your payment in time. If you were charged, your tickets will still be issued."

// Config assembles a session.
type Config struct {
	SessionID        string
	Kind             models.ItemKind
	Reference        string
	GatewayReference string

	Verifier Verifier
	Clock    Clock
	Policy   Policy
	Logger   *zap.Logger

	// OnTerminal runs exactly once, on the terminal transition. It is
	// skipped entirely when the session is stopped or superseded.
	OnTerminal func(Result)
}

// Session owns one payment verification lifecycle. At most one session is
// live per checkout instance; the Manager enforces that.
type Session struct {
	id               string
	kind             models.ItemKind
	reference        string
	gatewayReference string

	policy     Policy
	clock      Clock
	verifier   Verifier
	logger     *zap.Logger
	onTerminal func(Result)

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	started  bool
	stopped  bool
	status   Status
	attempts int
	message  string
	result   *Result
}

// NewSession creates a session in the idle state.
func NewSession(cfg Config) *Session {
	if cfg.Clock == nil {
		cfg.Clock = RealClock()
	}
	if cfg.Policy.MaxAttempts == 0 {
		cfg.Policy = DefaultPolicy
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:               cfg.SessionID,
		kind:             cfg.Kind,
		reference:        cfg.Reference,
		gatewayReference: cfg.GatewayReference,
		policy:           cfg.Policy,
		clock:            cfg.Clock,
		verifier:         cfg.Verifier,
		logger:           cfg.Logger,
		onTerminal:       cfg.OnTerminal,
		ctx:              ctx,
		cancel:           cancel,
		done:             make(chan struct{}),
		status:           StatusIdle,
		message:          "Preparing payment verification...",
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Reference returns the payment reference the session is verifying.
func (s *Session) Reference() string { return s.reference }

// Start moves the session to processing and begins polling. Calling Start
// more than once, or after Stop, is a no-op.
func (s *Session) Start() {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.status = StatusProcessing
	s.message = "Waiting for the payment gateway..."
	s.mu.Unlock()

	go s.run()
}

// Stop cancels the session: it aborts any in-flight verification request,
// clears pending timers, and waits for the polling loop to exit, so that
// no state change or storage write can happen after Stop returns. Stop is
// idempotent, and a stopped session never reaches a terminal state on its
// own. Must not be called from inside the OnTerminal callback.
func (s *Session) Stop() {
	s.mu.Lock()
	alreadyStopped := s.stopped
	started := s.started
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	if started && !alreadyStopped {
		<-s.done
	}
}

// Done is closed when the polling loop has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// Snapshot reports the state the status endpoint shows: current status,
// attempt counter out of the budget, the user-facing message, and the
// terminal result when one exists.
func (s *Session) Snapshot() (Status, int, int, string, *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.attempts, s.policy.MaxAttempts, s.message, s.result
}

func (s *Session) run() {
	defer close(s.done)

	// Initial grace period: the gateway needs a moment to receive the
	// request before the first check is worth making. A stop during this
	// delay means no verification call is ever issued.
	if !s.clock.Sleep(s.ctx, s.policy.InitialDelay) {
		return
	}

	for {
		s.mu.Lock()
		if s.status != StatusProcessing || s.stopped {
			s.mu.Unlock()
			return
		}
		s.attempts++
		attempt := s.attempts
		s.message = fmt.Sprintf("Checking payment status... Attempt %d/%d", attempt, s.policy.MaxAttempts)
		s.mu.Unlock()

		out, err := s.verifier.VerifyPayment(s.ctx, s.kind, s.reference, s.gatewayReference)
		if err != nil {
			// Cancellation: terminate silently, no transition.
			return
		}
		if s.ctx.Err() != nil {
			// Response landed after a stop: discard, never apply.
			return
		}

		switch out.State {
		case backend.VerifyCompleted:
			s.finish(StatusCompleted, Result{
				Tickets:   out.Tickets,
				GroupName: out.GroupName,
				Package:   out.Package,
			})
			return

		case backend.VerifyFailed:
			s.finish(StatusFailed, Result{FailureMessage: out.Message})
			return

		case backend.VerifyTransient:
			// Not a payment failure: retry on the normal schedule,
			// consuming one attempt.
			s.logger.Warn("verification check failed, retrying",
				zap.String("reference", s.reference),
				zap.Int("attempt", attempt),
				zap.Error(out.Err))

		case backend.VerifyPending:
			if out.Message != "" {
				s.mu.Lock()
				s.message = fmt.Sprintf("%s (attempt %d/%d)", out.Message, attempt, s.policy.MaxAttempts)
				s.mu.Unlock()
			}
		}

		if attempt >= s.policy.MaxAttempts {
			s.finish(StatusTimeout, Result{
				TimedOut:       true,
				FailureMessage: "",
			})
			return
		}

		if !s.clock.Sleep(s.ctx, s.policy.PollInterval) {
			return
		}
	}
}

// finish performs the terminal transition at most once. A stopped or
// already-terminal session is left untouched, which keeps superseded
// sessions from ever writing their outcome.
func (s *Session) finish(st Status, res Result) {
	s.mu.Lock()
	if s.stopped || s.status.Terminal() {
		s.mu.Unlock()
		return
	}
	s.status = st
	res.Status = st
	res.Attempts = s.attempts
	switch st {
	case StatusCompleted:
		s.message = "Payment confirmed"
	case StatusFailed:
		s.message = res.FailureMessage
	case StatusTimeout:
		s.message = TimeoutMessage
	}
	s.result = &res
	cb := s.onTerminal
	s.mu.Unlock()

	if cb != nil {
		cb(res)
	}
}
