package verify

import (
	"sync"

	"go.uber.org/zap"
)

// Manager tracks live sessions and enforces the one-session-per-checkout
// rule: starting a session for a checkout instance first fully cancels
// whatever session that instance had before. Overlapping sessions would
// double-poll and could attribute a stale response to a new purchase.
type Manager struct {
	logger *zap.Logger

	mu       sync.Mutex
	byID     map[string]*Session
	byClient map[string]*Session
}

func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		logger:   logger,
		byID:     make(map[string]*Session),
		byClient: make(map[string]*Session),
	}
}

// Start registers the session as the active one for clientID and begins
// polling. The whole swap runs under one critical section: any prior
// session for the same client is fully stopped before the new one is
// installed, so racing Starts serialize and can never leave two sessions
// live for the same client. OnTerminal callbacks must not call back into
// the Manager, or Stop would deadlock here.
func (m *Manager) Start(clientID string, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prior := m.byClient[clientID]; prior != nil {
		m.logger.Info("superseding active verification session",
			zap.String("client_id", clientID),
			zap.String("old_session", prior.ID()),
			zap.String("new_session", s.ID()))
		prior.Stop()
	}

	m.byID[s.ID()] = s
	m.byClient[clientID] = s
	s.Start()
}

// Get looks a session up by its identifier.
func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[sessionID]
	return s, ok
}

// Active returns the live session for a checkout instance, if any is
// still processing.
func (m *Manager) Active(clientID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byClient[clientID]
	if !ok {
		return nil, false
	}
	status, _, _, _, _ := s.Snapshot()
	if status != StatusProcessing {
		return s, false
	}
	return s, true
}

// Prune drops sessions that reached a terminal state. Their outcome lives
// in durable storage; the registry only serves the status endpoint.
func (m *Manager) Prune() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.byID {
		status, _, _, _, _ := s.Snapshot()
		if status.Terminal() {
			delete(m.byID, id)
			removed++
		}
	}
	for client, s := range m.byClient {
		if _, stillKnown := m.byID[s.ID()]; !stillKnown {
			delete(m.byClient, client)
		}
	}
	return removed
}

// StopAll cancels every known session. Called on shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.byID))
	for _, s := range m.byID {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
	}
}
