package state

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m3rciful/filmbot/core/logger"
	"github.com/m3rciful/filmbot/core/metrics"
	tghelpers "github.com/m3rciful/filmbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	handlers map[State]tele.HandlerFunc
	now      func() time.Time
}

// Option customises the memory manager.
type Option func(*memoryManager)

// WithClock overrides the time source used for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *memoryManager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemoryManager constructs an in-memory Manager.
func NewMemoryManager(opts ...Option) Manager {
	m := &memoryManager{
		sessions: make(map[int64]*Session),
		handlers: make(map[State]tele.HandlerFunc),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *memoryManager) newSession(st State) *Session {
	return &Session{
		ID:        uuid.NewString(),
		State:     st,
		Draft:     make(map[string]any),
		UpdatedAt: m.now(),
	}
}

func (m *memoryManager) reportActive() {
	metrics.SessionsActive.Set(float64(len(m.sessions)))
}

func (m *memoryManager) Get(userID int64) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return Session{State: StateIdle, Draft: map[string]any{}}, false
	}
	return sess.clone(), true
}

func (m *memoryManager) Begin(userID int64, st State) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.newSession(st)
	m.sessions[userID] = sess
	m.reportActive()
	return sess.clone()
}

// Merge copies fields into the user's draft.
func (m *memoryManager) Merge(userID int64, fields map[string]any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return false
	}
	for k, v := range fields {
		sess.Draft[k] = v
	}
	sess.UpdatedAt = m.now()
	return true
}

// Clear removes the entire session for a user.
func (m *memoryManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	m.reportActive()
}

// SetState sets the FSM state for the given user.
func (m *memoryManager) SetState(userID int64, st State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return false
	}
	sess.State = st
	sess.UpdatedAt = m.now()
	return true
}

// GetState returns the current FSM state of a user, or StateIdle if none exists.
func (m *memoryManager) GetState(userID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[userID]; ok {
		return sess.State
	}
	return StateIdle
}

// InProgress reports whether the user currently has an active FSM state.
func (m *memoryManager) InProgress(userID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[userID]
	return ok && sess.State != StateIdle
}

func (m *memoryManager) Sweep(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-ttl)
	removed := 0
	for id, sess := range m.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.reportActive()
	}
	return removed
}

func (m *memoryManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// RegisterHandler associates a state with its handler.
func (m *memoryManager) RegisterHandler(st State, h tele.HandlerFunc) {
	if h == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[st] = h
}

// ManagerHandler executes the handler function registered for the user's current state, if any.
func (m *memoryManager) ManagerHandler(c tele.Context) error {
	userID := c.Sender().ID
	current := m.GetState(userID)
	ctx := tghelpers.BuildContext(c)
	logger.Debug(ctx, "tg", "fsm.manager",
		slog.String("status", "ok"),
		slog.String("state", string(current)),
	)

	m.mu.RLock()
	handler, ok := m.handlers[current]
	m.mu.RUnlock()
	if ok {
		return handler(c)
	}
	return nil
}
