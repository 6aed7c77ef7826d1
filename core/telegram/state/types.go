package state

import (
	"fmt"
	"maps"
	"time"

	tele "gopkg.in/telebot.v4"
)

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Session stores conversation state and the draft collected so far.
type Session struct {
	// ID correlates all log lines of one dialogue run.
	ID        string
	State     State
	Draft     map[string]any
	UpdatedAt time.Time
}

// Field returns a draft value rendered as text, or "" when absent.
func (s Session) Field(key string) string {
	v, ok := s.Draft[key]
	if !ok || v == nil {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	return fmt.Sprint(v)
}

func (s Session) clone() Session {
	s.Draft = maps.Clone(s.Draft)
	if s.Draft == nil {
		s.Draft = map[string]any{}
	}
	return s
}

// Manager orchestrates user sessions and FSM state transitions.
type Manager interface {
	// Get returns a copy of the user's session; false when the user is idle.
	Get(userID int64) (Session, bool)
	// Begin replaces any previous session with a fresh one in state st.
	Begin(userID int64, st State) Session
	// Merge and SetState update an existing session only; they report false
	// when the user has none, for example after a sweep.
	Merge(userID int64, fields map[string]any) bool
	Clear(userID int64)

	SetState(userID int64, st State) bool
	GetState(userID int64) State
	InProgress(userID int64) bool

	// Sweep drops sessions untouched for longer than ttl and reports how many went.
	Sweep(ttl time.Duration) int
	Len() int

	RegisterHandler(st State, h tele.HandlerFunc)
	ManagerHandler(c tele.Context) error
}
