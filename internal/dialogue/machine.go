package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/looplab/fsm"

	"github.com/m3rciful/filmbot/core/logger"
	"github.com/m3rciful/filmbot/core/metrics"
	"github.com/m3rciful/filmbot/core/telegram/format"
	"github.com/m3rciful/filmbot/core/telegram/state"
	"github.com/m3rciful/filmbot/internal/catalog"
	"github.com/m3rciful/filmbot/internal/film"
)

const (
	eventStart  = "start"
	eventAnswer = "answer"
)

// Reply outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeReprompt = "reprompt"
	OutcomeFail     = "fail"
)

// ErrNoDialogue is returned by Advance when the user has no active dialogue.
var ErrNoDialogue = errors.New("no film dialogue in progress")

// SaveFailedText is sent when the catalog rejects a finished film.
const SaveFailedText = "Could not save the film right now. Send the poster link again to retry."

// Reply is what the bot should answer after a dialogue step.
type Reply struct {
	// Text is HTML.
	Text      string
	SessionID string
	// State is the user's state after the step.
	State   state.State
	Outcome string
	// Err holds the validation or persistence problem behind a reprompt or fail.
	Err error
	// Film is set once the film has been committed.
	Film *film.Film
}

// Done reports whether the reply finished the dialogue.
func (r Reply) Done() bool { return r.Film != nil }

// Machine walks users through the step table and commits finished drafts
// to the catalog.
type Machine struct {
	sessions state.Manager
	store    catalog.Store
	events   fsm.Events
}

// New builds a machine over an explicit session manager and store.
func New(sessions state.Manager, store catalog.Store) *Machine {
	return &Machine{sessions: sessions, store: store, events: buildEvents()}
}

// buildEvents derives the transition graph from the step table: start leads
// from anywhere to the first step and answer moves one step forward.
func buildEvents() fsm.Events {
	starts := []string{string(state.StateIdle)}
	for _, s := range steps {
		starts = append(starts, string(s.State))
	}
	events := fsm.Events{{Name: eventStart, Src: starts, Dst: string(steps[0].State)}}
	for i, s := range steps {
		dst := StateCommitted
		if i+1 < len(steps) {
			dst = steps[i+1].State
		}
		events = append(events, fsm.EventDesc{Name: eventAnswer, Src: []string{string(s.State)}, Dst: string(dst)})
	}
	return events
}

// transition checks that event is allowed from cur and returns the target state.
// Restarting from the first step is a self transition, which fsm reports as
// NoTransitionError.
func (m *Machine) transition(ctx context.Context, cur state.State, event string) (state.State, error) {
	f := fsm.NewFSM(string(cur), m.events, fsm.Callbacks{})
	if err := f.Event(ctx, event); err != nil && !errors.As(err, new(fsm.NoTransitionError)) {
		return cur, fmt.Errorf("dialogue %s from %s: %w", event, cur, err)
	}
	return state.State(f.Current()), nil
}

// Active reports whether the user is inside the dialogue.
func (m *Machine) Active(userID int64) bool {
	return stepIndex(m.sessions.GetState(userID)) >= 0
}

// Start opens a fresh dialogue for the user, discarding any unfinished draft.
func (m *Machine) Start(ctx context.Context, userID int64) (Reply, error) {
	cur := m.sessions.GetState(userID)
	if stepIndex(cur) < 0 {
		cur = state.StateIdle
	}
	next, err := m.transition(ctx, cur, eventStart)
	if err != nil {
		return Reply{}, err
	}
	sess := m.sessions.Begin(userID, next)
	ctx = logger.WithSession(ctx, sess.ID)
	logger.LogEvent(ctx, logger.SVCDialogue, slog.LevelInfo, "start",
		slog.String("status", "ok"),
		slog.String("state", string(cur)),
		slog.String("next_state", string(next)),
	)
	return Reply{
		Text:      steps[0].Prompt,
		SessionID: sess.ID,
		State:     next,
		Outcome:   OutcomeOK,
	}, nil
}

// Advance consumes the user's reply for the current step. Invalid input and
// storage failures are reported through the Reply; the returned error is
// reserved for misuse such as advancing without an active dialogue.
func (m *Machine) Advance(ctx context.Context, userID int64, text string) (Reply, error) {
	sess, ok := m.sessions.Get(userID)
	idx := stepIndex(sess.State)
	if !ok || idx < 0 {
		return Reply{}, ErrNoDialogue
	}
	step := steps[idx]
	ctx = logger.WithSession(ctx, sess.ID)
	reply := Reply{SessionID: sess.ID, State: sess.State}

	if err := film.ValidateField(step.Field, text); err != nil {
		return m.reprompt(ctx, reply, step, err), nil
	}
	next, err := m.transition(ctx, sess.State, eventAnswer)
	if err != nil {
		return Reply{}, err
	}
	value := step.Parse(text)

	if next == StateCommitted {
		return m.commit(ctx, userID, sess, step, value), nil
	}

	// The janitor may have swept the session since Get.
	if !m.sessions.Merge(userID, map[string]any{step.Field: value}) || !m.sessions.SetState(userID, next) {
		m.sessions.Clear(userID)
		m.logStep(ctx, sess.State, state.StateIdle, OutcomeFail, ErrNoDialogue)
		return Reply{}, ErrNoDialogue
	}
	m.logStep(ctx, sess.State, next, OutcomeOK, nil)

	reply.State = next
	reply.Outcome = OutcomeOK
	reply.Text = steps[idx+1].Prompt
	return reply, nil
}

// commit validates the whole draft and appends it. The session survives any
// failure so the user can resend the last answer.
func (m *Machine) commit(ctx context.Context, userID int64, sess state.Session, step Step, value any) Reply {
	reply := Reply{SessionID: sess.ID, State: sess.State}

	draft := make(map[string]any, len(sess.Draft)+1)
	for k, v := range sess.Draft {
		draft[k] = v
	}
	draft[step.Field] = value
	f := film.FromFields(draft)

	if err := film.Validate(f); err != nil {
		return m.reprompt(ctx, reply, step, err)
	}

	id, err := m.store.Append(ctx, f)
	if err != nil {
		m.sessions.Merge(userID, map[string]any{step.Field: value})
		m.logStep(ctx, sess.State, sess.State, OutcomeFail, err)
		reply.Outcome = OutcomeFail
		reply.Err = err
		reply.Text = SaveFailedText
		return reply
	}
	f.ID = id
	m.sessions.Clear(userID)
	metrics.FilmsAdded.Inc()
	m.logStep(ctx, sess.State, StateCommitted, OutcomeOK, nil, slog.Int64("film_id", id))

	reply.State = state.StateIdle
	reply.Outcome = OutcomeOK
	reply.Film = &f
	reply.Text = format.Escape(f.Name) + " movie successfully added!"
	return reply
}

func (m *Machine) reprompt(ctx context.Context, reply Reply, step Step, err error) Reply {
	m.logStep(ctx, step.State, step.State, OutcomeReprompt, err)
	reply.Outcome = OutcomeReprompt
	reply.Err = err
	reply.Text = format.Escape(problemText(err)) + "\n" + step.Prompt
	return reply
}

func problemText(err error) string {
	var verr *film.ValidationError
	if errors.As(err, &verr) {
		return fmt.Sprintf("The %s %s.", verr.Field, verr.Reason)
	}
	return err.Error()
}

func (m *Machine) logStep(ctx context.Context, from, to state.State, outcome string, err error, extra ...slog.Attr) {
	metrics.DialogueSteps.WithLabelValues(string(from), outcome).Inc()
	status := "ok"
	level := slog.LevelDebug
	switch outcome {
	case OutcomeReprompt:
		status = "invalid"
		level = slog.LevelInfo
	case OutcomeFail:
		status = "fail"
		level = slog.LevelError
	}
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("state", string(from)),
		slog.String("next_state", string(to)),
		slog.String("outcome", outcome),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	if to == StateCommitted {
		level = slog.LevelInfo
	}
	logger.LogEvent(ctx, logger.SVCDialogue, level, "step", append(attrs, extra...)...)
}
