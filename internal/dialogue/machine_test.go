package dialogue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/filmbot/core/telegram/state"
	"github.com/m3rciful/filmbot/internal/catalog"
	"github.com/m3rciful/filmbot/internal/film"
)

const user int64 = 42

var inceptionAnswers = []string{
	"Inception",
	"Dreams within dreams",
	"9",
	"Sci-Fi",
	"Leonardo DiCaprio, Tom Hardy",
	"https://x.io/p.jpg",
}

func newMachine(t *testing.T) (*Machine, state.Manager, catalog.Store) {
	t.Helper()
	store, err := catalog.NewMemoryStore("")
	require.NoError(t, err)
	mgr := state.NewMemoryManager()
	return New(mgr, store), mgr, store
}

// failingStore rejects every append.
type failingStore struct {
	catalog.Store
	err error
}

func (s *failingStore) Append(context.Context, film.Film) (int64, error) {
	return 0, &catalog.PersistenceError{Op: "append", Err: s.err}
}

func TestStepTable(t *testing.T) {
	assert.Equal(t, []state.State{
		StateAwaitingName,
		StateAwaitingDescription,
		StateAwaitingRating,
		StateAwaitingGenre,
		StateAwaitingActors,
		StateAwaitingPoster,
	}, States())
	assert.Contains(t, Steps()[4].Prompt, "<b>A comma and an indent after it are required.</b>")
}

func TestInceptionEndToEnd(t *testing.T) {
	ctx := context.Background()
	m, mgr, store := newMachine(t)

	assert.False(t, m.Active(user))
	start, err := m.Start(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "Enter a movie name.", start.Text)
	assert.Equal(t, StateAwaitingName, start.State)
	require.NotEmpty(t, start.SessionID)
	assert.True(t, m.Active(user))

	var last Reply
	for i, answer := range inceptionAnswers {
		last, err = m.Advance(ctx, user, answer)
		require.NoError(t, err)
		require.Equal(t, OutcomeOK, last.Outcome, "step %d", i)
		assert.Equal(t, start.SessionID, last.SessionID)
		if i+1 < len(inceptionAnswers) {
			assert.Equal(t, steps[i+1].Prompt, last.Text)
			assert.Equal(t, steps[i+1].State, mgr.GetState(user))
		}
	}

	require.True(t, last.Done())
	assert.Equal(t, "Inception movie successfully added!", last.Text)
	assert.False(t, m.Active(user))
	_, ok := mgr.Get(user)
	assert.False(t, ok, "session cleared after commit")

	films, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, films, 1)
	got := films[0]
	assert.Equal(t, last.Film.ID, got.ID)
	assert.Equal(t, "Inception", got.Name)
	assert.Equal(t, "Dreams within dreams", got.Description)
	assert.Equal(t, "9", got.Rating)
	assert.Equal(t, "Sci-Fi", got.Genre)
	assert.Equal(t, []string{"Leonardo DiCaprio", "Tom Hardy"}, got.Actors)
	assert.Equal(t, "https://x.io/p.jpg", got.Poster)
	assert.Equal(t, "jpg", film.PosterExtension(got.Poster))
}

func TestFieldsCapturedVerbatim(t *testing.T) {
	ctx := context.Background()
	m, _, store := newMachine(t)

	answers := []string{"  <Heat>  ", "Cops & robbers", "7,5", "crime", "A,", "http://x.io/heat.png?w=1"}
	_, err := m.Start(ctx, user)
	require.NoError(t, err)
	for _, a := range answers {
		_, err := m.Advance(ctx, user, a)
		require.NoError(t, err)
	}

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "  <Heat>  ", got.Name)
	assert.Equal(t, "Cops & robbers", got.Description)
	assert.Equal(t, "7,5", got.Rating)
	assert.Equal(t, []string{"A", ""}, got.Actors)
	assert.Equal(t, "http://x.io/heat.png?w=1", got.Poster)
}

func TestCommitEscapesName(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newMachine(t)
	_, err := m.Start(ctx, user)
	require.NoError(t, err)

	answers := append([]string{"Tom & Jerry"}, inceptionAnswers[1:]...)
	var last Reply
	for _, a := range answers {
		last, err = m.Advance(ctx, user, a)
		require.NoError(t, err)
	}
	assert.Equal(t, "Tom &amp; Jerry movie successfully added!", last.Text)
}

func TestInvalidAnswerReprompts(t *testing.T) {
	ctx := context.Background()
	m, mgr, _ := newMachine(t)
	_, err := m.Start(ctx, user)
	require.NoError(t, err)
	for _, a := range inceptionAnswers[:2] {
		_, err := m.Advance(ctx, user, a)
		require.NoError(t, err)
	}

	reply, err := m.Advance(ctx, user, "eleven")
	require.NoError(t, err)
	assert.Equal(t, OutcomeReprompt, reply.Outcome)
	var verr *film.ValidationError
	require.True(t, errors.As(reply.Err, &verr))
	assert.Equal(t, film.FieldRating, verr.Field)
	assert.Contains(t, reply.Text, "Enter a movie rating from zero to ten")
	assert.Equal(t, StateAwaitingRating, mgr.GetState(user))

	reply, err = m.Advance(ctx, user, "   ")
	require.NoError(t, err)
	assert.Equal(t, OutcomeReprompt, reply.Outcome)

	reply, err = m.Advance(ctx, user, "8")
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, reply.Outcome)
	assert.Equal(t, StateAwaitingGenre, mgr.GetState(user))

	sess, _ := mgr.Get(user)
	assert.Equal(t, "8", sess.Field(film.FieldRating))
}

func TestInvalidPosterKeepsDialogue(t *testing.T) {
	ctx := context.Background()
	m, mgr, store := newMachine(t)
	_, err := m.Start(ctx, user)
	require.NoError(t, err)
	for _, a := range inceptionAnswers[:5] {
		_, err := m.Advance(ctx, user, a)
		require.NoError(t, err)
	}

	reply, err := m.Advance(ctx, user, "not a link")
	require.NoError(t, err)
	assert.Equal(t, OutcomeReprompt, reply.Outcome)
	assert.Equal(t, StateAwaitingPoster, mgr.GetState(user))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPersistenceFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	mem, err := catalog.NewMemoryStore("")
	require.NoError(t, err)
	store := &failingStore{Store: mem, err: errors.New("disk full")}
	mgr := state.NewMemoryManager()
	m := New(mgr, store)

	_, err = m.Start(ctx, user)
	require.NoError(t, err)
	var last Reply
	for _, a := range inceptionAnswers {
		last, err = m.Advance(ctx, user, a)
		require.NoError(t, err)
	}

	assert.Equal(t, OutcomeFail, last.Outcome)
	assert.Equal(t, SaveFailedText, last.Text)
	assert.False(t, last.Done())
	var perr *catalog.PersistenceError
	assert.True(t, errors.As(last.Err, &perr))

	assert.Equal(t, StateAwaitingPoster, mgr.GetState(user))
	sess, ok := mgr.Get(user)
	require.True(t, ok)
	assert.Equal(t, "Inception", sess.Field(film.FieldName))
	assert.Equal(t, "https://x.io/p.jpg", sess.Field(film.FieldPoster))

	// Retrying the poster against a healthy store commits the kept draft.
	m.store = mem
	last, err = m.Advance(ctx, user, inceptionAnswers[5])
	require.NoError(t, err)
	require.True(t, last.Done())
	assert.Equal(t, "Inception", last.Film.Name)
}

func TestStartRestartsDialogue(t *testing.T) {
	ctx := context.Background()
	m, mgr, _ := newMachine(t)

	first, err := m.Start(ctx, user)
	require.NoError(t, err)
	_, err = m.Advance(ctx, user, "Inception")
	require.NoError(t, err)

	second, err := m.Start(ctx, user)
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Equal(t, StateAwaitingName, mgr.GetState(user))
	sess, _ := mgr.Get(user)
	assert.Empty(t, sess.Draft)

	third, err := m.Start(ctx, user)
	require.NoError(t, err, "restarting from the first step is allowed")
	assert.Equal(t, StateAwaitingName, third.State)
}

func TestAdvanceWithoutDialogue(t *testing.T) {
	m, _, _ := newMachine(t)
	_, err := m.Advance(context.Background(), user, "Inception")
	assert.ErrorIs(t, err, ErrNoDialogue)
}

func TestSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	m, mgr, _ := newMachine(t)
	_, err := m.Start(ctx, 1)
	require.NoError(t, err)
	_, err = m.Start(ctx, 2)
	require.NoError(t, err)

	_, err = m.Advance(ctx, 1, "Inception")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingDescription, mgr.GetState(1))
	assert.Equal(t, StateAwaitingName, mgr.GetState(2))
}

// sweptManager drops the user's session just before a draft update, as the
// janitor would when it runs between reading and writing the session.
type sweptManager struct {
	state.Manager
}

func (m *sweptManager) Merge(userID int64, fields map[string]any) bool {
	m.Clear(userID)
	return m.Manager.Merge(userID, fields)
}

func TestAdvanceAfterSweepEndsDialogue(t *testing.T) {
	ctx := context.Background()
	store, err := catalog.NewMemoryStore("")
	require.NoError(t, err)
	mgr := &sweptManager{Manager: state.NewMemoryManager()}
	m := New(mgr, store)

	_, err = m.Start(ctx, user)
	require.NoError(t, err)
	_, err = m.Advance(ctx, user, "Inception")
	assert.ErrorIs(t, err, ErrNoDialogue)

	assert.False(t, m.Active(user))
	assert.Equal(t, state.StateIdle, mgr.GetState(user))
	assert.Zero(t, mgr.Len(), "no half-filled session is left behind")

	_, err = m.Advance(ctx, user, "Dreams within dreams")
	assert.ErrorIs(t, err, ErrNoDialogue)
}
