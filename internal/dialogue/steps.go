// Package dialogue drives the six-step conversation that collects a new film.
package dialogue

import (
	"github.com/m3rciful/filmbot/core/telegram/format"
	"github.com/m3rciful/filmbot/core/telegram/state"
	"github.com/m3rciful/filmbot/internal/film"
)

// Dialogue states in the order they are visited.
const (
	StateAwaitingName        state.State = "film.awaiting_name"
	StateAwaitingDescription state.State = "film.awaiting_description"
	StateAwaitingRating      state.State = "film.awaiting_rating"
	StateAwaitingGenre       state.State = "film.awaiting_genre"
	StateAwaitingActors      state.State = "film.awaiting_actors"
	StateAwaitingPoster      state.State = "film.awaiting_poster"
	// StateCommitted is terminal; the session is cleared as soon as it is reached.
	StateCommitted state.State = "film.committed"
)

// Step is one row of the dialogue table: the reply expected in State is
// stored in the draft under Field.
type Step struct {
	State state.State
	Field string
	// Prompt is HTML and is sent when the dialogue enters State.
	Prompt string
	Parse  func(text string) any
}

func verbatim(text string) any { return text }

func actors(text string) any { return film.ParseActors(text) }

var steps = []Step{
	{State: StateAwaitingName, Field: film.FieldName, Prompt: "Enter a movie name.", Parse: verbatim},
	{State: StateAwaitingDescription, Field: film.FieldDescription, Prompt: "Enter a movie description", Parse: verbatim},
	{State: StateAwaitingRating, Field: film.FieldRating, Prompt: "Enter a movie rating from zero to ten", Parse: verbatim},
	{State: StateAwaitingGenre, Field: film.FieldGenre, Prompt: "Enter the movie genre", Parse: verbatim},
	{
		State:  StateAwaitingActors,
		Field:  film.FieldActors,
		Prompt: "Enter the movie actors through a separator " + format.Escape("', '") + "\n" + format.Bold("A comma and an indent after it are required."),
		Parse:  actors,
	},
	{State: StateAwaitingPoster, Field: film.FieldPoster, Prompt: "Enter a movie poster", Parse: verbatim},
}

// Steps returns a copy of the dialogue table.
func Steps() []Step {
	return append([]Step(nil), steps...)
}

// States lists the states that accept free text, for handler registration.
func States() []state.State {
	out := make([]state.State, len(steps))
	for i, s := range steps {
		out[i] = s.State
	}
	return out
}

func stepIndex(st state.State) int {
	for i, s := range steps {
		if s.State == st {
			return i
		}
	}
	return -1
}
