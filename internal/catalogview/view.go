// Package catalogview renders the catalog for Telegram: a list keyboard and
// a per-film detail card.
package catalogview

import (
	"strconv"

	"github.com/m3rciful/filmbot/core/telegram/format"
	"github.com/m3rciful/filmbot/core/telegram/keyboard"
	"github.com/m3rciful/filmbot/internal/film"

	tele "gopkg.in/telebot.v4"
)

// CallbackFilm is the callback key of list buttons; the payload is the film id.
const CallbackFilm = "film"

const (
	// ListText heads the film list.
	ListText = "Film list. Tap a title to learn more"
	// EmptyListText is sent instead of an empty keyboard.
	EmptyListText = "The catalog is empty. Use /create_film to add the first movie."
	// NotFoundText answers stale or malformed selections.
	NotFoundText = "Film not found"
)

// ListMarkup builds one inline button per film, in the given order.
func ListMarkup(films []film.Film) *tele.ReplyMarkup {
	buttons := make([]keyboard.InlineBtn, 0, len(films))
	for _, f := range films {
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   f.Name,
			Unique: CallbackFilm,
			Data:   strconv.FormatInt(f.ID, 10),
		})
	}
	return keyboard.InlineButtons(buttons)
}

// DetailView is everything needed to show one film.
type DetailView struct {
	// Caption is HTML.
	Caption   string
	PosterURL string
	// FileName is used when the poster is sent as a document.
	FileName string
}

// Detail renders f with every value escaped.
func Detail(f film.Film) DetailView {
	return DetailView{
		Caption: format.Lines(
			format.Field("Movie", f.Name),
			format.Field("Description", f.Description),
			format.Field("Rating", f.Rating),
			format.Field("Genre", f.Genre),
			format.Field("Actors", f.ActorsLine()),
		),
		PosterURL: f.Poster,
		FileName:  f.PosterFileName(),
	}
}
