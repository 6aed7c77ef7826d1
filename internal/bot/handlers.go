package bot

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/m3rciful/filmbot/core/logger"
	"github.com/m3rciful/filmbot/core/telegram/callbacks"
	"github.com/m3rciful/filmbot/core/telegram/format"
	tghelpers "github.com/m3rciful/filmbot/core/telegram/helpers"
	"github.com/m3rciful/filmbot/core/telegram/keyboard"
	"github.com/m3rciful/filmbot/core/telegram/netutil"
	"github.com/m3rciful/filmbot/internal/catalog"
	"github.com/m3rciful/filmbot/internal/catalogview"
	"github.com/m3rciful/filmbot/internal/dialogue"

	tele "gopkg.in/telebot.v4"
)

const (
	helpText        = "Use /films to browse the catalog or /create_film to add a movie."
	unknownText     = "I did not understand that. " + helpText
	catalogDownText = "The catalog is unavailable right now. Please try again later."
	rateLimitedText = "Too many requests, please slow down."
)

func (a *App) handleStart(c tele.Context) error {
	name := fullName(c.Sender())
	text := "Welcome, " + format.Bold(name) + "!\nI keep a small movie catalog. " + helpText
	return tghelpers.SendHTML(c, text)
}

func fullName(u *tele.User) string {
	if u == nil {
		return "friend"
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	if name == "" {
		name = "friend"
	}
	return name
}

func (a *App) handleFilms(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	films, err := a.store.List(ctx)
	if err != nil {
		_ = tghelpers.SendText(c, catalogDownText)
		return err
	}
	logger.Debug(ctx, "service.catalog", "list",
		slog.String("status", "ok"),
		slog.Int("films", len(films)),
	)
	if len(films) == 0 {
		return tghelpers.SendText(c, catalogview.EmptyListText)
	}
	return tghelpers.SendHTML(c, catalogview.ListText, catalogview.ListMarkup(films))
}

func (a *App) handleCreate(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	reply, err := a.machine.Start(ctx, c.Sender().ID)
	if err != nil {
		return err
	}
	tghelpers.WithSession(c, reply.SessionID)
	return tghelpers.SendHTML(c, reply.Text, keyboard.RemoveKeyboard())
}

// handleDialogueStep is registered for every dialogue state and receives
// free text (or any other message) while a dialogue is open.
func (a *App) handleDialogueStep(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	reply, err := a.machine.Advance(ctx, c.Sender().ID, c.Text())
	if errors.Is(err, dialogue.ErrNoDialogue) {
		return tghelpers.SendText(c, unknownText)
	}
	if err != nil {
		return err
	}
	return tghelpers.SendHTML(c, reply.Text, keyboard.RemoveKeyboard())
}

func (a *App) handleFilmSelected(c tele.Context) error {
	_ = c.Respond()
	ctx := tghelpers.BuildContext(c)

	id, err := callbacks.PayloadInt64(c)
	if err != nil || id <= 0 {
		logger.Debug(ctx, "service.catalog", "select",
			slog.String("status", "invalid"),
			slog.String("payload", logger.SanitizeLimit(callbacks.CallbackPayload(c), 32)),
		)
		return tghelpers.SendText(c, catalogview.NotFoundText)
	}
	f, err := a.store.Get(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		logger.Debug(ctx, "service.catalog", "select",
			slog.String("status", "skip"),
			slog.String("outcome", "not_found"),
			slog.Int64("film_id", id),
		)
		return tghelpers.SendText(c, catalogview.NotFoundText)
	}
	if err != nil {
		_ = tghelpers.SendText(c, catalogDownText)
		return err
	}
	return a.sendFilm(c, catalogview.Detail(f))
}

// sendFilm tries the poster as a photo, then as a document, then gives up on
// the poster and sends the caption alone. Transient failures are returned
// as is so the dispatcher retries the whole sequence.
func (a *App) sendFilm(c tele.Context, view catalogview.DetailView) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	return tghelpers.Deliver(c, "send.film", "sendPhoto", func() error {
		photo := &tele.Photo{File: tele.FromURL(view.PosterURL), Caption: view.Caption}
		err := c.Send(photo, opts)
		if err == nil || netutil.ShouldRetry(err) {
			return err
		}
		logPosterFallback(c, "document", err)

		doc := &tele.Document{File: tele.FromURL(view.PosterURL), FileName: view.FileName, Caption: view.Caption}
		err = c.Send(doc, opts)
		if err == nil || netutil.ShouldRetry(err) {
			return err
		}
		logPosterFallback(c, "text", err)
		return c.Send(view.Caption, opts)
	})
}

func logPosterFallback(c tele.Context, next string, err error) {
	logger.Warn(tghelpers.BuildContext(c), "tg", "poster.fallback",
		slog.String("status", "retry"),
		slog.String("mode", next),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
}

func (a *App) handleRateLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: rateLimitedText})
	}
	return tghelpers.SendText(c, rateLimitedText)
}

// UnknownText answers text that is neither a command nor a dialogue reply.
func (a *App) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error { return tghelpers.SendText(c, unknownText) }
}

// UnknownDocument answers files sent outside a dialogue.
func (a *App) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error { return tghelpers.SendText(c, unknownText) }
}

// UnknownCallback answers presses on buttons the bot no longer knows.
func (a *App) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: catalogview.NotFoundText})
	}
}
