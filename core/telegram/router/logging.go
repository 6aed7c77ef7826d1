package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/filmbot/core/logger"
	"github.com/m3rciful/filmbot/core/metrics"
	tghelpers "github.com/m3rciful/filmbot/core/telegram/helpers"
	"github.com/m3rciful/filmbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// summary describes how one routed update ended up.
type summary struct {
	handler string
	status  string
	outcome string
	extras  []slog.Attr
}

// handleWithSummary runs fn under handler name and emits the single
// handler.handled line plus the handler metrics.
func handleWithSummary(c tele.Context, s summary, fn func() error) error {
	start := time.Now()
	tghelpers.WithHandler(c, s.handler)
	var err error
	if fn != nil {
		err = fn()
	}
	logHandlerSummary(c, s, start, err)
	return err
}

func logHandlerSummary(c tele.Context, s summary, start time.Time, err error) {
	ctx := tghelpers.WithHandler(c, s.handler)
	msgs, kb := middleware.GetCounters(c)
	elapsed := time.Since(start)

	if s.status == "" {
		s.status = logger.Status(err)
	}
	if s.outcome == "" {
		s.outcome = logger.Status(err)
	}
	metrics.HandlerTotal.WithLabelValues(s.handler, s.status).Inc()
	metrics.HandlerDuration.WithLabelValues(s.handler).Observe(elapsed.Seconds())

	attrs := []slog.Attr{
		slog.String("status", s.status),
		slog.String("outcome", s.outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", elapsed),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	attrs = append(attrs, s.extras...)
	logger.LogEvent(ctx, nil, slog.LevelInfo, "handler.handled", attrs...)
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// errorCode names the innermost typed error, e.g. PERSISTENCE_ERROR.
func errorCode(err error) string {
	type coder interface{ Code() string }
	var c coder
	if errors.As(err, &c) {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(code)
		}
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return toSnakeUpper(t.Name())
}

func toSnakeUpper(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}
