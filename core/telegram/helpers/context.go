package helpers

import (
	"context"

	"github.com/m3rciful/filmbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const (
	contextKey = "logger_ctx"
	// SessionIDKey is the tele.Context key holding the active dialogue session id.
	SessionIDKey = "session_id"
)

// StoreContext attaches reusable context to tele.Context for downstream helpers.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(contextKey, ctx)
}

// contextFrom returns the context stored by StoreContext, if any.
func contextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	if ctx, ok := c.Get(contextKey).(context.Context); ok {
		return ctx, true
	}
	return nil, false
}

// BuildContext constructs a context.Context from tele.Context,
// enriching it with RID, update/user/chat metadata and the dialogue session id.
func BuildContext(c tele.Context) context.Context {
	ctx, ok := contextFrom(c)
	if !ok {
		ctx = buildContext(c)
		StoreContext(c, ctx)
	}
	if sid, _ := c.Get(SessionIDKey).(string); sid != "" && logger.SessionFrom(ctx) != sid {
		ctx = logger.WithSession(ctx, sid)
		StoreContext(c, ctx)
	}
	return ctx
}

func buildContext(c tele.Context) context.Context {
	var (
		chatID   int64
		userID   int64
		updateID int
	)
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	updateID = c.Update().ID

	rid, _ := c.Get("rid").(string)
	if rid == "" {
		rid = logger.BuildRID(updateID, chatID, userID)
	}

	ctx := logger.WithRID(context.Background(), rid)
	ctx = logger.WithUpdateMeta(ctx, updateID, userID, chatID)
	return logger.WithLogger(ctx, logger.Component("tg"))
}

// WithHandler enriches stored context with handler metadata for downstream logs.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}

// WithSession records a freshly started session id for the rest of the update.
func WithSession(c tele.Context, sessionID string) context.Context {
	c.Set(SessionIDKey, sessionID)
	return BuildContext(c)
}
