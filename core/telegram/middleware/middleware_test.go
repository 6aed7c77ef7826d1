package middleware

import (
	"testing"
	"time"

	"github.com/m3rciful/filmbot/core/telegram/teletest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

func TestRateLimitMiddleware(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Exclude:   map[string]struct{}{"callback": {}},
		OnLimited: func(tele.Context) error { limited++; return nil },
		Now:       func() time.Time { return now },
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })

	require.NoError(t, h(teletest.NewMessage(1, "/films")))
	require.NoError(t, h(teletest.NewMessage(1, "/films")))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, limited)

	require.NoError(t, h(teletest.NewMessage(2, "/films")))
	assert.Equal(t, 2, calls, "other users are not limited")

	require.NoError(t, h(teletest.NewCallback(1, "\ffilm|1")))
	assert.Equal(t, 3, calls, "excluded kinds pass")

	now = now.Add(2 * time.Second)
	require.NoError(t, h(teletest.NewMessage(1, "/films")))
	assert.Equal(t, 4, calls)
}

func TestMessageMetricsMiddlewareCounts(t *testing.T) {
	c := teletest.NewMessage(1, "hi")
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		if err := c.Send("one"); err != nil {
			return err
		}
		return c.Send("two", &tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{}})
	})
	require.NoError(t, h(c))

	msgs, kb := GetCounters(c)
	assert.Equal(t, 2, msgs)
	assert.True(t, kb)
	assert.Len(t, c.Sent(), 2)
}

func TestRecoverMiddlewareSwallowsPanic(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	assert.NotPanics(t, func() {
		assert.NoError(t, h(teletest.NewMessage(1, "x")))
	})
}

func TestLoggerMiddlewareSetsRID(t *testing.T) {
	c := teletest.NewMessage(42, "hello")
	var rid string
	h := LoggerMiddleware(func(c tele.Context) error {
		rid, _ = c.Get("rid").(string)
		return nil
	})
	require.NoError(t, h(c))
	assert.Equal(t, "42", rid[len(rid)-2:])
	assert.Contains(t, rid, ":42:")
}
