// Package teletest provides an in-memory tele.Context for handler tests.
package teletest

import (
	"sync"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

// Sent is one outbound call captured by Context.
type Sent struct {
	What any
	Opts []any
}

// Text returns the payload when it was a plain string.
func (s Sent) Text() string {
	str, _ := s.What.(string)
	return str
}

// SendOptions returns the first *tele.SendOptions passed along, if any.
func (s Sent) SendOptions() *tele.SendOptions {
	for _, o := range s.Opts {
		if so, ok := o.(*tele.SendOptions); ok {
			return so
		}
	}
	return nil
}

// Context implements the parts of tele.Context the bot uses. Calling any
// other method panics through the nil embedded interface.
type Context struct {
	tele.Context

	upd   tele.Update
	user  *tele.User
	chat  *tele.Chat
	mu    sync.Mutex
	store map[string]any
	sent  []Sent
	resps []*tele.CallbackResponse

	// SendErr, when set, decides the result of each Send before it is recorded.
	SendErr func(what any) error
}

var updateSeq atomic.Int64

func newContext(userID int64) *Context {
	user := &tele.User{ID: userID, FirstName: "Test", LastName: "User", Username: "tester"}
	chat := &tele.Chat{ID: userID, Type: tele.ChatPrivate}
	return &Context{
		upd:   tele.Update{ID: int(updateSeq.Add(1))},
		user:  user,
		chat:  chat,
		store: make(map[string]any),
	}
}

// NewMessage builds a private-chat text update from userID.
func NewMessage(userID int64, text string) *Context {
	c := newContext(userID)
	c.upd.Message = &tele.Message{ID: c.upd.ID, Sender: c.user, Chat: c.chat, Text: text}
	return c
}

// NewCallback builds an inline-button press carrying raw callback data.
func NewCallback(userID int64, data string) *Context {
	c := newContext(userID)
	msg := &tele.Message{ID: c.upd.ID, Sender: c.user, Chat: c.chat}
	c.upd.Callback = &tele.Callback{ID: "cb", Sender: c.user, Message: msg, Data: data}
	return c
}

func (c *Context) Update() tele.Update { return c.upd }
func (c *Context) Sender() *tele.User  { return c.user }
func (c *Context) Chat() *tele.Chat    { return c.chat }

func (c *Context) Message() *tele.Message {
	if c.upd.Message != nil {
		return c.upd.Message
	}
	if c.upd.Callback != nil {
		return c.upd.Callback.Message
	}
	return nil
}

func (c *Context) Callback() *tele.Callback { return c.upd.Callback }

func (c *Context) Text() string {
	if m := c.upd.Message; m != nil {
		return m.Text
	}
	return ""
}

func (c *Context) Send(what any, opts ...any) error {
	if c.SendErr != nil {
		if err := c.SendErr(what); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, Sent{What: what, Opts: opts})
	return nil
}

func (c *Context) Reply(what any, opts ...any) error { return c.Send(what, opts...) }

func (c *Context) Respond(resp ...*tele.CallbackResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(resp) == 0 {
		resp = []*tele.CallbackResponse{{}}
	}
	c.resps = append(c.resps, resp...)
	return nil
}

func (c *Context) Get(key string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[key]
}

func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = val
}

// Sent returns the captured outbound calls.
func (c *Context) Sent() []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Sent(nil), c.sent...)
}

// LastText returns the text of the most recent plain-string send.
func (c *Context) LastText() string {
	sent := c.Sent()
	for i := len(sent) - 1; i >= 0; i-- {
		if t := sent[i].Text(); t != "" {
			return t
		}
	}
	return ""
}

// Responses returns the captured callback answers.
func (c *Context) Responses() []*tele.CallbackResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*tele.CallbackResponse(nil), c.resps...)
}
