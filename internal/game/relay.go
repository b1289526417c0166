package game

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/scythe504/speedboard/internal"
	"github.com/scythe504/speedboard/internal/utils"
)

// Throttle allows one event per interval per connection.
type Throttle struct {
	every time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewThrottle(every time.Duration) *Throttle {
	return &Throttle{every: every, limiters: make(map[string]*rate.Limiter)}
}

func (t *Throttle) Allow(connID string) bool {
	if t.every <= 0 {
		return true
	}
	t.mu.Lock()
	lim, ok := t.limiters[connID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(t.every), 1)
		t.limiters[connID] = lim
	}
	t.mu.Unlock()
	return lim.Allow()
}

func (t *Throttle) Forget(connID string) {
	t.mu.Lock()
	delete(t.limiters, connID)
	t.mu.Unlock()
}

// =============================================================================
// ACTION & CHAT RELAY
// =============================================================================

const (
	actionRejectThrottled = "throttled"
	actionRejectNotMember = "not_in_room"
)

// Action relays a gameplay action to the rest of the room and acknowledges
// it to the sender. Payloads are forwarded untouched.
func (c *Controller) Action(connID string, req internal.ActionRequest) bool {
	if !c.actions.Allow(connID) {
		c.out.toConnVolatile(connID, message(internal.EventActionResult, internal.ActionResultData{
			TS: req.TS, Reason: actionRejectThrottled,
		}))
		return false
	}

	room := c.active.ResolveExplicit(req.RoomID)
	if _, ok := c.registry.Member(room, connID); room == "" || !ok {
		c.out.toConn(connID, message(internal.EventActionResult, internal.ActionResultData{
			TS: req.TS, Reason: actionRejectNotMember,
		}))
		return false
	}

	c.out.toRoom(room, connID, message(internal.EventActionBroadcast, internal.ActionBroadcastData{
		From: connID,
		TS:   req.TS,
		Type: req.Type,
		Data: req.Data,
	}))
	c.out.toConn(connID, message(internal.EventActionResult, internal.ActionResultData{TS: req.TS, OK: true}))
	return true
}

// Chat delivers a sanitized chat line to the whole room. Throttled, empty,
// or non-member messages are dropped.
func (c *Controller) Chat(connID string, req internal.ChatRequest) bool {
	if !c.chats.Allow(connID) {
		return false
	}

	room := c.active.ResolveExplicit(req.RoomID)
	member, ok := c.registry.Member(room, connID)
	if room == "" || !ok {
		return false
	}

	text := utils.SanitizeChat(req.Text)
	if text == "" && req.Emoji == "" {
		return false
	}

	nickname := req.Nickname
	if nickname == "" {
		nickname = member.Nickname
	}
	ts := req.TS
	if ts == 0 {
		ts = c.now().UnixMilli()
	}

	c.out.toRoom(room, "", message(internal.EventChatMessage, internal.ChatMessageData{
		RoomID:   room,
		SenderID: connID,
		Nickname: nickname,
		Text:     text,
		Emoji:    req.Emoji,
		TS:       ts,
	}))
	return true
}

// Ping answers a client clock probe with the measured round trip.
func (c *Controller) Ping(connID string, ts int64) {
	c.out.toConn(connID, message(internal.EventPong, Pong(ts, c.now())))
}
