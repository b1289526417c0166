package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scythe504/speedboard/internal"
	"github.com/scythe504/speedboard/internal/store"
	"github.com/scythe504/speedboard/internal/utils"
)

var ErrMinParticipantsRequired = errors.New("min participants required for ready")

type Options struct {
	TickInterval   time.Duration
	FinishBonus    int
	StoreTimeout   time.Duration
	ActionThrottle time.Duration
	ChatThrottle   time.Duration
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = internal.StateTickInterval
	}
	if o.FinishBonus == 0 {
		o.FinishBonus = internal.FinishBonus
	}
	if o.StoreTimeout <= 0 {
		o.StoreTimeout = 3 * time.Second
	}
	if o.ActionThrottle <= 0 {
		o.ActionThrottle = internal.ActionThrottle
	}
	if o.ChatThrottle <= 0 {
		o.ChatThrottle = internal.ChatThrottle
	}
	return o
}

// lifecycle holds the per-room session flags. Its lock serializes every
// lifecycle transition and progress update of one room.
type lifecycle struct {
	mu      sync.Mutex
	session *internal.Session
	ended   bool
}

// Controller owns the waiting -> playing -> ended state machine of every
// room and the settlement that closes a round.
type Controller struct {
	registry    *Registry
	progress    *Progress
	broadcaster *Broadcaster
	active      *ActiveRoom
	settings    store.SettingsStore
	scores      store.ScoreStore
	out         fanout
	actions     *Throttle
	chats       *Throttle
	opts        Options
	now         func() time.Time

	mu    sync.Mutex
	rooms map[string]*lifecycle
}

func NewController(registry *Registry, sender Sender, settings store.SettingsStore, scores store.ScoreStore, opts Options) *Controller {
	out := fanout{sender: sender, registry: registry}
	opts = opts.withDefaults()
	return &Controller{
		registry:    registry,
		progress:    NewProgress(),
		broadcaster: NewBroadcaster(out.toRoomVolatile),
		active:      NewActiveRoom(),
		settings:    settings,
		scores:      scores,
		out:         out,
		actions:     NewThrottle(opts.ActionThrottle),
		chats:       NewThrottle(opts.ChatThrottle),
		opts:        opts,
		now:         time.Now,
		rooms:       make(map[string]*lifecycle),
	}
}

func (c *Controller) Registry() *Registry       { return c.registry }
func (c *Controller) Progress() *Progress       { return c.progress }
func (c *Controller) Broadcaster() *Broadcaster { return c.broadcaster }
func (c *Controller) Active() *ActiveRoom       { return c.active }

func (c *Controller) lifecycle(room string) *lifecycle {
	c.mu.Lock()
	defer c.mu.Unlock()
	lc, ok := c.rooms[room]
	if !ok {
		lc = &lifecycle{}
		c.rooms[room] = lc
	}
	return lc
}

// storeCtx detaches collaborator calls from the triggering connection so a
// disconnect cannot abort them halfway.
func (c *Controller) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), c.opts.StoreTimeout)
}

// =============================================================================
// START
// =============================================================================

// Start opens a new session for the resolved room. On rejection the reason
// is also sent to connID as start-rejected. Settings are read without the
// room lock held, so progress and finish events are never queued behind it.
func (c *Controller) Start(ctx context.Context, connID, requested string) (internal.RejectReason, bool) {
	room := c.active.Resolve(requested)
	if room == "" {
		return c.reject(connID, room, internal.RejectNoRoom)
	}

	lc := c.lifecycle(room)
	lc.mu.Lock()
	reason, busy := lc.busyLocked()
	lc.mu.Unlock()
	if busy {
		return c.reject(connID, room, reason)
	}

	sctx, cancel := c.storeCtx(ctx)
	settings, err := c.settings.Read(sctx)
	cancel()

	lc.mu.Lock()
	defer lc.mu.Unlock()

	// another Start or a settlement may have won while settings were read
	if reason, busy := lc.busyLocked(); busy {
		return c.reject(connID, room, reason)
	}
	if reason, ok := c.admit(room, settings, err); !ok {
		return c.reject(connID, room, reason)
	}

	sid := utils.NewSessionID()
	lc.session = &internal.Session{ID: sid, Status: internal.StatusPlaying}
	c.broadcaster.Start(room, c.opts.TickInterval)

	log.Info().Str("module", "game.lifecycle").Str("room", room).Str("session", sid).
		Int("members", c.registry.Count(room)).Msg("round started")

	c.out.toAll(message(internal.EventRoomStatus, internal.RoomStatusData{
		RoomID:    room,
		Status:    internal.StatusPlaying,
		SessionID: sid,
	}))
	return "", true
}

// busyLocked reports why the room cannot start now. Must be called with
// lc.mu held.
func (lc *lifecycle) busyLocked() (internal.RejectReason, bool) {
	switch {
	case lc.ended:
		return internal.RejectRoomEnded, true
	case lc.session.IsPlaying():
		return internal.RejectAlreadyPlaying, true
	default:
		return "", false
	}
}

// admit checks readiness and the minimum member count. When settings could
// not be read it only requires one member to be present.
func (c *Controller) admit(room string, settings internal.Settings, readErr error) (internal.RejectReason, bool) {
	count := c.registry.Count(room)

	if readErr != nil {
		log.Warn().Err(readErr).Str("module", "game.lifecycle").Str("room", room).
			Msg("settings unavailable, falling back to one-member rule")
		if count <= 0 {
			return internal.RejectNotEnoughMembers, false
		}
		return "", true
	}

	if !settings.Ready() {
		return internal.RejectNotReady, false
	}
	if min := settings.MinimumParticipants(); min > 0 && count < min {
		return internal.RejectNotEnoughMembers, false
	}
	return "", true
}

func (c *Controller) reject(connID, room string, reason internal.RejectReason) (internal.RejectReason, bool) {
	log.Info().Str("module", "game.lifecycle").Str("room", room).Str("conn", connID).
		Str("reason", string(reason)).Msg("start rejected")
	if connID != "" {
		c.out.toConn(connID, message(internal.EventStartRejected, internal.StartRejectedData{Reason: reason}))
	}
	return reason, false
}

// =============================================================================
// FINISH
// =============================================================================

// Finish handles the first participant to complete every round: it awards
// the bonus and settles the room. Repeated or late calls return false.
func (c *Controller) Finish(ctx context.Context, connID, requested string, info internal.MemberInfo) bool {
	room := c.active.Resolve(requested)
	if room == "" {
		return false
	}

	lc := c.lifecycle(room)
	lc.mu.Lock()
	if lc.ended || lc.session == nil || lc.session.FirstFinisherAwarded {
		lc.mu.Unlock()
		log.Debug().Str("module", "game.lifecycle").Str("room", room).Str("conn", connID).
			Msg("duplicate finish ignored")
		return false
	}

	lc.session.FirstFinisherAwarded = true
	entry := info.ToProgress(connID)
	entry.Score += c.opts.FinishBonus
	entry.Round = internal.CompleteRound
	c.progress.Update(room, entry)

	log.Info().Str("module", "game.lifecycle").Str("room", room).Str("conn", connID).
		Int("score", entry.Score).Msg("first finisher awarded")

	s := c.claimLocked(room, lc)
	lc.mu.Unlock()

	c.settle(ctx, s)
	return true
}

// End settles the room on operator request, without any bonus.
func (c *Controller) End(ctx context.Context, requested string) bool {
	room := c.active.Resolve(requested)
	if room == "" {
		return false
	}

	lc := c.lifecycle(room)
	lc.mu.Lock()
	if lc.ended {
		lc.mu.Unlock()
		log.Debug().Str("module", "game.lifecycle").Str("room", room).Msg("duplicate end ignored")
		return false
	}
	s := c.claimLocked(room, lc)
	lc.mu.Unlock()

	c.settle(ctx, s)
	return true
}

// =============================================================================
// PROGRESS
// =============================================================================

// UpdateProgress records a participant's live score and broadcasts the top 3.
// Updates for a settled room are dropped.
func (c *Controller) UpdateProgress(connID, requested string, info internal.MemberInfo) bool {
	room := c.active.ResolveExplicit(requested)
	if room == "" {
		return false
	}

	lc := c.lifecycle(room)
	lc.mu.Lock()
	if lc.ended {
		lc.mu.Unlock()
		return false
	}
	entry := info.ToProgress(connID)
	top := c.progress.Update(room, entry)
	c.broadcaster.SetScore(room, connID, entry.Score)
	lc.mu.Unlock()

	c.out.toAll(message(internal.EventProgressTop, internal.ProgressTopData{RoomID: room, Top: top}))
	return true
}

// =============================================================================
// ADMINISTRATION
// =============================================================================

// Reset re-arms a room: the broadcaster, the leaderboard, the session and
// the ended flag are all cleared.
func (c *Controller) Reset(room string) {
	lc := c.lifecycle(room)
	lc.mu.Lock()
	defer lc.mu.Unlock()

	c.broadcaster.Reset(room)
	c.progress.Clear(room)
	lc.session = nil
	lc.ended = false

	log.Info().Str("module", "game.lifecycle").Str("room", room).Msg("room reset")
}

// SetReady toggles the readiness flag. Turning it on promotes a fresh active
// room, closing any room it replaces; turning it off closes the current one.
func (c *Controller) SetReady(ctx context.Context, ready bool) (internal.Settings, string, error) {
	sctx, cancel := c.storeCtx(ctx)
	defer cancel()

	if ready {
		current, err := c.settings.Read(sctx)
		if err != nil {
			return internal.Settings{}, "", err
		}
		if current.MinimumParticipants() <= 0 {
			return internal.Settings{}, "", ErrMinParticipantsRequired
		}
	}

	saved, err := c.settings.Write(sctx, internal.Settings{SpeedReady: &ready})
	if err != nil {
		return internal.Settings{}, "", err
	}
	c.out.toAll(message(internal.EventSettingsUpdated, internal.SettingsUpdatedData{Settings: saved}))

	if !ready {
		if prev := c.active.Clear(); prev != "" {
			c.out.toAll(message(internal.EventRoomClosed, internal.RoomData{RoomID: prev}))
		}
		return saved, "", nil
	}

	room := utils.NewRoomID(c.now())
	if prev := c.active.Set(room); prev != "" && prev != room {
		log.Warn().Str("module", "game.lifecycle").Str("room", prev).Str("next", room).
			Msg("active room replaced")
		c.broadcaster.Stop(prev)
		c.out.toAll(message(internal.EventRoomClosed, internal.RoomData{RoomID: prev}))
	}
	log.Info().Str("module", "game.lifecycle").Str("room", room).Msg("room promoted")

	c.out.toAll(message(internal.EventCurrentRoom, internal.RoomData{RoomID: room}))
	c.out.toAll(message(internal.EventRoomStatus, internal.RoomStatusData{
		RoomID: room,
		Status: internal.StatusWaiting,
	}))
	return saved, room, nil
}

// Status reports the lifecycle state of room. A room without a session is
// waiting.
func (c *Controller) Status(room string) (internal.RoomStatus, string) {
	c.mu.Lock()
	lc, ok := c.rooms[room]
	c.mu.Unlock()
	if !ok {
		return internal.StatusWaiting, ""
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()
	switch {
	case lc.ended && lc.session != nil:
		return internal.StatusEnded, lc.session.ID
	case lc.ended:
		return internal.StatusEnded, ""
	case lc.session != nil:
		return lc.session.Status, lc.session.ID
	default:
		return internal.StatusWaiting, ""
	}
}

// Shutdown stops every room's state sync.
func (c *Controller) Shutdown() {
	c.broadcaster.StopAll()
}
