package game

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/scythe504/speedboard/internal"
)

// =============================================================================
// SETTLEMENT
// =============================================================================

// settlement is the ranking and membership captured when a room is claimed
// for settling. Later joins, leaves and progress do not affect it.
type settlement struct {
	room      string
	sessionID string
	ranked    []internal.ProgressEntry
	members   map[string]internal.Member
}

// claimLocked marks the room ended and snapshots what settle needs. Must be
// called with lc.mu held.
func (c *Controller) claimLocked(room string, lc *lifecycle) settlement {
	lc.ended = true
	s := settlement{room: room, ranked: c.progress.Ranked(room), members: make(map[string]internal.Member)}
	if lc.session != nil {
		lc.session.Settled = true
		s.sessionID = lc.session.ID
	}
	for _, m := range c.registry.Members(room) {
		s.members[m.ID] = m
	}
	return s
}

// settle runs the end-of-round sequence. Collaborator failures are logged
// and never stop the remaining steps.
func (c *Controller) settle(ctx context.Context, s settlement) {
	logger := log.With().Str("module", "game.settlement").Str("room", s.room).Str("session", s.sessionID).Logger()

	c.broadcaster.Reset(s.room)
	c.out.toAll(message(internal.EventRoomStatus, internal.RoomStatusData{
		RoomID:    s.room,
		Status:    internal.StatusEnded,
		SessionID: s.sessionID,
	}))

	if s.sessionID != "" {
		c.persist(ctx, s)
	}

	c.out.toAll(message(internal.EventGameResults, internal.GameResultsData{
		RoomID:     s.room,
		SessionID:  s.sessionID,
		Results:    s.ranked,
		RewardName: c.rewardName(ctx),
	}))

	c.progress.Clear(s.room)

	c.active.ClearIf(s.room)
	c.out.toAll(message(internal.EventRoomClosed, internal.RoomData{RoomID: s.room}))

	c.disarm(ctx)

	lc := c.lifecycle(s.room)
	lc.mu.Lock()
	if lc.session != nil && lc.session.ID == s.sessionID {
		lc.session.Status = internal.StatusEnded
	}
	lc.mu.Unlock()

	logger.Info().Int("results", len(s.ranked)).Msg("room settled")
}

// persist writes every ranked entry to the score store. A member's user id
// is preferred over the connection id so scores survive reconnects.
func (c *Controller) persist(ctx context.Context, s settlement) {
	for _, e := range s.ranked {
		userID := e.ID
		if m, ok := s.members[e.ID]; ok {
			userID = m.StableID()
		}

		// each upsert gets its own deadline so a slow store cannot starve
		// the tail of the ranking
		sctx, cancel := c.storeCtx(ctx)
		err := c.scores.UpsertSessionScore(sctx, s.sessionID, userID, e.Nickname, e.Score)
		cancel()
		if err != nil {
			log.Error().Err(err).Str("module", "game.settlement").Str("room", s.room).
				Str("session", s.sessionID).Str("user", userID).Msg("score upsert failed")
		}
	}
}

func (c *Controller) rewardName(ctx context.Context) *string {
	sctx, cancel := c.storeCtx(ctx)
	defer cancel()

	settings, err := c.settings.Read(sctx)
	if err != nil {
		log.Warn().Err(err).Str("module", "game.settlement").Msg("reward name unavailable")
		return nil
	}
	return settings.RewardName
}

// disarm switches readiness off after a round so the next one needs an
// explicit ready.
func (c *Controller) disarm(ctx context.Context) {
	sctx, cancel := c.storeCtx(ctx)
	defer cancel()

	off := false
	saved, err := c.settings.Write(sctx, internal.Settings{SpeedReady: &off})
	if err != nil {
		log.Error().Err(err).Str("module", "game.settlement").Msg("ready reset failed")
		saved = internal.Settings{SpeedReady: &off}
	}
	c.out.toAll(message(internal.EventSettingsUpdated, internal.SettingsUpdatedData{Settings: saved}))
}
