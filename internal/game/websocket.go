package game

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/scythe504/speedboard/internal"
)

// =============================================================================
// INBOUND MESSAGE ROUTING
// =============================================================================

// dispatch decodes one inbound frame and routes it to the controller.
// Malformed frames and unknown types are logged and skipped.
func (c *Client) dispatch(ctx context.Context, raw []byte) {
	var base internal.Message[json.RawMessage]
	if err := json.Unmarshal(raw, &base); err != nil {
		log.Debug().Err(err).Str("module", "game.client").Str("conn", c.id).Msg("bad frame")
		return
	}
	logger := log.With().Str("module", "game.client").Str("conn", c.id).Str("type", base.Type).Logger()
	logger.Trace().Msg("received")

	switch base.Type {
	case internal.EventJoinRoom:
		var req internal.MemberRequest
		if decode(base.Data, &req, logger) {
			c.ctrl.Join(c.id, req.RoomID, req.MemberInfo)
		}

	case internal.EventResume:
		var req internal.MemberRequest
		if decode(base.Data, &req, logger) {
			c.ctrl.Resume(c.id, req.RoomID, req.MemberInfo)
		}

	case internal.EventWatchRoom:
		var req internal.RoomRequest
		if decode(base.Data, &req, logger) {
			c.ctrl.Watch(c.id, req.RoomID)
		}

	case internal.EventLeaveRoom:
		var req internal.RoomRequest
		if decode(base.Data, &req, logger) {
			c.ctrl.Leave(c.id, req.RoomID)
		}

	case internal.EventGameStart:
		var req internal.RoomRequest
		if decode(base.Data, &req, logger) {
			c.ctrl.Start(ctx, c.id, req.RoomID)
		}

	case internal.EventGameFinished:
		var req internal.MemberRequest
		if decode(base.Data, &req, logger) {
			c.ctrl.Finish(ctx, c.id, req.RoomID, req.MemberInfo)
		}

	case internal.EventGameEnd:
		var req internal.RoomRequest
		if decode(base.Data, &req, logger) {
			c.ctrl.End(ctx, req.RoomID)
		}

	case internal.EventProgressUpdate:
		var req internal.MemberRequest
		if decode(base.Data, &req, logger) {
			c.ctrl.UpdateProgress(c.id, req.RoomID, req.MemberInfo)
		}

	case internal.EventPing:
		var req internal.PingRequest
		if decode(base.Data, &req, logger) {
			c.ctrl.Ping(c.id, req.TS)
		}

	case internal.EventAction:
		var req internal.ActionRequest
		if decode(base.Data, &req, logger) {
			c.ctrl.Action(c.id, req)
		}

	case internal.EventChatSend:
		var req internal.ChatRequest
		if decode(base.Data, &req, logger) {
			c.ctrl.Chat(c.id, req)
		}

	default:
		logger.Debug().Msg("unknown message type")
	}
}

// decode accepts a missing payload as the zero value.
func decode(data json.RawMessage, v any, logger zerolog.Logger) bool {
	if len(data) == 0 || string(data) == "null" {
		return true
	}
	if err := json.Unmarshal(data, v); err != nil {
		logger.Debug().Err(err).Msg("bad payload")
		return false
	}
	return true
}
