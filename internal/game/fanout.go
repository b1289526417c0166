package game

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/scythe504/speedboard/internal"
)

// Sender delivers encoded frames to live connections. Implementations must
// never block the caller; volatile frames may be dropped silently.
type Sender interface {
	SendTo(connIDs []string, frame []byte, volatile bool)
	SendAll(frame []byte)
}

// =============================================================================
// BROADCASTING & MESSAGING
// =============================================================================

type fanout struct {
	sender   Sender
	registry *Registry
}

func encode(msg internal.Message[any]) ([]byte, bool) {
	frame, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("module", "game.fanout").Str("type", msg.Type).Msg("encode failed")
		return nil, false
	}
	return frame, true
}

func message(msgType string, data any) internal.Message[any] {
	return internal.Message[any]{Type: msgType, Data: data}
}

func (f fanout) toConn(connID string, msg internal.Message[any]) {
	if frame, ok := encode(msg); ok {
		f.sender.SendTo([]string{connID}, frame, false)
	}
}

func (f fanout) toConnVolatile(connID string, msg internal.Message[any]) {
	if frame, ok := encode(msg); ok {
		f.sender.SendTo([]string{connID}, frame, true)
	}
}

// toRoom sends to every member of room except the excluded connection.
func (f fanout) toRoom(room, except string, msg internal.Message[any]) {
	ids := f.registry.MemberIDs(room)
	if except != "" {
		ids = without(ids, except)
	}
	if len(ids) == 0 {
		return
	}
	if frame, ok := encode(msg); ok {
		f.sender.SendTo(ids, frame, false)
	}
}

func (f fanout) toRoomVolatile(room string, msg internal.Message[any]) {
	ids := f.registry.MemberIDs(room)
	if len(ids) == 0 {
		return
	}
	if frame, ok := encode(msg); ok {
		f.sender.SendTo(ids, frame, true)
	}
}

// toRoomAndWatchers reaches members and watchers, each connection once.
func (f fanout) toRoomAndWatchers(room string, msg internal.Message[any]) {
	ids := f.registry.MemberIDs(room)
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	for _, id := range f.registry.WatcherIDs(room) {
		if _, dup := seen[id]; !dup {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return
	}
	if frame, ok := encode(msg); ok {
		f.sender.SendTo(ids, frame, false)
	}
}

func (f fanout) toAll(msg internal.Message[any]) {
	if frame, ok := encode(msg); ok {
		f.sender.SendAll(frame)
	}
}

func without(ids []string, drop string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
