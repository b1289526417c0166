package game

import (
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/scythe504/speedboard/internal"
)

// =============================================================================
// ROOM MANAGEMENT
// =============================================================================

type roomEntry struct {
	mu      sync.Mutex
	members map[string]internal.Member
	removed bool
}

// Registry maps room ids to their connected members. Each room is guarded
// by its own lock; the outer lock only protects the maps themselves.
type Registry struct {
	capacity int

	mu       sync.Mutex
	rooms    map[string]*roomEntry
	watchers map[string]map[string]struct{}
	lastRoom map[string]string // connID -> room
}

func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = internal.RoomCapacity
	}
	return &Registry{
		capacity: capacity,
		rooms:    make(map[string]*roomEntry),
		watchers: make(map[string]map[string]struct{}),
		lastRoom: make(map[string]string),
	}
}

func (r *Registry) Capacity() int { return r.capacity }

// lockRoom returns the locked entry for room, creating it when missing.
// An entry removed while we waited for its lock is retried.
func (r *Registry) lockRoom(room string) *roomEntry {
	for {
		r.mu.Lock()
		e, ok := r.rooms[room]
		if !ok {
			e = &roomEntry{members: make(map[string]internal.Member)}
			r.rooms[room] = e
			log.Debug().Str("module", "game.registry").Str("room", room).Msg("room created")
		}
		r.mu.Unlock()

		e.mu.Lock()
		if !e.removed {
			return e
		}
		e.mu.Unlock()
	}
}

// lookupRoom returns the locked entry for room or nil when unknown.
func (r *Registry) lookupRoom(room string) *roomEntry {
	r.mu.Lock()
	e, ok := r.rooms[room]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	e.mu.Lock()
	if e.removed {
		e.mu.Unlock()
		return nil
	}
	return e
}

// dropIfEmpty deletes the room entry once its last member is gone. Must be
// called with e.mu held.
func (r *Registry) dropIfEmpty(room string, e *roomEntry) {
	if len(e.members) > 0 {
		return
	}
	e.removed = true
	r.mu.Lock()
	if r.rooms[room] == e {
		delete(r.rooms, room)
	}
	r.mu.Unlock()
	log.Debug().Str("module", "game.registry").Str("room", room).Msg("room empty, removed")
}

func (r *Registry) track(connID, room string) {
	r.mu.Lock()
	r.lastRoom[connID] = room
	r.mu.Unlock()
}

func (r *Registry) untrack(connID, room string) {
	r.mu.Lock()
	if r.lastRoom[connID] == room {
		delete(r.lastRoom, connID)
	}
	r.mu.Unlock()
}

// Join inserts or overwrites the member keyed by connID. It is rejected
// without any mutation when the room is at capacity and connID is new.
func (r *Registry) Join(room, connID string, m internal.Member) (bool, []internal.Member) {
	e := r.lockRoom(room)
	defer e.mu.Unlock()

	if _, exists := e.members[connID]; !exists && len(e.members) >= r.capacity {
		log.Info().Str("module", "game.registry").Str("room", room).Str("conn", connID).
			Int("members", len(e.members)).Msg("join rejected, room full")
		defer r.dropIfEmpty(room, e)
		return false, snapshot(e.members)
	}

	m.ID = connID
	e.members[connID] = m
	r.track(connID, room)

	log.Debug().Str("module", "game.registry").Str("room", room).Str("conn", connID).
		Int("members", len(e.members)).Msg("member joined")
	return true, snapshot(e.members)
}

// Resume admits connID like Join but never overwrites an existing member.
func (r *Registry) Resume(room, connID string, partial internal.Member) (bool, []internal.Member) {
	e := r.lockRoom(room)
	defer e.mu.Unlock()

	if _, exists := e.members[connID]; !exists {
		if len(e.members) >= r.capacity {
			defer r.dropIfEmpty(room, e)
			return false, snapshot(e.members)
		}
		partial.ID = connID
		e.members[connID] = partial
	}
	r.track(connID, room)
	return true, snapshot(e.members)
}

// Leave removes connID from room and returns the remaining members.
func (r *Registry) Leave(room, connID string) []internal.Member {
	r.untrack(connID, room)

	e := r.lookupRoom(room)
	if e == nil {
		return []internal.Member{}
	}
	defer e.mu.Unlock()

	delete(e.members, connID)
	members := snapshot(e.members)
	r.dropIfEmpty(room, e)
	return members
}

// OnDisconnect removes connID from its last known room and drops any watch
// subscriptions. ok is false when the connection was in no room.
func (r *Registry) OnDisconnect(connID string) (room string, members []internal.Member, ok bool) {
	r.mu.Lock()
	room, ok = r.lastRoom[connID]
	for watched, set := range r.watchers {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.watchers, watched)
		}
	}
	r.mu.Unlock()

	if !ok {
		return "", nil, false
	}
	return room, r.Leave(room, connID), true
}

// Watch subscribes connID to the room's membership feed without joining.
func (r *Registry) Watch(room, connID string) []internal.Member {
	r.mu.Lock()
	set, ok := r.watchers[room]
	if !ok {
		set = make(map[string]struct{})
		r.watchers[room] = set
	}
	set[connID] = struct{}{}
	r.mu.Unlock()

	return r.Members(room)
}

func (r *Registry) Members(room string) []internal.Member {
	e := r.lookupRoom(room)
	if e == nil {
		return []internal.Member{}
	}
	defer e.mu.Unlock()
	return snapshot(e.members)
}

func (r *Registry) Member(room, connID string) (internal.Member, bool) {
	e := r.lookupRoom(room)
	if e == nil {
		return internal.Member{}, false
	}
	defer e.mu.Unlock()
	m, ok := e.members[connID]
	return m, ok
}

func (r *Registry) MemberIDs(room string) []string {
	e := r.lookupRoom(room)
	if e == nil {
		return nil
	}
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.members))
	for id := range e.members {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) WatcherIDs(room string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.watchers[room]))
	for id := range r.watchers[room] {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) Count(room string) int {
	e := r.lookupRoom(room)
	if e == nil {
		return 0
	}
	defer e.mu.Unlock()
	return len(e.members)
}

func (r *Registry) RoomOf(connID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRoom[connID]
}

func snapshot(members map[string]internal.Member) []internal.Member {
	out := make([]internal.Member, 0, len(members))
	for _, m := range members {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b internal.Member) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
