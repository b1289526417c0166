package game

import (
	"github.com/rs/zerolog/log"

	"github.com/scythe504/speedboard/internal"
)

// =============================================================================
// MEMBERSHIP
// =============================================================================

// Join admits connID into the resolved room, leaving any other room first.
// A full room answers room-full to the caller only.
func (c *Controller) Join(connID, requested string, info internal.MemberInfo) bool {
	room := c.active.Resolve(requested)
	if room == "" {
		log.Debug().Str("module", "game.membership").Str("conn", connID).Msg("join without room ignored")
		return false
	}

	if prev := c.registry.RoomOf(connID); prev != "" && prev != room {
		c.leave(connID, prev)
	}

	admitted, members := c.registry.Join(room, connID, info.ToMember(connID))
	if !admitted {
		c.out.toConn(connID, message(internal.EventRoomFull, internal.RoomData{RoomID: room}))
		return false
	}

	self, _ := c.registry.Member(room, connID)
	c.out.toConn(connID, message(internal.EventJoined, internal.RoomData{RoomID: room}))
	c.out.toRoomAndWatchers(room, message(internal.EventRoomMembers, internal.RoomMembersData{
		RoomID:  room,
		Members: members,
	}))
	c.out.toRoom(room, connID, message(internal.EventUserJoined, self))
	return true
}

// Resume re-admits a connection after a reconnect without touching an
// existing registration in the same room. A registration in any other room
// is dropped first, as Join does.
func (c *Controller) Resume(connID, requested string, info internal.MemberInfo) bool {
	room := c.active.Resolve(requested)
	if room == "" {
		return false
	}

	if prev := c.registry.RoomOf(connID); prev != "" && prev != room {
		c.leave(connID, prev)
	}

	admitted, members := c.registry.Resume(room, connID, info.ToMember(connID))
	if !admitted {
		c.out.toConn(connID, message(internal.EventRoomFull, internal.RoomData{RoomID: room}))
		return false
	}

	c.out.toConn(connID, message(internal.EventJoined, internal.RoomData{RoomID: room}))
	c.out.toRoomAndWatchers(room, message(internal.EventRoomMembers, internal.RoomMembersData{
		RoomID:  room,
		Members: members,
	}))
	return true
}

// Watch subscribes connID to membership changes without joining, and sends
// the current member list.
func (c *Controller) Watch(connID, requested string) bool {
	room := c.active.Resolve(requested)
	if room == "" {
		return false
	}
	members := c.registry.Watch(room, connID)
	c.out.toConn(connID, message(internal.EventRoomMembers, internal.RoomMembersData{
		RoomID:  room,
		Members: members,
	}))
	return true
}

func (c *Controller) Leave(connID, requested string) bool {
	room := c.active.ResolveExplicit(requested)
	if room == "" {
		room = c.registry.RoomOf(connID)
	}
	if room == "" {
		return false
	}
	c.leave(connID, room)
	return true
}

// Disconnect cleans up a closed connection from its last room.
func (c *Controller) Disconnect(connID string) {
	c.actions.Forget(connID)
	c.chats.Forget(connID)

	room, members, ok := c.registry.OnDisconnect(connID)
	if !ok {
		return
	}
	log.Debug().Str("module", "game.membership").Str("room", room).Str("conn", connID).Msg("member disconnected")
	c.afterLeave(connID, room, members)
}

func (c *Controller) leave(connID, room string) {
	members := c.registry.Leave(room, connID)
	c.afterLeave(connID, room, members)
}

func (c *Controller) afterLeave(connID, room string, members []internal.Member) {
	c.progress.RemoveConnection(room, connID)
	c.broadcaster.RemoveScore(room, connID)

	c.out.toRoomAndWatchers(room, message(internal.EventRoomMembers, internal.RoomMembersData{
		RoomID:  room,
		Members: members,
	}))
	c.out.toRoom(room, "", message(internal.EventUserLeft, internal.UserLeftData{ID: connID}))
}

// Greet tells a fresh connection which room is active, if any.
func (c *Controller) Greet(connID string) {
	if room, ok := c.active.Get(); ok {
		c.out.toConn(connID, message(internal.EventCurrentRoom, internal.RoomData{RoomID: room}))
	}
}
