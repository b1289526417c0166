package internal

import "encoding/json"

type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// Inbound event types.
const (
	EventJoinRoom       = "join-room"
	EventResume         = "resume"
	EventWatchRoom      = "watch-room"
	EventLeaveRoom      = "leave-room"
	EventGameStart      = "game-start"
	EventGameFinished   = "game-finished"
	EventGameEnd        = "game-end"
	EventProgressUpdate = "progress-update"
	EventPing           = "ping"
	EventAction         = "action"
	EventChatSend       = "chat-send"
)

// Outbound event types.
const (
	EventJoined          = "joined"
	EventUserJoined      = "user-joined"
	EventUserLeft        = "user-left"
	EventRoomMembers     = "room-members"
	EventRoomFull        = "room-full"
	EventCurrentRoom     = "current-room"
	EventRoomStatus      = "room-status"
	EventRoomClosed      = "room-closed"
	EventGameResults     = "game-results"
	EventStartRejected   = "start-rejected"
	EventSettingsUpdated = "settings-updated"
	EventStateSync       = "state-sync"
	EventTimeSync        = "time-sync"
	EventPong            = "pong"
	EventProgressTop     = "progress-top"
	EventActionBroadcast = "action-broadcast"
	EventActionResult    = "action-result"
	EventChatMessage     = "chat-message"
)

// RoomRequest is the payload of every inbound event that only names a room.
type RoomRequest struct {
	RoomID string `json:"roomId"`
}

type MemberRequest struct {
	RoomID     string     `json:"roomId"`
	MemberInfo MemberInfo `json:"memberInfo"`
}

type PingRequest struct {
	TS int64 `json:"ts"`
}

type ActionRequest struct {
	RoomID string          `json:"roomId"`
	TS     int64           `json:"ts"`
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type ChatRequest struct {
	RoomID   string `json:"roomId"`
	Nickname string `json:"nickname,omitempty"`
	Text     string `json:"text,omitempty"`
	Emoji    string `json:"emoji,omitempty"`
	TS       int64  `json:"ts"`
}

type RoomData struct {
	RoomID string `json:"roomId"`
}

type UserLeftData struct {
	ID string `json:"id"`
}

type RoomMembersData struct {
	RoomID  string   `json:"roomId"`
	Members []Member `json:"members"`
}

type RoomStatusData struct {
	RoomID    string     `json:"roomId"`
	Status    RoomStatus `json:"status"`
	SessionID string     `json:"sessionId,omitempty"`
}

type GameResultsData struct {
	RoomID     string          `json:"roomId"`
	SessionID  string          `json:"sessionId,omitempty"`
	Results    []ProgressEntry `json:"results"`
	RewardName *string         `json:"rewardName"`
}

type StartRejectedData struct {
	Reason RejectReason `json:"reason"`
}

type SettingsUpdatedData struct {
	Settings Settings `json:"settings"`
}

type StateSyncData struct {
	TS    int64     `json:"ts"`
	State GameState `json:"state"`
}

type TimeSyncData struct {
	ServerTS int64 `json:"serverTs"`
}

type PongData struct {
	TS    int64 `json:"ts"`
	RttMs int64 `json:"rttMs"`
}

type ProgressTopData struct {
	RoomID string          `json:"roomId"`
	Top    []ProgressEntry `json:"top"`
}

type ActionBroadcastData struct {
	From string          `json:"from"`
	TS   int64           `json:"ts"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type ActionResultData struct {
	TS     int64  `json:"ts"`
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

type ChatMessageData struct {
	RoomID   string `json:"roomId"`
	SenderID string `json:"senderId"`
	Nickname string `json:"nickname,omitempty"`
	Text     string `json:"text,omitempty"`
	Emoji    string `json:"emoji,omitempty"`
	TS       int64  `json:"ts"`
}
