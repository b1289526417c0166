package internal

import "time"

const (
	RoomCapacity        = 30
	LeaderboardSize     = 3
	FinishBonus         = 1000
	CompleteRound       = 999
	StateTickInterval   = 200 * time.Millisecond
	TimeSyncInterval    = 5 * time.Second
	ActionThrottle      = 30 * time.Millisecond
	ChatThrottle        = 300 * time.Millisecond
	MaxChatLength       = 140
	ActiveRoomPrefix    = "SB-"
	DefaultRankingLimit = 20
	MaxRankingLimit     = 50
)

type RoomStatus string

const (
	StatusWaiting RoomStatus = "waiting"
	StatusPlaying RoomStatus = "playing"
	StatusEnded   RoomStatus = "ended"
)

// RejectReason is the typed code sent with start-rejected.
type RejectReason string

const (
	RejectNoRoom           RejectReason = "no_room"
	RejectRoomEnded        RejectReason = "room_ended"
	RejectAlreadyPlaying   RejectReason = "already_playing"
	RejectNotReady         RejectReason = "not_ready"
	RejectNotEnoughMembers RejectReason = "not_enough_members"
)

type ProgressEntry struct {
	ID          string  `json:"id"`
	Score       int     `json:"score"`
	Round       int     `json:"round"`
	Nickname    string  `json:"nickname,omitempty"`
	Avatar      string  `json:"avatar,omitempty"`
	TableNumber *string `json:"tableNumber,omitempty"`
}

// GameState is the generic snapshot pushed by state-sync.
type GameState struct {
	Round      int            `json:"round"`
	ScoreBoard map[string]int `json:"scoreBoard"`
}

func (s GameState) Clone() GameState {
	board := make(map[string]int, len(s.ScoreBoard))
	for id, score := range s.ScoreBoard {
		board[id] = score
	}
	return GameState{Round: s.Round, ScoreBoard: board}
}

// Response is the JSON envelope used by the HTTP routes.
type Response struct {
	StatusCode    int   `json:"status_code"`
	RespStartTime int64 `json:"resp_time_start_ms"`
	RespEndTime   int64 `json:"resp_time_end_ms"`
	NetRespTime   int64 `json:"net_resp_time_ms"`
	Data          any   `json:"data"`
}
