package internal

// Session is one activation of a room's round.
type Session struct {
	ID                   string
	Status               RoomStatus
	Settled              bool
	FirstFinisherAwarded bool
}

func (s *Session) IsPlaying() bool {
	return s != nil && s.Status == StatusPlaying
}

// Settings mirrors the admin settings document. Every field is optional so
// the same type serves reads, partial writes and broadcast payloads.
type Settings struct {
	RoundTimeSeconds *int    `json:"roundTimeSeconds,omitempty"`
	MaxRounds        *int    `json:"maxRounds,omitempty"`
	BaseScore        *int    `json:"baseScore,omitempty"`
	TimeBonus        *int    `json:"timeBonus,omitempty"`
	RewardName       *string `json:"rewardName,omitempty"`
	MinParticipants  *int    `json:"minParticipants,omitempty"`
	SpeedReady       *bool   `json:"speedReady,omitempty"`
}

func (s Settings) Ready() bool {
	return s.SpeedReady != nil && *s.SpeedReady
}

func (s Settings) MinimumParticipants() int {
	if s.MinParticipants == nil {
		return 0
	}
	return *s.MinParticipants
}

// Merge returns s with every non-nil field of patch applied.
func (s Settings) Merge(patch Settings) Settings {
	if patch.RoundTimeSeconds != nil {
		s.RoundTimeSeconds = patch.RoundTimeSeconds
	}
	if patch.MaxRounds != nil {
		s.MaxRounds = patch.MaxRounds
	}
	if patch.BaseScore != nil {
		s.BaseScore = patch.BaseScore
	}
	if patch.TimeBonus != nil {
		s.TimeBonus = patch.TimeBonus
	}
	if patch.RewardName != nil {
		s.RewardName = patch.RewardName
	}
	if patch.MinParticipants != nil {
		s.MinParticipants = patch.MinParticipants
	}
	if patch.SpeedReady != nil {
		s.SpeedReady = patch.SpeedReady
	}
	return s
}
