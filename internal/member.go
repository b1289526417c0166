package internal

// Member is one connected participant of a room.
type Member struct {
	ID          string  `json:"id"`
	UserID      string  `json:"userId,omitempty"`
	Nickname    string  `json:"nickname,omitempty"`
	Avatar      string  `json:"avatar,omitempty"`
	TableNumber *string `json:"tableNumber,omitempty"`
}

// MemberInfo is what a client sends about itself with join, progress and
// finish events.
type MemberInfo struct {
	UserID      string  `json:"userId,omitempty"`
	Nickname    string  `json:"nickname,omitempty"`
	Avatar      string  `json:"avatar,omitempty"`
	TableNumber *string `json:"tableNumber,omitempty"`
	Score       *int    `json:"score,omitempty"`
	Round       *int    `json:"round,omitempty"`
}

func (i MemberInfo) ToMember(connID string) Member {
	return Member{
		ID:          connID,
		UserID:      i.UserID,
		Nickname:    i.Nickname,
		Avatar:      i.Avatar,
		TableNumber: i.TableNumber,
	}
}

func (i MemberInfo) ScoreOrZero() int {
	if i.Score == nil {
		return 0
	}
	return *i.Score
}

func (i MemberInfo) RoundOrZero() int {
	if i.Round == nil {
		return 0
	}
	return *i.Round
}

// ToProgress builds the leaderboard entry for connID from the reported fields.
func (i MemberInfo) ToProgress(connID string) ProgressEntry {
	return ProgressEntry{
		ID:          connID,
		Score:       i.ScoreOrZero(),
		Round:       i.RoundOrZero(),
		Nickname:    i.Nickname,
		Avatar:      i.Avatar,
		TableNumber: i.TableNumber,
	}
}

// StableID prefers the user id and falls back to the connection id.
func (m Member) StableID() string {
	if m.UserID != "" {
		return m.UserID
	}
	return m.ID
}
