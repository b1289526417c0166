// Package store holds the settings and score collaborators consulted by the
// session controller, backed by Postgres or by memory.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/scythe504/speedboard/internal"
)

var ErrUnavailable = errors.New("store: unavailable")

type SettingsStore interface {
	Read(ctx context.Context) (internal.Settings, error)
	// Write applies the non-nil fields of patch and returns the stored document.
	Write(ctx context.Context, patch internal.Settings) (internal.Settings, error)
}

type ScoreStore interface {
	// UpsertSessionScore keeps the highest score per (sessionID, userID).
	UpsertSessionScore(ctx context.Context, sessionID, userID, displayName string, score int) error
	SessionRanking(ctx context.Context, sessionID string, page, limit int) ([]ScoreRecord, error)
}

type Store interface {
	SettingsStore
	ScoreStore
	Ping(ctx context.Context) error
	Close()
}

type ScoreRecord struct {
	SessionID string    `json:"gameId"`
	UserID    string    `json:"userId"`
	Nickname  string    `json:"nickname,omitempty"`
	Score     int       `json:"score"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// pageBounds clamps paging input and returns offset and limit.
func pageBounds(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = internal.DefaultRankingLimit
	}
	if limit > internal.MaxRankingLimit {
		limit = internal.MaxRankingLimit
	}
	return (page - 1) * limit, limit
}
