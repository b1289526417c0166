package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/scythe504/speedboard/internal"
)

type scoreKey struct {
	sessionID string
	userID    string
}

// Memory is an in-process Store used when no database is configured.
type Memory struct {
	mu       sync.RWMutex
	settings internal.Settings
	scores   map[scoreKey]ScoreRecord
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		scores: make(map[scoreKey]ScoreRecord),
		now:    time.Now,
	}
}

func (m *Memory) Read(ctx context.Context) (internal.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings, nil
}

func (m *Memory) Write(ctx context.Context, patch internal.Settings) (internal.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = m.settings.Merge(patch)
	return m.settings, nil
}

func (m *Memory) UpsertSessionScore(ctx context.Context, sessionID, userID, displayName string, score int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := scoreKey{sessionID: sessionID, userID: userID}
	rec, ok := m.scores[key]
	if !ok || score > rec.Score {
		rec.Score = score
	}
	rec.SessionID = sessionID
	rec.UserID = userID
	rec.Nickname = displayName
	rec.UpdatedAt = m.now()
	m.scores[key] = rec
	return nil
}

func (m *Memory) SessionRanking(ctx context.Context, sessionID string, page, limit int) ([]ScoreRecord, error) {
	offset, limit := pageBounds(page, limit)

	m.mu.RLock()
	records := make([]ScoreRecord, 0)
	for key, rec := range m.scores {
		if key.sessionID == sessionID {
			records = append(records, rec)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(records, func(a, b ScoreRecord) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return strings.Compare(a.UserID, b.UserID)
	})

	if offset >= len(records) {
		return []ScoreRecord{}, nil
	}
	return records[offset:min(offset+limit, len(records))], nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close() {}
