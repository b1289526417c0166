package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/speedboard/internal"
)

func ptr[T any](v T) *T { return &v }

func TestMemory_SettingsMerge(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	got, err := m.Read(ctx)
	require.NoError(t, err)
	assert.False(t, got.Ready())
	assert.Zero(t, got.MinimumParticipants())

	_, err = m.Write(ctx, internal.Settings{MinParticipants: ptr(2), RewardName: ptr("Coffee")})
	require.NoError(t, err)
	saved, err := m.Write(ctx, internal.Settings{SpeedReady: ptr(true)})
	require.NoError(t, err)

	assert.True(t, saved.Ready())
	assert.Equal(t, 2, saved.MinimumParticipants())
	require.NotNil(t, saved.RewardName)
	assert.Equal(t, "Coffee", *saved.RewardName)
}

func TestMemory_UpsertKeepsMaxScore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.UpsertSessionScore(ctx, "s1", "u1", "Alice", 500))
	require.NoError(t, m.UpsertSessionScore(ctx, "s1", "u1", "Alice2", 300))
	require.NoError(t, m.UpsertSessionScore(ctx, "s1", "u2", "Bob", 700))
	require.NoError(t, m.UpsertSessionScore(ctx, "s2", "u1", "Alice", 10))

	got, err := m.SessionRanking(ctx, "s1", 1, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "u2", got[0].UserID)
	assert.Equal(t, 700, got[0].Score)
	assert.Equal(t, "u1", got[1].UserID)
	assert.Equal(t, 500, got[1].Score)
	assert.Equal(t, "Alice2", got[1].Nickname)
}

func TestMemory_RankingPaging(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for i, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, m.UpsertSessionScore(ctx, "s", id, id, 100-i))
	}

	page2, err := m.SessionRanking(ctx, "s", 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "c", page2[0].UserID)
	assert.Equal(t, "d", page2[1].UserID)

	beyond, err := m.SessionRanking(ctx, "s", 9, 2)
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestPageBounds(t *testing.T) {
	off, lim := pageBounds(0, 0)
	assert.Equal(t, 0, off)
	assert.Equal(t, 20, lim)

	off, lim = pageBounds(3, 500)
	assert.Equal(t, 100, off)
	assert.Equal(t, 50, lim)
}
