package game

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/speedboard/internal"
)

type tickLog struct {
	mu    sync.Mutex
	ticks []internal.StateSyncData
}

func (l *tickLog) emit(room string, msg internal.Message[any]) {
	raw, _ := json.Marshal(msg.Data)
	var d internal.StateSyncData
	_ = json.Unmarshal(raw, &d)
	l.mu.Lock()
	l.ticks = append(l.ticks, d)
	l.mu.Unlock()
}

func (l *tickLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ticks)
}

func (l *tickLog) last() internal.StateSyncData {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ticks[len(l.ticks)-1]
}

func TestBroadcaster_StartIsIdempotent(t *testing.T) {
	log := &tickLog{}
	b := NewBroadcaster(log.emit)
	t.Cleanup(b.StopAll)

	assert.True(t, b.Start("r1", 5*time.Millisecond))
	assert.False(t, b.Start("r1", 5*time.Millisecond))
	assert.True(t, b.Running("r1"))

	snap, ok := b.Snapshot("r1")
	require.True(t, ok)
	assert.Equal(t, 1, snap.Round)
	assert.Empty(t, snap.ScoreBoard)
}

func TestBroadcaster_TicksCarryScores(t *testing.T) {
	log := &tickLog{}
	b := NewBroadcaster(log.emit)
	t.Cleanup(b.StopAll)

	b.Start("r1", 5*time.Millisecond)
	b.SetScore("r1", "a", 12)

	require.Eventually(t, func() bool {
		return log.count() > 0 && log.last().State.ScoreBoard["a"] == 12
	}, time.Second, 5*time.Millisecond)
	assert.NotZero(t, log.last().TS)
}

func TestBroadcaster_StopHaltsTicks(t *testing.T) {
	log := &tickLog{}
	b := NewBroadcaster(log.emit)

	b.Start("r1", 2*time.Millisecond)
	require.Eventually(t, func() bool { return log.count() > 0 }, time.Second, 2*time.Millisecond)

	b.Stop("r1")
	b.Stop("r1")
	assert.False(t, b.Running("r1"))

	time.Sleep(10 * time.Millisecond)
	settled := log.count()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, settled, log.count())

	_, ok := b.Snapshot("r1")
	assert.True(t, ok, "stop keeps the snapshot")
}

func TestBroadcaster_ResetDiscardsState(t *testing.T) {
	b := NewBroadcaster(func(string, internal.Message[any]) {})

	b.Start("r1", time.Hour)
	b.SetScore("r1", "a", 5)
	b.Reset("r1")

	_, ok := b.Snapshot("r1")
	assert.False(t, ok)
	assert.False(t, b.Running("r1"))

	b.SetScore("r1", "a", 5)
	_, ok = b.Snapshot("r1")
	assert.False(t, ok, "scores without a running session are ignored")
}

func TestBroadcaster_RemoveScore(t *testing.T) {
	b := NewBroadcaster(func(string, internal.Message[any]) {})
	t.Cleanup(b.StopAll)

	b.Start("r1", time.Hour)
	b.SetScore("r1", "a", 5)
	b.SetScore("r1", "b", 7)
	b.RemoveScore("r1", "a")

	snap, _ := b.Snapshot("r1")
	assert.Equal(t, map[string]int{"b": 7}, snap.ScoreBoard)
}

func TestBroadcaster_StopAll(t *testing.T) {
	b := NewBroadcaster(func(string, internal.Message[any]) {})
	b.Start("r1", time.Hour)
	b.Start("r2", time.Hour)

	b.StopAll()
	assert.False(t, b.Running("r1"))
	assert.False(t, b.Running("r2"))
}
