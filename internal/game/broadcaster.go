package game

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scythe504/speedboard/internal"
)

// =============================================================================
// STATE SYNC TIMER
// =============================================================================

// Broadcaster runs one state-sync ticker per room.
type Broadcaster struct {
	mu      sync.Mutex
	running map[string]context.CancelFunc
	states  map[string]*internal.GameState

	emit func(room string, msg internal.Message[any])
	now  func() time.Time
}

// NewBroadcaster builds a broadcaster that hands every tick to emit. emit
// must not block.
func NewBroadcaster(emit func(room string, msg internal.Message[any])) *Broadcaster {
	return &Broadcaster{
		running: make(map[string]context.CancelFunc),
		states:  make(map[string]*internal.GameState),
		emit:    emit,
		now:     time.Now,
	}
}

// Start begins ticking for room. It is a no-op when room is already running.
func (b *Broadcaster) Start(room string, interval time.Duration) bool {
	if interval <= 0 {
		interval = internal.StateTickInterval
	}

	b.mu.Lock()
	if _, ok := b.running[room]; ok {
		b.mu.Unlock()
		return false
	}
	if _, ok := b.states[room]; !ok {
		b.states[room] = &internal.GameState{Round: 1, ScoreBoard: make(map[string]int)}
	}
	ctx, cancel := context.WithCancel(context.Background())
	b.running[room] = cancel
	b.mu.Unlock()

	log.Debug().Str("module", "game.broadcaster").Str("room", room).Dur("interval", interval).Msg("state sync started")

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.tick(ctx, room)
			}
		}
	}()
	return true
}

func (b *Broadcaster) tick(ctx context.Context, room string) {
	b.mu.Lock()
	state, ok := b.states[room]
	if !ok || ctx.Err() != nil {
		b.mu.Unlock()
		return
	}
	snap := state.Clone()
	b.mu.Unlock()

	b.emit(room, message(internal.EventStateSync, internal.StateSyncData{
		TS:    b.now().UnixMilli(),
		State: snap,
	}))
}

// Stop cancels the room's ticker. Safe to call when nothing is running.
func (b *Broadcaster) Stop(room string) {
	b.mu.Lock()
	cancel, ok := b.running[room]
	delete(b.running, room)
	b.mu.Unlock()

	if ok {
		cancel()
		log.Debug().Str("module", "game.broadcaster").Str("room", room).Msg("state sync stopped")
	}
}

// Reset stops the ticker and discards the room's snapshot.
func (b *Broadcaster) Reset(room string) {
	b.Stop(room)
	b.mu.Lock()
	delete(b.states, room)
	b.mu.Unlock()
}

// SetScore records a connection's score in the snapshot, if one exists.
func (b *Broadcaster) SetScore(room, connID string, score int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if state, ok := b.states[room]; ok {
		state.ScoreBoard[connID] = score
	}
}

func (b *Broadcaster) RemoveScore(room, connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if state, ok := b.states[room]; ok {
		delete(state.ScoreBoard, connID)
	}
}

func (b *Broadcaster) Running(room string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.running[room]
	return ok
}

func (b *Broadcaster) Snapshot(room string) (internal.GameState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, ok := b.states[room]
	if !ok {
		return internal.GameState{}, false
	}
	return state.Clone(), true
}

// StopAll cancels every running ticker.
func (b *Broadcaster) StopAll() {
	b.mu.Lock()
	running := b.running
	b.running = make(map[string]context.CancelFunc)
	b.mu.Unlock()

	for _, cancel := range running {
		cancel()
	}
}
