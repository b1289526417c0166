package game

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scythe504/speedboard/internal"
	"github.com/scythe504/speedboard/internal/store"
)

func ptr[T any](v T) *T { return &v }

type sent struct {
	to       []string
	all      bool
	volatile bool
	msg      internal.Message[json.RawMessage]
}

func (s sent) reaches(connID string) bool {
	return s.all || slices.Contains(s.to, connID)
}

// recorder is a Sender that keeps every frame for inspection.
type recorder struct {
	mu     sync.Mutex
	frames []sent
}

func (r *recorder) SendTo(connIDs []string, frame []byte, volatile bool) {
	r.record(sent{to: slices.Clone(connIDs), volatile: volatile}, frame)
}

func (r *recorder) SendAll(frame []byte) {
	r.record(sent{all: true}, frame)
}

func (r *recorder) record(s sent, frame []byte) {
	if err := json.Unmarshal(frame, &s.msg); err != nil {
		panic(err)
	}
	r.mu.Lock()
	r.frames = append(r.frames, s)
	r.mu.Unlock()
}

func (r *recorder) all() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.frames)
}

func (r *recorder) ofType(msgType string) []sent {
	var out []sent
	for _, s := range r.all() {
		if s.msg.Type == msgType {
			out = append(out, s)
		}
	}
	return out
}

// to returns the frames of msgType that reached connID.
func (r *recorder) to(connID, msgType string) []sent {
	var out []sent
	for _, s := range r.ofType(msgType) {
		if s.reaches(connID) {
			out = append(out, s)
		}
	}
	return out
}

func (r *recorder) types() []string {
	var out []string
	for _, s := range r.all() {
		out = append(out, s.msg.Type)
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.frames = nil
	r.mu.Unlock()
}

func dataOf[T any](t *testing.T, s sent) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(s.msg.Data, &v))
	return v
}

var errDown = errors.New("collaborator down")

// downStore fails every call.
type downStore struct{}

func (downStore) Read(context.Context) (internal.Settings, error) {
	return internal.Settings{}, errDown
}

func (downStore) Write(context.Context, internal.Settings) (internal.Settings, error) {
	return internal.Settings{}, errDown
}

func (downStore) UpsertSessionScore(context.Context, string, string, string, int) error {
	return errDown
}

func (downStore) SessionRanking(context.Context, string, int, int) ([]store.ScoreRecord, error) {
	return nil, errDown
}

type fixture struct {
	ctrl *Controller
	rec  *recorder
	mem  *store.Memory
}

// newFixture builds a controller on a memory store seeded with settings.
// Ticks are slow so state-sync frames stay out of the way.
func newFixture(t *testing.T, settings internal.Settings) fixture {
	t.Helper()
	mem := store.NewMemory()
	_, err := mem.Write(context.Background(), settings)
	require.NoError(t, err)

	rec := &recorder{}
	ctrl := NewController(NewRegistry(internal.RoomCapacity), rec, mem, mem, Options{TickInterval: time.Hour})
	t.Cleanup(ctrl.Shutdown)
	return fixture{ctrl: ctrl, rec: rec, mem: mem}
}

func readySettings(min int) internal.Settings {
	return internal.Settings{
		MinParticipants: ptr(min),
		SpeedReady:      ptr(true),
		RewardName:      ptr("Coffee"),
	}
}

func info(userID, nickname string, score, round int) internal.MemberInfo {
	return internal.MemberInfo{UserID: userID, Nickname: nickname, Score: ptr(score), Round: ptr(round)}
}

// gatedSettings holds the first Read until release is closed. Later reads
// pass straight through.
type gatedSettings struct {
	*store.Memory
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedSettings(mem *store.Memory) *gatedSettings {
	return &gatedSettings{Memory: mem, entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedSettings) Read(ctx context.Context) (internal.Settings, error) {
	first := false
	g.once.Do(func() {
		first = true
		close(g.entered)
	})
	if first {
		<-g.release
	}
	return g.Memory.Read(ctx)
}

// slowScores delays every upsert and records the context error seen once
// the delay has passed.
type slowScores struct {
	*store.Memory
	delay time.Duration

	mu   sync.Mutex
	errs []error
}

func (s *slowScores) UpsertSessionScore(ctx context.Context, sessionID, userID, displayName string, score int) error {
	time.Sleep(s.delay)
	err := ctx.Err()
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Memory.UpsertSessionScore(ctx, sessionID, userID, displayName, score)
}

func (s *slowScores) seen() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.errs)
}

// within fails the test when fn does not return in d.
func within(t *testing.T, d time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("call did not return within %s", d)
	}
}
