package game

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/speedboard/internal"
)

func TestThrottle(t *testing.T) {
	th := NewThrottle(time.Hour)
	assert.True(t, th.Allow("A"))
	assert.False(t, th.Allow("A"))
	assert.True(t, th.Allow("B"))

	th.Forget("A")
	assert.True(t, th.Allow("A"))

	open := NewThrottle(0)
	for i := 0; i < 5; i++ {
		assert.True(t, open.Allow("A"))
	}
}

func TestController_ActionRelay(t *testing.T) {
	f := newFixture(t, readySettings(1))
	require.True(t, f.ctrl.Join("A", "r1", internal.MemberInfo{}))
	require.True(t, f.ctrl.Join("B", "r1", internal.MemberInfo{}))
	f.rec.reset()

	ok := f.ctrl.Action("A", internal.ActionRequest{
		RoomID: "r1", TS: 42, Type: "tap", Data: json.RawMessage(`{"x":1}`),
	})
	require.True(t, ok)

	relayed := f.rec.ofType(internal.EventActionBroadcast)
	require.Len(t, relayed, 1)
	assert.Equal(t, []string{"B"}, relayed[0].to)
	data := dataOf[internal.ActionBroadcastData](t, relayed[0])
	assert.Equal(t, "A", data.From)
	assert.Equal(t, "tap", data.Type)
	assert.JSONEq(t, `{"x":1}`, string(data.Data))

	acks := f.rec.to("A", internal.EventActionResult)
	require.Len(t, acks, 1)
	ack := dataOf[internal.ActionResultData](t, acks[0])
	assert.True(t, ack.OK)
	assert.Equal(t, int64(42), ack.TS)
}

func TestController_ActionThrottledAndNonMember(t *testing.T) {
	rec := &recorder{}
	ctrl := NewController(NewRegistry(4), rec, downStore{}, downStore{}, Options{ActionThrottle: time.Hour})
	t.Cleanup(ctrl.Shutdown)
	require.True(t, ctrl.Join("A", "r1", internal.MemberInfo{}))
	rec.reset()

	require.True(t, ctrl.Action("A", internal.ActionRequest{RoomID: "r1", TS: 1}))
	assert.False(t, ctrl.Action("A", internal.ActionRequest{RoomID: "r1", TS: 2}))

	acks := rec.to("A", internal.EventActionResult)
	require.Len(t, acks, 2)
	throttled := dataOf[internal.ActionResultData](t, acks[1])
	assert.False(t, throttled.OK)
	assert.Equal(t, "throttled", throttled.Reason)

	assert.False(t, ctrl.Action("X", internal.ActionRequest{RoomID: "r1", TS: 3}))
	rejected := dataOf[internal.ActionResultData](t, rec.to("X", internal.EventActionResult)[0])
	assert.Equal(t, "not_in_room", rejected.Reason)
	assert.Len(t, rec.ofType(internal.EventActionBroadcast), 0)
}

func TestController_Chat(t *testing.T) {
	f := newFixture(t, readySettings(1))
	require.True(t, f.ctrl.Join("A", "r1", internal.MemberInfo{Nickname: "Ann"}))
	require.True(t, f.ctrl.Join("B", "r1", internal.MemberInfo{}))
	f.rec.reset()

	require.True(t, f.ctrl.Chat("A", internal.ChatRequest{RoomID: "r1", Text: "  hi\x00 there  ", TS: 9}))

	msgs := f.rec.ofType(internal.EventChatMessage)
	require.Len(t, msgs, 1)
	assert.ElementsMatch(t, []string{"A", "B"}, msgs[0].to)
	data := dataOf[internal.ChatMessageData](t, msgs[0])
	assert.Equal(t, "hi there", data.Text)
	assert.Equal(t, "Ann", data.Nickname)
	assert.Equal(t, "A", data.SenderID)
	assert.Equal(t, int64(9), data.TS)
}

func TestController_ChatDrops(t *testing.T) {
	rec := &recorder{}
	ctrl := NewController(NewRegistry(4), rec, downStore{}, downStore{}, Options{ChatThrottle: time.Nanosecond})
	t.Cleanup(ctrl.Shutdown)
	require.True(t, ctrl.Join("A", "r1", internal.MemberInfo{}))
	rec.reset()

	assert.False(t, ctrl.Chat("A", internal.ChatRequest{RoomID: "r1", Text: " \n "}))
	assert.False(t, ctrl.Chat("X", internal.ChatRequest{RoomID: "r1", Text: "hello"}))
	assert.Empty(t, rec.ofType(internal.EventChatMessage))

	time.Sleep(time.Millisecond)
	require.True(t, ctrl.Chat("A", internal.ChatRequest{RoomID: "r1", Emoji: "🔥"}))
	time.Sleep(time.Millisecond)
	require.True(t, ctrl.Chat("A", internal.ChatRequest{RoomID: "r1", Text: strings.Repeat("x", 500)}))

	msgs := rec.ofType(internal.EventChatMessage)
	require.Len(t, msgs, 2)
	assert.Equal(t, "🔥", dataOf[internal.ChatMessageData](t, msgs[0]).Emoji)
	assert.Len(t, dataOf[internal.ChatMessageData](t, msgs[1]).Text, internal.MaxChatLength)
}

func TestController_ChatThrottled(t *testing.T) {
	rec := &recorder{}
	ctrl := NewController(NewRegistry(4), rec, downStore{}, downStore{}, Options{ChatThrottle: time.Hour})
	t.Cleanup(ctrl.Shutdown)
	require.True(t, ctrl.Join("A", "r1", internal.MemberInfo{}))

	assert.True(t, ctrl.Chat("A", internal.ChatRequest{RoomID: "r1", Text: "one"}))
	assert.False(t, ctrl.Chat("A", internal.ChatRequest{RoomID: "r1", Text: "two"}))
}

func TestController_Ping(t *testing.T) {
	f := newFixture(t, readySettings(1))
	now := time.UnixMilli(10_000)
	f.ctrl.now = func() time.Time { return now }

	f.ctrl.Ping("A", 9_750)
	pongs := f.rec.to("A", internal.EventPong)
	require.Len(t, pongs, 1)
	assert.False(t, pongs[0].volatile, "pong is a direct reply and never dropped")
	pong := dataOf[internal.PongData](t, pongs[0])
	assert.Equal(t, int64(9_750), pong.TS)
	assert.Equal(t, int64(250), pong.RttMs)
}
