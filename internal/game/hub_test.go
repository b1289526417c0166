package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(hub *Hub, id string) *Client {
	return newClient(id, hub, nil, nil, 0)
}

func drain(c *Client) []string {
	var out []string
	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, string(frame))
		default:
			return out
		}
	}
}

func TestHub_SendToAndAll(t *testing.T) {
	hub := NewHub()
	a, b := testClient(hub, "a"), testClient(hub, "b")
	hub.Register(a)
	hub.Register(b)
	require.Equal(t, 2, hub.Count())

	hub.SendTo([]string{"a", "ghost"}, []byte("one"), false)
	hub.SendAll([]byte("two"))

	assert.Equal(t, []string{"one", "two"}, drain(a))
	assert.Equal(t, []string{"two"}, drain(b))
}

func TestHub_UnregisterOnlySameClient(t *testing.T) {
	hub := NewHub()
	old := testClient(hub, "a")
	hub.Register(old)
	fresh := testClient(hub, "a")
	hub.Register(fresh)

	hub.Unregister(old)
	assert.Equal(t, 1, hub.Count())

	hub.Unregister(fresh)
	assert.Equal(t, 0, hub.Count())
}

func TestClient_FullBufferPolicy(t *testing.T) {
	hub := NewHub()
	c := testClient(hub, "a")

	for i := 0; i < sendBufferSize; i++ {
		require.True(t, c.trySend([]byte("x"), false))
	}

	assert.False(t, c.trySend([]byte("tick"), true))
	assert.False(t, c.closed, "volatile overflow keeps the client")

	assert.False(t, c.trySend([]byte("results"), false))
	assert.True(t, c.closed, "reliable overflow closes the client")
	assert.Error(t, c.ctx.Err())

	assert.False(t, c.trySend([]byte("late"), false))
	c.Close()
}

func TestHub_CloseAll(t *testing.T) {
	hub := NewHub()
	a := testClient(hub, "a")
	hub.Register(a)

	hub.CloseAll()
	_, ok := <-a.send
	assert.False(t, ok)
	assert.False(t, a.trySend([]byte("x"), false))
}
