package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func register(t *testing.T, h *Hub, user, sessionID string) *Client {
	c := NewClient(h, nil, user, sessionID)
	before := h.ConnectionCount(user)
	h.Register(c)
	require.Eventually(t, func() bool { return h.ConnectionCount(user) == before+1 }, time.Second, 5*time.Millisecond)
	return c
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case raw := <-c.Send:
		var ev Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.Send:
		t.Fatalf("unexpected event: %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_PublishSkipsOriginSession(t *testing.T) {
	h := startHub(t)
	tab1 := register(t, h, "kim", "s1")
	tab2 := register(t, h, "kim", "s2")
	other := register(t, h, "lee", "s3")

	h.Publish("kim", Event{Type: EventDatasetChanged, Dataset: "CLIENTS", Origin: "s1"})

	ev := receive(t, tab2)
	assert.Equal(t, EventDatasetChanged, ev.Type)
	assert.Equal(t, "CLIENTS", ev.Dataset)
	assert.False(t, ev.At.IsZero())
	assertSilent(t, tab1)
	assertSilent(t, other)
}

func TestHub_PublishWithoutOriginReachesAll(t *testing.T) {
	h := startHub(t)
	tab1 := register(t, h, "admin", "s1")
	tab2 := register(t, h, "admin", "s2")

	h.Publish("admin", Event{Type: EventSecurityRevoked})

	assert.Equal(t, EventSecurityRevoked, receive(t, tab1).Type)
	assert.Equal(t, EventSecurityRevoked, receive(t, tab2).Type)
}

func TestHub_Unregister(t *testing.T) {
	h := startHub(t)
	c := register(t, h, "kim", "s1")
	assert.True(t, h.IsUserOnline("kim"))

	h.Unregister(c)
	require.Eventually(t, func() bool { return !h.IsUserOnline("kim") }, time.Second, 5*time.Millisecond)

	_, ok := <-c.Send
	assert.False(t, ok)
}

func TestHub_HandleClientMessage(t *testing.T) {
	h := NewHub()
	var got []string
	h.OnRevalidate(func(sessionID string) { got = append(got, sessionID) })
	c := NewClient(h, nil, "admin", "s1")

	tests := []struct {
		name    string
		message string
	}{
		{name: "revalidate", message: `{"type":"revalidate"}`},
		{name: "malformed", message: `{`},
		{name: "unknown type", message: `{"type":"typing"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.HandleClientMessage(c, []byte(tt.message))
		})
	}
	assert.Equal(t, []string{"s1"}, got)

	h.HandleClientMessage(c, []byte(`{"type":"ping"}`))
	assert.Equal(t, "pong", receive(t, c).Type)
}

func TestHub_RateLimit(t *testing.T) {
	h := NewHub()
	calls := 0
	h.OnRevalidate(func(string) { calls++ })
	c := NewClient(h, nil, "admin", "s1")

	for i := 0; i < maxMessagesPerSecond+5; i++ {
		h.HandleClientMessage(c, []byte(`{"type":"revalidate"}`))
	}
	assert.Equal(t, maxMessagesPerSecond, calls)
}
