package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collab/internal/models"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub, cancel
}

func testClient(hub *Hub, boardID int64) *Client {
	return &Client{hub: hub, send: make(chan []byte, 4), pongs: make(chan []byte, 1), boardID: boardID}
}

func receive(t *testing.T, c *Client) (Event, bool) {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		if !ok {
			return Event{}, false
		}
		var ev Event
		require.NoError(t, json.Unmarshal(msg, &ev))
		return ev, true
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}, false
	}
}

func TestHub_DeliversToBoardSubscribersOnly(t *testing.T) {
	hub, _ := startHub(t)
	ctx := context.Background()

	a := testClient(hub, 1)
	b := testClient(hub, 2)
	hub.Register(a)
	hub.Register(b)

	board := &models.KanbanBoard{ID: 1, Version: 3}
	require.NoError(t, hub.Publish(ctx, Event{Type: BoardUpdated, BoardID: 1, Board: board}))

	ev, ok := receive(t, a)
	require.True(t, ok)
	assert.Equal(t, BoardUpdated, ev.Type)
	assert.Equal(t, int64(3), ev.Board.Version)

	select {
	case <-b.send:
		t.Fatal("board 2 subscriber received a board 1 event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub, _ := startHub(t)

	c := testClient(hub, 1)
	hub.Register(c)
	hub.Unregister(c)

	_, ok := receive(t, c)
	assert.False(t, ok)

	// A second unregister is harmless.
	hub.Unregister(c)
}

func TestHub_StopClosesClientsAndRejectsLateRegistrations(t *testing.T) {
	hub, cancel := startHub(t)

	c := testClient(hub, 1)
	hub.Register(c)
	cancel()

	_, ok := receive(t, c)
	assert.False(t, ok)

	late := testClient(hub, 1)
	hub.Register(late)
	_, ok = receive(t, late)
	assert.False(t, ok)
	assert.NoError(t, hub.Publish(context.Background(), Event{BoardID: 1}))
}

func TestHub_DropsSlowClients(t *testing.T) {
	hub, _ := startHub(t)
	ctx := context.Background()

	slow := &Client{hub: hub, send: make(chan []byte, 1), pongs: make(chan []byte, 1), boardID: 1}
	slow.send <- []byte(`{}`)
	fast := testClient(hub, 1)
	hub.Register(slow)
	hub.Register(fast)
	require.NoError(t, hub.Publish(ctx, Event{Type: BoardUpdated, BoardID: 1}))

	_, ok := receive(t, fast)
	require.True(t, ok)
	// Register is only accepted once the broadcast has been handed to every client.
	hub.Register(testClient(hub, 2))

	queued, ok := <-slow.send
	require.True(t, ok)
	assert.Equal(t, `{}`, string(queued))
	select {
	case _, ok := <-slow.send:
		assert.False(t, ok, "full client is dropped and its channel closed")
	case <-time.After(2 * time.Second):
		t.Fatal("slow client was not dropped")
	}

	require.NoError(t, hub.Publish(ctx, Event{Type: BoardUpdated, BoardID: 1}))
	_, ok = receive(t, fast)
	assert.True(t, ok, "other subscribers keep receiving")
}
