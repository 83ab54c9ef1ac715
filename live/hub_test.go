package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := NewHub(nil)
	go h.Run(ctx)
	return h
}

func TestPublish_ReachesOnlyItsRoom(t *testing.T) {
	h := startHub(t)

	cl := NewClient(h, nil, RoomForCompetition("champions-league"))
	el := NewClient(h, nil, RoomForCompetition("europa-league"))
	h.Register <- cl
	h.Register <- el
	require.Eventually(t, func() bool {
		return h.RoomSize(cl.Room) == 1 && h.RoomSize(el.Room) == 1
	}, time.Second, 5*time.Millisecond)

	h.Publish("champions-league", EventDrawStarted, map[string]int64{"seed": 7})

	select {
	case raw := <-cl.Send:
		var msg struct {
			Type    EventType        `json:"type"`
			Payload map[string]int64 `json:"payload"`
			RoomID  string           `json:"room_id"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, EventDrawStarted, msg.Type)
		assert.Equal(t, int64(7), msg.Payload["seed"])
		assert.Equal(t, "competition_champions-league", msg.RoomID)
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}

	assert.Empty(t, el.Send)
}

func TestUnregister_ClosesClient(t *testing.T) {
	h := startHub(t)
	c := NewClient(h, nil, RoomForCompetition("conference-league"))
	h.Register <- c
	require.Eventually(t, func() bool { return h.RoomSize(c.Room) == 1 }, time.Second, 5*time.Millisecond)

	h.Unregister <- c
	require.Eventually(t, func() bool { return h.RoomSize(c.Room) == 0 }, time.Second, 5*time.Millisecond)

	_, open := <-c.Send
	assert.False(t, open)

	// publishing to an empty room is a no-op
	h.Publish("conference-league", EventDrawFailed, nil)
}

func TestWebsocketClientReceivesEvents(t *testing.T) {
	h := startHub(t)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(h, conn, RoomForCompetition("champions-league"))
		if !h.Join(c) {
			conn.Close()
			return
		}
		go c.WritePump()
		go c.ReadPump()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	room := RoomForCompetition("champions-league")
	require.Eventually(t, func() bool { return h.RoomSize(room) == 1 }, time.Second, 5*time.Millisecond)

	h.Publish("champions-league", EventFixturesReady, map[string]int{"rounds": 8})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, EventFixturesReady, msg.Type)
	assert.Equal(t, room, msg.RoomID)
}
