package observer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/swarmnav/internal/game/events"
	"github.com/mitchelldurbincs/swarmnav/internal/testutil"
)

func startServer(t *testing.T, state StateFunc) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(state, testutil.NopLogger())
	mux := http.NewServeMux()
	s.Routes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestServer_StreamsEvents(t *testing.T) {
	s, ts := startServer(t, nil)
	bus := events.NewEventBus()
	bus.Subscribe(s)

	conn := dial(t, ts)
	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 5*time.Millisecond)

	bus.Publish(events.NewTurnEndedEvent("m1", 4, []events.TeamStats{{Team: 0, ResolvedTiles: 12}}, time.Millisecond))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, events.TypeTurnEnded, msg.Type)
	assert.Equal(t, "m1", msg.MatchID)

	var ended events.TurnEndedEvent
	require.NoError(t, json.Unmarshal(msg.Event, &ended))
	assert.Equal(t, 4, ended.TurnNumber)
	require.Len(t, ended.Teams, 1)
	assert.Equal(t, 12, ended.Teams[0].ResolvedTiles)
}

func TestServer_ClientDisconnectUnregisters(t *testing.T) {
	s, ts := startServer(t, nil)
	conn := dial(t, ts)
	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return s.Clients() == 0 }, 2*time.Second, 5*time.Millisecond)

	// Broadcasting with nobody listening is a no-op.
	s.HandleEvent(events.NewTurnStartedEvent("m1", 1))
	assert.Zero(t, s.Dropped())
}

func TestServer_SlowClientDropsMessages(t *testing.T) {
	s, _ := startServer(t, nil)
	c, ok := s.register()
	require.True(t, ok)

	for i := 0; i < clientBuffer+5; i++ {
		s.HandleEvent(events.NewTurnStartedEvent("m1", i))
	}
	assert.Equal(t, int64(5), s.Dropped())
	assert.Len(t, c.out, clientBuffer)

	s.Close()
	assert.Zero(t, s.Clients())
	_, ok = s.register()
	assert.False(t, ok, "closed server refuses clients")
}

func TestServer_State(t *testing.T) {
	_, ts := startServer(t, func() any { return map[string]int{"turn": 9} })

	resp, err := http.Get(ts.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 9, got["turn"])

	post, err := http.Post(ts.URL+"/state", "application/json", nil)
	require.NoError(t, err)
	post.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, post.StatusCode)

	_, empty := startServer(t, nil)
	resp2, err := http.Get(empty.URL + "/state")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp2.StatusCode)
}
