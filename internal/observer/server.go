// Package observer streams match events to websocket clients and serves a
// JSON view of the current match state.
package observer

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/swarmnav/internal/game/events"
)

const (
	writeWait    = 5 * time.Second
	readWait     = 60 * time.Second
	clientBuffer = 64
)

// Message is the envelope every streamed event is wrapped in.
type Message struct {
	Type    string          `json:"type"`
	MatchID string          `json:"match_id"`
	Event   json.RawMessage `json:"event"`
}

// StateFunc returns the value served by the state endpoint.
type StateFunc func() any

type client struct {
	id  string
	out chan []byte
}

// Server is an events.Subscriber that fans every event out to connected
// websocket clients. A client that cannot keep up misses messages rather
// than stalling the match.
type Server struct {
	state  StateFunc
	logger zerolog.Logger

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
	closed  bool

	sent    atomic.Int64
	dropped atomic.Int64
}

func NewServer(state StateFunc, logger zerolog.Logger) *Server {
	return &Server{
		state:  state,
		logger: logger.With().Str("component", "observer").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

func (s *Server) ID() string { return "observer" }

func (s *Server) InterestedIn(eventType string) bool { return true }

func (s *Server) HandleEvent(event events.Event) {
	body, err := json.Marshal(event)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", event.Type()).Msg("Failed to encode event")
		return
	}
	msg, err := json.Marshal(Message{Type: event.Type(), MatchID: event.MatchID(), Event: body})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode envelope")
		return
	}
	s.broadcast(msg)
}

func (s *Server) broadcast(msg []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		select {
		case c.out <- msg:
			s.sent.Add(1)
		default:
			s.dropped.Add(1)
		}
	}
}

// Clients is the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Dropped counts messages skipped for slow clients.
func (s *Server) Dropped() int64 { return s.dropped.Load() }

func (s *Server) register() (*client, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false
	}
	c := &client{id: uuid.NewString(), out: make(chan []byte, clientBuffer)}
	s.clients[c.id] = c
	return c, true
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.id]; ok {
		delete(s.clients, c.id)
		close(c.out)
	}
}

// Close disconnects every client and refuses new ones.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, c := range s.clients {
		delete(s.clients, id)
		close(c.out)
	}
}

// Routes mounts the websocket stream at /ws and the state view at /state.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.WSHandler())
	mux.HandleFunc("/state", s.StateHandler())
}

func (s *Server) StateHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if s.state == nil {
			http.Error(rw, "no match state", http.StatusServiceUnavailable)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(rw).Encode(s.state()); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to write state")
		}
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c, ok := s.register()
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "observer closed"), time.Now().Add(time.Second))
			return
		}
		defer s.unregister(c)
		s.logger.Debug().Str("client_id", c.id).Str("remote", r.RemoteAddr).Msg("Observer connected")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Reader: only detects the client going away.
		go func() {
			defer cancel()
			for {
				_ = conn.SetReadDeadline(time.Now().Add(readWait))
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-c.out:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}
	}
}
