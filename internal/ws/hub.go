// Package ws implements the best-effort broadcast channel for dashboards.
package ws

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/websocket"

	"github.com/ecosort/smartbin/internal/metrics"
)

// Event names pushed to observers.
const (
	EventConnected       = "connected"
	EventDetectionUpdate = "detectionUpdate"
	EventBinStatus       = "binStatus"
	EventSystemStatus    = "systemStatus"
	EventAlert           = "alert"
	EventCreditUpdate    = "creditUpdate"
)

// Frame is a single message pushed to an observer.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// peerBuffer bounds how many undelivered frames a slow observer may hold
// before further frames are dropped for it.
const peerBuffer = 32

type peer struct {
	out chan Frame
}

// Hub tracks connected observers and fans events out to all of them.
// Delivery is at-most-once: no backlog for new connections, no retry, and a
// peer whose buffer is full simply misses the frame.
type Hub struct {
	log *zap.Logger

	mu    sync.Mutex
	peers map[*peer]struct{}
}

// NewHub constructs an empty hub.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{log: log, peers: make(map[*peer]struct{})}
}

// Emit pushes an event to every connected observer without blocking.
func (h *Hub) Emit(event string, data any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for p := range h.peers {
		select {
		case p.out <- Frame{Event: event, Data: data}:
		default:
			// slow observer, drop
		}
	}
}

// ClientCount returns the number of connected observers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// Handler returns the websocket endpoint handler.
func (h *Hub) Handler() http.Handler {
	return websocket.Handler(h.serve)
}

func (h *Hub) serve(conn *websocket.Conn) {
	defer func() { _ = conn.Close() }()

	p := &peer{out: make(chan Frame, peerBuffer)}
	h.mu.Lock()
	h.peers[p] = struct{}{}
	h.mu.Unlock()
	metrics.ConnectedObservers.Inc()
	h.log.Info("observer connected", zap.String("remote", conn.Request().RemoteAddr))

	defer func() {
		h.mu.Lock()
		delete(h.peers, p)
		h.mu.Unlock()
		metrics.ConnectedObservers.Dec()
		h.log.Info("observer disconnected", zap.String("remote", conn.Request().RemoteAddr))
	}()

	enc := json.NewEncoder(conn)

	// One-shot handshake; observers learn everything else from later events.
	handshake := Frame{Event: EventConnected, Data: map[string]any{
		"message":   "Connected to Smart Bin System",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}}
	if err := enc.Encode(handshake); err != nil {
		return
	}

	// Drain inbound traffic only to notice the peer going away.
	closed := make(chan struct{})
	go func() {
		_, _ = io.Copy(io.Discard, conn)
		close(closed)
	}()

	for {
		select {
		case f := <-p.out:
			if err := enc.Encode(f); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
