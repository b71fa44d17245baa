package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

func dialHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, err := websocket.Dial(url, "", srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f Frame
	require.NoError(t, json.NewDecoder(conn).Decode(&f))
	return f
}

func waitClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("client count never reached %d (have %d)", want, h.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_HandshakeAndEmit(t *testing.T) {
	t.Parallel()
	h := NewHub(zap.NewNop())
	conn := dialHub(t, h)

	hello := readFrame(t, conn)
	require.Equal(t, EventConnected, hello.Event)

	waitClients(t, h, 1)
	h.Emit(EventDetectionUpdate, map[string]any{"count": 1})

	f := readFrame(t, conn)
	require.Equal(t, EventDetectionUpdate, f.Event)
	data, ok := f.Data.(map[string]any)
	require.True(t, ok)
	require.EqualValues(t, 1, data["count"])
}

func TestHub_FanOutToAllObservers(t *testing.T) {
	t.Parallel()
	h := NewHub(zap.NewNop())
	a := dialHub(t, h)
	b := dialHub(t, h)
	readFrame(t, a) // handshakes
	readFrame(t, b)
	waitClients(t, h, 2)

	h.Emit(EventCreditUpdate, map[string]any{"credits": 42})

	for _, conn := range []*websocket.Conn{a, b} {
		f := readFrame(t, conn)
		require.Equal(t, EventCreditUpdate, f.Event)
	}
}

func TestHub_DisconnectPrunesPeer(t *testing.T) {
	t.Parallel()
	h := NewHub(zap.NewNop())
	conn := dialHub(t, h)
	readFrame(t, conn)
	waitClients(t, h, 1)

	require.NoError(t, conn.Close())
	waitClients(t, h, 0)

	// Emitting into an empty hub must not block or panic.
	h.Emit(EventAlert, "bin on fire")
}

func TestHub_EmitWithoutObserversIsNoop(t *testing.T) {
	t.Parallel()
	h := NewHub(zap.NewNop())
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			h.Emit(EventSystemStatus, i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked with no observers")
	}
}
