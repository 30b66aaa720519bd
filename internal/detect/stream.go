package detect

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/HerbHall/minerwatch/pkg/plugin"
)

const (
	streamBuffer       = 32
	streamWriteTimeout = 5 * time.Second
)

// hub fans bus events out to WebSocket clients. A client that falls behind
// loses events rather than blocking the publisher.
type hub struct {
	logger  *zap.Logger
	mu      sync.Mutex
	clients map[*streamClient]struct{}
	closed  bool
}

type streamClient struct {
	events chan plugin.Event
	done   chan struct{}
}

func newHub(logger *zap.Logger) *hub {
	return &hub{logger: logger, clients: make(map[*streamClient]struct{})}
}

func (h *hub) add() (*streamClient, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	c := &streamClient{events: make(chan plugin.Event, streamBuffer), done: make(chan struct{})}
	h.clients[c] = struct{}{}
	return c, true
}

func (h *hub) remove(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.done)
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// handleEvent is the bus subscription for every detect topic.
func (h *hub) handleEvent(_ context.Context, event plugin.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.events <- event:
		default:
			h.logger.Debug("stream client lagging, event dropped", zap.String("topic", event.Topic))
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.done)
	}
}

// handleEvents upgrades to a WebSocket and streams scan events as JSON until
// the client disconnects or the module stops.
func (m *Module) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		m.logger.Debug("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	client, ok := m.hub.add()
	if !ok {
		conn.Close(websocket.StatusGoingAway, "module stopped")
		return
	}
	defer m.hub.remove(client)

	// Clients only listen; CloseRead handles control frames and cancels
	// ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			return
		case <-client.done:
			conn.Close(websocket.StatusGoingAway, "module stopped")
			return
		case event := <-client.events:
			writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
			err := wsjson.Write(writeCtx, conn, event)
			cancel()
			if err != nil {
				m.logger.Debug("stream write failed", zap.Error(err))
				return
			}
		}
	}
}
