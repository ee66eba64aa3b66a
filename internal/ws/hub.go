package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"

	"github.com/coreman2200/ledmatrix/internal/control"
	diag "github.com/coreman2200/ledmatrix/internal/diagnostics"
	"github.com/coreman2200/ledmatrix/internal/layout"
)

const (
	writeWait      = 200 * time.Millisecond
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 64 << 10
)

// Stats is what /health reports about the frame loop.
type Stats interface {
	Frames() uint64
	SubmitErrors() uint64
	Uptime() time.Duration
	FPS() int
}

// Hub owns the websocket clients. Control clients send commands and receive
// the full state snapshot after every accepted command; diag clients receive
// a diagnostic for every rejected one.
type Hub struct {
	handler *control.Handler
	stats   Stats
	layout  layout.Layout

	upgrader websocket.Upgrader

	// seq orders apply+broadcast so every client sees snapshots in the order
	// the commands were applied.
	seq sync.Mutex

	mu          sync.RWMutex
	clients     map[uint64]*client
	diagClients map[uint64]*client

	nextID   atomic.Uint64
	rejected atomic.Uint64
}

type client struct {
	id   uint64
	conn *websocket.Conn
	mu   sync.Mutex
}

// write sends a message guarded by the client's mutex and write deadline.
func (c *client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

func NewHub(h *control.Handler, stats Stats, l layout.Layout) *Hub {
	return &Hub{
		handler:     h,
		stats:       stats,
		layout:      l,
		upgrader:    websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:     map[uint64]*client{},
		diagClients: map[uint64]*client{},
	}
}

func (h *Hub) upgrade(w http.ResponseWriter, r *http.Request) (*client, bool) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return nil, false
	}
	return &client{id: h.nextID.Inc(), conn: conn}, true
}

// HandleControlWS serves a control client. The current snapshot is sent on
// connect so a late joiner does not wait for the next change.
func (h *Hub) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	c, ok := h.upgrade(w, r)
	if !ok {
		return
	}
	h.seq.Lock()
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	if snap, err := h.handler.Snapshot(); err == nil {
		_ = c.write(websocket.TextMessage, snap)
	}
	h.seq.Unlock()
	log.Info().Uint64("client", c.id).Str("remote", r.RemoteAddr).Msg("control client connected")

	done := make(chan struct{})
	go h.keepalive(c, done)
	defer func() {
		close(done)
		h.drop(c)
		log.Info().Uint64("client", c.id).Msg("control client disconnected")
	}()

	h.readLoop(c, func(msg []byte) {
		h.seq.Lock()
		snap, err := h.handler.Handle(msg)
		if err == nil {
			h.Broadcast(snap)
		}
		h.seq.Unlock()
		if err != nil {
			h.rejected.Inc()
			h.pushDiag(diag.Rejected(control.Kind(err), c.id, err, msg))
		}
	})
}

// HandleDiagWS streams diagnostics. Anything the client sends is ignored.
func (h *Hub) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	c, ok := h.upgrade(w, r)
	if !ok {
		return
	}
	h.mu.Lock()
	h.diagClients[c.id] = c
	h.mu.Unlock()
	if b, err := json.Marshal(diag.Diagnostic{
		Time: time.Now(), Severity: diag.Info, Code: "DIAG.CONNECTED", Summary: "diagnostics stream open", Client: c.id,
	}); err == nil {
		_ = c.write(websocket.TextMessage, b)
	}

	done := make(chan struct{})
	go h.keepalive(c, done)
	defer func() {
		close(done)
		h.drop(c)
	}()
	h.readLoop(c, func([]byte) {})
}

func (h *Hub) readLoop(c *client, onText func([]byte)) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Uint64("client", c.id).Msg("read")
			}
			return
		}
		if mt == websocket.TextMessage {
			onText(data)
		}
	}
}

func (h *Hub) keepalive(c *client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	delete(h.diagClients, c.id)
	h.mu.Unlock()
	_ = c.conn.Close()
}

// Broadcast sends b to every control client. Clients that cannot keep up
// within the write deadline are disconnected.
func (h *Hub) Broadcast(b []byte) {
	for _, c := range h.snapshotClients(h.clients) {
		if err := c.write(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Uint64("client", c.id).Msg("write snapshot")
			h.drop(c)
		}
	}
}

func (h *Hub) pushDiag(d diag.Diagnostic) {
	b, err := json.Marshal(d)
	if err != nil {
		return
	}
	for _, c := range h.snapshotClients(h.diagClients) {
		if err := c.write(websocket.TextMessage, b); err != nil {
			h.drop(c)
		}
	}
}

func (h *Hub) snapshotClients(m map[uint64]*client) []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*client, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"frame_id":      h.stats.Frames(),
		"submit_errors": h.stats.SubmitErrors(),
		"uptime_s":      h.stats.Uptime().Seconds(),
		"width":         h.layout.Width,
		"height":        h.layout.Height,
		"count":         h.layout.Count(),
		"fps":           h.stats.FPS(),
		"clients":       h.ClientCount(),
		"rejected":      h.rejected.Load(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	all := make([]*client, 0, len(h.clients)+len(h.diagClients))
	for _, c := range h.clients {
		all = append(all, c)
	}
	for _, c := range h.diagClients {
		all = append(all, c)
	}
	h.clients = map[uint64]*client{}
	h.diagClients = map[uint64]*client{}
	h.mu.Unlock()
	for _, c := range all {
		_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		_ = c.conn.Close()
	}
}
