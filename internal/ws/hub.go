package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	diag "github.com/coreman2200/funtimes-lightserver/internal/diagnostics"
)

const (
	writeWait = 200 * time.Millisecond
	// sendQueue is how many messages a listener may fall behind before
	// new ones are dropped for it.
	sendQueue = 8
)

// client is one websocket listener. Only its writer goroutine writes to conn.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans frames and diagnostics out to websocket listeners. Broadcasts
// never wait on a listener: each has its own queue and writer.
type Hub struct {
	mu          sync.RWMutex
	clients     map[*client]bool
	diagClients map[*client]bool
	up          websocket.Upgrader
	log         zerolog.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients:     map[*client]bool{},
		diagClients: map[*client]bool{},
		up:          websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		log:         log.Logger,
	}
}

// Frame is one message on /ws.
type Frame struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	RGB     []byte `json:"rgb"`
}

func (h *Hub) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.clients)
}

func (h *Hub) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.diagClients)
}

func (h *Hub) serve(w http.ResponseWriter, r *http.Request, set map[*client]bool) {
	conn, err := h.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendQueue)}
	h.add(set, c)
	go h.write(c)
	go func() {
		defer h.remove(set, c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) add(set map[*client]bool, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set[c] = true
}

// remove unregisters c and ends its writer. Removing twice is a no-op.
func (h *Hub) remove(set map[*client]bool, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !set[c] {
		return
	}
	delete(set, c)
	close(c.send)
}

// write drains c's queue until remove closes it or a write fails.
func (h *Hub) write(c *client) {
	defer c.conn.Close()
	for b := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			h.log.Debug().Err(err).Msg("websocket write")
			return
		}
	}
}

// Listeners reports the number of frame and diagnostic listeners.
func (h *Hub) Listeners() (frames, diags int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients), len(h.diagClients)
}

func (h *Hub) BroadcastFrame(id uint64, rgb []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return
	}
	b, _ := json.Marshal(Frame{T: time.Now().UnixNano(), FrameID: id, RGB: rgb})
	h.send(h.clients, b)
}

func (h *Hub) PushDiag(d diag.Diagnostic) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.diagClients) == 0 {
		return
	}
	b, _ := json.Marshal(d)
	h.send(h.diagClients, b)
}

// send queues b for every client in set. Callers hold h.mu.
func (h *Hub) send(set map[*client]bool, b []byte) {
	for c := range set {
		select {
		case c.send <- b:
		default:
			h.log.Debug().Int("queued", len(c.send)).Msg("websocket listener behind, message dropped")
		}
	}
}

// Close disconnects every listener once its queue is written out.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range []map[*client]bool{h.clients, h.diagClients} {
		for c := range set {
			delete(set, c)
			close(c.send)
		}
	}
}
