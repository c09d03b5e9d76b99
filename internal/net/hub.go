package net

import (
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"DesignStudio/internal/logging"
	"DesignStudio/internal/render"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 8
)

// Source is the live design the stream serves.
type Source interface {
	Name() string
	ExportJSON() ([]byte, error)
	Render(multiplier float64) (*image.RGBA, error)
}

// Message is what viewers receive: a full document whenever it changes.
type Message struct {
	Type     string          `json:"type"`
	Name     string          `json:"name"`
	Sequence uint64          `json:"seq"`
	Document json.RawMessage `json:"document"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans document updates out to websocket viewers. Viewers are
// read-only; anything they send is discarded.
type Hub struct {
	src      Source
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]bool
	last    []byte
	seq     uint64

	dirty chan struct{}
}

func NewHub(src Source) *Hub {
	return &Hub{
		src:      src,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		clients:  make(map[*client]bool),
		dirty:    make(chan struct{}, 1),
	}
}

// Notify marks the document changed. Bursts of calls coalesce into one
// broadcast. It never blocks, so it can be a session watcher.
func (h *Hub) Notify() {
	select {
	case h.dirty <- struct{}{}:
	default:
	}
}

// Run publishes the document after every Notify until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	h.publish()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-h.dirty:
			h.publish()
		}
	}
}

func (h *Hub) publish() {
	doc, err := h.src.ExportJSON()
	if err != nil {
		logging.For("net").Error("export for stream failed", "err", err)
		return
	}
	h.mu.Lock()
	h.seq++
	msg, err := json.Marshal(Message{Type: "document", Name: h.src.Name(), Sequence: h.seq, Document: doc})
	if err != nil {
		h.mu.Unlock()
		logging.For("net").Error("encode stream message failed", "err", err)
		return
	}
	h.last = msg
	h.mu.Unlock()
	h.Broadcast(msg)
}

// add registers c and queues the latest document for it.
func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last != nil {
		c.send <- h.last
	}
	h.clients[c] = true
	logging.For("net").Info("viewer connected", "addr", c.conn.RemoteAddr().String(), "viewers", len(h.clients))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	close(c.send)
	logging.For("net").Info("viewer disconnected", "addr", c.conn.RemoteAddr().String(), "viewers", len(h.clients))
}

// Broadcast queues data for every viewer. A viewer whose queue is full is
// dropped.
func (h *Hub) Broadcast(data []byte) {
	h.mu.RLock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range slow {
		logging.For("net").Warn("dropping slow viewer", "addr", c.conn.RemoteAddr().String())
		h.remove(c)
	}
}

// Viewers is the number of connected viewers.
func (h *Hub) Viewers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// ServeWS upgrades the request and streams documents to the viewer,
// starting with the latest one.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.For("net").Warn("websocket upgrade failed", "err", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.add(c)
	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) readLoop(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServePreview renders the canvas as PNG. An optional w/h query bounds
// the image size.
func (h *Hub) ServePreview(w http.ResponseWriter, r *http.Request) {
	img, err := h.src.Render(1)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	maxW, _ := strconv.Atoi(r.URL.Query().Get("w"))
	maxH, _ := strconv.Atoi(r.URL.Query().Get("h"))
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, render.Fit(img, maxW, maxH)); err != nil {
		logging.For("net").Warn("preview write failed", "err", err)
	}
}

func (h *Hub) ServeDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.src.ExportJSON()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(doc)
}

// Handler routes the stream endpoints.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", h.ServeWS)
	mux.HandleFunc("GET /preview.png", h.ServePreview)
	mux.HandleFunc("GET /document.json", h.ServeDocument)
	return mux
}
