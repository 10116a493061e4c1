package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/handpet/internal/app"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts snapshots to WebSocket clients. It implements app.Sink.
// Clients that fall behind lose messages rather than slowing the pipeline.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
	last    []byte
	lastSeq uint64
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]bool)}
}

// Publish encodes snap and queues it for every client. Snapshots older
// than the last one published are ignored.
func (h *Hub) Publish(snap app.Snapshot) {
	msg, err := json.Marshal(snap)
	if err != nil {
		log.Printf("Failed to encode snapshot: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last != nil && snap.Seq <= h.lastSeq {
		return
	}
	h.last, h.lastSeq = msg, snap.Seq
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams snapshots, starting with the
// most recent one.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.last != nil {
		c.send <- h.last
	}
	h.clients[c] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
	}()

	// Reads only detect the client closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case msg := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}
