package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	eventsWSWriteWait = 10 * time.Second
	eventsWSPongWait  = 60 * time.Second
	eventsWSPingEvery = (eventsWSPongWait * 9) / 10
	eventsWSQueueSize = 8
)

var eventsWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// configEvent is pushed to every subscriber when the active config changes.
type configEvent struct {
	Type       string `json:"type"`
	Generation uint64 `json:"generation"`
	Source     string `json:"source,omitempty"`
}

type eventClient struct {
	send chan []byte
}

// eventHub fans config events out to websocket subscribers. A subscriber
// that falls behind drops events rather than blocking the publisher.
type eventHub struct {
	mu      sync.Mutex
	clients map[*eventClient]struct{}
	closed  bool
}

func newEventHub() *eventHub {
	return &eventHub{clients: make(map[*eventClient]struct{})}
}

func (h *eventHub) subscribe() *eventClient {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := &eventClient{send: make(chan []byte, eventsWSQueueSize)}
	if h.closed {
		close(c.send)
		return c
	}
	h.clients[c] = struct{}{}
	return c
}

func (h *eventHub) unsubscribe(c *eventClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *eventHub) publish(evt configEvent) {
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
		}
	}
}

func (h *eventHub) subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every subscriber.
func (h *eventHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	return nil
}

// serveWS upgrades the request and streams events until either side hangs up.
func (h *eventHub) serveWS(w http.ResponseWriter, r *http.Request, hello configEvent) {
	conn, err := eventsWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	client := h.subscribe()
	defer h.unsubscribe(client)

	if err := conn.SetReadDeadline(time.Now().Add(eventsWSPongWait)); err != nil {
		log.Printf("events ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventsWSPongWait))
	})

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(msgType int, b []byte) error {
		if err := conn.SetWriteDeadline(time.Now().Add(eventsWSWriteWait)); err != nil {
			return err
		}
		return conn.WriteMessage(msgType, b)
	}

	if b, err := json.Marshal(hello); err == nil {
		if err := write(websocket.TextMessage, b); err != nil {
			return
		}
	}

	ticker := time.NewTicker(eventsWSPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-readerDone:
			return
		case b, ok := <-client.send:
			if !ok {
				_ = write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := write(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
