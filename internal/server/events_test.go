package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func readEvent(t *testing.T, conn *websocket.Conn) configEvent {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	var evt configEvent
	if err := json.Unmarshal(b, &evt); err != nil {
		t.Fatalf("decode event %q: %v", b, err)
	}
	return evt
}

func TestEvents_PushesConfigUpdated(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.srv.Warm(context.Background())
	httpSrv := httptest.NewServer(ts.engine)
	defer httpSrv.Close()

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	hello := readEvent(t, conn)
	if hello.Type != "hello" || hello.Generation != 1 || hello.Source != "empty" {
		t.Fatalf("unexpected hello %+v", hello)
	}

	deadline := time.Now().Add(5 * time.Second)
	for ts.srv.hub.subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, err := ts.srv.SetConfig(context.Background(), exampleDoc); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	evt := readEvent(t, conn)
	if evt.Type != "config_updated" || evt.Generation != 2 || evt.Source != "store:memory" {
		t.Fatalf("unexpected event %+v", evt)
	}
}

func TestEventHub_CloseDisconnectsSubscribers(t *testing.T) {
	h := newEventHub()
	c := h.subscribe()
	if h.subscribers() != 1 {
		t.Fatalf("subscribers=%d", h.subscribers())
	}
	_ = h.Close()
	if _, ok := <-c.send; ok {
		t.Fatalf("send channel should be closed")
	}
	late := h.subscribe()
	if _, ok := <-late.send; ok {
		t.Fatalf("subscribing to a closed hub should yield a closed channel")
	}
	h.unsubscribe(c)
}

func TestEventHub_SlowSubscriberDropsEvents(t *testing.T) {
	h := newEventHub()
	defer func() { _ = h.Close() }()
	c := h.subscribe()
	for i := 0; i < eventsWSQueueSize*2; i++ {
		h.publish(configEvent{Type: "config_updated", Generation: uint64(i)})
	}
	if got := len(c.send); got != eventsWSQueueSize {
		t.Fatalf("queued=%d, want %d", got, eventsWSQueueSize)
	}
}
