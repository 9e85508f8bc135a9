package ws

import (
	"encoding/json"
	"testing"

	"ptc_mining/internal/domain"
)

func testClient(hub *Hub, userID int64, buffer int) *Client {
	return &Client{
		ID:     "test",
		UserID: userID,
		Send:   make(chan []byte, buffer),
		hub:    hub,
	}
}

func TestPushReachesEveryConnection(t *testing.T) {
	hub := NewHub()

	a := testClient(hub, 1, 4)
	b := testClient(hub, 1, 4)
	other := testClient(hub, 2, 4)
	hub.register(a)
	hub.register(b)
	hub.register(other)

	hub.Push(1, domain.Notification{UserID: 1, Title: "Mining Complete"})

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.Send:
			var env pushEnvelope
			if err := json.Unmarshal(msg, &env); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if env.Type != "notification" || env.Notification.Title != "Mining Complete" {
				t.Fatalf("unexpected envelope: %+v", env)
			}
		default:
			t.Fatal("connection did not receive the push")
		}
	}

	select {
	case <-other.Send:
		t.Fatal("push leaked to another user")
	default:
	}
}

func TestPushDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	c := testClient(hub, 1, 1)
	hub.register(c)

	hub.Push(1, domain.Notification{UserID: 1, Title: "first"})
	// second push must not block on the full buffer
	hub.Push(1, domain.Notification{UserID: 1, Title: "second"})

	if len(c.Send) != 1 {
		t.Fatalf("buffered = %d, want 1", len(c.Send))
	}
}

func TestUnregisterRemovesConnection(t *testing.T) {
	hub := NewHub()
	c := testClient(hub, 1, 1)
	hub.register(c)

	if got := hub.Connected(1); got != 1 {
		t.Fatalf("connected = %d, want 1", got)
	}

	hub.unregister(c)
	if got := hub.Connected(1); got != 0 {
		t.Fatalf("connected = %d, want 0", got)
	}

	// pushing to a user with no connections is a no-op
	hub.Push(1, domain.Notification{UserID: 1})
}
