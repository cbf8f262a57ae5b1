package ws

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func newTestClient(userID uint, socketID string) *Client {
	return &Client{UserID: userID, SocketID: socketID, Send: make(chan []byte, 8)}
}

// drain pulls everything buffered on the client's send channel.
func drain(c *Client) []map[string]interface{} {
	var frames []map[string]interface{}
	for {
		select {
		case data := <-c.Send:
			var m map[string]interface{}
			if err := json.Unmarshal(data, &m); err == nil {
				frames = append(frames, m)
			}
		default:
			return frames
		}
	}
}

func TestRegisterCountsSessions(t *testing.T) {
	h := NewHub()
	a1 := newTestClient(1, "a1")
	a2 := newTestClient(1, "a2")

	if got := h.Register(a1); got != 1 {
		t.Fatalf("first session count = %d, want 1", got)
	}
	if got := h.Register(a2); got != 2 {
		t.Fatalf("second session count = %d, want 2", got)
	}
	if got := h.SessionCount(1); got != 2 {
		t.Fatalf("SessionCount = %d, want 2", got)
	}
	if !h.IsOnline(1) {
		t.Fatal("user should be online with two sessions")
	}

	a1.Close()
	if got := h.SessionCount(1); got != 1 {
		t.Fatalf("after one close SessionCount = %d, want 1", got)
	}
	a2.Close()
	if h.IsOnline(1) {
		t.Fatal("user should be offline after all sessions close")
	}
	if got := h.ClientCount(); got != 0 {
		t.Fatalf("ClientCount = %d, want 0", got)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	h := NewHub()
	c := newTestClient(1, "s")
	h.Register(c)
	c.Close()
	c.Close() // must not panic on the closed channel
	if h.SessionCount(1) != 0 {
		t.Fatal("session should be gone")
	}
}

func TestBroadcastToUserHitsAllSessions(t *testing.T) {
	h := NewHub()
	a1 := newTestClient(1, "a1")
	a2 := newTestClient(1, "a2")
	b := newTestClient(2, "b")
	h.Register(a1)
	h.Register(a2)
	h.Register(b)

	h.BroadcastToUser(1, map[string]interface{}{"type": "ping"})

	if got := len(drain(a1)); got != 1 {
		t.Fatalf("session a1 got %d frames, want 1", got)
	}
	if got := len(drain(a2)); got != 1 {
		t.Fatalf("session a2 got %d frames, want 1", got)
	}
	if got := len(drain(b)); got != 0 {
		t.Fatalf("other user got %d frames, want 0", got)
	}
}

func TestRoomBroadcastOnlyReachesMembers(t *testing.T) {
	h := NewHub()
	a := newTestClient(1, "a")
	b := newTestClient(2, "b")
	c := newTestClient(3, "c")
	h.Register(a)
	h.Register(b)
	h.Register(c)

	room := RoomName(1, 2)
	h.JoinRoom(room, a)
	h.JoinRoom(room, b)

	h.BroadcastToRoom(room, map[string]interface{}{"type": "new_message"})

	if len(drain(a)) != 1 || len(drain(b)) != 1 {
		t.Fatal("both room members should receive the frame")
	}
	if len(drain(c)) != 0 {
		t.Fatal("non-member should receive nothing")
	}
}

func TestBroadcastToRoomExceptSkipsAllSessionsOfUser(t *testing.T) {
	h := NewHub()
	a1 := newTestClient(1, "a1")
	a2 := newTestClient(1, "a2")
	b := newTestClient(2, "b")
	h.Register(a1)
	h.Register(a2)
	h.Register(b)

	room := RoomName(1, 2)
	h.JoinRoom(room, a1)
	h.JoinRoom(room, a2)
	h.JoinRoom(room, b)

	h.BroadcastToRoomExcept(room, 1, map[string]interface{}{"type": "user_typing"})

	if len(drain(a1)) != 0 || len(drain(a2)) != 0 {
		t.Fatal("the excluded user's sessions must not receive the frame")
	}
	if len(drain(b)) != 1 {
		t.Fatal("the other member should receive the frame")
	}
}

func TestLeaveRoomStopsDelivery(t *testing.T) {
	h := NewHub()
	a := newTestClient(1, "a")
	b := newTestClient(2, "b")
	h.Register(a)
	h.Register(b)

	room := RoomName(1, 2)
	h.JoinRoom(room, a)
	h.JoinRoom(room, b)
	h.LeaveRoom(room, b)

	h.BroadcastToRoom(room, map[string]interface{}{"type": "new_message"})

	if len(drain(a)) != 1 {
		t.Fatal("remaining member should still receive")
	}
	if len(drain(b)) != 0 {
		t.Fatal("departed member should not receive")
	}
}

func TestCloseRemovesFromRooms(t *testing.T) {
	h := NewHub()
	a := newTestClient(1, "a")
	b := newTestClient(2, "b")
	h.Register(a)
	h.Register(b)

	room := RoomName(1, 2)
	h.JoinRoom(room, a)
	h.JoinRoom(room, b)
	a.Close()

	// a closed session's channel is closed; delivery to it would panic if the
	// hub still tracked it
	h.BroadcastToRoom(room, map[string]interface{}{"type": "new_message"})
	if len(drain(b)) != 1 {
		t.Fatal("surviving member should still receive")
	}
}

func TestJoinRoomIgnoresUnregisteredClient(t *testing.T) {
	h := NewHub()
	c := newTestClient(1, "c")
	h.JoinRoom(RoomName(1, 2), c)
	h.BroadcastToRoom(RoomName(1, 2), map[string]interface{}{"type": "x"})
	if len(drain(c)) != 0 {
		t.Fatal("unregistered client must not be joined to rooms")
	}
}

func TestBroadcastAllExcept(t *testing.T) {
	h := NewHub()
	a := newTestClient(1, "a")
	b := newTestClient(2, "b")
	c := newTestClient(3, "c")
	h.Register(a)
	h.Register(b)
	h.Register(c)

	h.BroadcastAllExcept(2, map[string]interface{}{"type": "user_online", "user_id": 2})

	if len(drain(a)) != 1 || len(drain(c)) != 1 {
		t.Fatal("other users should be announced to")
	}
	if len(drain(b)) != 0 {
		t.Fatal("the subject of the announcement should not hear it")
	}
}

func TestBroadcastRacingCloseDoesNotPanic(t *testing.T) {
	h := NewHub()
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				h.BroadcastToUser(1, map[string]interface{}{"type": "ping"})
				h.BroadcastAll(map[string]interface{}{"type": "ping"})
			}
		}()
	}

	// a broadcaster holding a snapshot of this client must tolerate the send
	// channel closing under it
	for i := 0; i < 500; i++ {
		c := newTestClient(1, "racing")
		h.Register(c)
		go func() {
			for range c.Send {
			}
		}()
		c.Close()
	}
	close(stop)
	wg.Wait()
}

func TestSlowConsumerDoesNotBlock(t *testing.T) {
	h := NewHub()
	slow := &Client{UserID: 1, SocketID: "slow", Send: make(chan []byte)} // no buffer, never read
	h.Register(slow)

	done := make(chan struct{})
	go func() {
		h.BroadcastToUser(1, map[string]interface{}{"type": "ping"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow consumer")
	}
}
