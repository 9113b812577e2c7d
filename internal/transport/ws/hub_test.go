package ws

import (
	"sync"
	"testing"

	"github.com/cwrk-planet/chatcord/internal/domain"
)

func hubClient(t *testing.T, h *Hub, id int64, name string) *Client {
	t.Helper()
	c := newClient(nil, domain.Identity{ID: id, Username: name}, clientConfig{sendBuffer: 1 << 13, inboundBuffer: 4}, discardLogger())
	if err := h.register(c); err != nil {
		t.Fatalf("register: %v", err)
	}
	return c
}

func inRooms(c *Client, roomID int64) bool {
	for _, id := range c.Rooms() {
		if id == roomID {
			return true
		}
	}
	return false
}

func TestHub_RoomDeletedClearsConnectionRooms(t *testing.T) {
	h := NewHub(discardLogger())
	c := hubClient(t, h, 1, "alice")
	room := &domain.Room{ID: 7, Name: "R7"}

	h.join(c, room)
	if !inRooms(c, 7) {
		t.Fatal("join did not record the room on the connection")
	}

	h.NotifyRoomDeleted(7, domain.RoomInfo{ID: 7, Name: "R7"})
	if inRooms(c, 7) {
		t.Fatal("deleted room left in the connection room set")
	}
	if h.Presence().Rooms() != 0 {
		t.Fatalf("Rooms = %d after delete", h.Presence().Rooms())
	}
	h.disconnect(c)
}

func TestHub_ConcurrentJoinAndDeleteKeepRoomSetsInSync(t *testing.T) {
	h := NewHub(discardLogger())
	room := &domain.Room{ID: 7, Name: "R7"}

	for trial := 0; trial < 50; trial++ {
		c := hubClient(t, h, 1, "alice")

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				h.join(c, room)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				h.NotifyRoomDeleted(7, domain.RoomInfo{ID: 7, Name: "R7"})
			}
		}()
		wg.Wait()

		var live bool
		h.Presence().ViewRoom(7, func(v *RoomView) { live = v.Has(c) })
		if live != inRooms(c, 7) {
			t.Fatalf("trial %d: presence=%v, connection rooms=%v", trial, live, c.Rooms())
		}

		h.disconnect(c)
		if h.Presence().Rooms() != 0 {
			t.Fatalf("trial %d: room tracked after disconnect", trial)
		}
	}
}

func TestHub_ClosedConnectionDoesNotJoin(t *testing.T) {
	h := NewHub(discardLogger())
	fresh := hubClient(t, h, 1, "alice")
	stale := newClient(nil, fresh.Identity(), clientConfig{sendBuffer: 16, inboundBuffer: 1}, discardLogger())
	room := &domain.Room{ID: 7, Name: "R7"}

	h.join(fresh, room)
	stale.Close()
	h.join(stale, room)

	var owner *Client
	h.Presence().ViewRoom(7, func(v *RoomView) {
		if v.Has(fresh) {
			owner = fresh
		}
	})
	if owner != fresh {
		t.Fatal("closed connection took over the room entry")
	}
	if inRooms(stale, 7) {
		t.Fatal("closed connection recorded the room")
	}
	h.disconnect(fresh)
}
