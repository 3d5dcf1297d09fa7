package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Event is one message pushed to subscribers.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type regionEvent struct {
	regionID uuid.UUID
	message  []byte
}

// Hub fans order events out to the admins watching a region.
type Hub struct {
	rooms map[uuid.UUID]map[*Client]struct{}
	mu    sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan regionEvent
	done       chan struct{}

	log *logrus.Entry
}

func NewHub(log *logrus.Entry) *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan regionEvent, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run owns the room map until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			room, ok := h.rooms[c.regionID]
			if !ok {
				room = make(map[*Client]struct{})
				h.rooms[c.regionID] = room
			}
			room[c] = struct{}{}
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			h.drop(c)
			h.mu.Unlock()

		case ev := <-h.broadcast:
			h.mu.Lock()
			for c := range h.rooms[ev.regionID] {
				select {
				case c.send <- ev.message:
				default:
					// slow consumer
					h.drop(c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes c and closes its send channel. Caller holds h.mu.
func (h *Hub) drop(c *Client) {
	room, ok := h.rooms[c.regionID]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	close(c.send)
	if len(room) == 0 {
		delete(h.rooms, c.regionID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range h.rooms {
		for c := range room {
			h.drop(c)
		}
	}
}

// Subscribers returns the number of clients in a region room.
func (h *Hub) Subscribers(regionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[regionID])
}

// BroadcastToRegion queues ev for every subscriber of regionID.
func (h *Hub) BroadcastToRegion(regionID uuid.UUID, ev Event) {
	message, err := json.Marshal(ev)
	if err != nil {
		h.log.WithError(err).Error("marshal event")
		return
	}
	select {
	case h.broadcast <- regionEvent{regionID: regionID, message: message}:
	case <-h.done:
	}
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish encodes payload and broadcasts it as eventType.
func (h *Hub) Publish(regionID uuid.UUID, eventType string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.log.WithError(err).WithField("type", eventType).Error("marshal event payload")
		return
	}
	h.BroadcastToRegion(regionID, Event{Type: eventType, Payload: raw})
}
