package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/xelth-com/facilitymap/internal/layout"
	"go.uber.org/zap"
)

// Hub fans committed floor-plan changes out to the clients watching that plan
type Hub struct {
	// Subscribed clients: FloorPlanID -> set of clients
	topics map[string]map[*Client]struct{}

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Events waiting to be broadcast
	events chan layout.ChangeEvent

	// Closed when Run returns
	done chan struct{}

	// Mutex for thread-safe access to topics map
	mu sync.RWMutex

	log *zap.Logger
}

// NewHub creates a new Hub instance
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		topics:     make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan layout.ChangeEvent, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run starts the hub's main loop and returns when ctx is done. A hub runs
// once; afterwards new and departing clients no longer wait for it.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			subs, ok := h.topics[client.FloorPlanID]
			if !ok {
				subs = make(map[*Client]struct{})
				h.topics[client.FloorPlanID] = subs
			}
			subs[client] = struct{}{}
			h.mu.Unlock()
			h.log.Debug("ws client subscribed", zap.String("floor_plan_id", client.FloorPlanID), zap.String("actor", client.ActorID))

		case client := <-h.unregister:
			h.drop(client)

		case ev := <-h.events:
			h.broadcast(ev)
		}
	}
}

func (h *Hub) drop(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[client.FloorPlanID]
	if !ok {
		return
	}
	if _, ok := subs[client]; !ok {
		return
	}
	delete(subs, client)
	close(client.send)
	if len(subs) == 0 {
		delete(h.topics, client.FloorPlanID)
	}
	h.log.Debug("ws client left", zap.String("floor_plan_id", client.FloorPlanID))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, subs := range h.topics {
		for c := range subs {
			close(c.send)
		}
		delete(h.topics, id)
	}
}

func (h *Hub) broadcast(ev layout.ChangeEvent) {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("marshal change event", zap.Error(err))
		return
	}

	h.mu.RLock()
	var stale []*Client
	for c := range h.topics[ev.FloorPlanID] {
		select {
		case c.send <- msg:
		default:
			// Buffer full or client dead
			stale = append(stale, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stale {
		h.drop(c)
	}
}

// FloorPlanChanged queues ev for broadcast. It never blocks the caller:
// when the queue is full the event is dropped and clients catch up on the
// next change.
func (h *Hub) FloorPlanChanged(ev layout.ChangeEvent) {
	select {
	case h.events <- ev:
	default:
		h.log.Warn("change feed queue full, event dropped", zap.String("floor_plan_id", ev.FloorPlanID))
	}
}

// Done is closed once Run has returned
func (h *Hub) Done() <-chan struct{} { return h.done }

// Subscribers returns how many clients watch floorPlanID
func (h *Hub) Subscribers(floorPlanID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[floorPlanID])
}
