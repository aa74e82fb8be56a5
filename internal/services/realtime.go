package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const requestEventsChannel = "requests:events"

// RequestEvent is broadcast over Redis and the staff WebSocket feed whenever
// a request is created or its status changes.
type RequestEvent struct {
	Type           string    `json:"type"` // "request_created", "status_changed", "payment_completed"
	RequestID      string    `json:"request_id"`
	TrackingNumber string    `json:"tracking_number,omitempty"`
	OldStatus      string    `json:"old_status,omitempty"`
	NewStatus      string    `json:"new_status,omitempty"`
	ChangedBy      string    `json:"changed_by,omitempty"`
	Timestamp      time.Time `json:"timestamp,omitempty"`
}

// EventHub fans request events out to local WebSocket subscribers and relays
// them across instances through Redis pub/sub.
type EventHub struct {
	redis *redis.Client

	mu          sync.RWMutex
	subscribers map[int]chan RequestEvent
	nextID      int

	startOnce sync.Once
}

func NewEventHub(client *redis.Client) *EventHub {
	return &EventHub{
		redis:       client,
		subscribers: make(map[int]chan RequestEvent),
	}
}

// Subscribe registers a local listener. The returned function unsubscribes
// and closes the channel.
func (h *EventHub) Subscribe() (<-chan RequestEvent, func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	ch := make(chan RequestEvent, 16)
	h.subscribers[id] = ch
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		if existing, ok := h.subscribers[id]; ok {
			delete(h.subscribers, id)
			close(existing)
		}
		h.mu.Unlock()
	}
}

// Publish sends an event to Redis; local fan-out happens through the
// subscriber goroutine, so all instances behave the same way.
func (h *EventHub) Publish(ctx context.Context, event RequestEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.redis.Publish(ctx, requestEventsChannel, data).Err()
}

func (h *EventHub) fanOut(event RequestEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subscribers {
		// Best effort: a slow WebSocket writer must not stall the hub.
		select {
		case ch <- event:
		default:
		}
	}
}

// Start launches the shared Redis listener for this instance.
func (h *EventHub) Start(ctx context.Context) {
	h.startOnce.Do(func() {
		go h.runSubscriber(ctx)
	})
}

func (h *EventHub) runSubscriber(ctx context.Context) {
	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := h.redis.Subscribe(ctx, requestEventsChannel)
			defer pubsub.Close()

			log.Printf("✅ Request event subscriber started (channel: %s)", requestEventsChannel)

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("request event subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event RequestEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal request event: %v", err)
					continue
				}

				h.fanOut(event)
			}
		}()
	}
}
