package eventbus

import (
	"context"
	"encoding/json"
	"sync"
)

// Config controls the hub's per-conversation ring capacity and durable
// persistence policy.
type Config struct {
	RingCapacity int
	Persistence  PersistenceConfig
}

// Hub lazily creates one Channel per conversation and routes publish and
// subscribe calls to it. The hub's own mutex is held only long enough to
// get-or-create a channel; all per-conversation state lives behind the
// channel's own lock, so publishing to conversation A never contends with
// publishing to conversation B.
type Hub struct {
	mu       sync.Mutex
	channels map[string]*Channel
	cfg      Config
	durable  DurableStore
}

// NewHub builds a Hub. durable may be nil, in which case replay is served
// entirely from the in-memory ring.
func NewHub(cfg Config, durable DurableStore) *Hub {
	if cfg.RingCapacity <= 0 {
		cfg.RingCapacity = 256
	}
	return &Hub{
		channels: make(map[string]*Channel),
		cfg:      cfg,
		durable:  durable,
	}
}

func (h *Hub) channelFor(conversationID string) *Channel {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.channels[conversationID]
	if !ok {
		ch = newChannel(conversationID, h.cfg.RingCapacity, h.durable, h.cfg.Persistence)
		h.channels[conversationID] = ch
	}
	return ch
}

// Publish marshals payload to JSON and publishes it as the named event
// type on conversationID's channel. rootMessageID/messageID are optional
// and only meaningful for message-scoped event types; pass empty strings
// for the rest.
func (h *Hub) Publish(ctx context.Context, conversationID string, eventType EventType, payload any, rootMessageID, messageID string) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return h.channelFor(conversationID).publish(ctx, eventType, data, rootMessageID, messageID), nil
}

// Subscription is a live handle on a conversation's stream: Replay holds
// the events that satisfied the caller's Last-Event-ID on entry, Events
// delivers every event published from that point on, and Close
// unregisters the subscriber.
type Subscription struct {
	Replay []Event
	Events <-chan Event
	Close  func()
}

// Subscribe opens a subscription to conversationID. When afterSeq is nil,
// replay covers everything still retained (ring, plus durable history
// when configured); otherwise replay is strictly greater than *afterSeq.
func (h *Hub) Subscribe(ctx context.Context, conversationID string, afterSeq *uint64) Subscription {
	ch := h.channelFor(conversationID)
	var seq uint64
	hasAfterSeq := afterSeq != nil
	if hasAfterSeq {
		seq = *afterSeq
	}
	events, replay, unsubscribe := ch.subscribe(ctx, seq, hasAfterSeq)
	return Subscription{Replay: replay, Events: events, Close: unsubscribe}
}
