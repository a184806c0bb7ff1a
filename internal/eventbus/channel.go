package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/vannadii/rustygpt-go/internal/logging"
)

// subscriberBuffer is the default bound on a subscriber's live channel:
// slow subscribers drop frames rather than stall publishers.
const subscriberBuffer = 256

// Channel is one conversation's ordered event stream: a monotonic
// sequence counter, an in-memory ring for replay, and the set of live
// subscriber channels currently being broadcast to.
type Channel struct {
	conversationID string
	durable        DurableStore
	persistence    PersistenceConfig

	mu          sync.Mutex
	seq         uint64
	ring        *ring
	subscribers map[uint64]chan Event
	nextSubID   uint64
}

func newChannel(conversationID string, ringCapacity int, durable DurableStore, persistence PersistenceConfig) *Channel {
	return &Channel{
		conversationID: conversationID,
		durable:        durable,
		persistence:    persistence,
		ring:           newRing(ringCapacity),
		subscribers:    make(map[uint64]chan Event),
	}
}

// publish assigns the next sequence number, appends the event to the
// ring, broadcasts it to every live subscriber (dropping it for any
// subscriber whose buffer is full rather than blocking), and - when a
// durable store is configured - persists it synchronously. A persistence
// failure is logged and suppressed: the event has already reached live
// subscribers and publish must not fail because of it.
func (c *Channel) publish(ctx context.Context, eventType EventType, payload []byte, rootMessageID, messageID string) Event {
	c.mu.Lock()
	c.seq++
	e := Event{
		Sequence:       c.seq,
		ConversationID: c.conversationID,
		Type:           eventType,
		Payload:        payload,
		RootMessageID:  rootMessageID,
		MessageID:      messageID,
		CreatedAt:      time.Now().UnixNano(),
	}
	c.ring.add(e)

	subs := make([]chan Event, 0, len(c.subscribers))
	for _, ch := range c.subscribers {
		subs = append(subs, ch)
	}
	c.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
			logging.Warn().Str("conversation_id", c.conversationID).Uint64("sequence", e.Sequence).
				Msg("eventbus: subscriber lagging, dropped event")
		}
	}

	if c.durable != nil && c.persistence.Enabled {
		if err := c.durable.Persist(ctx, e); err != nil {
			logging.Error().Err(err).Str("conversation_id", c.conversationID).
				Msg("eventbus: failed to persist event, continuing")
		} else {
			c.enforceRetention(ctx)
		}
	}

	return e
}

func (c *Channel) enforceRetention(ctx context.Context) {
	retentionHours := c.persistence.RetentionHours
	maxEvents := c.persistence.MaxEventsPerUser
	batchSize := c.persistence.PruneBatchSize
	if retentionHours <= 0 && maxEvents <= 0 {
		return
	}
	if err := c.durable.Prune(ctx, c.conversationID, retentionHours, maxEvents, batchSize); err != nil {
		logging.Error().Err(err).Str("conversation_id", c.conversationID).Msg("eventbus: retention prune failed")
	}
}

// subscribe registers a new live subscriber and returns its channel, the
// replay batch (merged in-memory + durable history strictly greater than
// afterSeq, de-duplicated by sequence, ascending), and an unsubscribe
// function.
func (c *Channel) subscribe(ctx context.Context, afterSeq uint64, hasAfterSeq bool) (<-chan Event, []Event, func()) {
	c.mu.Lock()
	c.nextSubID++
	id := c.nextSubID
	ch := make(chan Event, subscriberBuffer)
	c.subscribers[id] = ch
	c.mu.Unlock()

	replay := c.replay(ctx, afterSeq, hasAfterSeq)

	unsubscribe := func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
	return ch, replay, unsubscribe
}

func (c *Channel) replay(ctx context.Context, afterSeq uint64, hasAfterSeq bool) []Event {
	var inMemory []Event
	if hasAfterSeq {
		inMemory = c.ring.after(afterSeq)
	} else {
		inMemory = c.ring.all()
	}

	if c.durable == nil || !c.persistence.Enabled {
		return inMemory
	}

	oldestRetained, ok := c.ring.oldestSequence()
	lowWatermark := afterSeq
	if !hasAfterSeq {
		lowWatermark = 0
	}
	if !ok || lowWatermark >= oldestRetained {
		// The ring alone covers everything the caller asked for.
		return inMemory
	}

	persisted, err := c.durable.Query(ctx, c.conversationID, lowWatermark, c.persistence.MaxEventsPerUser)
	if err != nil {
		logging.Error().Err(err).Str("conversation_id", c.conversationID).Msg("eventbus: durable replay query failed")
		return inMemory
	}
	return mergeReplay(persisted, inMemory)
}

// mergeReplay combines persisted and in-memory event slices, both already
// ascending by sequence, into one ascending, sequence-deduplicated slice.
func mergeReplay(persisted, inMemory []Event) []Event {
	seen := make(map[uint64]struct{}, len(persisted)+len(inMemory))
	out := make([]Event, 0, len(persisted)+len(inMemory))
	for _, e := range persisted {
		if _, dup := seen[e.Sequence]; dup {
			continue
		}
		seen[e.Sequence] = struct{}{}
		out = append(out, e)
	}
	for _, e := range inMemory {
		if _, dup := seen[e.Sequence]; dup {
			continue
		}
		seen[e.Sequence] = struct{}{}
		out = append(out, e)
	}
	return out
}
