package pubsub

import (
	"sync"

	"github.com/frozenpond/benchboss/internal/logger"
)

// Event types published by the line engine and roster handlers
const (
	EventLinesGenerated = "lines:generated"
	EventLinesUpdated   = "lines:updated"
	EventGameSimulated  = "game:simulated"
	EventRosterChanged  = "roster:changed"
	EventCoachChanged   = "coach:changed"
	EventTradeEvaluated = "trade:evaluated"
	EventPresetSaved    = "preset:saved"
)

// Event represents a pubsub event. TeamID is set for team-scoped events.
type Event struct {
	Type    string                 `json:"type"`
	TeamID  string                 `json:"teamId,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Upstream is an interface for upstream publishers (e.g., NATS)
type Upstream interface {
	Publish(Event)
	Subscribe() chan Event
	Unsubscribe(chan Event)
}

// subscription pairs a delivery channel with an optional team filter.
// An empty teamID receives everything.
type subscription struct {
	ch     chan Event
	teamID string
}

// PubSub implements a simple publish-subscribe system
type PubSub struct {
	mu          sync.RWMutex
	subscribers []subscription
	upstream    Upstream // Optional upstream publisher (e.g., NATS)
}

// New creates a new PubSub instance
func New() *PubSub {
	return &PubSub{
		subscribers: []subscription{},
	}
}

// NewWithUpstream creates a PubSub that bridges to an upstream publisher.
// Published events go to the upstream, which broadcasts to all instances;
// events arriving from the upstream are forwarded to local subscribers.
func NewWithUpstream(upstream Upstream) *PubSub {
	ps := &PubSub{
		subscribers: []subscription{},
		upstream:    upstream,
	}

	go func() {
		ch := upstream.Subscribe()
		logger.Debug("PubSub: Subscribed to upstream, waiting for events")
		for event := range ch {
			ps.publishLocal(event)
		}
		logger.Debug("PubSub: Upstream channel closed")
	}()

	return ps
}

// Subscribe adds a new subscriber and returns a channel for receiving events
func (ps *PubSub) Subscribe() chan Event {
	return ps.SubscribeTeam("")
}

// SubscribeTeam adds a subscriber that only receives events for one team.
// League-wide events (no TeamID) are delivered to every subscriber.
func (ps *PubSub) SubscribeTeam(teamID string) chan Event {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ch := make(chan Event, 10)
	ps.subscribers = append(ps.subscribers, subscription{ch: ch, teamID: teamID})
	logger.Debug("PubSub: New subscriber added", "teamId", teamID, "totalSubscribers", len(ps.subscribers))
	return ch
}

// Unsubscribe removes a subscriber
func (ps *PubSub) Unsubscribe(ch chan Event) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	for i, sub := range ps.subscribers {
		if sub.ch == ch {
			close(ch)
			ps.subscribers = append(ps.subscribers[:i], ps.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers. If an upstream is configured
// the event goes there first and is broadcast back to every instance,
// including this one.
func (ps *PubSub) Publish(event Event) {
	if ps.upstream != nil {
		logger.Debug("PubSub: Forwarding to upstream", "type", event.Type)
		ps.upstream.Publish(event)
	} else {
		ps.publishLocal(event)
	}
}

// publishLocal sends an event to local subscribers only, honoring team
// filters
func (ps *PubSub) publishLocal(event Event) {
	ps.mu.RLock()
	subs := make([]subscription, len(ps.subscribers))
	copy(subs, ps.subscribers)
	ps.mu.RUnlock()

	for _, sub := range subs {
		if sub.teamID != "" && event.TeamID != "" && sub.teamID != event.TeamID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// Skip if channel is full
		}
	}
}
