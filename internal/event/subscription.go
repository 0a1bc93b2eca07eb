package event

import (
	"sync/atomic"

	"github.com/dshills/listview/internal/event/topic"
)

// Subscription is the handle returned by Subscribe. Cancelling it, directly
// or through Bus.Unsubscribe, stops delivery immediately.
type Subscription interface {
	// ID returns the unique subscription identifier.
	ID() string

	// Owner returns the owner identity given with WithOwner, if any.
	Owner() string

	// Topic returns the subscribed pattern.
	Topic() topic.Topic

	// IsActive reports whether the subscription still receives events.
	IsActive() bool

	// Cancel permanently stops delivery. Safe to call more than once.
	Cancel()
}

// SubscriptionConfig holds per-subscription settings.
type SubscriptionConfig struct {
	// Priority orders handlers for the same event; lower runs first.
	Priority Priority

	// Filter, when set, must return true for the event to be delivered.
	Filter FilterFunc

	// Once cancels the subscription after its first successful delivery.
	Once bool

	// Owner identifies the subscribing component in logs and errors.
	Owner string
}

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*SubscriptionConfig)

// WithPriority sets the handler priority.
func WithPriority(p Priority) SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Priority = p
	}
}

// WithFilter installs an event filter.
func WithFilter(f FilterFunc) SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Filter = f
	}
}

// WithOnce makes the subscription one-shot.
func WithOnce() SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Once = true
	}
}

// WithOwner records the subscriber's identity.
func WithOwner(owner string) SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Owner = owner
	}
}

type subscription struct {
	id        string
	topic     topic.Topic
	handler   Handler
	config    SubscriptionConfig
	cancelled atomic.Bool
}

func newSubscription(id string, t topic.Topic, h Handler, opts ...SubscriptionOption) *subscription {
	config := SubscriptionConfig{Priority: PriorityNormal}
	for _, opt := range opts {
		opt(&config)
	}
	return &subscription{
		id:      id,
		topic:   t,
		handler: h,
		config:  config,
	}
}

func (s *subscription) ID() string { return s.id }
func (s *subscription) Owner() string { return s.config.Owner }
func (s *subscription) Topic() topic.Topic { return s.topic }
func (s *subscription) Handler() Handler { return s.handler }
func (s *subscription) IsActive() bool { return !s.cancelled.Load() }
func (s *subscription) Cancel() { s.cancelled.Store(true) }
func (s *subscription) Priority() Priority { return s.config.Priority }

// shouldDeliver is checked immediately before each handler call so that a
// cancellation made by an earlier handler takes effect for this event.
func (s *subscription) shouldDeliver(event any) bool {
	if !s.IsActive() {
		return false
	}
	return s.config.Filter == nil || s.config.Filter(event)
}
