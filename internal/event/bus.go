package event

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/dshills/listview/internal/event/dispatch"
	"github.com/dshills/listview/internal/event/topic"
)

// Bus is the document event bus.
type Bus interface {
	// Publish delivers event to every matching subscription before returning.
	// A context that is already done delivers nothing. Once delivery starts
	// every matching subscription receives the event, even if ctx is
	// cancelled part way. Handler failures do not stop the fan-out; they are
	// joined into the returned error as *HandlerError or *PanicError values.
	Publish(ctx context.Context, event any) error

	// Subscribe registers handler for a topic pattern.
	Subscribe(pattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error)

	// SubscribeFunc is Subscribe for a plain function.
	SubscribeFunc(pattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error)

	// Unsubscribe cancels and removes a subscription.
	Unsubscribe(sub Subscription) error

	// Close cancels every subscription and rejects further use.
	Close()

	// Stats returns a snapshot of the bus counters.
	Stats() Stats
}

// BusOption configures a Bus.
type BusOption func(*bus)

// WithLogger sets the logger used for handler failures.
func WithLogger(l *slog.Logger) BusOption {
	return func(b *bus) {
		if l != nil {
			b.logger = l
		}
	}
}

type bus struct {
	registry *Registry
	executor *dispatch.Executor
	logger   *slog.Logger
	closed   atomic.Bool

	published atomic.Uint64
	delivered atomic.Uint64
	errored   atomic.Uint64
	panicked  atomic.Uint64
}

// NewBus creates a bus ready for use.
func NewBus(opts ...BusOption) Bus {
	b := &bus{
		registry: NewRegistry(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.executor = dispatch.NewExecutor(dispatch.WithPanicHandler(func(ev any, v any, stack []byte) {
		b.logger.Error("event handler panicked",
			"topic", topicOf(ev),
			"panic", v,
			"stack", string(stack))
	}))
	return b
}

func (b *bus) Publish(ctx context.Context, ev any) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	t := topicOf(ev)
	if t == "" {
		return ErrInvalidEvent
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	b.published.Add(1)

	deliverCtx := context.WithoutCancel(ctx)
	var errs []error
	for _, sub := range b.registry.Match(t) {
		if !sub.shouldDeliver(ev) {
			continue
		}

		res := b.executor.Execute(deliverCtx, ev, sub.Handler())
		switch {
		case res.Skipped:
			errs = append(errs, res.Error)
		case res.Panicked:
			b.panicked.Add(1)
			errs = append(errs, &PanicError{SubscriptionID: sub.ID(), Owner: sub.Owner(), Topic: t.String(), Value: res.PanicValue})
		case res.Error != nil:
			b.errored.Add(1)
			b.logger.Warn("event handler failed", "topic", t, "owner", sub.Owner(), "error", res.Error)
			errs = append(errs, &HandlerError{SubscriptionID: sub.ID(), Owner: sub.Owner(), Topic: t.String(), Err: res.Error})
		default:
			b.delivered.Add(1)
			if sub.config.Once {
				sub.Cancel()
				b.registry.Remove(sub.ID())
			}
		}
	}
	return errors.Join(errs...)
}

func (b *bus) Subscribe(pattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error) {
	if b.closed.Load() {
		return nil, ErrBusClosed
	}
	if handler == nil {
		return nil, ErrNilHandler
	}
	if !pattern.IsValid() {
		return nil, ErrInvalidTopic
	}

	sub := newSubscription(newID(), pattern, handler, opts...)
	b.registry.Add(sub)
	return sub, nil
}

func (b *bus) SubscribeFunc(pattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(pattern, fn, opts...)
}

func (b *bus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return ErrInvalidSubscription
	}
	sub.Cancel()
	if !b.registry.Remove(sub.ID()) {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (b *bus) Close() {
	if b.closed.Swap(true) {
		return
	}
	b.registry.Clear()
}

func (b *bus) Stats() Stats {
	return Stats{
		EventsPublished:   b.published.Load(),
		EventsDelivered:   b.delivered.Load(),
		HandlerErrors:     b.errored.Load(),
		HandlerPanics:     b.panicked.Load(),
		ActiveSubscribers: b.registry.CountActive(),
	}
}

func topicOf(ev any) topic.Topic {
	if tp, ok := ev.(TopicProvider); ok {
		return tp.EventTopic()
	}
	return ""
}
