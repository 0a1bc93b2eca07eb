// Package event is the publish/subscribe channel the document uses to
// announce structural changes.
//
// Publishers send typed events (Event[T]) tagged with a hierarchical topic.
// Subscribers register a Handler against a topic pattern and receive a
// Subscription handle; the handle is the only way to stop delivery, so there
// is no global handler keyed by owner pointers.
//
// Delivery is synchronous and ordered: Publish runs every matching handler in
// the publisher's goroutine, in priority order, before returning. Each
// subscription sees each event exactly once, and a subscription cancelled
// while an event is in flight receives nothing further, including the rest of
// that event's fan-out.
//
//	bus := event.NewBus(event.WithLogger(logger))
//	sub, err := bus.SubscribeFunc("document.item.*", func(ctx context.Context, ev any) error {
//	    ...
//	}, event.WithOwner("strings-view"))
//	defer bus.Unsubscribe(sub)
//
//	bus.Publish(ctx, event.NewEvent("document.item.inserted", payload, "document"))
package event
