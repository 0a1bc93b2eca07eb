package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/listview/internal/event/topic"
)

// Event is an immutable notification with a typed payload.
type Event[T any] struct {
	// Type is the hierarchical event topic (e.g. "document.item.inserted").
	Type topic.Topic

	// Payload carries the event-specific data.
	Payload T

	// Metadata carries the envelope fields common to all events.
	Metadata Metadata
}

// Metadata is attached to every event.
type Metadata struct {
	// ID uniquely identifies this event instance.
	ID string

	// Timestamp is when the event was created.
	Timestamp time.Time

	// Source is the owner identity of the publisher.
	Source string
}

// NewEvent creates an event with a fresh ID and timestamp.
func NewEvent[T any](eventType topic.Topic, payload T, source string) Event[T] {
	return Event[T]{
		Type:    eventType,
		Payload: payload,
		Metadata: Metadata{
			ID:        newID(),
			Timestamp: time.Now(),
			Source:    source,
		},
	}
}

// EventTopic implements TopicProvider.
func (e Event[T]) EventTopic() topic.Topic {
	return e.Type
}

// EventMetadata implements MetadataProvider.
func (e Event[T]) EventMetadata() Metadata {
	return e.Metadata
}

// TopicProvider is implemented by anything the bus can route.
type TopicProvider interface {
	EventTopic() topic.Topic
}

// MetadataProvider is implemented by events carrying Metadata.
type MetadataProvider interface {
	EventMetadata() Metadata
}

func newID() string {
	return uuid.NewString()
}
