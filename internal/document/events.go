package document

import (
	"github.com/dshills/listview/internal/event"
	"github.com/dshills/listview/internal/event/topic"
)

// Document event topics.
const (
	TopicItems        topic.Topic = "document.item.*"
	TopicItemInserted topic.Topic = "document.item.inserted"
	TopicItemRemoved  topic.Topic = "document.item.removed"
	TopicItemChanged  topic.Topic = "document.item.changed"
)

// Event is the closed set of structural change notifications a document
// publishes. The concrete types are ItemInserted, ItemRemoved and
// ItemChanged.
type Event interface {
	// Target returns the item the event is about.
	Target() Item

	// Topic returns the bus topic the event is published under.
	Topic() topic.Topic

	documentEvent()
}

// ItemInserted reports a newly created item.
type ItemInserted struct {
	Item Item
}

// ItemRemoved reports a deleted item.
type ItemRemoved struct {
	Item Item
}

// ItemChanged reports that data associated with an existing item changed.
// The item's identity, and therefore its address, is unchanged.
type ItemChanged struct {
	Item Item
}

func (e ItemInserted) Target() Item { return e.Item }
func (e ItemInserted) Topic() topic.Topic { return TopicItemInserted }
func (ItemInserted) documentEvent() {}
func (e ItemRemoved) Target() Item { return e.Item }
func (e ItemRemoved) Topic() topic.Topic { return TopicItemRemoved }
func (ItemRemoved) documentEvent() {}
func (e ItemChanged) Target() Item { return e.Item }
func (e ItemChanged) Topic() topic.Topic { return TopicItemChanged }
func (ItemChanged) documentEvent() {}

// Envelope is the bus representation of a document event. Metadata.Source
// holds the owner identity of the publishing document.
type Envelope = event.Event[Event]

func newEnvelope(ev Event, owner string) Envelope {
	return event.NewEvent[Event](ev.Topic(), ev, owner)
}
