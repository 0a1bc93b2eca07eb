package event

import (
	"sort"
	"sync"

	"github.com/dshills/listview/internal/event/topic"
)

// Registry stores subscriptions by pattern and by ID. It is safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	subs    map[topic.Topic][]*subscription
	byID    map[string]*subscription
	matcher *topic.Matcher
	seq     map[string]uint64
	next    uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		subs:    make(map[topic.Topic][]*subscription),
		byID:    make(map[string]*subscription),
		matcher: topic.NewMatcher(),
		seq:     make(map[string]uint64),
	}
}

// Add registers a subscription.
func (r *Registry) Add(sub *subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pattern := sub.Topic()
	r.subs[pattern] = append(r.subs[pattern], sub)
	r.byID[sub.ID()] = sub
	r.seq[sub.ID()] = r.next
	r.next++
	r.matcher.Add(pattern)
}

// Remove unregisters a subscription by ID and reports whether it existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.byID[id]
	if !ok {
		return false
	}

	pattern := sub.Topic()
	subs := r.subs[pattern]
	for i, s := range subs {
		if s.ID() == id {
			r.subs[pattern] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(r.subs[pattern]) == 0 {
		delete(r.subs, pattern)
		r.matcher.Remove(pattern)
	}
	delete(r.byID, id)
	delete(r.seq, id)
	return true
}

// Match returns the active subscriptions whose pattern matches eventTopic,
// ordered by priority and then by registration order.
func (r *Registry) Match(eventTopic topic.Topic) []*subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*subscription
	for _, pattern := range r.matcher.Match(eventTopic) {
		for _, sub := range r.subs[pattern] {
			if sub.IsActive() {
				matched = append(matched, sub)
			}
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		pi, pj := matched[i].Priority(), matched[j].Priority()
		if pi != pj {
			return pi < pj
		}
		return r.seq[matched[i].ID()] < r.seq[matched[j].ID()]
	})
	return matched
}

// Count returns the number of registered subscriptions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byID)
}

// CountActive returns the number of subscriptions not yet cancelled.
func (r *Registry) CountActive() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, sub := range r.byID {
		if sub.IsActive() {
			n++
		}
	}
	return n
}

// Clear cancels and removes every subscription.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sub := range r.byID {
		sub.Cancel()
	}
	r.subs = make(map[topic.Topic][]*subscription)
	r.byID = make(map[string]*subscription)
	r.seq = make(map[string]uint64)
	r.matcher.Clear()
}
