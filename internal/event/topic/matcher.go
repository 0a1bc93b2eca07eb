package topic

import "sync"

// Matcher indexes subscription patterns in a segment trie so that an event
// topic can be matched against every registered pattern in one walk.
// It is safe for concurrent use.
type Matcher struct {
	mu   sync.RWMutex
	root *trieNode
}

type trieNode struct {
	children map[string]*trieNode
	patterns []Topic
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[string]*trieNode)}
}

// NewMatcher creates an empty matcher.
func NewMatcher() *Matcher {
	return &Matcher{root: newTrieNode()}
}

// Add registers a pattern. Adding the same pattern twice is a no-op.
func (m *Matcher) Add(pattern Topic) {
	if pattern == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	node := m.root
	for _, seg := range pattern.Segments() {
		child := node.children[seg]
		if child == nil {
			child = newTrieNode()
			node.children[seg] = child
		}
		node = child
	}
	for _, p := range node.patterns {
		if p == pattern {
			return
		}
	}
	node.patterns = append(node.patterns, pattern)
}

// Remove unregisters a pattern.
func (m *Matcher) Remove(pattern Topic) {
	if pattern == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	node := m.root
	for _, seg := range pattern.Segments() {
		node = node.children[seg]
		if node == nil {
			return
		}
	}
	for i, p := range node.patterns {
		if p == pattern {
			node.patterns = append(node.patterns[:i], node.patterns[i+1:]...)
			return
		}
	}
}

// Match returns every registered pattern matching the concrete topic.
// Each pattern appears at most once.
func (m *Matcher) Match(eventTopic Topic) []Topic {
	if eventTopic == "" {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[Topic]struct{})
	var matches []Topic
	collect := func(ps []Topic) {
		for _, p := range ps {
			if _, dup := seen[p]; !dup {
				seen[p] = struct{}{}
				matches = append(matches, p)
			}
		}
	}
	matchNode(m.root, eventTopic.Segments(), 0, collect)
	return matches
}

func matchNode(node *trieNode, segments []string, depth int, collect func([]Topic)) {
	if depth == len(segments) {
		collect(node.patterns)
		if child := node.children[WildcardMulti]; child != nil {
			matchNode(child, segments, depth, collect)
		}
		return
	}

	if child := node.children[segments[depth]]; child != nil {
		matchNode(child, segments, depth+1, collect)
	}
	if child := node.children[WildcardSingle]; child != nil {
		matchNode(child, segments, depth+1, collect)
	}
	if child := node.children[WildcardMulti]; child != nil {
		for i := depth; i <= len(segments); i++ {
			matchNode(child, segments, i, collect)
		}
	}
}

// Count returns the number of registered patterns.
func (m *Matcher) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count func(n *trieNode) int
	count = func(n *trieNode) int {
		total := len(n.patterns)
		for _, c := range n.children {
			total += count(c)
		}
		return total
	}
	return count(m.root)
}

// Clear removes all patterns.
func (m *Matcher) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.root = newTrieNode()
}
