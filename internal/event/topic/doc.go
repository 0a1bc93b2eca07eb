// Package topic provides hierarchical topic names and wildcard matching for
// the document event bus.
//
// Topics use dot notation:
//
//	document.item.inserted
//	document.item.removed
//	config.reloaded
//
// Patterns may contain "*" (exactly one segment) and "**" (zero or more
// segments), so a view can subscribe to "document.item.*" and receive every
// structural change while ignoring unrelated traffic on the same bus.
package topic
