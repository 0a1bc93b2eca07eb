// Package dispatch runs event handlers with panic recovery and timing.
//
// The document bus delivers every event synchronously and in publication
// order, so there is a single Executor and no worker pool: a handler that
// panics is isolated and reported through a Result instead of tearing down
// the publisher.
package dispatch
