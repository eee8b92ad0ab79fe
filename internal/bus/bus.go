// Package bus carries the process-wide "a location changed" signal
// from detection ingest to every live viewer session. Signals have no
// payload; a woken subscriber re-reads the ledger for truth.
package bus

import (
	"github.com/juju/pubsub/v2"
)

const locationChangedTopic = "location-changed"

// Bus is the change-notification hub. One instance per process,
// injected into ingest and live sessions rather than held as a
// package global so the core stays testable in isolation.
type Bus struct {
	hub *pubsub.SimpleHub
}

// New creates an empty Bus
func New() *Bus {
	return &Bus{
		hub: pubsub.NewSimpleHub(nil),
	}
}

// Publish signals all current subscribers that some detection was
// recorded. Fire-and-forget: handlers run on the hub's own goroutines,
// so a slow subscriber never stalls the publisher.
func (b *Bus) Publish() {
	_ = b.hub.Publish(locationChangedTopic, nil)
}

// Subscribe registers a listener and returns its wake-up channel plus
// an unsubscribe func. The channel holds at most one pending signal:
// publishes landing while the listener is mid-handling coalesce into
// a single wake-up, which is correct because a signal only means
// "state may have changed, re-fetch". Signals published before
// Subscribe or after unsubscribe are not delivered.
func (b *Bus) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	unsub := b.hub.Subscribe(locationChangedTopic, func(string, interface{}) {
		select {
		case ch <- struct{}{}:
		default:
			// A wake-up is already pending.
		}
	})
	return ch, unsub
}
