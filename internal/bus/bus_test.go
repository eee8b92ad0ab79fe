package bus

import (
	"testing"
	"time"
)

const waitTimeout = 2 * time.Second

func waitForSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for change signal")
	}
}

func TestSubscriberReceivesSignal(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe()
	defer unsub()

	b.Publish()
	waitForSignal(t, ch)
}

func TestPublishWithoutSubscribersReturns(t *testing.T) {
	b := New()

	done := make(chan struct{})
	go func() {
		b.Publish()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("Publish blocked with no subscribers")
	}
}

func TestNoDeliveryAfterUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe()
	unsub()

	b.Publish()

	select {
	case <-ch:
		t.Fatal("received signal after unsubscribe")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRapidPublishesCoalesce(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe()
	defer unsub()

	for i := 0; i < 10; i++ {
		b.Publish()
	}

	// At least one wake-up must arrive.
	waitForSignal(t, ch)

	// The channel buffers a single pending signal, so ten publishes
	// collapse into at most one more.
	drained := 0
	deadline := time.After(200 * time.Millisecond)
	for {
		select {
		case <-ch:
			drained++
			if drained > 1 {
				t.Fatalf("expected coalesced wake-ups, drained %d extra", drained)
			}
		case <-deadline:
			return
		}
	}
}

func TestIndependentSubscribers(t *testing.T) {
	b := New()
	ch1, unsub1 := b.Subscribe()
	defer unsub1()
	ch2, unsub2 := b.Subscribe()
	defer unsub2()

	b.Publish()
	waitForSignal(t, ch1)
	waitForSignal(t, ch2)
}
