// Package live runs the per-viewer sessions that keep a reader's
// presence view current. A session wakes on two independent triggers,
// change signals from the bus and a wall-clock ticker, and both feed
// the same recompute-and-diff path: without the ticker, entries would
// never expire out of the window when no new detection arrives.
package live

import (
	"context"
	"time"

	"github.com/tagwatch/tagwatchgo/internal/models"
	"github.com/tagwatch/tagwatchgo/internal/presence"
)

// coarseQueryWindow bounds how far back the ledger query reaches.
// Purely a read-volume limit; the presence window applied afterwards
// is the authoritative staleness boundary, so this must never be the
// smaller of the two.
const coarseQueryWindow = time.Minute

// Fetcher reads a reader's ledger rows from the registry.
type Fetcher interface {
	ListDetections(ctx context.Context, readerID string, since time.Time) ([]models.DeviceLocation, error)
}

// Subscriber hands out change-signal subscriptions.
type Subscriber interface {
	Subscribe() (<-chan struct{}, func())
}

// View is the payload pushed to the client on each emission: the full
// current state of one reader, replaced wholesale, never a diff.
type View struct {
	Reader  models.Reader   `json:"reader"`
	Devices []presence.Entry `json:"devices"`
}

// Session streams a single reader's presence view to one client.
type Session struct {
	reader   models.Reader
	fetcher  Fetcher
	bus      Subscriber
	window   time.Duration
	interval time.Duration
	emit     func(View) error

	// now is the clock; replaceable in tests.
	now func() time.Time

	last    []presence.Entry
	emitted bool
}

// NewSession creates a session for the given reader. emit is called
// with each view the client should see; an emit error ends the session.
func NewSession(reader models.Reader, fetcher Fetcher, bus Subscriber, window, interval time.Duration, emit func(View) error) *Session {
	return &Session{
		reader:   reader,
		fetcher:  fetcher,
		bus:      bus,
		window:   window,
		interval: interval,
		emit:     emit,
		now:      time.Now,
	}
}

// Run subscribes to the change bus, emits the initial view without
// waiting for a signal, then recomputes on every wake-up and ticker
// tick, emitting only when the view changed. It returns when ctx is
// cancelled (client disconnect) or emit fails, releasing the
// subscription either way.
func (s *Session) Run(ctx context.Context) error {
	signals, unsubscribe := s.bus.Subscribe()
	defer unsubscribe()

	if err := s.refresh(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-signals:
		case <-ticker.C:
		}
		if err := s.refresh(ctx); err != nil {
			return err
		}
	}
}

// refresh re-derives the presence view and emits it if it differs
// from the last emission. A transient fetch failure skips the cycle
// rather than tearing the session down; the next trigger retries.
func (s *Session) refresh(ctx context.Context) error {
	now := s.now()

	coarse := coarseQueryWindow
	if s.window > coarse {
		coarse = s.window
	}

	records, err := s.fetcher.ListDetections(ctx, s.reader.ID, now.Add(-coarse))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	}

	entries := presence.Compute(records, now, s.window)
	if s.emitted && presence.Equal(entries, s.last) {
		return nil
	}

	if err := s.emit(View{Reader: s.reader, Devices: entries}); err != nil {
		return err
	}
	s.last = entries
	s.emitted = true
	return nil
}
