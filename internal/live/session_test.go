package live

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tagwatch/tagwatchgo/internal/bus"
	"github.com/tagwatch/tagwatchgo/internal/models"
)

const (
	window   = 15 * time.Second
	interval = 20 * time.Millisecond
)

// fakeRegistry serves ledger rows per reader and lets tests mutate
// them mid-session, standing in for the real store.
type fakeRegistry struct {
	mu      sync.Mutex
	records map[string][]models.DeviceLocation
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{records: make(map[string][]models.DeviceLocation)}
}

func (f *fakeRegistry) ListDetections(_ context.Context, readerID string, since time.Time) ([]models.DeviceLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DeviceLocation
	for _, r := range f.records[readerID] {
		if !r.DetectedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRegistry) upsert(readerID, deviceID string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record := models.DeviceLocation{
		DeviceID:   deviceID,
		ReaderID:   readerID,
		DetectedAt: at,
		Device:     models.Device{ID: deviceID, TagID: "tag-" + deviceID},
	}
	// One live row per device across all readers.
	for reader, rs := range f.records {
		kept := rs[:0]
		for _, r := range rs {
			if r.DeviceID != deviceID {
				kept = append(kept, r)
			}
		}
		f.records[reader] = kept
	}
	f.records[readerID] = append(f.records[readerID], record)
}

// viewSink collects emitted views.
type viewSink struct {
	mu    sync.Mutex
	views []View
}

func (v *viewSink) emit(view View) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.views = append(v.views, view)
	return nil
}

func (v *viewSink) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.views)
}

// lastLen returns the entry count of the latest view, -1 before the
// first emission.
func (v *viewSink) lastLen() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.views) == 0 {
		return -1
	}
	return len(v.views[len(v.views)-1].Devices)
}

func (v *viewSink) lastView(t *testing.T) View {
	t.Helper()
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.views) == 0 {
		t.Fatal("no view emitted")
	}
	return v.views[len(v.views)-1]
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func startSession(t *testing.T, readerID string, reg *fakeRegistry, b *bus.Bus) (*viewSink, context.CancelFunc) {
	t.Helper()
	sink := &viewSink{}
	session := NewSession(models.Reader{ID: readerID, Name: "Reader " + readerID}, reg, b, window, interval, sink.emit)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = session.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("session did not stop after cancel")
		}
	})
	return sink, cancel
}

func TestInitialEmissionWithoutSignal(t *testing.T) {
	reg := newFakeRegistry()
	sink, _ := startSession(t, "reader-a", reg, bus.New())

	waitFor(t, func() bool { return sink.count() >= 1 }, "no initial emission")

	view := sink.lastView(t)
	if view.Reader.ID != "reader-a" {
		t.Errorf("view for reader %q, want reader-a", view.Reader.ID)
	}
	if len(view.Devices) != 0 {
		t.Errorf("initial presence set has %d entries, want 0", len(view.Devices))
	}
}

func TestSignalTriggersEmitOnChange(t *testing.T) {
	reg := newFakeRegistry()
	b := bus.New()
	sink, _ := startSession(t, "reader-a", reg, b)
	waitFor(t, func() bool { return sink.count() >= 1 }, "no initial emission")

	reg.upsert("reader-a", "dev-1", time.Now())
	b.Publish()

	waitFor(t, func() bool {
		return sink.count() >= 2 && sink.lastLen() == 1
	}, "detection never reached the view")

	view := sink.lastView(t)
	if view.Devices[0].ID != "dev-1" {
		t.Errorf("present device %q, want dev-1", view.Devices[0].ID)
	}
}

func TestUnrelatedReaderDoesNotEmit(t *testing.T) {
	reg := newFakeRegistry()
	b := bus.New()

	sinkA, _ := startSession(t, "reader-a", reg, b)
	sinkB, _ := startSession(t, "reader-b", reg, b)
	waitFor(t, func() bool { return sinkA.count() >= 1 && sinkB.count() >= 1 }, "no initial emissions")
	before := sinkB.count()

	// Detection at A wakes both sessions, but B's view is unchanged
	// and must not be re-emitted.
	reg.upsert("reader-a", "dev-1", time.Now())
	b.Publish()

	waitFor(t, func() bool {
		return sinkA.count() >= 2 && sinkA.lastLen() == 1
	}, "reader-a session never updated")

	// Give B several recompute cycles to misbehave.
	time.Sleep(5 * interval)
	if got := sinkB.count(); got != before {
		t.Errorf("reader-b emitted %d extra views for an unrelated detection", got-before)
	}
}

func TestEntryExpiresOnTickAlone(t *testing.T) {
	reg := newFakeRegistry()
	b := bus.New()

	// A detection close to the window's trailing edge: present now,
	// expired moments later with no further event.
	reg.upsert("reader-a", "dev-1", time.Now().Add(-window).Add(500*time.Millisecond))

	sink, _ := startSession(t, "reader-a", reg, b)

	waitFor(t, func() bool {
		return sink.count() >= 1 && sink.lastLen() == 1
	}, "device not present initially")

	waitFor(t, func() bool {
		return sink.lastLen() == 0
	}, "entry never expired without a signal")
}

func TestCancelReleasesSubscription(t *testing.T) {
	reg := newFakeRegistry()
	b := bus.New()
	sink, cancel := startSession(t, "reader-a", reg, b)
	waitFor(t, func() bool { return sink.count() >= 1 }, "no initial emission")

	cancel()
	// Cleanup asserts the Run goroutine actually returned; a publish
	// after teardown must not panic or deadlock.
	b.Publish()
}
