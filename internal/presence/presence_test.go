package presence

import (
	"testing"
	"time"

	"github.com/tagwatch/tagwatchgo/internal/models"
)

const window = 15 * time.Second

func record(deviceID string, detectedAt time.Time) models.DeviceLocation {
	return models.DeviceLocation{
		DeviceID:   deviceID,
		ReaderID:   "reader-1",
		DetectedAt: detectedAt,
		Device:     models.Device{ID: deviceID, TagID: "tag-" + deviceID, Name: "Device " + deviceID},
	}
}

func TestComputeWindowBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	records := []models.DeviceLocation{
		record("inside", now.Add(-14999*time.Millisecond)),
		record("boundary", now.Add(-15000*time.Millisecond)),
		record("stale", now.Add(-time.Minute)),
		record("fresh", now),
	}

	entries := Compute(records, now, window)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(entries), entries)
	}
	if entries[0].ID != "fresh" || entries[1].ID != "inside" {
		t.Errorf("unexpected entries: %q, %q", entries[0].ID, entries[1].ID)
	}
}

func TestComputeDropsMissingDeviceMetadata(t *testing.T) {
	now := time.Now()
	records := []models.DeviceLocation{
		{DeviceID: "orphan", ReaderID: "reader-1", DetectedAt: now},
		record("ok", now),
	}

	entries := Compute(records, now, window)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].ID != "ok" {
		t.Errorf("kept wrong entry: %q", entries[0].ID)
	}
}

func TestComputeSortsByDeviceID(t *testing.T) {
	now := time.Now()
	records := []models.DeviceLocation{
		record("charlie", now),
		record("alpha", now.Add(-time.Second)),
		record("bravo", now.Add(-2*time.Second)),
	}

	entries := Compute(records, now, window)
	want := []string{"alpha", "bravo", "charlie"}
	for i, id := range want {
		if entries[i].ID != id {
			t.Fatalf("entries[%d].ID = %q, want %q", i, entries[i].ID, id)
		}
	}
}

func TestComputeEmptyInput(t *testing.T) {
	entries := Compute(nil, time.Now(), window)
	if len(entries) != 0 {
		t.Fatalf("got %d entries from empty ledger", len(entries))
	}
}

func TestEqual(t *testing.T) {
	now := time.Now()
	a := Compute([]models.DeviceLocation{record("a", now), record("b", now)}, now, window)
	b := Compute([]models.DeviceLocation{record("b", now), record("a", now)}, now, window)
	if !Equal(a, b) {
		t.Error("identical sets compared unequal")
	}

	c := Compute([]models.DeviceLocation{record("a", now)}, now, window)
	if Equal(a, c) {
		t.Error("different-length sets compared equal")
	}

	d := Compute([]models.DeviceLocation{record("a", now), record("b", now.Add(-time.Second))}, now, window)
	if Equal(a, d) {
		t.Error("sets with different timestamps compared equal")
	}
}
