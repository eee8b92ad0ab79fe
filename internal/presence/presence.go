// Package presence derives "devices currently at a reader" from the
// location ledger. The computation is a pure function over its inputs
// so the window semantics can be tested without a store or a clock.
package presence

import (
	"sort"
	"time"

	"github.com/tagwatch/tagwatchgo/internal/models"
)

// Entry is one device currently present at a reader: the device's
// display metadata plus when it was last seen. Derived at read time,
// never persisted.
type Entry struct {
	models.Device
	LastSeen time.Time `json:"dateTime"`
}

// Compute filters the given ledger rows to those still inside the
// window (now - detectedAt < window) and maps them to entries.
//
// The rows are expected to already belong to a single reader; any
// upstream time filter on the query is a read-volume optimization
// only, the window applied here is the authoritative boundary.
// Uniqueness per device holds because the ledger keeps at most one
// row per device. Rows missing device metadata are dropped rather
// than surfaced; a ledger row without its device is a data-integrity
// condition, not a reason to fail the view.
//
// Entries are sorted by device id. The contract leaves order open,
// but a deterministic order keeps the structural diff in the live
// session meaningful.
func Compute(records []models.DeviceLocation, now time.Time, window time.Duration) []Entry {
	entries := make([]Entry, 0, len(records))
	for _, record := range records {
		if now.Sub(record.DetectedAt) >= window {
			continue
		}
		if record.Device.ID == "" {
			continue
		}
		entries = append(entries, Entry{
			Device:   record.Device,
			LastSeen: record.DetectedAt,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})
	return entries
}

// Equal reports whether two presence sets are structurally identical.
func Equal(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || !a[i].LastSeen.Equal(b[i].LastSeen) {
			return false
		}
	}
	return true
}
