// Package ingest applies incoming detection events to the location
// ledger and wakes live viewers afterwards.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tagwatch/tagwatchgo/internal/models"
)

// ErrUnknownDevice is returned when a detection names a tag no
// registered device carries. Nothing is written and no signal is
// published in that case.
var ErrUnknownDevice = errors.New("device tag not registered")

// Ledger is the slice of the registry the ingest path needs.
type Ledger interface {
	FindDeviceByTag(ctx context.Context, tag string) (*models.Device, error)
	UpsertDetection(ctx context.Context, deviceID, readerID string, at time.Time) error
}

// Publisher wakes subscribed live sessions after a successful write.
type Publisher interface {
	Publish()
}

// Service validates and records detection events
type Service struct {
	ledger Ledger
	bus    Publisher
}

// NewService creates a detection ingest service
func NewService(ledger Ledger, bus Publisher) *Service {
	return &Service{ledger: ledger, bus: bus}
}

// RecordDetection resolves tagID to a device, upserts its ledger row
// with readerID and at, and publishes one change signal. A zero at
// means the caller supplied no timestamp; the server clock at the
// moment of processing is used so "now" has a single source of truth.
//
// readerID is passed through uninterpreted: the source system never
// required it to name a registered reader, and that leniency is kept.
// A detection for a nonexistent reader is stored and simply feeds no
// live view.
//
// The signal is published strictly after the upsert returns, so a
// session waking on it reads the new state. On any failure the ledger
// is untouched and no signal goes out.
func (s *Service) RecordDetection(ctx context.Context, tagID, readerID string, at time.Time) error {
	device, err := s.ledger.FindDeviceByTag(ctx, tagID)
	if err != nil {
		return err
	}
	if device == nil {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, tagID)
	}

	if at.IsZero() {
		at = time.Now()
	}

	if err := s.ledger.UpsertDetection(ctx, device.ID, readerID, at); err != nil {
		return err
	}

	s.bus.Publish()
	return nil
}

// RecordDetectionByDeviceID is the legacy ingest variant: the caller
// already knows the device's primary id and skips tag resolution. The
// ledger and signal semantics are identical to RecordDetection.
func (s *Service) RecordDetectionByDeviceID(ctx context.Context, deviceID, readerID string, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}

	if err := s.ledger.UpsertDetection(ctx, deviceID, readerID, at); err != nil {
		return err
	}

	s.bus.Publish()
	return nil
}
