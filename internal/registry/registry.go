package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tagwatch/tagwatchgo/internal/database"
	"github.com/tagwatch/tagwatchgo/internal/models"
)

// Registry is the durable store for readers, devices and the location
// ledger. The presence core consumes it through narrow interfaces; the
// CRUD methods back the plain record-management endpoints.
type Registry struct {
	db *database.DB
}

// New creates a Registry on top of the given database
func New(db *database.DB) *Registry {
	return &Registry{db: db}
}

// FindDeviceByTag resolves a device by its tag code.
// Returns (nil, nil) when no device carries the tag.
func (r *Registry) FindDeviceByTag(ctx context.Context, tag string) (*models.Device, error) {
	var device models.Device
	err := r.db.WithContext(ctx).Where("tag_id = ?", tag).First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("device lookup failed: %w", err)
	}
	return &device, nil
}

// GetDevice fetches a device by primary id.
// Returns (nil, nil) when absent.
func (r *Registry) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	var device models.Device
	err := r.db.WithContext(ctx).First(&device, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("device lookup failed: %w", err)
	}
	return &device, nil
}

// UpsertDetection writes the ledger row for a device: insert on first
// detection, otherwise replace reader and timestamp. The ON CONFLICT
// clause makes the write atomic at the database, so detections for
// distinct devices never contend and concurrent detections for the
// same device resolve last-write-wins by commit order.
func (r *Registry) UpsertDetection(ctx context.Context, deviceID, readerID string, at time.Time) error {
	record := models.DeviceLocation{
		DeviceID:   deviceID,
		ReaderID:   readerID,
		DetectedAt: at,
	}
	err := r.db.WithContext(ctx).
		Omit("Device").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "device_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"reader_id", "detected_at"}),
		}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("detection upsert failed: %w", err)
	}
	return nil
}

// ListDetections returns the ledger rows for a reader with timestamps
// at or after since, device metadata preloaded. The caller's window
// filter is authoritative; since is only a coarse read-volume limit
// and must never be tighter than the presence window.
func (r *Registry) ListDetections(ctx context.Context, readerID string, since time.Time) ([]models.DeviceLocation, error) {
	var records []models.DeviceLocation
	err := r.db.WithContext(ctx).
		Preload("Device").
		Where("reader_id = ? AND detected_at >= ?", readerID, since).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("detection query failed: %w", err)
	}
	return records, nil
}

// CreateDevice registers a new device, assigning an id when absent
func (r *Registry) CreateDevice(ctx context.Context, device *models.Device) error {
	if device.ID == "" {
		device.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(device).Error; err != nil {
		return fmt.Errorf("device create failed: %w", err)
	}
	return nil
}

// ListDevices returns all registered devices
func (r *Registry) ListDevices(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device
	if err := r.db.WithContext(ctx).Order("created_at").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("device list failed: %w", err)
	}
	return devices, nil
}

// DeleteDevice removes a device and, via the ledger's FK cascade, its
// current location row.
func (r *Registry) DeleteDevice(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Device{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("device delete failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateReader registers a new reader, assigning an id when absent
func (r *Registry) CreateReader(ctx context.Context, reader *models.Reader) error {
	if reader.ID == "" {
		reader.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(reader).Error; err != nil {
		return fmt.Errorf("reader create failed: %w", err)
	}
	return nil
}

// GetReader fetches a reader by id. Returns (nil, nil) when absent.
func (r *Registry) GetReader(ctx context.Context, id string) (*models.Reader, error) {
	var reader models.Reader
	err := r.db.WithContext(ctx).First(&reader, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reader lookup failed: %w", err)
	}
	return &reader, nil
}

// ListReaders returns all registered readers
func (r *Registry) ListReaders(ctx context.Context) ([]models.Reader, error) {
	var readers []models.Reader
	if err := r.db.WithContext(ctx).Order("created_at").Find(&readers).Error; err != nil {
		return nil, fmt.Errorf("reader list failed: %w", err)
	}
	return readers, nil
}

// DeleteReader removes a reader. Ledger rows naming it are left in
// place; they expire out of every presence window on their own.
func (r *Registry) DeleteReader(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Reader{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("reader delete failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
