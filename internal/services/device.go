package services

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/nexfleet/devicehub/internal/apperr"
	"github.com/nexfleet/devicehub/internal/models"
	"github.com/nexfleet/devicehub/internal/store"
)

// DeviceService manages device registration and removal. Pairing status
// is owned by the assignment workflow and is never set directly here
// beyond the initial "not paired".
type DeviceService struct {
	store store.Store
	audit *AuditService
}

func NewDeviceService(st store.Store, audit *AuditService) *DeviceService {
	return &DeviceService{store: st, audit: audit}
}

// Register creates a device. MAC ids are unique: a query pre-check
// rejects duplicates with Conflict. The check is best-effort since the
// document store offers no unique index; two racing registrations can
// still both pass it.
func (s *DeviceService) Register(ctx context.Context, macID, description string, actor Actor) (*models.Device, error) {
	if macID == "" {
		return nil, apperr.Invalid("macId is required")
	}

	existing, err := s.store.Query(ctx, models.DevicesCollection, []store.Filter{
		{Path: "macId", Op: "==", Value: macID},
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(existing) > 0 {
		return nil, apperr.Conflict("device with mac id %s already exists", macID)
	}

	now := time.Now().UTC()
	device := models.Device{
		ID:             uuid.NewString(),
		MacID:          macID,
		Description:    description,
		ConnectedUsers: []string{},
		Status:         models.DeviceStatusNotPaired,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.Create(ctx, models.DevicesCollection, device.ID, device); err != nil {
		return nil, apperr.Internal(err)
	}

	s.recordAudit(ctx, actor, "Device Registered", device.ID, "")
	return &device, nil
}

// Get returns a single device.
func (s *DeviceService) Get(ctx context.Context, id string) (*models.Device, error) {
	doc, err := s.store.Get(ctx, models.DevicesCollection, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !doc.Exists {
		return nil, apperr.NotFound("device %s not found", id)
	}

	var device models.Device
	if err := doc.DataTo(&device); err != nil {
		return nil, apperr.Internal(err)
	}
	device.ID = doc.ID
	return &device, nil
}

// List returns all devices, newest first.
func (s *DeviceService) List(ctx context.Context) ([]models.Device, error) {
	docs, err := s.store.List(ctx, models.DevicesCollection)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	devices := make([]models.Device, 0, len(docs))
	for _, doc := range docs {
		var d models.Device
		if err := doc.DataTo(&d); err != nil {
			return nil, apperr.Internal(err)
		}
		d.ID = doc.ID
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].CreatedAt.After(devices[j].CreatedAt)
	})
	return devices, nil
}

// Update changes the device description.
func (s *DeviceService) Update(ctx context.Context, id, description string, actor Actor) (*models.Device, error) {
	device, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err = s.store.Update(ctx, models.DevicesCollection, id, []store.Update{
		{Path: "description", Value: description},
		{Path: "updatedAt", Value: now},
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	device.Description = description
	device.UpdatedAt = now

	s.recordAudit(ctx, actor, "Device Updated", id, "")
	return device, nil
}

// Delete removes a device document.
func (s *DeviceService) Delete(ctx context.Context, id string, actor Actor, reason string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, models.DevicesCollection, id); err != nil {
		return apperr.Internal(err)
	}

	s.recordAudit(ctx, actor, "Device Deleted", id, reason)
	return nil
}

func (s *DeviceService) recordAudit(ctx context.Context, actor Actor, action, target, reason string) {
	if _, err := s.audit.Record(ctx, actor, action, target, reason); err != nil {
		log.Printf("audit write failed after %q on %s: %v", action, target, err)
	}
}
