package services

import (
	"context"
	"log"
	"time"

	"github.com/nexfleet/devicehub/internal/apperr"
	"github.com/nexfleet/devicehub/internal/models"
	"github.com/nexfleet/devicehub/internal/store"
)

// AssignmentService links and unlinks users and devices bidirectionally.
// Both sides of the link are written in one atomic batch, so no partial
// assignment is ever observable. Safety across concurrent calls comes
// from the store's own batch atomicity; there is no cross-call locking.
type AssignmentService struct {
	store store.Store
	audit *AuditService
}

func NewAssignmentService(st store.Store, audit *AuditService) *AssignmentService {
	return &AssignmentService{store: st, audit: audit}
}

// Assign links a user and a device. Fails Conflict if either side of
// the link already exists; the device side is checked first.
func (s *AssignmentService) Assign(ctx context.Context, userID, deviceID string, actor Actor, reason string) error {
	user, device, err := s.fetchPair(ctx, userID, deviceID)
	if err != nil {
		return err
	}

	if device.HasUser(userID) {
		return apperr.Conflict("device %s is already assigned to user %s", deviceID, userID)
	}
	if user.HasDevice(deviceID) {
		return apperr.Conflict("user %s already has device %s assigned", userID, deviceID)
	}

	now := time.Now().UTC()
	err = s.store.Batch(ctx, []store.Write{
		{
			Collection: models.DevicesCollection,
			ID:         deviceID,
			Updates: []store.Update{
				{Path: "connectedUsers", Value: store.ArrayUnion(userID)},
				{Path: "status", Value: models.DeviceStatusPaired},
				{Path: "updatedAt", Value: now},
			},
		},
		{
			Collection: models.UsersCollection,
			ID:         userID,
			Updates: []store.Update{
				{Path: "devices", Value: store.ArrayUnion(deviceID)},
				{Path: "updatedAt", Value: now},
			},
		},
	})
	if err != nil {
		return apperr.Internal(err)
	}

	s.recordAudit(ctx, actor, "device assigned", deviceID, reason)
	return nil
}

// Unassign removes the link from both documents in one atomic batch and
// recomputes the device status from the resulting membership, so a
// device keeps its "paired" status while other users remain connected.
func (s *AssignmentService) Unassign(ctx context.Context, userID, deviceID string, actor Actor, reason string) error {
	_, device, err := s.fetchPair(ctx, userID, deviceID)
	if err != nil {
		return err
	}

	if !device.HasUser(userID) {
		return apperr.Conflict("device %s is not assigned to user %s", deviceID, userID)
	}

	now := time.Now().UTC()
	err = s.store.Batch(ctx, []store.Write{
		{
			Collection: models.DevicesCollection,
			ID:         deviceID,
			Updates: []store.Update{
				{Path: "connectedUsers", Value: store.ArrayRemove(userID)},
				{Path: "status", Value: models.StatusFor(len(device.ConnectedUsers) - 1)},
				{Path: "updatedAt", Value: now},
			},
		},
		{
			Collection: models.UsersCollection,
			ID:         userID,
			Updates: []store.Update{
				{Path: "devices", Value: store.ArrayRemove(deviceID)},
				{Path: "updatedAt", Value: now},
			},
		},
	})
	if err != nil {
		return apperr.Internal(err)
	}

	s.recordAudit(ctx, actor, "device unassigned", deviceID, reason)
	return nil
}

func (s *AssignmentService) fetchPair(ctx context.Context, userID, deviceID string) (*models.User, *models.Device, error) {
	userDoc, err := s.store.Get(ctx, models.UsersCollection, userID)
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}
	if !userDoc.Exists {
		return nil, nil, apperr.NotFound("user %s not found", userID)
	}

	deviceDoc, err := s.store.Get(ctx, models.DevicesCollection, deviceID)
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}
	if !deviceDoc.Exists {
		return nil, nil, apperr.NotFound("device %s not found", deviceID)
	}

	var user models.User
	if err := userDoc.DataTo(&user); err != nil {
		return nil, nil, apperr.Internal(err)
	}
	user.ID = userDoc.ID

	var device models.Device
	if err := deviceDoc.DataTo(&device); err != nil {
		return nil, nil, apperr.Internal(err)
	}
	device.ID = deviceDoc.ID

	return &user, &device, nil
}

// recordAudit writes the audit side effect of a committed assignment
// change. The mutation is already durable at this point, so a failed
// audit write is logged and does not fail the operation.
func (s *AssignmentService) recordAudit(ctx context.Context, actor Actor, action, target, reason string) {
	if _, err := s.audit.Record(ctx, actor, action, target, reason); err != nil {
		log.Printf("audit write failed after %q on %s: %v", action, target, err)
	}
}
