package services

import (
	"context"
	"sort"
	"time"

	"github.com/nexfleet/devicehub/internal/apperr"
	"github.com/nexfleet/devicehub/internal/models"
	"github.com/nexfleet/devicehub/internal/store"
)

// Actor is the identity attributed to a mutating operation. It is either
// a portal admin (resolved to a display string at record time) or the
// system itself for mutations no human initiated.
type Actor struct {
	adminID string
	system  bool
}

// AdminActor attributes an operation to the admin with the given id.
func AdminActor(id string) Actor {
	return Actor{adminID: id}
}

// SystemActor attributes an operation to the service itself.
func SystemActor() Actor {
	return Actor{system: true}
}

// AdminID returns the admin id and whether the actor is an admin.
func (a Actor) AdminID() (string, bool) {
	return a.adminID, !a.system
}

// AuditService appends immutable audit records. Records are never
// mutated or deleted by anything in the system.
type AuditService struct {
	store store.Store
}

func NewAuditService(st store.Store) *AuditService {
	return &AuditService{store: st}
}

// Record resolves the actor's display name and appends an audit record,
// returning the new record's id. PerformedBy is frozen at call time: a
// later rename of the admin does not rewrite history.
func (s *AuditService) Record(ctx context.Context, actor Actor, action, target, reason string) (string, error) {
	performedBy := "system"
	if adminID, ok := actor.AdminID(); ok {
		doc, err := s.store.Get(ctx, models.AdminsCollection, adminID)
		if err != nil {
			return "", apperr.Internal(err)
		}
		if !doc.Exists {
			return "", apperr.NotFound("admin %s not found", adminID)
		}
		var admin models.Admin
		if err := doc.DataTo(&admin); err != nil {
			return "", apperr.Internal(err)
		}
		performedBy = admin.DisplayName()
	}

	entry := models.AuditLog{
		PerformedBy: performedBy,
		Action:      action,
		Target:      target,
		Reason:      reason,
		Timestamp:   time.Now().UTC(),
	}

	id, err := s.store.Add(ctx, models.AuditLogsCollection, entry)
	if err != nil {
		return "", apperr.Internal(err)
	}
	return id, nil
}

// List returns all audit records, newest first.
func (s *AuditService) List(ctx context.Context) ([]models.AuditLog, error) {
	docs, err := s.store.List(ctx, models.AuditLogsCollection)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	logs := make([]models.AuditLog, 0, len(docs))
	for _, doc := range docs {
		var entry models.AuditLog
		if err := doc.DataTo(&entry); err != nil {
			return nil, apperr.Internal(err)
		}
		entry.ID = doc.ID
		logs = append(logs, entry)
	}

	sort.Slice(logs, func(i, j int) bool {
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})
	return logs, nil
}
