package services

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/nexfleet/devicehub/internal/apperr"
	"github.com/nexfleet/devicehub/internal/models"
	"github.com/nexfleet/devicehub/internal/store"
)

// AdminService manages portal operator accounts. Admin documents are
// keyed by the external auth identity (Firebase Auth UID) so the auth
// middleware can resolve the acting admin directly from a verified token.
type AdminService struct {
	store store.Store
	audit *AuditService
}

func NewAdminService(st store.Store, audit *AuditService) *AdminService {
	return &AdminService{store: st, audit: audit}
}

// CreateAdminInput is the super-admin-initiated admin creation payload.
// ID must match the new admin's external auth identity.
type CreateAdminInput struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// Create provisions a new admin account.
func (s *AdminService) Create(ctx context.Context, in CreateAdminInput, actor Actor) (*models.Admin, error) {
	if in.ID == "" || in.Email == "" {
		return nil, apperr.Invalid("id and email are required")
	}
	if in.Role != models.RoleAdmin && in.Role != models.RoleSuperAdmin {
		return nil, apperr.Invalid("invalid admin role %q", in.Role)
	}

	doc, err := s.store.Get(ctx, models.AdminsCollection, in.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if doc.Exists {
		return nil, apperr.Conflict("admin %s already exists", in.ID)
	}

	now := time.Now().UTC()
	admin := models.Admin{
		ID:        in.ID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Role:      in.Role,
		Status:    models.UserStatusActivated,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, models.AdminsCollection, admin.ID, admin); err != nil {
		return nil, apperr.Internal(err)
	}

	s.recordAudit(ctx, actor, "Admin Created", admin.ID, "")
	return &admin, nil
}

// Get returns a single admin.
func (s *AdminService) Get(ctx context.Context, id string) (*models.Admin, error) {
	doc, err := s.store.Get(ctx, models.AdminsCollection, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !doc.Exists {
		return nil, apperr.NotFound("admin %s not found", id)
	}

	var admin models.Admin
	if err := doc.DataTo(&admin); err != nil {
		return nil, apperr.Internal(err)
	}
	admin.ID = doc.ID
	return &admin, nil
}

// List returns all admins, newest first.
func (s *AdminService) List(ctx context.Context) ([]models.Admin, error) {
	docs, err := s.store.List(ctx, models.AdminsCollection)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	admins := make([]models.Admin, 0, len(docs))
	for _, doc := range docs {
		var a models.Admin
		if err := doc.DataTo(&a); err != nil {
			return nil, apperr.Internal(err)
		}
		a.ID = doc.ID
		admins = append(admins, a)
	}
	sort.Slice(admins, func(i, j int) bool {
		return admins[i].CreatedAt.After(admins[j].CreatedAt)
	})
	return admins, nil
}

// SetStatus activates or disables an admin account. Admins are never
// hard-deleted.
func (s *AdminService) SetStatus(ctx context.Context, id, status string, actor Actor, reason string) (*models.Admin, error) {
	if status != models.UserStatusActivated && status != models.UserStatusDisabled {
		return nil, apperr.Invalid("invalid admin status %q", status)
	}

	admin, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if admin.Status == status {
		return nil, apperr.Conflict("admin %s is already %s", id, status)
	}

	now := time.Now().UTC()
	err = s.store.Update(ctx, models.AdminsCollection, id, []store.Update{
		{Path: "status", Value: status},
		{Path: "updatedAt", Value: now},
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	admin.Status = status
	admin.UpdatedAt = now

	action := "Admin Activated"
	if status == models.UserStatusDisabled {
		action = "Admin Disabled"
	}
	s.recordAudit(ctx, actor, action, id, reason)
	return admin, nil
}

func (s *AdminService) recordAudit(ctx context.Context, actor Actor, action, target, reason string) {
	if _, err := s.audit.Record(ctx, actor, action, target, reason); err != nil {
		log.Printf("audit write failed after %q on %s: %v", action, target, err)
	}
}
