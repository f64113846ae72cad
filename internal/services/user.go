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

// UserService manages end-user accounts. Users are disabled rather than
// hard-deleted.
type UserService struct {
	store store.Store
	audit *AuditService
}

func NewUserService(st store.Store, audit *AuditService) *UserService {
	return &UserService{store: st, audit: audit}
}

// CreateUserInput is the admin-invited account creation payload.
type CreateUserInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Create provisions a new activated user with an empty device set.
func (s *UserService) Create(ctx context.Context, in CreateUserInput, actor Actor) (*models.User, error) {
	if in.FirstName == "" || in.Email == "" {
		return nil, apperr.Invalid("firstName and email are required")
	}

	now := time.Now().UTC()
	user := models.User{
		ID:        uuid.NewString(),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Devices:   []string{},
		Status:    models.UserStatusActivated,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, models.UsersCollection, user.ID, user); err != nil {
		return nil, apperr.Internal(err)
	}

	s.recordAudit(ctx, actor, "User Created", user.ID, "")
	return &user, nil
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	doc, err := s.store.Get(ctx, models.UsersCollection, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !doc.Exists {
		return nil, apperr.NotFound("user %s not found", id)
	}

	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, apperr.Internal(err)
	}
	user.ID = doc.ID
	return &user, nil
}

// List returns all users ordered by creation time, newest first.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	docs, err := s.store.List(ctx, models.UsersCollection)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	users := make([]models.User, 0, len(docs))
	for _, doc := range docs {
		var u models.User
		if err := doc.DataTo(&u); err != nil {
			return nil, apperr.Internal(err)
		}
		u.ID = doc.ID
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

// UpdateUserInput carries profile fields to change; empty fields are
// left untouched.
type UpdateUserInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

// Update changes profile fields on an existing user.
func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput, actor Actor) (*models.User, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	updates := []store.Update{}
	if in.FirstName != "" {
		updates = append(updates, store.Update{Path: "firstName", Value: in.FirstName})
	}
	if in.LastName != "" {
		updates = append(updates, store.Update{Path: "lastName", Value: in.LastName})
	}
	if in.Phone != "" {
		updates = append(updates, store.Update{Path: "phone", Value: in.Phone})
	}
	if len(updates) == 0 {
		return nil, apperr.Invalid("no fields to update")
	}
	updates = append(updates, store.Update{Path: "updatedAt", Value: time.Now().UTC()})

	if err := s.store.Update(ctx, models.UsersCollection, id, updates); err != nil {
		return nil, apperr.Internal(err)
	}

	s.recordAudit(ctx, actor, "User Updated", id, "")
	return s.Get(ctx, id)
}

// SetStatus activates or disables a user account.
func (s *UserService) SetStatus(ctx context.Context, id, status string, actor Actor, reason string) (*models.User, error) {
	if status != models.UserStatusActivated && status != models.UserStatusDisabled {
		return nil, apperr.Invalid("invalid user status %q", status)
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Status == status {
		return nil, apperr.Conflict("user %s is already %s", id, status)
	}

	now := time.Now().UTC()
	err = s.store.Update(ctx, models.UsersCollection, id, []store.Update{
		{Path: "status", Value: status},
		{Path: "updatedAt", Value: now},
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	user.Status = status
	user.UpdatedAt = now

	action := "User Activated"
	if status == models.UserStatusDisabled {
		action = "User Disabled"
	}
	s.recordAudit(ctx, actor, action, id, reason)
	return user, nil
}

func (s *UserService) recordAudit(ctx context.Context, actor Actor, action, target, reason string) {
	if _, err := s.audit.Record(ctx, actor, action, target, reason); err != nil {
		log.Printf("audit write failed after %q on %s: %v", action, target, err)
	}
}
