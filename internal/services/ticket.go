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

// TicketService manages support tickets and enforces the linear status
// lifecycle Open -> In-Progress -> Resolved.
type TicketService struct {
	store store.Store
	audit *AuditService
}

func NewTicketService(st store.Store, audit *AuditService) *TicketService {
	return &TicketService{store: st, audit: audit}
}

// Create opens a ticket for a user. The user's name and email are
// snapshotted onto the ticket at creation time and never re-derived.
func (s *TicketService) Create(ctx context.Context, userID, description, issueType, notes string) (*models.Ticket, error) {
	if description == "" {
		return nil, apperr.Invalid("description is required")
	}

	userDoc, err := s.store.Get(ctx, models.UsersCollection, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !userDoc.Exists {
		return nil, apperr.NotFound("user %s not found", userID)
	}
	var user models.User
	if err := userDoc.DataTo(&user); err != nil {
		return nil, apperr.Internal(err)
	}

	now := time.Now().UTC()
	ticket := models.Ticket{
		UserID:      userID,
		UserName:    user.FirstName + " " + user.LastName,
		Email:       user.Email,
		Description: description,
		IssueType:   issueType,
		Notes:       notes,
		Status:      models.TicketStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	id, err := s.store.Add(ctx, models.TicketsCollection, ticket)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	ticket.ID = id
	return &ticket, nil
}

// Get returns a single ticket.
func (s *TicketService) Get(ctx context.Context, id string) (*models.Ticket, error) {
	doc, err := s.store.Get(ctx, models.TicketsCollection, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !doc.Exists {
		return nil, apperr.NotFound("ticket %s not found", id)
	}

	var ticket models.Ticket
	if err := doc.DataTo(&ticket); err != nil {
		return nil, apperr.Internal(err)
	}
	ticket.ID = doc.ID
	return &ticket, nil
}

// List returns all tickets, newest first.
func (s *TicketService) List(ctx context.Context) ([]models.Ticket, error) {
	docs, err := s.store.List(ctx, models.TicketsCollection)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return decodeTickets(docs)
}

// ListByUser returns the tickets owned by one user, newest first.
func (s *TicketService) ListByUser(ctx context.Context, userID string) ([]models.Ticket, error) {
	docs, err := s.store.Query(ctx, models.TicketsCollection, []store.Filter{
		{Path: "userId", Op: "==", Value: userID},
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return decodeTickets(docs)
}

func decodeTickets(docs []store.Doc) ([]models.Ticket, error) {
	tickets := make([]models.Ticket, 0, len(docs))
	for _, doc := range docs {
		var t models.Ticket
		if err := doc.DataTo(&t); err != nil {
			return nil, apperr.Internal(err)
		}
		t.ID = doc.ID
		tickets = append(tickets, t)
	}
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})
	return tickets, nil
}

// UpdateStatus moves a ticket through its lifecycle. The target status
// must be a known literal, must differ from the current status, and a
// Resolved ticket accepts no further mutation. Re-setting the same
// status is rejected, not silently ignored.
func (s *TicketService) UpdateStatus(ctx context.Context, id, newStatus string, actor Actor) (*models.Ticket, error) {
	ticket, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !models.ValidTicketStatus(newStatus) {
		return nil, apperr.Invalid("invalid ticket status %q", newStatus)
	}
	if ticket.Status == newStatus {
		return nil, apperr.Invalid("ticket %s is already %s", id, newStatus)
	}
	if ticket.Status == models.TicketStatusResolved {
		return nil, apperr.Invalid("ticket %s is resolved and can no longer be updated", id)
	}

	now := time.Now().UTC()
	err = s.store.Update(ctx, models.TicketsCollection, id, []store.Update{
		{Path: "status", Value: newStatus},
		{Path: "updatedAt", Value: now},
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	ticket.Status = newStatus
	ticket.UpdatedAt = now

	s.recordAudit(ctx, actor, "Ticket Status Updated", id, "")
	return ticket, nil
}

// Delete removes a ticket regardless of its status.
func (s *TicketService) Delete(ctx context.Context, id string, actor Actor, reason string) error {
	doc, err := s.store.Get(ctx, models.TicketsCollection, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if !doc.Exists {
		return apperr.NotFound("ticket %s not found", id)
	}

	if err := s.store.Delete(ctx, models.TicketsCollection, id); err != nil {
		return apperr.Internal(err)
	}

	s.recordAudit(ctx, actor, "Ticket Deleted", id, reason)
	return nil
}

func (s *TicketService) recordAudit(ctx context.Context, actor Actor, action, target, reason string) {
	if _, err := s.audit.Record(ctx, actor, action, target, reason); err != nil {
		log.Printf("audit write failed after %q on %s: %v", action, target, err)
	}
}
