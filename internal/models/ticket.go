package models

import "time"

// Ticket statuses form a linear lifecycle: Open -> In-Progress -> Resolved.
// Resolved is terminal.
const (
	TicketStatusOpen       = "Open"
	TicketStatusInProgress = "In-Progress"
	TicketStatusResolved   = "Resolved"
)

// ValidTicketStatus reports whether s is one of the three status literals.
func ValidTicketStatus(s string) bool {
	return s == TicketStatusOpen || s == TicketStatusInProgress || s == TicketStatusResolved
}

// Ticket is a support request. UserName and Email are snapshots of the
// owning user taken at creation time and are never re-derived.
type Ticket struct {
	ID          string    `firestore:"-" json:"id"`
	UserID      string    `firestore:"userId" json:"userId"`
	UserName    string    `firestore:"userName" json:"userName"`
	Email       string    `firestore:"email" json:"email"`
	Description string    `firestore:"description" json:"description"`
	IssueType   string    `firestore:"issueType" json:"issueType"`
	Notes       string    `firestore:"notes" json:"notes"`
	Status      string    `firestore:"status" json:"status"`
	CreatedAt   time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt" json:"updatedAt"`
}
