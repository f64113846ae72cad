package models

import "time"

// AuditLog is an append-only record of a mutating operation. PerformedBy
// is a display string resolved when the record is written, not an id:
// it is a deliberate point-in-time snapshot and is never updated.
type AuditLog struct {
	ID          string    `firestore:"-" json:"id"`
	PerformedBy string    `firestore:"performedBy" json:"performedBy"`
	Action      string    `firestore:"action" json:"action"`
	Target      string    `firestore:"target" json:"target"`
	Reason      string    `firestore:"reason,omitempty" json:"reason,omitempty"`
	Timestamp   time.Time `firestore:"timestamp" json:"timestamp"`
}
