package models

import "time"

// Collection names in the document store.
const (
	UsersCollection     = "users"
	DevicesCollection   = "devices"
	TicketsCollection   = "tickets"
	AdminsCollection    = "admins"
	AuditLogsCollection = "auditLogs"
)

// User statuses. Users are disabled, never hard-deleted.
const (
	UserStatusActivated = "activated"
	UserStatusDisabled  = "disabled"
)

// User is an end-user document. Devices holds the ids of devices
// currently assigned to the user; membership is the invariant, order
// is irrelevant.
type User struct {
	ID        string    `firestore:"-" json:"id"`
	FirstName string    `firestore:"firstName" json:"firstName"`
	LastName  string    `firestore:"lastName" json:"lastName"`
	Email     string    `firestore:"email" json:"email"`
	Phone     string    `firestore:"phone" json:"phone"`
	Devices   []string  `firestore:"devices" json:"devices"`
	Status    string    `firestore:"status" json:"status"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// DisplayName returns the "First Last (email)" form used in audit records.
func (u *User) DisplayName() string {
	return u.FirstName + " " + u.LastName + " (" + u.Email + ")"
}

// HasDevice reports whether deviceID is in the user's device set.
func (u *User) HasDevice(deviceID string) bool {
	for _, id := range u.Devices {
		if id == deviceID {
			return true
		}
	}
	return false
}
