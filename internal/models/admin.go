package models

import "time"

// Admin roles.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super-admin"
)

// Admin is a portal operator. The document id matches the Firebase Auth UID.
type Admin struct {
	ID        string    `firestore:"-" json:"id"`
	FirstName string    `firestore:"firstName" json:"firstName"`
	LastName  string    `firestore:"lastName" json:"lastName"`
	Email     string    `firestore:"email" json:"email"`
	Role      string    `firestore:"role" json:"role"`
	Status    string    `firestore:"status" json:"status"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// DisplayName returns the "First Last (email)" form frozen into audit records.
func (a *Admin) DisplayName() string {
	return a.FirstName + " " + a.LastName + " (" + a.Email + ")"
}
