package models

import "time"

// Device pairing statuses, derived from ConnectedUsers cardinality.
const (
	DeviceStatusPaired    = "paired"
	DeviceStatusNotPaired = "not paired"
)

// Device is a registered hardware unit. Status is a pure function of
// ConnectedUsers: empty means "not paired", non-empty means "paired".
// It is always recomputed from the resulting membership, never flipped.
type Device struct {
	ID             string    `firestore:"-" json:"id"`
	MacID          string    `firestore:"macId" json:"macId"`
	Description    string    `firestore:"description" json:"description"`
	ConnectedUsers []string  `firestore:"connectedUsers" json:"connectedUsers"`
	Status         string    `firestore:"status" json:"status"`
	CreatedAt      time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// HasUser reports whether userID is in the device's connected-user set.
func (d *Device) HasUser(userID string) bool {
	for _, id := range d.ConnectedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// StatusFor returns the pairing status for a connected-user count.
func StatusFor(connectedUsers int) string {
	if connectedUsers > 0 {
		return DeviceStatusPaired
	}
	return DeviceStatusNotPaired
}
