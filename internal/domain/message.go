package domain

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID        uuid.UUID `json:"id"`
	RoomID    uuid.UUID `json:"roomId"`
	SenderID  uuid.UUID `json:"senderId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	IsEdited  bool      `json:"isEdited"`
	// Joined fields
	SenderUsername string        `json:"senderUsername,omitempty"`
	ReadBy         []ReadReceipt `json:"readBy"`
}

// ReadReceipt records one user having read a message. Receipts are unique
// per user and ordered by arrival.
type ReadReceipt struct {
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username,omitempty"`
	ReadAt   time.Time `json:"readAt"`
}

// WasReadBy reports whether userID already appears in ReadBy.
func (m *Message) WasReadBy(userID uuid.UUID) bool {
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}
