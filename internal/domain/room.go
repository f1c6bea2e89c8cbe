package domain

import (
	"time"

	"github.com/google/uuid"
)

type Room struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	IsPrivate   bool      `json:"isPrivate"`
	CreatedBy   uuid.UUID `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	// Joined fields
	CreatorUsername string      `json:"creatorUsername,omitempty"`
	MemberIDs       []uuid.UUID `json:"members,omitempty"`
}

// IsMember reports whether userID is in the room's loaded member list.
func (r *Room) IsMember(userID uuid.UUID) bool {
	for _, id := range r.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type RoomMember struct {
	RoomID   uuid.UUID `json:"roomId"`
	UserID   uuid.UUID `json:"userId"`
	JoinedAt time.Time `json:"joinedAt"`
	// Joined fields
	Username string `json:"username,omitempty"`
}
