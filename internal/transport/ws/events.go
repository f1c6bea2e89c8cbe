package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/parleychat/parley/internal/domain"
)

// Event types - Client → Server
const (
	EventTypeJoinRoom        = "joinRoom"
	EventTypeLeaveRoom       = "leaveRoom"
	EventTypeChatMessage     = "chatMessage"
	EventTypeEditMessage     = "editMessage"
	EventTypeDeleteMessage   = "deleteMessage"
	EventTypeTyping          = "typing"
	EventTypeMarkMessageRead = "markMessageRead"
)

// Event types - Server → Client
const (
	EventTypeRoomJoined      = "roomJoined"
	EventTypeRoomLeft        = "roomLeft"
	EventTypeRoomError       = "roomError"
	EventTypeUserJoinedRoom  = "userJoinedRoom"
	EventTypeUserLeft        = "userLeft"
	EventTypeMessage         = "message"
	EventTypeMessageUpdated  = "messageUpdated"
	EventTypeMessageDeleting = "messageDeleting"
	EventTypeMessageDeleted  = "messageDeleted"
	EventTypeMessageError    = "messageError"
	EventTypeUserTyping      = "userTyping"
	EventTypeMessageRead     = "messageRead"
	EventTypeNewRoom         = "newRoom"
)

// Event is the base envelope for all realtime messages.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

type JoinRoomPayload struct {
	RoomID uuid.UUID `json:"roomId"`
}

type LeaveRoomPayload struct {
	RoomID uuid.UUID `json:"roomId"`
}

type ChatMessagePayload struct {
	Room    uuid.UUID `json:"room"`
	Content string    `json:"content"`
}

type EditMessagePayload struct {
	MessageID uuid.UUID `json:"messageId"`
	Content   string    `json:"content"`
	Room      uuid.UUID `json:"room"`
}

type DeleteMessagePayload struct {
	MessageID uuid.UUID `json:"messageId"`
	Room      uuid.UUID `json:"room"`
}

type TypingPayload struct {
	Room     uuid.UUID `json:"room"`
	IsTyping bool      `json:"isTyping"`
}

type MarkMessageReadPayload struct {
	MessageID uuid.UUID `json:"messageId"`
}

// --- Server → Client payloads ---

// RoomAckPayload acknowledges a join or leave to the issuing connection.
type RoomAckPayload struct {
	RoomID uuid.UUID `json:"roomId"`
	Name   string    `json:"name"`
}

type RoomErrorPayload struct {
	Error string `json:"error"`
}

type UserJoinedRoomPayload struct {
	Username string    `json:"username"`
	RoomID   uuid.UUID `json:"roomId"`
}

type UserLeftPayload struct {
	Username string `json:"username"`
}

type MessageIDPayload struct {
	MessageID uuid.UUID `json:"messageId"`
}

type MessageErrorPayload struct {
	Error string `json:"error"`
}

type UserTypingPayload struct {
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

type NewRoomPayload struct {
	Room      *domain.Room `json:"room"`
	IsPrivate bool         `json:"isPrivate"`
	CreatedBy string       `json:"createdBy"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}
