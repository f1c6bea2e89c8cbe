package ws

import (
	"github.com/google/uuid"
	"github.com/parleychat/parley/internal/domain"
	"github.com/parleychat/parley/internal/service"
	"go.uber.org/zap"
)

// HubNotifier implements service.Notifier using the realtime Hub.
type HubNotifier struct {
	hub    *Hub
	logger *zap.Logger
}

func NewHubNotifier(hub *Hub, logger *zap.Logger) *HubNotifier {
	return &HubNotifier{hub: hub, logger: logger}
}

func (n *HubNotifier) MessageCreated(msg *domain.Message) {
	evt, err := NewEvent(EventTypeMessage, msg)
	if err != nil {
		n.logger.Error("ws notifier: marshal error", zap.Error(err))
		return
	}
	// The sender receives its own message back; that confirms the write.
	n.hub.BroadcastToRoom(msg.RoomID, evt)
}

func (n *HubNotifier) MessageUpdated(msg *domain.Message) {
	evt, err := NewEvent(EventTypeMessageUpdated, msg)
	if err != nil {
		n.logger.Error("ws notifier: marshal error", zap.Error(err))
		return
	}
	n.hub.BroadcastToRoom(msg.RoomID, evt)
}

func (n *HubNotifier) MessageDeleting(roomID, messageID uuid.UUID) {
	evt, err := NewEvent(EventTypeMessageDeleting, MessageIDPayload{MessageID: messageID})
	if err != nil {
		n.logger.Error("ws notifier: marshal error", zap.Error(err))
		return
	}
	n.hub.BroadcastToRoom(roomID, evt)
}

func (n *HubNotifier) MessageDeleted(roomID, messageID uuid.UUID) {
	evt, err := NewEvent(EventTypeMessageDeleted, MessageIDPayload{MessageID: messageID})
	if err != nil {
		n.logger.Error("ws notifier: marshal error", zap.Error(err))
		return
	}
	n.hub.BroadcastToRoom(roomID, evt)
}

func (n *HubNotifier) MessageRead(roomID uuid.UUID, read service.ReadEvent) {
	evt, err := NewEvent(EventTypeMessageRead, read)
	if err != nil {
		n.logger.Error("ws notifier: marshal error", zap.Error(err))
		return
	}
	n.hub.BroadcastToRoom(roomID, evt)
}

// RoomCreated announces a new room. Private room existence is disclosed only
// to the room's members; public rooms go to every connected client.
func (n *HubNotifier) RoomCreated(room *domain.Room) {
	evt, err := NewEvent(EventTypeNewRoom, NewRoomPayload{
		Room:      room,
		IsPrivate: room.IsPrivate,
		CreatedBy: room.CreatorUsername,
	})
	if err != nil {
		n.logger.Error("ws notifier: marshal error", zap.Error(err))
		return
	}

	if room.IsPrivate {
		n.hub.BroadcastToUsers(room.MemberIDs, evt)
		return
	}
	n.hub.BroadcastToAll(evt)
}
