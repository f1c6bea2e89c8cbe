package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parleychat/parley/internal/domain"
	"github.com/parleychat/parley/internal/service"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	sendBufSize  = 256
)

// Identity is the authenticated user bound to a connection at handshake.
type Identity struct {
	UserID   uuid.UUID
	Username string
}

// Services are the collaborators the realtime layer drives on behalf of a
// connection.
type Services struct {
	Rooms    *service.RoomService
	Messages *service.MessageService
}

// Client represents a single realtime connection. A connection belongs to at
// most one room at a time; currentRoom is mutated only by the hub run loop
// through join/leave.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	services Services
	logger   *zap.Logger

	id       uuid.UUID
	identity Identity

	mu          sync.RWMutex
	currentRoom *uuid.UUID

	send chan []byte
	done chan struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, identity Identity, services Services, logger *zap.Logger) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		services: services,
		logger:   logger,
		id:       uuid.New(),
		identity: identity,
		send:     make(chan []byte, sendBufSize),
		done:     make(chan struct{}),
	}
}

// Room returns the connection's current room, if any.
func (c *Client) Room() (uuid.UUID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.currentRoom == nil {
		return uuid.Nil, false
	}
	return *c.currentRoom, true
}

func (c *Client) setRoom(roomID *uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentRoom = roomID
}

// ReadPump reads intents from the connection and dispatches them. It returns
// on disconnect, which releases room membership via the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var event Event
		err := wsjson.Read(context.Background(), c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				c.logger.Info("ws: client disconnected", zap.String("username", c.identity.Username))
			} else {
				c.logger.Warn("ws: read error", zap.String("username", c.identity.Username), zap.Error(err))
			}
			return
		}

		c.handleIntent(&event)
	}
}

// WritePump writes queued events to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.logger.Warn("ws: write error", zap.String("username", c.identity.Username), zap.Error(err))
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

// handleIntent routes one incoming client intent. Intents for a single
// connection run here sequentially; handlers for different connections may
// interleave at persistence await points.
func (c *Client) handleIntent(event *Event) {
	ctx := context.Background()

	switch event.Type {
	case EventTypeJoinRoom:
		var p JoinRoomPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendRoomError("Invalid joinRoom payload")
			return
		}
		room, err := c.services.Rooms.Get(ctx, c.identity.UserID, p.RoomID)
		if err != nil {
			c.sendRoomError(domain.MessageOf(err))
			return
		}
		c.hub.Join(c, room.ID, room.Name)

	case EventTypeLeaveRoom:
		var p LeaveRoomPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendRoomError("Invalid leaveRoom payload")
			return
		}
		room, err := c.services.Rooms.Get(ctx, c.identity.UserID, p.RoomID)
		if err != nil {
			c.sendRoomError(domain.MessageOf(err))
			return
		}
		c.hub.Leave(c, room.ID, room.Name)

	case EventTypeChatMessage:
		var p ChatMessagePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendMessageError("Invalid chatMessage payload")
			return
		}
		if _, err := c.services.Messages.Send(ctx, c.identity.UserID, p.Room, p.Content); err != nil {
			c.sendMessageError(domain.MessageOf(err))
		}

	case EventTypeEditMessage:
		var p EditMessagePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendMessageError("Invalid editMessage payload")
			return
		}
		if _, err := c.services.Messages.Edit(ctx, c.identity.UserID, p.MessageID, p.Content); err != nil {
			c.sendMessageError(domain.MessageOf(err))
		}

	case EventTypeDeleteMessage:
		var p DeleteMessagePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendMessageError("Invalid deleteMessage payload")
			return
		}
		if err := c.services.Messages.Delete(ctx, c.identity.UserID, p.MessageID); err != nil {
			c.sendMessageError(domain.MessageOf(err))
		}

	case EventTypeTyping:
		var p TypingPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return // advisory, droppable
		}
		evt, err := NewEvent(EventTypeUserTyping, UserTypingPayload{
			Username: c.identity.Username,
			IsTyping: p.IsTyping,
		})
		if err != nil {
			return
		}
		// Never echoed back to the sender.
		c.hub.BroadcastToRoomExcept(p.Room, c.id, evt)

	case EventTypeMarkMessageRead:
		var p MarkMessageReadPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendMessageError("Invalid markMessageRead payload")
			return
		}
		if err := c.services.Messages.MarkRead(ctx, c.identity.UserID, c.identity.Username, p.MessageID); err != nil {
			c.sendMessageError(domain.MessageOf(err))
		}

	default:
		c.sendMessageError("Unknown event type: " + event.Type)
	}
}

func (c *Client) sendRoomError(message string) {
	c.enqueueEvent(EventTypeRoomError, RoomErrorPayload{Error: message})
}

func (c *Client) sendMessageError(message string) {
	c.enqueueEvent(EventTypeMessageError, MessageErrorPayload{Error: message})
}

func (c *Client) enqueueEvent(eventType string, payload any) {
	evt, err := NewEvent(eventType, payload)
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
