package ws

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hub owns the room→connection fan-out sets. All membership mutation and
// every broadcast flows through one run loop consuming a single operation
// channel, so a connection is never mid-join and mid-leave at once and the
// fan-out sets always agree with each connection's current room.
type Hub struct {
	logger *zap.Logger

	// Owned by the run loop; never touched from other goroutines.
	clients map[uuid.UUID]*Client               // connectionID → client
	rooms   map[uuid.UUID]map[uuid.UUID]*Client // roomID → connectionID → client

	ops chan hubOp
}

// hubOp is the closed set of operations the run loop executes.
type hubOp interface{ isHubOp() }

type registerOp struct{ client *Client }

type unregisterOp struct{ client *Client }

type joinOp struct {
	client   *Client
	roomID   uuid.UUID
	roomName string
}

type leaveOp struct {
	client   *Client
	roomID   uuid.UUID
	roomName string
}

type broadcastOp struct {
	data []byte

	// Exactly one targeting mode is set.
	roomID  *uuid.UUID  // fan out to a room's connections
	userIDs []uuid.UUID // fan out to specific users, wherever connected
	all     bool        // fan out to every connection

	exclude uuid.UUID // connection to skip (uuid.Nil: none)
}

func (registerOp) isHubOp()   {}
func (unregisterOp) isHubOp() {}
func (joinOp) isHubOp()       {}
func (leaveOp) isHubOp()      {}
func (broadcastOp) isHubOp()  {}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[uuid.UUID]*Client),
		rooms:   make(map[uuid.UUID]map[uuid.UUID]*Client),
		ops:     make(chan hubOp, 256),
	}
}

// Run starts the Hub's event loop. Call this in a goroutine; cancel ctx to
// stop it.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-h.ops:
			switch op := op.(type) {
			case registerOp:
				h.handleRegister(op.client)
			case unregisterOp:
				h.handleUnregister(op.client)
			case joinOp:
				h.handleJoin(op.client, op.roomID, op.roomName)
			case leaveOp:
				h.handleLeave(op.client, op.roomID, op.roomName)
			case broadcastOp:
				h.handleBroadcast(op)
			}
		}
	}
}

func (h *Hub) Register(c *Client)   { h.ops <- registerOp{client: c} }
func (h *Hub) Unregister(c *Client) { h.ops <- unregisterOp{client: c} }

func (h *Hub) Join(c *Client, roomID uuid.UUID, roomName string) {
	h.ops <- joinOp{client: c, roomID: roomID, roomName: roomName}
}

func (h *Hub) Leave(c *Client, roomID uuid.UUID, roomName string) {
	h.ops <- leaveOp{client: c, roomID: roomID, roomName: roomName}
}

// BroadcastToRoom sends an event to every connection currently in the room.
func (h *Hub) BroadcastToRoom(roomID uuid.UUID, event *Event) {
	h.enqueueBroadcast(event, broadcastOp{roomID: &roomID})
}

// BroadcastToRoomExcept sends an event to every connection in the room but
// the given one.
func (h *Hub) BroadcastToRoomExcept(roomID uuid.UUID, exclude uuid.UUID, event *Event) {
	h.enqueueBroadcast(event, broadcastOp{roomID: &roomID, exclude: exclude})
}

// BroadcastToUsers sends an event to every connection belonging to one of
// the given users.
func (h *Hub) BroadcastToUsers(userIDs []uuid.UUID, event *Event) {
	h.enqueueBroadcast(event, broadcastOp{userIDs: userIDs})
}

// BroadcastToAll sends an event to every connected client.
func (h *Hub) BroadcastToAll(event *Event) {
	h.enqueueBroadcast(event, broadcastOp{all: true})
}

func (h *Hub) enqueueBroadcast(event *Event, op broadcastOp) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("ws hub: marshal error", zap.Error(err))
		return
	}
	op.data = data
	h.ops <- op
}

func (h *Hub) handleRegister(c *Client) {
	h.clients[c.id] = c
	h.logger.Info("ws hub: client connected",
		zap.String("connection_id", c.id.String()),
		zap.String("username", c.identity.Username),
		zap.Int("total", len(h.clients)))
}

func (h *Hub) handleUnregister(c *Client) {
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	// Disconnect behaves as an explicit leave for whatever room the
	// connection occupies.
	h.detachFromRoom(c)
	delete(h.clients, c.id)
	close(c.send)
	close(c.done)
	h.logger.Info("ws hub: client disconnected",
		zap.String("connection_id", c.id.String()),
		zap.String("username", c.identity.Username),
		zap.Int("total", len(h.clients)))
}

func (h *Hub) handleJoin(c *Client, roomID uuid.UUID, roomName string) {
	// The client may have been dropped (slow consumer, disconnect) after its
	// read pump queued this op; its channels are closed, so it must never
	// re-enter a fan-out set.
	if _, ok := h.clients[c.id]; !ok {
		return
	}

	if cur, ok := c.Room(); ok && cur == roomID {
		// Idempotent join: re-ack without side effects.
		c.enqueueEvent(EventTypeRoomJoined, RoomAckPayload{RoomID: roomID, Name: roomName})
		return
	}

	// Leaving the old room happens before any join side effect fires.
	h.detachFromRoom(c)

	set, ok := h.rooms[roomID]
	if !ok {
		set = make(map[uuid.UUID]*Client)
		h.rooms[roomID] = set
	}
	set[c.id] = c
	c.setRoom(&roomID)

	h.logger.Info("ws hub: joined room",
		zap.String("username", c.identity.Username),
		zap.String("room", roomName))

	c.enqueueEvent(EventTypeRoomJoined, RoomAckPayload{RoomID: roomID, Name: roomName})
	h.fanOut(set, uuid.Nil, EventTypeUserJoinedRoom, UserJoinedRoomPayload{
		Username: c.identity.Username,
		RoomID:   roomID,
	})
}

func (h *Hub) handleLeave(c *Client, roomID uuid.UUID, roomName string) {
	if _, ok := h.clients[c.id]; !ok {
		return
	}

	if set, ok := h.rooms[roomID]; ok {
		delete(set, c.id)
		if len(set) == 0 {
			delete(h.rooms, roomID)
		}
	}
	if cur, ok := c.Room(); ok && cur == roomID {
		c.setRoom(nil)
	}

	c.enqueueEvent(EventTypeRoomLeft, RoomAckPayload{RoomID: roomID, Name: roomName})
	if set, ok := h.rooms[roomID]; ok {
		h.fanOut(set, uuid.Nil, EventTypeUserLeft, UserLeftPayload{Username: c.identity.Username})
	}
}

// detachFromRoom removes c from its current room's fan-out set and tells the
// remaining members. No-op for idle connections.
func (h *Hub) detachFromRoom(c *Client) {
	roomID, ok := c.Room()
	if !ok {
		return
	}
	if set, ok := h.rooms[roomID]; ok {
		delete(set, c.id)
		if len(set) == 0 {
			delete(h.rooms, roomID)
		} else {
			h.fanOut(set, uuid.Nil, EventTypeUserLeft, UserLeftPayload{Username: c.identity.Username})
		}
	}
	c.setRoom(nil)
}

func (h *Hub) handleBroadcast(op broadcastOp) {
	switch {
	case op.roomID != nil:
		set, ok := h.rooms[*op.roomID]
		if !ok {
			return
		}
		h.deliver(set, op.exclude, op.data)
	case op.userIDs != nil:
		targets := make(map[uuid.UUID]struct{}, len(op.userIDs))
		for _, id := range op.userIDs {
			targets[id] = struct{}{}
		}
		for _, c := range h.clients {
			if _, ok := targets[c.identity.UserID]; ok {
				h.send(c, op.data)
			}
		}
	case op.all:
		h.deliver(h.clients, op.exclude, op.data)
	}
}

func (h *Hub) fanOut(set map[uuid.UUID]*Client, exclude uuid.UUID, eventType string, payload any) {
	evt, err := NewEvent(eventType, payload)
	if err != nil {
		h.logger.Error("ws hub: marshal error", zap.Error(err))
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("ws hub: marshal error", zap.Error(err))
		return
	}
	h.deliver(set, exclude, data)
}

func (h *Hub) deliver(set map[uuid.UUID]*Client, exclude uuid.UUID, data []byte) {
	var dropped []*Client
	for id, c := range set {
		if id == exclude {
			continue
		}
		if !h.send(c, data) {
			dropped = append(dropped, c)
		}
	}
	// A full send buffer means a dead or stalled consumer; cut it loose so
	// it never lingers as a dangling fan-out target.
	for _, c := range dropped {
		h.handleUnregister(c)
	}
}

func (h *Hub) send(c *Client, data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}
