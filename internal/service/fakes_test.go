package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parleychat/parley/internal/domain"
)

// In-memory repository fakes. They mirror the postgres semantics the
// services rely on: lookups return (nil, nil) on absence, membership
// mutations report whether a row changed, and read receipts are unique per
// user.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) delete(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
}

type fakeRoomRepo struct {
	mu      sync.Mutex
	rooms   map[uuid.UUID]*domain.Room
	members map[uuid.UUID]map[uuid.UUID]time.Time // roomID → userID → joinedAt
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{
		rooms:   make(map[uuid.UUID]*domain.Room),
		members: make(map[uuid.UUID]map[uuid.UUID]time.Time),
	}
}

func (f *fakeRoomRepo) Create(_ context.Context, room *domain.Room, memberIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *room
	f.rooms[room.ID] = &cp
	set := make(map[uuid.UUID]time.Time, len(memberIDs))
	for _, id := range memberIDs {
		set[id] = time.Now()
	}
	f.members[room.ID] = set
	return nil
}

func (f *fakeRoomRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadLocked(id), nil
}

func (f *fakeRoomRepo) GetByName(_ context.Context, name string) (*domain.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range f.rooms {
		if r.Name == name {
			return f.loadLocked(id), nil
		}
	}
	return nil, nil
}

func (f *fakeRoomRepo) ListVisibleTo(_ context.Context, userID uuid.UUID) ([]domain.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Room
	for id, r := range f.rooms {
		if _, member := f.members[id][userID]; !r.IsPrivate || member {
			out = append(out, *f.loadLocked(id))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeRoomRepo) AddMember(_ context.Context, roomID, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.members[roomID]
	if !ok {
		set = make(map[uuid.UUID]time.Time)
		f.members[roomID] = set
	}
	if _, exists := set[userID]; exists {
		return false, nil
	}
	set[userID] = time.Now()
	return true, nil
}

func (f *fakeRoomRepo) RemoveMember(_ context.Context, roomID, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.members[roomID][userID]; !exists {
		return false, nil
	}
	delete(f.members[roomID], userID)
	return true, nil
}

func (f *fakeRoomRepo) ListMembers(_ context.Context, roomID uuid.UUID) ([]domain.RoomMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.RoomMember
	for userID, joinedAt := range f.members[roomID] {
		out = append(out, domain.RoomMember{RoomID: roomID, UserID: userID, JoinedAt: joinedAt})
	}
	return out, nil
}

func (f *fakeRoomRepo) loadLocked(id uuid.UUID) *domain.Room {
	r, ok := f.rooms[id]
	if !ok {
		return nil
	}
	cp := *r
	cp.MemberIDs = nil
	for userID := range f.members[id] {
		cp.MemberIDs = append(cp.MemberIDs, userID)
	}
	return &cp
}

type fakeMessageRepo struct {
	mu        sync.Mutex
	messages  map[uuid.UUID]*domain.Message
	reads     map[uuid.UUID][]domain.ReadReceipt
	usernames map[uuid.UUID]string // senderID → username for join enrichment
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		messages:  make(map[uuid.UUID]*domain.Message),
		reads:     make(map[uuid.UUID][]domain.ReadReceipt),
		usernames: make(map[uuid.UUID]string),
	}
}

func (f *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *msg
	f.messages[msg.ID] = &cp
	return nil
}

func (f *fakeMessageRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	cp.SenderUsername = f.usernames[m.SenderID]
	cp.ReadBy = append([]domain.ReadReceipt(nil), f.reads[id]...)
	return &cp, nil
}

func (f *fakeMessageRepo) ListRecent(_ context.Context, roomID uuid.UUID, limit int) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []domain.Message
	for id, m := range f.messages {
		if m.RoomID != roomID {
			continue
		}
		cp := *m
		cp.SenderUsername = f.usernames[m.SenderID]
		cp.ReadBy = append([]domain.ReadReceipt(nil), f.reads[id]...)
		all = append(all, cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (f *fakeMessageRepo) Update(_ context.Context, msg *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.messages[msg.ID]; ok {
		existing.Content = msg.Content
		existing.IsEdited = msg.IsEdited
	}
	return nil
}

func (f *fakeMessageRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.messages, id)
	delete(f.reads, id)
	return nil
}

func (f *fakeMessageRepo) MarkRead(_ context.Context, messageID, userID uuid.UUID, readAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reads[messageID] {
		if r.UserID == userID {
			return false, nil
		}
	}
	f.reads[messageID] = append(f.reads[messageID], domain.ReadReceipt{UserID: userID, ReadAt: readAt})
	return true, nil
}

func (f *fakeMessageRepo) has(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.messages[id]
	return ok
}

type deleteBroadcast struct {
	roomID    uuid.UUID
	messageID uuid.UUID
}

// recordingNotifier captures broadcasts for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	created  []*domain.Message
	updated  []*domain.Message
	deleting []deleteBroadcast
	deleted  []deleteBroadcast
	reads    []ReadEvent
	rooms    []*domain.Room
}

func (n *recordingNotifier) MessageCreated(msg *domain.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, msg)
}

func (n *recordingNotifier) MessageUpdated(msg *domain.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updated = append(n.updated, msg)
}

func (n *recordingNotifier) MessageDeleting(roomID, messageID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleting = append(n.deleting, deleteBroadcast{roomID: roomID, messageID: messageID})
}

func (n *recordingNotifier) MessageDeleted(roomID, messageID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, deleteBroadcast{roomID: roomID, messageID: messageID})
}

func (n *recordingNotifier) MessageRead(roomID uuid.UUID, read ReadEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reads = append(n.reads, read)
}

func (n *recordingNotifier) RoomCreated(room *domain.Room) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rooms = append(n.rooms, room)
}

func (n *recordingNotifier) deletedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.deleted)
}

func (n *recordingNotifier) snapshot() (created, updated int, deleting, deleted []deleteBroadcast, reads []ReadEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.created), len(n.updated),
		append([]deleteBroadcast(nil), n.deleting...),
		append([]deleteBroadcast(nil), n.deleted...),
		append([]ReadEvent(nil), n.reads...)
}
