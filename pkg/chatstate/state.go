// Package chatstate maintains a client-side view of a room from the event
// stream the server emits. It is transport-agnostic: callers decode events
// and feed the payloads in; the state converges to the same message list
// regardless of duplicate or reordered receipts.
package chatstate

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTypingTTL is how long a typing indicator stays visible without a
// refresh. Senders re-emit while the user keeps typing, so expiry doubles as
// the stop signal when the stop event itself is lost.
const DefaultTypingTTL = 4 * time.Second

// ReadReceipt mirrors the readBy entries of server message payloads.
type ReadReceipt struct {
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	ReadAt   time.Time `json:"readAt"`
}

// Message is the client-side projection of a room message.
type Message struct {
	ID             uuid.UUID     `json:"id"`
	RoomID         uuid.UUID     `json:"roomId"`
	SenderID       uuid.UUID     `json:"senderId"`
	SenderUsername string        `json:"senderUsername"`
	Content        string        `json:"content"`
	CreatedAt      time.Time     `json:"createdAt"`
	IsEdited       bool          `json:"isEdited"`
	Deleting       bool          `json:"deleting,omitempty"`
	ReadBy         []ReadReceipt `json:"readBy"`
}

// State holds one room's reconciled view. Safe for concurrent use.
type State struct {
	mu       sync.Mutex
	messages []Message // ascending by createdAt, ties broken by id
	typing   map[string]time.Time
	ttl      time.Duration

	now func() time.Time
}

func New() *State {
	return &State{
		typing: make(map[string]time.Time),
		ttl:    DefaultTypingTTL,
		now:    time.Now,
	}
}

// Hydrate replaces the message list with a history page, discarding any
// state applied so far. Input order does not matter.
func (s *State) Hydrate(messages []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = make([]Message, len(messages))
	copy(s.messages, messages)
	sortMessages(s.messages)
}

// ApplyMessage inserts a new message. A message already present (a duplicate
// delivery, or one covered by hydration) is ignored.
func (s *State) ApplyMessage(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(msg.ID) >= 0 {
		return
	}
	s.messages = append(s.messages, msg)
	sortMessages(s.messages)
}

// ApplyUpdate replaces a message in place. An update for an unknown message
// is inserted, since it may have raced ahead of the hydration that carries
// it.
func (s *State) ApplyUpdate(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(msg.ID)
	if i < 0 {
		s.messages = append(s.messages, msg)
		sortMessages(s.messages)
		return
	}
	// The server re-sends the full record; keep only the local deleting flag.
	msg.Deleting = s.messages[i].Deleting
	s.messages[i] = msg
}

// ApplyDeleting flags a message as pending removal so the UI can animate it
// out before the deleted event lands.
func (s *State) ApplyDeleting(messageID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(messageID); i >= 0 {
		s.messages[i].Deleting = true
	}
}

// ApplyDeleted removes a message. Unknown ids are a no-op.
func (s *State) ApplyDeleted(messageID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(messageID)
	if i < 0 {
		return
	}
	s.messages = append(s.messages[:i], s.messages[i+1:]...)
}

// ApplyRead merges a read receipt into a message. Re-applying the same
// reader changes nothing.
func (s *State) ApplyRead(messageID uuid.UUID, receipt ReadReceipt) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(messageID)
	if i < 0 {
		return
	}
	for _, r := range s.messages[i].ReadBy {
		if r.UserID == receipt.UserID {
			return
		}
	}
	s.messages[i].ReadBy = append(s.messages[i].ReadBy, receipt)
}

// Messages returns a copy of the reconciled message list in chronological
// order.
func (s *State) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SetTyping records a typing indicator for a user. A start refreshes the
// expiry; a stop clears it immediately.
func (s *State) SetTyping(username string, isTyping bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !isTyping {
		delete(s.typing, username)
		return
	}
	s.typing[username] = s.now().Add(s.ttl)
}

// TypingUsers returns the users currently typing, expired entries pruned,
// sorted for stable rendering.
func (s *State) TypingUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var users []string
	for username, expiry := range s.typing {
		if now.After(expiry) {
			delete(s.typing, username)
			continue
		}
		users = append(users, username)
	}
	sort.Strings(users)
	return users
}

// indexOf returns the position of a message by id, or -1. Caller holds mu.
func (s *State) indexOf(id uuid.UUID) int {
	for i := range s.messages {
		if s.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func sortMessages(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].ID.String() < messages[j].ID.String()
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
}
