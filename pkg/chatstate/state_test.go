package chatstate

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msgAt(offset time.Duration) Message {
	return Message{
		ID:        uuid.New(),
		RoomID:    uuid.New(),
		SenderID:  uuid.New(),
		Content:   "hello",
		CreatedAt: time.Unix(1700000000, 0).Add(offset),
	}
}

func ids(messages []Message) []uuid.UUID {
	out := make([]uuid.UUID, len(messages))
	for i, m := range messages {
		out[i] = m.ID
	}
	return out
}

func TestHydrateSortsChronologically(t *testing.T) {
	s := New()
	m1, m2, m3 := msgAt(0), msgAt(time.Second), msgAt(2*time.Second)

	s.Hydrate([]Message{m3, m1, m2})

	assert.Equal(t, []uuid.UUID{m1.ID, m2.ID, m3.ID}, ids(s.Messages()))
}

func TestHydrateReplacesPriorState(t *testing.T) {
	s := New()
	stale := msgAt(0)
	s.ApplyMessage(stale)

	fresh := msgAt(time.Second)
	s.Hydrate([]Message{fresh})

	assert.Equal(t, []uuid.UUID{fresh.ID}, ids(s.Messages()))
}

func TestApplyMessageDedupesAndOrders(t *testing.T) {
	s := New()
	m1, m2 := msgAt(0), msgAt(time.Second)

	// Out of order, with a duplicate delivery.
	s.ApplyMessage(m2)
	s.ApplyMessage(m1)
	s.ApplyMessage(m2)

	assert.Equal(t, []uuid.UUID{m1.ID, m2.ID}, ids(s.Messages()))
}

func TestApplyUpdate(t *testing.T) {
	s := New()
	m := msgAt(0)
	s.ApplyMessage(m)

	edited := m
	edited.Content = "hello (edited)"
	edited.IsEdited = true
	s.ApplyUpdate(edited)

	got := s.Messages()
	require.Len(t, got, 1)
	assert.Equal(t, "hello (edited)", got[0].Content)
	assert.True(t, got[0].IsEdited)
}

func TestApplyUpdateForUnseenMessageInserts(t *testing.T) {
	s := New()
	m := msgAt(0)

	// The update raced ahead of the history page carrying the message.
	s.ApplyUpdate(m)

	assert.Equal(t, []uuid.UUID{m.ID}, ids(s.Messages()))
}

func TestApplyUpdateKeepsDeletingFlag(t *testing.T) {
	s := New()
	m := msgAt(0)
	s.ApplyMessage(m)
	s.ApplyDeleting(m.ID)

	s.ApplyUpdate(m)

	got := s.Messages()
	require.Len(t, got, 1)
	assert.True(t, got[0].Deleting)
}

func TestTwoPhaseDelete(t *testing.T) {
	s := New()
	m1, m2 := msgAt(0), msgAt(time.Second)
	s.Hydrate([]Message{m1, m2})

	// Phase one flags; the message is still present for the exit animation.
	s.ApplyDeleting(m1.ID)
	got := s.Messages()
	require.Len(t, got, 2)
	assert.True(t, got[0].Deleting)
	assert.False(t, got[1].Deleting)

	// Phase two removes.
	s.ApplyDeleted(m1.ID)
	assert.Equal(t, []uuid.UUID{m2.ID}, ids(s.Messages()))

	// Both phases tolerate unknown ids.
	s.ApplyDeleting(uuid.New())
	s.ApplyDeleted(uuid.New())
	assert.Len(t, s.Messages(), 1)
}

func TestApplyReadIsIdempotent(t *testing.T) {
	s := New()
	m := msgAt(0)
	s.ApplyMessage(m)

	reader := uuid.New()
	receipt := ReadReceipt{UserID: reader, Username: "bob", ReadAt: time.Now()}
	s.ApplyRead(m.ID, receipt)
	s.ApplyRead(m.ID, receipt)

	got := s.Messages()
	require.Len(t, got[0].ReadBy, 1)
	assert.Equal(t, "bob", got[0].ReadBy[0].Username)

	// A second reader unions in.
	s.ApplyRead(m.ID, ReadReceipt{UserID: uuid.New(), Username: "carol", ReadAt: time.Now()})
	assert.Len(t, s.Messages()[0].ReadBy, 2)
}

func TestTypingSetExpires(t *testing.T) {
	s := New()
	now := time.Unix(1700000000, 0)
	s.now = func() time.Time { return now }

	s.SetTyping("alice", true)
	s.SetTyping("bob", true)
	assert.Equal(t, []string{"alice", "bob"}, s.TypingUsers())

	// An explicit stop clears immediately.
	s.SetTyping("bob", false)
	assert.Equal(t, []string{"alice"}, s.TypingUsers())

	// A lost stop event expires after the TTL.
	now = now.Add(DefaultTypingTTL + time.Millisecond)
	assert.Empty(t, s.TypingUsers())

	// A refresh extends the window.
	s.SetTyping("alice", true)
	now = now.Add(2 * time.Second)
	s.SetTyping("alice", true)
	now = now.Add(3 * time.Second)
	assert.Equal(t, []string{"alice"}, s.TypingUsers())
}
