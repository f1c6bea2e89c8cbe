package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/parleychat/parley/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type RoomRepository interface {
	// Create persists the room and its initial member set in one transaction.
	Create(ctx context.Context, room *domain.Room, memberIDs []uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error)
	GetByName(ctx context.Context, name string) (*domain.Room, error)
	// ListVisibleTo returns public rooms plus private rooms userID belongs to.
	ListVisibleTo(ctx context.Context, userID uuid.UUID) ([]domain.Room, error)
	// AddMember reports whether the membership row was newly inserted.
	AddMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
	// RemoveMember reports whether a membership row existed.
	RemoveMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
	ListMembers(ctx context.Context, roomID uuid.UUID) ([]domain.RoomMember, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	// ListRecent returns the newest limit messages of a room in ascending
	// createdAt order.
	ListRecent(ctx context.Context, roomID uuid.UUID, limit int) ([]domain.Message, error)
	Update(ctx context.Context, msg *domain.Message) error
	Delete(ctx context.Context, id uuid.UUID) error
	// MarkRead reports whether the receipt was newly recorded; marking a
	// message read twice for the same user is a no-op.
	MarkRead(ctx context.Context, messageID, userID uuid.UUID, readAt time.Time) (bool, error)
}
