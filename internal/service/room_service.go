package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/parleychat/parley/internal/domain"
	"github.com/parleychat/parley/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrRoomNameTaken       = domain.E(domain.KindValidation, "ROOM_NAME_TAKEN", "A room with that name already exists")
	ErrPrivateNeedsMembers = domain.E(domain.KindValidation, "PRIVATE_NEEDS_MEMBERS", "A private room needs at least one member besides the creator")
)

type RoomService struct {
	roomRepo repository.RoomRepository
	logger   *zap.Logger
	notifier Notifier
}

func NewRoomService(roomRepo repository.RoomRepository, logger *zap.Logger) *RoomService {
	return &RoomService{
		roomRepo: roomRepo,
		logger:   logger,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *RoomService) SetNotifier(n Notifier) {
	s.notifier = n
}

type CreateRoomInput struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	IsPrivate   bool        `json:"isPrivate"`
	MemberIDs   []uuid.UUID `json:"members,omitempty"`
}

func (s *RoomService) Create(ctx context.Context, creatorID uuid.UUID, input CreateRoomInput) (*domain.Room, error) {
	existing, err := s.roomRepo.GetByName(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrRoomNameTaken
	}

	// The creator is always a member; private rooms need company.
	members := []uuid.UUID{creatorID}
	for _, id := range input.MemberIDs {
		if id != creatorID {
			members = append(members, id)
		}
	}
	if input.IsPrivate && len(members) < 2 {
		return nil, ErrPrivateNeedsMembers
	}

	var desc *string
	if input.Description != "" {
		desc = &input.Description
	}

	room := &domain.Room{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: desc,
		IsPrivate:   input.IsPrivate,
		CreatedBy:   creatorID,
		CreatedAt:   time.Now(),
	}

	if err := s.roomRepo.Create(ctx, room, members); err != nil {
		return nil, fmt.Errorf("creating room: %w", err)
	}

	full, err := s.roomRepo.GetByID(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("room created",
		zap.String("room_id", full.ID.String()),
		zap.String("name", full.Name),
		zap.Bool("is_private", full.IsPrivate))

	// Private room existence is disclosed to its members only.
	if s.notifier != nil {
		s.notifier.RoomCreated(full)
	}

	return full, nil
}

func (s *RoomService) List(ctx context.Context, userID uuid.UUID) ([]domain.Room, error) {
	rooms, err := s.roomRepo.ListVisibleTo(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rooms == nil {
		rooms = []domain.Room{}
	}
	return rooms, nil
}

// Get returns a room the user is allowed to see. Private rooms are visible
// to members only; the join intent on the realtime channel uses the same rule.
func (s *RoomService) Get(ctx context.Context, userID, roomID uuid.UUID) (*domain.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, domain.ErrRoomNotFound
	}

	if room.IsPrivate && !room.IsMember(userID) {
		s.logger.Warn("unauthorized access attempt to private room",
			zap.String("room_id", roomID.String()),
			zap.String("user_id", userID.String()))
		return nil, domain.ErrRoomForbidden
	}

	return room, nil
}

// Members returns the room's member list with usernames. Visibility follows
// the same rule as Get.
func (s *RoomService) Members(ctx context.Context, userID, roomID uuid.UUID) ([]domain.RoomMember, error) {
	if _, err := s.Get(ctx, userID, roomID); err != nil {
		return nil, err
	}

	members, err := s.roomRepo.ListMembers(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []domain.RoomMember{}
	}
	return members, nil
}

// Join adds the user to a public room's member set. The second return value
// reports whether the user was already a member (the call is idempotent).
func (s *RoomService) Join(ctx context.Context, userID, roomID uuid.UUID) (*domain.Room, bool, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, false, err
	}
	if room == nil {
		return nil, false, domain.ErrRoomNotFound
	}

	if room.IsPrivate {
		return nil, false, domain.ErrRoomForbidden
	}

	added, err := s.roomRepo.AddMember(ctx, roomID, userID)
	if err != nil {
		return nil, false, fmt.Errorf("adding member: %w", err)
	}

	return room, !added, nil
}

func (s *RoomService) Leave(ctx context.Context, userID, roomID uuid.UUID) error {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return domain.ErrRoomNotFound
	}

	removed, err := s.roomRepo.RemoveMember(ctx, roomID, userID)
	if err != nil {
		return fmt.Errorf("removing member: %w", err)
	}
	if !removed {
		return domain.ErrNotAMember
	}

	return nil
}
