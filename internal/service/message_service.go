package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/parleychat/parley/internal/domain"
	"github.com/parleychat/parley/internal/repository"
	"github.com/parleychat/parley/pkg/validator"
	"go.uber.org/zap"
)

var ErrInvalidContent = domain.E(domain.KindValidation, "INVALID_CONTENT",
	"Message content must be between 1 and 500 characters")

// Notifier broadcasts real-time events to connected clients. Broadcasts
// happen strictly after successful persistence; per-intent errors never
// reach it.
type Notifier interface {
	MessageCreated(msg *domain.Message)
	MessageUpdated(msg *domain.Message)
	MessageDeleting(roomID, messageID uuid.UUID)
	MessageDeleted(roomID, messageID uuid.UUID)
	MessageRead(roomID uuid.UUID, read ReadEvent)
	RoomCreated(room *domain.Room)
}

// ReadEvent is the payload of a read-receipt broadcast.
type ReadEvent struct {
	MessageID uuid.UUID            `json:"messageId"`
	UserID    uuid.UUID            `json:"userId"`
	Username  string               `json:"username"`
	ReadBy    []domain.ReadReceipt `json:"readBy"`
}

type MessageService struct {
	messageRepo repository.MessageRepository
	roomRepo    repository.RoomRepository
	logger      *zap.Logger
	notifier    Notifier

	// deleteDelay separates the two phases of a delete broadcast so clients
	// can animate removal before the record disappears.
	deleteDelay time.Duration
	historyPage int
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	roomRepo repository.RoomRepository,
	logger *zap.Logger,
	deleteDelay time.Duration,
	historyPage int,
) *MessageService {
	if historyPage <= 0 {
		historyPage = 50
	}
	return &MessageService{
		messageRepo: messageRepo,
		roomRepo:    roomRepo,
		logger:      logger,
		deleteDelay: deleteDelay,
		historyPage: historyPage,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *MessageService) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *MessageService) Send(ctx context.Context, userID, roomID uuid.UUID, content string) (*domain.Message, error) {
	content, ok := validator.ValidateMessageContent(content)
	if !ok {
		return nil, ErrInvalidContent
	}

	if _, err := s.checkRoomAccess(ctx, userID, roomID); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:        uuid.New(),
		RoomID:    roomID,
		SenderID:  userID,
		Content:   content,
		CreatedAt: time.Now(),
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	// Re-fetch with sender info so the broadcast carries the username.
	full, err := s.messageRepo.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.MessageCreated(full)
	}

	return full, nil
}

// Edit replaces a message's content. Concurrent edits of the same message
// are last-writer-wins.
func (s *MessageService) Edit(ctx context.Context, userID, messageID uuid.UUID, content string) (*domain.Message, error) {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, domain.ErrMessageNotFound
	}
	// Ownership check happens strictly before any write.
	if msg.SenderID != userID {
		s.logger.Warn("unauthorized edit attempt",
			zap.String("message_id", messageID.String()),
			zap.String("user_id", userID.String()))
		return nil, domain.ErrNotMessageOwner
	}

	content, ok := validator.ValidateMessageContent(content)
	if !ok {
		return nil, ErrInvalidContent
	}

	msg.Content = content
	msg.IsEdited = true
	if err := s.messageRepo.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("updating message: %w", err)
	}

	updated, err := s.messageRepo.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.MessageUpdated(updated)
	}

	return updated, nil
}

// Delete announces removal in two phases: a messageDeleting broadcast fires
// immediately, then after deleteDelay the record is removed and
// messageDeleted fires. The delay is not cancellable once triggered.
func (s *MessageService) Delete(ctx context.Context, userID, messageID uuid.UUID) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return domain.ErrMessageNotFound
	}
	if msg.SenderID != userID {
		s.logger.Warn("unauthorized delete attempt",
			zap.String("message_id", messageID.String()),
			zap.String("user_id", userID.String()))
		return domain.ErrNotMessageOwner
	}

	roomID := msg.RoomID
	if s.notifier != nil {
		s.notifier.MessageDeleting(roomID, messageID)
	}

	time.AfterFunc(s.deleteDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.messageRepo.Delete(ctx, messageID); err != nil {
			s.logger.Error("deleting message", zap.String("message_id", messageID.String()), zap.Error(err))
			return
		}
		if s.notifier != nil {
			s.notifier.MessageDeleted(roomID, messageID)
		}
	})

	return nil
}

// MarkRead records a read receipt. A missing message is logged and dropped
// silently (it may have just been deleted). A redundant receipt is a no-op
// and produces no broadcast.
func (s *MessageService) MarkRead(ctx context.Context, userID uuid.UUID, username string, messageID uuid.UUID) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		s.logger.Warn("mark-read for non-existent message", zap.String("message_id", messageID.String()))
		return nil
	}

	newlyMarked, err := s.messageRepo.MarkRead(ctx, messageID, userID, time.Now())
	if err != nil {
		return fmt.Errorf("marking message read: %w", err)
	}
	if !newlyMarked {
		return nil
	}

	if s.notifier != nil {
		updated, err := s.messageRepo.GetByID(ctx, messageID)
		if err != nil {
			return err
		}
		if updated != nil {
			s.notifier.MessageRead(msg.RoomID, ReadEvent{
				MessageID: messageID,
				UserID:    userID,
				Username:  username,
				ReadBy:    updated.ReadBy,
			})
		}
	}

	return nil
}

// History returns the newest messages of a room in chronological order,
// the page clients hydrate from on room join.
func (s *MessageService) History(ctx context.Context, userID, roomID uuid.UUID, limit int) ([]domain.Message, error) {
	if _, err := s.checkRoomAccess(ctx, userID, roomID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = s.historyPage
	}

	messages, err := s.messageRepo.ListRecent(ctx, roomID, limit)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

func (s *MessageService) checkRoomAccess(ctx context.Context, userID, roomID uuid.UUID) (*domain.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, domain.ErrRoomNotFound
	}
	if room.IsPrivate && !room.IsMember(userID) {
		return nil, domain.ErrRoomForbidden
	}
	return room, nil
}
