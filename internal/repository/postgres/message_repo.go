package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parleychat/parley/internal/domain"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, room_id, sender_id, content, is_edited, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query,
		msg.ID, msg.RoomID, msg.SenderID, msg.Content, msg.IsEdited, msg.CreatedAt,
	)
	return err
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT m.id, m.room_id, m.sender_id, m.content, m.is_edited, m.created_at, u.username
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.id = $1`
	var msg domain.Message
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.RoomID, &msg.SenderID, &msg.Content,
		&msg.IsEdited, &msg.CreatedAt, &msg.SenderUsername,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	msg.ReadBy, err = r.listReadBy(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *MessageRepo) ListRecent(ctx context.Context, roomID uuid.UUID, limit int) ([]domain.Message, error) {
	query := fmt.Sprintf(`
		SELECT m.id, m.room_id, m.sender_id, m.content, m.is_edited, m.created_at, u.username
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.room_id = $1
		ORDER BY m.created_at DESC
		LIMIT %d`, limit)

	rows, err := r.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID, &msg.RoomID, &msg.SenderID, &msg.Content,
			&msg.IsEdited, &msg.CreatedAt, &msg.SenderUsername,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range messages {
		readBy, err := r.listReadBy(ctx, messages[i].ID)
		if err != nil {
			return nil, err
		}
		messages[i].ReadBy = readBy
	}

	// Reverse so the page comes out chronological (query returns DESC)
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *MessageRepo) Update(ctx context.Context, msg *domain.Message) error {
	query := `UPDATE messages SET content = $1, is_edited = $2 WHERE id = $3`
	_, err := r.pool.Exec(ctx, query, msg.Content, msg.IsEdited, msg.ID)
	return err
}

func (r *MessageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	// Hard delete; read receipts go with the message.
	_, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	return err
}

func (r *MessageRepo) MarkRead(ctx context.Context, messageID, userID uuid.UUID, readAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO message_reads (message_id, user_id, read_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		messageID, userID, readAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *MessageRepo) listReadBy(ctx context.Context, messageID uuid.UUID) ([]domain.ReadReceipt, error) {
	query := `
		SELECT rr.user_id, u.username, rr.read_at
		FROM message_reads rr
		JOIN users u ON rr.user_id = u.id
		WHERE rr.message_id = $1 ORDER BY rr.read_at`

	rows, err := r.pool.Query(ctx, query, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []domain.ReadReceipt
	for rows.Next() {
		var rr domain.ReadReceipt
		if err := rows.Scan(&rr.UserID, &rr.Username, &rr.ReadAt); err != nil {
			return nil, err
		}
		receipts = append(receipts, rr)
	}
	return receipts, rows.Err()
}
