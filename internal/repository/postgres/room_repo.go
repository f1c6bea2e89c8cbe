package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parleychat/parley/internal/domain"
)

type RoomRepo struct {
	pool *pgxpool.Pool
}

func NewRoomRepo(pool *pgxpool.Pool) *RoomRepo {
	return &RoomRepo{pool: pool}
}

func (r *RoomRepo) Create(ctx context.Context, room *domain.Room, memberIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO rooms (id, name, description, is_private, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.Exec(ctx, query,
		room.ID, room.Name, room.Description, room.IsPrivate, room.CreatedBy, room.CreatedAt,
	); err != nil {
		return err
	}

	for _, userID := range memberIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO room_members (room_id, user_id, joined_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
			room.ID, userID, room.CreatedAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *RoomRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	return r.scanRoom(ctx, `
		SELECT r.id, r.name, r.description, r.is_private, r.created_by, r.created_at, u.username
		FROM rooms r
		JOIN users u ON r.created_by = u.id
		WHERE r.id = $1`, id)
}

func (r *RoomRepo) GetByName(ctx context.Context, name string) (*domain.Room, error) {
	return r.scanRoom(ctx, `
		SELECT r.id, r.name, r.description, r.is_private, r.created_by, r.created_at, u.username
		FROM rooms r
		JOIN users u ON r.created_by = u.id
		WHERE r.name = $1`, name)
}

func (r *RoomRepo) scanRoom(ctx context.Context, query string, arg any) (*domain.Room, error) {
	var room domain.Room
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&room.ID, &room.Name, &room.Description, &room.IsPrivate,
		&room.CreatedBy, &room.CreatedAt, &room.CreatorUsername,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM room_members WHERE room_id = $1 ORDER BY joined_at`, room.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		room.MemberIDs = append(room.MemberIDs, id)
	}
	return &room, rows.Err()
}

func (r *RoomRepo) ListVisibleTo(ctx context.Context, userID uuid.UUID) ([]domain.Room, error) {
	query := `
		SELECT r.id, r.name, r.description, r.is_private, r.created_by, r.created_at, u.username
		FROM rooms r
		JOIN users u ON r.created_by = u.id
		WHERE r.is_private = FALSE
			OR EXISTS (SELECT 1 FROM room_members m WHERE m.room_id = r.id AND m.user_id = $1)
		ORDER BY r.created_at`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		var room domain.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.Description, &room.IsPrivate,
			&room.CreatedBy, &room.CreatedAt, &room.CreatorUsername); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *RoomRepo) AddMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO room_members (room_id, user_id, joined_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		roomID, userID, time.Now(),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RoomRepo) RemoveMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM room_members WHERE room_id = $1 AND user_id = $2`, roomID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RoomRepo) ListMembers(ctx context.Context, roomID uuid.UUID) ([]domain.RoomMember, error) {
	query := `
		SELECT m.room_id, m.user_id, m.joined_at, u.username
		FROM room_members m
		JOIN users u ON m.user_id = u.id
		WHERE m.room_id = $1 ORDER BY m.joined_at`

	rows, err := r.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.RoomMember
	for rows.Next() {
		var m domain.RoomMember
		if err := rows.Scan(&m.RoomID, &m.UserID, &m.JoinedAt, &m.Username); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
