package room

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles room data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new room repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new room and adds the creator as its first member,
// in a single transaction.
func (r *Repository) Create(ctx context.Context, creatorID int64, req *CreateRoomRequest) (*Room, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO rooms (name, description, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, name, description, created_by, created_at
	`

	room := &Room{}
	err = tx.QueryRowContext(ctx, query, req.Name, req.Description, creatorID).Scan(
		&room.ID,
		&room.Name,
		&room.Description,
		&room.CreatedBy,
		&room.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO room_members (room_id, user_id) VALUES ($1, $2)`,
		room.ID, creatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add creator to room: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return room, nil
}

// GetByID retrieves a room by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Room, error) {
	query := `
		SELECT id, name, description, created_by, created_at
		FROM rooms
		WHERE id = $1
	`

	room := &Room{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&room.ID,
		&room.Name,
		&room.Description,
		&room.CreatedBy,
		&room.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

// ListByUserID retrieves all rooms the user is a member of
func (r *Repository) ListByUserID(ctx context.Context, userID int64) ([]*Room, error) {
	query := `
		SELECT r.id, r.name, r.description, r.created_by, r.created_at
		FROM rooms r
		JOIN room_members m ON m.room_id = r.id
		WHERE m.user_id = $1
		ORDER BY r.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*Room
	for rows.Next() {
		room := &Room{}
		if err := rows.Scan(&room.ID, &room.Name, &room.Description, &room.CreatedBy, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}

	return rooms, nil
}

// AddMember adds a user to a room
func (r *Repository) AddMember(ctx context.Context, roomID, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO room_members (room_id, user_id) VALUES ($1, $2)`,
		roomID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// RemoveMember removes a user from a room
func (r *Repository) RemoveMember(ctx context.Context, roomID, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM room_members WHERE room_id = $1 AND user_id = $2`,
		roomID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check removal: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetMembers retrieves all members of a room with their usernames
func (r *Repository) GetMembers(ctx context.Context, roomID int64) ([]*Member, error) {
	query := `
		SELECT m.room_id, m.user_id, m.joined_at, u.username
		FROM room_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.room_id = $1
		ORDER BY m.joined_at, m.user_id
	`

	rows, err := r.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		member := &Member{}
		if err := rows.Scan(&member.RoomID, &member.UserID, &member.JoinedAt, &member.Username); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}

// IsMember reports whether the user belongs to the room
func (r *Repository) IsMember(ctx context.Context, roomID, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM room_members WHERE room_id = $1 AND user_id = $2)`,
		roomID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}
