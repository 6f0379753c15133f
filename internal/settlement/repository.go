package settlement

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles settlement data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new settlement repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a settlement record.
func (r *Repository) Create(ctx context.Context, s *Settlement) (*Settlement, error) {
	query := `
		INSERT INTO settlements (reference, bill_id, from_user_id, to_user_id, amount, note, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		s.Reference, s.BillID, s.FromUserID, s.ToUserID, int64(s.Amount), s.Note, s.CreatedBy,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create settlement: %w", err)
	}
	return s, nil
}

// ListByBillID returns a bill's settlements in creation order.
func (r *Repository) ListByBillID(ctx context.Context, billID int64) ([]*Settlement, error) {
	query := `
		SELECT id, reference, bill_id, from_user_id, to_user_id, amount, COALESCE(note, ''), created_by, created_at
		FROM settlements
		WHERE bill_id = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*Settlement
	for rows.Next() {
		s := &Settlement{}
		err := rows.Scan(&s.ID, &s.Reference, &s.BillID, &s.FromUserID, &s.ToUserID,
			&s.Amount, &s.Note, &s.CreatedBy, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, s)
	}
	return settlements, rows.Err()
}

// GetByID retrieves a settlement. Returns (nil, nil) when it does not exist.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Settlement, error) {
	query := `
		SELECT id, reference, bill_id, from_user_id, to_user_id, amount, COALESCE(note, ''), created_by, created_at
		FROM settlements
		WHERE id = $1
	`
	s := &Settlement{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.Reference, &s.BillID, &s.FromUserID, &s.ToUserID,
		&s.Amount, &s.Note, &s.CreatedBy, &s.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return s, nil
}

// Delete removes a settlement. Returns sql.ErrNoRows when it does not exist.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM settlements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete settlement: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
