package bill

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hisab-app/hisab/internal/engine"
)

// Repository handles bill data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new bill repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a bill together with its full composition in a single
// transaction. Participant rows carry an explicit position so snapshots read
// back in a stable order.
func (r *Repository) Create(ctx context.Context, b *Bill) (*Bill, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO bills (room_id, title, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err = tx.QueryRowContext(ctx, query, b.RoomID, b.Title, b.CreatedBy).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create bill: %w", err)
	}

	if err := r.insertComposition(ctx, tx, b); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return b, nil
}

// Update replaces a bill's title and composition wholesale. Child rows are
// deleted and reinserted; recorded settlements are left alone.
func (r *Repository) Update(ctx context.Context, b *Bill) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE bills SET title = $1 WHERE id = $2`,
		b.Title, b.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	for _, table := range []string{"bill_participants", "bill_items", "bill_extras", "bill_payers"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE bill_id = $1`, table), b.ID,
		); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := r.insertComposition(ctx, tx, b); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *Repository) insertComposition(ctx context.Context, tx *sql.Tx, b *Bill) error {
	for i, userID := range b.Participants {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO bill_participants (bill_id, user_id, position) VALUES ($1, $2, $3)`,
			b.ID, userID, i,
		)
		if err != nil {
			return fmt.Errorf("failed to add participant: %w", err)
		}
	}

	for i := range b.Items {
		item := &b.Items[i]
		err := tx.QueryRowContext(ctx,
			`INSERT INTO bill_items (bill_id, owner_id, name, unit_price, quantity)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			b.ID, item.OwnerID, item.Name, int64(item.UnitPrice), item.Quantity,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("failed to add item: %w", err)
		}
	}

	for i := range b.Extras {
		extra := &b.Extras[i]
		err := tx.QueryRowContext(ctx,
			`INSERT INTO bill_extras (bill_id, kind, name, amount, split_rule)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			b.ID, string(extra.Kind), extra.Name, int64(extra.Amount), string(extra.Rule),
		).Scan(&extra.ID)
		if err != nil {
			return fmt.Errorf("failed to add extra: %w", err)
		}
	}

	for i := range b.Payers {
		payer := &b.Payers[i]
		err := tx.QueryRowContext(ctx,
			`INSERT INTO bill_payers (bill_id, user_id, amount, coverage_type, coverage_targets)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			b.ID, payer.UserID, int64(payer.Amount), payer.CoverageType, pq.Array(payer.CoverageTargets),
		).Scan(&payer.ID)
		if err != nil {
			return fmt.Errorf("failed to add payer: %w", err)
		}
	}

	return nil
}

// GetByID loads a bill with its full composition. Returns (nil, nil) when the
// bill does not exist.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Bill, error) {
	b := &Bill{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, room_id, title, created_by, created_at FROM bills WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.RoomID, &b.Title, &b.CreatedBy, &b.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	if b.Participants, err = r.getParticipants(ctx, id); err != nil {
		return nil, err
	}
	if b.Items, err = r.getItems(ctx, id); err != nil {
		return nil, err
	}
	if b.Extras, err = r.getExtras(ctx, id); err != nil {
		return nil, err
	}
	if b.Payers, err = r.getPayers(ctx, id); err != nil {
		return nil, err
	}

	return b, nil
}

func (r *Repository) getParticipants(ctx context.Context, billID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM bill_participants WHERE bill_id = $1 ORDER BY position`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var participants []int64
	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, userID)
	}
	return participants, rows.Err()
}

func (r *Repository) getItems(ctx context.Context, billID int64) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, name, unit_price, quantity FROM bill_items WHERE bill_id = $1 ORDER BY id`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Name, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *Repository) getExtras(ctx context.Context, billID int64) ([]Extra, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, name, amount, split_rule FROM bill_extras WHERE bill_id = $1 ORDER BY id`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get extras: %w", err)
	}
	defer rows.Close()

	var extras []Extra
	for rows.Next() {
		var extra Extra
		if err := rows.Scan(&extra.ID, &extra.Kind, &extra.Name, &extra.Amount, &extra.Rule); err != nil {
			return nil, fmt.Errorf("failed to scan extra: %w", err)
		}
		extras = append(extras, extra)
	}
	return extras, rows.Err()
}

func (r *Repository) getPayers(ctx context.Context, billID int64) ([]PayerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, amount, coverage_type, coverage_targets FROM bill_payers WHERE bill_id = $1 ORDER BY id`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get payers: %w", err)
	}
	defer rows.Close()

	var payers []PayerEntry
	for rows.Next() {
		var payer PayerEntry
		var targets pq.Int64Array
		if err := rows.Scan(&payer.ID, &payer.UserID, &payer.Amount, &payer.CoverageType, &targets); err != nil {
			return nil, fmt.Errorf("failed to scan payer: %w", err)
		}
		payer.CoverageTargets = []int64(targets)
		payers = append(payers, payer)
	}
	return payers, rows.Err()
}

// GetSettlements returns the recorded settlements for a bill in creation
// order, shaped for the calculation snapshot.
func (r *Repository) GetSettlements(ctx context.Context, billID int64) ([]engine.Settlement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT from_user_id, to_user_id, amount FROM settlements WHERE bill_id = $1 ORDER BY id`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get settlements: %w", err)
	}
	defer rows.Close()

	var settlements []engine.Settlement
	for rows.Next() {
		var s engine.Settlement
		if err := rows.Scan(&s.From, &s.To, &s.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, s)
	}
	return settlements, rows.Err()
}

// ListByRoomID returns bill headers for a room, newest first.
func (r *Repository) ListByRoomID(ctx context.Context, roomID int64) ([]*Bill, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, room_id, title, created_by, created_at FROM bills WHERE room_id = $1 ORDER BY created_at DESC, id DESC`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var bills []*Bill
	for rows.Next() {
		b := &Bill{}
		if err := rows.Scan(&b.ID, &b.RoomID, &b.Title, &b.CreatedBy, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

// Delete removes a bill and, through cascading foreign keys, its composition
// and settlements. Returns sql.ErrNoRows when the bill does not exist.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bills WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
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
