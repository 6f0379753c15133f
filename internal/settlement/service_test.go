package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hisab-app/hisab/internal/bill"
	"github.com/hisab-app/hisab/internal/engine"
	"github.com/hisab-app/hisab/internal/room"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	bills := bill.NewService(bill.NewRepository(db), room.NewRepository(db))
	return NewService(NewRepository(db), bills), mock
}

// expectBreakdown queues the reads behind one breakdown: a two-person bill
// where user 1 owes everything and user 2 paid everything, so user 1 owes
// user 2 exactly 50000 before settlements.
func expectBreakdown(mock sqlmock.Sqlmock, priorSettlement bool) {
	mock.ExpectQuery("SELECT id, room_id, title, created_by, created_at FROM bills").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_id", "title", "created_by", "created_at"}).
			AddRow(int64(10), int64(5), "Dinner", int64(2), time.Now()))
	mock.ExpectQuery("SELECT user_id FROM bill_participants").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(1)).AddRow(int64(2)))
	mock.ExpectQuery("SELECT id, owner_id, name, unit_price, quantity FROM bill_items").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "name", "unit_price", "quantity"}).
			AddRow(int64(100), int64(1), "Biryani", int64(50000), int64(1)))
	mock.ExpectQuery("SELECT id, kind, name, amount, split_rule FROM bill_extras").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "name", "amount", "split_rule"}))
	mock.ExpectQuery("SELECT id, user_id, amount, coverage_type, coverage_targets FROM bill_payers").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "amount", "coverage_type", "coverage_targets"}).
			AddRow(int64(300), int64(2), int64(50000), nil, nil))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(5), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	settlements := sqlmock.NewRows([]string{"from_user_id", "to_user_id", "amount"})
	if priorSettlement {
		settlements.AddRow(int64(1), int64(2), int64(30000))
	}
	mock.ExpectQuery("SELECT from_user_id, to_user_id, amount FROM settlements").
		WithArgs(int64(10)).
		WillReturnRows(settlements)
}

func TestRecordStoresRequestedAmount(t *testing.T) {
	svc, mock := newTestService(t)

	expectBreakdown(mock, false)
	mock.ExpectQuery("INSERT INTO settlements").
		WithArgs(sqlmock.AnyArg(), int64(10), int64(1), int64(2), int64(20000), "paid via UPI", int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), time.Now()))

	resp, err := svc.Record(context.Background(), 10, 2, &RecordSettlementRequest{
		FromUserID: 1,
		ToUserID:   2,
		Amount:     20000,
		Note:       "paid via UPI",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if resp.Clamped {
		t.Fatalf("expected no clamp, got reason %q", resp.ClampReason)
	}
	if resp.Settlement.Amount != 20000 {
		t.Fatalf("expected stored amount 20000, got %d", resp.Settlement.Amount)
	}
	if resp.Settlement.Reference == "" {
		t.Fatal("expected a settlement reference")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordClampsAgainstPriorSettlements(t *testing.T) {
	svc, mock := newTestService(t)

	// 30000 of the 50000 debt is already settled, so only 20000 remains.
	expectBreakdown(mock, true)
	mock.ExpectQuery("INSERT INTO settlements").
		WithArgs(sqlmock.AnyArg(), int64(10), int64(1), int64(2), int64(20000), "", int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(8), time.Now()))

	resp, err := svc.Record(context.Background(), 10, 2, &RecordSettlementRequest{
		FromUserID: 1,
		ToUserID:   2,
		Amount:     50000,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !resp.Clamped || resp.ClampReason == "" {
		t.Fatalf("expected a clamped settlement, got %+v", resp)
	}
	if resp.Settlement.Amount != 20000 {
		t.Fatalf("expected clamped amount 20000, got %d", resp.Settlement.Amount)
	}
}

func TestRecordRejectsSettledPair(t *testing.T) {
	svc, mock := newTestService(t)

	// Reverse direction: user 2 owes nothing to user 1.
	expectBreakdown(mock, false)

	_, err := svc.Record(context.Background(), 10, 2, &RecordSettlementRequest{
		FromUserID: 2,
		ToUserID:   1,
		Amount:     10000,
	})
	if !errors.Is(err, engine.ErrNoSettlementNeeded) {
		t.Fatalf("expected ErrNoSettlementNeeded, got %v", err)
	}
}
