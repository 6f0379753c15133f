package settlement

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hisab-app/hisab/internal/bill"
	"github.com/hisab-app/hisab/internal/engine"
)

var (
	ErrSettlementNotFound = errors.New("settlement not found")
	ErrNotRecorder        = errors.New("only the user who recorded a settlement can delete it")
)

// Service handles settlement business logic. Every write goes through the
// bill's lock so the clamp always sees a breakdown that includes all prior
// settlements.
type Service struct {
	repo  *Repository
	bills *bill.Service
}

// NewService creates a new settlement service
func NewService(repo *Repository, bills *bill.Service) *Service {
	return &Service{repo: repo, bills: bills}
}

// Record clamps the requested amount against the bill's current remaining
// balances and stores the settlement. The returned response carries the
// stored settlement plus the clamp reason when the amount was reduced.
func (s *Service) Record(ctx context.Context, billID, callerID int64, req *RecordSettlementRequest) (*RecordSettlementResponse, error) {
	var resp *RecordSettlementResponse
	err := s.bills.WithLock(billID, func() error {
		_, result, err := s.bills.Breakdown(ctx, billID, callerID)
		if err != nil {
			return err
		}

		amount, reason, err := engine.ClampSettlement(result, req.FromUserID, req.ToUserID, engine.Money(req.Amount))
		if err != nil {
			return err
		}

		record := &Settlement{
			Reference:  uuid.NewString(),
			BillID:     billID,
			FromUserID: req.FromUserID,
			ToUserID:   req.ToUserID,
			Amount:     amount,
			Note:       req.Note,
			CreatedBy:  callerID,
		}
		if _, err := s.repo.Create(ctx, record); err != nil {
			return err
		}

		slog.Info("settlement recorded",
			"bill_id", billID,
			"reference", record.Reference,
			"from", record.FromUserID,
			"to", record.ToUserID,
			"amount", int64(amount),
			"clamped", reason != "",
		)

		resp = &RecordSettlementResponse{
			Settlement:  record,
			Clamped:     reason != "",
			ClampReason: reason,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ListByBill returns a bill's settlements. The caller must be a member of the
// bill's room; membership is checked by loading the bill.
func (s *Service) ListByBill(ctx context.Context, billID, callerID int64) ([]*Settlement, error) {
	if _, err := s.bills.GetByID(ctx, billID, callerID); err != nil {
		return nil, err
	}
	return s.repo.ListByBillID(ctx, billID)
}

// Delete removes a settlement so its amount flows back into remaining
// balances. Only the user who recorded it may delete it.
func (s *Service) Delete(ctx context.Context, settlementID, callerID int64) error {
	record, err := s.repo.GetByID(ctx, settlementID)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrSettlementNotFound
	}
	if record.CreatedBy != callerID {
		return ErrNotRecorder
	}

	return s.bills.WithLock(record.BillID, func() error {
		if err := s.repo.Delete(ctx, settlementID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrSettlementNotFound
			}
			return err
		}
		return nil
	})
}
