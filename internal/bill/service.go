package bill

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hisab-app/hisab/internal/engine"
	"github.com/hisab-app/hisab/internal/obs"
	"github.com/hisab-app/hisab/internal/room"
)

var (
	ErrBillNotFound       = errors.New("bill not found")
	ErrNotRoomMember      = errors.New("user is not a member of this room")
	ErrNotBillCreator     = errors.New("only the bill creator can delete it")
	ErrParticipantOutside = errors.New("all bill participants must be room members")
)

// Service handles bill business logic. Writes to the same bill are serialized
// through a per-bill lock so a settlement cannot race a composition change.
type Service struct {
	repo  *Repository
	rooms *room.Repository
	locks sync.Map // bill ID -> *sync.Mutex
}

// NewService creates a new bill service
func NewService(repo *Repository, rooms *room.Repository) *Service {
	return &Service{repo: repo, rooms: rooms}
}

// WithLock runs fn while holding the write lock for the given bill.
func (s *Service) WithLock(billID int64, fn func() error) error {
	v, _ := s.locks.LoadOrStore(billID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()
	return fn()
}

// Create validates the composition through a dry calculation run and persists
// the bill. Returns *engine.ValidationError when the composition is rejected.
func (s *Service) Create(ctx context.Context, userID int64, req *CreateBillRequest) (*Bill, error) {
	if err := s.requireMember(ctx, req.RoomID, userID); err != nil {
		return nil, err
	}
	for _, participant := range req.Participants {
		ok, err := s.rooms.IsMember(ctx, req.RoomID, participant)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: user %d", ErrParticipantOutside, participant)
		}
	}

	b, err := req.toBill(userID)
	if err != nil {
		return nil, err
	}

	if _, err := engine.Calculate(b.ToEngineInput(nil)); err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			obs.ObserveCalculation("rejected")
		}
		return nil, err
	}

	created, err := s.repo.Create(ctx, b)
	if err != nil {
		return nil, err
	}
	slog.Info("bill created", "bill_id", created.ID, "room_id", created.RoomID, "participants", len(created.Participants))
	return created, nil
}

// GetByID returns a bill with its full composition. The caller must be a
// member of the bill's room.
func (s *Service) GetByID(ctx context.Context, billID, userID int64) (*Bill, error) {
	b, err := s.repo.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBillNotFound
	}
	if err := s.requireMember(ctx, b.RoomID, userID); err != nil {
		return nil, err
	}
	return b, nil
}

// ListByRoom returns bill headers for a room the caller belongs to.
func (s *Service) ListByRoom(ctx context.Context, roomID, userID int64) ([]*Bill, error) {
	if err := s.requireMember(ctx, roomID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListByRoomID(ctx, roomID)
}

// Update replaces the bill's title and composition. The new composition is
// validated together with the already recorded settlements, so an edit cannot
// strand a settlement on a user who is no longer a participant.
func (s *Service) Update(ctx context.Context, billID, userID int64, req *UpdateBillRequest) (*Bill, error) {
	var updated *Bill
	err := s.WithLock(billID, func() error {
		current, err := s.GetByID(ctx, billID, userID)
		if err != nil {
			return err
		}
		for _, participant := range req.Participants {
			ok, err := s.rooms.IsMember(ctx, current.RoomID, participant)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: user %d", ErrParticipantOutside, participant)
			}
		}

		create := CreateBillRequest{
			RoomID:       current.RoomID,
			Title:        req.Title,
			Participants: req.Participants,
			Items:        req.Items,
			Extras:       req.Extras,
			Payers:       req.Payers,
		}
		b, err := create.toBill(current.CreatedBy)
		if err != nil {
			return err
		}
		b.ID = current.ID
		b.CreatedAt = current.CreatedAt

		settlements, err := s.repo.GetSettlements(ctx, billID)
		if err != nil {
			return err
		}
		if _, err := engine.Calculate(b.ToEngineInput(settlements)); err != nil {
			var verr *engine.ValidationError
			if errors.As(err, &verr) {
				obs.ObserveCalculation("rejected")
			}
			return err
		}

		if err := s.repo.Update(ctx, b); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrBillNotFound
			}
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a bill. Only the creator may delete.
func (s *Service) Delete(ctx context.Context, billID, userID int64) error {
	return s.WithLock(billID, func() error {
		b, err := s.GetByID(ctx, billID, userID)
		if err != nil {
			return err
		}
		if b.CreatedBy != userID {
			return ErrNotBillCreator
		}
		if err := s.repo.Delete(ctx, billID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrBillNotFound
			}
			return err
		}
		return nil
	})
}

// Breakdown runs the settlement calculation over the bill's current snapshot,
// recorded settlements included.
func (s *Service) Breakdown(ctx context.Context, billID, userID int64) (*Bill, *engine.Result, error) {
	b, err := s.GetByID(ctx, billID, userID)
	if err != nil {
		return nil, nil, err
	}
	settlements, err := s.repo.GetSettlements(ctx, billID)
	if err != nil {
		return nil, nil, err
	}

	result, err := engine.Calculate(b.ToEngineInput(settlements))
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			obs.ObserveCalculation("rejected")
		}
		return nil, nil, err
	}
	if result.IsBalanced {
		obs.ObserveCalculation("balanced")
	} else {
		obs.ObserveCalculation("unbalanced")
	}
	return b, result, nil
}

func (s *Service) requireMember(ctx context.Context, roomID, userID int64) error {
	ok, err := s.rooms.IsMember(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotRoomMember
	}
	return nil
}
