package room

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
)

// Common errors
var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrNotMember     = errors.New("you must be a member of this room")
	ErrMemberMissing = errors.New("member not found in this room")
)

// Service handles room business logic
type Service struct {
	repo *Repository
}

// NewService creates a new room service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Create creates a new room with the creator as its first member
func (s *Service) Create(ctx context.Context, creatorID int64, req *CreateRoomRequest) (*Room, error) {
	room, err := s.repo.Create(ctx, creatorID, req)
	if err != nil {
		return nil, err
	}
	slog.Info("room created", "room_id", room.ID, "created_by", creatorID)
	return room, nil
}

// GetByID retrieves a room, requiring the caller to be a member
func (s *Service) GetByID(ctx context.Context, roomID, userID int64) (*Room, []*Member, error) {
	room, err := s.repo.GetByID(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	if room == nil {
		return nil, nil, ErrRoomNotFound
	}

	isMember, err := s.repo.IsMember(ctx, roomID, userID)
	if err != nil {
		return nil, nil, err
	}
	if !isMember {
		return nil, nil, ErrNotMember
	}

	members, err := s.repo.GetMembers(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}

	return room, members, nil
}

// ListForUser retrieves all rooms the user belongs to
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]*Room, error) {
	return s.repo.ListByUserID(ctx, userID)
}

// AddMember adds a user to a room; the caller must already be a member
func (s *Service) AddMember(ctx context.Context, roomID, callerID int64, req *AddMemberRequest) error {
	isMember, err := s.repo.IsMember(ctx, roomID, callerID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrNotMember
	}

	already, err := s.repo.IsMember(ctx, roomID, req.UserID)
	if err != nil {
		return err
	}
	if already {
		return nil // idempotent
	}

	if err := s.repo.AddMember(ctx, roomID, req.UserID); err != nil {
		return err
	}
	slog.Info("member added to room", "room_id", roomID, "user_id", req.UserID, "added_by", callerID)
	return nil
}

// RemoveMember removes a user from a room; the caller must be a member
func (s *Service) RemoveMember(ctx context.Context, roomID, callerID, userID int64) error {
	isMember, err := s.repo.IsMember(ctx, roomID, callerID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrNotMember
	}

	if err := s.repo.RemoveMember(ctx, roomID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMemberMissing
		}
		return err
	}
	return nil
}
