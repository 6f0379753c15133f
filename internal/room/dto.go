package room

// CreateRoomRequest represents the request to create a new room
type CreateRoomRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description *string `json:"description,omitempty"`
}

// AddMemberRequest represents the request to add a member to a room
type AddMemberRequest struct {
	UserID int64 `json:"user_id" validate:"required"`
}

// RoomResponse represents the response for a room
type RoomResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	CreatedBy   int64             `json:"created_by"`
	CreatedAt   string            `json:"created_at"`
	Members     []*MemberResponse `json:"members,omitempty"`
}

// MemberResponse represents a member in a room response
type MemberResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	JoinedAt string `json:"joined_at"`
}

// ToResponse converts a Room model to a RoomResponse DTO
func (r *Room) ToResponse() *RoomResponse {
	return &RoomResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ToResponse converts a Member model to a MemberResponse DTO
func (m *Member) ToResponse() *MemberResponse {
	return &MemberResponse{
		UserID:   m.UserID,
		Username: m.Username,
		JoinedAt: m.JoinedAt.Format("2006-01-02T15:04:05Z"),
	}
}
