package room

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hisab-app/hisab/pkg/middleware"
	"github.com/hisab-app/hisab/pkg/response"
)

// Handler handles HTTP requests for room operations
type Handler struct {
	service *Service
}

// NewHandler creates a new room handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for room endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)

	// Member management
	r.Post("/{id}/members", h.AddMember)
	r.Delete("/{id}/members/{userId}", h.RemoveMember)

	return r
}

// Create handles POST /rooms
// @Summary      Create a new room
// @Description  Create a room and add the creator as its first member
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        request body CreateRoomRequest true "Room creation request"
// @Success      201 {object} response.APIResponse{data=RoomResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /rooms [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Name == "" {
		response.BadRequest(w, "room name is required")
		return
	}

	room, err := h.service.Create(r.Context(), creatorID, &req)
	if err != nil {
		response.InternalError(w, "Failed to create room")
		return
	}

	response.JSON(w, http.StatusCreated, room.ToResponse())
}

// List handles GET /rooms
// @Summary      List the caller's rooms
// @Tags         rooms
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]RoomResponse}
// @Router       /rooms [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	rooms, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to list rooms")
		return
	}

	responses := make([]*RoomResponse, len(rooms))
	for i, room := range rooms {
		responses[i] = room.ToResponse()
	}
	response.JSON(w, http.StatusOK, responses)
}

// GetByID handles GET /rooms/{id}
// @Summary      Get a room with its members
// @Tags         rooms
// @Produce      json
// @Param        id path int true "Room ID"
// @Success      200 {object} response.APIResponse{data=RoomResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /rooms/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	roomID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	room, members, err := h.service.GetByID(r.Context(), roomID, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrRoomNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotMember):
			response.Forbidden(w, err.Error())
		default:
			response.InternalError(w, "Failed to get room")
		}
		return
	}

	resp := room.ToResponse()
	resp.Members = make([]*MemberResponse, len(members))
	for i, member := range members {
		resp.Members[i] = member.ToResponse()
	}
	response.JSON(w, http.StatusOK, resp)
}

// AddMember handles POST /rooms/{id}/members
// @Summary      Add a member to a room
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        id path int true "Room ID"
// @Param        request body AddMemberRequest true "Member to add"
// @Success      204 "No Content"
// @Failure      403 {object} response.APIResponse
// @Router       /rooms/{id}/members [post]
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	roomID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.service.AddMember(r.Context(), roomID, callerID, &req); err != nil {
		if errors.Is(err, ErrNotMember) {
			response.Forbidden(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to add member")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveMember handles DELETE /rooms/{id}/members/{userId}
// @Summary      Remove a member from a room
// @Tags         rooms
// @Param        id path int true "Room ID"
// @Param        userId path int true "User ID"
// @Success      204 "No Content"
// @Failure      404 {object} response.APIResponse
// @Router       /rooms/{id}/members/{userId} [delete]
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	roomID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid room ID")
		return
	}
	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	if err := h.service.RemoveMember(r.Context(), roomID, callerID, userID); err != nil {
		switch {
		case errors.Is(err, ErrNotMember):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrMemberMissing):
			response.NotFound(w, err.Error())
		default:
			response.InternalError(w, "Failed to remove member")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
