package bill

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hisab-app/hisab/internal/engine"
	"github.com/hisab-app/hisab/pkg/middleware"
	"github.com/hisab-app/hisab/pkg/response"
)

// Handler handles HTTP requests for bill operations
type Handler struct {
	service *Service
}

// NewHandler creates a new bill handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for bill endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/room/{roomId}", h.ListByRoom)
	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	r.Get("/{id}/breakdown", h.Breakdown)
	r.Get("/{id}/transfers", h.Transfers)

	return r
}

// Create handles POST /bills
// @Summary      Create a bill
// @Description  Create a bill with its items, extras, payers and participants. All amounts are integer minor units.
// @Tags         bills
// @Accept       json
// @Produce      json
// @Param        request body CreateBillRequest true "Bill composition"
// @Success      201 {object} response.APIResponse{data=Bill}
// @Failure      400 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /bills [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	var req CreateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Title == "" {
		response.BadRequest(w, "bill title is required")
		return
	}

	b, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		h.writeServiceError(w, err, "Failed to create bill")
		return
	}

	response.JSON(w, http.StatusCreated, b)
}

// GetByID handles GET /bills/{id}
// @Summary      Get a bill with its composition
// @Tags         bills
// @Produce      json
// @Param        id path int true "Bill ID"
// @Success      200 {object} response.APIResponse{data=Bill}
// @Failure      404 {object} response.APIResponse
// @Router       /bills/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	billID, err := parseBillID(r)
	if err != nil {
		response.BadRequest(w, "Invalid bill ID")
		return
	}

	b, err := h.service.GetByID(r.Context(), billID, userID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to get bill")
		return
	}

	response.JSON(w, http.StatusOK, b)
}

// ListByRoom handles GET /bills/room/{roomId}
// @Summary      List bills in a room
// @Tags         bills
// @Produce      json
// @Param        roomId path int true "Room ID"
// @Success      200 {object} response.APIResponse{data=[]BillSummaryResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /bills/room/{roomId} [get]
func (h *Handler) ListByRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	roomID, err := strconv.ParseInt(chi.URLParam(r, "roomId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	bills, err := h.service.ListByRoom(r.Context(), roomID, userID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to list bills")
		return
	}

	summaries := make([]*BillSummaryResponse, len(bills))
	for i, b := range bills {
		summaries[i] = b.ToSummaryResponse()
	}
	response.JSON(w, http.StatusOK, summaries)
}

// Update handles PUT /bills/{id}
// @Summary      Replace a bill's composition
// @Description  Replaces title, participants, items, extras and payers. Recorded settlements are kept and revalidated against the new composition.
// @Tags         bills
// @Accept       json
// @Produce      json
// @Param        id path int true "Bill ID"
// @Param        request body UpdateBillRequest true "New composition"
// @Success      200 {object} response.APIResponse{data=Bill}
// @Failure      422 {object} response.APIResponse
// @Router       /bills/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	billID, err := parseBillID(r)
	if err != nil {
		response.BadRequest(w, "Invalid bill ID")
		return
	}

	var req UpdateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Title == "" {
		response.BadRequest(w, "bill title is required")
		return
	}

	b, err := h.service.Update(r.Context(), billID, userID, &req)
	if err != nil {
		h.writeServiceError(w, err, "Failed to update bill")
		return
	}

	response.JSON(w, http.StatusOK, b)
}

// Delete handles DELETE /bills/{id}
// @Summary      Delete a bill
// @Tags         bills
// @Param        id path int true "Bill ID"
// @Success      204 "No Content"
// @Failure      403 {object} response.APIResponse
// @Router       /bills/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	billID, err := parseBillID(r)
	if err != nil {
		response.BadRequest(w, "Invalid bill ID")
		return
	}

	if err := h.service.Delete(r.Context(), billID, userID); err != nil {
		h.writeServiceError(w, err, "Failed to delete bill")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Breakdown handles GET /bills/{id}/breakdown
// @Summary      Get the settlement breakdown for a bill
// @Description  Runs the calculation over the bill's current snapshot: per-user owed, covered, net and remaining balances plus suggested transfers.
// @Tags         bills
// @Produce      json
// @Param        id path int true "Bill ID"
// @Success      200 {object} response.APIResponse{data=engine.Result}
// @Failure      404 {object} response.APIResponse
// @Router       /bills/{id}/breakdown [get]
func (h *Handler) Breakdown(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	billID, err := parseBillID(r)
	if err != nil {
		response.BadRequest(w, "Invalid bill ID")
		return
	}

	_, result, err := h.service.Breakdown(r.Context(), billID, userID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to calculate breakdown")
		return
	}

	response.JSON(w, http.StatusOK, result)
}

// Transfers handles GET /bills/{id}/transfers
// @Summary      Get suggested transfers for a bill
// @Description  Returns the minimal transfer list that settles all remaining balances above the threshold.
// @Tags         bills
// @Produce      json
// @Param        id path int true "Bill ID"
// @Success      200 {object} response.APIResponse{data=[]engine.Transfer}
// @Failure      404 {object} response.APIResponse
// @Router       /bills/{id}/transfers [get]
func (h *Handler) Transfers(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	billID, err := parseBillID(r)
	if err != nil {
		response.BadRequest(w, "Invalid bill ID")
		return
	}

	_, result, err := h.service.Breakdown(r.Context(), billID, userID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to calculate transfers")
		return
	}

	transfers := result.SuggestedTransfers
	if transfers == nil {
		transfers = []engine.Transfer{}
	}
	response.JSON(w, http.StatusOK, transfers)
}

// writeServiceError maps service errors onto the response envelope.
// Calculation rejections carry every violation in the error details.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var verr *engine.ValidationError
	switch {
	case errors.As(err, &verr):
		response.ValidationFailed(w, "bill composition is invalid", verr.Violations)
	case errors.Is(err, ErrBillNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotRoomMember), errors.Is(err, ErrNotBillCreator):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrParticipantOutside):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}

func parseBillID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
