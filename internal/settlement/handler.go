package settlement

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hisab-app/hisab/internal/bill"
	"github.com/hisab-app/hisab/internal/engine"
	"github.com/hisab-app/hisab/pkg/middleware"
	"github.com/hisab-app/hisab/pkg/response"
)

// Handler handles HTTP requests for settlement operations
type Handler struct {
	service *Service
}

// NewHandler creates a new settlement handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for settlement endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/bill/{billId}", h.Record)
	r.Get("/bill/{billId}", h.ListByBill)
	r.Delete("/{id}", h.Delete)

	return r
}

// Record handles POST /settlements/bill/{billId}
// @Summary      Record a settlement against a bill
// @Description  Records a repayment from a debtor to a creditor. The amount is clamped to what is actually settleable between the two users; the response says when and why.
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        billId path int true "Bill ID"
// @Param        request body RecordSettlementRequest true "Settlement to record"
// @Success      201 {object} response.APIResponse{data=RecordSettlementResponse}
// @Failure      409 {object} response.APIResponse
// @Router       /settlements/bill/{billId} [post]
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	billID, err := strconv.ParseInt(chi.URLParam(r, "billId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid bill ID")
		return
	}

	var req RecordSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	resp, err := h.service.Record(r.Context(), billID, callerID, &req)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrNoSettlementNeeded):
			response.Conflict(w, err.Error())
		case errors.Is(err, bill.ErrBillNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, bill.ErrNotRoomMember):
			response.Forbidden(w, err.Error())
		default:
			response.BadRequest(w, err.Error())
		}
		return
	}

	response.JSON(w, http.StatusCreated, resp)
}

// ListByBill handles GET /settlements/bill/{billId}
// @Summary      List settlements recorded against a bill
// @Tags         settlements
// @Produce      json
// @Param        billId path int true "Bill ID"
// @Success      200 {object} response.APIResponse{data=[]Settlement}
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/bill/{billId} [get]
func (h *Handler) ListByBill(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	billID, err := strconv.ParseInt(chi.URLParam(r, "billId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid bill ID")
		return
	}

	settlements, err := h.service.ListByBill(r.Context(), billID, callerID)
	if err != nil {
		switch {
		case errors.Is(err, bill.ErrBillNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, bill.ErrNotRoomMember):
			response.Forbidden(w, err.Error())
		default:
			response.InternalError(w, "Failed to list settlements")
		}
		return
	}
	if settlements == nil {
		settlements = []*Settlement{}
	}

	response.JSON(w, http.StatusOK, settlements)
}

// Delete handles DELETE /settlements/{id}
// @Summary      Delete a recorded settlement
// @Description  Removes a settlement; its amount flows back into the bill's remaining balances on the next breakdown.
// @Tags         settlements
// @Param        id path int true "Settlement ID"
// @Success      204 "No Content"
// @Failure      403 {object} response.APIResponse
// @Router       /settlements/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	settlementID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid settlement ID")
		return
	}

	if err := h.service.Delete(r.Context(), settlementID, callerID); err != nil {
		switch {
		case errors.Is(err, ErrSettlementNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotRecorder):
			response.Forbidden(w, err.Error())
		default:
			response.InternalError(w, "Failed to delete settlement")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
