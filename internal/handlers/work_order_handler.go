package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/belphemur/shop-timeline/internal/constants"
	"github.com/belphemur/shop-timeline/internal/sampledata"
	"github.com/belphemur/shop-timeline/internal/workorder"
)

// WorkOrderHandler creates, edits and deletes work orders
type WorkOrderHandler struct {
	*BaseHandler
}

// NewWorkOrderHandler creates a new work order handler
func NewWorkOrderHandler(baseHandler *BaseHandler) *WorkOrderHandler {
	return &WorkOrderHandler{BaseHandler: baseHandler}
}

// RegisterRoutes registers work order related routes
func (h *WorkOrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/work-orders", h.handleCreate)
	mux.HandleFunc("PUT /api/work-orders/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE /api/work-orders/{id}", h.handleDelete)
}

// WorkOrderRequest is the body of POST and PUT. Dates are ISO-8601; zone-less
// values are read in the configured time zone. On create, a missing end date
// defaults to one week after the start and a missing status to open.
type WorkOrderRequest struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	WorkCenterID string `json:"workCenterId"`
	Status       string `json:"status"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
}

func (h *WorkOrderHandler) toOrder(req WorkOrderRequest, create bool) (workorder.WorkOrder, error) {
	loc := h.Config.Location()
	var result *multierror.Error

	start, err := sampledata.ParseDate(req.StartDate, loc)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("startDate: %w", err))
	}

	order := workorder.NewDraft(req.WorkCenterID, start)
	order.ID = req.ID
	order.Name = req.Name
	if req.Status != "" || !create {
		order.Status = constants.WorkOrderStatus(req.Status)
	}
	if req.EndDate != "" || !create {
		end, err := sampledata.ParseDate(req.EndDate, loc)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("endDate: %w", err))
		}
		order.EndDate = end
	}
	return order, result.ErrorOrNil()
}

// orderErrorStatus maps a board error to an HTTP status and error code
func orderErrorStatus(err error, failureCode string) (int, string) {
	var validation *multierror.Error
	switch {
	case errors.Is(err, workorder.ErrOverlap):
		return http.StatusConflict, ErrCodeWorkOrderOverlap
	case errors.Is(err, workorder.ErrNotFound):
		return http.StatusNotFound, ErrCodeWorkOrderNotFound
	case errors.Is(err, workorder.ErrUnknownWorkCenter):
		return http.StatusUnprocessableEntity, ErrCodeUnknownWorkCenter
	case errors.As(err, &validation):
		return http.StatusBadRequest, ErrCodeInvalidWorkOrder
	default:
		return http.StatusInternalServerError, failureCode
	}
}

func (h *WorkOrderHandler) decodeRequest(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (WorkOrderRequest, bool) {
	var req WorkOrderRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		logger.Warn().Err(err).Msg("Failed to decode request body")
		h.writeError(w, logger, http.StatusBadRequest, ErrCodeInvalidJSON, err)
		return req, false
	}
	return req, true
}

// handleCreate handles POST requests creating a work order
func (h *WorkOrderHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleCreateWorkOrder").Logger()
	handlerLogger.Info().Msg("Handling create work order request")

	req, ok := h.decodeRequest(w, r, handlerLogger)
	if !ok {
		return
	}
	order, err := h.toOrder(req, true)
	if err != nil {
		h.writeError(w, handlerLogger, http.StatusBadRequest, ErrCodeInvalidDate, err)
		return
	}

	saved, err := h.Board.CreateOrder(r.Context(), order)
	if err != nil {
		status, code := orderErrorStatus(err, ErrCodeFailedSaveWorkOrder)
		handlerLogger.Warn().Err(err).Str("code", code).Msg("Work order rejected")
		h.writeError(w, handlerLogger, status, code, err)
		return
	}

	handlerLogger.Info().Str("work_order_id", saved.ID).Msg("Work order created")
	w.Header().Set("Location", "/api/work-orders/"+saved.ID)
	h.writeJSON(w, handlerLogger, http.StatusCreated, saved)
}

// handleUpdate handles PUT requests replacing a work order
func (h *WorkOrderHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleUpdateWorkOrder").Logger()

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, handlerLogger, http.StatusBadRequest, ErrCodeMissingWorkOrderID, nil)
		return
	}
	handlerLogger = handlerLogger.With().Str("work_order_id", id).Logger()
	handlerLogger.Info().Msg("Handling update work order request")

	req, ok := h.decodeRequest(w, r, handlerLogger)
	if !ok {
		return
	}
	if req.ID != "" && req.ID != id {
		h.writeError(w, handlerLogger, http.StatusBadRequest, ErrCodeWorkOrderIDMismatch, nil)
		return
	}
	req.ID = id

	order, err := h.toOrder(req, false)
	if err != nil {
		h.writeError(w, handlerLogger, http.StatusBadRequest, ErrCodeInvalidDate, err)
		return
	}

	saved, err := h.Board.UpdateOrder(r.Context(), order)
	if err != nil {
		status, code := orderErrorStatus(err, ErrCodeFailedSaveWorkOrder)
		handlerLogger.Warn().Err(err).Str("code", code).Msg("Work order update rejected")
		h.writeError(w, handlerLogger, status, code, err)
		return
	}

	handlerLogger.Info().Msg("Work order updated")
	h.writeJSON(w, handlerLogger, http.StatusOK, saved)
}

// handleDelete handles DELETE requests
func (h *WorkOrderHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleDeleteWorkOrder").Str("work_order_id", r.PathValue("id")).Logger()
	handlerLogger.Info().Msg("Handling delete work order request")

	if err := h.Board.DeleteOrder(r.Context(), r.PathValue("id")); err != nil {
		status, code := orderErrorStatus(err, ErrCodeFailedDeleteWorkOrder)
		if status == http.StatusInternalServerError {
			handlerLogger.Error().Err(err).Msg("Failed to delete work order")
		}
		h.writeError(w, handlerLogger, status, code, err)
		return
	}

	handlerLogger.Info().Msg("Work order deleted")
	w.WriteHeader(http.StatusNoContent)
}
