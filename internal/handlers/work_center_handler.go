package handlers

import (
	"net/http"
	"strconv"

	"github.com/belphemur/shop-timeline/internal/workorder"
)

// WorkCenterHandler lists the rows of the board
type WorkCenterHandler struct {
	*BaseHandler
}

// NewWorkCenterHandler creates a new work center handler
func NewWorkCenterHandler(baseHandler *BaseHandler) *WorkCenterHandler {
	return &WorkCenterHandler{BaseHandler: baseHandler}
}

// RegisterRoutes registers work center related routes
func (h *WorkCenterHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/work-centers", h.handleListWorkCenters)
}

// WorkCenterListResponse is one page of work centers
type WorkCenterListResponse struct {
	Total       int                    `json:"total"`
	Offset      int                    `json:"offset"`
	Limit       int                    `json:"limit"`
	WorkCenters []workorder.WorkCenter `json:"workCenters"`
}

// handleListWorkCenters handles GET requests for a page of work centers
func (h *WorkCenterHandler) handleListWorkCenters(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleListWorkCenters").Logger()

	offset, limit := 0, h.Config.Timeline.PageSize
	query := r.URL.Query()
	if value := query.Get("offset"); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			handlerLogger.Warn().Str("offset", value).Msg("Invalid offset")
			h.writeError(w, handlerLogger, http.StatusBadRequest, ErrCodeInvalidRowRange, err)
			return
		}
		offset = n
	}
	if value := query.Get("limit"); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			handlerLogger.Warn().Str("limit", value).Msg("Invalid limit")
			h.writeError(w, handlerLogger, http.StatusBadRequest, ErrCodeInvalidRowRange, err)
			return
		}
		limit = n
	}

	if err := h.Board.EnsureRange(r.Context(), offset, offset+limit); err != nil {
		handlerLogger.Error().Err(err).Msg("Failed to page in rows")
		h.writeError(w, handlerLogger, http.StatusInternalServerError, ErrCodeFailedLoadRows, err)
		return
	}

	rows := h.Board.Rows(offset, offset+limit)
	if rows == nil {
		rows = []workorder.WorkCenter{}
	}
	h.writeJSON(w, handlerLogger, http.StatusOK, WorkCenterListResponse{
		Total:       h.Board.Len(),
		Offset:      offset,
		Limit:       limit,
		WorkCenters: rows,
	})
}
