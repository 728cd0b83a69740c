// Package handlers exposes the timeline and work-order CRUD as a JSON API
package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/belphemur/shop-timeline/internal/board"
	"github.com/belphemur/shop-timeline/internal/config"
	"github.com/belphemur/shop-timeline/internal/logging"
)

// BaseHandler contains common handler functionality
type BaseHandler struct {
	Board  *board.Board
	Config *config.Config
	logger zerolog.Logger
	now    func() time.Time
}

// NewBaseHandler creates a common base handler with shared components
func NewBaseHandler(cfg *config.Config, b *board.Board) *BaseHandler {
	return &BaseHandler{
		Board:  b,
		Config: cfg,
		logger: logging.GetLogger("api"),
		now:    time.Now,
	}
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// writeJSON encodes v with the given status
func (h *BaseHandler) writeJSON(w http.ResponseWriter, logger zerolog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError writes the error code, its message and optional details
func (h *BaseHandler) writeError(w http.ResponseWriter, logger zerolog.Logger, status int, code string, err error) {
	resp := ErrorResponse{Error: code, Message: GetErrorMessage(code)}
	if err != nil && status < http.StatusInternalServerError {
		resp.Details = err.Error()
	}
	h.writeJSON(w, logger, status, resp)
}

// newETag hashes the parts into a quoted entity tag (RFC 7232)
func newETag(parts ...any) string {
	hash := sha256.New()
	for _, part := range parts {
		_, _ = fmt.Fprintf(hash, "%v|", part)
	}
	return fmt.Sprintf("\"%s\"", hex.EncodeToString(hash.Sum(nil)[:16]))
}

// matchesETag checks if the If-None-Match header matches the current ETag
func matchesETag(ifNoneMatch, currentETag string) bool {
	if ifNoneMatch == "*" {
		return true
	}
	for _, etag := range parseETags(ifNoneMatch) {
		if etag == currentETag {
			return true
		}
	}
	return false
}

// parseETags parses comma-separated ETags from If-None-Match header
func parseETags(header string) []string {
	parts := strings.Split(header, ",")
	etags := make([]string, 0, len(parts))
	for _, part := range parts {
		etag := strings.TrimSpace(part)
		if etag != "" {
			etags = append(etags, etag)
		}
	}
	return etags
}

// notModified sets the ETag and reports whether the client copy is current
func notModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	w.Header().Set("ETag", etag)
	if ifNoneMatch := r.Header.Get("If-None-Match"); ifNoneMatch != "" && matchesETag(ifNoneMatch, etag) {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

// RegisterRoutes registers every API route on mux
func RegisterRoutes(mux *http.ServeMux, base *BaseHandler) {
	NewTimelineHandler(base).RegisterRoutes(mux)
	NewWorkCenterHandler(base).RegisterRoutes(mux)
	NewWorkOrderHandler(base).RegisterRoutes(mux)
}
