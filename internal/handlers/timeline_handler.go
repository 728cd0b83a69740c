package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/belphemur/shop-timeline/internal/sampledata"
	"github.com/belphemur/shop-timeline/internal/timeline"
	"github.com/belphemur/shop-timeline/internal/workorder"
)

var errInvalidRowRange = errors.New("invalid row range")

// TimelineHandler serves the grid: units, the current-unit marker and the
// positioned orders of a window of rows
type TimelineHandler struct {
	*BaseHandler
}

// NewTimelineHandler creates a new timeline handler
func NewTimelineHandler(baseHandler *BaseHandler) *TimelineHandler {
	return &TimelineHandler{BaseHandler: baseHandler}
}

// RegisterRoutes registers timeline related routes
func (h *TimelineHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/timeline", h.handleGetTimeline)
	mux.HandleFunc("GET /api/timeline/resolve", h.handleResolve)
}

// TimelineRow is one work center with its bars
type TimelineRow struct {
	Index      int                         `json:"index"`
	ID         string                      `json:"id"`
	Name       string                      `json:"name"`
	WorkOrders []workorder.PositionedOrder `json:"workOrders"`
}

// TimelineResponse is the JSON response of GET /api/timeline
type TimelineResponse struct {
	Scale         timeline.Scale      `json:"scale"`
	Anchor        time.Time           `json:"anchor"`
	Range         timeline.DateRange  `json:"range"`
	ColumnWidth   int                 `json:"columnWidth"`
	RowHeight     int                 `json:"rowHeight"`
	ContentWidth  float64             `json:"contentWidth"`
	ScrollOffset  float64             `json:"scrollOffset"`
	CurrentColumn int                 `json:"currentColumn"`
	CurrentLabel  string              `json:"currentLabel,omitempty"`
	Units         []timeline.TimeUnit `json:"units"`
	TotalRows     int                 `json:"totalRows"`
	RowStart      int                 `json:"rowStart"`
	RowEnd        int                 `json:"rowEnd"`
	Rows          []TimelineRow       `json:"rows"`
}

// ResolveTarget is the position of the resolved date in another scale
type ResolveTarget struct {
	Scale  timeline.Scale     `json:"scale"`
	Range  timeline.DateRange `json:"range"`
	Offset float64            `json:"offset"`
}

// ResolveResponse is the JSON response of GET /api/timeline/resolve
type ResolveResponse struct {
	Scale  timeline.Scale     `json:"scale"`
	Range  timeline.DateRange `json:"range"`
	Offset float64            `json:"offset"`
	Date   time.Time          `json:"date"`
	Column int                `json:"column"`
	Target *ResolveTarget     `json:"target,omitempty"`
}

// parseScaleParam reads a scale query parameter, falling back to def
func parseScaleParam(r *http.Request, name string, def timeline.Scale) (timeline.Scale, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return def, nil
	}
	return timeline.ParseScale(value)
}

// parseAnchorParam reads the anchor query parameter, falling back to now
func (h *TimelineHandler) parseAnchorParam(r *http.Request) (time.Time, error) {
	value := r.URL.Query().Get("anchor")
	if value == "" {
		return h.now().In(h.Config.Location()), nil
	}
	return sampledata.ParseDate(value, h.Config.Location())
}

// parseRowRange reads row_start and row_end. The end defaults to one page.
func (h *TimelineHandler) parseRowRange(r *http.Request) (int, int, error) {
	start, end := 0, h.Config.Timeline.PageSize
	if value := r.URL.Query().Get("row_start"); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, 0, err
		}
		start = n
		end = n + h.Config.Timeline.PageSize
	}
	if value := r.URL.Query().Get("row_end"); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, 0, err
		}
		end = n
	}
	if start < 0 || end < start {
		return 0, 0, errInvalidRowRange
	}
	return start, end, nil
}

// handleGetTimeline handles GET requests for the grid
func (h *TimelineHandler) handleGetTimeline(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleGetTimeline").Logger()
	handlerLogger.Debug().Str("query", r.URL.RawQuery).Msg("Handling get timeline request")

	scale, err := parseScaleParam(r, "scale", h.Config.Timeline.DefaultScale)
	if err != nil {
		handlerLogger.Warn().Err(err).Msg("Invalid scale")
		h.writeError(w, handlerLogger, http.StatusBadRequest, ErrCodeInvalidScale, err)
		return
	}
	anchor, err := h.parseAnchorParam(r)
	if err != nil {
		handlerLogger.Warn().Err(err).Msg("Invalid anchor")
		h.writeError(w, handlerLogger, http.StatusBadRequest, ErrCodeInvalidDate, err)
		return
	}
	rowStart, rowEnd, err := h.parseRowRange(r)
	if err != nil {
		handlerLogger.Warn().Err(err).Msg("Invalid row range")
		h.writeError(w, handlerLogger, http.StatusBadRequest, ErrCodeInvalidRowRange, err)
		return
	}

	if err := h.Board.EnsureRange(r.Context(), rowStart, rowEnd); err != nil {
		handlerLogger.Error().Err(err).Msg("Failed to page in rows")
		h.writeError(w, handlerLogger, http.StatusInternalServerError, ErrCodeFailedLoadRows, err)
		return
	}
	total := h.Board.Len()
	rowEnd = min(rowEnd, total)
	rowStart = min(rowStart, rowEnd)

	policy := h.Config.Policy()
	mapper := h.Config.Mapper()
	rng := policy.ComputeRange(scale, anchor)
	now := h.now()

	// the current-unit marker moves at most daily
	today := now.In(h.Config.Location()).Format(time.DateOnly)
	etag := newETag(h.Board.Version(), scale, rng.Start.UnixMilli(), anchor.UnixMilli(), rowStart, rowEnd, today)
	if notModified(w, r, etag) {
		handlerLogger.Debug().Msg("ETag matches - returning 304 Not Modified")
		return
	}

	units := policy.GenerateUnits(scale, rng)
	rows := make([]TimelineRow, 0, rowEnd-rowStart)
	for i := rowStart; i < rowEnd; i++ {
		wc, ok := h.Board.Row(i)
		if !ok {
			continue
		}
		rows = append(rows, TimelineRow{
			Index:      i,
			ID:         wc.ID,
			Name:       wc.Name,
			WorkOrders: workorder.Place(mapper, wc.Orders, units),
		})
	}

	resp := TimelineResponse{
		Scale:         scale,
		Anchor:        anchor,
		Range:         rng,
		ColumnWidth:   mapper.ColumnWidth,
		RowHeight:     h.Config.Timeline.RowHeight,
		ContentWidth:  mapper.ContentWidth(units),
		CurrentColumn: timeline.CurrentUnitColumn(now, units),
		CurrentLabel:  timeline.CurrentUnitLabel(now, units),
		Units:         units,
		TotalRows:     total,
		RowStart:      rowStart,
		RowEnd:        rowEnd,
		Rows:          rows,
	}
	// same placement as the first paint: one column of context left of the anchor
	if index, _, ok := timeline.LocateDate(anchor, units); ok {
		resp.ScrollOffset = math.Max(0, float64(index-1)*float64(mapper.ColumnWidth))
	}

	h.writeJSON(w, handlerLogger, http.StatusOK, resp)
	handlerLogger.Debug().Int("units", len(units)).Int("rows", len(rows)).Msg("Successfully returned timeline")
}

// handleResolve translates a pixel offset back into a date. With a "to"
// scale it also returns where that date lands after a scale switch.
func (h *TimelineHandler) handleResolve(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleResolve").Logger()

	scale, err := parseScaleParam(r, "scale", h.Config.Timeline.DefaultScale)
	if err != nil {
		h.writeError(w, handlerLogger, http.StatusBadRequest, ErrCodeInvalidScale, err)
		return
	}
	target, err := parseScaleParam(r, "to", "")
	if err != nil {
		h.writeError(w, handlerLogger, http.StatusBadRequest, ErrCodeInvalidScale, err)
		return
	}
	anchor, err := h.parseAnchorParam(r)
	if err != nil {
		h.writeError(w, handlerLogger, http.StatusBadRequest, ErrCodeInvalidDate, err)
		return
	}
	offset, err := strconv.ParseFloat(r.URL.Query().Get("offset"), 64)
	if err != nil || math.IsNaN(offset) || math.IsInf(offset, 0) {
		h.writeError(w, handlerLogger, http.StatusBadRequest, ErrCodeInvalidOffset, err)
		return
	}

	policy := h.Config.Policy()
	mapper := h.Config.Mapper()
	rng := policy.ComputeRange(scale, anchor)
	date := mapper.ResolveDateAtOffset(offset, scale, rng)

	resp := ResolveResponse{
		Scale:  scale,
		Range:  rng,
		Offset: offset,
		Date:   date,
		Column: int(math.Floor(offset/float64(mapper.ColumnWidth))) + 1,
	}
	if target != "" {
		targetRange := policy.ComputeRange(target, date)
		targetOffset, _ := mapper.OffsetForDate(date, policy.GenerateUnits(target, targetRange))
		resp.Target = &ResolveTarget{Scale: target, Range: targetRange, Offset: targetOffset}
	}

	handlerLogger.Debug().Float64("offset", offset).Time("date", date).Msg("Resolved offset")
	h.writeJSON(w, handlerLogger, http.StatusOK, resp)
}
