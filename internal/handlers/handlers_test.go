package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belphemur/shop-timeline/internal/board"
	"github.com/belphemur/shop-timeline/internal/config"
	"github.com/belphemur/shop-timeline/internal/constants"
	"github.com/belphemur/shop-timeline/internal/database"
	"github.com/belphemur/shop-timeline/internal/timeline"
	"github.com/belphemur/shop-timeline/internal/workorder"
)

var testNow = time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)

func setupTestServer(t *testing.T) (*http.ServeMux, *BaseHandler) {
	t.Helper()

	db, err := database.New(database.NewDefaultOptions(filepath.Join(t.TempDir(), "api.db")))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })
	require.NoError(t, db.MigrateDatabase())

	store := database.NewWorkOrderStore(db)
	centers := []workorder.WorkCenter{
		{ID: "wc-1", Name: "Extrusion Line A"},
		{ID: "wc-2", Name: "CNC Machine 1"},
	}
	orders := []workorder.WorkOrder{
		{
			ID: "wo-1", WorkCenterID: "wc-1", Name: "Housing batch", Status: constants.StatusInProgress,
			StartDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: "wo-old", WorkCenterID: "wc-2", Name: "Outside the range", Status: constants.StatusComplete,
			StartDate: time.Date(2015, 1, 5, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2015, 1, 10, 0, 0, 0, 0, time.UTC),
		},
	}
	require.NoError(t, store.ReplaceAll(context.Background(), centers, orders))

	b := board.New(store, 50)
	require.NoError(t, b.Load(context.Background()))

	cfg, err := config.Load("")
	require.NoError(t, err)

	base := NewBaseHandler(cfg, b)
	base.now = func() time.Time { return testNow }

	mux := http.NewServeMux()
	RegisterRoutes(mux, base)
	return mux, base
}

func doRequest(t *testing.T, mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetTimeline_Month(t *testing.T) {
	mux, _ := setupTestServer(t)

	w := doRequest(t, mux, http.MethodGet, "/api/timeline?scale=month&anchor=2026-01-15", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("ETag"))

	var resp TimelineResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, timeline.ScaleMonth, resp.Scale)
	assert.True(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Equal(resp.Range.Start))
	assert.True(t, time.Date(2028, 1, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC).Equal(resp.Range.End))
	require.Len(t, resp.Units, 49)
	assert.Equal(t, "Jan 2026", resp.Units[24].Label)
	assert.Equal(t, 113, resp.ColumnWidth)
	assert.Equal(t, 48, resp.RowHeight)
	assert.Equal(t, float64(49*113), resp.ContentWidth)
	assert.Equal(t, float64(23*113), resp.ScrollOffset)
	assert.Equal(t, 25, resp.CurrentColumn)
	assert.Equal(t, "Current month", resp.CurrentLabel)

	assert.Equal(t, 2, resp.TotalRows)
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "wc-1", resp.Rows[0].ID)
	require.Len(t, resp.Rows[0].WorkOrders, 1)
	bar := resp.Rows[0].WorkOrders[0]
	assert.Equal(t, "wo-1", bar.Order.ID)
	assert.Equal(t, 25, bar.ColumnStart)
	assert.Equal(t, 26, bar.ColumnEnd)
	assert.Empty(t, resp.Rows[1].WorkOrders, "orders outside the unit span are not placed")
}

func TestGetTimeline_Defaults(t *testing.T) {
	mux, _ := setupTestServer(t)

	w := doRequest(t, mux, http.MethodGet, "/api/timeline?scale=day", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp TimelineResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, testNow.Equal(resp.Anchor), "anchor defaults to now")
	assert.Equal(t, 31, resp.CurrentColumn)
	assert.Equal(t, "Current day", resp.CurrentLabel)
	assert.Equal(t, "Jan 15", resp.Units[30].Label)
}

func TestGetTimeline_RowWindow(t *testing.T) {
	mux, _ := setupTestServer(t)

	w := doRequest(t, mux, http.MethodGet, "/api/timeline?row_start=1&row_end=10", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp TimelineResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.RowStart)
	assert.Equal(t, 2, resp.RowEnd, "end is clamped to the row count")
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, 1, resp.Rows[0].Index)
	assert.Equal(t, "wc-2", resp.Rows[0].ID)
}

func TestGetTimeline_BadRequests(t *testing.T) {
	mux, _ := setupTestServer(t)

	tests := []struct {
		name  string
		query string
		code  string
	}{
		{name: "hour scale", query: "scale=hour", code: ErrCodeInvalidScale},
		{name: "unknown scale", query: "scale=year", code: ErrCodeInvalidScale},
		{name: "bad anchor", query: "anchor=tomorrow", code: ErrCodeInvalidDate},
		{name: "negative row start", query: "row_start=-1", code: ErrCodeInvalidRowRange},
		{name: "inverted rows", query: "row_start=5&row_end=2", code: ErrCodeInvalidRowRange},
		{name: "non numeric rows", query: "row_end=ten", code: ErrCodeInvalidRowRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, mux, http.MethodGet, "/api/timeline?"+tt.query, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.code, resp.Error)
			assert.Equal(t, GetErrorMessage(tt.code), resp.Message)
		})
	}
}

func TestGetTimeline_ETag(t *testing.T) {
	mux, base := setupTestServer(t)
	target := "/api/timeline?scale=week&anchor=2026-01-15"

	first := doRequest(t, mux, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("If-None-Match", `"other", `+etag)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.Bytes())

	_, err := base.Board.CreateOrder(context.Background(), workorder.WorkOrder{
		Name: "New", WorkCenterID: "wc-2", Status: constants.StatusOpen,
		StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "a board change invalidates the tag")
	assert.NotEqual(t, etag, w.Header().Get("ETag"))
}

func TestMatchesETag(t *testing.T) {
	assert.True(t, matchesETag("*", `"a"`))
	assert.True(t, matchesETag(`"b", "a"`, `"a"`))
	assert.False(t, matchesETag(`"b"`, `"a"`))
	assert.Equal(t, []string{`"a"`, `"b"`}, parseETags(` "a" ,, "b" `))
}

func TestResolve(t *testing.T) {
	mux, _ := setupTestServer(t)

	t.Run("column start", func(t *testing.T) {
		w := doRequest(t, mux, http.MethodGet, "/api/timeline/resolve?scale=month&anchor=2026-01-15&offset=2712", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp ResolveResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Equal(resp.Date))
		assert.Equal(t, 25, resp.Column)
		assert.Nil(t, resp.Target)
	})

	t.Run("interpolates inside the column", func(t *testing.T) {
		w := doRequest(t, mux, http.MethodGet, "/api/timeline/resolve?scale=month&anchor=2026-01-15&offset=2768.5", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp ResolveResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, time.Date(2026, 1, 16, 12, 0, 0, 0, time.UTC).Equal(resp.Date), "got %s", resp.Date)
	})

	t.Run("translates into another scale", func(t *testing.T) {
		w := doRequest(t, mux, http.MethodGet, "/api/timeline/resolve?scale=month&anchor=2026-01-15&offset=2712&to=day", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp ResolveResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Target)
		assert.Equal(t, timeline.ScaleDay, resp.Target.Scale)
		assert.True(t, time.Date(2025, 12, 2, 0, 0, 0, 0, time.UTC).Equal(resp.Target.Range.Start))
		assert.Equal(t, float64(30*113), resp.Target.Offset)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		for _, query := range []string{"offset=abc", "offset=NaN", "offset=10&to=hour", "scale=hour&offset=1"} {
			w := doRequest(t, mux, http.MethodGet, "/api/timeline/resolve?"+query, "")
			assert.Equal(t, http.StatusBadRequest, w.Code, query)
		}
	})
}

func TestListWorkCenters(t *testing.T) {
	mux, _ := setupTestServer(t)

	w := doRequest(t, mux, http.MethodGet, "/api/work-centers?offset=1&limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp WorkCenterListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.WorkCenters, 1)
	assert.Equal(t, "CNC Machine 1", resp.WorkCenters[0].Name)

	w = doRequest(t, mux, http.MethodGet, "/api/work-centers?offset=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.WorkCenters)
	assert.Contains(t, w.Body.String(), `"workCenters":[]`)

	w = doRequest(t, mux, http.MethodGet, "/api/work-centers?limit=-3", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateWorkOrder(t *testing.T) {
	mux, base := setupTestServer(t)

	w := doRequest(t, mux, http.MethodPost, "/api/work-orders",
		`{"name": "Bracket run", "workCenterId": "wc-2", "startDate": "2026-02-02T08:00:00"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var saved workorder.WorkOrder
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "/api/work-orders/"+saved.ID, w.Header().Get("Location"))
	assert.Equal(t, constants.StatusOpen, saved.Status, "status defaults to open")
	assert.Equal(t, workorder.DefaultDuration, saved.EndDate.Sub(saved.StartDate), "end defaults to one week later")

	row, ok := base.Board.Row(1)
	require.True(t, ok)
	require.Len(t, row.Orders, 2)
}

func TestCreateWorkOrder_Rejected(t *testing.T) {
	mux, _ := setupTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{
			name:   "touching an existing order",
			body:   `{"name": "B", "workCenterId": "wc-1", "status": "open", "startDate": "2026-01-10", "endDate": "2026-01-12"}`,
			status: http.StatusConflict,
			code:   ErrCodeWorkOrderOverlap,
		},
		{
			name:   "end before start",
			body:   `{"name": "B", "workCenterId": "wc-2", "status": "open", "startDate": "2026-03-10", "endDate": "2026-03-01"}`,
			status: http.StatusBadRequest,
			code:   ErrCodeInvalidWorkOrder,
		},
		{
			name:   "missing name",
			body:   `{"workCenterId": "wc-2", "startDate": "2026-03-10"}`,
			status: http.StatusBadRequest,
			code:   ErrCodeInvalidWorkOrder,
		},
		{
			name:   "unknown work center",
			body:   `{"name": "B", "workCenterId": "wc-9", "startDate": "2026-03-10"}`,
			status: http.StatusUnprocessableEntity,
			code:   ErrCodeUnknownWorkCenter,
		},
		{
			name:   "bad date",
			body:   `{"name": "B", "workCenterId": "wc-2", "startDate": "10/03/2026"}`,
			status: http.StatusBadRequest,
			code:   ErrCodeInvalidDate,
		},
		{
			name:   "malformed json",
			body:   `{"name": `,
			status: http.StatusBadRequest,
			code:   ErrCodeInvalidJSON,
		},
		{
			name:   "unknown field",
			body:   `{"title": "B"}`,
			status: http.StatusBadRequest,
			code:   ErrCodeInvalidJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, mux, http.MethodPost, "/api/work-orders", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decodeError(t, w).Error)
		})
	}
}

func TestUpdateWorkOrder(t *testing.T) {
	mux, base := setupTestServer(t)

	// moving the order onto its own slot is not a conflict
	w := doRequest(t, mux, http.MethodPut, "/api/work-orders/wo-1",
		`{"name": "Housing batch v2", "workCenterId": "wc-1", "status": "blocked", "startDate": "2026-01-06", "endDate": "2026-01-12"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	row, ok := base.Board.Row(0)
	require.True(t, ok)
	require.Len(t, row.Orders, 1)
	assert.Equal(t, "Housing batch v2", row.Orders[0].Name)
	assert.Equal(t, constants.StatusBlocked, row.Orders[0].Status)

	w = doRequest(t, mux, http.MethodPut, "/api/work-orders/wo-1",
		`{"id": "wo-2", "name": "X", "workCenterId": "wc-1", "status": "open", "startDate": "2026-01-06", "endDate": "2026-01-12"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrCodeWorkOrderIDMismatch, decodeError(t, w).Error)

	w = doRequest(t, mux, http.MethodPut, "/api/work-orders/missing",
		`{"name": "X", "workCenterId": "wc-2", "status": "open", "startDate": "2026-05-06", "endDate": "2026-05-12"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrCodeWorkOrderNotFound, decodeError(t, w).Error)

	w = doRequest(t, mux, http.MethodPut, "/api/work-orders/wo-1",
		`{"name": "X", "workCenterId": "wc-1", "startDate": "2026-01-06"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "updates need both dates")
}

func TestDeleteWorkOrder(t *testing.T) {
	mux, base := setupTestServer(t)

	w := doRequest(t, mux, http.MethodDelete, "/api/work-orders/wo-1", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	row, ok := base.Board.Row(0)
	require.True(t, ok)
	assert.Empty(t, row.Orders)

	w = doRequest(t, mux, http.MethodDelete, "/api/work-orders/wo-1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrCodeWorkOrderNotFound, decodeError(t, w).Error)
}

func TestMethodNotAllowed(t *testing.T) {
	mux, _ := setupTestServer(t)
	w := doRequest(t, mux, http.MethodPost, "/api/timeline", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestGetErrorMessage(t *testing.T) {
	assert.Equal(t, ErrorMessages[ErrCodeWorkOrderOverlap], GetErrorMessage(ErrCodeWorkOrderOverlap))
	assert.Equal(t, ErrorMessages[ErrCodeUnknown], GetErrorMessage("nope"))
}
