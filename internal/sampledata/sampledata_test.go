package sampledata

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belphemur/shop-timeline/internal/constants"
	"github.com/belphemur/shop-timeline/internal/workorder"
)

const validDoc = `{
  "metadata": {"generatedAt": "2026-01-01T00:00:00Z", "version": "1.0.0"},
  "data": {
    "workCenters": [
      {"docId": "wc-1", "docType": "workCenter", "data": {"name": "Extrusion Line A"}},
      {"docId": "wc-2", "docType": "workCenter", "data": {"name": "CNC Machine 1"}}
    ],
    "workOrders": [
      {"docId": "wo-1", "docType": "workOrder", "data": {"name": "Order 1", "workCenterId": "wc-1", "status": "open", "startDate": "2026-01-05T08:00:00", "endDate": "2026-01-09T17:00:00"}},
      {"docId": "wo-2", "docType": "workOrder", "data": {"name": "Order 2", "workCenterId": "wc-1", "status": "blocked", "startDate": "2026-01-12", "endDate": "2026-01-20"}},
      {"docId": "wo-3", "docType": "workOrder", "data": {"name": "Order 3", "workCenterId": "wc-2", "status": "in-progress", "startDate": "2026-01-05T08:00:00+02:00", "endDate": "2026-01-06T08:00:00Z"}}
    ]
  }
}`

type fakeBoard struct {
	centers []workorder.WorkCenter
	orders  []workorder.WorkOrder
	calls   int
}

func (b *fakeBoard) Replace(_ context.Context, centers []workorder.WorkCenter, orders []workorder.WorkOrder) error {
	b.calls++
	b.centers = centers
	b.orders = orders
	return nil
}

func TestParseDate(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	tests := []struct {
		name     string
		value    string
		expected time.Time
	}{
		{name: "zone-less datetime uses location", value: "2025-01-15T09:30:00", expected: time.Date(2025, 1, 15, 9, 30, 0, 0, paris)},
		{name: "date only", value: "2025-01-15", expected: time.Date(2025, 1, 15, 0, 0, 0, 0, paris)},
		{name: "minutes only", value: "2025-01-15T09:30", expected: time.Date(2025, 1, 15, 9, 30, 0, 0, paris)},
		{name: "fractional seconds", value: "2025-01-15T09:30:00.250", expected: time.Date(2025, 1, 15, 9, 30, 0, 250_000_000, paris)},
		{name: "explicit UTC", value: "2025-01-15T09:30:00Z", expected: time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)},
		{name: "explicit offset", value: "2025-01-15T09:30:00+05:00", expected: time.Date(2025, 1, 15, 4, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.value, paris)
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}

	_, err = ParseDate("15/01/2025", paris)
	assert.Error(t, err)
}

func TestDecode_Valid(t *testing.T) {
	centers, orders, err := Decode(strings.NewReader(validDoc), time.UTC)
	require.NoError(t, err)

	require.Len(t, centers, 2)
	assert.Equal(t, "Extrusion Line A", centers[0].Name)
	require.Len(t, orders, 3)
	assert.Equal(t, constants.StatusBlocked, orders[1].Status)
	assert.Equal(t, time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC), orders[0].StartDate)
	assert.True(t, time.Date(2026, 1, 5, 6, 0, 0, 0, time.UTC).Equal(orders[2].StartDate))
}

func TestDecode_NilLocationDefaultsToUTC(t *testing.T) {
	_, orders, err := Decode(strings.NewReader(validDoc), nil)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, orders[0].StartDate.Location())
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		contains []string
	}{
		{
			name:     "malformed json",
			doc:      `{"data": [`,
			contains: []string{"failed to parse sample data"},
		},
		{
			name: "duplicate center names ignore case",
			doc: `{"data": {"workCenters": [
				{"docId": "a", "docType": "workCenter", "data": {"name": "Paint"}},
				{"docId": "b", "docType": "workCenter", "data": {"name": "paint"}}
			]}}`,
			contains: []string{"duplicate work center name"},
		},
		{
			name: "wrong and unknown doc types",
			doc: `{"data": {"workCenters": [
				{"docId": "a", "docType": "workOrder", "data": {"name": "A"}},
				{"docId": "b", "docType": "machine", "data": {"name": "B"}}
			]}}`,
			contains: []string{`docType "workOrder" found where "workCenter" was expected`, `unknown docType "machine"`},
		},
		{
			name: "order problems are all reported",
			doc: `{"data": {
				"workCenters": [{"docId": "wc", "docType": "workCenter", "data": {"name": "A"}}],
				"workOrders": [
					{"docId": "o1", "docType": "workOrder", "data": {"name": "", "workCenterId": "wc", "status": "open", "startDate": "2026-01-01", "endDate": "2026-01-02"}},
					{"docId": "o2", "docType": "workOrder", "data": {"name": "B", "workCenterId": "wc", "status": "paused", "startDate": "2026-02-01", "endDate": "2026-02-02"}},
					{"docId": "o3", "docType": "workOrder", "data": {"name": "C", "workCenterId": "wc", "status": "open", "startDate": "2026-03-05", "endDate": "2026-03-01"}},
					{"docId": "o4", "docType": "workOrder", "data": {"name": "D", "workCenterId": "missing", "status": "open", "startDate": "2026-04-01", "endDate": "2026-04-02"}},
					{"docId": "o5", "docType": "workOrder", "data": {"name": "E", "workCenterId": "wc", "status": "open", "startDate": "yesterday", "endDate": "2026-04-02"}}
				]
			}}`,
			contains: []string{
				"workOrders[0]", workorder.ErrMissingName.Error(),
				"workOrders[1]", `invalid status "paused"`,
				"workOrders[2]", workorder.ErrInvalidInterval.Error(),
				"workOrders[3]", workorder.ErrUnknownWorkCenter.Error(),
				"workOrders[4]", "startDate",
			},
		},
		{
			name: "touching orders on one center overlap",
			doc: `{"data": {
				"workCenters": [{"docId": "wc", "docType": "workCenter", "data": {"name": "A"}}],
				"workOrders": [
					{"docId": "o1", "docType": "workOrder", "data": {"name": "A", "workCenterId": "wc", "status": "open", "startDate": "2026-01-01", "endDate": "2026-01-05"}},
					{"docId": "o2", "docType": "workOrder", "data": {"name": "B", "workCenterId": "wc", "status": "open", "startDate": "2026-01-05", "endDate": "2026-01-08"}}
				]
			}}`,
			contains: []string{"workOrders[1]", workorder.ErrOverlap.Error(), "(o1)"},
		},
		{
			name: "duplicate order ids",
			doc: `{"data": {
				"workCenters": [{"docId": "wc", "docType": "workCenter", "data": {"name": "A"}}],
				"workOrders": [
					{"docId": "o1", "docType": "workOrder", "data": {"name": "A", "workCenterId": "wc", "status": "open", "startDate": "2026-01-01", "endDate": "2026-01-05"}},
					{"docId": "o1", "docType": "workOrder", "data": {"name": "B", "workCenterId": "wc", "status": "open", "startDate": "2026-02-01", "endDate": "2026-02-05"}}
				]
			}}`,
			contains: []string{`duplicate docId "o1"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			centers, orders, err := Decode(strings.NewReader(tt.doc), time.UTC)
			require.Error(t, err)
			assert.Nil(t, centers)
			assert.Nil(t, orders)
			for _, want := range tt.contains {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	centers, orders, err := Decode(strings.NewReader(validDoc), time.UTC)
	require.NoError(t, err)

	var buf bytes.Buffer
	generated := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, Encode(&buf, centers, orders, generated))
	assert.Contains(t, buf.String(), `"generatedAt": "2026-10-01T12:00:00Z"`)
	assert.Contains(t, buf.String(), `"version": "1.0.0"`)

	gotCenters, gotOrders, err := Decode(&buf, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, centers, gotCenters)
	require.Len(t, gotOrders, len(orders))
	for i := range orders {
		assert.True(t, orders[i].StartDate.Equal(gotOrders[i].StartDate))
		assert.True(t, orders[i].EndDate.Equal(gotOrders[i].EndDate))
	}
}

func TestImportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.json")
	require.NoError(t, os.WriteFile(path, []byte(validDoc), 0o600))

	b := &fakeBoard{}
	nCenters, nOrders, err := ImportFile(context.Background(), b, path, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 2, nCenters)
	assert.Equal(t, 3, nOrders)
	assert.Equal(t, 1, b.calls)
	assert.Len(t, b.orders, 3)
}

func TestImportFile_Errors(t *testing.T) {
	b := &fakeBoard{}

	_, _, err := ImportFile(context.Background(), b, filepath.Join(t.TempDir(), "missing.json"), time.UTC)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data": {"workOrders": [{"docId": "x", "docType": "workOrder", "data": {}}]}}`), 0o600))
	_, _, err = ImportFile(context.Background(), b, path, time.UTC)
	require.Error(t, err)
	assert.Equal(t, 0, b.calls)
}
