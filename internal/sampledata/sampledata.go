// Package sampledata reads and writes the sample board document:
// {"metadata": {...}, "data": {"workCenters": [...], "workOrders": [...]}}.
package sampledata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/belphemur/shop-timeline/internal/constants"
	"github.com/belphemur/shop-timeline/internal/logging"
	"github.com/belphemur/shop-timeline/internal/workorder"
)

// FormatVersion is written into the metadata of exported documents
const FormatVersion = "1.0.0"

// Metadata describes the document
type Metadata struct {
	GeneratedAt string `json:"generatedAt"`
	Version     string `json:"version"`
}

// Document wraps an entity with its id and discriminator
type Document[T any] struct {
	DocID   string `json:"docId"`
	DocType string `json:"docType"`
	Data    T      `json:"data"`
}

// WorkCenterData is the payload of a work center document
type WorkCenterData struct {
	Name string `json:"name"`
}

// WorkOrderData is the payload of a work order document. Dates are ISO-8601,
// with or without a zone offset.
type WorkOrderData struct {
	Name         string `json:"name"`
	WorkCenterID string `json:"workCenterId"`
	Status       string `json:"status"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
}

// File is the whole document
type File struct {
	Metadata Metadata `json:"metadata"`
	Data     struct {
		WorkCenters []Document[WorkCenterData] `json:"workCenters"`
		WorkOrders  []Document[WorkOrderData]  `json:"workOrders"`
	} `json:"data"`
}

// Board is the destination of an import
type Board interface {
	Replace(ctx context.Context, centers []workorder.WorkCenter, orders []workorder.WorkOrder) error
}

// zone-less layouts are read in the configured location
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate reads an ISO-8601 date. Values without an offset are taken in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO-8601 date %q", value)
}

// Decode parses and validates a document. Every problem found is reported in
// the returned multierror; nothing is returned unless the whole document is valid.
func Decode(r io.Reader, loc *time.Location) ([]workorder.WorkCenter, []workorder.WorkOrder, error) {
	var file File
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, nil, fmt.Errorf("failed to parse sample data: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}

	var result *multierror.Error
	centers := make([]workorder.WorkCenter, 0, len(file.Data.WorkCenters))
	known := make(map[string]bool)
	names := make(map[string]bool)

	for i, doc := range file.Data.WorkCenters {
		prefix := fmt.Sprintf("workCenters[%d]", i)
		if err := checkDocType(doc.DocType, constants.DocTypeWorkCenter); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", prefix, err))
		}
		if doc.DocID == "" {
			result = multierror.Append(result, fmt.Errorf("%s: docId is required", prefix))
			continue
		}
		if known[doc.DocID] {
			result = multierror.Append(result, fmt.Errorf("%s: duplicate docId %q", prefix, doc.DocID))
			continue
		}
		name := strings.TrimSpace(doc.Data.Name)
		if name == "" {
			result = multierror.Append(result, fmt.Errorf("%s: name is required", prefix))
		}
		if names[strings.ToLower(name)] {
			result = multierror.Append(result, fmt.Errorf("%s: duplicate work center name %q", prefix, name))
		}
		known[doc.DocID] = true
		names[strings.ToLower(name)] = true
		centers = append(centers, workorder.WorkCenter{ID: doc.DocID, Name: name})
	}

	orders := make([]workorder.WorkOrder, 0, len(file.Data.WorkOrders))
	seen := make(map[string]bool)
	for i, doc := range file.Data.WorkOrders {
		prefix := fmt.Sprintf("workOrders[%d]", i)
		order, err := decodeOrder(doc, loc)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", prefix, err))
			continue
		}
		if seen[order.ID] {
			result = multierror.Append(result, fmt.Errorf("%s: duplicate docId %q", prefix, order.ID))
			continue
		}
		if !known[order.WorkCenterID] {
			result = multierror.Append(result, fmt.Errorf("%s: %w %q", prefix, workorder.ErrUnknownWorkCenter, order.WorkCenterID))
			continue
		}
		if other, found := workorder.FindConflict(order, orders); found {
			result = multierror.Append(result, fmt.Errorf("%s: %w (%s)", prefix, workorder.ErrOverlap, other.ID))
			continue
		}
		seen[order.ID] = true
		orders = append(orders, order)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, nil, err
	}
	return centers, orders, nil
}

func checkDocType(got, want string) error {
	if !constants.IsValidDocType(got) {
		return fmt.Errorf("unknown docType %q", got)
	}
	if got != want {
		return fmt.Errorf("docType %q found where %q was expected", got, want)
	}
	return nil
}

func decodeOrder(doc Document[WorkOrderData], loc *time.Location) (workorder.WorkOrder, error) {
	var result *multierror.Error
	if err := checkDocType(doc.DocType, constants.DocTypeWorkOrder); err != nil {
		result = multierror.Append(result, err)
	}
	if doc.DocID == "" {
		result = multierror.Append(result, errors.New("docId is required"))
	}

	order := workorder.WorkOrder{
		ID:           doc.DocID,
		Name:         strings.TrimSpace(doc.Data.Name),
		WorkCenterID: doc.Data.WorkCenterID,
		Status:       constants.WorkOrderStatus(doc.Data.Status),
	}
	var err error
	if order.StartDate, err = ParseDate(doc.Data.StartDate, loc); err != nil {
		result = multierror.Append(result, fmt.Errorf("startDate: %w", err))
	}
	if order.EndDate, err = ParseDate(doc.Data.EndDate, loc); err != nil {
		result = multierror.Append(result, fmt.Errorf("endDate: %w", err))
	}
	if result.ErrorOrNil() == nil {
		if err := order.Validate(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return order, result.ErrorOrNil()
}

// Encode writes centers and orders as a document. Dates are written in UTC.
func Encode(w io.Writer, centers []workorder.WorkCenter, orders []workorder.WorkOrder, generatedAt time.Time) error {
	var file File
	file.Metadata = Metadata{GeneratedAt: generatedAt.UTC().Format(time.RFC3339), Version: FormatVersion}
	file.Data.WorkCenters = make([]Document[WorkCenterData], 0, len(centers))
	file.Data.WorkOrders = make([]Document[WorkOrderData], 0, len(orders))

	for _, wc := range centers {
		file.Data.WorkCenters = append(file.Data.WorkCenters, Document[WorkCenterData]{
			DocID: wc.ID, DocType: constants.DocTypeWorkCenter, Data: WorkCenterData{Name: wc.Name},
		})
	}
	for _, o := range orders {
		file.Data.WorkOrders = append(file.Data.WorkOrders, Document[WorkOrderData]{
			DocID:   o.ID,
			DocType: constants.DocTypeWorkOrder,
			Data: WorkOrderData{
				Name:         o.Name,
				WorkCenterID: o.WorkCenterID,
				Status:       o.Status.String(),
				StartDate:    o.StartDate.UTC().Format(time.RFC3339),
				EndDate:      o.EndDate.UTC().Format(time.RFC3339),
			},
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(file)
}

// ImportFile decodes the document at path and replaces the board with it
func ImportFile(ctx context.Context, board Board, path string, loc *time.Location) (int, int, error) {
	logger := logging.GetLogger("sample-data").With().Str("path", path).Logger()

	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open sample data: %w", err)
	}
	defer f.Close()

	centers, orders, err := Decode(f, loc)
	if err != nil {
		logger.Error().Err(err).Msg("Sample data rejected")
		return 0, 0, err
	}
	if err := board.Replace(ctx, centers, orders); err != nil {
		return 0, 0, fmt.Errorf("failed to import sample data: %w", err)
	}

	logger.Info().Int("work_centers", len(centers)).Int("work_orders", len(orders)).Msg("Sample data imported")
	return len(centers), len(orders), nil
}
