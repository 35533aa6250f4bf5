// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/sensorboard/internal/logging"
	"github.com/tomtom215/sensorboard/internal/metrics"
	"github.com/tomtom215/sensorboard/internal/models"
)

// Querier produces the datasets that are exported.
type Querier interface {
	Grouped(ctx context.Context, q models.GroupedQuery) ([]models.DataSet, error)
	Ungrouped(ctx context.Context, q models.UngroupedQuery) ([]models.DataSet, error)
	Power(ctx context.Context, q models.PowerQuery) ([]models.DataSet, error)
}

// DefaultMaxRows bounds the number of rows in one export.
const DefaultMaxRows = 100000

// Service generates export files on the server and stores them for download.
type Service struct {
	queries Querier
	store   *Store
	maxRows int
}

// NewService creates an export service.
func NewService(queries Querier, store *Store, maxRows int) *Service {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Service{queries: queries, store: store, maxRows: maxRows}
}

// SensorData generates a sensor data export. Scale factors are applied
// unless the request turns them off.
func (s *Service) SensorData(ctx context.Context, req models.ExportSensorDataRequest) (receipt *models.ExportReceipt, err error) {
	output := Output(req.Output)
	defer func() { metrics.RecordExport("sensordata", string(output), err) }()

	scale := true
	if req.ApplyScaleFactor != nil {
		scale = *req.ApplyScaleFactor
	}
	format := models.FormatOptions{ApplyScaleFactor: scale}

	var sets []models.DataSet
	switch QueryType(req.Type) {
	case QueryGrouped:
		groupBy := req.GroupBy
		if groupBy == "" {
			groupBy = models.GroupByHour
		}
		sets, err = s.queries.Grouped(ctx, models.GroupedQuery{
			SensorIDs: req.SensorIDs,
			Start:     req.Start,
			End:       req.End,
			GroupBy:   groupBy,
			Format:    format,
		})
	case QueryUngrouped:
		sets, err = s.queries.Ungrouped(ctx, models.UngroupedQuery{
			SensorIDs: req.SensorIDs,
			Start:     req.Start,
			End:       req.End,
			Limit:     s.maxRows + 1,
			Format:    format,
		})
	default:
		return nil, fmt.Errorf("unsupported export type %q", req.Type)
	}
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("sensordata_%s_%s%s",
		req.Start.UTC().Format("20060102"), req.End.UTC().Format("20060102"), output.Extension())
	return s.generate(ctx, output, name, "Sensor data", "Timestamp", sets)
}

// PowerPrices generates an export of the hourly prices of the requested dates.
func (s *Service) PowerPrices(ctx context.Context, req models.ExportPowerRequest) (receipt *models.ExportReceipt, err error) {
	output := Output(req.Output)
	defer func() { metrics.RecordExport("powerprices", string(output), err) }()

	sets, err := s.queries.Power(ctx, models.PowerQuery{Dates: req.Dates})
	if err != nil {
		return nil, err
	}
	span := req.Dates[0]
	if len(req.Dates) > 1 {
		span += "_" + req.Dates[len(req.Dates)-1]
	}
	name := "powerprices_" + strings.ReplaceAll(span, "-", "") + output.Extension()
	return s.generate(ctx, output, name, "Power prices", "Hour", sets)
}

// Download returns a stored file.
func (s *Service) Download(key, filename string) (*File, error) {
	return s.store.Get(key, filename)
}

func (s *Service) generate(ctx context.Context, output Output, name, sheet, keyHeader string, sets []models.DataSet) (*models.ExportReceipt, error) {
	if n := rowCount(sets); n > s.maxRows {
		return nil, fmt.Errorf("%w: %d rows, limit %d", ErrTooManyRows, n, s.maxRows)
	}
	data, err := Render(output, sheet, keyHeader, sets)
	if err != nil {
		return nil, err
	}
	key, err := s.store.Put(&File{
		Filename:    name,
		ContentType: output.ContentType(),
		Data:        data,
	})
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().
		Str("filename", name).
		Int("bytes", len(data)).
		Int("datasets", len(sets)).
		Msg("Export generated")
	return &models.ExportReceipt{Filename: name, DownloadKey: key}, nil
}

// rowCount is the number of distinct x values across sets.
func rowCount(sets []models.DataSet) int {
	seen := make(map[string]struct{})
	for i := range sets {
		for _, e := range sets[i].Data {
			seen[fmt.Sprint(e.X)] = struct{}{}
		}
	}
	return len(seen)
}
