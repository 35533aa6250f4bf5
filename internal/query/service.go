// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

// Package query turns stored samples into chart-ready datasets.
//
// Four query kinds are supported:
//
//   - Grouped: samples aggregated into hour, day, week, month or year buckets
//   - Ungrouped: raw samples
//   - Offset: a grouped query over a calendar period relative to now
//   - Power: hourly power prices, one dataset per date
//
// Results are cached for a short TTL. Datasets served from the cache carry
// FromCache=true.
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/sensorboard/internal/cache"
	"github.com/tomtom215/sensorboard/internal/database"
	"github.com/tomtom215/sensorboard/internal/logging"
	"github.com/tomtom215/sensorboard/internal/metrics"
	"github.com/tomtom215/sensorboard/internal/models"
)

// Store is the read side of the database the service needs.
type Store interface {
	SensorsByID(ctx context.Context, ids []string) (map[string]models.Sensor, error)
	GroupedSeries(ctx context.Context, sensorIDs []string, start, end time.Time, g models.Grouping, agg models.Aggregation) ([]database.BucketValue, error)
	RawSeries(ctx context.Context, sensorIDs []string, start, end time.Time, limit int) ([]models.Sample, error)
	PowerPrices(ctx context.Context, dates []string) ([]database.PowerPrice, error)
}

// Cache key prefixes, one per query kind.
const (
	kindGrouped   = "grouped"
	kindUngrouped = "ungrouped"
	kindOffset    = "offset"
	kindPower     = "power"
)

// Service executes dataset queries.
type Service struct {
	store           Store
	cache           *cache.Cache
	now             func() time.Time
	defaultDecimals int
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables result caching.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithClock replaces time.Now for offset queries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDefaultDecimals sets the rounding used when a query does not name one.
// A negative value disables rounding.
func WithDefaultDecimals(d int) Option {
	return func(s *Service) { s.defaultDecimals = d }
}

// NewService creates a query service over store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:           store,
		now:             time.Now,
		defaultDecimals: 2,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Grouped aggregates samples of each sensor into buckets over [Start, End).
// One dataset is returned per requested sensor, in request order.
func (s *Service) Grouped(ctx context.Context, q models.GroupedQuery) ([]models.DataSet, error) {
	return s.cached(ctx, kindGrouped, q, func(ctx context.Context) ([]models.DataSet, error) {
		return s.grouped(ctx, q)
	})
}

func (s *Service) grouped(ctx context.Context, q models.GroupedQuery) ([]models.DataSet, error) {
	if !q.GroupBy.Valid() {
		return nil, fmt.Errorf("%w: grouping %q", ErrInvalidQuery, q.GroupBy)
	}
	if !q.End.After(q.Start) {
		return nil, fmt.Errorf("%w: end must be after start", ErrInvalidQuery)
	}

	sensors, err := s.store.SensorsByID(ctx, q.SensorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load sensors: %w", err)
	}
	buckets, err := s.store.GroupedSeries(ctx, q.SensorIDs, q.Start, q.End, q.GroupBy, q.Aggregation)
	if err != nil {
		return nil, fmt.Errorf("failed to load grouped series: %w", err)
	}

	bySensor := make(map[string][]database.BucketValue, len(q.SensorIDs))
	for _, b := range buckets {
		bySensor[b.SensorID] = append(bySensor[b.SensorID], b)
	}

	decimals := s.decimals(q.Format.Decimals)
	scale := q.Format.ApplyScaleFactor && q.Aggregation != models.AggregateCount

	sets := make([]models.DataSet, 0, len(q.SensorIDs))
	for _, id := range q.SensorIDs {
		sensor, known := sensors[id]
		set := newDataSet(id, sensor)

		rows := bySensor[id]
		if q.Format.AddMissingTimeSeries {
			rows = addMissingTimeSeries(id, rows, q.Start, q.End, q.GroupBy)
		}
		for _, b := range rows {
			v := b.Value
			if scale && known {
				v = applyScaleFactor(v, sensor.ScaleFactor)
			}
			set.Data = append(set.Data, models.DataElement{
				X: models.FormatTimestamp(b.Bucket),
				Y: Round(v, decimals),
			})
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// Ungrouped returns the raw samples of each sensor over [Start, End).
func (s *Service) Ungrouped(ctx context.Context, q models.UngroupedQuery) ([]models.DataSet, error) {
	return s.cached(ctx, kindUngrouped, q, func(ctx context.Context) ([]models.DataSet, error) {
		if !q.End.After(q.Start) {
			return nil, fmt.Errorf("%w: end must be after start", ErrInvalidQuery)
		}

		sensors, err := s.store.SensorsByID(ctx, q.SensorIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load sensors: %w", err)
		}
		samples, err := s.store.RawSeries(ctx, q.SensorIDs, q.Start, q.End, q.Limit)
		if err != nil {
			return nil, fmt.Errorf("failed to load samples: %w", err)
		}

		bySensor := make(map[string][]models.Sample, len(q.SensorIDs))
		for _, smp := range samples {
			bySensor[smp.SensorID] = append(bySensor[smp.SensorID], smp)
		}

		decimals := s.decimals(q.Format.Decimals)
		sets := make([]models.DataSet, 0, len(q.SensorIDs))
		for _, id := range q.SensorIDs {
			sensor, known := sensors[id]
			set := newDataSet(id, sensor)
			for _, smp := range bySensor[id] {
				v := smp.Value
				if q.Format.ApplyScaleFactor && known {
					v = applyScaleFactor(v, sensor.ScaleFactor)
				}
				set.Data = append(set.Data, models.DataElement{
					X: models.FormatTimestamp(smp.Timestamp),
					Y: Round(v, decimals),
				})
			}
			sets = append(sets, set)
		}
		return sets, nil
	})
}

// Offset runs a grouped query over the calendar period Offset periods
// before the current one.
func (s *Service) Offset(ctx context.Context, q models.OffsetQuery) ([]models.DataSet, error) {
	start, end, err := OffsetRange(s.now(), q.Period, q.Offset)
	if err != nil {
		return nil, err
	}
	gq := models.GroupedQuery{
		SensorIDs:   q.SensorIDs,
		Start:       start,
		End:         end,
		GroupBy:     q.GroupBy,
		Aggregation: q.Aggregation,
		Format:      q.Format,
	}
	return s.cached(ctx, kindOffset, gq, func(ctx context.Context) ([]models.DataSet, error) {
		return s.grouped(ctx, gq)
	})
}

// Power returns the hourly prices of each requested date. Dataset id and
// name are the date and x values are the hour labels "00" to "23". Dates
// without prices yield an empty dataset.
func (s *Service) Power(ctx context.Context, q models.PowerQuery) ([]models.DataSet, error) {
	return s.cached(ctx, kindPower, q, func(ctx context.Context) ([]models.DataSet, error) {
		for _, d := range q.Dates {
			if _, err := time.Parse(database.DateLayout, d); err != nil {
				return nil, fmt.Errorf("%w: date %q", ErrInvalidQuery, d)
			}
		}

		prices, err := s.store.PowerPrices(ctx, q.Dates)
		if err != nil {
			return nil, fmt.Errorf("failed to load power prices: %w", err)
		}
		byDate := make(map[string][]database.PowerPrice, len(q.Dates))
		for _, p := range prices {
			day := p.Date.Format(database.DateLayout)
			byDate[day] = append(byDate[day], p)
		}

		decimals := s.decimals(q.Decimals)
		sets := make([]models.DataSet, 0, len(q.Dates))
		for _, d := range q.Dates {
			set := models.DataSet{ID: d, Name: d, Data: []models.DataElement{}}
			for _, p := range byDate[d] {
				set.Data = append(set.Data, models.DataElement{
					X: HourLabel(p.Hour),
					Y: Round(p.Price, decimals),
				})
			}
			sets = append(sets, set)
		}
		return sets, nil
	})
}

// InvalidatePower drops cached power price results.
func (s *Service) InvalidatePower() {
	if s.cache != nil {
		s.cache.DeletePrefix(kindPower + ":")
	}
}

// cached serves a query from the cache when possible. Cached datasets are
// cloned before FromCache is set so the stored copy stays unflagged.
func (s *Service) cached(ctx context.Context, kind string, params interface{}, run func(context.Context) ([]models.DataSet, error)) ([]models.DataSet, error) {
	start := time.Now()

	var key string
	if s.cache != nil {
		key = cache.GenerateKey(kind, params)
		if v, ok := s.cache.Get(key); ok {
			if sets, ok := v.([]models.DataSet); ok {
				out := models.CloneDataSets(sets)
				for i := range out {
					out[i].FromCache = true
				}
				metrics.RecordQuery(kind, true, time.Since(start), nil)
				return out, nil
			}
		}
	}

	sets, err := run(ctx)
	metrics.RecordQuery(kind, false, time.Since(start), err)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("kind", kind).Msg("Dataset query failed")
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, models.CloneDataSets(sets))
	}
	return sets, nil
}

func (s *Service) decimals(d *int) int {
	if d != nil {
		return *d
	}
	return s.defaultDecimals
}

func newDataSet(id string, sensor models.Sensor) models.DataSet {
	return models.DataSet{ID: id, Name: sensor.Name, Data: []models.DataElement{}}
}

// HourLabel renders an hour of day as a two digit category label.
func HourLabel(hour int) string {
	return fmt.Sprintf("%02d", hour)
}
