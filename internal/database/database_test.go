// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	sq "github.com/Masterminds/squirrel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/tomtom215/sensorboard/internal/config"
	"github.com/tomtom215/sensorboard/internal/metrics"
	"github.com/tomtom215/sensorboard/internal/models"
)

// testDBSemaphore serializes DuckDB use across tests; concurrent CGO
// connections from many parallel tests can stall under CI load.
var testDBSemaphore = make(chan struct{}, 1)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	type result struct {
		db  *DB
		err error
	}
	ch := make(chan result, 1)
	go func() {
		db, err := New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 2})
		ch <- result{db, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			t.Fatalf("Failed to create test database: %v", res.err)
		}
		t.Cleanup(func() { _ = res.db.Close() })
		return res.db
	case <-time.After(120 * time.Second):
		t.Fatalf("Timeout: database creation took longer than 120s")
		return nil
	}
}

// seedSensor creates a house, device and sensor and returns the sensor.
func seedSensor(t *testing.T, db *DB, id string, scale float64) *models.Sensor {
	t.Helper()
	ctx := context.Background()

	h, err := db.CreateHouse(ctx, models.HouseInput{Name: "Home"})
	if err != nil {
		t.Fatalf("CreateHouse: %v", err)
	}
	d, err := db.CreateDevice(ctx, h.ID, models.DeviceInput{Name: "Boiler room"})
	if err != nil {
		t.Fatalf("CreateDevice: %v", err)
	}
	s, err := db.CreateSensor(ctx, d.ID, models.SensorInput{
		ID: id, Name: "Flow " + id, Label: id, Type: models.SensorTemperature, ScaleFactor: scale,
	})
	if err != nil {
		t.Fatalf("CreateSensor: %v", err)
	}
	return s
}

func TestHouseDeviceSensorLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	h, err := db.CreateHouse(ctx, models.HouseInput{Name: "Summer house"})
	if err != nil {
		t.Fatalf("CreateHouse() error = %v", err)
	}
	if _, err := db.UpdateHouse(ctx, h.ID, models.HouseInput{Name: "Cabin"}); err != nil {
		t.Fatalf("UpdateHouse() error = %v", err)
	}
	got, err := db.GetHouse(ctx, h.ID)
	if err != nil || got.Name != "Cabin" {
		t.Fatalf("GetHouse() = %+v, %v", got, err)
	}

	inactive := false
	d, err := db.CreateDevice(ctx, h.ID, models.DeviceInput{Name: "Attic", Active: &inactive})
	if err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}
	if d.Active {
		t.Error("device should be inactive")
	}

	s, err := db.CreateSensor(ctx, d.ID, models.SensorInput{ID: "28FF01", Name: "Attic temp", Label: "attic", Type: models.SensorTemperature})
	if err != nil {
		t.Fatalf("CreateSensor() error = %v", err)
	}
	if s.ScaleFactor != 1 {
		t.Errorf("zero scale factor should default to 1, got %v", s.ScaleFactor)
	}

	if _, err := db.CreateSensor(ctx, d.ID, models.SensorInput{ID: "28FF01", Name: "dup", Label: "dup", Type: models.SensorTemperature}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate sensor id: err = %v, want ErrConflict", err)
	}
	if err := db.DeleteHouse(ctx, h.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("DeleteHouse with devices: err = %v, want ErrConflict", err)
	}
	if err := db.DeleteDevice(ctx, d.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("DeleteDevice with sensors: err = %v, want ErrConflict", err)
	}

	details, err := db.LookupSensorDetails(ctx, []string{"28FF01", "unknown"})
	if err != nil {
		t.Fatalf("LookupSensorDetails() error = %v", err)
	}
	if len(details) != 1 || details["28FF01"].House.Name != "Cabin" || details["28FF01"].Device.Name != "Attic" {
		t.Errorf("LookupSensorDetails() = %+v", details)
	}

	if err := db.DeleteSensor(ctx, s.ID); err != nil {
		t.Fatalf("DeleteSensor() error = %v", err)
	}
	if err := db.DeleteDevice(ctx, d.ID); err != nil {
		t.Fatalf("DeleteDevice() error = %v", err)
	}
	if err := db.DeleteHouse(ctx, h.ID); err != nil {
		t.Fatalf("DeleteHouse() error = %v", err)
	}
	if _, err := db.GetHouse(ctx, h.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetHouse after delete: err = %v, want ErrNotFound", err)
	}
}

func TestNotFoundErrors(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.GetSensor(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSensor: %v", err)
	}
	if _, err := db.UpdateDevice(ctx, "nope", models.DeviceInput{Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateDevice: %v", err)
	}
	if err := db.DeleteSensor(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteSensor: %v", err)
	}
	if _, err := db.CreateDevice(ctx, "no-house", models.DeviceInput{Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("CreateDevice on missing house: %v", err)
	}
	if err := db.TouchDevice(ctx, "nope", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Errorf("TouchDevice: %v", err)
	}
}

func TestTouchDevice(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	s := seedSensor(t, db, "A1", 1)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := db.TouchDevice(ctx, s.DeviceID, at); err != nil {
		t.Fatalf("TouchDevice() error = %v", err)
	}
	d, err := db.GetDevice(ctx, s.DeviceID)
	if err != nil {
		t.Fatal(err)
	}
	if d.LastPing == nil || !d.LastPing.Equal(at) {
		t.Errorf("LastPing = %v, want %v", d.LastPing, at)
	}
}

func TestSamplesAndSeries(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	seedSensor(t, db, "A1", 1)
	seedSensor(t, db, "B2", 1)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := []models.Sample{
		{SensorID: "A1", Timestamp: base.Add(5 * time.Minute), Value: 10},
		{SensorID: "A1", Timestamp: base.Add(35 * time.Minute), Value: 20},
		{SensorID: "A1", Timestamp: base.Add(2*time.Hour + time.Minute), Value: 7},
		{SensorID: "B2", Timestamp: base.Add(10 * time.Minute), Value: 1},
		{SensorID: "B2", Timestamp: base.Add(-time.Hour), Value: 99},
	}
	if err := db.InsertSamples(ctx, samples); err != nil {
		t.Fatalf("InsertSamples() error = %v", err)
	}

	buckets, err := db.GroupedSeries(ctx, []string{"A1", "B2"}, base, base.Add(3*time.Hour), models.GroupByHour, models.AggregateAvg)
	if err != nil {
		t.Fatalf("GroupedSeries() error = %v", err)
	}
	want := []BucketValue{
		{SensorID: "A1", Bucket: base, Value: 15},
		{SensorID: "A1", Bucket: base.Add(2 * time.Hour), Value: 7},
		{SensorID: "B2", Bucket: base, Value: 1},
	}
	if len(buckets) != len(want) {
		t.Fatalf("GroupedSeries() returned %d rows, want %d: %+v", len(buckets), len(want), buckets)
	}
	for i := range want {
		if buckets[i].SensorID != want[i].SensorID || !buckets[i].Bucket.Equal(want[i].Bucket) || buckets[i].Value != want[i].Value {
			t.Errorf("row %d = %+v, want %+v", i, buckets[i], want[i])
		}
	}

	maxes, err := db.GroupedSeries(ctx, []string{"A1"}, base, base.Add(24*time.Hour), models.GroupByDay, models.AggregateMax)
	if err != nil {
		t.Fatal(err)
	}
	if len(maxes) != 1 || maxes[0].Value != 20 {
		t.Errorf("daily max = %+v, want 20", maxes)
	}

	raw, err := db.RawSeries(ctx, []string{"A1"}, base, base.Add(3*time.Hour), 2)
	if err != nil {
		t.Fatalf("RawSeries() error = %v", err)
	}
	if len(raw) != 2 || raw[0].Value != 10 || raw[1].Value != 20 {
		t.Errorf("RawSeries() = %+v", raw)
	}

	latest, err := db.LatestSamples(ctx, "A1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(latest) != 1 || latest[0].Value != 7 {
		t.Errorf("LatestSamples() = %+v", latest)
	}
}

func TestGroupedSeriesRejectsUnknownGrouping(t *testing.T) {
	t.Parallel()

	db := newFromConn(nil)
	_, err := db.GroupedSeries(context.Background(), []string{"A1"}, time.Now(), time.Now(), "minute", "")
	if err == nil {
		t.Fatal("expected error for unsupported grouping")
	}
	if _, err := buildAggregateSQL("median"); err == nil {
		t.Error("expected error for unsupported aggregation")
	}
}

func TestPowerPrices(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	prices := make([]float64, 24)
	for i := range prices {
		prices[i] = float64(i) / 10
	}
	if err := db.UpsertPowerPrices(ctx, models.PowerPriceDay{Date: "2024-02-01", Prices: prices}); err != nil {
		t.Fatalf("UpsertPowerPrices() error = %v", err)
	}
	prices[3] = 9.5
	if err := db.UpsertPowerPrices(ctx, models.PowerPriceDay{Date: "2024-02-01", Currency: "EUR", Prices: prices}); err != nil {
		t.Fatalf("UpsertPowerPrices() overwrite error = %v", err)
	}

	day, err := db.GetPowerPrices(ctx, "2024-02-01")
	if err != nil {
		t.Fatalf("GetPowerPrices() error = %v", err)
	}
	if day.Currency != "EUR" || day.Prices[3] != 9.5 || day.Prices[23] != 2.3 {
		t.Errorf("GetPowerPrices() = %+v", day)
	}
	if _, err := db.GetPowerPrices(ctx, "2024-02-02"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing date: err = %v", err)
	}
	if err := db.UpsertPowerPrices(ctx, models.PowerPriceDay{Date: "2024-02-01", Prices: prices[:5]}); err == nil {
		t.Error("expected error for short price list")
	}
}

func TestQueryErrorPropagates(t *testing.T) {
	t.Parallel()

	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer conn.Close()

	boom := errors.New("disk on fire")
	mock.ExpectQuery("SELECT sensor_id, ts, value FROM samples").WillReturnError(boom)

	db := newFromConn(conn)
	_, err = db.RawSeries(context.Background(), []string{"A1"}, time.Unix(0, 0), time.Unix(3600, 0), 0)
	if !errors.Is(err, boom) {
		t.Fatalf("RawSeries() error = %v, want wrapped %v", err, boom)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestInsertSamplesRollsBack(t *testing.T) {
	t.Parallel()

	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO samples").
		ExpectExec().WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	db := newFromConn(conn)
	err = db.InsertSamples(context.Background(), []models.Sample{{SensorID: "A1", Timestamp: time.Now(), Value: 1}})
	if err == nil {
		t.Fatal("expected insert error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func statementCount(t *testing.T, op, table string) uint64 {
	t.Helper()
	hist, ok := metrics.DBQueryDuration.WithLabelValues(op, table).(prometheus.Metric)
	if !ok {
		t.Fatal("histogram is not a prometheus.Metric")
	}
	var m dto.Metric
	if err := hist.Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestStatementsAreRecorded(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		table   string
		op      string
		fail    bool
		errType string
		run     func(db *DB, table string) error
		expect  func(mock sqlmock.Sqlmock, err error)
	}{
		{
			name:  "select",
			table: "test_metrics_select",
			op:    "select",
			run: func(db *DB, table string) error {
				rows, err := db.queryRows(context.Background(), table, psql.Select("id").From(table))
				if err == nil {
					_ = rows.Close()
				}
				return err
			},
			expect: func(mock sqlmock.Sqlmock, _ error) {
				mock.ExpectQuery("SELECT id FROM test_metrics_select").WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
		},
		{
			name:    "failed select",
			table:   "test_metrics_select_err",
			op:      "select",
			fail:    true,
			errType: "connection",
			run: func(db *DB, table string) error {
				_, err := db.queryRows(context.Background(), table, psql.Select("id").From(table))
				return err
			},
			expect: func(mock sqlmock.Sqlmock, err error) {
				mock.ExpectQuery("SELECT id FROM test_metrics_select_err").WillReturnError(err)
			},
		},
		{
			name:  "update",
			table: "test_metrics_update",
			op:    "update",
			run: func(db *DB, table string) error {
				_, err := exec(context.Background(), db.conn, table, psql.Update(table).Set("name", "x").Where(sq.Eq{"id": "1"}))
				return err
			},
			expect: func(mock sqlmock.Sqlmock, _ error) {
				mock.ExpectExec("UPDATE test_metrics_update").WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name:    "failed delete",
			table:   "test_metrics_delete",
			op:      "delete",
			fail:    true,
			errType: "constraint",
			run: func(db *DB, table string) error {
				_, err := exec(context.Background(), db.conn, table, psql.Delete(table).Where(sq.Eq{"id": "1"}))
				return err
			},
			expect: func(mock sqlmock.Sqlmock, err error) {
				mock.ExpectExec("DELETE FROM test_metrics_delete").WillReturnError(err)
			},
		},
		{
			name:  "insert",
			table: "test_metrics_insert",
			op:    "insert",
			run: func(db *DB, table string) error {
				_, err := exec(context.Background(), db.conn, table, psql.Insert(table).Columns("id").Values("1"))
				return err
			},
			expect: func(mock sqlmock.Sqlmock, _ error) {
				mock.ExpectExec("INSERT INTO test_metrics_insert").WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conn, mock, err := sqlmock.New()
			if err != nil {
				t.Fatal(err)
			}
			defer conn.Close()

			var stmtErr error
			switch tt.errType {
			case "connection":
				stmtErr = errors.New("connection reset by peer")
			case "constraint":
				stmtErr = errors.New("Constraint Error: foreign key")
			}
			tt.expect(mock, stmtErr)

			db := newFromConn(conn)
			before := statementCount(t, tt.op, tt.table)
			err = tt.run(db, tt.table)
			if (err != nil) != tt.fail {
				t.Fatalf("err = %v, want failure %v", err, tt.fail)
			}
			if got := statementCount(t, tt.op, tt.table) - before; got != 1 {
				t.Errorf("duration samples delta = %d, want 1", got)
			}
			if tt.fail {
				errs := testutil.ToFloat64(metrics.DBQueryErrors.WithLabelValues(tt.op, tt.table, tt.errType))
				if errs != 1 {
					t.Errorf("errors{%s,%s,%s} = %v, want 1", tt.op, tt.table, tt.errType, errs)
				}
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestOperation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		b    sq.Sqlizer
		want string
	}{
		{psql.Insert("t"), "insert"},
		{psql.Update("t"), "update"},
		{psql.Delete("t"), "delete"},
		{psql.Select("1"), "select"},
		{sq.Expr("CHECKPOINT"), "exec"},
	}
	for _, tt := range tests {
		if got := operation(tt.b); got != tt.want {
			t.Errorf("operation(%T) = %q, want %q", tt.b, got, tt.want)
		}
	}
}
