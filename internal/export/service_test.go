// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package export

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/sensorboard/internal/models"
)

type fakeQuerier struct {
	grouped   *models.GroupedQuery
	ungrouped *models.UngroupedQuery
	sets      []models.DataSet
	err       error
}

func (f *fakeQuerier) Grouped(_ context.Context, q models.GroupedQuery) ([]models.DataSet, error) {
	f.grouped = &q
	return f.sets, f.err
}

func (f *fakeQuerier) Ungrouped(_ context.Context, q models.UngroupedQuery) ([]models.DataSet, error) {
	f.ungrouped = &q
	return f.sets, f.err
}

func (f *fakeQuerier) Power(context.Context, models.PowerQuery) ([]models.DataSet, error) {
	return f.sets, f.err
}

func sensorRequest(typ string) models.ExportSensorDataRequest {
	return models.ExportSensorDataRequest{
		Start:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		Type:      typ,
		SensorIDs: []string{"s1"},
		Output:    "csv",
	}
}

func TestServiceSensorDataGrouped(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{sets: []models.DataSet{{ID: "s1", Name: "Kitchen", Data: []models.DataElement{
		{X: "2024-03-01T00:00:00.000Z", Y: 21.5},
	}}}}
	svc := NewService(q, openTestStore(t), 0)

	receipt, err := svc.SensorData(context.Background(), sensorRequest("grouped"))
	if err != nil {
		t.Fatalf("SensorData() error = %v", err)
	}
	if receipt.Filename != "sensordata_20240301_20240311.csv" || receipt.DownloadKey == "" {
		t.Errorf("receipt = %+v", receipt)
	}
	if q.grouped == nil || q.grouped.GroupBy != models.GroupByHour || !q.grouped.Format.ApplyScaleFactor {
		t.Errorf("grouped query = %+v", q.grouped)
	}

	f, err := svc.Download(receipt.DownloadKey, receipt.Filename)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(f.Data), "Timestamp,Kitchen\n2024-03-01T00:00:00.000Z,21.5") {
		t.Errorf("file = %q", f.Data)
	}
}

func TestServiceSensorDataUngroupedWithoutScale(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{}
	svc := NewService(q, openTestStore(t), 10)
	req := sensorRequest("ungrouped")
	off := false
	req.ApplyScaleFactor = &off

	if _, err := svc.SensorData(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if q.ungrouped == nil || q.ungrouped.Format.ApplyScaleFactor || q.ungrouped.Limit != 11 {
		t.Errorf("ungrouped query = %+v", q.ungrouped)
	}
}

func TestServiceRowLimit(t *testing.T) {
	t.Parallel()

	set := models.DataSet{ID: "s1"}
	for i := 0; i < 3; i++ {
		set.Data = append(set.Data, models.DataElement{X: i, Y: 1})
	}
	svc := NewService(&fakeQuerier{sets: []models.DataSet{set}}, openTestStore(t), 2)
	if _, err := svc.SensorData(context.Background(), sensorRequest("ungrouped")); !errors.Is(err, ErrTooManyRows) {
		t.Errorf("err = %v, want ErrTooManyRows", err)
	}
}

func TestServiceErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("db down")
	svc := NewService(&fakeQuerier{err: boom}, openTestStore(t), 0)
	if _, err := svc.SensorData(context.Background(), sensorRequest("grouped")); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
	if _, err := svc.SensorData(context.Background(), sensorRequest("raw")); err == nil {
		t.Error("unknown type accepted")
	}
}

func TestServicePowerPrices(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeQuerier{sets: powerSets()}, openTestStore(t), 0)
	receipt, err := svc.PowerPrices(context.Background(), models.ExportPowerRequest{
		Dates:  []string{"2024-02-01", "2024-02-02"},
		Type:   "power",
		Output: "excel",
	})
	if err != nil {
		t.Fatal(err)
	}
	if receipt.Filename != "powerprices_20240201_20240202.xlsx" {
		t.Errorf("filename = %s", receipt.Filename)
	}
	f, err := svc.Download(receipt.DownloadKey, receipt.Filename)
	if err != nil {
		t.Fatal(err)
	}
	if f.ContentType != contentTypeXLSX || len(f.Data) == 0 {
		t.Errorf("file = %s, %d bytes", f.ContentType, len(f.Data))
	}
}
