// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/tomtom215/sensorboard/internal/models"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
)

// Extension returns the file extension of an output format.
func (o Output) Extension() string {
	if o == OutputCSV {
		return ".csv"
	}
	return ".xlsx"
}

// ContentType returns the MIME type of an output format.
func (o Output) ContentType() string {
	if o == OutputCSV {
		return contentTypeCSV
	}
	return contentTypeXLSX
}

// table is a wide layout: one key column followed by one column per dataset.
// A nil cell means the dataset has no value for that key.
type table struct {
	sheet   string
	headers []string
	rows    [][]interface{}
}

// wideTable lays datasets out side by side over the sorted union of their
// x values.
func wideTable(sheet, keyHeader string, sets []models.DataSet) table {
	t := table{sheet: sheet, headers: make([]string, 0, len(sets)+1)}
	t.headers = append(t.headers, keyHeader)

	values := make([]map[string]float64, len(sets))
	seen := make(map[string]struct{})
	var keys []string
	for i := range sets {
		t.headers = append(t.headers, sets[i].Label())
		values[i] = make(map[string]float64, len(sets[i].Data))
		for _, e := range sets[i].Data {
			k := fmt.Sprint(e.X)
			values[i][k] = e.Y
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)

	t.rows = make([][]interface{}, 0, len(keys))
	for _, k := range keys {
		row := make([]interface{}, 0, len(sets)+1)
		row = append(row, k)
		for i := range sets {
			if v, ok := values[i][k]; ok {
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}
		t.rows = append(t.rows, row)
	}
	return t
}

func cellName(col, row int) string {
	column, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return ""
	}
	name, err := excelize.JoinCellName(column, row)
	if err != nil {
		return ""
	}
	return name
}

func renderXLSX(t table) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", t.sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if last, err := excelize.ColumnNumberToName(len(t.headers)); err == nil {
		_ = f.SetColWidth(t.sheet, "A", "A", 26)
		if len(t.headers) > 1 {
			_ = f.SetColWidth(t.sheet, "B", last, 16)
		}
	}

	row := 1
	for col, h := range t.headers {
		cell := cellName(col+1, row)
		if err := f.SetCellValue(t.sheet, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header %s: %w", cell, err)
		}
	}
	if err := f.SetCellStyle(t.sheet, cellName(1, row), cellName(len(t.headers), row), headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}
	row++
	for _, r := range t.rows {
		for col, v := range r {
			if v == nil {
				continue
			}
			if err := f.SetCellValue(t.sheet, cellName(col+1, row), v); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
		row++
	}
	if err := f.SetPanes(t.sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func renderCSV(t table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.headers); err != nil {
		return nil, err
	}
	record := make([]string, len(t.headers))
	for _, r := range t.rows {
		for i, v := range r {
			switch val := v.(type) {
			case nil:
				record[i] = ""
			case float64:
				record[i] = strconv.FormatFloat(val, 'f', -1, 64)
			default:
				record[i] = fmt.Sprint(val)
			}
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Render encodes datasets in the requested format with keyHeader naming the
// first column.
func Render(output Output, sheet, keyHeader string, sets []models.DataSet) ([]byte, error) {
	t := wideTable(sheet, keyHeader, sets)
	switch output {
	case OutputCSV:
		return renderCSV(t)
	case OutputExcel, "":
		return renderXLSX(t)
	default:
		return nil, fmt.Errorf("unsupported output %q", output)
	}
}
