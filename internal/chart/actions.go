// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package chart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/sensorboard/internal/export"
	"github.com/tomtom215/sensorboard/internal/models"
)

// ErrCanceled is returned by pickers and forms when the user backs out.
// Actions treat it as a no-op.
var ErrCanceled = errors.New("canceled")

// Action is an entry of a container's action bar.
type Action interface {
	Rel() string
	Icon() string
	Invoke(ctx context.Context, c *Container) error
}

// IconFunc computes an icon each time the action bar is drawn.
type IconFunc func() string

// icon resolves a static icon or an IconFunc.
type icon struct {
	Static string
	Func   IconFunc
}

func (i icon) resolve(fallback string) string {
	if i.Func != nil {
		return i.Func()
	}
	if i.Static != "" {
		return i.Static
	}
	return fallback
}

// Refresh reloads the chart.
type Refresh struct {
	IconName string
	IconFunc IconFunc
}

func (a *Refresh) Rel() string { return "refresh" }

func (a *Refresh) Icon() string {
	return icon{a.IconName, a.IconFunc}.resolve("refresh")
}

func (a *Refresh) Invoke(ctx context.Context, c *Container) error {
	return c.Reload(ctx)
}

// IntervalPicker asks for a time interval, pre-filled with the current one.
type IntervalPicker interface {
	PickInterval(ctx context.Context, start, end time.Time) (time.Time, time.Time, error)
}

// DatePicker asks for a single date, pre-filled with the current one.
type DatePicker interface {
	PickDate(ctx context.Context, current time.Time) (time.Time, error)
}

// DateIntervalSelect lets the user pick whole days. The stored interval
// starts at midnight of the first day and ends at midnight after the last
// day, so the last day is included in full.
type DateIntervalSelect struct {
	Picker   IntervalPicker
	IconName string
	IconFunc IconFunc
}

func (a *DateIntervalSelect) Rel() string { return "date-interval" }

func (a *DateIntervalSelect) Icon() string {
	return icon{a.IconName, a.IconFunc}.resolve("calendar")
}

func (a *DateIntervalSelect) Invoke(ctx context.Context, c *Container) error {
	loc := c.opts.location()
	start, end := c.Data().Interval()
	if !end.IsZero() {
		// Show the last included day, not the exclusive bound.
		end = end.Add(-time.Nanosecond)
	}

	start, end, err := a.Picker.PickInterval(ctx, start, end)
	if errors.Is(err, ErrCanceled) {
		return nil
	}
	if err != nil {
		return err
	}

	start, end = DateOnly(start, loc), DateOnly(end, loc)
	if end.Before(start) {
		start, end = end, start
	}
	c.Data().SetInterval(start, end.AddDate(0, 0, 1))
	return c.Reload(ctx)
}

// DatetimeIntervalSelect lets the user pick exact timestamps. Reversed
// input is swapped.
type DatetimeIntervalSelect struct {
	Picker   IntervalPicker
	IconName string
	IconFunc IconFunc
}

func (a *DatetimeIntervalSelect) Rel() string { return "datetime-interval" }

func (a *DatetimeIntervalSelect) Icon() string {
	return icon{a.IconName, a.IconFunc}.resolve("clock")
}

func (a *DatetimeIntervalSelect) Invoke(ctx context.Context, c *Container) error {
	start, end := c.Data().Interval()
	start, end, err := a.Picker.PickInterval(ctx, start, end)
	if errors.Is(err, ErrCanceled) {
		return nil
	}
	if err != nil {
		return err
	}
	if end.Before(start) {
		start, end = end, start
	}
	c.Data().SetInterval(start, end)
	return c.Reload(ctx)
}

// DateSelect lets the user pick one day.
type DateSelect struct {
	Picker   DatePicker
	IconName string
	IconFunc IconFunc
}

func (a *DateSelect) Rel() string { return "date" }

func (a *DateSelect) Icon() string {
	return icon{a.IconName, a.IconFunc}.resolve("calendar-day")
}

func (a *DateSelect) Invoke(ctx context.Context, c *Container) error {
	d, err := a.Picker.PickDate(ctx, c.Data().Date())
	if errors.Is(err, ErrCanceled) {
		return nil
	}
	if err != nil {
		return err
	}
	c.Data().SetDate(DateOnly(d, c.opts.location()))
	return c.Reload(ctx)
}

// DateOnly returns midnight of t's calendar day in loc.
func DateOnly(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Downloader sends an export request and delivers the resulting file.
// *export.Bridge implements it.
type Downloader interface {
	DownloadData(ctx context.Context, opts export.Options) error
}

// DownloadRequest pre-fills a DownloadForm.
type DownloadRequest struct {
	Start time.Time
	End   time.Time
	Dates []time.Time

	// Power asks for dates instead of an interval.
	Power bool

	OfferGrouping    bool
	OfferScaleFactor bool
}

// DownloadChoice is what the user submitted.
type DownloadChoice struct {
	Start            time.Time
	End              time.Time
	Dates            []time.Time
	Grouped          bool
	GroupBy          models.Grouping
	ApplyScaleFactor bool
	Output           export.Output
}

// DownloadForm asks the user what to download.
type DownloadForm interface {
	AskDownload(ctx context.Context, req DownloadRequest) (DownloadChoice, error)
}

// Download exports the data behind a chart.
type Download struct {
	Form       DownloadForm
	Downloader Downloader

	// SensorIDs are exported for sensor data charts.
	SensorIDs []string

	// Power exports power prices for the chosen dates.
	Power bool

	SupportsGrouping    bool
	SupportsScaleFactor bool

	IconName string
	IconFunc IconFunc
}

func (a *Download) Rel() string { return "download" }

func (a *Download) Icon() string {
	return icon{a.IconName, a.IconFunc}.resolve("download")
}

func (a *Download) Invoke(ctx context.Context, c *Container) error {
	data := c.Data()
	start, end := data.Interval()

	req := DownloadRequest{
		Start:            start,
		End:              end,
		Power:            a.Power,
		OfferGrouping:    a.SupportsGrouping && !a.Power,
		OfferScaleFactor: a.SupportsScaleFactor && !a.Power,
	}
	if d := data.Date(); a.Power && !d.IsZero() {
		req.Dates = []time.Time{d}
	}

	choice, err := a.Form.AskDownload(ctx, req)
	if errors.Is(err, ErrCanceled) {
		return nil
	}
	if err != nil {
		return err
	}

	opts, err := a.options(req, choice)
	if err != nil {
		return err
	}
	return a.Downloader.DownloadData(ctx, opts)
}

// options turns the form result into an export request.
func (a *Download) options(req DownloadRequest, choice DownloadChoice) (export.Options, error) {
	if a.Power {
		if len(choice.Dates) == 0 {
			return nil, errors.New("download: no dates selected")
		}
		return export.PowerDataOptions{Dates: choice.Dates, Output: choice.Output}, nil
	}

	if choice.End.Before(choice.Start) {
		choice.Start, choice.End = choice.End, choice.Start
	}
	if !choice.End.After(choice.Start) {
		return nil, fmt.Errorf("download: empty interval %s", choice.Start.Format(time.RFC3339))
	}

	opts := export.SensorDataOptions{
		Start:     choice.Start,
		End:       choice.End,
		Type:      export.QueryUngrouped,
		SensorIDs: a.SensorIDs,
		Output:    choice.Output,
	}
	if req.OfferGrouping && choice.Grouped {
		opts.Type = export.QueryGrouped
		opts.GroupBy = choice.GroupBy
		if opts.GroupBy == "" {
			opts.GroupBy = models.GroupByHour
		}
	}
	if req.OfferScaleFactor {
		apply := choice.ApplyScaleFactor
		opts.ApplyScaleFactor = &apply
	}
	return opts, nil
}
