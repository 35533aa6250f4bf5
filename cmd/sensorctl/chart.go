// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/sensorboard/internal/chart"
	"github.com/tomtom215/sensorboard/internal/export"
	"github.com/tomtom215/sensorboard/internal/logging"
	"github.com/tomtom215/sensorboard/internal/models"
)

// chartFlags configure the chart command.
type chartFlags struct {
	iv       interval
	sensors  []string
	groupBy  string
	title    string
	zone     string
	locale   string
	stacked  bool
	out      string
	download bool
	dir      string
	output   string
}

func newChartCmd(root *rootOptions) *cobra.Command {
	f := &chartFlags{}
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render sensor charts to a standalone HTML page",
		Long: `Render a line chart of the raw samples and a bar chart of the grouped
values of one or more sensors. With --download the grouped data is also
exported through the chart's download action.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChart(cmd, root, f)
		},
	}
	f.iv.register(cmd)
	flags := cmd.Flags()
	flags.StringSliceVar(&f.sensors, "sensor", nil, "sensor id, repeatable")
	flags.StringVar(&f.groupBy, "group-by", "day", "bucket size of the bar chart")
	flags.StringVar(&f.title, "title", "", "page title (default: the sensor ids)")
	flags.StringVar(&f.zone, "zone", "UTC", "IANA zone of the time axis")
	flags.StringVar(&f.locale, "locale", "", "locale of the time axis labels")
	flags.BoolVar(&f.stacked, "stacked", false, "stack the bars of several sensors")
	flags.StringVar(&f.out, "out", "chart.html", "output file, - for stdout")
	flags.BoolVar(&f.download, "download", false, "also export the grouped data")
	flags.StringVar(&f.dir, "dir", ".", "directory of the exported file")
	flags.StringVar(&f.output, "output", string(export.OutputExcel), "export format: excel or csv")
	_ = cmd.MarkFlagRequired("sensor")
	return cmd
}

func runChart(cmd *cobra.Command, root *rootOptions, f *chartFlags) error {
	start, end, err := f.iv.parse()
	if err != nil {
		return err
	}
	groupBy := models.Grouping(f.groupBy)
	if !groupBy.Valid() {
		return fmt.Errorf("--group-by must be hour, day, week, month or year, got %q", f.groupBy)
	}
	loc, err := time.LoadLocation(f.zone)
	if err != nil {
		return fmt.Errorf("--zone: %w", err)
	}

	src, closeSrc, err := root.openSource()
	if err != nil {
		return err
	}
	defer closeSrc()

	ctx, cancel := context.WithTimeout(cmd.Context(), root.timeout)
	defer cancel()

	title := f.title
	if title == "" {
		title = strings.Join(f.sensors, ", ")
	}
	page := chart.NewPage(title)
	data := chart.NewContainerData(start, end)
	format := models.FormatOptions{ApplyScaleFactor: true}

	if _, err := addContainer(ctx, page, chart.Options{
		Title:         "Samples",
		Type:          chart.TypeLine,
		Timeseries:    true,
		Legend:        len(f.sensors) > 1,
		Actions:       []chart.Action{&chart.Refresh{}},
		ContainerData: data,
		Location:      loc,
		Locale:        f.locale,
		Data: func(ctx context.Context, d *chart.ContainerData) ([]models.DataSet, error) {
			s, e := d.Interval()
			return src.Ungrouped(ctx, models.UngroupedQuery{SensorIDs: f.sensors, Start: s, End: e, Format: format})
		},
	}); err != nil {
		return err
	}

	barType := chart.TypeBar
	if f.stacked {
		barType = chart.TypeStackedBar
	}
	actions := []chart.Action{&chart.Refresh{}}
	var dl *chart.Download
	if f.download {
		out, err := (&exportFlags{output: f.output}).format()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(f.dir, 0o750); err != nil {
			return fmt.Errorf("failed to create %s: %w", f.dir, err)
		}
		nav := &export.FileNavigator{Dir: f.dir}
		dl = &chart.Download{
			Form:                fixedForm{groupBy: groupBy, output: out},
			Downloader:          export.NewBridge(root.apiURL, nav, export.WithToken(root.token)),
			SensorIDs:           f.sensors,
			SupportsGrouping:    true,
			SupportsScaleFactor: true,
		}
		actions = append(actions, dl)
		defer func() {
			if file := nav.LastFile(); file != "" {
				logging.Info().Str("file", file).Msg("Export saved")
			}
		}()
	}

	format.AddMissingTimeSeries = true
	bars, err := addContainer(ctx, page, chart.Options{
		Title:         "Per " + string(groupBy),
		Type:          barType,
		Legend:        len(f.sensors) > 1,
		Actions:       actions,
		ContainerData: data,
		Location:      loc,
		Locale:        f.locale,
		Data: func(ctx context.Context, d *chart.ContainerData) ([]models.DataSet, error) {
			s, e := d.Interval()
			return src.Grouped(ctx, models.GroupedQuery{SensorIDs: f.sensors, Start: s, End: e, GroupBy: groupBy, Format: format})
		},
	})
	if err != nil {
		return err
	}
	if dl != nil {
		if err := bars.Click(ctx, dl.Rel()); err != nil {
			return fmt.Errorf("download failed: %w", err)
		}
	}

	return writePage(cmd, page, f.out)
}

// addContainer adds a container to page and waits for its first load.
func addContainer(ctx context.Context, page *chart.Page, opts chart.Options) (*chart.Container, error) {
	c, err := chart.AddChartContainer(ctx, page, page, opts)
	if err != nil {
		return nil, err
	}
	if err := c.WaitFirstLoad(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", opts.Title, err)
	}
	return c, nil
}

func writePage(cmd *cobra.Command, page *chart.Page, path string) error {
	if path == "-" {
		return page.Render(cmd.OutOrStdout())
	}
	// #nosec G304 -- path is an operator supplied flag
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := page.Render(file); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to render page: %w", err)
	}
	if err := file.Close(); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
	return err
}

// fixedForm answers the download form with the command line choices and
// the interval the chart currently shows.
type fixedForm struct {
	groupBy models.Grouping
	output  export.Output
}

func (f fixedForm) AskDownload(_ context.Context, req chart.DownloadRequest) (chart.DownloadChoice, error) {
	return chart.DownloadChoice{
		Start:            req.Start,
		End:              req.End,
		Dates:            req.Dates,
		Grouped:          req.OfferGrouping,
		GroupBy:          f.groupBy,
		ApplyScaleFactor: true,
		Output:           f.output,
	}, nil
}
