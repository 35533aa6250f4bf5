// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/sensorboard/internal/models"
	"github.com/tomtom215/sensorboard/internal/validation"
)

// formatFlags map onto models.FormatOptions.
type formatFlags struct {
	scale    bool
	fill     bool
	decimals int
}

func (f *formatFlags) register(cmd *cobra.Command, grouped bool) {
	cmd.Flags().BoolVar(&f.scale, "scale", true, "multiply values by the sensor scale factor")
	cmd.Flags().IntVar(&f.decimals, "decimals", -1, "round to this many decimals (default: server setting)")
	if grouped {
		cmd.Flags().BoolVar(&f.fill, "fill", false, "add zero values for empty buckets")
	}
}

func (f *formatFlags) options() models.FormatOptions {
	opts := models.FormatOptions{ApplyScaleFactor: f.scale, AddMissingTimeSeries: f.fill}
	if f.decimals >= 0 {
		d := f.decimals
		opts.Decimals = &d
	}
	return opts
}

func newQueryCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a data query and print the datasets as JSON",
	}
	cmd.AddCommand(newGroupedCmd(root))
	cmd.AddCommand(newUngroupedCmd(root))
	cmd.AddCommand(newOffsetCmd(root))
	cmd.AddCommand(newPowerCmd(root))
	return cmd
}

// runQuery validates q, runs it against the configured source and prints
// the result.
func runQuery(cmd *cobra.Command, root *rootOptions, q interface{}, run func(context.Context, dataSource) ([]models.DataSet, error)) error {
	if err := validation.ValidateStruct(q); err != nil {
		return err
	}
	src, closeSrc, err := root.openSource()
	if err != nil {
		return err
	}
	defer closeSrc()

	ctx, cancel := context.WithTimeout(cmd.Context(), root.timeout)
	defer cancel()
	sets, err := run(ctx, src)
	if err != nil {
		return err
	}
	return printDataSets(cmd.OutOrStdout(), sets)
}

func printDataSets(w io.Writer, sets []models.DataSet) error {
	out, err := json.MarshalIndent(sets, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode datasets: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func newGroupedCmd(root *rootOptions) *cobra.Command {
	var (
		iv          interval
		sensors     []string
		groupBy     string
		aggregation string
		format      formatFlags
	)
	cmd := &cobra.Command{
		Use:   "grouped",
		Short: "Aggregate samples into time buckets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, end, err := iv.parse()
			if err != nil {
				return err
			}
			q := models.GroupedQuery{
				SensorIDs:   sensors,
				Start:       start,
				End:         end,
				GroupBy:     models.Grouping(groupBy),
				Aggregation: models.Aggregation(aggregation),
				Format:      format.options(),
			}
			return runQuery(cmd, root, &q, func(ctx context.Context, src dataSource) ([]models.DataSet, error) {
				return src.Grouped(ctx, q)
			})
		},
	}
	iv.register(cmd)
	cmd.Flags().StringSliceVar(&sensors, "sensor", nil, "sensor id, repeatable")
	cmd.Flags().StringVar(&groupBy, "group-by", "hour", "bucket size: hour, day, week, month or year")
	cmd.Flags().StringVar(&aggregation, "aggregation", "", "avg, min, max, sum or count (default avg)")
	format.register(cmd, true)
	_ = cmd.MarkFlagRequired("sensor")
	return cmd
}

func newUngroupedCmd(root *rootOptions) *cobra.Command {
	var (
		iv      interval
		sensors []string
		limit   int
		format  formatFlags
	)
	cmd := &cobra.Command{
		Use:   "ungrouped",
		Short: "Print raw samples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, end, err := iv.parse()
			if err != nil {
				return err
			}
			q := models.UngroupedQuery{
				SensorIDs: sensors,
				Start:     start,
				End:       end,
				Limit:     limit,
				Format:    format.options(),
			}
			return runQuery(cmd, root, &q, func(ctx context.Context, src dataSource) ([]models.DataSet, error) {
				return src.Ungrouped(ctx, q)
			})
		},
	}
	iv.register(cmd)
	cmd.Flags().StringSliceVar(&sensors, "sensor", nil, "sensor id, repeatable")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum samples per sensor (default: no limit)")
	format.register(cmd, false)
	_ = cmd.MarkFlagRequired("sensor")
	return cmd
}

func newOffsetCmd(root *rootOptions) *cobra.Command {
	var (
		sensors     []string
		period      string
		offset      int
		groupBy     string
		aggregation string
		format      formatFlags
	)
	cmd := &cobra.Command{
		Use:   "offset",
		Short: "Aggregate a calendar period relative to now (0 is the current one)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := models.OffsetQuery{
				SensorIDs:   sensors,
				Period:      models.Grouping(period),
				Offset:      offset,
				GroupBy:     models.Grouping(groupBy),
				Aggregation: models.Aggregation(aggregation),
				Format:      format.options(),
			}
			return runQuery(cmd, root, &q, func(ctx context.Context, src dataSource) ([]models.DataSet, error) {
				return src.Offset(ctx, q)
			})
		},
	}
	cmd.Flags().StringSliceVar(&sensors, "sensor", nil, "sensor id, repeatable")
	cmd.Flags().StringVar(&period, "period", "day", "period: day, week, month or year")
	cmd.Flags().IntVar(&offset, "offset", 0, "periods back from the current one")
	cmd.Flags().StringVar(&groupBy, "group-by", "hour", "bucket size: hour, day, week, month or year")
	cmd.Flags().StringVar(&aggregation, "aggregation", "", "avg, min, max, sum or count (default avg)")
	format.register(cmd, true)
	_ = cmd.MarkFlagRequired("sensor")
	return cmd
}

func newPowerCmd(root *rootOptions) *cobra.Command {
	var (
		dates    []string
		decimals int
	)
	cmd := &cobra.Command{
		Use:   "power",
		Short: "Print hourly power prices, one dataset per date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := models.PowerQuery{Dates: dates}
			if decimals >= 0 {
				q.Decimals = &decimals
			}
			return runQuery(cmd, root, &q, func(ctx context.Context, src dataSource) ([]models.DataSet, error) {
				return src.Power(ctx, q)
			})
		},
	}
	cmd.Flags().StringSliceVar(&dates, "date", nil, "date (2006-01-02), repeatable")
	cmd.Flags().IntVar(&decimals, "decimals", -1, "round to this many decimals (default: server setting)")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}
