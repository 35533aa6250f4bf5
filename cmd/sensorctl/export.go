// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/sensorboard/internal/export"
	"github.com/tomtom215/sensorboard/internal/logging"
	"github.com/tomtom215/sensorboard/internal/models"
)

// exportFlags are shared by both export subcommands.
type exportFlags struct {
	dir    string
	output string
}

func (f *exportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dir, "dir", ".", "directory the file is saved in")
	cmd.Flags().StringVar(&f.output, "output", string(export.OutputExcel), "file format: excel or csv")
}

func (f *exportFlags) format() (export.Output, error) {
	switch o := export.Output(f.output); o {
	case export.OutputExcel, export.OutputCSV:
		return o, nil
	default:
		return "", fmt.Errorf("--output must be excel or csv, got %q", f.output)
	}
}

// download sends opts through a bridge that saves the attachment in dir
// and prints the saved path.
func download(cmd *cobra.Command, root *rootOptions, dir string, opts export.Options) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	nav := &export.FileNavigator{Dir: dir}
	bridge := export.NewBridge(root.apiURL, nav, export.WithToken(root.token))

	ctx, cancel := context.WithTimeout(cmd.Context(), root.timeout)
	defer cancel()
	if err := bridge.DownloadData(ctx, opts); err != nil {
		return err
	}
	logging.Info().Str("file", nav.LastFile()).Msg("Export saved")
	_, err := fmt.Fprintln(cmd.OutOrStdout(), nav.LastFile())
	return err
}

func newExportCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Generate an export on the server and save the file",
	}
	cmd.AddCommand(newExportSensorDataCmd(root))
	cmd.AddCommand(newExportPowerCmd(root))
	return cmd
}

func newExportSensorDataCmd(root *rootOptions) *cobra.Command {
	var (
		iv      interval
		sensors []string
		groupBy string
		raw     bool
		scale   bool
		flags   exportFlags
	)
	cmd := &cobra.Command{
		Use:   "sensordata",
		Short: "Export sensor samples, grouped by default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, end, err := iv.parse()
			if err != nil {
				return err
			}
			out, err := flags.format()
			if err != nil {
				return err
			}
			opts := export.SensorDataOptions{
				Start:            start,
				End:              end,
				Type:             export.QueryGrouped,
				SensorIDs:        sensors,
				ApplyScaleFactor: &scale,
				GroupBy:          models.Grouping(groupBy),
				Output:           out,
			}
			if raw {
				opts.Type = export.QueryUngrouped
				opts.GroupBy = ""
			} else if !opts.GroupBy.Valid() {
				return fmt.Errorf("--group-by must be hour, day, week, month or year, got %q", groupBy)
			}
			return download(cmd, root, flags.dir, opts)
		},
	}
	iv.register(cmd)
	cmd.Flags().StringSliceVar(&sensors, "sensor", nil, "sensor id, repeatable")
	cmd.Flags().StringVar(&groupBy, "group-by", "hour", "bucket size: hour, day, week, month or year")
	cmd.Flags().BoolVar(&raw, "raw", false, "export raw samples instead of buckets")
	cmd.Flags().BoolVar(&scale, "scale", true, "multiply values by the sensor scale factor")
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("sensor")
	return cmd
}

func newExportPowerCmd(root *rootOptions) *cobra.Command {
	var (
		dates []string
		flags exportFlags
	)
	cmd := &cobra.Command{
		Use:   "powerprices",
		Short: "Export hourly power prices of the given dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			days, err := parseDates("date", dates)
			if err != nil {
				return err
			}
			out, err := flags.format()
			if err != nil {
				return err
			}
			return download(cmd, root, flags.dir, export.PowerDataOptions{Dates: days, Output: out})
		},
	}
	cmd.Flags().StringSliceVar(&dates, "date", nil, "date (2006-01-02), repeatable")
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("date")
	return cmd
}
