// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/sensorboard/internal/logging"
)

const appName = "sensorctl"

var examples = []string{
	fmt.Sprintf("  Hourly averages of two sensors:     $ %s query grouped --sensor flow --sensor return --start 2024-03-01 --end 2024-03-02", appName),
	fmt.Sprintf("  Yesterday, read from a local file:  $ %s --db ./data/sensorboard.duckdb query offset --sensor flow --period day --offset 1", appName),
	fmt.Sprintf("  Export power prices to Excel:       $ %s export powerprices --date 2024-03-01 --dir ./exports", appName),
	fmt.Sprintf("  Render a chart page:                $ %s chart --sensor flow --start 2024-03-01 --end 2024-03-08 --out flow.html", appName),
}

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	apiURL   string
	token    string
	dbPath   string
	timeout  time.Duration
	logLevel string
}

const (
	flagAPIName      = "api"
	flagTokenName    = "token"
	flagDBName       = "db"
	flagTimeoutName  = "timeout"
	flagLogLevelName = "log-level"
)

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Query, export and chart Sensorboard sensor data",
		Example:       strings.Join(examples, "\n"),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logging.Init(logging.Config{
				Level:  opts.logLevel,
				Format: "console",
				Output: cmd.ErrOrStderr(),
			})
			if opts.token == "" {
				opts.token = os.Getenv("SENSORBOARD_TOKEN")
			}
			if opts.timeout <= 0 {
				return fmt.Errorf("--%s must be positive", flagTimeoutName)
			}
			return nil
		},
	}
	cmd.CompletionOptions.HiddenDefaultCmd = true

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.apiURL, flagAPIName, "http://localhost:8080", "base URL of the Sensorboard server")
	flags.StringVar(&opts.token, flagTokenName, "", "bearer token (default $SENSORBOARD_TOKEN)")
	flags.StringVar(&opts.dbPath, flagDBName, "", "read queries from this DuckDB file instead of the API")
	flags.DurationVar(&opts.timeout, flagTimeoutName, 60*time.Second, "timeout of a single command")
	flags.StringVar(&opts.logLevel, flagLogLevelName, "warn", "log level: debug, info, warn or error")

	cmd.AddCommand(newQueryCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newChartCmd(opts))
	return cmd
}

// timeLayouts are accepted by time flags, most specific first.
var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// parseTime reads a time flag. Values without a zone are UTC.
func parseTime(name, value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("--%s: cannot parse %q, use 2006-01-02 or RFC 3339", name, value)
}

// parseDates reads a repeated date flag.
func parseDates(name string, values []string) ([]time.Time, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("--%s is required", name)
	}
	out := make([]time.Time, 0, len(values))
	for _, v := range values {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, fmt.Errorf("--%s: %q is not a date (2006-01-02)", name, v)
		}
		out = append(out, d)
	}
	return out, nil
}

// interval is the --start/--end pair shared by several commands.
type interval struct {
	start string
	end   string
}

func (iv *interval) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&iv.start, "start", "", "start of the interval (inclusive)")
	cmd.Flags().StringVar(&iv.end, "end", "", "end of the interval (exclusive)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
}

func (iv *interval) parse() (time.Time, time.Time, error) {
	start, err := parseTime("start", iv.start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseTime("end", iv.end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, errors.New("--end must be after --start")
	}
	return start, end, nil
}
