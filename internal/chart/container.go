// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package chart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/sensorboard/internal/logging"
	"github.com/tomtom215/sensorboard/internal/models"
)

// Type is the kind of chart a container draws.
type Type string

const (
	TypeLine       Type = "line"
	TypeBar        Type = "bar"
	TypeStackedBar Type = "stacked-bar"
)

// DataFunc loads the datasets of a container. It reads the container data
// it is given, which actions may have changed since the last call.
type DataFunc func(ctx context.Context, data *ContainerData) ([]models.DataSet, error)

// Options configure a container. They are copied when the container is
// created and never change afterwards.
type Options struct {
	Title      string
	Type       Type
	Timeseries bool

	// AdjustMinimumY and AdjustMaximumY are added to the floor of the
	// smallest and the ceiling of the largest value. Nil leaves the bound
	// to the chart library.
	AdjustMinimumY *float64
	AdjustMaximumY *float64

	// ReplaceHTML replaces the surface content instead of appending.
	ReplaceHTML bool
	Legend      bool
	Actions     []Action
	Data        DataFunc

	// ContainerData is shared with the data callback and actions. Nil
	// creates an empty record.
	ContainerData *ContainerData

	// Location is the display zone of time series labels. Nil means UTC.
	Location *time.Location
	Locale   string
	Palette  Palette
}

func (o *Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

func (o *Options) validate() error {
	switch o.Type {
	case TypeLine, TypeBar, TypeStackedBar:
	default:
		return fmt.Errorf("unknown chart type %q", o.Type)
	}
	if o.Data == nil {
		return errors.New("chart options: Data callback is required")
	}
	seen := make(map[string]bool, len(o.Actions))
	for _, a := range o.Actions {
		if a == nil || a.Rel() == "" {
			return errors.New("chart options: actions need a non-empty rel")
		}
		if seen[a.Rel()] {
			return fmt.Errorf("chart options: duplicate action rel %q", a.Rel())
		}
		seen[a.Rel()] = true
	}
	return nil
}

// IDs are the element ids of one container.
type IDs struct {
	Container string
	Actions   string
	Body      string
	Canvas    string
}

func newIDs() IDs {
	uid := "chart_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	return IDs{
		Container: uid,
		Actions:   uid + "_actions",
		Body:      uid + "_body",
		Canvas:    uid + "_canvas",
	}
}

// Container manages one chart: its markup, data loading, the lazily created
// chart handle and the action bar.
type Container struct {
	opts    Options
	ids     IDs
	data    *ContainerData
	surface Surface
	factory Factory
	actions map[string]Action

	// nextGen numbers reloads; appliedGen is the newest one drawn.
	nextGen atomic.Uint64

	mu         sync.Mutex
	appliedGen uint64
	// canvasAdded survives a failed chart creation so a retry reuses the
	// canvas.
	canvasAdded bool
	handle      Handle
	datasets    []models.DataSet
	listeners   []func([]models.DataSet)

	firstLoad chan struct{}
	firstErr  error
}

var containerTemplate = template.Must(template.New("container").Parse(
	`<div class="chart-container" id="{{.IDs.Container}}">` +
		`<div class="chart-header">` +
		`<span class="chart-title">{{.Title}}</span>` +
		`<span class="chart-actions" id="{{.IDs.Actions}}">` +
		`{{range .Icons}}<i class="icon {{.Icon}}" data-rel="{{.Rel}}" title="{{.Rel}}"></i>{{end}}` +
		`</span></div>` +
		`<div class="chart-body skeleton" id="{{.IDs.Body}}"></div>` +
		`</div>`))

type iconView struct {
	Rel  string
	Icon string
}

// AddChartContainer renders the container markup into surface and starts
// the first reload in the background. Use WaitFirstLoad to observe its
// result.
func AddChartContainer(ctx context.Context, surface Surface, factory Factory, opts Options) (*Container, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.ContainerData == nil {
		opts.ContainerData = NewContainerData(time.Time{}, time.Time{})
	}
	opts.Actions = append([]Action(nil), opts.Actions...)

	c := &Container{
		opts:      opts,
		ids:       newIDs(),
		data:      opts.ContainerData,
		surface:   surface,
		factory:   factory,
		actions:   make(map[string]Action, len(opts.Actions)),
		firstLoad: make(chan struct{}),
	}

	icons := make([]iconView, 0, len(opts.Actions))
	for _, a := range opts.Actions {
		c.actions[a.Rel()] = a
		icons = append(icons, iconView{Rel: a.Rel(), Icon: a.Icon()})
	}

	var buf bytes.Buffer
	if err := containerTemplate.Execute(&buf, struct {
		IDs   IDs
		Title string
		Icons []iconView
	}{c.ids, opts.Title, icons}); err != nil {
		return nil, fmt.Errorf("failed to render chart container: %w", err)
	}
	// #nosec G203 -- produced by html/template above
	if err := surface.Inject(template.HTML(buf.String()), opts.ReplaceHTML); err != nil {
		return nil, fmt.Errorf("failed to inject chart container: %w", err)
	}
	surface.SetLoading(c.ids.Body, true)

	go func() {
		defer close(c.firstLoad)
		c.firstErr = c.Reload(ctx)
		if c.firstErr != nil {
			logging.Ctx(ctx).Warn().Err(c.firstErr).Str("chart", c.ids.Container).Msg("Initial chart load failed")
		}
	}()
	return c, nil
}

// WaitFirstLoad blocks until the first reload finished and returns its
// error.
func (c *Container) WaitFirstLoad(ctx context.Context) error {
	select {
	case <-c.firstLoad:
		return c.firstErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reload fetches datasets and draws them. The first successful reload
// creates the canvas and the chart; later ones update the chart in place.
// When reloads overlap, a result older than the one already drawn is
// dropped. On error nothing changes and the error is returned.
func (c *Container) Reload(ctx context.Context) error {
	gen := c.nextGen.Add(1)

	sets, err := c.opts.Data(ctx, c.data)
	if err != nil {
		return fmt.Errorf("failed to load chart data: %w", err)
	}

	c.mu.Lock()
	if gen <= c.appliedGen {
		c.mu.Unlock()
		logging.Ctx(ctx).Debug().Uint64("generation", gen).Str("chart", c.ids.Container).Msg("Dropping stale chart data")
		return nil
	}

	if c.handle == nil {
		if !c.canvasAdded {
			if err := c.surface.AppendCanvas(c.ids.Body, c.ids.Canvas); err != nil {
				c.mu.Unlock()
				return fmt.Errorf("failed to append canvas: %w", err)
			}
			c.canvasAdded = true
		}
		h, err := c.factory.New(c.ids.Canvas, BuildConfig(&c.opts, sets))
		if err != nil {
			c.mu.Unlock()
			return fmt.Errorf("failed to create chart: %w", err)
		}
		c.handle = h
	} else {
		c.handle.Update(func(cfg *Config) {
			applyConfig(cfg, &c.opts, sets)
		})
	}

	c.appliedGen = gen
	c.datasets = sets
	c.surface.SetLoading(c.ids.Body, false)
	listeners := make([]func([]models.DataSet), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, l := range listeners {
		l(sets)
	}
	return nil
}

// LegendClick toggles the visibility of dataset index and redraws without
// reloading. It reports whether anything changed.
func (c *Container) LegendClick(index int) bool {
	if !c.opts.Legend {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle == nil {
		return false
	}
	if index < 0 {
		return false
	}
	changed := false
	c.handle.Update(func(cfg *Config) {
		if index >= len(cfg.Data.Datasets) {
			return
		}
		cfg.Data.Datasets[index].Hidden = !cfg.Data.Datasets[index].Hidden
		changed = true
	})
	return changed
}

// Click invokes the action registered under rel. Unknown or empty rels are
// ignored.
func (c *Container) Click(ctx context.Context, rel string) error {
	a, ok := c.actions[rel]
	if !ok {
		return nil
	}
	return a.Invoke(ctx, c)
}

// OnLoaded registers fn to run after each drawn reload.
func (c *Container) OnLoaded(fn func([]models.DataSet)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Data returns the record shared with the data callback and actions.
func (c *Container) Data() *ContainerData {
	return c.data
}

// Options returns the options the container was created with.
func (c *Container) Options() Options {
	return c.opts
}

// IDs returns the element ids of the container.
func (c *Container) IDs() IDs {
	return c.ids
}

// DataSets returns the datasets drawn last.
func (c *Container) DataSets() []models.DataSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.datasets
}

// ContainerData is the mutable state shared by a container, its data
// callback and its actions. Changes are visible to every holder at once.
type ContainerData struct {
	mu     sync.RWMutex
	start  time.Time
	end    time.Time
	date   time.Time
	values map[string]interface{}
}

// NewContainerData creates a record for the interval [start, end).
func NewContainerData(start, end time.Time) *ContainerData {
	return &ContainerData{start: start, end: end, values: make(map[string]interface{})}
}

// Interval returns start and end.
func (d *ContainerData) Interval() (time.Time, time.Time) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.start, d.end
}

// Start returns the interval start.
func (d *ContainerData) Start() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.start
}

// End returns the exclusive interval end.
func (d *ContainerData) End() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.end
}

// SetInterval replaces start and end.
func (d *ContainerData) SetInterval(start, end time.Time) {
	d.mu.Lock()
	d.start, d.end = start, end
	d.mu.Unlock()
}

// Date returns the selected date.
func (d *ContainerData) Date() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.date
}

// SetDate replaces the selected date.
func (d *ContainerData) SetDate(t time.Time) {
	d.mu.Lock()
	d.date = t
	d.mu.Unlock()
}

// Value returns a free-form value.
func (d *ContainerData) Value(key string) (interface{}, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.values[key]
	return v, ok
}

// SetValue stores a free-form value.
func (d *ContainerData) SetValue(key string, v interface{}) {
	d.mu.Lock()
	if d.values == nil {
		d.values = make(map[string]interface{})
	}
	d.values[key] = v
	d.mu.Unlock()
}
