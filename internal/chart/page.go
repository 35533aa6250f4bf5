// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package chart

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// Script locations used by rendered pages.
const (
	chartJSURL      = "https://cdn.jsdelivr.net/npm/chart.js@4"
	luxonURL        = "https://cdn.jsdelivr.net/npm/luxon@3"
	luxonAdapterURL = "https://cdn.jsdelivr.net/npm/chartjs-adapter-luxon@1"
)

// Page is a server-side Surface and Factory. Containers render into it and
// Render writes a standalone HTML document that draws the charts with
// Chart.js in the browser.
type Page struct {
	Title string

	mu       sync.Mutex
	blocks   []template.HTML
	canvases []pageCanvas
	loading  map[string]bool
	charts   map[string]*PageChart
}

type pageCanvas struct {
	BodyID   string
	CanvasID string
}

// NewPage creates an empty page.
func NewPage(title string) *Page {
	return &Page{
		Title:   title,
		loading: make(map[string]bool),
		charts:  make(map[string]*PageChart),
	}
}

// Inject implements Surface.
func (p *Page) Inject(markup template.HTML, replace bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if replace {
		p.blocks = p.blocks[:0]
		p.canvases = p.canvases[:0]
		p.charts = make(map[string]*PageChart)
		p.loading = make(map[string]bool)
	}
	p.blocks = append(p.blocks, markup)
	return nil
}

// AppendCanvas implements Surface. The body element must have been
// injected before.
func (p *Page) AppendCanvas(bodyID, canvasID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	found := false
	marker := fmt.Sprintf(`id="%s"`, bodyID)
	for _, b := range p.blocks {
		if strings.Contains(string(b), marker) {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("no element with id %q", bodyID)
	}
	for _, c := range p.canvases {
		if c.CanvasID == canvasID {
			return fmt.Errorf("canvas %q already exists", canvasID)
		}
	}
	p.canvases = append(p.canvases, pageCanvas{BodyID: bodyID, CanvasID: canvasID})
	return nil
}

// SetLoading implements Surface.
func (p *Page) SetLoading(bodyID string, loading bool) {
	p.mu.Lock()
	p.loading[bodyID] = loading
	p.mu.Unlock()
}

// Loading reports whether the skeleton of bodyID is shown.
func (p *Page) Loading(bodyID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading[bodyID]
}

// Canvases returns the canvas ids appended to bodyID.
func (p *Page) Canvases(bodyID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, c := range p.canvases {
		if c.BodyID == bodyID {
			out = append(out, c.CanvasID)
		}
	}
	return out
}

// New implements Factory.
func (p *Page) New(canvasID string, cfg *Config) (Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.charts[canvasID]; exists {
		return nil, fmt.Errorf("chart on canvas %q already exists", canvasID)
	}
	pc := &PageChart{page: p, canvasID: canvasID, cfg: cfg}
	p.charts[canvasID] = pc
	return pc, nil
}

// Chart returns the chart drawn on canvasID, or nil.
func (p *Page) Chart(canvasID string) *PageChart {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.charts[canvasID]
}

// PageChart is a chart handle owned by a Page.
type PageChart struct {
	page     *Page
	canvasID string
	cfg      *Config
	updates  int
}

// Config implements Handle.
func (c *PageChart) Config() *Config { return c.cfg }

// Update implements Handle. mutate runs under the page lock, so Render
// never encodes a half rewritten config.
func (c *PageChart) Update(mutate func(cfg *Config)) {
	c.page.mu.Lock()
	defer c.page.mu.Unlock()
	if mutate != nil {
		mutate(c.cfg)
	}
	c.updates++
}

// Updates returns how many times the chart was redrawn after creation.
func (c *PageChart) Updates() int {
	c.page.mu.Lock()
	defer c.page.mu.Unlock()
	return c.updates
}

type pageChartView struct {
	Body    string  `json:"body"`
	Canvas  string  `json:"canvas"`
	Loading bool    `json:"loading"`
	Config  *Config `json:"config"`
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
.chart-container{margin:1em 0}
.chart-header{display:flex;justify-content:space-between}
.chart-actions .icon{cursor:pointer;margin-left:.5em}
.chart-body{position:relative;height:320px}
.chart-body.skeleton{background:#eee}
</style>
<script src="{{.ChartJS}}"></script>
<script src="{{.Luxon}}"></script>
<script src="{{.Adapter}}"></script>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Blocks}}{{.}}
{{end}}<script>
(function () {
  const charts = {{.Charts}};
  for (const c of charts) {
    const body = document.getElementById(c.body);
    const canvas = document.createElement("canvas");
    canvas.id = c.canvas;
    body.appendChild(canvas);
    if (!c.loading) { body.classList.remove("skeleton"); }
    new Chart(canvas, c.config);
  }
})();
</script>
</body>
</html>
`))

// Render writes the page as an HTML document.
func (p *Page) Render(w io.Writer) error {
	p.mu.Lock()
	blocks := append([]template.HTML(nil), p.blocks...)
	views := make([]pageChartView, 0, len(p.canvases))
	for _, c := range p.canvases {
		pc, ok := p.charts[c.CanvasID]
		if !ok {
			continue
		}
		views = append(views, pageChartView{
			Body:    c.BodyID,
			Canvas:  c.CanvasID,
			Loading: p.loading[c.BodyID],
			Config:  pc.cfg,
		})
	}
	charts, err := json.Marshal(views)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to encode chart configs: %w", err)
	}

	return pageTemplate.Execute(w, struct {
		Title   string
		ChartJS string
		Luxon   string
		Adapter string
		Blocks  []template.HTML
		Charts  template.JS
	}{
		Title:   p.Title,
		ChartJS: chartJSURL,
		Luxon:   luxonURL,
		Adapter: luxonAdapterURL,
		Blocks:  blocks,
		// #nosec G203 -- JSON encoding escapes <, > and &
		Charts: template.JS(charts),
	})
}
