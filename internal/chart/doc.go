// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

/*
Package chart manages chart containers: the markup of one chart, loading its
datasets, drawing them through a chart handle and the actions in its
action bar.

A container is created with AddChartContainer. It injects its markup into a
Surface, then loads data in the background through the Options.Data
callback. The first successful load appends a canvas and creates the chart
through a Factory; later loads mutate the chart configuration in place
inside Handle.Update.

	page := chart.NewPage("Living room")
	data := chart.NewContainerData(start, end)
	c, err := chart.AddChartContainer(ctx, page, page, chart.Options{
		Title:         "Temperature",
		Type:          chart.TypeLine,
		Timeseries:    true,
		Legend:        true,
		ContainerData: data,
		Actions:       []chart.Action{&chart.Refresh{}},
		Data: func(ctx context.Context, d *chart.ContainerData) ([]models.DataSet, error) {
			return svc.Grouped(ctx, models.GroupedQuery{...})
		},
	})
	if err := c.WaitFirstLoad(ctx); err != nil { ... }
	page.Render(w)

ContainerData is shared by pointer between the container, the data
callback and every action, so a date picked by an action is what the next
load reads.

Reloads may overlap. Each reload takes a generation number and a result is
drawn only if no newer reload has been drawn already.
*/
package chart
