// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

/*
Package eventprocessor republishes ingested readings as events.

The ingestion handler enriches each reading with its sensor, device and house
and publishes it on the sensor.reading topic. Readings for sensor ids that are
not registered are published on sensor.unknown so they can be adopted later.

Events travel over NATS JetStream when enabled, optionally through an
embedded nats-server, and over an in-process Watermill channel otherwise.
A Watermill router consumes them and hands them to registered sinks such as
the websocket hub.

	bus, err := eventprocessor.NewBus(ctx, cfg.NATS)
	pub := eventprocessor.NewPublisher(bus.Publisher(), bus.IsNATS())
	router, err := eventprocessor.NewRouter(bus, eventprocessor.DefaultRouterConfig(), hub)
*/
package eventprocessor
