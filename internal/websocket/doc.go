// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

// Package websocket pushes live sensor readings to dashboards.
//
// The Hub is an event sink: the event router hands it every consumed
// reading and the hub forwards it to connected clients. A client may narrow
// its feed by sending
//
//	{"type":"subscribe","data":{"sensorIds":["28-0000"],"houseId":"..."}}
//
// An empty filter receives everything. Clients answer {"type":"ping"} with
// {"type":"pong"}.
package websocket
