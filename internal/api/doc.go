// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

/*
Package api is the HTTP surface of Sensorboard, routed with chi.

Routes:

	GET    /api/v1/health                      liveness and dependency status
	GET    /metrics                            Prometheus exposition
	POST   /api/v1/auth/login                  admin login, returns a JWT
	GET    /api/v1/houses                      list / create houses
	GET    /api/v1/houses/{houseID}            read / update / delete a house
	GET    /api/v1/houses/{houseID}/devices    list / create devices of a house
	GET    /api/v1/devices/{deviceID}          read / update / delete a device
	POST   /api/v1/devices/{deviceID}/token    issue a device token
	GET    /api/v1/devices/{deviceID}/sensors  list / create sensors
	GET    /api/v1/sensors/{sensorID}          read / update / delete a sensor
	GET    /api/v1/sensors/{sensorID}/samples  latest samples
	POST   /api/v1/ingest                      device readings
	POST   /api/v1/data/{kind}                 grouped, ungrouped, offset, power
	PUT    /api/v1/powerprices/{date}          store 24 hourly prices (GET reads)
	POST   /api/v1/export/{kind}               sensordata or powerprices
	GET    /download/{filename}/{key}/{disp}   generated file, attachment or inline
	GET    /api/v1/ws                          live readings
	GET    /dashboard/sensors/{sensorID}       server-rendered chart page
	GET    /api/v1/admin/performance           per-route latency window

JSON endpoints answer with models.APIResponse. The export endpoints return a
bare models.ExportReceipt, which is what export.Bridge expects.

Everything below /api/v1 except health and login passes auth.Middleware and
authz.Middleware. Downloads are unauthenticated: the download key is an
unguessable capability that expires with the stored file.
*/
package api
