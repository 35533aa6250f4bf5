// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

/*
Package auth authenticates the two kinds of principals Sensorboard knows:

  - the administrator, who logs in with the configured username and a
    bcrypt-verified password and receives a JWT with role "admin"
  - devices, which receive a long-lived JWT with role "device" and subject
    set to the device id, issued through POST /api/v1/devices/{id}/token

Tokens are HS256 JWTs. Middleware.Authenticate reads them from the
Authorization header ("Bearer <token>") or, for browser pages and the
websocket, from the "token" cookie, and stores the Claims in the request
context. What a role may do is decided by the authz package.

DeviceLimiter throttles ingestion per device id with a token bucket.
*/
package auth
