// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

// Package validation validates request structs with go-playground/validator.
//
// A single validator instance is shared by all handlers so struct metadata
// is parsed once. Field names in errors are the JSON names clients send
// ("sensorIds", not "SensorIDs"), and failures convert to the API's
// VALIDATION_ERROR response:
//
//	var q models.GroupedQuery
//	if verr := validation.ValidateStruct(&q); verr != nil {
//	    respondAPIError(w, http.StatusBadRequest, verr.ToAPIError())
//	    return
//	}
//
// Besides the built-in tags the package registers:
//
//   - sensorid: 1-64 characters of [A-Za-z0-9_.:-], the alphabet devices
//     use for sensor ids in ingestion payloads
//   - tzname: an IANA time zone name loadable with time.LoadLocation
package validation
