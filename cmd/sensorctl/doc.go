// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

/*
Sensorctl is the operator command line for a Sensorboard server.

Usage:

	sensorctl [--api URL] [--token TOKEN] [--db PATH] <command>

Commands:

	query grouped|ungrouped|offset|power   run a data query and print the datasets as JSON
	export sensordata|powerprices          generate an export on the server and save the file
	chart                                  render a sensor chart page to a standalone HTML file

Queries and charts read from the API at --api by default. With --db they
open the DuckDB file directly, which must not be in use by a running
server. Exports always go through the API since the server generates and
stores the file.

The token is read from SENSORBOARD_TOKEN when --token is not given.
*/
package main
