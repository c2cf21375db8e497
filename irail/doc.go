// Package irail is a client for the iRail API (https://api.irail.be/),
// the public data source for Belgian rail (SNCB/NMBS).
//
// It covers the six resources the service consumes:
//   - Stations: the full station list
//   - Liveboard: the departure board of a single station
//   - Connections: routes between two stations
//   - Vehicle: one train and its stop list
//   - Composition: the carriage make-up of one train
//   - Disturbances: network-wide disruption notices
//
// The API encodes nearly every scalar as a JSON string ("delay": "120",
// "canceled": "0", epoch seconds for times); the package absorbs that
// and hands back plain Go values.
package irail
