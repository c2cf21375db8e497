// Package belgiantrain wires the configured connections and liveboards into
// a polling service: each subentry gets an iRail coordinator, the sensors it
// feeds, and a slot in the entity registry. The package also carries the HTTP
// surface that renders sensor states, diagnostics, the request actions and
// the optional GTFS-RT export.
package belgiantrain
