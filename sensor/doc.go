// Package sensor renders coordinator payloads into entity state.
//
// Two sensor kinds exist: a connection sensor whose state is the travel
// time in minutes between two stations, and a liveboard sensor whose state
// is the next departure from one station ("Track 6 - Ghent-Sint-Pieters").
// Sensors recompute after every coordinator refresh and snapshot into a
// State object; while the owning coordinator is unhealthy they render as
// unavailable but keep their last values.
package sensor
