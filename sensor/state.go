package sensor

import "time"

// State value strings for sensors without a computed value.
const (
	StateUnknown     = "unknown"
	StateUnavailable = "unavailable"
)

// Attribution names the data source on every sensor.
const Attribution = "https://api.irail.be/"

// Icons; the alert variant shows whenever the rendered departure is delayed.
const (
	IconTrain = "mdi:train"
	IconAlert = "mdi:alert-octagon"
)

// State is the rendered snapshot of one sensor.
type State struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastChanged time.Time      `json:"last_changed"`
	LastUpdated time.Time      `json:"last_updated"`
}

// Sensor is one rendered entity. Recompute pulls from the owning
// coordinator; Snapshot renders the current state object.
type Sensor interface {
	UniqueID() string
	Name() string
	EntityID() string
	BindEntityID(id string)
	Recompute()
	Snapshot() State

	// Horizon is the time the rendered data stops being interesting
	// (arrival or departure); zero when no data is held. Mirror TTLs
	// derive from it.
	Horizon() time.Time
}
