package sensor

import "fmt"

// ConnectionUniqueID derives the unique ID of a connection sensor.
func ConnectionUniqueID(fromID, toID string, excludeVias bool) string {
	id := fmt.Sprintf("nmbs_connection_%s_%s", fromID, toID)
	if excludeVias {
		id += "_excl_vias"
	}
	return id
}

// LiveboardUniqueID derives the unique ID of a liveboard sensor spawned
// next to a connection; liveID is the monitored endpoint.
func LiveboardUniqueID(liveID, fromID, toID string, excludeVias bool) string {
	id := fmt.Sprintf("nmbs_live_%s_%s_%s", liveID, fromID, toID)
	if excludeVias {
		id += "_excl_vias"
	}
	return id
}

// StandaloneLiveboardUniqueID derives the unique ID of a liveboard sensor
// backed by its own subentry.
func StandaloneLiveboardUniqueID(stationID string) string {
	return "nmbs_live_" + stationID
}
