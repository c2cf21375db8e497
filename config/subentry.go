package config

import "fmt"

// ConnectionSubentryID derives the stable ID of a connection subentry from
// the two station references.
func ConnectionSubentryID(from, to string, excludeVias bool) string {
	id := fmt.Sprintf("connection_%s_%s", from, to)
	if excludeVias {
		id += "_excl_vias"
	}
	return id
}

// LiveboardSubentryID derives the stable ID of a liveboard subentry.
func LiveboardSubentryID(station string) string {
	return "liveboard_" + station
}

// ConnectionTitle is the display title of a connection subentry. Pass
// standard station names.
func ConnectionTitle(from, to string) string {
	return fmt.Sprintf("Connection: %s → %s", from, to)
}

// LiveboardTitle is the display title of a liveboard subentry.
func LiveboardTitle(station string) string {
	return "Liveboard - " + station
}
