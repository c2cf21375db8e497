// Package config handles service configuration loading and validation.
//
// Configuration is loaded from config.yml and validated using struct tags.
// Version-1 files, which carried a single flat connection at the top level,
// are migrated in memory; the file on disk is never rewritten.
//
// The package also owns subentry identity: the stable IDs derived from a
// configured connection or liveboard, which entity unique IDs, Redis keys
// and diagnostics all hang off.
package config
