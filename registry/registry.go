// Package registry tracks registered sensors, their entity IDs and the
// service device they group under.
package registry

import (
	"fmt"
	"sync"

	"github.com/tjorim/belgiantrain/sensor"
)

// Subentry types.
const (
	SubentryConnection = "connection"
	SubentryLiveboard  = "liveboard"
)

// Device describes the service device every entity references.
type Device struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	EntryType    string   `json:"entry_type"`
}

// ServiceDevice is the single device all sensors group under.
func ServiceDevice() Device {
	return Device{
		Identifiers:  []string{"belgiantrain"},
		Name:         "SNCB/NMBS",
		Manufacturer: "SNCB/NMBS",
		EntryType:    "service",
	}
}

// Entry is one registered sensor.
type Entry struct {
	UniqueID          string
	EntityID          string
	SubentryID        string
	SubentryType      string
	Title             string
	Enabled           bool
	DisabledByDefault bool
	Sensor            sensor.Sensor
}

// Registry is the entity registry. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	byUnique map[string]*Entry
	byEntity map[string]*Entry
	order    []string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		byUnique: make(map[string]*Entry),
		byEntity: make(map[string]*Entry),
	}
}

// Register assigns an entity ID from the sensor's name and records it.
// Duplicate unique IDs are rejected; entity-ID collisions after slugging
// get a numeric suffix.
func (r *Registry) Register(s sensor.Sensor, subentryID, subentryType, title string, disabledByDefault bool) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	uid := s.UniqueID()
	if _, dup := r.byUnique[uid]; dup {
		return nil, fmt.Errorf("entity %s already configured", uid)
	}

	entityID := "sensor." + Slugify(s.Name())
	if _, taken := r.byEntity[entityID]; taken {
		for n := 2; ; n++ {
			candidate := fmt.Sprintf("%s_%d", entityID, n)
			if _, taken := r.byEntity[candidate]; !taken {
				entityID = candidate
				break
			}
		}
	}
	s.BindEntityID(entityID)

	e := &Entry{
		UniqueID:          uid,
		EntityID:          entityID,
		SubentryID:        subentryID,
		SubentryType:      subentryType,
		Title:             title,
		Enabled:           !disabledByDefault,
		DisabledByDefault: disabledByDefault,
		Sensor:            s,
	}
	r.byUnique[uid] = e
	r.byEntity[entityID] = e
	r.order = append(r.order, uid)
	return e, nil
}

// Entries returns every entry in registration order.
func (r *Registry) Entries() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, 0, len(r.order))
	for _, uid := range r.order {
		out = append(out, r.byUnique[uid])
	}
	return out
}

// Enabled returns the enabled entries in registration order.
func (r *Registry) Enabled() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, 0, len(r.order))
	for _, uid := range r.order {
		if e := r.byUnique[uid]; e.Enabled {
			out = append(out, e)
		}
	}
	return out
}

// ByEntityID looks an entry up by its entity ID.
func (r *Registry) ByEntityID(id string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byEntity[id]
	return e, ok
}

// ByUniqueID looks an entry up by its unique ID.
func (r *Registry) ByUniqueID(id string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byUnique[id]
	return e, ok
}

// Has reports whether a unique ID is registered.
func (r *Registry) Has(uniqueID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUnique[uniqueID]
	return ok
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUnique)
}

// RemoveSubentry drops all entities of one subentry and returns them.
func (r *Registry) RemoveSubentry(subentryID string) []*Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []*Entry
	kept := r.order[:0]
	for _, uid := range r.order {
		e := r.byUnique[uid]
		if e.SubentryID != subentryID {
			kept = append(kept, uid)
			continue
		}
		delete(r.byUnique, uid)
		delete(r.byEntity, e.EntityID)
		removed = append(removed, e)
	}
	r.order = kept
	return removed
}

// Stale returns entries whose subentry is not in the active set: ghosts
// left behind by removed configuration.
func (r *Registry) Stale(activeSubentries map[string]bool) []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stale []*Entry
	for _, uid := range r.order {
		e := r.byUnique[uid]
		if !activeSubentries[e.SubentryID] {
			stale = append(stale, e)
		}
	}
	return stale
}
