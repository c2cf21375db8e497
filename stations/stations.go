// Package stations holds the SNCB/NMBS station catalogue, fetched once at
// startup and indexed for the lookups the rest of the service needs.
package stations

import (
	"sort"
	"strings"

	"github.com/tjorim/belgiantrain/irail"
)

// Catalogue is an immutable station index. Build one with New and share it;
// all methods are safe for concurrent use.
type Catalogue struct {
	all    []irail.Station
	byID   map[string]irail.Station
	byName map[string]irail.Station
}

// New indexes the given station list. Stations are kept sorted by standard
// name so listings come out in a stable order.
func New(list []irail.Station) *Catalogue {
	c := &Catalogue{
		all:    make([]irail.Station, len(list)),
		byID:   make(map[string]irail.Station, len(list)),
		byName: make(map[string]irail.Station, 2*len(list)),
	}
	copy(c.all, list)
	sort.Slice(c.all, func(i, j int) bool { return c.all[i].StandardName < c.all[j].StandardName })

	for _, s := range c.all {
		c.byID[s.ID] = s
		c.byName[strings.ToLower(s.StandardName)] = s
		if s.Name != "" {
			c.byName[strings.ToLower(s.Name)] = s
		}
	}
	return c
}

// Get looks a station up by its iRail ID ("BE.NMBS.008812005").
func (c *Catalogue) Get(id string) (irail.Station, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// Find resolves an ID or a (standard or localized) name, case-insensitively.
func (c *Catalogue) Find(q string) (irail.Station, bool) {
	if s, ok := c.byID[q]; ok {
		return s, true
	}
	s, ok := c.byName[strings.ToLower(strings.TrimSpace(q))]
	return s, ok
}

// All returns the catalogue sorted by standard name. The slice is a copy.
func (c *Catalogue) All() []irail.Station {
	out := make([]irail.Station, len(c.all))
	copy(out, c.all)
	return out
}

// Filter returns the stations whose standard or localized name contains q,
// case-insensitively. An empty q returns everything.
func (c *Catalogue) Filter(q string) []irail.Station {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]irail.Station, 0, len(c.all))
	for _, s := range c.all {
		if q == "" ||
			strings.Contains(strings.ToLower(s.StandardName), q) ||
			strings.Contains(strings.ToLower(s.Name), q) {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of stations.
func (c *Catalogue) Len() int { return len(c.all) }
