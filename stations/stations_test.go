package stations

import (
	"testing"

	"github.com/tjorim/belgiantrain/irail"
)

func testCatalogue() *Catalogue {
	return New([]irail.Station{
		{ID: "BE.NMBS.008892007", Name: "Ghent-Sint-Pieters", StandardName: "Gent-Sint-Pieters", Latitude: 51.035896, Longitude: 3.710675},
		{ID: "BE.NMBS.008812005", Name: "Brussels-North", StandardName: "Brussel-Noord", Latitude: 50.859663, Longitude: 4.360846},
		{ID: "BE.NMBS.008821006", Name: "Antwerp-Central", StandardName: "Antwerpen-Centraal", Latitude: 51.2172, Longitude: 4.421101},
	})
}

func TestCatalogue_Get(t *testing.T) {
	c := testCatalogue()

	s, ok := c.Get("BE.NMBS.008812005")
	if !ok {
		t.Fatal("expected to find Brussel-Noord by ID")
	}
	if s.StandardName != "Brussel-Noord" {
		t.Errorf("standard name = %q, want Brussel-Noord", s.StandardName)
	}

	if _, ok := c.Get("BE.NMBS.000000000"); ok {
		t.Error("unknown ID should not resolve")
	}
}

func TestCatalogue_Find(t *testing.T) {
	c := testCatalogue()

	tests := []struct {
		query  string
		wantID string
	}{
		{"BE.NMBS.008821006", "BE.NMBS.008821006"},
		{"Antwerpen-Centraal", "BE.NMBS.008821006"},
		{"antwerpen-centraal", "BE.NMBS.008821006"},
		{"Antwerp-Central", "BE.NMBS.008821006"},
		{"  Gent-Sint-Pieters  ", "BE.NMBS.008892007"},
	}
	for _, tt := range tests {
		s, ok := c.Find(tt.query)
		if !ok {
			t.Errorf("Find(%q) found nothing", tt.query)
			continue
		}
		if s.ID != tt.wantID {
			t.Errorf("Find(%q) = %s, want %s", tt.query, s.ID, tt.wantID)
		}
	}

	if _, ok := c.Find("Atlantis-Centraal"); ok {
		t.Error("unknown name should not resolve")
	}
}

func TestCatalogue_AllSorted(t *testing.T) {
	c := testCatalogue()

	all := c.All()
	if len(all) != 3 || c.Len() != 3 {
		t.Fatalf("expected 3 stations, got %d (Len %d)", len(all), c.Len())
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].StandardName > all[i].StandardName {
			t.Fatalf("catalogue not sorted: %q before %q", all[i-1].StandardName, all[i].StandardName)
		}
	}

	// Mutating the copy must not touch the catalogue.
	all[0].StandardName = "Zzz"
	if again := c.All(); again[0].StandardName == "Zzz" {
		t.Error("All should return a copy")
	}
}

func TestCatalogue_Filter(t *testing.T) {
	c := testCatalogue()

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"gent", 1},
		{"GENT", 1},
		{"antwerp", 1}, // matches the localized name
		{"centraal", 1},
		{"atlantis", 0},
	}
	for _, tt := range tests {
		got := c.Filter(tt.query)
		if len(got) != tt.want {
			t.Errorf("Filter(%q) returned %d stations, want %d", tt.query, len(got), tt.want)
		}
	}

	if got := c.Filter("sint"); len(got) != 1 || got[0].ID != "BE.NMBS.008892007" {
		t.Errorf("Filter(sint) = %v, want Gent-Sint-Pieters only", got)
	}
}
