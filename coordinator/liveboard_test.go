package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tjorim/belgiantrain/irail"
)

func TestLiveboardCoordinator_Refresh(t *testing.T) {
	board := &irail.Liveboard{
		Station: "Antwerpen-Centraal",
		Departures: []irail.LiveboardDeparture{
			{Station: "Brussels-North", Time: time.Now().Add(5 * time.Minute), Platform: "12"},
		},
	}
	antwerp := irail.Station{ID: "BE.NMBS.008821006", StandardName: "Antwerpen-Centraal"}
	api := &fakeAPI{liveboards: map[string]*irail.Liveboard{antwerp.ID: board}}
	c := NewLiveboard(api, discardLogger(), "liveboard_BE.NMBS.008821006", antwerp)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if !c.Healthy() {
		t.Error("coordinator should be healthy")
	}
	if got := c.Data(); got == nil || len(got.Departures) != 1 {
		t.Fatalf("Data = %+v, want board with 1 departure", got)
	}
	if c.Station().ID != antwerp.ID {
		t.Errorf("Station = %q, want %q", c.Station().ID, antwerp.ID)
	}
}

func TestLiveboardCoordinator_Failure(t *testing.T) {
	antwerp := irail.Station{ID: "BE.NMBS.008821006", StandardName: "Antwerpen-Centraal"}
	api := &fakeAPI{
		liveboards: map[string]*irail.Liveboard{
			antwerp.ID: {Station: "Antwerpen-Centraal", Timestamp: time.Unix(1000, 0)},
		},
		liveErrs: map[string]error{},
	}
	c := NewLiveboard(api, discardLogger(), "liveboard_BE.NMBS.008821006", antwerp)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("initial Refresh failed: %v", err)
	}

	api.liveErrs[antwerp.ID] = errors.New("timeout")
	if err := c.Refresh(context.Background()); err == nil {
		t.Fatal("expected error when upstream fails")
	}

	if c.Healthy() {
		t.Error("coordinator should be unhealthy")
	}
	if c.Data() == nil || !c.Data().Timestamp.Equal(time.Unix(1000, 0)) {
		t.Error("cached board should survive the failure")
	}
}

func TestLiveboardCoordinator_NilBoard(t *testing.T) {
	antwerp := irail.Station{ID: "BE.NMBS.008821006", StandardName: "Antwerpen-Centraal"}
	api := &fakeAPI{liveboards: map[string]*irail.Liveboard{}}
	c := NewLiveboard(api, discardLogger(), "liveboard_BE.NMBS.008821006", antwerp)

	if err := c.Refresh(context.Background()); err == nil {
		t.Fatal("expected error for nil board")
	}
	if c.Healthy() {
		t.Error("coordinator should be unhealthy")
	}
}
