package sensor

import (
	"context"
	"testing"
	"time"

	"github.com/tjorim/belgiantrain/coordinator"
	"github.com/tjorim/belgiantrain/irail"
)

func testBoard(departures ...irail.LiveboardDeparture) *irail.Liveboard {
	return &irail.Liveboard{
		Station:     "Brussels-North",
		StationInfo: brusselsNorth,
		Timestamp:   testNow,
		Departures:  departures,
	}
}

func testDeparture() irail.LiveboardDeparture {
	return irail.LiveboardDeparture{
		ID:        "0",
		Station:   "Ghent-Sint-Pieters",
		Time:      testNow.Add(5 * time.Minute),
		Platform:  "6",
		Vehicle:   "BE.NMBS.IC1832",
		Occupancy: "low",
	}
}

// newLiveboardSensor wires a sensor to a standalone liveboard coordinator.
func newLiveboardSensor(t *testing.T, api *fakeAPI) (*LiveboardSensor, *coordinator.LiveboardCoordinator) {
	t.Helper()

	coord := coordinator.NewLiveboard(api, discardLogger(), "liveboard_"+brusselsNorth.ID, brusselsNorth)
	s := NewLiveboard(LiveboardSource{
		UniqueID: StandaloneLiveboardUniqueID(brusselsNorth.ID),
		Station:  brusselsNorth,
		Board:    func() *irail.Liveboard { return coord.Data() },
		Healthy:  coord.Healthy,
	}, discardLogger())
	s.now = func() time.Time { return testNow }
	return s, coord
}

func TestLiveboardSensor_Snapshot(t *testing.T) {
	api := &fakeAPI{liveboards: map[string]*irail.Liveboard{
		brusselsNorth.ID: testBoard(testDeparture()),
	}}
	s, coord := newLiveboardSensor(t, api)

	if err := coord.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	s.Recompute()
	st := s.Snapshot()

	if st.State != "Track 6 - Ghent-Sint-Pieters" {
		t.Errorf("state = %q", st.State)
	}

	attrs := st.Attributes
	if attrs["friendly_name"] != "Trains in Brussel-Noord" {
		t.Errorf("friendly_name = %v", attrs["friendly_name"])
	}
	if attrs["departure"] != "In 5 minutes" || attrs["departure_minutes"] != 5 {
		t.Errorf("departure = %v (%v)", attrs["departure"], attrs["departure_minutes"])
	}
	if attrs["extra_train"] != false {
		t.Errorf("extra_train = %v", attrs["extra_train"])
	}
	if attrs["vehicle_id"] != "BE.NMBS.IC1832" {
		t.Errorf("vehicle_id = %v", attrs["vehicle_id"])
	}
	if attrs["monitored_station"] != "Brussel-Noord" {
		t.Errorf("monitored_station = %v", attrs["monitored_station"])
	}
	if attrs["occupancy"] != "low" {
		t.Errorf("occupancy = %v", attrs["occupancy"])
	}
	// No delay: no delay attrs and the plain icon.
	if _, ok := attrs["delay"]; ok {
		t.Error("delay attr should be absent without a delay")
	}
	if attrs["icon"] != IconTrain {
		t.Errorf("icon = %v", attrs["icon"])
	}
	// A liveboard state is a string, not a measurement.
	if _, ok := attrs["unit_of_measurement"]; ok {
		t.Error("liveboard sensors carry no unit")
	}
}

func TestLiveboardSensor_DelayAttrs(t *testing.T) {
	dep := testDeparture()
	dep.Delay = 240
	dep.IsExtra = true
	api := &fakeAPI{liveboards: map[string]*irail.Liveboard{
		brusselsNorth.ID: testBoard(dep),
	}}
	s, coord := newLiveboardSensor(t, api)

	_ = coord.Refresh(context.Background())
	s.Recompute()
	attrs := s.Snapshot().Attributes

	if attrs["delay"] != "4 minutes" || attrs["delay_minutes"] != 4 {
		t.Errorf("delay = %v (%v)", attrs["delay"], attrs["delay_minutes"])
	}
	if attrs["extra_train"] != true {
		t.Errorf("extra_train = %v", attrs["extra_train"])
	}
	if attrs["icon"] != IconAlert {
		t.Errorf("icon = %v, want alert when delayed", attrs["icon"])
	}
}

func TestLiveboardSensor_SubMinuteDelayStillAlerts(t *testing.T) {
	dep := testDeparture()
	dep.Delay = 20
	api := &fakeAPI{liveboards: map[string]*irail.Liveboard{
		brusselsNorth.ID: testBoard(dep),
	}}
	s, coord := newLiveboardSensor(t, api)

	_ = coord.Refresh(context.Background())
	s.Recompute()
	attrs := s.Snapshot().Attributes

	// 20s rounds to 0 minutes, so no delay attrs, but the board already
	// shows the train late: alert icon.
	if _, ok := attrs["delay"]; ok {
		t.Error("sub-minute delay should not render delay attrs")
	}
	if attrs["icon"] != IconAlert {
		t.Errorf("icon = %v, want alert for any raw delay", attrs["icon"])
	}
}

func TestLiveboardSensor_EmptyBoardClearsState(t *testing.T) {
	api := &fakeAPI{liveboards: map[string]*irail.Liveboard{
		brusselsNorth.ID: testBoard(testDeparture()),
	}}
	s, coord := newLiveboardSensor(t, api)

	_ = coord.Refresh(context.Background())
	s.Recompute()
	if got := s.Snapshot().State; got != "Track 6 - Ghent-Sint-Pieters" {
		t.Fatalf("state = %q", got)
	}

	api.liveboards[brusselsNorth.ID] = testBoard()
	_ = coord.Refresh(context.Background())
	s.Recompute()
	st := s.Snapshot()

	if st.State != StateUnknown {
		t.Errorf("state = %q, want %q for an empty board", st.State, StateUnknown)
	}
	if _, ok := st.Attributes["departure"]; ok {
		t.Error("attributes should be cleared with the state")
	}
}

func TestLiveboardSensor_ConnectionSpawned(t *testing.T) {
	api := &fakeAPI{
		connections: []irail.Connection{testConnection()},
		liveboards: map[string]*irail.Liveboard{
			brusselsNorth.ID: testBoard(testDeparture()),
			ghent.ID: {
				Station:     "Ghent-Sint-Pieters",
				StationInfo: ghent,
				Departures: []irail.LiveboardDeparture{{
					Station: "Antwerp-Central", Time: testNow.Add(8 * time.Minute), Platform: "2",
				}},
			},
		},
	}
	coord := coordinator.NewConnection(api, discardLogger(), "connection_test", brusselsNorth, ghent)

	from := NewLiveboard(LiveboardSource{
		UniqueID: LiveboardUniqueID(brusselsNorth.ID, brusselsNorth.ID, ghent.ID, false),
		Station:  brusselsNorth,
		Board: func() *irail.Liveboard {
			if d := coord.Data(); d != nil {
				return d.LiveboardFrom
			}
			return nil
		},
		Healthy: coord.Healthy,
	}, discardLogger())
	from.now = func() time.Time { return testNow }

	to := NewLiveboard(LiveboardSource{
		UniqueID: LiveboardUniqueID(ghent.ID, brusselsNorth.ID, ghent.ID, false),
		Station:  ghent,
		Board: func() *irail.Liveboard {
			if d := coord.Data(); d != nil {
				return d.LiveboardTo
			}
			return nil
		},
		Healthy: coord.Healthy,
	}, discardLogger())
	to.now = func() time.Time { return testNow }

	if err := coord.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	from.Recompute()
	to.Recompute()

	if got := from.Snapshot().State; got != "Track 6 - Ghent-Sint-Pieters" {
		t.Errorf("from board state = %q", got)
	}
	if got := to.Snapshot().State; got != "Track 2 - Antwerp-Central" {
		t.Errorf("to board state = %q", got)
	}
	if from.UniqueID() != "nmbs_live_BE.NMBS.008812005_BE.NMBS.008812005_BE.NMBS.008892007" {
		t.Errorf("from unique ID = %q", from.UniqueID())
	}

	t.Logf("✓ Connection-spawned boards render both endpoints")
}

func TestLiveboardSensor_Horizon(t *testing.T) {
	api := &fakeAPI{liveboards: map[string]*irail.Liveboard{
		brusselsNorth.ID: testBoard(testDeparture()),
	}}
	s, coord := newLiveboardSensor(t, api)

	if !s.Horizon().IsZero() {
		t.Error("horizon should be zero before data arrives")
	}

	_ = coord.Refresh(context.Background())
	s.Recompute()
	if want := testNow.Add(5 * time.Minute); !s.Horizon().Equal(want) {
		t.Errorf("horizon = %v, want %v", s.Horizon(), want)
	}
}
