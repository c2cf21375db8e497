package sensor

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tjorim/belgiantrain/irail"
)

// LiveboardSource feeds a liveboard sensor from its owning coordinator.
// Board returns the current departure board (nil before the first success);
// Healthy tracks the coordinator. Connection subentries spawn two of these
// against their own coordinator's endpoint boards, standalone liveboard
// subentries one against a liveboard coordinator.
type LiveboardSource struct {
	UniqueID string
	Station  irail.Station
	Board    func() *irail.Liveboard
	Healthy  func() bool
}

// LiveboardSensor reports the next departure from one station.
type LiveboardSensor struct {
	log      *slog.Logger
	station  irail.Station
	uniqueID string
	board    func() *irail.Liveboard
	healthy  func() bool
	now      func() time.Time

	mu          sync.RWMutex
	entityID    string
	state       *string
	picked      *irail.LiveboardDeparture
	lastChanged time.Time
	lastUpdated time.Time
}

// NewLiveboard builds the sensor.
func NewLiveboard(src LiveboardSource, log *slog.Logger) *LiveboardSensor {
	s := &LiveboardSensor{
		log:      log,
		station:  src.Station,
		uniqueID: src.UniqueID,
		board:    src.Board,
		healthy:  src.Healthy,
		now:      time.Now,
	}
	s.lastChanged = s.now()
	s.lastUpdated = s.lastChanged
	return s
}

func (s *LiveboardSensor) UniqueID() string { return s.uniqueID }

func (s *LiveboardSensor) Name() string {
	return "Trains in " + s.station.StandardName
}

func (s *LiveboardSensor) EntityID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entityID
}

func (s *LiveboardSensor) BindEntityID(id string) {
	s.mu.Lock()
	s.entityID = id
	s.mu.Unlock()
}

// Recompute renders the first departure on the board.
func (s *LiveboardSensor) Recompute() {
	board := s.board()
	if board == nil {
		s.log.Warn("liveboard data not available", "sensor", s.uniqueID)
		return
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUpdated = now

	if len(board.Departures) == 0 {
		s.log.Warn("no departures on the board",
			"sensor", s.uniqueID, "station", s.station.StandardName)
		if s.state != nil {
			s.lastChanged = now
		}
		s.state = nil
		s.picked = nil
		return
	}

	next := board.Departures[0]
	s.picked = &next

	state := fmt.Sprintf("Track %s - %s", next.Platform, next.Station)
	if s.state == nil || *s.state != state {
		s.lastChanged = now
	}
	s.state = &state
}

// Snapshot renders the state object.
func (s *LiveboardSensor) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		EntityID: s.entityID,
		Attributes: map[string]any{
			"friendly_name": s.Name(),
			"attribution":   Attribution,
			"icon":          s.icon(),
		},
		LastChanged: s.lastChanged,
		LastUpdated: s.lastUpdated,
	}

	if !s.healthy() {
		st.State = StateUnavailable
		return st
	}
	if s.state == nil || s.picked == nil {
		st.State = StateUnknown
		return st
	}

	st.State = *s.state
	dep := s.picked
	delay := DelayMinutes(dep.Delay)
	departure := TimeUntil(s.now(), dep.Time)

	attrs := st.Attributes
	attrs["departure"] = fmt.Sprintf("In %d minutes", departure)
	attrs["departure_minutes"] = departure
	attrs["extra_train"] = dep.IsExtra
	attrs["vehicle_id"] = dep.Vehicle
	attrs["monitored_station"] = s.station.StandardName

	if delay > 0 {
		attrs["delay"] = fmt.Sprintf("%d minutes", delay)
		attrs["delay_minutes"] = delay
	}
	if dep.Occupancy != "" && dep.Occupancy != "unknown" {
		attrs["occupancy"] = dep.Occupancy
	}
	return st
}

// Horizon is the departure time of the rendered board row.
func (s *LiveboardSensor) Horizon() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.picked == nil {
		return time.Time{}
	}
	return s.picked.Time
}

// icon; callers hold the lock. The raw delay in seconds decides, matching
// the board's "any delay at all" alerting.
func (s *LiveboardSensor) icon() string {
	if s.picked != nil && s.picked.Delay > 0 {
		return IconAlert
	}
	return IconTrain
}
