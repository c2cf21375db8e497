package sensor

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/tjorim/belgiantrain/coordinator"
	"github.com/tjorim/belgiantrain/irail"
)

// ConnectionSensor reports the travel time in minutes of the next viable
// connection between two stations.
type ConnectionSensor struct {
	coord       *coordinator.ConnectionCoordinator
	log         *slog.Logger
	name        string
	showOnMap   bool
	excludeVias bool
	uniqueID    string
	now         func() time.Time

	mu          sync.RWMutex
	entityID    string
	state       *int
	picked      *irail.Connection
	lastChanged time.Time
	lastUpdated time.Time
}

// NewConnection builds the sensor. An empty name falls back to
// "Train from {A} to {B}".
func NewConnection(coord *coordinator.ConnectionCoordinator, log *slog.Logger, name string, showOnMap, excludeVias bool) *ConnectionSensor {
	s := &ConnectionSensor{
		coord:       coord,
		log:         log,
		name:        name,
		showOnMap:   showOnMap,
		excludeVias: excludeVias,
		uniqueID:    ConnectionUniqueID(coord.From().ID, coord.To().ID, excludeVias),
		now:         time.Now,
	}
	s.lastChanged = s.now()
	s.lastUpdated = s.lastChanged
	return s
}

func (s *ConnectionSensor) UniqueID() string { return s.uniqueID }

func (s *ConnectionSensor) Name() string {
	if s.name != "" {
		return s.name
	}
	return fmt.Sprintf("Train from %s to %s", s.coord.From().StandardName, s.coord.To().StandardName)
}

func (s *ConnectionSensor) EntityID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entityID
}

func (s *ConnectionSensor) BindEntityID(id string) {
	s.mu.Lock()
	s.entityID = id
	s.mu.Unlock()
}

// Recompute picks the next viable connection from the coordinator and
// updates the state. The first option is used unless its train already
// left and a second one exists. With exclude_vias set, a picked connection
// that runs over a transfer keeps the previous state; its attributes still
// move to the picked connection.
func (s *ConnectionSensor) Recompute() {
	data := s.coord.Data()
	if data == nil {
		s.log.Warn("coordinator data not available", "sensor", s.uniqueID)
		return
	}
	conns := data.Connections
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUpdated = now

	if len(conns) == 0 {
		s.log.Warn("no connections available", "sensor", s.uniqueID)
		if s.state != nil {
			s.lastChanged = now
		}
		s.state = nil
		s.picked = nil
		return
	}

	next := conns[0]
	if conns[0].Departure.Left && len(conns) > 1 {
		next = conns[1]
	}
	s.picked = &next

	if s.excludeVias && len(next.Vias) > 0 {
		s.log.Debug("skipping state update, connection runs over a transfer", "sensor", s.uniqueID)
		return
	}

	minutes := RideDuration(next.Departure.Time, next.Arrival.Time, next.Departure.Delay)
	if s.state == nil || *s.state != minutes {
		s.lastChanged = now
	}
	s.state = &minutes
}

// Snapshot renders the state object.
func (s *ConnectionSensor) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		EntityID: s.entityID,
		Attributes: map[string]any{
			"friendly_name":       s.Name(),
			"attribution":         Attribution,
			"unit_of_measurement": "min",
			"icon":                s.icon(),
		},
		LastChanged: s.lastChanged,
		LastUpdated: s.lastUpdated,
	}

	if !s.coord.Healthy() {
		st.State = StateUnavailable
		return st
	}
	if s.state == nil || s.picked == nil {
		st.State = StateUnknown
		return st
	}

	st.State = strconv.Itoa(*s.state)
	conn := s.picked
	delay := DelayMinutes(conn.Departure.Delay)
	departure := TimeUntil(s.now(), conn.Departure.Time)

	attrs := st.Attributes
	attrs["destination"] = conn.Departure.Station
	attrs["direction"] = conn.Departure.Direction
	attrs["platform_arriving"] = conn.Arrival.Platform
	attrs["platform_departing"] = conn.Departure.Platform
	attrs["vehicle_id"] = conn.Departure.Vehicle

	attrs["canceled"] = conn.Departure.Canceled
	if conn.Departure.Canceled {
		attrs["departure"] = nil
		attrs["departure_minutes"] = nil
	} else {
		attrs["departure"] = fmt.Sprintf("In %d minutes", departure)
		attrs["departure_minutes"] = departure
	}

	if s.showOnMap {
		attrs["latitude"] = conn.Departure.StationInfo.Latitude
		attrs["longitude"] = conn.Departure.StationInfo.Longitude
	}

	if len(conn.Vias) > 0 && !s.excludeVias {
		via := conn.Vias[0]
		attrs["via"] = via.Station
		attrs["via_arrival_platform"] = via.Arrival.Platform
		attrs["via_transfer_platform"] = via.Departure.Platform
		attrs["via_transfer_time"] = DelayMinutes(via.TimeBetween) + DelayMinutes(via.Departure.Delay)
	}

	attrs["delay"] = fmt.Sprintf("%d minutes", delay)
	attrs["delay_minutes"] = delay
	return st
}

// Horizon is the arrival time of the rendered connection.
func (s *ConnectionSensor) Horizon() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.picked == nil {
		return time.Time{}
	}
	return s.picked.Arrival.Time
}

// icon; callers hold the lock.
func (s *ConnectionSensor) icon() string {
	if s.picked != nil && DelayMinutes(s.picked.Departure.Delay) > 0 {
		return IconAlert
	}
	return IconTrain
}
