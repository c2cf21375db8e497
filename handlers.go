package belgiantrain

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tjorim/belgiantrain/export"
	"github.com/tjorim/belgiantrain/irail"
)

func (s *Service) handleStates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.States())
}

// handleState serves one entity. Disabled entities are not loaded, so they
// 404 like unknown ones.
func (s *Service) handleState(w http.ResponseWriter, r *http.Request) {
	entityID := strings.TrimPrefix(r.URL.Path, "/api/states/")
	st, ok := s.State(entityID)
	if !ok {
		writeError(w, 404, "no entity "+entityID)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleExportGTFSRT renders the departure boards as a GTFS-RT feed,
// protobuf bytes unless ?format=json asks for protojson.
func (s *Service) handleExportGTFSRT(w http.ResponseWriter, r *http.Request) {
	format, err := exportFormat(r)
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}
	feed := export.Build(s.Boards())
	if format == "json" {
		buf, err := export.MarshalJSON(feed)
		if err != nil {
			writeError(w, 500, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(buf)
		return
	}
	buf, err := export.Marshal(feed)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/x-protobuf")
	_, _ = w.Write(buf)
}

// handleDisturbances fetches the current disruption notices on demand. An
// upstream nil is an empty list, not an error.
func (s *Service) handleDisturbances(w http.ResponseWriter, r *http.Request) {
	list, err := s.api.Disturbances(r.Context())
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	resp := disturbancesResponse{
		Disturbances: make([]disturbanceRecord, 0, len(list)),
		Count:        len(list),
	}
	for _, d := range list {
		resp.Disturbances = append(resp.Disturbances, disturbanceRecord{
			ID:          d.ID,
			Title:       d.Title,
			Description: d.Description,
			Type:        d.Type,
			Link:        d.Link,
			Timestamp:   iso8601(d.Timestamp),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := requireParam(r, "vehicle_id")
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}
	v, err := s.api.Vehicle(r.Context(), id)
	if errors.Is(err, irail.ErrNotFound) {
		writeJSON(w, 404, vehicleNotFound{VehicleID: id, Error: "vehicle not found"})
		return
	}
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	resp := vehicleResponse{
		VehicleID: id,
		Name:      v.Name,
		Stops:     make([]vehicleStop, 0, len(v.Stops)),
	}
	for _, st := range v.Stops {
		resp.Stops = append(resp.Stops, vehicleStop{
			Station:  st.Station,
			Platform: st.Platform,
			Time:     iso8601(st.Time),
			Delay:    st.Delay,
			Canceled: st.Canceled,
			Left:     st.Left,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleComposition(w http.ResponseWriter, r *http.Request) {
	id, err := requireParam(r, "train_id")
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}
	comp, err := s.api.Composition(r.Context(), id)
	if errors.Is(err, irail.ErrNotFound) {
		writeJSON(w, 404, compositionNotFound{TrainID: id, Error: "composition not found"})
		return
	}
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	resp := compositionResponse{
		TrainID:  id,
		Segments: make([]compositionSegment, 0, len(comp.Segments)),
	}
	for _, seg := range comp.Segments {
		units := make([]compositionUnit, 0, len(seg.Units))
		for _, u := range seg.Units {
			units = append(units, compositionUnit{
				MaterialType:     u.MaterialType,
				HasToilets:       u.HasToilets,
				HasPrmSection:    u.HasPrmSection,
				HasBikeSection:   u.HasBikeSection,
				SeatsFirstClass:  u.SeatsFirstClass,
				SeatsSecondClass: u.SeatsSecondClass,
			})
		}
		resp.Segments = append(resp.Segments, compositionSegment{
			Origin:      seg.Origin,
			Destination: seg.Destination,
			Units:       units,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStations filters the cached catalogue; no upstream call.
func (s *Service) handleStations(w http.ResponseWriter, r *http.Request) {
	matches := s.catalogue.Filter(optionalParam(r, "name_filter"))
	out := make([]stationRecord, 0, len(matches))
	for _, st := range matches {
		out = append(out, stationRecord{
			ID:           st.ID,
			Name:         st.Name,
			StandardName: st.StandardName,
			Latitude:     st.Latitude,
			Longitude:    st.Longitude,
		})
	}
	writeJSON(w, http.StatusOK, stationsResponse{Stations: out, Count: len(out)})
}
