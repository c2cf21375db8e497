package belgiantrain

import (
	"encoding/json"
	"net/http"
)

// writeJSON writes a JSON payload with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// errorPayload is the error envelope every route shares.
type errorPayload struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorPayload{Error: msg})
}

type disturbancesResponse struct {
	Disturbances []disturbanceRecord `json:"disturbances"`
	Count        int                 `json:"count"`
}

type disturbanceRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Link        string `json:"link,omitempty"`
	Timestamp   string `json:"timestamp"`
}

type vehicleResponse struct {
	VehicleID string        `json:"vehicle_id"`
	Name      string        `json:"name"`
	Stops     []vehicleStop `json:"stops"`
}

type vehicleStop struct {
	Station  string `json:"station"`
	Platform string `json:"platform"`
	Time     string `json:"time"`
	Delay    int    `json:"delay"`
	Canceled bool   `json:"canceled"`
	Left     bool   `json:"left"`
}

// vehicleNotFound keeps the requested ID next to the error, matching the
// shape callers already parse for successful lookups.
type vehicleNotFound struct {
	VehicleID string `json:"vehicle_id"`
	Error     string `json:"error"`
}

type compositionResponse struct {
	TrainID  string               `json:"train_id"`
	Segments []compositionSegment `json:"segments"`
}

type compositionSegment struct {
	Origin      string            `json:"origin"`
	Destination string            `json:"destination"`
	Units       []compositionUnit `json:"units"`
}

type compositionUnit struct {
	MaterialType     string `json:"material_type"`
	HasToilets       bool   `json:"has_toilets"`
	HasPrmSection    bool   `json:"has_prm_section"`
	HasBikeSection   bool   `json:"has_bike_section"`
	SeatsFirstClass  int    `json:"seats_first_class"`
	SeatsSecondClass int    `json:"seats_second_class"`
}

type compositionNotFound struct {
	TrainID string `json:"train_id"`
	Error   string `json:"error"`
}

type stationsResponse struct {
	Stations []stationRecord `json:"stations"`
	Count    int             `json:"count"`
}

type stationRecord struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	StandardName string  `json:"standard_name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}
