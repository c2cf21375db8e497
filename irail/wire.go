package irail

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// Scalar wrappers. The API double-quotes numbers, booleans and epoch
// timestamps, and occasionally emits them bare, so every wrapper accepts
// both forms plus null.

type wireInt int

func (v *wireInt) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	if s == "" || s == "null" {
		*v = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("irail: numeric field %q: %w", s, err)
	}
	*v = wireInt(n)
	return nil
}

type wireFloat float64

func (v *wireFloat) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	if s == "" || s == "null" {
		*v = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("irail: float field %q: %w", s, err)
	}
	*v = wireFloat(f)
	return nil
}

type wireBool bool

func (v *wireBool) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	switch s {
	case "", "0", "false", "null":
		*v = false
	case "1", "true":
		*v = true
	default:
		return fmt.Errorf("irail: boolean field %q", s)
	}
	return nil
}

type wireTime time.Time

func (v *wireTime) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	if s == "" || s == "null" {
		*v = wireTime(time.Time{})
		return nil
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("irail: epoch field %q: %w", s, err)
	}
	*v = wireTime(time.Unix(sec, 0).UTC())
	return nil
}

func (v wireTime) Time() time.Time { return time.Time(v) }

// Raw response shapes, matching the v1 JSON envelopes.

type wireStation struct {
	URI          string    `json:"@id"`
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	StandardName string    `json:"standardname"`
	LocationX    wireFloat `json:"locationX"`
	LocationY    wireFloat `json:"locationY"`
}

func (w wireStation) toStation() Station {
	return Station{
		ID:           w.ID,
		URI:          w.URI,
		Name:         w.Name,
		StandardName: w.StandardName,
		Latitude:     float64(w.LocationY),
		Longitude:    float64(w.LocationX),
	}
}

type wireStationsResponse struct {
	Timestamp wireTime      `json:"timestamp"`
	Station   []wireStation `json:"station"`
}

type wireVehicleInfo struct {
	Name      string    `json:"name"`
	ShortName string    `json:"shortname"`
	Number    string    `json:"number"`
	Type      string    `json:"type"`
	LocationX wireFloat `json:"locationX"`
	LocationY wireFloat `json:"locationY"`
}

func (w wireVehicleInfo) toVehicleInfo() VehicleInfo {
	return VehicleInfo{Name: w.Name, ShortName: w.ShortName, Number: w.Number, Type: w.Type}
}

type wirePlatformInfo struct {
	Name   string   `json:"name"`
	Normal wireBool `json:"normal"`
}

type wireOccupancy struct {
	Name string `json:"name"`
}

type wireDirection struct {
	Name string `json:"name"`
}

type wireLiveboardResponse struct {
	Station     string      `json:"station"`
	StationInfo wireStation `json:"stationinfo"`
	Timestamp   wireTime    `json:"timestamp"`
	Departures  struct {
		Departure []wireDeparture `json:"departure"`
	} `json:"departures"`
}

type wireDeparture struct {
	ID           string           `json:"id"`
	Station      string           `json:"station"`
	StationInfo  wireStation      `json:"stationinfo"`
	Time         wireTime         `json:"time"`
	Delay        wireInt          `json:"delay"`
	Canceled     wireBool         `json:"canceled"`
	Left         wireBool         `json:"left"`
	IsExtra      wireBool         `json:"isExtra"`
	Vehicle      string           `json:"vehicle"`
	VehicleInfo  wireVehicleInfo  `json:"vehicleinfo"`
	Platform     string           `json:"platform"`
	PlatformInfo wirePlatformInfo `json:"platforminfo"`
	Occupancy    wireOccupancy    `json:"occupancy"`
}

func (w wireLiveboardResponse) toLiveboard() *Liveboard {
	lb := &Liveboard{
		Station:     w.Station,
		StationInfo: w.StationInfo.toStation(),
		Timestamp:   w.Timestamp.Time(),
		Departures:  make([]LiveboardDeparture, 0, len(w.Departures.Departure)),
	}
	for _, d := range w.Departures.Departure {
		lb.Departures = append(lb.Departures, LiveboardDeparture{
			ID:             d.ID,
			Station:        d.Station,
			StationInfo:    d.StationInfo.toStation(),
			Time:           d.Time.Time(),
			Delay:          int(d.Delay),
			Canceled:       bool(d.Canceled),
			Left:           bool(d.Left),
			IsExtra:        bool(d.IsExtra),
			Vehicle:        d.Vehicle,
			VehicleInfo:    d.VehicleInfo.toVehicleInfo(),
			Platform:       d.Platform,
			PlatformNormal: bool(d.PlatformInfo.Normal),
			Occupancy:      d.Occupancy.Name,
		})
	}
	return lb
}

type wireConnectionsResponse struct {
	Timestamp  wireTime         `json:"timestamp"`
	Connection []wireConnection `json:"connection"`
}

type wireConnection struct {
	ID        string             `json:"id"`
	Departure wireConnectionStop `json:"departure"`
	Arrival   wireConnectionStop `json:"arrival"`
	Duration  wireInt            `json:"duration"`
	Vias      struct {
		Via []wireVia `json:"via"`
	} `json:"vias"`
}

type wireConnectionStop struct {
	Station             string           `json:"station"`
	StationInfo         wireStation      `json:"stationinfo"`
	Time                wireTime         `json:"time"`
	Delay               wireInt          `json:"delay"`
	Platform            string           `json:"platform"`
	PlatformInfo        wirePlatformInfo `json:"platforminfo"`
	Left                wireBool         `json:"left"`
	Canceled            wireBool         `json:"canceled"`
	Vehicle             string           `json:"vehicle"`
	VehicleInfo         wireVehicleInfo  `json:"vehicleinfo"`
	Direction           wireDirection    `json:"direction"`
	DepartureConnection string           `json:"departureConnection"`
	Occupancy           wireOccupancy    `json:"occupancy"`
	Walking             wireBool         `json:"walking"`
}

func (w wireConnectionStop) toConnectionStop() ConnectionStop {
	return ConnectionStop{
		Station:             w.Station,
		StationInfo:         w.StationInfo.toStation(),
		Time:                w.Time.Time(),
		Delay:               int(w.Delay),
		Platform:            w.Platform,
		PlatformNormal:      bool(w.PlatformInfo.Normal),
		Left:                bool(w.Left),
		Canceled:            bool(w.Canceled),
		Vehicle:             w.Vehicle,
		VehicleInfo:         w.VehicleInfo.toVehicleInfo(),
		Direction:           w.Direction.Name,
		DepartureConnection: w.DepartureConnection,
		Occupancy:           w.Occupancy.Name,
		Walking:             bool(w.Walking),
	}
}

type wireVia struct {
	ID          string             `json:"id"`
	Station     string             `json:"station"`
	StationInfo wireStation        `json:"stationinfo"`
	TimeBetween wireInt            `json:"timebetween"`
	Arrival     wireConnectionStop `json:"arrival"`
	Departure   wireConnectionStop `json:"departure"`
	Vehicle     string             `json:"vehicle"`
}

func (w wireConnection) toConnection() Connection {
	conn := Connection{
		ID:        w.ID,
		Departure: w.Departure.toConnectionStop(),
		Arrival:   w.Arrival.toConnectionStop(),
		Duration:  int(w.Duration),
		Vias:      make([]Via, 0, len(w.Vias.Via)),
	}
	for _, v := range w.Vias.Via {
		conn.Vias = append(conn.Vias, Via{
			ID:          v.ID,
			Station:     v.Station,
			StationInfo: v.StationInfo.toStation(),
			TimeBetween: int(v.TimeBetween),
			Arrival:     v.Arrival.toConnectionStop(),
			Departure:   v.Departure.toConnectionStop(),
			Vehicle:     v.Vehicle,
		})
	}
	return conn
}

type wireVehicleResponse struct {
	Vehicle     string          `json:"vehicle"`
	VehicleInfo wireVehicleInfo `json:"vehicleinfo"`
	Stops       struct {
		Stop []wireVehicleStop `json:"stop"`
	} `json:"stops"`
}

type wireVehicleStop struct {
	ID             string           `json:"id"`
	Station        string           `json:"station"`
	StationInfo    wireStation      `json:"stationinfo"`
	Time           wireTime         `json:"time"`
	Delay          wireInt          `json:"delay"`
	Platform       string           `json:"platform"`
	PlatformInfo   wirePlatformInfo `json:"platforminfo"`
	Canceled       wireBool         `json:"canceled"`
	Left           wireBool         `json:"left"`
	Arrived        wireBool         `json:"arrived"`
	IsExtraStop    wireBool         `json:"isExtraStop"`
	DepartureDelay wireInt          `json:"departureDelay"`
	ArrivalDelay   wireInt          `json:"arrivalDelay"`
	Occupancy      wireOccupancy    `json:"occupancy"`
}

func (w wireVehicleResponse) toVehicle() *Vehicle {
	v := &Vehicle{
		ID:        w.Vehicle,
		Name:      w.VehicleInfo.Name,
		ShortName: w.VehicleInfo.ShortName,
		Number:    w.VehicleInfo.Number,
		Type:      w.VehicleInfo.Type,
		Latitude:  float64(w.VehicleInfo.LocationY),
		Longitude: float64(w.VehicleInfo.LocationX),
		Stops:     make([]VehicleStop, 0, len(w.Stops.Stop)),
	}
	for _, s := range w.Stops.Stop {
		v.Stops = append(v.Stops, VehicleStop{
			ID:             s.ID,
			Station:        s.Station,
			StationInfo:    s.StationInfo.toStation(),
			Time:           s.Time.Time(),
			Delay:          int(s.Delay),
			Platform:       s.Platform,
			PlatformNormal: bool(s.PlatformInfo.Normal),
			Canceled:       bool(s.Canceled),
			Left:           bool(s.Left),
			Arrived:        bool(s.Arrived),
			IsExtraStop:    bool(s.IsExtraStop),
			DepartureDelay: int(s.DepartureDelay),
			ArrivalDelay:   int(s.ArrivalDelay),
			Occupancy:      s.Occupancy.Name,
		})
	}
	return v
}

type wireCompositionResponse struct {
	Composition struct {
		Segments struct {
			Segment []wireCompositionSegment `json:"segment"`
		} `json:"segments"`
	} `json:"composition"`
}

type wireCompositionSegment struct {
	Origin      wireStation `json:"origin"`
	Destination wireStation `json:"destination"`
	Composition struct {
		Source string `json:"source"`
		Units  struct {
			Unit []wireCompositionUnit `json:"unit"`
		} `json:"units"`
	} `json:"composition"`
}

type wireCompositionUnit struct {
	MaterialType struct {
		ParentType  string `json:"parent_type"`
		SubType     string `json:"sub_type"`
		Orientation string `json:"orientation"`
	} `json:"materialType"`
	MaterialNumber   string   `json:"materialNumber"`
	TractionType     string   `json:"tractionType"`
	HasToilets       wireBool `json:"hasToilets"`
	HasPrmSection    wireBool `json:"hasPrmSection"`
	HasBikeSection   wireBool `json:"hasBikeSection"`
	HasAirco         wireBool `json:"hasAirco"`
	SeatsFirstClass  wireInt  `json:"seatsFirstClass"`
	SeatsSecondClass wireInt  `json:"seatsSecondClass"`
	LengthInMeter    wireInt  `json:"lengthInMeter"`
}

func (w wireCompositionResponse) toComposition() *Composition {
	segs := w.Composition.Segments.Segment
	comp := &Composition{Segments: make([]CompositionSegment, 0, len(segs))}
	for _, s := range segs {
		seg := CompositionSegment{
			Origin:      s.Origin.StandardName,
			Destination: s.Destination.StandardName,
			Source:      s.Composition.Source,
			Units:       make([]CompositionUnit, 0, len(s.Composition.Units.Unit)),
		}
		if seg.Origin == "" {
			seg.Origin = s.Origin.Name
		}
		if seg.Destination == "" {
			seg.Destination = s.Destination.Name
		}
		for _, u := range s.Composition.Units.Unit {
			seg.Units = append(seg.Units, CompositionUnit{
				ID:               u.MaterialNumber,
				MaterialType:     u.MaterialType.ParentType,
				SubType:          u.MaterialType.SubType,
				Orientation:      u.MaterialType.Orientation,
				TractionType:     u.TractionType,
				HasToilets:       bool(u.HasToilets),
				HasPrmSection:    bool(u.HasPrmSection),
				HasBikeSection:   bool(u.HasBikeSection),
				HasAirco:         bool(u.HasAirco),
				SeatsFirstClass:  int(u.SeatsFirstClass),
				SeatsSecondClass: int(u.SeatsSecondClass),
				LengthInMeter:    int(u.LengthInMeter),
			})
		}
		comp.Segments = append(comp.Segments, seg)
	}
	return comp
}

type wireDisturbancesResponse struct {
	Disturbance []wireDisturbance `json:"disturbance"`
}

type wireDisturbance struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Link        string   `json:"link"`
	Timestamp   wireTime `json:"timestamp"`
}

func (w wireDisturbancesResponse) toDisturbances() []Disturbance {
	out := make([]Disturbance, 0, len(w.Disturbance))
	for _, d := range w.Disturbance {
		out = append(out, Disturbance{
			ID:          d.ID,
			Title:       d.Title,
			Description: d.Description,
			Type:        d.Type,
			Link:        d.Link,
			Timestamp:   d.Timestamp.Time(),
		})
	}
	return out
}
