package irail

import "time"

// Station identifies one SNCB/NMBS station.
type Station struct {
	ID           string  // "BE.NMBS.008812005"
	URI          string  // "http://irail.be/stations/NMBS/008812005"
	Name         string  // localized name
	StandardName string  // canonical name
	Latitude     float64
	Longitude    float64
}

// VehicleInfo names the train serving a departure or leg.
type VehicleInfo struct {
	Name      string // "BE.NMBS.IC1832"
	ShortName string // "IC1832"
	Number    string // "1832"
	Type      string // "IC"
}

// Liveboard is the departure board of a single station.
type Liveboard struct {
	Station     string
	StationInfo Station
	Timestamp   time.Time
	Departures  []LiveboardDeparture
}

// LiveboardDeparture is one row of a departure board.
type LiveboardDeparture struct {
	ID             string
	Station        string // destination of the departing train
	StationInfo    Station
	Time           time.Time
	Delay          int // seconds
	Canceled       bool
	Left           bool
	IsExtra        bool
	Vehicle        string
	VehicleInfo    VehicleInfo
	Platform       string
	PlatformNormal bool
	Occupancy      string
}

// Connection is one routing option between two stations.
type Connection struct {
	ID        string
	Departure ConnectionStop
	Arrival   ConnectionStop
	Duration  int // seconds
	Vias      []Via
}

// ConnectionStop is the departure or arrival leg of a connection.
type ConnectionStop struct {
	Station             string
	StationInfo         Station
	Time                time.Time
	Delay               int // seconds
	Platform            string
	PlatformNormal      bool
	Left                bool
	Canceled            bool
	Vehicle             string
	VehicleInfo         VehicleInfo
	Direction           string
	DepartureConnection string // URI of the departure resource
	Occupancy           string
	Walking             bool
}

// Via is an intermediate transfer within a connection.
type Via struct {
	ID          string
	Station     string
	StationInfo Station
	TimeBetween int // seconds spent waiting at the transfer
	Arrival     ConnectionStop
	Departure   ConnectionStop
	Vehicle     string
}

// Vehicle is one train with its full stop list.
type Vehicle struct {
	ID        string
	Name      string
	ShortName string
	Number    string
	Type      string
	Latitude  float64
	Longitude float64
	Stops     []VehicleStop
}

// VehicleStop is one scheduled stop of a train.
type VehicleStop struct {
	ID             string
	Station        string
	StationInfo    Station
	Time           time.Time
	Delay          int // seconds
	Platform       string
	PlatformNormal bool
	Canceled       bool
	Left           bool
	Arrived        bool
	IsExtraStop    bool
	DepartureDelay int // seconds
	ArrivalDelay   int // seconds
	Occupancy      string
}

// Composition is the carriage make-up of one train, per journey segment.
type Composition struct {
	Segments []CompositionSegment
}

// CompositionSegment is the make-up between two stations; trains split
// and merge mid-journey so the unit list can differ per segment.
type CompositionSegment struct {
	Origin      string
	Destination string
	Source      string // "Atlas", "Planned", ...
	Units       []CompositionUnit
}

// CompositionUnit is one carriage or motor unit.
type CompositionUnit struct {
	ID               string
	MaterialType     string // parent type, e.g. "AM96"
	SubType          string
	Orientation      string
	TractionType     string
	HasToilets       bool
	HasPrmSection    bool
	HasBikeSection   bool
	HasAirco         bool
	SeatsFirstClass  int
	SeatsSecondClass int
	LengthInMeter    int
}

// Disturbance is one disruption notice on the network.
type Disturbance struct {
	ID          string
	Title       string
	Description string
	Type        string // "disturbance" or "planned"
	Link        string
	Timestamp   time.Time
}
