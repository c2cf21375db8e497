// Package export renders polled liveboards as a GTFS-RT trip-update feed.
package export

import (
	"sort"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/tjorim/belgiantrain/irail"
)

const feedVersion = "2.0"

// Board pairs a fetched liveboard with its poll time.
type Board struct {
	Liveboard *irail.Liveboard
	FetchedAt time.Time
}

// Build assembles a FULL_DATASET feed with one trip update per liveboard
// departure. The header timestamp is the newest poll; entities are ordered
// by station, departure time, then vehicle, so repeated exports of the
// same data are byte-identical. Stations polled by more than one
// coordinator contribute their newest board only.
func Build(boards []Board) *gtfsrtpb.FeedMessage {
	var newest time.Time
	newestByStation := make(map[string]Board)
	for _, b := range boards {
		if b.Liveboard == nil {
			continue
		}
		if b.FetchedAt.After(newest) {
			newest = b.FetchedAt
		}
		id := b.Liveboard.StationInfo.ID
		if cur, ok := newestByStation[id]; !ok || b.FetchedAt.After(cur.FetchedAt) {
			newestByStation[id] = b
		}
	}

	type row struct {
		stationID string
		dep       irail.LiveboardDeparture
	}
	var rows []row
	for _, b := range newestByStation {
		for _, dep := range b.Liveboard.Departures {
			rows = append(rows, row{stationID: b.Liveboard.StationInfo.ID, dep: dep})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].stationID != rows[j].stationID {
			return rows[i].stationID < rows[j].stationID
		}
		if !rows[i].dep.Time.Equal(rows[j].dep.Time) {
			return rows[i].dep.Time.Before(rows[j].dep.Time)
		}
		return rows[i].dep.Vehicle < rows[j].dep.Vehicle
	})

	ts := newest
	if ts.IsZero() {
		ts = time.Now()
	}
	fm := &gtfsrtpb.FeedMessage{
		Header: &gtfsrtpb.FeedHeader{
			GtfsRealtimeVersion: proto.String(feedVersion),
			Incrementality:      gtfsrtpb.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(uint64(ts.Unix())),
		},
	}
	for _, r := range rows {
		fm.Entity = append(fm.Entity, tripUpdateEntity(r.stationID, r.dep))
	}
	return fm
}

func tripUpdateEntity(stationID string, dep irail.LiveboardDeparture) *gtfsrtpb.FeedEntity {
	stu := &gtfsrtpb.TripUpdate_StopTimeUpdate{
		StopId: proto.String(stationID),
		Departure: &gtfsrtpb.TripUpdate_StopTimeEvent{
			Time:  proto.Int64(dep.Time.Unix()),
			Delay: proto.Int32(int32(dep.Delay)),
		},
	}
	if dep.Canceled {
		stu.ScheduleRelationship = gtfsrtpb.TripUpdate_StopTimeUpdate_SKIPPED.Enum()
	}

	vehicle := &gtfsrtpb.VehicleDescriptor{Id: proto.String(dep.Vehicle)}
	if dep.VehicleInfo.ShortName != "" {
		vehicle.Label = proto.String(dep.VehicleInfo.ShortName)
	}

	return &gtfsrtpb.FeedEntity{
		Id: proto.String(stationID + ":" + dep.Vehicle),
		TripUpdate: &gtfsrtpb.TripUpdate{
			Trip: &gtfsrtpb.TripDescriptor{
				TripId: proto.String(dep.Vehicle),
			},
			Vehicle:        vehicle,
			StopTimeUpdate: []*gtfsrtpb.TripUpdate_StopTimeUpdate{stu},
		},
	}
}

// Marshal serializes the feed as protobuf wire bytes.
func Marshal(fm *gtfsrtpb.FeedMessage) ([]byte, error) {
	return proto.Marshal(fm)
}

// MarshalJSON renders the feed with protojson for debugging consumers.
func MarshalJSON(fm *gtfsrtpb.FeedMessage) ([]byte, error) {
	return protojson.Marshal(fm)
}
