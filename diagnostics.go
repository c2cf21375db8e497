package belgiantrain

import (
	"net/http"

	"github.com/tjorim/belgiantrain/registry"
)

type diagnosticsResponse struct {
	Entry        entryDiagnostics                  `json:"entry"`
	Device       registry.Device                   `json:"device"`
	Subentries   []subentryDiagnostics             `json:"subentries"`
	Coordinators map[string]coordinatorDiagnostics `json:"coordinators"`
}

type entryDiagnostics struct {
	Title           string `json:"title"`
	SubentriesCount int    `json:"subentries_count"`
	EntitiesCount   int    `json:"entities_count"`
	StationsCount   int    `json:"stations_count"`
}

type subentryDiagnostics struct {
	SubentryID string              `json:"subentry_id"`
	Type       string              `json:"type"`
	Title      string              `json:"title"`
	SpawnedBy  string              `json:"spawned_by,omitempty"`
	Entities   []entityDiagnostics `json:"entities"`
}

type entityDiagnostics struct {
	UniqueID          string `json:"unique_id"`
	EntityID          string `json:"entity_id"`
	Enabled           bool   `json:"enabled"`
	DisabledByDefault bool   `json:"disabled_by_default"`
}

type coordinatorDiagnostics struct {
	LastUpdateSuccess bool    `json:"last_update_success"`
	LastSuccess       *string `json:"last_success"`
	LastError         *string `json:"last_error"`
	DataAvailable     bool    `json:"data_available"`
}

func (s *Service) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	device := registry.ServiceDevice()

	bySubentry := make(map[string][]entityDiagnostics)
	for _, e := range s.reg.Entries() {
		bySubentry[e.SubentryID] = append(bySubentry[e.SubentryID], entityDiagnostics{
			UniqueID:          e.UniqueID,
			EntityID:          e.EntityID,
			Enabled:           e.Enabled,
			DisabledByDefault: e.DisabledByDefault,
		})
	}

	subs := make([]subentryDiagnostics, 0, len(s.subentries))
	for _, sub := range s.subentries {
		entities := bySubentry[sub.ID]
		if entities == nil {
			entities = []entityDiagnostics{}
		}
		subs = append(subs, subentryDiagnostics{
			SubentryID: sub.ID,
			Type:       sub.Type,
			Title:      sub.Title,
			SpawnedBy:  sub.SpawnedBy,
			Entities:   entities,
		})
	}

	coords := make(map[string]coordinatorDiagnostics, len(s.coords))
	for _, c := range s.coords {
		coords[c.SubentryID()] = coordinatorDiagnostics{
			LastUpdateSuccess: c.Healthy(),
			LastSuccess:       iso8601OrNil(c.LastSuccess()),
			LastError:         errorOrNil(c.LastError()),
			DataAvailable:     s.dataAvailable(c.SubentryID()),
		}
	}

	writeJSON(w, http.StatusOK, diagnosticsResponse{
		Entry: entryDiagnostics{
			Title:           device.Name,
			SubentriesCount: len(s.subentries),
			EntitiesCount:   s.reg.Len(),
			StationsCount:   s.catalogue.Len(),
		},
		Device:       device,
		Subentries:   subs,
		Coordinators: coords,
	})
}

func (s *Service) dataAvailable(subentryID string) bool {
	if c, ok := s.connCoords[subentryID]; ok {
		return c.Data() != nil
	}
	if c, ok := s.liveCoords[subentryID]; ok {
		return c.Data() != nil
	}
	return false
}

func errorOrNil(err error) *string {
	if err == nil {
		return nil
	}
	s := err.Error()
	return &s
}
