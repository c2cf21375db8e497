package belgiantrain

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tjorim/belgiantrain/config"
	"github.com/tjorim/belgiantrain/coordinator"
	"github.com/tjorim/belgiantrain/export"
	"github.com/tjorim/belgiantrain/irail"
	"github.com/tjorim/belgiantrain/publish"
	"github.com/tjorim/belgiantrain/registry"
	"github.com/tjorim/belgiantrain/sensor"
	"github.com/tjorim/belgiantrain/stations"
)

const syncTimeout = 5 * time.Second

// RailAPI is the slice of the iRail client the service consumes. The
// coordinator methods feed the poll loop, the rest back the on-demand
// action routes.
type RailAPI interface {
	coordinator.RailAPI
	Vehicle(ctx context.Context, id string) (*irail.Vehicle, error)
	Composition(ctx context.Context, id string) (*irail.Composition, error)
	Disturbances(ctx context.Context) ([]irail.Disturbance, error)
}

// Subentry is one resolved configuration unit: a connection between two
// stations or a single-station liveboard. SpawnedBy names the connection
// subentry whose departure/arrival flag requested this liveboard; empty for
// explicitly configured ones.
type Subentry struct {
	ID        string
	Type      string
	Title     string
	SpawnedBy string
}

// Service owns the resolved subentries, their coordinators and sensors, the
// poll loop and the optional Redis publisher.
type Service struct {
	cfg       *config.AppConfig
	log       *slog.Logger
	api       RailAPI
	catalogue *stations.Catalogue
	reg       *registry.Registry
	loop      *coordinator.Loop
	pub       *publish.Publisher

	subentries []Subentry
	coords     []coordinator.Coordinator
	connCoords map[string]*coordinator.ConnectionCoordinator
	liveCoords map[string]*coordinator.LiveboardCoordinator

	// byCoord maps a coordinator's subentry ID to the enabled entries it
	// feeds; disabled entries never recompute.
	byCoord map[string][]*registry.Entry

	httpServer *http.Server
}

// New resolves the configuration against the station catalogue and builds
// the registry, the coordinators and the poll loop. An unknown or duplicate
// station aborts with an error naming the offending subentry.
func New(cfg *config.AppConfig, log *slog.Logger, api RailAPI, catalogue *stations.Catalogue) (*Service, error) {
	s := &Service{
		cfg:        cfg,
		log:        log,
		api:        api,
		catalogue:  catalogue,
		reg:        registry.New(),
		connCoords: make(map[string]*coordinator.ConnectionCoordinator),
		liveCoords: make(map[string]*coordinator.LiveboardCoordinator),
		byCoord:    make(map[string][]*registry.Entry),
	}

	// Explicit liveboards claim their stations first so a connection flag
	// never spawns a board that is already configured, regardless of the
	// order the file lists them in.
	type boardRequest struct {
		station   irail.Station
		spawnedBy string
	}
	var boards []boardRequest
	boarded := make(map[string]bool)

	for i, lc := range cfg.Liveboards {
		st, ok := catalogue.Find(lc.Station)
		if !ok {
			return nil, fmt.Errorf("liveboard %d: unknown station %q", i, lc.Station)
		}
		if boarded[st.ID] {
			return nil, fmt.Errorf("liveboard %d: station %s already configured", i, st.StandardName)
		}
		boarded[st.ID] = true
		boards = append(boards, boardRequest{station: st})
	}

	for i, cc := range cfg.Connections {
		from, ok := catalogue.Find(cc.StationFrom)
		if !ok {
			return nil, fmt.Errorf("connection %d: unknown station %q", i, cc.StationFrom)
		}
		to, ok := catalogue.Find(cc.StationTo)
		if !ok {
			return nil, fmt.Errorf("connection %d: unknown station %q", i, cc.StationTo)
		}
		if from.ID == to.ID {
			return nil, fmt.Errorf("connection %d: station_from and station_to resolve to the same station (%s)", i, from.StandardName)
		}
		subID, err := s.addConnection(cc, from, to)
		if err != nil {
			return nil, fmt.Errorf("connection %d: %w", i, err)
		}
		if cc.DepartureLiveboard && !boarded[from.ID] {
			boarded[from.ID] = true
			boards = append(boards, boardRequest{station: from, spawnedBy: subID})
		}
		if cc.ArrivalLiveboard && !boarded[to.ID] {
			boarded[to.ID] = true
			boards = append(boards, boardRequest{station: to, spawnedBy: subID})
		}
	}

	for _, b := range boards {
		if err := s.addLiveboard(b.station, b.spawnedBy); err != nil {
			return nil, err
		}
	}

	s.loop = coordinator.NewLoop(log,
		time.Duration(cfg.Poll.IntervalS)*time.Second,
		cfg.Poll.RequestBudget,
		time.Duration(cfg.Poll.BudgetWindowS)*time.Second,
		s.coords, s.onRefresh)
	return s, nil
}

// addConnection registers the connection sensor plus the two endpoint board
// sensors that ride the same coordinator, disabled until wanted.
func (s *Service) addConnection(cc config.ConnectionConfig, from, to irail.Station) (string, error) {
	subID := config.ConnectionSubentryID(from.ID, to.ID, cc.ExcludeVias)
	if _, dup := s.connCoords[subID]; dup {
		return "", fmt.Errorf("connection %s to %s already configured", from.StandardName, to.StandardName)
	}
	title := config.ConnectionTitle(from.StandardName, to.StandardName)
	coord := coordinator.NewConnection(s.api, s.log, subID, from, to)
	s.connCoords[subID] = coord
	s.coords = append(s.coords, coord)
	s.subentries = append(s.subentries, Subentry{ID: subID, Type: registry.SubentryConnection, Title: title})

	entry, err := s.reg.Register(
		sensor.NewConnection(coord, s.log, cc.Name, cc.ShowOnMap, cc.ExcludeVias),
		subID, registry.SubentryConnection, title, false)
	if err != nil {
		return "", err
	}
	s.byCoord[subID] = append(s.byCoord[subID], entry)

	fromBoard := sensor.NewLiveboard(sensor.LiveboardSource{
		UniqueID: sensor.LiveboardUniqueID(from.ID, from.ID, to.ID, cc.ExcludeVias),
		Station:  from,
		Board:    connectionBoard(coord, false),
		Healthy:  coord.Healthy,
	}, s.log)
	if _, err := s.reg.Register(fromBoard, subID, registry.SubentryLiveboard, title, true); err != nil {
		return "", err
	}
	toBoard := sensor.NewLiveboard(sensor.LiveboardSource{
		UniqueID: sensor.LiveboardUniqueID(to.ID, from.ID, to.ID, cc.ExcludeVias),
		Station:  to,
		Board:    connectionBoard(coord, true),
		Healthy:  coord.Healthy,
	}, s.log)
	if _, err := s.reg.Register(toBoard, subID, registry.SubentryLiveboard, title, true); err != nil {
		return "", err
	}
	return subID, nil
}

// connectionBoard adapts one endpoint board of a connection coordinator to
// the liveboard sensor's source signature.
func connectionBoard(coord *coordinator.ConnectionCoordinator, arrival bool) func() *irail.Liveboard {
	return func() *irail.Liveboard {
		d := coord.Data()
		if d == nil {
			return nil
		}
		if arrival {
			return d.LiveboardTo
		}
		return d.LiveboardFrom
	}
}

func (s *Service) addLiveboard(st irail.Station, spawnedBy string) error {
	subID := config.LiveboardSubentryID(st.ID)
	if _, dup := s.liveCoords[subID]; dup {
		return fmt.Errorf("liveboard %s already configured", st.StandardName)
	}
	title := config.LiveboardTitle(st.StandardName)
	coord := coordinator.NewLiveboard(s.api, s.log, subID, st)
	s.liveCoords[subID] = coord
	s.coords = append(s.coords, coord)
	s.subentries = append(s.subentries, Subentry{ID: subID, Type: registry.SubentryLiveboard, Title: title, SpawnedBy: spawnedBy})

	entry, err := s.reg.Register(
		sensor.NewLiveboard(sensor.LiveboardSource{
			UniqueID: sensor.StandaloneLiveboardUniqueID(st.ID),
			Station:  st,
			Board:    coord.Data,
			Healthy:  coord.Healthy,
		}, s.log),
		subID, registry.SubentryLiveboard, title, false)
	if err != nil {
		return err
	}
	s.byCoord[subID] = append(s.byCoord[subID], entry)
	return nil
}

// onRefresh recomputes the sensors fed by one coordinator and mirrors them.
// It runs after every refresh attempt, failures included, so sensors flip to
// unavailable as soon as their coordinator degrades.
func (s *Service) onRefresh(c coordinator.Coordinator) {
	entries := s.byCoord[c.SubentryID()]
	for _, e := range entries {
		e.Sensor.Recompute()
	}
	if s.pub == nil || len(entries) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()
	if err := s.pub.SyncAll(ctx, entries); err != nil {
		s.log.Warn("state mirror degraded", "subentry_id", c.SubentryID(), "error", err)
	}
}

// EnablePublisher attaches the Redis state mirror. Call before Run.
func (s *Service) EnablePublisher(p *publish.Publisher) { s.pub = p }

// PurgeMirror drops registry entries whose subentry no longer exists and
// removes mirror keys that belong to no registered entity. Run it once at
// startup, after EnablePublisher.
func (s *Service) PurgeMirror(ctx context.Context) error {
	if s.pub == nil {
		return nil
	}
	active := make(map[string]bool, len(s.subentries))
	for _, sub := range s.subentries {
		active[sub.ID] = true
	}
	for _, ghost := range s.reg.Stale(active) {
		for _, removed := range s.reg.RemoveSubentry(ghost.SubentryID) {
			s.log.Info("removed stale entity", "unique_id", removed.UniqueID, "subentry_id", removed.SubentryID)
		}
	}
	_, err := s.pub.PurgeStale(ctx, s.reg.Has)
	return err
}

// Run starts the poll loop and blocks until ctx is canceled.
func (s *Service) Run(ctx context.Context) { s.loop.Run(ctx) }

// RefreshAll runs one refresh pass over every coordinator.
func (s *Service) RefreshAll(ctx context.Context) { s.loop.RefreshAll(ctx) }

// PollInterval is the configured refresh cadence.
func (s *Service) PollInterval() time.Duration { return s.loop.Interval() }

// Registry exposes the entity registry.
func (s *Service) Registry() *registry.Registry { return s.reg }

// Subentries lists the resolved configuration units in build order.
func (s *Service) Subentries() []Subentry {
	return append([]Subentry(nil), s.subentries...)
}

// States renders the enabled entities in registration order.
func (s *Service) States() []sensor.State {
	entries := s.reg.Enabled()
	out := make([]sensor.State, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Sensor.Snapshot())
	}
	return out
}

// State renders one entity. Disabled entities are not loaded and report the
// same as a missing one.
func (s *Service) State(entityID string) (sensor.State, bool) {
	e, ok := s.reg.ByEntityID(entityID)
	if !ok || !e.Enabled {
		return sensor.State{}, false
	}
	return e.Sensor.Snapshot(), true
}

// Boards collects every polled departure board for the export feed: the
// standalone liveboards plus the endpoint boards each connection coordinator
// fetches alongside its routing options.
func (s *Service) Boards() []export.Board {
	var out []export.Board
	for _, sub := range s.subentries {
		switch sub.Type {
		case registry.SubentryConnection:
			c := s.connCoords[sub.ID]
			d := c.Data()
			if d == nil {
				continue
			}
			fetched := c.LastSuccess()
			if d.LiveboardFrom != nil {
				out = append(out, export.Board{Liveboard: d.LiveboardFrom, FetchedAt: fetched})
			}
			if d.LiveboardTo != nil {
				out = append(out, export.Board{Liveboard: d.LiveboardTo, FetchedAt: fetched})
			}
		case registry.SubentryLiveboard:
			c := s.liveCoords[sub.ID]
			if b := c.Data(); b != nil {
				out = append(out, export.Board{Liveboard: b, FetchedAt: c.LastSuccess()})
			}
		}
	}
	return out
}

// AnyHealthy reports whether at least one coordinator has a successful
// refresh behind it. Vacuously true with no coordinators.
func (s *Service) AnyHealthy() bool {
	if len(s.coords) == 0 {
		return true
	}
	for _, c := range s.coords {
		if c.Healthy() {
			return true
		}
	}
	return false
}

// health is ok only when every coordinator's last refresh succeeded.
// lastPoll is the newest success across all of them.
func (s *Service) health() (status string, lastPoll time.Time) {
	status = "ok"
	for _, c := range s.coords {
		if !c.Healthy() {
			status = "degraded"
		}
		if ts := c.LastSuccess(); ts.After(lastPoll) {
			lastPoll = ts
		}
	}
	return status, lastPoll
}
