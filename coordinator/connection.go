package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tjorim/belgiantrain/irail"
)

// ConnectionData is the payload of one successful connection refresh. The
// liveboards feed the departure-board sensors spawned next to a connection;
// either may be stale when its individual fetch failed.
type ConnectionData struct {
	Connections   []irail.Connection
	LiveboardFrom *irail.Liveboard
	LiveboardTo   *irail.Liveboard
}

// ConnectionCoordinator polls the routing options between two stations plus
// the departure boards of both endpoints.
type ConnectionCoordinator struct {
	refreshState

	api        RailAPI
	log        *slog.Logger
	subentryID string
	from       irail.Station
	to         irail.Station

	dataMu sync.RWMutex
	data   *ConnectionData
}

// NewConnection builds a coordinator for one connection subentry.
func NewConnection(api RailAPI, log *slog.Logger, subentryID string, from, to irail.Station) *ConnectionCoordinator {
	return &ConnectionCoordinator{
		api:        api,
		log:        log.With("subentry", subentryID),
		subentryID: subentryID,
		from:       from,
		to:         to,
	}
}

func (c *ConnectionCoordinator) SubentryID() string { return c.subentryID }

// From returns the departure station.
func (c *ConnectionCoordinator) From() irail.Station { return c.from }

// To returns the arrival station.
func (c *ConnectionCoordinator) To() irail.Station { return c.to }

// Requests: one connections call plus two liveboards.
func (c *ConnectionCoordinator) Requests() int { return 3 }

// Data returns the last successful payload, nil before the first success.
// The payload is read-only.
func (c *ConnectionCoordinator) Data() *ConnectionData {
	c.dataMu.RLock()
	defer c.dataMu.RUnlock()
	return c.data
}

// Refresh fetches connections and both endpoint liveboards. A connections
// failure fails the refresh and keeps the previous payload; a liveboard
// failure only logs and carries the stale board forward.
func (c *ConnectionCoordinator) Refresh(ctx context.Context) error {
	conns, err := c.api.Connections(ctx, c.from.ID, c.to.ID)
	if err != nil {
		return c.fail(fmt.Errorf("error communicating with iRail API: %w", err))
	}
	if len(conns) == 0 {
		return c.fail(errors.New("failed to fetch connection data"))
	}

	data := &ConnectionData{Connections: conns}
	prev := c.Data()

	if lb, err := c.api.Liveboard(ctx, c.from.ID); err != nil {
		c.log.Warn("liveboard refresh failed, keeping stale board",
			"station", c.from.StandardName, "error", err)
		if prev != nil {
			data.LiveboardFrom = prev.LiveboardFrom
		}
	} else {
		data.LiveboardFrom = lb
	}

	if lb, err := c.api.Liveboard(ctx, c.to.ID); err != nil {
		c.log.Warn("liveboard refresh failed, keeping stale board",
			"station", c.to.StandardName, "error", err)
		if prev != nil {
			data.LiveboardTo = prev.LiveboardTo
		}
	} else {
		data.LiveboardTo = lb
	}

	c.dataMu.Lock()
	c.data = data
	c.dataMu.Unlock()
	c.succeed()
	return nil
}
