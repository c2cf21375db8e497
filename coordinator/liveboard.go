package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tjorim/belgiantrain/irail"
)

// LiveboardCoordinator polls the departure board of a single station.
type LiveboardCoordinator struct {
	refreshState

	api        RailAPI
	log        *slog.Logger
	subentryID string
	station    irail.Station

	dataMu sync.RWMutex
	data   *irail.Liveboard
}

// NewLiveboard builds a coordinator for one liveboard subentry.
func NewLiveboard(api RailAPI, log *slog.Logger, subentryID string, station irail.Station) *LiveboardCoordinator {
	return &LiveboardCoordinator{
		api:        api,
		log:        log.With("subentry", subentryID),
		subentryID: subentryID,
		station:    station,
	}
}

func (c *LiveboardCoordinator) SubentryID() string { return c.subentryID }

// Station returns the monitored station.
func (c *LiveboardCoordinator) Station() irail.Station { return c.station }

func (c *LiveboardCoordinator) Requests() int { return 1 }

// Data returns the last successful board, nil before the first success.
func (c *LiveboardCoordinator) Data() *irail.Liveboard {
	c.dataMu.RLock()
	defer c.dataMu.RUnlock()
	return c.data
}

// Refresh fetches the station liveboard.
func (c *LiveboardCoordinator) Refresh(ctx context.Context) error {
	lb, err := c.api.Liveboard(ctx, c.station.ID)
	if err != nil {
		return c.fail(fmt.Errorf("error communicating with iRail API: %w", err))
	}
	if lb == nil {
		return c.fail(errors.New("failed to fetch liveboard data"))
	}

	c.dataMu.Lock()
	c.data = lb
	c.dataMu.Unlock()
	c.succeed()
	return nil
}
