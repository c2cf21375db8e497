package publish

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tjorim/belgiantrain/registry"
)

// horizonGrace keeps a mirror entry alive past its last departure or
// arrival so late readers still see the final state.
const horizonGrace = 30 * time.Minute

const scanPageSize = 100

// Commands is the slice of the Redis API the publisher uses. *redis.Client
// satisfies it.
type Commands interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Connect dials Redis and verifies the connection with a ping.
func Connect(ctx context.Context, log *slog.Logger, opts *redis.Options) (*redis.Client, error) {
	rdb := redis.NewClient(opts)
	log.Info("connecting to redis", "addr", opts.Addr)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Error("failed to connect to redis", "error", err)
		return nil, err
	}
	log.Info("connected to redis")
	return rdb, nil
}

// event is the change message sent on {prefix}:events:{subentry_type}.
type event struct {
	UniqueID   string         `json:"unique_id"`
	EntityID   string         `json:"entity_id"`
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

// Publisher mirrors sensor snapshots into Redis hashes and publishes
// change events. Safe for concurrent use.
type Publisher struct {
	rdb      Commands
	log      *slog.Logger
	prefix   string
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[string]string
}

// New returns a publisher writing under the given key prefix. interval is
// the poll cadence; it bounds the mirror TTL when a sensor holds no data.
func New(rdb Commands, log *slog.Logger, prefix string, interval time.Duration) *Publisher {
	return &Publisher{
		rdb:      rdb,
		log:      log.With("component", "publish"),
		prefix:   prefix,
		interval: interval,
		now:      time.Now,
		last:     make(map[string]string),
	}
}

func (p *Publisher) sensorKey(uniqueID string) string {
	return fmt.Sprintf("%s:sensor:%s", p.prefix, uniqueID)
}

func (p *Publisher) eventChannel(subentryType string) string {
	return fmt.Sprintf("%s:events:%s", p.prefix, subentryType)
}

// Sync announces one entry's snapshot on the subentry-type channel when
// the rendered state changed since the last publish, then mirrors it.
// Publish happens before the mirror write so a mid-sync failure is retried
// as a duplicate announcement, never a dropped one.
func (p *Publisher) Sync(ctx context.Context, e *registry.Entry) error {
	snap := e.Sensor.Snapshot()
	attrs, err := json.Marshal(snap.Attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal attributes for %s: %w", e.UniqueID, err)
	}
	sum := checksum(snap.State, attrs)

	changed, err := p.changed(ctx, e.UniqueID, sum, snap.State, attrs)
	if err != nil {
		return err
	}
	if changed {
		payload, err := json.Marshal(event{
			UniqueID:   e.UniqueID,
			EntityID:   e.EntityID,
			State:      snap.State,
			Attributes: snap.Attributes,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal change event for %s: %w", e.UniqueID, err)
		}
		if err := p.rdb.Publish(ctx, p.eventChannel(e.SubentryType), payload).Err(); err != nil {
			return fmt.Errorf("failed to publish change for %s: %w", e.UniqueID, err)
		}
		p.log.Debug("published change", "entity", e.EntityID, "state", snap.State)
	}

	icon, _ := snap.Attributes["icon"].(string)
	key := p.sensorKey(e.UniqueID)
	fields := map[string]string{
		"state":      snap.State,
		"icon":       icon,
		"attributes": string(attrs),
		"updated":    strconv.FormatInt(p.now().Unix(), 10),
	}
	if _, err := p.rdb.HSet(ctx, key, fields).Result(); err != nil {
		return fmt.Errorf("failed to mirror %s: %w", e.UniqueID, err)
	}
	if err := p.rdb.Expire(ctx, key, p.ttl(e.Sensor.Horizon())).Err(); err != nil {
		return fmt.Errorf("failed to set expiration for %s: %w", e.UniqueID, err)
	}

	p.mu.Lock()
	p.last[e.UniqueID] = sum
	p.mu.Unlock()
	return nil
}

// SyncAll mirrors every entry, logging per-entry failures. Redis being
// down degrades publishing only, so the single returned error summarizes
// rather than aborts.
func (p *Publisher) SyncAll(ctx context.Context, entries []*registry.Entry) error {
	var failed int
	for _, e := range entries {
		if err := p.Sync(ctx, e); err != nil {
			failed++
			p.log.Warn("failed to sync sensor state", "entity", e.EntityID, "error", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to sync %d of %d sensors", failed, len(entries))
	}
	return nil
}

// changed reports whether state+attributes differ from the last published
// snapshot. Before the first successful sync of a sensor it compares
// against the mirrored hash itself, so a restart does not re-announce an
// unchanged state.
func (p *Publisher) changed(ctx context.Context, uniqueID, sum, state string, attrs []byte) (bool, error) {
	p.mu.Lock()
	prev, seen := p.last[uniqueID]
	p.mu.Unlock()
	if seen {
		return prev != sum, nil
	}

	fields, err := p.rdb.HGetAll(ctx, p.sensorKey(uniqueID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to fetch mirror for %s: %w", uniqueID, err)
	}
	if len(fields) == 0 {
		return true, nil
	}
	return fields["state"] != state || fields["attributes"] != string(attrs), nil
}

// ttl derives the mirror expiration: horizon plus grace while the data
// still points into the future, twice the poll interval otherwise.
func (p *Publisher) ttl(horizon time.Time) time.Duration {
	if !horizon.IsZero() {
		if remaining := horizon.Sub(p.now()); remaining > 0 {
			return remaining + horizonGrace
		}
	}
	return 2 * p.interval
}

// PurgeStale deletes mirror keys whose unique ID is no longer registered,
// cleaning up after removed subentries. Returns the number removed.
func (p *Publisher) PurgeStale(ctx context.Context, registered func(uniqueID string) bool) (int, error) {
	match := p.sensorKey("*")
	keyPrefix := p.sensorKey("")

	var removed int
	var cursor uint64
	for {
		keys, next, err := p.rdb.Scan(ctx, cursor, match, scanPageSize).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to scan mirror keys: %w", err)
		}
		var stale []string
		for _, key := range keys {
			if !registered(strings.TrimPrefix(key, keyPrefix)) {
				stale = append(stale, key)
			}
		}
		if len(stale) > 0 {
			if err := p.rdb.Del(ctx, stale...).Err(); err != nil {
				return removed, fmt.Errorf("failed to delete stale mirror keys: %w", err)
			}
			removed += len(stale)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if removed > 0 {
		p.log.Info("purged stale mirror keys", "count", removed)
	}
	return removed, nil
}

func checksum(state string, attrs []byte) string {
	h := sha256.New()
	h.Write([]byte(state))
	h.Write(attrs)
	return hex.EncodeToString(h.Sum(nil))
}
