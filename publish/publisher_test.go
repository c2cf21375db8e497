package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tjorim/belgiantrain/registry"
	"github.com/tjorim/belgiantrain/sensor"
)

var testNow = time.Date(2024, 8, 5, 9, 50, 0, 0, time.UTC)

type stubSensor struct {
	uniqueID string
	entityID string
	state    string
	attrs    map[string]any
	horizon  time.Time
}

func (s *stubSensor) UniqueID() string       { return s.uniqueID }
func (s *stubSensor) Name() string           { return s.uniqueID }
func (s *stubSensor) EntityID() string       { return s.entityID }
func (s *stubSensor) BindEntityID(id string) { s.entityID = id }
func (s *stubSensor) Recompute()             {}
func (s *stubSensor) Horizon() time.Time     { return s.horizon }

func (s *stubSensor) Snapshot() sensor.State {
	return sensor.State{EntityID: s.entityID, State: s.state, Attributes: s.attrs}
}

// fakeRedis implements Commands in memory.
type fakeRedis struct {
	hashes  map[string]map[string]string
	ttls    map[string]time.Duration
	events  map[string][]string
	deleted []string
	failAll error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		hashes: make(map[string]map[string]string),
		ttls:   make(map[string]time.Duration),
		events: make(map[string][]string),
	}
}

func (f *fakeRedis) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.failAll != nil {
		cmd.SetErr(f.failAll)
		return cmd
	}
	fields, ok := values[0].(map[string]string)
	if !ok {
		cmd.SetErr(fmt.Errorf("unexpected HSet argument type %T", values[0]))
		return cmd
	}
	h := f.hashes[key]
	if h == nil {
		h = make(map[string]string)
		f.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	cmd.SetVal(int64(len(fields)))
	return cmd
}

func (f *fakeRedis) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	cmd := redis.NewMapStringStringCmd(ctx)
	if f.failAll != nil {
		cmd.SetErr(f.failAll)
		return cmd
	}
	out := make(map[string]string, len(f.hashes[key]))
	for k, v := range f.hashes[key] {
		out[k] = v
	}
	cmd.SetVal(out)
	return cmd
}

func (f *fakeRedis) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	if f.failAll != nil {
		cmd.SetErr(f.failAll)
		return cmd
	}
	f.ttls[key] = ttl
	cmd.SetVal(true)
	return cmd
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.failAll != nil {
		cmd.SetErr(f.failAll)
		return cmd
	}
	payload, ok := message.([]byte)
	if !ok {
		cmd.SetErr(fmt.Errorf("unexpected Publish payload type %T", message))
		return cmd
	}
	f.events[channel] = append(f.events[channel], string(payload))
	cmd.SetVal(1)
	return cmd
}

func (f *fakeRedis) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	cmd := redis.NewScanCmd(ctx, nil)
	if f.failAll != nil {
		cmd.SetErr(f.failAll)
		return cmd
	}
	prefix := strings.TrimSuffix(match, "*")
	var keys []string
	for key := range f.hashes {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	cmd.SetVal(keys, 0)
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.failAll != nil {
		cmd.SetErr(f.failAll)
		return cmd
	}
	for _, key := range keys {
		delete(f.hashes, key)
		f.deleted = append(f.deleted, key)
	}
	cmd.SetVal(int64(len(keys)))
	return cmd
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPublisher(f *fakeRedis) *Publisher {
	p := New(f, discardLogger(), "belgiantrain", time.Minute)
	p.now = func() time.Time { return testNow }
	return p
}

func testEntry(state string, horizon time.Time) *registry.Entry {
	s := &stubSensor{
		uniqueID: "nmbs_live_brussel_noord",
		entityID: "sensor.trains_in_brussel_noord",
		state:    state,
		attrs: map[string]any{
			"friendly_name": "Trains in Brussel-Noord",
			"icon":          "mdi:train",
		},
		horizon: horizon,
	}
	return &registry.Entry{
		UniqueID:     s.uniqueID,
		EntityID:     s.entityID,
		SubentryID:   "liveboard_brussel_noord",
		SubentryType: registry.SubentryLiveboard,
		Enabled:      true,
		Sensor:       s,
	}
}

func TestSyncMirrorsSnapshot(t *testing.T) {
	f := newFakeRedis()
	p := newTestPublisher(f)
	e := testEntry("12", testNow.Add(time.Hour))

	if err := p.Sync(context.Background(), e); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	key := "belgiantrain:sensor:nmbs_live_brussel_noord"
	h, ok := f.hashes[key]
	if !ok {
		t.Fatalf("mirror hash %s not written; have %v", key, f.hashes)
	}
	if h["state"] != "12" {
		t.Errorf("state field = %q, want 12", h["state"])
	}
	if h["icon"] != "mdi:train" {
		t.Errorf("icon field = %q", h["icon"])
	}
	if h["updated"] != fmt.Sprint(testNow.Unix()) {
		t.Errorf("updated field = %q, want %d", h["updated"], testNow.Unix())
	}
	var attrs map[string]any
	if err := json.Unmarshal([]byte(h["attributes"]), &attrs); err != nil {
		t.Fatalf("attributes field is not JSON: %v", err)
	}
	if attrs["friendly_name"] != "Trains in Brussel-Noord" {
		t.Errorf("attributes = %v", attrs)
	}

	if want := time.Hour + horizonGrace; f.ttls[key] != want {
		t.Errorf("ttl = %v, want %v", f.ttls[key], want)
	}

	events := f.events["belgiantrain:events:liveboard"]
	if len(events) != 1 {
		t.Fatalf("published %d events, want 1", len(events))
	}
	var evt map[string]any
	if err := json.Unmarshal([]byte(events[0]), &evt); err != nil {
		t.Fatalf("event payload is not JSON: %v", err)
	}
	if evt["unique_id"] != "nmbs_live_brussel_noord" || evt["state"] != "12" {
		t.Errorf("event payload = %v", evt)
	}
	if evt["entity_id"] != "sensor.trains_in_brussel_noord" {
		t.Errorf("event entity_id = %v", evt["entity_id"])
	}
	t.Logf("✓ mirrored with ttl %v and announced change", f.ttls[key])
}

func TestSyncPublishesOnlyOnChange(t *testing.T) {
	f := newFakeRedis()
	p := newTestPublisher(f)
	e := testEntry("12", testNow.Add(time.Hour))

	for i := 0; i < 3; i++ {
		if err := p.Sync(context.Background(), e); err != nil {
			t.Fatalf("Sync #%d: %v", i+1, err)
		}
	}
	if n := len(f.events["belgiantrain:events:liveboard"]); n != 1 {
		t.Fatalf("unchanged syncs published %d events, want 1", n)
	}

	e.Sensor.(*stubSensor).state = "9"
	if err := p.Sync(context.Background(), e); err != nil {
		t.Fatalf("Sync after change: %v", err)
	}
	events := f.events["belgiantrain:events:liveboard"]
	if len(events) != 2 {
		t.Fatalf("change published %d events, want 2", len(events))
	}
	if !strings.Contains(events[1], `"state":"9"`) {
		t.Errorf("second event = %s", events[1])
	}
	t.Logf("✓ %d syncs produced %d events", 4, len(events))
}

func TestSyncAfterRestartComparesMirror(t *testing.T) {
	f := newFakeRedis()
	e := testEntry("12", testNow.Add(time.Hour))

	// first process run mirrors the state
	if err := newTestPublisher(f).Sync(context.Background(), e); err != nil {
		t.Fatalf("initial Sync: %v", err)
	}
	if n := len(f.events["belgiantrain:events:liveboard"]); n != 1 {
		t.Fatalf("initial sync published %d events, want 1", n)
	}

	// a fresh publisher sees the unchanged mirror and stays quiet
	restarted := newTestPublisher(f)
	if err := restarted.Sync(context.Background(), e); err != nil {
		t.Fatalf("Sync after restart: %v", err)
	}
	if n := len(f.events["belgiantrain:events:liveboard"]); n != 1 {
		t.Errorf("restart re-announced an unchanged state: %d events", n)
	}

	e.Sensor.(*stubSensor).state = "3"
	if err := restarted.Sync(context.Background(), e); err != nil {
		t.Fatalf("Sync after change: %v", err)
	}
	if n := len(f.events["belgiantrain:events:liveboard"]); n != 2 {
		t.Errorf("changed state after restart published %d events, want 2", n)
	}
}

func TestTTLFallsBackToPollInterval(t *testing.T) {
	f := newFakeRedis()
	p := newTestPublisher(f)

	cases := []struct {
		name    string
		horizon time.Time
	}{
		{"no data", time.Time{}},
		{"horizon in the past", testNow.Add(-10 * time.Minute)},
	}
	for _, tc := range cases {
		e := testEntry("unknown", tc.horizon)
		if err := p.Sync(context.Background(), e); err != nil {
			t.Fatalf("%s: Sync: %v", tc.name, err)
		}
		key := "belgiantrain:sensor:nmbs_live_brussel_noord"
		if want := 2 * time.Minute; f.ttls[key] != want {
			t.Errorf("%s: ttl = %v, want %v", tc.name, f.ttls[key], want)
		}
	}
}

func TestPurgeStale(t *testing.T) {
	f := newFakeRedis()
	f.hashes["belgiantrain:sensor:nmbs_live_brussel_noord"] = map[string]string{"state": "5"}
	f.hashes["belgiantrain:sensor:nmbs_connection_gone_gone"] = map[string]string{"state": "8"}
	f.hashes["unrelated:sensor:other"] = map[string]string{"state": "1"}
	p := newTestPublisher(f)

	registered := func(uid string) bool { return uid == "nmbs_live_brussel_noord" }
	removed, err := p.PurgeStale(context.Background(), registered)
	if err != nil {
		t.Fatalf("PurgeStale: %v", err)
	}
	if removed != 1 {
		t.Fatalf("PurgeStale removed %d keys, want 1", removed)
	}
	if len(f.deleted) != 1 || f.deleted[0] != "belgiantrain:sensor:nmbs_connection_gone_gone" {
		t.Errorf("deleted = %v", f.deleted)
	}
	if _, ok := f.hashes["belgiantrain:sensor:nmbs_live_brussel_noord"]; !ok {
		t.Error("registered key was purged")
	}
	if _, ok := f.hashes["unrelated:sensor:other"]; !ok {
		t.Error("key outside the prefix was purged")
	}
	t.Logf("✓ purged %v", f.deleted)
}

func TestSyncAllDegradesWhenRedisDown(t *testing.T) {
	f := newFakeRedis()
	f.failAll = fmt.Errorf("connection refused")
	p := newTestPublisher(f)

	second := testEntry("9", testNow.Add(time.Hour))
	second.UniqueID = "nmbs_live_gent_sint_pieters"
	second.Sensor.(*stubSensor).uniqueID = second.UniqueID
	entries := []*registry.Entry{
		testEntry("12", testNow.Add(time.Hour)),
		second,
	}
	err := p.SyncAll(context.Background(), entries)
	if err == nil {
		t.Fatal("expected SyncAll to report failures")
	}
	if got := err.Error(); !strings.Contains(got, "2 of 2") {
		t.Errorf("error = %q, want failure count 2 of 2", got)
	}
	t.Logf("✓ degraded with: %v", err)
}
