package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPaths are tried in order when no explicit path is given.
var DefaultPaths = []string{"config.yml", "./config/config.yml"}

// Load reads, migrates, validates and defaults a configuration file. An
// empty path walks DefaultPaths.
func Load(path string) (*AppConfig, error) {
	paths := []string{path}
	if path == "" {
		paths = DefaultPaths
	}
	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse is Load minus the file read.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.migrate()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	return &cfg, nil
}

// migrate lifts a version-1 flat connection into connections[0]. Derived
// subentry IDs stay identical to what the version-2 form produces.
func (c *AppConfig) migrate() {
	if c.Version >= 2 {
		return
	}
	c.Version = 2
	if c.StationFrom == "" && c.StationTo == "" {
		return
	}
	c.Connections = append([]ConnectionConfig{{
		StationFrom: c.StationFrom,
		StationTo:   c.StationTo,
		ExcludeVias: c.ExcludeVias,
		ShowOnMap:   c.ShowOnMap,
	}}, c.Connections...)
	c.StationFrom, c.StationTo = "", ""
	c.ExcludeVias, c.ShowOnMap = false, false
	c.Migrated = true
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8091
	}
	if c.IRail.Lang == "" {
		c.IRail.Lang = "en"
	}
	if c.IRail.TimeoutMS == 0 {
		c.IRail.TimeoutMS = 10000
	}
	if c.Poll.IntervalS == 0 {
		c.Poll.IntervalS = 60
	}
	if c.Poll.RequestBudget == 0 {
		c.Poll.RequestBudget = 180
	}
	if c.Poll.BudgetWindowS == 0 {
		c.Poll.BudgetWindowS = 60
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.ChannelPrefix == "" {
		c.Redis.ChannelPrefix = "belgiantrain"
	}
}

func (c *AppConfig) validate() error {
	v := validator.New()
	if err := v.Struct(c.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := v.Struct(c.IRail); err != nil {
		return fmt.Errorf("irail config: %w", err)
	}
	if err := v.Struct(c.Poll); err != nil {
		return fmt.Errorf("poll config: %w", err)
	}
	if err := v.Struct(c.Redis); err != nil {
		return fmt.Errorf("redis config: %w", err)
	}

	seen := make(map[string]int)
	for i, conn := range c.Connections {
		if err := v.Struct(conn); err != nil {
			return fmt.Errorf("connection %d: %w", i, err)
		}
		if strings.EqualFold(conn.StationFrom, conn.StationTo) {
			return fmt.Errorf("connection %d: station_from and station_to are the same station", i)
		}
		id := ConnectionSubentryID(conn.StationFrom, conn.StationTo, conn.ExcludeVias)
		if j, dup := seen[id]; dup {
			return fmt.Errorf("connection %d: already configured as connection %d (%s)", i, j, id)
		}
		seen[id] = i
	}

	seenLive := make(map[string]int)
	for i, lb := range c.Liveboards {
		if err := v.Struct(lb); err != nil {
			return fmt.Errorf("liveboard %d: %w", i, err)
		}
		id := LiveboardSubentryID(lb.Station)
		if j, dup := seenLive[id]; dup {
			return fmt.Errorf("liveboard %d: already configured as liveboard %d (%s)", i, j, id)
		}
		seenLive[id] = i
	}
	return nil
}
