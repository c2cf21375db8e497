package config

// ServerConfig contains the HTTP server configuration
type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0,lte=65535"`
}

// IRailConfig points the API client at iRail
type IRailConfig struct {
	BaseURL   string `yaml:"base_url" validate:"omitempty,url"`
	Lang      string `yaml:"lang" validate:"oneof=en nl fr de"`
	TimeoutMS int    `yaml:"timeout_ms" validate:"gte=0"`
	HTTP2     bool   `yaml:"http2"`
}

// PollConfig drives the refresh loop
type PollConfig struct {
	IntervalS     int `yaml:"interval_s" validate:"gte=0"`
	RequestBudget int `yaml:"request_budget" validate:"gte=0"`
	BudgetWindowS int `yaml:"budget_window_s" validate:"gte=0"`
}

// RedisConfig enables the state mirror and change events
type RedisConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Addr          string `yaml:"addr"`
	DB            int    `yaml:"db" validate:"gte=0"`
	ChannelPrefix string `yaml:"channel_prefix"`

	// Password is taken from the REDIS_PASSWORD environment variable,
	// never from the file.
	Password string `yaml:"-"`
}

// ExportConfig toggles optional outbound feeds
type ExportConfig struct {
	GTFSRT bool `yaml:"gtfsrt"`
}

// ConnectionConfig is one monitored connection between two stations
type ConnectionConfig struct {
	Name        string `yaml:"name"`
	StationFrom string `yaml:"station_from" validate:"required"`
	StationTo   string `yaml:"station_to" validate:"required"`
	ExcludeVias bool   `yaml:"exclude_vias"`
	ShowOnMap   bool   `yaml:"show_on_map"`

	// Also register a departure board for either endpoint.
	DepartureLiveboard bool `yaml:"departure_liveboard"`
	ArrivalLiveboard   bool `yaml:"arrival_liveboard"`
}

// LiveboardConfig is one monitored station departure board
type LiveboardConfig struct {
	Station string `yaml:"station" validate:"required"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Version     int                `yaml:"version"`
	Server      ServerConfig       `yaml:"server"`
	IRail       IRailConfig        `yaml:"irail"`
	Poll        PollConfig         `yaml:"poll"`
	Redis       RedisConfig        `yaml:"redis"`
	Export      ExportConfig       `yaml:"export"`
	Connections []ConnectionConfig `yaml:"connections"`
	Liveboards  []LiveboardConfig  `yaml:"liveboards"`

	// Version-1 files carried a single connection at the top level.
	StationFrom string `yaml:"station_from"`
	StationTo   string `yaml:"station_to"`
	ExcludeVias bool   `yaml:"exclude_vias"`
	ShowOnMap   bool   `yaml:"show_on_map"`

	// Migrated is set when a version-1 file was lifted to version 2.
	Migrated bool `yaml:"-"`
}
