package models

// MConfig Structure
type MConfig struct {
	Name     string           `yaml:"name"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	LogLevel string           `yaml:"log_level"`
	GrpcHost string           `yaml:"grpc_host"`
	GrpcPort int              `yaml:"grpc_port"`
	Storage  MStorageConfig   `yaml:"storage"`
	Sessions []MSessionConfig `yaml:"sessions"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	RetentionDays      int    `yaml:"retention_days"`
	CleanupCron        string `yaml:"cleanup_cron"`
}

type MSessionConfig struct {
	Name           string             `yaml:"name"`
	Symbol         string             `yaml:"symbol"`
	IntervalMs     int                `yaml:"interval_ms"`
	Capacity       int                `yaml:"capacity"` // 0 = unbounded
	SeedCount      int                `yaml:"seed_count"`
	TimestampMode  string             `yaml:"timestamp_mode"` // "wall" or "ordinal"
	Generator      MGeneratorConfig   `yaml:"generator"`
	Marker         MMarkerConfig      `yaml:"marker"`
	Zoom           MZoomConfig        `yaml:"zoom"`
	FetchTimeoutMs int                `yaml:"fetch_timeout_ms"`
	MarketHours    MMarketHoursConfig `yaml:"market_hours"`
}

type MGeneratorConfig struct {
	Policy string  `yaml:"policy"` // "uniform" or "random_walk"
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
	Step   float64 `yaml:"step"`
	Seed   int64   `yaml:"seed"` // 0 = seeded from the clock
}

type MMarkerConfig struct {
	Disabled bool   `yaml:"disabled"`
	Period   int    `yaml:"period"`
	Lag      int    `yaml:"lag"`
	Mode     string `yaml:"mode"` // "lagged_close", "lagged_open" or "current"
}

type MZoomConfig struct {
	MinVisible int     `yaml:"min_visible"`
	WheelScale float64 `yaml:"wheel_scale"`
}

type MMarketHoursConfig struct {
	Enabled bool   `yaml:"enabled"`
	MIC     string `yaml:"mic"`
}
