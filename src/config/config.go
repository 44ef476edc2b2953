package config

import (
	"fmt"
	"math"
	"os"

	"chart-feed/src/models"

	"gopkg.in/yaml.v3"
)

// Session defaults
const (
	DefaultIntervalMs   = 1000
	DefaultMarkerPeriod = 10
	DefaultMinVisible   = 10
	DefaultWheelScale   = 1500
	DefaultWalkStep     = 5
	DefaultMaxValue     = 100

	// MaxCapacity bounds retention and seeding per session
	MaxCapacity = 1_000_000
)

// Accepted enum values
const (
	PolicyUniform    = "uniform"
	PolicyRandomWalk = "random_walk"

	MarkerLaggedClose = "lagged_close"
	MarkerLaggedOpen  = "lagged_open"
	MarkerCurrent     = "current"

	TimestampWall    = "wall"
	TimestampOrdinal = "ordinal"

	DBNone     = "none"
	DBSQLite   = "sqlite"
	DBPostgres = "postgres"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}
	return Parse(data)
}

// -----------------------------------------------------------------------------

// Parse builds a Config from raw YAML, applying defaults before validation.
func Parse(data []byte) (*Config, error) {
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// ApplyDefaults fills unset optional fields.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Storage.DBType == "" {
		c.Storage.DBType = DBNone
	}
	if c.Storage.RetentionDays == 0 {
		c.Storage.RetentionDays = 1
	}
	if c.Storage.CleanupCron == "" {
		c.Storage.CleanupCron = "@every 1h"
	}
	for i := range c.Sessions {
		ApplySessionDefaults(&c.Sessions[i])
	}
}

// -----------------------------------------------------------------------------

// ApplySessionDefaults fills unset optional fields of one session.
func ApplySessionDefaults(s *models.MSessionConfig) {
	if s.IntervalMs == 0 {
		s.IntervalMs = DefaultIntervalMs
	}
	if s.TimestampMode == "" {
		s.TimestampMode = TimestampWall
	}
	if s.Generator.Policy == "" {
		s.Generator.Policy = PolicyRandomWalk
	}
	if s.Generator.Min == 0 && s.Generator.Max == 0 {
		s.Generator.Max = DefaultMaxValue
	}
	if s.Generator.Step == 0 {
		s.Generator.Step = DefaultWalkStep
	}
	if s.Marker.Period == 0 {
		s.Marker.Period = DefaultMarkerPeriod
	}
	if s.Marker.Mode == "" {
		s.Marker.Mode = MarkerLaggedClose
	}
	if s.Marker.Lag == 0 {
		s.Marker.Lag = s.Marker.Period
	}
	if s.Zoom.MinVisible == 0 {
		s.Zoom.MinVisible = DefaultMinVisible
	}
	if s.Zoom.WheelScale == 0 {
		s.Zoom.WheelScale = DefaultWheelScale
	}
	if s.FetchTimeoutMs == 0 {
		s.FetchTimeoutMs = max(1, s.IntervalMs/2)
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort < 0 || c.GrpcPort > 65535 {
		return fmt.Errorf("invalid grpc port number: %d", c.GrpcPort)
	}

	switch c.Storage.DBType {
	case DBNone:
	case DBSQLite:
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case DBPostgres:
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Storage.DBType)
	}
	if c.Storage.RetentionDays <= 0 {
		return fmt.Errorf("retention days must be greater than 0")
	}

	if len(c.Sessions) == 0 {
		return fmt.Errorf("at least one session must be configured")
	}
	seen := make(map[string]struct{}, len(c.Sessions))
	for i := range c.Sessions {
		s := &c.Sessions[i]
		if s.Name == "" {
			return fmt.Errorf("session %d must have a name", i)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("duplicate session name '%s'", s.Name)
		}
		seen[s.Name] = struct{}{}
		if err := ValidateSession(s); err != nil {
			return fmt.Errorf("session '%s': %w", s.Name, err)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// ValidateSession checks one session block (defaults already applied).
func ValidateSession(s *models.MSessionConfig) error {
	if s.IntervalMs <= 0 {
		return fmt.Errorf("interval must be greater than 0")
	}
	if s.Capacity < 0 || s.Capacity > MaxCapacity {
		return fmt.Errorf("capacity must be in [0, %d]", MaxCapacity)
	}
	if s.SeedCount < 0 || s.SeedCount > MaxCapacity {
		return fmt.Errorf("seed count must be in [0, %d]", MaxCapacity)
	}
	if s.Capacity > 0 && s.SeedCount > s.Capacity {
		return fmt.Errorf("seed count %d exceeds capacity %d", s.SeedCount, s.Capacity)
	}
	if s.TimestampMode != TimestampWall && s.TimestampMode != TimestampOrdinal {
		return fmt.Errorf("unsupported timestamp mode: %s", s.TimestampMode)
	}

	switch s.Generator.Policy {
	case PolicyUniform, PolicyRandomWalk:
	default:
		return fmt.Errorf("unsupported generator policy: %s", s.Generator.Policy)
	}
	if !isFinite(s.Generator.Min) || !isFinite(s.Generator.Max) || !isFinite(s.Generator.Step) {
		return fmt.Errorf("generator bounds and step must be finite")
	}
	if s.Generator.Max <= s.Generator.Min {
		return fmt.Errorf("generator max must be greater than min")
	}
	if s.Generator.Step < 0 {
		return fmt.Errorf("generator step cannot be negative")
	}

	if s.Marker.Period < 0 || s.Marker.Lag < 0 {
		return fmt.Errorf("marker period and lag cannot be negative")
	}
	switch s.Marker.Mode {
	case MarkerLaggedClose, MarkerLaggedOpen, MarkerCurrent:
	default:
		return fmt.Errorf("unsupported marker mode: %s", s.Marker.Mode)
	}

	if s.Zoom.MinVisible < 1 {
		return fmt.Errorf("min visible must be at least 1")
	}
	if s.Zoom.WheelScale <= 0 {
		return fmt.Errorf("wheel scale must be greater than 0")
	}
	if s.FetchTimeoutMs <= 0 || s.FetchTimeoutMs > s.IntervalMs {
		return fmt.Errorf("fetch timeout must be in (0, interval]")
	}

	return nil
}

// -----------------------------------------------------------------------------

// FindSession returns the session block with the given name.
func (c *Config) FindSession(name string) (*models.MSessionConfig, bool) {
	for i := range c.Sessions {
		if c.Sessions[i].Name == name {
			return &c.Sessions[i], true
		}
	}
	return nil, false
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
