package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the root application configuration, loaded from TOML.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Airports  AirportsConfig  `toml:"airports"`
	ATC       ATCConfig       `toml:"atc"`
	OpenAI    OpenAIConfig    `toml:"openai"`
	Persona   PersonaConfig   `toml:"persona"`
	Storage   StorageConfig   `toml:"storage"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Logging   LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
	ReadTimeoutSec     int      `toml:"read_timeout_sec"`
	WriteTimeoutSec    int      `toml:"write_timeout_sec"`
}

// AirportsConfig holds airport directory settings
type AirportsConfig struct {
	DBPath            string  `toml:"db_path"`
	NearestMaxRangeNM float64 `toml:"nearest_max_range_nm"`
}

// ATCConfig holds the position selection thresholds and conversation bounds.
// Altitudes are feet, distances nautical miles.
type ATCConfig struct {
	GroundMaxAGLFt    float64 `toml:"ground_max_agl_ft"`
	TowerMaxAltFt     float64 `toml:"tower_max_alt_ft"`
	TowerRangeNM      float64 `toml:"tower_range_nm"`
	ApproachMaxAltFt  float64 `toml:"approach_max_alt_ft"`
	ApproachRangeNM   float64 `toml:"approach_range_nm"`
	CenterMinAltFt    float64 `toml:"center_min_alt_ft"`
	MaxHistoryEntries int     `toml:"max_history_entries"`
	PromptHistoryTail int     `toml:"prompt_history_tail"`
	VicinityRangeNM   float64 `toml:"vicinity_range_nm"`
}

// OpenAIConfig holds settings for the completion service
type OpenAIConfig struct {
	APIKey         string  `toml:"api_key"`
	Model          string  `toml:"model"`
	Temperature    float64 `toml:"temperature"`
	MaxTokens      int     `toml:"max_tokens"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// PersonaConfig holds settings for the controller persona generator
type PersonaConfig struct {
	GeneratorURL   string `toml:"generator_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// StorageConfig holds transcript storage settings
type StorageConfig struct {
	Enabled bool   `toml:"enabled"`
	DBPath  string `toml:"db_path"`
}

// TelemetryConfig selects the telemetry source
type TelemetryConfig struct {
	Source              string  `toml:"source"` // "sim" or "none"
	SimStartLat         float64 `toml:"sim_start_lat"`
	SimStartLon         float64 `toml:"sim_start_lon"`
	SimFieldElevationFt float64 `toml:"sim_field_elevation_ft"`
	SimStartOnGround    bool    `toml:"sim_start_on_ground"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeoutSec:  15,
			WriteTimeoutSec: 30,
		},
		Airports: AirportsConfig{
			DBPath:            "airports.json",
			NearestMaxRangeNM: 500,
		},
		ATC: ATCConfig{
			GroundMaxAGLFt:    50,
			TowerMaxAltFt:     3000,
			TowerRangeNM:      50,
			ApproachMaxAltFt:  18000,
			ApproachRangeNM:   100,
			CenterMinAltFt:    18000,
			MaxHistoryEntries: 20,
			PromptHistoryTail: 4,
			VicinityRangeNM:   10,
		},
		OpenAI: OpenAIConfig{
			Model:          "gpt-4o-mini",
			Temperature:    0.8,
			MaxTokens:      256,
			TimeoutSeconds: 30,
		},
		Persona: PersonaConfig{
			GeneratorURL:   "https://randomuser.me/api/",
			TimeoutSeconds: 10,
		},
		Storage: StorageConfig{
			Enabled: true,
			DBPath:  "transcripts.db",
		},
		Telemetry: TelemetryConfig{
			Source:              "sim",
			SimStartLat:         47.4502,
			SimStartLon:         -122.3088,
			SimFieldElevationFt: 433,
			SimStartOnGround:    true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the configuration from the given TOML file, applying defaults
// for any missing values. A missing file is not an error: defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.ATC.MaxHistoryEntries <= 0 {
		return fmt.Errorf("atc.max_history_entries must be positive, got %d", c.ATC.MaxHistoryEntries)
	}
	if c.ATC.PromptHistoryTail <= 0 {
		return fmt.Errorf("atc.prompt_history_tail must be positive, got %d", c.ATC.PromptHistoryTail)
	}
	if c.Airports.NearestMaxRangeNM <= 0 {
		return fmt.Errorf("airports.nearest_max_range_nm must be positive, got %f", c.Airports.NearestMaxRangeNM)
	}
	return nil
}
