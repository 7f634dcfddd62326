package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/amitesh0109/weather-data-pipeline/logging"
	"github.com/amitesh0109/weather-data-pipeline/slice"
	"github.com/amitesh0109/weather-data-pipeline/types"
)

// ConfigurationError is fatal: the process must refuse to start on it,
// before any extraction or transform work begins.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid configuration: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

type AppConfigCity struct {
	Name    string `mapstructure:"name" validate:"required"`
	Country string `mapstructure:"country"`
}

func (c AppConfigCity) City() types.City {
	return types.City{Name: c.Name, Country: c.Country}
}

type AppConfigDatabase struct {
	Path string `mapstructure:"path" validate:"required"`
	// How many days raw and derived rows are kept before they get purged
	DataRetentionDays *int `mapstructure:"data_retention_days"`
	// How many days daily backup files are kept before they get deleted
	BackupRetentionDays *int `mapstructure:"backup_retention_days"`
}

func (d AppConfigDatabase) GetDataRetentionDays() int {
	if d.DataRetentionDays == nil {
		return 90
	}
	return *d.DataRetentionDays
}

func (d AppConfigDatabase) GetBackupRetentionDays() int {
	if d.BackupRetentionDays == nil {
		return 90
	}
	return *d.BackupRetentionDays
}

type AppConfigExtract struct {
	// API key for OpenWeatherMap, normally from OPENWEATHERMAP_API_KEY
	ApiKey string `mapstructure:"api_key" validate:"required"`
	// Base URL override, used in tests
	BaseUrl *string `mapstructure:"base_url"`
	// Directory where raw provider payloads are archived
	RawDataDir *string `mapstructure:"raw_data_dir"`
	// Per-request timeout in seconds, default: 10
	TimeoutSeconds *int   `mapstructure:"timeout_seconds"`
	RunAt          string `mapstructure:"run_at" validate:"required"`
}

func (e AppConfigExtract) GetRawDataDir() string {
	if e.RawDataDir == nil {
		return "raw_data"
	}
	return *e.RawDataDir
}

func (e AppConfigExtract) GetTimeout() time.Duration {
	if e.TimeoutSeconds == nil {
		return 10 * time.Second
	}
	return time.Duration(*e.TimeoutSeconds) * time.Second
}

type AppConfigAnomaly struct {
	// Absolute deviation from the baseline (°C) for a "moderate" anomaly
	ModerateThreshold float64 `mapstructure:"moderate_threshold" validate:"gt=0"`
	// Absolute deviation from the baseline (°C) for a "severe" anomaly
	SevereThreshold float64 `mapstructure:"severe_threshold" validate:"gt=0"`
	// Trailing window (days) of prior daily aggregates that feeds the baseline
	BaselineWindowDays int `mapstructure:"baseline_window_days" validate:"gte=1"`
	// Minimum days of history before an anomaly is computed at all
	BaselineMinSamples int `mapstructure:"baseline_min_samples" validate:"gte=1"`
}

type AppConfigEvents struct {
	// Daily max temperature at or above this (°C) is a "heat" event
	HeatThreshold float64 `mapstructure:"heat_threshold"`
	// Daily min temperature at or below this (°C) is a "cold" event
	ColdThreshold float64 `mapstructure:"cold_threshold"`
	// Daily average wind speed at or above this (m/s) is a "high_wind" event
	WindThreshold float64 `mapstructure:"wind_threshold" validate:"gt=0"`
	// Daily average humidity at or below this (%) is a "low_humidity" event
	DryHumidityThreshold float64 `mapstructure:"dry_humidity_threshold" validate:"gt=0"`
	// Heaviest rainfall reading of the day at or above this (mm) is a "heavy_rain" event
	RainThreshold float64 `mapstructure:"rain_threshold" validate:"gt=0"`
	// Heaviest snowfall reading of the day at or above this (mm) is a "heavy_snow" event
	SnowThreshold float64 `mapstructure:"snow_threshold" validate:"gt=0"`
}

type AppConfigTransform struct {
	// Timezone used for bucketing observations into calendar dates, default: UTC
	Timezone *string          `mapstructure:"timezone"`
	Anomaly  AppConfigAnomaly `mapstructure:"anomaly"`
	Events   AppConfigEvents  `mapstructure:"events"`
	RunAt    string           `mapstructure:"run_at" validate:"required"`
}

func (t AppConfigTransform) GetTimezone() string {
	if t.Timezone == nil {
		return "UTC"
	}
	return *t.Timezone
}

type AppConfigAlert struct {
	// MQTT broker host, alerts are disabled when empty
	Host     string `mapstructure:"host"`
	Port     int16  `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// Events are published to "<topic_prefix>/<city-slug>"
	TopicPrefix *string `mapstructure:"topic_prefix"`
}

func (a AppConfigAlert) Enabled() bool {
	return a.Host != ""
}

func (a AppConfigAlert) GetTopicPrefix() string {
	if a.TopicPrefix == nil {
		return "weather/alerts"
	}
	return *a.TopicPrefix
}

type AppConfigWww struct {
	Address string `mapstructure:"address"`
	Port    int16  `mapstructure:"port" validate:"required"`
	// If not assigned, the server will serve embedded files.
	// If assigned, the server will serve files from the directory,
	// that must contain a "static" and "templates" directory.
	// This is useful for development.
	WwwDir *string `mapstructure:"www_dir"`
}

type AppConfigLogging struct {
	// Min log level for database : "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	DbLevel *string `mapstructure:"db_level"`
	// Log attributes format: "TEXT", "JSON", default: "JSON"
	DbAttrsFormat *string `mapstructure:"db_attrs_format"`
	// Maximum number of log entries in the database, default: 10000
	DbMaxEntries *int `mapstructure:"db_max_entries"`
	// Min log level for console: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	ConsoleLevel *string `mapstructure:"console_level"`
}

func (l AppConfigLogging) GetDbLevel() slog.Level {
	return logging.LevelFromString(l.DbLevel)
}

func (l AppConfigLogging) GetDbAttrsFormat() logging.LogAttrFormat {
	if l.DbAttrsFormat == nil {
		return "JSON"
	}
	if strings.EqualFold(*l.DbAttrsFormat, "text") {
		return "TEXT"
	}
	return "JSON"
}

func (l AppConfigLogging) GetDbMaxEntries() int {
	if l.DbMaxEntries == nil {
		return 10000
	}
	return *l.DbMaxEntries
}

func (l AppConfigLogging) GetConsoleLevel() slog.Level {
	return logging.LevelFromString(l.ConsoleLevel)
}

type AppConfig struct {
	Cities      []AppConfigCity    `mapstructure:"cities" validate:"min=1,dive"`
	Database    AppConfigDatabase  `mapstructure:"database"`
	Extract     AppConfigExtract   `mapstructure:"extract"`
	Transform   AppConfigTransform `mapstructure:"transform"`
	Alert       AppConfigAlert     `mapstructure:"alert"`
	Www         AppConfigWww       `mapstructure:"www"`
	Logging     AppConfigLogging   `mapstructure:"logging"`
	Maintenance struct {
		RunAt string `mapstructure:"run_at"`
	} `mapstructure:"maintenance"`
}

func (c *AppConfig) CityList() []types.City {
	return slice.Map(c.Cities, func(cc AppConfigCity) types.City {
		return cc.City()
	})
}

func (c *AppConfig) GetMaintenanceRunAt() string {
	if c.Maintenance.RunAt == "" {
		return "30 2 * * *"
	}
	return c.Maintenance.RunAt
}

func Load(path string) (*AppConfig, error) {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.AddConfigPath("config")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var c AppConfig

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	if err := viper.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}

	return &c, nil
}

// Validate checks the whole configuration once at startup. Components
// receive the already validated values and never re-check them.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return &ConfigurationError{Reason: "missing or malformed fields", Err: err}
	}

	a := c.Transform.Anomaly
	if a.SevereThreshold <= a.ModerateThreshold {
		return &ConfigurationError{Reason: fmt.Sprintf(
			"anomaly severe_threshold (%.1f) must be greater than moderate_threshold (%.1f)",
			a.SevereThreshold, a.ModerateThreshold)}
	}

	e := c.Transform.Events
	if e.HeatThreshold <= e.ColdThreshold {
		return &ConfigurationError{Reason: fmt.Sprintf(
			"events heat_threshold (%.1f) must be greater than cold_threshold (%.1f)",
			e.HeatThreshold, e.ColdThreshold)}
	}

	if _, err := time.LoadLocation(c.Transform.GetTimezone()); err != nil {
		return &ConfigurationError{Reason: fmt.Sprintf("unknown transform timezone %q", c.Transform.GetTimezone()), Err: err}
	}

	return nil
}
