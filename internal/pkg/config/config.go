package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Geocoding GeocodingConfig `mapstructure:"geocoding"`
	Search    SearchConfig    `mapstructure:"search"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	AllowOrigins string `mapstructure:"allow_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type TelemetryConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Enabled      bool   `mapstructure:"enabled"`
}

// GeocodingConfig configures the address resolver.
type GeocodingConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	UserAgent       string `mapstructure:"user_agent"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	DefaultRegion   string `mapstructure:"default_region"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds"`
}

// SearchConfig holds search defaults and limits.
type SearchConfig struct {
	DefaultRadiusKm   float64 `mapstructure:"default_radius_km"`
	MaxRadiusKm       float64 `mapstructure:"max_radius_km"`
	DefaultMaxResults int     `mapstructure:"default_max_results"`
	MaxResultsLimit   int     `mapstructure:"max_results_limit"`
	AvgSpeedKmh       float64 `mapstructure:"avg_speed_kmh"`
	Timezone          string  `mapstructure:"timezone"`
}

// TemporalConfig configures the backfill worker.
type TemporalConfig struct {
	HostPort          string `mapstructure:"host_port"`
	Namespace         string `mapstructure:"namespace"`
	TaskQueue         string `mapstructure:"task_queue"`
	BackfillCron      string `mapstructure:"backfill_cron"`
	BackfillBatchSize int    `mapstructure:"backfill_batch_size"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: MECHLINK_DATABASE_HOST → database.host
	v.SetEnvPrefix("MECHLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.allow_origins", "http://localhost:3000, http://localhost:5173")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "mechlink")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "mechlink")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.password", "")
	v.SetDefault("valkey.key_prefix", "mechlink:")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("geocoding.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoding.user_agent", "MechLink/1.0 (contact@mechlink.com)")
	v.SetDefault("geocoding.timeout_seconds", 5)
	v.SetDefault("geocoding.default_region", "Puerto Rico")
	v.SetDefault("geocoding.cache_ttl_seconds", 86400)
	v.SetDefault("search.default_radius_km", 25)
	v.SetDefault("search.max_radius_km", 200)
	v.SetDefault("search.default_max_results", 20)
	v.SetDefault("search.max_results_limit", 100)
	v.SetDefault("search.avg_speed_kmh", 40)
	v.SetDefault("search.timezone", "America/Puerto_Rico")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "coordinate-backfill")
	v.SetDefault("temporal.backfill_cron", "0 3 * * *")
	v.SetDefault("temporal.backfill_batch_size", 100)
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Geocoding.BaseURL == "" {
		errs = append(errs, "geocoding.base_url is required")
	}
	if c.Geocoding.UserAgent == "" {
		errs = append(errs, "geocoding.user_agent is required")
	}
	if c.Geocoding.TimeoutSeconds <= 0 {
		errs = append(errs, "geocoding.timeout_seconds must be positive")
	}
	if c.Search.MaxRadiusKm <= 0 {
		errs = append(errs, "search.max_radius_km must be positive")
	}
	if c.Search.DefaultRadiusKm <= 0 || c.Search.DefaultRadiusKm > c.Search.MaxRadiusKm {
		errs = append(errs, fmt.Sprintf("search.default_radius_km must be in (0, %g]", c.Search.MaxRadiusKm))
	}
	if c.Search.MaxResultsLimit <= 0 {
		errs = append(errs, "search.max_results_limit must be positive")
	}
	if c.Search.DefaultMaxResults <= 0 || c.Search.DefaultMaxResults > c.Search.MaxResultsLimit {
		errs = append(errs, fmt.Sprintf("search.default_max_results must be 1-%d", c.Search.MaxResultsLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
