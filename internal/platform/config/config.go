package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Log       LogConfig       `toml:"log"`
	Auth      AuthConfig      `toml:"auth"`
	Schedule  ScheduleConfig  `toml:"schedule"`
	RateLimit RateLimitConfig `toml:"ratelimit"`
	Tracing   TracingConfig   `toml:"tracing"`
}

type ServerConfig struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
}

// DatabaseConfig: DSN vacío => repos in-memory (modo dev).
type DatabaseConfig struct {
	DSN         string `toml:"dsn"`
	AutoMigrate bool   `toml:"auto_migrate"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	App    string `toml:"app"`
}

// AuthConfig: sin Odin configurado se acepta X-Debug-User-ID.
type AuthConfig struct {
	OdinBaseURL string   `toml:"odin_base_url"`
	OdinAPIKey  string   `toml:"odin_api_key"`
	Timeout     Duration `toml:"timeout"`
}

type ScheduleConfig struct {
	// Timezone define qué es "hoy" para el cálculo de recordatorios.
	Timezone string `toml:"timezone"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

type TracingConfig struct {
	OTLPEndpoint string `toml:"otlp_endpoint"`
	Insecure     bool   `toml:"insecure"`
}

// Duration permite "10s" en TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  Duration{5 * time.Second},
			WriteTimeout: Duration{10 * time.Second},
		},
		Database: DatabaseConfig{AutoMigrate: true},
		Log:      LogConfig{Level: "info", Format: "text", App: "pet-care-reminders"},
		Auth:     AuthConfig{Timeout: Duration{5 * time.Second}},
		Schedule: ScheduleConfig{Timezone: "Local"},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
			Burst:             20,
		},
	}
}

// Read decodifica TOML encima de los defaults.
func Read(r io.Reader) (*Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Load lee path (opcional), aplica overrides de env y valida.
func Load(path string) (*Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		cfg, err = Read(f)
		if err != nil {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		c.Server.Addr = ":" + strings.TrimSpace(v)
	}
	str("DB_DSN", &c.Database.DSN)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("APP_NAME", &c.Log.App)
	str("ODIN_BASE_URL", &c.Auth.OdinBaseURL)
	str("ODIN_API_KEY", &c.Auth.OdinAPIKey)
	str("APP_TIMEZONE", &c.Schedule.Timezone)
	str("OTEL_EXPORTER_OTLP_ENDPOINT", &c.Tracing.OTLPEndpoint)

	if v, ok := lookup("RATE_LIMIT_RPS"); ok && strings.TrimSpace(v) != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
		c.RateLimit.RequestsPerSecond = f
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("config: server.addr is required")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config: schedule.timezone: %w", err)
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return errors.New("config: ratelimit values must be >= 0")
	}
	if (c.Auth.OdinBaseURL == "") != (c.Auth.OdinAPIKey == "") {
		return errors.New("config: auth.odin_base_url and auth.odin_api_key go together")
	}
	return nil
}

// Location resuelve la zona de "hoy". Vacío o "Local" => time.Local.
func (c *Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Schedule.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}
