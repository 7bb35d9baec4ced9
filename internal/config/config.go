// Package config loads application configuration from an optional YAML file
// and environment variables.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the root application configuration.
type Config struct {
	App      AppConfig      `koanf:"app"`
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	CORS     CORSConfig     `koanf:"cors"`
}

// AppConfig holds application level settings.
type AppConfig struct {
	Debug  bool   `koanf:"debug"`
	APIKey string `koanf:"api_key" validate:"required"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port" validate:"required,numeric"`
	MetricsPort       string        `koanf:"metrics_port" validate:"required,numeric"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	// RequestTimeout bounds a single API request. It must stay below
	// WriteTimeout so the timeout response reaches the client.
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gt=0"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	Name            string        `koanf:"name" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password"`
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	SSLMode         string        `koanf:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"min=1"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	ConnectAttempts int           `koanf:"connect_attempts" validate:"min=1"`
	Migrate         bool          `koanf:"migrate"`
}

// URL builds the postgres:// connection string.
func (c DatabaseConfig) URL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{c.SSLMode}}.Encode()
	}
	return u.String()
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// envKeys maps recognised environment variables to configuration keys.
var envKeys = map[string]string{
	"DEBUG":                "app.debug",
	"API_KEY":              "app.api_key",
	"SERVER_HOST":          "server.host",
	"SERVER_PORT":          "server.port",
	"METRICS_PORT":         "server.metrics_port",
	"REQUEST_TIMEOUT":      "server.request_timeout",
	"DB_NAME":              "database.name",
	"DB_USER":              "database.user",
	"DB_PASSWORD":          "database.password",
	"DB_HOST":              "database.host",
	"DB_PORT":              "database.port",
	"DB_SSLMODE":           "database.sslmode",
	"DB_MAX_OPEN_CONNS":    "database.max_open_conns",
	"DB_MAX_IDLE_CONNS":    "database.max_idle_conns",
	"DB_CONN_MAX_LIFETIME": "database.conn_max_lifetime",
	"DB_CONNECT_TIMEOUT":   "database.connect_timeout",
	"DB_CONNECT_ATTEMPTS":  "database.connect_attempts",
	"DB_MIGRATE":           "database.migrate",
	"LOG_LEVEL":            "log.level",
	"LOG_FORMAT":           "log.format",
	"CORS_ALLOWED_ORIGINS": "cors.allowed_origins",
}

// Default returns the configuration used when nothing overrides a value.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8000",
			MetricsPort:       "9090",
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			RequestTimeout:    10 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    60,
			MaxIdleConns:    10,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectTimeout:  30 * time.Second,
			ConnectAttempts: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from the YAML file at path (skipped when empty)
// and then from the environment. Environment values win.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.App.Debug {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for missing or malformed values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// A zero WriteTimeout disables the server deadline.
	if c.Server.WriteTimeout > 0 && c.Server.RequestTimeout >= c.Server.WriteTimeout {
		return fmt.Errorf("invalid config: request timeout %s must be shorter than write timeout %s",
			c.Server.RequestTimeout, c.Server.WriteTimeout)
	}
	return nil
}

func envValue(key, value string) (string, interface{}) {
	name, ok := envKeys[key]
	if !ok {
		return "", nil
	}

	if name == "cors.allowed_origins" {
		origins := make([]string, 0)
		for _, o := range strings.Split(value, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		return name, origins
	}

	return name, value
}
