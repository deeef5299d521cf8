package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

// EnvPrefix namespaces every environment variable the server reads.
const EnvPrefix = "DASHBOARD"

type Config struct {
	Server ServerConfig
	Data   DataConfig
	Log    LogConfig
}

type ServerConfig struct {
	Host            string        `envconfig:"DASHBOARD_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"DASHBOARD_PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"DASHBOARD_SHUTDOWN_TIMEOUT" default:"10s"`
	CORSOrigins     []string      `envconfig:"DASHBOARD_CORS_ORIGINS" default:"*"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type DataConfig struct {
	// Source is the CSV (optionally .csv.gz) the dashboard serves.
	Source string `envconfig:"DASHBOARD_DATA_SOURCE" default:"data/combined_data.csv"`
}

type LogConfig struct {
	Level  string `envconfig:"DASHBOARD_LOG_LEVEL" default:"info"`
	Format string `envconfig:"DASHBOARD_LOG_FORMAT" default:"json"`
}

// Load reads configuration from the environment, after merging any .env
// files given (missing files are ignored).
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		// godotenv never overrides variables that are already set.
		_ = godotenv.Load(f)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate reports every invalid setting, not just the first.
func (c *Config) validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid %s_PORT: %d", EnvPrefix, c.Server.Port))
	}
	if strings.TrimSpace(c.Data.Source) == "" {
		errs = append(errs, fmt.Errorf("%s_DATA_SOURCE must not be empty", EnvPrefix))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid %s_SHUTDOWN_TIMEOUT: %s", EnvPrefix, c.Server.ShutdownTimeout))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("invalid %s_LOG_FORMAT: %q (want json or console)", EnvPrefix, c.Log.Format))
	}
	return multierr.Combine(errs...)
}
