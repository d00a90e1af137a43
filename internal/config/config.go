package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

const (
	defaultPort               = "5050"
	defaultDBName             = "sample_training"
	defaultRateLimitPerMinute = 300
)

// Config is the process configuration, read from the environment and command
// line flags.
type Config struct {
	Port   string
	DBURL  string
	DBName string

	// RateLimitPerMinute is the number of requests a single client IP may make
	// per minute. Zero disables rate limiting.
	RateLimitPerMinute int
	Production         bool
}

// Load reads the configuration. getenv is usually os.Getenv.
func Load(args []string, getenv func(string) string) (*Config, error) {
	var isDevMode, isProdMode bool
	flags := flag.NewFlagSet("grades", flag.ContinueOnError)
	flags.BoolVar(&isDevMode, "dev", false, "Run server in development mode")
	flags.BoolVar(&isProdMode, "prod", false, "Use production logging")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:       getenv("PORT"),
		DBURL:      getenv("DB_URL"),
		DBName:     getenv("DB_NAME"),
		Production: isProdMode || strings.EqualFold(getenv("ENV"), "production"),
	}

	if cfg.Port == "" {
		cfg.Port = defaultPort
	}

	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL environment variable is not set")
	}

	if cfg.DBName == "" {
		cfg.DBName = defaultDBName
	}
	if isDevMode {
		cfg.DBName = "dev_" + cfg.DBName
	}

	cfg.RateLimitPerMinute = defaultRateLimitPerMinute
	if limit := strings.TrimSpace(getenv("RATE_LIMIT_PER_MINUTE")); limit != "" {
		n, err := cast.ToIntE(limit)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE %q", limit)
		}
		cfg.RateLimitPerMinute = n
	}

	return cfg, nil
}
