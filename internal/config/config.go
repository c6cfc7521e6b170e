package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/drewfead/cip/internal/calendar"
	"github.com/drewfead/cip/internal/cip"
	"github.com/drewfead/cip/internal/store"
)

// DefaultUserAgent is sent with every request unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

type Config struct {
	RootURL        string `mapstructure:"root_url"`
	UserAgent      string `mapstructure:"user_agent"`
	RequestTimeout string `mapstructure:"request_timeout"` // Go duration string like "30s"
	Concurrency    int    `mapstructure:"concurrency"`
	UTCOffsetHours int    `mapstructure:"utc_offset_hours"`
	DayStart       string `mapstructure:"day_start"` // HH:MM
	MetricsFile    string `mapstructure:"metrics_file"`
	DB             struct {
		Driver string `mapstructure:"driver"`
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"db"`
}

// Load reads config.yaml from the working directory or ./config, then CIP_*
// environment variables (an optional .env file is loaded first). A missing
// config file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("CIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("root_url", cip.DefaultBaseURL)
	v.SetDefault("user_agent", DefaultUserAgent)
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("concurrency", 0)
	v.SetDefault("utc_offset_hours", 2)
	v.SetDefault("day_start", "04:00")
	v.SetDefault("metrics_file", "")
	v.SetDefault("db.driver", store.DriverSQLite)
	v.SetDefault("db.dsn", DefaultDBPath())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// DefaultDBPath is data.db under the user's config directory.
func DefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "cip", "data.db")
}

func (c *Config) Timeout() (time.Duration, error) {
	if c.RequestTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid request_timeout %q: %w", c.RequestTimeout, err)
	}
	return d, nil
}

// Calendar builds the calendar for a command run with the given reference now.
func (c *Config) Calendar(now time.Time) (calendar.Calendar, error) {
	dayStart := calendar.DefaultDayStart
	if c.DayStart != "" {
		h, m, err := calendar.ParseClock(c.DayStart)
		if err != nil {
			return calendar.Calendar{}, fmt.Errorf("invalid day_start: %w", err)
		}
		dayStart = calendar.SinceMidnight(h, m)
	}
	return calendar.New(calendar.FixedOffset(c.UTCOffsetHours), dayStart, now), nil
}
