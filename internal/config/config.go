package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config captures runtime configuration for the reservation service. Values
// come from an optional TOML file first, then ROOMRESERVE_* environment
// variables override individual fields.
type Config struct {
	HTTPPort         int           `toml:"http_port"`
	SQLiteDSN        string        `toml:"sqlite_dsn"`
	BusyTimeout      time.Duration `toml:"-"`
	SlotIncrement    time.Duration `toml:"-"`
	WatchWindowDays  int           `toml:"watch_window_days"`
	MetricsEnabled   bool          `toml:"metrics_enabled"`
	MetricsPath      string        `toml:"metrics_path"`
	MapsAPIKey       string        `toml:"maps_api_key"`
	PhotoDir         string        `toml:"photo_dir"`
	PhotoBaseURL     string        `toml:"photo_base_url"`
	BusyTimeoutRaw   string        `toml:"busy_timeout"`
	SlotIncrementRaw string        `toml:"slot_increment"`
}

// Default returns the configuration used when neither file nor environment
// supplies a value.
func Default() Config {
	return Config{
		HTTPPort:        8080,
		SQLiteDSN:       "file:roomreserve.db?_foreign_keys=on",
		BusyTimeout:     5 * time.Second,
		SlotIncrement:   30 * time.Minute,
		WatchWindowDays: 14,
		MetricsEnabled:  true,
		MetricsPath:     "/metrics",
		PhotoDir:        "photos",
		PhotoBaseURL:    "/photos",
	}
}

// Load reads the TOML file at path when path is non-empty, then applies
// environment overrides. A missing file at the default path is not an error;
// an explicitly requested file must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if cfg.BusyTimeoutRaw != "" {
			d, err := time.ParseDuration(cfg.BusyTimeoutRaw)
			if err != nil || d <= 0 {
				return Config{}, fmt.Errorf("config %s: invalid busy_timeout %q", path, cfg.BusyTimeoutRaw)
			}
			cfg.BusyTimeout = d
		}
		if cfg.SlotIncrementRaw != "" {
			d, err := time.ParseDuration(cfg.SlotIncrementRaw)
			if err != nil || d <= 0 {
				return Config{}, fmt.Errorf("config %s: invalid slot_increment %q", path, cfg.SlotIncrementRaw)
			}
			cfg.SlotIncrement = d
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.HTTPPort <= 0 {
		return Config{}, fmt.Errorf("config: http_port must be positive, got %d", cfg.HTTPPort)
	}
	if cfg.WatchWindowDays <= 0 {
		return Config{}, fmt.Errorf("config: watch_window_days must be positive, got %d", cfg.WatchWindowDays)
	}
	if strings.TrimSpace(cfg.SQLiteDSN) == "" {
		return Config{}, fmt.Errorf("config: sqlite_dsn must not be empty")
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	invalid := make([]string, 0, 2)

	if v := strings.TrimSpace(os.Getenv("ROOMRESERVE_HTTP_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			invalid = append(invalid, "ROOMRESERVE_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}
	if v := strings.TrimSpace(os.Getenv("ROOMRESERVE_SQLITE_DSN")); v != "" {
		cfg.SQLiteDSN = v
	}
	if v := strings.TrimSpace(os.Getenv("ROOMRESERVE_BUSY_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			invalid = append(invalid, "ROOMRESERVE_BUSY_TIMEOUT")
		} else {
			cfg.BusyTimeout = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("ROOMRESERVE_SLOT_INCREMENT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			invalid = append(invalid, "ROOMRESERVE_SLOT_INCREMENT")
		} else {
			cfg.SlotIncrement = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("ROOMRESERVE_WATCH_WINDOW_DAYS")); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			invalid = append(invalid, "ROOMRESERVE_WATCH_WINDOW_DAYS")
		} else {
			cfg.WatchWindowDays = days
		}
	}
	if v := strings.TrimSpace(os.Getenv("ROOMRESERVE_METRICS_ENABLED")); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			invalid = append(invalid, "ROOMRESERVE_METRICS_ENABLED")
		} else {
			cfg.MetricsEnabled = enabled
		}
	}
	if v := strings.TrimSpace(os.Getenv("ROOMRESERVE_METRICS_PATH")); v != "" {
		cfg.MetricsPath = v
	}
	if v := strings.TrimSpace(os.Getenv("ROOMRESERVE_MAPS_API_KEY")); v != "" {
		cfg.MapsAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("ROOMRESERVE_PHOTO_DIR")); v != "" {
		cfg.PhotoDir = v
	}
	if v := strings.TrimSpace(os.Getenv("ROOMRESERVE_PHOTO_BASE_URL")); v != "" {
		cfg.PhotoBaseURL = v
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// WatchWindow returns the half-open time window watched by room schedule
// subscriptions, starting at the beginning of from's day.
func (c Config) WatchWindow(from time.Time) (time.Time, time.Time) {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	return start, start.AddDate(0, 0, c.WatchWindowDays)
}
