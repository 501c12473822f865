package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Instrument struct {
		IndexSymbol string `yaml:"index_symbol"`
		IndexTitle  string `yaml:"index_title"`
	} `yaml:"instrument"`
	Session struct {
		Timezone string `yaml:"timezone"`
		Open     string `yaml:"open"`
		Close    string `yaml:"close"`
	} `yaml:"session"`
	Chart struct {
		IndexHeight  int   `yaml:"index_height"`
		OptionHeight int   `yaml:"option_height"`
		ShowLevels   *bool `yaml:"show_levels"`
	} `yaml:"chart"`
	Classifier struct {
		Mode         string   `yaml:"mode"` // "substring" or "regex"
		CallPatterns []string `yaml:"call_patterns"`
		PutPatterns  []string `yaml:"put_patterns"`
		CallRegex    string   `yaml:"call_regex"`
		PutRegex     string   `yaml:"put_regex"`
	} `yaml:"classifier"`
	Dashboard struct {
		ShowUnclassified bool `yaml:"show_unclassified"`
	} `yaml:"dashboard"`
	Catalog struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"catalog"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error; defaults cover every field.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("PORT"); v != "" && cfg.Server.Addr == "" {
		cfg.Server.Addr = ":" + v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SESSION_TZ"); v != "" {
		cfg.Session.Timezone = v
	}
	if v := os.Getenv("REFRESH_CRON"); v != "" {
		cfg.Catalog.RefreshCron = v
	}
	if v := os.Getenv("SHOW_UNCLASSIFIED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Dashboard.ShowUnclassified = b
		}
	}

	// Defaults
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "nifty_data.db"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8501"
	}
	if cfg.Instrument.IndexSymbol == "" {
		cfg.Instrument.IndexSymbol = "NIFTY"
	}
	if cfg.Instrument.IndexTitle == "" {
		cfg.Instrument.IndexTitle = "Nifty 50"
	}
	if cfg.Session.Timezone == "" {
		cfg.Session.Timezone = "Asia/Kolkata"
	}
	if cfg.Session.Open == "" {
		cfg.Session.Open = "09:15"
	}
	if cfg.Session.Close == "" {
		cfg.Session.Close = "15:30"
	}
	if cfg.Chart.IndexHeight == 0 {
		cfg.Chart.IndexHeight = 500
	}
	if cfg.Chart.OptionHeight == 0 {
		cfg.Chart.OptionHeight = 450
	}
	if cfg.Chart.ShowLevels == nil {
		show := true
		cfg.Chart.ShowLevels = &show
	}
	if cfg.Classifier.Mode == "" {
		cfg.Classifier.Mode = "substring"
	}
	if len(cfg.Classifier.CallPatterns) == 0 {
		cfg.Classifier.CallPatterns = []string{"CE", "CALL", "C"}
	}
	if len(cfg.Classifier.PutPatterns) == 0 {
		cfg.Classifier.PutPatterns = []string{"PE", "PUT", "P"}
	}
	if cfg.Catalog.RefreshCron == "" {
		cfg.Catalog.RefreshCron = "0 * * * * *"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Session.Timezone); err != nil {
		return fmt.Errorf("session.timezone: %w", err)
	}
	open, close, err := c.SessionBounds()
	if err != nil {
		return err
	}
	if open >= close {
		return fmt.Errorf("session.open %s must be before session.close %s", c.Session.Open, c.Session.Close)
	}
	if c.Chart.IndexHeight < 0 || c.Chart.OptionHeight < 0 {
		return fmt.Errorf("chart heights must not be negative")
	}
	switch c.Classifier.Mode {
	case "substring":
	case "regex":
		if c.Classifier.CallRegex == "" || c.Classifier.PutRegex == "" {
			return fmt.Errorf("classifier.call_regex and classifier.put_regex are required in regex mode")
		}
	default:
		return fmt.Errorf("classifier.mode %q is not supported", c.Classifier.Mode)
	}
	return nil
}

// Location returns the session time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Session.Timezone)
}

// SessionBounds returns the session open and close as offsets from midnight.
func (c *Config) SessionBounds() (open, close time.Duration, err error) {
	if open, err = parseClock(c.Session.Open); err != nil {
		return 0, 0, fmt.Errorf("session.open: %w", err)
	}
	if close, err = parseClock(c.Session.Close); err != nil {
		return 0, 0, fmt.Errorf("session.close: %w", err)
	}
	return open, close, nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
