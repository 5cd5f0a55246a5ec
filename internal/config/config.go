// Package config loads the CLI's configuration file: poll intervals,
// the validator check list, debounce interval, model name, and log
// verbosity (§1's ambient "Configuration" stack). BurntSushi/toml
// decodes the file itself — its array-of-tables support is what the
// validator check list (an ordered list of command + severity) needs
// and a generic map-based decode would lose ordering on; viper then
// layers environment-variable overrides on top of both the defaults
// and the file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/steveyegge/beads/internal/validator"
)

// Config is the CLI's resolved configuration, merged from defaults, an
// optional .beads/config.toml, and environment overrides, in that order.
type Config struct {
	PollInterval     time.Duration     `toml:"poll_interval"`
	DebounceInterval time.Duration     `toml:"debounce_interval"`
	Model            string            `toml:"model"`
	MaxIterations    int               `toml:"max_iterations"`
	MaxTokens        int               `toml:"max_tokens"`
	LogVerbosity     string            `toml:"log_verbosity"`
	LogFile          string            `toml:"log_file"`
	Checks           []validator.Check `toml:"checks"`
}

// fileShape mirrors Config's TOML layout but keeps Checks in the
// plain-string-duration form TOML arrays-of-tables actually produce;
// Check.Timeout is a time.Duration, which toml.Decode cannot populate
// from a bare TOML string, so that field is parsed separately.
type fileShape struct {
	PollInterval     string `toml:"poll_interval"`
	DebounceInterval string `toml:"debounce_interval"`
	Model            string `toml:"model"`
	MaxIterations    int    `toml:"max_iterations"`
	MaxTokens        int    `toml:"max_tokens"`
	LogVerbosity     string `toml:"log_verbosity"`
	LogFile          string `toml:"log_file"`
	Checks           []struct {
		Name     string   `toml:"name"`
		Severity string   `toml:"severity"`
		Command  []string `toml:"command"`
		Timeout  string   `toml:"timeout"`
	} `toml:"checks"`
}

// Defaults returns the configuration used when no file and no
// environment overrides are present.
func Defaults() Config {
	return Config{
		PollInterval:     100 * time.Millisecond,
		DebounceInterval: 100 * time.Millisecond,
		Model:            "claude-sonnet-4-5",
		MaxIterations:    25,
		MaxTokens:        8192,
		LogVerbosity:     "info",
	}
}

// Load reads path (a TOML file) over Defaults(), then applies
// environment overrides via Apply. path may not exist — that's not an
// error, it just means every field keeps its default.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			var raw fileShape
			if _, err := toml.DecodeFile(path, &raw); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
			if err := mergeFile(&cfg, raw); err != nil {
				return cfg, fmt.Errorf("config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func mergeFile(cfg *Config, raw fileShape) error {
	if raw.PollInterval != "" {
		d, err := time.ParseDuration(raw.PollInterval)
		if err != nil {
			return fmt.Errorf("poll_interval: %w", err)
		}
		cfg.PollInterval = d
	}
	if raw.DebounceInterval != "" {
		d, err := time.ParseDuration(raw.DebounceInterval)
		if err != nil {
			return fmt.Errorf("debounce_interval: %w", err)
		}
		cfg.DebounceInterval = d
	}
	if raw.Model != "" {
		cfg.Model = raw.Model
	}
	if raw.MaxIterations != 0 {
		cfg.MaxIterations = raw.MaxIterations
	}
	if raw.MaxTokens != 0 {
		cfg.MaxTokens = raw.MaxTokens
	}
	if raw.LogVerbosity != "" {
		cfg.LogVerbosity = raw.LogVerbosity
	}
	if raw.LogFile != "" {
		cfg.LogFile = raw.LogFile
	}

	if len(raw.Checks) > 0 {
		checks := make([]validator.Check, 0, len(raw.Checks))
		for _, c := range raw.Checks {
			timeout := 30 * time.Second
			if c.Timeout != "" {
				d, err := time.ParseDuration(c.Timeout)
				if err != nil {
					return fmt.Errorf("checks[%s].timeout: %w", c.Name, err)
				}
				timeout = d
			}
			checks = append(checks, validator.Check{
				Name:     c.Name,
				Severity: validator.Severity(c.Severity),
				Command:  c.Command,
				Timeout:  timeout,
			})
		}
		cfg.Checks = checks
	}

	return nil
}

// applyEnv layers §6.5's environment overrides on top of cfg: viper
// binds each key to its BD_-prefixed environment variable and, when
// set, wins over both the default and the file.
func applyEnv(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix("BD")
	v.AutomaticEnv()

	if s := v.GetString("LOG_VERBOSITY"); s != "" {
		cfg.LogVerbosity = s
	}
	if s := v.GetString("MODEL"); s != "" {
		cfg.Model = s
	}
	if v.IsSet("POLL_INTERVAL_MS") {
		cfg.PollInterval = time.Duration(v.GetInt("POLL_INTERVAL_MS")) * time.Millisecond
	}
}
