// Package config centralizes runtime configuration for ledgerdash. It loads a
// YAML or JSON configuration file and exposes a process-wide configuration
// with sensible defaults. Development runs use defaults when the file is not
// present. Operators may point CONFIG_FILE at a different path, and the
// ledger location and poll period can be overridden from the environment.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvConfigFile   = "CONFIG_FILE"
	EnvAPIURL       = "LEDGER_API_URL"
	EnvPollInterval = "LEDGER_POLL_INTERVAL"
	EnvPort         = "PORT"
)

// Config holds configurable options for ledgerdash.
type Config struct {
	APIURL         string        `yaml:"api_url"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RenderWait     time.Duration `yaml:"render_wait"`
	Port           int           `yaml:"port"`
	LogFile        string        `yaml:"log_file"`
	LogMaxSizeMB   int           `yaml:"log_max_size_mb"`
	LogMaxAgeDays  int           `yaml:"log_max_age_days"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	return &Config{
		APIURL:         "http://localhost:5000",
		PollInterval:   10 * time.Second,
		RequestTimeout: 10 * time.Second,
		RenderWait:     2 * time.Second,
		Port:           3000,
		LogFile:        "ledgerdash.log",
		LogMaxSizeMB:   10,
		LogMaxAgeDays:  7,
	}
}

// LoadConfig reads a YAML or JSON file at path. If the file does not exist
// or cannot be parsed, LoadConfig falls back to defaults (and no error) so
// that the dashboard runs in development with minimal friction. Environment
// overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	def := Defaults()

	c := *def
	if path != "" {
		if b, err := os.ReadFile(path); err != nil {
			log.Printf("config: %s unreadable, using defaults: %v", path, err)
		} else if err := yaml.Unmarshal(b, &c); err != nil {
			log.Printf("config: %s invalid, using defaults: %v", path, err)
			c = *def
		}
	}

	// merge defaults for any zero-value fields
	if c.APIURL == "" {
		c.APIURL = def.APIURL
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.RenderWait < 0 {
		c.RenderWait = def.RenderWait
	}
	if c.Port == 0 {
		c.Port = def.Port
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = def.LogMaxSizeMB
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = def.LogMaxAgeDays
	}

	applyEnv(&c)

	return &c, nil
}

func applyEnv(c *Config) {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(EnvPollInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Printf("config: invalid %s value %q, keeping %s", EnvPollInterval, v, c.PollInterval)
		} else {
			c.PollInterval = d
		}
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			log.Printf("config: invalid %s value %q, keeping %d", EnvPort, v, c.Port)
		} else {
			c.Port = port
		}
	}
}

