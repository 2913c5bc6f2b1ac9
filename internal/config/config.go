package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all configuration for the satfield CLI. It is loaded once per
// invocation; there is no long-lived process to reconfigure.
type Config struct {
	EE     EEConfig
	Output OutputConfig
}

// EEConfig configures the connection to the remote compute service.
type EEConfig struct {
	BaseURL string
	Project string
	// ServiceAccountKey is the raw service-account key JSON. It must contain
	// client_email and private_key; anything else is an initialization
	// error raised before any work is attempted.
	ServiceAccountKey string
	Timeout           time.Duration
}

// OutputConfig holds defaults for export destinations.
type OutputConfig struct {
	DriveFolder string
}

// serviceAccountKey is the subset of the key JSON we validate eagerly. The
// full key is handed to the OAuth layer untouched.
type serviceAccountKey struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// Load reads configuration from environment variables and returns a validated
// Config. Returns an error with a descriptive message if any required value
// is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		EE: EEConfig{
			BaseURL:           envString("EE_BASE_URL", "https://earthengine.googleapis.com"),
			Project:           os.Getenv("EE_PROJECT"),
			ServiceAccountKey: os.Getenv("EE_SERVICE_ACCOUNT_KEY"),
			Timeout:           envDuration("EE_TIMEOUT", 60*time.Second),
		},
		Output: OutputConfig{
			DriveFolder: envString("SATFIELD_DRIVE_FOLDER", "SatfieldOutputs"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if !strings.HasPrefix(c.EE.BaseURL, "http://") && !strings.HasPrefix(c.EE.BaseURL, "https://") {
		return fmt.Errorf("EE_BASE_URL must start with http:// or https://, got %q", c.EE.BaseURL)
	}

	if c.EE.Project == "" {
		return fmt.Errorf("EE_PROJECT is required")
	}

	if c.EE.ServiceAccountKey == "" {
		return fmt.Errorf("EE_SERVICE_ACCOUNT_KEY is required")
	}
	var key serviceAccountKey
	if err := json.Unmarshal([]byte(c.EE.ServiceAccountKey), &key); err != nil {
		return fmt.Errorf("EE_SERVICE_ACCOUNT_KEY is not valid JSON: %v", err)
	}
	if key.ClientEmail == "" || key.PrivateKey == "" {
		return fmt.Errorf("EE_SERVICE_ACCOUNT_KEY must contain client_email and private_key")
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
