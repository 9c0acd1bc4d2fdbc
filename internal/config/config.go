package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	DBPath            string        `envconfig:"DB_PATH" default:":memory:"`
	InactivityTimeout time.Duration `envconfig:"INACTIVITY_TIMEOUT" default:"120s"`
	LoanApprovalDelay time.Duration `envconfig:"LOAN_APPROVAL_DELAY" default:"3s"`
	LogFormat         string        `envconfig:"LOG_FORMAT" default:"pretty"`
	SeedDemoData      bool          `envconfig:"SEED_DEMO_DATA" default:"true"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
