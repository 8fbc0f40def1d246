// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/phizercost/flight-surety/ledger/common"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "surety.config"

const (
	DefaultShutdownTimeout  = 30 * time.Second
	DefaultOracleRequestTTL = 24 * time.Hour
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// tempConfig detects an optional top-level config section
type tempConfig struct {
	Config yaml.Node `yaml:"config,omitempty"`
}

type Config struct {
	DatabasePath    string         `yaml:"databasePath"    split_words:"true"`
	BindAddr        string         `yaml:"bindAddr"        split_words:"true"`
	Owner           common.Address `yaml:"owner"`
	FirstAirline    common.Address `yaml:"firstAirline"    split_words:"true"`
	Webhooks        []string       `yaml:"webhooks"`
	ShutdownTimeout time.Duration  `yaml:"shutdownTimeout" split_words:"true"`
	ApiPort         uint           `yaml:"apiPort"         split_words:"true"`
	MetricsPort     uint           `yaml:"metricsPort"     split_words:"true"`
	// Ledger parameters. Zero values select the ledger defaults
	FundingThreshold    common.Amount `yaml:"fundingThreshold"    split_words:"true"`
	InsuranceCap        common.Amount `yaml:"insuranceCap"        split_words:"true"`
	RegistrationFee     common.Amount `yaml:"registrationFee"     split_words:"true"`
	MinConsensus        uint64        `yaml:"minConsensus"        split_words:"true"`
	MultipartyThreshold uint64        `yaml:"multipartyThreshold" split_words:"true"`
	BucketCount         uint8         `yaml:"bucketCount"         split_words:"true"`
	// Oracle request expiry. A zero TTL keeps requests open until consensus
	OracleRequestTTL time.Duration `yaml:"oracleRequestTtl" envconfig:"ORACLE_REQUEST_TTL"`
	SweepInterval    time.Duration `yaml:"sweepInterval"    split_words:"true"`
	// Webhook delivery tuning
	WebhookTimeout    time.Duration `yaml:"webhookTimeout"    split_words:"true"`
	WebhookMaxRetries uint64        `yaml:"webhookMaxRetries" split_words:"true"`
	// Tracing
	Tracing       bool `yaml:"tracing"`
	TracingStdout bool `yaml:"tracingStdout" split_words:"true"`
}

var globalConfig = defaultConfig()

func defaultConfig() *Config {
	return &Config{
		DatabasePath:     ".surety",
		BindAddr:         "0.0.0.0",
		ApiPort:          8080,
		MetricsPort:      12799,
		ShutdownTimeout:  DefaultShutdownTimeout,
		OracleRequestTTL: DefaultOracleRequestTTL,
		SweepInterval:    time.Minute,
	}
}

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.surety/surety.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".surety", "surety.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/surety/surety.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/surety/surety.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		var tempCfg tempConfig
		if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
		if !tempCfg.Config.IsZero() {
			// Overlay the config section onto existing defaults
			if err := tempCfg.Config.Decode(globalConfig); err != nil {
				return nil, fmt.Errorf("error parsing config section: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(buf, globalConfig); err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}
	}
	// Process environment variables
	if err := envconfig.Process("surety", globalConfig); err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}
	if err := globalConfig.validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func (c *Config) validate() error {
	if c.ApiPort > 65535 {
		return fmt.Errorf("invalid apiPort: %d", c.ApiPort)
	}
	if c.MetricsPort > 65535 {
		return fmt.Errorf("invalid metricsPort: %d", c.MetricsPort)
	}
	if c.ApiPort != 0 && c.ApiPort == c.MetricsPort {
		return errors.New("apiPort and metricsPort must differ")
	}
	if c.BucketCount != 0 && c.BucketCount < 3 {
		return fmt.Errorf(
			"invalid bucketCount: %d (must be at least 3)",
			c.BucketCount,
		)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("invalid shutdownTimeout: %s", c.ShutdownTimeout)
	}
	if c.OracleRequestTTL < 0 {
		return fmt.Errorf("invalid oracleRequestTtl: %s", c.OracleRequestTTL)
	}
	return nil
}

func GetConfig() *Config {
	return globalConfig
}
