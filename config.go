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

package surety

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/phizercost/flight-surety/ledger"
	"github.com/phizercost/flight-surety/ledger/common"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultShutdownTimeout = 30 * time.Second

type Config struct {
	promRegistry      prometheus.Registerer
	logger            *slog.Logger
	transferer        ledger.Transferer
	dataDir           string
	apiListenAddress  string
	webhookURLs       []string
	ledgerParams      ledger.Params
	owner             common.Address
	firstAirline      common.Address
	oracleRequestTTL  time.Duration
	sweepInterval     time.Duration
	webhookTimeout    time.Duration
	webhookMaxRetries uint64
	shutdownTimeout   time.Duration
	tracing           bool
	tracingStdout     bool
}

func (c *Config) validate() error {
	if c.oracleRequestTTL < 0 {
		return errors.New("oracle request TTL must not be negative")
	}
	if c.shutdownTimeout < 0 {
		return errors.New("shutdown timeout must not be negative")
	}
	for _, url := range c.webhookURLs {
		if url == "" {
			return errors.New("empty webhook URL")
		}
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new node config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithOwner specifies the ledger owner. It is only used when the ledger is first created
func WithOwner(owner common.Address) ConfigOptionFunc {
	return func(c *Config) {
		c.owner = owner
	}
}

// WithFirstAirline specifies the airline allowed to register airlines before any is authorized
func WithFirstAirline(airline common.Address) ConfigOptionFunc {
	return func(c *Config) {
		c.firstAirline = airline
	}
}

// WithLedgerParams specifies the ledger parameters. Zero fields select the ledger defaults
func WithLedgerParams(params ledger.Params) ConfigOptionFunc {
	return func(c *Config) {
		c.ledgerParams = params
	}
}

// WithOracleRequestTTL specifies how long a flight status request stays open. Zero disables expiry
func WithOracleRequestTTL(ttl time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.oracleRequestTTL = ttl
	}
}

// WithSweepInterval specifies how often expired flight status requests are closed
func WithSweepInterval(interval time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.sweepInterval = interval
	}
}

// WithTransferer specifies where insurance payouts are sent. The default credits internal accounts
func WithTransferer(transferer ledger.Transferer) ConfigOptionFunc {
	return func(c *Config) {
		c.transferer = transferer
	}
}

// WithApiListenAddress specifies the listen address for the HTTP API. An empty address disables the API
func WithApiListenAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = address
	}
}

// WithWebhooks specifies URLs that receive every ledger event as JSON
func WithWebhooks(urls ...string) ConfigOptionFunc {
	return func(c *Config) {
		c.webhookURLs = urls
	}
}

// WithWebhookDelivery tunes webhook delivery. Zero values select the defaults
func WithWebhookDelivery(timeout time.Duration, maxRetries uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.webhookTimeout = timeout
		c.webhookMaxRetries = maxRetries
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
