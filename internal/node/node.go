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

package node

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os"
	"os/signal"
	"syscall"
	"time"

	surety "github.com/phizercost/flight-surety"
	"github.com/phizercost/flight-surety/internal/config"
	"github.com/phizercost/flight-surety/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LedgerParams converts the configured ledger parameters
func LedgerParams(cfg *config.Config) ledger.Params {
	return ledger.Params{
		FundingThreshold:    cfg.FundingThreshold,
		InsuranceCap:        cfg.InsuranceCap,
		RegistrationFee:     cfg.RegistrationFee,
		MinConsensus:        cfg.MinConsensus,
		MultipartyThreshold: cfg.MultipartyThreshold,
		BucketCount:         cfg.BucketCount,
	}
}

// NodeOptions builds the node options for a loaded config
func NodeOptions(cfg *config.Config, logger *slog.Logger) []surety.ConfigOptionFunc {
	opts := []surety.ConfigOptionFunc{
		surety.WithLogger(logger),
		surety.WithDatabasePath(cfg.DatabasePath),
		surety.WithOwner(cfg.Owner),
		surety.WithFirstAirline(cfg.FirstAirline),
		surety.WithLedgerParams(LedgerParams(cfg)),
		surety.WithOracleRequestTTL(cfg.OracleRequestTTL),
		surety.WithSweepInterval(cfg.SweepInterval),
		surety.WithWebhooks(cfg.Webhooks...),
		surety.WithWebhookDelivery(cfg.WebhookTimeout, cfg.WebhookMaxRetries),
		surety.WithShutdownTimeout(cfg.ShutdownTimeout),
		surety.WithTracing(cfg.Tracing),
		surety.WithTracingStdout(cfg.TracingStdout),
		// Enable metrics with default prometheus registry
		surety.WithPrometheusRegistry(prometheus.DefaultRegisterer),
	}
	if cfg.ApiPort > 0 {
		opts = append(
			opts,
			surety.WithApiListenAddress(
				fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.ApiPort),
			),
		)
	}
	return opts
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")

	shutdownTimeout := config.DefaultShutdownTimeout
	if cfg.ShutdownTimeout > 0 {
		shutdownTimeout = cfg.ShutdownTimeout
	}

	n, err := surety.New(
		surety.NewConfig(NodeOptions(cfg, logger)...),
	)
	if err != nil {
		return err
	}
	// Metrics and debug listener
	var metricsServer *http.Server
	if cfg.MetricsPort > 0 {
		http.Handle("/metrics", promhttp.Handler())
		metricsAddr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.MetricsPort)
		logger.Info(
			"serving prometheus metrics on "+metricsAddr,
			"component",
			"node",
		)
		metricsServer = &http.Server{
			Addr:              metricsAddr,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				err != http.ErrServerClosed {
				logger.Error(
					fmt.Sprintf("failed to start metrics listener: %s", err),
					"component", "node",
				)
				os.Exit(1)
			}
		}()
	}
	shutdownMetrics := func() {
		if metricsServer == nil {
			return
		}
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	// Run node in goroutine
	errChan := make(chan error, 1)
	go func() {
		//nolint:contextcheck
		err := n.Run(signalCtx)
		select {
		case errChan <- err:
		case <-signalCtx.Done():
		}
	}()

	// Wait for signal or error
	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")
		shutdownMetrics()
		if err := n.Stop(); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
			return err
		}
		logger.Info("shutdown complete")
		return nil

	case err := <-errChan:
		shutdownMetrics()
		if err == nil {
			logger.Info("node stopped")
			if err := n.Stop(); err != nil {
				logger.Error("shutdown errors occurred", "error", err)
				return err
			}
			return nil
		}
		logger.Error("node error", "error", err)
		signalCtxStop()
		if stopErr := n.Stop(); stopErr != nil {
			logger.Error(
				"shutdown errors occurred during error cleanup",
				"error",
				stopErr,
			)
		}
		return err
	}
}
