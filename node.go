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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/phizercost/flight-surety/api"
	"github.com/phizercost/flight-surety/event"
	"github.com/phizercost/flight-surety/ledger"
)

type Node struct {
	eventBus      *event.EventBus
	ledgerState   *ledger.LedgerState
	webhook       *event.WebhookSubscriber
	api           *api.API
	shutdownFuncs []func(context.Context) error
	config        Config
	done          chan struct{}
	mu            sync.Mutex
	startOnce     sync.Once
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	n := &Node{
		config:   cfg,
		eventBus: event.NewEventBus(cfg.promRegistry, cfg.logger),
		done:     make(chan struct{}),
	}
	return n, nil
}

// Start brings up the ledger, webhook delivery and the API, then returns. Call Stop
// to release resources, including after a failed Start
func (n *Node) Start(ctx context.Context) error {
	err := errors.New("node already started")
	n.startOnce.Do(func() {
		err = n.start(ctx)
	})
	return err
}

func (n *Node) start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(ctx); err != nil {
			return err
		}
	}
	// Load state
	state, err := ledger.NewLedgerState(
		ledger.LedgerStateConfig{
			Logger:           n.config.logger,
			EventBus:         n.eventBus,
			PromRegistry:     n.config.promRegistry,
			Transferer:       n.config.transferer,
			DataDir:          n.config.dataDir,
			Params:           n.config.ledgerParams,
			Owner:            n.config.owner,
			FirstAirline:     n.config.firstAirline,
			OracleRequestTTL: n.config.oracleRequestTTL,
			SweepInterval:    n.config.sweepInterval,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to load ledger state: %w", err)
	}
	n.ledgerState = state
	// Deliver events to oracle workers
	if len(n.config.webhookURLs) > 0 {
		webhook, err := event.NewWebhookSubscriber(
			event.WebhookConfig{
				Logger:       n.config.logger,
				PromRegistry: n.config.promRegistry,
				URLs:         n.config.webhookURLs,
				Timeout:      n.config.webhookTimeout,
				MaxRetries:   n.config.webhookMaxRetries,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to configure webhooks: %w", err)
		}
		n.webhook = webhook
		webhook.Subscribe(n.eventBus, ledger.EventTypes...)
	}
	// Configure API
	if n.config.apiListenAddress != "" {
		n.api = api.New(
			api.Config{
				ListenAddress: n.config.apiListenAddress,
			},
			n.ledgerState,
			n.config.logger,
		)
		if err := n.api.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Run starts the node and blocks until the context is cancelled or Stop is called
func (n *Node) Run(ctx context.Context) error {
	if err := n.Start(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-n.done:
	}
	return nil
}

// LedgerState returns the node's ledger, or nil before Start
func (n *Node) LedgerState() *ledger.LedgerState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ledgerState
}

// ApiAddr returns the bound API address, or an empty string when the API is disabled
func (n *Node) ApiAddr() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.api == nil {
		return ""
	}
	return n.api.Addr()
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	shutdownTimeout := DefaultShutdownTimeout
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	n.mu.Lock()
	defer n.mu.Unlock()

	var err error

	n.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}

	// Phase 2: Flush state and close database
	if n.ledgerState != nil {
		if closeErr := n.ledgerState.Close(); closeErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("ledger state close: %w", closeErr),
			)
		}
	}

	// Phase 3: Cleanup resources. Stopping the bus also closes the webhook
	n.eventBus.Stop()
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	n.config.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}
