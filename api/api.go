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

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/grpchealth"
)

const (
	DefaultListenAddress = ":8080"
	shutdownTimeout      = 30 * time.Second
	healthServiceName    = "surety.v1.Ledger"
)

type Config struct {
	ListenAddress string
}

// API is the JSON-over-HTTP surface of the ledger
type API struct {
	config     Config
	logger     *slog.Logger
	ledger     Ledger
	httpServer *http.Server
	listener   net.Listener
	mu         sync.Mutex
}

func New(
	cfg Config,
	ledger Ledger,
	logger *slog.Logger,
) *API {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	return &API{
		config: cfg,
		logger: logger,
		ledger: ledger,
	}
}

// Handler returns the request router. It does not require the server to be started
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.Handle(
		grpchealth.NewHandler(
			grpchealth.NewStaticChecker(healthServiceName),
		),
	)

	// Transitions
	mux.HandleFunc("POST /api/v1/setOperatingStatus", a.handleSetOperatingStatus)
	mux.HandleFunc("POST /api/v1/authorizeCaller", a.handleAuthorizeCaller)
	mux.HandleFunc("POST /api/v1/deauthorizeCaller", a.handleDeauthorizeCaller)
	mux.HandleFunc("POST /api/v1/fundAirline", a.handleFundAirline)
	mux.HandleFunc("POST /api/v1/registerAirline", a.handleRegisterAirline)
	mux.HandleFunc("POST /api/v1/voteAirline", a.handleVoteAirline)
	mux.HandleFunc(
		"POST /api/v1/changeAirlineFundingAmount",
		a.handleChangeAirlineFundingAmount,
	)
	mux.HandleFunc("POST /api/v1/registerFlight", a.handleRegisterFlight)
	mux.HandleFunc("POST /api/v1/updateFlightStatus", a.handleUpdateFlightStatus)
	mux.HandleFunc("POST /api/v1/fetchFlightStatus", a.handleFetchFlightStatus)
	mux.HandleFunc("POST /api/v1/registerOracle", a.handleRegisterOracle)
	mux.HandleFunc(
		"POST /api/v1/submitOracleResponse",
		a.handleSubmitOracleResponse,
	)
	mux.HandleFunc("POST /api/v1/buy", a.handleBuy)
	mux.HandleFunc("POST /api/v1/pay", a.handlePay)
	mux.HandleFunc("POST /api/v1/resolvePayout", a.handleResolvePayout)

	// Queries
	mux.HandleFunc("GET /api/v1/operational", a.handleOperational)
	mux.HandleFunc("GET /api/v1/settings", a.handleSettings)
	mux.HandleFunc("GET /api/v1/escrow", a.handleEscrow)
	mux.HandleFunc("GET /api/v1/payouts/pending", a.handlePendingPayouts)
	mux.HandleFunc("GET /api/v1/events", a.handleEvents)
	mux.HandleFunc("GET /api/v1/airlines", a.handleListAirlines)
	mux.HandleFunc("GET /api/v1/airlines/{addr}", a.handleAirline)
	mux.HandleFunc("GET /api/v1/airlines/{addr}/votes", a.handleAirlineVotes)
	mux.HandleFunc("GET /api/v1/airlines/{addr}/flights", a.handleAirlineFlights)
	mux.HandleFunc(
		"GET /api/v1/flights/{airline}/{flight}/{ts}",
		a.handleFlight,
	)
	mux.HandleFunc(
		"GET /api/v1/flights/{airline}/{flight}/{ts}/request",
		a.handleFlightRequest,
	)
	mux.HandleFunc(
		"GET /api/v1/policies/{passenger}/{airline}/{flight}/{ts}",
		a.handlePolicy,
	)
	mux.HandleFunc("GET /api/v1/oracles/{addr}", a.handleOracle)
	mux.HandleFunc("GET /api/v1/accounts/{addr}", a.handleAccount)
	return mux
}

// Start starts the HTTP server in a background goroutine
func (a *API) Start(
	ctx context.Context,
) error {
	a.mu.Lock()
	if a.httpServer != nil {
		a.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr:              a.config.ListenAddress,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	a.httpServer = server
	a.mu.Unlock()

	if err := a.startServer(server); err != nil {
		a.mu.Lock()
		a.httpServer = nil
		a.mu.Unlock()
		return err
	}

	a.logger.Info(
		"API listener started on " + a.Addr(),
	)

	go func() {
		<-ctx.Done()
		a.mu.Lock()
		srv := a.httpServer
		a.httpServer = nil
		a.mu.Unlock()

		if srv != nil {
			a.logger.Debug(
				"context cancelled, shutting down API server",
			)
			//nolint:contextcheck
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				shutdownTimeout,
			)
			defer cancel()
			//nolint:contextcheck
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error(
					"failed to shutdown API server on context cancellation",
					"error", err,
				)
			}
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server
func (a *API) Stop(
	ctx context.Context,
) error {
	a.mu.Lock()
	srv := a.httpServer
	a.httpServer = nil
	a.mu.Unlock()

	if srv != nil {
		a.logger.Debug("shutting down API server")
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf(
				"failed to shutdown API server: %w",
				err,
			)
		}
	}
	return nil
}

// Addr returns the bound listen address once the server is started, or the
// configured address otherwise
func (a *API) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return a.config.ListenAddress
}

// startServer binds the listening socket first so port conflicts are reported
// to the caller, then serves in a background goroutine
func (a *API) startServer(
	server *http.Server,
) error {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf(
			"failed to listen for API server: %w",
			err,
		)
	}
	a.mu.Lock()
	a.listener = ln
	a.mu.Unlock()
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			a.logger.Error(
				"API server error",
				"error", err,
			)
		}
	}()
	return nil
}
