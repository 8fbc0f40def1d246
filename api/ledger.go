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

	"github.com/phizercost/flight-surety/event"
	"github.com/phizercost/flight-surety/ledger"
	"github.com/phizercost/flight-surety/ledger/common"
)

// Ledger is the set of ledger operations served over HTTP. It is satisfied by
// *ledger.LedgerState and lets handlers be tested against mocks
type Ledger interface {
	IsOperational(ctx context.Context) (bool, error)
	SetOperatingStatus(ctx context.Context, operational bool, caller common.Address) error
	AuthorizeCaller(ctx context.Context, addr common.Address, caller common.Address) error
	DeauthorizeCaller(ctx context.Context, addr common.Address, caller common.Address) error

	FundAirline(ctx context.Context, airline common.Address, amount common.Amount) error
	RegisterAirline(
		ctx context.Context,
		newAirline common.Address,
		code string,
		name string,
		registrar common.Address,
	) error
	VoteAirline(ctx context.Context, voter common.Address, candidate common.Address) error
	ChangeAirlineFundingAmount(
		ctx context.Context,
		amount common.Amount,
		caller common.Address,
	) error
	GetAirlineDetails(ctx context.Context, addr common.Address) (*ledger.AirlineDetails, error)
	GetAirlineVoters(ctx context.Context, addr common.Address) ([]common.Address, error)
	ListAirlines(ctx context.Context) ([]ledger.AirlineDetails, error)

	RegisterFlight(
		ctx context.Context,
		airline common.Address,
		flightCode string,
		timestamp int64,
		caller common.Address,
	) error
	UpdateFlightStatus(
		ctx context.Context,
		key common.FlightKey,
		statusCode common.StatusCode,
		caller common.Address,
	) error
	GetFlight(ctx context.Context, key common.FlightKey) (*ledger.FlightInfo, error)
	ListFlights(ctx context.Context, airline common.Address) ([]ledger.FlightInfo, error)

	RegisterOracle(ctx context.Context, caller common.Address, fee common.Amount) error
	FetchFlightStatus(ctx context.Context, key common.FlightKey, caller common.Address) error
	SubmitOracleResponse(
		ctx context.Context,
		index uint8,
		key common.FlightKey,
		statusCode common.StatusCode,
		caller common.Address,
	) error
	GetOracle(ctx context.Context, addr common.Address) (*ledger.OracleInfo, error)
	GetOracleRequest(ctx context.Context, key common.FlightKey) (*ledger.OracleRequestInfo, error)

	Buy(
		ctx context.Context,
		passenger common.Address,
		key common.FlightKey,
		amount common.Amount,
	) error
	Pay(
		ctx context.Context,
		passenger common.Address,
		key common.FlightKey,
		caller common.Address,
	) (common.Amount, error)
	GetPolicy(
		ctx context.Context,
		passenger common.Address,
		key common.FlightKey,
	) (*ledger.PolicyInfo, error)
	GetPendingPayouts(ctx context.Context) ([]ledger.PayoutInfo, error)
	ResolvePayout(
		ctx context.Context,
		payoutID uint,
		transferred bool,
		caller common.Address,
	) error
	GetEscrowBalance(ctx context.Context) (common.Amount, error)
	GetAccountBalance(ctx context.Context, addr common.Address) (common.Amount, error)

	Settings(ctx context.Context) (*ledger.SettingsInfo, error)
	Journal(ctx context.Context, since uint64, limit int) ([]event.Event, error)
}

var _ Ledger = (*ledger.LedgerState)(nil)
