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

package metadata

import (
	"log/slog"

	"github.com/phizercost/flight-surety/database/models"
	"github.com/phizercost/flight-surety/database/plugin/metadata/sqlite"
	"github.com/phizercost/flight-surety/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn

	// Settings and access control
	GetSetting(types.Txn) (*models.Setting, error)
	SetSetting(*models.Setting, types.Txn) error
	IsCallerAuthorized([]byte, types.Txn) (bool, error)
	AddAuthorizedCaller([]byte, types.Txn) error
	DeleteAuthorizedCaller([]byte, types.Txn) error

	// Airlines
	GetAirline([]byte, types.Txn) (*models.Airline, error)
	GetAirlines(types.Txn) ([]models.Airline, error)
	SetAirline(*models.Airline, types.Txn) error
	CountAuthorizedAirlines(
		[]byte, // exclude
		types.Txn,
	) (uint64, error)
	AddAirlineVote(*models.AirlineVote, types.Txn) (bool, error)
	GetAirlineVotes(
		[]byte, // candidate
		types.Txn,
	) ([]models.AirlineVote, error)

	// Flights
	GetFlight(
		[]byte, // keyHash
		types.Txn,
	) (*models.Flight, error)
	GetFlightsByAirline([]byte, types.Txn) ([]models.Flight, error)
	SetFlight(*models.Flight, types.Txn) error

	// Oracles
	GetOracle([]byte, types.Txn) (*models.Oracle, error)
	SetOracle(*models.Oracle, types.Txn) error
	CountOracles(types.Txn) (uint64, error)
	GetOracleRequest(
		[]byte, // flightKeyHash
		types.Txn,
	) (*models.OracleRequest, error)
	GetOpenOracleRequestsBefore(
		int64, // openedBefore
		types.Txn,
	) ([]models.OracleRequest, error)
	SetOracleRequest(*models.OracleRequest, types.Txn) error
	AddOracleResponse(*models.OracleResponse, types.Txn) (bool, error)
	CountOracleResponses(
		uint, // requestID
		uint8, // statusCode
		types.Txn,
	) (uint64, error)
	GetOracleResponses(uint, types.Txn) ([]models.OracleResponse, error)
	DeleteOracleResponses(uint, types.Txn) error

	// Insurance
	GetInsurancePolicy(
		[]byte, // passenger
		[]byte, // flightKeyHash
		types.Txn,
	) (*models.InsurancePolicy, error)
	GetInsurancePoliciesByFlight(
		[]byte, // flightKeyHash
		types.Txn,
	) ([]models.InsurancePolicy, error)
	SetInsurancePolicy(*models.InsurancePolicy, types.Txn) error
	GetPayout(uint, types.Txn) (*models.Payout, error)
	GetPayoutsByStatus(string, types.Txn) ([]models.Payout, error)
	SetPayout(*models.Payout, types.Txn) error

	// Accounts
	GetAccount([]byte, types.Txn) (*models.Account, error)
	AddAccountBalance(
		[]byte, // address
		uint64, // amount
		types.Txn,
	) (uint64, error)
}

// New returns the sqlite metadata store
func New(
	dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (MetadataStore, error) {
	return sqlite.New(dataDir, logger, promRegistry)
}
