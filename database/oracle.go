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

package database

import (
	"github.com/phizercost/flight-surety/database/models"
	"github.com/phizercost/flight-surety/ledger/common"
)

// GetOracle returns the oracle record for an address, or nil if it doesn't exist
func (d *Database) GetOracle(
	addr common.Address,
	txn *Txn,
) (*models.Oracle, error) {
	return d.metadata.GetOracle(addr.Bytes(), metadataTxn(txn))
}

func (d *Database) SetOracle(oracle *models.Oracle, txn *Txn) error {
	return d.metadata.SetOracle(oracle, metadataTxn(txn))
}

func (d *Database) CountOracles(txn *Txn) (uint64, error) {
	return d.metadata.CountOracles(metadataTxn(txn))
}

// GetOracleRequest returns the status request for a flight, or nil if none was ever opened
func (d *Database) GetOracleRequest(
	key common.FlightKey,
	txn *Txn,
) (*models.OracleRequest, error) {
	keyHash := key.Hash()
	return d.metadata.GetOracleRequest(keyHash.Bytes(), metadataTxn(txn))
}

// GetOpenOracleRequestsBefore returns open requests opened before the unix millisecond timestamp
func (d *Database) GetOpenOracleRequestsBefore(
	openedBefore int64,
	txn *Txn,
) ([]models.OracleRequest, error) {
	return d.metadata.GetOpenOracleRequestsBefore(openedBefore, metadataTxn(txn))
}

func (d *Database) SetOracleRequest(
	request *models.OracleRequest,
	txn *Txn,
) error {
	return d.metadata.SetOracleRequest(request, metadataTxn(txn))
}

// AddOracleResponse records a response and returns false if the oracle already responded
func (d *Database) AddOracleResponse(
	response *models.OracleResponse,
	txn *Txn,
) (bool, error) {
	return d.metadata.AddOracleResponse(response, metadataTxn(txn))
}

// CountOracleResponses returns the number of distinct oracles reporting a status code for a request
func (d *Database) CountOracleResponses(
	requestID uint,
	statusCode common.StatusCode,
	txn *Txn,
) (uint64, error) {
	return d.metadata.CountOracleResponses(
		requestID,
		uint8(statusCode),
		metadataTxn(txn),
	)
}

func (d *Database) GetOracleResponses(
	requestID uint,
	txn *Txn,
) ([]models.OracleResponse, error) {
	return d.metadata.GetOracleResponses(requestID, metadataTxn(txn))
}

func (d *Database) DeleteOracleResponses(requestID uint, txn *Txn) error {
	return d.metadata.DeleteOracleResponses(requestID, metadataTxn(txn))
}
