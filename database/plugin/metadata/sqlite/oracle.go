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

package sqlite

import (
	"errors"
	"fmt"

	"github.com/phizercost/flight-surety/database/models"
	"github.com/phizercost/flight-surety/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetOracle returns the oracle with the specified address, or nil if it doesn't exist
func (d *MetadataStoreSqlite) GetOracle(
	address []byte,
	txn types.Txn,
) (*models.Oracle, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Oracle{}
	result := db.Where("address = ?", address).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// SetOracle creates or updates an oracle record
func (d *MetadataStoreSqlite) SetOracle(
	oracle *models.Oracle,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Save(oracle); result.Error != nil {
		return fmt.Errorf("save oracle: %w", result.Error)
	}
	return nil
}

// CountOracles returns the number of registered oracles
func (d *MetadataStoreSqlite) CountOracles(txn types.Txn) (uint64, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var count int64
	if result := db.Model(&models.Oracle{}).Count(&count); result.Error != nil {
		return 0, result.Error
	}
	return uint64(count), nil //nolint:gosec
}

// GetOracleRequest returns the request for a flight key hash, or nil if it doesn't exist
func (d *MetadataStoreSqlite) GetOracleRequest(
	flightKeyHash []byte,
	txn types.Txn,
) (*models.OracleRequest, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.OracleRequest{}
	result := db.Where("flight_key_hash = ?", flightKeyHash).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetOpenOracleRequestsBefore returns open requests opened before the
// specified unix millisecond timestamp
func (d *MetadataStoreSqlite) GetOpenOracleRequestsBefore(
	openedBefore int64,
	txn types.Txn,
) ([]models.OracleRequest, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.OracleRequest
	result := db.Where("is_open = ? AND opened_at < ?", true, openedBefore).
		Order("id").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetOracleRequest creates or updates an oracle request record
func (d *MetadataStoreSqlite) SetOracleRequest(
	request *models.OracleRequest,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Save(request); result.Error != nil {
		return fmt.Errorf("save oracle request: %w", result.Error)
	}
	return nil
}

// AddOracleResponse records a response. It returns false when the oracle had
// already responded to the request
func (d *MetadataStoreSqlite) AddOracleResponse(
	response *models.OracleResponse,
	txn types.Txn,
) (bool, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return false, err
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(response)
	if result.Error != nil {
		return false, fmt.Errorf("add oracle response: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// CountOracleResponses returns the number of distinct oracles that reported
// the status code for a request
func (d *MetadataStoreSqlite) CountOracleResponses(
	requestID uint,
	statusCode uint8,
	txn types.Txn,
) (uint64, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var count int64
	result := db.Model(&models.OracleResponse{}).
		Where("request_id = ? AND status_code = ?", requestID, statusCode).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return uint64(count), nil //nolint:gosec
}

// GetOracleResponses returns the responses for a request in arrival order
func (d *MetadataStoreSqlite) GetOracleResponses(
	requestID uint,
	txn types.Txn,
) ([]models.OracleResponse, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.OracleResponse
	result := db.Where("request_id = ?", requestID).
		Order("sequence").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// DeleteOracleResponses removes all responses for a request
func (d *MetadataStoreSqlite) DeleteOracleResponses(
	requestID uint,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Where("request_id = ?", requestID).
		Delete(&models.OracleResponse{})
	if result.Error != nil {
		return fmt.Errorf("delete oracle responses: %w", result.Error)
	}
	return nil
}
