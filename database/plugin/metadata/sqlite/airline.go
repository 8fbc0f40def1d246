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

// GetAirline returns the airline with the specified address, or nil if it doesn't exist
func (d *MetadataStoreSqlite) GetAirline(
	address []byte,
	txn types.Txn,
) (*models.Airline, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Airline{}
	result := db.Where("address = ?", address).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetAirlines returns all known airlines in creation order
func (d *MetadataStoreSqlite) GetAirlines(
	txn types.Txn,
) ([]models.Airline, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Airline
	if result := db.Order("id").Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetAirline creates or updates an airline record
func (d *MetadataStoreSqlite) SetAirline(
	airline *models.Airline,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Save(airline); result.Error != nil {
		return fmt.Errorf("save airline: %w", result.Error)
	}
	return nil
}

// CountAuthorizedAirlines returns the number of authorized airlines, ignoring
// the specified address
func (d *MetadataStoreSqlite) CountAuthorizedAirlines(
	exclude []byte,
	txn types.Txn,
) (uint64, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var count int64
	query := db.Model(&models.Airline{}).Where("authorized = ?", true)
	if exclude != nil {
		query = query.Where("address <> ?", exclude)
	}
	if result := query.Count(&count); result.Error != nil {
		return 0, result.Error
	}
	return uint64(count), nil //nolint:gosec
}

// AddAirlineVote records a vote. It returns false when the voter had already
// voted for the candidate
func (d *MetadataStoreSqlite) AddAirlineVote(
	vote *models.AirlineVote,
	txn types.Txn,
) (bool, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return false, err
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(vote)
	if result.Error != nil {
		return false, fmt.Errorf("add airline vote: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// GetAirlineVotes returns the votes cast for a candidate in the order they were cast
func (d *MetadataStoreSqlite) GetAirlineVotes(
	candidate []byte,
	txn types.Txn,
) ([]models.AirlineVote, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.AirlineVote
	result := db.Where("candidate = ?", candidate).Order("sequence").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
