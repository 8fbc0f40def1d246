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
)

// GetFlight returns the flight with the specified key hash, or nil if it doesn't exist
func (d *MetadataStoreSqlite) GetFlight(
	keyHash []byte,
	txn types.Txn,
) (*models.Flight, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Flight{}
	result := db.Where("key_hash = ?", keyHash).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetFlightsByAirline returns the flights registered by an airline
func (d *MetadataStoreSqlite) GetFlightsByAirline(
	airline []byte,
	txn types.Txn,
) ([]models.Flight, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Flight
	result := db.Where("airline = ?", airline).
		Order("timestamp, flight_code").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetFlight creates or updates a flight record
func (d *MetadataStoreSqlite) SetFlight(
	flight *models.Flight,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Save(flight); result.Error != nil {
		return fmt.Errorf("save flight: %w", result.Error)
	}
	return nil
}
