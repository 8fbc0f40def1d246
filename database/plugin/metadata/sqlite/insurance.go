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

// GetInsurancePolicy returns the policy held by a passenger on a flight, or nil if it doesn't exist
func (d *MetadataStoreSqlite) GetInsurancePolicy(
	passenger []byte,
	flightKeyHash []byte,
	txn types.Txn,
) (*models.InsurancePolicy, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.InsurancePolicy{}
	result := db.Where(
		"passenger = ? AND flight_key_hash = ?",
		passenger,
		flightKeyHash,
	).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetInsurancePoliciesByFlight returns all policies on a flight
func (d *MetadataStoreSqlite) GetInsurancePoliciesByFlight(
	flightKeyHash []byte,
	txn types.Txn,
) ([]models.InsurancePolicy, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.InsurancePolicy
	result := db.Where("flight_key_hash = ?", flightKeyHash).
		Order("id").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetInsurancePolicy creates or updates a policy record
func (d *MetadataStoreSqlite) SetInsurancePolicy(
	policy *models.InsurancePolicy,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Save(policy); result.Error != nil {
		return fmt.Errorf("save insurance policy: %w", result.Error)
	}
	return nil
}

// GetPayout returns the payout with the specified ID, or nil if it doesn't exist
func (d *MetadataStoreSqlite) GetPayout(
	id uint,
	txn types.Txn,
) (*models.Payout, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Payout{}
	if result := db.First(ret, id); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetPayoutsByStatus returns payouts with the specified status, oldest first
func (d *MetadataStoreSqlite) GetPayoutsByStatus(
	status string,
	txn types.Txn,
) ([]models.Payout, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Payout
	if result := db.Where("status = ?", status).Order("id").Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetPayout creates or updates a payout record
func (d *MetadataStoreSqlite) SetPayout(
	payout *models.Payout,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Save(payout); result.Error != nil {
		return fmt.Errorf("save payout: %w", result.Error)
	}
	return nil
}
