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

// GetInsurancePolicy returns the policy for a passenger and flight, or nil if it doesn't exist
func (d *Database) GetInsurancePolicy(
	passenger common.Address,
	key common.FlightKey,
	txn *Txn,
) (*models.InsurancePolicy, error) {
	keyHash := key.Hash()
	return d.metadata.GetInsurancePolicy(
		passenger.Bytes(),
		keyHash.Bytes(),
		metadataTxn(txn),
	)
}

// GetInsurancePoliciesByFlight returns all policies on a flight
func (d *Database) GetInsurancePoliciesByFlight(
	key common.FlightKey,
	txn *Txn,
) ([]models.InsurancePolicy, error) {
	keyHash := key.Hash()
	return d.metadata.GetInsurancePoliciesByFlight(
		keyHash.Bytes(),
		metadataTxn(txn),
	)
}

func (d *Database) SetInsurancePolicy(
	policy *models.InsurancePolicy,
	txn *Txn,
) error {
	return d.metadata.SetInsurancePolicy(policy, metadataTxn(txn))
}

func (d *Database) GetPayout(id uint, txn *Txn) (*models.Payout, error) {
	return d.metadata.GetPayout(id, metadataTxn(txn))
}

func (d *Database) GetPayoutsByStatus(
	status string,
	txn *Txn,
) ([]models.Payout, error) {
	return d.metadata.GetPayoutsByStatus(status, metadataTxn(txn))
}

func (d *Database) SetPayout(payout *models.Payout, txn *Txn) error {
	return d.metadata.SetPayout(payout, metadataTxn(txn))
}
