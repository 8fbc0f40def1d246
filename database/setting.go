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

// GetSetting returns the ledger settings, or nil if they have not been initialized
func (d *Database) GetSetting(txn *Txn) (*models.Setting, error) {
	return d.metadata.GetSetting(metadataTxn(txn))
}

// SetSetting saves the ledger settings
func (d *Database) SetSetting(setting *models.Setting, txn *Txn) error {
	return d.metadata.SetSetting(setting, metadataTxn(txn))
}

func (d *Database) IsCallerAuthorized(
	addr common.Address,
	txn *Txn,
) (bool, error) {
	return d.metadata.IsCallerAuthorized(addr.Bytes(), metadataTxn(txn))
}

func (d *Database) AddAuthorizedCaller(addr common.Address, txn *Txn) error {
	return d.metadata.AddAuthorizedCaller(addr.Bytes(), metadataTxn(txn))
}

func (d *Database) DeleteAuthorizedCaller(addr common.Address, txn *Txn) error {
	return d.metadata.DeleteAuthorizedCaller(addr.Bytes(), metadataTxn(txn))
}

// GetAccountBalance returns the balance credited to an address
func (d *Database) GetAccountBalance(
	addr common.Address,
	txn *Txn,
) (common.Amount, error) {
	account, err := d.metadata.GetAccount(addr.Bytes(), metadataTxn(txn))
	if err != nil {
		return 0, err
	}
	if account == nil {
		return 0, nil
	}
	return common.Amount(account.Balance), nil
}

// AddAccountBalance credits an amount to an address and returns the new balance
func (d *Database) AddAccountBalance(
	addr common.Address,
	amount common.Amount,
	txn *Txn,
) (common.Amount, error) {
	balance, err := d.metadata.AddAccountBalance(
		addr.Bytes(),
		uint64(amount),
		metadataTxn(txn),
	)
	return common.Amount(balance), err
}
