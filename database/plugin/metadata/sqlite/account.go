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

// GetAccount returns the account for an address, or nil if it doesn't exist
func (d *MetadataStoreSqlite) GetAccount(
	address []byte,
	txn types.Txn,
) (*models.Account, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Account{}
	result := db.Where("address = ?", address).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// AddAccountBalance credits an amount to the account for an address, creating
// the account if needed, and returns the new balance
func (d *MetadataStoreSqlite) AddAccountBalance(
	address []byte,
	amount uint64,
	txn types.Txn,
) (uint64, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	account := &models.Account{}
	result := db.FirstOrCreate(account, models.Account{Address: address})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to find or create account: %w", result.Error)
	}
	balance := uint64(account.Balance)
	if balance+amount < balance {
		return 0, errors.New("account balance overflow")
	}
	account.Balance = types.Uint64(balance + amount)
	if err := db.Save(account).Error; err != nil {
		return 0, fmt.Errorf("failed to update account: %w", err)
	}
	return uint64(account.Balance), nil
}
