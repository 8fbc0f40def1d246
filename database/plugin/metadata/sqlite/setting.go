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

// GetSetting returns the ledger settings row, or nil if it hasn't been created
func (d *MetadataStoreSqlite) GetSetting(
	txn types.Txn,
) (*models.Setting, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Setting{}
	if result := db.First(ret, models.SettingRowId); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// SetSetting creates or updates the ledger settings row
func (d *MetadataStoreSqlite) SetSetting(
	setting *models.Setting,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	setting.ID = models.SettingRowId
	if result := db.Save(setting); result.Error != nil {
		return fmt.Errorf("save setting: %w", result.Error)
	}
	return nil
}

// IsCallerAuthorized returns true if the address is in the authorized caller set
func (d *MetadataStoreSqlite) IsCallerAuthorized(
	address []byte,
	txn types.Txn,
) (bool, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return false, err
	}
	var count int64
	result := db.Model(&models.AuthorizedCaller{}).
		Where("address = ?", address).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// AddAuthorizedCaller adds an address to the authorized caller set
func (d *MetadataStoreSqlite) AddAuthorizedCaller(
	address []byte,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.AuthorizedCaller{Address: address})
	if result.Error != nil {
		return fmt.Errorf("add authorized caller: %w", result.Error)
	}
	return nil
}

// DeleteAuthorizedCaller removes an address from the authorized caller set
func (d *MetadataStoreSqlite) DeleteAuthorizedCaller(
	address []byte,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Where("address = ?", address).
		Delete(&models.AuthorizedCaller{})
	if result.Error != nil {
		return fmt.Errorf("delete authorized caller: %w", result.Error)
	}
	return nil
}
