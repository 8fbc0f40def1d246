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

package models

import (
	"github.com/phizercost/flight-surety/database/types"
)

const SettingRowId = 1

// Setting is the single row holding ledger-wide parameters and counters
type Setting struct {
	Owner            []byte `gorm:"size:20"`
	FirstAirline     []byte `gorm:"size:20"`
	Entropy          []byte `gorm:"size:32"`
	ID               uint   `gorm:"primarykey"`
	FundingThreshold types.Uint64
	InsuranceCap     types.Uint64
	RegistrationFee  types.Uint64
	EscrowBalance    types.Uint64
	Sequence         uint64
	Operational      bool
}

func (Setting) TableName() string {
	return "setting"
}

// AuthorizedCaller is an address allowed to apply flight status updates
type AuthorizedCaller struct {
	Address []byte `gorm:"uniqueIndex;size:20"`
	ID      uint   `gorm:"primarykey"`
}

func (AuthorizedCaller) TableName() string {
	return "authorized_caller"
}
