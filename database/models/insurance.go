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

type InsurancePolicy struct {
	Passenger      []byte `gorm:"uniqueIndex:idx_policy_passenger_flight;size:20"`
	FlightKeyHash  []byte `gorm:"uniqueIndex:idx_policy_passenger_flight;index;size:32"`
	ID             uint   `gorm:"primarykey"`
	AmountPaid     types.Uint64
	CreditedAmount types.Uint64
	Credited       bool
}

func (InsurancePolicy) TableName() string {
	return "insurance_policy"
}

const (
	PayoutStatusPending   = "pending"
	PayoutStatusCompleted = "completed"
	PayoutStatusFailed    = "failed"
)

// Payout tracks a single withdrawal of credited insurance
type Payout struct {
	Passenger     []byte `gorm:"index;size:20"`
	FlightKeyHash []byte `gorm:"size:32"`
	Status        string `gorm:"index"`
	Error         string
	ID            uint `gorm:"primarykey"`
	PolicyID      uint `gorm:"index"`
	Amount        types.Uint64
	Sequence      uint64
}

func (Payout) TableName() string {
	return "payout"
}
