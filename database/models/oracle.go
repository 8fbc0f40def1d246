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

type Oracle struct {
	Address []byte `gorm:"uniqueIndex;size:20"`
	ID      uint   `gorm:"primarykey"`
	Fee     types.Uint64
	Index0  uint8
	Index1  uint8
	Index2  uint8
}

func (Oracle) TableName() string {
	return "oracle"
}

// Indexes returns the bucket indexes assigned to the oracle
func (o *Oracle) Indexes() [3]uint8 {
	return [3]uint8{o.Index0, o.Index1, o.Index2}
}

// HasIndex returns true if the specified index was assigned to the oracle
func (o *Oracle) HasIndex(idx uint8) bool {
	return o.Index0 == idx || o.Index1 == idx || o.Index2 == idx
}

type OracleRequest struct {
	FlightKeyHash []byte `gorm:"uniqueIndex;size:32"`
	OpenedBy      []byte `gorm:"size:20"`
	ID            uint   `gorm:"primarykey"`
	OpenedAt      int64  `gorm:"index"`
	Sequence      uint64
	BucketIndex   uint8
	IsOpen        bool `gorm:"index"`
	Finalized     bool
}

func (OracleRequest) TableName() string {
	return "oracle_request"
}

type OracleResponse struct {
	Oracle     []byte `gorm:"uniqueIndex:idx_oracle_response_request_oracle;size:20"`
	ID         uint   `gorm:"primarykey"`
	RequestID  uint   `gorm:"uniqueIndex:idx_oracle_response_request_oracle;index"`
	Sequence   uint64
	StatusCode uint8 `gorm:"index"`
}

func (OracleResponse) TableName() string {
	return "oracle_response"
}
