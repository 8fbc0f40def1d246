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

type Airline struct {
	Address      []byte `gorm:"uniqueIndex;size:20"`
	RegisteredBy []byte `gorm:"size:20"`
	Name         string
	Code         string
	ID           uint `gorm:"primarykey"`
	VoteCount    uint64
	FundedAmount types.Uint64
	Funded       bool `gorm:"index"`
	Registered   bool `gorm:"index"`
	Authorized   bool `gorm:"index"`
}

func (Airline) TableName() string {
	return "airline"
}

// AirlineVote records a single vote by an authorized airline for a candidate
type AirlineVote struct {
	Candidate []byte `gorm:"uniqueIndex:idx_airline_vote_candidate_voter;size:20"`
	Voter     []byte `gorm:"uniqueIndex:idx_airline_vote_candidate_voter;size:20"`
	ID        uint   `gorm:"primarykey"`
	Sequence  uint64
}

func (AirlineVote) TableName() string {
	return "airline_vote"
}
