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

// GetAirline returns the airline record for an address, or nil if it doesn't exist
func (d *Database) GetAirline(
	addr common.Address,
	txn *Txn,
) (*models.Airline, error) {
	return d.metadata.GetAirline(addr.Bytes(), metadataTxn(txn))
}

func (d *Database) GetAirlines(txn *Txn) ([]models.Airline, error) {
	return d.metadata.GetAirlines(metadataTxn(txn))
}

func (d *Database) SetAirline(airline *models.Airline, txn *Txn) error {
	return d.metadata.SetAirline(airline, metadataTxn(txn))
}

// CountAuthorizedAirlines returns the number of authorized airlines other than exclude.
// A zero address excludes nothing
func (d *Database) CountAuthorizedAirlines(
	exclude common.Address,
	txn *Txn,
) (uint64, error) {
	var excludeBytes []byte
	if !exclude.IsZero() {
		excludeBytes = exclude.Bytes()
	}
	return d.metadata.CountAuthorizedAirlines(excludeBytes, metadataTxn(txn))
}

// AddAirlineVote records a vote and returns false if the voter already voted for the candidate
func (d *Database) AddAirlineVote(
	candidate common.Address,
	voter common.Address,
	sequence uint64,
	txn *Txn,
) (bool, error) {
	return d.metadata.AddAirlineVote(
		&models.AirlineVote{
			Candidate: candidate.Bytes(),
			Voter:     voter.Bytes(),
			Sequence:  sequence,
		},
		metadataTxn(txn),
	)
}

// GetAirlineVoters returns the addresses that voted for a candidate, in voting order
func (d *Database) GetAirlineVoters(
	candidate common.Address,
	txn *Txn,
) ([]common.Address, error) {
	votes, err := d.metadata.GetAirlineVotes(candidate.Bytes(), metadataTxn(txn))
	if err != nil {
		return nil, err
	}
	ret := make([]common.Address, 0, len(votes))
	for _, vote := range votes {
		voter, err := common.NewAddress(vote.Voter)
		if err != nil {
			return nil, err
		}
		ret = append(ret, voter)
	}
	return ret, nil
}
