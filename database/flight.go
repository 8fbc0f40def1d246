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

// GetFlight returns the flight for a key, or nil if it doesn't exist
func (d *Database) GetFlight(
	key common.FlightKey,
	txn *Txn,
) (*models.Flight, error) {
	keyHash := key.Hash()
	return d.metadata.GetFlight(keyHash.Bytes(), metadataTxn(txn))
}

// GetFlightByKeyHash returns the flight stored under a key hash, or nil if it doesn't exist
func (d *Database) GetFlightByKeyHash(
	keyHash []byte,
	txn *Txn,
) (*models.Flight, error) {
	return d.metadata.GetFlight(keyHash, metadataTxn(txn))
}

func (d *Database) GetFlightsByAirline(
	airline common.Address,
	txn *Txn,
) ([]models.Flight, error) {
	return d.metadata.GetFlightsByAirline(airline.Bytes(), metadataTxn(txn))
}

func (d *Database) SetFlight(flight *models.Flight, txn *Txn) error {
	return d.metadata.SetFlight(flight, metadataTxn(txn))
}
