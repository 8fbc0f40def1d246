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

package ledger

import (
	"context"
	"time"

	"github.com/phizercost/flight-surety/database/models"
	"github.com/phizercost/flight-surety/ledger/common"
)

// FlightInfo is the public view of a flight record
type FlightInfo struct {
	FinalizedAt time.Time         `json:"finalizedAt,omitzero"`
	Key         common.FlightKey  `json:"key"`
	StatusCode  common.StatusCode `json:"statusCode"`
	Registered  bool              `json:"registered"`
	Finalized   bool              `json:"finalized"`
}

func newFlightInfo(flight *models.Flight) (*FlightInfo, error) {
	airline, err := common.NewAddress(flight.Airline)
	if err != nil {
		return nil, err
	}
	ret := &FlightInfo{
		Key: common.NewFlightKey(
			airline,
			flight.FlightCode,
			flight.Timestamp,
		),
		StatusCode: common.StatusCode(flight.StatusCode),
		Registered: flight.Registered,
		Finalized:  flight.IsFinalized(),
	}
	if flight.FinalizedAt > 0 {
		ret.FinalizedAt = time.UnixMilli(flight.FinalizedAt)
	}
	return ret, nil
}

// RegisterFlight adds a flight for an authorized airline. Only the airline itself may
// register its flights
func (ls *LedgerState) RegisterFlight(
	ctx context.Context,
	airline common.Address,
	flightCode string,
	timestamp int64,
	caller common.Address,
) error {
	return ls.transition(ctx, "registerFlight", func(st *txnState) error {
		if caller != airline {
			return ErrUnauthorized
		}
		record, err := ls.db.GetAirline(airline, st.txn)
		if err != nil {
			return err
		}
		if record == nil || !record.Authorized {
			return ErrUnauthorized
		}
		if flightCode == "" {
			return ErrInvalidArgument
		}
		key := common.NewFlightKey(airline, flightCode, timestamp)
		existing, err := ls.db.GetFlight(key, st.txn)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyExists
		}
		keyHash := key.Hash()
		flight := &models.Flight{
			KeyHash:    keyHash.Bytes(),
			Airline:    airline.Bytes(),
			FlightCode: flightCode,
			Timestamp:  timestamp,
			StatusCode: uint8(common.StatusCodeUnknown),
			Registered: true,
		}
		flight.Sequence = st.emit(
			FlightRegisteredEventType,
			&FlightRegisteredEvent{Flight: key},
		)
		return ls.db.SetFlight(flight, st.txn)
	})
}

// UpdateFlightStatus settles a flight status directly. The caller must be the owner or
// an authorized caller
func (ls *LedgerState) UpdateFlightStatus(
	ctx context.Context,
	key common.FlightKey,
	statusCode common.StatusCode,
	caller common.Address,
) error {
	return ls.transition(ctx, "updateFlightStatus", func(st *txnState) error {
		privileged, err := ls.isPrivileged(st, caller)
		if err != nil {
			return err
		}
		if !privileged {
			return ErrUnauthorized
		}
		if !statusCode.Final() {
			return ErrInvalidArgument
		}
		flight, err := ls.db.GetFlight(key, st.txn)
		if err != nil {
			return err
		}
		if flight == nil || !flight.Registered {
			return ErrNotFound
		}
		if flight.IsFinalized() {
			return ErrRequestClosed
		}
		return ls.finalizeFlight(st, key, flight, statusCode)
	})
}

// finalizeFlight applies a final status code, closes any outstanding oracle request and
// computes insurance credits
func (ls *LedgerState) finalizeFlight(
	st *txnState,
	key common.FlightKey,
	flight *models.Flight,
	statusCode common.StatusCode,
) error {
	flight.StatusCode = uint8(statusCode)
	flight.FinalizedAt = st.now.UnixMilli()
	if err := ls.db.SetFlight(flight, st.txn); err != nil {
		return err
	}
	request, err := ls.db.GetOracleRequest(key, st.txn)
	if err != nil {
		return err
	}
	if request != nil && !request.Finalized {
		request.IsOpen = false
		request.Finalized = true
		if err := ls.db.SetOracleRequest(request, st.txn); err != nil {
			return err
		}
	}
	if statusCode == common.StatusCodeLateAirline {
		if err := ls.creditInsurees(st, key); err != nil {
			return err
		}
	}
	st.emit(
		FlightStatusEventType,
		&FlightStatusEvent{
			Flight:     key,
			StatusCode: statusCode,
			Finalized:  true,
		},
	)
	ls.config.Logger.Info(
		"flight status finalized",
		"flight", key.String(),
		"status", statusCode.String(),
	)
	return nil
}

func (ls *LedgerState) getFlight(
	ctx context.Context,
	key common.FlightKey,
) (*models.Flight, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ls.db.GetFlight(key, nil)
}

func (ls *LedgerState) IsFlightRegistered(
	ctx context.Context,
	key common.FlightKey,
) (bool, error) {
	flight, err := ls.getFlight(ctx, key)
	if err != nil || flight == nil {
		return false, err
	}
	return flight.Registered, nil
}

// GetFlightStatusCode returns ErrNotFound for a flight that isn't registered
func (ls *LedgerState) GetFlightStatusCode(
	ctx context.Context,
	key common.FlightKey,
) (common.StatusCode, error) {
	flight, err := ls.getFlight(ctx, key)
	if err != nil {
		return common.StatusCodeUnknown, err
	}
	if flight == nil {
		return common.StatusCodeUnknown, ErrNotFound
	}
	return common.StatusCode(flight.StatusCode), nil
}

func (ls *LedgerState) GetFlight(
	ctx context.Context,
	key common.FlightKey,
) (*FlightInfo, error) {
	flight, err := ls.getFlight(ctx, key)
	if err != nil {
		return nil, err
	}
	if flight == nil {
		return nil, ErrNotFound
	}
	return newFlightInfo(flight)
}

// ListFlights returns the flights registered by an airline
func (ls *LedgerState) ListFlights(
	ctx context.Context,
	airline common.Address,
) ([]FlightInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	flights, err := ls.db.GetFlightsByAirline(airline, nil)
	if err != nil {
		return nil, err
	}
	ret := make([]FlightInfo, 0, len(flights))
	for i := range flights {
		info, err := newFlightInfo(&flights[i])
		if err != nil {
			return nil, err
		}
		ret = append(ret, *info)
	}
	return ret, nil
}
