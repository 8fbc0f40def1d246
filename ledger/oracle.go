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
	"errors"
	"fmt"
	"time"

	"github.com/phizercost/flight-surety/database/models"
	"github.com/phizercost/flight-surety/database/types"
	"github.com/phizercost/flight-surety/ledger/common"
)

// OracleInfo is the public view of a registered oracle
type OracleInfo struct {
	Address common.Address `json:"address"`
	Fee     common.Amount  `json:"fee"`
	Indexes [3]uint8       `json:"indexes"`
}

type OracleResponseInfo struct {
	Oracle     common.Address    `json:"oracle"`
	Sequence   uint64            `json:"sequence"`
	StatusCode common.StatusCode `json:"statusCode"`
}

// OracleRequestInfo is the public view of a flight status request and the responses
// collected for it
type OracleRequestInfo struct {
	OpenedAt    time.Time            `json:"openedAt"`
	Flight      common.FlightKey     `json:"flight"`
	OpenedBy    common.Address       `json:"openedBy"`
	Responses   []OracleResponseInfo `json:"responses"`
	BucketIndex uint8                `json:"index"`
	IsOpen      bool                 `json:"isOpen"`
	Finalized   bool                 `json:"finalized"`
}

// RegisterOracle registers the caller as an oracle and assigns it three distinct bucket
// indexes. The fee is added to the escrow
func (ls *LedgerState) RegisterOracle(
	ctx context.Context,
	caller common.Address,
	fee common.Amount,
) error {
	return ls.transition(ctx, "registerOracle", func(st *txnState) error {
		if caller.IsZero() {
			return ErrInvalidArgument
		}
		registrationFee := common.Amount(st.setting.RegistrationFee)
		if fee < registrationFee {
			return fmt.Errorf(
				"%w: fee of %s is below the registration fee of %s",
				ErrInvalidAmount,
				fee,
				registrationFee,
			)
		}
		existing, err := ls.db.GetOracle(caller, st.txn)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyExists
		}
		if err := st.creditEscrow(fee); err != nil {
			return err
		}
		indexes := ls.generateIndexes(st, caller)
		oracle := &models.Oracle{
			Address: caller.Bytes(),
			Fee:     types.Uint64(fee),
			Index0:  indexes[0],
			Index1:  indexes[1],
			Index2:  indexes[2],
		}
		if err := ls.db.SetOracle(oracle, st.txn); err != nil {
			return err
		}
		st.emit(
			OracleRegisteredEventType,
			&OracleRegisteredEvent{
				Oracle:  caller,
				Indexes: indexes,
			},
		)
		return nil
	})
}

func (ls *LedgerState) randomIndex(st *txnState, caller common.Address) uint8 {
	return uint8(st.random(caller) % uint64(ls.params.BucketCount))
}

func (ls *LedgerState) generateIndexes(
	st *txnState,
	caller common.Address,
) [3]uint8 {
	var ret [3]uint8
	ret[0] = ls.randomIndex(st, caller)
	ret[1] = ret[0]
	for ret[1] == ret[0] {
		ret[1] = ls.randomIndex(st, caller)
	}
	ret[2] = ret[0]
	for ret[2] == ret[0] || ret[2] == ret[1] {
		ret[2] = ls.randomIndex(st, caller)
	}
	return ret
}

// FetchFlightStatus asks oracles for the status of a registered flight. An open request
// is broadcast again with its original index, and a request that closed without a final
// status is opened again with a new index
func (ls *LedgerState) FetchFlightStatus(
	ctx context.Context,
	key common.FlightKey,
	caller common.Address,
) error {
	return ls.transition(ctx, "fetchFlightStatus", func(st *txnState) error {
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
		request, err := ls.db.GetOracleRequest(key, st.txn)
		if err != nil {
			return err
		}
		switch {
		case request == nil:
			keyHash := key.Hash()
			request = &models.OracleRequest{
				FlightKeyHash: keyHash.Bytes(),
			}
		case request.IsOpen:
			st.emit(
				OracleRequestEventType,
				&OracleRequestEvent{
					Flight:      key,
					RequestedBy: caller,
					Index:       request.BucketIndex,
				},
			)
			return nil
		case request.Finalized:
			return ErrRequestClosed
		default:
			if err := ls.db.DeleteOracleResponses(request.ID, st.txn); err != nil {
				return err
			}
		}
		request.OpenedBy = caller.Bytes()
		request.OpenedAt = st.now.UnixMilli()
		request.BucketIndex = ls.randomIndex(st, caller)
		request.IsOpen = true
		request.Sequence = st.emit(
			OracleRequestEventType,
			&OracleRequestEvent{
				Flight:      key,
				RequestedBy: caller,
				Index:       request.BucketIndex,
			},
		)
		return ls.db.SetOracleRequest(request, st.txn)
	})
}

// SubmitOracleResponse records a status report from an oracle. The request settles when
// MinConsensus distinct oracles have reported the same status code
func (ls *LedgerState) SubmitOracleResponse(
	ctx context.Context,
	index uint8,
	key common.FlightKey,
	statusCode common.StatusCode,
	caller common.Address,
) error {
	return ls.transition(ctx, "submitOracleResponse", func(st *txnState) error {
		oracle, err := ls.db.GetOracle(caller, st.txn)
		if err != nil {
			return err
		}
		if oracle == nil {
			return ErrUnauthorized
		}
		if !oracle.HasIndex(index) {
			return ErrIndexMismatch
		}
		if !statusCode.Valid() {
			return ErrInvalidArgument
		}
		request, err := ls.db.GetOracleRequest(key, st.txn)
		if err != nil {
			return err
		}
		if request == nil {
			return ErrNotFound
		}
		if !request.IsOpen {
			return ErrRequestClosed
		}
		if request.BucketIndex != index {
			return ErrIndexMismatch
		}
		added, err := ls.db.AddOracleResponse(
			&models.OracleResponse{
				Oracle:    caller.Bytes(),
				RequestID: request.ID,
				// Matches the response event emitted below
				Sequence:   st.setting.Sequence + 1,
				StatusCode: uint8(statusCode),
			},
			st.txn,
		)
		if err != nil {
			return err
		}
		if !added {
			return nil
		}
		st.emit(
			OracleResponseEventType,
			&OracleResponseEvent{
				Flight:     key,
				Oracle:     caller,
				Index:      index,
				StatusCode: statusCode,
			},
		)
		count, err := ls.db.CountOracleResponses(request.ID, statusCode, st.txn)
		if err != nil {
			return err
		}
		if count < ls.params.MinConsensus {
			return nil
		}
		if statusCode.Final() {
			flight, err := ls.db.GetFlight(key, st.txn)
			if err != nil {
				return err
			}
			if flight == nil {
				return ErrNotFound
			}
			return ls.finalizeFlight(st, key, flight, statusCode)
		}
		// Consensus on an unknown status closes the request without settling the flight
		request.IsOpen = false
		if err := ls.db.SetOracleRequest(request, st.txn); err != nil {
			return err
		}
		st.emit(
			FlightStatusEventType,
			&FlightStatusEvent{
				Flight:     key,
				StatusCode: statusCode,
			},
		)
		return nil
	})
}

// ExpireOracleRequests closes open requests older than the request TTL without settling
// their flights and returns the number of requests closed
func (ls *LedgerState) ExpireOracleRequests(
	ctx context.Context,
	now time.Time,
) (int, error) {
	ttl := ls.config.OracleRequestTTL
	if ttl <= 0 {
		return 0, nil
	}
	var expired int
	err := ls.transition(ctx, "expireOracleRequests", func(st *txnState) error {
		expired = 0
		cutoff := now.Add(-ttl).UnixMilli()
		requests, err := ls.db.GetOpenOracleRequestsBefore(cutoff, st.txn)
		if err != nil {
			return err
		}
		for i := range requests {
			request := &requests[i]
			flight, err := ls.db.GetFlightByKeyHash(request.FlightKeyHash, st.txn)
			if err != nil {
				return err
			}
			if flight == nil {
				return fmt.Errorf(
					"oracle request %d has no flight",
					request.ID,
				)
			}
			info, err := newFlightInfo(flight)
			if err != nil {
				return err
			}
			request.IsOpen = false
			if err := ls.db.SetOracleRequest(request, st.txn); err != nil {
				return err
			}
			st.emit(
				OracleRequestExpiredEventType,
				&OracleRequestExpiredEvent{
					Flight: info.Key,
					Index:  request.BucketIndex,
				},
			)
			expired++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return expired, nil
}

func (ls *LedgerState) sweepOracleRequests(ctx context.Context) {
	expired, err := ls.ExpireOracleRequests(ctx, ls.now())
	if err != nil {
		if errors.Is(err, ErrNotOperational) || errors.Is(err, context.Canceled) {
			return
		}
		ls.config.Logger.Error(
			"failed to expire oracle requests",
			"error", err,
		)
		return
	}
	if expired > 0 {
		ls.config.Logger.Info(
			"expired oracle requests",
			"count", expired,
		)
	}
}

// GetOracleIndexes returns the bucket indexes assigned to a registered oracle
func (ls *LedgerState) GetOracleIndexes(
	ctx context.Context,
	oracle common.Address,
) ([3]uint8, error) {
	info, err := ls.GetOracle(ctx, oracle)
	if err != nil {
		return [3]uint8{}, err
	}
	return info.Indexes, nil
}

func (ls *LedgerState) GetOracle(
	ctx context.Context,
	addr common.Address,
) (*OracleInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	oracle, err := ls.db.GetOracle(addr, nil)
	if err != nil {
		return nil, err
	}
	if oracle == nil {
		return nil, ErrNotFound
	}
	return &OracleInfo{
		Address: addr,
		Fee:     common.Amount(oracle.Fee),
		Indexes: oracle.Indexes(),
	}, nil
}

// GetOracleRequest returns the status request for a flight and its collected responses
func (ls *LedgerState) GetOracleRequest(
	ctx context.Context,
	key common.FlightKey,
) (*OracleRequestInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	request, err := ls.db.GetOracleRequest(key, nil)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrNotFound
	}
	responses, err := ls.db.GetOracleResponses(request.ID, nil)
	if err != nil {
		return nil, err
	}
	ret := &OracleRequestInfo{
		OpenedAt:    time.UnixMilli(request.OpenedAt),
		Flight:      key,
		Responses:   make([]OracleResponseInfo, 0, len(responses)),
		BucketIndex: request.BucketIndex,
		IsOpen:      request.IsOpen,
		Finalized:   request.Finalized,
	}
	if ret.OpenedBy, err = common.NewAddress(request.OpenedBy); err != nil {
		return nil, err
	}
	for _, response := range responses {
		oracle, err := common.NewAddress(response.Oracle)
		if err != nil {
			return nil, err
		}
		ret.Responses = append(ret.Responses, OracleResponseInfo{
			Oracle:     oracle,
			Sequence:   response.Sequence,
			StatusCode: common.StatusCode(response.StatusCode),
		})
	}
	return ret, nil
}
