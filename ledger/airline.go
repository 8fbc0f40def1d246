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
	"bytes"
	"context"
	"fmt"

	"github.com/phizercost/flight-surety/database/models"
	"github.com/phizercost/flight-surety/database/types"
	"github.com/phizercost/flight-surety/ledger/common"
)

// AirlineDetails is the public view of an airline record
type AirlineDetails struct {
	Name         string         `json:"name"`
	Code         string         `json:"code"`
	Address      common.Address `json:"address"`
	RegisteredBy common.Address `json:"registeredBy"`
	VoteCount    uint64         `json:"voteCount"`
	FundedAmount common.Amount  `json:"fundedAmount"`
	Funded       bool           `json:"funded"`
	Registered   bool           `json:"registered"`
	Authorized   bool           `json:"authorized"`
}

func newAirlineDetails(airline *models.Airline) (*AirlineDetails, error) {
	addr, err := common.NewAddress(airline.Address)
	if err != nil {
		return nil, err
	}
	ret := &AirlineDetails{
		Name:         airline.Name,
		Code:         airline.Code,
		Address:      addr,
		VoteCount:    airline.VoteCount,
		FundedAmount: common.Amount(airline.FundedAmount),
		Funded:       airline.Funded,
		Registered:   airline.Registered,
		Authorized:   airline.Authorized,
	}
	if len(airline.RegisteredBy) > 0 {
		ret.RegisteredBy, err = common.NewAddress(airline.RegisteredBy)
		if err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// FundAirline records the funding payment of an airline. The amount must meet the
// current funding threshold and is added to the escrow in full. Funding an already
// funded airline has no effect
func (ls *LedgerState) FundAirline(
	ctx context.Context,
	airline common.Address,
	amount common.Amount,
) error {
	return ls.transition(ctx, "fundAirline", func(st *txnState) error {
		if airline.IsZero() {
			return ErrInvalidArgument
		}
		threshold := common.Amount(st.setting.FundingThreshold)
		if amount < threshold {
			return fmt.Errorf(
				"%w: funding of %s is below the threshold of %s",
				ErrInvalidAmount,
				amount,
				threshold,
			)
		}
		record, err := ls.getOrNewAirline(st, airline)
		if err != nil {
			return err
		}
		if record.Funded {
			return nil
		}
		if err := st.creditEscrow(amount); err != nil {
			return err
		}
		record.Funded = true
		record.FundedAmount = types.Uint64(amount)
		st.emit(
			AirlineFundedEventType,
			&AirlineFundedEvent{
				Airline: airline,
				Amount:  amount,
			},
		)
		if err := ls.evaluateAuthorization(st, airline, record); err != nil {
			return err
		}
		return ls.db.SetAirline(record, st.txn)
	})
}

// RegisterAirline adds an airline on behalf of the configured first airline or an
// authorized airline
func (ls *LedgerState) RegisterAirline(
	ctx context.Context,
	newAirline common.Address,
	code string,
	name string,
	registrar common.Address,
) error {
	return ls.transition(ctx, "registerAirline", func(st *txnState) error {
		allowed, err := ls.canRegisterAirlines(st, registrar)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrUnauthorized
		}
		if newAirline.IsZero() {
			return ErrInvalidArgument
		}
		record, err := ls.getOrNewAirline(st, newAirline)
		if err != nil {
			return err
		}
		if record.Registered {
			return ErrAlreadyExists
		}
		record.Registered = true
		record.VoteCount = 0
		record.Name = name
		record.Code = code
		record.RegisteredBy = registrar.Bytes()
		st.emit(
			AirlineRegisteredEventType,
			&AirlineRegisteredEvent{
				Name:         name,
				Code:         code,
				Airline:      newAirline,
				RegisteredBy: registrar,
			},
		)
		if err := ls.evaluateAuthorization(st, newAirline, record); err != nil {
			return err
		}
		return ls.db.SetAirline(record, st.txn)
	})
}

// VoteAirline records a vote by an authorized airline for a registered candidate.
// Repeated votes by the same voter are ignored
func (ls *LedgerState) VoteAirline(
	ctx context.Context,
	voter common.Address,
	candidate common.Address,
) error {
	return ls.transition(ctx, "voteAirline", func(st *txnState) error {
		voterRecord, err := ls.db.GetAirline(voter, st.txn)
		if err != nil {
			return err
		}
		if voterRecord == nil || !voterRecord.Authorized {
			return ErrUnauthorized
		}
		record, err := ls.db.GetAirline(candidate, st.txn)
		if err != nil {
			return err
		}
		if record == nil || !record.Registered {
			return ErrNotFound
		}
		if record.Authorized {
			return ErrAlreadyExists
		}
		added, err := ls.db.AddAirlineVote(
			candidate,
			voter,
			st.setting.Sequence,
			st.txn,
		)
		if err != nil {
			return err
		}
		if !added {
			return nil
		}
		record.VoteCount++
		if err := ls.evaluateAuthorization(st, candidate, record); err != nil {
			return err
		}
		return ls.db.SetAirline(record, st.txn)
	})
}

// ChangeAirlineFundingAmount sets the funding threshold for airlines that have not funded yet
func (ls *LedgerState) ChangeAirlineFundingAmount(
	ctx context.Context,
	amount common.Amount,
	caller common.Address,
) error {
	return ls.transition(
		ctx,
		"changeAirlineFundingAmount",
		func(st *txnState) error {
			if !st.isOwner(caller) {
				return ErrUnauthorized
			}
			if amount == 0 {
				return ErrInvalidAmount
			}
			st.setting.FundingThreshold = types.Uint64(amount)
			return nil
		},
	)
}

func (ls *LedgerState) canRegisterAirlines(
	st *txnState,
	registrar common.Address,
) (bool, error) {
	if len(st.setting.FirstAirline) > 0 &&
		bytes.Equal(st.setting.FirstAirline, registrar.Bytes()) {
		return true, nil
	}
	record, err := ls.db.GetAirline(registrar, st.txn)
	if err != nil {
		return false, err
	}
	return record != nil && record.Authorized, nil
}

func (ls *LedgerState) getOrNewAirline(
	st *txnState,
	addr common.Address,
) (*models.Airline, error) {
	record, err := ls.db.GetAirline(addr, st.txn)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = &models.Airline{Address: addr.Bytes()}
	}
	return record, nil
}

// evaluateAuthorization marks a funded and registered airline authorized while fewer
// than MultipartyThreshold airlines are authorized, and afterward once it holds votes
// from at least half of them. Authorization is never revoked
func (ls *LedgerState) evaluateAuthorization(
	st *txnState,
	addr common.Address,
	record *models.Airline,
) error {
	if record.Authorized || !record.Funded || !record.Registered {
		return nil
	}
	authorized, err := ls.db.CountAuthorizedAirlines(addr, st.txn)
	if err != nil {
		return err
	}
	if !isAuthorized(record.VoteCount, authorized, ls.params.MultipartyThreshold) {
		return nil
	}
	record.Authorized = true
	st.emit(
		AirlineAuthorizedEventType,
		&AirlineAuthorizedEvent{
			Airline:         addr,
			VoteCount:       record.VoteCount,
			AuthorizedCount: authorized,
		},
	)
	ls.config.Logger.Debug(
		"airline authorized",
		"airline", addr.String(),
		"votes", record.VoteCount,
		"authorized_airlines", authorized,
	)
	return nil
}

func isAuthorized(votes uint64, authorized uint64, threshold uint64) bool {
	return authorized < threshold || votes*2 >= authorized
}

func (ls *LedgerState) getAirline(
	ctx context.Context,
	addr common.Address,
) (*models.Airline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ls.db.GetAirline(addr, nil)
}

// GetAirlineDetails returns ErrNotFound for an address that never funded or registered
func (ls *LedgerState) GetAirlineDetails(
	ctx context.Context,
	addr common.Address,
) (*AirlineDetails, error) {
	record, err := ls.getAirline(ctx, addr)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNotFound
	}
	return newAirlineDetails(record)
}

func (ls *LedgerState) IsAirlineFunded(
	ctx context.Context,
	addr common.Address,
) (bool, error) {
	record, err := ls.getAirline(ctx, addr)
	if err != nil || record == nil {
		return false, err
	}
	return record.Funded, nil
}

func (ls *LedgerState) IsAirlineRegistered(
	ctx context.Context,
	addr common.Address,
) (bool, error) {
	record, err := ls.getAirline(ctx, addr)
	if err != nil || record == nil {
		return false, err
	}
	return record.Registered, nil
}

func (ls *LedgerState) IsAirlineAuthorized(
	ctx context.Context,
	addr common.Address,
) (bool, error) {
	record, err := ls.getAirline(ctx, addr)
	if err != nil || record == nil {
		return false, err
	}
	return record.Authorized, nil
}

func (ls *LedgerState) GetAirlineVoteCount(
	ctx context.Context,
	addr common.Address,
) (uint64, error) {
	record, err := ls.getAirline(ctx, addr)
	if err != nil || record == nil {
		return 0, err
	}
	return record.VoteCount, nil
}

// GetAirlineVoters returns the airlines that voted for a candidate in voting order
func (ls *LedgerState) GetAirlineVoters(
	ctx context.Context,
	addr common.Address,
) ([]common.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ls.db.GetAirlineVoters(addr, nil)
}

// GetAirlineFundingAmount returns the current funding threshold
func (ls *LedgerState) GetAirlineFundingAmount(
	ctx context.Context,
) (common.Amount, error) {
	setting, err := ls.getSetting(ctx)
	if err != nil {
		return 0, err
	}
	return common.Amount(setting.FundingThreshold), nil
}

func (ls *LedgerState) GetAuthorizedAirlineCount(
	ctx context.Context,
) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return ls.db.CountAuthorizedAirlines(common.Address{}, nil)
}

func (ls *LedgerState) ListAirlines(ctx context.Context) ([]AirlineDetails, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := ls.db.GetAirlines(nil)
	if err != nil {
		return nil, err
	}
	ret := make([]AirlineDetails, 0, len(records))
	for i := range records {
		details, err := newAirlineDetails(&records[i])
		if err != nil {
			return nil, err
		}
		ret = append(ret, *details)
	}
	return ret, nil
}
