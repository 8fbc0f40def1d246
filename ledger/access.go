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

	"github.com/phizercost/flight-surety/database/models"
	"github.com/phizercost/flight-surety/ledger/common"
)

// IsOperational reports whether mutating operations are currently accepted
func (ls *LedgerState) IsOperational(ctx context.Context) (bool, error) {
	setting, err := ls.getSetting(ctx)
	if err != nil {
		return false, err
	}
	return setting.Operational, nil
}

// Owner returns the address allowed to manage the ledger
func (ls *LedgerState) Owner(ctx context.Context) (common.Address, error) {
	setting, err := ls.getSetting(ctx)
	if err != nil {
		return common.Address{}, err
	}
	return common.NewAddress(setting.Owner)
}

// SetOperatingStatus pauses or resumes the ledger. It is accepted while the ledger
// is paused so the owner can resume it
func (ls *LedgerState) SetOperatingStatus(
	ctx context.Context,
	operational bool,
	caller common.Address,
) error {
	return ls.transitionUngated(
		ctx,
		"setOperatingStatus",
		func(st *txnState) error {
			if !st.isOwner(caller) {
				return ErrUnauthorized
			}
			if st.setting.Operational == operational {
				return nil
			}
			st.setting.Operational = operational
			st.emit(
				OperationalEventType,
				&OperationalEvent{
					ChangedBy:   caller,
					Operational: operational,
				},
			)
			return nil
		},
	)
}

// AuthorizeCaller allows an address to update flight statuses directly
func (ls *LedgerState) AuthorizeCaller(
	ctx context.Context,
	addr common.Address,
	caller common.Address,
) error {
	return ls.transition(ctx, "authorizeCaller", func(st *txnState) error {
		if !st.isOwner(caller) {
			return ErrUnauthorized
		}
		if addr.IsZero() {
			return ErrInvalidArgument
		}
		return ls.db.AddAuthorizedCaller(addr, st.txn)
	})
}

func (ls *LedgerState) DeauthorizeCaller(
	ctx context.Context,
	addr common.Address,
	caller common.Address,
) error {
	return ls.transition(ctx, "deauthorizeCaller", func(st *txnState) error {
		if !st.isOwner(caller) {
			return ErrUnauthorized
		}
		return ls.db.DeleteAuthorizedCaller(addr, st.txn)
	})
}

func (ls *LedgerState) IsCallerAuthorized(
	ctx context.Context,
	addr common.Address,
) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return ls.db.IsCallerAuthorized(addr, nil)
}

// isPrivileged reports whether the caller is the owner or an authorized caller
func (ls *LedgerState) isPrivileged(
	st *txnState,
	caller common.Address,
) (bool, error) {
	if st.isOwner(caller) {
		return true, nil
	}
	return ls.db.IsCallerAuthorized(caller, st.txn)
}

func (ls *LedgerState) getSetting(ctx context.Context) (*models.Setting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	setting, err := ls.db.GetSetting(nil)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, errors.New("ledger settings not initialized")
	}
	return setting, nil
}
