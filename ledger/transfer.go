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

	"github.com/phizercost/flight-surety/database"
	"github.com/phizercost/flight-surety/ledger/common"
)

// Transferer moves paid out credit to a passenger. It is called after the payout has
// been committed and without the ledger lock held
type Transferer interface {
	Transfer(ctx context.Context, to common.Address, amount common.Amount) error
}

// TransferFunc adapts a function to the Transferer interface
type TransferFunc func(ctx context.Context, to common.Address, amount common.Amount) error

func (f TransferFunc) Transfer(
	ctx context.Context,
	to common.Address,
	amount common.Amount,
) error {
	return f(ctx, to, amount)
}

// AccountTransferer credits payouts to account balances kept in the database
type AccountTransferer struct {
	db *database.Database
}

func NewAccountTransferer(db *database.Database) *AccountTransferer {
	return &AccountTransferer{db: db}
}

func (t *AccountTransferer) Transfer(
	ctx context.Context,
	to common.Address,
	amount common.Amount,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := database.NewMetadataOnlyTxn(t.db, true)
	return txn.Do(func(txn *database.Txn) error {
		_, err := t.db.AddAccountBalance(to, amount, txn)
		return err
	})
}

// GetAccountBalance returns the balance credited to an address by the AccountTransferer
func (ls *LedgerState) GetAccountBalance(
	ctx context.Context,
	addr common.Address,
) (common.Amount, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return ls.db.GetAccountBalance(addr, nil)
}
