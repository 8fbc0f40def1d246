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

	"github.com/phizercost/flight-surety/database"
	"github.com/phizercost/flight-surety/database/models"
	"github.com/phizercost/flight-surety/database/types"
	"github.com/phizercost/flight-surety/ledger/common"
)

// PolicyInfo is the public view of an insurance policy
type PolicyInfo struct {
	Policy         common.PolicyKey `json:"policy"`
	AmountPaid     common.Amount    `json:"amountPaid"`
	CreditedAmount common.Amount    `json:"creditedAmount"`
	Credited       bool             `json:"credited"`
}

// Buy purchases insurance for a passenger on a registered flight that has not been
// settled. Purchases accumulate up to the insurance cap
func (ls *LedgerState) Buy(
	ctx context.Context,
	passenger common.Address,
	key common.FlightKey,
	amount common.Amount,
) error {
	return ls.transition(ctx, "buy", func(st *txnState) error {
		if passenger.IsZero() {
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
		if amount == 0 {
			return fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
		}
		policy, err := ls.db.GetInsurancePolicy(passenger, key, st.txn)
		if err != nil {
			return err
		}
		if policy == nil {
			keyHash := key.Hash()
			policy = &models.InsurancePolicy{
				Passenger:     passenger.Bytes(),
				FlightKeyHash: keyHash.Bytes(),
			}
		}
		insuranceCap := common.Amount(st.setting.InsuranceCap)
		total, err := common.Amount(policy.AmountPaid).Add(amount)
		if err != nil || total > insuranceCap {
			return fmt.Errorf(
				"%w: total insurance would exceed the cap of %s",
				ErrInvalidAmount,
				insuranceCap,
			)
		}
		if err := st.creditEscrow(amount); err != nil {
			return err
		}
		policy.AmountPaid = types.Uint64(total)
		if err := ls.db.SetInsurancePolicy(policy, st.txn); err != nil {
			return err
		}
		st.emit(
			InsurancePurchasedEventType,
			&InsurancePurchasedEvent{
				Policy: common.PolicyKey{Passenger: passenger, Flight: key},
				Amount: amount,
				Total:  total,
			},
		)
		return nil
	})
}

// creditInsurees computes the payout owed on every policy for a flight that has not
// been credited yet
func (ls *LedgerState) creditInsurees(st *txnState, key common.FlightKey) error {
	policies, err := ls.db.GetInsurancePoliciesByFlight(key, st.txn)
	if err != nil {
		return err
	}
	for i := range policies {
		policy := &policies[i]
		if policy.Credited {
			continue
		}
		credit, err := common.Amount(policy.AmountPaid).
			MulRat(CreditNumerator, CreditDenominator)
		if err != nil {
			return err
		}
		policy.CreditedAmount = types.Uint64(credit)
		policy.Credited = true
		if err := ls.db.SetInsurancePolicy(policy, st.txn); err != nil {
			return err
		}
	}
	return nil
}

// Pay withdraws the credit owed to a passenger. The credit is cleared and committed
// before the transfer runs. If the transfer fails the credit is restored
func (ls *LedgerState) Pay(
	ctx context.Context,
	passenger common.Address,
	key common.FlightKey,
	caller common.Address,
) (common.Amount, error) {
	var payoutID uint
	var amount common.Amount
	err := ls.transition(ctx, "pay", func(st *txnState) error {
		if caller != passenger {
			return ErrUnauthorized
		}
		policy, err := ls.db.GetInsurancePolicy(passenger, key, st.txn)
		if err != nil {
			return err
		}
		if policy == nil {
			return ErrNotFound
		}
		if policy.CreditedAmount == 0 {
			return ErrNothingToWithdraw
		}
		amount = common.Amount(policy.CreditedAmount)
		if err := st.debitEscrow(amount); err != nil {
			return err
		}
		policy.CreditedAmount = 0
		if err := ls.db.SetInsurancePolicy(policy, st.txn); err != nil {
			return err
		}
		payout := &models.Payout{
			Passenger:     passenger.Bytes(),
			FlightKeyHash: policy.FlightKeyHash,
			Status:        models.PayoutStatusPending,
			PolicyID:      policy.ID,
			Amount:        types.Uint64(amount),
			Sequence:      st.setting.Sequence,
		}
		if err := ls.db.SetPayout(payout, st.txn); err != nil {
			return err
		}
		payoutID = payout.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	// The outcome of the transfer is recorded even if the caller goes away
	recordCtx := context.WithoutCancel(ctx)
	if transferErr := ls.config.Transferer.Transfer(ctx, passenger, amount); transferErr != nil {
		ls.metrics.payoutsTotal.WithLabelValues("failed").Inc()
		ls.config.Logger.Warn(
			"payout transfer failed, restoring credit",
			"payout_id", payoutID,
			"passenger", passenger.String(),
			"amount", amount.String(),
			"error", transferErr,
		)
		err := &TransitionError{
			Op:  "pay",
			Err: fmt.Errorf("transfer failed: %w", transferErr),
		}
		if compErr := ls.failPayout(recordCtx, payoutID, transferErr.Error()); compErr != nil {
			return 0, errors.Join(err, compErr)
		}
		return 0, err
	}
	ls.metrics.payoutsTotal.WithLabelValues("completed").Inc()
	// The money has moved, so the payout succeeded even if recording it fails.
	// The payout then stays pending until resolved with ResolvePayout
	if err := ls.completePayout(recordCtx, payoutID); err != nil {
		ls.config.Logger.Error(
			"failed to record completed payout",
			"payout_id", payoutID,
			"passenger", passenger.String(),
			"amount", amount.String(),
			"error", err,
		)
	}
	return amount, nil
}

// PayoutInfo is the public view of a payout
type PayoutInfo struct {
	Policy   common.PolicyKey `json:"policy"`
	Status   string           `json:"status"`
	Error    string           `json:"error,omitempty"`
	ID       uint             `json:"id"`
	Amount   common.Amount    `json:"amount"`
	Sequence uint64           `json:"sequence"`
}

// GetPendingPayouts lists payouts whose transfer outcome was never recorded,
// which happens when the node stops between the debit and the transfer result
func (ls *LedgerState) GetPendingPayouts(ctx context.Context) ([]PayoutInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payouts, err := ls.db.GetPayoutsByStatus(models.PayoutStatusPending, nil)
	if err != nil {
		return nil, err
	}
	ret := make([]PayoutInfo, 0, len(payouts))
	for i := range payouts {
		policy, err := ls.payoutPolicy(&payouts[i], nil)
		if err != nil {
			return nil, err
		}
		ret = append(ret, PayoutInfo{
			Policy:   policy,
			Status:   payouts[i].Status,
			Error:    payouts[i].Error,
			ID:       payouts[i].ID,
			Amount:   common.Amount(payouts[i].Amount),
			Sequence: payouts[i].Sequence,
		})
	}
	return ret, nil
}

// ResolvePayout settles a pending payout once the owner has checked the
// transfer outside the ledger. A transferred payout is marked completed;
// otherwise the credit and escrow are restored as for a failed transfer
func (ls *LedgerState) ResolvePayout(
	ctx context.Context,
	payoutID uint,
	transferred bool,
	caller common.Address,
) error {
	return ls.transitionUngated(ctx, "resolvePayout", func(st *txnState) error {
		if !st.isOwner(caller) {
			return ErrUnauthorized
		}
		if transferred {
			return ls.markPayoutCompleted(st, payoutID)
		}
		return ls.restorePayout(st, payoutID, "resolved as not transferred")
	})
}

func (ls *LedgerState) completePayout(ctx context.Context, payoutID uint) error {
	return ls.transitionUngated(ctx, "payCompleted", func(st *txnState) error {
		return ls.markPayoutCompleted(st, payoutID)
	})
}

// failPayout restores the credit and escrow debited for a payout whose transfer failed
func (ls *LedgerState) failPayout(
	ctx context.Context,
	payoutID uint,
	reason string,
) error {
	return ls.transitionUngated(ctx, "payCompensate", func(st *txnState) error {
		return ls.restorePayout(st, payoutID, reason)
	})
}

// pendingPayout loads a payout that has no recorded outcome yet
func (ls *LedgerState) pendingPayout(st *txnState, payoutID uint) (*models.Payout, error) {
	payout, err := ls.db.GetPayout(payoutID, st.txn)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, ErrNotFound
	}
	if payout.Status != models.PayoutStatusPending {
		return nil, fmt.Errorf("%w: payout is %s", ErrRequestClosed, payout.Status)
	}
	return payout, nil
}

func (ls *LedgerState) payoutPolicy(
	payout *models.Payout,
	txn *database.Txn,
) (common.PolicyKey, error) {
	passenger, err := common.NewAddress(payout.Passenger)
	if err != nil {
		return common.PolicyKey{}, err
	}
	flight, err := ls.db.GetFlightByKeyHash(payout.FlightKeyHash, txn)
	if err != nil {
		return common.PolicyKey{}, err
	}
	if flight == nil {
		return common.PolicyKey{}, ErrNotFound
	}
	info, err := newFlightInfo(flight)
	if err != nil {
		return common.PolicyKey{}, err
	}
	return common.PolicyKey{Passenger: passenger, Flight: info.Key}, nil
}

func (ls *LedgerState) markPayoutCompleted(st *txnState, payoutID uint) error {
	payout, err := ls.pendingPayout(st, payoutID)
	if err != nil {
		return err
	}
	policy, err := ls.payoutPolicy(payout, st.txn)
	if err != nil {
		return err
	}
	payout.Status = models.PayoutStatusCompleted
	if err := ls.db.SetPayout(payout, st.txn); err != nil {
		return err
	}
	st.emit(
		InsurancePayoutEventType,
		&InsurancePayoutEvent{
			Policy:   policy,
			Amount:   common.Amount(payout.Amount),
			PayoutID: payout.ID,
		},
	)
	return nil
}

func (ls *LedgerState) restorePayout(st *txnState, payoutID uint, reason string) error {
	payout, err := ls.pendingPayout(st, payoutID)
	if err != nil {
		return err
	}
	key, err := ls.payoutPolicy(payout, st.txn)
	if err != nil {
		return err
	}
	policy, err := ls.db.GetInsurancePolicy(key.Passenger, key.Flight, st.txn)
	if err != nil {
		return err
	}
	if policy == nil {
		return ErrNotFound
	}
	amount := common.Amount(payout.Amount)
	credit, err := common.Amount(policy.CreditedAmount).Add(amount)
	if err != nil {
		return err
	}
	if err := st.creditEscrow(amount); err != nil {
		return err
	}
	policy.CreditedAmount = types.Uint64(credit)
	if err := ls.db.SetInsurancePolicy(policy, st.txn); err != nil {
		return err
	}
	payout.Status = models.PayoutStatusFailed
	payout.Error = reason
	return ls.db.SetPayout(payout, st.txn)
}

func (ls *LedgerState) getPolicy(
	ctx context.Context,
	passenger common.Address,
	key common.FlightKey,
) (*models.InsurancePolicy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ls.db.GetInsurancePolicy(passenger, key, nil)
}

// GetPolicy returns ErrNotFound if the passenger never bought insurance for the flight
func (ls *LedgerState) GetPolicy(
	ctx context.Context,
	passenger common.Address,
	key common.FlightKey,
) (*PolicyInfo, error) {
	policy, err := ls.getPolicy(ctx, passenger, key)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, ErrNotFound
	}
	return &PolicyInfo{
		Policy:         common.PolicyKey{Passenger: passenger, Flight: key},
		AmountPaid:     common.Amount(policy.AmountPaid),
		CreditedAmount: common.Amount(policy.CreditedAmount),
		Credited:       policy.Credited,
	}, nil
}

func (ls *LedgerState) IsPassengerInsured(
	ctx context.Context,
	passenger common.Address,
	key common.FlightKey,
) (bool, error) {
	policy, err := ls.getPolicy(ctx, passenger, key)
	if err != nil || policy == nil {
		return false, err
	}
	return policy.AmountPaid > 0, nil
}

func (ls *LedgerState) GetPassengerInsuranceAmount(
	ctx context.Context,
	passenger common.Address,
	key common.FlightKey,
) (common.Amount, error) {
	policy, err := ls.getPolicy(ctx, passenger, key)
	if err != nil || policy == nil {
		return 0, err
	}
	return common.Amount(policy.AmountPaid), nil
}

// GetPassengerReimbursement returns the credit a passenger can currently withdraw
func (ls *LedgerState) GetPassengerReimbursement(
	ctx context.Context,
	passenger common.Address,
	key common.FlightKey,
) (common.Amount, error) {
	policy, err := ls.getPolicy(ctx, passenger, key)
	if err != nil || policy == nil {
		return 0, err
	}
	return common.Amount(policy.CreditedAmount), nil
}

func (ls *LedgerState) GetEscrowBalance(ctx context.Context) (common.Amount, error) {
	setting, err := ls.getSetting(ctx)
	if err != nil {
		return 0, err
	}
	return common.Amount(setting.EscrowBalance), nil
}
