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
	"testing"

	"github.com/phizercost/flight-surety/database"
	"github.com/phizercost/flight-surety/database/models"
	"github.com/phizercost/flight-surety/ledger/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var (
	testOwner        = testAddress(0x01)
	testFirstAirline = testAddress(0x10)
)

func testAddress(b byte) common.Address {
	var ret common.Address
	ret[0] = 0xfa
	ret[common.AddressLength-1] = b
	return ret
}

func newTestLedger(
	t *testing.T,
	opts ...func(*LedgerStateConfig),
) *LedgerState {
	t.Helper()
	cfg := LedgerStateConfig{
		Owner:        testOwner,
		FirstAirline: testFirstAirline,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	ls, err := NewLedgerState(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, ls.Close())
	})
	return ls
}

// addAuthorizedAirline registers and funds an airline through the first airline
func addAuthorizedAirline(t *testing.T, ls *LedgerState, airline common.Address) {
	t.Helper()
	ctx := context.Background()
	require.NoError(
		t,
		ls.RegisterAirline(ctx, airline, "A"+airline.String()[40:], "Airline", testFirstAirline),
	)
	require.NoError(t, ls.FundAirline(ctx, airline, DefaultFundingThreshold))
	authorized, err := ls.IsAirlineAuthorized(ctx, airline)
	require.NoError(t, err)
	require.True(t, authorized)
}

func TestNewLedgerStateRequiresOwner(t *testing.T) {
	_, err := NewLedgerState(LedgerStateConfig{})
	require.Error(t, err)
}

func TestNewLedgerStateRejectsSmallBucketCount(t *testing.T) {
	_, err := NewLedgerState(LedgerStateConfig{
		Owner:  testOwner,
		Params: Params{BucketCount: 2},
	})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewLedgerStateInitialSettings(t *testing.T) {
	ls := newTestLedger(t)
	ctx := context.Background()
	settings, err := ls.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, testOwner, settings.Owner)
	assert.Equal(t, testFirstAirline, settings.FirstAirline)
	assert.True(t, settings.Operational)
	assert.Equal(t, DefaultFundingThreshold, settings.FundingThreshold)
	assert.Equal(t, DefaultInsuranceCap, settings.InsuranceCap)
	assert.Equal(t, DefaultRegistrationFee, settings.RegistrationFee)
	assert.Equal(t, uint64(DefaultMinConsensus), settings.MinConsensus)
	assert.Equal(t, uint8(DefaultBucketCount), settings.BucketCount)
	assert.Equal(t, uint64(0), settings.Sequence)
	assert.Equal(t, common.Amount(0), settings.EscrowBalance)
}

func TestTransitionRollsBackOnError(t *testing.T) {
	ls := newTestLedger(t)
	ctx := context.Background()
	before, err := ls.db.GetSetting(nil)
	require.NoError(t, err)
	errTest := errors.New("test failure")
	err = ls.transition(ctx, "test", func(st *txnState) error {
		require.NoError(t, st.creditEscrow(common.Coins(5)))
		st.emit(
			AirlineFundedEventType,
			&AirlineFundedEvent{Airline: testFirstAirline, Amount: common.Coins(5)},
		)
		if err := ls.db.SetAirline(
			&models.Airline{Address: testFirstAirline.Bytes(), Funded: true},
			st.txn,
		); err != nil {
			return err
		}
		return errTest
	})
	require.ErrorIs(t, err, errTest)
	var transitionErr *TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, "test", transitionErr.Op)
	after, err := ls.db.GetSetting(nil)
	require.NoError(t, err)
	assert.Equal(t, before.EscrowBalance, after.EscrowBalance)
	assert.Equal(t, before.Sequence, after.Sequence)
	assert.Equal(t, before.Entropy, after.Entropy)
	airline, err := ls.db.GetAirline(testFirstAirline, nil)
	require.NoError(t, err)
	assert.Nil(t, airline)
	events, err := ls.Journal(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestTransitionAdvancesEntropy(t *testing.T) {
	ls := newTestLedger(t)
	ctx := context.Background()
	before, err := ls.db.GetSetting(nil)
	require.NoError(t, err)
	require.Len(t, before.Entropy, entropyLength)
	require.NoError(t, ls.transition(ctx, "noop", func(*txnState) error { return nil }))
	after, err := ls.db.GetSetting(nil)
	require.NoError(t, err)
	assert.NotEqual(t, before.Entropy, after.Entropy)
}

func TestTransitionHonorsCanceledContext(t *testing.T) {
	ls := newTestLedger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ls.FundAirline(ctx, testFirstAirline, DefaultFundingThreshold)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLedgerStatePersistence(t *testing.T) {
	dataDir := t.TempDir()
	ctx := context.Background()
	ls, err := NewLedgerState(LedgerStateConfig{
		DataDir:      dataDir,
		Owner:        testOwner,
		FirstAirline: testFirstAirline,
	})
	require.NoError(t, err)
	require.NoError(
		t,
		ls.RegisterAirline(ctx, testFirstAirline, "FA", "First Airline", testFirstAirline),
	)
	require.NoError(t, ls.FundAirline(ctx, testFirstAirline, common.Coins(3)))
	require.NoError(t, ls.Close())

	// The owner is only needed when the ledger is first created
	ls, err = NewLedgerState(LedgerStateConfig{DataDir: dataDir})
	require.NoError(t, err)
	defer func() {
		require.NoError(t, ls.Close())
	}()
	details, err := ls.GetAirlineDetails(ctx, testFirstAirline)
	require.NoError(t, err)
	assert.True(t, details.Authorized)
	assert.Equal(t, "First Airline", details.Name)
	escrow, err := ls.GetEscrowBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, common.Coins(3), escrow)
	owner, err := ls.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, testOwner, owner)
	events, err := ls.Journal(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.NoError(t, ls.SetOperatingStatus(ctx, false, testOwner))
	events, err = ls.Journal(ctx, 3, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, uint64(4), events[0].Data.(*OperationalEvent).Sequence)
}

func TestLedgerStateRecoversFromPartialCommit(t *testing.T) {
	dataDir := t.TempDir()
	ctx := context.Background()
	ls, err := NewLedgerState(LedgerStateConfig{
		DataDir:      dataDir,
		Owner:        testOwner,
		FirstAirline: testFirstAirline,
	})
	require.NoError(t, err)
	require.NoError(
		t,
		ls.RegisterAirline(ctx, testFirstAirline, "FA", "First Airline", testFirstAirline),
	)
	require.NoError(t, ls.Close())

	// Simulate a transition whose blob commit landed but whose metadata commit didn't
	db, err := database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	txn := database.NewJournalTxn(db, true)
	require.NoError(t, txn.Do(func(txn *database.Txn) error {
		if err := db.AppendJournal(
			&database.JournalEntry{
				Type:     string(OperationalEventType),
				Sequence: 2,
			},
			txn,
		); err != nil {
			return err
		}
		return db.Blob().SetCommitTimestamp(1, txn.Blob())
	}))
	require.NoError(t, db.Close())

	ls, err = NewLedgerState(LedgerStateConfig{DataDir: dataDir})
	require.NoError(t, err)
	defer func() {
		require.NoError(t, ls.Close())
	}()
	events, err := ls.Journal(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, AirlineRegisteredEventType, events[0].Type)
}

func TestLedgerStateCloseStopsGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx := context.Background()
	for range 5 {
		ls, err := NewLedgerState(LedgerStateConfig{
			Owner:        testOwner,
			FirstAirline: testFirstAirline,
		})
		require.NoError(t, err)
		_, evtCh := ls.config.EventBus.Subscribe(AirlineRegisteredEventType)
		require.NoError(
			t,
			ls.RegisterAirline(ctx, testFirstAirline, "FA", "First Airline", testFirstAirline),
		)
		evt := <-evtCh
		assert.Equal(t, AirlineRegisteredEventType, evt.Type)
		require.NoError(t, ls.Close())
	}
}
