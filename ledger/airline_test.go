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
	"fmt"
	"testing"

	"github.com/phizercost/flight-surety/ledger/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAuthorized(t *testing.T) {
	testCases := []struct {
		votes      uint64
		authorized uint64
		expected   bool
	}{
		{votes: 0, authorized: 0, expected: true},
		{votes: 0, authorized: 3, expected: true},
		{votes: 0, authorized: 4, expected: false},
		{votes: 1, authorized: 4, expected: false},
		{votes: 2, authorized: 4, expected: true},
		{votes: 2, authorized: 5, expected: false},
		{votes: 3, authorized: 5, expected: true},
		{votes: 3, authorized: 6, expected: true},
		{votes: 3, authorized: 7, expected: false},
	}
	for _, tc := range testCases {
		t.Run(
			fmt.Sprintf("%d votes of %d authorized", tc.votes, tc.authorized),
			func(t *testing.T) {
				assert.Equal(
					t,
					tc.expected,
					isAuthorized(tc.votes, tc.authorized, DefaultMultipartyThreshold),
				)
			},
		)
	}
}

func TestAirlineAdmission(t *testing.T) {
	ls := newTestLedger(t)
	ctx := context.Background()
	// The first four funded registrants authorize without votes
	airlines := []common.Address{
		testFirstAirline,
		testAddress(0x11),
		testAddress(0x12),
		testAddress(0x13),
	}
	for _, airline := range airlines {
		addAuthorizedAirline(t, ls, airline)
	}
	count, err := ls.GetAuthorizedAirlineCount(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(4), count)

	fifth := testAddress(0x14)
	require.NoError(t, ls.RegisterAirline(ctx, fifth, "A5", "Fifth", airlines[1]))
	require.NoError(t, ls.FundAirline(ctx, fifth, DefaultFundingThreshold))
	authorized, err := ls.IsAirlineAuthorized(ctx, fifth)
	require.NoError(t, err)
	require.False(t, authorized)

	// One vote of four is not enough
	require.NoError(t, ls.VoteAirline(ctx, airlines[1], fifth))
	authorized, err = ls.IsAirlineAuthorized(ctx, fifth)
	require.NoError(t, err)
	require.False(t, authorized)

	// A repeated vote is ignored
	require.NoError(t, ls.VoteAirline(ctx, airlines[1], fifth))
	votes, err := ls.GetAirlineVoteCount(ctx, fifth)
	require.NoError(t, err)
	require.Equal(t, uint64(1), votes)

	// Two votes of four authorizes
	require.NoError(t, ls.VoteAirline(ctx, airlines[2], fifth))
	authorized, err = ls.IsAirlineAuthorized(ctx, fifth)
	require.NoError(t, err)
	require.True(t, authorized)
	voters, err := ls.GetAirlineVoters(ctx, fifth)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{airlines[1], airlines[2]}, voters)

	// Further votes for an authorized airline are rejected
	err = ls.VoteAirline(ctx, airlines[3], fifth)
	require.ErrorIs(t, err, ErrAlreadyExists)

	count, err = ls.GetAuthorizedAirlineCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), count)
	escrow, err := ls.GetEscrowBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultFundingThreshold*5, escrow)
}

func TestAirlineAuthorizationNeedsFundingAndRegistration(t *testing.T) {
	ls := newTestLedger(t)
	ctx := context.Background()
	airline := testAddress(0x20)

	// Funding before registration is allowed but does not authorize
	require.NoError(t, ls.FundAirline(ctx, airline, DefaultFundingThreshold))
	details, err := ls.GetAirlineDetails(ctx, airline)
	require.NoError(t, err)
	assert.True(t, details.Funded)
	assert.False(t, details.Registered)
	assert.False(t, details.Authorized)

	require.NoError(t, ls.RegisterAirline(ctx, airline, "AB", "Airline B", testFirstAirline))
	details, err = ls.GetAirlineDetails(ctx, airline)
	require.NoError(t, err)
	assert.True(t, details.Registered)
	assert.True(t, details.Authorized)
	assert.Equal(t, testFirstAirline, details.RegisteredBy)
	assert.Equal(t, "AB", details.Code)

	// Registration without funding does not authorize
	other := testAddress(0x21)
	require.NoError(t, ls.RegisterAirline(ctx, other, "AC", "Airline C", testFirstAirline))
	authorized, err := ls.IsAirlineAuthorized(ctx, other)
	require.NoError(t, err)
	assert.False(t, authorized)
	registered, err := ls.IsAirlineRegistered(ctx, other)
	require.NoError(t, err)
	assert.True(t, registered)
}

func TestFundAirline(t *testing.T) {
	ls := newTestLedger(t)
	ctx := context.Background()
	airline := testAddress(0x30)

	err := ls.FundAirline(ctx, airline, DefaultFundingThreshold-1)
	require.ErrorIs(t, err, ErrInvalidAmount)
	funded, err := ls.IsAirlineFunded(ctx, airline)
	require.NoError(t, err)
	assert.False(t, funded)

	// Overpayment is accepted in full
	require.NoError(t, ls.FundAirline(ctx, airline, common.Coins(3)))
	escrow, err := ls.GetEscrowBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, common.Coins(3), escrow)

	// Repeat funding changes nothing
	require.NoError(t, ls.FundAirline(ctx, airline, common.Coins(5)))
	escrow, err = ls.GetEscrowBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, common.Coins(3), escrow)
	details, err := ls.GetAirlineDetails(ctx, airline)
	require.NoError(t, err)
	assert.Equal(t, common.Coins(3), details.FundedAmount)
}

func TestRegisterAirlineErrors(t *testing.T) {
	ls := newTestLedger(t)
	ctx := context.Background()
	airline := testAddress(0x40)

	err := ls.RegisterAirline(ctx, airline, "AD", "Airline D", testAddress(0x99))
	require.ErrorIs(t, err, ErrUnauthorized)

	// A registered but unfunded airline can't register others
	require.NoError(t, ls.RegisterAirline(ctx, airline, "AD", "Airline D", testFirstAirline))
	err = ls.RegisterAirline(ctx, testAddress(0x41), "AE", "Airline E", airline)
	require.ErrorIs(t, err, ErrUnauthorized)

	err = ls.RegisterAirline(ctx, airline, "AD", "Airline D", testFirstAirline)
	require.ErrorIs(t, err, ErrAlreadyExists)

	err = ls.RegisterAirline(ctx, common.Address{}, "AF", "Airline F", testFirstAirline)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestVoteAirlineErrors(t *testing.T) {
	ls := newTestLedger(t)
	ctx := context.Background()
	voter := testAddress(0x50)
	addAuthorizedAirline(t, ls, voter)
	candidate := testAddress(0x51)

	err := ls.VoteAirline(ctx, voter, candidate)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, ls.RegisterAirline(ctx, candidate, "AG", "Airline G", voter))
	err = ls.VoteAirline(ctx, testAddress(0x52), candidate)
	require.ErrorIs(t, err, ErrUnauthorized)

	err = ls.VoteAirline(ctx, candidate, voter)
	require.ErrorIs(t, err, ErrUnauthorized)

	err = ls.VoteAirline(ctx, candidate, voter)
	var transitionErr *TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, "voteAirline", transitionErr.Op)
}

func TestChangeAirlineFundingAmount(t *testing.T) {
	ls := newTestLedger(t)
	ctx := context.Background()
	airline := testAddress(0x60)

	err := ls.ChangeAirlineFundingAmount(ctx, common.Coins(3), airline)
	require.ErrorIs(t, err, ErrUnauthorized)
	err = ls.ChangeAirlineFundingAmount(ctx, 0, testOwner)
	require.ErrorIs(t, err, ErrInvalidAmount)

	require.NoError(t, ls.ChangeAirlineFundingAmount(ctx, common.Coins(3), testOwner))
	amount, err := ls.GetAirlineFundingAmount(ctx)
	require.NoError(t, err)
	assert.Equal(t, common.Coins(3), amount)

	err = ls.FundAirline(ctx, airline, common.Coins(2))
	require.ErrorIs(t, err, ErrInvalidAmount)
	require.NoError(t, ls.FundAirline(ctx, airline, common.Coins(3)))
}

func TestListAirlines(t *testing.T) {
	ls := newTestLedger(t)
	ctx := context.Background()
	addAuthorizedAirline(t, ls, testFirstAirline)
	addAuthorizedAirline(t, ls, testAddress(0x70))
	airlines, err := ls.ListAirlines(ctx)
	require.NoError(t, err)
	require.Len(t, airlines, 2)
	_, err = ls.GetAirlineDetails(ctx, testAddress(0x71))
	require.ErrorIs(t, err, ErrNotFound)
}
