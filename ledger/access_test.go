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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetOperatingStatus(t *testing.T) {
	ls := newTestLedger(t)
	ctx := context.Background()

	err := ls.SetOperatingStatus(ctx, false, testFirstAirline)
	require.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, ls.SetOperatingStatus(ctx, false, testOwner))
	operational, err := ls.IsOperational(ctx)
	require.NoError(t, err)
	assert.False(t, operational)

	// Mutating operations are rejected while paused
	err = ls.FundAirline(ctx, testFirstAirline, DefaultFundingThreshold)
	require.ErrorIs(t, err, ErrNotOperational)
	err = ls.RegisterAirline(ctx, testFirstAirline, "FA", "First", testFirstAirline)
	require.ErrorIs(t, err, ErrNotOperational)
	err = ls.AuthorizeCaller(ctx, testAddress(0x02), testOwner)
	require.ErrorIs(t, err, ErrNotOperational)

	// Reads still work
	funded, err := ls.IsAirlineFunded(ctx, testFirstAirline)
	require.NoError(t, err)
	assert.False(t, funded)

	require.NoError(t, ls.SetOperatingStatus(ctx, true, testOwner))
	require.NoError(t, ls.FundAirline(ctx, testFirstAirline, DefaultFundingThreshold))

	events, err := ls.Journal(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, OperationalEventType, events[0].Type)
	assert.False(t, events[0].Data.(*OperationalEvent).Operational)
	assert.True(t, events[1].Data.(*OperationalEvent).Operational)
}

func TestSetOperatingStatusUnchanged(t *testing.T) {
	ls := newTestLedger(t)
	ctx := context.Background()
	require.NoError(t, ls.SetOperatingStatus(ctx, true, testOwner))
	events, err := ls.Journal(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestAuthorizeCaller(t *testing.T) {
	ls := newTestLedger(t)
	ctx := context.Background()
	caller := testAddress(0x02)

	err := ls.AuthorizeCaller(ctx, caller, caller)
	require.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, ls.AuthorizeCaller(ctx, caller, testOwner))
	authorized, err := ls.IsCallerAuthorized(ctx, caller)
	require.NoError(t, err)
	assert.True(t, authorized)
	// Authorizing twice is harmless
	require.NoError(t, ls.AuthorizeCaller(ctx, caller, testOwner))

	err = ls.DeauthorizeCaller(ctx, caller, caller)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.NoError(t, ls.DeauthorizeCaller(ctx, caller, testOwner))
	authorized, err = ls.IsCallerAuthorized(ctx, caller)
	require.NoError(t, err)
	assert.False(t, authorized)
}
