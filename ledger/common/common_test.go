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

package common_test

import (
	"testing"

	"github.com/phizercost/flight-surety/ledger/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	testCases := []struct {
		input    string
		expected common.Amount
		wantErr  bool
	}{
		{input: "0", expected: 0},
		{input: "2", expected: common.Coins(2)},
		{input: "0.5", expected: 500_000_000},
		{input: ".25", expected: 250_000_000},
		{input: "1.000000001", expected: 1_000_000_001},
		{input: "0.75", expected: 750_000_000},
		{input: "", wantErr: true},
		{input: "1.", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "-1", wantErr: true},
		{input: "0.0000000001", wantErr: true},
		{input: "99999999999999999999", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			amount, err := common.ParseAmount(tc.input)
			if tc.wantErr {
				require.ErrorIs(t, err, common.ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, amount)
		})
	}
}

func TestAmountString(t *testing.T) {
	assert.Equal(t, "0", common.Amount(0).String())
	assert.Equal(t, "2", common.Coins(2).String())
	assert.Equal(t, "0.5", common.Amount(500_000_000).String())
	assert.Equal(t, "1.000000001", common.Amount(1_000_000_001).String())
}

func TestAmountMulRat(t *testing.T) {
	half, err := common.ParseAmount("0.5")
	require.NoError(t, err)
	credit, err := half.MulRat(3, 2)
	require.NoError(t, err)
	assert.Equal(t, "0.75", credit.String())

	_, err = common.Amount(^uint64(0)).MulRat(3, 2)
	require.ErrorIs(t, err, common.ErrInvalidAmount)
	_, err = half.MulRat(1, 0)
	require.ErrorIs(t, err, common.ErrInvalidAmount)
}

func TestParseAddress(t *testing.T) {
	addr, err := common.ParseAddress("0x00000000000000000000000000000000000000a1")
	require.NoError(t, err)
	assert.Equal(t, byte(0xa1), addr[19])
	assert.Equal(t, "0x00000000000000000000000000000000000000a1", addr.String())

	noPrefix, err := common.ParseAddress("00000000000000000000000000000000000000a1")
	require.NoError(t, err)
	assert.Equal(t, addr, noPrefix)

	_, err = common.ParseAddress("0x1234")
	require.ErrorIs(t, err, common.ErrInvalidAddress)
	_, err = common.ParseAddress("0xzz000000000000000000000000000000000000a1")
	require.ErrorIs(t, err, common.ErrInvalidAddress)
	assert.True(t, common.Address{}.IsZero())
}

func TestParseStatusCode(t *testing.T) {
	code, err := common.ParseStatusCode("20")
	require.NoError(t, err)
	assert.Equal(t, common.StatusCodeLateAirline, code)

	code, err = common.ParseStatusCode("LateWeather")
	require.NoError(t, err)
	assert.Equal(t, common.StatusCodeLateWeather, code)

	_, err = common.ParseStatusCode("15")
	require.ErrorIs(t, err, common.ErrInvalidStatusCode)
	_, err = common.ParseStatusCode("Delayed")
	require.ErrorIs(t, err, common.ErrInvalidStatusCode)

	assert.False(t, common.StatusCodeUnknown.Final())
	assert.True(t, common.StatusCodeOnTime.Final())
	assert.False(t, common.StatusCode(7).Final())
}

func TestFlightKeyHash(t *testing.T) {
	airline := common.MustParseAddress("0x00000000000000000000000000000000000000a1")
	k1 := common.NewFlightKey(airline, "COST003", 10)
	k2 := common.NewFlightKey(airline, "COST003", 10)
	assert.Equal(t, k1.Hash(), k2.Hash())
	assert.NotEqual(t, k1.Hash(), common.NewFlightKey(airline, "COST003", 11).Hash())
	assert.NotEqual(t, k1.Hash(), common.NewFlightKey(airline, "COST00", 10).Hash())
	// Length prefix keeps code/timestamp boundaries unambiguous
	assert.NotEqual(
		t,
		common.NewFlightKey(airline, "A", 0).Hash(),
		common.NewFlightKey(airline, "A\x00", 0).Hash(),
	)
}
