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

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/phizercost/flight-surety/ledger"
	"github.com/phizercost/flight-surety/ledger/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testOwner        = common.MustParseAddress("0x0100000000000000000000000000000000000001")
	testFirstAirline = common.MustParseAddress("0x1000000000000000000000000000000000000010")
	testPassenger    = common.MustParseAddress("0xa0000000000000000000000000000000000000a0")
	testStranger     = common.MustParseAddress("0xee000000000000000000000000000000000000ee")
)

const testFlightTimestamp = 1_700_000_000

// mockLedger satisfies Ledger. Methods not overridden panic through the nil
// embedded interface
type mockLedger struct {
	Ledger
	err error
}

func (m *mockLedger) IsOperational(context.Context) (bool, error) {
	return false, m.err
}

func (m *mockLedger) FundAirline(context.Context, common.Address, common.Amount) error {
	return m.err
}

func newTestAPI(t *testing.T) (*API, *ledger.LedgerState) {
	t.Helper()
	ls, err := ledger.NewLedgerState(ledger.LedgerStateConfig{
		Owner:        testOwner,
		FirstAirline: testFirstAirline,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, ls.Close())
	})
	return New(Config{ListenAddress: ":0"}, ls, nil), ls
}

func doRequest(
	t *testing.T,
	h http.Handler,
	method string,
	path string,
	body any,
) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var ret T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ret))
	return ret
}

func authorizeFirstAirline(t *testing.T, ls *ledger.LedgerState) {
	t.Helper()
	ctx := t.Context()
	require.NoError(
		t,
		ls.RegisterAirline(ctx, testFirstAirline, "FA", "First Air", testFirstAirline),
	)
	require.NoError(t, ls.FundAirline(ctx, testFirstAirline, ledger.DefaultFundingThreshold))
}

func flightBody(from common.Address, extra map[string]any) map[string]any {
	body := map[string]any{
		"from":      from,
		"airline":   testFirstAirline,
		"flight":    "ND1309",
		"timestamp": testFlightTimestamp,
	}
	for k, v := range extra {
		body[k] = v
	}
	return body
}

func TestStartStop(t *testing.T) {
	a, _ := newTestAPI(t)
	require.NoError(t, a.Start(t.Context()))

	a.mu.Lock()
	assert.NotNil(t, a.httpServer)
	a.mu.Unlock()

	err := a.Start(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + a.Addr() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	client.CloseIdleConnections()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, a.Stop(stopCtx))

	a.mu.Lock()
	assert.Nil(t, a.httpServer)
	a.mu.Unlock()
}

func TestHealth(t *testing.T) {
	a, _ := newTestAPI(t)
	w := doRequest(t, a.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.True(t, decodeBody[HealthResponse](t, w).IsHealthy)
}

func TestGRPCHealth(t *testing.T) {
	a, _ := newTestAPI(t)
	req := httptest.NewRequest(
		http.MethodPost,
		"/grpc.health.v1.Health/Check",
		strings.NewReader("{}"),
	)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SERVING")
}

func TestFlightInsuranceFlow(t *testing.T) {
	a, ls := newTestAPI(t)
	h := a.Handler()

	w := doRequest(t, h, http.MethodPost, "/api/v1/registerAirline", map[string]any{
		"from":    testFirstAirline,
		"airline": testFirstAirline,
		"code":    "FA",
		"name":    "First Air",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(t, h, http.MethodPost, "/api/v1/fundAirline", map[string]any{
		"from":  testFirstAirline,
		"value": "2",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "fundAirline", decodeBody[TransitionResponse](t, w).Operation)

	w = doRequest(t, h, http.MethodPost, "/api/v1/registerFlight", map[string]any{
		"from":      testFirstAirline,
		"flight":    "ND1309",
		"timestamp": testFlightTimestamp,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(t, h, http.MethodPost, "/api/v1/buy", flightBody(
		testPassenger,
		map[string]any{"value": "0.5"},
	))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	policyPath := fmt.Sprintf(
		"/api/v1/policies/%s/%s/ND1309/%d",
		testPassenger,
		testFirstAirline,
		testFlightTimestamp,
	)
	w = doRequest(t, h, http.MethodGet, policyPath, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	policy := decodeBody[ledger.PolicyInfo](t, w)
	assert.Equal(t, common.Amount(500_000_000), policy.AmountPaid)
	assert.False(t, policy.Credited)

	w = doRequest(t, h, http.MethodPost, "/api/v1/updateFlightStatus", flightBody(
		testOwner,
		map[string]any{"statusCode": common.StatusCodeLateAirline},
	))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	flightPath := fmt.Sprintf(
		"/api/v1/flights/%s/ND1309/%d",
		testFirstAirline,
		testFlightTimestamp,
	)
	w = doRequest(t, h, http.MethodGet, flightPath, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	flight := decodeBody[ledger.FlightInfo](t, w)
	assert.True(t, flight.Finalized)
	assert.Equal(t, common.StatusCodeLateAirline, flight.StatusCode)

	w = doRequest(t, h, http.MethodPost, "/api/v1/pay", flightBody(testPassenger, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	pay := decodeBody[PayResponse](t, w)
	assert.Equal(t, testPassenger, pay.Passenger)
	assert.Equal(t, common.Amount(750_000_000), pay.Amount)

	w = doRequest(t, h, http.MethodPost, "/api/v1/pay", flightBody(testPassenger, nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(t, h, http.MethodGet, "/api/v1/accounts/"+testPassenger.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, common.Amount(750_000_000), decodeBody[BalanceResponse](t, w).Balance)

	w = doRequest(t, h, http.MethodGet, "/api/v1/escrow", nil)
	require.Equal(t, http.StatusOK, w.Code)
	escrow, err := ls.GetEscrowBalance(t.Context())
	require.NoError(t, err)
	assert.Equal(t, escrow, decodeBody[BalanceResponse](t, w).Balance)
}

func TestEventsEndpoint(t *testing.T) {
	a, ls := newTestAPI(t)
	h := a.Handler()
	ctx := t.Context()
	authorizeFirstAirline(t, ls)
	require.NoError(
		t,
		ls.RegisterFlight(ctx, testFirstAirline, "ND1309", testFlightTimestamp, testFirstAirline),
	)

	w := doRequest(t, h, http.MethodGet, "/api/v1/events?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decodeBody[[]map[string]any](t, w)
	require.Len(t, first, 1)
	assert.Equal(t, string(ledger.AirlineRegisteredEventType), first[0]["type"])
	next := w.Header().Get("X-Journal-Next-Since")
	assert.Equal(t, "1", next)

	w = doRequest(t, h, http.MethodGet, "/api/v1/events?since="+next, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rest := decodeBody[[]map[string]any](t, w)
	require.NotEmpty(t, rest)
	for _, evt := range rest {
		assert.NotEqual(t, string(ledger.AirlineRegisteredEventType), evt["type"])
	}

	w = doRequest(t, h, http.MethodGet, "/api/v1/events?since=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOperatingStatusEndpoints(t *testing.T) {
	a, _ := newTestAPI(t)
	h := a.Handler()

	w := doRequest(t, h, http.MethodPost, "/api/v1/setOperatingStatus", map[string]any{
		"from":        testStranger,
		"operational": false,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, h, http.MethodPost, "/api/v1/setOperatingStatus", map[string]any{
		"from":        testOwner,
		"operational": false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(t, h, http.MethodGet, "/api/v1/operational", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeBody[OperationalResponse](t, w).Operational)

	w = doRequest(t, h, http.MethodPost, "/api/v1/fundAirline", map[string]any{
		"from":  testFirstAirline,
		"value": "2",
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decodeBody[ErrorResponse](t, w)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, resp.Message, ledger.ErrNotOperational.Error())
}

func TestAirlineEndpoints(t *testing.T) {
	a, ls := newTestAPI(t)
	h := a.Handler()
	authorizeFirstAirline(t, ls)
	candidate := common.MustParseAddress("0x2000000000000000000000000000000000000020")

	w := doRequest(t, h, http.MethodPost, "/api/v1/registerAirline", map[string]any{
		"from":    testFirstAirline,
		"airline": candidate,
		"code":    "BA",
		"name":    "Second Air",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(t, h, http.MethodPost, "/api/v1/registerAirline", map[string]any{
		"from":    testFirstAirline,
		"airline": candidate,
		"code":    "BA",
		"name":    "Second Air",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(t, h, http.MethodGet, "/api/v1/airlines/"+candidate.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	details := decodeBody[ledger.AirlineDetails](t, w)
	assert.Equal(t, "Second Air", details.Name)
	assert.True(t, details.Registered)
	assert.False(t, details.Funded)

	w = doRequest(t, h, http.MethodGet, "/api/v1/airlines/"+candidate.String()+"/votes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	votes := decodeBody[VotesResponse](t, w)
	assert.Empty(t, votes.Voters)

	w = doRequest(t, h, http.MethodGet, "/api/v1/airlines", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]ledger.AirlineDetails](t, w), 2)

	w = doRequest(t, h, http.MethodGet, "/api/v1/airlines/"+testStranger.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, h, http.MethodGet, "/api/v1/airlines/not-an-address", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOracleEndpoints(t *testing.T) {
	a, ls := newTestAPI(t)
	h := a.Handler()
	ctx := t.Context()
	authorizeFirstAirline(t, ls)
	require.NoError(
		t,
		ls.RegisterFlight(ctx, testFirstAirline, "ND1309", testFlightTimestamp, testFirstAirline),
	)
	oracle := common.MustParseAddress("0x0c0000000000000000000000000000000000000c")

	w := doRequest(t, h, http.MethodPost, "/api/v1/registerOracle", map[string]any{
		"from":  oracle,
		"value": "0.5",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, h, http.MethodPost, "/api/v1/registerOracle", map[string]any{
		"from":  oracle,
		"value": "1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(t, h, http.MethodGet, "/api/v1/oracles/"+oracle.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decodeBody[ledger.OracleInfo](t, w)

	w = doRequest(t, h, http.MethodPost, "/api/v1/fetchFlightStatus", flightBody(testPassenger, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	requestPath := fmt.Sprintf(
		"/api/v1/flights/%s/ND1309/%d/request",
		testFirstAirline,
		testFlightTimestamp,
	)
	w = doRequest(t, h, http.MethodGet, requestPath, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	request := decodeBody[ledger.OracleRequestInfo](t, w)
	assert.True(t, request.IsOpen)

	// An index the oracle does not hold is rejected
	var unassigned uint8
	for idx := range ls.Params().BucketCount {
		if idx != info.Indexes[0] && idx != info.Indexes[1] && idx != info.Indexes[2] {
			unassigned = idx
			break
		}
	}
	w = doRequest(t, h, http.MethodPost, "/api/v1/submitOracleResponse", flightBody(
		oracle,
		map[string]any{
			"index":      unassigned,
			"statusCode": common.StatusCodeOnTime,
		},
	))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestInvalidRequestBody(t *testing.T) {
	a, _ := newTestAPI(t)
	h := a.Handler()
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed", body: "{"},
		{name: "unknown field", body: `{"from":"0x1000000000000000000000000000000000000010","bogus":1}`},
		{name: "bad address", body: `{"from":"0x10"}`},
		{name: "bad amount", body: `{"from":"0x1000000000000000000000000000000000000010","value":"1.2.3"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(
				http.MethodPost,
				"/api/v1/fundAirline",
				strings.NewReader(tc.body),
			)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ledger.ErrUnauthorized, http.StatusForbidden},
		{ledger.ErrNotOperational, http.StatusServiceUnavailable},
		{ledger.ErrInvalidAmount, http.StatusBadRequest},
		{ledger.ErrInvalidArgument, http.StatusBadRequest},
		{ledger.ErrAlreadyExists, http.StatusConflict},
		{ledger.ErrNotFound, http.StatusNotFound},
		{ledger.ErrRequestClosed, http.StatusConflict},
		{ledger.ErrIndexMismatch, http.StatusUnprocessableEntity},
		{ledger.ErrNothingToWithdraw, http.StatusConflict},
		{ledger.ErrInsufficientFunds, http.StatusPaymentRequired},
		{&ledger.TransitionError{Op: "buy", Err: ledger.ErrInvalidAmount}, http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			assert.Equal(t, tc.want, statusForError(tc.err))
		})
	}
}

func TestInternalErrorHidden(t *testing.T) {
	a := New(Config{}, &mockLedger{err: errors.New("disk on fire")}, nil)
	h := a.Handler()

	w := doRequest(t, h, http.MethodGet, "/api/v1/operational", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeBody[ErrorResponse](t, w)
	assert.Equal(t, "internal error", resp.Message)
	assert.NotContains(t, resp.Message, "disk")

	w = doRequest(t, h, http.MethodPost, "/api/v1/fundAirline", map[string]any{
		"from":  testFirstAirline,
		"value": "2",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestPayoutEndpoints(t *testing.T) {
	a, _ := newTestAPI(t)
	h := a.Handler()

	w := doRequest(t, h, http.MethodGet, "/api/v1/payouts/pending", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, decodeBody[[]ledger.PayoutInfo](t, w))

	w = doRequest(t, h, http.MethodPost, "/api/v1/resolvePayout", map[string]any{
		"from":        testStranger,
		"payoutId":    1,
		"transferred": true,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, h, http.MethodPost, "/api/v1/resolvePayout", map[string]any{
		"from":        testOwner,
		"payoutId":    1,
		"transferred": true,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
