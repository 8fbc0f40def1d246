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
	"net/http"
	"strconv"

	"github.com/phizercost/flight-surety/ledger"
	"github.com/phizercost/flight-surety/ledger/common"
)

// pathAddress parses an address path value, writing a 400 response on failure
func pathAddress(
	w http.ResponseWriter,
	r *http.Request,
	name string,
) (common.Address, bool) {
	addr, err := common.ParseAddress(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, name+": "+err.Error())
		return addr, false
	}
	return addr, true
}

// pathFlightKey parses the {airline}/{flight}/{ts} path values
func pathFlightKey(
	w http.ResponseWriter,
	r *http.Request,
) (common.FlightKey, bool) {
	airline, ok := pathAddress(w, r, "airline")
	if !ok {
		return common.FlightKey{}, false
	}
	ts, err := strconv.ParseInt(r.PathValue("ts"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "ts: invalid timestamp")
		return common.FlightKey{}, false
	}
	return common.NewFlightKey(airline, r.PathValue("flight"), ts), true
}

func (a *API) handleOperational(w http.ResponseWriter, r *http.Request) {
	operational, err := a.ledger.IsOperational(r.Context())
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OperationalResponse{Operational: operational})
}

func (a *API) handleSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := a.ledger.Settings(r.Context())
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (a *API) handleEscrow(w http.ResponseWriter, r *http.Request) {
	balance, err := a.ledger.GetEscrowBalance(r.Context())
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{Balance: balance})
}

func (a *API) handlePendingPayouts(w http.ResponseWriter, r *http.Request) {
	payouts, err := a.ledger.GetPendingPayouts(r.Context())
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payouts)
}

func (a *API) handleEvents(w http.ResponseWriter, r *http.Request) {
	params, err := ParseJournalParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	events, err := a.ledger.Journal(r.Context(), params.Since, params.Limit)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	next := params.Since
	if len(events) > 0 {
		next = ledger.EventSequence(events[len(events)-1])
	}
	SetJournalHeaders(w, next)
	writeJSON(w, http.StatusOK, events)
}

func (a *API) handleListAirlines(w http.ResponseWriter, r *http.Request) {
	airlines, err := a.ledger.ListAirlines(r.Context())
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	if airlines == nil {
		airlines = []ledger.AirlineDetails{}
	}
	writeJSON(w, http.StatusOK, airlines)
}

func (a *API) handleAirline(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "addr")
	if !ok {
		return
	}
	details, err := a.ledger.GetAirlineDetails(r.Context(), addr)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (a *API) handleAirlineVotes(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "addr")
	if !ok {
		return
	}
	voters, err := a.ledger.GetAirlineVoters(r.Context(), addr)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	if voters == nil {
		voters = []common.Address{}
	}
	writeJSON(w, http.StatusOK, VotesResponse{
		Airline:   addr,
		Voters:    voters,
		VoteCount: len(voters),
	})
}

func (a *API) handleAirlineFlights(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "addr")
	if !ok {
		return
	}
	flights, err := a.ledger.ListFlights(r.Context(), addr)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	if flights == nil {
		flights = []ledger.FlightInfo{}
	}
	writeJSON(w, http.StatusOK, flights)
}

func (a *API) handleFlight(w http.ResponseWriter, r *http.Request) {
	key, ok := pathFlightKey(w, r)
	if !ok {
		return
	}
	flight, err := a.ledger.GetFlight(r.Context(), key)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, flight)
}

func (a *API) handleFlightRequest(w http.ResponseWriter, r *http.Request) {
	key, ok := pathFlightKey(w, r)
	if !ok {
		return
	}
	req, err := a.ledger.GetOracleRequest(r.Context(), key)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (a *API) handlePolicy(w http.ResponseWriter, r *http.Request) {
	passenger, ok := pathAddress(w, r, "passenger")
	if !ok {
		return
	}
	key, ok := pathFlightKey(w, r)
	if !ok {
		return
	}
	policy, err := a.ledger.GetPolicy(r.Context(), passenger, key)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

func (a *API) handleOracle(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "addr")
	if !ok {
		return
	}
	oracle, err := a.ledger.GetOracle(r.Context(), addr)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, oracle)
}

func (a *API) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "addr")
	if !ok {
		return
	}
	balance, err := a.ledger.GetAccountBalance(r.Context(), addr)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{
		Address: addr,
		Balance: balance,
	})
}
