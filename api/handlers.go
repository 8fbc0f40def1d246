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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/phizercost/flight-surety/ledger"
	"github.com/phizercost/flight-surety/ledger/common"
)

const maxRequestBodySize = 1 << 16

// writeJSON writes a JSON response with the given status code
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(
	w http.ResponseWriter,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// statusForError maps a ledger error to the HTTP status reported to the client
func statusForError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrNotOperational):
		return http.StatusServiceUnavailable
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidArgument),
		errors.Is(err, common.ErrInvalidAmount),
		errors.Is(err, common.ErrInvalidAddress),
		errors.Is(err, common.ErrInvalidStatusCode):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrAlreadyExists),
		errors.Is(err, ledger.ErrRequestClosed),
		errors.Is(err, ledger.ErrNothingToWithdraw):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrIndexMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// writeLedgerError reports a failed ledger call. Internal errors are logged and
// their detail withheld from the client
func (a *API) writeLedgerError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		a.logger.Error(
			"ledger call failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, status, "internal error")
		return
	}
	a.logger.Debug(
		"ledger call rejected",
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	writeError(w, status, err.Error())
}

// decodeRequest reads a JSON request body into dst. It writes the error
// response itself and reports whether decoding succeeded
func decodeRequest(
	w http.ResponseWriter,
	r *http.Request,
	dst any,
) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			fmt.Sprintf("invalid request body: %s", err),
		)
		return false
	}
	return true
}

func (a *API) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

func (a *API) transitionDone(
	w http.ResponseWriter,
	r *http.Request,
	operation string,
	err error,
) {
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TransitionResponse{Operation: operation})
}

func (a *API) handleSetOperatingStatus(w http.ResponseWriter, r *http.Request) {
	var req OperatingStatusRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	err := a.ledger.SetOperatingStatus(r.Context(), req.Operational, req.From)
	a.transitionDone(w, r, "setOperatingStatus", err)
}

func (a *API) handleAuthorizeCaller(w http.ResponseWriter, r *http.Request) {
	var req CallerRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	err := a.ledger.AuthorizeCaller(r.Context(), req.Address, req.From)
	a.transitionDone(w, r, "authorizeCaller", err)
}

func (a *API) handleDeauthorizeCaller(w http.ResponseWriter, r *http.Request) {
	var req CallerRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	err := a.ledger.DeauthorizeCaller(r.Context(), req.Address, req.From)
	a.transitionDone(w, r, "deauthorizeCaller", err)
}

func (a *API) handleFundAirline(w http.ResponseWriter, r *http.Request) {
	var req Request
	if !decodeRequest(w, r, &req) {
		return
	}
	err := a.ledger.FundAirline(r.Context(), req.From, req.Value)
	a.transitionDone(w, r, "fundAirline", err)
}

func (a *API) handleRegisterAirline(w http.ResponseWriter, r *http.Request) {
	var req RegisterAirlineRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	err := a.ledger.RegisterAirline(
		r.Context(),
		req.Airline,
		req.Code,
		req.Name,
		req.From,
	)
	a.transitionDone(w, r, "registerAirline", err)
}

func (a *API) handleVoteAirline(w http.ResponseWriter, r *http.Request) {
	var req VoteAirlineRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	err := a.ledger.VoteAirline(r.Context(), req.From, req.Airline)
	a.transitionDone(w, r, "voteAirline", err)
}

func (a *API) handleChangeAirlineFundingAmount(w http.ResponseWriter, r *http.Request) {
	var req Request
	if !decodeRequest(w, r, &req) {
		return
	}
	err := a.ledger.ChangeAirlineFundingAmount(r.Context(), req.Value, req.From)
	a.transitionDone(w, r, "changeAirlineFundingAmount", err)
}

func (a *API) handleRegisterFlight(w http.ResponseWriter, r *http.Request) {
	var req FlightRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.Airline.IsZero() {
		req.Airline = req.From
	}
	err := a.ledger.RegisterFlight(
		r.Context(),
		req.Airline,
		req.Flight,
		req.Timestamp,
		req.From,
	)
	a.transitionDone(w, r, "registerFlight", err)
}

func (a *API) handleUpdateFlightStatus(w http.ResponseWriter, r *http.Request) {
	var req FlightStatusRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	err := a.ledger.UpdateFlightStatus(
		r.Context(),
		req.key(),
		req.StatusCode,
		req.From,
	)
	a.transitionDone(w, r, "updateFlightStatus", err)
}

func (a *API) handleFetchFlightStatus(w http.ResponseWriter, r *http.Request) {
	var req FlightRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	err := a.ledger.FetchFlightStatus(r.Context(), req.key(), req.From)
	a.transitionDone(w, r, "fetchFlightStatus", err)
}

func (a *API) handleRegisterOracle(w http.ResponseWriter, r *http.Request) {
	var req Request
	if !decodeRequest(w, r, &req) {
		return
	}
	err := a.ledger.RegisterOracle(r.Context(), req.From, req.Value)
	a.transitionDone(w, r, "registerOracle", err)
}

func (a *API) handleSubmitOracleResponse(w http.ResponseWriter, r *http.Request) {
	var req OracleResponseRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	err := a.ledger.SubmitOracleResponse(
		r.Context(),
		req.Index,
		req.key(),
		req.StatusCode,
		req.From,
	)
	a.transitionDone(w, r, "submitOracleResponse", err)
}

func (a *API) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req FlightRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	err := a.ledger.Buy(r.Context(), req.From, req.key(), req.Value)
	a.transitionDone(w, r, "buy", err)
}

func (a *API) handlePay(w http.ResponseWriter, r *http.Request) {
	var req PayRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.Passenger.IsZero() {
		req.Passenger = req.From
	}
	amount, err := a.ledger.Pay(r.Context(), req.Passenger, req.key(), req.From)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PayResponse{
		Passenger: req.Passenger,
		Amount:    amount,
	})
}

func (a *API) handleResolvePayout(w http.ResponseWriter, r *http.Request) {
	var req ResolvePayoutRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	err := a.ledger.ResolvePayout(r.Context(), req.PayoutID, req.Transferred, req.From)
	a.transitionDone(w, r, "resolvePayout", err)
}
