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
	"github.com/phizercost/flight-surety/ledger/common"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// TransitionResponse acknowledges an accepted state transition
type TransitionResponse struct {
	Operation string `json:"operation"`
}

// Request carries the fields shared by every transition. From is the sender and
// Value the attached amount in decimal coins
type Request struct {
	From  common.Address `json:"from"`
	Value common.Amount  `json:"value"`
}

// FlightRequest names a flight. Airline defaults to the sender where an
// operation is performed by the airline itself
type FlightRequest struct {
	Request
	Airline   common.Address `json:"airline"`
	Flight    string         `json:"flight"`
	Timestamp int64          `json:"timestamp"`
}

func (r FlightRequest) key() common.FlightKey {
	return common.NewFlightKey(r.Airline, r.Flight, r.Timestamp)
}

type OperatingStatusRequest struct {
	Request
	Operational bool `json:"operational"`
}

type ResolvePayoutRequest struct {
	Request
	PayoutID    uint `json:"payoutId"`
	Transferred bool `json:"transferred"`
}

type CallerRequest struct {
	Request
	Address common.Address `json:"address"`
}

type RegisterAirlineRequest struct {
	Request
	Airline common.Address `json:"airline"`
	Code    string         `json:"code"`
	Name    string         `json:"name"`
}

type VoteAirlineRequest struct {
	Request
	Airline common.Address `json:"airline"`
}

type FlightStatusRequest struct {
	FlightRequest
	StatusCode common.StatusCode `json:"statusCode"`
}

type OracleResponseRequest struct {
	FlightStatusRequest
	Index uint8 `json:"index"`
}

// PayRequest withdraws a passenger's credit. Passenger defaults to the sender
type PayRequest struct {
	FlightRequest
	Passenger common.Address `json:"passenger"`
}

type PayResponse struct {
	Passenger common.Address `json:"passenger"`
	Amount    common.Amount  `json:"amount"`
}

type OperationalResponse struct {
	Operational bool `json:"operational"`
}

type BalanceResponse struct {
	Address common.Address `json:"address,omitzero"`
	Balance common.Amount  `json:"balance"`
}

type VotesResponse struct {
	Airline   common.Address   `json:"airline"`
	Voters    []common.Address `json:"voters"`
	VoteCount int              `json:"voteCount"`
}
