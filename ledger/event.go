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
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/phizercost/flight-surety/event"
	"github.com/phizercost/flight-surety/ledger/common"
)

const (
	OperationalEventType          event.EventType = "ledger.operational"
	AirlineRegisteredEventType    event.EventType = "airline.registered"
	AirlineFundedEventType        event.EventType = "airline.funded"
	AirlineAuthorizedEventType    event.EventType = "airline.authorized"
	FlightRegisteredEventType     event.EventType = "flight.registered"
	FlightStatusEventType         event.EventType = "flight.status"
	OracleRegisteredEventType     event.EventType = "oracle.registered"
	OracleRequestEventType        event.EventType = "oracle.request"
	OracleResponseEventType       event.EventType = "oracle.response"
	OracleRequestExpiredEventType event.EventType = "oracle.request.expired"
	InsurancePurchasedEventType   event.EventType = "insurance.purchased"
	InsurancePayoutEventType      event.EventType = "insurance.payout"
)

// EventTypes lists every event type published by the ledger
var EventTypes = []event.EventType{
	OperationalEventType,
	AirlineRegisteredEventType,
	AirlineFundedEventType,
	AirlineAuthorizedEventType,
	FlightRegisteredEventType,
	FlightStatusEventType,
	OracleRegisteredEventType,
	OracleRequestEventType,
	OracleResponseEventType,
	OracleRequestExpiredEventType,
	InsurancePurchasedEventType,
	InsurancePayoutEventType,
}

// EventHeader carries the journal sequence number assigned when the event was recorded
type EventHeader struct {
	Sequence uint64 `json:"sequence"`
}

func (h *EventHeader) setSequence(seq uint64) {
	h.Sequence = seq
}

func (h *EventHeader) sequence() uint64 {
	return h.Sequence
}

type sequencedEvent interface {
	setSequence(uint64)
	sequence() uint64
}

// OperationalEvent is emitted when the owner changes the operating status
type OperationalEvent struct {
	EventHeader
	ChangedBy   common.Address `json:"changedBy"`
	Operational bool           `json:"operational"`
}

type AirlineRegisteredEvent struct {
	EventHeader
	Name         string         `json:"name"`
	Code         string         `json:"code"`
	Airline      common.Address `json:"airline"`
	RegisteredBy common.Address `json:"registeredBy"`
}

type AirlineFundedEvent struct {
	EventHeader
	Airline common.Address `json:"airline"`
	Amount  common.Amount  `json:"amount"`
}

// AirlineAuthorizedEvent is emitted once, when an airline first satisfies the authorization rule
type AirlineAuthorizedEvent struct {
	EventHeader
	Airline   common.Address `json:"airline"`
	VoteCount uint64         `json:"voteCount"`
	// Authorized airlines other than this one at the time of authorization
	AuthorizedCount uint64 `json:"authorizedCount"`
}

type FlightRegisteredEvent struct {
	EventHeader
	Flight common.FlightKey `json:"flight"`
}

// FlightStatusEvent reports the status code established for a flight, either by oracle
// consensus or by a privileged update
type FlightStatusEvent struct {
	EventHeader
	Flight     common.FlightKey  `json:"flight"`
	StatusCode common.StatusCode `json:"statusCode"`
	Finalized  bool              `json:"finalized"`
}

type OracleRegisteredEvent struct {
	EventHeader
	Oracle  common.Address `json:"oracle"`
	Indexes [3]uint8       `json:"indexes"`
}

// OracleRequestEvent asks oracles holding the bucket index to report a flight's status
type OracleRequestEvent struct {
	EventHeader
	Flight      common.FlightKey `json:"flight"`
	RequestedBy common.Address   `json:"requestedBy"`
	Index       uint8            `json:"index"`
}

type OracleResponseEvent struct {
	EventHeader
	Flight     common.FlightKey  `json:"flight"`
	Oracle     common.Address    `json:"oracle"`
	Index      uint8             `json:"index"`
	StatusCode common.StatusCode `json:"statusCode"`
}

type OracleRequestExpiredEvent struct {
	EventHeader
	Flight common.FlightKey `json:"flight"`
	Index  uint8            `json:"index"`
}

type InsurancePurchasedEvent struct {
	EventHeader
	Policy common.PolicyKey `json:"policy"`
	Amount common.Amount    `json:"amount"`
	// Total paid by the passenger for the flight after this purchase
	Total common.Amount `json:"total"`
}

type InsurancePayoutEvent struct {
	EventHeader
	Policy   common.PolicyKey `json:"policy"`
	Amount   common.Amount    `json:"amount"`
	PayoutID uint             `json:"payoutId"`
}

func newEventPayload(eventType event.EventType) (sequencedEvent, error) {
	switch eventType {
	case OperationalEventType:
		return &OperationalEvent{}, nil
	case AirlineRegisteredEventType:
		return &AirlineRegisteredEvent{}, nil
	case AirlineFundedEventType:
		return &AirlineFundedEvent{}, nil
	case AirlineAuthorizedEventType:
		return &AirlineAuthorizedEvent{}, nil
	case FlightRegisteredEventType:
		return &FlightRegisteredEvent{}, nil
	case FlightStatusEventType:
		return &FlightStatusEvent{}, nil
	case OracleRegisteredEventType:
		return &OracleRegisteredEvent{}, nil
	case OracleRequestEventType:
		return &OracleRequestEvent{}, nil
	case OracleResponseEventType:
		return &OracleResponseEvent{}, nil
	case OracleRequestExpiredEventType:
		return &OracleRequestExpiredEvent{}, nil
	case InsurancePurchasedEventType:
		return &InsurancePurchasedEvent{}, nil
	case InsurancePayoutEventType:
		return &InsurancePayoutEvent{}, nil
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}
}

func decodeEventPayload(
	eventType event.EventType,
	payload []byte,
) (sequencedEvent, error) {
	ret, err := newEventPayload(eventType)
	if err != nil {
		return nil, err
	}
	if _, err := cbor.Decode(payload, ret); err != nil {
		return nil, fmt.Errorf("decode %s event: %w", eventType, err)
	}
	return ret, nil
}

// EventSequence returns the journal sequence number of an event published or
// replayed by the ledger, or 0 for foreign events
func EventSequence(evt event.Event) uint64 {
	if data, ok := evt.Data.(sequencedEvent); ok {
		return data.sequence()
	}
	return 0
}
