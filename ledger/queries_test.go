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
	"time"

	"github.com/phizercost/flight-surety/event"
	"github.com/phizercost/flight-surety/ledger/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subscribeEvents(
	t *testing.T,
	ls *LedgerState,
	eventType event.EventType,
) (<-chan event.Event, func()) {
	t.Helper()
	subId, ch := ls.EventBus().Subscribe(eventType)
	return ch, func() {
		ls.EventBus().Unsubscribe(eventType, subId)
	}
}

func waitEvent(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	select {
	case evt, ok := <-ch:
		require.True(t, ok, "event channel closed")
		return evt
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timed out waiting for event")
	}
	return event.Event{}
}

func TestJournalReplay(t *testing.T) {
	ls := newTestLedger(t)
	ctx := context.Background()
	statuses, unsubscribe := subscribeEvents(t, ls, FlightStatusEventType)
	defer unsubscribe()
	key := addTestFlight(t, ls, "ND1330")
	require.NoError(t, ls.Buy(ctx, testPassenger, key, common.Coins(1)))
	require.NoError(t, ls.UpdateFlightStatus(ctx, key, common.StatusCodeLateAirline, testOwner))
	published := waitEvent(t, statuses)

	events, err := ls.Journal(ctx, 0, 0)
	require.NoError(t, err)
	expectedTypes := []event.EventType{
		AirlineRegisteredEventType,
		AirlineFundedEventType,
		AirlineAuthorizedEventType,
		FlightRegisteredEventType,
		InsurancePurchasedEventType,
		FlightStatusEventType,
	}
	require.Len(t, events, len(expectedTypes))
	for i, evt := range events {
		assert.Equal(t, expectedTypes[i], evt.Type)
	}

	// The journal holds the same event that was published
	replayed := events[5].Data.(*FlightStatusEvent)
	assert.Equal(t, published.Data.(*FlightStatusEvent), replayed)
	assert.Equal(t, uint64(6), replayed.Sequence)
	assert.Equal(t, key, replayed.Flight)
	assert.Equal(t, published.Timestamp.UnixMilli(), events[5].Timestamp.UnixMilli())

	registered := events[0].Data.(*AirlineRegisteredEvent)
	assert.Equal(t, testFirstAirline, registered.Airline)
	assert.Equal(t, testFirstAirline, registered.RegisteredBy)
	purchased := events[4].Data.(*InsurancePurchasedEvent)
	assert.Equal(t, common.Coins(1), purchased.Amount)
	assert.Equal(t, testPassenger, purchased.Policy.Passenger)
	assert.Equal(t, key, purchased.Policy.Flight)

	// Catch up from the last seen sequence
	events, err = ls.Journal(ctx, 3, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, FlightRegisteredEventType, events[0].Type)
	assert.Equal(t, InsurancePurchasedEventType, events[1].Type)

	events, err = ls.Journal(ctx, 6, 0)
	require.NoError(t, err)
	assert.Empty(t, events)

	settings, err := ls.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), settings.Sequence)
}

func TestEventsPublishedAfterCommit(t *testing.T) {
	ls := newTestLedger(t)
	ctx := context.Background()
	var observed []bool
	done := make(chan struct{})
	ls.EventBus().SubscribeFunc(AirlineFundedEventType, func(evt event.Event) {
		// The funding is visible to readers once the event arrives
		funded, err := ls.IsAirlineFunded(ctx, evt.Data.(*AirlineFundedEvent).Airline)
		observed = append(observed, err == nil && funded)
		close(done)
	})
	require.NoError(t, ls.FundAirline(ctx, testAddress(0xb0), DefaultFundingThreshold))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timed out waiting for event")
	}
	assert.Equal(t, []bool{true}, observed)
}
