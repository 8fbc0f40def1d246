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

package event

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type mockSubscriber struct {
	closed    atomic.Bool
	delivered atomic.Int32
	fail      bool
}

func (m *mockSubscriber) Deliver(evt Event) error {
	if m.fail {
		return errors.New("deliver failed")
	}
	m.delivered.Add(1)
	return nil
}

func (m *mockSubscriber) Close() {
	m.closed.Store(true)
}

func TestEventBusSingleSubscriber(t *testing.T) {
	defer goleak.VerifyNone(t)
	testEvtType := EventType("test.event")
	eb := NewEventBus(nil, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(testEvtType)
	eb.Publish(testEvtType, NewEvent(testEvtType, 999))
	select {
	case evt, ok := <-subCh:
		require.True(t, ok, "event channel closed unexpectedly")
		assert.Equal(t, testEvtType, evt.Type)
		assert.Equal(t, 999, evt.Data)
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for event")
	}
}

func TestEventBusOtherTypeNotDelivered(t *testing.T) {
	eb := NewEventBus(nil, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe("test.a")
	eb.Publish("test.b", NewEvent("test.b", "x"))
	select {
	case evt := <-subCh:
		t.Fatalf("received unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	eb := NewEventBus(nil, nil)
	defer eb.Stop()
	subId, subCh := eb.Subscribe("test.event")
	eb.Unsubscribe("test.event", subId)
	eb.Publish("test.event", NewEvent("test.event", 1))
	select {
	case _, ok := <-subCh:
		require.False(t, ok, "received unexpected event")
	case <-time.After(1 * time.Second):
		t.Fatalf("subscriber channel was not closed after Unsubscribe")
	}
}

func TestDeliverFailureUnregisters(t *testing.T) {
	eb := NewEventBus(nil, nil)
	defer eb.Stop()
	sub := &mockSubscriber{fail: true}
	subId := eb.RegisterSubscriber("test.fail", sub)
	require.NotZero(t, subId)
	eb.Publish("test.fail", NewEvent("test.fail", "x"))
	eb.mu.RLock()
	_, exists := eb.subscribers["test.fail"][subId]
	eb.mu.RUnlock()
	assert.False(t, exists, "expected subscriber to be removed after deliver failure")
	assert.True(t, sub.closed.Load())
}

func TestChannelSubscriberDropsWhenFull(t *testing.T) {
	const bufferSize = 3
	sub := newChannelSubscriber(bufferSize, nil)
	for i := range bufferSize + 2 {
		require.NoError(t, sub.Deliver(NewEvent("test", i)))
	}
	for i := range bufferSize {
		evt := <-sub.ch
		assert.Equal(t, i, evt.Data)
	}
	select {
	case evt := <-sub.ch:
		t.Fatalf("unexpected extra event in channel: %v", evt)
	default:
	}
	sub.Close()
	// Deliver after close is a silent no-op
	require.NoError(t, sub.Deliver(NewEvent("test", "after-close")))
}

func TestSubscribeFuncPanicRecovery(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := NewEventBus(nil, nil)
	defer eb.Stop()
	var received atomic.Int32
	eb.SubscribeFunc("test.panic", func(evt Event) {
		if received.Add(1) == 1 {
			panic("intentional test panic")
		}
	})
	eb.Publish("test.panic", NewEvent("test.panic", "panic"))
	eb.Publish("test.panic", NewEvent("test.panic", "after-panic"))
	require.Eventually(t, func() bool {
		return received.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEventBusStopAndReuse(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := NewEventBus(nil, nil)
	_, subCh := eb.Subscribe("test.event")
	remote := &mockSubscriber{}
	eb.RegisterSubscriber("test.event", remote)
	var handled atomic.Int32
	eb.SubscribeFunc("test.event", func(Event) {
		handled.Add(1)
	})
	eb.Stop()
	_, ok := <-subCh
	assert.False(t, ok, "subscriber channel should be closed by Stop")
	assert.True(t, remote.closed.Load())
	eb.Publish("test.event", NewEvent("test.event", "after"))
	assert.Zero(t, handled.Load())
	// The bus can be used again
	_, subCh = eb.Subscribe("test.event")
	require.True(t, eb.PublishAsync("test.event", NewEvent("test.event", "async")))
	select {
	case evt := <-subCh:
		assert.Equal(t, "async", evt.Data)
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for async event")
	}
	eb.Stop()
}

func TestEventBusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	eb := NewEventBus(reg, nil)
	defer eb.Stop()
	eb.Subscribe("test.metrics")
	eb.Publish("test.metrics", NewEvent("test.metrics", 1))
	eb.Publish("test.metrics", NewEvent("test.metrics", 2))
	assert.InDelta(
		t,
		2,
		testutil.ToFloat64(eb.metrics.eventsTotal.WithLabelValues("test.metrics")),
		0,
	)
	assert.InDelta(
		t,
		1,
		testutil.ToFloat64(eb.metrics.subscribers.WithLabelValues("test.metrics", "in-memory")),
		0,
	)
}

func TestEventBusStopReleasesWorkers(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := NewEventBus(nil, nil)
	for range 3 {
		_, subCh := eb.Subscribe("test.event")
		require.True(t, eb.PublishAsync("test.event", NewEvent("test.event", 1)))
		select {
		case <-subCh:
		case <-time.After(1 * time.Second):
			t.Fatalf("timeout waiting for async event")
		}
		eb.Stop()
	}
	// Stopping an idle bus is harmless
	eb.Stop()
}
