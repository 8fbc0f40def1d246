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
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestScheduler_RegistersAndRunsTask(t *testing.T) {
	defer goleak.VerifyNone(t)
	var counter int32
	timer := NewScheduler(10 * time.Millisecond)
	timer.Register(3, func(context.Context) {
		atomic.AddInt32(&counter, 1)
	})
	timer.Start()
	defer timer.Stop()
	require.Eventually(
		t,
		func() bool { return atomic.LoadInt32(&counter) >= 2 },
		2*time.Second,
		5*time.Millisecond,
	)
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	defer goleak.VerifyNone(t)
	var running, maxRunning, runs int32
	timer := NewScheduler(5 * time.Millisecond)
	timer.Register(1, func(ctx context.Context) {
		cur := atomic.AddInt32(&running, 1)
		if cur > atomic.LoadInt32(&maxRunning) {
			atomic.StoreInt32(&maxRunning, cur)
		}
		select {
		case <-time.After(30 * time.Millisecond):
		case <-ctx.Done():
		}
		atomic.AddInt32(&running, -1)
		atomic.AddInt32(&runs, 1)
	})
	timer.Start()
	require.Eventually(
		t,
		func() bool { return atomic.LoadInt32(&runs) >= 2 },
		2*time.Second,
		5*time.Millisecond,
	)
	timer.Stop()
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxRunning))
}

func TestScheduler_StopCancelsRunningTask(t *testing.T) {
	defer goleak.VerifyNone(t)
	started := make(chan struct{})
	var cancelled atomic.Bool
	timer := NewScheduler(5 * time.Millisecond)
	timer.Register(1, func(ctx context.Context) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		cancelled.Store(true)
	})
	timer.Start()
	<-started
	timer.Stop()
	assert.True(t, cancelled.Load())
	// Stop is idempotent
	timer.Stop()
}
