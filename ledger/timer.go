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
	"sync"
	"time"
)

type scheduledTask struct {
	task              func(context.Context)
	interval          int
	ticksSinceLastRun int
	running           bool
}

// Scheduler runs registered tasks every N ticks. A task is never run again
// while its previous run is still in progress
type Scheduler struct {
	ctx       context.Context
	cancel    context.CancelFunc
	ticker    *time.Ticker
	quit      chan struct{}
	tasks     []*scheduledTask
	wg        sync.WaitGroup
	interval  time.Duration
	mutex     sync.Mutex
	startOnce sync.Once
	stopOnce  sync.Once
}

func NewScheduler(interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		ctx:      ctx,
		cancel:   cancel,
		interval: interval,
		quit:     make(chan struct{}),
	}
}

// Start the timer (run goroutine once)
func (st *Scheduler) Start() {
	st.startOnce.Do(func() {
		st.ticker = time.NewTicker(st.interval)
		st.wg.Add(1)
		go st.run()
	})
}

func (st *Scheduler) run() {
	defer st.wg.Done()
	for {
		select {
		case <-st.ticker.C:
			st.tick()
		case <-st.quit:
			st.ticker.Stop()
			return
		}
	}
}

// Increments per-task tick counters and executes tasks when due
func (st *Scheduler) tick() {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	for _, task := range st.tasks {
		task.ticksSinceLastRun++
		if task.ticksSinceLastRun < task.interval || task.running {
			continue
		}
		task.ticksSinceLastRun = 0
		task.running = true
		st.wg.Add(1)
		go func(task *scheduledTask) {
			defer st.wg.Done()
			task.task(st.ctx)
			st.mutex.Lock()
			task.running = false
			st.mutex.Unlock()
		}(task)
	}
}

// Register adds a task to run every interval ticks
func (st *Scheduler) Register(interval int, task func(context.Context)) {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	if interval < 1 {
		interval = 1
	}
	st.tasks = append(st.tasks, &scheduledTask{
		interval: interval,
		task:     task,
	})
}

// Stop terminates the timer, cancels the context passed to running tasks and
// waits for them to return
func (st *Scheduler) Stop() {
	st.stopOnce.Do(func() {
		st.cancel()
		close(st.quit)
	})
	st.wg.Wait()
}
