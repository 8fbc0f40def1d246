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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	DefaultWebhookQueueSize  = 256
	DefaultWebhookTimeout    = 10 * time.Second
	DefaultWebhookMaxRetries = 5
)

// WebhookConfig configures a WebhookSubscriber
type WebhookConfig struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	Client       *http.Client
	URLs         []string
	QueueSize    int
	Timeout      time.Duration
	MaxRetries   uint64
	// RetryInterval is the initial delay between attempts. It doubles after each failure
	RetryInterval time.Duration
}

type webhookMetrics struct {
	delivered *prometheus.CounterVec
	failed    *prometheus.CounterVec
	dropped   prometheus.Counter
}

// WebhookSubscriber posts events as JSON to a set of URLs. Delivery happens on
// a background goroutine, so a slow endpoint never holds up the event bus
type WebhookSubscriber struct {
	config    WebhookConfig
	logger    *slog.Logger
	metrics   *webhookMetrics
	queue     chan Event
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closeOnce sync.Once
	closed    bool
}

// NewWebhookSubscriber creates a webhook subscriber and starts its delivery goroutine
func NewWebhookSubscriber(config WebhookConfig) (*WebhookSubscriber, error) {
	if len(config.URLs) == 0 {
		return nil, errors.New("no webhook URLs configured")
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultWebhookQueueSize
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultWebhookTimeout
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = DefaultWebhookMaxRetries
	}
	if config.Client == nil {
		config.Client = &http.Client{Timeout: config.Timeout}
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &WebhookSubscriber{
		config: config,
		logger: config.Logger.With("component", "webhook"),
		queue:  make(chan Event, config.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	if config.PromRegistry != nil {
		w.initMetrics(config.PromRegistry)
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

func (w *WebhookSubscriber) initMetrics(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	w.metrics = &webhookMetrics{
		delivered: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "event_webhook_delivered_total",
				Help: "events delivered to webhook endpoints by event type",
			},
			[]string{"type"},
		),
		failed: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "event_webhook_failed_total",
				Help: "events not delivered to a webhook endpoint after all retries",
			},
			[]string{"type"},
		),
		dropped: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "event_webhook_dropped_total",
				Help: "events dropped because the webhook queue was full",
			},
		),
	}
}

// Subscribe registers the webhook on the bus for each of the given event types
func (w *WebhookSubscriber) Subscribe(
	eventBus *EventBus,
	eventTypes ...EventType,
) []EventSubscriberId {
	ret := make([]EventSubscriberId, 0, len(eventTypes))
	for _, eventType := range eventTypes {
		ret = append(ret, eventBus.RegisterSubscriber(eventType, w))
	}
	return ret
}

// Deliver queues an event for posting. A full queue drops the event
func (w *WebhookSubscriber) Deliver(evt Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return nil
	}
	select {
	case w.queue <- evt:
	default:
		w.logger.Warn(
			"webhook queue full, dropping event",
			"type", evt.Type,
		)
		if w.metrics != nil {
			w.metrics.dropped.Inc()
		}
	}
	return nil
}

// Close stops delivery. Queued events that have not been posted are discarded.
// It is safe to call more than once, as happens when the subscriber is
// registered for several event types
func (w *WebhookSubscriber) Close() {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		close(w.queue)
		w.mu.Unlock()
		w.cancel()
		w.wg.Wait()
		w.config.Client.CloseIdleConnections()
	})
}

func (w *WebhookSubscriber) run() {
	defer w.wg.Done()
	for evt := range w.queue {
		if w.ctx.Err() != nil {
			continue
		}
		body, err := json.Marshal(evt)
		if err != nil {
			w.logger.Error(
				fmt.Sprintf("failed to encode event: %s", err),
				"type", evt.Type,
			)
			continue
		}
		for _, url := range w.config.URLs {
			if err := w.post(url, body); err != nil {
				w.logger.Warn(
					fmt.Sprintf("webhook delivery failed: %s", err),
					"type", evt.Type,
					"url", url,
				)
				if w.metrics != nil {
					w.metrics.failed.WithLabelValues(string(evt.Type)).Inc()
				}
				continue
			}
			if w.metrics != nil {
				w.metrics.delivered.WithLabelValues(string(evt.Type)).Inc()
			}
		}
	}
}

func (w *WebhookSubscriber) post(url string, body []byte) error {
	expBackoff := backoff.NewExponentialBackOff()
	if w.config.RetryInterval > 0 {
		expBackoff.InitialInterval = w.config.RetryInterval
	}
	retryPolicy := backoff.WithContext(
		backoff.WithMaxRetries(expBackoff, w.config.MaxRetries),
		w.ctx,
	)
	return backoff.Retry(
		func() error {
			req, err := http.NewRequestWithContext(
				w.ctx,
				http.MethodPost,
				url,
				bytes.NewReader(body),
			)
			if err != nil {
				return backoff.Permanent(err)
			}
			req.Header.Set("Content-Type", "application/json")
			resp, err := w.config.Client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)
			switch {
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return nil
			case resp.StatusCode >= 400 && resp.StatusCode < 500 &&
				resp.StatusCode != http.StatusTooManyRequests:
				// The endpoint rejected the event, retrying won't help
				return backoff.Permanent(
					fmt.Errorf("unexpected status: %s", resp.Status),
				)
			default:
				return fmt.Errorf("unexpected status: %s", resp.Status)
			}
		},
		retryPolicy,
	)
}
