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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type stateMetrics struct {
	transitionsTotal   *prometheus.CounterVec
	transitionLatency  *prometheus.HistogramVec
	airlinesAuthorized prometheus.Gauge
	flightsRegistered  prometheus.Counter
	flightsFinalized   *prometheus.CounterVec
	oraclesRegistered  prometheus.Gauge
	oracleRequests     prometheus.Counter
	policiesPurchased  prometheus.Counter
	payoutsTotal       *prometheus.CounterVec
	escrowBalance      prometheus.Gauge
	operational        prometheus.Gauge
	sequence           prometheus.Gauge
}

func (m *stateMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.transitionsTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surety_ledger_transitions_total",
			Help: "number of ledger transitions by operation and result",
		},
		[]string{"operation", "result"},
	)
	m.transitionLatency = promautoFactory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "surety_ledger_transition_duration_seconds",
			Help:    "time spent applying a ledger transition",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"operation"},
	)
	m.airlinesAuthorized = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "surety_ledger_airlines_authorized",
		Help: "number of authorized airlines",
	})
	m.flightsRegistered = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "surety_ledger_flights_registered_total",
		Help: "number of flights registered",
	})
	m.flightsFinalized = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surety_ledger_flights_finalized_total",
			Help: "number of flights finalized by status code",
		},
		[]string{"status"},
	)
	m.oraclesRegistered = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "surety_ledger_oracles_registered",
		Help: "number of registered oracles",
	})
	m.oracleRequests = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "surety_ledger_oracle_requests_total",
		Help: "number of oracle status requests broadcast",
	})
	m.policiesPurchased = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "surety_ledger_insurance_purchases_total",
			Help: "number of insurance purchases",
		},
	)
	m.payoutsTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surety_ledger_payouts_total",
			Help: "number of insurance payouts by result",
		},
		[]string{"result"},
	)
	m.escrowBalance = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "surety_ledger_escrow_balance",
		Help: "escrow balance in base units",
	})
	m.operational = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "surety_ledger_operational",
		Help: "whether the ledger is operational (0 or 1)",
	})
	m.sequence = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "surety_ledger_sequence",
		Help: "sequence number of the last journaled event",
	})
}
