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

package badger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const badgerMetricNamePrefix = "database_blob_"

type blobMetrics struct {
	reads        prometheus.Counter
	writes       prometheus.Counter
	deletes      prometheus.Counter
	bytesWritten prometheus.Counter
}

func (d *BlobStoreBadger) registerBlobMetrics() {
	promautoFactory := promauto.With(d.promRegistry)
	d.metrics = &blobMetrics{
		reads: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: badgerMetricNamePrefix + "reads_total",
				Help: "Total number of blob key reads",
			},
		),
		writes: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: badgerMetricNamePrefix + "writes_total",
				Help: "Total number of blob key writes",
			},
		),
		deletes: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: badgerMetricNamePrefix + "deletes_total",
				Help: "Total number of blob key deletes",
			},
		),
		bytesWritten: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: badgerMetricNamePrefix + "written_bytes_total",
				Help: "Total bytes written to the blob store",
			},
		),
	}
	promautoFactory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: badgerMetricNamePrefix + "lsm_size_bytes",
			Help: "Size of the blob store LSM tree",
		},
		func() float64 {
			lsm, _ := d.DB().Size()
			return float64(lsm)
		},
	)
	promautoFactory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: badgerMetricNamePrefix + "vlog_size_bytes",
			Help: "Size of the blob store value log",
		},
		func() float64 {
			_, vlog := d.DB().Size()
			return float64(vlog)
		},
	)
}
