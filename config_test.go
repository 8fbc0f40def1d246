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

package surety

import (
	"testing"
	"time"

	"github.com/phizercost/flight-surety/ledger"
	"github.com/phizercost/flight-surety/ledger/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigOptions(t *testing.T) {
	owner := common.MustParseAddress("0x0100000000000000000000000000000000000001")
	params := ledger.Params{MinConsensus: 5}
	cfg := NewConfig(
		WithDatabasePath("/tmp/surety"),
		WithOwner(owner),
		WithLedgerParams(params),
		WithOracleRequestTTL(time.Hour),
		WithWebhooks("http://a", "http://b"),
		WithWebhookDelivery(time.Second, 2),
		WithApiListenAddress(":8080"),
		WithTracing(true),
		WithShutdownTimeout(5*time.Second),
	)
	assert.NotNil(t, cfg.logger)
	assert.Equal(t, "/tmp/surety", cfg.dataDir)
	assert.Equal(t, owner, cfg.owner)
	assert.Equal(t, params, cfg.ledgerParams)
	assert.Equal(t, time.Hour, cfg.oracleRequestTTL)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.webhookURLs)
	assert.Equal(t, time.Second, cfg.webhookTimeout)
	assert.Equal(t, uint64(2), cfg.webhookMaxRetries)
	assert.Equal(t, ":8080", cfg.apiListenAddress)
	assert.True(t, cfg.tracing)
	assert.False(t, cfg.tracingStdout)
	assert.Equal(t, 5*time.Second, cfg.shutdownTimeout)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		opts []ConfigOptionFunc
		ok   bool
	}{
		{name: "defaults", ok: true},
		{name: "negative ttl", opts: []ConfigOptionFunc{WithOracleRequestTTL(-time.Second)}},
		{name: "negative shutdown", opts: []ConfigOptionFunc{WithShutdownTimeout(-time.Second)}},
		{name: "empty webhook", opts: []ConfigOptionFunc{WithWebhooks("")}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(NewConfig(tc.opts...))
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}
