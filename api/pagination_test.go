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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phizercost/flight-surety/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJournalParams(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    JournalParams
		wantErr bool
	}{
		{
			name:  "defaults",
			query: "",
			want:  JournalParams{Limit: DefaultJournalLimit},
		},
		{
			name:  "since and limit",
			query: "?since=42&limit=5",
			want:  JournalParams{Since: 42, Limit: 5},
		},
		{
			name:  "limit clamped low",
			query: "?limit=0",
			want:  JournalParams{Limit: 1},
		},
		{
			name:  "limit clamped high",
			query: "?limit=100000",
			want:  JournalParams{Limit: ledger.MaxJournalLimit},
		},
		{
			name:    "negative since",
			query:   "?since=-1",
			wantErr: true,
		},
		{
			name:    "non-numeric limit",
			query:   "?limit=ten",
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(
				http.MethodGet,
				"/api/v1/events"+tc.query,
				nil,
			)
			params, err := ParseJournalParams(req)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidPaginationParameters)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, params)
		})
	}
}

func TestSetJournalHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SetJournalHeaders(w, 17)
	assert.Equal(t, "17", w.Header().Get("X-Journal-Next-Since"))
}
