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
	"errors"
	"net/http"
	"strconv"

	"github.com/phizercost/flight-surety/ledger"
)

const DefaultJournalLimit = 100

var ErrInvalidPaginationParameters = errors.New(
	"invalid pagination parameters",
)

// JournalParams contains parsed journal query values
type JournalParams struct {
	Since uint64
	Limit int
}

// ParseJournalParams parses the since and limit query parameters and clamps
// the limit to the ledger maximum
func ParseJournalParams(r *http.Request) (JournalParams, error) {
	params := JournalParams{
		Limit: DefaultJournalLimit,
	}
	query := r.URL.Query()
	if sinceParam := query.Get("since"); sinceParam != "" {
		since, err := strconv.ParseUint(sinceParam, 10, 64)
		if err != nil {
			return JournalParams{}, ErrInvalidPaginationParameters
		}
		params.Since = since
	}
	if limitParam := query.Get("limit"); limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil {
			return JournalParams{}, ErrInvalidPaginationParameters
		}
		params.Limit = limit
	}
	if params.Limit < 1 {
		params.Limit = 1
	}
	if params.Limit > ledger.MaxJournalLimit {
		params.Limit = ledger.MaxJournalLimit
	}
	return params, nil
}

// SetJournalHeaders tells the client where to resume. next is the sequence to
// pass as since on the following request
func SetJournalHeaders(w http.ResponseWriter, next uint64) {
	w.Header().Set("X-Journal-Next-Since", strconv.FormatUint(next, 10))
}
