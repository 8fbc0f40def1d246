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
	"time"

	"github.com/phizercost/flight-surety/event"
	"github.com/phizercost/flight-surety/ledger/common"
)

// MaxJournalLimit caps the number of journal entries returned by a single query
const MaxJournalLimit = 1000

// SettingsInfo is the public view of the ledger settings
type SettingsInfo struct {
	Owner               common.Address `json:"owner"`
	FirstAirline        common.Address `json:"firstAirline"`
	FundingThreshold    common.Amount  `json:"fundingThreshold"`
	InsuranceCap        common.Amount  `json:"insuranceCap"`
	RegistrationFee     common.Amount  `json:"registrationFee"`
	EscrowBalance       common.Amount  `json:"escrowBalance"`
	MinConsensus        uint64         `json:"minConsensus"`
	MultipartyThreshold uint64         `json:"multipartyThreshold"`
	Sequence            uint64         `json:"sequence"`
	BucketCount         uint8          `json:"bucketCount"`
	Operational         bool           `json:"operational"`
}

func (ls *LedgerState) Settings(ctx context.Context) (*SettingsInfo, error) {
	setting, err := ls.getSetting(ctx)
	if err != nil {
		return nil, err
	}
	ret := &SettingsInfo{
		FundingThreshold:    common.Amount(setting.FundingThreshold),
		InsuranceCap:        common.Amount(setting.InsuranceCap),
		RegistrationFee:     common.Amount(setting.RegistrationFee),
		EscrowBalance:       common.Amount(setting.EscrowBalance),
		MinConsensus:        ls.params.MinConsensus,
		MultipartyThreshold: ls.params.MultipartyThreshold,
		Sequence:            setting.Sequence,
		BucketCount:         ls.params.BucketCount,
		Operational:         setting.Operational,
	}
	if ret.Owner, err = common.NewAddress(setting.Owner); err != nil {
		return nil, err
	}
	if len(setting.FirstAirline) > 0 {
		if ret.FirstAirline, err = common.NewAddress(setting.FirstAirline); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// Journal returns the recorded events with a sequence number greater than since, in
// the order they were committed. The events match those published on the event bus,
// so consumers that missed deliveries can catch up from the last sequence they saw.
// A limit of 0 or above MaxJournalLimit returns at most MaxJournalLimit events
func (ls *LedgerState) Journal(
	ctx context.Context,
	since uint64,
	limit int,
) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > MaxJournalLimit {
		limit = MaxJournalLimit
	}
	entries, err := ls.db.GetJournal(since, limit, nil)
	if err != nil {
		return nil, err
	}
	ret := make([]event.Event, 0, len(entries))
	for _, entry := range entries {
		eventType := event.EventType(entry.Type)
		data, err := decodeEventPayload(eventType, entry.Payload)
		if err != nil {
			return nil, err
		}
		ret = append(ret, event.Event{
			Type:      eventType,
			Timestamp: time.UnixMilli(entry.Timestamp),
			Data:      data,
		})
	}
	return ret, nil
}
