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
	"fmt"

	"github.com/phizercost/flight-surety/ledger/common"
)

const (
	DefaultMinConsensus        = 3
	DefaultBucketCount         = 10
	DefaultMultipartyThreshold = 4

	// Credits pay out amountPaid * CreditNumerator / CreditDenominator
	CreditNumerator   = 3
	CreditDenominator = 2
)

var (
	DefaultFundingThreshold = common.Coins(2)
	DefaultInsuranceCap     = common.Coins(1)
	DefaultRegistrationFee  = common.Coins(1)
)

// Params holds the tunable ledger parameters. Zero values are replaced by defaults.
// FundingThreshold, InsuranceCap and RegistrationFee are persisted when the ledger is
// created and the persisted values take precedence afterward
type Params struct {
	FundingThreshold common.Amount `yaml:"fundingThreshold"`
	InsuranceCap     common.Amount `yaml:"insuranceCap"`
	RegistrationFee  common.Amount `yaml:"registrationFee"`
	// Matching oracle responses needed to settle a flight status
	MinConsensus uint64 `yaml:"minConsensus"`
	// Authorized airlines beyond which new airlines need votes from half of them
	MultipartyThreshold uint64 `yaml:"multipartyThreshold"`
	// Number of oracle buckets that indexes are drawn from
	BucketCount uint8 `yaml:"bucketCount"`
}

// DefaultParams returns the default ledger parameters
func DefaultParams() Params {
	return Params{}.withDefaults()
}

func (p Params) withDefaults() Params {
	if p.FundingThreshold == 0 {
		p.FundingThreshold = DefaultFundingThreshold
	}
	if p.InsuranceCap == 0 {
		p.InsuranceCap = DefaultInsuranceCap
	}
	if p.RegistrationFee == 0 {
		p.RegistrationFee = DefaultRegistrationFee
	}
	if p.MinConsensus == 0 {
		p.MinConsensus = DefaultMinConsensus
	}
	if p.MultipartyThreshold == 0 {
		p.MultipartyThreshold = DefaultMultipartyThreshold
	}
	if p.BucketCount == 0 {
		p.BucketCount = DefaultBucketCount
	}
	return p
}

func (p Params) validate() error {
	// Each oracle holds three distinct indexes
	if p.BucketCount < 3 {
		return fmt.Errorf(
			"%w: bucket count must be at least 3, got %d",
			ErrInvalidArgument,
			p.BucketCount,
		)
	}
	return nil
}
