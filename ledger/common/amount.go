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

package common

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coin is the number of base units in one currency unit
const (
	CoinDecimals        = 9
	Coin         Amount = 1_000_000_000
)

var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a currency value in base units
type Amount uint64

// Coins returns an amount for a whole number of currency units
func Coins(n uint64) Amount {
	return Amount(n) * Coin
}

// ParseAmount parses a decimal currency string such as "0.5" or "2"
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac && (frac == "" || len(frac) > CoinDecimals) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if whole == "" {
		whole = "0"
	}
	wholeVal, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}
	if wholeVal > math.MaxUint64/uint64(Coin) {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidAmount, s)
	}
	ret := wholeVal * uint64(Coin)
	if hasFrac {
		frac += strings.Repeat("0", CoinDecimals-len(frac))
		fracVal, err := strconv.ParseUint(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
		}
		if ret > math.MaxUint64-fracVal {
			return 0, fmt.Errorf("%w: %q overflows", ErrInvalidAmount, s)
		}
		ret += fracVal
	}
	return Amount(ret), nil
}

// MulRat returns a*num/den, failing on overflow
func (a Amount) MulRat(num, den uint64) (Amount, error) {
	if den == 0 {
		return 0, fmt.Errorf("%w: zero denominator", ErrInvalidAmount)
	}
	if num != 0 && uint64(a) > math.MaxUint64/num {
		return 0, fmt.Errorf("%w: %s * %d overflows", ErrInvalidAmount, a, num)
	}
	return Amount(uint64(a) * num / den), nil
}

// Add returns a+b, failing on overflow
func (a Amount) Add(b Amount) (Amount, error) {
	if a > math.MaxUint64-b {
		return 0, fmt.Errorf("%w: %s + %s overflows", ErrInvalidAmount, a, b)
	}
	return a + b, nil
}

// String formats the amount as a decimal currency string without trailing zeros
func (a Amount) String() string {
	whole := uint64(a) / uint64(Coin)
	frac := uint64(a) % uint64(Coin)
	if frac == 0 {
		return strconv.FormatUint(whole, 10)
	}
	fracStr := fmt.Sprintf("%0*d", CoinDecimals, frac)
	return strconv.FormatUint(whole, 10) + "." + strings.TrimRight(fracStr, "0")
}

func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalText(text []byte) error {
	tmp, err := ParseAmount(string(text))
	if err != nil {
		return err
	}
	*a = tmp
	return nil
}
