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
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const AddressLength = 20

var ErrInvalidAddress = errors.New("invalid address")

// Address identifies a ledger participant: an airline, passenger, oracle or
// the contract owner
type Address [AddressLength]byte

// ParseAddress decodes a hex address with an optional 0x prefix
func ParseAddress(s string) (Address, error) {
	var ret Address
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != AddressLength*2 {
		return ret, fmt.Errorf(
			"%w: expected %d hex characters, got %d",
			ErrInvalidAddress,
			AddressLength*2,
			len(s),
		)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return ret, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	copy(ret[:], b)
	return ret, nil
}

// MustParseAddress is like ParseAddress but panics on error. It is intended
// for constants and tests
func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// NewAddress builds an address from raw bytes
func NewAddress(b []byte) (Address, error) {
	var ret Address
	if len(b) != AddressLength {
		return ret, fmt.Errorf(
			"%w: expected %d bytes, got %d",
			ErrInvalidAddress,
			AddressLength,
			len(b),
		)
	}
	copy(ret[:], b)
	return ret, nil
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	tmp, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = tmp
	return nil
}
