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
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

const KeyHashLength = 32

// KeyHash is the Keccak-256 digest of a composite key
type KeyHash [KeyHashLength]byte

func (h KeyHash) Bytes() []byte {
	return h[:]
}

func (h KeyHash) String() string {
	return hex.EncodeToString(h[:])
}

// Keccak256 hashes the concatenation of the given byte slices
func Keccak256(data ...[]byte) KeyHash {
	var ret KeyHash
	hasher := sha3.NewLegacyKeccak256()
	for _, d := range data {
		hasher.Write(d)
	}
	copy(ret[:], hasher.Sum(nil))
	return ret
}

// FlightKey identifies a flight across the flight registry, oracle requests
// and insurance policies
type FlightKey struct {
	Airline   Address `json:"airline"`
	Flight    string  `json:"flight"`
	Timestamp int64   `json:"timestamp"`
}

func NewFlightKey(airline Address, flight string, timestamp int64) FlightKey {
	return FlightKey{
		Airline:   airline,
		Flight:    flight,
		Timestamp: timestamp,
	}
}

// Hash returns the digest of the canonical key encoding: airline, flight code
// length, flight code, timestamp
func (k FlightKey) Hash() KeyHash {
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(k.Flight))) //nolint:gosec
	tsBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(tsBuf, uint64(k.Timestamp)) //nolint:gosec
	return Keccak256(k.Airline[:], lenBuf, []byte(k.Flight), tsBuf)
}

func (k FlightKey) String() string {
	return fmt.Sprintf("%s/%s/%d", k.Airline, k.Flight, k.Timestamp)
}

// PolicyKey identifies a passenger's insurance on a flight
type PolicyKey struct {
	Passenger Address   `json:"passenger"`
	Flight    FlightKey `json:"flight"`
}

func (k PolicyKey) String() string {
	return k.Passenger.String() + "@" + k.Flight.String()
}
