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

package models

type Flight struct {
	KeyHash     []byte `gorm:"uniqueIndex;size:32"`
	Airline     []byte `gorm:"index;size:20"`
	FlightCode  string
	ID          uint `gorm:"primarykey"`
	Timestamp   int64
	FinalizedAt int64
	Sequence    uint64
	StatusCode  uint8
	Registered  bool
}

func (Flight) TableName() string {
	return "flight"
}

// IsFinalized returns true once a non-unknown status has been applied
func (f *Flight) IsFinalized() bool {
	return f.StatusCode != 0
}
