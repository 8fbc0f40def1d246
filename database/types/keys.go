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

package types

import (
	"encoding/binary"
)

const (
	JournalKeyPrefix       = "j"
	CommitTimestampBlobKey = "metadata_commit_timestamp"
)

// JournalKey returns the blob key for the journal entry with the given
// sequence number. Keys sort in sequence order
func JournalKey(seq uint64) []byte {
	key := make([]byte, len(JournalKeyPrefix)+8)
	copy(key, JournalKeyPrefix)
	binary.BigEndian.PutUint64(key[len(JournalKeyPrefix):], seq)
	return key
}

// JournalKeySequence extracts the sequence number from a journal key
func JournalKeySequence(key []byte) (uint64, bool) {
	if len(key) != len(JournalKeyPrefix)+8 ||
		string(key[:len(JournalKeyPrefix)]) != JournalKeyPrefix {
		return 0, false
	}
	return binary.BigEndian.Uint64(key[len(JournalKeyPrefix):]), true
}
