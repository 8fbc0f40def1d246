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

package database

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/phizercost/flight-surety/database/types"
)

// JournalEntry is a single event recorded in the blob store journal
type JournalEntry struct {
	cbor.StructAsArray
	Type      string
	Payload   []byte
	Sequence  uint64
	Timestamp int64
}

// AppendJournal writes an entry to the journal using the entry's sequence number as the key
func (d *Database) AppendJournal(entry *JournalEntry, txn *Txn) error {
	if txn == nil || txn.Blob() == nil {
		return types.ErrNilTxn
	}
	if entry.Sequence == 0 {
		return errors.New("journal entry sequence must be non-zero")
	}
	entryCbor, err := cbor.Encode(entry)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}
	return d.Blob().Set(txn.Blob(), types.JournalKey(entry.Sequence), entryCbor)
}

// GetJournal returns up to limit journal entries with a sequence number greater
// than since, in sequence order. A limit of 0 returns all remaining entries
func (d *Database) GetJournal(
	since uint64,
	limit int,
	txn *Txn,
) ([]JournalEntry, error) {
	if txn == nil {
		txn = NewJournalTxn(d, false)
		defer txn.Release()
	}
	if txn.Blob() == nil {
		return nil, types.ErrBlobStoreUnavailable
	}
	prefix := []byte(types.JournalKeyPrefix)
	iter := d.Blob().NewIterator(
		txn.Blob(),
		types.BlobIteratorOptions{Prefix: prefix},
	)
	defer iter.Close()
	ret := []JournalEntry{}
	for iter.Seek(types.JournalKey(since + 1)); iter.ValidForPrefix(prefix); iter.Next() {
		item := iter.Item()
		if _, ok := types.JournalKeySequence(item.Key()); !ok {
			// Not a journal entry key
			continue
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		var entry JournalEntry
		if _, err := cbor.Decode(val, &entry); err != nil {
			return nil, fmt.Errorf("decode journal entry: %w", err)
		}
		ret = append(ret, entry)
		if limit > 0 && len(ret) >= limit {
			break
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

// TruncateJournal deletes all journal entries with a sequence number greater than after
// and returns the number of entries removed
func (d *Database) TruncateJournal(after uint64, txn *Txn) (int, error) {
	if txn == nil || txn.Blob() == nil {
		return 0, types.ErrNilTxn
	}
	prefix := []byte(types.JournalKeyPrefix)
	iter := d.Blob().NewIterator(
		txn.Blob(),
		types.BlobIteratorOptions{Prefix: prefix},
	)
	var keys [][]byte
	for iter.Seek(types.JournalKey(after + 1)); iter.ValidForPrefix(prefix); iter.Next() {
		key := iter.Item().Key()
		if _, ok := types.JournalKeySequence(key); !ok {
			continue
		}
		keys = append(keys, append([]byte{}, key...))
	}
	err := iter.Err()
	iter.Close()
	if err != nil {
		return 0, err
	}
	for _, key := range keys {
		if err := d.Blob().Delete(txn.Blob(), key); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}
