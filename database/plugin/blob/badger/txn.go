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

package badger

import (
	"errors"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/phizercost/flight-surety/database/types"
)

var (
	errForeignTxn  = errors.New("transaction from different store")
	errTxnFinished = errors.New("transaction already finished")
)

type badgerTxn struct {
	store    *BlobStoreBadger
	tx       *badger.Txn
	finished bool
}

func (t *badgerTxn) Commit() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if t.tx == nil {
		return nil
	}
	return t.tx.Commit()
}

func (t *badgerTxn) Rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if t.tx != nil {
		t.tx.Discard()
	}
	return nil
}

// txnFor unwraps a transaction handle created by this store
func (d *BlobStoreBadger) txnFor(txn types.Txn) (*badger.Txn, error) {
	if txn == nil {
		return nil, types.ErrNilTxn
	}
	bt, ok := txn.(*badgerTxn)
	switch {
	case !ok:
		return nil, types.ErrTxnWrongType
	case bt.store != d:
		return nil, errForeignTxn
	case bt.finished:
		return nil, errTxnFinished
	case bt.tx == nil:
		return nil, types.ErrBlobStoreUnavailable
	}
	return bt.tx, nil
}

type badgerIterator struct {
	iter *badger.Iterator
}

func (it *badgerIterator) Seek(key []byte)              { it.iter.Seek(key) }
func (it *badgerIterator) Valid() bool                  { return it.iter.Valid() }
func (it *badgerIterator) ValidForPrefix(p []byte) bool { return it.iter.ValidForPrefix(p) }
func (it *badgerIterator) Next()                        { it.iter.Next() }
func (it *badgerIterator) Item() types.BlobItem         { return badgerItem{it.iter.Item()} }
func (it *badgerIterator) Close()                       { it.iter.Close() }
func (it *badgerIterator) Err() error                   { return nil }

// failedIterator is returned when the iterator could not be opened. It is
// never valid and reports the original error from Err
type failedIterator struct {
	err error
}

func (failedIterator) Seek([]byte)                {}
func (failedIterator) Valid() bool                { return false }
func (failedIterator) ValidForPrefix([]byte) bool { return false }
func (failedIterator) Next()                      {}
func (failedIterator) Item() types.BlobItem       { return nil }
func (failedIterator) Close()                     {}
func (it failedIterator) Err() error              { return it.err }

type badgerItem struct {
	item *badger.Item
}

func (i badgerItem) Key() []byte {
	return i.item.KeyCopy(nil)
}

func (i badgerItem) ValueCopy(dst []byte) ([]byte, error) {
	return i.item.ValueCopy(dst)
}
