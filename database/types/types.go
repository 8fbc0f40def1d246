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
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrBlobKeyNotFound is returned by blob operations when a key is missing
	ErrBlobKeyNotFound = errors.New("blob key not found")
	// ErrTxnWrongType is returned when a transaction handle belongs to another store type
	ErrTxnWrongType = errors.New("invalid transaction type")
	// ErrNilTxn is returned when an operation requires a transaction and got none
	ErrNilTxn = errors.New("nil transaction")
	// ErrNoStoreAvailable is returned when committing with neither store configured
	ErrNoStoreAvailable = errors.New("no store available")
	// ErrBlobStoreUnavailable is returned when the journal cannot be accessed
	ErrBlobStoreUnavailable = errors.New("blob store unavailable")
)

// Uint64 stores coin amounts as decimal strings, since sqlite integers are
// signed and an insurance pool can exceed math.MaxInt64 base units
//
//nolint:recvcheck
type Uint64 uint64

func (u Uint64) Value() (driver.Value, error) {
	return strconv.FormatUint(uint64(u), 10), nil
}

func (u *Uint64) Scan(val any) error {
	var s string
	switch tv := val.(type) {
	case string:
		s = tv
	case []byte:
		s = string(tv)
	case int64:
		// Rows written through raw SQL may carry a plain integer
		if tv < 0 {
			return fmt.Errorf("negative value for unsigned column: %d", tv)
		}
		*u = Uint64(tv)
		return nil
	case nil:
		*u = 0
		return nil
	default:
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}
	*u = Uint64(v)
	return nil
}

// BlobItem is a key/value pair returned by an iterator
type BlobItem interface {
	Key() []byte
	ValueCopy(dst []byte) ([]byte, error)
}

// BlobIterator walks keys of the journal store in order. Items must only be
// accessed while the transaction used to create the iterator is active
type BlobIterator interface {
	Seek(key []byte)
	Valid() bool
	ValidForPrefix(prefix []byte) bool
	Next()
	Item() BlobItem
	Close()
	Err() error
}

// BlobIteratorOptions limits an iterator to keys with the given prefix
type BlobIteratorOptions struct {
	Prefix []byte
}

// Txn is the commit/rollback handle of a single store. database.Txn pairs
// one from each store
type Txn interface {
	Commit() error
	Rollback() error
}
