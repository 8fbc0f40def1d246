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
	"sync"
	"time"

	"github.com/phizercost/flight-surety/database/types"
)

// Txn spans the journal in the blob store and the ledger tables in the
// metadata store. A committed Txn updates both or neither, unless the
// metadata commit itself fails after the journal was written
type Txn struct {
	db          *Database
	blobTxn     types.Txn
	metadataTxn types.Txn
	lock        sync.Mutex
	done        bool
	readWrite   bool
}

func NewTxn(db *Database, readWrite bool) *Txn {
	t := &Txn{db: db, readWrite: readWrite}
	if bs := db.Blob(); bs != nil {
		t.blobTxn = bs.NewTransaction(readWrite)
	}
	if ms := db.Metadata(); ms != nil {
		t.metadataTxn = ms.Transaction()
	}
	return t
}

// NewJournalTxn starts a transaction covering only the journal
func NewJournalTxn(db *Database, readWrite bool) *Txn {
	t := &Txn{db: db, readWrite: readWrite}
	if bs := db.Blob(); bs != nil {
		t.blobTxn = bs.NewTransaction(readWrite)
	}
	return t
}

// NewMetadataOnlyTxn starts a transaction covering only the ledger tables
func NewMetadataOnlyTxn(db *Database, readWrite bool) *Txn {
	t := &Txn{db: db, readWrite: readWrite}
	if ms := db.Metadata(); ms != nil {
		t.metadataTxn = ms.Transaction()
	}
	return t
}

func (t *Txn) DB() *Database {
	return t.db
}

// Metadata returns the ledger table transaction handle
func (t *Txn) Metadata() types.Txn {
	return t.metadataTxn
}

// Blob returns the journal transaction handle
func (t *Txn) Blob() types.Txn {
	return t.blobTxn
}

// Do runs fn inside the transaction. The transaction is committed when fn
// returns nil and rolled back otherwise
func (t *Txn) Do(fn func(*Txn) error) error {
	if err := fn(t); err != nil {
		if rbErr := t.Rollback(); rbErr != nil {
			return fmt.Errorf(
				"rollback failed: %w: original error: %w",
				rbErr,
				err,
			)
		}
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

func (t *Txn) Commit() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.done {
		return nil
	}
	if !t.readWrite {
		return t.rollback()
	}
	if t.blobTxn == nil && t.metadataTxn == nil {
		t.done = true
		return types.ErrNoStoreAvailable
	}
	defer func() { t.done = true }()
	// Both stores carry the same commit timestamp so a crash between the two
	// commits is detected on the next start
	if t.blobTxn != nil && t.metadataTxn != nil {
		if err := t.db.updateCommitTimestamp(t, time.Now().UnixMilli()); err != nil {
			t.abort()
			return fmt.Errorf("failed to update commit timestamp: %w", err)
		}
	}
	if t.blobTxn != nil {
		if err := t.blobTxn.Commit(); err != nil {
			if t.metadataTxn != nil {
				_ = t.metadataTxn.Rollback()
			}
			return fmt.Errorf("journal commit failed: %w", err)
		}
	}
	if t.metadataTxn != nil {
		if err := t.metadataTxn.Commit(); err != nil {
			t.db.logger.Error(
				"partial commit: journal committed, ledger state failed",
				"error", err,
			)
			_ = t.metadataTxn.Rollback()
			return fmt.Errorf(
				"partial commit: ledger state commit failed after journal commit: %w",
				err,
			)
		}
	}
	return nil
}

// abort discards both sides without reporting errors
func (t *Txn) abort() {
	if t.blobTxn != nil {
		_ = t.blobTxn.Rollback()
	}
	if t.metadataTxn != nil {
		_ = t.metadataTxn.Rollback()
	}
}

func (t *Txn) Rollback() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.rollback()
}

func (t *Txn) rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	var err error
	if t.blobTxn != nil {
		if rbErr := t.blobTxn.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("journal rollback: %w", rbErr))
		}
	}
	if t.metadataTxn != nil {
		if rbErr := t.metadataTxn.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("ledger state rollback: %w", rbErr))
		}
	}
	return err
}

// Release discards a read transaction. Failures are only logged, so it can
// be deferred
func (t *Txn) Release() {
	if err := t.Rollback(); err != nil {
		t.db.logger.Debug(
			"transaction release failed",
			"error", err,
			"read_write", t.readWrite,
		)
	}
}
