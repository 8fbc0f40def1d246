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
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/phizercost/flight-surety/database/types"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultGcInterval = 5 * time.Minute

	// Journal entries are small, so keep the value log in the LSM tree and
	// use modest caches
	journalValueThreshold = 1 << 10
	journalBlockCacheSize = 16 << 20
	journalIndexCacheSize = 8 << 20

	gcDiscardRatio = 0.5
)

// BlobStoreBadger stores the event journal in a badger key-value store
type BlobStoreBadger struct {
	promRegistry prometheus.Registerer
	db           *badger.DB
	logger       *slog.Logger
	metrics      *blobMetrics
	gcStop       chan struct{}
	gcWg         sync.WaitGroup
	closeOnce    sync.Once
	dataDir      string
	gcInterval   time.Duration
	syncWrites   bool
}

// New opens the journal store. The store lives in memory when no data
// directory is configured
func New(opts ...BlobStoreBadgerOptionFunc) (*BlobStoreBadger, error) {
	d := &BlobStoreBadger{
		gcInterval: DefaultGcInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	badgerOpts, err := d.badgerOptions()
	if err != nil {
		return nil, err
	}
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open journal store: %w", err)
	}
	d.db = db
	if d.promRegistry != nil {
		d.registerBlobMetrics()
	}
	if d.dataDir != "" && d.gcInterval > 0 {
		d.gcStop = make(chan struct{})
		d.gcWg.Add(1)
		go d.gcLoop()
	}
	return d, nil
}

func (d *BlobStoreBadger) badgerOptions() (badger.Options, error) {
	var opts badger.Options
	if d.dataDir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(d.dataDir, 0o755); err != nil {
			return opts, fmt.Errorf("failed to create data dir: %w", err)
		}
		opts = badger.DefaultOptions(filepath.Join(d.dataDir, "journal")).
			WithSyncWrites(d.syncWrites).
			WithValueThreshold(journalValueThreshold).
			WithCompression(options.Snappy)
	}
	return opts.
		WithBlockCacheSize(journalBlockCacheSize).
		WithIndexCacheSize(journalIndexCacheSize).
		WithNumVersionsToKeep(1).
		WithLogger(NewBadgerLogger(d.logger)).
		WithLoggingLevel(badger.WARNING), nil
}

func (d *BlobStoreBadger) gcLoop() {
	defer d.gcWg.Done()
	ticker := time.NewTicker(d.gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.runGc()
		case <-d.gcStop:
			return
		}
	}
}

// runGc rewrites value log files until badger reports nothing left to reclaim
func (d *BlobStoreBadger) runGc() {
	for {
		err := d.db.RunValueLogGC(gcDiscardRatio)
		if err == nil {
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) {
			d.logger.Warn(
				"journal value log GC failed",
				"component", "database",
				"error", err,
			)
		}
		return
	}
}

func (d *BlobStoreBadger) Close() error {
	var err error
	d.closeOnce.Do(func() {
		if d.gcStop != nil {
			close(d.gcStop)
			d.gcWg.Wait()
		}
		err = d.db.Close()
	})
	return err
}

// DB returns the underlying badger handle
func (d *BlobStoreBadger) DB() *badger.DB {
	return d.db
}

func (d *BlobStoreBadger) NewTransaction(update bool) types.Txn {
	return &badgerTxn{store: d, tx: d.db.NewTransaction(update)}
}

func (d *BlobStoreBadger) Get(txn types.Txn, key []byte) ([]byte, error) {
	tx, err := d.txnFor(txn)
	if err != nil {
		return nil, err
	}
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, types.ErrBlobKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	if d.metrics != nil {
		d.metrics.reads.Inc()
	}
	return item.ValueCopy(nil)
}

func (d *BlobStoreBadger) Set(txn types.Txn, key, val []byte) error {
	tx, err := d.txnFor(txn)
	if err != nil {
		return err
	}
	if err := tx.Set(key, val); err != nil {
		return err
	}
	if d.metrics != nil {
		d.metrics.writes.Inc()
		d.metrics.bytesWritten.Add(float64(len(val)))
	}
	return nil
}

func (d *BlobStoreBadger) Delete(txn types.Txn, key []byte) error {
	tx, err := d.txnFor(txn)
	if err != nil {
		return err
	}
	if err := tx.Delete(key); err != nil {
		return err
	}
	if d.metrics != nil {
		d.metrics.deletes.Inc()
	}
	return nil
}

func (d *BlobStoreBadger) NewIterator(
	txn types.Txn,
	opts types.BlobIteratorOptions,
) types.BlobIterator {
	tx, err := d.txnFor(txn)
	if err != nil {
		return failedIterator{err: err}
	}
	iterOpts := badger.DefaultIteratorOptions
	iterOpts.Prefix = opts.Prefix
	return &badgerIterator{iter: tx.NewIterator(iterOpts)}
}
