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

package ledger

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/phizercost/flight-surety/database"
	"github.com/phizercost/flight-surety/database/models"
	"github.com/phizercost/flight-surety/database/types"
	"github.com/phizercost/flight-surety/event"
	"github.com/phizercost/flight-surety/ledger/common"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/phizercost/flight-surety/ledger"

	defaultSweepInterval = time.Minute
	entropyLength        = 32
)

type LedgerStateConfig struct {
	Logger       *slog.Logger
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	// Database is used instead of opening one in DataDir. It is not closed by the ledger
	Database   *database.Database
	Transferer Transferer
	DataDir    string
	Params     Params
	// Owner is required when the ledger is first created and ignored afterward
	Owner common.Address
	// FirstAirline may register airlines before any airline is authorized
	FirstAirline common.Address
	// OracleRequestTTL is how long a status request stays open. Zero disables expiry
	OracleRequestTTL time.Duration
	SweepInterval    time.Duration
}

type LedgerState struct {
	sync.Mutex
	config    LedgerStateConfig
	db        *database.Database
	ownsDb    bool
	ownsBus   bool
	params    Params
	metrics   stateMetrics
	scheduler *Scheduler
	tracer    trace.Tracer
	now       func() time.Time
	closeOnce sync.Once
}

func NewLedgerState(cfg LedgerStateConfig) (*LedgerState, error) {
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	cfg.Logger = cfg.Logger.With("component", "ledger")
	params := cfg.Params.withDefaults()
	if err := params.validate(); err != nil {
		return nil, err
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	ls := &LedgerState{
		config: cfg,
		params: params,
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
	if ls.config.EventBus == nil {
		ls.config.EventBus = event.NewEventBus(nil, cfg.Logger)
		ls.ownsBus = true
	}
	// Init metrics
	ls.metrics.init(ls.config.PromRegistry)
	// Load database
	needsRecovery := false
	if cfg.Database != nil {
		ls.db = cfg.Database
	} else {
		db, err := database.New(&database.Config{
			Logger:       cfg.Logger,
			PromRegistry: cfg.PromRegistry,
			DataDir:      cfg.DataDir,
		})
		if db == nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
		ls.db = db
		ls.ownsDb = true
		if err != nil {
			var dbErr database.CommitTimestampError
			if !errors.As(err, &dbErr) {
				return nil, errors.Join(err, ls.closeDb())
			}
			ls.config.Logger.Warn(
				"database initialization error, needs recovery",
				"error", err,
			)
			needsRecovery = true
		}
	}
	if ls.config.Transferer == nil {
		ls.config.Transferer = NewAccountTransferer(ls.db)
	}
	if err := ls.loadSetting(); err != nil {
		return nil, errors.Join(err, ls.closeDb())
	}
	// Run recovery if needed
	if needsRecovery {
		if err := ls.recoverCommitTimestampConflict(); err != nil {
			return nil, errors.Join(
				fmt.Errorf("failed to recover database: %w", err),
				ls.closeDb(),
			)
		}
	}
	if err := ls.loadMetrics(); err != nil {
		return nil, errors.Join(err, ls.closeDb())
	}
	if err := ls.checkPendingPayouts(); err != nil {
		return nil, errors.Join(err, ls.closeDb())
	}
	// Schedule periodic sweep of expired oracle requests
	if ls.config.OracleRequestTTL > 0 {
		ls.scheduler = NewScheduler(ls.config.SweepInterval)
		ls.scheduler.Register(1, ls.sweepOracleRequests)
		ls.scheduler.Start()
	}
	return ls, nil
}

// Close stops the expiry sweeper and releases the database and event bus if the
// ledger created them
func (ls *LedgerState) Close() error {
	var err error
	ls.closeOnce.Do(func() {
		if ls.scheduler != nil {
			ls.scheduler.Stop()
		}
		err = ls.closeDb()
	})
	return err
}

func (ls *LedgerState) closeDb() error {
	if ls.ownsBus {
		ls.config.EventBus.Stop()
	}
	if !ls.ownsDb {
		return nil
	}
	return ls.db.Close()
}

// Database returns the underlying database
func (ls *LedgerState) Database() *database.Database {
	return ls.db
}

// EventBus returns the event bus that ledger events are published on
func (ls *LedgerState) EventBus() *event.EventBus {
	return ls.config.EventBus
}

// Params returns the effective ledger parameters
func (ls *LedgerState) Params() Params {
	return ls.params
}

func (ls *LedgerState) loadSetting() error {
	setting, err := ls.db.GetSetting(nil)
	if err != nil {
		return fmt.Errorf("failed to load ledger settings: %w", err)
	}
	if setting != nil {
		if !ls.config.Owner.IsZero() &&
			!bytes.Equal(setting.Owner, ls.config.Owner.Bytes()) {
			ls.config.Logger.Warn(
				"configured owner differs from persisted owner, using persisted owner",
				"configured", ls.config.Owner.String(),
				"persisted", addressString(setting.Owner),
			)
		}
		return nil
	}
	if ls.config.Owner.IsZero() {
		return errors.New("ledger owner must be configured")
	}
	entropy := make([]byte, entropyLength)
	if _, err := rand.Read(entropy); err != nil {
		return fmt.Errorf("failed to generate entropy: %w", err)
	}
	setting = &models.Setting{
		Owner:            ls.config.Owner.Bytes(),
		Entropy:          entropy,
		FundingThreshold: types.Uint64(ls.params.FundingThreshold),
		InsuranceCap:     types.Uint64(ls.params.InsuranceCap),
		RegistrationFee:  types.Uint64(ls.params.RegistrationFee),
		Operational:      true,
	}
	if !ls.config.FirstAirline.IsZero() {
		setting.FirstAirline = ls.config.FirstAirline.Bytes()
	}
	txn := ls.db.Transaction(true)
	if err := txn.Do(func(txn *database.Txn) error {
		return ls.db.SetSetting(setting, txn)
	}); err != nil {
		return fmt.Errorf("failed to initialize ledger settings: %w", err)
	}
	ls.config.Logger.Info(
		"initialized ledger",
		"owner", ls.config.Owner.String(),
		"first_airline", ls.config.FirstAirline.String(),
	)
	return nil
}

// recoverCommitTimestampConflict removes journal entries written by a transition whose
// metadata commit did not complete
func (ls *LedgerState) recoverCommitTimestampConflict() error {
	setting, err := ls.db.GetSetting(nil)
	if err != nil {
		return err
	}
	var removed int
	txn := ls.db.Transaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		var err error
		removed, err = ls.db.TruncateJournal(setting.Sequence, txn)
		if err != nil {
			return err
		}
		// Rewriting the settings gives the commit timestamp on both stores the same value
		return ls.db.SetSetting(setting, txn)
	})
	if err != nil {
		return err
	}
	ls.config.Logger.Info(
		"recovered from partial commit",
		"sequence", setting.Sequence,
		"journal_entries_removed", removed,
	)
	return nil
}

func (ls *LedgerState) loadMetrics() error {
	setting, err := ls.db.GetSetting(nil)
	if err != nil {
		return err
	}
	authorized, err := ls.db.CountAuthorizedAirlines(common.Address{}, nil)
	if err != nil {
		return err
	}
	oracles, err := ls.db.CountOracles(nil)
	if err != nil {
		return err
	}
	ls.metrics.airlinesAuthorized.Set(float64(authorized))
	ls.metrics.oraclesRegistered.Set(float64(oracles))
	ls.updateSettingMetrics(setting)
	return nil
}

func (ls *LedgerState) updateSettingMetrics(setting *models.Setting) {
	ls.metrics.escrowBalance.Set(float64(setting.EscrowBalance))
	ls.metrics.sequence.Set(float64(setting.Sequence))
	if setting.Operational {
		ls.metrics.operational.Set(1)
	} else {
		ls.metrics.operational.Set(0)
	}
}

// checkPendingPayouts reports payouts whose transfer outcome was never recorded.
// Retrying or compensating them blindly could pay twice, so they wait for the
// owner to call ResolvePayout
func (ls *LedgerState) checkPendingPayouts() error {
	payouts, err := ls.db.GetPayoutsByStatus(models.PayoutStatusPending, nil)
	if err != nil {
		return err
	}
	for _, payout := range payouts {
		ls.config.Logger.Warn(
			"payout has no recorded transfer outcome, resolve it with ResolvePayout",
			"payout_id", payout.ID,
			"passenger", addressString(payout.Passenger),
			"amount", common.Amount(payout.Amount).String(),
		)
	}
	return nil
}

type pendingEvent struct {
	data      sequencedEvent
	eventType event.EventType
}

// txnState is the working state of a single transition
type txnState struct {
	now     time.Time
	txn     *database.Txn
	setting *models.Setting
	events  []pendingEvent
	nonce   uint64
}

// emit queues an event for the journal and assigns its sequence number
func (st *txnState) emit(eventType event.EventType, data sequencedEvent) uint64 {
	st.setting.Sequence++
	data.setSequence(st.setting.Sequence)
	st.events = append(
		st.events,
		pendingEvent{eventType: eventType, data: data},
	)
	return st.setting.Sequence
}

// random returns a pseudo-random value derived from the ledger entropy, a per-transition
// nonce and the caller
func (st *txnState) random(caller common.Address) uint64 {
	st.nonce++
	nonceBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(nonceBuf, st.nonce)
	hash := common.Keccak256(st.setting.Entropy, nonceBuf, caller.Bytes())
	return binary.BigEndian.Uint64(hash[:8])
}

func (st *txnState) escrowBalance() common.Amount {
	return common.Amount(st.setting.EscrowBalance)
}

func (st *txnState) creditEscrow(amount common.Amount) error {
	balance, err := st.escrowBalance().Add(amount)
	if err != nil {
		return fmt.Errorf("%w: escrow balance overflow", ErrInvalidAmount)
	}
	st.setting.EscrowBalance = types.Uint64(balance)
	return nil
}

func (st *txnState) debitEscrow(amount common.Amount) error {
	if amount > st.escrowBalance() {
		return ErrInsufficientFunds
	}
	st.setting.EscrowBalance -= types.Uint64(amount)
	return nil
}

func (st *txnState) isOwner(addr common.Address) bool {
	return bytes.Equal(st.setting.Owner, addr.Bytes())
}

// transition applies fn as a single atomic step while the ledger is operational
func (ls *LedgerState) transition(
	ctx context.Context,
	name string,
	fn func(*txnState) error,
) error {
	return ls.runTransition(ctx, name, true, fn)
}

// transitionUngated applies fn regardless of the operational flag
func (ls *LedgerState) transitionUngated(
	ctx context.Context,
	name string,
	fn func(*txnState) error,
) error {
	return ls.runTransition(ctx, name, false, fn)
}

func (ls *LedgerState) runTransition(
	ctx context.Context,
	name string,
	gated bool,
	fn func(*txnState) error,
) error {
	ctx, span := ls.tracer.Start(
		ctx,
		"ledger."+name,
		trace.WithAttributes(attribute.String("ledger.operation", name)),
	)
	defer span.End()
	start := time.Now()
	events, setting, err := ls.applyTransition(ctx, gated, fn)
	ls.metrics.transitionLatency.WithLabelValues(name).
		Observe(time.Since(start).Seconds())
	if err != nil {
		ls.metrics.transitionsTotal.WithLabelValues(name, "rejected").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ls.config.Logger.Debug(
			"transition rejected",
			"operation", name,
			"error", err,
		)
		return &TransitionError{Op: name, Err: err}
	}
	ls.metrics.transitionsTotal.WithLabelValues(name, "committed").Inc()
	span.SetAttributes(
		attribute.Int64("ledger.sequence", int64(setting.Sequence)), //nolint:gosec
		attribute.Int("ledger.events", len(events)),
	)
	ls.updateSettingMetrics(setting)
	ls.publish(events)
	return nil
}

func (ls *LedgerState) applyTransition(
	ctx context.Context,
	gated bool,
	fn func(*txnState) error,
) ([]event.Event, *models.Setting, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	ls.Lock()
	defer ls.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	var events []event.Event
	var setting *models.Setting
	txn := ls.db.Transaction(true)
	err := txn.Do(func(txn *database.Txn) error {
		var err error
		setting, err = ls.db.GetSetting(txn)
		if err != nil {
			return err
		}
		if setting == nil {
			return errors.New("ledger settings not initialized")
		}
		if gated && !setting.Operational {
			return ErrNotOperational
		}
		st := &txnState{
			now:     ls.now(),
			txn:     txn,
			setting: setting,
		}
		if err := fn(st); err != nil {
			return err
		}
		events = make([]event.Event, 0, len(st.events))
		for _, pending := range st.events {
			payload, err := cbor.Encode(pending.data)
			if err != nil {
				return fmt.Errorf("encode %s event: %w", pending.eventType, err)
			}
			entry := &database.JournalEntry{
				Type:      string(pending.eventType),
				Payload:   payload,
				Sequence:  pending.data.sequence(),
				Timestamp: st.now.UnixMilli(),
			}
			if err := ls.db.AppendJournal(entry, txn); err != nil {
				return fmt.Errorf("append journal: %w", err)
			}
			events = append(events, event.Event{
				Type:      pending.eventType,
				Timestamp: st.now,
				Data:      pending.data,
			})
		}
		// Advance the entropy with every committed transition
		seqBuf := make([]byte, 8)
		binary.BigEndian.PutUint64(seqBuf, setting.Sequence)
		tsBuf := make([]byte, 8)
		binary.BigEndian.PutUint64(tsBuf, uint64(st.now.UnixNano())) //nolint:gosec
		entropy := common.Keccak256(setting.Entropy, seqBuf, tsBuf)
		setting.Entropy = entropy.Bytes()
		return ls.db.SetSetting(setting, txn)
	})
	if err != nil {
		return nil, nil, err
	}
	return events, setting, nil
}

// publish sends committed events to the event bus and updates the event-driven metrics
func (ls *LedgerState) publish(events []event.Event) {
	for _, evt := range events {
		switch data := evt.Data.(type) {
		case *AirlineAuthorizedEvent:
			ls.metrics.airlinesAuthorized.Inc()
		case *FlightRegisteredEvent:
			ls.metrics.flightsRegistered.Inc()
		case *FlightStatusEvent:
			if data.Finalized {
				ls.metrics.flightsFinalized.WithLabelValues(data.StatusCode.String()).
					Inc()
			}
		case *OracleRegisteredEvent:
			ls.metrics.oraclesRegistered.Inc()
		case *OracleRequestEvent:
			ls.metrics.oracleRequests.Inc()
		case *InsurancePurchasedEvent:
			ls.metrics.policiesPurchased.Inc()
		}
		ls.config.EventBus.Publish(evt.Type, evt)
	}
}

func addressString(b []byte) string {
	addr, err := common.NewAddress(b)
	if err != nil {
		return ""
	}
	return addr.String()
}
