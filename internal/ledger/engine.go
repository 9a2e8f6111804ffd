// Package ledger is the double-entry posting engine. It records transactions
// as balanced sets of debit and credit postings, keeps running balances per
// journal and ledger, and reverses transactions by committing mirrors.
//
// The engine holds no state besides its store handle; all balance mutation
// happens inside LedgerStore.Commit, which the store makes atomic.
package ledger

import (
	"context"
	"time"

	interfaces "github.com/sheikh-saqib/double-entry-ledger/internal/interfaces"
	"github.com/sheikh-saqib/double-entry-ledger/internal/money"
	"go.uber.org/zap"
)

// Engine is safe for concurrent use.
type Engine struct {
	store     interfaces.LedgerStore
	publisher interfaces.EventPublisher
	logger    *zap.Logger
	clock     func() time.Time
	scale     int32
	unique    bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPublisher publishes committed transactions and journal reassignments.
func WithPublisher(p interfaces.EventPublisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithClock overrides time.Now for transaction timestamps.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithScale sets how many fractional digits posting amounts may carry.
func WithScale(scale int32) Option {
	return func(e *Engine) {
		if scale >= 0 {
			e.scale = scale
		}
	}
}

// WithUniqueLedgerNames rejects a second ledger with the same name and type.
func WithUniqueLedgerNames(unique bool) Option {
	return func(e *Engine) { e.unique = unique }
}

// NewEngine creates an engine over store.
func NewEngine(store interfaces.LedgerStore, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		logger: zap.NewNop(),
		clock:  time.Now,
		scale:  money.DefaultScale,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Scale returns the number of fractional digits accepted on postings.
func (e *Engine) Scale() int32 { return e.scale }

// now is normalized to UTC microseconds, the finest resolution every backend
// round-trips.
func (e *Engine) now() time.Time {
	return normalizeTime(e.clock())
}

func normalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Microsecond)
}

func (e *Engine) publish(ctx context.Context, topic, key string, event any) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, topic, key, event); err != nil {
		e.logger.Error("failed to publish ledger event",
			zap.String("topic", topic),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
