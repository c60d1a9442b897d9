// Package monitor runs the wallet polling loop: it fetches recent activity
// for every watched wallet, filters signatures it has already inspected,
// classifies buys and fires signals when enough wallets buy the same token.
package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/brojonat/cobuy/service/aggregator"
	"github.com/brojonat/cobuy/service/buys"
	"github.com/brojonat/cobuy/service/db"
	"github.com/brojonat/cobuy/service/metrics"
	"github.com/brojonat/cobuy/service/seen"
	"github.com/brojonat/cobuy/service/solana"
	"github.com/brojonat/cobuy/service/watchlist"
	"github.com/shopspring/decimal"
)

// ErrCycleInProgress is returned by RunCycle when another cycle is running.
var ErrCycleInProgress = errors.New("poll cycle already in progress")

// submitBuffer is the capacity of the Submit channel.
const submitBuffer = 64

// ActivitySource provides wallet activity.
type ActivitySource interface {
	GetRecentSignatures(ctx context.Context, address string, limit int) ([]solana.Signature, error)
	GetTransactionDetail(ctx context.Context, signature string) (*solana.TransactionDetail, error)
}

// Emitter handles a fired aggregate.
type Emitter interface {
	Emit(ctx context.Context, snap aggregator.Snapshot) (*db.Signal, error)
}

// Config holds monitor settings.
type Config struct {
	Wallets           []watchlist.Wallet
	PollInterval      time.Duration
	SignatureLimit    int
	MinBuyAmountSOL   decimal.Decimal
	MinWalletsTrigger int
	SeenTTL           time.Duration
}

// CycleStats summarizes one pass over the watchlist.
type CycleStats struct {
	Wallets      int
	WalletErrors int
	Signatures   int
	Inspected    int
	Buys         int
	Signals      int
}

// Monitor owns the seen-set and the aggregator. Both are only touched by the
// goroutine executing RunCycle; other producers use Submit.
type Monitor struct {
	wallets    []watchlist.Wallet
	interval   time.Duration
	limit      int
	source     ActivitySource
	emitter    Emitter
	seen       *seen.Filter
	classifier *buys.Classifier
	agg        *aggregator.Aggregator
	submitted  chan buys.Record
	running    atomic.Bool
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New creates a Monitor. If m is nil, no metrics will be recorded.
func New(cfg Config, source ActivitySource, emitter Emitter, m *metrics.Metrics, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Monitor{
		wallets:    cfg.Wallets,
		interval:   cfg.PollInterval,
		limit:      cfg.SignatureLimit,
		source:     source,
		emitter:    emitter,
		seen:       seen.New(cfg.SeenTTL),
		classifier: buys.NewClassifier(cfg.MinBuyAmountSOL),
		agg:        aggregator.New(cfg.MinWalletsTrigger),
		submitted:  make(chan buys.Record, submitBuffer),
		metrics:    m,
		logger:     logger,
	}
}

// Submit hands a buy record to the polling goroutine, which applies it
// between wallets. It blocks while the buffer is full.
func (m *Monitor) Submit(ctx context.Context, rec buys.Record) error {
	select {
	case m.submitted <- rec:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run polls until ctx is cancelled, sleeping PollInterval after each cycle.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.InfoContext(ctx, "monitor started",
		"wallets", len(m.wallets),
		"poll_interval", m.interval,
		"signature_limit", m.limit,
		"min_wallets_trigger", m.agg.Threshold(),
	)

	for {
		if _, err := m.RunCycle(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.ErrorContext(ctx, "poll cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			m.logger.InfoContext(context.Background(), "monitor stopped")
			return nil
		case <-time.After(m.interval):
		}
	}
}

// RunCycle polls every wallet once. Per-wallet failures are logged and
// skipped; the returned error is ErrCycleInProgress or ctx's error.
func (m *Monitor) RunCycle(ctx context.Context) (CycleStats, error) {
	var stats CycleStats
	if !m.running.CompareAndSwap(false, true) {
		return stats, ErrCycleInProgress
	}
	defer m.running.Store(false)

	start := time.Now()
	for _, w := range m.wallets {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		m.drainSubmitted(ctx, &stats)
		m.pollWallet(ctx, w, &stats)
	}
	m.drainSubmitted(ctx, &stats)

	if m.metrics != nil {
		m.metrics.RecordPollCycle(time.Since(start).Seconds())
		m.metrics.SetSeenSetSize(m.seen.Len())
		m.metrics.SetPendingTokens(m.agg.Pending())
	}

	m.logger.DebugContext(ctx, "poll cycle complete",
		"wallets", stats.Wallets,
		"wallet_errors", stats.WalletErrors,
		"inspected", stats.Inspected,
		"buys", stats.Buys,
		"signals", stats.Signals,
		"duration", time.Since(start),
	)

	return stats, ctx.Err()
}

func (m *Monitor) pollWallet(ctx context.Context, w watchlist.Wallet, stats *CycleStats) {
	stats.Wallets++

	sigs, err := m.source.GetRecentSignatures(ctx, w.Address, m.limit)
	if err != nil {
		stats.WalletErrors++
		if m.metrics != nil {
			m.metrics.RecordWalletPollError(w.Label)
		}
		m.logger.WarnContext(ctx, "failed to fetch signatures",
			"wallet", w.Label,
			"address", w.Address,
			"error", err,
		)
		return
	}
	stats.Signatures += len(sigs)

	for _, sig := range sigs {
		if ctx.Err() != nil {
			return
		}
		// Marked before the detail fetch: a signature is inspected at most once.
		if !m.seen.CheckAndMark(sig.Signature) {
			m.skip("seen")
			continue
		}
		stats.Inspected++

		detail, err := m.source.GetTransactionDetail(ctx, sig.Signature)
		if err != nil {
			reason := "detail_error"
			if errors.Is(err, solana.ErrTransactionNotFound) {
				reason = "not_found"
			}
			m.skip(reason)
			m.logger.WarnContext(ctx, "failed to fetch transaction detail",
				"wallet", w.Label,
				"signature", sig.Signature,
				"error", err,
			)
			continue
		}

		rec, outcome := m.classifier.Classify(w.Label, detail)
		if m.metrics != nil {
			m.metrics.RecordClassification(string(outcome))
		}
		if rec == nil {
			continue
		}

		m.logger.InfoContext(ctx, "qualifying buy",
			"wallet", rec.WalletLabel,
			"token", rec.TokenID,
			"sol_spent", rec.SolSpent.String(),
			"signature", sig.Signature,
		)
		m.accept(ctx, *rec, stats)
	}
}

// drainSubmitted applies every record waiting on the Submit channel.
func (m *Monitor) drainSubmitted(ctx context.Context, stats *CycleStats) {
	for {
		select {
		case rec := <-m.submitted:
			m.accept(ctx, rec, stats)
		default:
			return
		}
	}
}

func (m *Monitor) accept(ctx context.Context, rec buys.Record, stats *CycleStats) {
	stats.Buys++
	if m.metrics != nil {
		m.metrics.RecordBuy(rec.WalletLabel)
	}

	snap, fired := m.agg.Add(rec)
	if !fired {
		return
	}
	stats.Signals++

	if _, err := m.emitter.Emit(ctx, snap); err != nil {
		m.logger.ErrorContext(ctx, "signal emission incomplete",
			"token", snap.TokenID,
			"error", err,
		)
	}
}

func (m *Monitor) skip(reason string) {
	if m.metrics != nil {
		m.metrics.RecordTransactionSkipped(reason)
	}
}
