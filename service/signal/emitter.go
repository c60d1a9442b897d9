package signal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/brojonat/cobuy/service/aggregator"
	"github.com/brojonat/cobuy/service/db"
	"github.com/brojonat/cobuy/service/metadata"
	"github.com/brojonat/cobuy/service/metrics"
)

// Notifier delivers a rendered alert to one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, msg Message) error
}

// Store persists signal records.
type Store interface {
	AppendSignal(ctx context.Context, sig *db.Signal) error
}

// Emitter resolves metadata for a fired token, delivers the alert to every
// notifier and persists the record. Delivery failures are logged and never
// retried; one failing channel does not prevent the others.
type Emitter struct {
	resolver  metadata.Resolver
	store     Store
	notifiers []Notifier
	linkBase  string
	timeout   time.Duration
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// EmitterConfig holds optional Emitter settings.
type EmitterConfig struct {
	LinkBase string
	// Timeout bounds each outbound call; zero disables the bound.
	Timeout time.Duration
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// NewEmitter creates an Emitter. store may be nil to skip persistence.
func NewEmitter(resolver metadata.Resolver, store Store, notifiers []Notifier, cfg EmitterConfig) *Emitter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Emitter{
		resolver:  resolver,
		store:     store,
		notifiers: notifiers,
		linkBase:  cfg.LinkBase,
		timeout:   cfg.Timeout,
		metrics:   cfg.Metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Emit handles one fired snapshot. The returned error reports a persistence
// failure only; the alert has already been delivered by then.
func (e *Emitter) Emit(ctx context.Context, snap aggregator.Snapshot) (*db.Signal, error) {
	if e.metrics != nil {
		e.metrics.RecordSignalFired()
	}

	token := e.resolve(ctx, snap.TokenID)
	alert := NewAlert(snap, token, e.now())
	msg := Render(alert, e.linkBase)

	e.logger.InfoContext(ctx, "co-buy signal fired",
		"token", token.Address,
		"name", token.Name,
		"symbol", token.Symbol,
		"market_cap", token.Display,
		"wallets", alert.WalletCount(),
	)

	for _, n := range e.notifiers {
		e.deliver(ctx, n, msg)
	}

	record := RecordFromAlert(alert)
	if e.store == nil {
		return record, nil
	}

	storeCtx, cancel := e.withTimeout(ctx)
	defer cancel()
	if err := e.store.AppendSignal(storeCtx, record); err != nil {
		e.logger.ErrorContext(ctx, "failed to persist signal",
			"token", token.Address,
			"error", err,
		)
		return record, fmt.Errorf("persist signal for %s: %w", token.Address, err)
	}
	return record, nil
}

// RecordFromAlert builds the persisted form of a. An unavailable market cap
// is stored as zero.
func RecordFromAlert(a Alert) *db.Signal {
	marketCap := 0.0
	if a.Token.Available && a.Token.MarketCap > 0 {
		marketCap = a.Token.MarketCap
	}
	return &db.Signal{
		TokenAddress: a.Token.Address,
		TokenName:    a.Token.Name,
		TokenSymbol:  a.Token.Symbol,
		MarketCap:    marketCap,
		WalletCount:  a.WalletCount(),
		Timestamp:    a.FiredAt.UTC(),
	}
}

func (e *Emitter) resolve(ctx context.Context, token string) metadata.TokenInfo {
	if e.resolver == nil {
		return metadata.UnknownToken(token)
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	return e.resolver.Resolve(ctx, token)
}

func (e *Emitter) deliver(ctx context.Context, n Notifier, msg Message) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	err := n.Notify(ctx, msg)
	if e.metrics != nil {
		e.metrics.RecordSignalDelivery(n.Name(), err)
	}
	if err != nil {
		e.logger.WarnContext(ctx, "alert delivery failed",
			"channel", n.Name(),
			"token", msg.Alert.Token.Address,
			"error", err,
		)
		return
	}
	e.logger.DebugContext(ctx, "alert delivered",
		"channel", n.Name(),
		"token", msg.Alert.Token.Address,
	)
}

func (e *Emitter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}

// LogNotifier writes the plain-text alert to a logger. It is always
// configured so a signal is visible even without external channels.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Name() string { return "log" }

func (l *LogNotifier) Notify(ctx context.Context, msg Message) error {
	l.logger.InfoContext(ctx, "alert", "text", msg.Text)
	return nil
}
