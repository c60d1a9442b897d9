// Package ranking re-resolves the market cap of every persisted signal and
// ranks signals by how much the token has grown since it fired.
package ranking

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/brojonat/cobuy/service/db"
	"github.com/brojonat/cobuy/service/metadata"
	"golang.org/x/sync/errgroup"
)

// DefaultTopK is the report length used when none is requested.
const DefaultTopK = 10

// Empty-state messages.
const (
	NoSignalsMessage    = "No signals recorded yet."
	NoMarketDataMessage = "No signals with usable market data to rank yet."
)

// Source reads persisted signals.
type Source interface {
	ListSignals(ctx context.Context, limit int) ([]*db.Signal, error)
}

// Entry is one ranked signal.
type Entry struct {
	Rank              int       `json:"rank"`
	TokenAddress      string    `json:"token_address"`
	TokenName         string    `json:"token_name"`
	TokenSymbol       string    `json:"token_symbol"`
	MarketCapAtSignal float64   `json:"market_cap_at_signal"`
	CurrentMarketCap  float64   `json:"current_market_cap"`
	Multiple          float64   `json:"multiple"`
	SignaledAt        time.Time `json:"signaled_at"`
}

// MultipleString renders the growth multiple, e.g. "x4.50".
func (e Entry) MultipleString() string {
	return fmt.Sprintf("x%.2f", e.Multiple)
}

// Report is the result of one ranking run.
type Report struct {
	Entries []Entry `json:"entries"`
	// Considered is the number of persisted signals read.
	Considered int `json:"considered"`
	// Skipped counts signals without a usable market cap then or now.
	Skipped     int       `json:"skipped"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Empty reports whether there is nothing to rank.
func (r *Report) Empty() bool {
	return len(r.Entries) == 0
}

// EmptyMessage explains an empty report; it is "" when the report has entries.
func (r *Report) EmptyMessage() string {
	switch {
	case !r.Empty():
		return ""
	case r.Considered == 0:
		return NoSignalsMessage
	default:
		return NoMarketDataMessage
	}
}

// Text renders the report for chat and terminal output.
func (r *Report) Text() string {
	if r.Empty() {
		return r.EmptyMessage()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Top %d signals by growth\n", len(r.Entries))
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "\n%d. %s (%s) %s\n", e.Rank, e.TokenName, e.TokenSymbol, e.MultipleString())
		fmt.Fprintf(&b, "   %s\n", e.TokenAddress)
		fmt.Fprintf(&b, "   MC at signal: %s, now: %s\n",
			metadata.FormatMarketCap(e.MarketCapAtSignal),
			metadata.FormatMarketCap(e.CurrentMarketCap),
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Reporter builds ranking reports.
type Reporter struct {
	source      Source
	resolver    metadata.Resolver
	concurrency int
	timeout     time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// Config holds optional Reporter settings.
type Config struct {
	// Concurrency bounds simultaneous metadata lookups; default 4.
	Concurrency int
	// Timeout bounds each metadata lookup; zero disables the bound.
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewReporter creates a Reporter.
func NewReporter(source Source, resolver metadata.Resolver, cfg Config) *Reporter {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reporter{
		source:      source,
		resolver:    resolver,
		concurrency: cfg.Concurrency,
		timeout:     cfg.Timeout,
		logger:      cfg.Logger,
		now:         time.Now,
	}
}

// Report ranks every persisted signal and returns the top k. A k below 1
// uses DefaultTopK. Only a failure to read persisted signals is an error.
func (r *Reporter) Report(ctx context.Context, k int) (*Report, error) {
	if k < 1 {
		k = DefaultTopK
	}

	signals, err := r.source.ListSignals(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("read signals: %w", err)
	}

	report := &Report{
		Entries:     []Entry{},
		Considered:  len(signals),
		GeneratedAt: r.now().UTC(),
	}

	current, err := r.currentMarketCaps(ctx, signals)
	if err != nil {
		return nil, err
	}

	for _, sig := range signals {
		now, ok := current[sig.TokenAddress]
		if !ok || sig.MarketCap == 0 {
			report.Skipped++
			continue
		}
		report.Entries = append(report.Entries, Entry{
			TokenAddress:      sig.TokenAddress,
			TokenName:         sig.TokenName,
			TokenSymbol:       sig.TokenSymbol,
			MarketCapAtSignal: sig.MarketCap,
			CurrentMarketCap:  now,
			Multiple:          now / sig.MarketCap,
			SignaledAt:        sig.Timestamp,
		})
	}

	sort.SliceStable(report.Entries, func(i, j int) bool {
		return report.Entries[i].Multiple > report.Entries[j].Multiple
	})
	if len(report.Entries) > k {
		report.Entries = report.Entries[:k]
	}
	for i := range report.Entries {
		report.Entries[i].Rank = i + 1
	}

	r.logger.DebugContext(ctx, "ranking report built",
		"considered", report.Considered,
		"ranked", len(report.Entries),
		"skipped", report.Skipped,
	)

	return report, nil
}

// currentMarketCaps resolves each distinct token once. Tokens whose market
// cap is unavailable are absent from the result.
func (r *Reporter) currentMarketCaps(ctx context.Context, signals []*db.Signal) (map[string]float64, error) {
	tokens := make([]string, 0, len(signals))
	seen := make(map[string]struct{}, len(signals))
	for _, sig := range signals {
		if sig.MarketCap == 0 {
			continue
		}
		if _, ok := seen[sig.TokenAddress]; ok {
			continue
		}
		seen[sig.TokenAddress] = struct{}{}
		tokens = append(tokens, sig.TokenAddress)
	}

	caps := make([]float64, len(tokens))
	available := make([]bool, len(tokens))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, token := range tokens {
		g.Go(func() error {
			lookupCtx, cancel := r.withTimeout(gctx)
			defer cancel()
			info := r.resolver.Resolve(lookupCtx, token)
			if info.Available {
				caps[i] = info.MarketCap
				available[i] = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolve market caps: %w", err)
	}

	out := make(map[string]float64, len(tokens))
	for i, token := range tokens {
		if available[i] {
			out[token] = caps[i]
		}
	}
	return out, nil
}

func (r *Reporter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}
