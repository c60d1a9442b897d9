// Package aggregator correlates qualifying buys across wallets by token and
// decides when enough distinct wallets have bought the same token.
//
// An Aggregator is not safe for concurrent use. It is owned by the polling
// goroutine of the monitor; other producers hand records to that goroutine.
package aggregator

import (
	"sort"

	"github.com/brojonat/cobuy/service/buys"
	"github.com/shopspring/decimal"
)

// Buyer is one wallet's contribution to a fired signal.
type Buyer struct {
	Label    string
	SolSpent decimal.Decimal
}

// Snapshot is the aggregate for a token at the moment it fired.
type Snapshot struct {
	TokenID string
	Buyers  map[string]decimal.Decimal
}

// Sorted returns the buyers ordered by amount spent, largest first, with ties
// broken by label.
func (s Snapshot) Sorted() []Buyer {
	out := make([]Buyer, 0, len(s.Buyers))
	for label, spent := range s.Buyers {
		out = append(out, Buyer{Label: label, SolSpent: spent})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].SolSpent.Cmp(out[j].SolSpent); c != 0 {
			return c > 0
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Aggregator holds token -> wallet label -> latest SOL spent.
type Aggregator struct {
	threshold int
	tokens    map[string]map[string]decimal.Decimal
}

// New creates an Aggregator that fires once threshold distinct wallets have
// bought a token. A threshold below 1 is treated as 1.
func New(threshold int) *Aggregator {
	if threshold < 1 {
		threshold = 1
	}
	return &Aggregator{
		threshold: threshold,
		tokens:    make(map[string]map[string]decimal.Decimal),
	}
}

// Threshold returns the number of distinct wallets needed to fire.
func (a *Aggregator) Threshold() int {
	return a.threshold
}

// Add records rec, replacing any earlier amount from the same wallet for the
// same token. When the token reaches the threshold, Add returns a snapshot of
// its buyers and true, and the token's entry is left empty so it can fire
// again once a fresh set of wallets accumulates.
func (a *Aggregator) Add(rec buys.Record) (Snapshot, bool) {
	entry, ok := a.tokens[rec.TokenID]
	if !ok {
		entry = make(map[string]decimal.Decimal)
		a.tokens[rec.TokenID] = entry
	}
	entry[rec.WalletLabel] = rec.SolSpent

	if len(entry) < a.threshold {
		return Snapshot{}, false
	}

	snap := Snapshot{TokenID: rec.TokenID, Buyers: entry}
	a.tokens[rec.TokenID] = make(map[string]decimal.Decimal)
	return snap, true
}

// Count returns how many distinct wallets currently count toward token.
func (a *Aggregator) Count(token string) int {
	return len(a.tokens[token])
}

// Buyers returns a copy of the current entry for token.
func (a *Aggregator) Buyers(token string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(a.tokens[token]))
	for label, spent := range a.tokens[token] {
		out[label] = spent
	}
	return out
}

// Pending returns the number of tokens with at least one unconsumed buy.
func (a *Aggregator) Pending() int {
	n := 0
	for _, entry := range a.tokens {
		if len(entry) > 0 {
			n++
		}
	}
	return n
}
