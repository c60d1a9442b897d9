// Package metadata resolves token name, symbol and market capitalization from
// a market-data provider.
package metadata

import (
	"context"
	"math"
	"strconv"
	"strings"
)

// Placeholders used when a provider has nothing to say about a token.
const (
	UnknownName   = "Unknown"
	UnknownSymbol = "???"
	Unavailable   = "N/A"
)

// TokenInfo is what a Resolver knows about a token. MarketCap is only
// meaningful when Available is true; Display is the formatted market cap or
// Unavailable.
type TokenInfo struct {
	Address   string
	Name      string
	Symbol    string
	MarketCap float64
	Available bool
	Display   string
}

// Resolver looks up token metadata. Implementations never return an error:
// provider failures degrade to placeholders and an unavailable market cap.
type Resolver interface {
	Resolve(ctx context.Context, token string) TokenInfo
}

// UnknownToken is the degraded TokenInfo for token.
func UnknownToken(token string) TokenInfo {
	return TokenInfo{
		Address: token,
		Name:    UnknownName,
		Symbol:  UnknownSymbol,
		Display: Unavailable,
	}
}

// newTokenInfo fills placeholders for empty fields and formats the market cap.
// A nil or non-finite market cap is unavailable.
func newTokenInfo(token, name, symbol string, marketCap *float64) TokenInfo {
	info := UnknownToken(token)
	if name != "" {
		info.Name = name
	}
	if symbol != "" {
		info.Symbol = symbol
	}
	if marketCap != nil && !math.IsNaN(*marketCap) && !math.IsInf(*marketCap, 0) {
		info.MarketCap = *marketCap
		info.Available = true
		info.Display = FormatMarketCap(*marketCap)
	}
	return info
}

// FormatMarketCap renders v rounded to a whole number with comma thousands
// separators, e.g. 1234567.8 -> "1,234,568".
func FormatMarketCap(v float64) string {
	digits := strconv.FormatFloat(math.Abs(math.Round(v)), 'f', 0, 64)

	var b strings.Builder
	if math.Round(v) < 0 {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
