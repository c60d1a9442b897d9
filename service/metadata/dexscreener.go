package metadata

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// DefaultDexScreenerURL is the public DexScreener API.
const DefaultDexScreenerURL = "https://api.dexscreener.com"

const dexScreenerChain = "solana"

type dexToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type dexLiquidity struct {
	USD float64 `json:"usd"`
}

type dexPair struct {
	ChainID   string        `json:"chainId"`
	PairAddr  string        `json:"pairAddress"`
	BaseToken dexToken      `json:"baseToken"`
	Liquidity *dexLiquidity `json:"liquidity"`
	MarketCap *float64      `json:"marketCap"`
	FDV       *float64      `json:"fdv"`
}

// DexScreener resolves metadata from the DexScreener token pairs endpoint.
type DexScreener struct {
	baseURL string
	fetch   httpFetcher
}

// NewDexScreener creates a DexScreener resolver. An empty baseURL uses
// DefaultDexScreenerURL.
func NewDexScreener(baseURL string, opts Options) *DexScreener {
	if baseURL == "" {
		baseURL = DefaultDexScreenerURL
	}
	return &DexScreener{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetch:   newFetcher("dexscreener", opts),
	}
}

// Resolve implements Resolver.
func (d *DexScreener) Resolve(ctx context.Context, token string) TokenInfo {
	pairs, err := d.pairs(ctx, token)
	if err != nil {
		d.fetch.logger.WarnContext(ctx, "token metadata lookup failed",
			"provider", d.fetch.provider,
			"token", token,
			"error", err,
		)
		return UnknownToken(token)
	}

	best := bestPair(pairs, token)
	if best == nil {
		d.fetch.logger.DebugContext(ctx, "no pairs for token",
			"provider", d.fetch.provider,
			"token", token,
		)
		return UnknownToken(token)
	}

	marketCap := best.MarketCap
	if marketCap == nil || *marketCap == 0 {
		marketCap = best.FDV
	}
	return newTokenInfo(token, best.BaseToken.Name, best.BaseToken.Symbol, marketCap)
}

func (d *DexScreener) pairs(ctx context.Context, token string) ([]dexPair, error) {
	endpoint := fmt.Sprintf("%s/tokens/v1/%s/%s", d.baseURL, dexScreenerChain, url.PathEscape(token))
	var pairs []dexPair
	if err := d.fetch.getJSON(ctx, endpoint, nil, &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

// bestPair picks the most liquid pair quoting token as its base token.
func bestPair(pairs []dexPair, token string) *dexPair {
	var best *dexPair
	bestLiquidity := -1.0
	for i := range pairs {
		p := &pairs[i]
		if p.BaseToken.Address != token {
			continue
		}
		liq := 0.0
		if p.Liquidity != nil {
			liq = p.Liquidity.USD
		}
		if liq > bestLiquidity {
			best, bestLiquidity = p, liq
		}
	}
	return best
}
