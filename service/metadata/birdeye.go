package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type birdeyeResponse struct {
	Success bool `json:"success"`
	Data    *struct {
		Name      string   `json:"name"`
		Symbol    string   `json:"symbol"`
		MarketCap *float64 `json:"market_cap"`
	} `json:"data"`
}

// Birdeye resolves metadata from a Birdeye-style token_metadata endpoint
// authenticated with an X-API-KEY header.
type Birdeye struct {
	baseURL string
	apiKey  string
	fetch   httpFetcher
}

// NewBirdeye creates a Birdeye resolver.
func NewBirdeye(baseURL, apiKey string, opts Options) *Birdeye {
	return &Birdeye{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		fetch:   newFetcher("birdeye", opts),
	}
}

// Resolve implements Resolver.
func (b *Birdeye) Resolve(ctx context.Context, token string) TokenInfo {
	endpoint := fmt.Sprintf("%s/token_metadata?address=%s", b.baseURL, url.QueryEscape(token))
	header := http.Header{}
	header.Set("X-API-KEY", b.apiKey)

	var resp birdeyeResponse
	if err := b.fetch.getJSON(ctx, endpoint, header, &resp); err != nil {
		b.fetch.logger.WarnContext(ctx, "token metadata lookup failed",
			"provider", b.fetch.provider,
			"token", token,
			"error", err,
		)
		return UnknownToken(token)
	}
	if resp.Data == nil {
		return UnknownToken(token)
	}

	return newTokenInfo(token, resp.Data.Name, resp.Data.Symbol, resp.Data.MarketCap)
}
