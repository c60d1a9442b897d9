package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMint = "So11111111111111111111111111111111111111112"

func TestFormatMarketCap(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{100000, "100,000"},
		{1234567, "1,234,567"},
		{1234567.6, "1,234,568"},
		{-45000, "-45,000"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMarketCap(tt.in))
		})
	}
}

func TestUnknownToken(t *testing.T) {
	info := UnknownToken("MINT")
	assert.Equal(t, "MINT", info.Address)
	assert.Equal(t, "Unknown", info.Name)
	assert.Equal(t, "???", info.Symbol)
	assert.Equal(t, "N/A", info.Display)
	assert.False(t, info.Available)
}

func TestDexScreener_Resolve(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"chainId":"solana","baseToken":{"address":"other","name":"Other","symbol":"OTH"},"liquidity":{"usd":9e9},"marketCap":1},
			{"chainId":"solana","baseToken":{"address":"` + testMint + `","name":"Thin","symbol":"THN"},"liquidity":{"usd":10},"marketCap":5},
			{"chainId":"solana","baseToken":{"address":"` + testMint + `","name":"Wrapped SOL","symbol":"SOL"},"liquidity":{"usd":5000},"marketCap":1234567.4}
		]`))
	}))
	defer srv.Close()

	info := NewDexScreener(srv.URL, Options{Timeout: time.Second}).Resolve(context.Background(), testMint)

	assert.Equal(t, "/tokens/v1/solana/"+testMint, gotPath)
	assert.Equal(t, "Wrapped SOL", info.Name)
	assert.Equal(t, "SOL", info.Symbol)
	assert.True(t, info.Available)
	assert.InDelta(t, 1234567.4, info.MarketCap, 0.001)
	assert.Equal(t, "1,234,567", info.Display)
}

func TestDexScreener_FallsBackToFDV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"baseToken":{"address":"` + testMint + `","name":"N","symbol":"S"},"fdv":2500}]`))
	}))
	defer srv.Close()

	info := NewDexScreener(srv.URL, Options{}).Resolve(context.Background(), testMint)
	assert.True(t, info.Available)
	assert.Equal(t, 2500.0, info.MarketCap)
}

func TestDexScreener_NoPairs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	info := NewDexScreener(srv.URL, Options{}).Resolve(context.Background(), testMint)
	assert.Equal(t, UnknownToken(testMint), info)
}

func TestDexScreener_ErrorsDegrade(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{not json`))
		}},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			info := NewDexScreener(srv.URL, Options{Timeout: 50 * time.Millisecond}).Resolve(context.Background(), testMint)
			assert.Equal(t, UnknownToken(testMint), info)
		})
	}
}

func TestBirdeye_Resolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token_metadata", r.URL.Path)
		assert.Equal(t, testMint, r.URL.Query().Get("address"))
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))
		w.Write([]byte(`{"success":true,"data":{"name":"Bonk","symbol":"BONK","market_cap":450000}}`))
	}))
	defer srv.Close()

	info := NewBirdeye(srv.URL+"/", "secret", Options{}).Resolve(context.Background(), testMint)
	assert.Equal(t, "Bonk", info.Name)
	assert.Equal(t, "BONK", info.Symbol)
	assert.True(t, info.Available)
	assert.Equal(t, 450000.0, info.MarketCap)
	assert.Equal(t, "450,000", info.Display)
}

func TestBirdeye_MissingFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"symbol":"X","market_cap":null}}`))
	}))
	defer srv.Close()

	info := NewBirdeye(srv.URL, "k", Options{}).Resolve(context.Background(), testMint)
	assert.Equal(t, "Unknown", info.Name)
	assert.Equal(t, "X", info.Symbol)
	assert.False(t, info.Available)
	assert.Equal(t, "N/A", info.Display)
}

func TestBirdeye_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	info := NewBirdeye(srv.URL, "bad", Options{}).Resolve(context.Background(), testMint)
	assert.Equal(t, UnknownToken(testMint), info)
}

type countingResolver struct {
	calls atomic.Int32
	info  TokenInfo
}

func (c *countingResolver) Resolve(ctx context.Context, token string) TokenInfo {
	c.calls.Add(1)
	return c.info
}

func TestCached(t *testing.T) {
	inner := &countingResolver{info: TokenInfo{Address: "T", Available: true, MarketCap: 10}}
	cached := NewCached(inner, time.Minute)

	first := cached.Resolve(context.Background(), "T")
	second := cached.Resolve(context.Background(), "T")

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestCached_SkipsUnavailable(t *testing.T) {
	inner := &countingResolver{info: UnknownToken("T")}
	cached := NewCached(inner, time.Minute)

	cached.Resolve(context.Background(), "T")
	cached.Resolve(context.Background(), "T")

	require.Equal(t, int32(2), inner.calls.Load())
}
