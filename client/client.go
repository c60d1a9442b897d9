package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Signal is a persisted co-buy signal as returned by the server.
type Signal struct {
	ID                int64     `json:"id"`
	TokenAddress      string    `json:"token_address"`
	TokenName         string    `json:"token_name"`
	TokenSymbol       string    `json:"token_symbol"`
	MarketCapAtSignal float64   `json:"market_cap_at_signal"`
	WalletCount       int       `json:"wallet_count"`
	Timestamp         time.Time `json:"timestamp"`
}

// RankingEntry is one ranked signal.
type RankingEntry struct {
	Rank              int       `json:"rank"`
	TokenAddress      string    `json:"token_address"`
	TokenName         string    `json:"token_name"`
	TokenSymbol       string    `json:"token_symbol"`
	MarketCapAtSignal float64   `json:"market_cap_at_signal"`
	CurrentMarketCap  float64   `json:"current_market_cap"`
	Multiple          float64   `json:"multiple"`
	SignaledAt        time.Time `json:"signaled_at"`
}

// Ranking is the ranking report. When Empty is true, Message explains why.
type Ranking struct {
	Entries     []RankingEntry `json:"entries"`
	Considered  int            `json:"considered"`
	Skipped     int            `json:"skipped"`
	GeneratedAt time.Time      `json:"generated_at"`
	Empty       bool           `json:"empty"`
	Message     string         `json:"message,omitempty"`
}

// Client is the HTTP client for the cobuy service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new service client.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Ranking fetches the top k signals by growth multiple. A k of zero uses the
// server default.
func (c *Client) Ranking(ctx context.Context, k int) (*Ranking, error) {
	var out Ranking
	if err := c.getJSON(ctx, "/api/v1/ranking", limitQuery(k), &out); err != nil {
		return nil, err
	}
	c.logger.Debug("ranking fetched", "entries", len(out.Entries))
	return &out, nil
}

// RankingText fetches the ranking report rendered as plain text.
func (c *Client) RankingText(ctx context.Context, k int) (string, error) {
	q := limitQuery(k)
	q.Set("format", "text")

	resp, err := c.get(ctx, "/api/v1/ranking", q)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.parseErrorResponse(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return strings.TrimRight(string(body), "\n"), nil
}

// ListSignals returns up to limit persisted signals, newest first. A limit
// of zero uses the server default.
func (c *Client) ListSignals(ctx context.Context, limit int) ([]*Signal, error) {
	var out struct {
		Signals []*Signal `json:"signals"`
	}
	if err := c.getJSON(ctx, "/api/v1/signals", limitQuery(limit), &out); err != nil {
		return nil, err
	}
	c.logger.Debug("signals listed", "count", len(out.Signals))
	return out.Signals, nil
}

// Health returns nil when the server reports healthy.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.get(ctx, "/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}
	return nil
}

func limitQuery(n int) url.Values {
	q := url.Values{}
	if n > 0 {
		q.Set("limit", strconv.Itoa(n))
	}
	return q
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	resp, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseErrorResponse attempts to parse an error response from the server.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errResp struct {
		Error string `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return fmt.Errorf("request failed: %s", errResp.Error)
}
