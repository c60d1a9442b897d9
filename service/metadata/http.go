package metadata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/brojonat/cobuy/service/metrics"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBodyBytes bounds how much of a provider response is read.
const maxBodyBytes = 1 << 20

// httpFetcher is the shared transport for provider clients: a rate limiter,
// a per-call timeout and metrics around one JSON GET.
type httpFetcher struct {
	provider   string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Options configures a provider client.
type Options struct {
	HTTPClient *http.Client
	// RPS is the sustained request rate; zero or less disables limiting.
	RPS     float64
	Timeout time.Duration
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

func newFetcher(provider string, opts Options) httpFetcher {
	f := httpFetcher{
		provider:   provider,
		httpClient: opts.HTTPClient,
		timeout:    opts.Timeout,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
	}
	if f.httpClient == nil {
		f.httpClient = http.DefaultClient
	}
	if f.logger == nil {
		f.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.RPS > 0 {
		burst := int(opts.RPS)
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	return f
}

// getJSON performs a GET and decodes a 200 response into v.
func (f httpFetcher) getJSON(ctx context.Context, url string, header http.Header, v any) (err error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if f.metrics != nil {
			status := "success"
			if err != nil {
				status = "error"
			}
			f.metrics.RecordMetadataLookup(f.provider, status, time.Since(start).Seconds())
		}
	}()

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, vals := range header {
		for _, val := range vals {
			req.Header.Add(k, val)
		}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d: %s", f.provider, resp.StatusCode, truncate(string(body), 200))
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", f.provider, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
