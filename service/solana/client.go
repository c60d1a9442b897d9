package solana

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/brojonat/cobuy/service/metrics"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// RPCClient is an interface for the Solana RPC operations we need.
// This allows us to mock the RPC layer in tests without hitting real Solana nodes.
type RPCClient interface {
	GetSignaturesForAddress(
		ctx context.Context,
		address solana.PublicKey,
		opts *rpc.GetSignaturesForAddressOpts,
	) ([]*rpc.TransactionSignature, error)

	GetTransaction(
		ctx context.Context,
		signature solana.Signature,
		opts *rpc.GetTransactionOpts,
	) (*rpc.GetTransactionResult, error)
}

// Client is the activity source for the monitor: recent signatures per wallet
// and balance detail per signature. It never retries; a failed call is
// reported to the caller, which decides whether to skip the unit of work.
type Client struct {
	rpc      RPCClient
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	endpoint string // RPC endpoint identifier for metrics (e.g., "mainnet", rpc host)
}

// NewClient creates a new Solana client.
// Every outbound call is bounded by timeout; zero disables the bound.
// If metrics is nil, no metrics will be recorded.
func NewClient(rpcClient RPCClient, endpoint string, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *Client {
	return &Client{
		rpc:      rpcClient,
		timeout:  timeout,
		logger:   logger,
		metrics:  m,
		endpoint: endpoint,
	}
}

// GetRecentSignatures returns up to limit of the newest signatures touching address,
// newest first.
func (c *Client) GetRecentSignatures(ctx context.Context, address string, limit int) ([]Signature, error) {
	wallet, err := parseAddress(address)
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	opts := &rpc.GetSignaturesForAddressOpts{
		Limit: &limit,
	}

	start := time.Now()
	sigs, err := c.rpc.GetSignaturesForAddress(ctx, wallet, opts)
	c.recordCall("GetSignaturesForAddress", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.RecordRPCSignaturesPerCall(c.endpoint, float64(len(sigs)))
	}

	out := make([]Signature, 0, len(sigs))
	for _, sig := range sigs {
		if sig == nil {
			continue
		}
		out = append(out, signatureToDomain(sig))
	}

	c.logger.DebugContext(ctx, "fetched transaction signatures",
		"wallet", address,
		"count", len(out),
	)

	return out, nil
}

// GetTransactionDetail fetches the balance detail for one signature.
// Returns ErrTransactionNotFound when the node has no such transaction.
func (c *Client) GetTransactionDetail(ctx context.Context, signature string) (*TransactionDetail, error) {
	sig, err := parseSignature(signature)
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	// Versioned transactions are rejected unless a max version is declared.
	maxVersion := uint64(0)
	opts := &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		MaxSupportedTransactionVersion: &maxVersion,
	}

	start := time.Now()
	result, err := c.rpc.GetTransaction(ctx, sig, opts)
	c.recordCall("GetTransaction", err, time.Since(start))
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	return detailFromResult(signature, result)
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) recordCall(method string, err error, d time.Duration) {
	if c.metrics == nil {
		return
	}
	status := "success"
	switch {
	case err == nil:
	case errors.Is(err, rpc.ErrNotFound):
		status = "not_found"
	case errors.Is(err, context.DeadlineExceeded):
		status = "timeout"
	default:
		status = "error"
	}
	c.metrics.RecordRPCCall(method, status, c.endpoint, d.Seconds())
}
