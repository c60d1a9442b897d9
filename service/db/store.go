package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brojonat/cobuy/service/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists signal records in Postgres.
type Store struct {
	pool    *pgxpool.Pool
	metrics *metrics.Metrics
}

// NewStore creates a new Store with the given database connection pool.
// If m is nil, no metrics will be recorded.
func NewStore(pool *pgxpool.Pool, m *metrics.Metrics) *Store {
	return &Store{pool: pool, metrics: m}
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Signal is a persisted record of one fired co-buy signal. MarketCap is zero
// when the market cap was unavailable at signal time.
type Signal struct {
	ID           int64
	TokenAddress string
	TokenName    string
	TokenSymbol  string
	MarketCap    float64
	WalletCount  int
	Timestamp    time.Time
	CreatedAt    time.Time
}

func (s *Signal) validate() error {
	var problems []string
	if strings.TrimSpace(s.TokenAddress) == "" {
		problems = append(problems, "token address is required")
	}
	if s.MarketCap < 0 {
		problems = append(problems, "market cap must not be negative")
	}
	if s.Timestamp.IsZero() {
		problems = append(problems, "timestamp is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

const signalColumns = `id, token_address, token_name, token_symbol, market_cap_at_signal, wallet_count, signaled_at, created_at`

// AppendSignal inserts sig and fills in its ID and CreatedAt.
func (s *Store) AppendSignal(ctx context.Context, sig *Signal) (err error) {
	if err := sig.validate(); err != nil {
		return err
	}
	defer s.observe("insert", time.Now(), &err)

	query := `
		INSERT INTO signals (
			token_address, token_name, token_symbol, market_cap_at_signal, wallet_count, signaled_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	row := s.pool.QueryRow(ctx, query,
		sig.TokenAddress,
		sig.TokenName,
		sig.TokenSymbol,
		sig.MarketCap,
		sig.WalletCount,
		sig.Timestamp.UTC(),
	)
	if err := row.Scan(&sig.ID, &sig.CreatedAt); err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

// GetSignal retrieves one signal by ID. Returns ErrNotFound if it does not exist.
func (s *Store) GetSignal(ctx context.Context, id int64) (_ *Signal, err error) {
	defer s.observe("select", time.Now(), &err)

	row := s.pool.QueryRow(ctx, `SELECT `+signalColumns+` FROM signals WHERE id = $1`, id)
	sig, err := scanSignal(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get signal: %w", err)
	}
	return sig, nil
}

// ListSignals returns signals newest first. A limit of zero or less returns
// every record.
func (s *Store) ListSignals(ctx context.Context, limit int) (_ []*Signal, err error) {
	defer s.observe("select", time.Now(), &err)

	query := `SELECT ` + signalColumns + ` FROM signals ORDER BY signaled_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		if isUndefinedTableError(err) {
			return nil, fmt.Errorf("list signals: schema missing, run migrations: %w", err)
		}
		return nil, fmt.Errorf("list signals: %w", err)
	}
	defer rows.Close()

	var out []*Signal
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signals: %w", err)
	}
	return out, nil
}

// CountSignals returns the number of persisted signals.
func (s *Store) CountSignals(ctx context.Context) (n int64, err error) {
	defer s.observe("count", time.Now(), &err)

	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM signals`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count signals: %w", err)
	}
	return n, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) observe(op string, start time.Time, err *error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordDBQuery(op, "signals", time.Since(start).Seconds(), *err)
}

func scanSignal(row pgx.Row) (*Signal, error) {
	var sig Signal
	if err := row.Scan(
		&sig.ID,
		&sig.TokenAddress,
		&sig.TokenName,
		&sig.TokenSymbol,
		&sig.MarketCap,
		&sig.WalletCount,
		&sig.Timestamp,
		&sig.CreatedAt,
	); err != nil {
		return nil, err
	}
	sig.Timestamp = sig.Timestamp.UTC()
	sig.CreatedAt = sig.CreatedAt.UTC()
	return &sig, nil
}
