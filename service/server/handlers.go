package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brojonat/cobuy/service/db"
	"github.com/brojonat/cobuy/service/ranking"
)

const (
	defaultSignalsLimit = 50
	maxSignalsLimit     = 1000
	maxRankingLimit     = 100
)

// SignalLister reads persisted signals, newest first.
type SignalLister interface {
	ListSignals(ctx context.Context, limit int) ([]*db.Signal, error)
}

// RankingReporter builds ranking reports.
type RankingReporter interface {
	Report(ctx context.Context, k int) (*ranking.Report, error)
}

// handleRanking returns the ranking report.
// GET /api/v1/ranking?limit=K&format=json|text
func handleRanking(reporter RankingReporter, defaultK int, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		k, err := parseLimit(query.Get("limit"), defaultK, maxRankingLimit)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		format := query.Get("format")
		if format == "" {
			format = "json"
		}
		if format != "json" && format != "text" {
			writeError(w, "format must be 'json' or 'text'", http.StatusBadRequest)
			return
		}

		report, err := reporter.Report(r.Context(), k)
		if err != nil {
			logger.ErrorContext(r.Context(), "failed to build ranking report", "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		logger.DebugContext(r.Context(), "ranking report served",
			"entries", len(report.Entries),
			"considered", report.Considered,
		)

		if format == "text" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, report.Text())
			return
		}

		writeJSON(w, rankingResponse{
			Report:  report,
			Empty:   report.Empty(),
			Message: report.EmptyMessage(),
		}, http.StatusOK)
	})
}

type rankingResponse struct {
	*ranking.Report
	Empty   bool   `json:"empty"`
	Message string `json:"message,omitempty"`
}

// handleListSignals lists persisted signals, newest first.
// GET /api/v1/signals?limit=N
func handleListSignals(store SignalLister, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, err := parseLimit(r.URL.Query().Get("limit"), defaultSignalsLimit, maxSignalsLimit)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		signals, err := store.ListSignals(r.Context(), limit)
		if err != nil {
			logger.ErrorContext(r.Context(), "failed to list signals", "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		resp := make([]signalResponse, len(signals))
		for i := range signals {
			resp[i] = signalToResponse(signals[i])
		}

		writeJSON(w, map[string]interface{}{
			"signals": resp,
			"count":   len(resp),
			"limit":   limit,
		}, http.StatusOK)
	})
}

// signalResponse is the JSON response format for a signal.
type signalResponse struct {
	ID                int64     `json:"id"`
	TokenAddress      string    `json:"token_address"`
	TokenName         string    `json:"token_name"`
	TokenSymbol       string    `json:"token_symbol"`
	MarketCapAtSignal float64   `json:"market_cap_at_signal"`
	WalletCount       int       `json:"wallet_count"`
	Timestamp         time.Time `json:"timestamp"`
}

func signalToResponse(s *db.Signal) signalResponse {
	return signalResponse{
		ID:                s.ID,
		TokenAddress:      s.TokenAddress,
		TokenName:         s.TokenName,
		TokenSymbol:       s.TokenSymbol,
		MarketCapAtSignal: s.MarketCap,
		WalletCount:       s.WalletCount,
		Timestamp:         s.Timestamp.UTC(),
	}
}

// parseLimit reads an optional positive limit capped at max.
func parseLimit(raw string, def, max int) (int, error) {
	if raw == "" {
		return def, nil
	}
	var n int
	if _, err := fmt.Sscanf(raw, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid limit parameter: must be an integer")
	}
	if n < 1 {
		return 0, fmt.Errorf("limit must be at least 1")
	}
	if n > max {
		return 0, fmt.Errorf("limit cannot exceed %d", max)
	}
	return n, nil
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
