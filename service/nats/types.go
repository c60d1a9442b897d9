package nats

import (
	"time"

	"github.com/brojonat/cobuy/service/signal"
)

// BuyerEvent is one wallet's contribution to a signal.
type BuyerEvent struct {
	Label    string `json:"label"`
	SolSpent string `json:"sol_spent"`
}

// SignalEvent represents a fired co-buy signal published to NATS.
// This is published to the subject "signals.{token_address}" in JetStream.
type SignalEvent struct {
	TokenAddress string `json:"token_address"`
	TokenName    string `json:"token_name"`
	TokenSymbol  string `json:"token_symbol"`

	// MarketCap is nil when the market cap was unavailable.
	MarketCap        *float64 `json:"market_cap"`
	MarketCapDisplay string   `json:"market_cap_display"`

	WalletCount int          `json:"wallet_count"`
	Buyers      []BuyerEvent `json:"buyers"`

	SignaledAt  time.Time `json:"signaled_at"`
	PublishedAt time.Time `json:"published_at"`
}

// FromAlert converts an alert to a SignalEvent for publishing.
func FromAlert(a signal.Alert) *SignalEvent {
	event := &SignalEvent{
		TokenAddress:     a.Token.Address,
		TokenName:        a.Token.Name,
		TokenSymbol:      a.Token.Symbol,
		MarketCapDisplay: a.Token.Display,
		WalletCount:      a.WalletCount(),
		Buyers:           make([]BuyerEvent, 0, len(a.Buyers)),
		SignaledAt:       a.FiredAt,
		PublishedAt:      time.Now().UTC(),
	}

	if a.Token.Available {
		mc := a.Token.MarketCap
		event.MarketCap = &mc
	}

	for _, b := range a.Buyers {
		event.Buyers = append(event.Buyers, BuyerEvent{
			Label:    b.Label,
			SolSpent: b.SolSpent.String(),
		})
	}

	return event
}

// Subject returns the subject an event for token is published on.
func Subject(token string) string {
	return SubjectPrefix + token
}
