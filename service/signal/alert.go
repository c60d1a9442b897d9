// Package signal turns a fired aggregate into an alert, delivers it to every
// configured channel and persists the signal record.
package signal

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/brojonat/cobuy/service/aggregator"
	"github.com/brojonat/cobuy/service/metadata"
)

// DefaultLinkBase prefixes the token address in rendered alerts.
const DefaultLinkBase = "https://app.axiom.xyz/token/"

// Alert is a fired co-buy signal with its resolved token metadata.
type Alert struct {
	Token   metadata.TokenInfo
	Buyers  []aggregator.Buyer
	FiredAt time.Time
}

// NewAlert builds an Alert from a fired snapshot.
func NewAlert(snap aggregator.Snapshot, token metadata.TokenInfo, firedAt time.Time) Alert {
	return Alert{
		Token:   token,
		Buyers:  snap.Sorted(),
		FiredAt: firedAt.UTC(),
	}
}

// WalletCount is the number of distinct wallets behind the alert.
func (a Alert) WalletCount() int {
	return len(a.Buyers)
}

// Message is an Alert plus its rendered forms, handed to every Notifier.
type Message struct {
	Alert Alert
	HTML  string
	Text  string
}

// Render produces the HTML and plain-text forms of a.
func Render(a Alert, linkBase string) Message {
	return Message{
		Alert: a,
		HTML:  RenderHTML(a, linkBase),
		Text:  RenderText(a),
	}
}

// RenderHTML formats a for chat channels that accept a small HTML subset.
func RenderHTML(a Alert, linkBase string) string {
	if linkBase == "" {
		linkBase = DefaultLinkBase
	}
	esc := html.EscapeString

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%d Wallets Have Bought %s (%s)</b>\n", a.WalletCount(), esc(a.Token.Name), esc(a.Token.Symbol))
	fmt.Fprintf(&b, "<code>%s</code>\n", esc(a.Token.Address))
	fmt.Fprintf(&b, "<a href=\"%s%s\">Open on AXIOM</a>\n", esc(linkBase), esc(a.Token.Address))
	fmt.Fprintf(&b, "Market Cap: %s\n\n", esc(a.Token.Display))
	b.WriteString("<b>Buyers:</b>\n")
	for _, buyer := range a.Buyers {
		fmt.Fprintf(&b, "%s: %s SOL\n", esc(buyer.Label), buyer.SolSpent.String())
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderText formats a without markup.
func RenderText(a Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d Wallets Have Bought %s (%s)\n", a.WalletCount(), a.Token.Name, a.Token.Symbol)
	fmt.Fprintf(&b, "%s\n", a.Token.Address)
	fmt.Fprintf(&b, "Market Cap: %s\n\n", a.Token.Display)
	b.WriteString("Buyers:\n")
	for _, buyer := range a.Buyers {
		fmt.Fprintf(&b, "%s: %s SOL\n", buyer.Label, buyer.SolSpent.String())
	}
	return strings.TrimRight(b.String(), "\n")
}
