// Package watchlist loads the static set of wallets the monitor polls.
package watchlist

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Wallet is one watched wallet. Immutable once loaded.
type Wallet struct {
	Address string `json:"address"`
	Label   string `json:"label"`
}

// entry is the on-disk shape. Older watchlists carry the label under "name".
type entry struct {
	Address string `json:"address"`
	Label   string `json:"label"`
	Name    string `json:"name"`
}

// Load reads and validates a JSON watchlist file. Any problem with the file
// is returned as an error; callers treat it as fatal at startup.
func Load(path string) ([]Wallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watchlist %s: %w", path, err)
	}
	wallets, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("watchlist %s: %w", path, err)
	}
	return wallets, nil
}

// Parse validates watchlist JSON. Labels must be unique because buys are
// aggregated per label.
func Parse(data []byte) ([]Wallet, error) {
	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no wallets defined")
	}

	var errs []error
	wallets := make([]Wallet, 0, len(entries))
	addresses := make(map[string]int, len(entries))
	labels := make(map[string]int, len(entries))

	for i, e := range entries {
		address := strings.TrimSpace(e.Address)
		label := strings.TrimSpace(e.Label)
		if label == "" {
			label = strings.TrimSpace(e.Name)
		}

		if address == "" {
			errs = append(errs, fmt.Errorf("entry %d: address is required", i))
			continue
		}
		if _, err := solana.PublicKeyFromBase58(address); err != nil {
			errs = append(errs, fmt.Errorf("entry %d: invalid address %q: %w", i, address, err))
			continue
		}
		if label == "" {
			errs = append(errs, fmt.Errorf("entry %d: label is required", i))
			continue
		}
		if prev, ok := addresses[address]; ok {
			errs = append(errs, fmt.Errorf("entry %d: address %s duplicates entry %d", i, address, prev))
			continue
		}
		if prev, ok := labels[label]; ok {
			errs = append(errs, fmt.Errorf("entry %d: label %q duplicates entry %d", i, label, prev))
			continue
		}

		addresses[address] = i
		labels[label] = i
		wallets = append(wallets, Wallet{Address: address, Label: label})
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid watchlist: %v", errs)
	}
	return wallets, nil
}
