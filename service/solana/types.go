package solana

import (
	"errors"
	"time"
)

// LamportsPerSOL is the native-unit scale for SOL balances.
const LamportsPerSOL = 1_000_000_000

// ErrTransactionNotFound is returned when the RPC node has no record of a signature
// (pruned, not yet confirmed, or never existed).
var ErrTransactionNotFound = errors.New("transaction not found")

// Signature is one entry of a wallet's recent activity.
// This is our domain model, independent of the RPC response format.
type Signature struct {
	Signature string
	Slot      uint64
	BlockTime time.Time
	Err       *string // nil if the transaction succeeded
}

// TransactionDetail carries the balance deltas the buy classifier needs.
// Slices keep RPC ordering: index 0 of the native balances is the fee payer,
// which for wallet-initiated swaps is the polled wallet itself.
type TransactionDetail struct {
	Signature         string
	Slot              uint64
	BlockTime         time.Time
	PreBalances       []uint64
	PostBalances      []uint64
	PostTokenBalances []TokenBalance
}

// TokenBalance is one post-transaction SPL token balance entry.
type TokenBalance struct {
	AccountIndex uint16
	Mint         string // empty when the node omitted it
	Owner        string // empty when the node omitted it
	Amount       string // raw integer amount as reported by the node
}
