// Package buys turns raw transaction detail into qualifying buy records.
package buys

import (
	"math/big"

	"github.com/brojonat/cobuy/service/solana"
	"github.com/shopspring/decimal"
)

// solDecimals is the power-of-ten scale between lamports and SOL.
const solDecimals = 9

// spentPrecision is the number of decimal places a recorded buy keeps.
const spentPrecision = 3

// Record is one qualifying buy of a token by a watched wallet.
type Record struct {
	WalletLabel string
	TokenID     string
	SolSpent    decimal.Decimal
}

// Outcome names the result of classifying one transaction.
type Outcome string

const (
	OutcomeBuy             Outcome = "buy"
	OutcomeBelowMinimum    Outcome = "below_minimum"
	OutcomeNoTokenTransfer Outcome = "no_token_transfer"
	OutcomeMissingMint     Outcome = "missing_mint"
)

// Classifier decides whether a transaction is a qualifying buy.
type Classifier struct {
	minBuy decimal.Decimal
}

// NewClassifier creates a Classifier rejecting buys that spend less than minBuySOL.
func NewClassifier(minBuySOL decimal.Decimal) *Classifier {
	return &Classifier{minBuy: minBuySOL}
}

// Classify inspects one transaction. A nil Record means the transaction does
// not qualify; partial or missing data is never an error.
//
// Only the first post-transaction token balance is attributed, so a
// transaction moving several tokens counts as a buy of the first one listed.
func (c *Classifier) Classify(walletLabel string, detail *solana.TransactionDetail) (*Record, Outcome) {
	spent := SpentSOL(detail)
	if spent.LessThan(c.minBuy) {
		return nil, OutcomeBelowMinimum
	}

	if len(detail.PostTokenBalances) == 0 {
		return nil, OutcomeNoTokenTransfer
	}

	mint := detail.PostTokenBalances[0].Mint
	if mint == "" {
		return nil, OutcomeMissingMint
	}

	return &Record{
		WalletLabel: walletLabel,
		TokenID:     mint,
		SolSpent:    spent.Round(spentPrecision),
	}, OutcomeBuy
}

// SpentSOL is the drop in the first native balance, in SOL. A missing
// balance array counts as zero; a balance increase yields a negative value.
func SpentSOL(detail *solana.TransactionDetail) decimal.Decimal {
	if detail == nil {
		return decimal.Zero
	}
	pre := firstLamports(detail.PreBalances)
	post := firstLamports(detail.PostBalances)
	delta := new(big.Int).Sub(pre, post)
	return decimal.NewFromBigInt(delta, -solDecimals)
}

func firstLamports(balances []uint64) *big.Int {
	if len(balances) == 0 {
		return new(big.Int)
	}
	return new(big.Int).SetUint64(balances[0])
}
