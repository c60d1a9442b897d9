package buys

import (
	"testing"

	"github.com/brojonat/cobuy/service/solana"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detail(pre, post uint64, mints ...string) *solana.TransactionDetail {
	d := &solana.TransactionDetail{
		Signature:    "sig",
		PreBalances:  []uint64{pre, 7},
		PostBalances: []uint64{post, 7},
	}
	for i, m := range mints {
		d.PostTokenBalances = append(d.PostTokenBalances, solana.TokenBalance{AccountIndex: uint16(i + 1), Mint: m})
	}
	return d
}

func TestClassify_QualifyingBuy(t *testing.T) {
	c := NewClassifier(decimal.RequireFromString("0.5"))

	rec, outcome := c.Classify("W1", detail(5_000_000_000, 3_800_000_000, "MINT1"))
	require.NotNil(t, rec)
	assert.Equal(t, OutcomeBuy, outcome)
	assert.Equal(t, "W1", rec.WalletLabel)
	assert.Equal(t, "MINT1", rec.TokenID)
	assert.True(t, rec.SolSpent.Equal(decimal.RequireFromString("1.2")), "got %s", rec.SolSpent)
}

func TestClassify_BelowMinimum(t *testing.T) {
	c := NewClassifier(decimal.RequireFromString("0.5"))

	rec, outcome := c.Classify("W1", detail(1_000_000_000, 800_000_000, "MINT2"))
	assert.Nil(t, rec)
	assert.Equal(t, OutcomeBelowMinimum, outcome)
}

func TestClassify_ExactlyMinimumQualifies(t *testing.T) {
	c := NewClassifier(decimal.RequireFromString("0.5"))

	rec, outcome := c.Classify("W1", detail(1_000_000_000, 500_000_000, "MINT"))
	require.NotNil(t, rec)
	assert.Equal(t, OutcomeBuy, outcome)
	assert.Equal(t, "0.5", rec.SolSpent.String())
}

func TestClassify_BalanceIncreaseRejected(t *testing.T) {
	c := NewClassifier(decimal.Zero)

	rec, outcome := c.Classify("W1", detail(1_000_000_000, 3_000_000_000, "MINT"))
	assert.Nil(t, rec)
	assert.Equal(t, OutcomeBelowMinimum, outcome)
}

func TestClassify_NoTokenBalances(t *testing.T) {
	c := NewClassifier(decimal.RequireFromString("0.5"))

	rec, outcome := c.Classify("W1", detail(5_000_000_000, 1_000_000_000))
	assert.Nil(t, rec)
	assert.Equal(t, OutcomeNoTokenTransfer, outcome)
}

func TestClassify_MissingMint(t *testing.T) {
	c := NewClassifier(decimal.RequireFromString("0.5"))

	rec, outcome := c.Classify("W1", detail(5_000_000_000, 1_000_000_000, ""))
	assert.Nil(t, rec)
	assert.Equal(t, OutcomeMissingMint, outcome)
}

func TestClassify_FirstMintWins(t *testing.T) {
	c := NewClassifier(decimal.RequireFromString("0.5"))

	rec, _ := c.Classify("W1", detail(5_000_000_000, 1_000_000_000, "FIRST", "SECOND"))
	require.NotNil(t, rec)
	assert.Equal(t, "FIRST", rec.TokenID)
}

func TestClassify_RoundsToThreePlaces(t *testing.T) {
	c := NewClassifier(decimal.RequireFromString("0.5"))

	rec, _ := c.Classify("W1", detail(2_000_000_000, 765_432_100, "MINT"))
	require.NotNil(t, rec)
	assert.Equal(t, "1.235", rec.SolSpent.String())
}

func TestSpentSOL_MissingArrays(t *testing.T) {
	tests := []struct {
		name   string
		detail *solana.TransactionDetail
		want   string
	}{
		{"nil detail", nil, "0"},
		{"no balances", &solana.TransactionDetail{}, "0"},
		{"missing post", &solana.TransactionDetail{PreBalances: []uint64{2_500_000_000}}, "2.5"},
		{"missing pre", &solana.TransactionDetail{PostBalances: []uint64{1_000_000_000}}, "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SpentSOL(tt.detail).String())
		})
	}
}

func TestClassify_EmptyDetailDoesNotQualify(t *testing.T) {
	c := NewClassifier(decimal.RequireFromString("0.5"))

	rec, outcome := c.Classify("W1", &solana.TransactionDetail{})
	assert.Nil(t, rec)
	assert.Equal(t, OutcomeBelowMinimum, outcome)
}
