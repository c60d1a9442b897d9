package solana

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetailFromResult_NilResult(t *testing.T) {
	_, err := detailFromResult("sig", nil)
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestDetailFromResult_NoMeta(t *testing.T) {
	detail, err := detailFromResult("sig", &rpc.GetTransactionResult{Slot: 5})
	require.NoError(t, err)

	assert.Equal(t, uint64(5), detail.Slot)
	assert.Empty(t, detail.PreBalances)
	assert.Empty(t, detail.PostBalances)
	assert.Empty(t, detail.PostTokenBalances)
	assert.True(t, detail.BlockTime.IsZero())
}

func TestDetailFromResult_MissingMint(t *testing.T) {
	result := &rpc.GetTransactionResult{
		Meta: &rpc.TransactionMeta{
			PostTokenBalances: []rpc.TokenBalance{
				{AccountIndex: 1}, // mint omitted by the node
			},
		},
	}

	detail, err := detailFromResult("sig", result)
	require.NoError(t, err)
	require.Len(t, detail.PostTokenBalances, 1)
	assert.Empty(t, detail.PostTokenBalances[0].Mint)
	assert.Empty(t, detail.PostTokenBalances[0].Owner)
	assert.Empty(t, detail.PostTokenBalances[0].Amount)
}

func TestSignatureToDomain(t *testing.T) {
	sig := testSignature(3)
	now := solana.UnixTimeSeconds(1700000000)

	out := signatureToDomain(&rpc.TransactionSignature{
		Signature: sig,
		Slot:      12345,
		BlockTime: &now,
	})

	assert.Equal(t, sig.String(), out.Signature)
	assert.Equal(t, uint64(12345), out.Slot)
	assert.Equal(t, now.Time(), out.BlockTime)
	assert.Nil(t, out.Err)
}

func TestSignatureToDomain_NoBlockTime(t *testing.T) {
	out := signatureToDomain(&rpc.TransactionSignature{Signature: testSignature(4)})
	assert.True(t, out.BlockTime.IsZero())
}
