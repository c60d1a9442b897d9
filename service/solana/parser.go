package solana

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// signatureToDomain converts an RPC TransactionSignature to our domain Signature.
func signatureToDomain(sig *rpc.TransactionSignature) Signature {
	out := Signature{
		Signature: sig.Signature.String(),
		Slot:      sig.Slot,
	}

	if sig.BlockTime != nil {
		out.BlockTime = sig.BlockTime.Time()
	}

	if sig.Err != nil {
		errMsg := fmt.Sprintf("transaction failed: %v", sig.Err)
		out.Err = &errMsg
	}

	return out
}

// detailFromResult extracts balance data from a GetTransaction result.
// A result without meta yields a detail with empty balance slices; the
// classifier treats that as "does not qualify" rather than an error.
func detailFromResult(signature string, result *rpc.GetTransactionResult) (*TransactionDetail, error) {
	if result == nil {
		return nil, ErrTransactionNotFound
	}

	detail := &TransactionDetail{
		Signature: signature,
		Slot:      result.Slot,
	}
	if result.BlockTime != nil {
		detail.BlockTime = result.BlockTime.Time()
	}

	meta := result.Meta
	if meta == nil {
		return detail, nil
	}

	detail.PreBalances = meta.PreBalances
	detail.PostBalances = meta.PostBalances

	detail.PostTokenBalances = make([]TokenBalance, 0, len(meta.PostTokenBalances))
	for _, tb := range meta.PostTokenBalances {
		detail.PostTokenBalances = append(detail.PostTokenBalances, tokenBalanceToDomain(tb))
	}

	return detail, nil
}

func tokenBalanceToDomain(tb rpc.TokenBalance) TokenBalance {
	out := TokenBalance{AccountIndex: tb.AccountIndex}

	// A zero mint means the field was absent from the response.
	if !tb.Mint.IsZero() {
		out.Mint = tb.Mint.String()
	}
	if tb.Owner != nil && !tb.Owner.IsZero() {
		out.Owner = tb.Owner.String()
	}
	if tb.UiTokenAmount != nil {
		out.Amount = tb.UiTokenAmount.Amount
	}

	return out
}

// parseAddress validates a base58 wallet address.
func parseAddress(address string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid wallet address %q: %w", address, err)
	}
	return pk, nil
}

// parseSignature validates a base58 transaction signature.
func parseSignature(signature string) (solana.Signature, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("invalid signature %q: %w", signature, err)
	}
	return sig, nil
}
