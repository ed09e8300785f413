package txn

import (
	"github.com/mintgate-io/mintgate/pkg/types"
)

// NewAccountCreate builds an account-creation transaction for a fresh
// public key, funded with the given opening balance.
func NewAccountCreate(newKey []byte, initial types.Amount, maxFee types.Amount) *Transaction {
	return &Transaction{
		Kind:   KindAccountCreate,
		Nonce:  newNonce(),
		MaxFee: maxFee,
		AccountCreate: &AccountCreateBody{
			PublicKey:      newKey,
			InitialBalance: initial,
		},
	}
}

// NewTokenCreate builds a token-class creation transaction.
func NewTokenCreate(body TokenCreateBody, maxFee types.Amount) *Transaction {
	return &Transaction{
		Kind:        KindTokenCreate,
		Nonce:       newNonce(),
		MaxFee:      maxFee,
		TokenCreate: &body,
	}
}

// NewTokenMint builds a mint transaction for one instance.
func NewTokenMint(token types.TokenID, metadata []byte, maxFee types.Amount) *Transaction {
	return &Transaction{
		Kind:      KindTokenMint,
		Nonce:     newNonce(),
		MaxFee:    maxFee,
		TokenMint: &TokenMintBody{Token: token, Metadata: metadata},
	}
}

// NewTokenBurn builds a burn transaction for one serial.
func NewTokenBurn(token types.TokenID, serial int64, maxFee types.Amount) *Transaction {
	return &Transaction{
		Kind:      KindTokenBurn,
		Nonce:     newNonce(),
		MaxFee:    maxFee,
		TokenBurn: &TokenBurnBody{Token: token, Serial: serial},
	}
}

// NewTokenAssociate builds an association opt-in transaction.
func NewTokenAssociate(account types.AccountID, token types.TokenID, maxFee types.Amount) *Transaction {
	return &Transaction{
		Kind:           KindTokenAssociate,
		Nonce:          newNonce(),
		MaxFee:         maxFee,
		TokenAssociate: &TokenAssociateBody{Account: account, Token: token},
	}
}

// TransferBuilder constructs multi-leg transfer transactions
// incrementally.
type TransferBuilder struct {
	body   TransferBody
	maxFee types.Amount
}

// NewTransfer creates a transfer builder.
func NewTransfer(maxFee types.Amount) *TransferBuilder {
	return &TransferBuilder{maxFee: maxFee}
}

// AddNftTransfer adds a token-instance ownership leg.
func (b *TransferBuilder) AddNftTransfer(nft types.NftID, from, to types.AccountID) *TransferBuilder {
	b.body.NftTransfers = append(b.body.NftTransfers, NftTransfer{Nft: nft, From: from, To: to})
	return b
}

// AddCoinTransfer adds a currency leg. Negative amounts debit.
func (b *TransferBuilder) AddCoinTransfer(account types.AccountID, amount types.Amount) *TransferBuilder {
	b.body.CoinTransfers = append(b.body.CoinTransfers, CoinTransfer{Account: account, Amount: amount})
	return b
}

// Build returns the transfer transaction.
// Does NOT validate; conservation is checked by NewIntent.
func (b *TransferBuilder) Build() *Transaction {
	return &Transaction{
		Kind:     KindTransfer,
		Nonce:    newNonce(),
		MaxFee:   b.maxFee,
		Transfer: &b.body,
	}
}
