// Package ledger defines the gateway through which all network
// interaction happens, and the failure taxonomy every component
// surfaces. The ledger network itself is the system of record; this
// package never caches its state.
package ledger

import (
	"context"

	"github.com/mintgate-io/mintgate/pkg/txn"
	"github.com/mintgate-io/mintgate/pkg/types"
)

// TxResponse acknowledges a submitted transaction.
type TxResponse struct {
	TxID types.Hash `json:"tx_id"`
}

// Receipt is the network's durable confirmation of a transaction's
// final status. Created ids and minted serials are set when the
// operation produces them.
type Receipt struct {
	Status    string           `json:"status"`
	AccountID *types.AccountID `json:"account_id,omitempty"`
	TokenID   *types.TokenID   `json:"token_id,omitempty"`
	Serials   []int64          `json:"serials,omitempty"`
}

// TokenInfo describes a token class as the ledger sees it.
type TokenInfo struct {
	Token       types.TokenID     `json:"token"`
	Name        string            `json:"name"`
	Symbol      string            `json:"symbol"`
	Treasury    types.AccountID   `json:"treasury"`
	MaxSupply   int64             `json:"max_supply"`
	TotalSupply int64             `json:"total_supply"`
	CustomFees  []types.CustomFee `json:"custom_fees,omitempty"`
}

// Gateway submits signed transactions and queries to the ledger
// network. All calls are synchronous, blocking round-trips; failures
// surface as PrecheckError, ReceiptError or TimeoutError. The core
// never retries automatically.
type Gateway interface {
	// SubmitTransaction sends a fully signed transaction.
	SubmitTransaction(ctx context.Context, tx *txn.Transaction) (*TxResponse, error)

	// WaitReceipt blocks until the transaction reaches a terminal
	// status or the network window elapses. A non-success terminal
	// status is returned as a ReceiptError alongside the receipt.
	WaitReceipt(ctx context.Context, resp *TxResponse) (*Receipt, error)

	// AccountBalance returns the current currency balance.
	AccountBalance(ctx context.Context, id types.AccountID) (types.Amount, error)

	// TokenInfo returns the ledger's view of a token class.
	TokenInfo(ctx context.Context, id types.TokenID) (*TokenInfo, error)
}

// Submit drives an intent through submission and receipt: it refuses
// partially signed intents, records lifecycle transitions, and returns
// the receipt. This is the single choke point between signing and the
// network.
func Submit(ctx context.Context, gw Gateway, in *txn.Intent) (*Receipt, error) {
	tx, err := in.SignedTransaction()
	if err != nil {
		return nil, err
	}

	resp, err := gw.SubmitTransaction(ctx, tx)
	if err != nil {
		in.MarkFailed()
		return nil, err
	}
	in.MarkSubmitted()

	receipt, err := gw.WaitReceipt(ctx, resp)
	if err != nil {
		in.MarkFailed()
		return receipt, err
	}
	in.MarkReceipted()
	return receipt, nil
}
