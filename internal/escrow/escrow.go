// Package escrow orchestrates atomic first sales: one token instance
// against one payment, committed by the ledger as a single transfer or
// not at all. The orchestration guarantee is ordering: the transfer is
// frozen, then signed by the first seller, then by the buyer, and a
// partially signed transfer is never transmitted.
package escrow

import (
	"context"
	"fmt"

	"github.com/mintgate-io/mintgate/internal/audit"
	"github.com/mintgate-io/mintgate/internal/keyvault"
	"github.com/mintgate-io/mintgate/internal/ledger"
	klog "github.com/mintgate-io/mintgate/internal/log"
	"github.com/mintgate-io/mintgate/pkg/crypto"
	"github.com/mintgate-io/mintgate/pkg/txn"
	"github.com/mintgate-io/mintgate/pkg/types"
)

// Orchestrator executes first sales.
type Orchestrator struct {
	gw      ledger.Gateway
	vault   *keyvault.Vault
	journal *audit.Journal
	maxFee  types.Amount
}

// New builds an escrow orchestrator. journal may be nil.
func New(gw ledger.Gateway, vault *keyvault.Vault, journal *audit.Journal, maxFee types.Amount) *Orchestrator {
	return &Orchestrator{gw: gw, vault: vault, journal: journal, maxFee: maxFee}
}

// SaleRequest describes one first sale. BuyerKey is the buyer's
// credential for this call; it authorizes the debit and is never
// retained.
type SaleRequest struct {
	Token    types.TokenID
	Serial   int64
	Seller   types.AccountID
	Buyer    types.AccountID
	BuyerKey *crypto.PrivateKey
	Price    types.Amount
}

func (r SaleRequest) validate() error {
	switch {
	case r.Token.IsZero():
		return fmt.Errorf("%w: token id is required", ledger.ErrInvalidRequest)
	case r.Serial <= 0:
		return fmt.Errorf("%w: serial must be positive", ledger.ErrInvalidRequest)
	case r.Seller.IsZero():
		return fmt.Errorf("%w: seller account is required", ledger.ErrInvalidRequest)
	case r.Buyer.IsZero():
		return fmt.Errorf("%w: buyer account is required", ledger.ErrInvalidRequest)
	case r.Seller == r.Buyer:
		return fmt.Errorf("%w: seller and buyer must differ", ledger.ErrInvalidRequest)
	case r.BuyerKey == nil:
		return fmt.Errorf("%w: buyer key is required", ledger.ErrInvalidRequest)
	case r.Price <= 0:
		return fmt.Errorf("%w: price must be positive", ledger.ErrInvalidRequest)
	}
	return nil
}

// SaleResult reports the terminal outcome of a sale.
type SaleResult struct {
	TxID   types.Hash
	Status string
}

// ExecuteFirstSale moves the instance seller to buyer and the price
// buyer to seller in one ledger transfer. Royalties come out of the
// proceeds on the ledger side via the class fee schedule; nothing is
// computed here. Ownership, association and balance preconditions are
// the ledger's to enforce and surface as PrecheckError.
func (o *Orchestrator) ExecuteFirstSale(ctx context.Context, req SaleRequest) (*SaleResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	sellerKey, err := o.vault.Signer(keyvault.RoleFirstSeller)
	if err != nil {
		return nil, err
	}

	tx := txn.NewTransfer(o.maxFee).
		AddNftTransfer(types.NftID{Token: req.Token, Serial: req.Serial}, req.Seller, req.Buyer).
		AddCoinTransfer(req.Buyer, req.Price.Negated()).
		AddCoinTransfer(req.Seller, req.Price).
		Build()

	in, err := txn.NewIntent(tx, sellerKey.PublicKey(), req.BuyerKey.PublicKey())
	if err != nil {
		return nil, err
	}
	if err := in.Freeze(); err != nil {
		return nil, err
	}
	// Seller first, buyer second. The intent refuses submission until
	// both have signed.
	if err := in.Sign(sellerKey); err != nil {
		return nil, err
	}
	if err := in.Sign(req.BuyerKey); err != nil {
		return nil, err
	}

	receipt, err := ledger.Submit(ctx, o.gw, in)
	o.record(in.Hash().String(), audit.StatusOf(receipt, err), req)
	if err != nil {
		return nil, err
	}

	klog.Escrow.Info().
		Str("nft", types.NftID{Token: req.Token, Serial: req.Serial}.String()).
		Str("seller", req.Seller.String()).
		Str("buyer", req.Buyer.String()).
		Int64("price", int64(req.Price)).
		Msg("first sale settled")

	return &SaleResult{TxID: in.Hash(), Status: receipt.Status}, nil
}

func (o *Orchestrator) record(txID, status string, req SaleRequest) {
	err := o.journal.Record(audit.Entry{
		Op:     "escrow_firstSale",
		TxID:   txID,
		Status: status,
		Refs: map[string]string{
			"nft":    types.NftID{Token: req.Token, Serial: req.Serial}.String(),
			"seller": req.Seller.String(),
			"buyer":  req.Buyer.String(),
		},
	})
	if err != nil {
		klog.Escrow.Warn().Err(err).Msg("audit record failed")
	}
}
