// Package token manages the lifecycle of non-fungible token classes:
// creation with a royalty schedule, minting, burning and association.
package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/mintgate-io/mintgate/internal/audit"
	"github.com/mintgate-io/mintgate/internal/feeschedule"
	"github.com/mintgate-io/mintgate/internal/keyvault"
	"github.com/mintgate-io/mintgate/internal/ledger"
	klog "github.com/mintgate-io/mintgate/internal/log"
	"github.com/mintgate-io/mintgate/pkg/crypto"
	"github.com/mintgate-io/mintgate/pkg/txn"
	"github.com/mintgate-io/mintgate/pkg/types"
)

// MaxSupply caps every class created by this service. Supply is
// finite; serials above the cap are never minted.
const MaxSupply = int64(10000)

// Manager drives token class operations against the ledger.
type Manager struct {
	gw      ledger.Gateway
	vault   *keyvault.Vault
	journal *audit.Journal
	maxFee  types.Amount
}

// New builds a token manager. journal may be nil.
func New(gw ledger.Gateway, vault *keyvault.Vault, journal *audit.Journal, maxFee types.Amount) *Manager {
	return &Manager{gw: gw, vault: vault, journal: journal, maxFee: maxFee}
}

// CreateClass creates a finite NFT class: decimals zero, initial
// supply zero, max supply capped, royalty schedule attached. The
// treasury key and the vault admin key both sign before submission.
func (m *Manager) CreateClass(ctx context.Context, name, symbol string, treasury types.AccountID, treasuryKey *crypto.PrivateKey, royaltyCollector types.AccountID) (types.TokenID, error) {
	if name == "" || symbol == "" {
		return types.TokenID{}, fmt.Errorf("%w: name and symbol are required", ledger.ErrInvalidRequest)
	}
	if treasury.IsZero() {
		return types.TokenID{}, fmt.Errorf("%w: treasury account is required", ledger.ErrInvalidRequest)
	}
	if treasuryKey == nil {
		return types.TokenID{}, fmt.Errorf("%w: treasury key is required", ledger.ErrInvalidRequest)
	}

	fees, err := feeschedule.Build([]feeschedule.Royalty{feeschedule.Default(royaltyCollector)})
	if err != nil {
		return types.TokenID{}, err
	}

	adminKey, err := m.vault.Signer(keyvault.RoleAdmin)
	if err != nil {
		return types.TokenID{}, err
	}
	supplyPub, err := m.vault.PublicKey(keyvault.RoleSupply)
	if err != nil {
		return types.TokenID{}, err
	}
	freezePub, err := m.vault.PublicKey(keyvault.RoleFreeze)
	if err != nil {
		return types.TokenID{}, err
	}
	wipePub, err := m.vault.PublicKey(keyvault.RoleWipe)
	if err != nil {
		return types.TokenID{}, err
	}

	tx := txn.NewTokenCreate(txn.TokenCreateBody{
		Name:       name,
		Symbol:     symbol,
		Treasury:   treasury,
		MaxSupply:  MaxSupply,
		CustomFees: fees,
		AdminKey:   adminKey.PublicKey(),
		SupplyKey:  supplyPub,
		FreezeKey:  freezePub,
		WipeKey:    wipePub,
	}, m.maxFee)

	in, err := txn.NewIntent(tx, treasuryKey.PublicKey(), adminKey.PublicKey())
	if err != nil {
		return types.TokenID{}, err
	}
	if err := in.Freeze(); err != nil {
		return types.TokenID{}, err
	}
	if err := in.Sign(treasuryKey); err != nil {
		return types.TokenID{}, err
	}
	if err := in.Sign(adminKey); err != nil {
		return types.TokenID{}, err
	}

	receipt, err := ledger.Submit(ctx, m.gw, in)
	if err != nil {
		m.record("token_createClass", in.Hash().String(), audit.StatusOf(receipt, err), nil)
		return types.TokenID{}, err
	}
	if receipt.TokenID == nil {
		return types.TokenID{}, fmt.Errorf("token create receipt missing token id")
	}

	id := *receipt.TokenID
	m.record("token_createClass", in.Hash().String(), receipt.Status, map[string]string{
		"token":    id.String(),
		"treasury": treasury.String(),
	})
	klog.Token.Info().
		Str("token", id.String()).
		Str("symbol", symbol).
		Msg("token class created")
	return id, nil
}

// Mint appends one instance to the class, owned by the treasury. The
// metadata is the instance's content reference. Supply exhaustion
// surfaces as a ReceiptError with the max-supply status.
func (m *Manager) Mint(ctx context.Context, token types.TokenID, contentRef []byte) (int64, error) {
	if token.IsZero() {
		return 0, fmt.Errorf("%w: token id is required", ledger.ErrInvalidRequest)
	}
	if len(contentRef) == 0 {
		return 0, fmt.Errorf("%w: content reference is required", ledger.ErrInvalidRequest)
	}

	supplyKey, err := m.vault.Signer(keyvault.RoleSupply)
	if err != nil {
		return 0, err
	}

	tx := txn.NewTokenMint(token, contentRef, m.maxFee)
	in, err := txn.NewIntent(tx, supplyKey.PublicKey())
	if err != nil {
		return 0, err
	}
	if err := in.Freeze(); err != nil {
		return 0, err
	}
	if err := in.Sign(supplyKey); err != nil {
		return 0, err
	}

	receipt, err := ledger.Submit(ctx, m.gw, in)
	if err != nil {
		m.record("token_mint", in.Hash().String(), audit.StatusOf(receipt, err), map[string]string{"token": token.String()})
		return 0, err
	}
	if len(receipt.Serials) != 1 {
		return 0, fmt.Errorf("mint receipt has %d serials, want 1", len(receipt.Serials))
	}

	serial := receipt.Serials[0]
	m.record("token_mint", in.Hash().String(), receipt.Status, map[string]string{
		"token":  token.String(),
		"serial": fmt.Sprintf("%d", serial),
	})
	klog.Token.Info().
		Str("nft", types.NftID{Token: token, Serial: serial}.String()).
		Msg("instance minted")
	return serial, nil
}

// Burn destroys one instance. The supply key is supplied per call by
// the caller: burning authority is a caller credential, not an ambient
// service key. The serial is never reissued.
func (m *Manager) Burn(ctx context.Context, token types.TokenID, serial int64, supplyKey *crypto.PrivateKey) error {
	if token.IsZero() {
		return fmt.Errorf("%w: token id is required", ledger.ErrInvalidRequest)
	}
	if serial <= 0 {
		return fmt.Errorf("%w: serial must be positive", ledger.ErrInvalidRequest)
	}
	if supplyKey == nil {
		return fmt.Errorf("%w: supply key is required", ledger.ErrInvalidRequest)
	}

	tx := txn.NewTokenBurn(token, serial, m.maxFee)
	in, err := txn.NewIntent(tx, supplyKey.PublicKey())
	if err != nil {
		return err
	}
	if err := in.Freeze(); err != nil {
		return err
	}
	if err := in.Sign(supplyKey); err != nil {
		return err
	}

	receipt, err := ledger.Submit(ctx, m.gw, in)
	m.record("token_burn", in.Hash().String(), audit.StatusOf(receipt, err), map[string]string{
		"token":  token.String(),
		"serial": fmt.Sprintf("%d", serial),
	})
	if err != nil {
		return err
	}
	klog.Token.Info().
		Str("nft", types.NftID{Token: token, Serial: serial}.String()).
		Msg("instance burned")
	return nil
}

// Associate opts an account in to holding the class. Required before
// the account can receive instances. Re-association surfaces as an
// AlreadyAssociated receipt; IsAlreadyAssociated lets callers treat it
// as success.
func (m *Manager) Associate(ctx context.Context, token types.TokenID, acct types.AccountID, acctKey *crypto.PrivateKey) error {
	if token.IsZero() || acct.IsZero() {
		return fmt.Errorf("%w: token and account are required", ledger.ErrInvalidRequest)
	}
	if acctKey == nil {
		return fmt.Errorf("%w: account key is required", ledger.ErrInvalidRequest)
	}

	tx := txn.NewTokenAssociate(acct, token, m.maxFee)
	in, err := txn.NewIntent(tx, acctKey.PublicKey())
	if err != nil {
		return err
	}
	if err := in.Freeze(); err != nil {
		return err
	}
	if err := in.Sign(acctKey); err != nil {
		return err
	}

	receipt, err := ledger.Submit(ctx, m.gw, in)
	m.record("token_associate", in.Hash().String(), audit.StatusOf(receipt, err), map[string]string{
		"token":   token.String(),
		"account": acct.String(),
	})
	if err != nil {
		return err
	}
	klog.Token.Debug().
		Str("token", token.String()).
		Str("account", acct.String()).
		Msg("account associated")
	return nil
}

// Info returns the ledger's view of a class.
func (m *Manager) Info(ctx context.Context, token types.TokenID) (*ledger.TokenInfo, error) {
	if token.IsZero() {
		return nil, fmt.Errorf("%w: token id is required", ledger.ErrInvalidRequest)
	}
	return m.gw.TokenInfo(ctx, token)
}

// IsAlreadyAssociated reports whether err is the re-association
// receipt. Callers for whom association is idempotent check this.
func IsAlreadyAssociated(err error) bool {
	var re *ledger.ReceiptError
	return errors.As(err, &re) && re.Status == ledger.StatusAlreadyAssociated
}

func (m *Manager) record(op, txID, status string, refs map[string]string) {
	if err := m.journal.Record(audit.Entry{Op: op, TxID: txID, Status: status, Refs: refs}); err != nil {
		klog.Token.Warn().Err(err).Msg("audit record failed")
	}
}
