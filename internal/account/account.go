// Package account opens ledger accounts and answers balance queries.
package account

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

// OpeningBalance is the fixed balance every new account starts with,
// funded by the operator.
const OpeningBalance = types.Amount(1000)

// Service creates accounts and reads balances.
type Service struct {
	gw      ledger.Gateway
	vault   *keyvault.Vault
	journal *audit.Journal
	maxFee  types.Amount
}

// New builds an account service. journal may be nil.
func New(gw ledger.Gateway, vault *keyvault.Vault, journal *audit.Journal, maxFee types.Amount) *Service {
	return &Service{gw: gw, vault: vault, journal: journal, maxFee: maxFee}
}

// CreateResult is a freshly opened account and its private key. The
// key exists nowhere else; the caller owns it from here.
type CreateResult struct {
	Account types.AccountID
	Key     *crypto.PrivateKey
}

// Create generates a fresh key pair and opens an account with the
// fixed opening balance. The operator signs and pays.
func (s *Service) Create(ctx context.Context) (*CreateResult, error) {
	newKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate account key: %w", err)
	}

	operator, err := s.vault.Signer(keyvault.RoleOperator)
	if err != nil {
		return nil, err
	}

	tx := txn.NewAccountCreate(newKey.PublicKey(), OpeningBalance, s.maxFee)
	in, err := txn.NewIntent(tx, operator.PublicKey())
	if err != nil {
		return nil, err
	}
	if err := in.Freeze(); err != nil {
		return nil, err
	}
	if err := in.Sign(operator); err != nil {
		return nil, err
	}

	receipt, err := ledger.Submit(ctx, s.gw, in)
	if err != nil {
		s.record("account_create", in.Hash().String(), audit.StatusOf(receipt, err), nil)
		return nil, err
	}
	if receipt.AccountID == nil {
		return nil, fmt.Errorf("account create receipt missing account id")
	}

	id := *receipt.AccountID
	s.record("account_create", in.Hash().String(), receipt.Status, map[string]string{
		"account": id.String(),
		"pubkey":  newKey.PublicKeyHex(),
	})
	klog.Account.Info().
		Str("account", id.String()).
		Msg("account created")

	return &CreateResult{Account: id, Key: newKey}, nil
}

// Balance returns the current currency balance of an account.
func (s *Service) Balance(ctx context.Context, id types.AccountID) (types.Amount, error) {
	if id.IsZero() {
		return 0, fmt.Errorf("%w: account id is required", ledger.ErrInvalidRequest)
	}
	return s.gw.AccountBalance(ctx, id)
}

func (s *Service) record(op, txID, status string, refs map[string]string) {
	if err := s.journal.Record(audit.Entry{Op: op, TxID: txID, Status: status, Refs: refs}); err != nil {
		klog.Account.Warn().Err(err).Msg("audit record failed")
	}
}
