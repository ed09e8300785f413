// Package treasury periodically distributes accumulated royalty
// income. The split is deliberately two independent transfers: a
// failed second leg never rolls back the first, and the caller sees
// both outcomes.
package treasury

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

// Reserve stays in the treasury; only the balance above it is
// distributed.
const Reserve = types.Amount(2)

// Split percentages for the two recipients. Integer percentages of
// the distributable amount, truncated; the remainder stays in the
// treasury.
const (
	ShareA = 75
	ShareB = 25
)

// Splitter distributes the treasury balance.
type Splitter struct {
	gw      ledger.Gateway
	vault   *keyvault.Vault
	journal *audit.Journal
	maxFee  types.Amount

	treasury   types.AccountID
	recipientA types.AccountID
	recipientB types.AccountID
}

// New builds a splitter for a treasury and its two recipients.
// journal may be nil.
func New(gw ledger.Gateway, vault *keyvault.Vault, journal *audit.Journal, maxFee types.Amount, treasury, recipientA, recipientB types.AccountID) (*Splitter, error) {
	if treasury.IsZero() {
		return nil, &ledger.ConfigError{Key: "treasury.account"}
	}
	if recipientA.IsZero() {
		return nil, &ledger.ConfigError{Key: "treasury.recipient_a"}
	}
	if recipientB.IsZero() {
		return nil, &ledger.ConfigError{Key: "treasury.recipient_b"}
	}
	return &Splitter{
		gw: gw, vault: vault, journal: journal, maxFee: maxFee,
		treasury: treasury, recipientA: recipientA, recipientB: recipientB,
	}, nil
}

// Leg is the outcome of one distribution transfer.
type Leg struct {
	Recipient types.AccountID
	Amount    types.Amount
	Status    string
	Err       error
}

// Result reports a split run. When Distributed is false the balance
// did not exceed the reserve and no transfers were attempted.
type Result struct {
	Balance       types.Amount
	Distributable types.Amount
	Distributed   bool
	A             Leg
	B             Leg
}

// Split reads the treasury balance and, if it exceeds the reserve,
// sends the two shares as independent transfers signed by the
// treasury key. Leg failures are reported in the result, not
// returned: the caller must see a first-leg success even when the
// second leg fails.
func (s *Splitter) Split(ctx context.Context) (*Result, error) {
	balance, err := s.gw.AccountBalance(ctx, s.treasury)
	if err != nil {
		return nil, fmt.Errorf("read treasury balance: %w", err)
	}

	result := &Result{Balance: balance}
	if balance <= Reserve {
		klog.Treasury.Info().
			Int64("balance", int64(balance)).
			Int64("reserve", int64(Reserve)).
			Msg("balance within reserve, nothing to distribute")
		return result, nil
	}

	treasuryKey, err := s.vault.Signer(keyvault.RoleTreasury)
	if err != nil {
		return nil, err
	}

	distributable := balance - Reserve
	result.Distributable = distributable
	result.Distributed = true

	result.A = s.sendShare(ctx, treasuryKey, s.recipientA, distributable*ShareA/100)
	result.B = s.sendShare(ctx, treasuryKey, s.recipientB, distributable*ShareB/100)

	klog.Treasury.Info().
		Int64("distributable", int64(distributable)).
		Int64("share_a", int64(result.A.Amount)).
		Int64("share_b", int64(result.B.Amount)).
		Msg("treasury split complete")
	return result, nil
}

func (s *Splitter) sendShare(ctx context.Context, treasuryKey crypto.Signer, recipient types.AccountID, amount types.Amount) Leg {
	leg := Leg{Recipient: recipient, Amount: amount}
	if amount <= 0 {
		leg.Status = "SKIPPED_ZERO_SHARE"
		return leg
	}

	tx := txn.NewTransfer(s.maxFee).
		AddCoinTransfer(s.treasury, amount.Negated()).
		AddCoinTransfer(recipient, amount).
		Build()

	in, err := txn.NewIntent(tx, treasuryKey.PublicKey())
	if err != nil {
		leg.Err = err
		return leg
	}
	if err := in.Freeze(); err != nil {
		leg.Err = err
		return leg
	}
	if err := in.Sign(treasuryKey); err != nil {
		leg.Err = err
		return leg
	}

	receipt, err := ledger.Submit(ctx, s.gw, in)
	leg.Status = audit.StatusOf(receipt, err)
	leg.Err = err
	s.record(in.Hash().String(), leg)
	if err != nil {
		klog.Treasury.Error().
			Err(err).
			Str("recipient", recipient.String()).
			Int64("amount", int64(amount)).
			Msg("distribution leg failed")
	}
	return leg
}

func (s *Splitter) record(txID string, leg Leg) {
	err := s.journal.Record(audit.Entry{
		Op:     "treasury_split",
		TxID:   txID,
		Status: leg.Status,
		Refs: map[string]string{
			"recipient": leg.Recipient.String(),
			"amount":    fmt.Sprintf("%d", leg.Amount),
		},
	})
	if err != nil {
		klog.Treasury.Warn().Err(err).Msg("audit record failed")
	}
}
