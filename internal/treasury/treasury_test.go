package treasury

import (
	"context"
	"testing"

	"github.com/mintgate-io/mintgate/internal/keyvault"
	"github.com/mintgate-io/mintgate/internal/ledger"
	"github.com/mintgate-io/mintgate/internal/ledger/ledgertest"
	"github.com/mintgate-io/mintgate/pkg/crypto"
	"github.com/mintgate-io/mintgate/pkg/txn"
	"github.com/mintgate-io/mintgate/pkg/types"
)

type env struct {
	splitter   *Splitter
	ledger     *ledgertest.Ledger
	treasury   types.AccountID
	recipientA types.AccountID
	recipientB types.AccountID
}

func newEnv(t *testing.T, balance types.Amount) *env {
	t.Helper()
	mnemonic, err := keyvault.GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic: %v", err)
	}
	vault, err := keyvault.FromMnemonic(mnemonic, "")
	if err != nil {
		t.Fatalf("FromMnemonic: %v", err)
	}

	l := ledgertest.New()
	treasuryPub, err := vault.PublicKey(keyvault.RoleTreasury)
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}
	e := &env{ledger: l}
	e.treasury = l.CreateAccount(treasuryPub, balance)

	keyA, _ := crypto.GenerateKey()
	keyB, _ := crypto.GenerateKey()
	e.recipientA = l.CreateAccount(keyA.PublicKey(), 0)
	e.recipientB = l.CreateAccount(keyB.PublicKey(), 0)

	e.splitter, err = New(l, vault, nil, 100, e.treasury, e.recipientA, e.recipientB)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name        string
		balance     types.Amount
		wantA       types.Amount
		wantB       types.Amount
		distributed bool
	}{
		// 102 - 2 reserve = 100: clean 75/25.
		{"exact split", 102, 75, 25, true},
		// 101 - 2 = 99: 74.25 and 24.75 truncate to 74 and 24, one
		// unit stays behind.
		{"truncated split", 101, 74, 24, true},
		{"at reserve", 2, 0, 0, false},
		{"below reserve", 1, 0, 0, false},
		{"zero balance", 0, 0, 0, false},
		// 3 - 2 = 1: 0.75 and 0.25 both truncate to zero.
		{"one above reserve", 3, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, tt.balance)

			result, err := e.splitter.Split(context.Background())
			if err != nil {
				t.Fatalf("Split: %v", err)
			}
			if result.Distributed != tt.distributed {
				t.Fatalf("Distributed = %v, want %v", result.Distributed, tt.distributed)
			}
			if got := e.ledger.Balance(e.recipientA); got != tt.wantA {
				t.Errorf("recipient A = %d, want %d", got, tt.wantA)
			}
			if got := e.ledger.Balance(e.recipientB); got != tt.wantB {
				t.Errorf("recipient B = %d, want %d", got, tt.wantB)
			}
			// Truncation loss stays in the treasury.
			wantTreasury := tt.balance - tt.wantA - tt.wantB
			if got := e.ledger.Balance(e.treasury); got != wantTreasury {
				t.Errorf("treasury = %d, want %d", got, wantTreasury)
			}
		})
	}
}

func TestSplit_SecondLegFailureKeepsFirst(t *testing.T) {
	e := newEnv(t, 102)

	// Fail the second submission only. The first leg must settle and
	// stay settled; the result reports both outcomes.
	submissions := 0
	e.ledger.BeforeSubmit = func(_ *txn.Transaction) error {
		submissions++
		if submissions == 2 {
			return &ledger.TimeoutError{Op: "tx_submit"}
		}
		return nil
	}

	result, err := e.splitter.Split(context.Background())
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if result.A.Err != nil || result.A.Status != ledger.StatusSuccess {
		t.Errorf("leg A = %+v, want success", result.A)
	}
	if result.B.Err == nil || !ledger.IsTimeout(result.B.Err) {
		t.Errorf("leg B err = %v, want timeout", result.B.Err)
	}

	// First leg not rolled back: recipient A keeps the 75, recipient
	// B got nothing, the treasury retains the rest.
	if got := e.ledger.Balance(e.recipientA); got != 75 {
		t.Errorf("recipient A = %d, want 75", got)
	}
	if got := e.ledger.Balance(e.recipientB); got != 0 {
		t.Errorf("recipient B = %d, want 0", got)
	}
	if got := e.ledger.Balance(e.treasury); got != 27 {
		t.Errorf("treasury = %d, want 27", got)
	}
}

func TestSplit_LegOutcomesReported(t *testing.T) {
	e := newEnv(t, 102)

	result, err := e.splitter.Split(context.Background())
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if result.A.Recipient != e.recipientA || result.A.Amount != 75 || result.A.Status != ledger.StatusSuccess {
		t.Errorf("leg A = %+v", result.A)
	}
	if result.B.Recipient != e.recipientB || result.B.Amount != 25 || result.B.Status != ledger.StatusSuccess {
		t.Errorf("leg B = %+v", result.B)
	}
	if result.Balance != 102 || result.Distributable != 100 {
		t.Errorf("balance/distributable = %d/%d, want 102/100", result.Balance, result.Distributable)
	}
}

func TestNew_RequiresAccounts(t *testing.T) {
	e := newEnv(t, 0)
	vault, _ := keyvault.FromMnemonic(mustMnemonic(t), "")

	cases := []struct {
		name                string
		treasury, recA, recB types.AccountID
	}{
		{"zero treasury", types.AccountID{}, e.recipientA, e.recipientB},
		{"zero recipient a", e.treasury, types.AccountID{}, e.recipientB},
		{"zero recipient b", e.treasury, e.recipientA, types.AccountID{}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(e.ledger, vault, nil, 100, tt.treasury, tt.recA, tt.recB)
			if err == nil {
				t.Error("New should reject missing account configuration")
			}
		})
	}
}

func mustMnemonic(t *testing.T) string {
	t.Helper()
	m, err := keyvault.GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic: %v", err)
	}
	return m
}
