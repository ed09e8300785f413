package account

import (
	"context"
	"errors"
	"testing"

	"github.com/mintgate-io/mintgate/internal/audit"
	"github.com/mintgate-io/mintgate/internal/keyvault"
	"github.com/mintgate-io/mintgate/internal/ledger"
	"github.com/mintgate-io/mintgate/internal/ledger/ledgertest"
	"github.com/mintgate-io/mintgate/internal/storage"
	"github.com/mintgate-io/mintgate/pkg/types"
)

func newService(t *testing.T) (*Service, *ledgertest.Ledger, *audit.Journal) {
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
	operatorPub, err := vault.PublicKey(keyvault.RoleOperator)
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}
	l.CreateAccount(operatorPub, 100000)

	journal, err := audit.New(storage.NewMemory())
	if err != nil {
		t.Fatalf("audit.New: %v", err)
	}
	return New(l, vault, journal, 100), l, journal
}

func TestCreate(t *testing.T) {
	svc, l, journal := newService(t)

	result, err := svc.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if result.Account.IsZero() {
		t.Error("created account id is zero")
	}
	if result.Key == nil {
		t.Fatal("created account key is nil")
	}

	if got := l.Balance(result.Account); got != OpeningBalance {
		t.Errorf("opening balance = %d, want %d", got, OpeningBalance)
	}

	entries, err := journal.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Op != "account_create" {
		t.Fatalf("journal = %+v, want one account_create entry", entries)
	}
	if entries[0].Refs["account"] != result.Account.String() {
		t.Errorf("journal ref = %s, want %s", entries[0].Refs["account"], result.Account)
	}
}

func TestCreate_DistinctKeys(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	b, err := svc.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Account == b.Account {
		t.Error("two creations produced the same account id")
	}
	if a.Key.PublicKeyHex() == b.Key.PublicKeyHex() {
		t.Error("two creations produced the same key")
	}
}

func TestCreate_SubmitTimeout(t *testing.T) {
	svc, l, journal := newService(t)
	l.SubmitErr = &ledger.TimeoutError{Op: "tx_submit"}

	_, err := svc.Create(context.Background())
	if !ledger.IsTimeout(err) {
		t.Fatalf("err = %v, want timeout", err)
	}

	// The failure is journaled.
	entries, err := journal.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Status != "ERROR" {
		t.Fatalf("journal = %+v, want one ERROR entry", entries)
	}
}

func TestBalance(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	result, err := svc.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	balance, err := svc.Balance(ctx, result.Account)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance != OpeningBalance {
		t.Errorf("balance = %d, want %d", balance, OpeningBalance)
	}
}

func TestBalance_InvalidAndUnknown(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Balance(ctx, types.AccountID{})
	if !errors.Is(err, ledger.ErrInvalidRequest) {
		t.Errorf("zero id: err = %v, want ErrInvalidRequest", err)
	}

	_, err = svc.Balance(ctx, types.AccountID{Num: 999999})
	var pre *ledger.PrecheckError
	if !errors.As(err, &pre) || pre.Code != ledger.CodeAccountNotFound {
		t.Errorf("unknown id: err = %v, want precheck %s", err, ledger.CodeAccountNotFound)
	}
}
