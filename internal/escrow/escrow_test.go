package escrow

import (
	"context"
	"errors"
	"testing"

	"github.com/mintgate-io/mintgate/internal/keyvault"
	"github.com/mintgate-io/mintgate/internal/ledger"
	"github.com/mintgate-io/mintgate/internal/ledger/ledgertest"
	"github.com/mintgate-io/mintgate/internal/token"
	"github.com/mintgate-io/mintgate/pkg/crypto"
	"github.com/mintgate-io/mintgate/pkg/types"
)

type env struct {
	orch      *Orchestrator
	ledger    *ledgertest.Ledger
	vault     *keyvault.Vault
	seller    types.AccountID
	buyer     types.AccountID
	collector types.AccountID
	token     types.TokenID
	serial    int64

	buyerKey *crypto.PrivateKey
}

// newEnv seeds a full marketplace: the first-seller vault key owns the
// seller account, which is also the class treasury holding one minted
// instance; the buyer is funded and associated.
func newEnv(t *testing.T, buyerBalance types.Amount) *env {
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
	e := &env{ledger: l, vault: vault, orch: New(l, vault, nil, 100)}

	sellerKey, err := vault.Signer(keyvault.RoleFirstSeller)
	if err != nil {
		t.Fatalf("Signer: %v", err)
	}
	e.seller = l.CreateAccount(sellerKey.PublicKey(), 0)

	e.buyerKey, err = crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	e.buyer = l.CreateAccount(e.buyerKey.PublicKey(), buyerBalance)

	collectorKey, _ := crypto.GenerateKey()
	e.collector = l.CreateAccount(collectorKey.PublicKey(), 0)

	mgr := token.New(l, vault, nil, 100)
	ctx := context.Background()
	e.token, err = mgr.CreateClass(ctx, "Gallery Piece", "ART", e.seller, sellerKey, e.collector)
	if err != nil {
		t.Fatalf("CreateClass: %v", err)
	}
	e.serial, err = mgr.Mint(ctx, e.token, []byte("ipfs://piece-1"))
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	l.ForceAssociate(e.buyer, e.token)
	return e
}

func (e *env) request(price types.Amount) SaleRequest {
	return SaleRequest{
		Token:    e.token,
		Serial:   e.serial,
		Seller:   e.seller,
		Buyer:    e.buyer,
		BuyerKey: e.buyerKey,
		Price:    price,
	}
}

func TestExecuteFirstSale(t *testing.T) {
	e := newEnv(t, 1000)

	result, err := e.orch.ExecuteFirstSale(context.Background(), e.request(500))
	if err != nil {
		t.Fatalf("ExecuteFirstSale: %v", err)
	}
	if result.Status != ledger.StatusSuccess {
		t.Errorf("status = %s, want %s", result.Status, ledger.StatusSuccess)
	}

	// Ownership moved and the price settled, less the 1/10 royalty
	// the ledger redirected to the collector.
	owner, _ := e.ledger.Owner(types.NftID{Token: e.token, Serial: e.serial})
	if owner != e.buyer {
		t.Errorf("owner = %v, want buyer %v", owner, e.buyer)
	}
	if got := e.ledger.Balance(e.buyer); got != 500 {
		t.Errorf("buyer balance = %d, want 500", got)
	}
	if got := e.ledger.Balance(e.seller); got != 450 {
		t.Errorf("seller balance = %d, want 450", got)
	}
	if got := e.ledger.Balance(e.collector); got != 50 {
		t.Errorf("collector balance = %d, want 50", got)
	}
}

func TestExecuteFirstSale_InvalidRequests(t *testing.T) {
	e := newEnv(t, 1000)
	ctx := context.Background()

	mutations := []struct {
		name   string
		mutate func(*SaleRequest)
	}{
		{"zero token", func(r *SaleRequest) { r.Token = types.TokenID{} }},
		{"zero serial", func(r *SaleRequest) { r.Serial = 0 }},
		{"zero seller", func(r *SaleRequest) { r.Seller = types.AccountID{} }},
		{"zero buyer", func(r *SaleRequest) { r.Buyer = types.AccountID{} }},
		{"seller is buyer", func(r *SaleRequest) { r.Buyer = r.Seller }},
		{"nil buyer key", func(r *SaleRequest) { r.BuyerKey = nil }},
		{"zero price", func(r *SaleRequest) { r.Price = 0 }},
		{"negative price", func(r *SaleRequest) { r.Price = -5 }},
	}
	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			req := e.request(500)
			tt.mutate(&req)
			_, err := e.orch.ExecuteFirstSale(ctx, req)
			if !errors.Is(err, ledger.ErrInvalidRequest) {
				t.Errorf("err = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestExecuteFirstSale_InsufficientBuyerFunds(t *testing.T) {
	e := newEnv(t, 100)

	_, err := e.orch.ExecuteFirstSale(context.Background(), e.request(500))
	var pre *ledger.PrecheckError
	if !errors.As(err, &pre) || pre.Code != ledger.CodeInsufficientBalance {
		t.Fatalf("err = %v, want precheck %s", err, ledger.CodeInsufficientBalance)
	}

	// Nothing moved.
	owner, _ := e.ledger.Owner(types.NftID{Token: e.token, Serial: e.serial})
	if owner != e.seller {
		t.Error("instance moved despite failed sale")
	}
	if got := e.ledger.Balance(e.buyer); got != 100 {
		t.Errorf("buyer balance = %d, want 100", got)
	}
}

func TestExecuteFirstSale_BuyerNotAssociated(t *testing.T) {
	e := newEnv(t, 1000)

	// A second buyer who never opted in.
	otherKey, _ := crypto.GenerateKey()
	other := e.ledger.CreateAccount(otherKey.PublicKey(), 1000)

	req := e.request(500)
	req.Buyer = other
	req.BuyerKey = otherKey
	_, err := e.orch.ExecuteFirstSale(context.Background(), req)
	var pre *ledger.PrecheckError
	if !errors.As(err, &pre) || pre.Code != ledger.CodeNotAssociated {
		t.Fatalf("err = %v, want precheck %s", err, ledger.CodeNotAssociated)
	}
}

func TestExecuteFirstSale_SellerNotOwner(t *testing.T) {
	e := newEnv(t, 1500)

	// First sale succeeds; a second sale of the same serial must fail
	// because the seller no longer owns it.
	ctx := context.Background()
	if _, err := e.orch.ExecuteFirstSale(ctx, e.request(500)); err != nil {
		t.Fatalf("first sale: %v", err)
	}
	_, err := e.orch.ExecuteFirstSale(ctx, e.request(500))
	var pre *ledger.PrecheckError
	if !errors.As(err, &pre) || pre.Code != ledger.CodeSenderNotOwner {
		t.Fatalf("err = %v, want precheck %s", err, ledger.CodeSenderNotOwner)
	}
}

func TestExecuteFirstSale_Timeout(t *testing.T) {
	e := newEnv(t, 1000)
	e.ledger.ReceiptErr = &ledger.TimeoutError{Op: "tx_getReceipt"}

	_, err := e.orch.ExecuteFirstSale(context.Background(), e.request(500))
	if !ledger.IsTimeout(err) {
		t.Fatalf("err = %v, want timeout", err)
	}
}
