package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mintgate-io/mintgate/internal/account"
	"github.com/mintgate-io/mintgate/internal/escrow"
	"github.com/mintgate-io/mintgate/internal/keyvault"
	"github.com/mintgate-io/mintgate/internal/ledger"
	"github.com/mintgate-io/mintgate/internal/ledger/ledgertest"
	"github.com/mintgate-io/mintgate/internal/token"
	"github.com/mintgate-io/mintgate/internal/treasury"
	"github.com/mintgate-io/mintgate/pkg/crypto"
	"github.com/mintgate-io/mintgate/pkg/types"
)

type testEnv struct {
	http      *httptest.Server
	ledger    *ledgertest.Ledger
	vault     *keyvault.Vault
	seller    types.AccountID
	collector types.AccountID
	treasury  types.AccountID
}

func newTestEnv(t *testing.T) *testEnv {
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
	operatorPub, _ := vault.PublicKey(keyvault.RoleOperator)
	l.CreateAccount(operatorPub, 1000000)

	e := &testEnv{ledger: l, vault: vault}

	sellerPub, _ := vault.PublicKey(keyvault.RoleFirstSeller)
	e.seller = l.CreateAccount(sellerPub, 0)

	collectorKey, _ := crypto.GenerateKey()
	e.collector = l.CreateAccount(collectorKey.PublicKey(), 0)

	treasuryPub, _ := vault.PublicKey(keyvault.RoleTreasury)
	e.treasury = l.CreateAccount(treasuryPub, 102)

	recvA, _ := crypto.GenerateKey()
	recvB, _ := crypto.GenerateKey()
	recipientA := l.CreateAccount(recvA.PublicKey(), 0)
	recipientB := l.CreateAccount(recvB.PublicKey(), 0)

	accounts := account.New(l, vault, nil, 100)
	tokens := token.New(l, vault, nil, 100)
	esc := escrow.New(l, vault, nil, 100)
	splitter, err := treasury.New(l, vault, nil, 100, e.treasury, recipientA, recipientB)
	if err != nil {
		t.Fatalf("treasury.New: %v", err)
	}

	srv := New("127.0.0.1:0", accounts, tokens, esc, splitter)
	e.http = httptest.NewServer(http.HandlerFunc(srv.handleRequest))
	t.Cleanup(e.http.Close)
	return e
}

// call performs one JSON-RPC request and decodes the result into out.
// A non-nil returned Error means the server rejected the call.
func (e *testEnv) call(t *testing.T, method string, params, out interface{}) *Error {
	t.Helper()
	body, err := json.Marshal(Request{JSONRPC: "2.0", Method: method, Params: params, ID: 1})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(e.http.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *Error          `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out != nil {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			t.Fatalf("decode result: %v", err)
		}
	}
	return nil
}

func (e *testEnv) mustCall(t *testing.T, method string, params, out interface{}) {
	t.Helper()
	if rpcErr := e.call(t, method, params, out); rpcErr != nil {
		t.Fatalf("%s: rpc error %d: %s", method, rpcErr.Code, rpcErr.Message)
	}
}

func (e *testEnv) sellerKeyHex(t *testing.T) string {
	t.Helper()
	key, err := e.vault.Signer(keyvault.RoleFirstSeller)
	if err != nil {
		t.Fatalf("Signer: %v", err)
	}
	return key.SerializeHex()
}

func TestMarketplaceScenario(t *testing.T) {
	e := newTestEnv(t)

	// Open the buyer's account.
	var buyer AccountCreateResult
	e.mustCall(t, "account_create", nil, &buyer)
	if buyer.Account == "" || buyer.PrivateKey == "" {
		t.Fatalf("account_create = %+v", buyer)
	}

	var balance BalanceResult
	e.mustCall(t, "account_getBalance", AccountParam{Account: buyer.Account}, &balance)
	if balance.Balance != int64(account.OpeningBalance) {
		t.Fatalf("opening balance = %d, want %d", balance.Balance, account.OpeningBalance)
	}

	// Create the class and mint the piece.
	var created TokenCreateClassResult
	e.mustCall(t, "token_createClass", TokenCreateClassParam{
		Name:             "Gallery Piece",
		Symbol:           "ART",
		Treasury:         e.seller.String(),
		TreasuryKey:      e.sellerKeyHex(t),
		RoyaltyCollector: e.collector.String(),
	}, &created)

	var minted TokenMintResult
	e.mustCall(t, "token_mint", TokenMintParam{Token: created.Token, ContentRef: "ipfs://piece-1"}, &minted)
	if minted.Serial != 1 {
		t.Fatalf("serial = %d, want 1", minted.Serial)
	}

	// Buyer opts in, then buys for 500.
	var assoc TokenAssociateResult
	e.mustCall(t, "token_associate", TokenAssociateParam{
		Token:      created.Token,
		Account:    buyer.Account,
		AccountKey: buyer.PrivateKey,
	}, &assoc)
	if !assoc.Associated || assoc.AlreadyAssociated {
		t.Fatalf("associate = %+v", assoc)
	}

	// Re-association is reported distinctly but not an error.
	e.mustCall(t, "token_associate", TokenAssociateParam{
		Token:      created.Token,
		Account:    buyer.Account,
		AccountKey: buyer.PrivateKey,
	}, &assoc)
	if !assoc.AlreadyAssociated {
		t.Fatalf("re-associate = %+v, want AlreadyAssociated", assoc)
	}

	var sale EscrowFirstSaleResult
	e.mustCall(t, "escrow_firstSale", EscrowFirstSaleParam{
		Token:    created.Token,
		Serial:   minted.Serial,
		Seller:   e.seller.String(),
		Buyer:    buyer.Account,
		BuyerKey: buyer.PrivateKey,
		Price:    500,
	}, &sale)
	if sale.Status != ledger.StatusSuccess {
		t.Fatalf("sale status = %s", sale.Status)
	}

	// Settlement: buyer paid 500, seller netted 450, the collector
	// took the 1/10 royalty.
	e.mustCall(t, "account_getBalance", AccountParam{Account: buyer.Account}, &balance)
	if balance.Balance != 500 {
		t.Errorf("buyer balance = %d, want 500", balance.Balance)
	}
	e.mustCall(t, "account_getBalance", AccountParam{Account: e.seller.String()}, &balance)
	if balance.Balance != 450 {
		t.Errorf("seller balance = %d, want 450", balance.Balance)
	}
	e.mustCall(t, "account_getBalance", AccountParam{Account: e.collector.String()}, &balance)
	if balance.Balance != 50 {
		t.Errorf("collector balance = %d, want 50", balance.Balance)
	}

	// Token info reflects the schedule.
	var info TokenInfoResult
	e.mustCall(t, "token_getInfo", TokenParam{Token: created.Token}, &info)
	if info.MaxSupply != token.MaxSupply || len(info.CustomFees) != 1 {
		t.Errorf("info = %+v", info)
	}
}

func TestTreasurySplit(t *testing.T) {
	e := newTestEnv(t)

	var result TreasurySplitResult
	e.mustCall(t, "treasury_split", nil, &result)
	if !result.Distributed {
		t.Fatalf("result = %+v, want distributed", result)
	}
	if result.Balance != 102 || result.Distributable != 100 {
		t.Errorf("balance/distributable = %d/%d", result.Balance, result.Distributable)
	}
	if result.LegA.Amount != 75 || result.LegB.Amount != 25 {
		t.Errorf("legs = %d/%d, want 75/25", result.LegA.Amount, result.LegB.Amount)
	}
}

func TestErrorMapping(t *testing.T) {
	e := newTestEnv(t)

	// Unknown method.
	if rpcErr := e.call(t, "token_freeze", nil, nil); rpcErr == nil || rpcErr.Code != CodeMethodNotFound {
		t.Errorf("unknown method: %+v", rpcErr)
	}

	// Missing params.
	if rpcErr := e.call(t, "account_getBalance", nil, nil); rpcErr == nil || rpcErr.Code != CodeInvalidParams {
		t.Errorf("missing params: %+v", rpcErr)
	}

	// Malformed account id.
	if rpcErr := e.call(t, "account_getBalance", AccountParam{Account: "not-an-id"}, nil); rpcErr == nil || rpcErr.Code != CodeInvalidParams {
		t.Errorf("bad account: %+v", rpcErr)
	}

	// Unknown account surfaces the precheck code.
	rpcErr := e.call(t, "account_getBalance", AccountParam{Account: "0.0.999999"}, nil)
	if rpcErr == nil || rpcErr.Code != CodePrecheckFailed || rpcErr.Message != ledger.CodeAccountNotFound {
		t.Errorf("unknown account: %+v", rpcErr)
	}

	// Receipt failure surfaces the status: burning with a key that is
	// not the supply key.
	var created TokenCreateClassResult
	e.mustCall(t, "token_createClass", TokenCreateClassParam{
		Name:             "Gallery Piece",
		Symbol:           "ART",
		Treasury:         e.seller.String(),
		TreasuryKey:      e.sellerKeyHex(t),
		RoyaltyCollector: e.collector.String(),
	}, &created)
	var minted TokenMintResult
	e.mustCall(t, "token_mint", TokenMintParam{Token: created.Token, ContentRef: "x"}, &minted)

	wrong, _ := crypto.GenerateKey()
	rpcErr = e.call(t, "token_burn", TokenBurnParam{
		Token:     created.Token,
		Serial:    minted.Serial,
		SupplyKey: wrong.SerializeHex(),
	}, nil)
	if rpcErr == nil || rpcErr.Code != CodeReceiptFailed || rpcErr.Message != ledger.StatusInvalidTokenBurnKey {
		t.Errorf("wrong burn key: %+v", rpcErr)
	}
}
