// Package ledgertest provides an in-memory ledger simulation
// implementing the Gateway interface. It enforces the same signature,
// association and supply rules a real network would, so component
// tests exercise full transaction round-trips without a node.
package ledgertest

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/mintgate-io/mintgate/internal/ledger"
	"github.com/mintgate-io/mintgate/pkg/txn"
	"github.com/mintgate-io/mintgate/pkg/types"
)

type account struct {
	key        []byte
	balance    types.Amount
	associated map[types.TokenID]bool
}

type tokenClass struct {
	info       ledger.TokenInfo
	adminKey   []byte
	supplyKey  []byte
	freezeKey  []byte
	wipeKey    []byte
	nextSerial int64
	owners     map[int64]types.AccountID
}

// Ledger is the simulated network. Zero value is not usable; call New.
type Ledger struct {
	mu       sync.Mutex
	nextNum  uint64
	accounts map[types.AccountID]*account
	tokens   map[types.TokenID]*tokenClass
	receipts map[types.Hash]*ledger.Receipt

	// SubmitErr and ReceiptErr, when set, are returned once by the
	// next SubmitTransaction / WaitReceipt call. For failure-path
	// tests.
	SubmitErr  error
	ReceiptErr error

	// BeforeSubmit, when set, runs before each submission is
	// processed. A non-nil return aborts that submission with the
	// returned error. For per-call failure injection.
	BeforeSubmit func(tx *txn.Transaction) error
}

// New creates an empty simulated ledger. Entity numbering starts at
// 1000 so test ids never collide with the zero account.
func New() *Ledger {
	return &Ledger{
		nextNum:  1000,
		accounts: make(map[types.AccountID]*account),
		tokens:   make(map[types.TokenID]*tokenClass),
		receipts: make(map[types.Hash]*ledger.Receipt),
	}
}

// CreateAccount seeds an account directly, bypassing transactions.
func (l *Ledger) CreateAccount(pubKey []byte, balance types.Amount) types.AccountID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.newAccount(pubKey, balance)
}

func (l *Ledger) newAccount(pubKey []byte, balance types.Amount) types.AccountID {
	id := types.AccountID{Num: l.nextNum}
	l.nextNum++
	l.accounts[id] = &account{
		key:        append([]byte(nil), pubKey...),
		balance:    balance,
		associated: make(map[types.TokenID]bool),
	}
	return id
}

// Balance peeks at an account balance without a network query.
func (l *Ledger) Balance(id types.AccountID) types.Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	if acct, ok := l.accounts[id]; ok {
		return acct.balance
	}
	return 0
}

// Owner reports the current owner of a token instance.
func (l *Ledger) Owner(nft types.NftID) (types.AccountID, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tok, ok := l.tokens[nft.Token]
	if !ok {
		return types.AccountID{}, false
	}
	owner, ok := tok.owners[nft.Serial]
	return owner, ok
}

// ForceAssociate opts an account in to a token without a transaction.
func (l *Ledger) ForceAssociate(id types.AccountID, token types.TokenID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if acct, ok := l.accounts[id]; ok {
		acct.associated[token] = true
	}
}

// SubmitTransaction prechecks and executes the transaction. Precheck
// failures (signatures, unknown entities, insufficient balance) are
// returned immediately; execution outcomes are stored as receipts.
func (l *Ledger) SubmitTransaction(_ context.Context, tx *txn.Transaction) (*ledger.TxResponse, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.SubmitErr; err != nil {
		l.SubmitErr = nil
		return nil, err
	}
	if l.BeforeSubmit != nil {
		if err := l.BeforeSubmit(tx); err != nil {
			return nil, err
		}
	}

	if err := tx.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrInvalidRequest, err)
	}
	if len(tx.Signatures) == 0 {
		return nil, &ledger.PrecheckError{Code: ledger.CodeInvalidSignature}
	}
	if err := tx.VerifySignatures(); err != nil {
		return nil, &ledger.PrecheckError{Code: ledger.CodeInvalidSignature}
	}

	receipt, err := l.execute(tx)
	if err != nil {
		return nil, err
	}

	txID := tx.Hash()
	l.receipts[txID] = receipt
	return &ledger.TxResponse{TxID: txID}, nil
}

// WaitReceipt returns the stored receipt for the transaction. Unknown
// transactions time out, matching a network that never saw them.
func (l *Ledger) WaitReceipt(_ context.Context, resp *ledger.TxResponse) (*ledger.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ReceiptErr; err != nil {
		l.ReceiptErr = nil
		return nil, err
	}

	receipt, ok := l.receipts[resp.TxID]
	if !ok {
		return nil, &ledger.TimeoutError{Op: "tx_getReceipt"}
	}
	if receipt.Status != ledger.StatusSuccess {
		return receipt, &ledger.ReceiptError{Status: receipt.Status}
	}
	return receipt, nil
}

// AccountBalance implements the Gateway balance query.
func (l *Ledger) AccountBalance(_ context.Context, id types.AccountID) (types.Amount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[id]
	if !ok {
		return 0, &ledger.PrecheckError{Code: ledger.CodeAccountNotFound}
	}
	return acct.balance, nil
}

// TokenInfo implements the Gateway token query.
func (l *Ledger) TokenInfo(_ context.Context, id types.TokenID) (*ledger.TokenInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tok, ok := l.tokens[id]
	if !ok {
		return nil, &ledger.PrecheckError{Code: ledger.CodeTokenNotFound}
	}
	info := tok.info
	return &info, nil
}

func (l *Ledger) execute(tx *txn.Transaction) (*ledger.Receipt, error) {
	switch tx.Kind {
	case txn.KindAccountCreate:
		return l.execAccountCreate(tx)
	case txn.KindTokenCreate:
		return l.execTokenCreate(tx)
	case txn.KindTokenMint:
		return l.execTokenMint(tx)
	case txn.KindTokenBurn:
		return l.execTokenBurn(tx)
	case txn.KindTokenAssociate:
		return l.execTokenAssociate(tx)
	case txn.KindTransfer:
		return l.execTransfer(tx)
	}
	return nil, fmt.Errorf("%w: unknown kind %s", ledger.ErrInvalidRequest, tx.Kind)
}

func (l *Ledger) execAccountCreate(tx *txn.Transaction) (*ledger.Receipt, error) {
	b := tx.AccountCreate
	id := l.newAccount(b.PublicKey, b.InitialBalance)
	return &ledger.Receipt{Status: ledger.StatusSuccess, AccountID: &id}, nil
}

func (l *Ledger) execTokenCreate(tx *txn.Transaction) (*ledger.Receipt, error) {
	b := tx.TokenCreate
	treasury, ok := l.accounts[b.Treasury]
	if !ok {
		return nil, &ledger.PrecheckError{Code: ledger.CodeAccountNotFound}
	}
	// Creation requires both the treasury account key and the class
	// admin key.
	if !tx.SignedBy(treasury.key) {
		return nil, &ledger.PrecheckError{Code: ledger.CodeInvalidSignature}
	}
	if len(b.AdminKey) > 0 && !tx.SignedBy(b.AdminKey) {
		return nil, &ledger.PrecheckError{Code: ledger.CodeInvalidSignature}
	}
	for _, fee := range b.CustomFees {
		if _, ok := l.accounts[fee.Collector]; !ok {
			return nil, &ledger.PrecheckError{Code: ledger.CodeAccountNotFound}
		}
	}

	id := types.TokenID{Num: l.nextNum}
	l.nextNum++
	l.tokens[id] = &tokenClass{
		info: ledger.TokenInfo{
			Token:      id,
			Name:       b.Name,
			Symbol:     b.Symbol,
			Treasury:   b.Treasury,
			MaxSupply:  b.MaxSupply,
			CustomFees: append([]types.CustomFee(nil), b.CustomFees...),
		},
		adminKey:   b.AdminKey,
		supplyKey:  b.SupplyKey,
		freezeKey:  b.FreezeKey,
		wipeKey:    b.WipeKey,
		nextSerial: 1,
		owners:     make(map[int64]types.AccountID),
	}
	treasury.associated[id] = true
	return &ledger.Receipt{Status: ledger.StatusSuccess, TokenID: &id}, nil
}

func (l *Ledger) execTokenMint(tx *txn.Transaction) (*ledger.Receipt, error) {
	b := tx.TokenMint
	tok, ok := l.tokens[b.Token]
	if !ok {
		return nil, &ledger.PrecheckError{Code: ledger.CodeTokenNotFound}
	}
	if !tx.SignedBy(tok.supplyKey) {
		return nil, &ledger.PrecheckError{Code: ledger.CodeInvalidSignature}
	}
	// Serials are monotonic: the counter keeps advancing past burns,
	// so max supply counts everything ever minted.
	if tok.nextSerial > tok.info.MaxSupply {
		return &ledger.Receipt{Status: ledger.StatusMaxSupplyReached}, nil
	}

	serial := tok.nextSerial
	tok.nextSerial++
	tok.owners[serial] = tok.info.Treasury
	tok.info.TotalSupply++
	return &ledger.Receipt{Status: ledger.StatusSuccess, Serials: []int64{serial}}, nil
}

func (l *Ledger) execTokenBurn(tx *txn.Transaction) (*ledger.Receipt, error) {
	b := tx.TokenBurn
	tok, ok := l.tokens[b.Token]
	if !ok {
		return nil, &ledger.PrecheckError{Code: ledger.CodeTokenNotFound}
	}
	if !tx.SignedBy(tok.supplyKey) {
		return &ledger.Receipt{Status: ledger.StatusInvalidTokenBurnKey}, nil
	}
	if _, ok := tok.owners[b.Serial]; !ok {
		return nil, &ledger.PrecheckError{Code: ledger.CodeSerialNotFound}
	}
	delete(tok.owners, b.Serial)
	tok.info.TotalSupply--
	return &ledger.Receipt{Status: ledger.StatusSuccess}, nil
}

func (l *Ledger) execTokenAssociate(tx *txn.Transaction) (*ledger.Receipt, error) {
	b := tx.TokenAssociate
	acct, ok := l.accounts[b.Account]
	if !ok {
		return nil, &ledger.PrecheckError{Code: ledger.CodeAccountNotFound}
	}
	if _, ok := l.tokens[b.Token]; !ok {
		return nil, &ledger.PrecheckError{Code: ledger.CodeTokenNotFound}
	}
	if !tx.SignedBy(acct.key) {
		return nil, &ledger.PrecheckError{Code: ledger.CodeInvalidSignature}
	}
	if acct.associated[b.Token] {
		return &ledger.Receipt{Status: ledger.StatusAlreadyAssociated}, nil
	}
	acct.associated[b.Token] = true
	return &ledger.Receipt{Status: ledger.StatusSuccess}, nil
}

func (l *Ledger) execTransfer(tx *txn.Transaction) (*ledger.Receipt, error) {
	b := tx.Transfer

	// Precheck every leg before touching state: the transfer is atomic.
	for _, ct := range b.CoinTransfers {
		acct, ok := l.accounts[ct.Account]
		if !ok {
			return nil, &ledger.PrecheckError{Code: ledger.CodeAccountNotFound}
		}
		if ct.Amount < 0 {
			if !tx.SignedBy(acct.key) {
				return nil, &ledger.PrecheckError{Code: ledger.CodeInvalidSignature}
			}
			if acct.balance+ct.Amount < 0 {
				return nil, &ledger.PrecheckError{Code: ledger.CodeInsufficientBalance}
			}
		}
	}
	for _, nt := range b.NftTransfers {
		tok, ok := l.tokens[nt.Nft.Token]
		if !ok {
			return nil, &ledger.PrecheckError{Code: ledger.CodeTokenNotFound}
		}
		owner, ok := tok.owners[nt.Nft.Serial]
		if !ok {
			return nil, &ledger.PrecheckError{Code: ledger.CodeSerialNotFound}
		}
		if owner != nt.From {
			return nil, &ledger.PrecheckError{Code: ledger.CodeSenderNotOwner}
		}
		from, ok := l.accounts[nt.From]
		if !ok {
			return nil, &ledger.PrecheckError{Code: ledger.CodeAccountNotFound}
		}
		if !tx.SignedBy(from.key) {
			return nil, &ledger.PrecheckError{Code: ledger.CodeInvalidSignature}
		}
		to, ok := l.accounts[nt.To]
		if !ok {
			return nil, &ledger.PrecheckError{Code: ledger.CodeAccountNotFound}
		}
		if !to.associated[nt.Nft.Token] {
			return nil, &ledger.PrecheckError{Code: ledger.CodeNotAssociated}
		}
	}

	// Royalty assessment: each instance leg of a token carrying a
	// fractional fee redirects that fraction of the seller's proceeds
	// to the collector. Without proceeds the fallback fee is charged
	// to the receiver instead.
	type move struct {
		from, to types.AccountID
		amount   types.Amount
	}
	var royalties []move
	for _, nt := range b.NftTransfers {
		tok := l.tokens[nt.Nft.Token]
		for _, fee := range tok.info.CustomFees {
			proceeds := creditsTo(b.CoinTransfers, nt.From)
			if proceeds > 0 {
				royalty := proceeds * types.Amount(fee.Numerator) / types.Amount(fee.Denominator)
				royalties = append(royalties, move{from: nt.From, to: fee.Collector, amount: royalty})
			} else {
				royalties = append(royalties, move{from: nt.To, to: fee.Collector, amount: fee.FallbackFee})
			}
		}
	}
	// The fallback fee comes out of the receiver's existing balance.
	for _, m := range royalties {
		if payer, ok := l.accounts[m.from]; ok {
			if payer.balance+creditsTo(b.CoinTransfers, m.from)-debitsFrom(b.CoinTransfers, m.from)-m.amount < 0 {
				return nil, &ledger.PrecheckError{Code: ledger.CodeInsufficientBalance}
			}
		}
	}

	// Execute.
	for _, ct := range b.CoinTransfers {
		l.accounts[ct.Account].balance += ct.Amount
	}
	for _, nt := range b.NftTransfers {
		l.tokens[nt.Nft.Token].owners[nt.Nft.Serial] = nt.To
	}
	for _, m := range royalties {
		l.accounts[m.from].balance -= m.amount
		l.accounts[m.to].balance += m.amount
	}

	return &ledger.Receipt{Status: ledger.StatusSuccess}, nil
}

func creditsTo(legs []txn.CoinTransfer, id types.AccountID) types.Amount {
	var sum types.Amount
	for _, ct := range legs {
		if ct.Account == id && ct.Amount > 0 {
			sum += ct.Amount
		}
	}
	return sum
}

func debitsFrom(legs []txn.CoinTransfer, id types.AccountID) types.Amount {
	var sum types.Amount
	for _, ct := range legs {
		if ct.Account == id && ct.Amount < 0 {
			sum -= ct.Amount
		}
	}
	return sum
}

// AccountKey returns the stored public key of an account. Test helper.
func (l *Ledger) AccountKey(id types.AccountID) []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	if acct, ok := l.accounts[id]; ok {
		return append([]byte(nil), acct.key...)
	}
	return nil
}

// SupplyKeyMatches reports whether the given key is the token's supply
// key. Test helper.
func (l *Ledger) SupplyKeyMatches(id types.TokenID, key []byte) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	tok, ok := l.tokens[id]
	return ok && bytes.Equal(tok.supplyKey, key)
}
