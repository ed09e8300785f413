// Package txn defines unsubmitted ledger transactions and the
// multi-party signing lifecycle that gates their submission.
package txn

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/mintgate-io/mintgate/pkg/crypto"
	"github.com/mintgate-io/mintgate/pkg/types"
)

// Kind identifies the ledger operation a transaction performs.
type Kind uint8

const (
	KindAccountCreate Kind = iota + 1
	KindTokenCreate
	KindTokenMint
	KindTokenBurn
	KindTokenAssociate
	KindTransfer
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindAccountCreate:
		return "account_create"
	case KindTokenCreate:
		return "token_create"
	case KindTokenMint:
		return "token_mint"
	case KindTokenBurn:
		return "token_burn"
	case KindTokenAssociate:
		return "token_associate"
	case KindTransfer:
		return "transfer"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// AccountCreateBody opens a new account funded with an initial balance.
type AccountCreateBody struct {
	PublicKey      []byte       `json:"public_key"`
	InitialBalance types.Amount `json:"initial_balance"`
}

// TokenCreateBody creates a non-fungible token class. Decimals are
// always zero and initial supply is always zero: supply grows only
// through minting.
type TokenCreateBody struct {
	Name       string            `json:"name"`
	Symbol     string            `json:"symbol"`
	Treasury   types.AccountID   `json:"treasury"`
	MaxSupply  int64             `json:"max_supply"`
	CustomFees []types.CustomFee `json:"custom_fees"`
	AdminKey   []byte            `json:"admin_key"`
	SupplyKey  []byte            `json:"supply_key"`
	FreezeKey  []byte            `json:"freeze_key"`
	WipeKey    []byte            `json:"wipe_key"`
}

// TokenMintBody appends one instance to a token class.
type TokenMintBody struct {
	Token    types.TokenID `json:"token"`
	Metadata []byte        `json:"metadata"`
}

// TokenBurnBody destroys one instance of a token class.
type TokenBurnBody struct {
	Token  types.TokenID `json:"token"`
	Serial int64         `json:"serial"`
}

// TokenAssociateBody opts an account in to holding a token class.
type TokenAssociateBody struct {
	Account types.AccountID `json:"account"`
	Token   types.TokenID   `json:"token"`
}

// NftTransfer moves ownership of one token instance.
type NftTransfer struct {
	Nft  types.NftID     `json:"nft"`
	From types.AccountID `json:"from"`
	To   types.AccountID `json:"to"`
}

// CoinTransfer credits (positive) or debits (negative) an account.
type CoinTransfer struct {
	Account types.AccountID `json:"account"`
	Amount  types.Amount    `json:"amount"`
}

// TransferBody moves token instances and currency atomically. The
// ledger commits all legs together or none.
type TransferBody struct {
	NftTransfers  []NftTransfer  `json:"nft_transfers,omitempty"`
	CoinTransfers []CoinTransfer `json:"coin_transfers,omitempty"`
}

// Signature is one signer's Schnorr signature over the transaction's
// signing hash.
type Signature struct {
	PubKey []byte `json:"pubkey"`
	Sig    []byte `json:"sig"`
}

// signatureJSON hex-encodes the byte fields for the wire.
type signatureJSON struct {
	PubKey string `json:"pubkey"`
	Sig    string `json:"sig"`
}

// MarshalJSON encodes the signature with hex byte fields.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(signatureJSON{
		PubKey: hex.EncodeToString(s.PubKey),
		Sig:    hex.EncodeToString(s.Sig),
	})
}

// UnmarshalJSON decodes a signature with hex byte fields.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var j signatureJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	pub, err := hex.DecodeString(j.PubKey)
	if err != nil {
		return err
	}
	sig, err := hex.DecodeString(j.Sig)
	if err != nil {
		return err
	}
	s.PubKey = pub
	s.Sig = sig
	return nil
}

// Transaction is one atomic ledger operation. Exactly one body field
// matching Kind is set. Signatures cover the SigningBytes hash.
type Transaction struct {
	Kind   Kind         `json:"kind"`
	Nonce  uint64       `json:"nonce"`
	MaxFee types.Amount `json:"max_fee"`

	AccountCreate  *AccountCreateBody  `json:"account_create,omitempty"`
	TokenCreate    *TokenCreateBody    `json:"token_create,omitempty"`
	TokenMint      *TokenMintBody      `json:"token_mint,omitempty"`
	TokenBurn      *TokenBurnBody      `json:"token_burn,omitempty"`
	TokenAssociate *TokenAssociateBody `json:"token_associate,omitempty"`
	Transfer       *TransferBody       `json:"transfer,omitempty"`

	Signatures []Signature `json:"signatures,omitempty"`
}

// newNonce returns a random 64-bit nonce so two otherwise identical
// transactions get distinct ids.
func newNonce() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failure is unrecoverable.
		panic(fmt.Sprintf("txn: read nonce: %v", err))
	}
	return binary.LittleEndian.Uint64(b[:])
}

// Hash computes the transaction id (BLAKE3 hash of the signing bytes).
// Signatures are excluded to avoid a circular dependency.
func (tx *Transaction) Hash() types.Hash {
	return crypto.Hash(tx.SigningBytes())
}

// SigningBytes returns the canonical byte representation used for
// signing. Layout: kind(1) | nonce(8) | max_fee(8) | body fields in
// declaration order, little-endian, strings and byte slices length-
// prefixed with uint32.
func (tx *Transaction) SigningBytes() []byte {
	var buf []byte
	buf = append(buf, byte(tx.Kind))
	buf = binary.LittleEndian.AppendUint64(buf, tx.Nonce)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(tx.MaxFee))

	switch tx.Kind {
	case KindAccountCreate:
		b := tx.AccountCreate
		buf = appendBytes(buf, b.PublicKey)
		buf = binary.LittleEndian.AppendUint64(buf, uint64(b.InitialBalance))

	case KindTokenCreate:
		b := tx.TokenCreate
		buf = appendString(buf, b.Name)
		buf = appendString(buf, b.Symbol)
		buf = appendEntity(buf, b.Treasury.Shard, b.Treasury.Realm, b.Treasury.Num)
		buf = binary.LittleEndian.AppendUint64(buf, uint64(b.MaxSupply))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b.CustomFees)))
		for _, fee := range b.CustomFees {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(fee.Numerator))
			buf = binary.LittleEndian.AppendUint64(buf, uint64(fee.Denominator))
			buf = appendEntity(buf, fee.Collector.Shard, fee.Collector.Realm, fee.Collector.Num)
			buf = binary.LittleEndian.AppendUint64(buf, uint64(fee.FallbackFee))
		}
		buf = appendBytes(buf, b.AdminKey)
		buf = appendBytes(buf, b.SupplyKey)
		buf = appendBytes(buf, b.FreezeKey)
		buf = appendBytes(buf, b.WipeKey)

	case KindTokenMint:
		b := tx.TokenMint
		buf = appendEntity(buf, b.Token.Shard, b.Token.Realm, b.Token.Num)
		buf = appendBytes(buf, b.Metadata)

	case KindTokenBurn:
		b := tx.TokenBurn
		buf = appendEntity(buf, b.Token.Shard, b.Token.Realm, b.Token.Num)
		buf = binary.LittleEndian.AppendUint64(buf, uint64(b.Serial))

	case KindTokenAssociate:
		b := tx.TokenAssociate
		buf = appendEntity(buf, b.Account.Shard, b.Account.Realm, b.Account.Num)
		buf = appendEntity(buf, b.Token.Shard, b.Token.Realm, b.Token.Num)

	case KindTransfer:
		b := tx.Transfer
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b.NftTransfers)))
		for _, nt := range b.NftTransfers {
			buf = appendEntity(buf, nt.Nft.Token.Shard, nt.Nft.Token.Realm, nt.Nft.Token.Num)
			buf = binary.LittleEndian.AppendUint64(buf, uint64(nt.Nft.Serial))
			buf = appendEntity(buf, nt.From.Shard, nt.From.Realm, nt.From.Num)
			buf = appendEntity(buf, nt.To.Shard, nt.To.Realm, nt.To.Num)
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b.CoinTransfers)))
		for _, ct := range b.CoinTransfers {
			buf = appendEntity(buf, ct.Account.Shard, ct.Account.Realm, ct.Account.Num)
			buf = binary.LittleEndian.AppendUint64(buf, uint64(ct.Amount))
		}
	}

	return buf
}

// Validate checks structural invariants before signing or submission.
// For transfers: currency legs must conserve (sum to zero) and every
// leg must reference a non-zero account.
func (tx *Transaction) Validate() error {
	if err := tx.checkBody(); err != nil {
		return err
	}

	switch tx.Kind {
	case KindAccountCreate:
		if len(tx.AccountCreate.PublicKey) != crypto.PublicKeySize {
			return fmt.Errorf("account create: public key must be %d bytes", crypto.PublicKeySize)
		}
		if tx.AccountCreate.InitialBalance < 0 {
			return fmt.Errorf("account create: negative initial balance")
		}

	case KindTokenCreate:
		b := tx.TokenCreate
		if b.Name == "" || b.Symbol == "" {
			return fmt.Errorf("token create: name and symbol are required")
		}
		if b.Treasury.IsZero() {
			return fmt.Errorf("token create: treasury account is required")
		}
		if b.MaxSupply <= 0 {
			return fmt.Errorf("token create: max supply must be positive")
		}

	case KindTokenMint:
		if tx.TokenMint.Token.IsZero() {
			return fmt.Errorf("token mint: token id is required")
		}
		if len(tx.TokenMint.Metadata) == 0 {
			return fmt.Errorf("token mint: metadata is required")
		}

	case KindTokenBurn:
		if tx.TokenBurn.Token.IsZero() {
			return fmt.Errorf("token burn: token id is required")
		}
		if tx.TokenBurn.Serial <= 0 {
			return fmt.Errorf("token burn: serial must be positive")
		}

	case KindTokenAssociate:
		if tx.TokenAssociate.Account.IsZero() || tx.TokenAssociate.Token.IsZero() {
			return fmt.Errorf("token associate: account and token are required")
		}

	case KindTransfer:
		b := tx.Transfer
		if len(b.NftTransfers) == 0 && len(b.CoinTransfers) == 0 {
			return fmt.Errorf("transfer: no legs")
		}
		var sum types.Amount
		for _, ct := range b.CoinTransfers {
			if ct.Account.IsZero() {
				return fmt.Errorf("transfer: currency leg with zero account")
			}
			sum += ct.Amount
		}
		if sum != 0 {
			return fmt.Errorf("transfer: currency legs sum to %d, want 0", sum)
		}
		for _, nt := range b.NftTransfers {
			if nt.Nft.Token.IsZero() || nt.Nft.Serial <= 0 {
				return fmt.Errorf("transfer: invalid nft id %s", nt.Nft)
			}
			if nt.From.IsZero() || nt.To.IsZero() {
				return fmt.Errorf("transfer: nft leg with zero account")
			}
			if nt.From == nt.To {
				return fmt.Errorf("transfer: nft leg from and to are the same account")
			}
		}
	}

	return nil
}

// checkBody verifies exactly the body matching Kind is present.
func (tx *Transaction) checkBody() error {
	bodies := 0
	if tx.AccountCreate != nil {
		bodies++
	}
	if tx.TokenCreate != nil {
		bodies++
	}
	if tx.TokenMint != nil {
		bodies++
	}
	if tx.TokenBurn != nil {
		bodies++
	}
	if tx.TokenAssociate != nil {
		bodies++
	}
	if tx.Transfer != nil {
		bodies++
	}
	if bodies != 1 {
		return fmt.Errorf("transaction must carry exactly one body, has %d", bodies)
	}

	var match bool
	switch tx.Kind {
	case KindAccountCreate:
		match = tx.AccountCreate != nil
	case KindTokenCreate:
		match = tx.TokenCreate != nil
	case KindTokenMint:
		match = tx.TokenMint != nil
	case KindTokenBurn:
		match = tx.TokenBurn != nil
	case KindTokenAssociate:
		match = tx.TokenAssociate != nil
	case KindTransfer:
		match = tx.Transfer != nil
	default:
		return fmt.Errorf("unknown transaction kind %d", tx.Kind)
	}
	if !match {
		return fmt.Errorf("body does not match kind %s", tx.Kind)
	}
	return nil
}

// VerifySignatures checks every attached signature against the signing
// hash. Used by ledger-side validation.
func (tx *Transaction) VerifySignatures() error {
	hash := tx.Hash()
	for i, sig := range tx.Signatures {
		if !crypto.VerifySignature(hash[:], sig.Sig, sig.PubKey) {
			return fmt.Errorf("signature %d does not verify", i)
		}
	}
	return nil
}

// SignedBy reports whether the transaction carries a signature from
// the given compressed public key.
func (tx *Transaction) SignedBy(pubKey []byte) bool {
	for _, sig := range tx.Signatures {
		if hex.EncodeToString(sig.PubKey) == hex.EncodeToString(pubKey) {
			return true
		}
	}
	return false
}

func appendBytes(buf, b []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

func appendString(buf []byte, s string) []byte {
	return appendBytes(buf, []byte(s))
}

func appendEntity(buf []byte, shard, realm, num uint64) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, shard)
	buf = binary.LittleEndian.AppendUint64(buf, realm)
	return binary.LittleEndian.AppendUint64(buf, num)
}
