package txn

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/mintgate-io/mintgate/pkg/crypto"
	"github.com/mintgate-io/mintgate/pkg/types"
)

func testKey(t *testing.T) *crypto.PrivateKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	return key
}

func TestSigningBytes_Deterministic(t *testing.T) {
	tx := NewTokenMint(types.TokenID{Shard: 0, Realm: 0, Num: 5005}, []byte("ipfs://abc"), 100)

	b1 := tx.SigningBytes()
	b2 := tx.SigningBytes()
	if !bytes.Equal(b1, b2) {
		t.Error("SigningBytes should be deterministic")
	}
	if tx.Hash() != tx.Hash() {
		t.Error("Hash should be deterministic")
	}
}

func TestSigningBytes_NonceDistinguishes(t *testing.T) {
	tx1 := NewTokenMint(types.TokenID{Shard: 0, Realm: 0, Num: 5005}, []byte("ipfs://abc"), 100)
	tx2 := NewTokenMint(types.TokenID{Shard: 0, Realm: 0, Num: 5005}, []byte("ipfs://abc"), 100)
	if tx1.Hash() == tx2.Hash() {
		t.Error("two builds of the same operation should get distinct ids")
	}
}

func TestSigningBytes_ExcludesSignatures(t *testing.T) {
	key := testKey(t)
	tx := NewTokenBurn(types.TokenID{Shard: 0, Realm: 0, Num: 5005}, 1, 100)
	before := tx.Hash()

	sig, err := key.Sign(before[:])
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	tx.Signatures = append(tx.Signatures, Signature{PubKey: key.PublicKey(), Sig: sig})

	if tx.Hash() != before {
		t.Error("attaching a signature must not change the transaction id")
	}
}

func TestValidate_Transfer_Conservation(t *testing.T) {
	seller := types.AccountID{Shard: 0, Realm: 0, Num: 100}
	buyer := types.AccountID{Shard: 0, Realm: 0, Num: 200}
	nft := types.NftID{Token: types.TokenID{Shard: 0, Realm: 0, Num: 5005}, Serial: 1}

	tests := []struct {
		name    string
		build   func() *Transaction
		wantErr bool
	}{
		{
			name: "balanced",
			build: func() *Transaction {
				return NewTransfer(100).
					AddNftTransfer(nft, seller, buyer).
					AddCoinTransfer(seller, 500).
					AddCoinTransfer(buyer, -500).
					Build()
			},
		},
		{
			name: "unbalanced",
			build: func() *Transaction {
				return NewTransfer(100).
					AddNftTransfer(nft, seller, buyer).
					AddCoinTransfer(seller, 500).
					AddCoinTransfer(buyer, -400).
					Build()
			},
			wantErr: true,
		},
		{
			name: "no legs",
			build: func() *Transaction {
				return NewTransfer(100).Build()
			},
			wantErr: true,
		},
		{
			name: "self transfer",
			build: func() *Transaction {
				return NewTransfer(100).
					AddNftTransfer(nft, seller, seller).
					AddCoinTransfer(seller, 0).
					Build()
			},
			wantErr: true,
		},
		{
			name: "zero account leg",
			build: func() *Transaction {
				return NewTransfer(100).
					AddCoinTransfer(types.AccountID{}, 500).
					AddCoinTransfer(buyer, -500).
					Build()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build().Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_BodyMismatch(t *testing.T) {
	tx := NewTokenMint(types.TokenID{Shard: 0, Realm: 0, Num: 5005}, []byte("x"), 100)
	tx.Kind = KindTokenBurn
	if err := tx.Validate(); err == nil {
		t.Error("expected error when body does not match kind")
	}

	tx2 := NewTokenMint(types.TokenID{Shard: 0, Realm: 0, Num: 5005}, []byte("x"), 100)
	tx2.TokenBurn = &TokenBurnBody{Token: types.TokenID{Shard: 0, Realm: 0, Num: 5005}, Serial: 1}
	if err := tx2.Validate(); err == nil {
		t.Error("expected error for two bodies")
	}
}

func TestVerifySignatures(t *testing.T) {
	key := testKey(t)
	other := testKey(t)

	tx := NewTokenBurn(types.TokenID{Shard: 0, Realm: 0, Num: 5005}, 2, 100)
	hash := tx.Hash()
	sig, err := key.Sign(hash[:])
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	tx.Signatures = []Signature{{PubKey: key.PublicKey(), Sig: sig}}

	if err := tx.VerifySignatures(); err != nil {
		t.Errorf("VerifySignatures: %v", err)
	}

	// A signature attributed to the wrong key must fail.
	tx.Signatures[0].PubKey = other.PublicKey()
	if err := tx.VerifySignatures(); err == nil {
		t.Error("expected verification failure for mismatched key")
	}
}

func TestTransaction_JSONRoundTrip(t *testing.T) {
	key := testKey(t)
	tx := NewTransfer(100).
		AddNftTransfer(types.NftID{Token: types.TokenID{Shard: 0, Realm: 0, Num: 5005}, Serial: 1},
			types.AccountID{Shard: 0, Realm: 0, Num: 100}, types.AccountID{Shard: 0, Realm: 0, Num: 200}).
		AddCoinTransfer(types.AccountID{Shard: 0, Realm: 0, Num: 100}, 500).
		AddCoinTransfer(types.AccountID{Shard: 0, Realm: 0, Num: 200}, -500).
		Build()
	hash := tx.Hash()
	sig, err := key.Sign(hash[:])
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	tx.Signatures = []Signature{{PubKey: key.PublicKey(), Sig: sig}}

	data, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Transaction
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.Hash() != tx.Hash() {
		t.Error("decoded transaction id differs")
	}
	if err := decoded.VerifySignatures(); err != nil {
		t.Errorf("decoded signatures should verify: %v", err)
	}
}
