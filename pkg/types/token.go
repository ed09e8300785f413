package types

import "fmt"

// TokenID identifies a non-fungible token class, using the same
// shard.realm.num layout as accounts.
type TokenID struct {
	Shard uint64 `json:"shard"`
	Realm uint64 `json:"realm"`
	Num   uint64 `json:"num"`
}

// ParseTokenID parses a "shard.realm.num" string.
func ParseTokenID(s string) (TokenID, error) {
	shard, realm, num, err := parseEntityID(s)
	if err != nil {
		return TokenID{}, fmt.Errorf("parse token id %q: %w", s, err)
	}
	return TokenID{Shard: shard, Realm: realm, Num: num}, nil
}

// String returns the "shard.realm.num" form.
func (t TokenID) String() string {
	return formatEntityID(t.Shard, t.Realm, t.Num)
}

// IsZero reports whether this is the zero (unset) token id.
func (t TokenID) IsZero() bool {
	return t == TokenID{}
}

// MarshalText implements encoding.TextMarshaler.
func (t TokenID) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TokenID) UnmarshalText(text []byte) error {
	id, err := ParseTokenID(string(text))
	if err != nil {
		return err
	}
	*t = id
	return nil
}

// NftID identifies one minted instance within a token class.
type NftID struct {
	Token  TokenID `json:"token"`
	Serial int64   `json:"serial"`
}

// String returns "shard.realm.num/serial".
func (n NftID) String() string {
	return fmt.Sprintf("%s/%d", n.Token, n.Serial)
}

// CustomFee is a royalty fee attached to a token class at creation.
// The fraction Numerator/Denominator of every transfer payment is
// redirected to the collector; FallbackFee is charged to the receiver
// when the transfer carries no explicit payment.
type CustomFee struct {
	Numerator   int64     `json:"numerator"`
	Denominator int64     `json:"denominator"`
	Collector   AccountID `json:"collector"`
	FallbackFee Amount    `json:"fallback_fee"`
}
