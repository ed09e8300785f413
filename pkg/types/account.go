// Package types defines ledger-native identifier and amount types.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// AccountID identifies a ledger account as a shard.realm.num triple,
// e.g. "0.0.1234". The zero value is not a valid account.
type AccountID struct {
	Shard uint64 `json:"shard"`
	Realm uint64 `json:"realm"`
	Num   uint64 `json:"num"`
}

// ParseAccountID parses a "shard.realm.num" string.
func ParseAccountID(s string) (AccountID, error) {
	shard, realm, num, err := parseEntityID(s)
	if err != nil {
		return AccountID{}, fmt.Errorf("parse account id %q: %w", s, err)
	}
	return AccountID{Shard: shard, Realm: realm, Num: num}, nil
}

// String returns the "shard.realm.num" form.
func (a AccountID) String() string {
	return formatEntityID(a.Shard, a.Realm, a.Num)
}

// IsZero reports whether this is the zero (unset) account id.
func (a AccountID) IsZero() bool {
	return a == AccountID{}
}

// MarshalText implements encoding.TextMarshaler.
func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AccountID) UnmarshalText(text []byte) error {
	id, err := ParseAccountID(string(text))
	if err != nil {
		return err
	}
	*a = id
	return nil
}

// parseEntityID parses the shared shard.realm.num layout used by
// account and token identifiers.
func parseEntityID(s string) (shard, realm, num uint64, err error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("expected shard.realm.num")
	}
	vals := make([]uint64, 3)
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("component %d: %w", i, err)
		}
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], nil
}

func formatEntityID(shard, realm, num uint64) string {
	return strconv.FormatUint(shard, 10) + "." +
		strconv.FormatUint(realm, 10) + "." +
		strconv.FormatUint(num, 10)
}
