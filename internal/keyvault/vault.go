package keyvault

import (
	"fmt"

	"github.com/tyler-smith/go-bip32"

	"github.com/mintgate-io/mintgate/internal/ledger"
	klog "github.com/mintgate-io/mintgate/internal/log"
	"github.com/mintgate-io/mintgate/pkg/crypto"
)

// Role names the purpose a derived key serves.
type Role string

// The service's key roles. Each role derives its own child key so a
// compromised key never exposes a sibling.
const (
	RoleOperator    Role = "operator"
	RoleAdmin       Role = "admin"
	RoleSupply      Role = "supply"
	RoleFreeze      Role = "freeze"
	RoleWipe        Role = "wipe"
	RoleFirstSeller Role = "first_seller"
	RoleTreasury    Role = "treasury"
	RoleFeeA        Role = "fee_a"
	RoleFeeB        Role = "fee_b"
)

// roleIndexes fixes each role's BIP-32 child index. Indexes are part
// of the vault format: changing one orphans every key derived with it.
var roleIndexes = map[Role]uint32{
	RoleOperator:    0,
	RoleAdmin:       1,
	RoleSupply:      2,
	RoleFreeze:      3,
	RoleWipe:        4,
	RoleFirstSeller: 5,
	RoleTreasury:    6,
	RoleFeeA:        7,
	RoleFeeB:        8,
}

// Derivation path: m/44'/5757'/role'
const (
	purposeBIP44 = bip32.FirstHardenedChild + 44
	coinType     = bip32.FirstHardenedChild + 5757
)

// Vault holds the derived signer for every role. Construct it once at
// startup; components receive it by injection and never re-derive.
type Vault struct {
	signers map[Role]*crypto.PrivateKey
}

// FromSeed derives all role keys from a vault seed.
func FromSeed(seed []byte) (*Vault, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}

	signers := make(map[Role]*crypto.PrivateKey, len(roleIndexes))
	for role, index := range roleIndexes {
		signer, err := deriveRole(master, index)
		if err != nil {
			return nil, fmt.Errorf("derive %s key: %w", role, err)
		}
		signers[role] = signer
	}

	v := &Vault{signers: signers}
	klog.Vault.Debug().Int("roles", len(signers)).Msg("vault keys derived")
	return v, nil
}

// FromMnemonic derives a vault directly from a recovery phrase.
func FromMnemonic(mnemonic, passphrase string) (*Vault, error) {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	return FromSeed(seed)
}

func deriveRole(master *bip32.Key, index uint32) (*crypto.PrivateKey, error) {
	key := master
	for _, idx := range []uint32{purposeBIP44, coinType, bip32.FirstHardenedChild + index} {
		child, err := key.NewChildKey(idx)
		if err != nil {
			return nil, fmt.Errorf("derive child %d: %w", idx, err)
		}
		key = child
	}
	// bip32 private keys carry a leading zero pad byte.
	raw := key.Key
	if len(raw) == 33 && raw[0] == 0 {
		raw = raw[1:]
	}
	return crypto.PrivateKeyFromBytes(raw)
}

// Signer returns the private key for a role. An unknown role is a
// configuration failure, not a request failure.
func (v *Vault) Signer(role Role) (*crypto.PrivateKey, error) {
	signer, ok := v.signers[role]
	if !ok {
		return nil, &ledger.ConfigError{Key: "keyvault.role." + string(role)}
	}
	return signer, nil
}

// PublicKey returns the compressed public key for a role.
func (v *Vault) PublicKey(role Role) ([]byte, error) {
	signer, err := v.Signer(role)
	if err != nil {
		return nil, err
	}
	return signer.PublicKey(), nil
}

// Zero wipes all private key material. The vault is unusable after.
func (v *Vault) Zero() {
	for _, signer := range v.signers {
		signer.Zero()
	}
	v.signers = nil
}
