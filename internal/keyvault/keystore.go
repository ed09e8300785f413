package keyvault

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// vaultFile is the on-disk JSON format. Only the sealed seed and
// public role metadata are stored; private keys are rederived on open.
type vaultFile struct {
	Version    int               `json:"version"`
	CreatedAt  time.Time         `json:"created_at"`
	SealedSeed []byte            `json:"sealed_seed"`
	Roles      map[string]string `json:"roles"` // role -> hex pubkey
}

// Keystore reads and writes sealed vault files in a directory.
type Keystore struct {
	dir string
}

// NewKeystore creates a keystore rooted at dir, creating it if needed.
func NewKeystore(dir string) (*Keystore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{dir: dir}, nil
}

func (ks *Keystore) vaultPath(name string) string {
	return filepath.Join(ks.dir, name+".vault")
}

// Exists reports whether a vault file with the given name is present.
func (ks *Keystore) Exists(name string) bool {
	_, err := os.Stat(ks.vaultPath(name))
	return err == nil
}

// Create seals the seed under the passphrase and writes a new vault
// file. Refuses to overwrite an existing vault.
func (ks *Keystore) Create(name string, seed, passphrase []byte, params SealParams) error {
	path := ks.vaultPath(name)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("vault %q already exists", name)
	}

	sealed, err := Seal(seed, passphrase, params)
	if err != nil {
		return fmt.Errorf("seal seed: %w", err)
	}

	// Record the public key per role so operators can inspect the
	// vault without unsealing it.
	vault, err := FromSeed(seed)
	if err != nil {
		return err
	}
	defer vault.Zero()
	roles := make(map[string]string, len(roleIndexes))
	for role := range roleIndexes {
		signer, err := vault.Signer(role)
		if err != nil {
			return err
		}
		roles[string(role)] = signer.PublicKeyHex()
	}

	vf := vaultFile{
		Version:    1,
		CreatedAt:  time.Now().UTC(),
		SealedSeed: sealed,
		Roles:      roles,
	}

	data, err := json.MarshalIndent(&vf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal vault: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write vault: %w", err)
	}
	return nil
}

// Open unseals a vault file and derives all role keys.
func (ks *Keystore) Open(name string, passphrase []byte) (*Vault, error) {
	vf, err := ks.readFile(ks.vaultPath(name))
	if err != nil {
		return nil, err
	}

	seed, err := Unseal(vf.SealedSeed, passphrase)
	if err != nil {
		return nil, err
	}
	defer zero(seed)

	return FromSeed(seed)
}

// Roles returns the public key per role without unsealing.
func (ks *Keystore) Roles(name string) (map[string]string, error) {
	vf, err := ks.readFile(ks.vaultPath(name))
	if err != nil {
		return nil, err
	}
	return vf.Roles, nil
}

// List returns the names of all vault files in the keystore.
func (ks *Keystore) List() ([]string, error) {
	entries, err := os.ReadDir(ks.dir)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if ext := filepath.Ext(name); ext == ".vault" {
			names = append(names, name[:len(name)-len(ext)])
		}
	}
	return names, nil
}

func (ks *Keystore) readFile(path string) (*vaultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vault: %w", err)
	}
	var vf vaultFile
	if err := json.Unmarshal(data, &vf); err != nil {
		return nil, fmt.Errorf("parse vault: %w", err)
	}
	if vf.Version != 1 {
		return nil, fmt.Errorf("unsupported vault version: %d", vf.Version)
	}
	return &vf, nil
}
