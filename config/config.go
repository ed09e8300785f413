// Package config handles application configuration.
//
// Configuration is loaded exactly once at startup, in this order:
// defaults for the selected network, the .conf file, environment
// variables, then command-line flags. The resulting Config is treated
// as immutable and threaded through constructors; no component reads
// the environment after startup.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Config holds the service runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Operator identity on the ledger
	Operator OperatorConfig

	// Ledger node connection
	Ledger LedgerConfig

	// Key vault
	Keystore KeystoreConfig

	// Treasury distribution (optional; split disabled when empty)
	Treasury TreasuryConfig

	// RPC server
	RPC RPCConfig

	// Logging
	Log LogConfig
}

// OperatorConfig identifies the account that pays for and signs
// service-initiated transactions.
type OperatorConfig struct {
	Account string `conf:"operator.account"`
	MaxFee  int64  `conf:"operator.maxfee"`
}

// LedgerConfig holds ledger node connection settings.
type LedgerConfig struct {
	Endpoint      string        `conf:"ledger.endpoint"`
	ReceiptWindow time.Duration `conf:"ledger.receipt_window"`
	PollInterval  time.Duration `conf:"ledger.poll_interval"`
}

// KeystoreConfig holds vault location settings.
type KeystoreConfig struct {
	Dir   string `conf:"keystore.dir"`
	Vault string `conf:"keystore.vault"`
}

// TreasuryConfig holds the treasury split accounts. All three must be
// set together or the split operation is disabled.
type TreasuryConfig struct {
	Account    string `conf:"treasury.account"`
	RecipientA string `conf:"treasury.recipient_a"`
	RecipientB string `conf:"treasury.recipient_b"`
}

// RPCConfig holds RPC server settings.
type RPCConfig struct {
	Enabled bool   `conf:"rpc.enabled"`
	Addr    string `conf:"rpc.addr"`
	Port    int    `conf:"rpc.port"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// Enabled reports whether treasury distribution is configured.
func (t TreasuryConfig) Enabled() bool {
	return t.Account != "" || t.RecipientA != "" || t.RecipientB != ""
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.mintgate
//	macOS:   ~/Library/Application Support/Mintgate
//	Windows: %APPDATA%\Mintgate
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mintgate"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Mintgate")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Mintgate")
		}
		return filepath.Join(home, "AppData", "Roaming", "Mintgate")
	default:
		return filepath.Join(home, ".mintgate")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// KeystoreDir returns the keystore directory, honoring an explicit
// override from the config.
func (c *Config) KeystoreDir() string {
	if c.Keystore.Dir != "" {
		return c.Keystore.Dir
	}
	return filepath.Join(c.NetworkDataDir(), "keystore")
}

// AuditDir returns the audit journal database directory.
func (c *Config) AuditDir() string {
	return filepath.Join(c.NetworkDataDir(), "audit")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "mintgate.conf")
}

// RPCListenAddr returns the host:port the RPC server binds.
func (c *Config) RPCListenAddr() string {
	return joinHostPort(c.RPC.Addr, c.RPC.Port)
}
