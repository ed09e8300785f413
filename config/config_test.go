package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mintgate.conf")
	content := `# comment
network = testnet
operator.account = "0.0.1001"
operator.maxfee = 250
ledger.endpoint = http://node:8645
ledger.receipt_window = 45s
ledger.poll_interval = 250ms
treasury.account = 0.0.2001
treasury.recipient_a = 0.0.2002
treasury.recipient_b = 0.0.2003
rpc.port = 9000
log.json = true
unknown.key = ignored
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write conf: %v", err)
	}

	values, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	cfg := DefaultMainnet()
	if err := ApplyFileConfig(cfg, values); err != nil {
		t.Fatalf("ApplyFileConfig: %v", err)
	}

	if cfg.Network != Testnet {
		t.Errorf("Network = %q, want testnet", cfg.Network)
	}
	if cfg.Operator.Account != "0.0.1001" {
		t.Errorf("Operator.Account = %q (quotes should be stripped)", cfg.Operator.Account)
	}
	if cfg.Operator.MaxFee != 250 {
		t.Errorf("Operator.MaxFee = %d, want 250", cfg.Operator.MaxFee)
	}
	if cfg.Ledger.Endpoint != "http://node:8645" {
		t.Errorf("Ledger.Endpoint = %q", cfg.Ledger.Endpoint)
	}
	if cfg.Ledger.ReceiptWindow != 45*time.Second {
		t.Errorf("ReceiptWindow = %v, want 45s", cfg.Ledger.ReceiptWindow)
	}
	if cfg.Ledger.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval = %v, want 250ms", cfg.Ledger.PollInterval)
	}
	if !cfg.Treasury.Enabled() || cfg.Treasury.RecipientB != "0.0.2003" {
		t.Errorf("Treasury = %+v", cfg.Treasury)
	}
	if cfg.RPC.Port != 9000 {
		t.Errorf("RPC.Port = %d, want 9000", cfg.RPC.Port)
	}
	if !cfg.Log.JSON {
		t.Error("Log.JSON should be true")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	values, err := LoadFile(filepath.Join(t.TempDir(), "absent.conf"))
	if err != nil {
		t.Fatalf("LoadFile on missing file: %v", err)
	}
	if len(values) != 0 {
		t.Errorf("values = %v, want empty", values)
	}
}

func TestLoadFile_BadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mintgate.conf")
	if err := os.WriteFile(path, []byte("no equals sign here\n"), 0644); err != nil {
		t.Fatalf("write conf: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile should reject a line without key = value")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("MINTGATE_OPERATOR_ACCOUNT", "0.0.7777")
	t.Setenv("MINTGATE_LEDGER_ENDPOINT", "http://env-node:8545")
	t.Setenv("MINTGATE_RPC_ENABLED", "false")
	t.Setenv("MINTGATE_OPERATOR_MAXFEE", "42")

	cfg := DefaultMainnet()
	if err := ApplyEnv(cfg); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Operator.Account != "0.0.7777" {
		t.Errorf("Operator.Account = %q", cfg.Operator.Account)
	}
	if cfg.Ledger.Endpoint != "http://env-node:8545" {
		t.Errorf("Ledger.Endpoint = %q", cfg.Ledger.Endpoint)
	}
	if cfg.RPC.Enabled {
		t.Error("RPC.Enabled should be false")
	}
	if cfg.Operator.MaxFee != 42 {
		t.Errorf("Operator.MaxFee = %d, want 42", cfg.Operator.MaxFee)
	}
}

func TestApplyEnv_BadValue(t *testing.T) {
	t.Setenv("MINTGATE_OPERATOR_MAXFEE", "not-a-number")
	if err := ApplyEnv(DefaultMainnet()); err == nil {
		t.Error("ApplyEnv should reject a non-numeric fee")
	}
}

func TestDefaults(t *testing.T) {
	mainnet := Default(Mainnet)
	testnet := Default(Testnet)

	if mainnet.Network != Mainnet || testnet.Network != Testnet {
		t.Fatalf("networks = %q/%q", mainnet.Network, testnet.Network)
	}
	if mainnet.RPC.Port == testnet.RPC.Port {
		t.Error("mainnet and testnet must not share an RPC port")
	}
	if mainnet.Operator.MaxFee != DefaultMaxFee {
		t.Errorf("MaxFee = %d, want %d", mainnet.Operator.MaxFee, DefaultMaxFee)
	}
	if mainnet.Ledger.ReceiptWindow != DefaultReceiptWindow {
		t.Errorf("ReceiptWindow = %v", mainnet.Ledger.ReceiptWindow)
	}
	if mainnet.Treasury.Enabled() {
		t.Error("treasury should be disabled by default")
	}
	if err := Validate(mainnet); err != nil {
		t.Errorf("default mainnet config invalid: %v", err)
	}
	if err := Validate(testnet); err != nil {
		t.Errorf("default testnet config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad network", func(c *Config) { c.Network = "devnet" }},
		{"zero max fee", func(c *Config) { c.Operator.MaxFee = 0 }},
		{"negative max fee", func(c *Config) { c.Operator.MaxFee = -1 }},
		{"empty endpoint", func(c *Config) { c.Ledger.Endpoint = "" }},
		{"zero receipt window", func(c *Config) { c.Ledger.ReceiptWindow = 0 }},
		{"poll longer than window", func(c *Config) {
			c.Ledger.PollInterval = time.Minute
		}},
		{"empty vault name", func(c *Config) { c.Keystore.Vault = "" }},
		{"rpc port out of range", func(c *Config) { c.RPC.Port = 70000 }},
		{"malformed operator account", func(c *Config) { c.Operator.Account = "xyz" }},
		{"partial treasury", func(c *Config) { c.Treasury.Account = "0.0.2001" }},
		{"malformed treasury recipient", func(c *Config) {
			c.Treasury.Account = "0.0.2001"
			c.Treasury.RecipientA = "bad"
			c.Treasury.RecipientB = "0.0.2003"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMainnet()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("Validate should reject this config")
			}
		})
	}
}

func TestValidate_FullTreasury(t *testing.T) {
	cfg := DefaultMainnet()
	cfg.Treasury = TreasuryConfig{
		Account:    "0.0.2001",
		RecipientA: "0.0.2002",
		RecipientB: "0.0.2003",
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestEnsureDataDirs(t *testing.T) {
	cfg := DefaultTestnet()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")

	if err := EnsureDataDirs(cfg); err != nil {
		t.Fatalf("EnsureDataDirs: %v", err)
	}
	for _, dir := range []string{cfg.NetworkDataDir(), cfg.KeystoreDir(), cfg.AuditDir(), cfg.LogsDir()} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}

	// The generated default config file must parse and validate.
	values, err := LoadFile(cfg.ConfigFile())
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	parsed := Default(cfg.Network)
	parsed.DataDir = cfg.DataDir
	if err := ApplyFileConfig(parsed, values); err != nil {
		t.Fatalf("ApplyFileConfig: %v", err)
	}
	if err := Validate(parsed); err != nil {
		t.Errorf("generated config invalid: %v", err)
	}

	// Idempotent on a second start.
	if err := EnsureDataDirs(cfg); err != nil {
		t.Errorf("second EnsureDataDirs: %v", err)
	}
}

func TestKeystoreDirOverride(t *testing.T) {
	cfg := DefaultMainnet()
	if got := cfg.KeystoreDir(); got != filepath.Join(cfg.NetworkDataDir(), "keystore") {
		t.Errorf("KeystoreDir = %q", got)
	}
	cfg.Keystore.Dir = "/var/lib/mintgate/keys"
	if got := cfg.KeystoreDir(); got != "/var/lib/mintgate/keys" {
		t.Errorf("KeystoreDir override = %q", got)
	}
}
