package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

// Flags holds parsed command-line flags.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	// Core
	Network string
	DataDir string
	Config  string

	// Operator
	Operator string
	MaxFee   int64

	// Ledger
	Endpoint      string
	ReceiptWindow time.Duration
	PollInterval  time.Duration

	// Keystore
	KeystoreDir string
	Vault       string

	// Treasury
	TreasuryAccount string
	RecipientA      string
	RecipientB      string

	// RPC
	RPC     bool
	RPCAddr string
	RPCPort int

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args
	Args []string

	// Explicitly-set bool flags (for true/false overrides).
	SetRPC     bool
	SetLogJSON bool
}

// ParseFlags parses command-line flags.
func ParseFlags() *Flags {
	f := &Flags{}
	fs := flag.NewFlagSet("mintgated", flag.ContinueOnError)

	// Commands
	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")

	// Core
	fs.StringVar(&f.Network, "network", "", "Network type (mainnet or testnet)")
	fs.BoolVar(new(bool), "testnet", false, "Use testnet (shorthand for --network=testnet)")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	// Operator
	fs.StringVar(&f.Operator, "operator", "", "Operator account id (shard.realm.num)")
	fs.Int64Var(&f.MaxFee, "max-fee", 0, "Fee ceiling for signed transactions")

	// Ledger
	fs.StringVar(&f.Endpoint, "endpoint", "", "Ledger node JSON-RPC endpoint")
	fs.DurationVar(&f.ReceiptWindow, "receipt-window", 0, "Receipt wait window (e.g. 30s)")
	fs.DurationVar(&f.PollInterval, "poll-interval", 0, "Receipt poll interval (e.g. 500ms)")

	// Keystore
	fs.StringVar(&f.KeystoreDir, "keystore-dir", "", "Keystore directory")
	fs.StringVar(&f.Vault, "vault", "", "Vault name within the keystore")

	// Treasury
	fs.StringVar(&f.TreasuryAccount, "treasury", "", "Treasury account id")
	fs.StringVar(&f.RecipientA, "recipient-a", "", "Treasury split recipient A account id")
	fs.StringVar(&f.RecipientB, "recipient-b", "", "Treasury split recipient B account id")

	// RPC
	fs.BoolVar(&f.RPC, "rpc", true, "Enable RPC server")
	fs.StringVar(&f.RPCAddr, "rpc-addr", "", "RPC listen address")
	fs.IntVar(&f.RPCPort, "rpc-port", 0, "RPC listen port")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	fs.Usage = func() {
		printUsage()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Handle --testnet shorthand
	if isFlagSet(fs, "testnet") {
		f.Network = "testnet"
	}
	f.SetRPC = isFlagSet(fs, "rpc")
	f.SetLogJSON = isFlagSet(fs, "log-json")

	f.Args = fs.Args()

	// Detect unparsed flags caused by positional arguments stopping
	// the parser.
	for _, arg := range f.Args {
		if strings.HasPrefix(arg, "-") {
			fmt.Fprintf(os.Stderr, "Error: flag %q was not parsed (positional argument stopped parsing)\n", arg)
			os.Exit(1)
		}
	}

	return f
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	// Core
	if f.Network != "" {
		cfg.Network = NetworkType(f.Network)
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	// Operator
	if f.Operator != "" {
		cfg.Operator.Account = f.Operator
	}
	if f.MaxFee != 0 {
		cfg.Operator.MaxFee = f.MaxFee
	}

	// Ledger
	if f.Endpoint != "" {
		cfg.Ledger.Endpoint = f.Endpoint
	}
	if f.ReceiptWindow != 0 {
		cfg.Ledger.ReceiptWindow = f.ReceiptWindow
	}
	if f.PollInterval != 0 {
		cfg.Ledger.PollInterval = f.PollInterval
	}

	// Keystore
	if f.KeystoreDir != "" {
		cfg.Keystore.Dir = f.KeystoreDir
	}
	if f.Vault != "" {
		cfg.Keystore.Vault = f.Vault
	}

	// Treasury
	if f.TreasuryAccount != "" {
		cfg.Treasury.Account = f.TreasuryAccount
	}
	if f.RecipientA != "" {
		cfg.Treasury.RecipientA = f.RecipientA
	}
	if f.RecipientB != "" {
		cfg.Treasury.RecipientB = f.RecipientB
	}

	// RPC
	if f.SetRPC {
		cfg.RPC.Enabled = f.RPC
	}
	if f.RPCAddr != "" {
		cfg.RPC.Addr = f.RPCAddr
	}
	if f.RPCPort != 0 {
		cfg.RPC.Port = f.RPCPort
	}

	// Logging
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

// isFlagSet checks if a flag was explicitly set.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func printUsage() {
	usage := `Mintgate - token issuance and escrowed first-sale service

Usage:
  mintgated [options]
  mintgated --help

Commands:
  --help, -h      Show this help message
  --version, -v   Show version information

Core Options:
  --network       Network type: mainnet (default) or testnet
  --testnet       Shorthand for --network=testnet
  --datadir       Data directory (default: ~/.mintgate)
  --config, -c    Config file path (default: <datadir>/mintgate.conf)

Operator Options:
  --operator      Operator account id (shard.realm.num)
  --max-fee       Fee ceiling for signed transactions (default: 100)

Ledger Options:
  --endpoint        Ledger node JSON-RPC endpoint
  --receipt-window  Receipt wait window (default: 30s)
  --poll-interval   Receipt poll interval (default: 500ms)

Keystore Options:
  --keystore-dir  Keystore directory (default: <datadir>/<network>/keystore)
  --vault         Vault name within the keystore (default: operator)

Treasury Options:
  --treasury      Treasury account id
  --recipient-a   Treasury split recipient A
  --recipient-b   Treasury split recipient B

RPC Options:
  --rpc           Enable RPC server (default: true)
  --rpc-addr      RPC listen address (default: 127.0.0.1)
  --rpc-port      RPC port (mainnet: 7411, testnet: 7511)

Logging Options:
  --log-level     Log level: debug, info, warn, error (default: info)
  --log-file      Log file path (default: stdout)
  --log-json      Output logs as JSON

Examples:
  # Start against a local testnet node
  mintgated --testnet --operator=0.0.1001

  # Point at a remote ledger node
  mintgated --endpoint=http://node.example.com:8545 --operator=0.0.1001

Environment:
  Every config key can be set via MINTGATE_* variables, for example
  MINTGATE_OPERATOR_ACCOUNT or MINTGATE_LEDGER_ENDPOINT. A .env file
  in the working directory is loaded first. Precedence:
  defaults < config file < environment < flags.
`
	fmt.Print(usage)
}

// Load loads configuration with the following precedence:
// 1. Default values
// 2. Auto-create data dirs + default config (idempotent)
// 3. Config file
// 4. Environment (.env then MINTGATE_* variables)
// 5. Command-line flags
func Load() (*Config, *Flags, error) {
	flags := ParseFlags()

	// Handle help/version
	if flags.Help {
		printUsage()
		os.Exit(0)
	}
	if flags.Version {
		fmt.Println("mintgated version 0.1.0")
		os.Exit(0)
	}

	if err := LoadDotEnv(); err != nil {
		return nil, nil, err
	}

	// Determine network first (needed for defaults). The environment
	// may select it when no flag does.
	network := Mainnet
	if strings.ToLower(flags.Network) == "testnet" ||
		(flags.Network == "" && strings.ToLower(os.Getenv(envVarName("network"))) == "testnet") {
		network = Testnet
	}

	// Start with defaults
	cfg := Default(network)

	// Override datadir early so the config file is found.
	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	} else if dir := os.Getenv(envVarName("datadir")); dir != "" {
		cfg.DataDir = dir
	}

	// Auto-create data directories and default config on first start.
	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	// Determine config file path
	configPath := flags.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}

	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, nil, err
	}

	// Apply flags (highest precedence)
	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, flags, nil
}

// EnsureDataDirs creates the data directory structure and a default
// config file if they don't already exist. Idempotent; safe to call
// on every startup.
func EnsureDataDirs(cfg *Config) error {
	dirs := []string{
		cfg.DataDir,
		cfg.NetworkDataDir(),
		cfg.KeystoreDir(),
		cfg.AuditDir(),
		cfg.LogsDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath, cfg.Network); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}

	return nil
}
