package config

import "time"

// Default fee ceiling and receipt timing. Operators override these in
// the config file; the ceiling bounds every transaction the service
// signs.
const (
	DefaultMaxFee        = 100
	DefaultReceiptWindow = 30 * time.Second
	DefaultPollInterval  = 500 * time.Millisecond
)

// DefaultMainnet returns the default configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		Operator: OperatorConfig{
			MaxFee: DefaultMaxFee,
		},
		Ledger: LedgerConfig{
			Endpoint:      "http://127.0.0.1:8545",
			ReceiptWindow: DefaultReceiptWindow,
			PollInterval:  DefaultPollInterval,
		},
		Keystore: KeystoreConfig{
			Vault: "operator",
		},
		RPC: RPCConfig{
			Enabled: true,
			Addr:    "127.0.0.1",
			Port:    7411,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.Ledger.Endpoint = "http://127.0.0.1:8645"
	cfg.RPC.Port = 7511
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	default:
		return DefaultMainnet()
	}
}
