package config

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFile loads configuration from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key = value
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a config value by key.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	// Core
	case "network":
		cfg.Network = NetworkType(value)
	case "datadir":
		cfg.DataDir = value

	// Operator
	case "operator.account", "operator":
		cfg.Operator.Account = value
	case "operator.maxfee":
		fee, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Operator.MaxFee = fee

	// Ledger
	case "ledger.endpoint":
		cfg.Ledger.Endpoint = value
	case "ledger.receipt_window":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Ledger.ReceiptWindow = d
	case "ledger.poll_interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Ledger.PollInterval = d

	// Keystore
	case "keystore.dir":
		cfg.Keystore.Dir = value
	case "keystore.vault":
		cfg.Keystore.Vault = value

	// Treasury
	case "treasury.account":
		cfg.Treasury.Account = value
	case "treasury.recipient_a":
		cfg.Treasury.RecipientA = value
	case "treasury.recipient_b":
		cfg.Treasury.RecipientB = value

	// RPC
	case "rpc.enabled", "rpc":
		cfg.RPC.Enabled = parseBool(value)
	case "rpc.addr":
		cfg.RPC.Addr = value
	case "rpc.port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.RPC.Port = port

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// WriteDefaultConfig writes a default configuration file.
func WriteDefaultConfig(path string, network NetworkType) error {
	cfg := Default(network)
	content := `# Mintgate Service Configuration

# Network: mainnet or testnet
network = ` + string(network) + `

# Data directory (default: ~/.mintgate)
# datadir = ~/.mintgate

# ============================================================================
# Operator
# ============================================================================

# The ledger account that pays for and signs service transactions.
# operator.account = 0.0.1001

# Fee ceiling for every transaction the service signs.
operator.maxfee = ` + strconv.FormatInt(cfg.Operator.MaxFee, 10) + `

# ============================================================================
# Ledger Node
# ============================================================================

ledger.endpoint = ` + cfg.Ledger.Endpoint + `

# How long to wait for a receipt before the operation times out.
ledger.receipt_window = 30s
ledger.poll_interval = 500ms

# ============================================================================
# Key Vault
# ============================================================================

# keystore.dir = <datadir>/<network>/keystore
keystore.vault = operator

# ============================================================================
# Treasury Distribution
# ============================================================================

# All three accounts must be set for treasury_split to be available.
# treasury.account = 0.0.2001
# treasury.recipient_a = 0.0.2002
# treasury.recipient_b = 0.0.2003

# ============================================================================
# RPC Server
# ============================================================================

rpc.enabled = true
rpc.addr = ` + cfg.RPC.Addr + `
rpc.port = ` + strconv.Itoa(cfg.RPC.Port) + `

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}
