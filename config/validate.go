package config

import (
	"fmt"

	"github.com/mintgate-io/mintgate/pkg/types"
)

// Validate checks the loaded config for obvious operator mistakes.
// Errors here are fatal at startup; nothing revalidates per call.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if cfg.Operator.MaxFee <= 0 {
		return fmt.Errorf("operator.maxfee must be positive")
	}
	if cfg.Ledger.Endpoint == "" {
		return fmt.Errorf("ledger.endpoint is required")
	}
	if cfg.Ledger.ReceiptWindow <= 0 {
		return fmt.Errorf("ledger.receipt_window must be positive")
	}
	if cfg.Ledger.PollInterval <= 0 {
		return fmt.Errorf("ledger.poll_interval must be positive")
	}
	if cfg.Ledger.PollInterval >= cfg.Ledger.ReceiptWindow {
		return fmt.Errorf("ledger.poll_interval must be shorter than ledger.receipt_window")
	}
	if cfg.Keystore.Vault == "" {
		return fmt.Errorf("keystore.vault is required")
	}
	if cfg.RPC.Port < 0 || cfg.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port must be in range [0, 65535]")
	}

	if cfg.Operator.Account != "" {
		if err := validateAccount(cfg.Operator.Account, "operator.account"); err != nil {
			return err
		}
	}

	// Treasury accounts are all-or-nothing. A partial set is an
	// operator mistake, not a disabled feature.
	if cfg.Treasury.Enabled() {
		fields := map[string]string{
			"treasury.account":     cfg.Treasury.Account,
			"treasury.recipient_a": cfg.Treasury.RecipientA,
			"treasury.recipient_b": cfg.Treasury.RecipientB,
		}
		for field, value := range fields {
			if value == "" {
				return fmt.Errorf("%s is required when any treasury account is set", field)
			}
			if err := validateAccount(value, field); err != nil {
				return err
			}
		}
	}

	return nil
}

func validateAccount(s, field string) error {
	if _, err := types.ParseAccountID(s); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}
