package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// envPrefix namespaces the environment overlay. A config key maps to
// its variable by uppercasing and replacing separators, for example
// operator.account becomes MINTGATE_OPERATOR_ACCOUNT.
const envPrefix = "MINTGATE_"

// envKeys lists the config keys the environment overlay may set.
var envKeys = []string{
	"network",
	"datadir",
	"operator.account",
	"operator.maxfee",
	"ledger.endpoint",
	"ledger.receipt_window",
	"ledger.poll_interval",
	"keystore.dir",
	"keystore.vault",
	"treasury.account",
	"treasury.recipient_a",
	"treasury.recipient_b",
	"rpc.enabled",
	"rpc.addr",
	"rpc.port",
	"log.level",
	"log.file",
	"log.json",
}

// LoadDotEnv loads a .env file from the working directory into the
// process environment. A missing file is not an error; a present but
// malformed one is.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// ApplyEnv applies MINTGATE_* environment variables to a Config
// struct. Called once at startup; nothing reads the environment after
// this.
func ApplyEnv(cfg *Config) error {
	for _, key := range envKeys {
		value, ok := os.LookupEnv(envVarName(key))
		if !ok {
			continue
		}
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("env %s: %w", envVarName(key), err)
		}
	}
	return nil
}

func envVarName(key string) string {
	name := strings.NewReplacer(".", "_", "-", "_").Replace(key)
	return envPrefix + strings.ToUpper(name)
}
