// Package daemon assembles the full service from its configuration:
// logger, audit journal, key vault, ledger gateway, components, and
// the RPC server. It can be embedded in any binary.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mintgate-io/mintgate/config"
	"github.com/mintgate-io/mintgate/internal/account"
	"github.com/mintgate-io/mintgate/internal/audit"
	"github.com/mintgate-io/mintgate/internal/escrow"
	"github.com/mintgate-io/mintgate/internal/keyvault"
	"github.com/mintgate-io/mintgate/internal/ledger"
	klog "github.com/mintgate-io/mintgate/internal/log"
	"github.com/mintgate-io/mintgate/internal/rpc"
	"github.com/mintgate-io/mintgate/internal/storage"
	"github.com/mintgate-io/mintgate/internal/token"
	"github.com/mintgate-io/mintgate/internal/treasury"
	"github.com/mintgate-io/mintgate/pkg/types"
)

// Daemon is a fully-initialized service instance.
type Daemon struct {
	cfg    *config.Config
	logger zerolog.Logger

	db      storage.DB
	journal *audit.Journal
	vault   *keyvault.Vault
	gateway *ledger.Client

	accounts *account.Service
	tokens   *token.Manager
	escrow   *escrow.Orchestrator
	splitter *treasury.Splitter

	rpcServer *rpc.Server
}

// New creates and initializes a Daemon. It performs all setup steps
// (logger, vault, journal, gateway, components, RPC server) but does
// not start serving. Call Start for that.
//
// The passphrase unseals the vault and is wiped by keyvault before
// New returns.
func New(cfg *config.Config, passphrase []byte) (*Daemon, error) {
	logFile := cfg.Log.File
	if logFile == "" {
		logsDir := cfg.LogsDir()
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
		logFile = filepath.Join(logsDir, "mintgate.log")
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := klog.WithComponent("daemon")

	logger.Info().
		Str("network", string(cfg.Network)).
		Str("endpoint", cfg.Ledger.Endpoint).
		Str("operator", cfg.Operator.Account).
		Int64("max_fee", cfg.Operator.MaxFee).
		Msg("Starting Mintgate")

	// ── Vault ───────────────────────────────────────────────────────
	ks, err := keyvault.NewKeystore(cfg.KeystoreDir())
	if err != nil {
		return nil, fmt.Errorf("open keystore at %s: %w", cfg.KeystoreDir(), err)
	}
	if !ks.Exists(cfg.Keystore.Vault) {
		return nil, fmt.Errorf("vault %q not found in %s (run mintgate-cli vault-init first)",
			cfg.Keystore.Vault, cfg.KeystoreDir())
	}
	vault, err := ks.Open(cfg.Keystore.Vault, passphrase)
	if err != nil {
		return nil, fmt.Errorf("open vault %q: %w", cfg.Keystore.Vault, err)
	}
	logger.Info().Str("vault", cfg.Keystore.Vault).Msg("Vault unsealed")

	// ── Audit journal ───────────────────────────────────────────────
	db, err := storage.NewBadger(cfg.AuditDir())
	if err != nil {
		vault.Zero()
		return nil, fmt.Errorf("open audit database at %s: %w", cfg.AuditDir(), err)
	}
	journal, err := audit.New(db)
	if err != nil {
		vault.Zero()
		db.Close()
		return nil, fmt.Errorf("open audit journal: %w", err)
	}

	// ── Ledger gateway ──────────────────────────────────────────────
	gateway, err := ledger.NewClient(ledger.ClientConfig{
		Endpoint:      cfg.Ledger.Endpoint,
		ReceiptWindow: cfg.Ledger.ReceiptWindow,
		PollInterval:  cfg.Ledger.PollInterval,
	})
	if err != nil {
		vault.Zero()
		db.Close()
		return nil, err
	}

	// ── Components ──────────────────────────────────────────────────
	maxFee := types.Amount(cfg.Operator.MaxFee)
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		journal:  journal,
		vault:    vault,
		gateway:  gateway,
		accounts: account.New(gateway, vault, journal, maxFee),
		tokens:   token.New(gateway, vault, journal, maxFee),
		escrow:   escrow.New(gateway, vault, journal, maxFee),
	}

	if cfg.Treasury.Enabled() {
		treasuryID, err := types.ParseAccountID(cfg.Treasury.Account)
		if err != nil {
			d.Stop()
			return nil, fmt.Errorf("treasury.account: %w", err)
		}
		recipientA, err := types.ParseAccountID(cfg.Treasury.RecipientA)
		if err != nil {
			d.Stop()
			return nil, fmt.Errorf("treasury.recipient_a: %w", err)
		}
		recipientB, err := types.ParseAccountID(cfg.Treasury.RecipientB)
		if err != nil {
			d.Stop()
			return nil, fmt.Errorf("treasury.recipient_b: %w", err)
		}
		d.splitter, err = treasury.New(gateway, vault, journal, maxFee, treasuryID, recipientA, recipientB)
		if err != nil {
			d.Stop()
			return nil, err
		}
		logger.Info().
			Str("treasury", treasuryID.String()).
			Msg("Treasury distribution enabled")
	}

	if cfg.RPC.Enabled {
		d.rpcServer = rpc.New(cfg.RPCListenAddr(), d.accounts, d.tokens, d.escrow, d.splitter)
	}

	return d, nil
}

// Start begins serving RPC requests. No-op when RPC is disabled.
func (d *Daemon) Start() error {
	if d.rpcServer == nil {
		d.logger.Warn().Msg("RPC disabled, daemon is idle")
		return nil
	}
	if err := d.rpcServer.Start(); err != nil {
		return err
	}
	d.logger.Info().Str("addr", d.rpcServer.Addr()).Msg("RPC server listening")
	return nil
}

// Stop shuts the daemon down: RPC first so no request observes a
// closed journal or zeroed vault.
func (d *Daemon) Stop() {
	if d.rpcServer != nil {
		if err := d.rpcServer.Stop(); err != nil {
			d.logger.Error().Err(err).Msg("RPC shutdown")
		}
	}
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			d.logger.Error().Err(err).Msg("audit database close")
		}
	}
	if d.vault != nil {
		d.vault.Zero()
	}
	d.logger.Info().Msg("Daemon stopped")
}

// RPCAddr returns the bound RPC address, or empty when disabled.
func (d *Daemon) RPCAddr() string {
	if d.rpcServer == nil {
		return ""
	}
	return d.rpcServer.Addr()
}
