// mintgate-cli is a command-line client for interacting with a
// mintgated service, plus local key and vault management.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/mintgate-io/mintgate/config"
	"github.com/mintgate-io/mintgate/internal/keyvault"
	"github.com/mintgate-io/mintgate/internal/rpc"
	"github.com/mintgate-io/mintgate/internal/rpcclient"
	"github.com/mintgate-io/mintgate/pkg/crypto"
)

// callTimeout bounds one RPC round trip. Receipt waits happen on the
// server side, so this must exceed the service's receipt window.
const callTimeout = 2 * time.Minute

// keystoreDir returns the keystore path matching mintgated's layout:
// <datadir>/<network>/keystore
func keystoreDir(dataDir, network string) string {
	return filepath.Join(dataDir, network, "keystore")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// Parse global flags that appear before the subcommand.
	rpcURL := "http://127.0.0.1:7411"
	dataDir := config.DefaultDataDir()
	network := "mainnet"

	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--rpc" && len(args) > 1:
			rpcURL = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--rpc="):
			rpcURL = args[0][len("--rpc="):]
			args = args[1:]
		case args[0] == "--datadir" && len(args) > 1:
			dataDir = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--datadir="):
			dataDir = args[0][len("--datadir="):]
			args = args[1:]
		case args[0] == "--network" && len(args) > 1:
			network = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--network="):
			network = args[0][len("--network="):]
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	if network == "testnet" && rpcURL == "http://127.0.0.1:7411" {
		rpcURL = "http://127.0.0.1:7511"
	}

	ksDir := keystoreDir(dataDir, network)
	client := rpcclient.NewWithTimeout(rpcURL, callTimeout)
	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "create-account":
		cmdCreateAccount(client)
	case "balance":
		cmdBalance(client, cmdArgs)
	case "create-token":
		cmdCreateToken(client, cmdArgs)
	case "token-info":
		cmdTokenInfo(client, cmdArgs)
	case "mint":
		cmdMint(client, cmdArgs)
	case "burn":
		cmdBurn(client, cmdArgs)
	case "associate":
		cmdAssociate(client, cmdArgs)
	case "first-sale":
		cmdFirstSale(client, cmdArgs)
	case "split":
		cmdSplit(client)
	case "keygen":
		cmdKeygen()
	case "vault-init":
		cmdVaultInit(cmdArgs, ksDir)
	case "vault-roles":
		cmdVaultRoles(cmdArgs, ksDir)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: mintgate-cli [global flags] <command> [flags]

Global flags:
  --rpc <url>         RPC endpoint (default: http://127.0.0.1:7411)
  --datadir <path>    Data directory (default: ~/.mintgate)
  --network <net>     mainnet (default) or testnet

Commands:
  create-account                  Open a ledger account with the opening balance
  balance <account>               Show an account's balance
  create-token --name <n> --symbol <SYM> --treasury <acct> --collector <acct>
                                  Create a token class (prompts for the
                                  treasury key)
  token-info <token>              Show a token class and its fee schedule
  mint --token <id> --content-ref <uri>
                                  Mint one instance
  burn --token <id> --serial <n>  Burn an instance (prompts for the supply key)
  associate --token <id> --account <acct>
                                  Opt an account in to a token class
                                  (prompts for the account key)
  first-sale --token <id> --serial <n> --seller <acct> --buyer <acct> --price <n>
                                  Execute an escrowed first sale (prompts
                                  for the buyer key)
  split                           Distribute the treasury balance

  keygen                          Generate a key pair (prints to stdout)
  vault-init --name <n> [--import]
                                  Create a role vault from a fresh or
                                  imported mnemonic
  vault-roles --name <n>          Show the vault's public role keys
`)
}

func call(client *rpcclient.Client, method string, params, result interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	if err := client.Call(ctx, method, params, result); err != nil {
		fatal("%s: %v", method, err)
	}
}

// ── accounts ────────────────────────────────────────────────────────────

func cmdCreateAccount(client *rpcclient.Client) {
	var result rpc.AccountCreateResult
	call(client, "account_create", nil, &result)

	fmt.Printf("Account:     %s\n", result.Account)
	fmt.Printf("Public key:  %s\n", result.PublicKey)
	fmt.Printf("Private key: %s\n", result.PrivateKey)
	fmt.Println("\nStore the private key now. The service does not keep a copy.")
}

func cmdBalance(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: mintgate-cli balance <account>")
	}

	var result rpc.BalanceResult
	call(client, "account_getBalance", rpc.AccountParam{Account: args[0]}, &result)

	fmt.Printf("Account: %s\n", result.Account)
	fmt.Printf("Balance: %d\n", result.Balance)
}

// ── tokens ──────────────────────────────────────────────────────────────

func cmdCreateToken(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("create-token", flag.ExitOnError)
	name := fs.String("name", "", "Token class name")
	symbol := fs.String("symbol", "", "Token symbol")
	treasury := fs.String("treasury", "", "Treasury account id")
	collector := fs.String("collector", "", "Royalty collector account id")
	fs.Parse(args)

	if *name == "" || *symbol == "" || *treasury == "" || *collector == "" {
		fatal("Usage: mintgate-cli create-token --name <n> --symbol <SYM> --treasury <acct> --collector <acct>")
	}

	// The treasury key is a credential for this call. Prompt for it
	// so it never appears in the process argument list.
	treasuryKey, err := readSecret("Treasury private key (hex): ")
	if err != nil {
		fatal("read key: %v", err)
	}

	var result rpc.TokenCreateClassResult
	call(client, "token_createClass", rpc.TokenCreateClassParam{
		Name:             *name,
		Symbol:           *symbol,
		Treasury:         *treasury,
		TreasuryKey:      string(treasuryKey),
		RoyaltyCollector: *collector,
	}, &result)

	fmt.Printf("Token class created!\n")
	fmt.Printf("  Token:   %s\n", result.Token)
	fmt.Printf("  Name:    %s\n", *name)
	fmt.Printf("  Symbol:  %s\n", *symbol)
}

func cmdTokenInfo(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: mintgate-cli token-info <token>")
	}

	var result rpc.TokenInfoResult
	call(client, "token_getInfo", rpc.TokenParam{Token: args[0]}, &result)

	fmt.Printf("Token:        %s\n", result.Token)
	fmt.Printf("Name:         %s\n", result.Name)
	fmt.Printf("Symbol:       %s\n", result.Symbol)
	fmt.Printf("Treasury:     %s\n", result.Treasury)
	fmt.Printf("Supply:       %d / %d\n", result.TotalSupply, result.MaxSupply)
	for _, fee := range result.CustomFees {
		fmt.Printf("Royalty:      %d/%d to %s (fallback %d)\n",
			fee.Numerator, fee.Denominator, fee.Collector, fee.FallbackFee)
	}
}

func cmdMint(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("mint", flag.ExitOnError)
	tokenID := fs.String("token", "", "Token class id")
	contentRef := fs.String("content-ref", "", "Content reference (e.g. ipfs://...)")
	fs.Parse(args)

	if *tokenID == "" || *contentRef == "" {
		fatal("Usage: mintgate-cli mint --token <id> --content-ref <uri>")
	}

	var result rpc.TokenMintResult
	call(client, "token_mint", rpc.TokenMintParam{Token: *tokenID, ContentRef: *contentRef}, &result)

	fmt.Printf("Minted!\n")
	fmt.Printf("  Token:  %s\n", result.Token)
	fmt.Printf("  Serial: %d\n", result.Serial)
}

func cmdBurn(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("burn", flag.ExitOnError)
	tokenID := fs.String("token", "", "Token class id")
	serialStr := fs.String("serial", "", "Instance serial number")
	fs.Parse(args)

	if *tokenID == "" || *serialStr == "" {
		fatal("Usage: mintgate-cli burn --token <id> --serial <n>")
	}
	serial, err := strconv.ParseInt(*serialStr, 10, 64)
	if err != nil {
		fatal("invalid serial: %v", err)
	}

	supplyKey, err := readSecret("Supply private key (hex): ")
	if err != nil {
		fatal("read key: %v", err)
	}

	call(client, "token_burn", rpc.TokenBurnParam{
		Token:     *tokenID,
		Serial:    serial,
		SupplyKey: string(supplyKey),
	}, nil)

	fmt.Printf("Burned %s serial %d. The serial is retired and never reused.\n", *tokenID, serial)
}

func cmdAssociate(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("associate", flag.ExitOnError)
	tokenID := fs.String("token", "", "Token class id")
	account := fs.String("account", "", "Account to opt in")
	fs.Parse(args)

	if *tokenID == "" || *account == "" {
		fatal("Usage: mintgate-cli associate --token <id> --account <acct>")
	}

	accountKey, err := readSecret("Account private key (hex): ")
	if err != nil {
		fatal("read key: %v", err)
	}

	var result rpc.TokenAssociateResult
	call(client, "token_associate", rpc.TokenAssociateParam{
		Token:      *tokenID,
		Account:    *account,
		AccountKey: string(accountKey),
	}, &result)

	if result.AlreadyAssociated {
		fmt.Printf("%s was already associated with %s.\n", *account, *tokenID)
		return
	}
	fmt.Printf("Associated %s with %s.\n", *account, *tokenID)
}

// ── escrow ──────────────────────────────────────────────────────────────

func cmdFirstSale(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("first-sale", flag.ExitOnError)
	tokenID := fs.String("token", "", "Token class id")
	serialStr := fs.String("serial", "", "Instance serial number")
	seller := fs.String("seller", "", "Seller account id")
	buyer := fs.String("buyer", "", "Buyer account id")
	priceStr := fs.String("price", "", "Sale price in minor units")
	fs.Parse(args)

	if *tokenID == "" || *serialStr == "" || *seller == "" || *buyer == "" || *priceStr == "" {
		fatal("Usage: mintgate-cli first-sale --token <id> --serial <n> --seller <acct> --buyer <acct> --price <n>")
	}
	serial, err := strconv.ParseInt(*serialStr, 10, 64)
	if err != nil {
		fatal("invalid serial: %v", err)
	}
	price, err := strconv.ParseInt(*priceStr, 10, 64)
	if err != nil {
		fatal("invalid price: %v", err)
	}

	buyerKey, err := readSecret("Buyer private key (hex): ")
	if err != nil {
		fatal("read key: %v", err)
	}

	var result rpc.EscrowFirstSaleResult
	call(client, "escrow_firstSale", rpc.EscrowFirstSaleParam{
		Token:    *tokenID,
		Serial:   serial,
		Seller:   *seller,
		Buyer:    *buyer,
		BuyerKey: string(buyerKey),
		Price:    price,
	}, &result)

	fmt.Printf("Sale settled!\n")
	fmt.Printf("  Tx:     %s\n", result.TxID)
	fmt.Printf("  Status: %s\n", result.Status)
}

// ── treasury ────────────────────────────────────────────────────────────

func cmdSplit(client *rpcclient.Client) {
	var result rpc.TreasurySplitResult
	call(client, "treasury_split", nil, &result)

	fmt.Printf("Treasury balance: %d (distributable %d)\n", result.Balance, result.Distributable)
	if !result.Distributed {
		fmt.Println("Nothing to distribute.")
		return
	}
	printLeg("A", result.LegA)
	printLeg("B", result.LegB)
}

func printLeg(name string, leg rpc.SplitLegResult) {
	fmt.Printf("  Leg %s: %d -> %s [%s]", name, leg.Amount, leg.Recipient, leg.Status)
	if leg.Error != "" {
		fmt.Printf(" (%s)", leg.Error)
	}
	fmt.Println()
}

// ── local key and vault management ──────────────────────────────────────

func cmdKeygen() {
	key, err := crypto.GenerateKey()
	if err != nil {
		fatal("generate key: %v", err)
	}
	defer key.Zero()

	// stdout only. The private scalar must never reach a log file.
	fmt.Printf("Public key:  %s\n", key.PublicKeyHex())
	fmt.Printf("Private key: %s\n", key.SerializeHex())
}

func cmdVaultInit(args []string, ksDir string) {
	fs := flag.NewFlagSet("vault-init", flag.ExitOnError)
	name := fs.String("name", "operator", "Vault name")
	importFlag := fs.Bool("import", false, "Import an existing mnemonic instead of generating one")
	fs.Parse(args)

	ks, err := keyvault.NewKeystore(ksDir)
	if err != nil {
		fatal("open keystore: %v", err)
	}
	if ks.Exists(*name) {
		fatal("vault %q already exists in %s", *name, ksDir)
	}

	var mnemonic string
	if *importFlag {
		fmt.Fprint(os.Stderr, "Mnemonic: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			fatal("read mnemonic: %v", err)
		}
		mnemonic = strings.TrimSpace(line)
		if !keyvault.ValidateMnemonic(mnemonic) {
			fatal("invalid mnemonic")
		}
	} else {
		mnemonic, err = keyvault.GenerateMnemonic()
		if err != nil {
			fatal("generate mnemonic: %v", err)
		}
	}

	passphrase, err := readSecret("Vault passphrase: ")
	if err != nil {
		fatal("read passphrase: %v", err)
	}
	confirm, err := readSecret("Confirm passphrase: ")
	if err != nil {
		fatal("read passphrase: %v", err)
	}
	if string(passphrase) != string(confirm) {
		fatal("passphrases do not match")
	}

	seed, err := keyvault.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		fatal("derive seed: %v", err)
	}
	if err := ks.Create(*name, seed, passphrase, keyvault.DefaultSealParams()); err != nil {
		fatal("create vault: %v", err)
	}

	fmt.Printf("Vault %q created in %s\n", *name, ksDir)
	if !*importFlag {
		fmt.Println("\nRecovery mnemonic (write it down, it is shown exactly once):")
		fmt.Printf("\n  %s\n\n", mnemonic)
	}
}

func cmdVaultRoles(args []string, ksDir string) {
	fs := flag.NewFlagSet("vault-roles", flag.ExitOnError)
	name := fs.String("name", "operator", "Vault name")
	fs.Parse(args)

	ks, err := keyvault.NewKeystore(ksDir)
	if err != nil {
		fatal("open keystore: %v", err)
	}
	roles, err := ks.Roles(*name)
	if err != nil {
		fatal("read vault: %v", err)
	}

	fmt.Printf("Vault: %s\n", *name)
	for role, pub := range roles {
		fmt.Printf("  %-13s %s\n", role, pub)
	}
}

// ── helpers ─────────────────────────────────────────────────────────────

func readSecret(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return secret, nil
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
