package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	klog "github.com/mintgate-io/mintgate/internal/log"
	"github.com/mintgate-io/mintgate/internal/rpcclient"
	"github.com/mintgate-io/mintgate/pkg/txn"
	"github.com/mintgate-io/mintgate/pkg/types"
)

// JSON-RPC error code the ledger node uses for precheck rejections.
// The precheck reason code travels in the error message.
const codePrecheckRejected = -32001

// statusPending is the receipt status while consensus is outstanding.
const statusPending = "PENDING"

// Client is the production Gateway implementation: a JSON-RPC client
// against a ledger node.
type Client struct {
	rpc    *rpcclient.Client
	window time.Duration // receipt wait window
	poll   time.Duration // receipt poll interval
	logger zerolog.Logger
}

// ClientConfig holds gateway client settings.
type ClientConfig struct {
	Endpoint      string
	ReceiptWindow time.Duration // default 30s
	PollInterval  time.Duration // default 500ms
}

// NewClient creates a gateway client for the given ledger node.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, &ConfigError{Key: "ledger.endpoint"}
	}
	window := cfg.ReceiptWindow
	if window <= 0 {
		window = 30 * time.Second
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	return &Client{
		rpc:    rpcclient.NewWithTimeout(cfg.Endpoint, window),
		window: window,
		poll:   poll,
		logger: klog.WithComponent("ledger"),
	}, nil
}

// submitParams is the tx_submit request payload.
type submitParams struct {
	Transaction *txn.Transaction `json:"transaction"`
}

// receiptParams is the tx_getReceipt request payload.
type receiptParams struct {
	TxID string `json:"tx_id"`
}

// balanceParams is the account_getBalance request payload.
type balanceParams struct {
	Account string `json:"account"`
}

// balanceResult is the account_getBalance response payload.
type balanceResult struct {
	Balance types.Amount `json:"balance"`
}

// tokenInfoParams is the token_getInfo request payload.
type tokenInfoParams struct {
	Token string `json:"token"`
}

// SubmitTransaction sends a fully signed transaction to the node.
func (c *Client) SubmitTransaction(ctx context.Context, tx *txn.Transaction) (*TxResponse, error) {
	var resp TxResponse
	err := c.rpc.Call(ctx, "tx_submit", submitParams{Transaction: tx}, &resp)
	if err != nil {
		return nil, c.mapError("tx_submit", err)
	}
	c.logger.Debug().
		Str("tx_id", resp.TxID.String()).
		Str("kind", tx.Kind.String()).
		Msg("transaction submitted")
	return &resp, nil
}

// WaitReceipt polls for the receipt until a terminal status arrives or
// the window elapses. A terminal non-success status is returned as a
// ReceiptError together with the receipt itself.
func (c *Client) WaitReceipt(ctx context.Context, resp *TxResponse) (*Receipt, error) {
	deadline := time.Now().Add(c.window)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	for {
		var receipt Receipt
		err := c.rpc.Call(ctx, "tx_getReceipt", receiptParams{TxID: resp.TxID.String()}, &receipt)
		if err != nil {
			return nil, c.mapError("tx_getReceipt", err)
		}

		if receipt.Status != statusPending {
			if receipt.Status != StatusSuccess {
				return &receipt, &ReceiptError{Status: receipt.Status}
			}
			return &receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, &TimeoutError{Op: "tx_getReceipt"}
		case <-time.After(c.poll):
		}
	}
}

// AccountBalance queries the current balance of an account.
func (c *Client) AccountBalance(ctx context.Context, id types.AccountID) (types.Amount, error) {
	var result balanceResult
	err := c.rpc.Call(ctx, "account_getBalance", balanceParams{Account: id.String()}, &result)
	if err != nil {
		return 0, c.mapError("account_getBalance", err)
	}
	return result.Balance, nil
}

// TokenInfo queries the ledger's view of a token class.
func (c *Client) TokenInfo(ctx context.Context, id types.TokenID) (*TokenInfo, error) {
	var info TokenInfo
	err := c.rpc.Call(ctx, "token_getInfo", tokenInfoParams{Token: id.String()}, &info)
	if err != nil {
		return nil, c.mapError("token_getInfo", err)
	}
	return &info, nil
}

// mapError converts transport and node errors into the gateway
// taxonomy. Anything unrecognized passes through wrapped.
func (c *Client) mapError(op string, err error) error {
	var rpcErr *rpcclient.RPCError
	if errors.As(err, &rpcErr) {
		if rpcErr.Code == codePrecheckRejected {
			return &PrecheckError{Code: rpcErr.Message}
		}
		return err
	}
	if rpcclient.IsDeadline(err) {
		return &TimeoutError{Op: op}
	}
	return err
}
