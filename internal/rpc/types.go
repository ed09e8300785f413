package rpc

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// Service-specific codes. The failure taxonomy maps onto these;
	// the precheck code or receipt status travels in the message.
	CodePrecheckFailed = -32001
	CodeReceiptFailed  = -32002
	CodeTimeout        = -32003
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ── Param types ─────────────────────────────────────────────────────────

// AccountParam is used by account_getBalance.
type AccountParam struct {
	Account string `json:"account"`
}

// TokenCreateClassParam is used by token_createClass. TreasuryKey is
// the treasury's private key in hex: a caller credential for this
// call, never stored or logged.
type TokenCreateClassParam struct {
	Name             string `json:"name"`
	Symbol           string `json:"symbol"`
	Treasury         string `json:"treasury"`
	TreasuryKey      string `json:"treasury_key"`
	RoyaltyCollector string `json:"royalty_collector"`
}

// TokenParam is used by token_getInfo.
type TokenParam struct {
	Token string `json:"token"`
}

// TokenMintParam is used by token_mint.
type TokenMintParam struct {
	Token      string `json:"token"`
	ContentRef string `json:"content_ref"`
}

// TokenBurnParam is used by token_burn. SupplyKey is the caller's
// burn credential in hex.
type TokenBurnParam struct {
	Token     string `json:"token"`
	Serial    int64  `json:"serial"`
	SupplyKey string `json:"supply_key"`
}

// TokenAssociateParam is used by token_associate.
type TokenAssociateParam struct {
	Token      string `json:"token"`
	Account    string `json:"account"`
	AccountKey string `json:"account_key"`
}

// EscrowFirstSaleParam is used by escrow_firstSale.
type EscrowFirstSaleParam struct {
	Token    string `json:"token"`
	Serial   int64  `json:"serial"`
	Seller   string `json:"seller"`
	Buyer    string `json:"buyer"`
	BuyerKey string `json:"buyer_key"`
	Price    int64  `json:"price"`
}

// ── Result types ────────────────────────────────────────────────────────

// AccountCreateResult is returned by account_create. PrivateKey is the
// fresh account's key, handed to the caller exactly once.
type AccountCreateResult struct {
	Account    string `json:"account"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

// BalanceResult is returned by account_getBalance.
type BalanceResult struct {
	Account string `json:"account"`
	Balance int64  `json:"balance"`
}

// TokenCreateClassResult is returned by token_createClass.
type TokenCreateClassResult struct {
	Token string `json:"token"`
}

// TokenMintResult is returned by token_mint.
type TokenMintResult struct {
	Token  string `json:"token"`
	Serial int64  `json:"serial"`
}

// TokenAssociateResult is returned by token_associate.
type TokenAssociateResult struct {
	Associated        bool `json:"associated"`
	AlreadyAssociated bool `json:"already_associated"`
}

// CustomFeeResult describes one royalty fee in token_getInfo.
type CustomFeeResult struct {
	Numerator   int64  `json:"numerator"`
	Denominator int64  `json:"denominator"`
	Collector   string `json:"collector"`
	FallbackFee int64  `json:"fallback_fee"`
}

// TokenInfoResult is returned by token_getInfo.
type TokenInfoResult struct {
	Token       string            `json:"token"`
	Name        string            `json:"name"`
	Symbol      string            `json:"symbol"`
	Treasury    string            `json:"treasury"`
	MaxSupply   int64             `json:"max_supply"`
	TotalSupply int64             `json:"total_supply"`
	CustomFees  []CustomFeeResult `json:"custom_fees,omitempty"`
}

// EscrowFirstSaleResult is returned by escrow_firstSale.
type EscrowFirstSaleResult struct {
	TxID   string `json:"tx_id"`
	Status string `json:"status"`
}

// SplitLegResult describes one distribution leg of treasury_split.
type SplitLegResult struct {
	Recipient string `json:"recipient"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// TreasurySplitResult is returned by treasury_split.
type TreasurySplitResult struct {
	Balance       int64          `json:"balance"`
	Distributable int64          `json:"distributable"`
	Distributed   bool           `json:"distributed"`
	LegA          SplitLegResult `json:"leg_a"`
	LegB          SplitLegResult `json:"leg_b"`
}
