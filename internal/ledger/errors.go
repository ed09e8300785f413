package ledger

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest marks a request rejected locally before any
// network call (missing token id, zero price, nil key). Wrap it with
// fmt.Errorf("%w: ...") so errors.Is works.
var ErrInvalidRequest = errors.New("invalid request")

// PrecheckError reports that the network rejected a transaction before
// execution (bad signature, insufficient balance, unknown entity). It
// is surfaced verbatim and never retried by the core.
type PrecheckError struct {
	Code string
}

func (e *PrecheckError) Error() string {
	return fmt.Sprintf("precheck failed: %s", e.Code)
}

// ReceiptError reports that a transaction executed but the consensus
// result was non-success (supply exhausted, invalid fee). Never
// downgraded to a warning.
type ReceiptError struct {
	Status string
}

func (e *ReceiptError) Error() string {
	return fmt.Sprintf("receipt status: %s", e.Status)
}

// TimeoutError reports that no response arrived within the network's
// window. The core does not retry; the caller must decide whether the
// transaction nonetheless landed before re-invoking a non-idempotent
// operation.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: no response within the network window", e.Op)
}

// ConfigError reports an absent required key role or configuration
// value. Fatal: raised at construction, not per call.
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", e.Key)
}

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// Precheck and receipt status codes the components interpret. The
// ledger may report codes outside this set; they pass through verbatim.
const (
	StatusSuccess = "SUCCESS"

	CodeInvalidSignature      = "INVALID_SIGNATURE"
	CodeInsufficientBalance   = "INSUFFICIENT_ACCOUNT_BALANCE"
	CodeInsufficientPayer     = "INSUFFICIENT_PAYER_BALANCE"
	CodeAccountNotFound       = "ACCOUNT_NOT_FOUND"
	CodeTokenNotFound         = "TOKEN_NOT_FOUND"
	CodeNotAssociated         = "TOKEN_NOT_ASSOCIATED_TO_ACCOUNT"
	CodeSenderNotOwner        = "SENDER_DOES_NOT_OWN_NFT_SERIAL"
	CodeSerialNotFound        = "NFT_SERIAL_NOT_FOUND"
	StatusMaxSupplyReached    = "TOKEN_MAX_SUPPLY_REACHED"
	StatusAlreadyAssociated   = "TOKEN_ALREADY_ASSOCIATED_TO_ACCOUNT"
	StatusInvalidTokenBurnKey = "INVALID_SUPPLY_KEY"
)
