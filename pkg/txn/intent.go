package txn

import (
	"encoding/hex"
	"fmt"

	"github.com/mintgate-io/mintgate/pkg/crypto"
	"github.com/mintgate-io/mintgate/pkg/types"
)

// State is the lifecycle position of an Intent.
type State uint8

const (
	StateBuilt State = iota + 1
	StatePartiallySigned
	StateFullySigned
	StateSubmitted
	StateReceipted
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StatePartiallySigned:
		return "partially-signed"
	case StateFullySigned:
		return "fully-signed"
	case StateSubmitted:
		return "submitted"
	case StateReceipted:
		return "receipted"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Intent is an unsubmitted transaction together with the signers still
// required before it may be submitted. An Intent is owned exclusively
// by the orchestrating call for its lifetime; it is never shared
// across requests.
type Intent struct {
	tx       *Transaction
	hash     types.Hash
	frozen   bool
	required map[string]bool // hex pubkey -> still missing
	state    State
}

// NewIntent wraps a transaction with the set of signer public keys
// that must sign before submission. The transaction is validated
// immediately; a structurally invalid transaction never becomes an
// intent.
func NewIntent(tx *Transaction, requiredSigners ...[]byte) (*Intent, error) {
	if tx == nil {
		return nil, fmt.Errorf("intent: nil transaction")
	}
	if err := tx.Validate(); err != nil {
		return nil, fmt.Errorf("intent: %w", err)
	}
	if len(requiredSigners) == 0 {
		return nil, fmt.Errorf("intent: at least one required signer")
	}

	required := make(map[string]bool, len(requiredSigners))
	for _, pub := range requiredSigners {
		if len(pub) != crypto.PublicKeySize {
			return nil, fmt.Errorf("intent: required signer key must be %d bytes", crypto.PublicKeySize)
		}
		required[hex.EncodeToString(pub)] = true
	}

	return &Intent{
		tx:       tx,
		required: required,
		state:    StateBuilt,
	}, nil
}

// Freeze locks the transaction inputs and fixes the signing hash.
// Must be called before Sign; freezing twice is an error because it
// would invite input mutation between signatures.
func (in *Intent) Freeze() error {
	if in.frozen {
		return fmt.Errorf("intent: already frozen")
	}
	in.hash = in.tx.Hash()
	in.frozen = true
	return nil
}

// Sign adds one signer's signature. The intent must be frozen first.
// Signing after submission is an error.
func (in *Intent) Sign(signer crypto.Signer) error {
	if !in.frozen {
		return fmt.Errorf("intent: sign before freeze")
	}
	if in.state == StateSubmitted || in.state == StateReceipted || in.state == StateFailed {
		return fmt.Errorf("intent: sign in state %s", in.state)
	}

	pub := signer.PublicKey()
	key := hex.EncodeToString(pub)
	if in.tx.SignedBy(pub) {
		return fmt.Errorf("intent: duplicate signature from %s", key)
	}

	sig, err := signer.Sign(in.hash[:])
	if err != nil {
		return fmt.Errorf("intent: %w", err)
	}
	in.tx.Signatures = append(in.tx.Signatures, Signature{PubKey: pub, Sig: sig})
	delete(in.required, key)

	if len(in.required) == 0 {
		in.state = StateFullySigned
	} else {
		in.state = StatePartiallySigned
	}
	return nil
}

// FullySigned reports whether every required signer has signed.
func (in *Intent) FullySigned() bool {
	return in.frozen && len(in.required) == 0
}

// MissingSigners returns hex public keys still required.
func (in *Intent) MissingSigners() []string {
	keys := make([]string, 0, len(in.required))
	for k := range in.required {
		keys = append(keys, k)
	}
	return keys
}

// State returns the current lifecycle state.
func (in *Intent) State() State {
	return in.state
}

// Hash returns the signing hash. Zero until frozen.
func (in *Intent) Hash() types.Hash {
	return in.hash
}

// SignedTransaction returns the transaction for submission. It fails
// unless every required signer has signed: a partially signed
// transaction is never transmitted.
func (in *Intent) SignedTransaction() (*Transaction, error) {
	if !in.FullySigned() {
		return nil, fmt.Errorf("intent: not fully signed, missing %v", in.MissingSigners())
	}
	return in.tx, nil
}

// MarkSubmitted records that the transaction left for the network.
func (in *Intent) MarkSubmitted() {
	in.state = StateSubmitted
}

// MarkReceipted records terminal success.
func (in *Intent) MarkReceipted() {
	in.state = StateReceipted
}

// MarkFailed records terminal failure.
func (in *Intent) MarkFailed() {
	in.state = StateFailed
}
