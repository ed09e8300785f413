// Package feeschedule builds and validates the royalty fee schedules
// attached to token classes at creation.
package feeschedule

import (
	"fmt"

	"github.com/mintgate-io/mintgate/internal/ledger"
	"github.com/mintgate-io/mintgate/pkg/types"
)

// Defaults applied when a creation request does not specify its own
// royalty terms.
const (
	DefaultNumerator   = int64(1)
	DefaultDenominator = int64(10)
	DefaultFallbackFee = types.Amount(30)
)

// Royalty describes one fractional fee on token-instance sales. The
// fraction of sale proceeds goes to the collector; when a transfer
// carries no proceeds the receiver is charged the fallback fee instead.
type Royalty struct {
	Numerator   int64
	Denominator int64
	Collector   types.AccountID
	FallbackFee types.Amount
}

// Default returns the standard royalty terms for a collector.
func Default(collector types.AccountID) Royalty {
	return Royalty{
		Numerator:   DefaultNumerator,
		Denominator: DefaultDenominator,
		Collector:   collector,
		FallbackFee: DefaultFallbackFee,
	}
}

// Validate rejects schedules the ledger would refuse. The fraction
// must lie strictly between zero and one: a royalty of 10/1 is a
// request error here, not a receipt failure later.
func (r Royalty) Validate() error {
	if r.Denominator <= 0 {
		return fmt.Errorf("%w: royalty denominator must be positive, got %d", ledger.ErrInvalidRequest, r.Denominator)
	}
	if r.Numerator <= 0 {
		return fmt.Errorf("%w: royalty numerator must be positive, got %d", ledger.ErrInvalidRequest, r.Numerator)
	}
	if r.Numerator >= r.Denominator {
		return fmt.Errorf("%w: royalty fraction %d/%d is not below one", ledger.ErrInvalidRequest, r.Numerator, r.Denominator)
	}
	if r.FallbackFee < 0 {
		return fmt.Errorf("%w: negative fallback fee", ledger.ErrInvalidRequest)
	}
	if r.Collector.IsZero() {
		return fmt.Errorf("%w: royalty collector is required", ledger.ErrInvalidRequest)
	}
	return nil
}

// CustomFee converts the royalty to its wire form.
func (r Royalty) CustomFee() types.CustomFee {
	return types.CustomFee{
		Numerator:   r.Numerator,
		Denominator: r.Denominator,
		Collector:   r.Collector,
		FallbackFee: r.FallbackFee,
	}
}

// Build validates a schedule and converts it for a token creation.
// An empty schedule is valid: not every class carries royalties.
func Build(royalties []Royalty) ([]types.CustomFee, error) {
	fees := make([]types.CustomFee, 0, len(royalties))
	for i, r := range royalties {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("royalty %d: %w", i, err)
		}
		fees = append(fees, r.CustomFee())
	}
	return fees, nil
}

// Assess computes the royalty taken from sale proceeds. Integer
// division truncates toward zero; the truncated remainder stays with
// the seller.
func (r Royalty) Assess(proceeds types.Amount) types.Amount {
	if proceeds <= 0 {
		return 0
	}
	return proceeds * types.Amount(r.Numerator) / types.Amount(r.Denominator)
}
