package types

import "strconv"

// Amount is a currency value in the ledger's minimal (minor) unit.
// Signed: transfer legs use negative amounts for debits.
type Amount int64

// String formats the amount in minor units.
func (a Amount) String() string {
	return strconv.FormatInt(int64(a), 10)
}

// Negated returns the amount with its sign flipped.
func (a Amount) Negated() Amount {
	return -a
}
