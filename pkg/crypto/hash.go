// Package crypto provides signing and hashing primitives for Mintgate.
package crypto

import (
	"github.com/mintgate-io/mintgate/pkg/types"
	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// ContentHash hashes an opaque content reference (e.g. an "ipfs://" URI)
// for audit records. The raw reference bytes travel in the transaction;
// the hash is what gets journaled.
func ContentHash(ref []byte) types.Hash {
	return Hash(ref)
}
