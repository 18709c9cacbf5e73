// Package merkle implements the binary Merkle tree pkg/checkpoint uses to
// detect corruption in the operator's local header cache: each cached batch
// of headers is hashed into a tree so a half-written cache file is caught by
// a root mismatch rather than trusted blindly. This is a different tree
// from pkg/commitment's bridge-commitment builder, which must use
// Tendermint's own RFC 6962 leaf/inner prefixing to match the on-chain
// verifier; this one is purely a local integrity check and is free to use
// the simpler SHA256(left||right) construction.
package merkle

import (
	"crypto/sha256"
	"errors"
	"fmt"
)

// ErrEmptyTree is returned when BuildTree is called with no leaves.
var ErrEmptyTree = errors.New("cannot build tree from empty leaves")

// ErrInvalidLeafHash is returned when a leaf is not a 32-byte hash.
var ErrInvalidLeafHash = errors.New("leaf hash must be 32 bytes")

// Tree is a binary Merkle tree over 32-byte leaf hashes, built bottom-up
// with odd nodes duplicated rather than promoted.
type Tree struct {
	root []byte
}

// BuildTree hashes leaves into a tree and returns its root. Each leaf must
// be a 32-byte hash, e.g. produced by HashData.
func BuildTree(leaves [][]byte) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	for i, leaf := range leaves {
		if len(leaf) != 32 {
			return nil, fmt.Errorf("%w: leaf %d has %d bytes", ErrInvalidLeafHash, i, len(leaf))
		}
	}

	level := make([][]byte, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				next = append(next, hashPair(level[i], level[i]))
			}
		}
		level = next
	}

	return &Tree{root: level[0]}, nil
}

// hashPair combines two 32-byte hashes with SHA256(left || right).
func hashPair(left, right []byte) []byte {
	combined := make([]byte, 64)
	copy(combined[:32], left)
	copy(combined[32:], right)
	hash := sha256.Sum256(combined)
	return hash[:]
}

// Root returns the Merkle root.
func (t *Tree) Root() []byte {
	root := make([]byte, len(t.root))
	copy(root, t.root)
	return root
}

// HashData returns the SHA256 digest of data, used to turn an encoded
// header into a tree leaf.
func HashData(data []byte) []byte {
	hash := sha256.Sum256(data)
	return hash[:]
}
