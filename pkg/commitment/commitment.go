// Package commitment builds the bridge commitment: a Merkle root over
// (height, last_results_hash) leaves that lets the destination chain
// reason about source-chain execution results without replaying them.
package commitment

import (
	"errors"
	"fmt"

	"github.com/cometbft/cometbft/crypto/merkle"
	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/tendermint"
)

// ErrChainContinuity is returned when two adjacent headers do not chain:
// H[i+1].LastBlockIDHash must equal H[i].HeaderHash.
var ErrChainContinuity = errors.New("bridge commitment: chain continuity violated")

// ErrTooFewHeaders is returned when fewer than two headers are supplied;
// a commitment needs at least a trusted and a target header.
var ErrTooFewHeaders = errors.New("bridge commitment: need at least two headers")

var leafArguments = mustLeafArguments()

func mustLeafArguments() abi.Arguments {
	uint64Ty, err := abi.NewType("uint64", "", nil)
	if err != nil {
		panic(err)
	}
	bytes32Ty, err := abi.NewType("bytes32", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{
		{Type: uint64Ty},
		{Type: bytes32Ty},
	}
}

// EncodeLeaf ABI-encodes a BridgeCommitmentLeaf: tuple(uint64, bytes32).
func EncodeLeaf(height uint64, lastResultsHash [32]byte) ([]byte, error) {
	return leafArguments.Pack(height, lastResultsHash)
}

// Build computes the bridge commitment over an ordered header sequence per
// §4.2: assert chain continuity, form leaves excluding the last header's
// last_results_hash, and take the canonical Tendermint simple-Merkle-tree
// root over the ABI-encoded leaves.
//
// headers must be ordered ascending by height and contain both endpoints
// (trusted and target), i.e. len(headers) >= 2.
func Build(headers []tendermint.Header) ([]byte, error) {
	if len(headers) < 2 {
		return nil, ErrTooFewHeaders
	}

	for i := 0; i < len(headers)-1; i++ {
		if headers[i].HeaderHash != headers[i+1].LastBlockIDHash {
			return nil, fmt.Errorf("%w: header %d (height %d) hash %x != header %d (height %d) last_block_id %x",
				ErrChainContinuity,
				i, headers[i].Height, headers[i].HeaderHash,
				i+1, headers[i+1].Height, headers[i+1].LastBlockIDHash)
		}
	}

	// The last header's last_results_hash is intentionally excluded so
	// adjacent commitment ranges stay disjoint at the shared boundary
	// header (see spec §9).
	leaves := make([][]byte, 0, len(headers)-1)
	for i := 0; i < len(headers)-1; i++ {
		leaf, err := EncodeLeaf(headers[i].Height, headers[i].LastResultsHash)
		if err != nil {
			return nil, fmt.Errorf("encode leaf %d: %w", i, err)
		}
		leaves = append(leaves, leaf)
	}

	return merkle.HashFromByteSlices(leaves), nil
}
