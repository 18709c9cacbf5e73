// Package testutil builds minimal, validly-signed Tendermint light-block
// chains for tests elsewhere in this module. It is not itself a _test.go
// file because pkg/lightclient, pkg/search, and pkg/proofprogram tests all
// need the same fixtures.
package testutil

import (
	"time"

	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	cmtversion "github.com/cometbft/cometbft/proto/tendermint/version"
	cmtcrypto "github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmttypes "github.com/cometbft/cometbft/types"

	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/tendermint"
)

const ChainID = "fuelstreamx-test"

// Signer is a single validator with its private key, used to sign commits
// in test chains.
type Signer struct {
	PrivKey cmtcrypto.PrivKey
	Val     *cmttypes.Validator
}

// NewSigner generates a fresh ed25519 validator with voting power 10.
func NewSigner() *Signer {
	priv := ed25519.GenPrivKey()
	return &Signer{PrivKey: priv, Val: cmttypes.NewValidator(priv.PubKey(), 10)}
}

// Chain is an ordered sequence of light blocks; NewChain signs every block
// with the same validator set.
type Chain struct {
	Blocks []*tendermint.LightBlock
}

// At returns the light block at the given height in a chain whose first
// block is at startHeight (index = height - startHeight, 0-based).
func (c *Chain) At(height int64, startHeight int64) *tendermint.LightBlock {
	return c.Blocks[height-startHeight]
}

// NewChain builds a chain of n consecutive, validly-signed blocks starting
// at startHeight, all secured by the single given signer (no validator set
// rotation). Each block's LastBlockID chains to the previous block's hash,
// satisfying pkg/commitment's continuity requirement too.
func NewChain(signer *Signer, startHeight int64, n int, start time.Time) *Chain {
	valSet := cmttypes.NewValidatorSet([]*cmttypes.Validator{signer.Val})

	chain := &Chain{Blocks: make([]*tendermint.LightBlock, n)}
	var lastBlockID cmttypes.BlockID

	for i := 0; i < n; i++ {
		height := startHeight + int64(i)
		blockTime := start.Add(time.Duration(i) * time.Second)

		lb := NewBlock(signer, valSet, height, blockTime, lastBlockID)
		chain.Blocks[i] = lb
		lastBlockID = cmttypes.BlockID{
			Hash:          lb.SignedHeader.Header.Hash(),
			PartSetHeader: cmttypes.PartSetHeader{Total: 1, Hash: lb.SignedHeader.Header.Hash()},
		}
	}

	return chain
}

// NewBlock builds a single validly-signed light block at an arbitrary
// height and time, secured by signer alone and committing to valSet as both
// its current and next validator set. Tests that need to control height,
// time, or validator-set composition directly (rather than via a
// sequential chain) use this.
func NewBlock(signer *Signer, valSet *cmttypes.ValidatorSet, height int64, blockTime time.Time, lastBlockID cmttypes.BlockID) *tendermint.LightBlock {
	header := cmttypes.Header{
		Version:            cmtversion.Consensus{Block: 11, App: 0},
		ChainID:            ChainID,
		Height:             height,
		Time:               blockTime,
		LastBlockID:        lastBlockID,
		LastCommitHash:     cmttypes.NewCommit(height-1, 0, cmttypes.BlockID{}, nil).Hash(),
		DataHash:           nil,
		ValidatorsHash:     valSet.Hash(),
		NextValidatorsHash: valSet.Hash(),
		ConsensusHash:      nil,
		AppHash:            nil,
		LastResultsHash:    nil,
		EvidenceHash:       nil,
		ProposerAddress:    signer.Val.Address,
	}

	blockID := cmttypes.BlockID{
		Hash:          header.Hash(),
		PartSetHeader: cmttypes.PartSetHeader{Total: 1, Hash: header.Hash()},
	}

	commit := signCommit(signer, height, blockID, blockTime)

	return &tendermint.LightBlock{
		SignedHeader:     &cmttypes.SignedHeader{Header: &header, Commit: commit},
		ValidatorSet:     valSet,
		NextValidatorSet: valSet,
	}
}

func signCommit(signer *Signer, height int64, blockID cmttypes.BlockID, t time.Time) *cmttypes.Commit {
	vote := &cmtproto.Vote{
		Type:   cmtproto.PrecommitType,
		Height: height,
		Round:  0,
		BlockID: cmtproto.BlockID{
			Hash:          blockID.Hash,
			PartSetHeader: cmtproto.PartSetHeader{Total: blockID.PartSetHeader.Total, Hash: blockID.PartSetHeader.Hash},
		},
		Timestamp:        t,
		ValidatorAddress: signer.Val.Address,
		ValidatorIndex:   0,
	}

	signBytes := cmttypes.VoteSignBytes(ChainID, vote)
	sig, err := signer.PrivKey.Sign(signBytes)
	if err != nil {
		panic(err)
	}

	return &cmttypes.Commit{
		Height:  height,
		Round:   0,
		BlockID: blockID,
		Signatures: []cmttypes.CommitSig{
			{
				BlockIDFlag:      cmttypes.BlockIDFlagCommit,
				ValidatorAddress: signer.Val.Address,
				Timestamp:        t,
				Signature:        sig,
			},
		},
	}
}
