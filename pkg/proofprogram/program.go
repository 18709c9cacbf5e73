// Package proofprogram implements the zk guest's deterministic entry
// contract: given ProofInputs, verify the header skip, rebuild the bridge
// commitment, cross-check it, and produce ProofOutputs. This is the logic
// that runs inside the zkVM; here it runs as a plain Go function so both
// the prover client (pkg/prover, for local/mock backends) and tests can
// exercise it directly.
package proofprogram

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/fxamacker/cbor/v2"

	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/commitment"
	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/lightclient"
	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/tendermint"
)

// ProofInputs is the host->guest record, §3. It is serialized with CBOR
// (self-describing, since the embedded LightBlocks carry protobuf blobs of
// varying length).
type ProofInputs struct {
	TrustedLightBlock *tendermint.LightBlock `cbor:"trusted_light_block"`
	TargetLightBlock  *tendermint.LightBlock `cbor:"target_light_block"`
	Headers           []tendermint.Header    `cbor:"headers"`
	BridgeCommitment  []byte                 `cbor:"bridge_commitment"`
}

// Encode serializes ProofInputs with the same encoding the prover client
// feeds to the zkVM.
func (in *ProofInputs) Encode() ([]byte, error) {
	return cbor.Marshal(in)
}

// DecodeProofInputs is the guest-side counterpart of Encode.
func DecodeProofInputs(data []byte) (*ProofInputs, error) {
	var in ProofInputs
	if err := cbor.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode proof inputs: %w", err)
	}
	return &in, nil
}

// ProofOutputs is the guest-commit record, ABI-encoded as
// tuple(uint64, bytes32, uint64, bytes32, bytes32) per §6.
type ProofOutputs struct {
	TrustedHeight     uint64
	TrustedHeaderHash [32]byte
	TargetHeight      uint64
	TargetHeaderHash  [32]byte
	BridgeCommitment  [32]byte
}

var outputArguments = mustOutputArguments()

func mustOutputArguments() abi.Arguments {
	uint64Ty, err := abi.NewType("uint64", "", nil)
	if err != nil {
		panic(err)
	}
	bytes32Ty, err := abi.NewType("bytes32", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{
		{Type: uint64Ty}, {Type: bytes32Ty},
		{Type: uint64Ty}, {Type: bytes32Ty},
		{Type: bytes32Ty},
	}
}

// Encode ABI-encodes ProofOutputs, bit-exact per §6.
func (out *ProofOutputs) Encode() ([]byte, error) {
	return outputArguments.Pack(
		out.TrustedHeight, out.TrustedHeaderHash,
		out.TargetHeight, out.TargetHeaderHash,
		out.BridgeCommitment,
	)
}

// ErrVerdictNotSuccess is returned (wrapping a more specific reason) when
// the header-update verdict is NotEnoughTrust or Invalid. The guest aborts
// fatally on this; the host never expects to see it once advancement
// search has run (search only returns heights with Verdict Success).
type ErrVerdictNotSuccess struct {
	Verdict lightclient.Verdict
}

func (e *ErrVerdictNotSuccess) Error() string {
	return fmt.Sprintf("header update verdict not Success: %s", e.Verdict.String())
}

// ErrCommitmentMismatch is returned when the in-circuit computed bridge
// commitment does not match the one supplied for cross-check.
type ErrCommitmentMismatch struct {
	Computed []byte
	Supplied []byte
}

func (e *ErrCommitmentMismatch) Error() string {
	return fmt.Sprintf("bridge commitment mismatch: computed %x != supplied %x", e.Computed, e.Supplied)
}

// Run executes the guest's entry contract against decoded ProofInputs,
// per §4.3 steps 1-4. It is deterministic and performs no I/O.
func Run(in *ProofInputs) (*ProofOutputs, error) {
	verdict := lightclient.GetHeaderUpdateVerdict(in.TrustedLightBlock, in.TargetLightBlock)
	if !verdict.Ok() {
		return nil, &ErrVerdictNotSuccess{Verdict: verdict}
	}

	allHeaders := make([]tendermint.Header, 0, len(in.Headers)+2)
	allHeaders = append(allHeaders, tendermint.HeaderFromLightBlock(in.TrustedLightBlock))
	allHeaders = append(allHeaders, in.Headers...)
	allHeaders = append(allHeaders, tendermint.HeaderFromLightBlock(in.TargetLightBlock))

	computed, err := commitment.Build(allHeaders)
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(computed, in.BridgeCommitment) {
		return nil, &ErrCommitmentMismatch{Computed: computed, Supplied: in.BridgeCommitment}
	}

	out := &ProofOutputs{
		TrustedHeight:     uint64(in.TrustedLightBlock.Height()),
		TrustedHeaderHash: in.TrustedLightBlock.HeaderHash(),
		TargetHeight:      uint64(in.TargetLightBlock.Height()),
		TargetHeaderHash:  in.TargetLightBlock.HeaderHash(),
	}
	copy(out.BridgeCommitment[:], computed)
	return out, nil
}
