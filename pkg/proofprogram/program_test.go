package proofprogram

import (
	"errors"
	"testing"
	"time"

	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/commitment"
	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/tendermint"
	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/tendermint/testutil"
)

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func buildInputs(t *testing.T, n int) (*ProofInputs, *testutil.Chain) {
	t.Helper()
	signer := testutil.NewSigner()
	chain := testutil.NewChain(signer, 100, n, baseTime)

	trusted := chain.Blocks[0]
	target := chain.Blocks[n-1]

	middle := make([]tendermint.Header, 0, n-2)
	for i := 1; i < n-1; i++ {
		middle = append(middle, tendermint.HeaderFromLightBlock(chain.Blocks[i]))
	}

	allHeaders := make([]tendermint.Header, 0, n)
	allHeaders = append(allHeaders, tendermint.HeaderFromLightBlock(trusted))
	allHeaders = append(allHeaders, middle...)
	allHeaders = append(allHeaders, tendermint.HeaderFromLightBlock(target))

	commit, err := commitment.Build(allHeaders)
	if err != nil {
		t.Fatalf("commitment.Build: %v", err)
	}

	return &ProofInputs{
		TrustedLightBlock: trusted,
		TargetLightBlock:  target,
		Headers:           middle,
		BridgeCommitment:  commit,
	}, chain
}

func TestRun_Success(t *testing.T) {
	inputs, _ := buildInputs(t, 5)

	out, err := Run(inputs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.TrustedHeight != 100 {
		t.Errorf("expected trusted height 100, got %d", out.TrustedHeight)
	}
	if out.TargetHeight != 104 {
		t.Errorf("expected target height 104, got %d", out.TargetHeight)
	}
	if out.TrustedHeaderHash != inputs.TrustedLightBlock.HeaderHash() {
		t.Errorf("trusted header hash mismatch")
	}
}

func TestRun_VerdictNotSuccess(t *testing.T) {
	inputs, _ := buildInputs(t, 5)

	// Break the skip-verification by swapping in a target from an unrelated
	// validator set.
	otherSigner := testutil.NewSigner()
	otherChain := testutil.NewChain(otherSigner, 104, 1, baseTime.Add(10*time.Second))
	inputs.TargetLightBlock = otherChain.Blocks[0]

	_, err := Run(inputs)
	var verdictErr *ErrVerdictNotSuccess
	if !errors.As(err, &verdictErr) {
		t.Fatalf("expected ErrVerdictNotSuccess, got %v", err)
	}
}

func TestRun_CommitmentMismatch(t *testing.T) {
	inputs, _ := buildInputs(t, 5)
	inputs.BridgeCommitment = append([]byte(nil), inputs.BridgeCommitment...)
	inputs.BridgeCommitment[0] ^= 0xff

	_, err := Run(inputs)
	var mismatchErr *ErrCommitmentMismatch
	if !errors.As(err, &mismatchErr) {
		t.Fatalf("expected ErrCommitmentMismatch, got %v", err)
	}
}

func TestProofInputs_EncodeDecodeRoundTrip(t *testing.T) {
	inputs, _ := buildInputs(t, 3)

	data, err := inputs.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := DecodeProofInputs(data)
	if err != nil {
		t.Fatalf("DecodeProofInputs: %v", err)
	}
	if decoded.TrustedLightBlock.Height() != inputs.TrustedLightBlock.Height() {
		t.Errorf("trusted height mismatch after round-trip")
	}
	if decoded.TargetLightBlock.Height() != inputs.TargetLightBlock.Height() {
		t.Errorf("target height mismatch after round-trip")
	}
}

func TestProofOutputs_Encode(t *testing.T) {
	out := &ProofOutputs{TrustedHeight: 100, TargetHeight: 200}
	encoded, err := out.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(encoded) == 0 {
		t.Fatal("expected non-empty ABI-encoded output")
	}
}
