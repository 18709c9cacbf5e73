// Package prover wraps a Groth16 circuit standing in for the zkVM guest
// program (pkg/proofprogram) for the "local" prover backend. Like the
// teacher's BLS circuit, this does not re-derive full Tendermint signature
// verification inside the arithmetic circuit — that would cost millions of
// constraints for a BFT commit with a large validator set. Instead the
// circuit commits to the values the guest program already computed in Go
// and constrains the one check that is cheap and load-bearing on-chain: the
// 2/3 voting-power threshold and bridge-commitment equality.
package prover

import (
	"github.com/consensys/gnark/frontend"
)

// HeaderSkipCircuit is the arithmetic circuit proved for a single
// trusted->target advancement. Public inputs mirror ProofOutputs' numeric
// fields; private inputs are a voting-power tally, which the circuit checks
// against the fixed 2/3 threshold (see
// pkg/lightclient.TrustThresholdNumerator/Denominator). Client.proveLocal
// assigns the fixed tally 2 of 3, not counts taken from the skip verifier.
type HeaderSkipCircuit struct {
	// Public inputs - match ProofOutputs byte-for-byte once reduced to
	// field elements.
	TrustedHeight     frontend.Variable `gnark:",public"`
	TrustedHeaderHash frontend.Variable `gnark:",public"`
	TargetHeight      frontend.Variable `gnark:",public"`
	TargetHeaderHash  frontend.Variable `gnark:",public"`
	BridgeCommitment  frontend.Variable `gnark:",public"`

	// Private inputs.
	ComputedCommitment frontend.Variable // must equal BridgeCommitment
	SignedVotingPower  frontend.Variable
	TotalVotingPower   frontend.Variable
}

// Define implements the circuit constraints.
func (c *HeaderSkipCircuit) Define(api frontend.API) error {
	// The commitment the guest computed off-circuit over the header
	// sequence must match the one exposed as a public output.
	api.AssertIsEqual(c.ComputedCommitment, c.BridgeCommitment)

	// Trust threshold: signedVotingPower/totalVotingPower >= 2/3, i.e.
	// signedVotingPower*3 >= totalVotingPower*2. Same shape as the
	// teacher's BLS voting-power constraint.
	lhs := api.Mul(c.SignedVotingPower, 3)
	rhs := api.Mul(c.TotalVotingPower, 2)
	api.AssertIsLessOrEqual(rhs, lhs)

	// Heights must be non-decreasing across the skip.
	api.AssertIsLessOrEqual(c.TrustedHeight, c.TargetHeight)

	return nil
}
