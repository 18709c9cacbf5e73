// Package operator implements the control loop of spec §4.8: pre-flight
// vkey check, then per-cycle reconciliation of destination-contract state
// against source-chain head, proof assembly, proving, and submission.
package operator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/ethereum"
	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/metrics"
	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/proofprogram"
	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/prover"
	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/search"
	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/tendermint"
)

// Logger is the minimal logging seam used throughout this codebase: any
// *log.Logger satisfies it directly.
type Logger interface {
	Printf(format string, args ...interface{})
}

// ErrConfigMismatch is fatal for the whole process: the on-chain verifier
// expects a different program, or the RPC endpoints point at the wrong
// chain entirely.
type ErrConfigMismatch struct {
	Reason string
}

func (e *ErrConfigMismatch) Error() string { return "configuration mismatch: " + e.Reason }

// CheckpointStore is satisfied by both pkg/checkpoint.Store (leveldb) and
// pkg/checkpoint.PostgresStore, so the operator loop is indifferent to which
// backend a deployment picked. A nil CheckpointStore disables caching
// entirely.
type CheckpointStore interface {
	PutRange(start int64, headers []tendermint.Header) error
	GetRange(start, end int64) ([]tendermint.Header, bool, error)
}

// Result is returned by a successful cycle for logging, per §4.8 step 11.
type Result struct {
	PublicValues []byte
	TxHash       string
}

// Operator wires together every component described in the core spec's
// component table.
type Operator struct {
	Source      *tendermint.Client
	Destination *ethereum.BridgeClient
	Prover      *prover.Client
	Checkpoint  CheckpointStore
	Metrics     *metrics.Metrics
	Logger      Logger

	MinimumBlockRange int64
	ProveTimeout      time.Duration
}

// PreFlight compares the destination contract's pinned vKey against the
// prover client's own digest. A mismatch is fatal: see spec §4.8.
func (o *Operator) PreFlight(ctx context.Context) error {
	contractVKey, err := o.Destination.ProgramVKey(ctx)
	if err != nil {
		return fmt.Errorf("read contract vkey: %w", err)
	}

	proverVKey, err := o.Prover.VKeyHash()
	if err != nil {
		return fmt.Errorf("read prover vkey: %w", err)
	}

	if contractVKey != proverVKey {
		return &ErrConfigMismatch{Reason: fmt.Sprintf("contract vkey %x != prover vkey %x", contractVKey, proverVKey)}
	}
	return nil
}

// RunCycle executes one full pipeline pass, steps 1-11 of §4.8. A nil
// Result with a non-nil error means the cycle should be retried (or, for
// ErrConfigMismatch, the process should exit) next tick; a nil error with
// a nil Result means the minimum-block-range gate fired and the cycle was
// skipped deliberately.
func (o *Operator) RunCycle(ctx context.Context) (*Result, error) {
	cycleID := uuid.NewString()
	log := func(format string, args ...interface{}) {
		o.Logger.Printf("cycle=%s "+format, append([]interface{}{cycleID}, args...)...)
	}

	o.Metrics.CyclesTotal.Inc()

	// Step 1: read trusted state from the destination contract.
	trustedHeight, trustedHash, err := o.Destination.LatestSync(ctx)
	if err != nil {
		o.Metrics.CyclesFailedTotal.WithLabelValues("destination_read").Inc()
		return nil, fmt.Errorf("read latest sync: %w", err)
	}
	bridgeCommitmentMax, err := o.Destination.BridgeCommitmentMax(ctx)
	if err != nil {
		o.Metrics.CyclesFailedTotal.WithLabelValues("destination_read").Inc()
		return nil, fmt.Errorf("read bridge commitment max: %w", err)
	}
	log("trusted_height=%d trusted_hash=%x bridge_commitment_max=%d", trustedHeight, trustedHash, bridgeCommitmentMax)

	// Step 2: cross-check the trusted anchor against the source chain.
	trustedLightBlock, err := o.Source.FetchLightBlock(ctx, int64(trustedHeight))
	if err != nil {
		o.Metrics.CyclesFailedTotal.WithLabelValues("source_rpc").Inc()
		return nil, fmt.Errorf("fetch trusted light block: %w", err)
	}
	if trustedLightBlock.HeaderHash() != trustedHash {
		return nil, &ErrConfigMismatch{Reason: fmt.Sprintf(
			"source chain header hash at %d is %x, contract expects %x (wrong RPC endpoint?)",
			trustedHeight, trustedLightBlock.HeaderHash(), trustedHash)}
	}

	// Step 3: read source-chain head.
	latestHead, err := o.Source.HeadHeight(ctx)
	if err != nil {
		o.Metrics.CyclesFailedTotal.WithLabelValues("source_rpc").Inc()
		return nil, fmt.Errorf("read source head: %w", err)
	}

	// Step 4: candidate range, capped by the contract's per-proof span limit.
	maxEnd := latestHead
	if cap := int64(trustedHeight) + int64(bridgeCommitmentMax); cap < maxEnd {
		maxEnd = cap
	}

	// Step 5: minimum-block-range gate.
	if maxEnd-int64(trustedHeight) < o.MinimumBlockRange {
		log("range too small (have %d, need %d): sleeping", maxEnd-int64(trustedHeight), o.MinimumBlockRange)
		return nil, nil
	}

	// Step 6: advancement search.
	_, targetLightBlock, steps, err := search.Advance(ctx, o.Source, int64(trustedHeight), maxEnd)
	o.Metrics.BisectionSteps.Observe(float64(steps))
	if err != nil {
		o.Metrics.CyclesFailedTotal.WithLabelValues("advancement_search").Inc()
		return nil, fmt.Errorf("advancement search: %w", err)
	}
	log("advancement search: trusted=%d target=%d steps=%d", trustedHeight, targetLightBlock.Height(), steps)

	// Step 7: fetch the intermediate headers, consulting the checkpoint
	// cache first.
	headers, err := o.fetchHeaders(ctx, int64(trustedHeight)+1, targetLightBlock.Height())
	if err != nil {
		o.Metrics.CyclesFailedTotal.WithLabelValues("source_rpc").Inc()
		return nil, fmt.Errorf("fetch intermediate headers: %w", err)
	}

	// Step 8: fetch the authoritative bridge commitment.
	bridgeCommitment, err := o.Source.FetchBridgeCommitment(ctx, int64(trustedHeight), targetLightBlock.Height())
	if err != nil {
		o.Metrics.CyclesFailedTotal.WithLabelValues("source_grpc").Inc()
		return nil, fmt.Errorf("fetch bridge commitment: %w", err)
	}

	inputs := &proofprogram.ProofInputs{
		TrustedLightBlock: trustedLightBlock,
		TargetLightBlock:  targetLightBlock,
		Headers:           headers,
		BridgeCommitment:  bridgeCommitment,
	}

	// Step 9: prove.
	proveStart := time.Now()
	proofBytes, publicValues, err := o.Prover.Prove(ctx, inputs, o.ProveTimeout)
	o.Metrics.ProveDuration.Observe(time.Since(proveStart).Seconds())
	if err != nil {
		o.Metrics.CyclesFailedTotal.WithLabelValues("prove").Inc()
		return nil, fmt.Errorf("prove: %w", err)
	}

	// Step 10: submit.
	submitStart := time.Now()
	txHash, err := o.Destination.CommitHeaderRange(ctx, proofBytes, publicValues)
	o.Metrics.SubmitDuration.Observe(time.Since(submitStart).Seconds())
	if err != nil {
		o.Metrics.CyclesFailedTotal.WithLabelValues("submit").Inc()
		return nil, fmt.Errorf("commit header range: %w", err)
	}

	log("submitted tx=%s trusted=%d target=%d", txHash.Hex(), trustedHeight, targetLightBlock.Height())

	// Step 11.
	return &Result{PublicValues: publicValues, TxHash: txHash.Hex()}, nil
}

// fetchHeaders returns the headers-only range [start, end), serving from
// the checkpoint cache when a prior cycle already fetched and persisted it.
// A cache miss (including a nil Checkpoint) falls back to the source
// client and, when a store is configured, persists the fresh result.
func (o *Operator) fetchHeaders(ctx context.Context, start, end int64) ([]tendermint.Header, error) {
	if start >= end {
		return nil, nil
	}

	if o.Checkpoint != nil {
		cached, hit, err := o.Checkpoint.GetRange(start, end)
		if err != nil {
			return nil, fmt.Errorf("read checkpoint cache: %w", err)
		}
		if hit {
			return cached, nil
		}
	}

	headers, err := o.Source.FetchHeaders(ctx, start, end)
	if err != nil {
		return nil, err
	}

	if o.Checkpoint != nil {
		if err := o.Checkpoint.PutRange(start, headers); err != nil {
			o.Logger.Printf("checkpoint cache write failed for range [%d,%d): %v", start, end, err)
		}
	}

	return headers, nil
}
