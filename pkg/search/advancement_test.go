package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/tendermint"
	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/tendermint/testutil"
)

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// chainFetcher serves light blocks from a pre-built testutil.Chain, keyed by
// height, and satisfies LightBlockFetcher.
type chainFetcher struct {
	startHeight int64
	chain       *testutil.Chain
}

func (f *chainFetcher) FetchLightBlock(_ context.Context, height int64) (*tendermint.LightBlock, error) {
	idx := height - f.startHeight
	if idx < 0 || int(idx) >= len(f.chain.Blocks) {
		return nil, errors.New("height out of range")
	}
	return f.chain.Blocks[idx], nil
}

func TestAdvance_ReachesMaxEnd(t *testing.T) {
	signer := testutil.NewSigner()
	chain := testutil.NewChain(signer, 100, 21, baseTime)
	fetcher := &chainFetcher{startHeight: 100, chain: chain}

	trusted, target, steps, err := Advance(context.Background(), fetcher, 100, 120)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if trusted.Height() != 100 {
		t.Errorf("expected trusted height 100, got %d", trusted.Height())
	}
	if target.Height() != 120 {
		t.Errorf("expected target to reach maxEndHeight 120, got %d", target.Height())
	}
	if steps != 1 {
		t.Errorf("expected a single probe when maxEndHeight verifies directly, got %d", steps)
	}
}

func TestAdvance_Exhausted(t *testing.T) {
	trustedSigner := testutil.NewSigner()
	trustedChain := testutil.NewChain(trustedSigner, 100, 1, baseTime)

	// Every candidate height in (100, 120] is signed by an unrelated
	// validator set, so no probe verifies and the search must exhaust.
	badSigner := testutil.NewSigner()
	badChain := testutil.NewChain(badSigner, 101, 20, baseTime.Add(time.Second))

	fetcher := &stitchedFetcher{
		trustedHeight: 100,
		trusted:       trustedChain.Blocks[0],
		rest:          badChain,
		restStart:     101,
	}

	_, _, steps, err := Advance(context.Background(), fetcher, 100, 120)
	var exhausted *ErrExhausted
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if steps == 0 {
		t.Error("expected at least one probe to be counted before exhaustion")
	}
}

// stitchedFetcher serves a single trusted block plus a separate chain for
// every other height, used to simulate a trusted header whose validator set
// shares no overlap with any reachable candidate.
type stitchedFetcher struct {
	trustedHeight int64
	trusted       *tendermint.LightBlock
	rest          *testutil.Chain
	restStart     int64
}

func (f *stitchedFetcher) FetchLightBlock(_ context.Context, height int64) (*tendermint.LightBlock, error) {
	if height == f.trustedHeight {
		return f.trusted, nil
	}
	idx := height - f.restStart
	if idx < 0 || int(idx) >= len(f.rest.Blocks) {
		return nil, errors.New("height out of range")
	}
	return f.rest.Blocks[idx], nil
}

// splitFetcher serves heights <= breakpoint from chainA (rooted at trusted's
// own validator set) and heights > breakpoint from chainB, signed by a
// disjoint validator set. Only the chainA side verifies against trusted, so
// Advance must bisect down past the breakpoint to find a valid target.
type splitFetcher struct {
	breakpoint        int64
	chainA, chainB    *testutil.Chain
	startA, startB    int64
}

func (f *splitFetcher) FetchLightBlock(_ context.Context, height int64) (*tendermint.LightBlock, error) {
	if height <= f.breakpoint {
		idx := height - f.startA
		return f.chainA.Blocks[idx], nil
	}
	idx := height - f.startB
	return f.chainB.Blocks[idx], nil
}

func TestAdvance_BisectsToValidTarget(t *testing.T) {
	signerA := testutil.NewSigner()
	chainA := testutil.NewChain(signerA, 100, 6, baseTime) // heights 100..105

	signerB := testutil.NewSigner()
	chainB := testutil.NewChain(signerB, 106, 15, baseTime.Add(6*time.Second)) // heights 106..120

	fetcher := &splitFetcher{breakpoint: 105, chainA: chainA, chainB: chainB, startA: 100, startB: 106}

	trusted, target, steps, err := Advance(context.Background(), fetcher, 100, 120)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if trusted.Height() != 100 {
		t.Fatalf("expected trusted height 100, got %d", trusted.Height())
	}
	if target.Height() > 105 {
		t.Fatalf("expected bisection to land at or before the trust breakpoint 105, got %d", target.Height())
	}
	if steps < 2 {
		t.Errorf("expected more than one probe when the first candidate fails verification, got %d", steps)
	}
}
