// Package search implements the header-advancement search: the host-side
// lower binary search that picks the furthest target height a single
// trusted header can skip-verify to.
package search

import (
	"context"
	"fmt"

	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/lightclient"
	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/tendermint"
)

// LightBlockFetcher fetches a single light block by height. The source
// client satisfies this; it is an interface here so advancement search has
// no transport dependency.
type LightBlockFetcher interface {
	FetchLightBlock(ctx context.Context, height int64) (*tendermint.LightBlock, error)
}

// ErrExhausted is returned when the search collapses without finding a
// valid target in range. Fatal for the current cycle: the operator loop
// retries (and may widen the range) next tick.
type ErrExhausted struct {
	TrustedHeight int64
	MaxEndHeight  int64
}

func (e *ErrExhausted) Error() string {
	return fmt.Sprintf("no valid target in range (%d, %d]", e.TrustedHeight, e.MaxEndHeight)
}

// Advance runs the lower binary search of §4.5: given trustedHeight <
// maxEndHeight, return the furthest height h <= maxEndHeight for which
// verdict(trusted, block_at(h)) == Success, plus the two light blocks and
// the number of candidate probes it took to land there (D3: exposed so
// callers can record it as a per-cycle metric).
//
// fetch_light_block(trustedHeight) is performed exactly once and reused
// across every probe, per §4.5's "fetched once" requirement.
func Advance(ctx context.Context, fetcher LightBlockFetcher, trustedHeight, maxEndHeight int64) (trusted, target *tendermint.LightBlock, steps int, err error) {
	trusted, err = fetcher.FetchLightBlock(ctx, trustedHeight)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("fetch trusted light block at %d: %w", trustedHeight, err)
	}

	curr := maxEndHeight
	for trustedHeight < curr {
		candidate, ferr := fetcher.FetchLightBlock(ctx, curr)
		if ferr != nil {
			return nil, nil, steps, fmt.Errorf("fetch candidate light block at %d: %w", curr, ferr)
		}
		steps++

		verdict := lightclient.GetHeaderUpdateVerdict(trusted, candidate)
		if verdict.Ok() {
			return trusted, candidate, steps, nil
		}

		curr = (trustedHeight + curr) / 2 // floor division
	}

	return nil, nil, steps, &ErrExhausted{TrustedHeight: trustedHeight, MaxEndHeight: maxEndHeight}
}
