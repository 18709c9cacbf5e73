package commitment

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/tendermint"
)

func chainedHeaders(n int) []tendermint.Header {
	headers := make([]tendermint.Header, n)
	for i := 0; i < n; i++ {
		headers[i] = tendermint.Header{Height: uint64(100 + i)}
		headers[i].LastResultsHash[0] = byte(i + 1)
		headers[i].HeaderHash[0] = byte(i + 1)
		if i > 0 {
			headers[i].LastBlockIDHash = headers[i-1].HeaderHash
		}
	}
	return headers
}

func TestBuild_TooFewHeaders(t *testing.T) {
	_, err := Build(chainedHeaders(1))
	if !errors.Is(err, ErrTooFewHeaders) {
		t.Fatalf("expected ErrTooFewHeaders, got %v", err)
	}
}

func TestBuild_ChainContinuityViolated(t *testing.T) {
	headers := chainedHeaders(3)
	headers[2].LastBlockIDHash[0] = 0xff // break the chain

	_, err := Build(headers)
	if !errors.Is(err, ErrChainContinuity) {
		t.Fatalf("expected ErrChainContinuity, got %v", err)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	headers := chainedHeaders(4)

	root1, err := Build(headers)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	root2, err := Build(headers)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !bytes.Equal(root1, root2) {
		t.Fatalf("expected identical commitments, got %x and %x", root1, root2)
	}
}

func TestBuild_ExcludesLastHeaderResultsHash(t *testing.T) {
	headers := chainedHeaders(3)
	withoutTail := make([]tendermint.Header, len(headers))
	copy(withoutTail, headers)
	withoutTail[len(withoutTail)-1].LastResultsHash[31] = 0xaa // mutate only the excluded field

	root1, err := Build(headers)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	root2, err := Build(withoutTail)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !bytes.Equal(root1, root2) {
		t.Fatalf("expected last header's last_results_hash to be excluded from the commitment")
	}
}

func TestBuild_DifferentRangesDiffer(t *testing.T) {
	root1, err := Build(chainedHeaders(3))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	root2, err := Build(chainedHeaders(4))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if bytes.Equal(root1, root2) {
		t.Fatalf("expected different header ranges to produce different commitments")
	}
}

func TestEncodeLeaf(t *testing.T) {
	leaf, err := EncodeLeaf(42, [32]byte{1, 2, 3})
	if err != nil {
		t.Fatalf("EncodeLeaf: %v", err)
	}
	if len(leaf) == 0 {
		t.Fatal("expected non-empty ABI-encoded leaf")
	}
}
