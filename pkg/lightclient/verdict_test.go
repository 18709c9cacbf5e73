package lightclient

import (
	"testing"
	"time"

	cmttypes "github.com/cometbft/cometbft/types"

	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/tendermint/testutil"
)

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestGetHeaderUpdateVerdict_Success(t *testing.T) {
	signer := testutil.NewSigner()
	chain := testutil.NewChain(signer, 100, 10, baseTime)

	trusted := chain.At(100, 100)
	target := chain.At(109, 100)

	verdict := GetHeaderUpdateVerdict(trusted, target)
	if !verdict.Ok() {
		t.Fatalf("expected Success, got %s", verdict)
	}
}

func TestGetHeaderUpdateVerdict_SuccessAdjacent(t *testing.T) {
	signer := testutil.NewSigner()
	chain := testutil.NewChain(signer, 100, 2, baseTime)

	trusted := chain.At(100, 100)
	target := chain.At(101, 100)

	verdict := GetHeaderUpdateVerdict(trusted, target)
	if !verdict.Ok() {
		t.Fatalf("expected Success for adjacent skip, got %s", verdict)
	}
}

func TestGetHeaderUpdateVerdict_NotEnoughTrust(t *testing.T) {
	trustedSigner := testutil.NewSigner()
	trustedValSet := cmttypes.NewValidatorSet([]*cmttypes.Validator{trustedSigner.Val})
	trusted := testutil.NewBlock(trustedSigner, trustedValSet, 100, baseTime, cmttypes.BlockID{})

	// An entirely disjoint validator set signs the target: no overlap with
	// the trusted set, so the non-adjacent trust-level check must fail.
	targetSigner := testutil.NewSigner()
	targetValSet := cmttypes.NewValidatorSet([]*cmttypes.Validator{targetSigner.Val})
	target := testutil.NewBlock(targetSigner, targetValSet, 110, baseTime.Add(10*time.Second), cmttypes.BlockID{})

	verdict := GetHeaderUpdateVerdict(trusted, target)
	if verdict.Kind != NotEnoughTrust {
		t.Fatalf("expected NotEnoughTrust, got %s", verdict)
	}
}

func TestGetHeaderUpdateVerdict_InvalidExpired(t *testing.T) {
	signer := testutil.NewSigner()
	valSet := cmttypes.NewValidatorSet([]*cmttypes.Validator{signer.Val})

	trusted := testutil.NewBlock(signer, valSet, 100, baseTime, cmttypes.BlockID{})
	// Target is far enough past TrustingPeriod that the trusted header has
	// expired by the time verification is evaluated.
	target := testutil.NewBlock(signer, valSet, 110, baseTime.Add(TrustingPeriod+time.Hour), cmttypes.BlockID{})

	verdict := GetHeaderUpdateVerdict(trusted, target)
	if verdict.Kind != Invalid {
		t.Fatalf("expected Invalid (expired), got %s", verdict)
	}
}
