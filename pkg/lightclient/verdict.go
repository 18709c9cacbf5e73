// Package lightclient wraps the Tendermint skip-verifier behind the fixed
// policy this relayer requires, producing a tagged Verdict rather than a
// bare error. The same predicate gates both the advancement search (host)
// and the proof program (in-circuit), so it lives in one place.
package lightclient

import (
	"errors"
	"time"

	cmtmath "github.com/cometbft/cometbft/libs/math"
	"github.com/cometbft/cometbft/light"

	"github.com/fuel-infrastructure/fuelstreamx-relay/pkg/tendermint"
)

// VerificationOptions, fixed per the destination contract's security model.
// Stricter than Tendermint's default 1/3 trust threshold: see DESIGN.md.
const (
	TrustThresholdNumerator   = 2
	TrustThresholdDenominator = 3
	TrustingPeriod            = 10 * 24 * time.Hour
	MaxClockDrift             = 0 * time.Second
	VerifyTimeSlack           = 10 * time.Second
)

// Kind discriminates the tagged Verdict sum type.
type Kind int

const (
	// Success: the skip from trusted to target verifies.
	Success Kind = iota
	// NotEnoughTrust: the target validator set did not retain enough
	// voting power overlap with the trusted set.
	NotEnoughTrust
	// Invalid: the header failed verification for a reason other than
	// insufficient trust (bad commit, expired, wrong chain, etc).
	Invalid
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "Success"
	case NotEnoughTrust:
		return "NotEnoughTrust"
	case Invalid:
		return "Invalid"
	default:
		return "Unknown"
	}
}

// Verdict is the outcome of a header-update check: Success,
// NotEnoughTrust(reason), or Invalid(reason).
type Verdict struct {
	Kind   Kind
	Tally  cmtmath.Fraction // not set by GetHeaderUpdateVerdict; NotEnoughTrust reports the verifier's message in Reason
	Reason string           // populated for NotEnoughTrust and Invalid
}

// Ok reports whether the verdict is Success.
func (v Verdict) Ok() bool { return v.Kind == Success }

func (v Verdict) String() string {
	if v.Kind == Success {
		return "Success"
	}
	return v.Kind.String() + ": " + v.Reason
}

// GetHeaderUpdateVerdict is the pure function verdict(trusted, target) from
// spec §4.1. It is deterministic and performs no I/O: both light blocks must
// already be resident in memory.
func GetHeaderUpdateVerdict(trusted, target *tendermint.LightBlock) Verdict {
	verifyTime := target.SignedHeader.Header.Time.Add(VerifyTimeSlack)

	// Adjacent headers are signed by the trusted header's NEXT validator
	// set, not its own; cometbft's Verify dispatches to VerifyAdjacent or
	// VerifyNonAdjacent based on which set the caller passes in.
	trustedVals := trusted.ValidatorSet
	if target.Height() == trusted.Height()+1 {
		trustedVals = trusted.NextValidatorSet
	}

	err := light.Verify(
		trusted.SignedHeader,
		trustedVals,
		target.SignedHeader,
		target.ValidatorSet,
		TrustingPeriod,
		verifyTime,
		MaxClockDrift,
		cmtmath.Fraction{Numerator: TrustThresholdNumerator, Denominator: TrustThresholdDenominator},
	)
	if err == nil {
		return Verdict{Kind: Success}
	}

	var notEnoughTrust light.ErrNewValSetCantBeTrusted
	if errors.As(err, &notEnoughTrust) {
		return Verdict{
			Kind:   NotEnoughTrust,
			Reason: notEnoughTrust.Error(),
		}
	}

	return Verdict{Kind: Invalid, Reason: err.Error()}
}
