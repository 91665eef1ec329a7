package stats

import (
	"math"
	"math/rand"
	"testing"

	"agencywheel/domain/sequence"
)

func TestTierPlacementChiSquare_RandomMatricesPass(t *testing.T) {
	rng := rand.New(rand.NewSource(30))
	matrices := make([]sequence.OutcomeMatrix, 0, 400)
	for i := 0; i < 400; i++ {
		matrices = append(matrices, sequence.BuildOutcomeMatrix(rng).Matrix)
	}

	for tier := 0; tier < sequence.NumTiers; tier++ {
		audit, err := TierPlacementChiSquare(matrices, tier)
		if err != nil {
			t.Fatalf("tier %d: audit failed: %v", tier, err)
		}
		if audit.PValue < 0.001 {
			t.Errorf("tier %d: random generator flagged as skewed (p=%v, chi2=%v)",
				tier, audit.PValue, audit.ChiSq)
		}
		total := 0.0
		for _, o := range audit.Observed {
			total += o
		}
		if total != float64(len(matrices)*(tier+1)) {
			t.Errorf("tier %d: observed totals %v inconsistent with row invariant", tier, total)
		}
	}
}

func TestTierPlacementChiSquare_DetectsFallbackPinning(t *testing.T) {
	// All-fallback input: every win pinned to the same columns.
	matrices := make([]sequence.OutcomeMatrix, 300)
	for i := range matrices {
		matrices[i] = sequence.FallbackMatrix
	}
	audit, err := TierPlacementChiSquare(matrices, 0)
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if audit.PValue > 1e-6 {
		t.Errorf("expected pinned placements to be flagged, p=%v", audit.PValue)
	}
}

func TestTierPlacementChiSquare_InputValidation(t *testing.T) {
	if _, err := TierPlacementChiSquare(nil, 0); err == nil {
		t.Error("expected error for empty matrix set")
	}
	if _, err := TierPlacementChiSquare([]sequence.OutcomeMatrix{sequence.FallbackMatrix}, 9); err == nil {
		t.Error("expected error for out-of-range tier")
	}
}

func TestShuffleIndependence_NearZero(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	sequences := make([]sequence.TrialSequence, 0, 400)
	for i := 0; i < 400; i++ {
		sequences = append(sequences, sequence.BuildTrialSequence(rng, sequence.NumMiniBlocks))
	}

	r, err := ShuffleIndependence(sequences, sequence.Tiers[0])
	if err != nil {
		t.Fatalf("ShuffleIndependence failed: %v", err)
	}
	if math.Abs(r) > 0.08 {
		t.Errorf("expected near-zero correlation, got %v", r)
	}
}

func TestShuffleIndependence_UnknownTier(t *testing.T) {
	rng := rand.New(rand.NewSource(32))
	sequences := []sequence.TrialSequence{sequence.BuildTrialSequence(rng, sequence.NumMiniBlocks)}
	if _, err := ShuffleIndependence(sequences, 0.37); err == nil {
		t.Error("expected error for probability that is not a tier")
	}
}
