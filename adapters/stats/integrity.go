package stats

import (
	"agencywheel/domain/sequence"
	"agencywheel/internal/errors"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sequencing-integrity checks. These run over many generated matrices or
// sequences, not a single session: a healthy generator spreads each
// tier's wins uniformly across mini-block columns, and shuffles the two
// blocks of a pair independently.

// PlacementAudit is the result of a chi-squared goodness-of-fit test of
// where one tier's wins land across mini-block columns.
type PlacementAudit struct {
	Tier     int       `json:"tier"`
	Observed []float64 `json:"observed"`
	Expected float64   `json:"expected"`
	ChiSq    float64   `json:"chiSq"`
	PValue   float64   `json:"pValue"`
}

// TierPlacementChiSquare tests whether tier's wins are uniformly placed
// over the matrix columns across the given matrices. A tiny p-value
// flags a skewed generator (for example, heavy fallback use pinning wins
// to fixed columns).
func TierPlacementChiSquare(matrices []sequence.OutcomeMatrix, tier int) (PlacementAudit, error) {
	if tier < 0 || tier >= sequence.NumTiers {
		return PlacementAudit{}, errors.InvalidInput("tier out of range")
	}
	if len(matrices) == 0 {
		return PlacementAudit{}, errors.InvalidInput("no matrices to audit")
	}

	observed := make([]float64, sequence.NumMiniBlocks)
	for _, m := range matrices {
		for c := 0; c < sequence.NumMiniBlocks; c++ {
			if m[tier][c] == 1 {
				observed[c]++
			}
		}
	}

	// Each matrix places tier+1 wins among 5 columns.
	expected := float64(len(matrices)*(tier+1)) / float64(sequence.NumMiniBlocks)
	chiSq := 0.0
	for _, o := range observed {
		d := o - expected
		chiSq += d * d / expected
	}

	dist := distuv.ChiSquared{K: float64(sequence.NumMiniBlocks - 1)}
	return PlacementAudit{
		Tier:     tier,
		Observed: observed,
		Expected: expected,
		ChiSq:    chiSq,
		PValue:   1 - dist.CDF(chiSq),
	}, nil
}

// ShuffleIndependence returns the Pearson correlation between a tier's
// position in the agency block and its position in the paired no-agency
// block, across all pairs of the given sequences. Independent shuffles
// give a correlation near zero.
func ShuffleIndependence(sequences []sequence.TrialSequence, probability float64) (float64, error) {
	var agencyPos, noAgencyPos stats.Float64Data
	for _, seq := range sequences {
		for _, pair := range seq.MiniBlocks {
			a := trialPosition(pair.Agency, probability)
			n := trialPosition(pair.NoAgency, probability)
			if a < 0 || n < 0 {
				return 0, errors.InvalidInput("probability is not a tier of the sequence")
			}
			agencyPos = append(agencyPos, float64(a))
			noAgencyPos = append(noAgencyPos, float64(n))
		}
	}
	if len(agencyPos) < 2 {
		return 0, errors.InvalidInput("not enough pairs to correlate")
	}
	return stats.Correlation(agencyPos, noAgencyPos)
}

func trialPosition(block []sequence.Trial, probability float64) int {
	for i, trial := range block {
		if trial.Probability == probability {
			return i
		}
	}
	return -1
}
