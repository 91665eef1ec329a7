package sequence

import (
	"math"
	"math/rand"
	"testing"
)

func TestBuildTrialSequence_Shape(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	seq := BuildTrialSequence(rng, NumMiniBlocks)

	if len(seq.MiniBlocks) != NumMiniBlocks {
		t.Fatalf("expected %d mini-block pairs, got %d", NumMiniBlocks, len(seq.MiniBlocks))
	}
	for i, pair := range seq.MiniBlocks {
		if pair.MiniBlock != i+1 {
			t.Errorf("pair %d: expected mini-block number %d, got %d", i, i+1, pair.MiniBlock)
		}
		for _, block := range [][]Trial{pair.Agency, pair.NoAgency} {
			if len(block) != NumTiers {
				t.Fatalf("pair %d: expected %d trials per block, got %d", i, NumTiers, len(block))
			}
			seen := map[float64]bool{}
			for _, tr := range block {
				seen[tr.Probability] = true
				if tr.MiniBlock != i+1 {
					t.Errorf("trial carries mini-block %d, want %d", tr.MiniBlock, i+1)
				}
			}
			for _, p := range Tiers {
				if !seen[p] {
					t.Errorf("pair %d: block missing tier %v", i, p)
				}
			}
		}
		for _, tr := range pair.Agency {
			if !tr.Agency || tr.SubBlock != BlockAgency {
				t.Error("agency block trial not stamped agency")
			}
		}
		for _, tr := range pair.NoAgency {
			if tr.Agency || tr.SubBlock != BlockNoAgency {
				t.Error("no-agency block trial not stamped no-agency")
			}
		}
	}
}

func TestBuildTrialSequence_OutcomesPairedByTier(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 100; trial++ {
		seq := BuildTrialSequence(rng, NumMiniBlocks)
		for _, pair := range seq.MiniBlocks {
			byTier := map[float64]bool{}
			for _, tr := range pair.Agency {
				byTier[tr.Probability] = tr.OutcomeWin
			}
			for _, tr := range pair.NoAgency {
				if byTier[tr.Probability] != tr.OutcomeWin {
					t.Fatalf("mini-block %d tier %v: agency and no-agency outcomes differ",
						pair.MiniBlock, tr.Probability)
				}
			}
		}
	}
}

func TestBuildTrialSequence_OutcomesMatchMatrix(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	seq := BuildTrialSequence(rng, NumMiniBlocks)
	for _, pair := range seq.MiniBlocks {
		for _, tr := range pair.Agency {
			tier := -1
			for i, p := range Tiers {
				if p == tr.Probability {
					tier = i
				}
			}
			if tier < 0 {
				t.Fatalf("unknown probability %v", tr.Probability)
			}
			want := seq.Matrix[tier][pair.MiniBlock-1] == 1
			if tr.OutcomeWin != want {
				t.Errorf("mini-block %d tier %d: outcome %v, matrix says %v",
					pair.MiniBlock, tier, tr.OutcomeWin, want)
			}
		}
	}
}

func TestBuildTrialSequence_ClampsMiniBlockCount(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	if got := len(BuildTrialSequence(rng, 0).MiniBlocks); got != 1 {
		t.Errorf("expected clamp to 1 mini-block, got %d", got)
	}
	if got := len(BuildTrialSequence(rng, 99).MiniBlocks); got != NumMiniBlocks {
		t.Errorf("expected clamp to %d mini-blocks, got %d", NumMiniBlocks, got)
	}
	if got := len(BuildTrialSequence(rng, 3).MiniBlocks); got != 3 {
		t.Errorf("expected 3 mini-blocks, got %d", got)
	}
}

func TestFlatten_PresentationOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(14))
	seq := BuildTrialSequence(rng, NumMiniBlocks)
	flat := seq.Flatten()

	if len(flat) != NumMiniBlocks*2*NumTiers {
		t.Fatalf("expected %d trials, got %d", NumMiniBlocks*2*NumTiers, len(flat))
	}
	for i, tr := range flat {
		wantMB := i/(2*NumTiers) + 1
		wantAgency := (i/NumTiers)%2 == 0
		if tr.MiniBlock != wantMB {
			t.Errorf("trial %d: mini-block %d, want %d", i, tr.MiniBlock, wantMB)
		}
		if tr.Agency != wantAgency {
			t.Errorf("trial %d: agency %v, want %v", i, tr.Agency, wantAgency)
		}
	}
}

// The agency and no-agency block orders are two independent shuffles.
// Across many sequences the position of a tier in one block should be
// uncorrelated with its position in the paired block.
func TestBuildTrialSequence_ShufflesIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(15))
	var xs, ys []float64
	for trial := 0; trial < 500; trial++ {
		seq := BuildTrialSequence(rng, NumMiniBlocks)
		for _, pair := range seq.MiniBlocks {
			xs = append(xs, float64(positionOfTier(pair.Agency, Tiers[0])))
			ys = append(ys, float64(positionOfTier(pair.NoAgency, Tiers[0])))
		}
	}
	r := pearson(xs, ys)
	if math.Abs(r) > 0.08 {
		t.Errorf("expected near-zero correlation between block positions, got %.4f", r)
	}
}

func positionOfTier(block []Trial, p float64) int {
	for i, tr := range block {
		if tr.Probability == p {
			return i
		}
	}
	return -1
}

func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	var sx, sy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
	}
	mx, my := sx/n, sy/n
	var cov, vx, vy float64
	for i := range xs {
		cov += (xs[i] - mx) * (ys[i] - my)
		vx += (xs[i] - mx) * (xs[i] - mx)
		vy += (ys[i] - my) * (ys[i] - my)
	}
	return cov / math.Sqrt(vx*vy)
}
