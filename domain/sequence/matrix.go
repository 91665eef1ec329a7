package sequence

// Experiment dimensions. Rows of the outcome matrix are win-probability
// tiers, columns are mini-blocks.
const (
	NumTiers      = 4
	NumMiniBlocks = 5

	// maxMatrixAttempts bounds the rejection-sampling loop in
	// BuildOutcomeMatrix before it falls back to FallbackMatrix.
	maxMatrixAttempts = 1000
)

// Tiers maps a row index to its win probability.
var Tiers = [NumTiers]float64{0.2, 0.4, 0.6, 0.8}

// OutcomeMatrix is the predetermined win/loss grid for one session.
// m[r][c] == 1 means tier r wins in mini-block c.
type OutcomeMatrix [NumTiers][NumMiniBlocks]int

// FallbackMatrix is a hand-checked valid matrix used when random
// generation exhausts its attempt budget. Row r carries r+1 wins, so the
// tier win rates are 20/40/60/80% as required; no column is all-win or
// all-loss.
var FallbackMatrix = OutcomeMatrix{
	{0, 0, 1, 0, 0},
	{1, 0, 0, 1, 0},
	{1, 1, 0, 0, 1},
	{1, 1, 1, 1, 0},
}

// MatrixResult carries a built matrix together with generation metadata.
// FallbackUsed marks a degraded (non-random) matrix so the host can flag
// the session for experiment-integrity auditing.
type MatrixResult struct {
	Matrix       OutcomeMatrix
	Attempts     int
	FallbackUsed bool
}

// BuildOutcomeMatrix generates a valid outcome matrix by rejection
// sampling: each row is a shuffled template with exactly r+1 wins, then a
// single column permutation is applied jointly to all rows. Row sums are
// unaffected by either step, so only the column bounds need checking.
// Never fails; after maxMatrixAttempts it returns FallbackMatrix.
func BuildOutcomeMatrix(rng RNG) MatrixResult {
	for attempt := 1; attempt <= maxMatrixAttempts; attempt++ {
		m := candidateMatrix(rng)
		if m.Valid() {
			return MatrixResult{Matrix: m, Attempts: attempt}
		}
	}
	return MatrixResult{Matrix: FallbackMatrix, Attempts: maxMatrixAttempts, FallbackUsed: true}
}

func candidateMatrix(rng RNG) OutcomeMatrix {
	var rows OutcomeMatrix
	for r := 0; r < NumTiers; r++ {
		row := make([]int, NumMiniBlocks)
		for i := 0; i <= r; i++ {
			row[i] = 1
		}
		shuffleInts(row, rng)
		copy(rows[r][:], row)
	}

	// One permutation reused across all rows. Independent per-row
	// permutations would also preserve row sums, but the joint permutation
	// is what decorrelates which mini-blocks receive which tier's wins
	// without touching the per-row structure.
	perm := make([]int, NumMiniBlocks)
	for i := range perm {
		perm[i] = i
	}
	shuffleInts(perm, rng)

	var m OutcomeMatrix
	for r := 0; r < NumTiers; r++ {
		for c := 0; c < NumMiniBlocks; c++ {
			m[r][c] = rows[r][perm[c]]
		}
	}
	return m
}

// Valid reports whether the matrix satisfies both design constraints:
// row r sums to r+1, and no column is all-loss (0) or all-win (4).
func (m OutcomeMatrix) Valid() bool {
	for r := 0; r < NumTiers; r++ {
		sum := 0
		for c := 0; c < NumMiniBlocks; c++ {
			sum += m[r][c]
		}
		if sum != r+1 {
			return false
		}
	}
	for c := 0; c < NumMiniBlocks; c++ {
		sum := 0
		for r := 0; r < NumTiers; r++ {
			sum += m[r][c]
		}
		if sum == 0 || sum == NumTiers {
			return false
		}
	}
	return true
}

// Rows returns the matrix as nested slices, the shape used by the
// session export document.
func (m OutcomeMatrix) Rows() [][]int {
	out := make([][]int, NumTiers)
	for r := 0; r < NumTiers; r++ {
		out[r] = make([]int, NumMiniBlocks)
		copy(out[r], m[r][:])
	}
	return out
}
