package sequence

// BlockType distinguishes the two halves of a mini-block.
type BlockType string

const (
	BlockAgency   BlockType = "agency"
	BlockNoAgency BlockType = "noAgency"
)

// Trial is one predetermined decision-and-outcome unit. Participant
// responses are recorded separately by the host; the generator only fixes
// the design-side fields.
type Trial struct {
	MiniBlock   int       `json:"miniBlock"` // 1-based
	SubBlock    BlockType `json:"subBlock"`
	Probability float64   `json:"probability"`
	OutcomeWin  bool      `json:"outcomeWin"`
	Agency      bool      `json:"agency"`
}

// MiniBlockPair holds one mini-block's agency and no-agency blocks. The
// two blocks share outcomes keyed by tier but are presented in
// independently shuffled orders.
type MiniBlockPair struct {
	MiniBlock int     `json:"miniBlock"` // 1-based
	Agency    []Trial `json:"agency"`
	NoAgency  []Trial `json:"noAgency"`
}

// TrialSequence is the full predetermined schedule for one session.
type TrialSequence struct {
	MiniBlocks   []MiniBlockPair `json:"miniBlocks"`
	Matrix       OutcomeMatrix   `json:"matrix"`
	FallbackUsed bool            `json:"fallbackUsed"`
}

// BuildTrialSequence builds the per-session schedule: one MiniBlockPair
// per mini-block, each containing a 4-trial agency block and a 4-trial
// no-agency block over the same outcomes. numMiniBlocks is clamped to
// [1, NumMiniBlocks]; pass NumMiniBlocks for the standard design.
//
// The per-tier win rate in the result equals the matrix-mandated rate
// exactly, identically in both conditions: agency is manipulated
// independently of outcome.
func BuildTrialSequence(rng RNG, numMiniBlocks int) TrialSequence {
	if numMiniBlocks < 1 {
		numMiniBlocks = 1
	}
	if numMiniBlocks > NumMiniBlocks {
		numMiniBlocks = NumMiniBlocks
	}

	res := BuildOutcomeMatrix(rng)
	seq := TrialSequence{
		MiniBlocks:   make([]MiniBlockPair, 0, numMiniBlocks),
		Matrix:       res.Matrix,
		FallbackUsed: res.FallbackUsed,
	}

	for mb := 0; mb < numMiniBlocks; mb++ {
		pair := MiniBlockPair{MiniBlock: mb + 1}
		for t := 0; t < NumTiers; t++ {
			win := res.Matrix[t][mb] == 1
			pair.Agency = append(pair.Agency, Trial{
				MiniBlock:   mb + 1,
				SubBlock:    BlockAgency,
				Probability: Tiers[t],
				OutcomeWin:  win,
				Agency:      true,
			})
			pair.NoAgency = append(pair.NoAgency, Trial{
				MiniBlock:   mb + 1,
				SubBlock:    BlockNoAgency,
				Probability: Tiers[t],
				OutcomeWin:  win,
				Agency:      false,
			})
		}
		shuffleTrials(pair.Agency, rng)
		shuffleTrials(pair.NoAgency, rng)
		seq.MiniBlocks = append(seq.MiniBlocks, pair)
	}
	return seq
}

// Flatten returns the presentation-order trial list: mini-blocks in
// order, agency block before no-agency block within each.
func (s TrialSequence) Flatten() []Trial {
	out := make([]Trial, 0, len(s.MiniBlocks)*2*NumTiers)
	for _, pair := range s.MiniBlocks {
		out = append(out, pair.Agency...)
		out = append(out, pair.NoAgency...)
	}
	return out
}

func shuffleTrials(a []Trial, rng RNG) {
	for i := len(a) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		a[i], a[j] = a[j], a[i]
	}
}
