// sequencegen prints a generated trial sequence as JSON so experimenters
// can preview a session schedule without a running server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"agencywheel/domain/sequence"
)

func main() {
	seed := flag.Int64("seed", 0, "random seed (0 = time-based)")
	blocks := flag.Int("blocks", sequence.NumMiniBlocks, "number of mini-blocks (1-5)")
	patterns := flag.Bool("patterns", false, "also print the segment pattern per tier")
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	seq := sequence.BuildTrialSequence(rng, *blocks)
	if seq.FallbackUsed {
		fmt.Fprintln(os.Stderr, "warning: matrix generation fell back to the hardcoded matrix")
	}

	out := map[string]interface{}{
		"seed":     *seed,
		"sequence": seq,
	}
	if *patterns {
		segs := make(map[string][]bool, sequence.NumTiers)
		for _, p := range sequence.Tiers {
			segs[fmt.Sprintf("%.1f", p)] = sequence.SegmentPattern(p)
		}
		out["segmentPatterns"] = segs
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("failed to encode sequence: %v", err)
	}
}
