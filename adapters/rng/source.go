package rng

import (
	"context"
	"hash/fnv"
	"math/rand"
	"time"
)

// Source implements ports.RNGPort with math/rand streams derived from a
// base seed plus a stream name, so distinct sessions get distinct but
// individually reproducible streams.
type Source struct {
	baseSeed int64
}

// New creates a Source. baseSeed 0 selects a time-based seed, which makes
// streams non-reproducible across restarts (production default).
func New(baseSeed int64) *Source {
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}
	return &Source{baseSeed: baseSeed}
}

// SessionStream creates a deterministic random stream for one session
func (s *Source) SessionStream(_ context.Context, name string, seed int64) (*rand.Rand, error) {
	h := fnv.New64a()
	h.Write([]byte(name))
	streamSeed := s.baseSeed ^ seed ^ int64(h.Sum64())
	return rand.New(rand.NewSource(streamSeed)), nil
}
