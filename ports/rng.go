package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for reproducible sessions
type RNGPort interface {
	// SessionStream creates a deterministic random stream for one session.
	// The same (name, seed) pair always yields an identical stream, so a
	// session's trial schedule can be regenerated for auditing.
	SessionStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)
}
