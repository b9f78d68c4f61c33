package domain

import "fmt"

// Attempt is one sampled design try. It exists only for the duration of a
// single loop iteration; its outcome is what gets persisted.
type Attempt struct {
	Name     string
	Length   int
	Seed     int
	Helicity float64
}

// AttemptName composes the canonical trajectory name from the binder prefix
// and the sampled parameters. The name is the join key for every artifact
// belonging to the attempt, so it must be deterministic.
func AttemptName(prefix string, length, seed int) string {
	return fmt.Sprintf("%s_l%d_s%d", prefix, length, seed)
}

// NewAttempt builds an Attempt with its derived name.
func NewAttempt(prefix string, length, seed int, helicity float64) Attempt {
	return Attempt{
		Name:     AttemptName(prefix, length, seed),
		Length:   length,
		Seed:     seed,
		Helicity: helicity,
	}
}
