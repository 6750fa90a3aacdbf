package wordle

import (
	"math/rand/v2"
	"strings"
)

// Verdict classifies a validated submission for manual review.
type Verdict string

const (
	VerdictSafe    Verdict = "safe"
	VerdictFlag    Verdict = "flag"
	VerdictCheater Verdict = "cheater"
)

// Rand abstracts the scorer's randomness so tests can pin the draws.
type Rand interface {
	// Intn returns a random int in [0, n).
	Intn(n int) int
	// Float64 returns a random float in [0, 1).
	Float64() float64
}

type systemRand struct{}

func (systemRand) Intn(n int) int   { return rand.IntN(n) }
func (systemRand) Float64() float64 { return rand.Float64() }

// NewRand returns the production randomness source.
func NewRand() Rand { return systemRand{} }

type seededRand struct{ r *rand.Rand }

func (s seededRand) Intn(n int) int   { return s.r.IntN(n) }
func (s seededRand) Float64() float64 { return s.r.Float64() }

// NewSeededRand returns a reproducible source for tests and replays.
func NewSeededRand(seed uint64) Rand {
	return seededRand{r: rand.New(rand.NewPCG(seed, seed))}
}

// perturbation is drawn uniformly, so 0 has probability 1/2.
var perturbation = [4]int{-1, 0, 0, 1}

// Suspicion scores a validated submission. Scores 4..6 and X are always safe,
// a hole-in-one is always treated as cheating, and 2s and 3s go through a
// tally of grid-shape signals plus one bounded random perturbation.
func Suspicion(grid []string, score string, rng Rand) Verdict {
	switch score {
	case "4", "5", "6", FailedScore:
		return VerdictSafe
	case "1":
		return VerdictCheater
	}

	tally := 1
	if score == "2" {
		tally = 2
	}
	if len(grid) > 0 && hotCells(grid[0]) >= 4 {
		tally += 2
	}
	if len(grid) > 1 && hotCells(grid[1]) >= 4 {
		tally++
	}
	tally += perturbation[rng.Intn(len(perturbation))]

	switch {
	case tally <= 1:
		return VerdictSafe
	case tally == 2:
		if rng.Float64() < 0.5 {
			return VerdictFlag
		}
		return VerdictSafe
	case tally == 3:
		if rng.Float64() < 0.75 {
			return VerdictFlag
		}
		return VerdictSafe
	case tally == 4:
		return VerdictFlag
	default:
		return VerdictCheater
	}
}

// hotCells counts present or correct cells in one row.
func hotCells(row string) int {
	return strings.Count(row, "Y") + strings.Count(row, "G")
}
