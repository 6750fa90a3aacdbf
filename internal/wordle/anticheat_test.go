package wordle

import "testing"

// fixedRand pins every draw so outcomes are exact.
type fixedRand struct {
	intn  int
	float float64
}

func (f fixedRand) Intn(n int) int   { return f.intn % n }
func (f fixedRand) Float64() float64 { return f.float }

func grid(rows ...string) []string { return rows }

func TestSuspicionHighScoresAlwaysSafe(t *testing.T) {
	hot := grid("GGGGY", "GGGGY", "GGGGY", "GGGGG")
	for _, score := range []string{"4", "5", "6", "X"} {
		for seed := uint64(0); seed < 20; seed++ {
			if v := Suspicion(hot, score, NewSeededRand(seed)); v != VerdictSafe {
				t.Fatalf("score %s seed %d: got %s, want safe", score, seed, v)
			}
		}
	}
}

func TestSuspicionHoleInOneAlwaysCheater(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		if v := Suspicion(grid("GGGGG"), "1", NewSeededRand(seed)); v != VerdictCheater {
			t.Fatalf("seed %d: got %s, want cheater", seed, v)
		}
	}
}

func TestSuspicionScoreTwoHotOpener(t *testing.T) {
	// score 2 base tally 2, hot first row +2, hot second row +1, +1 draw → 6.
	g := grid("YYYYB", "GGGGG")
	v := Suspicion(g, "2", fixedRand{intn: 3, float: 0})
	if v != VerdictCheater {
		t.Fatalf("got %s, want cheater", v)
	}
	// Same grid with a -1 draw lands on 4 → always flagged.
	v = Suspicion(g, "2", fixedRand{intn: 0, float: 1})
	if v != VerdictFlag {
		t.Fatalf("got %s, want flag", v)
	}
}

func TestSuspicionScoreThreeColdGrid(t *testing.T) {
	// score 3 base tally 1, no hot rows, -1 draw → 0 → safe regardless of coin.
	g := grid("BBBBB", "BYBBB", "GGGGG")
	if v := Suspicion(g, "3", fixedRand{intn: 0, float: 0}); v != VerdictSafe {
		t.Fatalf("got %s, want safe", v)
	}
	// +1 draw → 2 → coin decides.
	if v := Suspicion(g, "3", fixedRand{intn: 3, float: 0.4}); v != VerdictFlag {
		t.Fatalf("coin below 0.5: got %s, want flag", v)
	}
	if v := Suspicion(g, "3", fixedRand{intn: 3, float: 0.6}); v != VerdictSafe {
		t.Fatalf("coin above 0.5: got %s, want safe", v)
	}
}

func TestSuspicionTallyThreeUsesThreeQuarterCoin(t *testing.T) {
	// score 3 base 1, hot first row +2, 0 draw → 3.
	g := grid("YYGGB", "BBBBB", "GGGGG")
	if v := Suspicion(g, "3", fixedRand{intn: 1, float: 0.7}); v != VerdictFlag {
		t.Fatalf("0.7 < 0.75: got %s, want flag", v)
	}
	if v := Suspicion(g, "3", fixedRand{intn: 1, float: 0.8}); v != VerdictSafe {
		t.Fatalf("0.8 > 0.75: got %s, want safe", v)
	}
}

func TestSeededRandReproducible(t *testing.T) {
	a, b := NewSeededRand(42), NewSeededRand(42)
	for i := 0; i < 10; i++ {
		if a.Intn(100) != b.Intn(100) {
			t.Fatalf("seeded sources diverged at draw %d", i)
		}
	}
}
