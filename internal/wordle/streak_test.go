package wordle

import "testing"

func TestStreaks(t *testing.T) {
	cases := []struct {
		name             string
		ids              []int
		current, longest int
	}{
		{"empty", nil, 0, 0},
		{"single", []int{512}, 1, 1},
		{"gap mid", []int{100, 101, 102, 105, 106}, 2, 3},
		{"all consecutive", []int{7, 8, 9, 10}, 4, 4},
		{"current is longest", []int{1, 5, 6, 7}, 3, 3},
		{"ends on gap", []int{1, 2, 3, 9}, 1, 3},
	}
	for _, tc := range cases {
		cur, lng := Streaks(tc.ids)
		if cur != tc.current || lng != tc.longest {
			t.Fatalf("%s: got (%d, %d), want (%d, %d)", tc.name, cur, lng, tc.current, tc.longest)
		}
	}
}
