package leaderboard

import "testing"

func testView(n int, forced bool) *View {
	v := &View{Entries: competitionRanks(rows(seq(n)...)), Forced: forced}
	if forced {
		req := v.Entries[14]
		v.Requester = &req
	}
	return v
}

func seq(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func TestPageCount(t *testing.T) {
	cases := []struct{ entries, pages int }{
		{0, 0}, {1, 1}, {10, 1}, {11, 2}, {23, 3}, {100, 10},
	}
	for _, tc := range cases {
		if got := testView(tc.entries, false).PageCount(); got != tc.pages {
			t.Fatalf("%d entries: got %d pages, want %d", tc.entries, got, tc.pages)
		}
	}

	// The forced requester line counts toward the page total.
	forced := []struct{ entries, pages int }{
		{19, 2}, {20, 3}, {30, 4},
	}
	for _, tc := range forced {
		if got := testView(tc.entries, true).PageCount(); got != tc.pages {
			t.Fatalf("forced %d entries: got %d pages, want %d", tc.entries, got, tc.pages)
		}
	}
}

func TestPlainPagesCoverEveryEntry(t *testing.T) {
	v := testView(23, false)
	seen := 0
	for i := 0; i < v.PageCount(); i++ {
		page := v.Page(i)
		if i < v.PageCount()-1 && len(page) != pageSize {
			t.Fatalf("page %d: got %d entries, want %d", i, len(page), pageSize)
		}
		for _, entry := range page {
			seen++
			if entry.Rank != seen {
				t.Fatalf("page %d: got rank %d at position %d", i, entry.Rank, seen)
			}
		}
	}
	if seen != 23 {
		t.Fatalf("pages covered %d entries, want 23", seen)
	}
}

func TestForcedFirstPage(t *testing.T) {
	v := testView(30, true)

	page := v.Page(0)
	if len(page) != pageSize {
		t.Fatalf("forced page 0: got %d entries, want %d", len(page), pageSize)
	}
	for i := 0; i < pageSize-1; i++ {
		if page[i].Rank != i+1 {
			t.Fatalf("forced page 0 slot %d: got rank %d", i, page[i].Rank)
		}
	}
	if page[pageSize-1].Rank != 15 {
		t.Fatalf("forced page 0 last slot: got rank %d, want 15", page[pageSize-1].Rank)
	}

	// Later pages continue from the tenth entry; nobody is dropped.
	second := v.Page(1)
	if second[0].Rank != 10 {
		t.Fatalf("page 1 starts at rank %d, want 10", second[0].Rank)
	}
	last := v.Page(v.PageCount() - 1)
	if len(last) == 0 || last[len(last)-1].Rank != 30 {
		t.Fatalf("last page ends at %+v, want rank 30", last)
	}
}

func TestClampPage(t *testing.T) {
	v := testView(23, false)
	if got := v.ClampPage(-3); got != 0 {
		t.Fatalf("negative page: got %d", got)
	}
	if got := v.ClampPage(99); got != 2 {
		t.Fatalf("overflow page: got %d", got)
	}
}
