package wordle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/park285/Wordle-KakaoTalk-bot/internal/domain"
	corewordle "github.com/park285/Wordle-KakaoTalk-bot/internal/wordle"
)

var refZone = time.FixedZone("PST", -8*3600)

func newTestService() *Service {
	return NewService(NewMemoryRepository(), corewordle.NewSeededRand(1), refZone, nil)
}

func inbound(room, user, text string) InboundResult {
	return InboundResult{
		RoomID:      room,
		UserID:      user,
		UserName:    user,
		DisplayName: user,
		Text:        text,
		PostedAt:    time.Date(2026, 3, 10, 12, 0, 0, 0, refZone),
	}
}

const shareText = "Wordle 1,234 3/6\n\n⬛⬛⬛⬛⬛\n🟨🟨🟨🟨🟨\n🟩🟩🟩🟩🟩"

func TestIngestDecisions(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	out, err := svc.Ingest(ctx, inbound("roomA", "u1", shareText))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if out.Decision != domain.DecisionAccepted {
		t.Fatalf("first post: got %s, want accepted", out.Decision)
	}

	out, err = svc.Ingest(ctx, inbound("roomA", "u1", shareText))
	if err != nil {
		t.Fatalf("Ingest repost: %v", err)
	}
	if out.Decision != domain.DecisionDuplicate {
		t.Fatalf("same-room repost: got %s, want duplicate", out.Decision)
	}

	out, err = svc.Ingest(ctx, inbound("roomB", "u1", shareText))
	if err != nil {
		t.Fatalf("Ingest cross-post: %v", err)
	}
	if out.Decision != domain.DecisionCrossPost {
		t.Fatalf("other-room repost: got %s, want cross_post", out.Decision)
	}
	if !out.Accepted() {
		t.Fatalf("cross-post should count as accepted")
	}

	conflict := "Wordle 1,234 2/6\n\n🟨🟨🟨🟨⬛\n🟩🟩🟩🟩🟩"
	out, err = svc.Ingest(ctx, inbound("roomB", "u1", conflict))
	if err != nil {
		t.Fatalf("Ingest conflict: %v", err)
	}
	if out.Decision != domain.DecisionGridConflict {
		t.Fatalf("differing grid: got %s, want grid_conflict", out.Decision)
	}
}

// maxRand always draws the largest perturbation, pinning the scorer's tally.
type maxRand struct{}

func (maxRand) Intn(n int) int   { return n - 1 }
func (maxRand) Float64() float64 { return 0 }

func TestCrossPostRunsSuspicion(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), maxRand{}, refZone, nil)

	// Score 2 with a hot first row: tally 2+2+1, a cheater on every draw.
	hot := "Wordle 900 2/6\n\n🟨🟨🟨🟨⬛\n🟩🟩🟩🟩🟩"

	out, err := svc.Ingest(ctx, inbound("roomA", "u1", hot))
	if err != nil || out.Decision != domain.DecisionAccepted {
		t.Fatalf("first post: out=%+v err=%v", out, err)
	}
	if out.Verdict != corewordle.VerdictCheater {
		t.Fatalf("first post verdict: got %s, want cheater", out.Verdict)
	}

	out, err = svc.Ingest(ctx, inbound("roomB", "u1", hot))
	if err != nil || out.Decision != domain.DecisionCrossPost {
		t.Fatalf("cross-post: out=%+v err=%v", out, err)
	}
	if out.Verdict != corewordle.VerdictCheater {
		t.Fatalf("cross-post verdict: got %s, want cheater", out.Verdict)
	}
}

func TestIngestIgnoresOrdinaryChat(t *testing.T) {
	svc := newTestService()
	out, err := svc.Ingest(context.Background(), inbound("roomA", "u1", "good morning"))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil outcome for ordinary chat, got %+v", out)
	}
}

func TestIngestInvalidPersistsNothing(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	// Score says 2 but the grid shows three rows.
	bad := "Wordle 700 2/6\n\n⬛⬛⬛⬛⬛\n🟨🟨🟨🟨🟨\n🟩🟩🟩🟩🟩"
	out, err := svc.Ingest(ctx, inbound("roomA", "u1", bad))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if out.Invalid == nil || out.Accepted() {
		t.Fatalf("expected validation rejection, got %+v", out)
	}

	sub, err := svc.Lookup(ctx, "u1", "700")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if sub != nil {
		t.Fatalf("rejected submission was persisted: %+v", sub)
	}
}

func TestPuzzleDateUsesReferenceTimezone(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	in := inbound("roomA", "u1", shareText)
	// 05:00 UTC is still the previous evening in the reference zone.
	in.PostedAt = time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC)
	if _, err := svc.Ingest(ctx, in); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	sub, err := svc.Lookup(ctx, "u1", "3/9/2026")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if sub == nil || sub.PuzzleID != 1234 {
		t.Fatalf("expected puzzle 1234 on 3/9, got %+v", sub)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	posts := []string{
		"Wordle 100 3/6\n\n⬛⬛⬛⬛⬛\n🟨🟨🟨🟨🟨\n🟩🟩🟩🟩🟩",
		"Wordle 101 5/6\n\n⬛⬛⬛⬛⬛\n⬛⬛⬛⬛⬛\n⬛⬛⬛⬛⬛\n🟨🟨🟨🟨🟨\n🟩🟩🟩🟩🟩",
		"Wordle 103 X/6\n\n⬛⬛⬛⬛⬛\n⬛⬛⬛⬛⬛\n⬛⬛⬛⬛⬛\n⬛⬛⬛⬛⬛\n🟨🟨🟨🟨🟨\n🟨🟨🟨🟨🟩",
	}
	for _, text := range posts {
		out, err := svc.Ingest(ctx, inbound("roomA", "u1", text))
		if err != nil || !out.Accepted() {
			t.Fatalf("Ingest %q: out=%+v err=%v", text[:12], out, err)
		}
	}

	stats, err := svc.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalGames != 3 {
		t.Fatalf("total: got %d, want 3", stats.TotalGames)
	}
	if want := 100 * 2.0 / 3.0; stats.WinPercent != want {
		t.Fatalf("win percent: got %f, want %f", stats.WinPercent, want)
	}
	if want := (3 + 5 + 10) / 3.0; stats.AverageScore != want {
		t.Fatalf("average: got %f, want %f", stats.AverageScore, want)
	}
	if stats.CurrentStreak != 1 || stats.LongestStreak != 2 {
		t.Fatalf("streaks: got (%d, %d), want (1, 2)", stats.CurrentStreak, stats.LongestStreak)
	}
	if stats.ScoreCounts["X"] != 1 || stats.ScoreCounts["3"] != 1 {
		t.Fatalf("score counts: %v", stats.ScoreCounts)
	}
}

func TestStatsNoGames(t *testing.T) {
	svc := newTestService()
	stats, err := svc.Stats(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats != nil {
		t.Fatalf("expected nil stats, got %+v", stats)
	}
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	if _, err := svc.Ingest(ctx, inbound("roomA", "u1", shareText)); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	sub, err := svc.Lookup(ctx, "u1", "1,234")
	if err != nil || sub == nil || sub.PuzzleID != 1234 {
		t.Fatalf("by id: sub=%+v err=%v", sub, err)
	}

	sub, err = svc.Lookup(ctx, "u1", "3/10/26")
	if err != nil || sub == nil || sub.PuzzleID != 1234 {
		t.Fatalf("by date: sub=%+v err=%v", sub, err)
	}

	sub, err = svc.Lookup(ctx, "u1", "9999")
	if err != nil || sub != nil {
		t.Fatalf("missing puzzle: sub=%+v err=%v", sub, err)
	}

	if _, err := svc.Lookup(ctx, "u1", "yesterday"); !errors.Is(err, ErrBadLookup) {
		t.Fatalf("bad query: got %v, want ErrBadLookup", err)
	}
}

func TestReview(t *testing.T) {
	svc := newTestService()

	cand, verdict, err := svc.Review("Wordle 50 1/6\n\n🟩🟩🟩🟩🟩")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if cand.PuzzleID != 50 || verdict != corewordle.VerdictCheater {
		t.Fatalf("hole-in-one review: cand=%+v verdict=%s", cand, verdict)
	}

	if _, _, err := svc.Review("not a result"); !errors.Is(err, ErrNotSubmission) {
		t.Fatalf("got %v, want ErrNotSubmission", err)
	}
}

func TestSelfLookupHonorsRoomFilter(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	if _, err := svc.Ingest(ctx, inbound("roomA", "u1", shareText)); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	// Not a member of roomB: the room-scoped self-lookup finds nothing.
	row, err := svc.repo.UserPeriodAverage(ctx, domain.RankQuery{FilterRoomID: "roomB"}, "u1")
	if err != nil {
		t.Fatalf("UserPeriodAverage: %v", err)
	}
	if row != nil {
		t.Fatalf("non-member got a rank row: %+v", row)
	}

	row, err = svc.repo.UserPeriodAverage(ctx, domain.RankQuery{FilterRoomID: "roomA"}, "u1")
	if err != nil || row == nil || row.UserID != "u1" {
		t.Fatalf("member lookup: row=%+v err=%v", row, err)
	}
}

func TestSetPrefix(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	if err := svc.SetPrefix(ctx, "roomA", "##"); err != nil {
		t.Fatalf("SetPrefix: %v", err)
	}
	room, err := svc.EnsureRoom(ctx, "roomA")
	if err != nil || room.Prefix != "##" {
		t.Fatalf("room=%+v err=%v", room, err)
	}

	if err := svc.SetPrefix(ctx, "roomA", ""); !errors.Is(err, ErrPrefixInvalid) {
		t.Fatalf("empty prefix: got %v", err)
	}
	if err := svc.SetPrefix(ctx, "roomA", "toolong"); !errors.Is(err, ErrPrefixInvalid) {
		t.Fatalf("long prefix: got %v", err)
	}
}
