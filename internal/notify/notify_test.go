package notify

import (
	"context"
	"strings"
	"testing"

	"github.com/park285/Wordle-KakaoTalk-bot/internal/domain"
	"github.com/park285/Wordle-KakaoTalk-bot/internal/msgcat"
	svcwordle "github.com/park285/Wordle-KakaoTalk-bot/internal/service/wordle"
	corewordle "github.com/park285/Wordle-KakaoTalk-bot/internal/wordle"
)

type captureEgress struct{ sent []string }

func (c *captureEgress) SendText(ctx context.Context, room, message string) error {
	c.sent = append(c.sent, message)
	return nil
}

type fixedRand struct{ intn int }

func (f fixedRand) Intn(n int) int   { return f.intn % n }
func (f fixedRand) Float64() float64 { return 0 }

func newTestNotifier(t *testing.T, rng corewordle.Rand) (Notifier, *captureEgress) {
	t.Helper()
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	eg := &captureEgress{}
	return NewIrisNotifier(eg, cat, rng, nil), eg
}

func outcome(decision domain.Decision, verdict corewordle.Verdict) *svcwordle.Outcome {
	return &svcwordle.Outcome{
		Candidate: &corewordle.Candidate{PuzzleID: 1234, Score: "3", Grid: []string{"BBBBB", "YYYYY", "GGGGG"}},
		Decision:  decision,
		Verdict:   verdict,
	}
}

func TestAcceptedMarker(t *testing.T) {
	n, eg := newTestNotifier(t, fixedRand{})
	if err := n.SubmissionResult(context.Background(), "roomA", "철수", outcome(domain.DecisionAccepted, corewordle.VerdictSafe)); err != nil {
		t.Fatalf("SubmissionResult: %v", err)
	}
	if len(eg.sent) != 1 {
		t.Fatalf("got %d messages, want 1", len(eg.sent))
	}
	if !strings.HasPrefix(eg.sent[0], "✅") || !strings.Contains(eg.sent[0], "1,234") {
		t.Fatalf("unexpected marker: %q", eg.sent[0])
	}
}

func TestCheaterVerdictSendsReviewRequest(t *testing.T) {
	n, eg := newTestNotifier(t, fixedRand{intn: 1})
	if err := n.SubmissionResult(context.Background(), "roomA", "철수", outcome(domain.DecisionAccepted, corewordle.VerdictCheater)); err != nil {
		t.Fatalf("SubmissionResult: %v", err)
	}
	if len(eg.sent) != 2 {
		t.Fatalf("got %d messages, want 2", len(eg.sent))
	}
	if !strings.HasPrefix(eg.sent[1], "🚨") || !strings.Contains(eg.sent[1], "부정행위") {
		t.Fatalf("unexpected review request: %q", eg.sent[1])
	}
}

func TestRejectionMarkers(t *testing.T) {
	n, eg := newTestNotifier(t, fixedRand{})
	ctx := context.Background()

	if err := n.SubmissionResult(ctx, "roomA", "철수", outcome(domain.DecisionDuplicate, corewordle.VerdictSafe)); err != nil {
		t.Fatalf("SubmissionResult: %v", err)
	}
	invalid := outcome("", "")
	invalid.Invalid = corewordle.ErrScoreGridMismatch
	if err := n.SubmissionResult(ctx, "roomA", "철수", invalid); err != nil {
		t.Fatalf("SubmissionResult: %v", err)
	}

	if len(eg.sent) != 2 {
		t.Fatalf("got %d messages, want 2", len(eg.sent))
	}
	for _, msg := range eg.sent {
		if !strings.HasPrefix(msg, "❌") {
			t.Fatalf("expected rejection marker, got %q", msg)
		}
	}
}
