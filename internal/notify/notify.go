package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/park285/Wordle-KakaoTalk-bot/internal/domain"
	"github.com/park285/Wordle-KakaoTalk-bot/internal/irisfast"
	"github.com/park285/Wordle-KakaoTalk-bot/internal/msgcat"
	svcwordle "github.com/park285/Wordle-KakaoTalk-bot/internal/service/wordle"
	corewordle "github.com/park285/Wordle-KakaoTalk-bot/internal/wordle"
)

// Notifier posts the room feedback for one ingested submission: the accept or
// reject marker and, for suspicious grids, a review request.
type Notifier interface {
	SubmissionResult(ctx context.Context, room, userName string, out *svcwordle.Outcome) error
}

// warningEmojis is the pool a review request draws its leading emoji from.
var warningEmojis = [3]string{"⚠️", "🚨", "🚩"}

type irisNotifier struct {
	egress irisfast.Egress
	cat    *msgcat.Catalog
	rng    corewordle.Rand
	logger *zap.Logger
}

func NewIrisNotifier(egress irisfast.Egress, cat *msgcat.Catalog, rng corewordle.Rand, logger *zap.Logger) Notifier {
	if rng == nil {
		rng = corewordle.NewRand()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &irisNotifier{egress: egress, cat: cat, rng: rng, logger: logger}
}

func (n *irisNotifier) SubmissionResult(ctx context.Context, room, userName string, out *svcwordle.Outcome) error {
	if out == nil || out.Candidate == nil {
		return nil
	}

	data := map[string]string{
		"Name":   userName,
		"Puzzle": corewordle.FormatPuzzleID(out.Candidate.PuzzleID),
		"Score":  out.Candidate.Score,
	}

	if err := n.egress.SendText(ctx, room, n.render(markerKey(out), data)); err != nil {
		return fmt.Errorf("send submission marker: %w", err)
	}

	if out.Accepted() && out.Verdict != corewordle.VerdictSafe {
		data["Emoji"] = warningEmojis[n.rng.Intn(len(warningEmojis))]
		key := "wordle.review.flag"
		if out.Verdict == corewordle.VerdictCheater {
			key = "wordle.review.cheater"
		}
		if err := n.egress.SendText(ctx, room, n.render(key, data)); err != nil {
			return fmt.Errorf("send review request: %w", err)
		}
	}
	return nil
}

func markerKey(out *svcwordle.Outcome) string {
	if out.Invalid != nil {
		if errors.Is(out.Invalid, corewordle.ErrGridInvalid) {
			return "wordle.invalid_grid"
		}
		return "wordle.invalid"
	}
	switch out.Decision {
	case domain.DecisionAccepted:
		return "wordle.accepted"
	case domain.DecisionCrossPost:
		return "wordle.cross_post"
	case domain.DecisionDuplicate:
		return "wordle.duplicate"
	default:
		return "wordle.conflict"
	}
}

// render falls back to a bare marker when a template is missing or broken so
// the room still gets feedback.
func (n *irisNotifier) render(key string, data map[string]string) string {
	text, err := n.cat.Render(key, data)
	if err != nil {
		n.logger.Warn("msgcat_render_failed", zap.String("key", key), zap.Error(err))
		return "✅"
	}
	return text
}
