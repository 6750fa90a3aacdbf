package wordle

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/park285/Wordle-KakaoTalk-bot/internal/domain"
	corewordle "github.com/park285/Wordle-KakaoTalk-bot/internal/wordle"
)

var (
	ErrNotSubmission = errors.New("message is not a wordle submission")
	ErrBadLookup     = errors.New("lookup query is neither a date nor a puzzle number")
	ErrPrefixInvalid = errors.New("prefix must be 1 to 5 characters")
)

const defaultRoomPrefix = "!"

// InboundResult is one chat message seen in a room, with the sender identity
// attached.
type InboundResult struct {
	RoomID      string
	UserID      string
	UserName    string
	AvatarURL   string
	DisplayName string
	Text        string
	PostedAt    time.Time
}

// Outcome describes what the ledger did with one candidate. Invalid is set
// when the message matched the result grammar but failed validation; nothing
// was persisted in that case.
type Outcome struct {
	Candidate *corewordle.Candidate
	Decision  domain.Decision
	Verdict   corewordle.Verdict
	Invalid   error
}

// Accepted reports whether the result was persisted.
func (o *Outcome) Accepted() bool {
	return o != nil && o.Invalid == nil && o.Decision.Accepted()
}

type Service struct {
	repo   Repository
	rng    corewordle.Rand
	loc    *time.Location
	logger *zap.Logger
}

func NewService(repo Repository, rng corewordle.Rand, loc *time.Location, logger *zap.Logger) *Service {
	if rng == nil {
		rng = corewordle.NewRand()
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, rng: rng, loc: loc, logger: logger}
}

// Ingest runs one message through parse, validate and the ledger decision.
// A nil Outcome with nil error means the message was not a wordle result at
// all and should be ignored.
func (s *Service) Ingest(ctx context.Context, in InboundResult) (*Outcome, error) {
	cand, ok := corewordle.Parse(in.Text)
	if !ok {
		return nil, nil
	}

	out := &Outcome{Candidate: cand, Verdict: corewordle.VerdictSafe}
	if err := cand.Validate(); err != nil {
		out.Invalid = err
		s.logger.Info("wordle_rejected",
			zap.String("user", in.UserID),
			zap.String("room", in.RoomID),
			zap.Int("puzzle", cand.PuzzleID),
			zap.Error(err))
		return out, nil
	}

	sub := &domain.Submission{
		UserID:   in.UserID,
		PuzzleID: cand.PuzzleID,
		Score:    cand.Score,
		Grid:     cand.Grid,
		Date:     s.puzzleDate(in.PostedAt),
	}
	user := &domain.User{ID: in.UserID, Name: in.UserName, AvatarURL: in.AvatarURL}

	decision, err := s.repo.RecordSubmission(ctx, user, in.DisplayName, in.RoomID, sub)
	if err != nil {
		return nil, fmt.Errorf("record submission: %w", err)
	}
	out.Decision = decision

	// The suspicion check runs on every accepted result, cross-posts
	// included, so each room sees its own review request.
	if decision.Accepted() {
		out.Verdict = corewordle.Suspicion(cand.Grid, cand.Score, s.rng)
	}

	s.logger.Info("wordle_submission",
		zap.String("user", in.UserID),
		zap.String("room", in.RoomID),
		zap.Int("puzzle", cand.PuzzleID),
		zap.String("score", cand.Score),
		zap.String("decision", string(decision)),
		zap.String("verdict", string(out.Verdict)))
	return out, nil
}

// puzzleDate maps the posting instant to the puzzle calendar day in the
// reference timezone, normalized to midnight UTC for storage.
func (s *Service) puzzleDate(postedAt time.Time) time.Time {
	local := postedAt.In(s.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// Stats summarizes a user's whole history. Returns nil when the user has no
// recorded games.
func (s *Service) Stats(ctx context.Context, userID string) (*domain.Stats, error) {
	counts, err := s.repo.ScoreCounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	total := 0
	weighted := 0
	for score, n := range counts {
		total += n
		weighted += corewordle.ScoreValue(score) * n
	}
	if total == 0 {
		return nil, nil
	}

	ids, err := s.repo.PuzzleIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	current, longest := corewordle.Streaks(ids)

	wins := total - counts[corewordle.FailedScore]
	return &domain.Stats{
		TotalGames:    total,
		WinPercent:    100 * float64(wins) / float64(total),
		AverageScore:  float64(weighted) / float64(total),
		ScoreCounts:   counts,
		CurrentStreak: current,
		LongestStreak: longest,
	}, nil
}

// Lookup finds one recorded result by date ("1/2/2006", "1-2-06", ...) or by
// puzzle number (commas allowed). Returns nil when nothing matches.
func (s *Service) Lookup(ctx context.Context, userID, query string) (*domain.Submission, error) {
	query = strings.TrimSpace(query)
	if date, ok := parseLookupDate(query); ok {
		return s.repo.GetSubmissionByDate(ctx, userID, date)
	}
	if id, err := strconv.Atoi(strings.ReplaceAll(query, ",", "")); err == nil && id > 0 {
		return s.repo.GetSubmission(ctx, userID, id)
	}
	return nil, ErrBadLookup
}

func parseLookupDate(s string) (time.Time, bool) {
	var layouts []string
	switch {
	case strings.Contains(s, "/"):
		layouts = []string{"1/2/2006", "1/2/06"}
	case strings.Contains(s, "-"):
		layouts = []string{"1-2-2006", "1-2-06"}
	default:
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Review re-judges a quoted message on demand with a fresh suspicion draw.
func (s *Service) Review(text string) (*corewordle.Candidate, corewordle.Verdict, error) {
	cand, ok := corewordle.Parse(text)
	if !ok {
		return nil, "", ErrNotSubmission
	}
	if err := cand.Validate(); err != nil {
		return cand, "", err
	}
	return cand, corewordle.Suspicion(cand.Grid, cand.Score, s.rng), nil
}

// RefreshMember re-syncs the sender's identity and room display name, for the
// update command.
func (s *Service) RefreshMember(ctx context.Context, user *domain.User, roomID, displayName string) error {
	if err := s.repo.UpsertUser(ctx, user); err != nil {
		return err
	}
	return s.repo.UpsertMembership(ctx, &domain.RoomMembership{
		UserID:      user.ID,
		RoomID:      roomID,
		DisplayName: displayName,
	})
}

// EnsureRoom loads room settings, creating the row with defaults on first
// contact.
func (s *Service) EnsureRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	return s.repo.EnsureRoom(ctx, roomID, defaultRoomPrefix)
}

func (s *Service) SetPrefix(ctx context.Context, roomID, prefix string) error {
	if n := utf8.RuneCountInString(prefix); n < 1 || n > 5 {
		return ErrPrefixInvalid
	}
	return s.repo.SetRoomPrefix(ctx, roomID, prefix)
}

// SetWordleRoom designates where this room's submissions are ingested.
func (s *Service) SetWordleRoom(ctx context.Context, roomID, target string) error {
	if strings.TrimSpace(target) == "" {
		target = roomID
	}
	return s.repo.SetWordleRoom(ctx, roomID, target)
}
