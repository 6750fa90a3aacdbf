package leaderboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/park285/Wordle-KakaoTalk-bot/internal/domain"
)

// TopSize caps the ranked list a view carries.
const TopSize = 100

// Period selects the aggregation window. Daily ranks each player's best
// score of the day; every other period ranks the average over the window.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
	PeriodAllTime Period = "all time"
)

// ParsePeriod maps user-facing period words to a Period. The empty string
// defaults to all time.
func ParsePeriod(s string) (Period, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day", "today":
		return PeriodDaily, true
	case "weekly", "week":
		return PeriodWeekly, true
	case "monthly", "month":
		return PeriodMonthly, true
	case "yearly", "year":
		return PeriodYearly, true
	case "", "all", "alltime", "all-time", "all time":
		return PeriodAllTime, true
	}
	return "", false
}

// Scope narrows a board to one room's members. FilterRoomID empty means the
// global board; DisplayRoomID only picks which room nickname to show.
type Scope struct {
	FilterRoomID  string `json:"filter_room_id,omitempty"`
	DisplayRoomID string `json:"display_room_id,omitempty"`
}

// Entry is one ranked leaderboard line. Ties share a rank and the next
// distinct metric skips the tied positions.
type Entry struct {
	Rank int `json:"rank"`
	domain.RankRow
}

// Source provides the aggregates the engine ranks. Implemented by the
// wordle repository.
type Source interface {
	DailyBest(ctx context.Context, q domain.RankQuery) ([]domain.RankRow, error)
	PeriodAverages(ctx context.Context, q domain.RankQuery) ([]domain.RankRow, error)
	UserDailyBest(ctx context.Context, q domain.RankQuery, userID string) (*domain.RankRow, error)
	UserPeriodAverage(ctx context.Context, q domain.RankQuery, userID string) (*domain.RankRow, error)
	CountBetterDaily(ctx context.Context, q domain.RankQuery, metric float64) (int, error)
	CountBetterAverage(ctx context.Context, q domain.RankQuery, metric float64) (int, error)
}

type Engine struct {
	src Source
	loc *time.Location
	now func() time.Time
}

func NewEngine(src Source, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{src: src, loc: loc, now: time.Now}
}

// BuildView assembles the ranked top list for one period plus the
// requester's own position, resolved against the full population when the
// requester fell outside the top list.
func (e *Engine) BuildView(ctx context.Context, period Period, scope Scope, requesterID string) (*View, error) {
	from, to := e.window(period)
	q := domain.RankQuery{
		From:          from,
		To:            to,
		FilterRoomID:  scope.FilterRoomID,
		DisplayRoomID: scope.DisplayRoomID,
		Limit:         TopSize,
	}

	var (
		rows []domain.RankRow
		err  error
	)
	if period == PeriodDaily {
		rows, err = e.src.DailyBest(ctx, q)
	} else {
		rows, err = e.src.PeriodAverages(ctx, q)
	}
	if err != nil {
		return nil, fmt.Errorf("build %s leaderboard: %w", period, err)
	}

	entries := competitionRanks(rows)
	requester, err := e.locateRequester(ctx, period, q, entries, requesterID)
	if err != nil {
		return nil, err
	}

	return &View{
		Period:    period,
		Scope:     scope,
		Entries:   entries,
		Requester: requester,
		Forced:    requester != nil && requester.Rank > pageSize && requester.Rank <= TopSize,
	}, nil
}

func (e *Engine) locateRequester(ctx context.Context, period Period, q domain.RankQuery, entries []Entry, requesterID string) (*Entry, error) {
	if requesterID == "" {
		return nil, nil
	}
	for _, entry := range entries {
		if entry.UserID == requesterID {
			found := entry
			return &found, nil
		}
	}

	var (
		row *domain.RankRow
		err error
	)
	if period == PeriodDaily {
		row, err = e.src.UserDailyBest(ctx, q, requesterID)
	} else {
		row, err = e.src.UserPeriodAverage(ctx, q, requesterID)
	}
	if err != nil {
		return nil, fmt.Errorf("locate requester: %w", err)
	}
	if row == nil {
		return nil, nil
	}

	var better int
	if period == PeriodDaily {
		better, err = e.src.CountBetterDaily(ctx, q, row.Metric)
	} else {
		better, err = e.src.CountBetterAverage(ctx, q, row.Metric)
	}
	if err != nil {
		return nil, fmt.Errorf("rank requester: %w", err)
	}
	return &Entry{Rank: better + 1, RankRow: *row}, nil
}

// window maps a period to inclusive calendar-day bounds in the reference
// timezone, midnight UTC like the stored dates. All time returns zero bounds.
func (e *Engine) window(period Period) (from, to time.Time) {
	now := e.now().In(e.loc)
	day := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}

	switch period {
	case PeriodDaily:
		d := day(now)
		return d, d
	case PeriodWeekly:
		// Weeks start on Sunday.
		start := now.AddDate(0, 0, -int(now.Weekday()))
		return day(start), day(start.AddDate(0, 0, 6))
	case PeriodMonthly:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, -1)
	case PeriodYearly:
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return start, time.Date(now.Year(), 12, 31, 0, 0, 0, 0, time.UTC)
	}
	return time.Time{}, time.Time{}
}

// competitionRanks assigns ranks over rows already sorted by metric
// ascending. Equal metrics share the earlier rank.
func competitionRanks(rows []domain.RankRow) []Entry {
	entries := make([]Entry, len(rows))
	for i, row := range rows {
		rank := i + 1
		if i > 0 && row.Metric == rows[i-1].Metric {
			rank = entries[i-1].Rank
		}
		entries[i] = Entry{Rank: rank, RankRow: row}
	}
	return entries
}
