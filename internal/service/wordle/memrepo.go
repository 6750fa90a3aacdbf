package wordle

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/park285/Wordle-KakaoTalk-bot/internal/domain"

	corewordle "github.com/park285/Wordle-KakaoTalk-bot/internal/wordle"
)

// memrepo is a development-only in-memory repository implementation used when no DB is configured.
type memrepo struct {
	mu sync.RWMutex

	users       map[string]*domain.User
	rooms       map[string]*domain.Room
	memberships map[string]*domain.RoomMembership // userID|roomID
	subs        map[string]*domain.Submission     // userID|puzzleID
	parts       map[string]struct{}               // userID|roomID|puzzleID
}

func NewMemoryRepository() Repository {
	return &memrepo{
		users:       make(map[string]*domain.User),
		rooms:       make(map[string]*domain.Room),
		memberships: make(map[string]*domain.RoomMembership),
		subs:        make(map[string]*domain.Submission),
		parts:       make(map[string]struct{}),
	}
}

func (m *memrepo) RecordSubmission(ctx context.Context, user *domain.User, displayName, roomID string, sub *domain.Submission) (domain.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	subKey := m.subKey(user.ID, sub.PuzzleID)
	partKey := m.partKey(user.ID, roomID, sub.PuzzleID)

	decision := domain.DecisionAccepted
	if existing, ok := m.subs[subKey]; ok {
		if strings.Join(existing.Grid, "\n") != strings.Join(sub.Grid, "\n") {
			return domain.DecisionGridConflict, nil
		}
		if _, seen := m.parts[partKey]; seen {
			return domain.DecisionDuplicate, nil
		}
		decision = domain.DecisionCrossPost
	} else {
		copySub := *sub
		copySub.Grid = append([]string(nil), sub.Grid...)
		m.subs[subKey] = &copySub
	}

	copyUser := *user
	m.users[user.ID] = &copyUser
	m.memberships[memberKey(user.ID, roomID)] = &domain.RoomMembership{
		UserID:      user.ID,
		RoomID:      roomID,
		DisplayName: displayName,
	}
	m.parts[partKey] = struct{}{}
	return decision, nil
}

func (m *memrepo) GetSubmission(ctx context.Context, userID string, puzzleID int) (*domain.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.subs[m.subKey(userID, puzzleID)]; ok {
		copy := *s
		return &copy, nil
	}
	return nil, nil
}

func (m *memrepo) GetSubmissionByDate(ctx context.Context, userID string, date time.Time) (*domain.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *domain.Submission
	for _, s := range m.subs {
		if s.UserID != userID || !sameDay(s.Date, date) {
			continue
		}
		if latest == nil || s.PuzzleID > latest.PuzzleID {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	copy := *latest
	return &copy, nil
}

func (m *memrepo) ScoreCounts(ctx context.Context, userID string) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	for _, s := range m.subs {
		if s.UserID == userID {
			counts[s.Score]++
		}
	}
	return counts, nil
}

func (m *memrepo) PuzzleIDs(ctx context.Context, userID string) ([]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []int
	for _, s := range m.subs {
		if s.UserID == userID {
			ids = append(ids, s.PuzzleID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (m *memrepo) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[userID]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, nil
}

func (m *memrepo) UpsertUser(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	copy := *user
	m.users[user.ID] = &copy
	m.mu.Unlock()
	return nil
}

func (m *memrepo) UpsertMembership(ctx context.Context, mem *domain.RoomMembership) error {
	m.mu.Lock()
	copy := *mem
	m.memberships[memberKey(mem.UserID, mem.RoomID)] = &copy
	m.mu.Unlock()
	return nil
}

func (m *memrepo) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.rooms[roomID]; ok {
		copy := *r
		return &copy, nil
	}
	return nil, nil
}

func (m *memrepo) EnsureRoom(ctx context.Context, roomID, defaultPrefix string) (*domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[roomID]; ok {
		copy := *r
		return &copy, nil
	}
	now := time.Now()
	room := &domain.Room{ID: roomID, Prefix: defaultPrefix, WordleRoomID: roomID, UpdatedAt: now, CreatedAt: now}
	m.rooms[roomID] = room
	copy := *room
	return &copy, nil
}

func (m *memrepo) SetRoomPrefix(ctx context.Context, roomID, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		r = &domain.Room{ID: roomID, WordleRoomID: roomID, CreatedAt: time.Now()}
		m.rooms[roomID] = r
	}
	r.Prefix = prefix
	r.UpdatedAt = time.Now()
	return nil
}

func (m *memrepo) SetWordleRoom(ctx context.Context, roomID, wordleRoomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		r = &domain.Room{ID: roomID, Prefix: "!", CreatedAt: time.Now()}
		m.rooms[roomID] = r
	}
	r.WordleRoomID = wordleRoomID
	r.UpdatedAt = time.Now()
	return nil
}

func (m *memrepo) DailyBest(ctx context.Context, q domain.RankQuery) ([]domain.RankRow, error) {
	return m.aggregate(q, true), nil
}

func (m *memrepo) PeriodAverages(ctx context.Context, q domain.RankQuery) ([]domain.RankRow, error) {
	return m.aggregate(q, false), nil
}

func (m *memrepo) UserDailyBest(ctx context.Context, q domain.RankQuery, userID string) (*domain.RankRow, error) {
	return m.userRow(q, userID, true), nil
}

func (m *memrepo) UserPeriodAverage(ctx context.Context, q domain.RankQuery, userID string) (*domain.RankRow, error) {
	return m.userRow(q, userID, false), nil
}

func (m *memrepo) CountBetterDaily(ctx context.Context, q domain.RankQuery, metric float64) (int, error) {
	return m.countBetter(q, metric, true), nil
}

func (m *memrepo) CountBetterAverage(ctx context.Context, q domain.RankQuery, metric float64) (int, error) {
	return m.countBetter(q, metric, false), nil
}

func (m *memrepo) aggregate(q domain.RankQuery, daily bool) []domain.RankRow {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := m.buildRows(q, daily, "")
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Metric != rows[j].Metric {
			return rows[i].Metric < rows[j].Metric
		}
		return rows[i].DisplayName < rows[j].DisplayName
	})
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return rows
}

func (m *memrepo) userRow(q domain.RankQuery, userID string, daily bool) *domain.RankRow {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, row := range m.buildRows(q, daily, userID) {
		if row.UserID == userID {
			copy := row
			return &copy
		}
	}
	return nil
}

func (m *memrepo) countBetter(q domain.RankQuery, metric float64, daily bool) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, row := range m.buildRows(q, daily, "") {
		if row.Metric < metric {
			n++
		}
	}
	return n
}

// buildRows computes the per-user metric over the query window. Caller holds
// the lock. onlyUser narrows to a single user when non-empty.
func (m *memrepo) buildRows(q domain.RankQuery, daily bool, onlyUser string) []domain.RankRow {
	type acc struct {
		sum   float64
		best  float64
		games int
	}
	byUser := make(map[string]*acc)
	for _, s := range m.subs {
		if onlyUser != "" && s.UserID != onlyUser {
			continue
		}
		if !m.inWindow(s.Date, q) {
			continue
		}
		if q.FilterRoomID != "" {
			if _, ok := m.memberships[memberKey(s.UserID, q.FilterRoomID)]; !ok {
				continue
			}
		}
		v := float64(corewordle.ScoreValue(s.Score))
		a, ok := byUser[s.UserID]
		if !ok {
			a = &acc{best: v}
			byUser[s.UserID] = a
		}
		a.sum += v
		a.games++
		if v < a.best {
			a.best = v
		}
	}

	rows := make([]domain.RankRow, 0, len(byUser))
	for userID, a := range byUser {
		metric := a.sum / float64(a.games)
		if daily {
			metric = a.best
		}
		rows = append(rows, domain.RankRow{
			UserID:      userID,
			DisplayName: m.displayName(userID, q.DisplayRoomID),
			AvatarURL:   m.avatar(userID),
			Metric:      metric,
			Games:       a.games,
		})
	}
	return rows
}

func (m *memrepo) inWindow(date time.Time, q domain.RankQuery) bool {
	if q.From.IsZero() && q.To.IsZero() {
		return true
	}
	if sameDay(q.From, q.To) {
		return sameDay(date, q.From)
	}
	return !date.Before(q.From) && !date.After(q.To)
}

func (m *memrepo) displayName(userID, roomID string) string {
	if roomID != "" {
		if mem, ok := m.memberships[memberKey(userID, roomID)]; ok && mem.DisplayName != "" {
			return mem.DisplayName
		}
	}
	if u, ok := m.users[userID]; ok && u.Name != "" {
		return u.Name
	}
	return userID
}

func (m *memrepo) avatar(userID string) string {
	if u, ok := m.users[userID]; ok {
		return u.AvatarURL
	}
	return ""
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func (m *memrepo) subKey(userID string, puzzleID int) string {
	return userID + "|" + strconv.Itoa(puzzleID)
}

func (m *memrepo) partKey(userID, roomID string, puzzleID int) string {
	return userID + "|" + roomID + "|" + strconv.Itoa(puzzleID)
}

func memberKey(userID, roomID string) string {
	return strings.TrimSpace(userID) + "|" + strings.TrimSpace(roomID)
}
