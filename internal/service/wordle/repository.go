package wordle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/Wordle-KakaoTalk-bot/internal/domain"
)

type Repository interface {
	// RecordSubmission runs the full ledger decision for one candidate in a
	// single transaction: first result for (user, puzzle) is accepted, a
	// matching repost from another room becomes a cross-post, a repost in a
	// room that already has it is a duplicate, and a differing grid for the
	// same puzzle is a grid conflict. Nothing is written unless the decision
	// is an acceptance.
	RecordSubmission(ctx context.Context, user *domain.User, displayName, roomID string, sub *domain.Submission) (domain.Decision, error)

	GetSubmission(ctx context.Context, userID string, puzzleID int) (*domain.Submission, error)
	GetSubmissionByDate(ctx context.Context, userID string, date time.Time) (*domain.Submission, error)
	ScoreCounts(ctx context.Context, userID string) (map[string]int, error)
	PuzzleIDs(ctx context.Context, userID string) ([]int, error)

	GetUser(ctx context.Context, userID string) (*domain.User, error)
	UpsertUser(ctx context.Context, user *domain.User) error
	UpsertMembership(ctx context.Context, m *domain.RoomMembership) error

	GetRoom(ctx context.Context, roomID string) (*domain.Room, error)
	EnsureRoom(ctx context.Context, roomID, defaultPrefix string) (*domain.Room, error)
	SetRoomPrefix(ctx context.Context, roomID, prefix string) error
	SetWordleRoom(ctx context.Context, roomID, wordleRoomID string) error

	DailyBest(ctx context.Context, q domain.RankQuery) ([]domain.RankRow, error)
	PeriodAverages(ctx context.Context, q domain.RankQuery) ([]domain.RankRow, error)
	UserDailyBest(ctx context.Context, q domain.RankQuery, userID string) (*domain.RankRow, error)
	UserPeriodAverage(ctx context.Context, q domain.RankQuery, userID string) (*domain.RankRow, error)
	CountBetterDaily(ctx context.Context, q domain.RankQuery, metric float64) (int, error)
	CountBetterAverage(ctx context.Context, q domain.RankQuery, metric float64) (int, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// EnsureSchema creates the ledger tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS user_data (
			user_id TEXT PRIMARY KEY,
			user_name TEXT NOT NULL,
			avatar TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS room_data (
			room_id TEXT PRIMARY KEY,
			prefix TEXT NOT NULL,
			wordle_room_id TEXT,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS room_membership (
			user_id TEXT NOT NULL,
			room_id TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (user_id, room_id)
		);
		CREATE TABLE IF NOT EXISTS wordle_data (
			user_id TEXT NOT NULL,
			wordle_id INTEGER NOT NULL,
			wordle_score VARCHAR(1) NOT NULL,
			wordle_grid VARCHAR(35) NOT NULL,
			wordle_date DATE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, wordle_id)
		);
		CREATE INDEX IF NOT EXISTS wordle_data_date_idx ON wordle_data (wordle_date);
		CREATE TABLE IF NOT EXISTS wordle_room_membership (
			user_id TEXT NOT NULL,
			room_id TEXT NOT NULL,
			wordle_id INTEGER NOT NULL,
			PRIMARY KEY (user_id, room_id, wordle_id),
			FOREIGN KEY (user_id, wordle_id) REFERENCES wordle_data (user_id, wordle_id)
		);`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure wordle schema: %w", err)
	}
	return nil
}

func (r *repository) RecordSubmission(ctx context.Context, user *domain.User, displayName, roomID string, sub *domain.Submission) (domain.Decision, error) {
	if user == nil || sub == nil {
		return "", fmt.Errorf("nil submission payload")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin submission tx: %w", err)
	}
	defer tx.Rollback()

	if err := upsertUserTx(ctx, tx, user); err != nil {
		return "", err
	}
	if err := upsertMembershipTx(ctx, tx, &domain.RoomMembership{
		UserID:      user.ID,
		RoomID:      roomID,
		DisplayName: displayName,
	}); err != nil {
		return "", err
	}

	const insertResult = `
		INSERT INTO wordle_data (user_id, wordle_id, wordle_score, wordle_grid, wordle_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, wordle_id) DO NOTHING`

	res, err := tx.ExecContext(ctx, insertResult,
		user.ID, sub.PuzzleID, sub.Score, strings.Join(sub.Grid, "\n"), sub.Date)
	if err != nil {
		return "", fmt.Errorf("insert wordle result: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("insert wordle result: %w", err)
	}

	decision := domain.DecisionAccepted
	if inserted == 0 {
		// A result for this puzzle already exists; this is either a repost
		// or a contradiction.
		const selectGrid = `
			SELECT wordle_grid FROM wordle_data
			WHERE user_id = $1 AND wordle_id = $2`

		var storedGrid string
		if err := tx.QueryRowContext(ctx, selectGrid, user.ID, sub.PuzzleID).Scan(&storedGrid); err != nil {
			return "", fmt.Errorf("select stored grid: %w", err)
		}
		if storedGrid != strings.Join(sub.Grid, "\n") {
			return domain.DecisionGridConflict, nil
		}

		const selectParticipation = `
			SELECT EXISTS (
				SELECT 1 FROM wordle_room_membership
				WHERE user_id = $1 AND room_id = $2 AND wordle_id = $3
			)`

		var seen bool
		if err := tx.QueryRowContext(ctx, selectParticipation, user.ID, roomID, sub.PuzzleID).Scan(&seen); err != nil {
			return "", fmt.Errorf("select room participation: %w", err)
		}
		if seen {
			return domain.DecisionDuplicate, nil
		}
		decision = domain.DecisionCrossPost
	}

	const insertParticipation = `
		INSERT INTO wordle_room_membership (user_id, room_id, wordle_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, room_id, wordle_id) DO NOTHING`

	if _, err := tx.ExecContext(ctx, insertParticipation, user.ID, roomID, sub.PuzzleID); err != nil {
		return "", fmt.Errorf("insert room participation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit submission tx: %w", err)
	}
	return decision, nil
}

func (r *repository) GetSubmission(ctx context.Context, userID string, puzzleID int) (*domain.Submission, error) {
	const query = `
		SELECT user_id, wordle_id, wordle_score, wordle_grid, wordle_date
		FROM wordle_data
		WHERE user_id = $1 AND wordle_id = $2`

	return scanSubmission(r.db.QueryRowContext(ctx, query, userID, puzzleID))
}

func (r *repository) GetSubmissionByDate(ctx context.Context, userID string, date time.Time) (*domain.Submission, error) {
	const query = `
		SELECT user_id, wordle_id, wordle_score, wordle_grid, wordle_date
		FROM wordle_data
		WHERE user_id = $1 AND wordle_date = $2
		ORDER BY wordle_id DESC
		LIMIT 1`

	return scanSubmission(r.db.QueryRowContext(ctx, query, userID, date))
}

func scanSubmission(row *sql.Row) (*domain.Submission, error) {
	var (
		sub  domain.Submission
		grid string
	)
	err := row.Scan(&sub.UserID, &sub.PuzzleID, &sub.Score, &grid, &sub.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select wordle result: %w", err)
	}
	sub.Grid = strings.Split(grid, "\n")
	return &sub, nil
}

func (r *repository) ScoreCounts(ctx context.Context, userID string) (map[string]int, error) {
	const query = `
		SELECT wordle_score, COUNT(*)
		FROM wordle_data
		WHERE user_id = $1
		GROUP BY wordle_score`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("select score counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			score string
			n     int
		)
		if err := rows.Scan(&score, &n); err != nil {
			return nil, fmt.Errorf("scan score count: %w", err)
		}
		counts[score] = n
	}
	return counts, rows.Err()
}

func (r *repository) PuzzleIDs(ctx context.Context, userID string) ([]int, error) {
	const query = `
		SELECT wordle_id FROM wordle_data
		WHERE user_id = $1
		ORDER BY wordle_id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("select puzzle ids: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan puzzle id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	const query = `
		SELECT user_id, user_name, avatar, updated_at, created_at
		FROM user_data
		WHERE user_id = $1`

	var user domain.User
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &user.Name, &user.AvatarURL, &user.UpdatedAt, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &user, nil
}

func (r *repository) UpsertUser(ctx context.Context, user *domain.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin user tx: %w", err)
	}
	defer tx.Rollback()
	if err := upsertUserTx(ctx, tx, user); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertUserTx(ctx context.Context, tx *sql.Tx, user *domain.User) error {
	if user == nil {
		return fmt.Errorf("nil user payload")
	}
	const query = `
		INSERT INTO user_data (user_id, user_name, avatar, updated_at, created_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET
			user_name = EXCLUDED.user_name,
			avatar = EXCLUDED.avatar,
			updated_at = NOW()`

	if _, err := tx.ExecContext(ctx, query, user.ID, user.Name, user.AvatarURL); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *repository) UpsertMembership(ctx context.Context, m *domain.RoomMembership) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin membership tx: %w", err)
	}
	defer tx.Rollback()
	if err := upsertMembershipTx(ctx, tx, m); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertMembershipTx(ctx context.Context, tx *sql.Tx, m *domain.RoomMembership) error {
	if m == nil {
		return fmt.Errorf("nil membership payload")
	}
	const query = `
		INSERT INTO room_membership (user_id, room_id, display_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, room_id)
		DO UPDATE SET display_name = EXCLUDED.display_name`

	if _, err := tx.ExecContext(ctx, query, m.UserID, m.RoomID, m.DisplayName); err != nil {
		return fmt.Errorf("upsert membership: %w", err)
	}
	return nil
}

func (r *repository) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	const query = `
		SELECT room_id, prefix, wordle_room_id, updated_at, created_at
		FROM room_data
		WHERE room_id = $1`

	var (
		room       domain.Room
		wordleRoom sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, roomID).Scan(
		&room.ID, &room.Prefix, &wordleRoom, &room.UpdatedAt, &room.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select room: %w", err)
	}
	room.WordleRoomID = wordleRoom.String
	return &room, nil
}

func (r *repository) EnsureRoom(ctx context.Context, roomID, defaultPrefix string) (*domain.Room, error) {
	const query = `
		INSERT INTO room_data (room_id, prefix, wordle_room_id)
		VALUES ($1, $2, $1)
		ON CONFLICT (room_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, roomID, defaultPrefix); err != nil {
		return nil, fmt.Errorf("ensure room: %w", err)
	}
	return r.GetRoom(ctx, roomID)
}

func (r *repository) SetRoomPrefix(ctx context.Context, roomID, prefix string) error {
	const query = `
		INSERT INTO room_data (room_id, prefix, wordle_room_id)
		VALUES ($1, $2, $1)
		ON CONFLICT (room_id)
		DO UPDATE SET prefix = EXCLUDED.prefix, updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, roomID, prefix); err != nil {
		return fmt.Errorf("set room prefix: %w", err)
	}
	return nil
}

func (r *repository) SetWordleRoom(ctx context.Context, roomID, wordleRoomID string) error {
	const query = `
		INSERT INTO room_data (room_id, prefix, wordle_room_id)
		VALUES ($1, '!', $2)
		ON CONFLICT (room_id)
		DO UPDATE SET wordle_room_id = EXCLUDED.wordle_room_id, updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, roomID, wordleRoomID); err != nil {
		return fmt.Errorf("set wordle room: %w", err)
	}
	return nil
}

// Leaderboard aggregates. X counts as 10 so failed games stay comparable.
// Display names prefer the room override, then the global user name.

func (r *repository) DailyBest(ctx context.Context, q domain.RankQuery) ([]domain.RankRow, error) {
	const query = `
		SELECT
			w.user_id,
			COALESCE(NULLIF(m.display_name, ''), u.user_name, w.user_id) AS display_name,
			COALESCE(u.avatar, '') AS avatar,
			MIN(CASE WHEN w.wordle_score = 'X' THEN 10 ELSE w.wordle_score::int END)::float8 AS best,
			COUNT(*) AS games
		FROM wordle_data w
		LEFT JOIN user_data u ON u.user_id = w.user_id
		LEFT JOIN room_membership m ON m.user_id = w.user_id AND m.room_id = $2
		WHERE w.wordle_date = $1
			AND ($3 = '' OR EXISTS (
				SELECT 1 FROM room_membership f
				WHERE f.user_id = w.user_id AND f.room_id = $3))
		GROUP BY w.user_id, m.display_name, u.user_name, u.avatar
		ORDER BY best ASC, display_name ASC
		LIMIT $4`

	return r.queryRankRows(ctx, query, q.From, q.DisplayRoomID, q.FilterRoomID, rankLimit(q))
}

func (r *repository) PeriodAverages(ctx context.Context, q domain.RankQuery) ([]domain.RankRow, error) {
	const query = `
		SELECT
			w.user_id,
			COALESCE(NULLIF(m.display_name, ''), u.user_name, w.user_id) AS display_name,
			COALESCE(u.avatar, '') AS avatar,
			AVG(CASE WHEN w.wordle_score = 'X' THEN 10 ELSE w.wordle_score::int END)::float8 AS average,
			COUNT(*) AS games
		FROM wordle_data w
		LEFT JOIN user_data u ON u.user_id = w.user_id
		LEFT JOIN room_membership m ON m.user_id = w.user_id AND m.room_id = $3
		WHERE ($1::date IS NULL OR w.wordle_date BETWEEN $1 AND $2)
			AND ($4 = '' OR EXISTS (
				SELECT 1 FROM room_membership f
				WHERE f.user_id = w.user_id AND f.room_id = $4))
		GROUP BY w.user_id, m.display_name, u.user_name, u.avatar
		ORDER BY average ASC, display_name ASC
		LIMIT $5`

	from, to := rankWindow(q)
	return r.queryRankRows(ctx, query, from, to, q.DisplayRoomID, q.FilterRoomID, rankLimit(q))
}

func (r *repository) queryRankRows(ctx context.Context, query string, args ...any) ([]domain.RankRow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select leaderboard rows: %w", err)
	}
	defer rows.Close()

	var out []domain.RankRow
	for rows.Next() {
		var row domain.RankRow
		if err := rows.Scan(&row.UserID, &row.DisplayName, &row.AvatarURL, &row.Metric, &row.Games); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *repository) UserDailyBest(ctx context.Context, q domain.RankQuery, userID string) (*domain.RankRow, error) {
	const query = `
		SELECT
			w.user_id,
			COALESCE(NULLIF(m.display_name, ''), u.user_name, w.user_id) AS display_name,
			COALESCE(u.avatar, '') AS avatar,
			MIN(CASE WHEN w.wordle_score = 'X' THEN 10 ELSE w.wordle_score::int END)::float8 AS best,
			COUNT(*) AS games
		FROM wordle_data w
		LEFT JOIN user_data u ON u.user_id = w.user_id
		LEFT JOIN room_membership m ON m.user_id = w.user_id AND m.room_id = $3
		WHERE w.wordle_date = $1 AND w.user_id = $2
			AND ($4 = '' OR EXISTS (
				SELECT 1 FROM room_membership f
				WHERE f.user_id = w.user_id AND f.room_id = $4))
		GROUP BY w.user_id, m.display_name, u.user_name, u.avatar`

	return r.queryRankRow(ctx, query, q.From, userID, q.DisplayRoomID, q.FilterRoomID)
}

func (r *repository) UserPeriodAverage(ctx context.Context, q domain.RankQuery, userID string) (*domain.RankRow, error) {
	const query = `
		SELECT
			w.user_id,
			COALESCE(NULLIF(m.display_name, ''), u.user_name, w.user_id) AS display_name,
			COALESCE(u.avatar, '') AS avatar,
			AVG(CASE WHEN w.wordle_score = 'X' THEN 10 ELSE w.wordle_score::int END)::float8 AS average,
			COUNT(*) AS games
		FROM wordle_data w
		LEFT JOIN user_data u ON u.user_id = w.user_id
		LEFT JOIN room_membership m ON m.user_id = w.user_id AND m.room_id = $4
		WHERE ($1::date IS NULL OR w.wordle_date BETWEEN $1 AND $2)
			AND w.user_id = $3
			AND ($5 = '' OR EXISTS (
				SELECT 1 FROM room_membership f
				WHERE f.user_id = w.user_id AND f.room_id = $5))
		GROUP BY w.user_id, m.display_name, u.user_name, u.avatar`

	from, to := rankWindow(q)
	return r.queryRankRow(ctx, query, from, to, userID, q.DisplayRoomID, q.FilterRoomID)
}

func (r *repository) queryRankRow(ctx context.Context, query string, args ...any) (*domain.RankRow, error) {
	var row domain.RankRow
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&row.UserID, &row.DisplayName, &row.AvatarURL, &row.Metric, &row.Games)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select leaderboard row: %w", err)
	}
	return &row, nil
}

func (r *repository) CountBetterDaily(ctx context.Context, q domain.RankQuery, metric float64) (int, error) {
	const query = `
		SELECT COUNT(*) FROM (
			SELECT w.user_id,
				MIN(CASE WHEN w.wordle_score = 'X' THEN 10 ELSE w.wordle_score::int END)::float8 AS best
			FROM wordle_data w
			WHERE w.wordle_date = $1
				AND ($2 = '' OR EXISTS (
					SELECT 1 FROM room_membership f
					WHERE f.user_id = w.user_id AND f.room_id = $2))
			GROUP BY w.user_id
		) t
		WHERE t.best < $3`

	return r.queryCount(ctx, query, q.From, q.FilterRoomID, metric)
}

func (r *repository) CountBetterAverage(ctx context.Context, q domain.RankQuery, metric float64) (int, error) {
	const query = `
		SELECT COUNT(*) FROM (
			SELECT w.user_id,
				AVG(CASE WHEN w.wordle_score = 'X' THEN 10 ELSE w.wordle_score::int END)::float8 AS average
			FROM wordle_data w
			WHERE ($1::date IS NULL OR w.wordle_date BETWEEN $1 AND $2)
				AND ($3 = '' OR EXISTS (
					SELECT 1 FROM room_membership f
					WHERE f.user_id = w.user_id AND f.room_id = $3))
			GROUP BY w.user_id
		) t
		WHERE t.average < $4`

	from, to := rankWindow(q)
	return r.queryCount(ctx, query, from, to, q.FilterRoomID, metric)
}

func (r *repository) queryCount(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count leaderboard rows: %w", err)
	}
	return n, nil
}

func rankLimit(q domain.RankQuery) int {
	if q.Limit <= 0 {
		return 1000
	}
	return q.Limit
}

// rankWindow maps the query window to nullable bounds; a zero window means
// all-time and both bounds go NULL.
func rankWindow(q domain.RankQuery) (from, to sql.NullTime) {
	if q.From.IsZero() && q.To.IsZero() {
		return sql.NullTime{}, sql.NullTime{}
	}
	return sql.NullTime{Time: q.From, Valid: true}, sql.NullTime{Time: q.To, Valid: true}
}
