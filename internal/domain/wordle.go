package domain

import "time"

// User is a chat platform identity. Rows are upserted on every observed
// activity and never deleted.
type User struct {
	ID        string
	Name      string
	AvatarURL string
	UpdatedAt time.Time
	CreatedAt time.Time
}

// Room is one KakaoTalk room the bot serves. WordleRoomID designates where
// submissions are accepted (usually the room itself).
type Room struct {
	ID           string
	Prefix       string
	WordleRoomID string
	UpdatedAt    time.Time
	CreatedAt    time.Time
}

// RoomMembership carries the per-room display-name override for a user.
type RoomMembership struct {
	UserID      string
	RoomID      string
	DisplayName string
}

// Submission is the canonical recorded result for (UserID, PuzzleID).
// Grid rows use the letters W/B/Y/G and never change once written.
type Submission struct {
	UserID   string
	PuzzleID int
	Score    string // "1".."6" or "X"
	Grid     []string
	Date     time.Time // calendar date in the reference timezone, midnight UTC
}

// RoomParticipation records that a canonical Submission was also accepted in a
// given room. It cannot exist without its Submission.
type RoomParticipation struct {
	UserID   string
	RoomID   string
	PuzzleID int
}

// Decision is the ledger's verdict for one submission candidate.
type Decision string

const (
	DecisionAccepted     Decision = "accepted"
	DecisionCrossPost    Decision = "cross_post"
	DecisionDuplicate    Decision = "duplicate"
	DecisionGridConflict Decision = "grid_conflict"
)

// Accepted reports whether the candidate was persisted (fresh or cross-post).
func (d Decision) Accepted() bool {
	return d == DecisionAccepted || d == DecisionCrossPost
}

// RankRow is one aggregated leaderboard row straight from storage, ordered by
// metric ascending. Games counts the submissions behind Metric.
type RankRow struct {
	UserID      string
	DisplayName string
	AvatarURL   string
	Metric      float64
	Games       int
}

// RankQuery scopes a leaderboard aggregate. Zero From/To means unbounded
// (all-time); From equal to To selects a single day. FilterRoomID restricts
// results to that room's members; DisplayRoomID only steers display-name
// resolution (room override before global name).
type RankQuery struct {
	From          time.Time
	To            time.Time
	FilterRoomID  string
	DisplayRoomID string
	Limit         int
}

// Stats summarizes a user's full submission history.
type Stats struct {
	TotalGames    int
	WinPercent    float64
	AverageScore  float64
	ScoreCounts   map[string]int // keys "1".."6", "X"
	CurrentStreak int
	LongestStreak int
}
