package wordle

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Canonical grid letters. Wire format uses the share-sheet pictograms.
const (
	CellEmpty   = 'W' // ⬜
	CellWrong   = 'B' // ⬛
	CellPresent = 'Y' // 🟨
	CellCorrect = 'G' // 🟩
)

const (
	// WinningRow is the all-correct final row of a solved game.
	WinningRow = "GGGGG"

	// FailedScore marks a game that ran out of guesses.
	FailedScore = "X"

	// FailedScoreValue ranks a failed game below any solved score.
	FailedScoreValue = 10
)

var (
	ErrGridInvalid       = errors.New("wordle: grid row malformed")
	ErrScoreGridMismatch = errors.New("wordle: score and grid disagree")
)

// Candidate is a syntactically parsed submission awaiting validation.
type Candidate struct {
	PuzzleID int
	Score    string   // "1".."6" or "X"
	Grid     []string // canonical W/B/Y/G rows
}

// headerRE matches the `Wordle <id> <score>/6` line followed by the mandatory
// blank line. Trailing content after the grid is ignored by design.
var headerRE = regexp.MustCompile(`^Wordle\s+(\d{1,3}(?:,\d{3})*)\s+([1-6X])/6\s*\r?\n\r?\n`)

// gridLineRE accepts any run of grid pictograms on its own line; row length and
// alphabet are re-checked in Validate so a malformed grid is rejected with a
// marker instead of passing silently as ordinary chat.
var gridLineRE = regexp.MustCompile(`^[⬜⬛🟨🟩]+$`)

var gridReplacer = strings.NewReplacer("⬜", "W", "⬛", "B", "🟨", "Y", "🟩", "G")

// Parse extracts a submission candidate from raw message text. The second
// return value is false when the text is not a Wordle posting at all; that is
// ordinary traffic, not an error.
func Parse(text string) (*Candidate, bool) {
	m := headerRE.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}

	id, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return nil, false
	}

	rest := text[len(m[0]):]
	var grid []string
	for _, line := range strings.Split(rest, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" || !gridLineRE.MatchString(line) {
			break
		}
		if len(grid) == 6 {
			break
		}
		grid = append(grid, gridReplacer.Replace(line))
	}

	return &Candidate{PuzzleID: id, Score: m[2], Grid: grid}, true
}

// Validate checks the candidate's grid against its reported score.
// A failed game must show all 6 guesses and cannot end on a winning row; a
// solved game must show exactly score rows ending on the winning row.
func (c *Candidate) Validate() error {
	for _, row := range c.Grid {
		if len(row) != 5 {
			return ErrGridInvalid
		}
		for i := 0; i < len(row); i++ {
			switch row[i] {
			case CellEmpty, CellWrong, CellPresent, CellCorrect:
			default:
				return ErrGridInvalid
			}
		}
	}

	rows := len(c.Grid)
	if c.Score == FailedScore {
		if rows != 6 || c.Grid[rows-1] == WinningRow {
			return ErrScoreGridMismatch
		}
		return nil
	}

	expected, err := strconv.Atoi(c.Score)
	if err != nil {
		return ErrScoreGridMismatch
	}
	if rows != expected || c.Grid[rows-1] != WinningRow {
		return ErrScoreGridMismatch
	}
	return nil
}

// ScoreValue maps a stored score to its numeric ranking value ('X' → 10).
func ScoreValue(score string) int {
	if score == FailedScore {
		return FailedScoreValue
	}
	n, _ := strconv.Atoi(score)
	return n
}

// DecodeGrid renders canonical rows back into share-sheet pictograms.
func DecodeGrid(grid []string) string {
	dec := strings.NewReplacer("W", "⬜", "B", "⬛", "Y", "🟨", "G", "🟩")
	lines := make([]string, 0, len(grid))
	for _, row := range grid {
		lines = append(lines, dec.Replace(row))
	}
	return strings.Join(lines, "\n")
}

var idPrinter = message.NewPrinter(language.English)

// FormatPuzzleID renders a puzzle id with thousands grouping ("1,234").
func FormatPuzzleID(id int) string {
	return idPrinter.Sprintf("%d", id)
}
