package wordlepresenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/Wordle-KakaoTalk-bot/internal/domain"
	"github.com/park285/Wordle-KakaoTalk-bot/internal/leaderboard"
	"github.com/park285/Wordle-KakaoTalk-bot/internal/util"
	corewordle "github.com/park285/Wordle-KakaoTalk-bot/internal/wordle"
)

const (
	boardInstruction  = "📊 워들 리더보드"
	statsInstruction  = "🔢 워들 통계"
	lookupInstruction = "🔍 워들 기록"
	helpInstruction   = "🟩 워들 명령어 안내"
)

// PrefixProvider exposes the Prefix that Kakao messages should use.
type PrefixProvider interface {
	Prefix() string
}

// Formatter renders wordle results into Kakao-friendly text blocks.
type Formatter struct {
	prefixProvider PrefixProvider
}

func NewFormatter(provider PrefixProvider) *Formatter {
	return &Formatter{prefixProvider: provider}
}

func (f *Formatter) Prefix() string {
	if f == nil || f.prefixProvider == nil {
		return ""
	}
	return strings.TrimSpace(f.prefixProvider.Prefix())
}

// Leaderboard renders one page of a ranked board.
func (f *Formatter) Leaderboard(v *leaderboard.View, page int) string {
	if v == nil || len(v.Entries) == 0 {
		return "해당 기간의 워들 기록이 없습니다. 결과를 공유해 첫 기록을 남겨보세요!"
	}

	page = v.ClampPage(page)
	scopeLabel := "전체"
	if v.Scope.FilterRoomID != "" {
		scopeLabel = "방"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s — %s · %s\n", boardInstruction, periodLabel(v.Period), scopeLabel))
	for _, entry := range v.Page(page) {
		sb.WriteString(formatEntry(v.Period, entry))
	}
	sb.WriteString(fmt.Sprintf("\n%d / %d 페이지", page+1, v.PageCount()))
	if v.Requester != nil {
		sb.WriteString(fmt.Sprintf(" | 내 순위: %d위", v.Requester.Rank))
	}
	prefix := f.Prefix()
	sb.WriteString(fmt.Sprintf("\n페이지 이동: `%s리더보드 <페이지>` (3분간 유지)", prefix))

	return util.ApplyKakaoSeeMorePadding(
		util.StripLeadingHeader(sb.String(), boardInstruction), boardInstruction)
}

func formatEntry(period leaderboard.Period, entry leaderboard.Entry) string {
	if period == leaderboard.PeriodDaily {
		return fmt.Sprintf("%d위. %s — %s\n", entry.Rank, entry.DisplayName, scoreLabel(int(entry.Metric)))
	}
	return fmt.Sprintf("%d위. %s — 평균 %.2f (%d판)\n", entry.Rank, entry.DisplayName, entry.Metric, entry.Games)
}

func scoreLabel(v int) string {
	if v >= corewordle.FailedScoreValue {
		return "X/6"
	}
	return fmt.Sprintf("%d/6", v)
}

// Stats renders one user's lifetime summary with a score distribution bar.
func (f *Formatter) Stats(name string, s *domain.Stats) string {
	if s == nil || s.TotalGames == 0 {
		return fmt.Sprintf("%s님의 워들 기록이 아직 없습니다. 결과를 공유하면 집계가 시작됩니다.", name)
	}

	var sb strings.Builder
	sb.WriteString(statsInstruction)
	sb.WriteString(fmt.Sprintf(" — %s\n", name))
	sb.WriteString(fmt.Sprintf("• 총 게임: %d판\n", s.TotalGames))
	sb.WriteString(fmt.Sprintf("• 승률: %.1f%%\n", s.WinPercent))
	sb.WriteString(fmt.Sprintf("• 평균 점수: %.2f\n", s.AverageScore))
	sb.WriteString(fmt.Sprintf("• 현재 연속: %d일 | 최장 연속: %d일\n", s.CurrentStreak, s.LongestStreak))
	sb.WriteString("\n점수 분포\n")
	for _, score := range []string{"1", "2", "3", "4", "5", "6", corewordle.FailedScore} {
		n := s.ScoreCounts[score]
		sb.WriteString(fmt.Sprintf("%s: %s %d\n", score, strings.Repeat("■", barLength(n, s.TotalGames)), n))
	}

	return util.ApplyKakaoSeeMorePadding(
		util.StripLeadingHeader(sb.String(), statsInstruction), statsInstruction)
}

// barLength scales a count to at most 12 blocks so the widest row stays
// readable on a phone.
func barLength(n, total int) int {
	if n == 0 || total == 0 {
		return 0
	}
	const width = 12
	l := n * width / total
	if l == 0 {
		l = 1
	}
	return l
}

// Lookup renders one recorded result with its original share grid.
func (f *Formatter) Lookup(name string, sub *domain.Submission) string {
	if sub == nil {
		return fmt.Sprintf("%s님의 해당 날짜/번호 기록을 찾지 못했습니다.", name)
	}

	var sb strings.Builder
	sb.WriteString(lookupInstruction)
	sb.WriteString(fmt.Sprintf(" — %s\n", name))
	sb.WriteString(fmt.Sprintf("Wordle %s %s/6 (%s)\n\n",
		corewordle.FormatPuzzleID(sub.PuzzleID), sub.Score, sub.Date.Format("2006-01-02")))
	sb.WriteString(corewordle.DecodeGrid(sub.Grid))
	return sb.String()
}

func (f *Formatter) BadLookup() string {
	return fmt.Sprintf("날짜(`1/2/2026`) 또는 퍼즐 번호(`1,234`)로 조회할 수 있습니다. 예: `%s조회 1234`", f.Prefix())
}

func (f *Formatter) NoActiveBoard() string {
	return fmt.Sprintf("열려 있는 리더보드가 없습니다. `%s리더보드 [기간]`으로 새로 열어주세요.", f.Prefix())
}

func (f *Formatter) BadPeriod(raw string) string {
	return fmt.Sprintf("`%s` 기간을 이해하지 못했습니다. daily / weekly / monthly / yearly / all 중에서 골라주세요.", strings.TrimSpace(raw))
}

// ReviewResult summarizes a manual re-check of a quoted share text.
func (f *Formatter) ReviewResult(cand *corewordle.Candidate, verdict corewordle.Verdict) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Wordle %s %s/6 재검토 결과: ", corewordle.FormatPuzzleID(cand.PuzzleID), cand.Score))
	switch verdict {
	case corewordle.VerdictCheater:
		sb.WriteString("🚨 부정행위로 판정")
	case corewordle.VerdictFlag:
		sb.WriteString("⚠️ 의심 기록으로 표시")
	default:
		sb.WriteString("✅ 정상 기록")
	}
	return sb.String()
}

func (f *Formatter) ReviewNotSubmission() string {
	return "재검토할 워들 결과를 찾지 못했습니다. 공유 메시지를 그대로 붙여주세요."
}

func (f *Formatter) ReviewMismatch() string {
	return "재검토 결과: 점수와 그리드가 일치하지 않는 기록입니다."
}

func (f *Formatter) PrefixUpdated(prefix string) string {
	return fmt.Sprintf("✅ 명령어 접두사를 `%s`로 변경했습니다.", prefix)
}

func (f *Formatter) PrefixInvalid() string {
	return "접두사는 1~5글자여야 합니다."
}

func (f *Formatter) ChannelUpdated(target string) string {
	return fmt.Sprintf("✅ 워들 결과 수집 방을 `%s`(으)로 지정했습니다.", target)
}

func (f *Formatter) MemberRefreshed(name string) string {
	return fmt.Sprintf("✅ %s님의 프로필과 닉네임을 갱신했습니다.", name)
}

func (f *Formatter) Help() string {
	prefix := f.Prefix()
	content := fmt.Sprintf(`%s
• Wordle 결과 공유
  지정된 방에 공유 메시지를 올리면 자동 집계
• %s리더보드 [기간|페이지]
  이 방의 순위표 (daily/weekly/monthly/yearly/all)
• %s전체리더보드 [기간]
  서버 전체 순위표
• %s통계
  총 게임·승률·평균·연속 기록
• %s조회 <날짜|번호>
  과거 기록 확인 (예: 1/2/2026, 1234)
• %s재검토 <공유 메시지>
  의심 기록 수동 재검토
• %s갱신
  닉네임/프로필 다시 불러오기`, helpInstruction,
		prefix, prefix, prefix, prefix, prefix, prefix)

	return util.ApplyKakaoSeeMorePadding(
		util.StripLeadingHeader(content, helpInstruction), helpInstruction)
}

// ShortDate formats a stored puzzle date for compact listings.
func ShortDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

func periodLabel(p leaderboard.Period) string {
	switch p {
	case leaderboard.PeriodDaily:
		return "일간"
	case leaderboard.PeriodWeekly:
		return "주간"
	case leaderboard.PeriodMonthly:
		return "월간"
	case leaderboard.PeriodYearly:
		return "연간"
	default:
		return "전체"
	}
}
