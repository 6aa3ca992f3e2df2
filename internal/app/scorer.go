package app

import (
	"fmt"

	"timed-quiz/internal/domain"
)

// Scorer derives results from sessions.
type Scorer struct {
	clock Clock
}

func NewScorer(clock Clock) *Scorer {
	if clock == nil {
		clock = SystemClock
	}
	return &Scorer{clock: clock}
}

// CalculateResult summarizes s. Partial sessions are scored against the full
// question count, and an unfinished session is timed up to now.
func (sc *Scorer) CalculateResult(s domain.Session) domain.Result {
	end := sc.clock()
	if s.EndTime != nil {
		end = *s.EndTime
	}

	total := len(s.Questions)
	correct := countCorrect(s.Answers)

	return domain.Result{
		SessionID:         s.ID,
		TotalQuestions:    total,
		CorrectAnswers:    correct,
		PercentageScore:   percentage(correct, total),
		TotalTimeSeconds:  ElapsedSeconds(s.StartTime, end),
		DomainPerformance: categoryBreakdown(s),
		CompletedAt:       end,
	}
}

func categoryBreakdown(s domain.Session) []domain.CategoryResult {
	categoryOf := make(map[string]domain.Category, len(s.Questions))
	totals := make(map[domain.Category]int, len(domain.Categories))
	for _, q := range s.Questions {
		categoryOf[q.ID] = q.Category
		totals[q.Category]++
	}
	corrects := make(map[domain.Category]int, len(domain.Categories))
	for _, a := range s.Answers {
		if !a.IsCorrect {
			continue
		}
		if category, ok := categoryOf[a.QuestionID]; ok {
			corrects[category]++
		}
	}

	out := make([]domain.CategoryResult, 0, len(domain.Categories))
	for _, category := range domain.Categories {
		out = append(out, domain.CategoryResult{
			Category:       category,
			TotalQuestions: totals[category],
			CorrectAnswers: corrects[category],
			Percentage:     percentage(corrects[category], totals[category]),
		})
	}
	return out
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// ElapsedSeconds is the whole number of seconds between startTime and now,
// both in milliseconds. Callers poll it from their own ticker.
func ElapsedSeconds(startTime, now int64) int {
	if now <= startTime {
		return 0
	}
	return int((now - startTime) / 1000)
}

// FormatTime renders seconds as m:ss. Minutes are not wrapped into hours.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
