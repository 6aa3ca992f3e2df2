package domain

import "fmt"

// QuizSize is the fixed number of questions in every quiz.
const QuizSize = 20

// SchemaVersion tags the persisted envelope. Bumping it discards old state.
const SchemaVersion = "1.0.0"

// ChoicesPerQuestion is the exact number of choices a question carries.
const ChoicesPerQuestion = 4

// Category classifies question content.
type Category string

const (
	CategoryFundamentals Category = "fundamentals"
	CategoryTools        Category = "tools"
	CategoryEthics       Category = "ethics"
	CategoryApplications Category = "applications"
)

// Categories lists every category in a fixed order.
var Categories = []Category{
	CategoryFundamentals,
	CategoryTools,
	CategoryEthics,
	CategoryApplications,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Choice is one selectable answer of a question.
type Choice struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// Question models an MCQ question with exactly four choices.
type Question struct {
	ID              string   `json:"id" yaml:"id"`
	Category        Category `json:"category" yaml:"category"`
	Prompt          string   `json:"prompt" yaml:"prompt"`
	Choices         []Choice `json:"choices" yaml:"choices"`
	CorrectChoiceID string   `json:"correctChoiceId" yaml:"correctChoiceId"`
	Explanation     string   `json:"explanation" yaml:"explanation"`
	Difficulty      string   `json:"difficulty" yaml:"difficulty"`
	Tags            []string `json:"tags" yaml:"tags"`
}

// Validate checks the structural invariants of a question.
func (q Question) Validate() error {
	if q.ID == "" {
		return &InvalidQuestionError{Reason: "missing id"}
	}
	if !q.Category.Valid() {
		return &InvalidQuestionError{QuestionID: q.ID, Reason: fmt.Sprintf("unknown category %q", q.Category)}
	}
	if len(q.Choices) != ChoicesPerQuestion {
		return &InvalidQuestionError{QuestionID: q.ID, Reason: fmt.Sprintf("expected %d choices, got %d", ChoicesPerQuestion, len(q.Choices))}
	}
	seen := make(map[string]struct{}, len(q.Choices))
	for _, c := range q.Choices {
		if c.ID == "" {
			return &InvalidQuestionError{QuestionID: q.ID, Reason: "choice without id"}
		}
		if _, dup := seen[c.ID]; dup {
			return &InvalidQuestionError{QuestionID: q.ID, Reason: fmt.Sprintf("duplicate choice %q", c.ID)}
		}
		seen[c.ID] = struct{}{}
	}
	if _, ok := seen[q.CorrectChoiceID]; !ok {
		return &InvalidQuestionError{QuestionID: q.ID, Reason: fmt.Sprintf("correct choice %q is not a choice", q.CorrectChoiceID)}
	}
	return nil
}

// Answer is recorded once a user commits a choice. Never mutated afterwards.
type Answer struct {
	QuestionID       string `json:"questionId"`
	SelectedChoiceID string `json:"selectedChoiceId"`
	IsCorrect        bool   `json:"isCorrect"`
	AnsweredAt       int64  `json:"answeredAt"`
}

// Session is one attempt at a quiz. Timestamps are milliseconds since epoch.
type Session struct {
	ID                   string     `json:"id"`
	Questions            []Question `json:"questions"`
	CurrentQuestionIndex int        `json:"currentQuestionIndex"`
	Answers              []Answer   `json:"answers"`
	StartTime            int64      `json:"startTime"`
	EndTime              *int64     `json:"endTime,omitempty"`
	IsComplete           bool       `json:"isComplete"`
}

// CategoryResult is the per-category slice of a Result.
type CategoryResult struct {
	Category       Category `json:"category"`
	TotalQuestions int      `json:"totalQuestions"`
	CorrectAnswers int      `json:"correctAnswers"`
	Percentage     float64  `json:"percentage"`
}

// Result is the scoring summary derived from a session.
type Result struct {
	SessionID         string           `json:"sessionId"`
	TotalQuestions    int              `json:"totalQuestions"`
	CorrectAnswers    int              `json:"correctAnswers"`
	PercentageScore   float64          `json:"percentageScore"`
	TotalTimeSeconds  int              `json:"totalTimeSeconds"`
	DomainPerformance []CategoryResult `json:"domainPerformance"`
	CompletedAt       int64            `json:"completedAt"`
}

// StoredState is the versioned envelope written to durable storage.
type StoredState struct {
	Version           string   `json:"version"`
	CurrentSession    *Session `json:"currentSession,omitempty"`
	CompletedSessions []Result `json:"completedSessions"`
	LastUpdated       int64    `json:"lastUpdated"`
}

// CheckPool validates every question of a loaded pool and drops repeated ids,
// keeping the first occurrence.
func CheckPool(questions []Question) ([]Question, error) {
	seen := make(map[string]struct{}, len(questions))
	out := make([]Question, 0, len(questions))
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out, nil
}
