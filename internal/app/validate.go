package app

import (
	"encoding/json"
	"errors"
	"fmt"

	"timed-quiz/internal/domain"
)

// ErrInvalidState marks stored data that parsed but failed validation.
var ErrInvalidState = errors.New("invalid stored state")

// Wire mirrors of the envelope. Pointer fields tell a missing field apart from
// a zero value, and JSON type mismatches fail decoding outright.
type wireState struct {
	Version           *string       `json:"version"`
	CurrentSession    *wireSession  `json:"currentSession"`
	CompletedSessions *[]wireResult `json:"completedSessions"`
	LastUpdated       *int64        `json:"lastUpdated"`
}

type wireSession struct {
	ID                   *string            `json:"id"`
	Questions            *[]domain.Question `json:"questions"`
	CurrentQuestionIndex *int               `json:"currentQuestionIndex"`
	Answers              *[]wireAnswer      `json:"answers"`
	StartTime            *int64             `json:"startTime"`
	EndTime              *int64             `json:"endTime"`
	IsComplete           *bool              `json:"isComplete"`
}

type wireAnswer struct {
	QuestionID       *string `json:"questionId"`
	SelectedChoiceID *string `json:"selectedChoiceId"`
	IsCorrect        *bool   `json:"isCorrect"`
	AnsweredAt       *int64  `json:"answeredAt"`
}

type wireResult struct {
	SessionID         *string                  `json:"sessionId"`
	TotalQuestions    *int                     `json:"totalQuestions"`
	CorrectAnswers    *int                     `json:"correctAnswers"`
	PercentageScore   *float64                 `json:"percentageScore"`
	TotalTimeSeconds  *int                     `json:"totalTimeSeconds"`
	DomainPerformance *[]domain.CategoryResult `json:"domainPerformance"`
	CompletedAt       *int64                   `json:"completedAt"`
}

// DecodeStoredState parses and validates a persisted envelope.
func DecodeStoredState(raw string) (domain.StoredState, error) {
	var w wireState
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return domain.StoredState{}, fmt.Errorf("decode state: %w", err)
	}
	if w.Version == nil || w.CompletedSessions == nil || w.LastUpdated == nil {
		return domain.StoredState{}, fmt.Errorf("%w: missing envelope field", ErrInvalidState)
	}
	if *w.Version != domain.SchemaVersion {
		return domain.StoredState{}, fmt.Errorf("%w: version %q, want %q", ErrInvalidState, *w.Version, domain.SchemaVersion)
	}

	state := domain.StoredState{
		Version:           *w.Version,
		CompletedSessions: make([]domain.Result, 0, len(*w.CompletedSessions)),
		LastUpdated:       *w.LastUpdated,
	}
	if w.CurrentSession != nil {
		session, err := w.CurrentSession.session()
		if err != nil {
			return domain.StoredState{}, err
		}
		state.CurrentSession = &session
	}
	for i, r := range *w.CompletedSessions {
		result, err := r.result()
		if err != nil {
			return domain.StoredState{}, fmt.Errorf("completed session %d: %w", i, err)
		}
		state.CompletedSessions = append(state.CompletedSessions, result)
	}
	return state, nil
}

func (w wireSession) session() (domain.Session, error) {
	if w.ID == nil || w.Questions == nil || w.CurrentQuestionIndex == nil ||
		w.Answers == nil || w.StartTime == nil || w.IsComplete == nil {
		return domain.Session{}, fmt.Errorf("%w: missing session field", ErrInvalidState)
	}
	if *w.ID == "" {
		return domain.Session{}, fmt.Errorf("%w: empty session id", ErrInvalidState)
	}
	questions := *w.Questions
	if len(questions) == 0 {
		return domain.Session{}, fmt.Errorf("%w: session without questions", ErrInvalidState)
	}
	ids := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return domain.Session{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
		ids[q.ID] = struct{}{}
	}
	if idx := *w.CurrentQuestionIndex; idx < 0 || idx > len(questions) {
		return domain.Session{}, fmt.Errorf("%w: question index %d out of range", ErrInvalidState, idx)
	}
	if *w.IsComplete && w.EndTime == nil {
		return domain.Session{}, fmt.Errorf("%w: complete session without end time", ErrInvalidState)
	}

	answers := make([]domain.Answer, 0, len(*w.Answers))
	for _, a := range *w.Answers {
		if a.QuestionID == nil || a.SelectedChoiceID == nil || a.IsCorrect == nil || a.AnsweredAt == nil {
			return domain.Session{}, fmt.Errorf("%w: missing answer field", ErrInvalidState)
		}
		if _, ok := ids[*a.QuestionID]; !ok {
			return domain.Session{}, fmt.Errorf("%w: answer for unknown question %q", ErrInvalidState, *a.QuestionID)
		}
		answers = append(answers, domain.Answer{
			QuestionID:       *a.QuestionID,
			SelectedChoiceID: *a.SelectedChoiceID,
			IsCorrect:        *a.IsCorrect,
			AnsweredAt:       *a.AnsweredAt,
		})
	}

	return domain.Session{
		ID:                   *w.ID,
		Questions:            questions,
		CurrentQuestionIndex: *w.CurrentQuestionIndex,
		Answers:              answers,
		StartTime:            *w.StartTime,
		EndTime:              w.EndTime,
		IsComplete:           *w.IsComplete,
	}, nil
}

func (w wireResult) result() (domain.Result, error) {
	if w.SessionID == nil || w.TotalQuestions == nil || w.CorrectAnswers == nil || w.PercentageScore == nil ||
		w.TotalTimeSeconds == nil || w.DomainPerformance == nil || w.CompletedAt == nil {
		return domain.Result{}, fmt.Errorf("%w: missing result field", ErrInvalidState)
	}
	return domain.Result{
		SessionID:         *w.SessionID,
		TotalQuestions:    *w.TotalQuestions,
		CorrectAnswers:    *w.CorrectAnswers,
		PercentageScore:   *w.PercentageScore,
		TotalTimeSeconds:  *w.TotalTimeSeconds,
		DomainPerformance: *w.DomainPerformance,
		CompletedAt:       *w.CompletedAt,
	}, nil
}
