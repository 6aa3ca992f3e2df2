package app

import "timed-quiz/internal/domain"

// StateMachine applies transitions to quiz sessions. Every transition returns a
// new Session and leaves its input untouched; callers serialize transitions on
// a single logical session.
//
// RecordAnswer on the last open question is the one path that completes a
// session on its own. MoveToNextQuestion only moves the cursor, and Complete is
// an explicit finalize for sessions ended early.
type StateMachine struct {
	clock Clock
}

func NewStateMachine(clock Clock) *StateMachine {
	if clock == nil {
		clock = SystemClock
	}
	return &StateMachine{clock: clock}
}

// RecordAnswer appends the answer for questionID. Correctness is derived from
// the question itself.
func (m *StateMachine) RecordAnswer(s domain.Session, questionID, selectedChoiceID string) (domain.Session, error) {
	question, ok := findQuestion(s, questionID)
	if !ok {
		return domain.Session{}, &domain.UnknownQuestionError{QuestionID: questionID}
	}
	if s.IsComplete {
		return domain.Session{}, domain.ErrSessionComplete
	}
	for _, a := range s.Answers {
		if a.QuestionID == questionID {
			return domain.Session{}, &domain.AlreadyAnsweredError{QuestionID: questionID}
		}
	}

	now := m.clock()
	next := cloneSession(s)
	next.Answers = append(next.Answers, domain.Answer{
		QuestionID:       questionID,
		SelectedChoiceID: selectedChoiceID,
		IsCorrect:        selectedChoiceID == question.CorrectChoiceID,
		AnsweredAt:       now,
	})
	if len(next.Answers) >= len(next.Questions) {
		next.IsComplete = true
		next.EndTime = &now
	}
	return next, nil
}

// MoveToNextQuestion advances the cursor. The cursor stops one past the last
// question, where CurrentQuestion reports nothing.
func (m *StateMachine) MoveToNextQuestion(s domain.Session) domain.Session {
	next := cloneSession(s)
	if next.CurrentQuestionIndex < len(next.Questions) {
		next.CurrentQuestionIndex++
	}
	return next
}

// CurrentQuestion returns the question under the cursor.
func (m *StateMachine) CurrentQuestion(s domain.Session) (domain.Question, bool) {
	if s.CurrentQuestionIndex < 0 || s.CurrentQuestionIndex >= len(s.Questions) {
		return domain.Question{}, false
	}
	return s.Questions[s.CurrentQuestionIndex], true
}

// IsComplete reports whether every question has an answer.
func (m *StateMachine) IsComplete(s domain.Session) bool {
	return len(s.Answers) >= len(s.Questions)
}

func (m *StateMachine) CorrectCount(s domain.Session) int {
	return countCorrect(s.Answers)
}

// Complete finalizes the session. A session that is already complete is
// returned unchanged so its end time is kept.
func (m *StateMachine) Complete(s domain.Session) domain.Session {
	next := cloneSession(s)
	if next.IsComplete && next.EndTime != nil {
		return next
	}
	now := m.clock()
	next.IsComplete = true
	next.EndTime = &now
	return next
}

func findQuestion(s domain.Session, questionID string) (domain.Question, bool) {
	for _, q := range s.Questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return domain.Question{}, false
}

func countCorrect(answers []domain.Answer) int {
	n := 0
	for _, a := range answers {
		if a.IsCorrect {
			n++
		}
	}
	return n
}

// cloneSession copies the mutable parts of s so appends never alias the input.
func cloneSession(s domain.Session) domain.Session {
	next := s
	next.Answers = make([]domain.Answer, len(s.Answers), len(s.Answers)+1)
	copy(next.Answers, s.Answers)
	if s.EndTime != nil {
		end := *s.EndTime
		next.EndTime = &end
	}
	return next
}
