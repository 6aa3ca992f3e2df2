package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionComplete is returned when a transition targets a finished session.
	ErrSessionComplete = errors.New("quiz session already complete")
	// ErrSourceNotFound indicates the question bank for a source could not be found.
	ErrSourceNotFound = errors.New("question source not found")
	// ErrQuotaExceeded is returned by key-value stores that ran out of space.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrStorageUnavailable is returned by key-value stores that cannot be reached at all.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// InsufficientPoolError reports a question pool smaller than the quiz size.
type InsufficientPoolError struct {
	Available int
	Required  int
}

func (e *InsufficientPoolError) Error() string {
	return fmt.Sprintf("insufficient question pool: %d available, %d required", e.Available, e.Required)
}

// UnknownQuestionError indicates a question id outside the session.
type UnknownQuestionError struct {
	QuestionID string
}

func (e *UnknownQuestionError) Error() string {
	return fmt.Sprintf("question %q is not part of this session", e.QuestionID)
}

// AlreadyAnsweredError is returned when a question receives a second answer.
type AlreadyAnsweredError struct {
	QuestionID string
}

func (e *AlreadyAnsweredError) Error() string {
	return fmt.Sprintf("question %q already answered", e.QuestionID)
}

// InvalidQuestionError describes a question record that breaks its invariants.
type InvalidQuestionError struct {
	QuestionID string
	Reason     string
}

func (e *InvalidQuestionError) Error() string {
	if e.QuestionID == "" {
		return "invalid question: " + e.Reason
	}
	return fmt.Sprintf("invalid question %q: %s", e.QuestionID, e.Reason)
}
