package app_test

import (
	"math/rand"
	"testing"

	"timed-quiz/internal/app"
	"timed-quiz/internal/domain"
	"timed-quiz/internal/domain/domaintest"
)

type fakeClock struct {
	now int64
}

func (c *fakeClock) Now() int64 { return c.now }

func (c *fakeClock) Advance(ms int64) { c.now += ms }

func newClock() *fakeClock {
	return &fakeClock{now: 1_700_000_000_000}
}

// newSession selects a quiz from a 40-question pool with a fixed seed.
func newSession(t *testing.T, clock *fakeClock) domain.Session {
	t.Helper()
	selector := app.NewSelector(rand.New(rand.NewSource(7)), clock.Now)
	session, err := selector.InitializeSession(domaintest.Pool(10))
	if err != nil {
		t.Fatalf("initialize session: %v", err)
	}
	return session
}

// answerN answers the first n questions in order, correctly when correct(i) holds.
func answerN(t *testing.T, m *app.StateMachine, s domain.Session, n int, correct func(i int) bool) domain.Session {
	t.Helper()
	for i := 0; i < n; i++ {
		q := s.Questions[i]
		choice := domaintest.Wrong(q)
		if correct(i) {
			choice = q.CorrectChoiceID
		}
		var err error
		s, err = m.RecordAnswer(s, q.ID, choice)
		if err != nil {
			t.Fatalf("record answer %d: %v", i, err)
		}
		s = m.MoveToNextQuestion(s)
	}
	return s
}

func alternating(i int) bool { return i%2 == 0 }
