package app_test

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"timed-quiz/internal/app"
	"timed-quiz/internal/domain"
	"timed-quiz/internal/domain/domaintest"
)

func TestSelectQuizQuestionsCoversEveryCategory(t *testing.T) {
	// one category is nearly empty, so it only shows up via the per-category draw
	pool := append(domaintest.PoolOf(domain.CategoryFundamentals, 30), domaintest.PoolOf(domain.CategoryTools, 8)...)
	pool = append(pool, domaintest.PoolOf(domain.CategoryEthics, 1)...)
	pool = append(pool, domaintest.PoolOf(domain.CategoryApplications, 2)...)

	for seed := int64(0); seed < 100; seed++ {
		selector := app.NewSelector(rand.New(rand.NewSource(seed)), app.FixedClock(0))
		questions, err := selector.SelectQuizQuestions(pool)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if len(questions) != domain.QuizSize {
			t.Fatalf("seed %d: expected %d questions, got %d", seed, domain.QuizSize, len(questions))
		}
		ids := make(map[string]struct{})
		categories := make(map[domain.Category]struct{})
		for _, q := range questions {
			if _, dup := ids[q.ID]; dup {
				t.Fatalf("seed %d: duplicate question %s", seed, q.ID)
			}
			ids[q.ID] = struct{}{}
			categories[q.Category] = struct{}{}
		}
		if len(categories) != len(domain.Categories) {
			t.Fatalf("seed %d: expected all categories, got %v", seed, categories)
		}
	}
}

func TestSelectQuizQuestionsInsufficientPool(t *testing.T) {
	selector := app.NewSelector(rand.New(rand.NewSource(1)), app.FixedClock(0))

	_, err := selector.SelectQuizQuestions(domaintest.Pool(10)[:15])
	var poolErr *domain.InsufficientPoolError
	if !errors.As(err, &poolErr) {
		t.Fatalf("expected insufficient pool error, got %v", err)
	}
	if poolErr.Available != 15 || poolErr.Required != 20 {
		t.Fatalf("expected 15/20, got %d/%d", poolErr.Available, poolErr.Required)
	}
}

func TestSelectQuizQuestionsCountsUniqueIDs(t *testing.T) {
	selector := app.NewSelector(rand.New(rand.NewSource(1)), app.FixedClock(0))
	pool := domaintest.Pool(4)                 // 16 unique
	pool = append(pool, domaintest.Pool(2)...) // 8 repeats

	_, err := selector.SelectQuizQuestions(pool)
	var poolErr *domain.InsufficientPoolError
	if !errors.As(err, &poolErr) || poolErr.Available != 16 {
		t.Fatalf("expected 16 unique questions available, got %v", err)
	}
}

func TestSelectQuizQuestionsToleratesEmptyCategory(t *testing.T) {
	selector := app.NewSelector(rand.New(rand.NewSource(3)), app.FixedClock(0))

	questions, err := selector.SelectQuizQuestions(domaintest.PoolOf(domain.CategoryEthics, 25))
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(questions) != domain.QuizSize {
		t.Fatalf("expected full quiz, got %d", len(questions))
	}
}

func TestSelectQuizQuestionsIsDeterministicPerSeed(t *testing.T) {
	pool := domaintest.Pool(10)
	a, _ := app.NewSelector(rand.New(rand.NewSource(42)), app.FixedClock(0)).SelectQuizQuestions(pool)
	b, _ := app.NewSelector(rand.New(rand.NewSource(42)), app.FixedClock(0)).SelectQuizQuestions(pool)
	c, _ := app.NewSelector(rand.New(rand.NewSource(43)), app.FixedClock(0)).SelectQuizQuestions(pool)

	if ids(a) != ids(b) {
		t.Fatalf("same seed gave different quizzes:\n%s\n%s", ids(a), ids(b))
	}
	if ids(a) == ids(c) {
		t.Fatalf("different seeds gave the same quiz")
	}
}

func TestSelectQuizQuestionsDoesNotMutatePool(t *testing.T) {
	pool := domaintest.Pool(10)
	before := ids(pool)
	selector := app.NewSelector(rand.New(rand.NewSource(5)), app.FixedClock(0))
	if _, err := selector.SelectQuizQuestions(pool); err != nil {
		t.Fatalf("select: %v", err)
	}
	if ids(pool) != before {
		t.Fatalf("pool order changed")
	}
}

func TestInitializeSession(t *testing.T) {
	clock := newClock()
	session := newSession(t, clock)

	if !strings.HasPrefix(session.ID, "session_1700000000000_") {
		t.Fatalf("unexpected session id %q", session.ID)
	}
	if session.CurrentQuestionIndex != 0 || session.IsComplete || session.EndTime != nil {
		t.Fatalf("unexpected initial state %+v", session)
	}
	if session.Answers == nil || len(session.Answers) != 0 {
		t.Fatalf("expected empty non-nil answers")
	}
	if session.StartTime != clock.now {
		t.Fatalf("expected start time %d, got %d", clock.now, session.StartTime)
	}

	other := newSession(t, clock)
	if other.ID == session.ID {
		t.Fatalf("expected distinct session ids")
	}
}

func ids(questions []domain.Question) string {
	out := make([]string, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.ID)
	}
	return strings.Join(out, ",")
}
