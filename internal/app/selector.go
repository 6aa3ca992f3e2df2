package app

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"
	"timed-quiz/internal/domain"
)

// Selector draws a balanced quiz from a question pool. It is safe for
// concurrent use; draws from rnd are serialized.
type Selector struct {
	clock Clock

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSelector builds a Selector. A nil rnd is seeded from the clock.
func NewSelector(rnd *rand.Rand, clock Clock) *Selector {
	if clock == nil {
		clock = SystemClock
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(clock()))
	}
	return &Selector{rnd: rnd, clock: clock}
}

// SelectQuizQuestions returns domain.QuizSize unique questions in random order.
// Every category with at least one question in the pool is represented.
func (s *Selector) SelectQuizQuestions(pool []domain.Question) ([]domain.Question, error) {
	unique := dedupeByID(pool)
	if len(unique) < domain.QuizSize {
		return nil, &domain.InsufficientPoolError{Available: len(unique), Required: domain.QuizSize}
	}

	byCategory := make(map[domain.Category][]int)
	for i, q := range unique {
		byCategory[q.Category] = append(byCategory[q.Category], i)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	picked := make(map[int]struct{}, domain.QuizSize)
	selected := make([]domain.Question, 0, domain.QuizSize)
	for _, category := range domain.Categories {
		candidates := byCategory[category]
		if len(candidates) == 0 {
			log.Printf("selector: no questions for category %s", category)
			continue
		}
		idx := candidates[s.rnd.Intn(len(candidates))]
		picked[idx] = struct{}{}
		selected = append(selected, unique[idx])
	}

	remaining := make([]int, 0, len(unique)-len(picked))
	for i := range unique {
		if _, ok := picked[i]; !ok {
			remaining = append(remaining, i)
		}
	}
	// partial Fisher-Yates: the first n slots become a sample without replacement
	need := domain.QuizSize - len(selected)
	for i := 0; i < need; i++ {
		j := i + s.rnd.Intn(len(remaining)-i)
		remaining[i], remaining[j] = remaining[j], remaining[i]
		selected = append(selected, unique[remaining[i]])
	}

	s.shuffle(selected)
	return selected, nil
}

// InitializeSession selects questions and opens a fresh session on them.
func (s *Selector) InitializeSession(pool []domain.Question) (domain.Session, error) {
	questions, err := s.SelectQuizQuestions(pool)
	if err != nil {
		return domain.Session{}, err
	}
	now := s.clock()
	return domain.Session{
		ID:                   newSessionID(now),
		Questions:            questions,
		CurrentQuestionIndex: 0,
		Answers:              []domain.Answer{},
		StartTime:            now,
		IsComplete:           false,
	}, nil
}

// shuffle must be called with s.mu held.
func (s *Selector) shuffle(questions []domain.Question) {
	for i := len(questions) - 1; i > 0; i-- {
		j := s.rnd.Intn(i + 1)
		questions[i], questions[j] = questions[j], questions[i]
	}
}

func dedupeByID(pool []domain.Question) []domain.Question {
	seen := make(map[string]struct{}, len(pool))
	out := make([]domain.Question, 0, len(pool))
	for _, q := range pool {
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out
}

func newSessionID(now int64) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("session_%d_%s", now, suffix)
}
