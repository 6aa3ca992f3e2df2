package memory

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"timed-quiz/internal/domain"
)

// QuestionLoader fetches a question pool from a backing store (files, Postgres).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, source string) ([]domain.Question, error)
}

// QuestionRepository keeps checked question pools per source for a TTL.
// Pools are validated and de-duplicated once, when they enter the cache, so
// every caller sees the same clean pool.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	group  singleflight.Group

	mu    sync.Mutex
	rnd   *rand.Rand
	pools map[string]sourcePool
}

type sourcePool struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		pools:  make(map[string]sourcePool),
	}
}

// LoadQuestions returns the pool for source. A pool with an invalid question
// is rejected as a whole and nothing is cached.
func (r *QuestionRepository) LoadQuestions(ctx context.Context, source string) ([]domain.Question, error) {
	if questions, ok := r.lookup(source); ok {
		return questions, nil
	}
	v, err, _ := r.group.Do(source, func() (interface{}, error) {
		if questions, ok := r.lookup(source); ok {
			return questions, nil
		}
		return r.fill(ctx, source)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Question), nil
}

// Invalidate forgets the cached pool for source, so the next load hits the loader.
func (r *QuestionRepository) Invalidate(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pools, source)
}

func (r *QuestionRepository) lookup(source string) ([]domain.Question, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pool, ok := r.pools[source]
	if !ok || !r.clock().Before(pool.expiresAt) {
		return nil, false
	}
	return pool.questions, true
}

func (r *QuestionRepository) fill(ctx context.Context, source string) ([]domain.Question, error) {
	loaded, err := r.loader.LoadQuestions(ctx, source)
	if err != nil {
		return nil, err
	}
	questions, err := domain.CheckPool(loaded)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", source, err)
	}
	dropped := len(loaded) - len(questions)
	if dropped > 0 {
		log.Printf("question pool %s: dropped %d duplicate ids", source, dropped)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pools[source] = sourcePool{
		questions: questions,
		expiresAt: r.clock().Add(r.jitteredTTL()),
	}
	return questions, nil
}

// jitteredTTL spreads expirations by up to 10%. Callers hold r.mu.
func (r *QuestionRepository) jitteredTTL() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	return r.ttl + time.Duration(r.rnd.Int63n(int64(r.ttl)/10+1))
}

// StaticQuestionLoader serves fixed pools from memory, for tests and demos.
type StaticQuestionLoader struct {
	pools map[string][]domain.Question
}

func NewStaticQuestionLoader(pools map[string][]domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{pools: pools}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context, source string) ([]domain.Question, error) {
	pool, ok := l.pools[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, source)
	}
	return pool, nil
}
