package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"timed-quiz/internal/domain"
)

// QuestionLoader fetches a question pool from a backing store (files, Postgres).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, source string) ([]domain.Question, error)
}

// QuestionRepository caches question pools in Redis and falls back to a loader on cache miss.
// Pools are stored as JSON: SET quiz:questions:{source} [...]
type QuestionRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) LoadQuestions(ctx context.Context, source string) ([]domain.Question, error) {
	if questions, ok := r.cached(ctx, source); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(source, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := r.cached(ctx, source); ok {
			return questions, nil
		}

		loaded, err := r.loader.LoadQuestions(ctx, source)
		if err != nil {
			return nil, err
		}
		questions, err := domain.CheckPool(loaded)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", source, err)
		}

		data, err := json.Marshal(questions)
		if err != nil {
			return nil, err
		}
		// a cache write failure only costs a reload later
		if err := r.client.Set(ctx, r.key(source), data, r.ttlWithJitter()).Err(); err != nil {
			log.Printf("cache questions %s: %v", source, err)
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) cached(ctx context.Context, source string) ([]domain.Question, bool) {
	raw, err := r.client.Get(ctx, r.key(source)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("read cached questions %s: %v", source, err)
		}
		return nil, false
	}
	var decoded []domain.Question
	if err := json.Unmarshal(raw, &decoded); err != nil {
		r.drop(ctx, source, err)
		return nil, false
	}
	questions, err := domain.CheckPool(decoded)
	if err != nil {
		r.drop(ctx, source, err)
		return nil, false
	}
	return questions, true
}

// drop removes a cache entry that cannot be served.
func (r *QuestionRepository) drop(ctx context.Context, source string, reason error) {
	log.Printf("drop cached questions %s: %v", source, reason)
	if err := r.client.Del(ctx, r.key(source)).Err(); err != nil {
		log.Printf("delete cached questions %s: %v", source, err)
	}
}

func (r *QuestionRepository) key(source string) string {
	return "quiz:questions:" + source
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
