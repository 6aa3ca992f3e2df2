package app

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"timed-quiz/internal/domain"
)

// QuestionProvider loads the question pool for a source (a locale or bank name).
type QuestionProvider interface {
	LoadQuestions(ctx context.Context, source string) ([]domain.Question, error)
}

// QuizService contains the quiz use cases for one user at a time. Session values
// are owned by the caller; the service persists every transition it applies.
type QuizService struct {
	questions QuestionProvider
	store     KeyValueStore
	keyPrefix string
	clock     Clock

	selector *Selector
	machine  *StateMachine
	scorer   *Scorer
}

func NewQuizService(questions QuestionProvider, store KeyValueStore, keyPrefix string) *QuizService {
	return NewQuizServiceWithClock(questions, store, keyPrefix, SystemClock, nil)
}

// NewQuizServiceWithClock is for deterministic timestamps and selection in tests.
func NewQuizServiceWithClock(questions QuestionProvider, store KeyValueStore, keyPrefix string, clock Clock, rnd *rand.Rand) *QuizService {
	if keyPrefix == "" {
		keyPrefix = DefaultStorageKey
	}
	return &QuizService{
		questions: questions,
		store:     store,
		keyPrefix: keyPrefix,
		clock:     clock,
		selector:  NewSelector(rnd, clock),
		machine:   NewStateMachine(clock),
		scorer:    NewScorer(clock),
	}
}

// Persistence returns the persistence bound to userID's storage key.
func (s *QuizService) Persistence(userID string) *Persistence {
	return NewPersistence(s.store, s.keyPrefix+":"+userID, s.clock)
}

// Resume returns the saved in-progress session for userID, if any.
func (s *QuizService) Resume(ctx context.Context, userID string) (domain.Session, bool) {
	state, ok := s.Persistence(userID).Load(ctx)
	if !ok || state.CurrentSession == nil {
		return domain.Session{}, false
	}
	return *state.CurrentSession, true
}

// Start selects a new quiz from source and saves it as the current session.
// Provider failures are returned as is; there is no fallback pool.
func (s *QuizService) Start(ctx context.Context, userID, source string) (domain.Session, error) {
	pool, err := s.questions.LoadQuestions(ctx, source)
	if err != nil {
		return domain.Session{}, fmt.Errorf("load questions: %w", err)
	}
	session, err := s.selector.InitializeSession(pool)
	if err != nil {
		return domain.Session{}, err
	}
	s.save(ctx, userID, session)
	return session, nil
}

// Answer records the answer and returns the new session with the stored answer.
func (s *QuizService) Answer(ctx context.Context, userID string, session domain.Session, questionID, choiceID string) (domain.Session, domain.Answer, error) {
	next, err := s.machine.RecordAnswer(session, questionID, choiceID)
	if err != nil {
		return session, domain.Answer{}, err
	}
	s.save(ctx, userID, next)
	return next, next.Answers[len(next.Answers)-1], nil
}

// Next moves the cursor forward.
func (s *QuizService) Next(ctx context.Context, userID string, session domain.Session) domain.Session {
	next := s.machine.MoveToNextQuestion(session)
	s.save(ctx, userID, next)
	return next
}

// CurrentQuestion returns the question under the session cursor.
func (s *QuizService) CurrentQuestion(session domain.Session) (domain.Question, bool) {
	return s.machine.CurrentQuestion(session)
}

// Finish finalizes the session, scores it and moves the result into history.
// The current session is removed from storage once the result exists.
func (s *QuizService) Finish(ctx context.Context, userID string, session domain.Session) (domain.Session, domain.Result) {
	done := s.machine.Complete(session)
	result := s.scorer.CalculateResult(done)
	if err := s.Persistence(userID).ArchiveResult(ctx, result); err != nil {
		log.Printf("archive result %s for %s: %v", result.SessionID, userID, err)
	}
	return done, result
}

// Abandon drops every stored value for userID.
func (s *QuizService) Abandon(ctx context.Context, userID string) error {
	return s.Persistence(userID).Clear(ctx)
}

// History returns the archived results for userID.
func (s *QuizService) History(ctx context.Context, userID string) []domain.Result {
	return s.Persistence(userID).History(ctx)
}

// Elapsed returns whole seconds since the session started, up to its end time.
func (s *QuizService) Elapsed(session domain.Session) int {
	if session.EndTime != nil {
		return ElapsedSeconds(session.StartTime, *session.EndTime)
	}
	return ElapsedSeconds(session.StartTime, s.clock())
}

// save keeps the in-memory session authoritative when storage fails.
func (s *QuizService) save(ctx context.Context, userID string, session domain.Session) {
	if err := s.Persistence(userID).Save(ctx, session); err != nil {
		log.Printf("save session %s for %s: %v", session.ID, userID, err)
	}
}
