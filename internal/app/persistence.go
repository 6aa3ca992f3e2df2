package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"timed-quiz/internal/domain"
)

// DefaultStorageKey is the key the envelope is written under when none is configured.
const DefaultStorageKey = "quiz-state"

// maxCompletedResults bounds the result history kept next to the current session.
const maxCompletedResults = 10

// KeyValueStore is the durable string store persistence is built on.
// Get reports absence with ok=false and a nil error. Implementations return
// domain.ErrQuotaExceeded when a value does not fit and
// domain.ErrStorageUnavailable when the backend cannot be used at all.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Persistence saves and restores quiz state under a single key.
type Persistence struct {
	store KeyValueStore
	key   string
	clock Clock
}

func NewPersistence(store KeyValueStore, key string, clock Clock) *Persistence {
	if key == "" {
		key = DefaultStorageKey
	}
	if clock == nil {
		clock = SystemClock
	}
	return &Persistence{store: store, key: key, clock: clock}
}

// Key returns the storage key this Persistence writes to.
func (p *Persistence) Key() string {
	return p.key
}

// Save stores s as the current session, keeping any archived results.
// A session the loader would reject is not written.
func (p *Persistence) Save(ctx context.Context, s domain.Session) error {
	session := s
	if session.Answers == nil {
		session.Answers = []domain.Answer{}
	}
	completed, err := p.history(ctx)
	if err != nil {
		log.Printf("persistence: history of %s unreadable, saving without it: %v", p.key, err)
	}
	return p.write(ctx, domain.StoredState{
		Version:           domain.SchemaVersion,
		CurrentSession:    &session,
		CompletedSessions: completed,
		LastUpdated:       p.clock(),
	})
}

// ArchiveResult appends r to the result history and drops the current session.
func (p *Persistence) ArchiveResult(ctx context.Context, r domain.Result) error {
	if r.DomainPerformance == nil {
		r.DomainPerformance = []domain.CategoryResult{}
	}
	completed, err := p.history(ctx)
	if err != nil {
		log.Printf("persistence: history of %s unreadable, archiving %s alone: %v", p.key, r.SessionID, err)
	}
	completed = append(completed, r)
	if len(completed) > maxCompletedResults {
		completed = completed[len(completed)-maxCompletedResults:]
	}
	return p.write(ctx, domain.StoredState{
		Version:           domain.SchemaVersion,
		CompletedSessions: completed,
		LastUpdated:       p.clock(),
	})
}

// Load returns the stored state. Missing, unreadable or invalid state yields
// ok=false; invalid state is removed so it is not seen again.
func (p *Persistence) Load(ctx context.Context) (domain.StoredState, bool) {
	state, ok, err := p.load(ctx)
	if err != nil {
		log.Printf("persistence: read %s: %v", p.key, err)
	}
	return state, ok
}

// load reports read failures as errors; invalid data is not an error.
func (p *Persistence) load(ctx context.Context) (domain.StoredState, bool, error) {
	raw, ok, err := p.store.Get(ctx, p.key)
	if err != nil {
		return domain.StoredState{}, false, err
	}
	if !ok {
		return domain.StoredState{}, false, nil
	}
	state, err := DecodeStoredState(raw)
	if err != nil {
		log.Printf("persistence: discarding stored state %s: %v", p.key, err)
		if err := p.store.Remove(ctx, p.key); err != nil {
			log.Printf("persistence: remove %s: %v", p.key, err)
		}
		return domain.StoredState{}, false, nil
	}
	return state, true, nil
}

// History returns the archived results, or an empty slice.
func (p *Persistence) History(ctx context.Context) []domain.Result {
	completed, err := p.history(ctx)
	if err != nil {
		log.Printf("persistence: read %s: %v", p.key, err)
	}
	return completed
}

func (p *Persistence) history(ctx context.Context) ([]domain.Result, error) {
	state, ok, err := p.load(ctx)
	if !ok || len(state.CompletedSessions) == 0 {
		return []domain.Result{}, err
	}
	return state.CompletedSessions, nil
}

// Clear removes the stored state. Nothing stored is not an error.
func (p *Persistence) Clear(ctx context.Context) error {
	err := p.store.Remove(ctx, p.key)
	if errors.Is(err, domain.ErrStorageUnavailable) {
		log.Printf("persistence: clear skipped: %v", err)
		return nil
	}
	return err
}

// HasSaved reports whether a value exists under the key, without decoding it.
func (p *Persistence) HasSaved(ctx context.Context) bool {
	_, ok, err := p.store.Get(ctx, p.key)
	return err == nil && ok
}

func (p *Persistence) write(ctx context.Context, state domain.StoredState) error {
	err := p.put(ctx, state)
	if errors.Is(err, domain.ErrQuotaExceeded) {
		log.Printf("persistence: quota exceeded for %s, dropping %d completed results", p.key, len(state.CompletedSessions))
		state.CompletedSessions = []domain.Result{}
		err = p.put(ctx, state)
	}
	if errors.Is(err, domain.ErrStorageUnavailable) {
		log.Printf("persistence: save skipped: %v", err)
		return nil
	}
	return err
}

func (p *Persistence) put(ctx context.Context, state domain.StoredState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if _, err := DecodeStoredState(string(data)); err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := p.store.Set(ctx, p.key, string(data)); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}
