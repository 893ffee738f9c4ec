package store

import (
	"context"
	"sync"

	"github.com/linguadesk/quiz-session-service/internal/models"
)

// AnswerStore is the durable, per-quiz answer cache. It is best-effort:
// the active session keeps its own in-memory answer set and treats
// store failures as cache misses, never as lost answers.
type AnswerStore interface {
	// Get returns every cached answer for a quiz. A missing namespace
	// yields an empty set, not an error.
	Get(ctx context.Context, quizID string) (models.AnswerSet, error)

	// MergeAndPersist shallow-unions partial into the cached set, with
	// partial entries overwriting existing ones. Safe to call on every
	// answer change.
	MergeAndPersist(ctx context.Context, quizID string, partial models.AnswerSet) error

	// Clear drops the whole namespace for a quiz.
	Clear(ctx context.Context, quizID string) error
}

// Namespace returns the storage key prefix for one quiz's answers.
func Namespace(quizID string) string {
	return "quiz_" + quizID
}

// MemoryStore is the in-process AnswerStore used in tests and as the
// fallback backend.
type MemoryStore struct {
	mu     sync.RWMutex
	caches map[string]models.AnswerSet
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{caches: make(map[string]models.AnswerSet)}
}

func (s *MemoryStore) Get(ctx context.Context, quizID string) (models.AnswerSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cached, ok := s.caches[Namespace(quizID)]
	if !ok {
		return models.AnswerSet{}, nil
	}
	return cached.Clone(), nil
}

func (s *MemoryStore) MergeAndPersist(ctx context.Context, quizID string, partial models.AnswerSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns := Namespace(quizID)
	cached, ok := s.caches[ns]
	if !ok {
		cached = models.AnswerSet{}
		s.caches[ns] = cached
	}
	cached.Merge(partial)
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.caches, Namespace(quizID))
	return nil
}
