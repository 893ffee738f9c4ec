package session

import (
	"context"
	"sync"

	apperrors "github.com/linguadesk/quiz-session-service/internal/errors"
	"github.com/linguadesk/quiz-session-service/internal/events"
	"github.com/linguadesk/quiz-session-service/internal/loader"
	"github.com/linguadesk/quiz-session-service/internal/media"
	"github.com/linguadesk/quiz-session-service/internal/store"
	"github.com/linguadesk/quiz-session-service/internal/submit"
	"github.com/linguadesk/quiz-session-service/internal/utils"
)

// QuizService is the full remote surface a session needs: page fetches
// and submissions. *client.QuizAPI satisfies it.
type QuizService interface {
	loader.PageFetcher
	submit.Submitter
}

// Dependencies carries everything a Manager needs to assemble sessions.
type Dependencies struct {
	API        QuizService
	Store      store.AnswerStore
	Device     media.Device
	Encoder    media.Encoder
	Recognizer media.Recognizer
	Notifier   events.ProgressPublisher
	Logger     utils.Logger
}

// Manager is the registry of live sessions, one per quiz id. Opening a
// quiz that already has a session returns the existing one.
type Manager struct {
	deps Dependencies

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(deps Dependencies) *Manager {
	return &Manager{
		deps:     deps,
		sessions: make(map[string]*Session),
	}
}

// Open returns the live session for a quiz, creating and loading it if
// needed. A fatal load failure discards the new session; recoverable
// failures keep it registered so the learner can retry.
func (m *Manager) Open(ctx context.Context, quizID, sectionID string) (*Session, error) {
	m.mu.Lock()
	if existing, ok := m.sessions[quizID]; ok {
		m.mu.Unlock()
		return existing, nil
	}

	sess := newSession(
		quizID,
		sectionID,
		loader.New(m.deps.API, loader.StaticSection(sectionID), m.deps.Logger),
		m.deps.Store,
		submit.NewPipeline(m.deps.API, m.deps.Logger),
		media.NewPipeline(m.deps.Device, m.deps.Encoder, m.deps.Recognizer, m.deps.Logger),
		m.deps.Notifier,
		m.deps.Logger,
	)
	m.sessions[quizID] = sess
	m.mu.Unlock()

	if err := sess.Open(ctx); err != nil {
		if apperrors.IsFatalToRequest(err) {
			m.mu.Lock()
			delete(m.sessions, quizID)
			m.mu.Unlock()
		}
		return sess, err
	}
	return sess, nil
}

// Get returns the live session for a quiz id.
func (m *Manager) Get(quizID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[quizID]; ok {
		return sess, nil
	}
	return nil, apperrors.ErrSessionNotFound
}

// Close discards the live session for a quiz id, if any. Cached answers
// stay in the durable store.
func (m *Manager) Close(quizID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, quizID)
}
