// Package session orchestrates one learner's lifecycle with one quiz:
// load, answer, navigate, submit, review and optionally retake. All
// state lives on the session object and changes only through its
// methods; nothing is inferred from presentation.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/linguadesk/quiz-session-service/internal/completion"
	apperrors "github.com/linguadesk/quiz-session-service/internal/errors"
	"github.com/linguadesk/quiz-session-service/internal/events"
	"github.com/linguadesk/quiz-session-service/internal/loader"
	"github.com/linguadesk/quiz-session-service/internal/media"
	"github.com/linguadesk/quiz-session-service/internal/models"
	"github.com/linguadesk/quiz-session-service/internal/retake"
	"github.com/linguadesk/quiz-session-service/internal/store"
	"github.com/linguadesk/quiz-session-service/internal/submit"
	"github.com/linguadesk/quiz-session-service/internal/utils"
)

type Phase string

const (
	PhaseLoading    Phase = "loading"
	PhaseAnswering  Phase = "answering"
	PhaseSubmitting Phase = "submitting"
	PhaseReview     Phase = "review"
	PhaseError      Phase = "error"
)

// ErrLoadSuperseded marks a page-load response that arrived after a
// newer navigation already took over. The response is dropped.
var ErrLoadSuperseded = errors.New("page load superseded by a newer navigation")

// View is the snapshot handed to the presentation layer.
type View struct {
	QuizID        string                 `json:"quiz_id"`
	SectionID     string                 `json:"section_id"`
	Phase         Phase                  `json:"phase"`
	Questions     []models.Question      `json:"questions"`
	Pagination    models.PaginationState `json:"pagination"`
	Answers       models.AnswerSet       `json:"answers"`
	Progress      completion.Progress    `json:"progress"`
	Attempt       *models.AttemptRecord  `json:"attempt,omitempty"`
	RetakeMessage string                 `json:"retake_message,omitempty"`
}

// Session is the controller for one quiz session. The in-memory answer
// set is authoritative while the session lives; the answer store is a
// best-effort durable cache behind it.
type Session struct {
	quizID    string
	sectionID string

	loader   *loader.Loader
	answers  store.AnswerStore
	pipeline *submit.Pipeline
	capture  *media.Pipeline
	notifier events.ProgressPublisher
	logger   utils.Logger

	mu         sync.Mutex
	phase      Phase
	questions  []models.Question
	pagination models.PaginationState
	memory     models.AnswerSet
	attempt    *models.AttemptRecord
	meta       models.AttemptMetadata
	loadSeq    uint64
}

func newSession(quizID, sectionID string, l *loader.Loader, answers store.AnswerStore, pipeline *submit.Pipeline, capture *media.Pipeline, notifier events.ProgressPublisher, logger utils.Logger) *Session {
	return &Session{
		quizID:    quizID,
		sectionID: sectionID,
		loader:    l,
		answers:   answers,
		pipeline:  pipeline,
		capture:   capture,
		notifier:  notifier,
		logger:    logger.With("quiz_id", quizID),
		phase:     PhaseLoading,
		memory:    models.AnswerSet{},
	}
}

// Open hydrates the session from the durable cache and loads page 1.
// A quiz the learner already completed short-circuits to review.
func (s *Session) Open(ctx context.Context) error {
	cached, err := s.answers.Get(ctx, s.quizID)
	if err != nil {
		// Best-effort cache: a broken store only costs answers from
		// prior visits, never the current session.
		s.logger.Warn("Failed to hydrate answer cache", "error", err)
	} else {
		s.mu.Lock()
		s.memory.Merge(cached)
		s.mu.Unlock()
	}

	return s.LoadPage(ctx, 1)
}

// LoadPage navigates to a page. The current page's answers are
// persisted before the load request goes out (write-before-read), and
// a monotonic sequence number drops responses that a faster navigation
// already superseded.
func (s *Session) LoadPage(ctx context.Context, page int) error {
	s.mu.Lock()
	if s.phase == PhaseSubmitting {
		s.mu.Unlock()
		return apperrors.ErrSubmitInFlight
	}
	s.persistLocked(ctx)
	s.phase = PhaseLoading
	s.loadSeq++
	seq := s.loadSeq
	s.mu.Unlock()

	result, err := s.loader.LoadPage(ctx, s.quizID, page)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.loadSeq {
		return ErrLoadSuperseded
	}

	if err != nil {
		s.phase = PhaseError
		return err
	}

	s.questions = result.Questions
	s.pagination = result.Pagination
	s.meta = result.Attempt

	if result.Attempt.QuizCompleted && s.attempt == nil {
		if la := result.Attempt.LastAttempt; la != nil {
			s.attempt = &models.AttemptRecord{
				AttemptNumber: la.AttemptNumber,
				Score:         la.Score,
				TotalPoints:   la.TotalPoints,
				MaxRetakes:    result.Attempt.MaxRetakes,
				AttemptCount:  result.Attempt.AttemptCount,
				CanRetake:     result.Attempt.CanRetake,
			}
		}
		s.phase = PhaseReview
		return nil
	}

	if s.attempt != nil && s.phase == PhaseReview {
		// Paging through a finished quiz stays in review.
		return nil
	}

	s.phase = PhaseAnswering
	return nil
}

// SetAnswer records one answer value. The key is only written when the
// question exists on the loaded page; composite questions take a
// sub-index per pair. Every change flows through the same durable-cache
// write, media answers included.
func (s *Session) SetAnswer(ctx context.Context, questionID string, subIndex *int, value models.AnswerValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseReview {
		return apperrors.ErrQuizCompleted
	}
	if s.phase != PhaseAnswering {
		return apperrors.ErrSessionNotFound
	}

	question, ok := s.findQuestionLocked(questionID)
	if !ok {
		return apperrors.ErrQuestionNotFound
	}

	var key models.AnswerKey
	if question.Type.IsComposite() {
		if subIndex == nil || *subIndex < 0 || *subIndex >= len(question.Pairs) {
			return apperrors.ErrQuestionNotFound
		}
		key = models.SubKeyFor(questionID, *subIndex)
	} else {
		key = models.KeyFor(questionID)
	}

	s.memory[key] = value

	if err := s.answers.MergeAndPersist(ctx, s.quizID, models.AnswerSet{key: value}); err != nil {
		// Silent best-effort: the in-memory set still carries the answer.
		s.logger.Warn("Failed to persist answer", "key", key, "error", err)
	}

	return nil
}

// RecordAudio runs the media capture pipeline for a pronunciation
// question and stores the result through the regular answer path.
func (s *Session) RecordAudio(ctx context.Context, questionID string) (*media.Result, error) {
	s.mu.Lock()
	question, ok := s.findQuestionLocked(questionID)
	phase := s.phase
	s.mu.Unlock()

	if phase == PhaseReview {
		return nil, apperrors.ErrQuizCompleted
	}
	if !ok {
		return nil, apperrors.ErrQuestionNotFound
	}
	if question.Type != models.AudioPronunciation {
		return nil, apperrors.ErrQuestionNotFound
	}

	result, err := s.capture.Capture(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.SetAnswer(ctx, questionID, nil, result.Value); err != nil {
		return nil, err
	}
	return result, nil
}

// Progress re-derives completion from the authoritative answer set.
func (s *Session) Progress() completion.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return completion.Ratio(s.questions, s.pagination, s.memory)
}

// Submit runs the submission pipeline. On a scored outcome the attempt
// record is installed, the cache cleared and a progress event published
// fire-and-forget; rejections and transport failures keep the cache.
func (s *Session) Submit(ctx context.Context) (*submit.Outcome, error) {
	s.mu.Lock()
	if s.phase == PhaseReview {
		s.mu.Unlock()
		return nil, apperrors.ErrQuizCompleted
	}
	questions := s.questions
	pagination := s.pagination
	answers := s.memory.Clone()
	s.phase = PhaseSubmitting
	s.mu.Unlock()

	outcome, err := s.pipeline.Submit(ctx, s.quizID, questions, pagination, answers)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		if !errors.Is(err, apperrors.ErrSubmitInFlight) {
			s.phase = PhaseAnswering
		}
		return nil, err
	}

	switch outcome.Kind {
	case submit.OutcomeScored:
		s.attempt = outcome.Attempt
		s.memory = models.AnswerSet{}
		s.phase = PhaseReview
		if err := s.answers.Clear(ctx, s.quizID); err != nil {
			s.logger.Warn("Failed to clear answer cache after scoring", "error", err)
		}
		s.publishProgress(outcome.Attempt)

	case submit.OutcomeRejected:
		// Keep everything; the learner decides what happens next.
		s.phase = PhaseAnswering
	}

	return outcome, nil
}

// Retake clears the cached answers and attempt state, then reloads from
// page 1 with fresh question data. Refused while a submission is in
// flight: the pending scored response must not land on the new attempt.
func (s *Session) Retake(ctx context.Context) error {
	s.mu.Lock()

	if s.phase == PhaseSubmitting {
		s.mu.Unlock()
		return apperrors.ErrSubmitInFlight
	}

	maxRetakes, attemptCount := s.retakeFiguresLocked()
	if !retake.CanRetake(maxRetakes, attemptCount) {
		s.mu.Unlock()
		return apperrors.ErrRetakeLimitReached
	}

	s.memory = models.AnswerSet{}
	s.attempt = nil
	s.meta = models.AttemptMetadata{}
	s.questions = nil
	s.phase = PhaseLoading

	if err := s.answers.Clear(ctx, s.quizID); err != nil {
		s.logger.Warn("Failed to clear answer cache for retake", "error", err)
	}
	s.mu.Unlock()

	s.logger.Info("Retaking quiz", "attempt_count", attemptCount)
	return s.LoadPage(ctx, 1)
}

// View snapshots the session for the presentation layer.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := View{
		QuizID:     s.quizID,
		SectionID:  s.sectionID,
		Phase:      s.phase,
		Questions:  s.questions,
		Pagination: s.pagination,
		Answers:    s.memory.Clone(),
		Progress:   completion.Ratio(s.questions, s.pagination, s.memory),
		Attempt:    s.attempt,
	}
	if s.phase == PhaseReview {
		maxRetakes, attemptCount := s.retakeFiguresLocked()
		view.RetakeMessage = retake.RemainingMessage(maxRetakes, attemptCount)
	}
	return view
}

func (s *Session) findQuestionLocked(questionID string) (models.Question, bool) {
	for _, q := range s.questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return models.Question{}, false
}

func (s *Session) retakeFiguresLocked() (maxRetakes, attemptCount int) {
	if s.attempt != nil {
		return s.attempt.MaxRetakes, s.attempt.AttemptCount
	}
	return s.meta.MaxRetakes, s.meta.AttemptCount
}

// persistLocked flushes the in-memory answers to the durable cache.
// Failures are logged and swallowed.
func (s *Session) persistLocked(ctx context.Context) {
	if len(s.memory) == 0 {
		return
	}
	if err := s.answers.MergeAndPersist(ctx, s.quizID, s.memory); err != nil {
		s.logger.Warn("Failed to persist answers before navigation", "error", err)
	}
}

// publishProgress notifies the course-progress consumers. Failures are
// logged and never affect the session.
func (s *Session) publishProgress(attempt *models.AttemptRecord) {
	if s.notifier == nil || attempt == nil {
		return
	}
	event := events.NewCourseProgressEvent(s.quizID, s.sectionID, attempt.AttemptNumber, attempt.Score, attempt.TotalPoints)
	go func() {
		if err := s.notifier.PublishProgress(context.Background(), event); err != nil {
			s.logger.Warn("Failed to publish progress event", "event_id", event.ID, "error", err)
		}
	}()
}
