// Package submit assembles, validates and sends one quiz submission.
// At most one submission is in flight per pipeline; the guard is a
// boolean checked before any network work starts.
package submit

import (
	"context"

	"github.com/linguadesk/quiz-session-service/internal/client"
	"github.com/linguadesk/quiz-session-service/internal/completion"
	apperrors "github.com/linguadesk/quiz-session-service/internal/errors"
	"github.com/linguadesk/quiz-session-service/internal/models"
	"github.com/linguadesk/quiz-session-service/internal/utils"
)

// Submitter is the slice of the quiz API the pipeline needs.
type Submitter interface {
	SubmitQuiz(ctx context.Context, submission *client.SubmitRequest) (*client.SubmitResponse, error)
}

type OutcomeKind string

const (
	// OutcomeScored: the attempt was graded; the caller installs the
	// attempt record and clears the answer cache.
	OutcomeScored OutcomeKind = "scored"
	// OutcomeRejected: server-side business rule refused the submission;
	// the cache is kept and nothing is retried automatically.
	OutcomeRejected OutcomeKind = "rejected"
)

// Outcome is the result of a submission that reached the server.
type Outcome struct {
	Kind             OutcomeKind
	Attempt          *models.AttemptRecord
	Message          string
	RetakesExhausted bool
}

type Pipeline struct {
	api    Submitter
	logger utils.Logger

	inFlight chan struct{} // buffered size 1: the in-flight guard
}

func NewPipeline(api Submitter, logger utils.Logger) *Pipeline {
	return &Pipeline{
		api:      api,
		logger:   logger,
		inFlight: make(chan struct{}, 1),
	}
}

// Submit validates completeness and performs exactly one network
// attempt. Concurrent calls while one is pending fail fast with
// ErrSubmitInFlight; an incomplete answer set fails before any network
// call with *IncompleteError.
func (p *Pipeline) Submit(ctx context.Context, quizID string, questions []models.Question, pagination models.PaginationState, answers models.AnswerSet) (*Outcome, error) {
	select {
	case p.inFlight <- struct{}{}:
	default:
		return nil, apperrors.ErrSubmitInFlight
	}
	defer func() { <-p.inFlight }()

	progress := completion.Ratio(questions, pagination, answers)
	if !progress.Complete() {
		return nil, &apperrors.IncompleteError{Answered: progress.Answered, Total: progress.Total}
	}

	payload := BuildPayload(answers)
	p.logger.Info("Submitting quiz",
		"quiz_id", quizID,
		"answers_count", len(payload))

	resp, err := p.api.SubmitQuiz(ctx, &client.SubmitRequest{
		QuizID:  quizID,
		Answers: payload,
	})
	if err != nil {
		// Transport or protocol failure: the caller keeps the cache and
		// the learner may retry.
		p.logger.LogError(err, "Quiz submission failed", "quiz_id", quizID)
		return nil, err
	}

	if !resp.Success {
		p.logger.Warn("Quiz submission rejected",
			"quiz_id", quizID,
			"message", resp.Message,
			"retakes_exhausted", resp.RetakesExhausted)
		return &Outcome{
			Kind:             OutcomeRejected,
			Message:          resp.Message,
			RetakesExhausted: resp.RetakesExhausted,
		}, nil
	}

	attemptCount := resp.AttemptCount
	if attemptCount == 0 {
		attemptCount = resp.AttemptNumber
	}

	attempt := &models.AttemptRecord{
		AttemptNumber: resp.AttemptNumber,
		Score:         resp.Score,
		TotalPoints:   resp.TotalPoints,
		Results:       resp.Questions,
		MaxRetakes:    resp.MaxRetakes,
		AttemptCount:  attemptCount,
		CanRetake:     resp.CanRetake,
	}

	p.logger.Info("Quiz scored",
		"quiz_id", quizID,
		"score", attempt.Score,
		"total_points", attempt.TotalPoints,
		"attempt_number", attempt.AttemptNumber)

	return &Outcome{Kind: OutcomeScored, Attempt: attempt}, nil
}

// BuildPayload post-processes the cached answer set into the wire form:
// scalars as plain text, media answers as objects carrying the encoded
// clip plus recognition fields when present.
func BuildPayload(answers models.AnswerSet) map[string]interface{} {
	out := make(map[string]interface{}, len(answers))
	for key, value := range answers {
		switch value.Kind {
		case models.AnswerScalar:
			out[string(key)] = value.Text
		case models.AnswerMedia:
			if value.Media == nil {
				continue
			}
			entry := map[string]interface{}{
				"audio":     value.Media.EncodedClip,
				"mime_type": value.Media.MimeType,
			}
			if value.Media.RecognizedText != "" {
				entry["recognized_text"] = value.Media.RecognizedText
				entry["confidence"] = value.Media.Confidence
			}
			out[string(key)] = entry
		}
	}
	return out
}
