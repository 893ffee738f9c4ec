// Package loader fetches one page of questions at a time from the
// remote question source and merges the attempt metadata that rides
// along with it.
package loader

import (
	"context"

	"github.com/linguadesk/quiz-session-service/internal/client"
	apperrors "github.com/linguadesk/quiz-session-service/internal/errors"
	"github.com/linguadesk/quiz-session-service/internal/models"
	"github.com/linguadesk/quiz-session-service/internal/utils"
)

// SectionResolver supplies the active content/section context. A page
// load without one is fatal to that request.
type SectionResolver interface {
	ActiveSection() (string, bool)
}

// StaticSection resolves to a fixed section id, supplied when the
// session is opened.
type StaticSection string

func (s StaticSection) ActiveSection() (string, bool) {
	return string(s), s != ""
}

// PageFetcher is the slice of the quiz API the loader needs.
type PageFetcher interface {
	FetchPage(ctx context.Context, sectionID string, page int) (*client.PageResponse, error)
}

// PageResult is one loaded page plus its attempt metadata.
type PageResult struct {
	SectionID  string
	Questions  []models.Question
	Pagination models.PaginationState
	Attempt    models.AttemptMetadata
}

type Loader struct {
	api      PageFetcher
	sections SectionResolver
	logger   utils.Logger
}

func New(api PageFetcher, sections SectionResolver, logger utils.Logger) *Loader {
	return &Loader{
		api:      api,
		sections: sections,
		logger:   logger,
	}
}

// LoadPage fetches the given page for a quiz. Fails with
// ErrNoActiveSection when no section context is resolvable; transport
// and protocol failures pass through for learner-initiated retry.
func (l *Loader) LoadPage(ctx context.Context, quizID string, page int) (*PageResult, error) {
	sectionID, ok := l.sections.ActiveSection()
	if !ok {
		l.logger.Warn("Page load without an active section", "quiz_id", quizID, "page", page)
		return nil, apperrors.ErrNoActiveSection
	}

	resp, err := l.api.FetchPage(ctx, sectionID, page)
	if err != nil {
		l.logger.LogError(err, "Failed to load quiz page",
			"quiz_id", quizID,
			"section_id", sectionID,
			"page", page)
		return nil, err
	}

	l.logger.Debug("Loaded quiz page",
		"quiz_id", quizID,
		"page", page,
		"questions", len(resp.Questions),
		"total_questions", resp.Pagination.TotalQuestions)

	return &PageResult{
		SectionID:  sectionID,
		Questions:  resp.Questions,
		Pagination: resp.Pagination,
		Attempt: models.AttemptMetadata{
			QuizCompleted: resp.QuizCompleted,
			MaxRetakes:    resp.MaxRetakes,
			AttemptCount:  resp.AttemptCount,
			CanRetake:     resp.CanRetake,
			LastAttempt:   resp.LastAttempt,
		},
	}, nil
}
