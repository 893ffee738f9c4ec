// Package client implements the request/response contracts of the
// remote question and grading service. The service's internals are out
// of scope; only the wire boundary lives here.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apperrors "github.com/linguadesk/quiz-session-service/internal/errors"
	"github.com/linguadesk/quiz-session-service/internal/models"
)

const defaultTimeout = 15 * time.Second

// PageResponse mirrors GET /quiz?section_id={id}&page={n}.
type PageResponse struct {
	Questions     []models.Question      `json:"questions"`
	Pagination    models.PaginationState `json:"pagination"`
	QuizCompleted bool                   `json:"quiz_completed"`
	MaxRetakes    int                    `json:"max_retakes"`
	AttemptCount  int                    `json:"attempt_count"`
	CanRetake     bool                   `json:"can_retake"`
	LastAttempt   *models.AttemptSummary `json:"last_attempt,omitempty"`
}

// SubmitRequest mirrors POST /submit-quiz.
type SubmitRequest struct {
	QuizID  string                 `json:"quiz_id"`
	Answers map[string]interface{} `json:"answers"`
}

// SubmitResponse mirrors the grading service's submit reply.
// Success=false is a business-rule rejection, not a transport failure.
type SubmitResponse struct {
	Success          bool                    `json:"success"`
	Score            float64                 `json:"score,omitempty"`
	TotalPoints      float64                 `json:"total_points,omitempty"`
	Questions        []models.QuestionResult `json:"questions,omitempty"`
	AttemptNumber    int                     `json:"attempt_number,omitempty"`
	MaxRetakes       int                     `json:"max_retakes,omitempty"`
	AttemptCount     int                     `json:"attempt_count,omitempty"`
	CanRetake        bool                    `json:"can_retake,omitempty"`
	Message          string                  `json:"message,omitempty"`
	RetakesExhausted bool                    `json:"retakes_exhausted,omitempty"`
}

// QuizAPI is the HTTP client for the remote quiz service.
type QuizAPI struct {
	baseURL    string
	httpClient *http.Client
}

func NewQuizAPI(baseURL string) *QuizAPI {
	return &QuizAPI{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// NewQuizAPIWithClient allows injecting an http.Client (tests, custom transports).
func NewQuizAPIWithClient(baseURL string, httpClient *http.Client) *QuizAPI {
	return &QuizAPI{baseURL: baseURL, httpClient: httpClient}
}

// FetchPage loads one page of questions plus attempt metadata.
func (c *QuizAPI) FetchPage(ctx context.Context, sectionID string, page int) (*PageResponse, error) {
	const op = "fetch quiz page"

	query := url.Values{}
	query.Set("section_id", sectionID)
	query.Set("page", strconv.Itoa(page))
	reqURL := c.baseURL + "/quiz?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperrors.NewTransportError(op, 0, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewTransportError(op, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewTransportError(op, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var payload PageResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewProtocolError(op, err)
	}

	return &payload, nil
}

// SubmitQuiz posts the assembled answers for grading.
func (c *QuizAPI) SubmitQuiz(ctx context.Context, submission *SubmitRequest) (*SubmitResponse, error) {
	const op = "submit quiz"

	body, err := json.Marshal(submission)
	if err != nil {
		return nil, apperrors.NewProtocolError(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/submit-quiz", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewTransportError(op, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewTransportError(op, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewTransportError(op, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var payload SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewProtocolError(op, err)
	}

	return &payload, nil
}
