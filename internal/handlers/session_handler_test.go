package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguadesk/quiz-session-service/internal/client"
	apperrors "github.com/linguadesk/quiz-session-service/internal/errors"
	"github.com/linguadesk/quiz-session-service/internal/media"
	"github.com/linguadesk/quiz-session-service/internal/models"
	"github.com/linguadesk/quiz-session-service/internal/session"
	"github.com/linguadesk/quiz-session-service/internal/store"
	"github.com/linguadesk/quiz-session-service/internal/utils"
	"github.com/linguadesk/quiz-session-service/internal/validator"
)

type stubAPI struct {
	pages      map[int]*client.PageResponse
	submitResp *client.SubmitResponse
	submitErr  error
}

func (s *stubAPI) FetchPage(ctx context.Context, sectionID string, page int) (*client.PageResponse, error) {
	resp, ok := s.pages[page]
	if !ok {
		return nil, apperrors.NewTransportError("fetch quiz page", 404, nil)
	}
	return resp, nil
}

func (s *stubAPI) SubmitQuiz(ctx context.Context, req *client.SubmitRequest) (*client.SubmitResponse, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return s.submitResp, nil
}

type stubDevice struct{ err error }

func (d *stubDevice) Acquire(ctx context.Context, c media.Constraints) (media.Stream, error) {
	if d.err != nil {
		return nil, d.err
	}
	return &stubStream{}, nil
}

type stubStream struct{}

func (s *stubStream) Capture(ctx context.Context, d time.Duration) ([]byte, error) {
	return []byte{1, 2, 3, 4}, nil
}
func (s *stubStream) SampleRate() int { return 16000 }
func (s *stubStream) Close() error    { return nil }

func newTestRouter(api *stubAPI, device media.Device) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := utils.NewDevelopmentLogger()

	manager := session.NewManager(session.Dependencies{
		API:        api,
		Store:      store.NewMemoryStore(),
		Device:     device,
		Encoder:    media.WAVEncoder{},
		Recognizer: media.UnavailableRecognizer{},
		Logger:     logger,
	})

	router := gin.New()
	NewHandlerManager(manager, validator.New(), logger).SetupRoutes(router)
	return router
}

func perform(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func openSession(t *testing.T, router *gin.Engine, quizID string) {
	t.Helper()
	rec := perform(t, router, http.MethodPost, "/api/v1/sessions", OpenSessionRequest{
		QuizID:    quizID,
		SectionID: "sec-1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func twoQuestionAPI() *stubAPI {
	return &stubAPI{
		pages: map[int]*client.PageResponse{
			1: {
				Questions: []models.Question{
					{ID: "q1", Type: models.FillBlank, Points: 1},
					{ID: "q2", Type: models.TrueFalse, Points: 1},
				},
				Pagination: models.PaginationState{CurrentPage: 1, TotalQuestions: 2, TotalPages: 1},
				MaxRetakes: 2,
			},
		},
		submitResp: &client.SubmitResponse{
			Success:       true,
			Score:         2,
			TotalPoints:   2,
			AttemptNumber: 1,
			MaxRetakes:    2,
			AttemptCount:  1,
			CanRetake:     true,
		},
	}
}

func TestOpenSession_ReturnsView(t *testing.T) {
	router := newTestRouter(twoQuestionAPI(), &stubDevice{})

	rec := perform(t, router, http.MethodPost, "/api/v1/sessions", OpenSessionRequest{
		QuizID:    "quiz-1",
		SectionID: "sec-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var view session.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "quiz-1", view.QuizID)
	assert.Equal(t, session.PhaseAnswering, view.Phase)
	assert.Len(t, view.Questions, 2)
}

func TestOpenSession_MissingQuizIDFailsValidation(t *testing.T) {
	router := newTestRouter(twoQuestionAPI(), &stubDevice{})

	rec := perform(t, router, http.MethodPost, "/api/v1/sessions", OpenSessionRequest{SectionID: "sec-1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestOpenSession_NoActiveSection(t *testing.T) {
	router := newTestRouter(twoQuestionAPI(), &stubDevice{})

	rec := perform(t, router, http.MethodPost, "/api/v1/sessions", OpenSessionRequest{QuizID: "quiz-1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "no_active_section", resp.Code)
}

func TestSaveAnswer_UnknownSession(t *testing.T) {
	router := newTestRouter(twoQuestionAPI(), &stubDevice{})

	rec := perform(t, router, http.MethodPut, "/api/v1/sessions/nope/answers", AnswerRequest{
		QuestionID: "q1",
		Text:       "x",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitFlow(t *testing.T) {
	router := newTestRouter(twoQuestionAPI(), &stubDevice{})
	openSession(t, router, "quiz-1")

	rec := perform(t, router, http.MethodPut, "/api/v1/sessions/quiz-1/answers", AnswerRequest{
		QuestionID: "q1",
		Text:       "first",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// One of two answered: the completeness gate refuses with 422.
	rec = perform(t, router, http.MethodPost, "/api/v1/sessions/quiz-1/submit", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "incomplete_submission", errResp.Code)
	assert.Equal(t, "1 out of 2 questions answered", errResp.Message)

	rec = perform(t, router, http.MethodPut, "/api/v1/sessions/quiz-1/answers", AnswerRequest{
		QuestionID: "q2",
		Text:       "true",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = perform(t, router, http.MethodPost, "/api/v1/sessions/quiz-1/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		Outcome string       `json:"outcome"`
		View    session.View `json:"view"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "scored", result.Outcome)
	assert.Equal(t, session.PhaseReview, result.View.Phase)
	require.NotNil(t, result.View.Attempt)
	assert.Equal(t, 2.0, result.View.Attempt.Score)
}

func TestSubmit_UpstreamFailureIsBadGateway(t *testing.T) {
	api := twoQuestionAPI()
	api.submitErr = apperrors.NewTransportError("submit quiz", 503, nil)
	router := newTestRouter(api, &stubDevice{})
	openSession(t, router, "quiz-1")

	for _, q := range []string{"q1", "q2"} {
		rec := perform(t, router, http.MethodPut, "/api/v1/sessions/quiz-1/answers", AnswerRequest{
			QuestionID: q,
			Text:       "x",
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := perform(t, router, http.MethodPost, "/api/v1/sessions/quiz-1/submit", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRetake_AfterScoredSubmit(t *testing.T) {
	router := newTestRouter(twoQuestionAPI(), &stubDevice{})
	openSession(t, router, "quiz-1")

	for _, q := range []string{"q1", "q2"} {
		rec := perform(t, router, http.MethodPut, "/api/v1/sessions/quiz-1/answers", AnswerRequest{
			QuestionID: q,
			Text:       "x",
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := perform(t, router, http.MethodPost, "/api/v1/sessions/quiz-1/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = perform(t, router, http.MethodPost, "/api/v1/sessions/quiz-1/retake", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view session.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, session.PhaseAnswering, view.Phase)
	assert.Empty(t, view.Answers)
	assert.Zero(t, view.Progress.Answered)
}

func TestRecordAudio_PermissionDenied(t *testing.T) {
	api := &stubAPI{
		pages: map[int]*client.PageResponse{
			1: {
				Questions: []models.Question{
					{ID: "a1", Type: models.AudioPronunciation, Points: 1},
				},
				Pagination: models.PaginationState{CurrentPage: 1, TotalQuestions: 1, TotalPages: 1},
			},
		},
	}
	router := newTestRouter(api, &stubDevice{err: apperrors.ErrMediaPermissionDenied})
	openSession(t, router, "quiz-1")

	rec := perform(t, router, http.MethodPost, "/api/v1/sessions/quiz-1/media", RecordAudioRequest{QuestionID: "a1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "media_capture_failed", resp.Code)
	assert.Contains(t, resp.Remediation, "Allow microphone access")
}

func TestHealth(t *testing.T) {
	router := newTestRouter(twoQuestionAPI(), &stubDevice{})
	rec := perform(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
