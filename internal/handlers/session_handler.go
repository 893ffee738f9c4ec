package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/linguadesk/quiz-session-service/internal/models"
	"github.com/linguadesk/quiz-session-service/internal/session"
	"github.com/linguadesk/quiz-session-service/internal/utils"
	"github.com/linguadesk/quiz-session-service/internal/validator"
)

type SessionHandler struct {
	BaseHandler
	sessions  *session.Manager
	validator *validator.Validator
}

func NewSessionHandler(sessions *session.Manager, v *validator.Validator, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler: NewBaseHandler(logger),
		sessions:    sessions,
		validator:   v,
	}
}

// ===== REQUEST STRUCTURES =====

// OpenSessionRequest opens (or resumes) a quiz session.
type OpenSessionRequest struct {
	QuizID    string `json:"quiz_id" validate:"required"`
	SectionID string `json:"section_id"`
}

// AnswerRequest records one answer value. Scalar answers carry text;
// media answers carry the encoded clip object instead.
type AnswerRequest struct {
	QuestionID string              `json:"question_id" validate:"required"`
	SubIndex   *int                `json:"sub_index,omitempty"`
	Text       string              `json:"text,omitempty"`
	Media      *models.MediaAnswer `json:"media,omitempty"`
}

// RecordAudioRequest triggers a capture for a pronunciation question.
type RecordAudioRequest struct {
	QuestionID string `json:"question_id" validate:"required"`
}

// OpenSession opens a session for a quiz
// @Summary Open quiz session
// @Description Opens or resumes a quiz session, restoring cached answers
// @Tags sessions
// @Accept json
// @Produce json
// @Param session body OpenSessionRequest true "Session data"
// @Success 200 {object} session.View
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) OpenSession(c *gin.Context) {
	var req OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.handleSessionError(c, err)
		return
	}

	h.LogRequest(c, "Opening quiz session", "quiz_id", req.QuizID, "section_id", req.SectionID)

	sess, err := h.sessions.Open(c.Request.Context(), req.QuizID, req.SectionID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess.View())
}

// GetSession returns the current session view
// @Summary Get session view
// @Tags sessions
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Success 200 {object} session.View
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{quiz_id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	sess, err := h.sessions.Get(c.Param("quiz_id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

// LoadPage navigates the session to a question page
// @Summary Load question page
// @Description Persists current answers, then loads the requested page
// @Tags sessions
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Param page path int true "Page number"
// @Success 200 {object} session.View
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /sessions/{quiz_id}/page/{page} [get]
func (h *SessionHandler) LoadPage(c *gin.Context) {
	sess, err := h.sessions.Get(c.Param("quiz_id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	page, err := strconv.Atoi(c.Param("page"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid page number",
			Details: c.Param("page"),
		})
		return
	}

	if err := sess.LoadPage(c.Request.Context(), page); err != nil {
		h.handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

// SaveAnswer records one answer value
// @Summary Save answer
// @Description Records an answer for a question on the loaded page
// @Tags sessions
// @Accept json
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Param answer body AnswerRequest true "Answer data"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{quiz_id}/answers [put]
func (h *SessionHandler) SaveAnswer(c *gin.Context) {
	sess, err := h.sessions.Get(c.Param("quiz_id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.handleSessionError(c, err)
		return
	}

	value := models.ScalarAnswer(req.Text)
	if req.Media != nil {
		value = models.MediaAnswerValue(req.Media)
	}

	if err := sess.SetAnswer(c.Request.Context(), req.QuestionID, req.SubIndex, value); err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Answer saved",
		Data:    sess.Progress(),
	})
}

// GetProgress returns the completion ratio
// @Summary Get completion progress
// @Tags sessions
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Success 200 {object} completion.Progress
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{quiz_id}/progress [get]
func (h *SessionHandler) GetProgress(c *gin.Context) {
	sess, err := h.sessions.Get(c.Param("quiz_id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Progress())
}

// SubmitSession submits the quiz for grading
// @Summary Submit quiz
// @Description Validates completeness, submits for grading and returns the outcome
// @Tags sessions
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Success 200 {object} session.View
// @Failure 422 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /sessions/{quiz_id}/submit [post]
func (h *SessionHandler) SubmitSession(c *gin.Context) {
	sess, err := h.sessions.Get(c.Param("quiz_id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	h.LogRequest(c, "Submitting quiz", "quiz_id", c.Param("quiz_id"))

	outcome, err := sess.Submit(c.Request.Context())
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"outcome": outcome.Kind,
		"message": outcome.Message,
		"view":    sess.View(),
	})
}

// RetakeSession starts a fresh attempt
// @Summary Retake quiz
// @Description Clears cached answers and reloads the quiz from page 1
// @Tags sessions
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Success 200 {object} session.View
// @Failure 403 {object} ErrorResponse
// @Router /sessions/{quiz_id}/retake [post]
func (h *SessionHandler) RetakeSession(c *gin.Context) {
	sess, err := h.sessions.Get(c.Param("quiz_id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	h.LogRequest(c, "Retaking quiz", "quiz_id", c.Param("quiz_id"))

	if err := sess.Retake(c.Request.Context()); err != nil {
		h.handleSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

// RecordAudio captures a pronunciation answer
// @Summary Record pronunciation audio
// @Description Records a bounded clip for an audio question and stores it as the answer
// @Tags sessions
// @Accept json
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Param capture body RecordAudioRequest true "Capture data"
// @Success 200 {object} SuccessResponse
// @Failure 422 {object} ErrorResponse
// @Router /sessions/{quiz_id}/media [post]
func (h *SessionHandler) RecordAudio(c *gin.Context) {
	sess, err := h.sessions.Get(c.Param("quiz_id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	var req RecordAudioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.handleSessionError(c, err)
		return
	}

	result, err := sess.RecordAudio(c.Request.Context(), req.QuestionID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Recording stored",
		Data: gin.H{
			"mime_type":       result.Clip.MimeType,
			"recognized_text": result.Value.Media.RecognizedText,
			"confidence":      result.Value.Media.Confidence,
			"progress":        sess.Progress(),
		},
	})
}

// CloseSession discards the live session
// @Summary Close session
// @Description Discards the in-memory session; cached answers stay durable
// @Tags sessions
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Success 200 {object} SuccessResponse
// @Router /sessions/{quiz_id} [delete]
func (h *SessionHandler) CloseSession(c *gin.Context) {
	h.sessions.Close(c.Param("quiz_id"))
	c.JSON(http.StatusOK, SuccessResponse{Message: "Session closed"})
}
