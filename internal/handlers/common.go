package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/linguadesk/quiz-session-service/internal/errors"
	"github.com/linguadesk/quiz-session-service/internal/session"
	"github.com/linguadesk/quiz-session-service/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message     string      `json:"message"`
	Details     interface{} `json:"details,omitempty"`
	Code        string      `json:"code,omitempty"`
	Remediation string      `json:"remediation,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging functionality for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs incoming HTTP requests with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"remote_addr", c.ClientIP(),
		"request_id", c.GetHeader("X-Request-ID"),
	}
	fields = append(fields, additionalFields...)
	h.logger.Info(message, fields...)
}

// handleSessionError maps the session error taxonomy onto HTTP statuses.
//
// Recoverable upstream failures surface as 502 so the dashboard can show
// its retry affordance; the local completeness gate and validation come
// back as 422; the single-submission guard as 429.
func (h *BaseHandler) handleSessionError(c *gin.Context, err error) {
	var validationErrs apperrors.ValidationErrors
	var incomplete *apperrors.IncompleteError

	switch {
	case errors.As(err, &validationErrs):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Validation failed",
			Code:    "validation_failed",
			Details: validationErrs,
		})

	case errors.As(err, &incomplete):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: incomplete.Error(),
			Code:    "incomplete_submission",
			Details: gin.H{"answered": incomplete.Answered, "total": incomplete.Total},
		})

	case errors.Is(err, apperrors.ErrNoActiveSection):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "No active section selected",
			Code:    "no_active_section",
		})

	case errors.Is(err, apperrors.ErrQuizCompleted):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Quiz already completed",
			Code:    "quiz_completed",
		})

	case errors.Is(err, session.ErrLoadSuperseded):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "A newer page navigation superseded this request",
			Code:    "load_superseded",
		})

	case errors.Is(err, apperrors.ErrSubmitInFlight):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Message: "A submission is already in flight",
			Code:    "submit_in_flight",
		})

	case errors.Is(err, apperrors.ErrRetakeLimitReached):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Retake limit reached",
			Code:    "retake_limit_reached",
		})

	case errors.Is(err, apperrors.ErrSessionNotFound),
		errors.Is(err, apperrors.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: err.Error(),
			Code:    "not_found",
		})

	case apperrors.IsMediaError(err):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message:     err.Error(),
			Code:        "media_capture_failed",
			Remediation: apperrors.MediaRemediation(err),
		})

	case apperrors.IsRecoverable(err):
		h.logger.LogError(err, "Upstream quiz API failure",
			"path", c.Request.URL.Path)
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message: "The quiz service is temporarily unavailable, please try again",
			Code:    "upstream_unavailable",
			Details: err.Error(),
		})

	default:
		h.logger.LogError(err, "Unhandled session error",
			"path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
