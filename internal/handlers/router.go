package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/linguadesk/quiz-session-service/internal/session"
	"github.com/linguadesk/quiz-session-service/internal/utils"
	"github.com/linguadesk/quiz-session-service/internal/validator"
)

type HandlerManager struct {
	sessionHandler *SessionHandler
}

func NewHandlerManager(sessions *session.Manager, v *validator.Validator, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		sessionHandler: NewSessionHandler(sessions, v, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "quiz-session-service",
		})
	})

	v1 := router.Group("/api/v1")
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.OpenSession)
			sessions.GET("/:quiz_id", hm.sessionHandler.GetSession)
			sessions.DELETE("/:quiz_id", hm.sessionHandler.CloseSession)
			sessions.GET("/:quiz_id/page/:page", hm.sessionHandler.LoadPage)
			sessions.PUT("/:quiz_id/answers", hm.sessionHandler.SaveAnswer)
			sessions.GET("/:quiz_id/progress", hm.sessionHandler.GetProgress)
			sessions.POST("/:quiz_id/submit", hm.sessionHandler.SubmitSession)
			sessions.POST("/:quiz_id/retake", hm.sessionHandler.RetakeSession)
			sessions.POST("/:quiz_id/media", hm.sessionHandler.RecordAudio)
		}
	}
}
