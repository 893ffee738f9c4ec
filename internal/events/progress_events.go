package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

const (
	EventSource  = "quiz-session-service"
	EventVersion = "1.0"

	// EventCourseProgress refreshes aggregate progress displays after a
	// scored submission. Consumers treat it as best-effort.
	EventCourseProgress = "course.progress.updated"
)

// CourseProgressEvent is published after every scored submission.
type CourseProgressEvent struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Source        string    `json:"source"`
	Version       string    `json:"version"`
	Timestamp     time.Time `json:"timestamp"`
	QuizID        string    `json:"quiz_id"`
	SectionID     string    `json:"section_id"`
	AttemptNumber int       `json:"attempt_number"`
	Score         float64   `json:"score"`
	TotalPoints   float64   `json:"total_points"`
}

// NewCourseProgressEvent stamps a progress event with identity and time.
func NewCourseProgressEvent(quizID, sectionID string, attemptNumber int, score, totalPoints float64) *CourseProgressEvent {
	return &CourseProgressEvent{
		ID:            watermill.NewUUID(),
		Type:          EventCourseProgress,
		Source:        EventSource,
		Version:       EventVersion,
		Timestamp:     time.Now().UTC(),
		QuizID:        quizID,
		SectionID:     sectionID,
		AttemptNumber: attemptNumber,
		Score:         score,
		TotalPoints:   totalPoints,
	}
}
