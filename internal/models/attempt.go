package models

// PaginationState mirrors the pagination block of a page-fetch response.
// Recomputed on every page load.
type PaginationState struct {
	CurrentPage    int  `json:"current_page"`
	TotalQuestions int  `json:"total_questions"`
	TotalPages     int  `json:"total_pages"`
	HasNext        bool `json:"has_next"`
	HasPrevious    bool `json:"has_previous"`
	NextPage       int  `json:"next_page,omitempty"`
	PreviousPage   int  `json:"previous_page,omitempty"`
}

// QuestionResult is the per-question breakdown of a graded attempt.
type QuestionResult struct {
	QuestionID    string  `json:"question_id"`
	Correct       bool    `json:"correct"`
	PointsAwarded float64 `json:"points_awarded"`
	PointsMax     float64 `json:"points_max"`
	Expected      string  `json:"expected,omitempty"`
	Given         string  `json:"given,omitempty"`
}

// AttemptRecord is the grading service's verdict on one submission,
// plus the retake eligibility flags that come with it. Held in session
// memory only, never persisted locally.
type AttemptRecord struct {
	AttemptNumber int              `json:"attempt_number"`
	Score         float64          `json:"score"`
	TotalPoints   float64          `json:"total_points"`
	Results       []QuestionResult `json:"results,omitempty"`
	MaxRetakes    int              `json:"max_retakes"`
	AttemptCount  int              `json:"attempt_count"`
	CanRetake     bool             `json:"can_retake"`
}

// AttemptMetadata is what a page fetch reveals about prior attempts:
// whether the quiz is already completed and, if so, the last score.
type AttemptMetadata struct {
	QuizCompleted bool            `json:"quiz_completed"`
	MaxRetakes    int             `json:"max_retakes"`
	AttemptCount  int             `json:"attempt_count"`
	CanRetake     bool            `json:"can_retake"`
	LastAttempt   *AttemptSummary `json:"last_attempt,omitempty"`
}

// AttemptSummary is the condensed prior-attempt record carried on page loads.
type AttemptSummary struct {
	AttemptNumber int     `json:"attempt_number"`
	Score         float64 `json:"score"`
	TotalPoints   float64 `json:"total_points"`
}
