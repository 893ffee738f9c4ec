// Package completion derives answered-ness and completion ratios from
// the authoritative answer cache. Nothing here keeps counters; every
// call re-derives from scratch so repeated calls cannot drift.
package completion

import (
	"github.com/linguadesk/quiz-session-service/internal/models"
)

// Progress is the result of one completion evaluation.
type Progress struct {
	Answered int     `json:"answered"`
	Total    int     `json:"total"`
	Ratio    float64 `json:"ratio"`
}

// Complete reports whether every question of the quiz is answered.
func (p Progress) Complete() bool {
	return p.Total > 0 && p.Answered >= p.Total
}

// IsAnswered reports whether a question counts as answered given the
// cached answer set.
//
// Composite questions need a non-blank value for every sub-pair.
// Scalar text questions need a non-blank trimmed value. Media answers
// only need to be present.
func IsAnswered(q models.Question, answers models.AnswerSet) bool {
	switch q.Type {
	case models.WordMatching, models.SentenceTranslation:
		if len(q.Pairs) == 0 {
			return false
		}
		for i := range q.Pairs {
			value, ok := answers[models.SubKeyFor(q.ID, i)]
			if !ok || value.IsBlank() {
				return false
			}
		}
		return true

	case models.AudioPronunciation:
		value, ok := answers[models.KeyFor(q.ID)]
		return ok && value.Kind == models.AnswerMedia && !value.IsBlank()

	case models.SingleChoice, models.TrueFalse, models.FillBlank:
		value, ok := answers[models.KeyFor(q.ID)]
		return ok && !value.IsBlank()

	default:
		value, ok := answers[models.KeyFor(q.ID)]
		return ok && !value.IsBlank()
	}
}

// Ratio computes the completion ratio across the whole quiz. The
// denominator is the total question count from pagination metadata,
// spanning all pages, so cached answers for questions that are not on
// the loaded page still count.
func Ratio(questions []models.Question, pagination models.PaginationState, answers models.AnswerSet) Progress {
	total := pagination.TotalQuestions
	if total == 0 {
		total = len(questions)
	}

	onPage := make(map[string]bool, len(questions))
	answered := make(map[string]bool)

	for _, q := range questions {
		onPage[q.ID] = true
		if IsAnswered(q, answers) {
			answered[q.ID] = true
		}
	}

	// Off-page questions are judged from their cached entries alone: a
	// question counts once all of its cached parts are non-blank.
	offPage := make(map[string]bool)
	for key, value := range answers {
		qid := key.QuestionID()
		if onPage[qid] {
			continue
		}
		if blocked, seen := offPage[qid]; seen && blocked {
			continue
		}
		offPage[qid] = value.IsBlank()
	}
	for qid, blocked := range offPage {
		if !blocked {
			answered[qid] = true
		}
	}

	count := len(answered)
	if count > total {
		count = total
	}

	ratio := 0.0
	if total > 0 {
		ratio = float64(count) / float64(total)
	}

	return Progress{Answered: count, Total: total, Ratio: ratio}
}
