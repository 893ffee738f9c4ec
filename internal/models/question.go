package models

type QuestionType string

const (
	SingleChoice        QuestionType = "single_choice"
	TrueFalse           QuestionType = "true_false"
	FillBlank           QuestionType = "fill_blank"
	AudioPronunciation  QuestionType = "audio_pronunciation"
	WordMatching        QuestionType = "word_matching"
	SentenceTranslation QuestionType = "sentence_translation"
)

// IsComposite reports whether a question type carries independently
// answerable sub-parts, each cached under its own sub-index key.
func (t QuestionType) IsComposite() bool {
	return t == WordMatching || t == SentenceTranslation
}

// Choice is one selectable option of a single-choice question.
type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionPair is one sub-part of a matching or translation question:
// the left side is shown, the right side is what the learner supplies.
type QuestionPair struct {
	Left  string `json:"left"`
	Right string `json:"right,omitempty"`
}

// AudioReference points at the reference clip of a pronunciation question.
type AudioReference struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Duration int    `json:"duration_seconds,omitempty"`
}

// Question is one quiz question as fetched from the remote question
// source. Immutable once loaded for a page.
type Question struct {
	ID     string       `json:"id"`
	Type   QuestionType `json:"type"`
	Points int          `json:"points"`
	Prompt string       `json:"prompt"`

	// Type-specific payload; only the fields matching Type are set.
	Choices        []Choice        `json:"choices,omitempty"`
	Blanks         []string        `json:"blanks,omitempty"`
	Pairs          []QuestionPair  `json:"pairs,omitempty"`
	ReferenceAudio *AudioReference `json:"reference_audio,omitempty"`
}
