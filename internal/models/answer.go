package models

import (
	"fmt"
	"strconv"
	"strings"
)

// AnswerKey identifies one cached answer within a quiz namespace.
// Plain questions use the question id; sub-parts of composite questions
// append ":{subIndex}" so each pair is cached independently.
//
// Question ids must not contain ':'. An id ending in ":<digits>" would
// be indistinguishable from a sub-indexed key when cached entries are
// grouped back by question.
type AnswerKey string

// KeyFor builds the answer key for a whole question.
func KeyFor(questionID string) AnswerKey {
	return AnswerKey(questionID)
}

// SubKeyFor builds the answer key for one sub-part of a composite question.
func SubKeyFor(questionID string, subIndex int) AnswerKey {
	return AnswerKey(fmt.Sprintf("%s:%d", questionID, subIndex))
}

// QuestionID strips the sub-index suffix, if any.
func (k AnswerKey) QuestionID() string {
	s := string(k)
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		if _, err := strconv.Atoi(s[i+1:]); err == nil {
			return s[:i]
		}
	}
	return s
}

// SubIndex returns the sub-part index and whether the key carries one.
func (k AnswerKey) SubIndex() (int, bool) {
	s := string(k)
	i := strings.LastIndexByte(s, ':')
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

type AnswerKind string

const (
	AnswerScalar AnswerKind = "scalar"
	AnswerMedia  AnswerKind = "media"
)

// MediaAnswer is the transport form of a recorded audio response.
// RecognizedText and Confidence are best-effort and may be absent.
type MediaAnswer struct {
	EncodedClip    string  `json:"encoded_clip"`
	MimeType       string  `json:"mime_type"`
	RecognizedText string  `json:"recognized_text,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
}

// AnswerValue is the tagged union stored per answer key: scalar text
// (choice id, blank text, pair text) or a recorded media answer.
// Interpreters switch on Kind exhaustively.
type AnswerValue struct {
	Kind  AnswerKind   `json:"kind"`
	Text  string       `json:"text,omitempty"`
	Media *MediaAnswer `json:"media,omitempty"`
}

func ScalarAnswer(text string) AnswerValue {
	return AnswerValue{Kind: AnswerScalar, Text: text}
}

func MediaAnswerValue(m *MediaAnswer) AnswerValue {
	return AnswerValue{Kind: AnswerMedia, Media: m}
}

// IsBlank reports whether the value counts as "no answer": blank after
// trimming for scalars, missing payload for media.
func (v AnswerValue) IsBlank() bool {
	switch v.Kind {
	case AnswerScalar:
		return strings.TrimSpace(v.Text) == ""
	case AnswerMedia:
		return v.Media == nil || v.Media.EncodedClip == ""
	default:
		return true
	}
}

// AnswerSet is the in-memory view of one quiz's cached answers.
type AnswerSet map[AnswerKey]AnswerValue

// Merge unions partial into the set, partial entries overwriting.
func (s AnswerSet) Merge(partial AnswerSet) {
	for k, v := range partial {
		s[k] = v
	}
}

// Clone returns an independent copy of the set.
func (s AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
