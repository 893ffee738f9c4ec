package submit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguadesk/quiz-session-service/internal/client"
	apperrors "github.com/linguadesk/quiz-session-service/internal/errors"
	"github.com/linguadesk/quiz-session-service/internal/models"
	"github.com/linguadesk/quiz-session-service/internal/utils"
)

type fakeSubmitter struct {
	calls     atomic.Int32
	response  *client.SubmitResponse
	err       error
	block     chan struct{} // when set, SubmitQuiz blocks until closed
	entered   chan struct{} // when set, closed once SubmitQuiz is reached
	enterOnce sync.Once
	lastReq   *client.SubmitRequest
	mu        sync.Mutex
}

func (f *fakeSubmitter) SubmitQuiz(ctx context.Context, req *client.SubmitRequest) (*client.SubmitResponse, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.lastReq = req
	f.mu.Unlock()
	if f.entered != nil {
		f.enterOnce.Do(func() { close(f.entered) })
	}
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func fiveQuestions() ([]models.Question, models.PaginationState) {
	questions := make([]models.Question, 5)
	for i, id := range []string{"q1", "q2", "q3", "q4", "q5"} {
		questions[i] = models.Question{ID: id, Type: models.FillBlank, Points: 1}
	}
	pagination := models.PaginationState{CurrentPage: 1, TotalQuestions: 5, TotalPages: 1}
	return questions, pagination
}

func answersFor(ids ...string) models.AnswerSet {
	answers := models.AnswerSet{}
	for _, id := range ids {
		answers[models.KeyFor(id)] = models.ScalarAnswer("answer for " + id)
	}
	return answers
}

func TestSubmit_CompletenessGateMakesNoNetworkCall(t *testing.T) {
	api := &fakeSubmitter{}
	p := NewPipeline(api, utils.NewDevelopmentLogger())
	questions, pagination := fiveQuestions()

	_, err := p.Submit(context.Background(), "quiz-1", questions, pagination, answersFor("q1", "q2", "q3", "q4"))

	var incomplete *apperrors.IncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 4, incomplete.Answered)
	assert.Equal(t, 5, incomplete.Total)
	assert.Equal(t, "4 out of 5 questions answered", incomplete.Error())
	assert.Zero(t, api.calls.Load(), "incomplete submission must not reach the network")
}

func TestSubmit_Scored(t *testing.T) {
	api := &fakeSubmitter{response: &client.SubmitResponse{
		Success:       true,
		Score:         4,
		TotalPoints:   5,
		AttemptNumber: 1,
		MaxRetakes:    2,
		AttemptCount:  1,
		CanRetake:     true,
		Questions: []models.QuestionResult{
			{QuestionID: "q1", Correct: true, PointsAwarded: 1, PointsMax: 1},
		},
	}}
	p := NewPipeline(api, utils.NewDevelopmentLogger())
	questions, pagination := fiveQuestions()

	outcome, err := p.Submit(context.Background(), "quiz-1", questions, pagination, answersFor("q1", "q2", "q3", "q4", "q5"))
	require.NoError(t, err)

	assert.Equal(t, OutcomeScored, outcome.Kind)
	require.NotNil(t, outcome.Attempt)
	assert.Equal(t, 4.0, outcome.Attempt.Score)
	assert.Equal(t, 5.0, outcome.Attempt.TotalPoints)
	assert.True(t, outcome.Attempt.CanRetake)
	assert.Equal(t, int32(1), api.calls.Load())
}

func TestSubmit_Rejected(t *testing.T) {
	api := &fakeSubmitter{response: &client.SubmitResponse{
		Success:          false,
		Message:          "retake limit reached",
		RetakesExhausted: true,
	}}
	p := NewPipeline(api, utils.NewDevelopmentLogger())
	questions, pagination := fiveQuestions()

	outcome, err := p.Submit(context.Background(), "quiz-1", questions, pagination, answersFor("q1", "q2", "q3", "q4", "q5"))
	require.NoError(t, err)

	assert.Equal(t, OutcomeRejected, outcome.Kind)
	assert.True(t, outcome.RetakesExhausted)
	assert.Equal(t, "retake limit reached", outcome.Message)
	assert.Nil(t, outcome.Attempt)
}

func TestSubmit_TransportErrorPropagates(t *testing.T) {
	api := &fakeSubmitter{err: apperrors.NewTransportError("submit quiz", 0, errors.New("connection reset"))}
	p := NewPipeline(api, utils.NewDevelopmentLogger())
	questions, pagination := fiveQuestions()

	_, err := p.Submit(context.Background(), "quiz-1", questions, pagination, answersFor("q1", "q2", "q3", "q4", "q5"))
	require.Error(t, err)
	assert.True(t, apperrors.IsRecoverable(err))
}

func TestSubmit_SingleInFlight(t *testing.T) {
	block := make(chan struct{})
	api := &fakeSubmitter{
		block:    block,
		entered:  make(chan struct{}),
		response: &client.SubmitResponse{Success: true, Score: 5, TotalPoints: 5, AttemptNumber: 1},
	}
	p := NewPipeline(api, utils.NewDevelopmentLogger())
	questions, pagination := fiveQuestions()
	answers := answersFor("q1", "q2", "q3", "q4", "q5")

	firstDone := make(chan error, 1)
	go func() {
		_, err := p.Submit(context.Background(), "quiz-1", questions, pagination, answers)
		firstDone <- err
	}()

	// Wait for the first submit to hit the network, then double-click.
	<-api.entered
	_, err := p.Submit(context.Background(), "quiz-1", questions, pagination, answers)
	assert.ErrorIs(t, err, apperrors.ErrSubmitInFlight)

	close(block)
	require.NoError(t, <-firstDone)
	assert.Equal(t, int32(1), api.calls.Load(), "exactly one network submission")
}

func TestBuildPayload(t *testing.T) {
	answers := models.AnswerSet{
		models.KeyFor("q1"):       models.ScalarAnswer("true"),
		models.SubKeyFor("m1", 1): models.ScalarAnswer("perro"),
		models.KeyFor("a1"): models.MediaAnswerValue(&models.MediaAnswer{
			EncodedClip:    "UklGRg==",
			MimeType:       "audio/wav",
			RecognizedText: "hola",
			Confidence:     0.8,
		}),
		models.KeyFor("a2"): models.MediaAnswerValue(&models.MediaAnswer{
			EncodedClip: "UklGRg==",
			MimeType:    "audio/wav",
		}),
	}

	payload := BuildPayload(answers)
	assert.Equal(t, "true", payload["q1"])
	assert.Equal(t, "perro", payload["m1:1"])

	withRec := payload["a1"].(map[string]interface{})
	assert.Equal(t, "UklGRg==", withRec["audio"])
	assert.Equal(t, "hola", withRec["recognized_text"])
	assert.Equal(t, 0.8, withRec["confidence"])

	withoutRec := payload["a2"].(map[string]interface{})
	_, hasRec := withoutRec["recognized_text"]
	assert.False(t, hasRec)
}
