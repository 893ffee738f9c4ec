package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/linguadesk/quiz-session-service/internal/errors"
	"github.com/linguadesk/quiz-session-service/internal/models"
	"github.com/linguadesk/quiz-session-service/internal/utils"
)

// Result is one completed capture: the answer value for the store plus
// the in-memory playback handle.
type Result struct {
	Value models.AnswerValue
	Clip  *Clip
}

// Pipeline drives one capture at a time through
// idle → requesting-permission → recording → encoding → ready | failed.
// Acquisition failures return the machine to idle.
type Pipeline struct {
	device     Device
	encoder    Encoder
	recognizer Recognizer
	duration   time.Duration
	logger     utils.Logger

	mu    sync.Mutex
	state State
}

func NewPipeline(device Device, encoder Encoder, recognizer Recognizer, logger utils.Logger) *Pipeline {
	return &Pipeline{
		device:     device,
		encoder:    encoder,
		recognizer: recognizer,
		duration:   RecordDuration,
		logger:     logger,
		state:      StateIdle,
	}
}

// State returns the current machine state. State is never inferred from
// anything else.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Capture records, encodes and (best-effort) recognizes one clip.
func (p *Pipeline) Capture(ctx context.Context) (*Result, error) {
	if !p.begin() {
		return nil, apperrors.ErrMediaDeviceBusy
	}

	stream, err := p.device.Acquire(ctx, Constraints{
		EchoCancellation: true,
		NoiseSuppression: true,
	})
	if err != nil {
		// Denied permission and friends put the machine back to idle so
		// the learner can try again.
		p.setState(StateIdle)
		if apperrors.IsMediaError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMediaUnsupported, err)
	}
	defer stream.Close()

	p.setState(StateRecording)
	pcm, err := stream.Capture(ctx, p.duration)
	if err != nil {
		p.setState(StateFailed)
		return nil, fmt.Errorf("recording failed: %w", err)
	}

	p.setState(StateEncoding)
	clip, err := p.encoder.Encode(pcm, stream.SampleRate())
	if err != nil {
		p.setState(StateFailed)
		return nil, fmt.Errorf("encoding failed: %w", err)
	}

	answer := &models.MediaAnswer{
		EncodedClip: base64.StdEncoding.EncodeToString(clip.Data),
		MimeType:    clip.MimeType,
	}

	// Recognition never blocks reaching ready.
	if p.recognizer != nil {
		if rec, err := p.recognizer.Recognize(ctx, clip); err != nil {
			p.logger.Debug("Speech recognition unavailable for clip", "error", err)
		} else if rec != nil {
			answer.RecognizedText = rec.Text
			answer.Confidence = rec.Confidence
		}
	}

	p.setState(StateReady)
	return &Result{
		Value: models.MediaAnswerValue(answer),
		Clip:  clip,
	}, nil
}

// begin claims the pipeline if no capture is in progress. The claim and
// the transition to requesting-permission happen under one lock, so two
// concurrent captures can never both pass.
func (p *Pipeline) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case StateRequestingPermission, StateRecording, StateEncoding:
		return false
	}
	p.state = StateRequestingPermission
	return true
}
