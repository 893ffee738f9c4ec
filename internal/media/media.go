// Package media records a bounded audio clip for pronunciation
// questions, encodes it for transport and optionally runs a best-effort
// recognition pass. The device, encoder and recognizer are boundary
// interfaces: the environment (browser bridge, native host, test fake)
// supplies the implementations.
package media

import (
	"context"
	"time"
)

// RecordDuration bounds every recording. There is no learner-initiated
// early stop.
const RecordDuration = 5 * time.Second

type State string

const (
	StateIdle                 State = "idle"
	StateRequestingPermission State = "requesting-permission"
	StateRecording            State = "recording"
	StateEncoding             State = "encoding"
	StateReady                State = "ready"
	StateFailed               State = "failed"
)

// Constraints are the hints passed to the microphone device.
type Constraints struct {
	EchoCancellation bool
	NoiseSuppression bool
}

// Device grants access to a microphone stream. Acquisition failures
// must map to the media error family: ErrMediaPermissionDenied,
// ErrMediaDeviceNotFound, ErrMediaDeviceBusy or ErrMediaUnsupported.
type Device interface {
	Acquire(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is one granted microphone stream.
type Stream interface {
	// Capture records raw PCM for at most the given duration.
	Capture(ctx context.Context, d time.Duration) ([]byte, error)
	SampleRate() int
	Close() error
}

// Clip is an encoded recording: the transport container plus its mime
// type. The raw bytes double as the in-memory playback handle.
type Clip struct {
	Data     []byte
	MimeType string
}

// Encoder packs raw PCM into a transport container.
type Encoder interface {
	Encode(pcm []byte, sampleRate int) (*Clip, error)
}

// Recognition is a best-effort transcription of a clip.
type Recognition struct {
	Text       string
	Confidence float64
}

// Recognizer transcribes a clip locally. Implementations return
// ErrRecognitionUnavailable when no engine is present; the pipeline
// swallows any recognizer failure.
type Recognizer interface {
	Recognize(ctx context.Context, clip *Clip) (*Recognition, error)
}
