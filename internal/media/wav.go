package media

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"

	apperrors "github.com/linguadesk/quiz-session-service/internal/errors"
)

// WAVEncoder packs 16-bit mono PCM into a RIFF/WAVE container. It is
// the default encoder; environments with a native MediaRecorder bridge
// plug in their own.
type WAVEncoder struct{}

func (WAVEncoder) Encode(pcm []byte, sampleRate int) (*Clip, error) {
	if len(pcm) == 0 {
		return nil, errors.New("empty recording")
	}
	if sampleRate <= 0 {
		return nil, errors.New("invalid sample rate")
	}

	const (
		channels      = 1
		bitsPerSample = 16
	)
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return &Clip{Data: buf.Bytes(), MimeType: "audio/wav"}, nil
}

// UnavailableRecognizer is the default Recognizer for environments
// without a local speech engine.
type UnavailableRecognizer struct{}

func (UnavailableRecognizer) Recognize(ctx context.Context, clip *Clip) (*Recognition, error) {
	return nil, apperrors.ErrRecognitionUnavailable
}

// UnsupportedDevice is the default Device for deployments without a
// capture bridge. Every acquisition fails with the unsupported-capture
// remediation.
type UnsupportedDevice struct{}

func (UnsupportedDevice) Acquire(ctx context.Context, c Constraints) (Stream, error) {
	return nil, apperrors.ErrMediaUnsupported
}
