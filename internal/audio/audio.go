// Package audio captures microphone input and plays AI replies.
package audio

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMicrophoneUnavailable is returned when no input device can be
	// opened, either because none exists or access was denied.
	ErrMicrophoneUnavailable = errors.New("microphone unavailable")

	// ErrAlreadyRecording is returned by Capture.Begin while a stream is open.
	ErrAlreadyRecording = errors.New("capture already active")

	// ErrNotRecording is returned by Capture.End with no open stream.
	ErrNotRecording = errors.New("no active capture")

	// ErrEmptyRecording is returned when a stream stopped without data.
	ErrEmptyRecording = errors.New("recording is empty")
)

// Device opens input streams.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is an open capture. Stop releases the device and returns the
// encoded recording.
type Stream interface {
	Stop() ([]byte, error)
}

// Player plays encoded audio.
type Player interface {
	Play(ctx context.Context, data []byte) error
}

// DecodeBase64 decodes audio sent inline by the backend. A data URL prefix
// ("data:audio/mpeg;base64,") and missing padding are tolerated.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ";base64,"); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+len(";base64,"):]
	}
	if s == "" {
		return nil, ErrEmptyRecording
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}
	data, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	if rawErr == nil {
		return data, nil
	}
	return nil, fmt.Errorf("decode audio: %w", err)
}
