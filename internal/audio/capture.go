package audio

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Recording is a finished capture.
type Recording struct {
	Data     []byte
	Duration time.Duration
}

// Capture owns at most one open stream on a device.
type Capture struct {
	mu        sync.Mutex
	device    Device
	stream    Stream
	startedAt time.Time
	now       func() time.Time
}

// NewCapture returns an idle capture over device.
func NewCapture(device Device) *Capture {
	return &Capture{device: device, now: time.Now}
}

// Begin opens the device. It fails with ErrAlreadyRecording if a stream is
// open, and with an error wrapping ErrMicrophoneUnavailable if the device
// cannot be opened.
func (c *Capture) Begin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		return ErrAlreadyRecording
	}
	if c.device == nil {
		return fmt.Errorf("%w: no input device configured", ErrMicrophoneUnavailable)
	}
	stream, err := c.device.Open(ctx)
	if err != nil {
		return err
	}
	c.stream = stream
	c.startedAt = c.now()
	return nil
}

// End stops the stream, releasing the device, and returns the recording.
// The capture is idle afterwards even if stopping failed.
func (c *Capture) End() (*Recording, error) {
	c.mu.Lock()
	stream := c.stream
	started := c.startedAt
	c.stream = nil
	c.mu.Unlock()

	if stream == nil {
		return nil, ErrNotRecording
	}
	data, err := stream.Stop()
	if err != nil {
		return nil, fmt.Errorf("stop capture: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyRecording
	}
	return &Recording{Data: data, Duration: c.now().Sub(started)}, nil
}

// Abort stops any open stream and discards its data.
func (c *Capture) Abort() {
	c.mu.Lock()
	stream := c.stream
	c.stream = nil
	c.mu.Unlock()

	if stream != nil {
		_, _ = stream.Stop()
	}
}

// Recording reports whether a stream is open.
func (c *Capture) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream != nil
}
