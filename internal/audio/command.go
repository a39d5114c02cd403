package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultRecordCommand records 16 kHz mono WAV; the output path is
	// appended as the last argument.
	DefaultRecordCommand = "arecord -q -f S16_LE -r 16000 -c 1 -t wav"

	// DefaultPlayCommand plays a file given as the last argument.
	DefaultPlayCommand = "aplay -q"

	// startupGrace is how long a recorder must survive after launch to be
	// considered healthy.
	startupGrace = 150 * time.Millisecond

	stopTimeout = 3 * time.Second
)

// CommandDevice records by running an external recorder program.
type CommandDevice struct {
	argv   []string
	logger zerolog.Logger
}

// NewCommandDevice parses a command line such as DefaultRecordCommand.
func NewCommandDevice(command string, logger zerolog.Logger) *CommandDevice {
	if strings.TrimSpace(command) == "" {
		command = DefaultRecordCommand
	}
	return &CommandDevice{
		argv:   strings.Fields(command),
		logger: logger.With().Str("component", "audio-device").Logger(),
	}
}

// Open starts the recorder writing to a temporary file.
func (d *CommandDevice) Open(ctx context.Context) (Stream, error) {
	bin, err := exec.LookPath(d.argv[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrMicrophoneUnavailable, d.argv[0])
	}

	f, err := os.CreateTemp("", "studyup-rec-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create recording file: %w", err)
	}
	path := f.Name()
	f.Close()

	args := append(append([]string(nil), d.argv[1:]...), path)
	cmd := exec.Command(bin, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("%w: %v", ErrMicrophoneUnavailable, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		os.Remove(path)
		msg := strings.TrimSpace(stderr.String())
		d.logger.Warn().Err(err).Str("stderr", msg).Msg("recorder exited at startup")
		return nil, fmt.Errorf("%w: recorder exited: %s", ErrMicrophoneUnavailable, msg)
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		os.Remove(path)
		return nil, ctx.Err()
	case <-time.After(startupGrace):
	}

	d.logger.Debug().Str("file", path).Msg("recording started")
	return &commandStream{cmd: cmd, done: done, path: path, logger: d.logger}, nil
}

type commandStream struct {
	cmd    *exec.Cmd
	done   chan error
	path   string
	logger zerolog.Logger
}

// Stop interrupts the recorder so it can finalize the file header, then
// reads and removes the file.
func (s *commandStream) Stop() ([]byte, error) {
	defer os.Remove(s.path)

	_ = s.cmd.Process.Signal(os.Interrupt)
	select {
	case <-s.done:
	case <-time.After(stopTimeout):
		_ = s.cmd.Process.Kill()
		<-s.done
		s.logger.Warn().Msg("recorder killed after stop timeout")
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	return data, nil
}

// CommandPlayer plays audio through an external program.
type CommandPlayer struct {
	argv   []string
	logger zerolog.Logger
}

// NewCommandPlayer parses a command line such as DefaultPlayCommand.
func NewCommandPlayer(command string, logger zerolog.Logger) *CommandPlayer {
	if strings.TrimSpace(command) == "" {
		command = DefaultPlayCommand
	}
	return &CommandPlayer{
		argv:   strings.Fields(command),
		logger: logger.With().Str("component", "audio-player").Logger(),
	}
}

// Play writes data to a temporary file and runs the player on it. It
// returns when playback finishes or ctx is cancelled.
func (p *CommandPlayer) Play(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyRecording
	}
	bin, err := exec.LookPath(p.argv[0])
	if err != nil {
		return fmt.Errorf("audio player %s not found: %w", p.argv[0], err)
	}

	f, err := os.CreateTemp("", "studyup-play-*")
	if err != nil {
		return fmt.Errorf("create playback file: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write playback file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close playback file: %w", err)
	}

	args := append(append([]string(nil), p.argv[1:]...), f.Name())
	out, err := exec.CommandContext(ctx, bin, args...).CombinedOutput()
	if err != nil && !errors.Is(ctx.Err(), context.Canceled) {
		p.logger.Warn().Err(err).Str("output", strings.TrimSpace(string(out))).Msg("playback failed")
		return fmt.Errorf("play audio: %w", err)
	}
	return nil
}
