package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap"

	apperrors "audio-sessions/internal/app/errors"
	"audio-sessions/internal/app/model"
)

// State represents the current state of the capture controller
type State string

const (
	StateIdle      State = "IDLE"
	StateRecording State = "RECORDING"
	StateFailed    State = "FAILED"
	StateStopping  State = "STOPPING"
	StateStopped   State = "STOPPED"
)

const (
	DefaultSampleRate = 44100
	DefaultChannels   = 1
	bitDepth          = 16
	wavPCM            = 1
	bufferFrames      = 1024
	fileNameLayout    = "2006-01-02_15-04-05"
)

// Config configures a Controller
type Config struct {
	Dir        string
	SampleRate int
	Channels   int
}

// Controller captures one recording at a time from a Device into a WAV file.
type Controller struct {
	cfg    Config
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	state     State
	stream    InputStream
	file      *os.File
	enc       *wav.Encoder
	path      string
	rate      int
	channels  int
	frames    int64
	level     float64
	readErr   error
	startedAt time.Time
	done      chan struct{}
	last      *model.AudioArtifact
}

// NewController creates an idle controller writing into cfg.Dir
func NewController(cfg Config, logger *zap.Logger) *Controller {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.Channels <= 0 {
		cfg.Channels = DefaultChannels
	}
	if cfg.Dir == "" {
		cfg.Dir = "recordings"
	}
	return &Controller{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		state:  StateIdle,
	}
}

// Start opens the device and begins writing a new artifact.
func (c *Controller) Start(ctx context.Context, dev Device) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateRecording, StateFailed, StateStopping:
		return apperrors.ErrAlreadyRecording
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	rate, channels := c.cfg.SampleRate, c.cfg.Channels
	if nf, ok := dev.(NativeFormatter); ok {
		r, ch, err := nf.NativeFormat()
		if err != nil {
			return apperrors.ErrDeviceUnavailable.With(fmt.Errorf("%s: %w", dev.Name(), err))
		}
		rate, channels = r, ch
	}

	stream, err := dev.Open(rate, channels)
	if err != nil {
		return apperrors.ErrDeviceUnavailable.With(fmt.Errorf("%s: %w", dev.Name(), err))
	}

	path, err := c.nextPath()
	if err != nil {
		stream.Close()
		return apperrors.ErrIO.With(err)
	}

	f, err := os.Create(path)
	if err != nil {
		stream.Close()
		return apperrors.ErrIO.With(err)
	}

	c.stream = stream
	c.file = f
	c.enc = wav.NewEncoder(f, rate, bitDepth, channels, wavPCM)
	c.path = path
	c.rate = rate
	c.channels = channels
	c.frames = 0
	c.level = 0
	c.readErr = nil
	c.startedAt = c.now()
	c.done = make(chan struct{})
	c.state = StateRecording

	c.logger.Info("recording started",
		zap.String("device", dev.Name()),
		zap.String("path", path),
		zap.Int("sample_rate", rate),
		zap.Int("channels", channels))

	go c.capture(stream, c.enc, c.done)
	return nil
}

func (c *Controller) nextPath() (string, error) {
	if err := os.MkdirAll(c.cfg.Dir, 0o755); err != nil {
		return "", err
	}
	base := "session_" + c.now().Format(fileNameLayout)
	path := filepath.Join(c.cfg.Dir, base+".wav")
	for i := 1; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
		path = filepath.Join(c.cfg.Dir, fmt.Sprintf("%s_%d.wav", base, i))
	}
}

func (c *Controller) capture(stream InputStream, enc *wav.Encoder, done chan struct{}) {
	defer close(done)

	c.mu.Lock()
	channels, rate := c.channels, c.rate
	c.mu.Unlock()

	samples := make([]int, bufferFrames*channels)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		SourceBitDepth: bitDepth,
	}

	for {
		n, err := stream.Read(samples)
		if n > 0 {
			n -= n % channels
			buf.Data = samples[:n]
			if werr := enc.Write(buf); werr != nil {
				c.fail(werr)
				return
			}
			c.mu.Lock()
			c.frames += int64(n / channels)
			c.level = rms(samples[:n])
			c.mu.Unlock()
		}
		if err != nil {
			c.mu.Lock()
			stopping := c.state == StateStopping
			c.mu.Unlock()
			if stopping || errors.Is(err, io.EOF) {
				return
			}
			c.fail(err)
			return
		}
	}
}

func (c *Controller) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateStopping {
		return
	}
	c.readErr = err
	c.state = StateFailed
	c.logger.Error("recording failed", zap.String("path", c.path), zap.Error(err))
}

// Stop ends the capture and finalizes the WAV file. A mid-recording device failure is
// reported as ErrDeviceFailed together with the artifact holding what was captured.
func (c *Controller) Stop() (*model.AudioArtifact, error) {
	c.mu.Lock()
	if c.state != StateRecording && c.state != StateFailed {
		c.mu.Unlock()
		return nil, apperrors.ErrNotRecording
	}
	c.state = StateStopping
	stream, done := c.stream, c.done
	c.mu.Unlock()

	closeErr := stream.Close()
	<-done

	c.mu.Lock()
	defer c.mu.Unlock()

	encErr := c.enc.Close()
	fileErr := c.file.Close()

	artifact := &model.AudioArtifact{
		Path:        c.path,
		DurationSec: float64(c.frames) / float64(c.rate),
		SampleRate:  c.rate,
		Channels:    c.channels,
	}
	c.last = artifact
	c.state = StateStopped
	c.stream, c.file, c.enc = nil, nil, nil
	c.level = 0

	c.logger.Info("recording stopped",
		zap.String("path", artifact.Path),
		zap.Float64("duration", artifact.DurationSec))

	if c.readErr != nil {
		return artifact, apperrors.ErrDeviceFailed.With(c.readErr)
	}
	if encErr != nil {
		return nil, apperrors.ErrIO.With(encErr)
	}
	if fileErr != nil {
		return nil, apperrors.ErrIO.With(fileErr)
	}
	if closeErr != nil {
		c.logger.Warn("closing input stream", zap.Error(closeErr))
	}
	return artifact, nil
}

// Level returns the RMS of the latest buffer in 0..1, ok is false when not recording.
func (c *Controller) Level() (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRecording {
		return 0, false
	}
	return c.level, true
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Elapsed is the live recording time, or the final duration once stopped.
func (c *Controller) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateRecording, StateFailed, StateStopping:
		return c.now().Sub(c.startedAt)
	case StateStopped:
		return time.Duration(math.Round(c.last.DurationSec * float64(time.Second)))
	}
	return 0
}

// Done is closed when the device stops delivering samples, either at end of input or on failure.
// It returns nil when no capture was started.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

func rms(samples []int) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Min(1, math.Sqrt(sum/float64(len(samples))))
}
