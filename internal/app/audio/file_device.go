package audio

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// FileDevice replays a WAV file as if it were a live input.
type FileDevice struct {
	Path string

	// Paced delivers samples at the file's real-time rate
	Paced bool
}

// NewFileDevice returns a device that reads from path
func NewFileDevice(path string, paced bool) *FileDevice {
	return &FileDevice{Path: path, Paced: paced}
}

func (d *FileDevice) Name() string {
	return "file:" + d.Path
}

// NativeFormat reads the WAV header
func (d *FileDevice) NativeFormat() (int, int, error) {
	f, err := os.Open(d.Path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, 0, fmt.Errorf("%s is not a valid wav file", d.Path)
	}
	return int(dec.SampleRate), int(dec.NumChans), nil
}

func (d *FileDevice) Open(sampleRate, channels int) (InputStream, error) {
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, err
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%s is not a valid wav file", d.Path)
	}
	if int(dec.SampleRate) != sampleRate || int(dec.NumChans) != channels {
		f.Close()
		return nil, fmt.Errorf("format mismatch: file is %d Hz/%d ch, requested %d Hz/%d ch",
			dec.SampleRate, dec.NumChans, sampleRate, channels)
	}

	return &fileStream{
		file:     f,
		dec:      dec,
		depth:    int(dec.BitDepth),
		rate:     sampleRate,
		channels: channels,
		paced:    d.Paced,
		closed:   make(chan struct{}),
	}, nil
}

type fileStream struct {
	file     *os.File
	dec      *wav.Decoder
	depth    int
	rate     int
	channels int
	paced    bool

	closeOnce sync.Once
	closed    chan struct{}
}

func (s *fileStream) Read(samples []int) (int, error) {
	select {
	case <-s.closed:
		return 0, os.ErrClosed
	default:
	}

	buf := &goaudio.IntBuffer{Data: samples}
	n, err := s.dec.PCMBuffer(buf)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}

	for i := 0; i < n; i++ {
		samples[i] = to16(samples[i], s.depth)
	}

	if s.paced {
		wait := time.Duration(float64(n/s.channels) / float64(s.rate) * float64(time.Second))
		select {
		case <-time.After(wait):
		case <-s.closed:
			return n, os.ErrClosed
		}
	}
	return n, nil
}

func (s *fileStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.file.Close()
	})
	return err
}

// to16 rescales a PCM sample of the given bit depth to signed 16-bit
func to16(v, depth int) int {
	switch depth {
	case 8:
		return (v - 128) << 8
	case 24:
		return v >> 8
	case 32:
		return v >> 16
	default:
		return v
	}
}
