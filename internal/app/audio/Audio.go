package audio

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"

	apperrors "audio-sessions/internal/app/errors"
	"audio-sessions/internal/app/model"
)

// Probe reads duration, sample rate and channels of an existing audio file.
// WAV files are decoded in-process, other formats go through ffprobe.
func Probe(filePath string) (*model.AudioArtifact, error) {
	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		return nil, apperrors.ErrArtifactMissing.With(fmt.Errorf("%s", filePath))
	}

	if strings.EqualFold(filepath.Ext(filePath), ".wav") {
		if artifact, err := probeWav(filePath); err == nil {
			return artifact, nil
		}
	}
	return probeFFProbe(filePath)
}

func probeWav(filePath string) (*model.AudioArtifact, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid wav file: %s", filePath)
	}
	duration, err := dec.Duration()
	if err != nil {
		return nil, err
	}

	return &model.AudioArtifact{
		Path:        filePath,
		DurationSec: duration.Seconds(),
		SampleRate:  int(dec.SampleRate),
		Channels:    int(dec.NumChans),
	}, nil
}

func probeFFProbe(filePath string) (*model.AudioArtifact, error) {
	cmd := exec.Command("ffprobe", "-v", "quiet", "-print_format", "json", "-show_streams", "-show_format", filePath)
	output, err := cmd.Output()
	if err != nil {
		return nil, apperrors.ErrInvalidArtifact.With(fmt.Errorf("ffprobe %s: %w", filePath, err))
	}
	return parseProbeOutput(filePath, output)
}

func parseProbeOutput(filePath string, output []byte) (*model.AudioArtifact, error) {
	var probeOutput model.FFProbeOutput
	if err := json.Unmarshal(output, &probeOutput); err != nil {
		return nil, apperrors.ErrInvalidArtifact.With(err)
	}

	idx := probeOutput.AudioStreamIndex()
	if idx < 0 {
		return nil, apperrors.ErrInvalidArtifact.Withf("%s has no audio stream", filePath)
	}
	stream := probeOutput.Streams[idx]

	return &model.AudioArtifact{
		Path:        filePath,
		DurationSec: probeOutput.Format.Duration,
		SampleRate:  stream.SampleRate,
		Channels:    stream.Channels,
	}, nil
}
