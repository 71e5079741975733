package model

// FFProbeOutput is the subset of `ffprobe -print_format json -show_streams -show_format` we read.
type FFProbeOutput struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		SampleRate int    `json:"sample_rate,string"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
	Format struct {
		Duration float64 `json:"duration,string"`
	} `json:"format"`
}

// AudioStreamIndex returns the index of the first audio stream, or -1.
func (o FFProbeOutput) AudioStreamIndex() int {
	for i, s := range o.Streams {
		if s.CodecType == "audio" {
			return i
		}
	}
	return -1
}
