package audio

// Device is an audio input that can be opened for capture.
type Device interface {
	Name() string
	Open(sampleRate, channels int) (InputStream, error)
}

// InputStream delivers interleaved 16-bit samples.
// Read blocks until samples are available. Close unblocks a pending Read.
type InputStream interface {
	Read(samples []int) (int, error)
	Close() error
}

// NativeFormatter is implemented by devices with a fixed format, such as files.
type NativeFormatter interface {
	NativeFormat() (sampleRate, channels int, err error)
}
