// Package audiofile reads WAV, FLAC and MP3 files as interleaved float32
// PCM and writes 16-bit WAV files.
package audiofile

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for file extensions with no decoder.
var ErrUnsupportedFormat = errors.New("audiofile: unsupported format")

// Reader yields interleaved samples in [-1, 1].
type Reader interface {
	// ReadFrames fills dst with whole frames (one sample per channel) and
	// returns the number of frames read. It returns io.EOF once no frames
	// remain.
	ReadFrames(dst []float32) (int, error)

	SampleRate() int
	Channels() int

	// Frames returns the total number of frames, or 0 when unknown.
	Frames() int64

	Close() error
}

// Open picks a decoder by file extension.
func Open(path string) (Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return OpenWAV(path)
	case ".flac":
		return OpenFLAC(path)
	case ".mp3":
		return OpenMP3(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Remix converts interleaved samples between channel counts: many to one by
// averaging, one to many by copying.
func Remix(in []float32, from, to int) ([]float32, error) {
	if from == to {
		return in, nil
	}
	if from < 1 || to < 1 || len(in)%from != 0 {
		return nil, fmt.Errorf("audiofile: cannot remix %d samples from %d to %d channels", len(in), from, to)
	}
	frames := len(in) / from
	out := make([]float32, frames*to)
	switch {
	case to == 1:
		for i := range frames {
			var sum float32
			for _, s := range in[i*from : (i+1)*from] {
				sum += s
			}
			out[i] = sum / float32(from)
		}
	case from == 1:
		for i, s := range in {
			for ch := range to {
				out[i*to+ch] = s
			}
		}
	default:
		return nil, fmt.Errorf("audiofile: cannot remix from %d to %d channels", from, to)
	}
	return out, nil
}
