package audiofile

import (
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
)

// FLACReader decodes FLAC files frame by frame.
type FLACReader struct {
	stream   *flac.Stream
	file     *os.File
	channels int
	scale    float32
	pending  []float32
}

// OpenFLAC opens a FLAC file.
func OpenFLAC(path string) (*FLACReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("audiofile: failed to create FLAC decoder: %w", err)
	}
	if stream.Info.NChannels == 0 {
		stream.Close()
		f.Close()
		return nil, fmt.Errorf("audiofile: FLAC declares no channels")
	}
	return &FLACReader{
		stream:   stream,
		file:     f,
		channels: int(stream.Info.NChannels),
		scale:    1 / float32(int64(1)<<(stream.Info.BitsPerSample-1)),
	}, nil
}

func (r *FLACReader) ReadFrames(dst []float32) (int, error) {
	want := len(dst) / r.channels * r.channels
	n := 0
	for n < want {
		if len(r.pending) == 0 {
			if err := r.parseFrame(); err != nil {
				if err == io.EOF {
					break
				}
				return 0, err
			}
			continue
		}
		c := copy(dst[n:want], r.pending)
		r.pending = r.pending[c:]
		n += c
	}
	if n == 0 && want > 0 {
		return 0, io.EOF
	}
	return n / r.channels, nil
}

// parseFrame decodes the next FLAC frame into pending, interleaved.
func (r *FLACReader) parseFrame() error {
	frame, err := r.stream.ParseNext()
	if err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("audiofile: failed to parse FLAC frame: %w", err)
	}
	if len(frame.Subframes) != r.channels {
		return fmt.Errorf("audiofile: FLAC frame has %d channels, stream has %d", len(frame.Subframes), r.channels)
	}
	samples := len(frame.Subframes[0].Samples)
	out := make([]float32, samples*r.channels)
	for ch, sub := range frame.Subframes {
		for i, v := range sub.Samples[:samples] {
			out[i*r.channels+ch] = float32(v) * r.scale
		}
	}
	r.pending = out
	return nil
}

func (r *FLACReader) SampleRate() int { return int(r.stream.Info.SampleRate) }
func (r *FLACReader) Channels() int   { return r.channels }
func (r *FLACReader) Frames() int64   { return int64(r.stream.Info.NSamples) }

func (r *FLACReader) Close() error {
	r.stream.Close()
	return r.file.Close()
}
