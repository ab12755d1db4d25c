package audiofile

import (
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// MP3Reader decodes MP3 files. go-mp3 always produces 16-bit stereo.
type MP3Reader struct {
	decoder *mp3.Decoder
	file    *os.File
	buf     []byte
}

const mp3FrameBytes = 4

// OpenMP3 opens an MP3 file.
func OpenMP3(path string) (*MP3Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	d, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("audiofile: failed to create MP3 decoder: %w", err)
	}
	return &MP3Reader{decoder: d, file: f}, nil
}

func (r *MP3Reader) ReadFrames(dst []float32) (int, error) {
	frames := len(dst) / 2
	if frames == 0 {
		return 0, nil
	}
	if cap(r.buf) < frames*mp3FrameBytes {
		r.buf = make([]byte, frames*mp3FrameBytes)
	}
	buf := r.buf[:frames*mp3FrameBytes]
	n, err := io.ReadFull(r.decoder, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("audiofile: failed to read MP3 data: %w", err)
	}
	got := n / mp3FrameBytes
	if got == 0 {
		return 0, io.EOF
	}
	for i := range got * 2 {
		v := int16(uint16(buf[2*i]) | uint16(buf[2*i+1])<<8)
		dst[i] = float32(v) / 32768
	}
	return got, nil
}

func (r *MP3Reader) SampleRate() int { return r.decoder.SampleRate() }
func (r *MP3Reader) Channels() int   { return 2 }

func (r *MP3Reader) Frames() int64 {
	if n := r.decoder.Length(); n > 0 {
		return n / mp3FrameBytes
	}
	return 0
}

func (r *MP3Reader) Close() error { return r.file.Close() }
