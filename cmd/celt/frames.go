package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/thesyncim/gocelt/internal/audiofile"
)

// frameSource cuts an audio file into frames of a fixed size, remixed to
// the output channel count. The last frame is zero padded and followed by
// one silent frame that flushes the codec delay.
type frameSource struct {
	r         audiofile.Reader
	channels  int
	frameSize int
	buf       []float32
	eof       bool
	flushed   bool
	read      int64
}

func newFrameSource(r audiofile.Reader, channels, frameSize int) *frameSource {
	return &frameSource{
		r:         r,
		channels:  channels,
		frameSize: frameSize,
		buf:       make([]float32, frameSize*r.Channels()),
	}
}

// totalFrames returns the number of codec frames the file produces, or 0
// when the length is unknown.
func (s *frameSource) totalFrames() int64 {
	n := s.r.Frames()
	if n <= 0 {
		return 0
	}
	return (n+int64(s.frameSize)-1)/int64(s.frameSize) + 1
}

// inputFrames returns the samples per channel read from the file so far.
func (s *frameSource) inputFrames() int64 { return s.read }

// next returns one frame of interleaved samples, or io.EOF. The slice is
// valid until the following call.
func (s *frameSource) next() ([]float32, error) {
	in := s.r.Channels()
	if s.eof {
		if s.flushed {
			return nil, io.EOF
		}
		s.flushed = true
		clear(s.buf)
		return audiofile.Remix(s.buf, in, s.channels)
	}
	got := 0
	for got < s.frameSize {
		n, err := s.r.ReadFrames(s.buf[got*in:])
		got += n
		if errors.Is(err, io.EOF) {
			s.eof = true
			break
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, fmt.Errorf("reader returned no frames")
		}
	}
	s.read += int64(got)
	if got == 0 {
		return s.next()
	}
	clear(s.buf[got*in:])
	return audiofile.Remix(s.buf, in, s.channels)
}

// NextChunk serves frames as little-endian float32 chunks.
func (s *frameSource) NextChunk() ([]byte, error) {
	frame, err := s.next()
	if err != nil {
		return nil, err
	}
	b := make([]byte, len(frame)*4)
	for i, v := range frame {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(v))
	}
	return b, nil
}

func float32sFromLE(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out
}

// delayTrimmer writes decoded frames to a WAV file with the codec delay
// removed: it drops the first skip frames and holds the latest frame back
// until Finish, when the number of frames to keep is known.
type delayTrimmer struct {
	w        *audiofile.WAVWriter
	channels int
	skip     int64
	written  int64
	held     []float32
	hasHeld  bool
}

func newDelayTrimmer(w *audiofile.WAVWriter, channels, skip int) *delayTrimmer {
	return &delayTrimmer{w: w, channels: channels, skip: int64(skip)}
}

func (t *delayTrimmer) Write(pcm []float32) error {
	if t.hasHeld {
		if err := t.emit(t.held, -1); err != nil {
			return err
		}
	}
	t.held = append(t.held[:0], pcm...)
	t.hasHeld = true
	return nil
}

// Finish writes the held frame so that at most limit frames are written in
// total. A negative limit keeps everything.
func (t *delayTrimmer) Finish(limit int64) error {
	if !t.hasHeld {
		return nil
	}
	t.hasHeld = false
	return t.emit(t.held, limit)
}

func (t *delayTrimmer) emit(pcm []float32, limit int64) error {
	ch := int64(t.channels)
	frames := int64(len(pcm)) / ch
	if t.skip > 0 {
		n := min(t.skip, frames)
		pcm = pcm[n*ch:]
		t.skip -= n
		frames -= n
	}
	if limit >= 0 {
		frames = max(0, min(frames, limit-t.written))
		pcm = pcm[:frames*ch]
	}
	if frames == 0 {
		return nil
	}
	t.written += frames
	return t.w.Write(pcm)
}
