package audiofile

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVReader decodes integer PCM WAV files.
type WAVReader struct {
	decoder  *wav.Decoder
	closer   io.Closer
	rate     int
	channels int
	scale    float32
	buf      *audio.IntBuffer
	frames   int64
}

// OpenWAV opens a WAV file.
func OpenWAV(path string) (*WAVReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewWAVReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewWAVReader decodes WAV from rs. Closing the reader does not close rs.
func NewWAVReader(rs io.ReadSeeker) (*WAVReader, error) {
	d := wav.NewDecoder(rs)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("audiofile: invalid WAV file")
	}
	if err := d.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("audiofile: failed to seek to PCM data: %w", err)
	}
	if d.NumChans == 0 || d.BitDepth == 0 {
		return nil, fmt.Errorf("audiofile: WAV declares %d channels at %d bits", d.NumChans, d.BitDepth)
	}
	r := &WAVReader{
		decoder:  d,
		rate:     int(d.SampleRate),
		channels: int(d.NumChans),
		scale:    1 / float32(audio.IntMaxSignedValue(int(d.BitDepth))+1),
	}
	if d.PCMSize > 0 {
		r.frames = int64(d.PCMSize) / int64(d.NumChans) / int64(d.BitDepth/8)
	}
	return r, nil
}

func (r *WAVReader) ReadFrames(dst []float32) (int, error) {
	want := len(dst) / r.channels * r.channels
	if want == 0 {
		return 0, nil
	}
	if r.buf == nil || len(r.buf.Data) < want {
		r.buf = &audio.IntBuffer{
			Data:   make([]int, want),
			Format: &audio.Format{NumChannels: r.channels, SampleRate: r.rate},
		}
	}
	r.buf.Data = r.buf.Data[:want]
	n, err := r.decoder.PCMBuffer(r.buf)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("audiofile: failed to read PCM buffer: %w", err)
	}
	n -= n % r.channels
	if n == 0 {
		return 0, io.EOF
	}
	for i, v := range r.buf.Data[:n] {
		dst[i] = float32(v) * r.scale
	}
	return n / r.channels, nil
}

func (r *WAVReader) SampleRate() int { return r.rate }
func (r *WAVReader) Channels() int   { return r.channels }
func (r *WAVReader) Frames() int64   { return r.frames }

func (r *WAVReader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// WAVWriter writes 16-bit PCM WAV.
type WAVWriter struct {
	encoder  *wav.Encoder
	closer   io.Closer
	channels int
	rate     int
	buf      []int
	frames   int64
}

// CreateWAV creates or truncates path.
func CreateWAV(path string, sampleRate, channels int) (*WAVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := NewWAVWriter(f, sampleRate, channels)
	w.closer = f
	return w, nil
}

// NewWAVWriter writes WAV to ws. Close finalizes the header but does not
// close ws.
func NewWAVWriter(ws io.WriteSeeker, sampleRate, channels int) *WAVWriter {
	return &WAVWriter{
		encoder:  wav.NewEncoder(ws, sampleRate, 16, channels, 1),
		channels: channels,
		rate:     sampleRate,
	}
}

// Write appends interleaved samples, clamping to the 16-bit range.
func (w *WAVWriter) Write(samples []float32) error {
	if len(samples)%w.channels != 0 {
		return fmt.Errorf("audiofile: %d samples is not a whole number of %d-channel frames", len(samples), w.channels)
	}
	w.buf = w.buf[:0]
	for _, s := range samples {
		v := math.RoundToEven(float64(s) * 32768)
		w.buf = append(w.buf, int(max(-32768, min(32767, v))))
	}
	err := w.encoder.Write(&audio.IntBuffer{
		Data:           w.buf,
		Format:         &audio.Format{NumChannels: w.channels, SampleRate: w.rate},
		SourceBitDepth: 16,
	})
	if err != nil {
		return err
	}
	w.frames += int64(len(samples) / w.channels)
	return nil
}

// Frames returns the number of frames written.
func (w *WAVWriter) Frames() int64 { return w.frames }

func (w *WAVWriter) Close() error {
	err := w.encoder.Close()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
