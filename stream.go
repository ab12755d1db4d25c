// stream.go implements the chunk stream adapters around encode and decode
// sessions.

package gocelt

import (
	"context"
	"errors"
	"io"
)

// Stream adapters
//
// EncodeStream and DecodeStream map exactly one inbound chunk to exactly
// one outbound chunk, with no buffering across chunks:
//
//	enc, _ := gocelt.NewEncoder(gocelt.DefaultConfig())
//	s, err := gocelt.NewEncodeStream(enc, gocelt.FormatInt16LE, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	packet, err := s.Transform(pcmBytes) // one frame of int16 LE samples
//
// On the decode side an empty chunk stands for a lost packet.
//
// The first failure moves a stream to StateFaulted. A faulted stream
// never calls its session again; every later call returns the same error,
// which matches ErrStreamFaulted and wraps the original cause.
//
// Run drives a stream from a ChunkSource into a ChunkSink, and NewWriter
// exposes it as an io.Writer where every Write is one chunk.

// DefaultPacketSize is the packet ceiling used when a stream is built with
// a target of 0.
const DefaultPacketSize = 960

// SampleFormat is the sample representation a stream commits to.
type SampleFormat int

const (
	// FormatInt16LE is 16-bit signed integer, little-endian (2 bytes per sample).
	FormatInt16LE SampleFormat = iota + 1
	// FormatFloat32LE is 32-bit float, little-endian (4 bytes per sample).
	FormatFloat32LE
)

// ParseSampleFormat parses "Int16" or "Float32". Any other value returns a
// *ModeError.
func ParseSampleFormat(s string) (SampleFormat, error) {
	switch s {
	case "Int16":
		return FormatInt16LE, nil
	case "Float32":
		return FormatFloat32LE, nil
	default:
		return 0, &ModeError{Value: s}
	}
}

func (f SampleFormat) String() string {
	switch f {
	case FormatInt16LE:
		return "Int16"
	case FormatFloat32LE:
		return "Float32"
	default:
		return "invalid"
	}
}

// BytesPerSample returns the encoded width of one sample, or 0 for an
// invalid format.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case FormatInt16LE:
		return 2
	case FormatFloat32LE:
		return 4
	default:
		return 0
	}
}

func (f SampleFormat) check() error {
	if f.BytesPerSample() == 0 {
		return &ModeError{Value: f.String()}
	}
	return nil
}

// StreamState is the state of a stream adapter.
type StreamState int

const (
	StateReady StreamState = iota
	StateFaulted
)

func (s StreamState) String() string {
	if s == StateFaulted {
		return "faulted"
	}
	return "ready"
}

// ChunkSource yields inbound chunks. It returns io.EOF after the last one.
type ChunkSource interface {
	NextChunk() ([]byte, error)
}

// ChunkSink receives outbound chunks.
type ChunkSink interface {
	WriteChunk(chunk []byte) error
}

// Transformer is the common surface of EncodeStream and DecodeStream.
type Transformer interface {
	Transform(chunk []byte) ([]byte, error)
	State() StreamState
	Err() error
}

type streamCore struct {
	state StreamState
	err   error
}

func (c *streamCore) apply(chunk []byte, f func([]byte) ([]byte, error)) ([]byte, error) {
	if c.state == StateFaulted {
		return nil, c.err
	}
	out, err := f(chunk)
	if err != nil {
		c.state = StateFaulted
		c.err = &faultError{err: err}
		return nil, c.err
	}
	return out, nil
}

// State reports whether the stream can still process chunks.
func (c *streamCore) State() StreamState { return c.state }

// Err returns the error that faulted the stream, or nil.
func (c *streamCore) Err() error { return c.err }

// EncodeStream turns PCM chunks of exactly one frame into packets.
type EncodeStream struct {
	streamCore
	enc    *Encoder
	format SampleFormat
	target int
	i16    []int16
	f32    []float32
}

// NewEncodeStream wraps enc. format must be FormatInt16LE or
// FormatFloat32LE; targetPacketSize 0 selects DefaultPacketSize.
func NewEncodeStream(enc *Encoder, format SampleFormat, targetPacketSize int) (*EncodeStream, error) {
	if err := format.check(); err != nil {
		return nil, err
	}
	if targetPacketSize == 0 {
		targetPacketSize = DefaultPacketSize
	}
	s := &EncodeStream{enc: enc, format: format, target: targetPacketSize}
	switch format {
	case FormatInt16LE:
		s.i16 = make([]int16, enc.FrameSamples())
	case FormatFloat32LE:
		s.f32 = make([]float32, enc.FrameSamples())
	}
	return s, nil
}

// Format returns the committed sample representation.
func (s *EncodeStream) Format() SampleFormat { return s.format }

// Transform encodes one chunk. The chunk must hold exactly one frame.
func (s *EncodeStream) Transform(chunk []byte) ([]byte, error) {
	return s.apply(chunk, s.encode)
}

func (s *EncodeStream) encode(chunk []byte) ([]byte, error) {
	bps := s.format.BytesPerSample()
	want := s.enc.FrameSamples() * bps
	if len(chunk) != want {
		return nil, &SizeError{Got: len(chunk), Want: want, Bytes: true}
	}
	if s.format == FormatInt16LE {
		getInt16LE(s.i16, chunk)
		return s.enc.EncodeInt16(s.i16, s.target)
	}
	getFloat32LE(s.f32, chunk)
	return s.enc.EncodeFloat32(s.f32, s.target)
}

// Run transforms every chunk from src into dst. See RunStream.
func (s *EncodeStream) Run(ctx context.Context, src ChunkSource, dst ChunkSink) error {
	return RunStream(ctx, s, src, dst)
}

// DecodeStream turns packets into PCM chunks of exactly one frame.
type DecodeStream struct {
	streamCore
	dec    *Decoder
	format SampleFormat
}

// NewDecodeStream wraps dec. format must be FormatInt16LE or
// FormatFloat32LE.
func NewDecodeStream(dec *Decoder, format SampleFormat) (*DecodeStream, error) {
	if err := format.check(); err != nil {
		return nil, err
	}
	return &DecodeStream{dec: dec, format: format}, nil
}

// Format returns the committed sample representation.
func (s *DecodeStream) Format() SampleFormat { return s.format }

// Transform decodes one packet. An empty chunk is a lost packet.
func (s *DecodeStream) Transform(chunk []byte) ([]byte, error) {
	return s.apply(chunk, s.decode)
}

func (s *DecodeStream) decode(chunk []byte) ([]byte, error) {
	if len(chunk) == 0 {
		chunk = nil
	}
	if s.format == FormatInt16LE {
		pcm, err := s.dec.DecodeInt16(chunk)
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(pcm)*2)
		putInt16LE(out, pcm)
		return out, nil
	}
	pcm, err := s.dec.DecodeFloat32(chunk)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(pcm)*4)
	putFloat32LE(out, pcm)
	return out, nil
}

// Run transforms every chunk from src into dst. See RunStream.
func (s *DecodeStream) Run(ctx context.Context, src ChunkSource, dst ChunkSink) error {
	return RunStream(ctx, s, src, dst)
}

// RunStream pulls one chunk at a time from src, transforms it with t and
// pushes the result to dst before pulling the next. It returns nil when
// src reports io.EOF, the context error when ctx is done between chunks,
// and otherwise the first source, transform or sink error.
func RunStream(ctx context.Context, t Transformer, src ChunkSource, dst ChunkSink) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk, err := src.NextChunk()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		out, err := t.Transform(chunk)
		if err != nil {
			return err
		}
		if err := dst.WriteChunk(out); err != nil {
			return err
		}
	}
}

// NewWriter returns an io.Writer over t: each Write is one chunk whose
// result goes to dst.
func NewWriter(t Transformer, dst ChunkSink) io.Writer {
	return &chunkWriter{t: t, dst: dst}
}

type chunkWriter struct {
	t   Transformer
	dst ChunkSink
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	out, err := w.t.Transform(p)
	if err != nil {
		return 0, err
	}
	if err := w.dst.WriteChunk(out); err != nil {
		return 0, err
	}
	return len(p), nil
}

// ChanSource reads chunks from a channel until it is closed. NextChunk
// blocks on the channel and does not watch the stream's context; RunStream
// only checks ctx between chunks. Use ContextSource when a cancelled
// context must interrupt the wait.
type ChanSource <-chan []byte

// NextChunk implements ChunkSource.
func (c ChanSource) NextChunk() ([]byte, error) {
	chunk, ok := <-c
	if !ok {
		return nil, io.EOF
	}
	return chunk, nil
}

// ChanSink sends chunks on a channel. An unbuffered channel makes every
// chunk wait for its consumer, without watching any context. Use
// ContextSink when the consumer may go away.
type ChanSink chan<- []byte

// WriteChunk implements ChunkSink.
func (c ChanSink) WriteChunk(chunk []byte) error {
	c <- chunk
	return nil
}

// ContextSource is a ChanSource whose wait ends with ctx.Err() once ctx
// is done.
type ContextSource struct {
	Ctx context.Context
	C   <-chan []byte
}

// NextChunk implements ChunkSource.
func (c ContextSource) NextChunk() ([]byte, error) {
	select {
	case chunk, ok := <-c.C:
		if !ok {
			return nil, io.EOF
		}
		return chunk, nil
	case <-c.Ctx.Done():
		return nil, c.Ctx.Err()
	}
}

// ContextSink is a ChanSink whose send gives up with ctx.Err() once ctx
// is done.
type ContextSink struct {
	Ctx context.Context
	C   chan<- []byte
}

// WriteChunk implements ChunkSink.
func (c ContextSink) WriteChunk(chunk []byte) error {
	select {
	case c.C <- chunk:
		return nil
	case <-c.Ctx.Done():
		return c.Ctx.Err()
	}
}

// SliceSink collects chunks in memory.
type SliceSink struct {
	Chunks [][]byte
}

// WriteChunk implements ChunkSink.
func (s *SliceSink) WriteChunk(chunk []byte) error {
	s.Chunks = append(s.Chunks, chunk)
	return nil
}
