// stream_test.go contains tests for the chunk stream adapters.

package gocelt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

// sliceChunkSource implements ChunkSource for testing.
type sliceChunkSource struct {
	chunks [][]byte
	index  int
}

func (s *sliceChunkSource) NextChunk() ([]byte, error) {
	if s.index >= len(s.chunks) {
		return nil, io.EOF
	}
	c := s.chunks[s.index]
	s.index++
	return c, nil
}

func int16Chunk(pcm []int16) []byte {
	b := make([]byte, len(pcm)*2)
	putInt16LE(b, pcm)
	return b
}

func TestParseSampleFormat(t *testing.T) {
	for in, want := range map[string]SampleFormat{"Int16": FormatInt16LE, "Float32": FormatFloat32LE} {
		got, err := ParseSampleFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseSampleFormat(%q) = %v, %v", in, got, err)
		}
		if got.String() != in {
			t.Errorf("%v.String() = %q", got, got.String())
		}
	}
	for _, in := range []string{"", "int16", "Int8", "Float64", "pcm"} {
		_, err := ParseSampleFormat(in)
		var me *ModeError
		if !errors.As(err, &me) || me.Value != in || !errors.Is(err, ErrMode) {
			t.Errorf("ParseSampleFormat(%q): got %v, want ModeError", in, err)
		}
	}
}

func TestNewStream_RejectsInvalidFormat(t *testing.T) {
	eng := &fakeEngine{}
	enc, _ := NewEncoder(DefaultConfig(), WithEngine(eng))
	dec, _ := NewDecoder(DefaultConfig(), WithEngine(eng))
	for _, f := range []SampleFormat{0, 3, -1} {
		if _, err := NewEncodeStream(enc, f, 0); !errors.Is(err, ErrMode) {
			t.Errorf("NewEncodeStream(%d): %v", f, err)
		}
		if _, err := NewDecodeStream(dec, f); !errors.Is(err, ErrMode) {
			t.Errorf("NewDecodeStream(%d): %v", f, err)
		}
	}
	if eng.calls != 0 {
		t.Fatalf("engine called %d times", eng.calls)
	}
}

func TestStream_OneChunkPerFrame(t *testing.T) {
	cfg := DefaultConfig()
	enc, err := NewEncoder(cfg)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := NewDecoder(cfg)
	if err != nil {
		t.Fatal(err)
	}
	es, err := NewEncodeStream(enc, FormatInt16LE, 0)
	if err != nil {
		t.Fatal(err)
	}
	ds, err := NewDecodeStream(dec, FormatInt16LE)
	if err != nil {
		t.Fatal(err)
	}

	const n = 12
	src := &sliceChunkSource{}
	for f := 0; f < n; f++ {
		src.chunks = append(src.chunks, int16Chunk(generateSineWaveInt16(48000, 440, 256, 1, f*256)))
	}
	packets := &SliceSink{}
	if err := es.Run(context.Background(), src, packets); err != nil {
		t.Fatalf("encode run: %v", err)
	}
	if len(packets.Chunks) != n {
		t.Fatalf("%d packets from %d chunks", len(packets.Chunks), n)
	}
	for i, p := range packets.Chunks {
		if len(p) == 0 || len(p) > DefaultPacketSize {
			t.Fatalf("packet %d: %d bytes", i, len(p))
		}
	}

	// Drop packet 5.
	packets.Chunks[5] = []byte{}
	pcm := &SliceSink{}
	if err := ds.Run(context.Background(), &sliceChunkSource{chunks: packets.Chunks}, pcm); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if len(pcm.Chunks) != n {
		t.Fatalf("%d frames from %d packets", len(pcm.Chunks), n)
	}
	for i, c := range pcm.Chunks {
		if len(c) != 256*2 {
			t.Fatalf("frame %d: %d bytes", i, len(c))
		}
	}
	if es.State() != StateReady || ds.State() != StateReady {
		t.Fatalf("states %v/%v after clean run", es.State(), ds.State())
	}
}

func TestStream_PreservesOrder(t *testing.T) {
	eng := &fakeEngine{}
	dec, _ := NewDecoder(DefaultConfig(), WithEngine(eng))
	ds, _ := NewDecodeStream(dec, FormatFloat32LE)

	// The fake decoder fills each frame with len(packet)/100.
	src := &sliceChunkSource{}
	for i := 0; i < 20; i++ {
		src.chunks = append(src.chunks, make([]byte, i))
	}
	out := &SliceSink{}
	if err := ds.Run(context.Background(), src, out); err != nil {
		t.Fatal(err)
	}
	for i, c := range out.Chunks {
		got := make([]float32, 256)
		getFloat32LE(got, c)
		if got[0] != float32(i)/100 {
			t.Fatalf("chunk %d carries %g", i, got[0])
		}
	}
}

func TestStream_FaultedIsTerminal(t *testing.T) {
	eng := &fakeEngine{failOnCall: 3, failWith: errInjected}
	enc, _ := NewEncoder(DefaultConfig(), WithEngine(eng))
	es, _ := NewEncodeStream(enc, FormatFloat32LE, 100)

	chunk := make([]byte, 256*4)
	for i := 0; i < 2; i++ {
		if _, err := es.Transform(chunk); err != nil {
			t.Fatalf("chunk %d: %v", i, err)
		}
	}
	_, first := es.Transform(chunk)
	if !errors.Is(first, ErrStreamFaulted) || !errors.Is(first, ErrEncode) || !errors.Is(first, errInjected) {
		t.Fatalf("fault error %v does not carry its cause", first)
	}
	if es.State() != StateFaulted || es.Err() != first {
		t.Fatalf("state %v err %v", es.State(), es.Err())
	}

	calls := eng.calls
	for i := 0; i < 3; i++ {
		_, err := es.Transform(chunk)
		if err != first {
			t.Fatalf("later call returned %v, want the first error", err)
		}
	}
	if eng.calls != calls {
		t.Fatalf("faulted stream called the engine %d more times", eng.calls-calls)
	}
}

func TestStream_SizeErrorFaults(t *testing.T) {
	eng := &fakeEngine{}
	enc, _ := NewEncoder(DefaultConfig(), WithEngine(eng))
	es, _ := NewEncodeStream(enc, FormatInt16LE, 0)

	_, err := es.Transform(make([]byte, 100))
	var se *SizeError
	if !errors.As(err, &se) || se.Got != 100 || se.Want != 512 || !se.Bytes {
		t.Fatalf("got %v, want SizeError 100/512 bytes", err)
	}
	if _, err := es.Transform(make([]byte, 512)); !errors.Is(err, ErrSize) {
		t.Fatalf("valid chunk after fault: %v", err)
	}
	if eng.calls != 0 {
		t.Fatalf("engine called %d times", eng.calls)
	}
}

func TestRunStream_ChannelsAndContext(t *testing.T) {
	eng := &fakeEngine{}
	enc, _ := NewEncoder(DefaultConfig(), WithEngine(eng))
	es, _ := NewEncodeStream(enc, FormatInt16LE, 0)

	in := make(chan []byte)
	out := make(chan []byte)
	done := make(chan error, 1)
	go func() {
		done <- es.Run(context.Background(), ChanSource(in), ChanSink(out))
		close(out)
	}()
	go func() {
		for i := 0; i < 4; i++ {
			in <- make([]byte, 512)
		}
		close(in)
	}()
	var got int
	for p := range out {
		if !bytes.Equal(p, []byte{1, 2, 3}) {
			t.Fatalf("packet %v", p)
		}
		got++
	}
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if got != 4 {
		t.Fatalf("%d packets, want 4", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &sliceChunkSource{chunks: [][]byte{make([]byte, 512)}}
	if err := es.Run(ctx, src, &SliceSink{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled run: %v", err)
	}
	if src.index != 0 {
		t.Fatal("cancelled run pulled a chunk")
	}
}

func TestStream_SizeErrorReportsBytes(t *testing.T) {
	enc, _ := NewEncoder(DefaultConfig(), WithEngine(&fakeEngine{}))
	es, _ := NewEncodeStream(enc, FormatInt16LE, 0)

	_, err := es.Transform(make([]byte, 511))
	var se *SizeError
	if !errors.As(err, &se) || se.Got != 511 || se.Want != 512 {
		t.Fatalf("got %v, want SizeError 511/512", err)
	}
	if want := "gocelt: chunk has 511 bytes, want 512"; err.Error() != want {
		t.Fatalf("message %q, want %q", err.Error(), want)
	}
}

func TestRunStream_ContextChannels(t *testing.T) {
	enc, _ := NewEncoder(DefaultConfig(), WithEngine(&fakeEngine{}))
	es, _ := NewEncodeStream(enc, FormatInt16LE, 0)

	// Nobody sends on in; cancelling must end the blocked read.
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan []byte)
	done := make(chan error, 1)
	go func() { done <- es.Run(ctx, ContextSource{Ctx: ctx, C: in}, &SliceSink{}) }()
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("blocked source: %v", err)
	}

	// Nobody receives on out; cancelling must end the blocked send.
	es2, _ := NewEncodeStream(enc, FormatInt16LE, 0)
	ctx2, cancel2 := context.WithCancel(context.Background())
	out := make(chan []byte)
	src := &sliceChunkSource{chunks: [][]byte{make([]byte, 512)}}
	go func() { done <- es2.Run(ctx2, src, ContextSink{Ctx: ctx2, C: out}) }()
	cancel2()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("blocked sink: %v", err)
	}

	closed := ContextSource{Ctx: context.Background(), C: closedChan()}
	if _, err := closed.NextChunk(); err != io.EOF {
		t.Fatalf("closed channel: %v", err)
	}
}

func closedChan() <-chan []byte {
	c := make(chan []byte)
	close(c)
	return c
}

type failingSink struct{}

func (failingSink) WriteChunk([]byte) error { return io.ErrClosedPipe }

func TestNewWriter(t *testing.T) {
	eng := &fakeEngine{}
	dec, _ := NewDecoder(DefaultConfig(), WithEngine(eng))
	ds, _ := NewDecodeStream(dec, FormatInt16LE)

	sink := &SliceSink{}
	w := NewWriter(ds, sink)
	for i := 0; i < 3; i++ {
		n, err := w.Write([]byte{9, 9})
		if err != nil || n != 2 {
			t.Fatalf("write %d: n=%d err=%v", i, n, err)
		}
	}
	if len(sink.Chunks) != 3 {
		t.Fatalf("%d chunks, want 3", len(sink.Chunks))
	}

	w = NewWriter(ds, failingSink{})
	if _, err := w.Write(nil); !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("sink error: %v", err)
	}
	if ds.State() != StateReady {
		t.Fatal("sink failure faulted the stream")
	}
}
