// engine.go defines the coder engine boundary and its default implementation.

package gocelt

import "github.com/thesyncim/gocelt/celt"

// Engine creates modes. A mode holds the tables for one sample rate and
// frame size; handles created from it hold all per-stream state.
//
// Errors returned by an engine are reported verbatim inside EngineError,
// EncodeError and DecodeError.
type Engine interface {
	NewMode(sampleRate, frameSize int) (ModeHandle, error)
}

// ModeHandle is an engine mode. It must outlive every handle created from
// it and is destroyed exactly once.
type ModeHandle interface {
	NewEncoder(channels int) (EncoderHandle, error)
	NewDecoder(channels int) (DecoderHandle, error)
	Destroy() error
}

// lookaheader is implemented by modes that report their algorithmic delay
// in samples per channel.
type lookaheader interface {
	Lookahead() int
}

// modeLookahead returns the delay of mode, assuming one frame when the
// mode does not report it.
func modeLookahead(mode ModeHandle, cfg Config) int {
	if l, ok := mode.(lookaheader); ok {
		return l.Lookahead()
	}
	return cfg.FrameSize
}

// EncoderHandle is one stateful encoding stream.
type EncoderHandle interface {
	// Encode compresses one frame of interleaved float samples into out
	// and returns the packet length. len(out) is the byte ceiling.
	Encode(pcm []float32, out []byte) (int, error)
	Destroy() error
}

// DecoderHandle is one stateful decoding stream.
type DecoderHandle interface {
	// Decode fills pcm with one frame. A nil or empty packet signals loss.
	Decode(packet []byte, pcm []float32) error
	Destroy() error
}

// DefaultEngine returns the pure-Go CELT engine.
func DefaultEngine() Engine {
	return celtEngine{}
}

type celtEngine struct{}

func (celtEngine) NewMode(sampleRate, frameSize int) (ModeHandle, error) {
	m, err := celt.NewMode(sampleRate, frameSize)
	if err != nil {
		return nil, err
	}
	return celtMode{m}, nil
}

type celtMode struct {
	m *celt.Mode
}

func (c celtMode) NewEncoder(channels int) (EncoderHandle, error) {
	e, err := celt.NewEncoder(c.m, channels)
	if err != nil {
		return nil, err
	}
	return celtEncoder{e}, nil
}

func (c celtMode) NewDecoder(channels int) (DecoderHandle, error) {
	d, err := celt.NewDecoder(c.m, channels)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (c celtMode) Lookahead() int { return c.m.Lookahead() }

func (c celtMode) Destroy() error { return c.m.Destroy() }

type celtEncoder struct {
	*celt.Encoder
}

func (c celtEncoder) Encode(pcm []float32, out []byte) (int, error) {
	return c.Encoder.Encode(pcm, len(out), out)
}
