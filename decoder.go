// decoder.go implements the decoding session.

package gocelt

import (
	"errors"
	"runtime"
)

// Decoder turns CELT packets back into PCM frames.
//
// A Decoder owns exactly one engine handle and is NOT safe for concurrent
// use. Packets must be presented in the order they were produced, with a
// nil packet in place of every lost one. The decoder does not check that a
// packet came from an encoder with the same configuration.
type Decoder struct {
	cfg         Config
	handle      DecoderHandle
	releaseMode func() error
	frames      *frameAdapter
	lookahead   int
}

// NewDecoder validates cfg and creates a decoder with one engine handle.
// Errors follow NewEncoder.
func NewDecoder(cfg Config, opts ...Option) (*Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	mode, releaseMode, err := o.acquireMode(cfg)
	if err != nil {
		return nil, &EngineError{Op: "mode create", Err: err}
	}
	h, err := mode.NewDecoder(cfg.Channels)
	if err != nil {
		return nil, &EngineError{Op: "decoder create", Err: errors.Join(err, releaseMode())}
	}

	d := &Decoder{
		cfg:         cfg,
		handle:      h,
		releaseMode: releaseMode,
		frames:      newFrameAdapter(cfg.FrameSamples()),
		lookahead:   modeLookahead(mode, cfg),
	}
	if cfg.ResourceMode == Automatic {
		runtime.SetFinalizer(d, (*Decoder).destroy)
	}
	return d, nil
}

// Config returns the decoder configuration.
func (d *Decoder) Config() Config { return d.cfg }

// Lookahead returns the codec delay in samples per channel. The first
// Lookahead samples decoded from a stream precede its first input sample.
func (d *Decoder) Lookahead() int { return d.lookahead }

// FrameSamples returns the decoded frame length in interleaved samples.
func (d *Decoder) FrameSamples() int { return d.frames.samples }

// DecodeFloat32 decodes one packet. A nil or empty packet signals a lost
// frame: the engine conceals it and the result still has FrameSamples
// samples.
func (d *Decoder) DecodeFloat32(packet []byte) ([]float32, error) {
	out := make([]float32, d.frames.samples)
	if err := d.decode(packet, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeInt16 is DecodeFloat32 rounded to 16-bit samples with clipping.
func (d *Decoder) DecodeInt16(packet []byte) ([]int16, error) {
	buf := d.frames.getPCM()
	defer d.frames.putPCM(buf)
	if err := d.decode(packet, *buf); err != nil {
		return nil, err
	}
	out := make([]int16, d.frames.samples)
	float32sToInt16s(out, *buf)
	return out, nil
}

func (d *Decoder) decode(packet []byte, pcm []float32) error {
	err := d.handle.Decode(packet, pcm)
	runtime.KeepAlive(d)
	if err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

// Release destroys the engine handle of a manual-mode decoder. The same
// obligations as Encoder.Release apply.
func (d *Decoder) Release() error {
	if d.cfg.ResourceMode != Manual {
		return ErrNotManual
	}
	if err := d.destroy(); err != nil {
		return &EngineError{Op: "decoder release", Err: err}
	}
	return nil
}

func (d *Decoder) destroy() error {
	return errors.Join(d.handle.Destroy(), d.releaseMode())
}
