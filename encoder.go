// encoder.go implements the encoding session.

package gocelt

import (
	"errors"
	"runtime"
)

// Encoder turns fixed-size PCM frames into CELT packets.
//
// An Encoder owns exactly one engine handle and is NOT safe for concurrent
// use. Frames must be encoded in stream order; each call advances the
// engine's predictive state.
type Encoder struct {
	cfg         Config
	handle      EncoderHandle
	releaseMode func() error
	frames      *frameAdapter
	lookahead   int
}

// NewEncoder validates cfg and creates an encoder with one engine handle.
//
// Invalid configuration returns a *ConfigError before any engine resource
// is allocated. An engine failure returns an *EngineError; a mode created
// for the encoder is released before returning.
func NewEncoder(cfg Config, opts ...Option) (*Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	mode, releaseMode, err := o.acquireMode(cfg)
	if err != nil {
		return nil, &EngineError{Op: "mode create", Err: err}
	}
	h, err := mode.NewEncoder(cfg.Channels)
	if err != nil {
		return nil, &EngineError{Op: "encoder create", Err: errors.Join(err, releaseMode())}
	}

	e := &Encoder{
		cfg:         cfg,
		handle:      h,
		releaseMode: releaseMode,
		frames:      newFrameAdapter(cfg.FrameSamples()),
		lookahead:   modeLookahead(mode, cfg),
	}
	if cfg.ResourceMode == Automatic {
		runtime.SetFinalizer(e, (*Encoder).destroy)
	}
	return e, nil
}

// Config returns the encoder configuration.
func (e *Encoder) Config() Config { return e.cfg }

// Lookahead returns the codec delay in samples per channel: decoded output
// lags the encoder input by this much, so a stream needs that many samples
// of trailing input to be fully decoded.
func (e *Encoder) Lookahead() int { return e.lookahead }

// FrameSamples returns the required frame length in interleaved samples.
func (e *Encoder) FrameSamples() int { return e.frames.samples }

// EncodeInt16 encodes one frame of 16-bit samples. The packet is at most
// targetPacketSize bytes (clamped to MaxPacketSize).
func (e *Encoder) EncodeInt16(pcm []int16, targetPacketSize int) ([]byte, error) {
	if err := e.frames.checkLen(len(pcm)); err != nil {
		return nil, err
	}
	buf := e.frames.getPCM()
	defer e.frames.putPCM(buf)
	int16sToFloat32s(*buf, pcm)
	return e.encode(*buf, targetPacketSize)
}

// EncodeFloat32 encodes one frame of float samples in [-1, 1].
func (e *Encoder) EncodeFloat32(pcm []float32, targetPacketSize int) ([]byte, error) {
	if err := e.frames.checkLen(len(pcm)); err != nil {
		return nil, err
	}
	return e.encode(pcm, targetPacketSize)
}

func (e *Encoder) encode(pcm []float32, target int) ([]byte, error) {
	ref, pkt := getPacket(packetCapacity(target))
	defer putPacket(ref)

	n, err := e.handle.Encode(pcm, pkt)
	runtime.KeepAlive(e)
	if err != nil {
		return nil, &EncodeError{Err: err}
	}
	out := make([]byte, n)
	copy(out, pkt[:n])
	return out, nil
}

// Release destroys the engine handle of a manual-mode encoder.
//
// Release must be called exactly once. Calling it again, or using the
// encoder afterwards, is a caller error; the engine reports it as an
// invalid state rather than ignoring it.
func (e *Encoder) Release() error {
	if e.cfg.ResourceMode != Manual {
		return ErrNotManual
	}
	if err := e.destroy(); err != nil {
		return &EngineError{Op: "encoder release", Err: err}
	}
	return nil
}

func (e *Encoder) destroy() error {
	return errors.Join(e.handle.Destroy(), e.releaseMode())
}
