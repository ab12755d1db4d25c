// Package gocelt implements encode and decode sessions for the CELT
// low-delay audio codec in pure Go.
//
// CELT codes fixed-size frames of interleaved PCM into variable-length
// packets. Every session is a stateful stream: packets depend on the
// frames before them, so frames must be encoded and packets decoded in
// order, one session per stream.
//
// # Sessions
//
// A Config fixes the sample rate, frame size and channel count of a
// session for its lifetime:
//
//	enc, err := gocelt.NewEncoder(gocelt.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	packet, err := enc.EncodeInt16(frame, 960) // len(frame) == 256
//
//	dec, err := gocelt.NewDecoder(gocelt.DefaultConfig())
//	pcm, err := dec.DecodeInt16(packet)
//	pcm, err = dec.DecodeInt16(nil) // lost packet, concealed
//
// # Resource modes
//
// Each session owns one engine handle. In Automatic mode a finalizer
// destroys it once the session is unreachable. In Manual mode the caller
// must call Release exactly once and must not touch the session after.
// WithModePool lets sessions of the same rate and frame size share the
// engine's mode tables.
//
// # Errors
//
// Failures are typed (ConfigError, SizeError, ModeError, EngineError,
// EncodeError, DecodeError) and match the sentinels ErrConfig, ErrSize,
// ErrMode, ErrEngine, ErrEncode and ErrDecode with errors.Is. Engine
// failures wrap a *celt.Error carrying the engine status code.
//
// # Streams
//
// EncodeStream and DecodeStream adapt a session to byte chunks, one chunk
// per frame or packet, for use in network and file pipelines.
package gocelt
