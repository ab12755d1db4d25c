// errors.go defines public error types for the gocelt package.

package gocelt

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every typed error below matches one of these with
// errors.Is, so callers can branch on the kind without a type switch.
var (
	// ErrConfig indicates an invalid session configuration.
	ErrConfig = errors.New("gocelt: invalid configuration")

	// ErrSize indicates a frame whose length is not frameSize * channels.
	ErrSize = errors.New("gocelt: invalid frame size")

	// ErrMode indicates an unknown stream sample representation.
	ErrMode = errors.New("gocelt: invalid sample representation")

	// ErrEngine indicates the engine failed to create a mode or handle.
	ErrEngine = errors.New("gocelt: engine initialization failed")

	// ErrEncode indicates the engine failed to encode a frame.
	ErrEncode = errors.New("gocelt: encode failed")

	// ErrDecode indicates the engine failed to decode a packet.
	ErrDecode = errors.New("gocelt: decode failed")

	// ErrNotManual is returned by Release on a session in automatic mode.
	ErrNotManual = errors.New("gocelt: release requires manual resource mode")

	// ErrStreamFaulted wraps the error that stopped a stream adapter.
	ErrStreamFaulted = errors.New("gocelt: stream faulted")
)

// ConfigError reports the first configuration field that failed validation.
type ConfigError struct {
	Field  string
	Value  int
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("gocelt: invalid %s %d: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// SizeError reports a frame of the wrong length. Got and Want count
// samples, or bytes when Bytes is set.
type SizeError struct {
	Got   int
	Want  int
	Bytes bool
}

func (e *SizeError) Error() string {
	if e.Bytes {
		return fmt.Sprintf("gocelt: chunk has %d bytes, want %d", e.Got, e.Want)
	}
	return fmt.Sprintf("gocelt: frame has %d samples, want %d", e.Got, e.Want)
}

func (e *SizeError) Is(target error) bool { return target == ErrSize }

// ModeError reports an unrecognized sample representation.
type ModeError struct {
	Value string
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("gocelt: unknown sample representation %q (want Int16 or Float32)", e.Value)
}

func (e *ModeError) Is(target error) bool { return target == ErrMode }

// EngineError reports an engine failure while building a session.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("gocelt: %s: %v", e.Op, e.Err)
}

func (e *EngineError) Is(target error) bool { return target == ErrEngine }
func (e *EngineError) Unwrap() error        { return e.Err }

// EncodeError carries the engine diagnostic of a failed encode.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("gocelt: encode: %v", e.Err)
}

func (e *EncodeError) Is(target error) bool { return target == ErrEncode }
func (e *EncodeError) Unwrap() error        { return e.Err }

// DecodeError carries the engine diagnostic of a failed decode.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("gocelt: decode: %v", e.Err)
}

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
func (e *DecodeError) Unwrap() error        { return e.Err }

// faultError wraps the error that moved a stream to Faulted.
type faultError struct {
	err error
}

func (e *faultError) Error() string {
	return fmt.Sprintf("gocelt: stream faulted: %v", e.err)
}

func (e *faultError) Is(target error) bool { return target == ErrStreamFaulted }
func (e *faultError) Unwrap() error        { return e.err }
