// engine_test.go provides a scripted engine for session and stream tests.

package gocelt

import (
	"errors"
	"sync"

	"github.com/thesyncim/gocelt/celt"
)

// fakeEngine counts live objects and fails on request. Encode writes a
// 3-byte packet; Decode fills the frame with the packet length.
type fakeEngine struct {
	mu sync.Mutex

	modes, encoders, decoders int
	modesCreated              int
	calls                     int

	failMode   error
	failHandle error
	failOnCall int // 1-based call index that fails, 0 for never
	failWith   error
}

type fakeMode struct {
	e         *fakeEngine
	destroyed bool
}

type fakeHandle struct {
	e         *fakeEngine
	decoder   bool
	destroyed bool
}

func (e *fakeEngine) NewMode(sampleRate, frameSize int) (ModeHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failMode != nil {
		return nil, e.failMode
	}
	e.modes++
	e.modesCreated++
	return &fakeMode{e: e}, nil
}

func (m *fakeMode) NewEncoder(channels int) (EncoderHandle, error) {
	return m.newHandle(false)
}

func (m *fakeMode) NewDecoder(channels int) (DecoderHandle, error) {
	return m.newHandle(true)
}

func (m *fakeMode) newHandle(decoder bool) (*fakeHandle, error) {
	e := m.e
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failHandle != nil {
		return nil, e.failHandle
	}
	if decoder {
		e.decoders++
	} else {
		e.encoders++
	}
	return &fakeHandle{e: e, decoder: decoder}, nil
}

func (m *fakeMode) Destroy() error {
	e := m.e
	e.mu.Lock()
	defer e.mu.Unlock()
	if m.destroyed {
		return &celt.Error{Op: "mode destroy", Status: celt.StatusInvalidState}
	}
	m.destroyed = true
	e.modes--
	return nil
}

func (h *fakeHandle) call() error {
	e := h.e
	e.mu.Lock()
	defer e.mu.Unlock()
	if h.destroyed {
		return &celt.Error{Op: "call", Status: celt.StatusInvalidState}
	}
	e.calls++
	if e.failOnCall != 0 && e.calls >= e.failOnCall {
		return e.failWith
	}
	return nil
}

func (h *fakeHandle) Encode(pcm []float32, out []byte) (int, error) {
	if err := h.call(); err != nil {
		return 0, err
	}
	if len(out) < 3 {
		return 0, &celt.Error{Op: "encode", Status: celt.StatusBadArg}
	}
	copy(out, []byte{1, 2, 3})
	return 3, nil
}

func (h *fakeHandle) Decode(packet []byte, pcm []float32) error {
	if err := h.call(); err != nil {
		return err
	}
	for i := range pcm {
		pcm[i] = float32(len(packet)) / 100
	}
	return nil
}

func (h *fakeHandle) Destroy() error {
	e := h.e
	e.mu.Lock()
	defer e.mu.Unlock()
	if h.destroyed {
		return &celt.Error{Op: "destroy", Status: celt.StatusInvalidState}
	}
	h.destroyed = true
	if h.decoder {
		e.decoders--
	} else {
		e.encoders--
	}
	return nil
}

func (e *fakeEngine) live() (modes, encoders, decoders int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.modes, e.encoders, e.decoders
}

var errInjected = errors.New("injected engine failure")

func manualConfig() Config {
	cfg := DefaultConfig()
	cfg.ResourceMode = Manual
	return cfg
}
