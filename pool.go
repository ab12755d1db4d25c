// pool.go implements the shared-instance mode pool.

package gocelt

import "sync"

type modeKey struct {
	sampleRate int
	frameSize  int
}

type pooledMode struct {
	mode ModeHandle
	refs int
}

// ModePool shares engine modes between sessions with the same sample rate
// and frame size, so the tables are built once. Each session still owns its
// own handle. A mode is destroyed when the last session using it releases.
//
// A ModePool is safe for concurrent use. The engine's process-wide state,
// if it has any, is not serialized by the pool.
type ModePool struct {
	engine Engine

	mu    sync.Mutex
	modes map[modeKey]*pooledMode
}

// NewModePool returns a pool building modes with engine, or with the
// default engine when engine is nil.
func NewModePool(engine Engine) *ModePool {
	if engine == nil {
		engine = DefaultEngine()
	}
	return &ModePool{engine: engine, modes: make(map[modeKey]*pooledMode)}
}

// acquire returns the shared mode for the key and a function that drops the
// reference taken.
func (p *ModePool) acquire(sampleRate, frameSize int) (ModeHandle, func() error, error) {
	key := modeKey{sampleRate, frameSize}

	p.mu.Lock()
	defer p.mu.Unlock()

	pm, ok := p.modes[key]
	if !ok {
		m, err := p.engine.NewMode(sampleRate, frameSize)
		if err != nil {
			return nil, nil, err
		}
		pm = &pooledMode{mode: m}
		p.modes[key] = pm
	}
	pm.refs++

	var once sync.Once
	release := func() error {
		var err error
		once.Do(func() { err = p.release(key) })
		return err
	}
	return pm.mode, release, nil
}

func (p *ModePool) release(key modeKey) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	pm, ok := p.modes[key]
	if !ok {
		return nil
	}
	pm.refs--
	if pm.refs > 0 {
		return nil
	}
	delete(p.modes, key)
	return pm.mode.Destroy()
}

// Len returns the number of live shared modes.
func (p *ModePool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.modes)
}

// acquireMode resolves the mode for cfg: shared from the pool when one is
// configured, otherwise a fresh mode owned by the session.
func (o options) acquireMode(cfg Config) (ModeHandle, func() error, error) {
	if o.pool != nil {
		return o.pool.acquire(cfg.SampleRate, cfg.FrameSize)
	}
	m, err := o.engine.NewMode(cfg.SampleRate, cfg.FrameSize)
	if err != nil {
		return nil, nil, err
	}
	return m, m.Destroy, nil
}
