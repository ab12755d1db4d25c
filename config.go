// config.go defines session configuration and construction options.

package gocelt

// Sample rate limits accepted by a session.
const (
	MinSampleRate = 32000
	MaxSampleRate = 96000
)

// ResourceMode selects who destroys a session's engine handle.
type ResourceMode int

const (
	// Automatic destroys the handle when the session becomes unreachable.
	// The exact moment depends on the garbage collector.
	Automatic ResourceMode = iota

	// Manual leaves destruction to the caller, who must call Release
	// exactly once and must not use the session afterwards. A session that
	// is never released leaks its engine handle for the life of the process.
	Manual
)

func (m ResourceMode) String() string {
	switch m {
	case Automatic:
		return "automatic"
	case Manual:
		return "manual"
	default:
		return "unknown"
	}
}

// Config is the immutable configuration of a session.
type Config struct {
	// SampleRate in Hz: even, in [MinSampleRate, MaxSampleRate].
	SampleRate int
	// FrameSize is the number of samples per channel in one frame.
	// The engine accepts even sizes in [64, 1024]; 64 to 512 is typical.
	FrameSize int
	// Channels is the number of interleaved channels, at least 1.
	Channels int
	// ResourceMode selects automatic or manual handle destruction.
	ResourceMode ResourceMode
}

// DefaultConfig returns 48 kHz mono with 256-sample frames in automatic
// resource mode.
func DefaultConfig() Config {
	return Config{
		SampleRate:   48000,
		FrameSize:    256,
		Channels:     1,
		ResourceMode: Automatic,
	}
}

// FrameSamples returns the number of interleaved samples in one frame.
func (c Config) FrameSamples() int {
	return c.FrameSize * c.Channels
}

// Validate checks the fields the session layer owns. Frame size and upper
// channel limits are left to the engine, which reports them when the
// handle is created.
func (c Config) Validate() error {
	if c.Channels < 1 {
		return &ConfigError{Field: "channels", Value: c.Channels, Reason: "must be at least 1"}
	}
	if c.SampleRate < MinSampleRate || c.SampleRate > MaxSampleRate {
		return &ConfigError{Field: "rate", Value: c.SampleRate, Reason: "must be in [32000, 96000]"}
	}
	if c.SampleRate%2 != 0 {
		return &ConfigError{Field: "rate", Value: c.SampleRate, Reason: "must be even"}
	}
	if c.ResourceMode != Automatic && c.ResourceMode != Manual {
		return &ConfigError{Field: "resourceMode", Value: int(c.ResourceMode), Reason: "must be automatic or manual"}
	}
	return nil
}

// Option customizes session construction.
type Option func(*options)

type options struct {
	engine Engine
	pool   *ModePool
}

// WithEngine replaces the built-in engine.
func WithEngine(e Engine) Option {
	return func(o *options) {
		o.engine = e
	}
}

// WithModePool shares one engine mode between all sessions built from the
// pool with the same rate and frame size. Handles are never shared. The
// pool's engine takes precedence over WithEngine.
func WithModePool(p *ModePool) Option {
	return func(o *options) {
		o.pool = p
	}
}

func buildOptions(opts []Option) options {
	o := options{engine: DefaultEngine()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
