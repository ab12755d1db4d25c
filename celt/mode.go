// Package celt is a low-delay transform audio codec in the style of CELT 0.7.
//
// A Mode holds the immutable tables for one sample rate and frame size and
// may be shared by any number of encoder and decoder handles. Handles own
// all per-stream state and are not safe for concurrent use.
//
// Every frame is an MDCT with 50% overlap. The bitstream carries per-band
// log energies (coarse Laplace-coded step plus fine refinement) and the
// normalized band shapes quantized with bits allocated from what remains of
// the packet budget. Packets are variable length; the decoder derives the
// same allocation from the packet length.
package celt

import (
	"math"
	"math/bits"
	"sync/atomic"
)

// Limits of the engine.
const (
	MinSampleRate  = 32000
	MaxSampleRate  = 96000
	MinFrameSize   = 64
	MaxFrameSize   = 1024
	MaxChannels    = 2
	MaxPacketBytes = 1275
)

// BitstreamVersion identifies the packet format produced by this package.
// It is outside the range used by libcelt releases, whose packets this
// package cannot decode.
const BitstreamVersion = 0x67630001

// bandEdgesHz are the band boundaries before mapping to MDCT bins.
var bandEdgesHz = [...]int{
	0, 200, 400, 600, 800, 1000, 1200, 1400, 1600, 2000, 2400,
	2800, 3200, 4000, 4800, 5600, 6800, 8000, 9600, 12000, 15600, 20000,
}

// Mode is the shared, read-only configuration for a rate and frame size.
type Mode struct {
	sampleRate int
	frameSize  int
	lm         int

	eBands   []int // band edges in bins, len = bands+1
	halfLogW []int // Q8 of log2(width)/2 per band
	window   []float64
	mdct     *mdctLookup

	destroyed atomic.Bool
}

// NewMode builds the tables for sampleRate and frameSize (samples per
// channel per frame). It fails with StatusBadArg when either is outside
// the engine limits or frameSize is odd.
func NewMode(sampleRate, frameSize int) (*Mode, error) {
	if sampleRate < MinSampleRate || sampleRate > MaxSampleRate {
		return nil, newError("mode create", StatusBadArg)
	}
	if frameSize < MinFrameSize || frameSize > MaxFrameSize || frameSize%2 != 0 {
		return nil, newError("mode create", StatusBadArg)
	}

	m := &Mode{
		sampleRate: sampleRate,
		frameSize:  frameSize,
		lm:         frameDurationIndex(sampleRate, frameSize),
		eBands:     computeBands(sampleRate, frameSize),
		window:     vorbisWindow(frameSize),
		mdct:       newMDCTLookup(frameSize),
	}
	m.halfLogW = make([]int, len(m.eBands)-1)
	for b := range m.halfLogW {
		m.halfLogW[b] = log2Q8(m.eBands[b+1]-m.eBands[b]) / 2
	}
	live.modes.Add(1)
	return m, nil
}

// Destroy releases the mode. Handles created from it keep working; new
// handles cannot be created. Destroying twice reports StatusInvalidState.
func (m *Mode) Destroy() error {
	if !m.destroyed.CompareAndSwap(false, true) {
		return newError("mode destroy", StatusInvalidState)
	}
	live.modes.Add(-1)
	return nil
}

func (m *Mode) check() error {
	if m == nil || m.destroyed.Load() {
		return newError("handle create", StatusInvalidMode)
	}
	return nil
}

// SampleRate returns the mode's sample rate in Hz.
func (m *Mode) SampleRate() int { return m.sampleRate }

// FrameSize returns the number of samples per channel per frame.
func (m *Mode) FrameSize() int { return m.frameSize }

// Overlap returns the number of samples shared by consecutive MDCT windows.
func (m *Mode) Overlap() int { return m.frameSize }

// Lookahead returns the algorithmic delay in samples per channel.
func (m *Mode) Lookahead() int { return m.frameSize }

// Bands returns the number of coded bands.
func (m *Mode) Bands() int { return len(m.eBands) - 1 }

// BandEdges returns a copy of the band boundaries in MDCT bins.
func (m *Mode) BandEdges() []int {
	out := make([]int, len(m.eBands))
	copy(out, m.eBands)
	return out
}

// frameDurationIndex maps the frame duration to 0 (≤2.5 ms), 1 (≤5 ms),
// 2 (≤10 ms) or 3, which selects the energy prediction and probability
// tables.
func frameDurationIndex(sampleRate, frameSize int) int {
	switch {
	case frameSize*400 <= sampleRate:
		return 0
	case frameSize*200 <= sampleRate:
		return 1
	case frameSize*100 <= sampleRate:
		return 2
	default:
		return 3
	}
}

func computeBands(sampleRate, n int) []int {
	edges := []int{0}
	for _, hz := range bandEdgesHz[1:] {
		bin := (hz*2*n + sampleRate/2) / sampleRate
		if bin >= n {
			break
		}
		if bin > edges[len(edges)-1] {
			edges = append(edges, bin)
		}
	}
	return append(edges, n)
}

// vorbisWindow returns the 2n-sample power-complementary window:
// w[i]² + w[i+n]² = 1 and w[i] = w[2n-1-i].
func vorbisWindow(n int) []float64 {
	w := make([]float64, 2*n)
	for i := range w {
		s := math.Sin(math.Pi * (float64(i) + 0.5) / float64(2*n))
		w[i] = math.Sin(0.5 * math.Pi * s * s)
	}
	return w
}

// log2Q8 approximates 256*log2(x) for x ≥ 1 with integer arithmetic.
func log2Q8(x int) int {
	if x <= 1 {
		return 0
	}
	l := bits.Len(uint(x)) - 1
	frac := (x<<8)>>l - 256
	return l<<8 + frac
}
