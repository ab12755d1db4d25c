package celt

import (
	"math"
	"sync/atomic"

	"github.com/thesyncim/gocelt/rangecoding"
)

const (
	preemphCoef = 0.8
	sigScale    = 32768.0
)

// Encoder holds the state of one encoding stream.
type Encoder struct {
	mode     *Mode
	channels int

	preemph []float64   // last input sample per channel
	hist    [][]float64 // previous pre-emphasized frame per channel
	oldE    []int       // quantized band energies of the previous frame
	intra   bool

	block  []float64
	coeffs [][]float64
	target []int
	amps   []float64
	bits   []int
	scr    *mdctScratch
	rc     rangecoding.Encoder

	destroyed atomic.Bool
}

// NewEncoder creates an encoder for channels interleaved channels.
func NewEncoder(m *Mode, channels int) (*Encoder, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	if channels < 1 || channels > MaxChannels {
		return nil, newError("encoder create", StatusBadArg)
	}
	n, nb := m.frameSize, m.Bands()
	e := &Encoder{
		mode:     m,
		channels: channels,
		preemph:  make([]float64, channels),
		hist:     make([][]float64, channels),
		oldE:     make([]int, nb*channels),
		intra:    true,
		block:    make([]float64, 2*n),
		coeffs:   make([][]float64, channels),
		target:   make([]int, nb*channels),
		amps:     make([]float64, nb*channels),
		bits:     make([]int, nb*channels),
		scr:      m.mdct.newScratch(),
	}
	for c := range channels {
		e.hist[c] = make([]float64, n)
		e.coeffs[c] = make([]float64, n)
	}
	live.encoders.Add(1)
	return e, nil
}

// Channels returns the channel count.
func (e *Encoder) Channels() int { return e.channels }

// Mode returns the mode the encoder was created from.
func (e *Encoder) Mode() *Mode { return e.mode }

// Reset returns the encoder to its initial state. The next frame is coded
// without reference to earlier ones.
func (e *Encoder) Reset() {
	clear(e.preemph)
	for c := range e.hist {
		clear(e.hist[c])
	}
	clear(e.oldE)
	e.intra = true
}

// Destroy releases the encoder. Later calls report StatusInvalidState.
func (e *Encoder) Destroy() error {
	if !e.destroyed.CompareAndSwap(false, true) {
		return newError("encoder destroy", StatusInvalidState)
	}
	live.encoders.Add(-1)
	return nil
}

// Encode compresses one frame of interleaved samples in [-1, 1] into out
// and returns the packet length. maxBytes bounds the packet size; it is
// capped at MaxPacketBytes and must not exceed len(out).
func (e *Encoder) Encode(pcm []float32, maxBytes int, out []byte) (int, error) {
	if e.destroyed.Load() {
		return 0, newError("encode", StatusInvalidState)
	}
	m := e.mode
	n, nb, channels := m.frameSize, m.Bands(), e.channels
	if len(pcm) != n*channels || maxBytes <= 0 {
		return 0, newError("encode", StatusBadArg)
	}
	nbytes := min(maxBytes, MaxPacketBytes)
	if len(out) < nbytes {
		return 0, newError("encode", StatusBadArg)
	}

	silent := e.analyse(pcm)

	rc := &e.rc
	rc.Init(out[:nbytes])
	budget := nbytes * 8

	if rc.Tell() == 1 && budget >= 16 {
		if silent {
			rc.EncodeBit(1, 15)
			for i := range e.oldE {
				e.oldE[i] = energyMinQ8
			}
			rc.Shrink(2)
			return e.finish(rc)
		}
		rc.EncodeBit(0, 15)
	}

	intra := false
	if rc.Tell()+3 <= budget {
		intra = e.intra
		rc.EncodeBit(boolToInt(intra), 3)
	}
	quantCoarseEnergy(rc, e.target, e.oldE, nb, channels, m.lm, intra, budget)

	need := rc.Tell() + vbrSlackBits + fineEnergyBits(nb, channels) +
		m.shapeDemand(e.oldE, channels) + tailReserveBits
	if vbr := (need + 7) / 8; vbr < nbytes {
		rc.Shrink(vbr)
		budget = vbr * 8
	}

	quantFineEnergy(rc, e.target, e.oldE, nb, channels, budget)
	m.allocate(e.oldE, channels, budget-rc.Tell()-tailReserveBits, e.bits)

	for b := 0; b < nb; b++ {
		lo, hi := m.eBands[b], m.eBands[b+1]
		for c := 0; c < channels; c++ {
			i := c*nb + b
			quantShape(rc, e.coeffs[c][lo:hi], e.amps[i], e.bits[i])
		}
	}
	e.intra = false
	return e.finish(rc)
}

func (e *Encoder) finish(rc *rangecoding.Encoder) (int, error) {
	pkt := rc.Done()
	if rc.Err() {
		return 0, newError("encode", StatusInternalError)
	}
	return len(pkt), nil
}

// analyse pre-emphasizes the frame, runs the MDCT over the previous and
// current frame and measures band energies. It reports whether the whole
// analysis block is digital silence.
func (e *Encoder) analyse(pcm []float32) bool {
	m := e.mode
	n, nb, channels := m.frameSize, m.Bands(), e.channels
	silent := true
	for c := 0; c < channels; c++ {
		blk := e.block
		copy(blk[:n], e.hist[c])
		mem := e.preemph[c]
		for i := 0; i < n; i++ {
			s := float64(pcm[i*channels+c]) * sigScale
			blk[n+i] = s - preemphCoef*mem
			mem = s
		}
		e.preemph[c] = mem
		copy(e.hist[c], blk[n:])

		for i, v := range blk {
			if v != 0 {
				silent = false
			}
			blk[i] = v * m.window[i]
		}
		m.mdct.forward(blk, e.coeffs[c], e.scr)

		for b := 0; b < nb; b++ {
			var sum float64
			for _, x := range e.coeffs[c][m.eBands[b]:m.eBands[b+1]] {
				sum += x * x
			}
			amp := math.Sqrt(sum)
			e.amps[c*nb+b] = amp
			e.target[c*nb+b] = bandLogEnergy(amp)
		}
	}
	return silent
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
