package celt

import (
	"sync/atomic"

	"github.com/thesyncim/gocelt/plc"
	"github.com/thesyncim/gocelt/rangecoding"
)

// Decoder holds the state of one decoding stream.
type Decoder struct {
	mode     *Mode
	channels int

	overlap  [][]float64 // windowed second half of the previous IMDCT
	deemph   []float64
	oldE     []int
	shapes   [][]float64 // unit-norm band shapes of the last good frame
	haveLast bool
	loss     *plc.State
	seed     uint32

	coeffs [][]float64
	amps   []float64
	bits   []int
	synth  []float64
	scr    *mdctScratch
	rc     rangecoding.Decoder

	destroyed atomic.Bool
}

// NewDecoder creates a decoder producing channels interleaved channels.
func NewDecoder(m *Mode, channels int) (*Decoder, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	if channels < 1 || channels > MaxChannels {
		return nil, newError("decoder create", StatusBadArg)
	}
	n, nb := m.frameSize, m.Bands()
	d := &Decoder{
		mode:     m,
		channels: channels,
		overlap:  make([][]float64, channels),
		deemph:   make([]float64, channels),
		oldE:     make([]int, nb*channels),
		shapes:   make([][]float64, channels),
		loss:     plc.NewState(),
		coeffs:   make([][]float64, channels),
		amps:     make([]float64, nb),
		bits:     make([]int, nb*channels),
		synth:    make([]float64, 2*n),
		scr:      m.mdct.newScratch(),
	}
	for c := range channels {
		d.overlap[c] = make([]float64, n)
		d.shapes[c] = make([]float64, n)
		d.coeffs[c] = make([]float64, n)
	}
	live.decoders.Add(1)
	return d, nil
}

// Channels returns the channel count.
func (d *Decoder) Channels() int { return d.channels }

// Mode returns the mode the decoder was created from.
func (d *Decoder) Mode() *Mode { return d.mode }

// Reset clears all history.
func (d *Decoder) Reset() {
	for c := range d.overlap {
		clear(d.overlap[c])
		clear(d.shapes[c])
	}
	clear(d.deemph)
	clear(d.oldE)
	d.haveLast = false
	d.loss.Reset()
	d.seed = 0
}

// Destroy releases the decoder. Later calls report StatusInvalidState.
func (d *Decoder) Destroy() error {
	if !d.destroyed.CompareAndSwap(false, true) {
		return newError("decoder destroy", StatusInvalidState)
	}
	live.decoders.Add(-1)
	return nil
}

// Decode decodes one packet into pcm, which must hold exactly one frame of
// interleaved samples. An empty packet is treated as lost and concealed.
func (d *Decoder) Decode(data []byte, pcm []float32) error {
	if d.destroyed.Load() {
		return newError("decode", StatusInvalidState)
	}
	m := d.mode
	n, nb, channels := m.frameSize, m.Bands(), d.channels
	if len(pcm) != n*channels {
		return newError("decode", StatusBadArg)
	}
	if len(data) > MaxPacketBytes {
		return newError("decode", StatusCorruptedData)
	}
	if len(data) == 0 {
		d.conceal()
		d.synthesize(pcm)
		return nil
	}

	rc := &d.rc
	rc.Init(data)
	budget := len(data) * 8

	if rc.Tell() == 1 && budget >= 16 && rc.DecodeBit(15) == 1 {
		for c := range d.coeffs {
			clear(d.coeffs[c])
		}
		for i := range d.oldE {
			d.oldE[i] = energyMinQ8
		}
		d.haveLast = false
		d.loss.Reset()
		d.synthesize(pcm)
		return nil
	}

	intra := false
	if rc.Tell()+3 <= budget {
		intra = rc.DecodeBit(3) == 1
	}
	unquantCoarseEnergy(rc, d.oldE, nb, channels, m.lm, intra, budget)
	unquantFineEnergy(rc, d.oldE, nb, channels, budget)
	m.allocate(d.oldE, channels, budget-rc.Tell()-tailReserveBits, d.bits)
	if rc.Tell() > budget {
		return newError("decode", StatusCorruptedData)
	}

	for b := 0; b < nb; b++ {
		lo, hi := m.eBands[b], m.eBands[b+1]
		for c := 0; c < channels; c++ {
			i := c*nb + b
			shape := d.shapes[c][lo:hi]
			if q := d.bits[i]; q > 0 {
				unquantShape(rc, shape, q)
			} else {
				noiseShape(shape, &d.seed)
			}
			amp := energyAmp(d.oldE[i])
			if d.oldE[i] <= energyMinQ8 {
				amp = 0
			}
			dst := d.coeffs[c][lo:hi]
			for k, v := range shape {
				dst[k] = v * amp
			}
		}
	}
	d.haveLast = true
	d.loss.Reset()
	d.synthesize(pcm)
	return nil
}

// conceal builds the spectrum of a lost frame from the last good one.
func (d *Decoder) conceal() {
	m := d.mode
	nb := m.Bands()
	d.loss.RecordLoss()
	if d.loss.IsExhausted() || !d.haveLast {
		for c := range d.coeffs {
			clear(d.coeffs[c])
		}
		return
	}
	for c := 0; c < d.channels; c++ {
		for b := 0; b < nb; b++ {
			i := c*nb + b
			d.oldE[i] = max(d.oldE[i]-plc.DecayQ8, energyMinQ8)
			d.amps[b] = energyAmp(d.oldE[i])
		}
		var shape []float64
		if d.loss.ReuseShape() {
			shape = d.shapes[c]
		}
		plc.ConcealSpectrum(d.coeffs[c], m.eBands, d.amps, shape, &d.seed)
	}
}

// synthesize runs the inverse MDCT, overlap-add and de-emphasis for every
// channel and writes interleaved output.
func (d *Decoder) synthesize(pcm []float32) {
	m := d.mode
	n, channels := m.frameSize, d.channels
	y := d.synth
	for c := 0; c < channels; c++ {
		m.mdct.inverse(d.coeffs[c], y, d.scr)
		ov := d.overlap[c]
		mem := d.deemph[c]
		for i := 0; i < n; i++ {
			s := ov[i] + y[i]*m.window[i]
			ov[i] = y[n+i] * m.window[n+i]
			mem = s + preemphCoef*mem
			pcm[i*channels+c] = float32(mem / sigScale)
		}
		d.deemph[c] = mem
	}
}
