package celt

import (
	"math"

	"github.com/thesyncim/gocelt/plc"
	"github.com/thesyncim/gocelt/rangecoding"
)

// Band shapes are coded as X/|X| scaled by sqrt(width) so every component
// has roughly unit variance, then clipped and quantized with a uniform
// midrise quantizer of q bits per coefficient.
const shapeClip = 3.0

func quantShape(enc *rangecoding.Encoder, x []float64, amp float64, q int) {
	if q == 0 {
		return
	}
	levels := 1 << q
	step := 2 * shapeClip / float64(levels)
	g := 0.0
	if amp > 0 {
		g = math.Sqrt(float64(len(x))) / amp
	}
	for _, v := range x {
		z := min(max(v*g, -shapeClip), shapeClip)
		idx := int(math.Floor((z + shapeClip) / step))
		idx = min(max(idx, 0), levels-1)
		enc.EncodeRawBits(uint32(idx), uint(q))
	}
}

// unquantShape decodes a unit-norm shape into x.
func unquantShape(dec *rangecoding.Decoder, x []float64, q int) {
	levels := 1 << q
	step := 2 * shapeClip / float64(levels)
	for i := range x {
		idx := int(dec.DecodeRawBits(uint(q)))
		x[i] = -shapeClip + (float64(idx)+0.5)*step
	}
	plc.Normalize(x)
}

// noiseShape fills x with a unit-norm noise vector.
func noiseShape(x []float64, seed *uint32) {
	plc.FillNoise(x, seed)
	if !plc.Normalize(x) {
		x[0] = 1
	}
}
