package plc

import "math"

// NextRand advances the decoder LCG and returns the new value.
func NextRand(seed *uint32) uint32 {
	*seed = *seed*1664525 + 1013904223
	return *seed
}

// FillNoise fills v with uniform noise in [-1, 1) from seed.
func FillNoise(v []float64, seed *uint32) {
	for i := range v {
		v[i] = float64(int32(NextRand(seed))) / (1 << 31)
	}
}

// Normalize scales v to unit L2 norm and reports whether it could.
// Vectors with no energy are left untouched.
func Normalize(v []float64) bool {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum < 1e-20 {
		return false
	}
	g := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] *= g
	}
	return true
}

// ConcealSpectrum writes a concealment spectrum for one channel into dst.
//
// edges holds the band boundaries in bins (len = bands+1). amps holds the
// linear band amplitude to synthesize for each band. When shape is non-nil
// it is the previous frame's unit-norm band shapes and is repeated;
// otherwise each band is noise from seed. Bins past the last edge are zeroed.
func ConcealSpectrum(dst []float64, edges []int, amps []float64, shape []float64, seed *uint32) {
	clear(dst)
	for b := 0; b+1 < len(edges) && b < len(amps); b++ {
		lo, hi := edges[b], edges[b+1]
		if hi > len(dst) {
			hi = len(dst)
		}
		if lo >= hi {
			continue
		}
		band := dst[lo:hi]
		if shape != nil {
			copy(band, shape[lo:hi])
		}
		if shape == nil || !Normalize(band) {
			FillNoise(band, seed)
			Normalize(band)
		}
		for i := range band {
			band[i] *= amps[b]
		}
	}
}
