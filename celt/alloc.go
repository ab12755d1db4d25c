package celt

const (
	// maxShapeBits caps the per-coefficient resolution of a band shape.
	maxShapeBits = 8
	// shapeFloorQ8 is the energy at or below which a band gets no bits.
	shapeFloorQ8 = 2 << 8
	// tailReserveBits is left unallocated for the range coder flush.
	tailReserveBits = 8
	// vbrSlackBits pads the variable-rate size estimate.
	vbrSlackBits = 15
)

// shapeDemand returns the bits needed to code every eligible band at full
// resolution.
func (m *Mode) shapeDemand(energy []int, channels int) int {
	nb := m.Bands()
	total := 0
	for c := 0; c < channels; c++ {
		for b := 0; b < nb; b++ {
			if energy[c*nb+b] > shapeFloorQ8 {
				total += (m.eBands[b+1] - m.eBands[b]) * maxShapeBits
			}
		}
	}
	return total
}

// allocate distributes avail bits over the band shapes by water-filling:
// each step grants one more bit per coefficient to the band whose
// per-coefficient energy, less what it already holds, is highest. Ties go
// to the lowest band, then the lowest channel. bits[c*nb+b] receives the
// bits per coefficient; the total spent is returned.
func (m *Mode) allocate(energy []int, channels, avail int, bits []int) int {
	nb := m.Bands()
	clear(bits[:nb*channels])
	spent := 0
	for {
		best, bestPri := -1, 0
		for b := 0; b < nb; b++ {
			w := m.eBands[b+1] - m.eBands[b]
			if w > avail-spent {
				continue
			}
			for c := 0; c < channels; c++ {
				i := c*nb + b
				if energy[i] <= shapeFloorQ8 || bits[i] >= maxShapeBits {
					continue
				}
				pri := energy[i] - m.halfLogW[b] - bits[i]<<8
				if best < 0 || pri > bestPri {
					best, bestPri = i, pri
				}
			}
		}
		if best < 0 {
			return spent
		}
		bits[best]++
		b := best % nb
		spent += m.eBands[b+1] - m.eBands[b]
	}
}
