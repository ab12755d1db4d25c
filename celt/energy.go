package celt

import (
	"math"

	"github.com/thesyncim/gocelt/rangecoding"
)

// Band energies are log2 amplitudes in Q8 so that encoder and decoder
// reproduce the same values bit for bit.
const (
	energyMinQ8     = -28 << 8
	energyMaxQ8     = 40 << 8
	predFloorQ8     = -9 << 8
	analysisFloorQ8 = -12 << 8
	analysisCeilQ8  = 28 << 8
	fineBits        = 2
)

// bandLogEnergy returns round(256*log2(amp)) clamped to the analysis range.
func bandLogEnergy(amp float64) int {
	if amp <= 0 {
		return analysisFloorQ8
	}
	x := int(math.Round(math.Log2(amp) * 256))
	return min(max(x, analysisFloorQ8), analysisCeilQ8)
}

// energyAmp is the inverse of bandLogEnergy.
func energyAmp(q8 int) float64 {
	return math.Exp2(float64(q8) / 256)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// coarseParams returns the prediction coefficient, inter-band decay and
// Laplace model for the frame type.
func coarseParams(lm int, intra bool) (coef, beta int, prob *[42]uint8) {
	if intra {
		return 0, betaIntraQ15, &eProbModel[lm][1]
	}
	return predCoefQ15[lm], betaCoefQ15[lm], &eProbModel[lm][0]
}

// quantCoarseEnergy codes the coarse energy of every band. target holds
// the analysed energies and oldE the previous frame's quantized energies,
// both indexed [c*nb+b]; oldE is updated in place. budget is the packet
// size in bits.
func quantCoarseEnergy(enc *rangecoding.Encoder, target, oldE []int, nb, channels, lm int, intra bool, budget int) {
	coef, beta, prob := coarseParams(lm, intra)
	var prev [MaxChannels]int
	for b := 0; b < nb; b++ {
		pi := 2 * min(b, 20)
		fs := int(prob[pi]) << 7
		decay := int(prob[pi+1]) << 6
		for c := 0; c < channels; c++ {
			i := c*nb + b
			old := max(oldE[i], predFloorQ8)
			pred := (coef*old)>>15 + prev[c]
			qi := floorDiv(target[i]-pred+128, 256)

			tell := enc.Tell()
			left := budget - tell - 3*channels*(nb-b)
			if b != 0 && left < 30 {
				if left < 24 {
					qi = min(qi, 1)
				}
				if left < 16 {
					qi = max(qi, -1)
				}
			}
			switch remaining := budget - tell; {
			case remaining >= 15:
				qi = encodeLaplace(enc, qi, fs, decay)
			case remaining >= 2:
				qi = min(max(qi, -1), 1)
				s := 2 * qi
				if qi < 0 {
					s = -s - 1
				}
				enc.EncodeICDF(s, smallEnergyICDF, 2)
			case remaining >= 1:
				qi = min(qi, 0)
				enc.EncodeBit(-qi, 1)
			default:
				qi = -1
			}
			prev[c] = applyCoarse(oldE, i, pred, qi, beta, prev[c])
		}
	}
}

// unquantCoarseEnergy mirrors quantCoarseEnergy.
func unquantCoarseEnergy(dec *rangecoding.Decoder, oldE []int, nb, channels, lm int, intra bool, budget int) {
	coef, beta, prob := coarseParams(lm, intra)
	var prev [MaxChannels]int
	for b := 0; b < nb; b++ {
		pi := 2 * min(b, 20)
		fs := int(prob[pi]) << 7
		decay := int(prob[pi+1]) << 6
		for c := 0; c < channels; c++ {
			i := c*nb + b
			old := max(oldE[i], predFloorQ8)
			pred := (coef*old)>>15 + prev[c]

			var qi int
			switch remaining := budget - dec.Tell(); {
			case remaining >= 15:
				qi = decodeLaplace(dec, fs, decay)
			case remaining >= 2:
				s := dec.DecodeICDF(smallEnergyICDF, 2)
				qi = (s >> 1) ^ -(s & 1)
			case remaining >= 1:
				qi = -dec.DecodeBit(1)
			default:
				qi = -1
			}
			prev[c] = applyCoarse(oldE, i, pred, qi, beta, prev[c])
		}
	}
}

func applyCoarse(oldE []int, i, pred, qi, beta, prev int) int {
	q := qi << 8
	oldE[i] = min(max(pred+q, energyMinQ8), energyMaxQ8)
	return prev + q - (beta*q)>>15
}

// fineEnergyBits is the raw-bit cost of the fine energy pass.
func fineEnergyBits(nb, channels int) int {
	return fineBits * nb * channels
}

// quantFineEnergy refines each band by a quarter step using raw bits,
// skipped entirely when the budget cannot hold them.
func quantFineEnergy(enc *rangecoding.Encoder, target, oldE []int, nb, channels, budget int) bool {
	if budget-enc.Tell() < fineEnergyBits(nb, channels) {
		return false
	}
	for i := 0; i < nb*channels; i++ {
		idx := floorDiv((target[i]-oldE[i]+128)*4, 256)
		idx = min(max(idx, 0), 3)
		enc.EncodeRawBits(uint32(idx), fineBits)
		oldE[i] = refineEnergy(oldE[i], idx)
	}
	return true
}

func unquantFineEnergy(dec *rangecoding.Decoder, oldE []int, nb, channels, budget int) bool {
	if budget-dec.Tell() < fineEnergyBits(nb, channels) {
		return false
	}
	for i := 0; i < nb*channels; i++ {
		idx := int(dec.DecodeRawBits(fineBits))
		oldE[i] = refineEnergy(oldE[i], idx)
	}
	return true
}

func refineEnergy(e, idx int) int {
	return min(max(e+idx*64+32-128, energyMinQ8), energyMaxQ8)
}
