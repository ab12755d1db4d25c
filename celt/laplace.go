package celt

import "github.com/thesyncim/gocelt/rangecoding"

// Laplace coding of signed integers. fs is the probability of zero and
// decay the geometric ratio between successive magnitudes, both Q15 of a
// 32768 total. Magnitudes beyond the modelled tail keep a floor
// probability so any value up to the coder limit stays representable.
const (
	laplaceLogMinP = 0
	laplaceMinP    = 1 << laplaceLogMinP
	laplaceNMin    = 16
	laplaceFTB     = 15
	laplaceFT      = 1 << laplaceFTB
)

func laplaceFreq1(fs0, decay int) int {
	ft := laplaceFT - laplaceMinP*(2*laplaceNMin) - fs0
	return ft * (16384 - decay) >> 15
}

// encodeLaplace codes val and returns the value actually coded, which
// differs from val only when val lies beyond the representable tail.
func encodeLaplace(enc *rangecoding.Encoder, val, fs, decay int) int {
	fl := 0
	if val != 0 {
		s := 0
		if val < 0 {
			s = -1
		}
		mag := (val + s) ^ s
		fl = fs
		fs = laplaceFreq1(fs, decay)
		i := 1
		for ; fs > 0 && i < mag; i++ {
			fs *= 2
			fl += fs + 2*laplaceMinP
			fs = fs * decay >> 15
		}
		if fs == 0 {
			ndiMax := (laplaceFT - fl + laplaceMinP - 1) >> laplaceLogMinP
			ndiMax = (ndiMax - s) >> 1
			di := min(mag-i, ndiMax-1)
			fl += (2*di + 1 + s) * laplaceMinP
			fs = min(laplaceMinP, laplaceFT-fl)
			val = (i + di + s) ^ s
		} else {
			fs += laplaceMinP
			if s == 0 {
				fl += fs
			}
		}
	}
	if fl+fs > laplaceFT {
		fs = laplaceFT - fl
	}
	enc.EncodeBin(uint32(fl), uint32(fl+fs), laplaceFTB)
	return val
}

func decodeLaplace(dec *rangecoding.Decoder, fs, decay int) int {
	val := 0
	fm := int(dec.DecodeBin(laplaceFTB))
	fl := 0
	if fm >= fs {
		val++
		fl = fs
		fs = laplaceFreq1(fs, decay) + laplaceMinP
		for fs > laplaceMinP && fm >= fl+2*fs {
			fs *= 2
			fl += fs
			fs = (fs - 2*laplaceMinP) * decay >> 15
			fs += laplaceMinP
			val++
		}
		if fs <= laplaceMinP {
			di := (fm - fl) >> (laplaceLogMinP + 1)
			val += di
			fl += 2 * di * laplaceMinP
		}
		if fm < fl+fs {
			val = -val
		} else {
			fl += fs
		}
	}
	dec.Update(uint32(fl), uint32(min(fl+fs, laplaceFT)), laplaceFT)
	return val
}
