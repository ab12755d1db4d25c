package celt

import (
	"math"
	"math/cmplx"

	"github.com/argusdusty/gofft"
)

// mdctLookup holds the tables for an N-coefficient MDCT (2N inputs).
//
// The MDCT is computed as a fold of the 2N windowed inputs into N values
// followed by a DCT-IV. When N/2 is a power of two the DCT-IV runs as an
// N/2-point complex FFT between pre- and post-twiddles; otherwise it falls
// back to the direct O(N²) sum over a cosine table.
//
// The lookup is read-only after construction and shared by every handle of
// a Mode. Per-call buffers live in mdctScratch.
type mdctLookup struct {
	n      int
	fast   bool
	pre    []complex128
	post   []complex128
	cosTab []float64 // cos(pi*m/(4n)) for m in [0, 8n)
}

type mdctScratch struct {
	v   []float64
	row []float64
	buf []complex128
}

func newMDCTLookup(n int) *mdctLookup {
	l := &mdctLookup{n: n}
	h := n / 2
	if h >= 2 && h&(h-1) == 0 {
		l.fast = true
		l.pre = make([]complex128, h)
		l.post = make([]complex128, h)
		for m := 0; m < h; m++ {
			l.pre[m] = cmplx.Exp(complex(0, -math.Pi*float64(m)/float64(n)))
			l.post[m] = cmplx.Exp(complex(0, -math.Pi*(float64(m)+0.25)/float64(n)))
		}
	}
	l.cosTab = make([]float64, 8*n)
	for m := range l.cosTab {
		l.cosTab[m] = math.Cos(math.Pi * float64(m) / float64(4*n))
	}
	return l
}

func (l *mdctLookup) newScratch() *mdctScratch {
	return &mdctScratch{
		v:   make([]float64, l.n),
		row: make([]float64, l.n),
		buf: make([]complex128, l.n/2),
	}
}

// dct4 computes out[k] = sum_j v[j] cos(pi/n (j+1/2)(k+1/2)).
// v and out must not alias s.v.
func (l *mdctLookup) dct4(v, out []float64, s *mdctScratch) {
	if l.fast {
		n, h := l.n, l.n/2
		buf := s.buf
		for m := 0; m < h; m++ {
			buf[m] = complex(v[2*m], v[n-1-2*m]) * l.pre[m]
		}
		if err := gofft.FFT(buf); err == nil {
			for k := 0; k < h; k++ {
				y := buf[k] * l.post[k]
				out[2*k] = real(y)
				out[n-1-2*k] = -imag(y)
			}
			return
		}
	}
	l.dct4Direct(v, out, s.row)
}

func (l *mdctLookup) dct4Direct(v, out, row []float64) {
	n := l.n
	period := 8 * n
	for k := 0; k < n; k++ {
		step := 2*k + 1
		idx := step
		for j := 0; j < n; j++ {
			row[j] = l.cosTab[idx]
			idx += 2 * step
			if idx >= period {
				idx -= period
			}
		}
		out[k] = dotKernel(v, row)
	}
}

// forward computes the N MDCT coefficients of the 2N windowed samples in.
func (l *mdctLookup) forward(in, out []float64, s *mdctScratch) {
	n, h := l.n, l.n/2
	v := s.v
	for i := 0; i < h; i++ {
		v[i] = -in[n+h-1-i] - in[n+h+i]
		v[h+i] = in[i] - in[n-1-i]
	}
	l.dct4(v, out, s)
}

// inverse computes the 2N time-aliased samples of the N coefficients in.
// Windowing and overlap-add of consecutive outputs cancel the aliasing.
func (l *mdctLookup) inverse(in, out []float64, s *mdctScratch) {
	n, h := l.n, l.n/2
	u := s.v
	l.dct4(in, u, s)
	scale := 2 / float64(n)
	for i := 0; i < h; i++ {
		out[i] = u[h+i] * scale
		out[h+i] = -u[n-1-i] * scale
		out[n+i] = -u[h-1-i] * scale
		out[n+h+i] = -u[i] * scale
	}
}
