package celt

import "golang.org/x/sys/cpu"

// dotKernel is the inner product used by the direct transform path.
// init picks the unrolled form on CPUs with wide SIMD units, where the
// independent accumulators keep the FP pipes busy.
var (
	dotKernel  = dotScalar
	kernelName = "scalar"
)

func init() {
	if cpu.X86.HasAVX2 || cpu.ARM64.HasASIMD {
		dotKernel = dotUnrolled4
		kernelName = "unrolled4"
	}
}

// Kernel names the inner-product kernel selected for this CPU.
func Kernel() string {
	return kernelName
}

func dotScalar(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func dotUnrolled4(a, b []float64) float64 {
	var s0, s1, s2, s3 float64
	n := len(a)
	b = b[:n]
	i := 0
	for ; i+4 <= n; i += 4 {
		s0 += a[i] * b[i]
		s1 += a[i+1] * b[i+1]
		s2 += a[i+2] * b[i+2]
		s3 += a[i+3] * b[i+3]
	}
	for ; i < n; i++ {
		s0 += a[i] * b[i]
	}
	return (s0 + s1) + (s2 + s3)
}
