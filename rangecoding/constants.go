// Package rangecoding implements the range coder used by the CELT bitstream.
//
// The coder writes entropy-coded symbols from the front of a fixed-size
// buffer and raw bits from the back. Both halves meet in the middle, so the
// total bit cost of a frame can be tracked with Tell on either side and the
// encoder and decoder see identical values at corresponding points.
package rangecoding

const (
	symBits    = 8
	codeBits   = 32
	symMax     = (1 << symBits) - 1
	codeShift  = codeBits - symBits - 1
	codeTop    = uint32(1) << (codeBits - 1)
	codeBot    = codeTop >> symBits
	codeExtra  = (codeBits-2)%symBits + 1
	windowBits = 32

	// uintBits is the number of high bits of a uniform value that go
	// through the range coder; the rest are written raw.
	uintBits = 8
)

// MaxRawBits is the largest bit count accepted by a single
// EncodeRawBits/DecodeRawBits call.
const MaxRawBits = 24
