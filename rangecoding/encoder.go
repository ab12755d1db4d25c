package rangecoding

import "math/bits"

// Encoder is a range encoder writing into a caller-owned buffer.
// The zero value is not usable; call Init first.
type Encoder struct {
	buf     []byte
	storage uint32 // usable bytes of buf
	offs    uint32 // front write offset
	endOffs uint32 // bytes written from the back

	endWindow uint32 // pending raw bits
	nendBits  int

	nbitsTotal int
	rng        uint32
	val        uint32
	rem        int    // buffered byte awaiting carry resolution, -1 if none
	ext        uint32 // run of buffered 0xFF bytes
	err        bool
}

// Init resets the encoder to write into buf. The whole of buf is the
// initial budget; use Shrink to lower it.
func (e *Encoder) Init(buf []byte) {
	*e = Encoder{
		buf:        buf,
		storage:    uint32(len(buf)),
		nbitsTotal: codeBits + 1,
		rng:        codeTop,
		rem:        -1,
	}
}

// Shrink lowers the buffer budget to size bytes, moving any raw bits
// already written at the back. Done returns exactly size bytes afterwards.
func (e *Encoder) Shrink(size int) {
	if size < 0 || uint32(size) > e.storage {
		return
	}
	if e.offs+e.endOffs > uint32(size) {
		e.err = true
		return
	}
	if e.endOffs > 0 {
		copy(e.buf[uint32(size)-e.endOffs:size], e.buf[e.storage-e.endOffs:e.storage])
	}
	e.storage = uint32(size)
}

func (e *Encoder) writeByte(b byte) {
	if e.offs+e.endOffs >= e.storage {
		e.err = true
		return
	}
	e.buf[e.offs] = b
	e.offs++
}

func (e *Encoder) writeEndByte(b byte) {
	if e.offs+e.endOffs >= e.storage {
		e.err = true
		return
	}
	e.endOffs++
	e.buf[e.storage-e.endOffs] = b
}

// carryOut buffers one output symbol. A run of 0xFF bytes is held back
// until a later symbol tells whether a carry ripples through it.
func (e *Encoder) carryOut(c int) {
	if c == symMax {
		e.ext++
		return
	}
	carry := c >> symBits
	if e.rem >= 0 {
		e.writeByte(byte(e.rem + carry))
	}
	for ; e.ext > 0; e.ext-- {
		e.writeByte(byte((symMax + carry) & symMax))
	}
	e.rem = c & symMax
}

func (e *Encoder) normalize() {
	for e.rng <= codeBot {
		e.carryOut(int(e.val >> codeShift))
		e.val = (e.val << symBits) & (codeTop - 1)
		e.rng <<= symBits
		e.nbitsTotal += symBits
	}
}

// Encode codes the symbol occupying [fl, fh) of a total frequency ft.
func (e *Encoder) Encode(fl, fh, ft uint32) {
	r := e.rng / ft
	if fl > 0 {
		e.val += e.rng - r*(ft-fl)
		e.rng = r * (fh - fl)
	} else {
		e.rng -= r * (ft - fh)
	}
	e.normalize()
}

// EncodeBin is Encode with ft = 1<<ftb.
func (e *Encoder) EncodeBin(fl, fh uint32, ftb uint) {
	r := e.rng >> ftb
	if fl > 0 {
		e.val += e.rng - r*((uint32(1)<<ftb)-fl)
		e.rng = r * (fh - fl)
	} else {
		e.rng -= r * ((uint32(1) << ftb) - fh)
	}
	e.normalize()
}

// EncodeBit codes val with P(val=1) = 1/(1<<logp).
func (e *Encoder) EncodeBit(val int, logp uint) {
	r := e.rng
	s := r >> logp
	if val != 0 {
		e.val += r - s
		e.rng = s
	} else {
		e.rng = r - s
	}
	e.normalize()
}

// EncodeICDF codes symbol s using an inverse CDF table scaled to 1<<ftb.
func (e *Encoder) EncodeICDF(s int, icdf []uint8, ftb uint) {
	r := e.rng >> ftb
	if s > 0 {
		e.val += e.rng - r*uint32(icdf[s-1])
		e.rng = r * uint32(icdf[s-1]-icdf[s])
	} else {
		e.rng -= r * uint32(icdf[s])
	}
	e.normalize()
}

// EncodeUniform codes val in [0, ft) with a flat distribution.
func (e *Encoder) EncodeUniform(val, ft uint32) {
	if ft <= 1 {
		return
	}
	ft--
	ftb := bits.Len32(ft)
	if ftb > uintBits {
		ftb -= uintBits
		top := (ft >> uint(ftb)) + 1
		hi := val >> uint(ftb)
		e.Encode(hi, hi+1, top)
		e.EncodeRawBits(val&(uint32(1)<<uint(ftb)-1), uint(ftb))
		return
	}
	e.Encode(val, val+1, ft+1)
}

// EncodeRawBits appends nbits (at most MaxRawBits) raw bits at the back
// of the buffer.
func (e *Encoder) EncodeRawBits(val uint32, nbits uint) {
	if nbits == 0 {
		return
	}
	window := e.endWindow
	used := e.nendBits
	if used+int(nbits) > windowBits {
		for used >= symBits {
			e.writeEndByte(byte(window & symMax))
			window >>= symBits
			used -= symBits
		}
	}
	window |= (val & (uint32(1)<<nbits - 1)) << uint(used)
	e.endWindow = window
	e.nendBits = used + int(nbits)
	e.nbitsTotal += int(nbits)
}

// Done flushes the coder state and returns the encoded buffer, which is
// always exactly the current budget long. Unused bytes between the two
// halves are zero.
func (e *Encoder) Done() []byte {
	l := codeBits - bits.Len32(e.rng)
	msk := (codeTop - 1) >> uint(l)
	end := (e.val + msk) &^ msk
	if (end | msk) >= e.val+e.rng {
		l++
		msk >>= 1
		end = (e.val + msk) &^ msk
	}
	for l > 0 {
		e.carryOut(int(end >> codeShift))
		end = (end << symBits) & (codeTop - 1)
		l -= symBits
	}
	if e.rem >= 0 || e.ext > 0 {
		e.carryOut(0)
	}

	window := e.endWindow
	used := e.nendBits
	for used >= symBits {
		e.writeEndByte(byte(window & symMax))
		window >>= symBits
		used -= symBits
	}

	if !e.err {
		clear(e.buf[e.offs : e.storage-e.endOffs])
		if used > 0 {
			if e.endOffs >= e.storage {
				e.err = true
			} else {
				l = -l
				if e.offs+e.endOffs >= e.storage && l < used {
					window &= uint32(1)<<uint(l) - 1
					e.err = true
				}
				e.buf[e.storage-e.endOffs-1] |= byte(window)
			}
		}
	}
	return e.buf[:e.storage]
}

// Tell returns the number of whole bits spent so far, rounded up.
func (e *Encoder) Tell() int {
	return e.nbitsTotal - bits.Len32(e.rng)
}

// Storage returns the current budget in bytes.
func (e *Encoder) Storage() int {
	return int(e.storage)
}

// Err reports whether the encoder ran out of room.
func (e *Encoder) Err() bool {
	return e.err
}
