package rangecoding

import "math/bits"

// Decoder is the range decoder matching Encoder.
// Reads past the end of the buffer yield zero bytes, so a truncated or
// garbage packet decodes to some value rather than failing.
type Decoder struct {
	buf     []byte
	storage uint32
	offs    uint32
	endOffs uint32

	endWindow uint32
	nendBits  int

	nbitsTotal int
	rng        uint32
	val        uint32
	ext        uint32 // scale saved between Decode and Update
	rem        int
}

// Init prepares the decoder to read buf.
func (d *Decoder) Init(buf []byte) {
	*d = Decoder{
		buf:     buf,
		storage: uint32(len(buf)),
		rng:     1 << codeExtra,
	}
	d.rem = int(d.readByte())
	d.val = d.rng - 1 - uint32(d.rem>>(symBits-codeExtra))
	d.nbitsTotal = codeBits + 1 - ((codeBits-codeExtra)/symBits)*symBits
	d.normalize()
}

func (d *Decoder) readByte() byte {
	if d.offs < d.storage {
		b := d.buf[d.offs]
		d.offs++
		return b
	}
	return 0
}

func (d *Decoder) readEndByte() byte {
	if d.endOffs < d.storage {
		d.endOffs++
		return d.buf[d.storage-d.endOffs]
	}
	return 0
}

func (d *Decoder) normalize() {
	for d.rng <= codeBot {
		d.nbitsTotal += symBits
		d.rng <<= symBits
		sym := d.rem
		d.rem = int(d.readByte())
		sym = (sym<<symBits | d.rem) >> (symBits - codeExtra)
		d.val = ((d.val << symBits) + uint32(symMax&^sym)) & (codeTop - 1)
	}
}

// Decode returns the cumulative frequency of the next symbol for a total
// of ft. Update must follow with the symbol's bounds.
func (d *Decoder) Decode(ft uint32) uint32 {
	d.ext = d.rng / ft
	s := d.val / d.ext
	if s+1 > ft {
		s = ft - 1
	}
	return ft - (s + 1)
}

// DecodeBin is Decode with ft = 1<<ftb.
func (d *Decoder) DecodeBin(ftb uint) uint32 {
	ft := uint32(1) << ftb
	d.ext = d.rng >> ftb
	s := d.val / d.ext
	if s+1 > ft {
		s = ft - 1
	}
	return ft - (s + 1)
}

// Update consumes the symbol [fl, fh) located by the last Decode call.
func (d *Decoder) Update(fl, fh, ft uint32) {
	s := d.ext * (ft - fh)
	d.val -= s
	if fl > 0 {
		d.rng = d.ext * (fh - fl)
	} else {
		d.rng -= s
	}
	d.normalize()
}

// DecodeBit reads a bit coded with EncodeBit(_, logp).
func (d *Decoder) DecodeBit(logp uint) int {
	r := d.rng
	s := r >> logp
	if d.val < s {
		d.rng = s
		d.normalize()
		return 1
	}
	d.val -= s
	d.rng = r - s
	d.normalize()
	return 0
}

// DecodeICDF reads a symbol coded with EncodeICDF.
func (d *Decoder) DecodeICDF(icdf []uint8, ftb uint) int {
	s := d.rng
	r := s >> ftb
	for i := 0; ; i++ {
		t := s
		s = r * uint32(icdf[i])
		if d.val >= s {
			d.val -= s
			d.rng = t - s
			d.normalize()
			return i
		}
	}
}

// DecodeUniform reads a value coded with EncodeUniform(_, ft).
// Out-of-range values are clamped to ft-1.
func (d *Decoder) DecodeUniform(ft uint32) uint32 {
	if ft <= 1 {
		return 0
	}
	ft--
	ftb := bits.Len32(ft)
	if ftb > uintBits {
		ftb -= uintBits
		top := (ft >> uint(ftb)) + 1
		hi := d.Decode(top)
		d.Update(hi, hi+1, top)
		t := hi<<uint(ftb) | d.DecodeRawBits(uint(ftb))
		if t > ft {
			return ft
		}
		return t
	}
	s := d.Decode(ft + 1)
	d.Update(s, s+1, ft+1)
	return s
}

// DecodeRawBits reads nbits (at most MaxRawBits) raw bits from the back
// of the buffer.
func (d *Decoder) DecodeRawBits(nbits uint) uint32 {
	if nbits == 0 {
		return 0
	}
	window := d.endWindow
	available := d.nendBits
	if available < int(nbits) {
		for available <= windowBits-symBits {
			window |= uint32(d.readEndByte()) << uint(available)
			available += symBits
		}
	}
	v := window & (uint32(1)<<nbits - 1)
	d.endWindow = window >> nbits
	d.nendBits = available - int(nbits)
	d.nbitsTotal += int(nbits)
	return v
}

// Tell returns the number of whole bits consumed so far, rounded up.
// It matches Encoder.Tell at the same point of the stream.
func (d *Decoder) Tell() int {
	return d.nbitsTotal - bits.Len32(d.rng)
}

// StorageBits returns the size of the input in bits.
func (d *Decoder) StorageBits() int {
	return int(d.storage) * 8
}
