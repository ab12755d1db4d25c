package ogg

// crcTable is the MSB-first table for the Ogg CRC-32 polynomial 0x04C11DB7.
// hash/crc32 only implements reflected polynomials, so it cannot produce
// these checksums.
var crcTable = makeCRCTable(0x04C11DB7)

func makeCRCTable(poly uint32) (t [256]uint32) {
	for i := range t {
		r := uint32(i) << 24
		for range 8 {
			if r&0x80000000 != 0 {
				r = r<<1 ^ poly
			} else {
				r <<= 1
			}
		}
		t[i] = r
	}
	return t
}

func crcUpdate(crc uint32, p []byte) uint32 {
	for _, b := range p {
		crc = crc<<8 ^ crcTable[byte(crc>>24)^b]
	}
	return crc
}

func pageCRC(p []byte) uint32 {
	return crcUpdate(0, p)
}
