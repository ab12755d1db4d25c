package ogg

import "encoding/binary"

// Page header flags.
const (
	PageFlagContinuation = 0x01
	PageFlagBOS          = 0x02
	PageFlagEOS          = 0x04
)

const (
	pageHeaderSize = 27
	oggMagic       = "OggS"
	maxSegments    = 255
)

// Page is one Ogg page.
type Page struct {
	HeaderType   byte
	GranulePos   uint64
	SerialNumber uint32
	PageSequence uint32
	Segments     []byte // lacing values
	Payload      []byte
}

// SegmentTable returns the lacing values for one packet of n bytes: runs of
// 255 followed by a terminating value below 255 (0 when n is a multiple of
// 255).
func SegmentTable(n int) []byte {
	segs := make([]byte, n/255+1)
	for i := 0; i < len(segs)-1; i++ {
		segs[i] = 255
	}
	segs[len(segs)-1] = byte(n % 255)
	return segs
}

// IsBOS reports a beginning-of-stream page.
func (p *Page) IsBOS() bool { return p.HeaderType&PageFlagBOS != 0 }

// IsEOS reports an end-of-stream page.
func (p *Page) IsEOS() bool { return p.HeaderType&PageFlagEOS != 0 }

// IsContinuation reports that the first segment continues a packet from the
// previous page.
func (p *Page) IsContinuation() bool { return p.HeaderType&PageFlagContinuation != 0 }

// lastPacketOpen reports that the page's final packet continues on the next
// page.
func (p *Page) lastPacketOpen() bool {
	return len(p.Segments) > 0 && p.Segments[len(p.Segments)-1] == 255
}

// Encode serializes the page and fills in its CRC.
func (p *Page) Encode() []byte {
	hdr := pageHeaderSize + len(p.Segments)
	data := make([]byte, hdr+len(p.Payload))
	copy(data, oggMagic)
	data[5] = p.HeaderType
	binary.LittleEndian.PutUint64(data[6:], p.GranulePos)
	binary.LittleEndian.PutUint32(data[14:], p.SerialNumber)
	binary.LittleEndian.PutUint32(data[18:], p.PageSequence)
	data[26] = byte(len(p.Segments))
	copy(data[pageHeaderSize:], p.Segments)
	copy(data[hdr:], p.Payload)
	binary.LittleEndian.PutUint32(data[22:], pageCRC(data))
	return data
}

// ParsePage parses the page at the start of data and returns it with the
// number of bytes it occupies. Truncated input returns ErrUnexpectedEOS so
// callers can read more and retry.
func ParsePage(data []byte) (*Page, int, error) {
	if len(data) < pageHeaderSize {
		return nil, 0, ErrUnexpectedEOS
	}
	if string(data[:4]) != oggMagic || data[4] != 0 {
		return nil, 0, ErrInvalidPage
	}
	nseg := int(data[26])
	hdr := pageHeaderSize + nseg
	if len(data) < hdr {
		return nil, 0, ErrUnexpectedEOS
	}
	size := hdr
	for _, s := range data[pageHeaderSize:hdr] {
		size += int(s)
	}
	if len(data) < size {
		return nil, 0, ErrUnexpectedEOS
	}

	stored := binary.LittleEndian.Uint32(data[22:])
	crc := crcUpdate(0, data[:22])
	crc = crcUpdate(crc, []byte{0, 0, 0, 0})
	crc = crcUpdate(crc, data[26:size])
	if crc != stored {
		return nil, 0, ErrBadCRC
	}

	p := &Page{
		HeaderType:   data[5],
		GranulePos:   binary.LittleEndian.Uint64(data[6:]),
		SerialNumber: binary.LittleEndian.Uint32(data[14:]),
		PageSequence: binary.LittleEndian.Uint32(data[18:]),
		Segments:     append([]byte(nil), data[pageHeaderSize:hdr]...),
		Payload:      append([]byte(nil), data[hdr:size]...),
	}
	return p, size, nil
}
