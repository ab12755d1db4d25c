package ogg

import (
	"io"
	"math/rand/v2"
)

// WriterConfig configures a Writer.
type WriterConfig struct {
	SampleRate int
	Channels   int
	FrameSize  int // samples per channel in every packet

	// Delay is the decoder delay in samples per channel, stored in the
	// header's Overlap field. 0 means FrameSize.
	Delay int

	// Comments is written as the comment header. Nil writes only the
	// default vendor string.
	Comments *Comments

	// Serial is the bitstream serial number; 0 picks a random one.
	Serial uint32

	// PacketsPerPage groups packets on a page. Values below 1 mean 1.
	PacketsPerPage int
}

// Writer writes CELT packets into an Ogg stream.
type Writer struct {
	w   io.Writer
	cfg WriterConfig

	pageSeq    uint32
	granulePos uint64
	closed     bool

	segs    []byte
	payload []byte
	packets int
}

// NewWriter creates a Writer with default settings and writes the headers.
func NewWriter(w io.Writer, sampleRate, channels, frameSize int) (*Writer, error) {
	return NewWriterWithConfig(w, WriterConfig{
		SampleRate: sampleRate,
		Channels:   channels,
		FrameSize:  frameSize,
	})
}

// NewWriterWithConfig creates a Writer and writes the header pages.
func NewWriterWithConfig(w io.Writer, cfg WriterConfig) (*Writer, error) {
	if cfg.Channels < 1 || cfg.FrameSize < 1 || cfg.SampleRate < 1 || cfg.Delay < 0 {
		return nil, ErrInvalidHeader
	}
	if cfg.Delay == 0 {
		cfg.Delay = cfg.FrameSize
	}
	if cfg.Serial == 0 {
		cfg.Serial = rand.Uint32() | 1
	}
	if cfg.PacketsPerPage < 1 {
		cfg.PacketsPerPage = 1
	}
	if cfg.Comments == nil {
		cfg.Comments = &Comments{Vendor: Vendor}
	}

	ow := &Writer{w: w, cfg: cfg}
	h := NewHeader(cfg.SampleRate, cfg.Channels, cfg.FrameSize)
	h.Overlap = int32(cfg.Delay)
	head := h.Encode()
	if err := ow.writeHeaderPage(head, PageFlagBOS); err != nil {
		return nil, err
	}
	if err := ow.writeHeaderPage(cfg.Comments.Encode(), 0); err != nil {
		return nil, err
	}
	return ow, nil
}

// writeHeaderPage writes one header packet alone on a page with granule 0,
// spanning pages if it needs more than 255 segments.
func (ow *Writer) writeHeaderPage(packet []byte, flags byte) error {
	segs := SegmentTable(len(packet))
	for first := true; ; first = false {
		n := min(len(segs), maxSegments)
		size := 0
		for _, s := range segs[:n] {
			size += int(s)
		}
		hdr := flags
		if !first {
			hdr = PageFlagContinuation
		}
		if err := ow.emit(&Page{HeaderType: hdr, Segments: segs[:n], Payload: packet[:size]}); err != nil {
			return err
		}
		segs, packet = segs[n:], packet[size:]
		if len(segs) == 0 {
			return nil
		}
	}
}

func (ow *Writer) emit(p *Page) error {
	p.SerialNumber = ow.cfg.Serial
	p.PageSequence = ow.pageSeq
	if _, err := ow.w.Write(p.Encode()); err != nil {
		return err
	}
	ow.pageSeq++
	return nil
}

// WritePacket appends one packet of FrameSize samples per channel. An
// empty packet records a lost frame.
func (ow *Writer) WritePacket(packet []byte) error {
	if ow.closed {
		return ErrUnexpectedEOS
	}
	segs := SegmentTable(len(packet))
	if len(segs) > maxSegments {
		return ErrInvalidPage
	}
	if len(ow.segs)+len(segs) > maxSegments {
		if err := ow.flush(0); err != nil {
			return err
		}
	}
	ow.segs = append(ow.segs, segs...)
	ow.payload = append(ow.payload, packet...)
	ow.packets++
	ow.granulePos += uint64(ow.cfg.FrameSize)
	if ow.packets >= ow.cfg.PacketsPerPage {
		return ow.flush(0)
	}
	return nil
}

func (ow *Writer) flush(flags byte) error {
	p := &Page{
		HeaderType: flags,
		GranulePos: ow.granulePos,
		Segments:   ow.segs,
		Payload:    ow.payload,
	}
	ow.segs, ow.payload, ow.packets = nil, nil, 0
	return ow.emit(p)
}

// Close writes the final page with the EOS flag. Further writes fail.
func (ow *Writer) Close() error {
	if ow.closed {
		return nil
	}
	ow.closed = true
	return ow.flush(PageFlagEOS)
}

// CloseAt is Close with the final granule position set to granule, which
// marks the samples past it in the last packets as padding. granule must
// not exceed GranulePos.
func (ow *Writer) CloseAt(granule uint64) error {
	if ow.closed {
		return nil
	}
	if granule > ow.granulePos {
		return ErrInvalidPage
	}
	ow.granulePos = granule
	return ow.Close()
}

// Serial returns the bitstream serial number.
func (ow *Writer) Serial() uint32 { return ow.cfg.Serial }

// GranulePos returns the samples per channel written so far.
func (ow *Writer) GranulePos() uint64 { return ow.granulePos }

// PageCount returns the number of pages written so far.
func (ow *Writer) PageCount() uint32 { return ow.pageSeq }
