package ogg

import (
	"errors"
	"io"
)

// Reader reads CELT packets from an Ogg stream. Pages of other logical
// streams are skipped.
type Reader struct {
	r        io.Reader
	Header   *Header
	Comments *Comments

	serial     uint32
	granulePos uint64
	eos        bool
	endGranule uint64
	ended      bool // the EOS page has been read

	queue   []queued
	partial []byte
	open    bool // partial holds an unfinished packet
}

type queued struct {
	data    []byte
	granule uint64
}

// NewReader reads the header and comment packets and skips any extra
// header packets announced by the header.
func NewReader(r io.Reader) (*Reader, error) {
	or := &Reader{r: r}

	page, err := or.readPage()
	if err != nil {
		return nil, headerErr(err)
	}
	if !page.IsBOS() {
		return nil, ErrInvalidPage
	}
	or.serial = page.SerialNumber
	or.addPage(page)

	head, err := or.nextPacket()
	if err != nil {
		return nil, headerErr(err)
	}
	if or.Header, err = ParseHeader(head); err != nil {
		return nil, err
	}
	tags, err := or.nextPacket()
	if err != nil {
		return nil, headerErr(err)
	}
	if or.Comments, err = ParseComments(tags); err != nil {
		return nil, err
	}
	for range or.Header.ExtraHeaders {
		if _, err := or.nextPacket(); err != nil {
			return nil, headerErr(err)
		}
	}
	return or, nil
}

func headerErr(err error) error {
	if errors.Is(err, io.EOF) {
		return ErrUnexpectedEOS
	}
	return err
}

// ReadPacket returns the next packet and the granule position of the page
// that completed it. An empty packet is a lost frame. It returns io.EOF
// after the last packet.
func (or *Reader) ReadPacket() ([]byte, uint64, error) {
	p, err := or.nextQueued()
	if err != nil {
		return nil, 0, err
	}
	or.granulePos = p.granule
	return p.data, p.granule, nil
}

func (or *Reader) nextPacket() ([]byte, error) {
	p, err := or.nextQueued()
	return p.data, err
}

func (or *Reader) nextQueued() (queued, error) {
	for len(or.queue) == 0 {
		if or.eos {
			return queued{}, io.EOF
		}
		page, err := or.readPage()
		if errors.Is(err, io.EOF) {
			if or.open {
				return queued{}, ErrUnexpectedEOS
			}
			or.eos = true
			return queued{}, io.EOF
		}
		if err != nil {
			return queued{}, err
		}
		if page.SerialNumber == or.serial {
			or.addPage(page)
		}
	}
	p := or.queue[0]
	or.queue = or.queue[1:]
	return p, nil
}

// addPage splits a page into packets, joining a packet continued from the
// previous page. A continuation with nothing to continue is dropped.
func (or *Reader) addPage(page *Page) {
	skip := page.IsContinuation() && !or.open
	if !page.IsContinuation() && or.open {
		or.partial, or.open = nil, false
	}
	off := 0
	for _, s := range page.Segments {
		n := int(s)
		if !skip {
			or.partial = append(or.partial, page.Payload[off:off+n]...)
			or.open = true
		}
		off += n
		if s < 255 {
			if !skip {
				pkt := or.partial
				if pkt == nil {
					pkt = []byte{}
				}
				or.queue = append(or.queue, queued{data: pkt, granule: page.GranulePos})
			}
			or.partial, or.open, skip = nil, false, false
		}
	}
	if page.IsEOS() {
		or.eos = true
		or.ended = true
		or.endGranule = page.GranulePos
	}
}

// readPage reads exactly one page.
func (or *Reader) readPage() (*Page, error) {
	buf := make([]byte, pageHeaderSize, pageHeaderSize+maxSegments)
	if _, err := io.ReadFull(or.r, buf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, ErrUnexpectedEOS
	}
	if string(buf[:4]) != oggMagic {
		return nil, ErrInvalidPage
	}
	nseg := int(buf[26])
	buf = append(buf, make([]byte, nseg)...)
	if _, err := io.ReadFull(or.r, buf[pageHeaderSize:]); err != nil {
		return nil, ErrUnexpectedEOS
	}
	size := 0
	for _, s := range buf[pageHeaderSize:] {
		size += int(s)
	}
	hdr := len(buf)
	buf = append(buf, make([]byte, size)...)
	if _, err := io.ReadFull(or.r, buf[hdr:]); err != nil {
		return nil, ErrUnexpectedEOS
	}
	page, _, err := ParsePage(buf)
	return page, err
}

// SampleRate returns the stream sample rate.
func (or *Reader) SampleRate() int { return int(or.Header.SampleRate) }

// Channels returns the channel count.
func (or *Reader) Channels() int { return int(or.Header.Channels) }

// FrameSize returns the samples per channel in each packet.
func (or *Reader) FrameSize() int { return int(or.Header.FrameSize) }

// Delay returns the number of leading decoded samples per channel to drop.
func (or *Reader) Delay() int { return int(or.Header.Overlap) }

// EndGranulePos returns the granule position of the EOS page once it has
// been read. Decoded samples at or beyond it are padding.
func (or *Reader) EndGranulePos() (uint64, bool) { return or.endGranule, or.ended }

// GranulePos returns the granule position of the last packet read.
func (or *Reader) GranulePos() uint64 { return or.granulePos }

// Serial returns the stream serial number.
func (or *Reader) Serial() uint32 { return or.serial }
