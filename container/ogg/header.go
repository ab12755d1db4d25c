package ogg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/thesyncim/gocelt/celt"
)

const (
	celtMagic        = "CELT    "
	versionFieldSize = 20

	// HeaderSize is the length of an encoded CELT header packet.
	HeaderSize = 8 + versionFieldSize + 8*4

	// EncoderVersion is written in the version string of new headers.
	EncoderVersion = "gocelt 1"

	// Vendor is the default comment header vendor string.
	Vendor = "Encoded with gocelt"
)

// Header is the CELT identification header.
type Header struct {
	Version        string // at most 20 bytes
	VersionID      uint32
	HeaderSize     int32
	SampleRate     int32
	Channels       int32
	FrameSize      int32
	Overlap        int32 // decoder delay; leading samples to drop
	BytesPerPacket int32 // 0 when packets are variable length
	ExtraHeaders   int32
}

// NewHeader returns the header for a variable-rate stream produced by this
// module's engine. Overlap is set to frameSize, the engine's delay.
func NewHeader(sampleRate, channels, frameSize int) *Header {
	return &Header{
		Version:    EncoderVersion,
		VersionID:  celt.BitstreamVersion,
		HeaderSize: HeaderSize,
		SampleRate: int32(sampleRate),
		Channels:   int32(channels),
		FrameSize:  int32(frameSize),
		Overlap:    int32(frameSize),
	}
}

// Encode serializes the header.
func (h *Header) Encode() []byte {
	data := make([]byte, HeaderSize)
	copy(data, celtMagic)
	copy(data[8:8+versionFieldSize], h.Version)
	off := 8 + versionFieldSize
	binary.LittleEndian.PutUint32(data[off:], h.VersionID)
	off += 4
	fields := []int32{
		h.HeaderSize, h.SampleRate, h.Channels,
		h.FrameSize, h.Overlap, h.BytesPerPacket, h.ExtraHeaders,
	}
	for _, f := range fields {
		binary.LittleEndian.PutUint32(data[off:], uint32(f))
		off += 4
	}
	return data
}

// ParseHeader parses a CELT header packet.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize || string(data[:8]) != celtMagic {
		return nil, ErrInvalidHeader
	}
	ver := data[8 : 8+versionFieldSize]
	if i := bytes.IndexByte(ver, 0); i >= 0 {
		ver = ver[:i]
	}
	off := 8 + versionFieldSize
	h := &Header{
		Version:   string(ver),
		VersionID: binary.LittleEndian.Uint32(data[off:]),
	}
	off += 4
	for _, f := range []*int32{
		&h.HeaderSize, &h.SampleRate, &h.Channels,
		&h.FrameSize, &h.Overlap, &h.BytesPerPacket, &h.ExtraHeaders,
	} {
		*f = int32(binary.LittleEndian.Uint32(data[off:]))
		off += 4
	}
	if h.Channels < 1 || h.FrameSize < 1 || h.SampleRate < 1 || h.ExtraHeaders < 0 || h.Overlap < 0 {
		return nil, ErrInvalidHeader
	}
	if h.VersionID != celt.BitstreamVersion {
		return nil, fmt.Errorf("%w: bitstream version %#x (%q), want %#x",
			ErrInvalidHeader, h.VersionID, h.Version, uint32(celt.BitstreamVersion))
	}
	return h, nil
}

// Comments is the comment header: a vendor string and "KEY=value" pairs in
// the order they were added.
type Comments struct {
	Vendor   string
	Comments []string
}

// Add appends a KEY=value comment.
func (c *Comments) Add(key, value string) {
	c.Comments = append(c.Comments, key+"="+value)
}

// Get returns the first value for key, compared case-insensitively.
func (c *Comments) Get(key string) (string, bool) {
	for _, kv := range c.Comments {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// Encode serializes the comment header.
func (c *Comments) Encode() []byte {
	size := 4 + len(c.Vendor) + 4
	for _, s := range c.Comments {
		size += 4 + len(s)
	}
	data := make([]byte, 0, size)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(c.Vendor)))
	data = append(data, c.Vendor...)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(c.Comments)))
	for _, s := range c.Comments {
		data = binary.LittleEndian.AppendUint32(data, uint32(len(s)))
		data = append(data, s...)
	}
	return data
}

// ParseComments parses a comment header packet.
func ParseComments(data []byte) (*Comments, error) {
	next := func() (string, bool) {
		if len(data) < 4 {
			return "", false
		}
		n := binary.LittleEndian.Uint32(data)
		data = data[4:]
		if uint64(n) > uint64(len(data)) {
			return "", false
		}
		s := string(data[:n])
		data = data[n:]
		return s, true
	}

	vendor, ok := next()
	if !ok || len(data) < 4 {
		return nil, ErrInvalidHeader
	}
	count := binary.LittleEndian.Uint32(data)
	data = data[4:]
	// Each comment needs at least its 4-byte length.
	if uint64(count)*4 > uint64(len(data)) {
		return nil, ErrInvalidHeader
	}
	c := &Comments{Vendor: vendor, Comments: make([]string, 0, count)}
	for range count {
		s, ok := next()
		if !ok {
			return nil, ErrInvalidHeader
		}
		c.Comments = append(c.Comments, s)
	}
	return c, nil
}
