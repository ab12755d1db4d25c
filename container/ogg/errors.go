package ogg

import "errors"

var (
	// ErrInvalidPage indicates a malformed or truncated page.
	ErrInvalidPage = errors.New("ogg: invalid page structure")

	// ErrInvalidHeader indicates a malformed CELT or comment header.
	ErrInvalidHeader = errors.New("ogg: invalid CELT header")

	// ErrBadCRC indicates a page whose checksum does not match.
	ErrBadCRC = errors.New("ogg: CRC mismatch")

	// ErrUnexpectedEOS indicates data ended inside a packet, or a write
	// after Close.
	ErrUnexpectedEOS = errors.New("ogg: unexpected end of stream")
)
