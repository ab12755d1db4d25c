// Package ogg reads and writes CELT streams in the Ogg container.
//
// A stream starts with two header packets, each on its own page:
//
//	CELT header (BOS page, 60 bytes, little-endian int32 fields):
//	  Bytes 0-7:   "CELT    " magic
//	  Bytes 8-27:  encoder version string, NUL padded
//	  Bytes 28-31: bitstream version id
//	  Bytes 32-35: header size
//	  Bytes 36-39: sample rate
//	  Bytes 40-43: channels
//	  Bytes 44-47: frame size (samples per channel per packet)
//	  Bytes 48-51: overlap
//	  Bytes 52-55: bytes per packet (0 for variable rate)
//	  Bytes 56-59: extra header packets
//
//	Comment header (Vorbis comment layout without framing bit):
//	  4 bytes vendor length, vendor string,
//	  4 bytes comment count, then length-prefixed "KEY=value" strings.
//
// Every following packet is one CELT frame. The granule position of a page
// is the number of samples per channel completed at the end of the page.
//
// Pages use the Ogg CRC-32 (polynomial 0x04C11DB7, not IEEE), computed over
// the whole page with the CRC field zeroed.
package ogg
