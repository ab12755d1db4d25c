package gocelt

import (
	"encoding/binary"
	"math"
)

func float32ToInt16(sample float32) int16 {
	scaled := float64(sample) * 32768.0
	if scaled > 32767.0 {
		return 32767
	}
	if scaled < -32768.0 {
		return -32768
	}
	return int16(math.RoundToEven(scaled))
}

func int16ToFloat32(sample int16) float32 {
	return float32(sample) / 32768.0
}

func int16sToFloat32s(dst []float32, src []int16) {
	for i, s := range src {
		dst[i] = int16ToFloat32(s)
	}
}

func float32sToInt16s(dst []int16, src []float32) {
	for i, s := range src {
		dst[i] = float32ToInt16(s)
	}
}

// Little-endian chunk codecs used by the stream adapters.

func putInt16LE(dst []byte, src []int16) {
	for i, s := range src {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(s))
	}
}

func getInt16LE(dst []int16, src []byte) {
	for i := range dst {
		dst[i] = int16(binary.LittleEndian.Uint16(src[i*2:]))
	}
}

func putFloat32LE(dst []byte, src []float32) {
	for i, s := range src {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(s))
	}
}

func getFloat32LE(dst []float32, src []byte) {
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
}
