package rangecoding

import (
	"math/rand"
	"testing"
)

type opKind int

const (
	opBit opKind = iota
	opICDF
	opUniform
	opRaw
	opBin
)

type op struct {
	kind opKind
	val  uint32
	arg  uint32
}

var testICDF = []uint8{200, 120, 40, 0}

func randomOps(r *rand.Rand, n int) []op {
	ops := make([]op, n)
	for i := range ops {
		switch opKind(r.Intn(5)) {
		case opBit:
			logp := uint32(1 + r.Intn(15))
			v := uint32(0)
			if r.Intn(1<<logp) == 0 {
				v = 1
			}
			ops[i] = op{kind: opBit, val: v, arg: logp}
		case opICDF:
			ops[i] = op{kind: opICDF, val: uint32(r.Intn(len(testICDF)))}
		case opUniform:
			ft := uint32(2 + r.Intn(5000))
			ops[i] = op{kind: opUniform, val: uint32(r.Intn(int(ft))), arg: ft}
		case opRaw:
			n := uint32(1 + r.Intn(MaxRawBits))
			ops[i] = op{kind: opRaw, val: r.Uint32() & (1<<n - 1), arg: n}
		case opBin:
			fl := uint32(r.Intn(1 << 14))
			ops[i] = op{kind: opBin, val: fl, arg: fl + 1 + uint32(r.Intn(1<<14))}
		}
	}
	return ops
}

func encodeOps(e *Encoder, ops []op) []int {
	tells := make([]int, len(ops))
	for i, o := range ops {
		switch o.kind {
		case opBit:
			e.EncodeBit(int(o.val), uint(o.arg))
		case opICDF:
			e.EncodeICDF(int(o.val), testICDF, 8)
		case opUniform:
			e.EncodeUniform(o.val, o.arg)
		case opRaw:
			e.EncodeRawBits(o.val, uint(o.arg))
		case opBin:
			e.EncodeBin(o.val, o.arg, 15)
		}
		tells[i] = e.Tell()
	}
	return tells
}

func TestRoundTrip(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		r := rand.New(rand.NewSource(seed))
		ops := randomOps(r, 200)

		var enc Encoder
		enc.Init(make([]byte, 4096))
		encTells := encodeOps(&enc, ops)
		packet := enc.Done()
		if enc.Err() {
			t.Fatalf("seed %d: encoder overflow", seed)
		}

		var dec Decoder
		dec.Init(packet)
		for i, o := range ops {
			switch o.kind {
			case opBit:
				if got := dec.DecodeBit(uint(o.arg)); uint32(got) != o.val {
					t.Fatalf("seed %d op %d: bit = %d, want %d", seed, i, got, o.val)
				}
			case opICDF:
				if got := dec.DecodeICDF(testICDF, 8); uint32(got) != o.val {
					t.Fatalf("seed %d op %d: icdf = %d, want %d", seed, i, got, o.val)
				}
			case opUniform:
				if got := dec.DecodeUniform(o.arg); got != o.val {
					t.Fatalf("seed %d op %d: uniform = %d, want %d", seed, i, got, o.val)
				}
			case opRaw:
				if got := dec.DecodeRawBits(uint(o.arg)); got != o.val {
					t.Fatalf("seed %d op %d: raw = %d, want %d", seed, i, got, o.val)
				}
			case opBin:
				fm := dec.DecodeBin(15)
				if fm < o.val || fm >= o.arg {
					t.Fatalf("seed %d op %d: bin fm = %d, want in [%d,%d)", seed, i, fm, o.val, o.arg)
				}
				dec.Update(o.val, o.arg, 1<<15)
			}
			if dec.Tell() != encTells[i] {
				t.Fatalf("seed %d op %d: decoder tell %d != encoder tell %d", seed, i, dec.Tell(), encTells[i])
			}
		}
	}
}

func TestShrinkKeepsRawBits(t *testing.T) {
	var enc Encoder
	enc.Init(make([]byte, 64))
	enc.EncodeBit(1, 3)
	enc.EncodeRawBits(0x2a5, 10)
	enc.EncodeRawBits(0x1ffff, 17)
	enc.Shrink(12)
	enc.EncodeUniform(77, 100)
	enc.EncodeRawBits(5, 3)
	packet := enc.Done()
	if len(packet) != 12 {
		t.Fatalf("len(packet) = %d, want 12", len(packet))
	}
	if enc.Err() {
		t.Fatal("unexpected overflow")
	}

	var dec Decoder
	dec.Init(packet)
	if got := dec.DecodeBit(3); got != 1 {
		t.Fatalf("bit = %d", got)
	}
	if got := dec.DecodeRawBits(10); got != 0x2a5 {
		t.Fatalf("raw10 = %#x", got)
	}
	if got := dec.DecodeRawBits(17); got != 0x1ffff {
		t.Fatalf("raw17 = %#x", got)
	}
	if got := dec.DecodeUniform(100); got != 77 {
		t.Fatalf("uniform = %d", got)
	}
	if got := dec.DecodeRawBits(3); got != 5 {
		t.Fatalf("raw3 = %d", got)
	}
}

func TestInitialTell(t *testing.T) {
	var enc Encoder
	enc.Init(make([]byte, 8))
	var dec Decoder
	dec.Init([]byte{0, 0, 0, 0})
	if enc.Tell() != 1 || dec.Tell() != 1 {
		t.Fatalf("initial tell enc=%d dec=%d, want 1", enc.Tell(), dec.Tell())
	}
}

func TestOverflowIsReported(t *testing.T) {
	var enc Encoder
	enc.Init(make([]byte, 2))
	for i := 0; i < 64; i++ {
		enc.EncodeUniform(uint32(i%200), 200)
	}
	enc.Done()
	if !enc.Err() {
		t.Fatal("expected overflow on a 2-byte buffer")
	}
}

func TestDecodeEmptyBuffer(t *testing.T) {
	var dec Decoder
	dec.Init(nil)
	_ = dec.DecodeBit(15)
	_ = dec.DecodeUniform(1000)
	_ = dec.DecodeRawBits(12)
	if dec.StorageBits() != 0 {
		t.Fatalf("StorageBits = %d", dec.StorageBits())
	}
}
