// frame.go implements the frame adapter: scoped scratch buffers sized
// exactly to one frame or one packet.

package gocelt

import (
	"sync"
	"sync/atomic"

	"github.com/thesyncim/gocelt/celt"
)

// MaxPacketSize is the largest packet the engine produces. Larger targets
// are clamped to it.
const MaxPacketSize = celt.MaxPacketBytes

// scratchOutstanding counts scratch buffers taken and not yet returned.
var scratchOutstanding atomic.Int64

// packetPool holds MaxPacketSize buffers for every target size; getPacket
// reslices them and callers copy the packet out at its final length.
var packetPool = sync.Pool{
	New: func() any {
		b := make([]byte, MaxPacketSize)
		return &b
	},
}

// frameAdapter hands out float32 frame buffers of exactly samples length.
type frameAdapter struct {
	samples int
	pcm     sync.Pool
}

func newFrameAdapter(samples int) *frameAdapter {
	a := &frameAdapter{samples: samples}
	a.pcm.New = func() any {
		b := make([]float32, samples)
		return &b
	}
	return a
}

func (a *frameAdapter) getPCM() *[]float32 {
	scratchOutstanding.Add(1)
	return a.pcm.Get().(*[]float32)
}

func (a *frameAdapter) putPCM(b *[]float32) {
	clear(*b)
	a.pcm.Put(b)
	scratchOutstanding.Add(-1)
}

// checkLen returns a SizeError unless n is exactly one frame.
func (a *frameAdapter) checkLen(n int) error {
	if n != a.samples {
		return &SizeError{Got: n, Want: a.samples}
	}
	return nil
}

// packetCapacity is the scratch size for a target packet size.
func packetCapacity(target int) int {
	return min(max(target, 0), MaxPacketSize)
}

func getPacket(size int) (*[]byte, []byte) {
	scratchOutstanding.Add(1)
	b := packetPool.Get().(*[]byte)
	return b, (*b)[:size]
}

func putPacket(b *[]byte) {
	packetPool.Put(b)
	scratchOutstanding.Add(-1)
}
