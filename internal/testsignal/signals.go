// Package testsignal generates deterministic interleaved test signals in
// [-1, 1] for codec tests and the CLI.
package testsignal

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

const (
	Multisine = "multisine"
	Chirp     = "chirp"
	Impulses  = "impulses"
	Speech    = "speech"
	Silence   = "silence"
)

var kinds = []string{Multisine, Chirp, Impulses, Speech, Silence}

// Kinds returns the names accepted by Generate.
func Kinds() []string {
	out := make([]string, len(kinds))
	copy(out, kinds)
	return out
}

// Generate returns frames*channels interleaved samples of the named signal.
func Generate(kind string, sampleRate, frames, channels int) ([]float32, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}
	if frames < 0 {
		return nil, fmt.Errorf("invalid frame count: %d", frames)
	}

	n := frames * channels
	switch kind {
	case Multisine:
		return multisine(sampleRate, n, channels), nil
	case Chirp:
		return chirp(sampleRate, n, channels), nil
	case Impulses:
		return impulses(sampleRate, n, channels), nil
	case Speech:
		return speech(sampleRate, n, channels), nil
	case Silence:
		return make([]float32, n), nil
	default:
		return nil, fmt.Errorf("unknown signal %q", kind)
	}
}

// Sine returns frames*channels interleaved samples of a sine starting at
// sample offset. The second channel is detuned by 1%.
func Sine(sampleRate int, freq, amp float64, frames, channels, offset int) []float32 {
	out := make([]float32, frames*channels)
	for i := range frames {
		t := float64(offset+i) / float64(sampleRate)
		for ch := range channels {
			f := freq * (1 + 0.01*float64(ch))
			out[i*channels+ch] = float32(amp * math.Sin(2*math.Pi*f*t))
		}
	}
	return out
}

// Int16 scales samples to 16-bit PCM with clamping.
func Int16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := math.Round(float64(s) * 32767)
		out[i] = int16(max(-32768, min(32767, v)))
	}
	return out
}

// Hash returns the SHA-256 of the samples as little-endian float32.
func Hash(samples []float32) string {
	h := sha256.New()
	var b [4]byte
	for _, s := range samples {
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(s))
		_, _ = h.Write(b[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func multisine(sampleRate, samples, channels int) []float32 {
	signal := make([]float32, samples)
	freqs := []float64{440, 1000, 2000}
	modFreqs := []float64{1.3, 2.7, 0.9}
	onset := int(0.010 * float64(sampleRate))
	for i := range signal {
		ch := i % channels
		idx := i / channels
		t := float64(idx) / float64(sampleRate)
		var val float64
		for fi, freq := range freqs {
			if ch == 1 {
				freq *= 1.01
			}
			depth := 0.5 + 0.5*math.Sin(2*math.Pi*modFreqs[fi]*t)
			val += 0.3 * depth * math.Sin(2*math.Pi*freq*t)
		}
		if idx < onset {
			frac := float64(idx) / float64(onset)
			val *= frac * frac * frac
		}
		signal[i] = float32(clip(val))
	}
	return signal
}

func chirp(sampleRate, samples, channels int) []float32 {
	signal := make([]float32, samples)
	duration := float64(samples/channels) / float64(sampleRate)
	if duration <= 0 {
		return signal
	}
	f0, f1 := 60.0, math.Min(12000, 0.45*float64(sampleRate))
	k := math.Log(f1/f0) / duration
	for i := range signal {
		ch := i % channels
		t := float64(i/channels) / float64(sampleRate)
		phase := 2 * math.Pi * f0 * (math.Exp(k*t) - 1) / k
		env := 0.2 + 0.8*(0.5+0.5*math.Sin(2*math.Pi*0.41*t+0.3*float64(ch)))
		signal[i] = float32(clip(0.85 * env * math.Sin((1+0.006*float64(ch))*phase)))
	}
	return signal
}

func impulses(sampleRate, samples, channels int) []float32 {
	signal := make([]float32, samples)
	period := max(4, int(0.035*float64(sampleRate)))
	ringLen := int(0.015 * float64(sampleRate))
	decay := 0.0035 * float64(sampleRate)
	for i := range signal {
		ch := i % channels
		idx := i / channels
		pos := idx % period
		val := 0.0
		if pos == 0 {
			val = 0.92
		}
		if pos < ringLen {
			f := 540 + 80*float64(ch)
			val += 0.75 * math.Exp(-float64(pos)/decay) * math.Sin(2*math.Pi*f*float64(pos)/float64(sampleRate))
		}
		val += 0.02 * noise(idx, ch, 17)
		signal[i] = float32(clip(val))
	}
	return signal
}

func speech(sampleRate, samples, channels int) []float32 {
	signal := make([]float32, samples)
	phase := make([]float64, channels)
	prev := make([]float64, channels)
	for i := range signal {
		ch := i % channels
		idx := i / channels
		t := float64(idx) / float64(sampleRate)

		pitch := 95.0 + 28.0*math.Sin(2*math.Pi*0.63*t) + 16.0*math.Sin(2*math.Pi*0.17*t)
		pitch *= 1 + 0.01*float64(ch)
		phase[ch] = math.Mod(phase[ch]+2*math.Pi*pitch/float64(sampleRate), 2*math.Pi)
		voiced := math.Sin(phase[ch]) + 0.35*math.Sin(2*phase[ch]) + 0.2*math.Sin(3*phase[ch])

		voicing := 0.5 + 0.5*math.Sin(2*math.Pi*0.78*t+0.25)
		syllable := 0.25 + 0.75*math.Pow(0.5+0.5*math.Sin(2*math.Pi*3.2*t), 2)

		n := noise(idx, ch, 71)
		high := n - 0.86*prev[ch]
		prev[ch] = n
		mix := voicing*voiced + (1-voicing)*(0.38*high+0.22*math.Sin(2*math.Pi*3200*t))
		signal[i] = float32(clip(0.82 * syllable * mix))
	}
	return signal
}

func noise(idx, channel, salt int) float64 {
	x := uint32(idx*1664525 + channel*1013904223 + salt*2246822519)
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	return float64(int32(x)) / math.MaxInt32
}

func clip(v float64) float64 {
	return math.Max(-0.98, math.Min(0.98, v))
}
