package testsignal

import (
	"math"
	"testing"
)

func TestGenerate(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(kind, func(t *testing.T) {
			a, err := Generate(kind, 48000, 4800, 2)
			if err != nil {
				t.Fatal(err)
			}
			if len(a) != 9600 {
				t.Fatalf("len %d", len(a))
			}
			for i, s := range a {
				if math.Abs(float64(s)) > 0.98 || math.IsNaN(float64(s)) {
					t.Fatalf("sample %d = %g", i, s)
				}
			}
			b, _ := Generate(kind, 48000, 4800, 2)
			if Hash(a) != Hash(b) {
				t.Fatal("not deterministic")
			}
		})
	}
}

func TestGenerate_Errors(t *testing.T) {
	if _, err := Generate("noise", 48000, 10, 1); err == nil {
		t.Error("unknown kind accepted")
	}
	if _, err := Generate(Speech, 0, 10, 1); err == nil {
		t.Error("zero rate accepted")
	}
	if _, err := Generate(Speech, 48000, 10, 0); err == nil {
		t.Error("zero channels accepted")
	}
}

func TestSine(t *testing.T) {
	s := Sine(48000, 1000, 0.5, 48, 1, 0)
	if s[0] != 0 {
		t.Fatalf("first sample %g", s[0])
	}
	// A quarter period of 1 kHz at 48 kHz is 12 samples.
	if math.Abs(float64(s[12])-0.5) > 1e-6 {
		t.Fatalf("peak %g", s[12])
	}
	cont := Sine(48000, 1000, 0.5, 24, 1, 24)
	for i := range cont {
		if cont[i] != s[24+i] {
			t.Fatalf("offset sample %d differs", i)
		}
	}
}

func TestInt16(t *testing.T) {
	got := Int16([]float32{0, 1, -1, 2, -2, 0.5})
	want := []int16{0, 32767, -32767, 32767, -32768, 16384}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Int16[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
