// Package plc implements packet loss concealment state for the CELT decoder.
//
// When a frame is lost the decoder still has to produce one frame of audio
// and advance its predictive state. This package tracks consecutive losses,
// the fade gain applied to concealed frames, and builds concealment spectra
// from the last good frame's band energies and shapes.
package plc

// MaxConcealedFrames is the number of consecutive lost frames that are
// concealed with decaying audio. Later losses produce silence.
const MaxConcealedFrames = 5

// FadePerFrame is the linear gain applied per lost frame (about -6 dB).
const FadePerFrame = 0.5

// DecayQ8 is FadePerFrame expressed as a log2 energy step in Q8.
const DecayQ8 = 256

// State tracks loss across frames for one decoder.
type State struct {
	lostCount  int
	fadeFactor float64
}

// NewState returns a state with no recorded loss and full gain.
func NewState() *State {
	return &State{fadeFactor: 1.0}
}

// Reset clears loss tracking after a good frame.
func (s *State) Reset() {
	s.lostCount = 0
	s.fadeFactor = 1.0
}

// RecordLoss registers one lost frame and returns the gain to apply to it.
// The first loss returns FadePerFrame, the second FadePerFrame², and so on.
func (s *State) RecordLoss() float64 {
	s.lostCount++
	s.fadeFactor *= FadePerFrame
	if s.fadeFactor < 0.001 {
		s.fadeFactor = 0
	}
	return s.fadeFactor
}

// LostCount returns the number of consecutive lost frames.
func (s *State) LostCount() int {
	return s.lostCount
}

// FadeFactor returns the current concealment gain in [0, 1].
func (s *State) FadeFactor() float64 {
	return s.fadeFactor
}

// IsExhausted reports whether concealment has run past MaxConcealedFrames
// and output should be silent.
func (s *State) IsExhausted() bool {
	return s.lostCount > MaxConcealedFrames || s.fadeFactor == 0
}

// ReuseShape reports whether the current lost frame should repeat the
// previous spectral shape instead of noise. Only the first loss does.
func (s *State) ReuseShape() bool {
	return s.lostCount == 1
}
