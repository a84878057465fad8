// SPDX-License-Identifier: EPL-2.0

package dsp

import "math"

// OnePole is a per-channel one-pole low-pass filter.
type OnePole struct {
	sampleRate float64
	coeff      float32
	state      [MaxChannels]float32
}

func NewOnePole(sampleRate, cutoff float64) *OnePole {
	f := &OnePole{sampleRate: sampleRate}
	f.SetCutoff(cutoff)
	return f
}

// SetCutoff sets the -3 dB point in Hz. Zero or less silences the output;
// values at or above Nyquist pass the input through.
func (f *OnePole) SetCutoff(hz float64) {
	switch {
	case hz <= 0:
		f.coeff = 0
	case hz >= f.sampleRate/2:
		f.coeff = 1
	default:
		f.coeff = float32(1 - math.Exp(-2*math.Pi*hz/f.sampleRate))
	}
}

// Process filters length interleaved frames from in to out.
func (f *OnePole) Process(in, out []float32, length, channels int) {
	channels = min(channels, MaxChannels)
	for s := range length {
		base := s * channels
		for c := range channels {
			f.state[c] += f.coeff * (in[base+c] - f.state[c])
			out[base+c] = f.state[c]
		}
	}
}

func (f *OnePole) Reset() {
	f.state = [MaxChannels]float32{}
}
