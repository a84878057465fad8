// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"math"
	"testing"
)

func TestOnePole_Cutoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cutoff float64
		check  func(last float32) bool
	}{
		{"dc settles", 1000, func(v float32) bool { return math.Abs(float64(v-1)) < 1e-3 }},
		{"zero silences", 0, func(v float32) bool { return v == 0 }},
		{"nyquist passes", 30000, func(v float32) bool { return v == 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := NewOnePole(48000, tt.cutoff)
			in := make([]float32, 2*4800)
			for i := range in {
				in[i] = 1
			}
			out := make([]float32, len(in))
			f.Process(in, out, 4800, 2)

			if !tt.check(out[len(out)-1]) || !tt.check(out[len(out)-2]) {
				t.Errorf("last frame = (%v, %v)", out[len(out)-2], out[len(out)-1])
			}
		})
	}
}

func TestOnePole_AttenuatesHighFrequencies(t *testing.T) {
	t.Parallel()

	f := NewOnePole(48000, 200)
	n := 4800
	in := make([]float32, n)
	for i := range in {
		in[i] = float32(math.Sin(2 * math.Pi * 8000 * float64(i) / 48000))
	}
	out := make([]float32, n)
	f.Process(in, out, n, 1)

	var peak float64
	for _, v := range out[n/2:] {
		peak = math.Max(peak, math.Abs(float64(v)))
	}
	if peak > 0.1 {
		t.Errorf("8 kHz peak through a 200 Hz low-pass = %v", peak)
	}
}
