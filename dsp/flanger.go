// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"math"
)

// Flanger timings in milliseconds. Depth 1 swings the delay across the full
// centre +/- swing range.
const (
	flangeCentreMs = 5.0
	flangeSwingMs  = 4.0
	flangeMaxMs    = flangeCentreMs + flangeSwingMs + 1
)

// Flanger mixes the input with a copy delayed by an LFO-swept amount.
// All channels share one LFO.
type Flanger struct {
	sampleRate float64
	depth      float64
	mix        float32
	lfo        *LFO
	lines      [MaxChannels][]float32
	size       int
	write      int
}

func NewFlanger(sampleRate float64) *Flanger {
	f := &Flanger{
		sampleRate: sampleRate,
		depth:      0.5,
		mix:        0.5,
		lfo:        NewLFO(sampleRate, 0.1),
		size:       int(math.Ceil(flangeMaxMs*sampleRate/1000)) + 2,
	}
	for c := range f.lines {
		f.lines[c] = make([]float32, f.size)
	}
	return f
}

// SetDepth clamps depth to [0, 1].
func (f *Flanger) SetDepth(depth float64) {
	f.depth = math.Max(0, math.Min(1, depth))
}

func (f *Flanger) SetRate(hz float64) {
	f.lfo.SetFrequency(hz)
}

// Process flanges length interleaved frames from in to out. in and out may alias.
func (f *Flanger) Process(in, out []float32, length, channels int) {
	channels = min(channels, MaxChannels)
	for s := range length {
		delayMs := flangeCentreMs + flangeSwingMs*f.depth*f.lfo.Next()
		delay := delayMs * f.sampleRate / 1000

		readPos := float64(f.write) - delay
		if readPos < 0 {
			readPos += float64(f.size)
		}
		i0 := int(readPos)
		frac := float32(readPos - float64(i0))
		i0 %= f.size
		i1 := (i0 + 1) % f.size

		base := s * channels
		for c := range channels {
			line := f.lines[c]
			v := in[base+c]
			line[f.write] = v
			delayed := line[i0]*(1-frac) + line[i1]*frac
			out[base+c] = v*(1-f.mix) + delayed*f.mix
		}

		f.write++
		if f.write == f.size {
			f.write = 0
		}
	}
}
