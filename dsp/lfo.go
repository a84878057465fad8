// SPDX-License-Identifier: EPL-2.0

package dsp

import "math"

// LFO is a triangle oscillator in [-1, 1].
type LFO struct {
	sampleRate float64
	phase      float64
	phaseInc   float64
}

func NewLFO(sampleRate, hz float64) *LFO {
	l := &LFO{sampleRate: sampleRate}
	l.SetFrequency(hz)
	return l
}

// SetFrequency limits hz to 0.01..20.
func (l *LFO) SetFrequency(hz float64) {
	hz = math.Max(0.01, math.Min(20, hz))
	l.phaseInc = hz / l.sampleRate
}

// Next returns the current value and advances one sample.
func (l *LFO) Next() float64 {
	var v float64
	if l.phase < 0.5 {
		v = 4*l.phase - 1
	} else {
		v = 3 - 4*l.phase
	}

	l.phase += l.phaseInc
	if l.phase >= 1 {
		l.phase -= 1
	}
	return v
}
