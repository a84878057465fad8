// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"math"
	"testing"
)

func TestLFO_TriangleShape(t *testing.T) {
	t.Parallel()

	// 1 Hz at 100 Hz sample rate: one period is 100 samples.
	l := NewLFO(100, 1)

	values := make([]float64, 100)
	for i := range values {
		values[i] = l.Next()
	}

	want := map[int]float64{0: -1, 25: 0, 50: 1, 75: 0}
	for i, w := range want {
		if math.Abs(values[i]-w) > 1e-9 {
			t.Errorf("sample %d = %v, want %v", i, values[i], w)
		}
	}
	for i, v := range values {
		if v < -1 || v > 1 {
			t.Fatalf("sample %d = %v out of range", i, v)
		}
	}

	if first := l.Next(); math.Abs(first+1) > 1e-9 {
		t.Errorf("second period starts at %v, want -1", first)
	}
}

func TestLFO_FrequencyLimits(t *testing.T) {
	t.Parallel()

	l := NewLFO(1000, 100)
	if l.phaseInc != 20.0/1000 {
		t.Errorf("phaseInc = %v, want capped at 20 Hz", l.phaseInc)
	}
	l.SetFrequency(0)
	if l.phaseInc != 0.01/1000 {
		t.Errorf("phaseInc = %v, want floored at 0.01 Hz", l.phaseInc)
	}
}
