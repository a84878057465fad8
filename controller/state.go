// SPDX-License-Identifier: EPL-2.0

package controller

// FilterState is the bypass state of the filter node.
type FilterState int

const (
	// Engaged runs the filter. It is the initial state.
	Engaged FilterState = iota
	// Bypassed passes audio through untouched and freezes the delay line.
	Bypassed
)

func (s FilterState) String() string {
	switch s {
	case Engaged:
		return "engaged"
	case Bypassed:
		return "bypassed"
	default:
		return "unknown"
	}
}

func stateOf(bypassed bool) FilterState {
	if bypassed {
		return Bypassed
	}
	return Engaged
}

// stepClamped moves v by delta, keeping it within [0, 1].
func stepClamped(v, delta float32) float32 {
	return min(max(v+delta, 0), 1)
}
