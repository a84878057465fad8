// SPDX-License-Identifier: EPL-2.0

package effect

import (
	"fmt"

	"github.com/ik5/spatialfx/dsp"
)

const (
	LowpassParamCutoff = 0

	DefaultCutoff = 5000
)

// LowpassDescriptor describes a one-pole low-pass node.
func LowpassDescriptor() Descriptor {
	return Descriptor{
		Name:    "spatialfx lowpass",
		Version: 0x00010000,
		Params: []ParamDesc{
			LowpassParamCutoff: {
				Name:    "cutoff",
				Label:   "Hz",
				Kind:    ParamFloat,
				Min:     0,
				Max:     22000,
				Default: DefaultCutoff,
			},
		},
		New: func() Node { return &Lowpass{} },
	}
}

type Lowpass struct {
	filter  *dsp.OnePole
	cutoff  floatValue
	applied float32
}

func (l *Lowpass) Create(host Host) error {
	if host.SampleRate() <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrAllocation, host.SampleRate())
	}
	l.filter = dsp.NewOnePole(float64(host.SampleRate()), DefaultCutoff)
	l.cutoff.Store(DefaultCutoff)
	l.applied = DefaultCutoff
	return nil
}

func (l *Lowpass) Process(in, out []float32, length, channels int) error {
	if l.filter == nil {
		return ErrNotCreated
	}
	if c := l.cutoff.Load(); c != l.applied {
		l.filter.SetCutoff(float64(c))
		l.applied = c
	}
	l.filter.Process(in, out, length, channels)
	return nil
}

func (l *Lowpass) Release() {
	if l != nil {
		l.filter = nil
	}
}

func (l *Lowpass) ParameterFloat(index int) (float32, string, error) {
	if index != LowpassParamCutoff {
		return 0, "", fmt.Errorf("%w: %d", ErrInvalidParameter, index)
	}
	v := l.cutoff.Load()
	return v, fmt.Sprintf("%.0f Hz", v), nil
}

func (l *Lowpass) SetParameterFloat(index int, v float32) error {
	if index != LowpassParamCutoff {
		return fmt.Errorf("%w: %d", ErrInvalidParameter, index)
	}
	l.cutoff.Store(v)
	return nil
}

func (l *Lowpass) ParameterData(index int) ([]byte, error) {
	return nil, fmt.Errorf("%w: %d", ErrInvalidParameter, index)
}
