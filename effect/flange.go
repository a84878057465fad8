// SPDX-License-Identifier: EPL-2.0

package effect

import (
	"fmt"

	"github.com/ik5/spatialfx/dsp"
)

const (
	FlangeParamDepth = 0
	FlangeParamRate  = 1

	DefaultFlangeDepth = 0.5
	DefaultFlangeRate  = 0.1
)

// FlangeDescriptor describes an LFO-swept delay node.
func FlangeDescriptor() Descriptor {
	return Descriptor{
		Name:    "spatialfx flange",
		Version: 0x00010000,
		Params: []ParamDesc{
			FlangeParamDepth: {Name: "depth", Kind: ParamFloat, Min: 0, Max: 1, Default: DefaultFlangeDepth},
			FlangeParamRate:  {Name: "rate", Label: "Hz", Kind: ParamFloat, Min: 0, Max: 20, Default: DefaultFlangeRate},
		},
		New: func() Node { return &Flange{} },
	}
}

type Flange struct {
	flanger      *dsp.Flanger
	depth, rate  floatValue
	appliedDepth float32
	appliedRate  float32
}

func (f *Flange) Create(host Host) error {
	if host.SampleRate() <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrAllocation, host.SampleRate())
	}
	f.flanger = dsp.NewFlanger(float64(host.SampleRate()))
	f.flanger.SetDepth(DefaultFlangeDepth)
	f.flanger.SetRate(DefaultFlangeRate)
	f.depth.Store(DefaultFlangeDepth)
	f.rate.Store(DefaultFlangeRate)
	f.appliedDepth, f.appliedRate = DefaultFlangeDepth, DefaultFlangeRate
	return nil
}

func (f *Flange) Process(in, out []float32, length, channels int) error {
	if f.flanger == nil {
		return ErrNotCreated
	}
	if d := f.depth.Load(); d != f.appliedDepth {
		f.flanger.SetDepth(float64(d))
		f.appliedDepth = d
	}
	if r := f.rate.Load(); r != f.appliedRate {
		f.flanger.SetRate(float64(r))
		f.appliedRate = r
	}
	f.flanger.Process(in, out, length, channels)
	return nil
}

func (f *Flange) Release() {
	if f != nil {
		f.flanger = nil
	}
}

func (f *Flange) value(index int) (*floatValue, error) {
	switch index {
	case FlangeParamDepth:
		return &f.depth, nil
	case FlangeParamRate:
		return &f.rate, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidParameter, index)
	}
}

func (f *Flange) ParameterFloat(index int) (float32, string, error) {
	v, err := f.value(index)
	if err != nil {
		return 0, "", err
	}
	x := v.Load()
	if index == FlangeParamRate {
		return x, fmt.Sprintf("%.2f Hz", x), nil
	}
	return x, fmt.Sprintf("%.0f%%", x*100), nil
}

func (f *Flange) SetParameterFloat(index int, x float32) error {
	v, err := f.value(index)
	if err != nil {
		return err
	}
	v.Store(x)
	return nil
}

func (f *Flange) ParameterData(index int) ([]byte, error) {
	return nil, fmt.Errorf("%w: %d", ErrInvalidParameter, index)
}
