// SPDX-License-Identifier: EPL-2.0

package effect

import (
	"fmt"
	"strings"

	"github.com/ik5/spatialfx/dsp"
)

// Parameter slots of the circular-history filter.
const (
	FilterParamPeaks = 0
	FilterParamWet   = 1
)

// Preset fixes the kernel weights of a filter node. The wet parameter scales
// Mix.In at process time; Mix.Out is used as is.
type Preset struct {
	Name string
	Mix  dsp.Mix
}

var (
	// Echo doubles the signal with its delayed copy.
	Echo = Preset{Name: "echo", Mix: dsp.Mix{In: 1, Out: 1}}
	// Blend averages the signal with its delayed copy.
	Blend = Preset{Name: "blend", Mix: dsp.Mix{In: 0.5, Out: 0.5}}
)

// PresetByName looks up a preset, ignoring case.
func PresetByName(name string) (Preset, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case Echo.Name:
		return Echo, nil
	case Blend.Name:
		return Blend, nil
	default:
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
}

// FilterDescriptor describes a circular-history filter using p.
func FilterDescriptor(p Preset) Descriptor {
	return Descriptor{
		Name:    "spatialfx " + p.Name + " filter",
		Version: 0x00010000,
		Params: []ParamDesc{
			FilterParamPeaks: {
				Name:        "peaks",
				Kind:        ParamData,
				Description: "per-channel output peaks of the last block",
			},
			FilterParamWet: {
				Name:        "wet",
				Label:       "%",
				Kind:        ParamFloat,
				Description: "scales the delayed signal",
				Min:         0,
				Max:         1,
				Default:     1,
			},
		},
		New: func() Node { return NewFilter(p) },
	}
}

// Filter runs the dsp kernel with a fixed preset.
type Filter struct {
	preset Preset
	unit   *dsp.Unit
	meter  peakMeter
}

func NewFilter(p Preset) *Filter {
	return &Filter{preset: p}
}

func (f *Filter) Create(host Host) error {
	u, err := dsp.NewUnit(host.BlockSize(), dsp.MaxChannels)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAllocation, err)
	}
	f.unit = u
	return nil
}

func (f *Filter) Process(in, out []float32, length, channels int) error {
	if f.unit == nil {
		return ErrNotCreated
	}

	mix := f.preset.Mix
	mix.In *= f.unit.Parameter()

	if err := f.unit.Process(in, out, length, channels, mix); err != nil {
		return err
	}
	f.meter.update(out, length, channels)
	return nil
}

func (f *Filter) Release() {
	if f == nil || f.unit == nil {
		return
	}
	f.unit.Release()
	f.unit = nil
}

func (f *Filter) ParameterFloat(index int) (float32, string, error) {
	if index != FilterParamWet {
		return 0, "", fmt.Errorf("%w: %d", ErrInvalidParameter, index)
	}
	if f.unit == nil {
		return 0, "", ErrNotCreated
	}
	v := f.unit.Parameter()
	return v, fmt.Sprintf("%.0f%%", v*100), nil
}

func (f *Filter) SetParameterFloat(index int, v float32) error {
	if index != FilterParamWet {
		return fmt.Errorf("%w: %d", ErrInvalidParameter, index)
	}
	if f.unit == nil {
		return ErrNotCreated
	}
	f.unit.SetParameter(v)
	return nil
}

func (f *Filter) ParameterData(index int) ([]byte, error) {
	if index != FilterParamPeaks {
		return nil, fmt.Errorf("%w: %d", ErrInvalidParameter, index)
	}
	return f.meter.bytes(), nil
}

// Unit exposes the kernel state for inspection.
func (f *Filter) Unit() *dsp.Unit { return f.unit }
