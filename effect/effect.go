// SPDX-License-Identifier: EPL-2.0

// Package effect defines the contract between the sound engine and a
// pluggable processing node, plus the nodes shipped with the module.
//
// The engine drives a Node through its lifecycle:
//
//	node := desc.New()
//	if err := node.Create(host); err != nil {
//		// discard node, never call Process or Release
//	}
//	node.Process(in, out, length, channels) // audio goroutine, once per block
//	node.Release()
//
// Parameter getters and setters may be called from any goroutine while
// Process runs. Implementations keep parameters in atomics.
package effect

// Host is what a node can ask of the engine when it is created.
type Host interface {
	// BlockSize is the number of frames per Process call.
	BlockSize() int
	SampleRate() int
}

// Node is one instance of an effect.
type Node interface {
	// Create allocates the node state. On error the node must be discarded.
	Create(host Host) error
	// Process reads length frames of interleaved audio from in and writes
	// the same shape to out. in and out may be the same slice.
	Process(in, out []float32, length, channels int) error
	// Release frees the state. It is safe to call more than once.
	Release()

	ParameterFloat(index int) (float32, string, error)
	SetParameterFloat(index int, v float32) error
	ParameterData(index int) ([]byte, error)
}

// ParamKind tells float and opaque data parameters apart.
type ParamKind int

const (
	ParamFloat ParamKind = iota
	ParamData
)

func (k ParamKind) String() string {
	switch k {
	case ParamFloat:
		return "float"
	case ParamData:
		return "data"
	default:
		return "unknown"
	}
}

// ParamDesc describes one parameter slot. Min and Max are advisory; nodes
// store what they are given.
type ParamDesc struct {
	Name        string
	Label       string
	Description string
	Kind        ParamKind
	Min         float32
	Max         float32
	Default     float32
}

// Descriptor is what gets registered with the engine.
type Descriptor struct {
	Name    string
	Version uint32
	Params  []ParamDesc
	New     func() Node
}

// FloatParams returns the indices of the float parameters.
func (d Descriptor) FloatParams() []int {
	var idx []int
	for i, p := range d.Params {
		if p.Kind == ParamFloat {
			idx = append(idx, i)
		}
	}
	return idx
}

var (
	_ Node = (*Filter)(nil)
	_ Node = (*Lowpass)(nil)
	_ Node = (*Flange)(nil)
)
