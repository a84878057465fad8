// SPDX-License-Identifier: EPL-2.0

// Package output provides the devices the engine mixes into.
//
// Realtime devices (Oto) pull from the Renderer on their own goroutine.
// Devices without a clock (File, Capture) implement Pumper and are driven
// by the engine's Update.
package output

import (
	"fmt"
	"strings"
)

// Renderer fills dst with interleaved float32 frames.
type Renderer interface {
	Render(dst []float32)
}

// Device plays what a Renderer produces.
type Device interface {
	Format() Format
	// Start begins pulling from r. It may only be called once.
	Start(r Renderer) error
	Close() error
}

// Pumper is implemented by devices that render only when asked.
type Pumper interface {
	Pump(frames int) error
}

// Format is the device sample layout.
type Format struct {
	SampleRate int
	Channels   int
}

func (f Format) validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidChannels, f.Channels)
	}
	return nil
}

// Device kinds accepted by Open.
const (
	KindOto  = "oto"
	KindWAV  = "wav"
	KindNull = "null"
)

// Open creates a device by kind. path is only used by KindWAV.
func Open(kind, path string, f Format) (Device, error) {
	switch strings.ToLower(kind) {
	case KindOto:
		return NewOto(f)
	case KindWAV:
		return NewFile(path, f)
	case KindNull:
		return NewNull(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDevice, kind)
	}
}
