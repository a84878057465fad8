// SPDX-License-Identifier: EPL-2.0

//go:build headless

package output

// Oto in headless builds renders into a discarding buffer when pumped, so
// streams and voices keep advancing without an audio device.
type Oto struct {
	*Capture
}

func NewOto(f Format) (*Oto, error) {
	c, err := NewNull(f)
	if err != nil {
		return nil, err
	}
	return &Oto{Capture: c}, nil
}
