// SPDX-License-Identifier: EPL-2.0

package output

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/ik5/spatialfx/formats/wav"
)

// File records the mix to a 16-bit WAV file.
type File struct {
	format Format
	path   string

	mu  sync.Mutex
	f   *os.File
	w   *wav.Writer
	r   Renderer
	buf []float32
}

// NewFile creates (or truncates) path.
func NewFile(path string, f Format) (*File, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, ErrNoPath
	}

	fh, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}

	return &File{
		format: f,
		path:   path,
		f:      fh,
		w:      wav.NewWriter(fh, f.SampleRate, f.Channels),
	}, nil
}

func (d *File) Format() Format { return d.format }

// Path is where the recording goes.
func (d *File) Path() string { return d.path }

func (d *File) Start(r Renderer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.f == nil {
		return ErrClosed
	}
	if d.r != nil {
		return ErrAlreadyStarted
	}
	d.r = r
	return nil
}

func (d *File) Pump(frames int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.f == nil {
		return ErrClosed
	}
	if d.r == nil {
		return ErrNotStarted
	}
	if frames <= 0 {
		return nil
	}

	n := frames * d.format.Channels
	if cap(d.buf) < n {
		d.buf = make([]float32, n)
	}
	d.buf = d.buf[:n]
	d.r.Render(d.buf)

	return d.w.WriteSamples(d.buf)
}

// Close finalizes the WAV header and closes the file.
func (d *File) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.f == nil {
		return nil
	}

	werr := d.w.Close()
	ferr := d.f.Close()
	d.f = nil
	d.r = nil

	return errors.Join(werr, ferr)
}
