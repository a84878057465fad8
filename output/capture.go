// SPDX-License-Identifier: EPL-2.0

package output

import "sync"

// Capture renders on Pump and optionally keeps what it rendered.
type Capture struct {
	format Format
	keep   bool

	mu      sync.Mutex
	r       Renderer
	buf     []float32
	samples []float32
	frames  int
	closed  bool
}

// NewNull returns a Capture that discards everything.
func NewNull(f Format) (*Capture, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &Capture{format: f}, nil
}

// NewCapture returns a Capture that records every pumped frame.
func NewCapture(f Format) (*Capture, error) {
	c, err := NewNull(f)
	if err != nil {
		return nil, err
	}
	c.keep = true
	return c, nil
}

func (c *Capture) Format() Format { return c.format }

func (c *Capture) Start(r Renderer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.r != nil {
		return ErrAlreadyStarted
	}
	c.r = r
	return nil
}

func (c *Capture) Pump(frames int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.r == nil {
		return ErrNotStarted
	}
	if frames <= 0 {
		return nil
	}

	n := frames * c.format.Channels
	if cap(c.buf) < n {
		c.buf = make([]float32, n)
	}
	c.buf = c.buf[:n]
	c.r.Render(c.buf)

	if c.keep {
		c.samples = append(c.samples, c.buf...)
	}
	c.frames += frames
	return nil
}

// Samples returns a copy of everything recorded so far.
func (c *Capture) Samples() []float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]float32(nil), c.samples...)
}

// Frames counts pumped frames, recorded or not.
func (c *Capture) Frames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

// Reset drops the recorded samples.
func (c *Capture) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = c.samples[:0]
}

func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.r = nil
	return nil
}
