// SPDX-License-Identifier: EPL-2.0

package audio

import "io"

// Buffer is fully decoded interleaved PCM held in memory.
type Buffer struct {
	Data       []float32
	Channels   int
	SampleRate int
}

// Frames returns the number of frames held by the buffer.
func (b *Buffer) Frames() int {
	if b == nil || b.Channels <= 0 {
		return 0
	}
	return len(b.Data) / b.Channels
}

// BufferSource streams a Buffer from the start. It never closes the buffer.
type BufferSource struct {
	buf *Buffer
	pos int
}

func NewBufferSource(buf *Buffer) *BufferSource {
	return &BufferSource{buf: buf}
}

func (s *BufferSource) SampleRate() int { return s.buf.SampleRate }
func (s *BufferSource) Channels() int   { return s.buf.Channels }
func (s *BufferSource) BufSize() int    { return 4096 }
func (s *BufferSource) Close() error    { return nil }

// Rewind restarts the stream at the first frame.
func (s *BufferSource) Rewind() { s.pos = 0 }

func (s *BufferSource) ReadSamples(dst []float32) (int, error) {
	if len(dst)%s.buf.Channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if s.pos >= len(s.buf.Data) {
		return 0, io.EOF
	}

	n := copy(dst, s.buf.Data[s.pos:])
	s.pos += n
	if s.pos >= len(s.buf.Data) {
		return n, io.EOF
	}
	return n, nil
}
