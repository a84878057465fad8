// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
)

// Collect drains src into memory at targetRate.
//
// The pipeline is resample -> (optional) mono downmix -> buffer. It is what a
// sound engine does when a sound is created as a sample rather than a stream:
// decoding happens once at load time, and playback only copies frames.
//
// Parameters:
//   - src: the audio source; it is not closed by Collect
//   - targetRate: sample rate of the returned buffer in Hz
//   - mono: downmix to a single channel (used for 3D sounds, which are panned later)
//   - bufferSize: samples per read, e.g. 4096
func Collect(src Source, targetRate int, mono bool, bufferSize int) (*Buffer, error) {
	if targetRate <= 0 {
		return nil, ErrInvalidRate
	}
	if src.Channels() <= 0 {
		return nil, ErrInvalidChannels
	}

	var pipeline Source = NewResampler(src, targetRate)
	if mono {
		pipeline = NewMonoMixer(pipeline)
	}

	channels := pipeline.Channels()
	bufferSize -= bufferSize % channels
	if bufferSize <= 0 {
		bufferSize = 4096 * channels
	}

	// Estimate ~2 seconds, grow as needed.
	out := &Buffer{
		Data:       make([]float32, 0, targetRate*channels*2),
		Channels:   channels,
		SampleRate: targetRate,
	}
	buf := make([]float32, bufferSize)

	for {
		n, err := pipeline.ReadSamples(buf)
		if n > 0 {
			out.Data = append(out.Data, buf[:n]...)
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("collecting samples: %w", err)
		}
	}

	return out, nil
}
