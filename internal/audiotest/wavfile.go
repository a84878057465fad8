// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV writes a 16-bit PCM WAV fixture named name under dir and returns its path.
// frames are generated by waveform, as for NewMockSource.
func WriteWAV(dir, name string, sampleRate, channels, frames int, waveform func(sample int, channel int) float32) (string, error) {
	return writeFixture(dir, name, func(f *os.File) encoder {
		return wav.NewEncoder(f, sampleRate, 16, channels, 1)
	}, pcm16(sampleRate, channels, frames, waveform))
}

// WriteAIFF is WriteWAV for a 16-bit AIFF fixture.
func WriteAIFF(dir, name string, sampleRate, channels, frames int, waveform func(sample int, channel int) float32) (string, error) {
	return writeFixture(dir, name, func(f *os.File) encoder {
		return aiff.NewEncoder(f, sampleRate, 16, channels)
	}, pcm16(sampleRate, channels, frames, waveform))
}

type encoder interface {
	Write(buf *goaudio.IntBuffer) error
	Close() error
}

func writeFixture(dir, name string, newEncoder func(*os.File) encoder, buf *goaudio.IntBuffer) (string, error) {
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating fixture: %w", err)
	}
	defer f.Close()

	enc := newEncoder(f)
	if err := enc.Write(buf); err != nil {
		return "", fmt.Errorf("writing fixture: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("finalizing fixture: %w", err)
	}

	return path, nil
}

func pcm16(sampleRate, channels, frames int, waveform func(sample int, channel int) float32) *goaudio.IntBuffer {
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           make([]int, frames*channels),
		SourceBitDepth: 16,
	}
	for i := range frames {
		for c := range channels {
			v := math.Max(-1, math.Min(1, float64(waveform(i, c))))
			buf.Data[i*channels+c] = int(v * math.MaxInt16)
		}
	}
	return buf
}

// WriteToneWAV writes a sine fixture at 440 Hz with amplitude 0.5.
func WriteToneWAV(dir, name string, sampleRate, channels, frames int) (string, error) {
	return WriteWAV(dir, name, sampleRate, channels, frames, func(sample int, _ int) float32 {
		return float32(0.5 * math.Sin(2*math.Pi*440*float64(sample)/float64(sampleRate)))
	})
}
