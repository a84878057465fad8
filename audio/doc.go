// SPDX-License-Identifier: EPL-2.0

// Package audio provides the low-level PCM plumbing used by the sound engine.
//
//   - Source, the pull interface every decoder and processor implements
//   - Registry, decoders keyed by file extension
//   - Resampler, cubic sample rate conversion
//   - MonoMixer, channel downmix (3D sounds are mono before panning)
//   - Buffer and Collect, fully decoded sounds held in memory
//
// # Source Interface
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// ReadSamples returns io.EOF once the stream is finished. Samples are
// interleaved float32 in [-1, 1].
//
// # Loading a sample
//
//	src, _ := registry.Get("wav")
//	buf, err := audio.Collect(src, 48000, true, 4096)
//
// Collect does not close src.
package audio
