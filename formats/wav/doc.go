// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and encodes WAV files on top of github.com/go-audio/wav.
//
// # Decoding
//
//	f, _ := os.Open("horse.wav")
//	src, err := wav.Decoder{}.Decode(f)
//
// Integer PCM at 8, 16, 24 or 32 bits is accepted; samples come out as
// float32 in [-1, 1]. The Source closes f when it is closed.
//
// # Encoding
//
// Writer turns float32 frames into 16-bit PCM. It backs the WAV recording
// output device:
//
//	w := wav.NewWriter(f, 48000, 2)
//	_ = w.WriteSamples(block)
//	_ = w.Close()
package wav
