// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"errors"
	"sync"
	"testing"
)

func mustUnit(t testing.TB, blockSize, maxChannels int) *Unit {
	t.Helper()
	u, err := NewUnit(blockSize, maxChannels)
	if err != nil {
		t.Fatalf("NewUnit(%d, %d) error = %v", blockSize, maxChannels, err)
	}
	return u
}

// run feeds signal through u in blocks of blockSize frames.
func run(t *testing.T, u *Unit, signal []float32, channels, blockSize int, mix Mix) []float32 {
	t.Helper()
	out := make([]float32, len(signal))
	frames := len(signal) / channels
	for start := 0; start < frames; start += blockSize {
		n := min(blockSize, frames-start)
		lo, hi := start*channels, (start+n)*channels
		if err := u.Process(signal[lo:hi], out[lo:hi], n, channels, mix); err != nil {
			t.Fatalf("Process() error = %v", err)
		}
	}
	return out
}

func TestNewUnit_InitialState(t *testing.T) {
	t.Parallel()

	u := mustUnit(t, 256, MaxChannels)

	if u.Capacity() != 256*MaxChannels {
		t.Errorf("Capacity() = %d, want %d", u.Capacity(), 256*MaxChannels)
	}
	if u.Cursor() != 256 {
		t.Errorf("Cursor() = %d, want 256", u.Cursor())
	}
	if u.Parameter() != 1 {
		t.Errorf("Parameter() = %v, want 1", u.Parameter())
	}
}

func TestNewUnit_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		blockSize   int
		maxChannels int
		want        error
	}{
		{"zero block", 0, 8, ErrInvalidBlockSize},
		{"negative block", -64, 8, ErrInvalidBlockSize},
		{"zero channels", 64, 0, ErrInvalidBlockSize},
		{"too large", MaxHistory, 8, ErrHistoryTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			u, err := NewUnit(tt.blockSize, tt.maxChannels)
			if !errors.Is(err, tt.want) {
				t.Errorf("NewUnit() error = %v, want %v", err, tt.want)
			}
			if u != nil {
				t.Error("NewUnit() returned a unit on failure")
			}
		})
	}
}

func TestProcess_ImpulseDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		channels  int
		blockSize int
	}{
		{"mono", 1, 4},
		{"stereo", 2, 4},
		{"odd block", 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			u := mustUnit(t, 4, MaxChannels)
			capacity := u.Capacity()
			delay := capacity / tt.channels
			mix := Mix{In: 0.75, Out: 0.5}

			frames := 3 * capacity
			signal := make([]float32, frames*tt.channels)
			for c := range tt.channels {
				signal[c] = 1
			}

			out := run(t, u, signal, tt.channels, tt.blockSize, mix)

			for f := range frames {
				for c := range tt.channels {
					var want float32
					switch f {
					case 0:
						want = mix.Out
					case delay:
						want = mix.In
					}
					if got := out[f*tt.channels+c]; got != want {
						t.Fatalf("frame %d ch %d = %v, want %v", f, c, got, want)
					}
				}
			}
		})
	}
}

func TestProcess_PreservesShape(t *testing.T) {
	t.Parallel()

	u := mustUnit(t, 16, MaxChannels)
	for _, channels := range []int{1, 2, 6, 8} {
		in := make([]float32, 16*channels)
		out := make([]float32, len(in))
		for i := range in {
			in[i] = float32(i%7) / 7
		}
		if err := u.Process(in, out, 16, channels, Mix{In: 1, Out: 1}); err != nil {
			t.Fatalf("channels=%d: Process() error = %v", channels, err)
		}
		if u.Channels() != channels {
			t.Errorf("Channels() = %d, want %d", u.Channels(), channels)
		}
	}
}

func TestProcess_InPlace(t *testing.T) {
	t.Parallel()

	u := mustUnit(t, 2, 1)
	buf := []float32{1, 2}
	if err := u.Process(buf, buf, 2, 1, Mix{In: 1, Out: 1}); err != nil {
		t.Fatal(err)
	}
	if buf[0] != 1 || buf[1] != 2 {
		t.Errorf("first pass = %v, want [1 2]", buf)
	}

	buf = []float32{0, 0}
	if err := u.Process(buf, buf, 2, 1, Mix{In: 1, Out: 1}); err != nil {
		t.Fatal(err)
	}
	if buf[0] != 1 || buf[1] != 2 {
		t.Errorf("second pass = %v, want delayed [1 2]", buf)
	}
}

func TestProcess_Errors(t *testing.T) {
	t.Parallel()

	buf := make([]float32, 8)

	var empty Unit
	if err := empty.Process(buf, buf, 4, 2, Mix{}); !errors.Is(err, ErrEmptyHistory) {
		t.Errorf("empty unit: error = %v, want ErrEmptyHistory", err)
	}

	var missing *Unit
	missing.Release()
	if err := missing.Process(buf, buf, 4, 2, Mix{}); !errors.Is(err, ErrEmptyHistory) {
		t.Errorf("nil unit: error = %v, want ErrEmptyHistory", err)
	}

	released := mustUnit(t, 4, 2)
	released.Release()
	if err := released.Process(buf, buf, 4, 2, Mix{}); !errors.Is(err, ErrEmptyHistory) {
		t.Errorf("released unit: error = %v, want ErrEmptyHistory", err)
	}

	u := mustUnit(t, 4, 2)
	if err := u.Process(buf, buf, 5, 2, Mix{}); !errors.Is(err, ErrShortBlock) {
		t.Errorf("short block: error = %v, want ErrShortBlock", err)
	}
	if err := u.Process(buf, buf, 1, 0, Mix{}); !errors.Is(err, ErrChannelCount) {
		t.Errorf("zero channels: error = %v, want ErrChannelCount", err)
	}
	if err := u.Process(make([]float32, 9), make([]float32, 9), 1, 9, Mix{}); !errors.Is(err, ErrChannelCount) {
		t.Errorf("nine channels: error = %v, want ErrChannelCount", err)
	}
	if u.Cursor() != 4 {
		t.Errorf("rejected blocks moved the cursor to %d", u.Cursor())
	}
}

func TestProcess_MoreChannelsThanCreated(t *testing.T) {
	t.Parallel()

	// Capacity 4 but 8 channels: indices wrap instead of overflowing.
	u := mustUnit(t, 2, 2)
	buf := make([]float32, 8*3)
	if err := u.Process(buf, buf, 3, 8, Mix{In: 1, Out: 1}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if u.Cursor() != 5 {
		t.Errorf("Cursor() = %d, want 5", u.Cursor())
	}
}

func TestUnit_ConcurrentParameter(t *testing.T) {
	t.Parallel()

	u := mustUnit(t, 64, 2)
	buf := make([]float32, 128)

	var wg sync.WaitGroup
	wg.Go(func() {
		for i := range 1000 {
			u.SetParameter(float32(i%20) / 20)
		}
	})
	wg.Go(func() {
		for range 200 {
			_ = u.Process(buf, buf, 64, 2, Mix{In: u.Parameter(), Out: 1})
		}
	})
	wg.Wait()

	if p := u.Parameter(); p < 0 || p > 1 {
		t.Errorf("Parameter() = %v", p)
	}
}

func BenchmarkUnit_Process(b *testing.B) {
	u := mustUnit(b, 512, MaxChannels)
	buf := make([]float32, 512*2)

	b.ReportAllocs()
	for b.Loop() {
		_ = u.Process(buf, buf, 512, 2, Mix{In: 0.5, Out: 0.5})
	}
}
