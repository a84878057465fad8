// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/ik5/spatialfx/audio"
)

// Mode flags for CreateSound and CreateStream.
type Mode uint32

const (
	ModeDefault Mode = 0
	// Mode3D positions the sound in space. It is mixed down to mono.
	Mode3D Mode = 1 << 0
	// ModeLoop restarts playback at the end.
	ModeLoop Mode = 1 << 1
	// ModeStream decodes while playing instead of at load time.
	ModeStream Mode = 1 << 2
)

func (m Mode) Is(flag Mode) bool { return m&flag != 0 }

// default 3D distances
const (
	defaultMinDistance = 1.0
	defaultMaxDistance = 10000.0
	collectChunk       = 4096
)

// Sound is loaded audio that channels play from. Samples keep their
// decoded frames; streams keep the path and reopen it per play.
type Sound struct {
	id   uuid.UUID
	sys  *System
	path string
	mode Mode

	buf      *audio.Buffer
	channels int

	minDist, maxDist float64
	released         bool
}

// CreateSound decodes path fully, converting it to the engine rate.
func (s *System) CreateSound(path string, mode Mode) (*Sound, error) {
	mode &^= ModeStream

	rate, err := s.sampleRate()
	if err != nil {
		return nil, err
	}

	src, err := s.opener.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	defer src.Close()

	buf, err := audio.Collect(src, rate, mode.Is(Mode3D), collectChunk)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if buf.Frames() == 0 {
		return nil, fmt.Errorf("loading %s: %w", path, ErrEmptySound)
	}

	snd := s.newSound(path, mode, buf.Channels)
	snd.buf = buf

	s.log.Debug("sound created", "sound", snd.id, "path", path, "frames", buf.Frames(), "channels", buf.Channels, "3d", mode.Is(Mode3D))
	return snd, nil
}

// CreateStream checks that path can be decoded; decoding happens while
// playing.
func (s *System) CreateStream(path string, mode Mode) (*Sound, error) {
	mode |= ModeStream

	if _, err := s.sampleRate(); err != nil {
		return nil, err
	}

	src, err := s.opener.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stream %s: %w", path, err)
	}
	channels := src.Channels()
	if err := src.Close(); err != nil {
		return nil, fmt.Errorf("opening stream %s: %w", path, err)
	}
	if mode.Is(Mode3D) {
		channels = 1
	}

	snd := s.newSound(path, mode, channels)
	s.log.Debug("stream created", "sound", snd.id, "path", path, "loop", mode.Is(ModeLoop))
	return snd, nil
}

func (s *System) newSound(path string, mode Mode, channels int) *Sound {
	snd := &Sound{
		id:       uuid.New(),
		sys:      s,
		path:     path,
		mode:     mode,
		channels: channels,
		minDist:  defaultMinDistance,
		maxDist:  defaultMaxDistance,
	}

	s.mu.Lock()
	s.sounds = append(s.sounds, snd)
	s.mu.Unlock()
	return snd
}

func (s *System) sampleRate() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return 0, ErrNotInitialized
	}
	return s.format.SampleRate, nil
}

func (snd *Sound) ID() uuid.UUID { return snd.id }
func (snd *Sound) Path() string  { return snd.path }
func (snd *Sound) Mode() Mode    { return snd.mode }

// Frames is the decoded length, zero for streams.
func (snd *Sound) Frames() int { return snd.buf.Frames() }

// Set3DMinMaxDistance sets where attenuation starts and where it stops.
func (snd *Sound) Set3DMinMaxDistance(minDist, maxDist float64) error {
	if minDist <= 0 || maxDist <= minDist {
		return fmt.Errorf("%w: %v..%v", ErrInvalidDistance, minDist, maxDist)
	}

	snd.sys.mu.Lock()
	defer snd.sys.mu.Unlock()
	if snd.released {
		return ErrInvalidHandle
	}
	if !snd.mode.Is(Mode3D) {
		return ErrNeeds3D
	}
	snd.minDist, snd.maxDist = minDist, maxDist
	return nil
}

func (snd *Sound) MinMaxDistance() (minDist, maxDist float64, err error) {
	snd.sys.mu.Lock()
	defer snd.sys.mu.Unlock()
	if snd.released {
		return 0, 0, ErrInvalidHandle
	}
	return snd.minDist, snd.maxDist, nil
}

// Release stops every channel playing the sound and frees it. Releasing
// twice returns ErrInvalidHandle.
func (snd *Sound) Release() error {
	s := snd.sys

	s.mu.Lock()
	if snd.released {
		s.mu.Unlock()
		return ErrInvalidHandle
	}
	snd.released = true

	var closing []voice
	live := s.channels[:0]
	for _, ch := range s.channels {
		if ch.sound == snd {
			closing = append(closing, ch.detachLocked())
			continue
		}
		live = append(live, ch)
	}
	clear(s.channels[len(live):])
	s.channels = live

	for i, other := range s.sounds {
		if other == snd {
			s.sounds = append(s.sounds[:i], s.sounds[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	for _, v := range closing {
		if err := v.close(); err != nil {
			s.log.Warn("closing voice", "sound", snd.id, "err", err)
		}
	}

	s.log.Debug("sound released", "sound", snd.id)
	return nil
}
