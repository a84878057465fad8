// SPDX-License-Identifier: EPL-2.0

// Package formats wires the per-format decoders into an audio.Registry and
// opens sound files by extension.
package formats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ik5/spatialfx/audio"
	"github.com/ik5/spatialfx/formats/aiff"
	"github.com/ik5/spatialfx/formats/mp3"
	"github.com/ik5/spatialfx/formats/vorbis"
	"github.com/ik5/spatialfx/formats/wav"
)

var (
	ErrUnknownFormat = errors.New("no decoder registered for file extension")
)

// NewRegistry returns a registry with every bundled decoder.
func NewRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Decoder{}, "wave")
	r.Register("mp3", mp3.Decoder{})
	r.Register("ogg", vorbis.Decoder{}, "oga")
	r.Register("aiff", aiff.Decoder{}, "aif")
	return r
}

// Opener opens a sound file as a Source.
type Opener interface {
	Open(path string) (audio.Source, error)
}

// FileOpener opens files from disk and picks the decoder by extension.
type FileOpener struct {
	Registry *audio.Registry
}

// NewFileOpener uses the bundled decoders.
func NewFileOpener() FileOpener {
	return FileOpener{Registry: NewRegistry()}
}

// Open decodes path. The returned Source owns the file and closes it on Close.
func (o FileOpener) Open(path string) (audio.Source, error) {
	ext := filepath.Ext(path)
	dec, ok := o.Registry.Get(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	src, err := dec.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	return src, nil
}
