// SPDX-License-Identifier: EPL-2.0

package output

import "errors"

var (
	ErrUnknownDevice     = errors.New("unknown output device")
	ErrInvalidSampleRate = errors.New("invalid output sample rate")
	ErrInvalidChannels   = errors.New("invalid output channel count")
	ErrAlreadyStarted    = errors.New("device already started")
	ErrNotStarted        = errors.New("device not started")
	ErrClosed            = errors.New("device closed")
	ErrNoPath            = errors.New("file output needs a path")
)
