// SPDX-License-Identifier: EPL-2.0

package engine

import "errors"

var (
	ErrInvalidConfig      = errors.New("invalid engine configuration")
	ErrNotInitialized     = errors.New("engine not initialized")
	ErrAlreadyInitialized = errors.New("engine already initialized")
	ErrInvalidHandle      = errors.New("invalid or released handle")
	ErrNeeds3D            = errors.New("operation needs a 3D sound")
	ErrNoFreeChannel      = errors.New("all channels are in use")
	ErrInvalidDescriptor  = errors.New("invalid dsp descriptor")
	ErrUnknownDSP         = errors.New("dsp not registered")
	ErrAlreadyRegistered  = errors.New("dsp already registered")
	ErrTooManyPolygons    = errors.New("geometry polygon limit reached")
	ErrTooManyVertices    = errors.New("geometry vertex limit reached")
	ErrInvalidPolygon     = errors.New("polygon needs at least 3 vertices")
	ErrInvalidOcclusion   = errors.New("occlusion must be within [0, 1]")
	ErrInvalidDistance    = errors.New("min distance must be positive and below max distance")
	ErrEmptySound         = errors.New("sound has no audio")
)
