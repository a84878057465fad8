// SPDX-License-Identifier: EPL-2.0

package dsp

import "errors"

var (
	ErrEmptyHistory     = errors.New("history buffer has no capacity")
	ErrShortBlock       = errors.New("block shorter than length*channels")
	ErrChannelCount     = errors.New("channel count out of range")
	ErrInvalidBlockSize = errors.New("block size must be positive")
	ErrHistoryTooLarge  = errors.New("history exceeds maximum size")
)
