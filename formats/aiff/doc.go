// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF sound data via github.com/go-audio/aiff.
package aiff
