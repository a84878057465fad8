// SPDX-License-Identifier: EPL-2.0

package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// wall is a 100x50 quad in the z=5 plane, in loop order.
var wall = []Vector{
	Vec(-50, 0, 5),
	Vec(-50, 50, 5),
	Vec(50, 50, 5),
	Vec(50, 0, 5),
}

func TestSegmentCrossesPolygon(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b Vector
		want bool
	}{
		{"through centre", Vec(0, 25, 0), Vec(0, 25, 10), true},
		{"reverse direction", Vec(0, 25, 10), Vec(0, 25, 0), true},
		{"through second triangle", Vec(40, 5, 0), Vec(40, 5, 10), true},
		{"stops short", Vec(0, 25, 0), Vec(0, 25, 4), false},
		{"passes beside", Vec(60, 25, 0), Vec(60, 25, 10), false},
		{"passes below", Vec(0, -1, 0), Vec(0, -1, 10), false},
		{"parallel", Vec(-60, 25, 5), Vec(60, 25, 5), false},
		{"same side", Vec(0, 25, 6), Vec(0, 25, 20), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SegmentCrossesPolygon(tt.a, tt.b, wall, true))
		})
	}
}

func TestSegmentCrossesPolygon_SingleSided(t *testing.T) {
	t.Parallel()

	// (v1-v0)x(v2-v0) for the wall points towards -Z.
	front := SegmentCrossesPolygon(Vec(0, 25, 0), Vec(0, 25, 10), wall, false)
	back := SegmentCrossesPolygon(Vec(0, 25, 10), Vec(0, 25, 0), wall, false)
	assert.NotEqual(t, front, back)
	assert.True(t, front)
}

func TestSegmentCrossesPolygon_Degenerate(t *testing.T) {
	t.Parallel()

	assert.False(t, SegmentCrossesPolygon(Vec(0, 0, 0), Vec(0, 0, 10), wall[:2], true))
	assert.False(t, SegmentCrossesPolygon(Vec(0, 0, 0), Vec(0, 0, 10), nil, true))
}
