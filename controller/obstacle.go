// SPDX-License-Identifier: EPL-2.0

package controller

import (
	"fmt"

	"github.com/ik5/spatialfx/engine"
	"github.com/ik5/spatialfx/spatial"
)

// Occlusion applied by every obstacle.
const (
	ObstacleDirectOcclusion = 0.5
	ObstacleReverbOcclusion = 0.5
)

// Wall is a quad given in triangle-strip order, the way the scene draws it:
// 0 and 1 share one edge, 2 and 3 the opposite one.
type Wall struct {
	Corners [4]spatial.Vector
}

// Loop returns the corners in polygon order.
func (w Wall) Loop() []spatial.Vector {
	c := w.Corners
	return []spatial.Vector{c[0], c[1], c[3], c[2]}
}

// CreateObstacle registers w as a double-sided occluder, active at once.
// Obstacles live until Close.
func (c *Controller) CreateObstacle(w Wall) (*engine.Geometry, error) {
	sys, err := c.system()
	if err != nil {
		return nil, err
	}

	verts := w.Loop()
	g, err := sys.CreateGeometry(1, len(verts))
	if err != nil {
		return nil, fmt.Errorf("creating obstacle: %w", err)
	}
	if _, err := g.AddPolygon(ObstacleDirectOcclusion, ObstacleReverbOcclusion, true, verts); err != nil {
		_ = g.Release()
		return nil, fmt.Errorf("creating obstacle: %w", err)
	}
	if err := g.SetActive(true); err != nil {
		_ = g.Release()
		return nil, fmt.Errorf("creating obstacle: %w", err)
	}

	c.obstacles = append(c.obstacles, g)

	c.log.Info("obstacle created", "geometry", g.ID(), "corners", verts)
	return g, nil
}
