// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/ik5/spatialfx/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

// Polygon is one occluding face. Vertices are in geometry-local space and
// loop order.
type Polygon struct {
	DirectOcclusion float64
	ReverbOcclusion float64
	DoubleSided     bool
	Vertices        []spatial.Vector
}

// Geometry is a set of occluding polygons offset by a position. New
// geometry is inactive.
type Geometry struct {
	id          uuid.UUID
	sys         *System
	maxPolygons int
	maxVertices int
	vertices    int

	polygons []Polygon
	position spatial.Vector
	active   bool
	released bool
}

// CreateGeometry reserves room for maxPolygons polygons with maxVertices
// vertices in total.
func (s *System) CreateGeometry(maxPolygons, maxVertices int) (*Geometry, error) {
	if maxPolygons <= 0 || maxVertices < 3 {
		return nil, fmt.Errorf("%w: %d polygons, %d vertices", ErrInvalidConfig, maxPolygons, maxVertices)
	}

	g := &Geometry{
		id:          uuid.New(),
		sys:         s,
		maxPolygons: maxPolygons,
		maxVertices: maxVertices,
	}

	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return nil, ErrNotInitialized
	}
	s.geometry = append(s.geometry, g)
	s.mu.Unlock()

	s.log.Debug("geometry created", "geometry", g.id, "maxPolygons", maxPolygons, "maxVertices", maxVertices)
	return g, nil
}

func (g *Geometry) ID() uuid.UUID { return g.id }

func (g *Geometry) locked(fn func() error) error {
	g.sys.mu.Lock()
	defer g.sys.mu.Unlock()
	if g.released {
		return ErrInvalidHandle
	}
	return fn()
}

// AddPolygon appends a polygon and returns its index. The vertices are copied.
func (g *Geometry) AddPolygon(direct, reverb float64, doubleSided bool, vertices []spatial.Vector) (int, error) {
	if len(vertices) < 3 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidPolygon, len(vertices))
	}
	if direct < 0 || direct > 1 || reverb < 0 || reverb > 1 {
		return 0, fmt.Errorf("%w: direct %v, reverb %v", ErrInvalidOcclusion, direct, reverb)
	}

	index := 0
	err := g.locked(func() error {
		if len(g.polygons) >= g.maxPolygons {
			return ErrTooManyPolygons
		}
		if g.vertices+len(vertices) > g.maxVertices {
			return ErrTooManyVertices
		}
		g.polygons = append(g.polygons, Polygon{
			DirectOcclusion: direct,
			ReverbOcclusion: reverb,
			DoubleSided:     doubleSided,
			Vertices:        slices.Clone(vertices),
		})
		g.vertices += len(vertices)
		index = len(g.polygons) - 1
		return nil
	})
	return index, err
}

func (g *Geometry) NumPolygons() (n int, err error) {
	err = g.locked(func() error {
		n = len(g.polygons)
		return nil
	})
	return n, err
}

// Polygon returns a copy of polygon i.
func (g *Geometry) Polygon(i int) (p Polygon, err error) {
	err = g.locked(func() error {
		if i < 0 || i >= len(g.polygons) {
			return fmt.Errorf("%w: polygon %d", ErrInvalidHandle, i)
		}
		p = g.polygons[i]
		p.Vertices = slices.Clone(p.Vertices)
		return nil
	})
	return p, err
}

func (g *Geometry) SetPosition(pos spatial.Vector) error {
	return g.locked(func() error {
		g.position = pos
		return nil
	})
}

func (g *Geometry) Position() (pos spatial.Vector, err error) {
	err = g.locked(func() error {
		pos = g.position
		return nil
	})
	return pos, err
}

func (g *Geometry) SetActive(active bool) error {
	return g.locked(func() error {
		g.active = active
		return nil
	})
}

func (g *Geometry) Active() (active bool, err error) {
	err = g.locked(func() error {
		active = g.active
		return nil
	})
	return active, err
}

// Release removes the geometry from the world.
func (g *Geometry) Release() error {
	s := g.sys
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.released {
		return ErrInvalidHandle
	}
	g.released = true
	s.geometry = slices.DeleteFunc(s.geometry, func(x *Geometry) bool { return x == g })
	return nil
}

// directGainLocked multiplies (1 - DirectOcclusion) for every active
// polygon crossed on the way from listener to source.
func (s *System) directGainLocked(listener, source spatial.Vector) float64 {
	gain := 1.0
	world := s.mixer.world
	for _, g := range s.geometry {
		if !g.active {
			continue
		}
		for _, p := range g.polygons {
			world = world[:0]
			for _, v := range p.Vertices {
				world = append(world, r3.Add(v, g.position))
			}
			if spatial.SegmentCrossesPolygon(listener, source, world, p.DoubleSided) {
				gain *= 1 - p.DirectOcclusion
			}
		}
	}
	s.mixer.world = world
	return gain
}
