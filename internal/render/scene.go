// Package render rasterizes the point field into an RGBA framebuffer.
package render

import "github.com/litescript/ls-stackfield/internal/field"

// Scene is the ordered set of points to draw.
type Scene struct {
	nodes []*field.Point
}

// NewScene returns an empty scene.
func NewScene() *Scene {
	return &Scene{}
}

// Add appends p to the scene.
func (s *Scene) Add(p *field.Point) {
	s.nodes = append(s.nodes, p)
}

// Remove deletes p from the scene. It reports whether p was present.
func (s *Scene) Remove(p *field.Point) bool {
	for i, n := range s.nodes {
		if n == p {
			s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of nodes.
func (s *Scene) Len() int {
	return len(s.nodes)
}

// Nodes returns the scene's points in insertion order.
func (s *Scene) Nodes() []*field.Point {
	return s.nodes
}
