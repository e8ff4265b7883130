// Package models provides the mesh container and the OBJ and glTF readers
// that fill it.
package models

import (
	"errors"
	"fmt"
	"math"

	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/texture"
)

var (
	// ErrNoGeometry is returned when a file yields no positions or no faces.
	ErrNoGeometry = errors.New("mesh has no geometry")
	// ErrIndexRange is returned when a face references a missing element.
	ErrIndexRange = errors.New("index out of range")
)

// Face is one polygon. The three index lists are independent and 0-based.
// TextureIndices and NormalIndices are either empty or as long as
// VertexIndices.
type Face struct {
	VertexIndices  []int
	TextureIndices []int
	NormalIndices  []int
}

// IsTriangle reports whether the face has exactly three corners.
func (f Face) IsTriangle() bool {
	return len(f.VertexIndices) == 3
}

// HasUVs reports whether every corner of a triangle carries a texture index.
func (f Face) HasUVs() bool {
	return len(f.TextureIndices) == 3
}

// HasNormals reports whether every corner of a triangle carries a normal index.
func (f Face) HasNormals() bool {
	return len(f.NormalIndices) == 3
}

// Mesh is an indexed polygon mesh. The renderer treats it as read-only.
type Mesh struct {
	Name      string
	Positions []math3d.Vec3
	TexCoords []math3d.Vec2
	Normals   []math3d.Vec3
	Faces     []Face

	// Texture is an optional texture that came with the mesh file.
	Texture *texture.Texture

	// Bounding box, updated by CalculateBounds.
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// CalculateBounds computes the axis-aligned bounding box of Positions.
func (m *Mesh) CalculateBounds() {
	if len(m.Positions) == 0 {
		m.BoundsMin, m.BoundsMax = math3d.Vec3{}, math3d.Vec3{}
		return
	}

	m.BoundsMin = m.Positions[0]
	m.BoundsMax = m.Positions[0]
	for _, p := range m.Positions[1:] {
		m.BoundsMin = m.BoundsMin.Min(p)
		m.BoundsMax = m.BoundsMax.Max(p)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of faces with exactly three corners.
func (m *Mesh) TriangleCount() int {
	n := 0
	for _, f := range m.Faces {
		if f.IsTriangle() {
			n++
		}
	}
	return n
}

// Validate checks that every face index addresses an existing element and
// that the optional index lists match the corner count.
func (m *Mesh) Validate() error {
	if len(m.Positions) == 0 || len(m.Faces) == 0 {
		return fmt.Errorf("%w: %d positions, %d faces", ErrNoGeometry, len(m.Positions), len(m.Faces))
	}
	for i, f := range m.Faces {
		if err := checkIndices(f.VertexIndices, len(m.Positions)); err != nil {
			return fmt.Errorf("face %d position: %w", i, err)
		}
		if err := checkIndices(f.TextureIndices, len(m.TexCoords)); err != nil {
			return fmt.Errorf("face %d texcoord: %w", i, err)
		}
		if err := checkIndices(f.NormalIndices, len(m.Normals)); err != nil {
			return fmt.Errorf("face %d normal: %w", i, err)
		}
		n := len(f.VertexIndices)
		if (len(f.TextureIndices) != 0 && len(f.TextureIndices) != n) ||
			(len(f.NormalIndices) != 0 && len(f.NormalIndices) != n) {
			return fmt.Errorf("face %d: attribute lists do not match %d corners", i, n)
		}
	}
	return nil
}

func checkIndices(idx []int, n int) error {
	for _, i := range idx {
		if i < 0 || i >= n {
			return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexRange, i, n)
		}
	}
	return nil
}

// Fit translates and uniformly scales the mesh so its bounding box is
// centered on the origin with its largest side equal to size.
func (m *Mesh) Fit(size float64) {
	m.CalculateBounds()
	extent := m.Size()
	largest := math.Max(extent.X, math.Max(extent.Y, extent.Z))
	if largest == 0 {
		return
	}

	transform := math3d.ScaleUniform(size / largest).Mul(math3d.Translate(m.Center().Negate()))
	for i, p := range m.Positions {
		m.Positions[i] = transform.MulPoint(p)
	}
	m.CalculateBounds()
}

// CalculateSmoothNormals replaces Normals with area-weighted per-position
// normals and points every face's normal indices at them.
func (m *Mesh) CalculateSmoothNormals() {
	normals := make([]math3d.Vec3, len(m.Positions))

	for _, f := range m.Faces {
		if len(f.VertexIndices) < 3 {
			continue
		}
		// Fan around the first corner so n-gons contribute too.
		p0 := m.Positions[f.VertexIndices[0]]
		for k := 1; k+1 < len(f.VertexIndices); k++ {
			p1 := m.Positions[f.VertexIndices[k]]
			p2 := m.Positions[f.VertexIndices[k+1]]
			n := p1.Sub(p0).Cross(p2.Sub(p0)) // unnormalized, so larger faces weigh more
			normals[f.VertexIndices[0]] = normals[f.VertexIndices[0]].Add(n)
			normals[f.VertexIndices[k]] = normals[f.VertexIndices[k]].Add(n)
			normals[f.VertexIndices[k+1]] = normals[f.VertexIndices[k+1]].Add(n)
		}
	}

	for i := range normals {
		normals[i] = normals[i].Normalize()
	}
	m.Normals = normals

	for i := range m.Faces {
		idx := make([]int, len(m.Faces[i].VertexIndices))
		copy(idx, m.Faces[i].VertexIndices)
		m.Faces[i].NormalIndices = idx
	}
}
