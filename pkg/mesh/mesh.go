// Package mesh provides the mesh data model for UV-space deformation
// transfer: vertex positions, faces with per-corner UV references, and
// named shape keys.
package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/uvshape/pkg/math"
)

// Mesh validation errors.
var (
	ErrEmptyMesh           = errors.New("mesh has no vertices or faces")
	ErrNoUVLayer           = errors.New("mesh has no UV layer")
	ErrIndexOutOfRange     = errors.New("face index out of range")
	ErrDegenerateFace      = errors.New("face has fewer than 3 corners")
	ErrVertexCountMismatch = errors.New("shape key vertex count does not match mesh")
	ErrDuplicateShapeKey   = errors.New("shape key with this name already exists")
)

// Face is a polygon referencing mesh vertices, with one UV index per corner.
// UVs[i] indexes into Mesh.UVs for the corner at Verts[i]; -1 means the
// corner has no UV coordinate.
type Face struct {
	Verts []int
	UVs   []int
}

// Triangle is one triangle of a triangulated face. Face is the index of the
// originating polygon; Verts and UVs follow the Face convention.
type Triangle struct {
	Face  int
	Verts [3]int
	UVs   [3]int
}

// Mesh is an indexed polygon mesh with a single optional UV layer.
// UV coordinates live per face-corner, not per vertex, so a vertex on a UV
// seam can carry a different UV in each incident face.
type Mesh struct {
	Name      string
	Positions []math.Vec3
	UVs       []math.Vec2
	Faces     []Face

	keys    []*ShapeKey
	version uint64
}

// New returns an empty named mesh.
func New(name string) *Mesh {
	return &Mesh{Name: name}
}

// Validate checks structural integrity: non-empty geometry, face corner
// counts, and index bounds.
func (m *Mesh) Validate() error {
	if len(m.Positions) == 0 || len(m.Faces) == 0 {
		return ErrEmptyMesh
	}
	for fi, f := range m.Faces {
		if len(f.Verts) < 3 {
			return fmt.Errorf("%w: face %d has %d corners", ErrDegenerateFace, fi, len(f.Verts))
		}
		if len(f.UVs) != 0 && len(f.UVs) != len(f.Verts) {
			return fmt.Errorf("face %d: %d UV corners for %d vertex corners", fi, len(f.UVs), len(f.Verts))
		}
		for _, v := range f.Verts {
			if v < 0 || v >= len(m.Positions) {
				return fmt.Errorf("%w: face %d references vertex %d of %d", ErrIndexOutOfRange, fi, v, len(m.Positions))
			}
		}
		for _, uv := range f.UVs {
			if uv < -1 || uv >= len(m.UVs) {
				return fmt.Errorf("%w: face %d references UV %d of %d", ErrIndexOutOfRange, fi, uv, len(m.UVs))
			}
		}
	}
	return nil
}

// HasUVLayer reports whether every face corner carries a UV coordinate.
func (m *Mesh) HasUVLayer() bool {
	if len(m.UVs) == 0 || len(m.Faces) == 0 {
		return false
	}
	for _, f := range m.Faces {
		if len(f.UVs) != len(f.Verts) {
			return false
		}
		for _, uv := range f.UVs {
			if uv < 0 {
				return false
			}
		}
	}
	return true
}

// Triangulate returns the fan triangulation of all faces, in face order.
// Quads and n-gons split as (0,1,2), (0,2,3), ... so corner UVs stay attached
// to their corners.
func (m *Mesh) Triangulate() []Triangle {
	var tris []Triangle
	for fi, f := range m.Faces {
		for i := 1; i+1 < len(f.Verts); i++ {
			t := Triangle{
				Face:  fi,
				Verts: [3]int{f.Verts[0], f.Verts[i], f.Verts[i+1]},
				UVs:   [3]int{-1, -1, -1},
			}
			if len(f.UVs) == len(f.Verts) {
				t.UVs = [3]int{f.UVs[0], f.UVs[i], f.UVs[i+1]}
			}
			tris = append(tris, t)
		}
	}
	return tris
}

// CornerUVs returns, for each vertex, the UV coordinates of its incident
// face corners in face iteration order. Seam vertices yield more than one
// distinct UV; vertices referenced by no face yield none.
func (m *Mesh) CornerUVs() [][]math.Vec2 {
	out := make([][]math.Vec2, len(m.Positions))
	for _, f := range m.Faces {
		if len(f.UVs) != len(f.Verts) {
			continue
		}
		for i, v := range f.Verts {
			if f.UVs[i] < 0 {
				continue
			}
			out[v] = append(out[v], m.UVs[f.UVs[i]])
		}
	}
	return out
}

// Version returns the topology version counter. Caches keyed on a mesh
// compare versions to detect staleness.
func (m *Mesh) Version() uint64 {
	return m.version
}

// Touch bumps the version counter. Hosts call this after editing positions,
// faces, UVs, or shape key data.
func (m *Mesh) Touch() {
	m.version++
}

// Clone returns a deep copy of the mesh, including shape keys.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Name:      m.Name,
		Positions: append([]math.Vec3(nil), m.Positions...),
		UVs:       append([]math.Vec2(nil), m.UVs...),
		Faces:     make([]Face, len(m.Faces)),
		version:   m.version,
	}
	for i, f := range m.Faces {
		c.Faces[i] = Face{
			Verts: append([]int(nil), f.Verts...),
			UVs:   append([]int(nil), f.UVs...),
		}
	}
	for _, k := range m.keys {
		c.keys = append(c.keys, &ShapeKey{
			Name:      k.Name,
			Positions: append([]math.Vec3(nil), k.Positions...),
		})
	}
	return c
}
