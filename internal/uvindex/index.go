// Package uvindex builds a read-only spatial index over a mesh's UV-space
// triangles for containing/nearest triangle lookup.
package uvindex

import (
	"errors"
	"fmt"

	"github.com/Faultbox/uvshape/pkg/math"
	"github.com/Faultbox/uvshape/pkg/mesh"
)

// Index build errors.
var (
	ErrNoTriangles  = errors.New("no usable UV triangles in mesh")
	ErrCellOverflow = errors.New("uv index cell capacity exceeded")
)

// containEps is the barycentric slack for point-in-triangle tests, so UV
// points sitting exactly on shared edges resolve on either side.
const containEps = 1e-5

// Options controls index construction.
type Options struct {
	// GridSize is the number of grid cells per axis.
	GridSize int
	// MaxCellTris caps triangles per cell. Exceeding it fails the build;
	// it indicates pathological UV island overlap.
	MaxCellTris int
}

// DefaultOptions returns the standard grid configuration.
func DefaultOptions() Options {
	return Options{GridSize: 64, MaxCellTris: 1024}
}

// Tri is one indexed UV-space triangle of the source mesh.
type Tri struct {
	Face  int    // originating face index
	Verts [3]int // source vertex indices
	UV    math.Tri2
}

// Hit is a successful lookup: the matched source triangle and the
// barycentric weights of the query point within it. Weights are
// non-negative and sum to 1.
type Hit struct {
	Face    int
	Verts   [3]int
	Weights [3]float32
}

// Index is an immutable uniform grid over UV-space triangles, keyed by
// triangle bounding boxes. Safe for concurrent readers once built.
type Index struct {
	tris         []Tri
	cells        [][]int32 // triangle indices per cell, in face order
	grid         int
	minU, minV   float32
	cellW, cellH float32
}

// Build constructs the index from the mesh's triangulated UV layout.
// The mesh must carry a full UV layer. Degenerate (zero-area) UV triangles
// are skipped; a mesh with none left fails with ErrNoTriangles.
func Build(m *mesh.Mesh, opts Options) (*Index, error) {
	if !m.HasUVLayer() {
		return nil, fmt.Errorf("%w: %s", mesh.ErrNoUVLayer, m.Name)
	}
	if opts.GridSize <= 0 {
		opts.GridSize = DefaultOptions().GridSize
	}
	if opts.MaxCellTris <= 0 {
		opts.MaxCellTris = DefaultOptions().MaxCellTris
	}

	var tris []Tri
	for _, t := range m.Triangulate() {
		uv := math.Tri2{A: m.UVs[t.UVs[0]], B: m.UVs[t.UVs[1]], C: m.UVs[t.UVs[2]]}
		if uv.IsDegenerate() {
			continue
		}
		tris = append(tris, Tri{Face: t.Face, Verts: t.Verts, UV: uv})
	}
	if len(tris) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTriangles, m.Name)
	}

	idx := &Index{
		tris: tris,
		grid: opts.GridSize,
	}

	// UV bounds over all triangle corners
	minU, minV := tris[0].UV.A.X, tris[0].UV.A.Y
	maxU, maxV := minU, minV
	for _, t := range tris {
		for _, c := range [3]math.Vec2{t.UV.A, t.UV.B, t.UV.C} {
			if c.X < minU {
				minU = c.X
			}
			if c.X > maxU {
				maxU = c.X
			}
			if c.Y < minV {
				minV = c.Y
			}
			if c.Y > maxV {
				maxV = c.Y
			}
		}
	}
	idx.minU, idx.minV = minU, minV
	idx.cellW = (maxU - minU) / float32(idx.grid)
	idx.cellH = (maxV - minV) / float32(idx.grid)
	if idx.cellW <= 0 {
		idx.cellW = 1
	}
	if idx.cellH <= 0 {
		idx.cellH = 1
	}

	idx.cells = make([][]int32, idx.grid*idx.grid)
	for ti, t := range tris {
		c0, r0 := idx.cellAt(triMin(t.UV))
		c1, r1 := idx.cellAt(triMax(t.UV))
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				cell := r*idx.grid + c
				if len(idx.cells[cell]) >= opts.MaxCellTris {
					return nil, fmt.Errorf("%w: cell (%d,%d) in %s", ErrCellOverflow, c, r, m.Name)
				}
				idx.cells[cell] = append(idx.cells[cell], int32(ti))
			}
		}
	}

	return idx, nil
}

// Lookup resolves a UV point to a source triangle. A triangle containing the
// point wins outright; ties between overlapping UV islands go to the lowest
// source face index. If nothing contains the point, the nearest triangle
// within tol wins. Returns false if no triangle qualifies.
func (idx *Index) Lookup(p math.Vec2, tol float32) (Hit, bool) {
	// Containment pass over the point's cell. Cell lists are in face order,
	// so the first containing triangle is the lowest-face tie-break winner.
	c, r := idx.cellAt(p)
	for _, ti := range idx.cells[r*idx.grid+c] {
		t := idx.tris[ti]
		if !t.UV.Contains(p, containEps) {
			continue
		}
		w, ok := t.UV.ClampedBarycentric(p)
		if !ok {
			continue
		}
		return Hit{Face: t.Face, Verts: t.Verts, Weights: w}, true
	}

	if tol <= 0 {
		return Hit{}, false
	}

	// Nearest pass over all cells touched by the tolerance box around p.
	c0, r0 := idx.cellAt(math.Vec2{X: p.X - tol, Y: p.Y - tol})
	c1, r1 := idx.cellAt(math.Vec2{X: p.X + tol, Y: p.Y + tol})
	var (
		best     Tri
		bestDist float32
		found    bool
		seen     = make(map[int32]struct{})
	)
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			for _, ti := range idx.cells[r*idx.grid+c] {
				if _, dup := seen[ti]; dup {
					continue
				}
				seen[ti] = struct{}{}
				t := idx.tris[ti]
				_, d := t.UV.ClosestPoint(p)
				if d > tol {
					continue
				}
				if !found || d < bestDist || (d == bestDist && t.Face < best.Face) {
					best = t
					bestDist = d
					found = true
				}
			}
		}
	}
	if !found {
		return Hit{}, false
	}
	w, ok := best.UV.ClampedBarycentric(p)
	if !ok {
		return Hit{}, false
	}
	return Hit{Face: best.Face, Verts: best.Verts, Weights: w}, true
}

// Tris returns the indexed triangles, in face order. Read-only.
func (idx *Index) Tris() []Tri {
	return idx.tris
}

// Len returns the number of indexed triangles.
func (idx *Index) Len() int {
	return len(idx.tris)
}

// cellAt maps a UV point to grid cell coordinates, clamped to the grid.
func (idx *Index) cellAt(p math.Vec2) (col, row int) {
	col = int((p.X - idx.minU) / idx.cellW)
	row = int((p.Y - idx.minV) / idx.cellH)
	if col < 0 {
		col = 0
	} else if col >= idx.grid {
		col = idx.grid - 1
	}
	if row < 0 {
		row = 0
	} else if row >= idx.grid {
		row = idx.grid - 1
	}
	return col, row
}

func triMin(t math.Tri2) math.Vec2 {
	m := t.A
	for _, c := range [2]math.Vec2{t.B, t.C} {
		if c.X < m.X {
			m.X = c.X
		}
		if c.Y < m.Y {
			m.Y = c.Y
		}
	}
	return m
}

func triMax(t math.Tri2) math.Vec2 {
	m := t.A
	for _, c := range [2]math.Vec2{t.B, t.C} {
		if c.X > m.X {
			m.X = c.X
		}
		if c.Y > m.Y {
			m.Y = c.Y
		}
	}
	return m
}
