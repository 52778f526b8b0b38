// Package transfer implements UV-space shape-key deformation transfer:
// correspondence building, delta evaluation, and the binding registry.
package transfer

import (
	"fmt"

	"github.com/Faultbox/uvshape/internal/uvindex"
	"github.com/Faultbox/uvshape/pkg/math"
	"github.com/Faultbox/uvshape/pkg/mesh"
)

// Entry locates one target vertex inside a source UV triangle. Unresolved
// entries (no match within tolerance) keep Resolved false and receive zero
// displacement during evaluation.
type Entry struct {
	Verts    [3]int
	Weights  [3]float32
	Resolved bool
}

// CorrespondenceMap holds one Entry per target vertex, in vertex order.
type CorrespondenceMap struct {
	Entries    []Entry
	Unresolved int
}

// BuildCorrespondence resolves every target vertex against the source UV
// index. Seam vertices carry several corner UVs; each is tried in face
// iteration order and the first that resolves wins.
//
// This is the expensive step of a binding and runs once at bind time, not
// per evaluation.
func BuildCorrespondence(target *mesh.Mesh, idx *uvindex.Index, tol float32) (*CorrespondenceMap, error) {
	if len(target.Positions) == 0 {
		return nil, fmt.Errorf("%w: %s", mesh.ErrEmptyMesh, target.Name)
	}
	if !target.HasUVLayer() {
		return nil, fmt.Errorf("%w: %s", mesh.ErrNoUVLayer, target.Name)
	}

	cornerUVs := target.CornerUVs()
	cmap := &CorrespondenceMap{
		Entries: make([]Entry, len(target.Positions)),
	}
	for vi := range target.Positions {
		entry := resolveVertex(cornerUVs[vi], idx, tol)
		if !entry.Resolved {
			cmap.Unresolved++
		}
		cmap.Entries[vi] = entry
	}
	return cmap, nil
}

// resolveVertex tries each corner UV of a vertex until the index yields a
// match. Vertices with no incident face corners stay unresolved.
func resolveVertex(uvs []math.Vec2, idx *uvindex.Index, tol float32) Entry {
	for _, uv := range uvs {
		hit, ok := idx.Lookup(uv, tol)
		if !ok {
			continue
		}
		return Entry{Verts: hit.Verts, Weights: hit.Weights, Resolved: true}
	}
	return Entry{}
}
