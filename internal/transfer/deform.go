package transfer

import (
	"github.com/Faultbox/uvshape/pkg/math"
	"github.com/Faultbox/uvshape/pkg/mesh"
)

// ActiveKey is one shape key participating in an evaluation: its source
// delta array and the externally driven influence weight.
type ActiveKey struct {
	Deltas    []math.Vec3
	Influence float32
}

// Evaluate computes target positions from the reference basis, the
// correspondence map, and the active shape keys. Keys combine additively;
// every call recomputes from basis, so repeated evaluation with unchanged
// inputs is bit-identical. Unresolved vertices keep their basis position.
func Evaluate(basis []math.Vec3, cmap *CorrespondenceMap, keys []ActiveKey) []math.Vec3 {
	out := make([]math.Vec3, len(basis))
	copy(out, basis)
	for vi := range basis {
		e := &cmap.Entries[vi]
		if !e.Resolved {
			continue
		}
		var disp math.Vec3
		for _, k := range keys {
			if k.Influence == 0 {
				continue
			}
			d := interpolate(e, k.Deltas)
			disp = disp.Add(d.Scale(k.Influence))
		}
		out[vi] = basis[vi].Add(disp)
	}
	return out
}

// interpolate blends the three corner deltas of the entry's source triangle
// by its barycentric weights.
func interpolate(e *Entry, deltas []math.Vec3) math.Vec3 {
	a := deltas[e.Verts[0]].Scale(e.Weights[0])
	b := deltas[e.Verts[1]].Scale(e.Weights[1])
	c := deltas[e.Verts[2]].Scale(e.Weights[2])
	return a.Add(b).Add(c)
}

// deltaCache memoizes per-key delta arrays for one source mesh, invalidated
// by the mesh version counter.
type deltaCache struct {
	version uint64
	deltas  map[string][]math.Vec3
}

func newDeltaCache(version uint64) *deltaCache {
	return &deltaCache{version: version, deltas: make(map[string][]math.Vec3)}
}

// get returns the cached delta array for the key, computing it on first use.
// The caller has already checked that the cache version matches the source.
func (c *deltaCache) get(src *mesh.Mesh, key *mesh.ShapeKey) []math.Vec3 {
	if d, ok := c.deltas[key.Name]; ok {
		return d
	}
	d := key.Deltas(src.Positions)
	c.deltas[key.Name] = d
	return d
}
