package mesh

import (
	"fmt"

	"github.com/Faultbox/uvshape/pkg/math"
)

// ShapeKey is a named alternate position set for a mesh. Positions has the
// same count and ordering as the owning mesh's basis.
type ShapeKey struct {
	Name      string
	Positions []math.Vec3
}

// AddShapeKey attaches a shape key to the mesh. The position count must
// match the basis exactly and the name must be unused.
func (m *Mesh) AddShapeKey(name string, positions []math.Vec3) (*ShapeKey, error) {
	if len(positions) != len(m.Positions) {
		return nil, fmt.Errorf("%w: key %q has %d vertices, mesh has %d",
			ErrVertexCountMismatch, name, len(positions), len(m.Positions))
	}
	for _, k := range m.keys {
		if k.Name == name {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateShapeKey, name)
		}
	}
	key := &ShapeKey{Name: name, Positions: positions}
	m.keys = append(m.keys, key)
	m.version++
	return key, nil
}

// ShapeKey returns the named shape key, or nil if absent.
func (m *Mesh) ShapeKey(name string) *ShapeKey {
	for _, k := range m.keys {
		if k.Name == name {
			return k
		}
	}
	return nil
}

// ShapeKeys returns all shape keys in insertion order.
func (m *Mesh) ShapeKeys() []*ShapeKey {
	return m.keys
}

// ShapeKeyNames returns the shape key names in insertion order.
func (m *Mesh) ShapeKeyNames() []string {
	names := make([]string, len(m.keys))
	for i, k := range m.keys {
		names[i] = k.Name
	}
	return names
}

// Deltas returns the per-vertex displacement of the key relative to the
// given basis. Pure function of the inputs; callers cache as needed.
func (k *ShapeKey) Deltas(basis []math.Vec3) []math.Vec3 {
	deltas := make([]math.Vec3, len(k.Positions))
	for i := range k.Positions {
		deltas[i] = k.Positions[i].Sub(basis[i])
	}
	return deltas
}
