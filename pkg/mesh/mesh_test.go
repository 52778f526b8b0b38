package mesh

import (
	"errors"
	"testing"

	"github.com/Faultbox/uvshape/pkg/math"
)

// quad returns a unit quad in the XY plane with a matching unit-square UV
// layout, as a single 4-corner face.
func quad() *Mesh {
	m := New("quad")
	m.Positions = []math.Vec3{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
	}
	m.UVs = []math.Vec2{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	}
	m.Faces = []Face{
		{Verts: []int{0, 1, 2, 3}, UVs: []int{0, 1, 2, 3}},
	}
	return m
}

func TestValidate(t *testing.T) {
	m := quad()
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidateEmpty(t *testing.T) {
	m := New("empty")
	if err := m.Validate(); !errors.Is(err, ErrEmptyMesh) {
		t.Errorf("Validate() = %v, want ErrEmptyMesh", err)
	}
}

func TestValidateBadIndex(t *testing.T) {
	m := quad()
	m.Faces[0].Verts[2] = 99
	if err := m.Validate(); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Validate() = %v, want ErrIndexOutOfRange", err)
	}
}

func TestValidateDegenerateFace(t *testing.T) {
	m := quad()
	m.Faces = append(m.Faces, Face{Verts: []int{0, 1}, UVs: []int{0, 1}})
	if err := m.Validate(); !errors.Is(err, ErrDegenerateFace) {
		t.Errorf("Validate() = %v, want ErrDegenerateFace", err)
	}
}

func TestHasUVLayer(t *testing.T) {
	m := quad()
	if !m.HasUVLayer() {
		t.Error("HasUVLayer() = false for UV-mapped quad")
	}

	m.Faces[0].UVs = nil
	if m.HasUVLayer() {
		t.Error("HasUVLayer() = true after dropping corner UVs")
	}
}

func TestTriangulateQuad(t *testing.T) {
	m := quad()
	tris := m.Triangulate()
	if len(tris) != 2 {
		t.Fatalf("Triangulate() returned %d triangles, want 2", len(tris))
	}

	want := []Triangle{
		{Face: 0, Verts: [3]int{0, 1, 2}, UVs: [3]int{0, 1, 2}},
		{Face: 0, Verts: [3]int{0, 2, 3}, UVs: [3]int{0, 2, 3}},
	}
	for i, tr := range tris {
		if tr != want[i] {
			t.Errorf("triangle %d = %+v, want %+v", i, tr, want[i])
		}
	}
}

func TestCornerUVsSeam(t *testing.T) {
	// Two triangles sharing vertex 1, with different UVs per side (a seam).
	m := New("seam")
	m.Positions = []math.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 2, Y: 0, Z: 0}}
	m.UVs = []math.Vec2{{X: 0, Y: 0}, {X: 0.4, Y: 0}, {X: 0, Y: 1}, {X: 0.6, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	m.Faces = []Face{
		{Verts: []int{0, 1, 2}, UVs: []int{0, 1, 2}},
		{Verts: []int{1, 3, 2}, UVs: []int{3, 4, 5}},
	}

	uvs := m.CornerUVs()
	if len(uvs[1]) != 2 {
		t.Fatalf("seam vertex has %d corner UVs, want 2", len(uvs[1]))
	}
	// Face iteration order: face 0's corner first
	if uvs[1][0] != (math.Vec2{X: 0.4, Y: 0}) {
		t.Errorf("first corner UV = %v, want {0.4 0}", uvs[1][0])
	}
	if uvs[1][1] != (math.Vec2{X: 0.6, Y: 0}) {
		t.Errorf("second corner UV = %v, want {0.6 0}", uvs[1][1])
	}
}

func TestAddShapeKey(t *testing.T) {
	m := quad()
	raised := make([]math.Vec3, len(m.Positions))
	for i, p := range m.Positions {
		raised[i] = math.Vec3{X: p.X, Y: p.Y, Z: 1}
	}

	if _, err := m.AddShapeKey("raise", raised); err != nil {
		t.Fatalf("AddShapeKey() = %v", err)
	}
	if m.ShapeKey("raise") == nil {
		t.Error("ShapeKey(raise) = nil after AddShapeKey")
	}
	if m.ShapeKey("missing") != nil {
		t.Error("ShapeKey(missing) != nil")
	}

	// Count mismatch
	if _, err := m.AddShapeKey("bad", raised[:2]); !errors.Is(err, ErrVertexCountMismatch) {
		t.Errorf("AddShapeKey(short) = %v, want ErrVertexCountMismatch", err)
	}
	// Duplicate name
	if _, err := m.AddShapeKey("raise", raised); !errors.Is(err, ErrDuplicateShapeKey) {
		t.Errorf("AddShapeKey(dup) = %v, want ErrDuplicateShapeKey", err)
	}
}

func TestShapeKeyDeltas(t *testing.T) {
	m := quad()
	raised := make([]math.Vec3, len(m.Positions))
	for i, p := range m.Positions {
		raised[i] = math.Vec3{X: p.X, Y: p.Y, Z: 1}
	}
	key, err := m.AddShapeKey("raise", raised)
	if err != nil {
		t.Fatal(err)
	}

	deltas := key.Deltas(m.Positions)
	for i, d := range deltas {
		if d != (math.Vec3{X: 0, Y: 0, Z: 1}) {
			t.Errorf("delta[%d] = %v, want {0 0 1}", i, d)
		}
	}
}

func TestVersionBumps(t *testing.T) {
	m := quad()
	v0 := m.Version()
	m.Touch()
	if m.Version() != v0+1 {
		t.Errorf("Version() = %d after Touch, want %d", m.Version(), v0+1)
	}
	if _, err := m.AddShapeKey("k", append([]math.Vec3(nil), m.Positions...)); err != nil {
		t.Fatal(err)
	}
	if m.Version() != v0+2 {
		t.Errorf("Version() = %d after AddShapeKey, want %d", m.Version(), v0+2)
	}
}

func TestClone(t *testing.T) {
	m := quad()
	if _, err := m.AddShapeKey("k", append([]math.Vec3(nil), m.Positions...)); err != nil {
		t.Fatal(err)
	}

	c := m.Clone()
	c.Positions[0] = math.Vec3{X: 9, Y: 9, Z: 9}
	c.Faces[0].Verts[0] = 3
	if m.Positions[0] == (math.Vec3{X: 9, Y: 9, Z: 9}) {
		t.Error("Clone() shares position storage with original")
	}
	if m.Faces[0].Verts[0] == 3 {
		t.Error("Clone() shares face storage with original")
	}
	if c.ShapeKey("k") == nil {
		t.Error("Clone() dropped shape keys")
	}
}
