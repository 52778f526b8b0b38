package math

import "github.com/chewxy/math32"

// degenerateArea is the determinant threshold below which a UV triangle is
// treated as zero-area and skipped.
const degenerateArea = 1e-12

// Tri2 is a triangle in 2D (UV) space.
type Tri2 struct {
	A, B, C Vec2
}

// SignedArea returns the signed area of the triangle (positive if CCW).
func (t Tri2) SignedArea() float32 {
	return t.B.Sub(t.A).Cross(t.C.Sub(t.A)) * 0.5
}

// IsDegenerate reports whether the triangle has effectively zero area.
func (t Tri2) IsDegenerate() bool {
	d := t.det()
	return d > -degenerateArea && d < degenerateArea
}

func (t Tri2) det() float32 {
	return (t.B.Y-t.C.Y)*(t.A.X-t.C.X) + (t.C.X-t.B.X)*(t.A.Y-t.C.Y)
}

// Barycentric returns the barycentric weights of p relative to the triangle
// corners (A, B, C). ok is false for degenerate triangles.
// The weights always sum to 1 but may be negative if p is outside.
func (t Tri2) Barycentric(p Vec2) (w [3]float32, ok bool) {
	det := t.det()
	if det > -degenerateArea && det < degenerateArea {
		return w, false
	}
	invDet := 1.0 / det
	dx := p.X - t.C.X
	dy := p.Y - t.C.Y
	w[0] = ((t.B.Y-t.C.Y)*dx + (t.C.X-t.B.X)*dy) * invDet
	w[1] = ((t.C.Y-t.A.Y)*dx + (t.A.X-t.C.X)*dy) * invDet
	w[2] = 1.0 - w[0] - w[1]
	return w, true
}

// Contains reports whether p lies inside the triangle (inclusive of edges,
// within eps of barycentric slack).
func (t Tri2) Contains(p Vec2, eps float32) bool {
	w, ok := t.Barycentric(p)
	if !ok {
		return false
	}
	return w[0] >= -eps && w[1] >= -eps && w[2] >= -eps
}

// ClosestPoint returns the point inside or on the triangle closest to p,
// and the distance from p to it. Distance is 0 when p is inside.
func (t Tri2) ClosestPoint(p Vec2) (Vec2, float32) {
	if t.Contains(p, 0) {
		return p, 0
	}
	best := p
	bestDist := float32(math32.MaxFloat32)
	edges := [3][2]Vec2{{t.A, t.B}, {t.B, t.C}, {t.C, t.A}}
	for _, e := range edges {
		q := closestOnSegment(p, e[0], e[1])
		d := p.Distance(q)
		if d < bestDist {
			bestDist = d
			best = q
		}
	}
	return best, bestDist
}

// ClampedBarycentric returns non-negative barycentric weights summing to 1
// for the point on the triangle closest to p. Used when a UV query lands
// near, but not exactly inside, a triangle.
func (t Tri2) ClampedBarycentric(p Vec2) (w [3]float32, ok bool) {
	q, _ := t.ClosestPoint(p)
	w, ok = t.Barycentric(q)
	if !ok {
		return w, false
	}
	var sum float32
	for i := range w {
		if w[i] < 0 {
			w[i] = 0
		}
		sum += w[i]
	}
	if sum == 0 {
		return w, false
	}
	for i := range w {
		w[i] /= sum
	}
	return w, true
}

func closestOnSegment(p, a, b Vec2) Vec2 {
	ab := b.Sub(a)
	denom := ab.Dot(ab)
	if denom == 0 {
		return a
	}
	t := p.Sub(a).Dot(ab) / denom
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return a.Add(ab.Scale(t))
}
