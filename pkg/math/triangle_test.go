package math

import "testing"

func approxEq(a, b, eps float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

func TestBarycentricCorners(t *testing.T) {
	tri := Tri2{A: Vec2{0, 0}, B: Vec2{1, 0}, C: Vec2{0, 1}}

	tests := []struct {
		name string
		p    Vec2
		want [3]float32
	}{
		{"corner A", Vec2{0, 0}, [3]float32{1, 0, 0}},
		{"corner B", Vec2{1, 0}, [3]float32{0, 1, 0}},
		{"corner C", Vec2{0, 1}, [3]float32{0, 0, 1}},
		{"centroid", Vec2{1.0 / 3, 1.0 / 3}, [3]float32{1.0 / 3, 1.0 / 3, 1.0 / 3}},
		{"edge midpoint AB", Vec2{0.5, 0}, [3]float32{0.5, 0.5, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ok := tri.Barycentric(tt.p)
			if !ok {
				t.Fatal("Barycentric() not ok for valid triangle")
			}
			for i := range w {
				if !approxEq(w[i], tt.want[i], 1e-5) {
					t.Errorf("weight[%d] = %v, want %v", i, w[i], tt.want[i])
				}
			}
		})
	}
}

func TestBarycentricSumsToOne(t *testing.T) {
	tri := Tri2{A: Vec2{0.2, 0.1}, B: Vec2{0.9, 0.3}, C: Vec2{0.4, 0.8}}
	points := []Vec2{{0.5, 0.4}, {0.0, 0.0}, {1.5, -0.2}}
	for _, p := range points {
		w, ok := tri.Barycentric(p)
		if !ok {
			t.Fatalf("Barycentric(%v) not ok", p)
		}
		sum := w[0] + w[1] + w[2]
		if !approxEq(sum, 1, 1e-5) {
			t.Errorf("Barycentric(%v) sum = %v, want 1", p, sum)
		}
	}
}

func TestBarycentricDegenerate(t *testing.T) {
	// All corners collinear
	tri := Tri2{A: Vec2{0, 0}, B: Vec2{1, 1}, C: Vec2{2, 2}}
	if _, ok := tri.Barycentric(Vec2{0.5, 0.5}); ok {
		t.Error("Barycentric() ok for degenerate triangle, want false")
	}
	if !tri.IsDegenerate() {
		t.Error("IsDegenerate() = false for collinear corners")
	}
}

func TestContains(t *testing.T) {
	tri := Tri2{A: Vec2{0, 0}, B: Vec2{1, 0}, C: Vec2{0, 1}}

	if !tri.Contains(Vec2{0.25, 0.25}, 0) {
		t.Error("Contains() = false for interior point")
	}
	if tri.Contains(Vec2{0.8, 0.8}, 0) {
		t.Error("Contains() = true for exterior point")
	}
	// Edge point is inclusive
	if !tri.Contains(Vec2{0.5, 0}, 1e-6) {
		t.Error("Contains() = false for edge point")
	}
}

func TestClosestPoint(t *testing.T) {
	tri := Tri2{A: Vec2{0, 0}, B: Vec2{1, 0}, C: Vec2{0, 1}}

	// Interior point maps to itself
	p := Vec2{0.2, 0.2}
	q, d := tri.ClosestPoint(p)
	if q != p || d != 0 {
		t.Errorf("ClosestPoint(interior) = %v, %v, want %v, 0", q, d, p)
	}

	// Point below edge AB projects onto it
	q, d = tri.ClosestPoint(Vec2{0.5, -1})
	if !approxEq(q.X, 0.5, 1e-5) || !approxEq(q.Y, 0, 1e-5) {
		t.Errorf("ClosestPoint(below AB) = %v, want (0.5, 0)", q)
	}
	if !approxEq(d, 1, 1e-5) {
		t.Errorf("ClosestPoint(below AB) dist = %v, want 1", d)
	}
}

func TestClampedBarycentric(t *testing.T) {
	tri := Tri2{A: Vec2{0, 0}, B: Vec2{1, 0}, C: Vec2{0, 1}}

	// Exterior point: weights must be non-negative and sum to 1
	w, ok := tri.ClampedBarycentric(Vec2{0.5, -0.3})
	if !ok {
		t.Fatal("ClampedBarycentric() not ok")
	}
	var sum float32
	for i, wi := range w {
		if wi < 0 {
			t.Errorf("weight[%d] = %v, want >= 0", i, wi)
		}
		sum += wi
	}
	if !approxEq(sum, 1, 1e-5) {
		t.Errorf("weights sum = %v, want 1", sum)
	}
	// Closest point is (0.5, 0): half A, half B
	if !approxEq(w[0], 0.5, 1e-5) || !approxEq(w[1], 0.5, 1e-5) || !approxEq(w[2], 0, 1e-5) {
		t.Errorf("weights = %v, want [0.5 0.5 0]", w)
	}
}
