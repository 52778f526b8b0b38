package math

import (
	"testing"
)

func TestVec2Add(t *testing.T) {
	a := Vec2{1, 2}
	b := Vec2{3, 4}
	got := a.Add(b)
	want := Vec2{4, 6}
	if got != want {
		t.Errorf("Vec2.Add() = %v, want %v", got, want)
	}
}

func TestVec2Length(t *testing.T) {
	v := Vec2{3, 4}
	got := v.Length()
	want := float32(5)
	if got != want {
		t.Errorf("Vec2.Length() = %v, want %v", got, want)
	}
}

func TestVec2Cross(t *testing.T) {
	a := Vec2{1, 0}
	b := Vec2{0, 1}
	if got := a.Cross(b); got != 1 {
		t.Errorf("Vec2.Cross() = %v, want 1", got)
	}
	if got := b.Cross(a); got != -1 {
		t.Errorf("Vec2.Cross() reversed = %v, want -1", got)
	}
}

func TestVec2DistToSegment(t *testing.T) {
	a := Vec2{0, 0}
	b := Vec2{2, 0}

	// Perpendicular above midpoint
	if got := (Vec2{1, 1}).DistToSegment(a, b); got != 1 {
		t.Errorf("DistToSegment above = %v, want 1", got)
	}
	// Beyond endpoint b
	if got := (Vec2{3, 0}).DistToSegment(a, b); got != 1 {
		t.Errorf("DistToSegment past end = %v, want 1", got)
	}
	// Degenerate segment
	if got := (Vec2{1, 0}).DistToSegment(a, a); got != 1 {
		t.Errorf("DistToSegment degenerate = %v, want 1", got)
	}
}

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Normalize(t *testing.T) {
	v := Vec3{3, 0, 4}
	n := v.Normalize()
	l := n.Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}
}
