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

func TestVec2Normalize(t *testing.T) {
	v := Vec2{3, 4}
	n := v.Normalize()
	l := n.Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec2.Normalize().Length() = %v, want ~1", l)
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

func TestVec3MinMax(t *testing.T) {
	a := Vec3{1, 5, -2}
	b := Vec3{3, -1, 0}
	if got := a.Min(b); got != (Vec3{1, -1, -2}) {
		t.Errorf("Vec3.Min() = %v", got)
	}
	if got := a.Max(b); got != (Vec3{3, 5, 0}) {
		t.Errorf("Vec3.Max() = %v", got)
	}
}

func TestBox3Accumulate(t *testing.T) {
	b := EmptyBox3()
	if !b.IsEmpty() {
		t.Fatal("EmptyBox3 should be empty")
	}
	if b.MaxDimension() != 0 {
		t.Errorf("empty box max dimension = %v, want 0", b.MaxDimension())
	}

	b = b.ExpandByPoint(Vec3{-1, 0, 2}).ExpandByPoint(Vec3{3, 1, 2})
	if b.Size() != (Vec3{4, 1, 0}) {
		t.Errorf("Box3.Size() = %v, want (4, 1, 0)", b.Size())
	}
	if b.Center() != (Vec3{1, 0.5, 2}) {
		t.Errorf("Box3.Center() = %v, want (1, 0.5, 2)", b.Center())
	}
	if b.MaxDimension() != 4 {
		t.Errorf("Box3.MaxDimension() = %v, want 4", b.MaxDimension())
	}
}

func TestBox3UnionWithEmpty(t *testing.T) {
	b := Box3{Min: Vec3{0, 0, 0}, Max: Vec3{1, 1, 1}}
	if got := b.Union(EmptyBox3()); got != b {
		t.Errorf("union with empty = %v, want %v", got, b)
	}
	if got := EmptyBox3().Union(b); got != b {
		t.Errorf("empty union box = %v, want %v", got, b)
	}
}

func TestBox3Transform(t *testing.T) {
	b := Box3{Min: Vec3{-1, -1, -1}, Max: Vec3{1, 1, 1}}
	got := b.Transform(Translate(10, 0, 0).Mul(Scale(2, 1, 1)))
	want := Box3{Min: Vec3{8, -1, -1}, Max: Vec3{12, 1, 1}}
	if got != want {
		t.Errorf("Box3.Transform() = %v, want %v", got, want)
	}
}

func TestVec3IsFinite(t *testing.T) {
	if !(Vec3{1, 2, 3}).IsFinite() {
		t.Error("finite vector reported non-finite")
	}
	nan := float32(0)
	nan = nan / nan
	if (Vec3{nan, 0, 0}).IsFinite() {
		t.Error("NaN vector reported finite")
	}
}
