// Package picking provides ray casting against the live scene.
package picking

import (
	gomath "math"

	"github.com/chewxy/math32"

	"github.com/Faultbox/crystalview/internal/engine/geometry"
	"github.com/Faultbox/crystalview/pkg/math"
)

// Ray represents a ray in 3D space. Direction is not required to be unit
// length; hit distances are in units of Direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3
}

// At returns the point at parameter t.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// ScreenToRay converts pixel coordinates to a world-space ray starting on the
// near plane. invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj math.Mat4) Ray {
	ndcX := 2.0*screenX/viewportW - 1.0
	ndcY := 1.0 - 2.0*screenY/viewportH

	near := unproject(invViewProj, ndcX, ndcY, -1)
	far := unproject(invViewProj, ndcX, ndcY, 1)
	return Ray{Origin: near, Direction: far.Sub(near).Normalize()}
}

func unproject(inv math.Mat4, x, y, z float32) math.Vec3 {
	v := inv.MulVec4(math.Vec4{x, y, z, 1})
	if v[3] != 0 {
		v[0], v[1], v[2] = v[0]/v[3], v[1]/v[3], v[2]/v[3]
	}
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}
}

// Transform maps the ray through m. Parameters along the ray are preserved,
// so hits found in the transformed space compare directly with world hits.
func (r Ray) Transform(m math.Mat4) Ray {
	return Ray{
		Origin:    m.TransformVec3(r.Origin),
		Direction: math.V3(m.TransformDirection(r.Direction.Array())),
	}
}

// IntersectUnitSphere hits the radius-1 sphere at the origin. It returns the
// nearest non-negative parameter.
func (r Ray) IntersectUnitSphere() (t float32, hit bool) {
	a := r.Direction.Dot(r.Direction)
	if a == 0 {
		return 0, false
	}
	b := r.Origin.Dot(r.Direction)
	c := r.Origin.Dot(r.Origin) - 1
	disc := b*b - a*c
	if disc < 0 {
		return 0, false
	}
	sq := math32.Sqrt(disc)
	t0, t1 := (-b-sq)/a, (-b+sq)/a
	switch {
	case t0 >= 0:
		return t0, true
	case t1 >= 0:
		return t1, true
	}
	return 0, false
}

// IntersectTriangle hits triangle abc from either side (Moller-Trumbore).
func (r Ray) IntersectTriangle(a, b, c math.Vec3) (t float32, hit bool) {
	const eps = 1e-9
	e1, e2 := b.Sub(a), c.Sub(a)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if math32.Abs(det) < eps {
		return 0, false
	}
	inv := 1 / det
	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t = e2.Dot(q) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}

// IntersectBox tests the ray against an axis-aligned box with the slab
// method. If the ray starts inside the box, the exit distance is returned.
func (r Ray) IntersectBox(box math.Box3) (t float32, hit bool) {
	if box.IsEmpty() {
		return 0, false
	}
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)

	o, d := r.Origin.Array(), r.Direction.Array()
	lo, hi := box.Min.Array(), box.Max.Array()
	for axis := 0; axis < 3; axis++ {
		if d[axis] == 0 {
			if o[axis] < lo[axis] || o[axis] > hi[axis] {
				return 0, false
			}
			continue
		}
		t1 := (lo[axis] - o[axis]) / d[axis]
		t2 := (hi[axis] - o[axis]) / d[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// IntersectMesh returns the nearest triangle hit of a triangle mesh.
func (r Ray) IntersectMesh(m *geometry.Mesh) (t float32, hit bool) {
	if m == nil || m.Topology != geometry.Triangles {
		return 0, false
	}
	if _, ok := r.IntersectBox(m.Bounds); !ok {
		return 0, false
	}
	best := float32(gomath.MaxFloat32)
	for i := 0; i < m.TriangleCount(); i++ {
		a, b, c := m.Triangle(i)
		if tt, ok := r.IntersectTriangle(a, b, c); ok && tt < best {
			best, hit = tt, true
		}
	}
	return best, hit
}
