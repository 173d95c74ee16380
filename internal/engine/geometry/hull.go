package geometry

import (
	"errors"
	gomath "math"

	"github.com/Faultbox/crystalview/pkg/math"
)

// ErrDegenerateHull is returned when the points span less than a volume.
var ErrDegenerateHull = errors.New("points do not span a volume")

type hullFace struct {
	v       [3]int
	normal  [3]float64
	offset  float64
	outside []int
	dead    bool
}

func (f *hullFace) distance(p [3]float64) float64 {
	return dot3(f.normal, p) - f.offset
}

// ConvexHull computes the hull of points with QuickHull and returns its
// triangles as index triples into points, wound counter-clockwise seen from
// outside.
func ConvexHull(points []math.Vec3) ([][3]int, error) {
	if len(points) < 4 {
		return nil, ErrDegenerateHull
	}
	pts := make([][3]float64, len(points))
	for i, p := range points {
		pts[i] = [3]float64{float64(p.X), float64(p.Y), float64(p.Z)}
	}

	eps := hullEpsilon(pts)
	simplex, ok := initialSimplex(pts, eps)
	if !ok {
		return nil, ErrDegenerateHull
	}

	centroid := [3]float64{}
	for _, i := range simplex {
		for k := 0; k < 3; k++ {
			centroid[k] += pts[i][k] / 4
		}
	}

	var faces []*hullFace
	newFace := func(a, b, c int) *hullFace {
		f := &hullFace{v: [3]int{a, b, c}}
		n := cross3(sub3(pts[b], pts[a]), sub3(pts[c], pts[a]))
		l := gomath.Sqrt(dot3(n, n))
		if l > 0 {
			n = [3]float64{n[0] / l, n[1] / l, n[2] / l}
		}
		f.normal = n
		f.offset = dot3(n, pts[a])
		// Orient away from the interior.
		if f.distance(centroid) > 0 {
			f.v[1], f.v[2] = f.v[2], f.v[1]
			f.normal = [3]float64{-n[0], -n[1], -n[2]}
			f.offset = -f.offset
		}
		faces = append(faces, f)
		return f
	}

	s := simplex
	initial := []*hullFace{
		newFace(s[0], s[1], s[2]),
		newFace(s[0], s[1], s[3]),
		newFace(s[0], s[2], s[3]),
		newFace(s[1], s[2], s[3]),
	}

	inSimplex := map[int]bool{s[0]: true, s[1]: true, s[2]: true, s[3]: true}
	var candidates []int
	for i := range pts {
		if !inSimplex[i] {
			candidates = append(candidates, i)
		}
	}
	assignOutside(pts, initial, candidates, eps)

	for {
		var face *hullFace
		for _, f := range faces {
			if !f.dead && len(f.outside) > 0 {
				face = f
				break
			}
		}
		if face == nil {
			break
		}

		// Farthest point of the face's outside set becomes the new apex.
		apex, best := -1, -1.0
		for _, i := range face.outside {
			if d := face.distance(pts[i]); d > best {
				apex, best = i, d
			}
		}

		var visible []*hullFace
		for _, f := range faces {
			if !f.dead && f.distance(pts[apex]) > eps {
				visible = append(visible, f)
			}
		}

		// Horizon edges are those used by exactly one visible face.
		edgeCount := make(map[[2]int]int)
		var order [][2]int
		for _, f := range visible {
			for k := 0; k < 3; k++ {
				e := [2]int{f.v[k], f.v[(k+1)%3]}
				if _, seen := edgeCount[e]; !seen {
					order = append(order, e)
				}
				edgeCount[e]++
			}
		}

		var orphans []int
		for _, f := range visible {
			f.dead = true
			for _, i := range f.outside {
				if i != apex {
					orphans = append(orphans, i)
				}
			}
			f.outside = nil
		}

		var created []*hullFace
		for _, e := range order {
			if edgeCount[[2]int{e[1], e[0]}] > 0 {
				continue
			}
			created = append(created, newFace(e[0], e[1], apex))
		}
		assignOutside(pts, created, orphans, eps)
	}

	var tris [][3]int
	for _, f := range faces {
		if !f.dead {
			tris = append(tris, f.v)
		}
	}
	return tris, nil
}

func assignOutside(pts [][3]float64, faces []*hullFace, candidates []int, eps float64) {
	for _, i := range candidates {
		bestFace, bestDist := (*hullFace)(nil), eps
		for _, f := range faces {
			if d := f.distance(pts[i]); d > bestDist {
				bestFace, bestDist = f, d
			}
		}
		if bestFace != nil {
			bestFace.outside = append(bestFace.outside, i)
		}
	}
}

func initialSimplex(pts [][3]float64, eps float64) ([4]int, bool) {
	var s [4]int

	// Two points furthest apart along some axis.
	best := -1.0
	for axis := 0; axis < 3; axis++ {
		lo, hi := 0, 0
		for i, p := range pts {
			if p[axis] < pts[lo][axis] {
				lo = i
			}
			if p[axis] > pts[hi][axis] {
				hi = i
			}
		}
		if d := pts[hi][axis] - pts[lo][axis]; d > best {
			best, s[0], s[1] = d, lo, hi
		}
	}
	if best <= eps {
		return s, false
	}

	dir := sub3(pts[s[1]], pts[s[0]])
	best = -1
	for i, p := range pts {
		c := cross3(dir, sub3(p, pts[s[0]]))
		if d := dot3(c, c); d > best {
			best, s[2] = d, i
		}
	}
	if gomath.Sqrt(best) <= eps {
		return s, false
	}

	n := cross3(dir, sub3(pts[s[2]], pts[s[0]]))
	nl := gomath.Sqrt(dot3(n, n))
	best = -1
	for i, p := range pts {
		if d := gomath.Abs(dot3(n, sub3(p, pts[s[0]]))) / nl; d > best {
			best, s[3] = d, i
		}
	}
	if best <= eps {
		return s, false
	}
	return s, true
}

func hullEpsilon(pts [][3]float64) float64 {
	var extent float64
	for _, p := range pts {
		for k := 0; k < 3; k++ {
			extent = gomath.Max(extent, gomath.Abs(p[k]))
		}
	}
	return 1e-9 * gomath.Max(extent, 1) * 3
}

func sub3(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func dot3(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross3(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
