package narrowphase

import "github.com/gazed/impulse/geom"

const epaMaxIterations = 32
const epaTolerance = 1e-6

type epaFace struct {
	a, b, c        int
	normal         geom.Vec3
	distance       float64
}

// epa expands the GJK termination simplex into a polytope and iteratively
// replaces its closest-to-origin face until convergence, recovering the
// penetration normal and depth. Grounded on polytope_from_gjk_simplex and
// get_face_normal_and_distance_to_origin.
func epa(a, b Support, s *simplex) (normal geom.Vec3, depth float64) {
	polytope := []geom.Vec3{s.points[0], s.points[1], s.points[2], s.points[3]}
	faces := []epaFace{
		newFace(polytope, 0, 1, 2),
		newFace(polytope, 0, 3, 1),
		newFace(polytope, 0, 2, 3),
		newFace(polytope, 1, 3, 2),
	}

	for iter := 0; iter < epaMaxIterations; iter++ {
		closest := 0
		for i := 1; i < len(faces); i++ {
			if faces[i].distance < faces[closest].distance {
				closest = i
			}
		}

		support := minkowskiSupport(a, b, faces[closest].normal)
		supportDistance := support.Dot(faces[closest].normal)

		if supportDistance-faces[closest].distance < epaTolerance {
			f := faces[closest]
			return f.normal, f.distance
		}

		newIndex := len(polytope)
		polytope = append(polytope, support)

		var uniqueEdges [][2]int
		var keep []epaFace
		for _, f := range faces {
			if f.normal.Dot(support.Sub(polytope[f.a])) > 0 {
				uniqueEdges = addUniqueEdge(uniqueEdges, f.a, f.b)
				uniqueEdges = addUniqueEdge(uniqueEdges, f.b, f.c)
				uniqueEdges = addUniqueEdge(uniqueEdges, f.c, f.a)
				continue
			}
			keep = append(keep, f)
		}
		faces = keep
		for _, e := range uniqueEdges {
			faces = append(faces, newFace(polytope, e[0], e[1], newIndex))
		}
	}

	closest := 0
	for i := 1; i < len(faces); i++ {
		if faces[i].distance < faces[closest].distance {
			closest = i
		}
	}
	return faces[closest].normal, faces[closest].distance
}

func newFace(poly []geom.Vec3, a, b, c int) epaFace {
	ab := poly[b].Sub(poly[a])
	ac := poly[c].Sub(poly[a])
	n := ab.Cross(ac)
	if n.Dot(poly[a]) < 0 {
		n = n.Mul(-1)
	}
	l := n.Len()
	if l > 1e-12 {
		n = n.Mul(1 / l)
	}
	return epaFace{a: a, b: b, c: c, normal: n, distance: n.Dot(poly[a])}
}

// addUniqueEdge removes (b,a) from edges if present (shared by two
// removed faces, so it isn't part of the new polytope boundary),
// otherwise appends (a,b). Grounded on add_edge.
func addUniqueEdge(edges [][2]int, a, b int) [][2]int {
	for i, e := range edges {
		if e[0] == b && e[1] == a {
			return append(edges[:i], edges[i+1:]...)
		}
	}
	return append(edges, [2]int{a, b})
}
