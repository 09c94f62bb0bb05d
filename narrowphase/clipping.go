package narrowphase

import "github.com/gazed/impulse/geom"

// plane is a clipping plane defined by a point on it and an outward normal.
// Grounded on clipping.go's cPlane.
type plane struct {
	point  geom.Vec3
	normal geom.Vec3
}

func (p plane) signedDistance(v geom.Vec3) float64 {
	return v.Sub(p.point).Dot(p.normal)
}

// clipPolygon clips polygon against plane, keeping the side behind the
// plane's normal (signed distance <= 0). Grounded on
// sutherland_hodgman/plane_edge_intersection.
func clipPolygon(poly []geom.Vec3, clip plane) []geom.Vec3 {
	if len(poly) == 0 {
		return poly
	}
	var out []geom.Vec3
	for i := range poly {
		cur := poly[i]
		prev := poly[(i-1+len(poly))%len(poly)]
		curIn := clip.signedDistance(cur) <= 0
		prevIn := clip.signedDistance(prev) <= 0

		if curIn {
			if !prevIn {
				out = append(out, segmentPlaneIntersection(prev, cur, clip))
			}
			out = append(out, cur)
		} else if prevIn {
			out = append(out, segmentPlaneIntersection(prev, cur, clip))
		}
	}
	return out
}

func segmentPlaneIntersection(start, end geom.Vec3, p plane) geom.Vec3 {
	d := end.Sub(start)
	denom := d.Dot(p.normal)
	if denom == 0 {
		return start
	}
	t := p.point.Sub(start).Dot(p.normal) / denom
	return start.Add(d.Mul(t))
}

// ManifoldPoint is a single clipped contact point, in world space, with the
// penetration depth measured along the separating normal.
type ManifoldPoint struct {
	Position geom.Vec3
	Depth    float64
}

// ClipFaceAgainstFace clips the incident polygon against the reference
// polygon's side planes, then keeps only points that still lie behind the
// reference face, each tagged with its penetration depth. Grounded on
// clipping_get_contact_manifold/convex_convex_contact_manifold.
func ClipFaceAgainstFace(referenceFace, incidentFace []geom.Vec3, referenceNormal geom.Vec3) []ManifoldPoint {
	if len(referenceFace) < 3 || len(incidentFace) < 3 {
		return nil
	}
	clipped := incidentFace
	n := len(referenceFace)
	var centroid geom.Vec3
	for _, v := range referenceFace {
		centroid = centroid.Add(v)
	}
	centroid = centroid.Mul(1 / float64(n))
	for i := 0; i < n; i++ {
		a := referenceFace[i]
		b := referenceFace[(i+1)%n]
		edge := b.Sub(a)
		sidePlaneNormal := edge.Cross(referenceNormal)
		if sidePlaneNormal.Dot(centroid.Sub(a)) > 0 {
			// Face the side plane outward whichever way the face is wound.
			sidePlaneNormal = sidePlaneNormal.Mul(-1)
		}
		clipped = clipPolygon(clipped, plane{point: a, normal: sidePlaneNormal})
		if len(clipped) == 0 {
			return nil
		}
	}

	refPlane := plane{point: referenceFace[0], normal: referenceNormal}
	var out []ManifoldPoint
	for _, v := range clipped {
		d := refPlane.signedDistance(v)
		if d <= 0 {
			out = append(out, ManifoldPoint{Position: v, Depth: -d})
		}
	}
	return out
}

// AugmentWithDeepestPoint adds the single deepest point from a fresh EPA
// result to an existing (possibly empty) manifold when ClipFaceAgainstFace
// produced no points, e.g. a vertex-vertex or edge-edge contact where the
// clipped polygon degenerates to nothing. A fallback for that face-clipping
// path specifically, not the support-direction sampling auxiliaryContacts
// (augment.go) performs on every Collide call.
func AugmentWithDeepestPoint(points []ManifoldPoint, contactPoint geom.Vec3, depth float64) []ManifoldPoint {
	if len(points) > 0 {
		return points
	}
	return []ManifoldPoint{{Position: contactPoint, Depth: depth}}
}
