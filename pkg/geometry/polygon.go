package geometry

import "math"

// Polygon is a closed ring of vertices; the last vertex connects back to
// the first. Winding order does not matter.
type Polygon []Point2d

// Contains reports whether p lies inside the polygon using the even-odd
// ray casting rule. Points exactly on an edge may fall either way.
func (poly Polygon) Contains(p Point2d) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[j]
		if (a.Right > p.Right) != (b.Right > p.Right) {
			cross := (b.Down-a.Down)*(p.Right-a.Right)/(b.Right-a.Right) + a.Down
			if p.Down < cross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// Bounds returns the axis-aligned bounding box of the polygon
func (poly Polygon) Bounds() Bounds {
	if len(poly) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: poly[0], Max: poly[0]}
	for _, p := range poly[1:] {
		b = b.Extend(p)
	}
	return b
}

// Translate returns the polygon shifted by offset
func (poly Polygon) Translate(offset Point2d) Polygon {
	out := make(Polygon, len(poly))
	for i, p := range poly {
		out[i] = p.Add(offset)
	}
	return out
}

// Bounds is an axis-aligned rectangle in ground coordinates.
type Bounds struct {
	Min Point2d `json:"min"`
	Max Point2d `json:"max"`
}

// Extend returns the smallest Bounds containing b and p
func (b Bounds) Extend(p Point2d) Bounds {
	return Bounds{
		Min: Point2d{Down: math.Min(b.Min.Down, p.Down), Right: math.Min(b.Min.Right, p.Right)},
		Max: Point2d{Down: math.Max(b.Max.Down, p.Down), Right: math.Max(b.Max.Right, p.Right)},
	}
}

// Size returns the extent of b along each axis
func (b Bounds) Size() Point2d {
	return b.Max.Sub(b.Min)
}

// Contains reports whether p lies inside b, edges included
func (b Bounds) Contains(p Point2d) bool {
	return p.Down >= b.Min.Down && p.Down <= b.Max.Down &&
		p.Right >= b.Min.Right && p.Right <= b.Max.Right
}

// SegmentIntersection returns the intersection point of segments a1-a2
// and b1-b2. Parallel and collinear segments report no intersection.
func SegmentIntersection(a1, a2, b1, b2 Point2d) (Point2d, bool) {
	r := a2.Sub(a1)
	s := b2.Sub(b1)
	denom := r.Cross(s)
	if math.Abs(denom) < 1e-12 {
		return Point2d{}, false
	}
	qp := b1.Sub(a1)
	t := qp.Cross(s) / denom
	u := qp.Cross(r) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return Point2d{}, false
	}
	return a1.Add(r.Scale(t)), true
}

// SegmentsIntersect reports whether segments a1-a2 and b1-b2 cross
func SegmentsIntersect(a1, a2, b1, b2 Point2d) bool {
	_, ok := SegmentIntersection(a1, a2, b1, b2)
	return ok
}
