package camera

import (
	"math"

	"github.com/teslashibe/go-forager/pkg/geometry"
)

// minRayDrop is the smallest downward slope a view ray needs before it
// counts as hitting the ground.
const minRayDrop = 1e-6

// Pixel is a screen position with the origin at the top-left corner
type Pixel struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the distance between two pixels
func (p Pixel) Dist(q Pixel) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// vec3 is a world vector: Down, Right, and height above ground
type vec3 struct{ d, r, z float64 }

func (a vec3) add(b vec3) vec3      { return vec3{a.d + b.d, a.r + b.r, a.z + b.z} }
func (a vec3) scale(k float64) vec3 { return vec3{a.d * k, a.r * k, a.z * k} }
func (a vec3) dot(b vec3) float64   { return a.d*b.d + a.r*b.r + a.z*b.z }
func (a vec3) turn(theta float64) vec3 {
	h := geometry.Pt(a.d, a.r).Rotate(theta)
	return vec3{h.Down, h.Right, a.z}
}

// Projection maps between screen pixels and ground offsets relative to
// the point the camera follows. It is immutable once built.
type Projection struct {
	cfg   Config
	focal float64

	eye     vec3
	forward vec3
	right   vec3
	down    vec3
}

// NewProjection precomputes the camera frame for cfg. The camera sits
// Distance away from a target FollowHeight above the ground origin,
// looking at it with the configured pitch and heading.
func NewProjection(cfg Config) *Projection {
	pitch := radians(cfg.Pitch)
	heading := radians(cfg.Heading)
	sin, cos := math.Sincos(pitch)

	return &Projection{
		cfg:     cfg,
		focal:   float64(cfg.Height) / 2 / math.Tan(radians(cfg.FOV)/2),
		eye:     vec3{cfg.Distance * cos, 0, cfg.FollowHeight + cfg.Distance*sin}.turn(heading),
		forward: vec3{-cos, 0, -sin}.turn(heading),
		right:   vec3{0, 1, 0}.turn(heading),
		down:    vec3{sin, 0, -cos}.turn(heading),
	}
}

// Config returns the parameters the projection was built from
func (p *Projection) Config() Config {
	return p.cfg
}

// Focal returns the focal length in pixels
func (p *Projection) Focal() float64 {
	return p.focal
}

// ScreenToGround intersects the view ray through px with the ground
// plane. The result is relative to the followed point; add the origin
// estimate to get a world position. ok is false for pixels at or above
// the horizon.
func (p *Projection) ScreenToGround(px Pixel) (geometry.Point2d, bool) {
	x := (px.X - float64(p.cfg.Width)/2) / p.focal
	y := (px.Y - float64(p.cfg.Height)/2) / p.focal

	dir := p.forward.add(p.right.scale(x)).add(p.down.scale(y))
	if dir.z > -minRayDrop {
		return geometry.Point2d{}, false
	}
	t := -p.eye.z / dir.z
	return geometry.Pt(p.eye.d+t*dir.d, p.eye.r+t*dir.r), true
}

// GroundToScreen is the inverse of ScreenToGround. ok is false for
// ground points behind the camera.
func (p *Projection) GroundToScreen(g geometry.Point2d) (Pixel, bool) {
	v := vec3{g.Down - p.eye.d, g.Right - p.eye.r, -p.eye.z}
	zc := v.dot(p.forward)
	if zc <= 0 {
		return Pixel{}, false
	}
	return Pixel{
		X: float64(p.cfg.Width)/2 + p.focal*v.dot(p.right)/zc,
		Y: float64(p.cfg.Height)/2 + p.focal*v.dot(p.down)/zc,
	}, true
}

// HorizonRow returns the screen row of the horizon. It is negative when
// the horizon is above the top of the screen.
func (p *Projection) HorizonRow() float64 {
	return float64(p.cfg.Height)/2 - p.focal*math.Tan(radians(p.cfg.Pitch))
}

// Frustum returns the four ground corners of the visible screen, top
// edge first, relative to the followed point.
func (p *Projection) Frustum() geometry.Polygon {
	return p.frustum(0, 0, 0, 0)
}

// EvictionFrustum is Frustum shrunk by the configured insets. Objects
// outside it are too close to the screen edge to be judged missing.
func (p *Projection) EvictionFrustum() geometry.Polygon {
	c := p.cfg
	return p.frustum(c.InsetLeft, c.InsetRight, c.InsetTop, c.InsetBottom)
}

func (p *Projection) frustum(left, right, top, bottom float64) geometry.Polygon {
	w, h := float64(p.cfg.Width), float64(p.cfg.Height)
	x0, x1 := left*w, w-right*w
	y0 := math.Max(top*h, p.HorizonRow()+p.cfg.HorizonMargin)
	y0 = math.Max(y0, p.rangeRow())
	y1 := h - bottom*h
	if y0 >= y1 || x0 >= x1 {
		return nil
	}

	corners := [4]Pixel{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
	poly := make(geometry.Polygon, 0, len(corners))
	for _, c := range corners {
		g, ok := p.ScreenToGround(c)
		if !ok {
			return nil
		}
		poly = append(poly, g)
	}
	return poly
}

// rangeRow returns the screen row whose ground points lie MaxRange ahead
// of the followed point. Rows above it see further.
func (p *Projection) rangeRow() float64 {
	if p.cfg.MaxRange <= 0 {
		return math.Inf(-1)
	}
	sin, cos := math.Sincos(radians(p.cfg.Pitch))
	height := p.cfg.FollowHeight + p.cfg.Distance*sin
	reach := p.cfg.MaxRange + p.cfg.Distance*cos
	y := (height*cos - reach*sin) / (height*sin + reach*cos)
	return float64(p.cfg.Height)/2 + p.focal*y
}

// GroundWindow returns the world bounds of the visible ground around
// origin, clipped to maxRange on each axis and snapped outward to
// multiples of tile.
func (p *Projection) GroundWindow(origin geometry.Point2d, tile, maxRange float64) (geometry.Bounds, bool) {
	poly := p.Frustum()
	if poly == nil || tile <= 0 {
		return geometry.Bounds{}, false
	}
	b := poly.Bounds()
	if maxRange > 0 {
		b.Min = geometry.Pt(math.Max(b.Min.Down, -maxRange), math.Max(b.Min.Right, -maxRange))
		b.Max = geometry.Pt(math.Min(b.Max.Down, maxRange), math.Min(b.Max.Right, maxRange))
	}
	b.Min = b.Min.Add(origin)
	b.Max = b.Max.Add(origin)

	snapped := geometry.Bounds{
		Min: geometry.Pt(math.Floor(b.Min.Down/tile)*tile, math.Floor(b.Min.Right/tile)*tile),
		Max: geometry.Pt(math.Ceil(b.Max.Down/tile)*tile, math.Ceil(b.Max.Right/tile)*tile),
	}
	size := snapped.Size()
	if size.Down <= 0 || size.Right <= 0 {
		return geometry.Bounds{}, false
	}
	return snapped, true
}

// GroundToImage returns the homography taking a ground offset
// (down, right, 1) to homogeneous screen coordinates.
func (p *Projection) GroundToImage() Homography {
	cx, cy := float64(p.cfg.Width)/2, float64(p.cfg.Height)/2
	rowU := p.right.scale(p.focal).add(p.forward.scale(cx))
	rowV := p.down.scale(p.focal).add(p.forward.scale(cy))
	rowW := p.forward

	var h Homography
	for i, a := range [3]vec3{rowU, rowV, rowW} {
		h[i] = [3]float64{a.d, a.r, -a.dot(p.eye)}
	}
	return h
}

// ImageToRaster returns the homography that warps a screen-space image
// into r, a ground raster in world coordinates, given the current origin
// estimate. The matrix is normalized so raster pixel centres land on
// cell centres at r's resolution.
func (p *Projection) ImageToRaster(origin geometry.Point2d, r Raster) (Homography, error) {
	if r.Cols <= 0 || r.Rows <= 0 {
		return Homography{}, ErrEmptyRaster
	}
	cell := r.CellSize()
	lo := r.Bounds.Min.Sub(origin)

	// (col, row, 1) -> ground offset of the cell centre
	toGround := Homography{
		{0, cell.Down, lo.Down + cell.Down/2},
		{cell.Right, 0, lo.Right + cell.Right/2},
		{0, 0, 1},
	}

	inv, err := p.GroundToImage().Mul(toGround).Inverse()
	if err != nil {
		return Homography{}, err
	}
	return inv.Normalize(), nil
}
