package camera

import (
	"math"

	"github.com/teslashibe/go-forager/pkg/geometry"
)

const singularDet = 1e-12

// Homography is a row-major 3x3 projective transform
type Homography [3][3]float64

// Identity returns the identity transform
func Identity() Homography {
	return Homography{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Mul returns h·o, the transform applying o first
func (h Homography) Mul(o Homography) Homography {
	var out Homography
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out[i][j] += h[i][k] * o[k][j]
			}
		}
	}
	return out
}

// Det returns the determinant
func (h Homography) Det() float64 {
	return h[0][0]*(h[1][1]*h[2][2]-h[1][2]*h[2][1]) -
		h[0][1]*(h[1][0]*h[2][2]-h[1][2]*h[2][0]) +
		h[0][2]*(h[1][0]*h[2][1]-h[1][1]*h[2][0])
}

// Inverse returns h⁻¹ through the adjugate
func (h Homography) Inverse() (Homography, error) {
	det := h.Det()
	if math.Abs(det) < singularDet {
		return Homography{}, ErrSingular
	}
	var inv Homography
	inv[0][0] = (h[1][1]*h[2][2] - h[1][2]*h[2][1]) / det
	inv[0][1] = (h[0][2]*h[2][1] - h[0][1]*h[2][2]) / det
	inv[0][2] = (h[0][1]*h[1][2] - h[0][2]*h[1][1]) / det
	inv[1][0] = (h[1][2]*h[2][0] - h[1][0]*h[2][2]) / det
	inv[1][1] = (h[0][0]*h[2][2] - h[0][2]*h[2][0]) / det
	inv[1][2] = (h[0][2]*h[1][0] - h[0][0]*h[1][2]) / det
	inv[2][0] = (h[1][0]*h[2][1] - h[1][1]*h[2][0]) / det
	inv[2][1] = (h[0][1]*h[2][0] - h[0][0]*h[2][1]) / det
	inv[2][2] = (h[0][0]*h[1][1] - h[0][1]*h[1][0]) / det
	return inv, nil
}

// Normalize scales h so its bottom-right entry is 1
func (h Homography) Normalize() Homography {
	s := h[2][2]
	if s == 0 {
		return h
	}
	for i := range h {
		for j := range h[i] {
			h[i][j] /= s
		}
	}
	return h
}

// Apply maps (x, y). ok is false when the point maps to infinity.
func (h Homography) Apply(x, y float64) (float64, float64, bool) {
	w := h[2][0]*x + h[2][1]*y + h[2][2]
	if math.Abs(w) < singularDet {
		return 0, 0, false
	}
	return (h[0][0]*x + h[0][1]*y + h[0][2]) / w,
		(h[1][0]*x + h[1][1]*y + h[1][2]) / w,
		true
}

// Raster is a ground-aligned image of Cols x Rows cells covering Bounds
// in world coordinates. Rows grow along Down, columns along Right.
type Raster struct {
	Bounds geometry.Bounds `json:"bounds"`
	Cols   int             `json:"cols"`
	Rows   int             `json:"rows"`
}

// CellSize returns the world extent of one cell along each axis
func (r Raster) CellSize() geometry.Point2d {
	size := r.Bounds.Size()
	return geometry.Pt(size.Down/float64(r.Rows), size.Right/float64(r.Cols))
}

// CellCenter returns the world position at the centre of a cell
func (r Raster) CellCenter(col, row int) geometry.Point2d {
	cell := r.CellSize()
	return geometry.Pt(
		r.Bounds.Min.Down+(float64(row)+0.5)*cell.Down,
		r.Bounds.Min.Right+(float64(col)+0.5)*cell.Right,
	)
}

// Cell returns the cell holding world position p
func (r Raster) Cell(p geometry.Point2d) (col, row int, ok bool) {
	cell := r.CellSize()
	row = int(math.Floor((p.Down - r.Bounds.Min.Down) / cell.Down))
	col = int(math.Floor((p.Right - r.Bounds.Min.Right) / cell.Right))
	ok = row >= 0 && row < r.Rows && col >= 0 && col < r.Cols
	return col, row, ok
}
