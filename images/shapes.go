// Package images - Box geometry for detection post-processing.
package images

import "github.com/chewxy/math32"

// Rect is an axis-aligned bounding box in pixel coordinates.
//
// Coordinates follow the inclusive pixel convention: a box covering the single
// pixel (10, 10) is Rect{10, 10, 10, 10}, so its width and height are
// X2-X1+1 and Y2-Y1+1.
type Rect struct {
	X1, Y1, X2, Y2 float32
}

// Width returns the inclusive width of the rectangle.
func (r Rect) Width() float32 {
	return r.X2 - r.X1 + 1
}

// Height returns the inclusive height of the rectangle.
func (r Rect) Height() float32 {
	return r.Y2 - r.Y1 + 1
}

// Area returns the inclusive area of the rectangle. Degenerate rectangles
// (non-positive width or height) have zero area.
func (r Rect) Area() float32 {
	w, h := r.Width(), r.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Degenerate reports whether the rectangle has zero area.
func (r Rect) Degenerate() bool {
	return r.Area() == 0
}

// Center converts the rectangle to its center form.
//
// Returns:
//   - cx, cy: The center point, X1 + 0.5*w and Y1 + 0.5*h.
//   - w, h: The inclusive width and height.
//
// @example
// cx, cy, w, h := Rect{X1: 0, Y1: 0, X2: 9, Y2: 19}.Center() // 5, 10, 10, 20
func (r Rect) Center() (cx, cy, w, h float32) {
	w = r.Width()
	h = r.Height()
	return r.X1 + 0.5*w, r.Y1 + 0.5*h, w, h
}

// RectFromCenter is the inverse of Rect.Center.
//
// Arguments:
//   - cx, cy: The center point.
//   - w, h: The inclusive width and height.
//
// Returns:
//   - The corner form, such that RectFromCenter(r.Center()) == r.
func RectFromCenter(cx, cy, w, h float32) Rect {
	x1 := cx - 0.5*w
	y1 := cy - 0.5*h
	return Rect{X1: x1, Y1: y1, X2: x1 + w - 1, Y2: y1 + h - 1}
}

// ApplyDeltas applies a regression delta (dx, dy, dw, dh) to the reference
// box r and returns the predicted box.
//
// The reference box is read in center form (inclusive width/height); the
// predicted center is (dx*w + cx, dy*h + cy) and the predicted size is
// (exp(dw)*w, exp(dh)*h). The predicted corners are center -/+ half size,
// which is the convention the regressor was trained with, so the result is
// not passed through RectFromCenter.
//
// Arguments:
//   - dx, dy: Center offsets relative to the reference width and height.
//   - dw, dh: Log-space size scales.
//
// Returns:
//   - The unclipped predicted box.
//
// @example
// roi := Rect{X1: 0, Y1: 0, X2: 99, Y2: 99}
// box := roi.ApplyDeltas(0.1, 0, 0, 0) // shifted right by 10 pixels
func (r Rect) ApplyDeltas(dx, dy, dw, dh float32) Rect {
	cx, cy, w, h := r.Center()

	pcx := dx*w + cx
	pcy := dy*h + cy
	pw := math32.Exp(dw) * w
	ph := math32.Exp(dh) * h

	return Rect{
		X1: pcx - 0.5*pw,
		Y1: pcy - 0.5*ph,
		X2: pcx + 0.5*pw,
		Y2: pcy + 0.5*ph,
	}
}

// Clip restricts every coordinate to the pixel grid of a width x height
// image, i.e. x in [0, width-1] and y in [0, height-1]. Clipping is
// idempotent.
func (r Rect) Clip(width, height float32) Rect {
	maxW := width - 1
	maxH := height - 1
	return Rect{
		X1: clamp(r.X1, maxW),
		Y1: clamp(r.Y1, maxH),
		X2: clamp(r.X2, maxW),
		Y2: clamp(r.Y2, maxH),
	}
}

// Scale multiplies every coordinate by factor.
func (r Rect) Scale(factor float32) Rect {
	return Rect{
		X1: r.X1 * factor,
		Y1: r.Y1 * factor,
		X2: r.X2 * factor,
		Y2: r.Y2 * factor,
	}
}

// clamp matches max(0, min(v, hi)); a negative hi clamps to 0.
func clamp(v, hi float32) float32 {
	return math32.Max(0, math32.Min(v, hi))
}

// CalculateIoU computes the Intersection over Union of two rectangles.
//
// IoU is the ratio of the overlapping area to the area covered by both
// rectangles together:
//
//	IoU = Area(A ∩ B) / (Area(A) + Area(B) - Area(A ∩ B))
//
// Areas use the inclusive pixel convention, so two rectangles that share an
// edge column overlap by one pixel column. A degenerate rectangle contributes
// zero area and, if both are degenerate, the IoU is 0.
//
// Arguments:
//   - r: The first rectangle.
//   - o: The rectangle to compare against.
//
// Returns:
//   - A value between 0.0 and 1.0.
//
// Example Usage:
// ```go
//
//	rect1 := Rect{X1: 0, Y1: 0, X2: 9, Y2: 9}
//	rect2 := Rect{X1: 5, Y1: 5, X2: 14, Y2: 14}
//	iou := CalculateIoU(rect1, rect2) // 25 / (100 + 100 - 25) = 0.142857
//
// ```
func CalculateIoU(r, o Rect) float32 {
	ix1 := math32.Max(r.X1, o.X1)
	iy1 := math32.Max(r.Y1, o.Y1)
	ix2 := math32.Min(r.X2, o.X2)
	iy2 := math32.Min(r.Y2, o.Y2)

	interW := ix2 - ix1 + 1
	interH := iy2 - iy1 + 1
	if interW <= 0 || interH <= 0 {
		return 0
	}
	interArea := interW * interH

	unionArea := r.Area() + o.Area() - interArea
	if unionArea <= 0 {
		return 0
	}

	return interArea / unionArea
}
