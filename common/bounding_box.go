package common

import (
	"fmt"

	"github.com/nvr-ai/go-rcnn/images"
)

// BoundingBox represents a bounding box with its label, confidence, and coordinates.
type BoundingBox struct {
	Label          string
	Confidence     float32
	X1, Y1, X2, Y2 float32
}

// String formats the bounding box information for display.
//
// Returns:
// - A formatted string containing object class, confidence, and coordinates.
//
// @example
// box := BoundingBox{Label: "person", Confidence: 0.95, X1: 100, Y1: 100, X2: 200, Y2: 300}
// fmt.Println(box.String()) // Object person (confidence 0.950000): (100.00, 100.00), (200.00, 300.00)
func (b *BoundingBox) String() string {
	return fmt.Sprintf("Object %s (confidence %f): (%.2f, %.2f), (%.2f, %.2f)",
		b.Label, b.Confidence, b.X1, b.Y1, b.X2, b.Y2)
}

// Rect returns the box coordinates as an images.Rect.
func (b *BoundingBox) Rect() images.Rect {
	return images.Rect{X1: b.X1, Y1: b.Y1, X2: b.X2, Y2: b.Y2}
}

// Width returns the inclusive pixel width of the box.
func (b *BoundingBox) Width() float32 {
	return b.Rect().Width()
}

// Height returns the inclusive pixel height of the box.
func (b *BoundingBox) Height() float32 {
	return b.Rect().Height()
}

// IoU calculates the Intersection over Union between two bounding boxes.
//
// Arguments:
// - other: The other bounding box to calculate IoU with.
//
// Returns:
// - The IoU value between 0 and 1.
//
// @example
// box1 := BoundingBox{X1: 0, Y1: 0, X2: 99, Y2: 99}
// box2 := BoundingBox{X1: 50, Y1: 50, X2: 149, Y2: 149}
// iou := box1.IoU(&box2) // Returns ~0.143 (2500/17500)
func (b *BoundingBox) IoU(other *BoundingBox) float32 {
	return images.CalculateIoU(b.Rect(), other.Rect())
}
