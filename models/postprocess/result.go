// Package postprocess - Postprocessing utilities for models.
package postprocess

import (
	"fmt"

	"github.com/nvr-ai/go-rcnn/images"
)

// Result represents a single detection result.
type Result struct {
	// The bounding box of the result.
	Box images.Rect
	// The confidence score of the result.
	Score float32
	// The predicted class index of the result.
	Class int
}

func (r Result) String() string {
	return fmt.Sprintf("class %d (score %f): (%.2f, %.2f), (%.2f, %.2f)",
		r.Class, r.Score, r.Box.X1, r.Box.Y1, r.Box.X2, r.Box.Y2)
}

// Select returns the results at the given indices, in index order.
func Select(results []Result, indices []int) []Result {
	selected := make([]Result, len(indices))
	for i, idx := range indices {
		selected[i] = results[idx]
	}
	return selected
}
