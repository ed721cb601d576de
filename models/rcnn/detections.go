package rcnn

import (
	"github.com/nvr-ai/go-rcnn/common"
	"github.com/nvr-ai/go-rcnn/models"
	"github.com/nvr-ai/go-rcnn/models/postprocess"
)

// DetectionWidth is the number of values per output row:
// class id, score, x1, y1, x2, y2.
const DetectionWidth = 6

// Detections is the assembled output of PostProcess.
//
// Results are grouped by class in ascending class order and, within a class,
// ordered by descending score. Result.Class is the background-offset class id
// (classifier index - 1). A Detections value with no results is a valid
// empty output, never nil.
type Detections struct {
	// Results holds one entry per surviving box.
	Results []postprocess.Result
	// Skipped lists the class ids whose candidates were all suppressed.
	Skipped []int
}

// Len returns the number of detections.
func (d *Detections) Len() int {
	return len(d.Results)
}

// Empty reports whether there are no detections.
func (d *Detections) Empty() bool {
	return len(d.Results) == 0
}

// Flatten returns the detections as a row-major [Len, 6] buffer of
// (class id, score, x1, y1, x2, y2).
func (d *Detections) Flatten() []float32 {
	data := make([]float32, 0, len(d.Results)*DetectionWidth)
	for _, r := range d.Results {
		data = append(data, float32(r.Class), r.Score, r.Box.X1, r.Box.Y1, r.Box.X2, r.Box.Y2)
	}
	return data
}

// AboveScore returns the detections with a score of at least threshold,
// preserving order.
func (d *Detections) AboveScore(threshold float32) *Detections {
	out := &Detections{Skipped: d.Skipped}
	for _, r := range d.Results {
		if r.Score >= threshold {
			out.Results = append(out.Results, r)
		}
	}
	return out
}

// Labeled converts the detections to labeled bounding boxes.
//
// Arguments:
//   - set: The label map of the model; detection ids index its foreground
//     classes.
//
// Returns:
//   - One bounding box per detection, or an error if a class id has no label.
//
// @example
// boxes, err := dets.Labeled(&models.PascalVOCClasses)
func (d *Detections) Labeled(set *models.OutputClassSet) ([]common.BoundingBox, error) {
	boxes := make([]common.BoundingBox, 0, len(d.Results))
	for _, r := range d.Results {
		name, err := set.DetectionName(r.Class)
		if err != nil {
			return nil, err
		}
		boxes = append(boxes, common.BoundingBox{
			Label:      name,
			Confidence: r.Score,
			X1:         r.Box.X1,
			Y1:         r.Box.Y1,
			X2:         r.Box.X2,
			Y2:         r.Box.Y2,
		})
	}
	return boxes, nil
}
