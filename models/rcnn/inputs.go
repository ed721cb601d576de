package rcnn

import (
	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-rcnn/images"
	"github.com/pkg/errors"
)

// DeltaStride is the number of regression values per (box, class): dx, dy, dw, dh.
const DeltaStride = 4

// ImageInfo describes the network input image.
type ImageInfo struct {
	// Height of the resized image fed to the network.
	Height float32 `json:"height" yaml:"height"`
	// Width of the resized image fed to the network.
	Width float32 `json:"width" yaml:"width"`
	// Scale is the resize factor from the original image to the network
	// frame. Boxes are divided by it to map them back.
	Scale float32 `json:"scale" yaml:"scale"`
}

// Validate checks that the dimensions and scale are positive.
func (i ImageInfo) Validate() error {
	if !(i.Height > 0 && i.Width > 0 && i.Scale > 0) {
		return errors.Wrapf(ErrInvalidImageInfo, "height=%v width=%v scale=%v", i.Height, i.Width, i.Scale)
	}
	return nil
}

// ImageInfoFor computes the network frame for an image of the given size
// resized so its short side becomes scale without the long side exceeding
// maxSize.
//
// Arguments:
//   - width, height: The original image size in pixels.
//   - scale: The target short side length (usually 600).
//   - maxSize: The maximum long side length (usually 1000).
//
// Returns:
//   - The resized dimensions and the resize factor.
//
// @example
// info := ImageInfoFor(1280, 960, 600, 1000) // {Height: 600, Width: 800, Scale: 0.625}
func ImageInfoFor(width, height int, scale, maxSize float32) ImageInfo {
	short := float32(min(width, height))
	long := float32(max(width, height))
	factor := math32.Min(scale/short, maxSize/long)

	return ImageInfo{
		Height: math32.Round(float32(height) * factor),
		Width:  math32.Round(float32(width) * factor),
		Scale:  factor,
	}
}

// Inputs are the four tensors consumed by the detection assembler, stored
// row-major.
type Inputs struct {
	// Deltas holds the box regression output, [NumBoxes, NumClasses, 4].
	Deltas []float32
	// Scores holds the class probabilities, [NumBoxes, NumClasses].
	Scores []float32
	// ROIs holds the reference boxes, [NumBoxes, ROIStride]. With a stride
	// of 5 the first column is a batch index and is ignored.
	ROIs []float32
	// ROIStride is 4 (x1, y1, x2, y2) or 5 (batch, x1, y1, x2, y2).
	ROIStride int
	// NumBoxes is the number of proposals.
	NumBoxes int
	// NumClasses is the number of classes including background at index 0.
	NumClasses int
	// Info describes the network input image.
	Info ImageInfo
}

// Validate checks that all tensors agree on NumBoxes and NumClasses.
// Image info is only checked when there is at least one proposal.
func (in *Inputs) Validate() error {
	if in.NumBoxes < 0 || in.NumClasses < 1 {
		return errors.Wrapf(ErrInvalidShape, "num boxes %d, num classes %d", in.NumBoxes, in.NumClasses)
	}
	if in.ROIStride != 4 && in.ROIStride != 5 {
		return errors.Wrapf(ErrInvalidShape, "roi stride %d, expected 4 or 5", in.ROIStride)
	}
	if want := in.NumBoxes * in.NumClasses * DeltaStride; len(in.Deltas) != want {
		return errors.Wrapf(ErrInvalidShape, "deltas have %d values, expected %d", len(in.Deltas), want)
	}
	if want := in.NumBoxes * in.NumClasses; len(in.Scores) != want {
		return errors.Wrapf(ErrInvalidShape, "scores have %d values, expected %d", len(in.Scores), want)
	}
	if want := in.NumBoxes * in.ROIStride; len(in.ROIs) != want {
		return errors.Wrapf(ErrInvalidShape, "rois have %d values, expected %d", len(in.ROIs), want)
	}
	if in.NumBoxes == 0 {
		return nil
	}
	return in.Info.Validate()
}

// ROI returns the reference box of proposal i.
func (in *Inputs) ROI(i int) images.Rect {
	o := i*in.ROIStride + in.ROIStride - 4
	return images.Rect{X1: in.ROIs[o], Y1: in.ROIs[o+1], X2: in.ROIs[o+2], Y2: in.ROIs[o+3]}
}

// Delta returns the regression delta of proposal i for class c.
func (in *Inputs) Delta(i, c int) (dx, dy, dw, dh float32) {
	o := (i*in.NumClasses + c) * DeltaStride
	return in.Deltas[o], in.Deltas[o+1], in.Deltas[o+2], in.Deltas[o+3]
}

// Score returns the score of proposal i for class c.
func (in *Inputs) Score(i, c int) float32 {
	return in.Scores[i*in.NumClasses+c]
}
