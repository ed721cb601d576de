package rcnn

import (
	"github.com/nvr-ai/go-rcnn/images"
	"github.com/nvr-ai/go-rcnn/models/postprocess"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// float32Data returns the backing data of a float32 tensor.
func float32Data(name string, t *tensor.Dense) ([]float32, error) {
	if t == nil {
		return nil, errors.Wrapf(ErrInvalidShape, "%s tensor is nil", name)
	}
	if t.Dtype() != tensor.Float32 {
		return nil, errors.Wrapf(ErrUnsupportedDtype, "%s tensor is %v", name, t.Dtype())
	}
	data, ok := t.Data().([]float32)
	if !ok {
		// Single element tensors may expose a scalar.
		v, scalar := t.Data().(float32)
		if !scalar {
			return nil, errors.Wrapf(ErrUnsupportedDtype, "%s tensor data is %T", name, t.Data())
		}
		data = []float32{v}
	}
	if len(data) != t.Shape().TotalSize() {
		return nil, errors.Wrapf(ErrInvalidShape, "%s tensor holds %d values for shape %v", name, len(data), t.Shape())
	}
	return data, nil
}

// InputsFromDense reads the assembler inputs from host tensors.
//
// Arguments:
//   - deltas: Box regression, [N, C*4] or [N, C, 4].
//   - scores: Class probabilities, [N, C].
//   - rois: Reference boxes, [N, 4] or [N, 5] with a leading batch index.
//   - info: Image info, 3 values (height, width, scale) in any shape.
//
// Returns:
//   - Validated inputs sharing the tensors' backing data, or an error
//     wrapping ErrInvalidShape or ErrUnsupportedDtype.
func InputsFromDense(deltas, scores, rois, info *tensor.Dense) (*Inputs, error) {
	deltaData, err := float32Data("deltas", deltas)
	if err != nil {
		return nil, err
	}
	scoreData, err := float32Data("scores", scores)
	if err != nil {
		return nil, err
	}
	roiData, err := float32Data("rois", rois)
	if err != nil {
		return nil, err
	}
	infoData, err := float32Data("info", info)
	if err != nil {
		return nil, err
	}

	scoreShape := scores.Shape()
	if len(scoreShape) != 2 {
		return nil, errors.Wrapf(ErrInvalidShape, "scores shape %v, expected [N, C]", scoreShape)
	}
	numBoxes, numClasses := scoreShape[0], scoreShape[1]

	deltaShape := deltas.Shape()
	switch {
	case len(deltaShape) == 2 && deltaShape[0] == numBoxes && deltaShape[1] == numClasses*DeltaStride:
	case len(deltaShape) == 3 && deltaShape[0] == numBoxes && deltaShape[1] == numClasses && deltaShape[2] == DeltaStride:
	default:
		return nil, errors.Wrapf(ErrInvalidShape, "deltas shape %v does not match scores shape %v", deltaShape, scoreShape)
	}

	roiShape := rois.Shape()
	if len(roiShape) != 2 || roiShape[0] != numBoxes || (roiShape[1] != 4 && roiShape[1] != 5) {
		return nil, errors.Wrapf(ErrInvalidShape, "rois shape %v, expected [%d, 4] or [%d, 5]", roiShape, numBoxes, numBoxes)
	}

	if len(infoData) < 3 {
		return nil, errors.Wrapf(ErrInvalidShape, "image info has %d values, expected 3", len(infoData))
	}

	in := &Inputs{
		Deltas:     deltaData,
		Scores:     scoreData,
		ROIs:       roiData,
		ROIStride:  roiShape[1],
		NumBoxes:   numBoxes,
		NumClasses: numClasses,
		Info: ImageInfo{
			Height: infoData[0],
			Width:  infoData[1],
			Scale:  infoData[2],
		},
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	return in, nil
}

// ToDense returns the detections as a [Len, 6] float32 tensor. Hosts that
// cannot hold a zero-row tensor get the sentinel instead: a one element
// tensor holding 0.
func (d *Detections) ToDense() *tensor.Dense {
	if d.Empty() {
		return tensor.New(tensor.WithShape(1), tensor.WithBacking([]float32{0}))
	}
	return tensor.New(tensor.WithShape(d.Len(), DetectionWidth), tensor.WithBacking(d.Flatten()))
}

// IsEmptySentinel reports whether t is the one element empty-output tensor.
func IsEmptySentinel(t *tensor.Dense) bool {
	if t == nil || t.Shape().TotalSize() != 1 || len(t.Shape()) == 2 {
		return false
	}
	data, err := float32Data("detections", t)
	return err == nil && data[0] == 0
}

// ParseDense reads detections from a [M, 6] tensor or the empty sentinel.
//
// Arguments:
//   - t: The output tensor of ToDense or of a host layer with the same layout.
//
// Returns:
//   - The detections, empty for the sentinel or a zero-row tensor.
func ParseDense(t *tensor.Dense) (*Detections, error) {
	if IsEmptySentinel(t) {
		return &Detections{}, nil
	}

	data, err := float32Data("detections", t)
	if err != nil {
		return nil, err
	}
	shape := t.Shape()
	if len(shape) != 2 || shape[1] != DetectionWidth {
		return nil, errors.Wrapf(ErrInvalidShape, "detections shape %v, expected [M, %d]", shape, DetectionWidth)
	}

	dets := &Detections{Results: make([]postprocess.Result, 0, shape[0])}
	for o := 0; o < len(data); o += DetectionWidth {
		dets.Results = append(dets.Results, postprocess.Result{
			Class: int(data[o]),
			Score: data[o+1],
			Box:   images.Rect{X1: data[o+2], Y1: data[o+3], X2: data[o+4], Y2: data[o+5]},
		})
	}

	return dets, nil
}
