package rcnn

import "github.com/pkg/errors"

var (
	// ErrInvalidShape is returned when the input tensors disagree on their
	// dimensions or do not have the expected rank.
	ErrInvalidShape = errors.New("rcnn: invalid input shape")
	// ErrInvalidImageInfo is returned for non-positive image dimensions or scale.
	ErrInvalidImageInfo = errors.New("rcnn: invalid image info")
	// ErrUnsupportedDtype is returned for tensors that are not float32.
	ErrUnsupportedDtype = errors.New("rcnn: unsupported tensor dtype")
	// ErrInvalidConfig is returned when a threshold is outside its domain.
	ErrInvalidConfig = errors.New("rcnn: invalid config")
	// ErrAllSuppressed marks a class whose candidates were all removed by NMS.
	// It is logged and the class is skipped; PostProcess never returns it.
	ErrAllSuppressed = errors.New("rcnn: all candidates suppressed")
)
