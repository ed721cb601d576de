package rcnn

import (
	"sync"

	"github.com/nvr-ai/go-rcnn/models/postprocess"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// RCNN turns the regressor and classifier outputs of a Faster R-CNN head
// into per-class detections. It holds no state besides its configuration and
// is safe for concurrent use.
type RCNN struct {
	config Config
	logger logrus.FieldLogger
}

// Option configures an RCNN.
type Option func(*RCNN)

// WithLogger sets the logger used for per-class diagnostics.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(m *RCNN) {
		m.logger = logger
	}
}

// NewModel creates a detection assembler.
//
// Arguments:
//   - config: The post-processing thresholds; validated here.
//   - opts: Optional settings such as WithLogger.
//
// Returns:
//   - The assembler, or ErrInvalidConfig if a threshold is out of range.
//
// @example
// m, err := rcnn.NewModel(rcnn.DefaultConfig(), rcnn.WithLogger(logger))
//
//	if err != nil {
//	    return err
//	}
//
// dets, err := m.PostProcess(inputs)
func NewModel(config Config, opts ...Option) (*RCNN, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	m := &RCNN{
		config: config,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Config returns a copy of the configuration.
func (m *RCNN) Config() Config {
	return m.config
}

// PostProcess runs the full detection pipeline:
//   - Applying the regression deltas to the ROIs and clipping the boxes to the
//     network frame.
//   - Scaling every box back to the original image frame.
//   - For each foreground class, filtering by confidence, sorting by
//     descending score and applying NMS.
//   - Concatenating the survivors in class order, reporting class c as c-1.
//
// Arguments:
//   - in: The input tensors.
//
// Returns:
//   - The detections; empty (not nil) when there are no proposals or no
//     survivors.
//   - ErrInvalidShape or ErrInvalidImageInfo if the inputs are inconsistent.
func (m *RCNN) PostProcess(in *Inputs) (*Detections, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.NumBoxes == 0 {
		return &Detections{}, nil
	}

	boxes := m.transform(in)

	perClass := make([][]postprocess.Result, in.NumClasses)
	classErrs := make([]error, in.NumClasses)
	run := func(c int) {
		perClass[c], classErrs[c] = m.processClass(boxes, c)
	}

	if m.config.NumWorkers > 1 {
		sem := make(chan struct{}, m.config.NumWorkers)
		var wg sync.WaitGroup
		for c := 1; c < in.NumClasses; c++ {
			wg.Add(1)
			sem <- struct{}{}
			go func(c int) {
				defer func() {
					<-sem
					wg.Done()
				}()
				run(c)
			}(c)
		}
		wg.Wait()
	} else {
		for c := 1; c < in.NumClasses; c++ {
			run(c)
		}
	}

	dets := &Detections{}
	for c := 1; c < in.NumClasses; c++ {
		if classErrs[c] != nil {
			m.logger.WithError(classErrs[c]).WithField("class", c-1).Warn("skipping class")
			dets.Skipped = append(dets.Skipped, c-1)
			continue
		}
		dets.Results = append(dets.Results, perClass[c]...)
	}

	m.logger.WithFields(logrus.Fields{
		"proposals":  in.NumBoxes,
		"classes":    in.NumClasses - 1,
		"detections": dets.Len(),
	}).Debug("post-processed detections")

	return dets, nil
}

// transform materializes the clipped, rescaled box of every (proposal, class)
// pair together with its score.
func (m *RCNN) transform(in *Inputs) *postprocess.ScoreBoxes {
	boxes := postprocess.NewScoreBoxes(in.NumBoxes, in.NumClasses)

	for i := 0; i < in.NumBoxes; i++ {
		roi := in.ROI(i)
		for c := 0; c < in.NumClasses; c++ {
			box := roi.ApplyDeltas(in.Delta(i, c)).Clip(in.Info.Width, in.Info.Height)
			boxes.Set(i, c, in.Score(i, c), box)
		}
	}

	// Clipping happens in the network frame; the rescale may push boxes past
	// the original image unless ClipAfterRescale is set.
	factor := 1 / in.Info.Scale
	boxes.Scale(factor)
	if m.config.ClipAfterRescale {
		boxes.Clip(in.Info.Width*factor, in.Info.Height*factor)
	}

	return boxes
}

// processClass runs filter, sort and NMS for one class on private buffers.
func (m *RCNN) processClass(boxes *postprocess.ScoreBoxes, c int) ([]postprocess.Result, error) {
	candidates := postprocess.FilterByScore(boxes, c, m.config.ConfidenceThreshold)
	if len(candidates) == 0 {
		return nil, nil
	}

	k := len(candidates)
	if m.config.NMS.TopN > 0 && m.config.NMS.TopN < k {
		k = m.config.NMS.TopN
	}
	postprocess.PartialSortDesc(candidates, 0, len(candidates)-1, k)

	keep := postprocess.ApplyNMS(candidates, &m.config.NMS)

	m.logger.WithFields(logrus.Fields{
		"class":      c - 1,
		"candidates": len(candidates),
		"kept":       len(keep),
	}).Debug("class processed")

	return assembleClass(c, candidates, keep)
}

// assembleClass builds the output rows of class c from its kept candidates.
func assembleClass(c int, candidates []postprocess.Result, keep []int) ([]postprocess.Result, error) {
	if len(keep) == 0 {
		return nil, errors.Wrapf(ErrAllSuppressed, "%d candidates", len(candidates))
	}

	results := postprocess.Select(candidates, keep)
	for i := range results {
		results[i].Class = c - 1
	}
	return results, nil
}
