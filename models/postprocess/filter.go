package postprocess

import "github.com/nvr-ai/go-rcnn/images"

// BoxStride is the number of values stored per (box, class) entry of a
// ScoreBoxes tensor: score, x1, y1, x2, y2.
const BoxStride = 5

// ScoreBoxes is a dense row-major [NumBoxes, NumClasses, 5] tensor holding
// one scored box per (box, class) pair in (score, x1, y1, x2, y2) layout.
type ScoreBoxes struct {
	NumBoxes   int
	NumClasses int
	Data       []float32
}

// NewScoreBoxes allocates a zeroed tensor for numBoxes x numClasses entries.
func NewScoreBoxes(numBoxes, numClasses int) *ScoreBoxes {
	return &ScoreBoxes{
		NumBoxes:   numBoxes,
		NumClasses: numClasses,
		Data:       make([]float32, numBoxes*numClasses*BoxStride),
	}
}

func (s *ScoreBoxes) offset(box, class int) int {
	return (box*s.NumClasses + class) * BoxStride
}

// Score returns the score of the given (box, class) entry.
func (s *ScoreBoxes) Score(box, class int) float32 {
	return s.Data[s.offset(box, class)]
}

// Box returns the rectangle of the given (box, class) entry.
func (s *ScoreBoxes) Box(box, class int) images.Rect {
	o := s.offset(box, class)
	return images.Rect{X1: s.Data[o+1], Y1: s.Data[o+2], X2: s.Data[o+3], Y2: s.Data[o+4]}
}

// Set stores a scored rectangle at the given (box, class) entry.
func (s *ScoreBoxes) Set(box, class int, score float32, r images.Rect) {
	o := s.offset(box, class)
	s.Data[o] = score
	s.Data[o+1] = r.X1
	s.Data[o+2] = r.Y1
	s.Data[o+3] = r.X2
	s.Data[o+4] = r.Y2
}

// Scale multiplies the coordinates of every entry by factor in one pass
// over the tensor. Scores are left untouched.
func (s *ScoreBoxes) Scale(factor float32) {
	for o := 0; o < len(s.Data); o += BoxStride {
		s.Data[o+1] *= factor
		s.Data[o+2] *= factor
		s.Data[o+3] *= factor
		s.Data[o+4] *= factor
	}
}

// Clip clips the box of every entry to a width x height image.
func (s *ScoreBoxes) Clip(width, height float32) {
	for i := 0; i < s.NumBoxes; i++ {
		for c := 0; c < s.NumClasses; c++ {
			s.Set(i, c, s.Score(i, c), s.Box(i, c).Clip(width, height))
		}
	}
}

// FilterByScore extracts the boxes of one class whose score is at least
// threshold.
//
// Arguments:
//   - boxes: The per-class box tensor.
//   - class: The class column to scan.
//   - threshold: Inclusive minimum score.
//
// Returns:
//   - The qualifying candidates in their original box order, tagged with
//     class. An empty slice is a valid result and means the class has no
//     candidates.
func FilterByScore(boxes *ScoreBoxes, class int, threshold float32) []Result {
	var candidates []Result
	for i := 0; i < boxes.NumBoxes; i++ {
		score := boxes.Score(i, class)
		if !(score >= threshold) { // NaN never qualifies
			continue
		}
		candidates = append(candidates, Result{
			Box:   boxes.Box(i, class),
			Score: score,
			Class: class,
		})
	}
	return candidates
}
