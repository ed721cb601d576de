package postprocess

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/nvr-ai/go-rcnn/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomResults builds n results with random boxes and scores from a seeded source.
func randomResults(rng *rand.Rand, n int) []Result {
	results := make([]Result, n)
	for i := range results {
		x1 := rng.Float32() * 500
		y1 := rng.Float32() * 500
		results[i] = Result{
			Box: images.Rect{
				X1: x1,
				Y1: y1,
				X2: x1 + 10 + rng.Float32()*100,
				Y2: y1 + 10 + rng.Float32()*100,
			},
			Score: rng.Float32(),
			Class: 1,
		}
	}
	return results
}

func scoresOf(results []Result) []float32 {
	scores := make([]float32, len(results))
	for i, r := range results {
		scores[i] = r.Score
	}
	return scores
}

// TestFilterByScore verifies threshold inclusiveness, completeness and order.
func TestFilterByScore(t *testing.T) {
	boxes := NewScoreBoxes(4, 3)
	scores := [][]float32{
		{0.9, 0.10, 0.50},
		{0.1, 0.50, 0.49},
		{0.2, 0.70, 0.80},
		{0.3, 0.05, 0.50},
	}
	for i, row := range scores {
		for c, s := range row {
			boxes.Set(i, c, s, images.Rect{X1: float32(i), Y1: float32(c), X2: float32(i + 10), Y2: float32(c + 10)})
		}
	}

	t.Run("inclusive threshold keeps order", func(t *testing.T) {
		got := FilterByScore(boxes, 2, 0.5)
		require.Len(t, got, 3)
		assert.Equal(t, []float32{0.50, 0.80, 0.50}, scoresOf(got))
		assert.Equal(t, float32(0), got[0].Box.X1)
		assert.Equal(t, float32(2), got[1].Box.X1)
		assert.Equal(t, float32(3), got[2].Box.X1)
		for _, r := range got {
			assert.Equal(t, 2, r.Class)
			assert.Equal(t, float32(2), r.Box.Y1)
		}
	})

	t.Run("no matches", func(t *testing.T) {
		assert.Empty(t, FilterByScore(boxes, 1, 0.95))
	})

	t.Run("random completeness", func(t *testing.T) {
		rng := rand.New(rand.NewSource(3))
		big := NewScoreBoxes(300, 4)
		for i := 0; i < big.NumBoxes; i++ {
			for c := 0; c < big.NumClasses; c++ {
				big.Set(i, c, rng.Float32(), images.Rect{X1: float32(i)})
			}
		}

		got := FilterByScore(big, 3, 0.6)

		var expected []float32
		for i := 0; i < big.NumBoxes; i++ {
			if big.Score(i, 3) >= 0.6 {
				expected = append(expected, big.Score(i, 3))
			}
		}
		assert.Equal(t, expected, scoresOf(got))
		for k := 1; k < len(got); k++ {
			assert.Less(t, got[k-1].Box.X1, got[k].Box.X1, "original order should be preserved")
		}
	})
}

// TestPartialSortDesc checks the top-k contract over a range of input shapes.
func TestPartialSortDesc(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	shapes := map[string]func(n int) []Result{
		"random": func(n int) []Result {
			return randomResults(rng, n)
		},
		"ascending": func(n int) []Result {
			r := make([]Result, n)
			for i := range r {
				r[i].Score = float32(i)
			}
			return r
		},
		"descending": func(n int) []Result {
			r := make([]Result, n)
			for i := range r {
				r[i].Score = float32(n - i)
			}
			return r
		},
		"all equal": func(n int) []Result {
			r := make([]Result, n)
			for i := range r {
				r[i].Score = 0.5
			}
			return r
		},
		"few distinct": func(n int) []Result {
			r := make([]Result, n)
			for i := range r {
				r[i].Score = float32(rng.Intn(4))
			}
			return r
		},
	}

	for name, build := range shapes {
		for _, n := range []int{1, 2, 7, 13, 100, 1000} {
			for _, k := range []int{1, 5, n / 2, n, n + 10} {
				if k <= 0 {
					continue
				}
				list := build(n)
				expected := scoresOf(list)
				sort.Slice(expected, func(i, j int) bool { return expected[i] > expected[j] })

				PartialSortDesc(list, 0, n-1, k)

				got := scoresOf(list)
				top := min(k, n)
				assert.Equal(t, expected[:top], got[:top], "%s n=%d k=%d", name, n, k)
				for _, s := range got[top:] {
					assert.LessOrEqual(t, s, got[top-1], "%s n=%d k=%d tail", name, n, k)
				}
			}
		}
	}
}

// TestPartialSortDescSubrange verifies elements outside [start, end] are untouched.
func TestPartialSortDescSubrange(t *testing.T) {
	list := []Result{{Score: 9}, {Score: 1}, {Score: 3}, {Score: 2}, {Score: 0}}

	PartialSortDesc(list, 1, 3, 3)

	assert.Equal(t, []float32{9, 3, 2, 1, 0}, scoresOf(list))
}

// TestPartialSortDescLarge sorts pathological inputs big enough to expose
// unbounded recursion or quadratic behaviour on equal keys.
func TestPartialSortDescLarge(t *testing.T) {
	const n = 50000

	reversed := make([]Result, n)
	equal := make([]Result, n)
	for i := 0; i < n; i++ {
		reversed[i].Score = float32(i)
		equal[i].Score = 1
	}

	SortDesc(reversed)
	SortDesc(equal)

	assert.True(t, sort.SliceIsSorted(reversed, func(i, j int) bool { return reversed[i].Score > reversed[j].Score }))
	assert.Equal(t, float32(n-1), reversed[0].Score)
	assert.Equal(t, float32(0), reversed[n-1].Score)
}

// TestPartialSortDescEdgeCases covers empty and degenerate arguments.
func TestPartialSortDescEdgeCases(t *testing.T) {
	assert.NotPanics(t, func() { PartialSortDesc(nil, 0, -1, 10) })
	assert.NotPanics(t, func() { PartialSortDesc([]Result{{Score: 1}}, 0, 0, 1) })

	list := []Result{{Score: 1}, {Score: 2}}
	PartialSortDesc(list, 0, 1, 0)
	assert.Equal(t, []float32{1, 2}, scoresOf(list), "k=0 should leave the list alone")
}

// TestApplyGreedyNMS covers the suppression scenarios for a single class.
func TestApplyGreedyNMS(t *testing.T) {
	box := images.Rect{X1: 10, Y1: 10, X2: 110, Y2: 110}
	far := images.Rect{X1: 500, Y1: 500, X2: 600, Y2: 600}

	tests := []struct {
		name       string
		detections []Result
		config     NMSConfig
		expected   []int
	}{
		{
			name:       "identical boxes keep the higher score",
			detections: []Result{{Box: box, Score: 0.9}, {Box: box, Score: 0.5}},
			config:     NMSConfig{IoUThreshold: 0.5},
			expected:   []int{0},
		},
		{
			name:       "disjoint boxes both survive",
			detections: []Result{{Box: box, Score: 0.9}, {Box: far, Score: 0.5}},
			config:     NMSConfig{IoUThreshold: 0.01},
			expected:   []int{0, 1},
		},
		{
			name: "suppressed box does not suppress others",
			detections: []Result{
				{Box: images.Rect{X1: 0, Y1: 0, X2: 99, Y2: 99}, Score: 0.9},
				{Box: images.Rect{X1: 30, Y1: 0, X2: 129, Y2: 99}, Score: 0.8},
				{Box: images.Rect{X1: 60, Y1: 0, X2: 159, Y2: 99}, Score: 0.7},
			},
			config:   NMSConfig{IoUThreshold: 0.5},
			expected: []int{0, 2},
		},
		{
			name:       "IoU equal to threshold is kept",
			detections: []Result{{Box: images.Rect{X1: 0, Y1: 0, X2: 99, Y2: 99}, Score: 0.9}, {Box: images.Rect{X1: 25, Y1: 25, X2: 74, Y2: 74}, Score: 0.8}},
			config:     NMSConfig{IoUThreshold: 0.25},
			expected:   []int{0, 1},
		},
		{
			name:       "max output caps kept boxes",
			detections: []Result{{Box: box, Score: 0.9}, {Box: far, Score: 0.8}, {Box: images.Rect{X1: 900, Y1: 900, X2: 950, Y2: 950}, Score: 0.7}},
			config:     NMSConfig{IoUThreshold: 0.5, MaxOutput: 2},
			expected:   []int{0, 1},
		},
		{
			name:       "top n ignores later candidates",
			detections: []Result{{Box: box, Score: 0.9}, {Box: far, Score: 0.8}, {Box: images.Rect{X1: 900, Y1: 900, X2: 950, Y2: 950}, Score: 0.7}},
			config:     NMSConfig{IoUThreshold: 0.5, TopN: 1},
			expected:   []int{0},
		},
		{
			name:       "class aware skips other classes",
			detections: []Result{{Box: box, Score: 0.9, Class: 1}, {Box: box, Score: 0.8, Class: 2}},
			config:     NMSConfig{IoUThreshold: 0.5, ClassAware: true},
			expected:   []int{0, 1},
		},
		{
			name:       "degenerate boxes are not suppressed",
			detections: []Result{{Box: images.Rect{X1: 5, Y1: 5, X2: 1, Y2: 1}, Score: 0.9}, {Box: images.Rect{X1: 5, Y1: 5, X2: 1, Y2: 1}, Score: 0.8}},
			config:     NMSConfig{IoUThreshold: 0.5},
			expected:   []int{0, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ApplyGreedyNMS(tt.detections, &tt.config))
		})
	}

	assert.Nil(t, ApplyGreedyNMS(nil, &NMSConfig{IoUThreshold: 0.5}))
}

// TestApplyGreedyNMSInvariants checks the post-conditions on random input:
// kept boxes never overlap beyond the threshold and every suppressed box
// overlaps some earlier kept box beyond it.
func TestApplyGreedyNMSInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	for _, threshold := range []float32{0.1, 0.3, 0.5, 0.7, 0.9} {
		detections := randomResults(rng, 400)
		SortDesc(detections)
		config := &NMSConfig{IoUThreshold: threshold}

		keep := ApplyGreedyNMS(detections, config)
		require.NotEmpty(t, keep)
		assert.True(t, sort.IntsAreSorted(keep))

		kept := make(map[int]bool, len(keep))
		for a := 0; a < len(keep); a++ {
			kept[keep[a]] = true
			for b := a + 1; b < len(keep); b++ {
				iou := images.CalculateIoU(detections[keep[a]].Box, detections[keep[b]].Box)
				assert.LessOrEqual(t, iou, threshold)
			}
		}

		for j := range detections {
			if kept[j] {
				continue
			}
			found := false
			for _, i := range keep {
				if i < j && images.CalculateIoU(detections[i].Box, detections[j].Box) > threshold {
					found = true
					break
				}
			}
			assert.True(t, found, "suppressed box %d should overlap an earlier kept box", j)
		}
	}
}

// TestApplyNMSMatchesGreedy verifies the worker pool variant is equivalent.
func TestApplyNMSMatchesGreedy(t *testing.T) {
	rng := rand.New(rand.NewSource(17))

	for _, n := range []int{0, 10, 300, 2000} {
		detections := randomResults(rng, n)
		SortDesc(detections)

		for _, config := range []NMSConfig{
			{IoUThreshold: 0.3, NumWorkers: 4},
			{IoUThreshold: 0.6, NumWorkers: 3, MaxOutput: 50},
			{IoUThreshold: 0.5, NumWorkers: 8, TopN: 700},
		} {
			assert.Equal(t, ApplyGreedyNMS(detections, &config), ApplyNMS(detections, &config), "n=%d %+v", n, config)
		}
	}
}

// TestSelect checks index selection.
func TestSelect(t *testing.T) {
	results := []Result{{Score: 0.9}, {Score: 0.8}, {Score: 0.7}}
	assert.Equal(t, []float32{0.9, 0.7}, scoresOf(Select(results, []int{0, 2})))
	assert.Empty(t, Select(results, nil))
}

// BenchmarkPartialSortDesc measures a top-300 selection out of 20k candidates.
func BenchmarkPartialSortDesc(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	source := randomResults(rng, 20000)
	work := make([]Result, len(source))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(work, source)
		PartialSortDesc(work, 0, len(work)-1, 300)
	}
}

// BenchmarkApplyGreedyNMS measures suppression over 2000 sorted candidates.
func BenchmarkApplyGreedyNMS(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	detections := randomResults(rng, 2000)
	SortDesc(detections)
	config := &NMSConfig{IoUThreshold: 0.5}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ApplyGreedyNMS(detections, config)
	}
}

// BenchmarkApplyNMS measures the worker pool variant on the same input.
func BenchmarkApplyNMS(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	detections := randomResults(rng, 2000)
	SortDesc(detections)
	config := &NMSConfig{IoUThreshold: 0.5, NumWorkers: 4}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ApplyNMS(detections, config)
	}
}
