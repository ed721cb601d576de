package postprocess

// insertionSortCutoff is the span length below which partitioning stops and
// the span is finished with an insertion sort.
const insertionSortCutoff = 12

type span struct {
	lo, hi int
}

// PartialSortDesc orders list[start..end] (inclusive) by descending score
// just enough that its first k elements are the k highest-scoring elements
// in descending order. The remaining elements are left in unspecified order,
// each no greater than the k-th. When k covers the whole range the range is
// fully sorted.
//
// The sort is an iterative quickselect: each span is split three ways around
// a median-of-three pivot, spans lying entirely past the first k positions
// are dropped, and the larger of two needed spans is deferred on an explicit
// stack, which keeps the stack at O(log n) for any input order. Equal scores
// are not kept in input order. Scores must not be NaN.
//
// Arguments:
//   - list: The results to reorder in place.
//   - start, end: The inclusive bounds of the range to sort.
//   - k: How many leading positions must hold their final value.
//
// @example
// results := FilterByScore(boxes, class, 0.5)
// PartialSortDesc(results, 0, len(results)-1, 100) // top-100 ordered
func PartialSortDesc(list []Result, start, end, k int) {
	if start < 0 {
		start = 0
	}
	if end >= len(list) {
		end = len(list) - 1
	}
	if end <= start || k <= 0 {
		return
	}
	last := start + k - 1
	if last > end {
		last = end
	}

	stack := []span{{start, end}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		lo, hi := s.lo, s.hi
		for lo < hi && lo <= last {
			if hi-lo < insertionSortCutoff {
				insertionSortDesc(list, lo, hi)
				break
			}

			// [lo, lt) > pivot, [lt, gt] == pivot, (gt, hi] < pivot
			lt, gt := partitionDesc(list, lo, hi)
			left := span{lo, lt - 1}
			right := span{gt + 1, hi}

			if right.lo > last {
				lo, hi = left.lo, left.hi
				continue
			}
			if left.hi-left.lo > right.hi-right.lo {
				stack = append(stack, left)
				lo, hi = right.lo, right.hi
			} else {
				stack = append(stack, right)
				lo, hi = left.lo, left.hi
			}
		}
	}
}

// SortDesc fully sorts results by descending score.
func SortDesc(results []Result) {
	PartialSortDesc(results, 0, len(results)-1, len(results))
}

func partitionDesc(list []Result, lo, hi int) (lt, gt int) {
	pivot := medianOfThree(list[lo].Score, list[lo+(hi-lo)/2].Score, list[hi].Score)

	lt, gt = lo, hi
	for i := lo; i <= gt; {
		switch s := list[i].Score; {
		case s > pivot:
			list[lt], list[i] = list[i], list[lt]
			lt++
			i++
		case s < pivot:
			list[i], list[gt] = list[gt], list[i]
			gt--
		default:
			i++
		}
	}
	return lt, gt
}

func medianOfThree(a, b, c float32) float32 {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b = c
	}
	if a > b {
		return a
	}
	return b
}

func insertionSortDesc(list []Result, lo, hi int) {
	for i := lo + 1; i <= hi; i++ {
		for j := i; j > lo && list[j].Score > list[j-1].Score; j-- {
			list[j], list[j-1] = list[j-1], list[j]
		}
	}
}
