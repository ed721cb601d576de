// Package postprocess - provides Non-Maximum Suppression for detection results.
package postprocess

import (
	"sync"

	"github.com/nvr-ai/go-rcnn/images"
)

// minParallelRow is the smallest number of remaining candidates for which
// ApplyNMS splits an IoU row across workers.
const minParallelRow = 256

// NMSConfig defines parameters for Non-Maximum Suppression.
type NMSConfig struct {
	// IoUThreshold is the overlap above which a lower-scored box is suppressed.
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"`
	// TopN caps the candidates considered before suppression (<= 0 is unbounded).
	TopN int `json:"pre_nms_top_n" yaml:"pre_nms_top_n"`
	// MaxOutput caps the boxes kept after suppression (<= 0 is unbounded).
	MaxOutput int `json:"post_nms_top_n" yaml:"post_nms_top_n"`
	// ClassAware limits suppression to boxes of the same class.
	ClassAware bool `json:"class_aware" yaml:"class_aware"`
	// NumWorkers is the number of goroutines used for IoU rows by ApplyNMS.
	NumWorkers int `json:"num_workers" yaml:"num_workers"`
}

// candidates returns how many leading detections take part in suppression.
func (c *NMSConfig) candidates(n int) int {
	if c.TopN > 0 && n > c.TopN {
		return c.TopN
	}
	return n
}

func (c *NMSConfig) full(kept int) bool {
	return c.MaxOutput > 0 && kept >= c.MaxOutput
}

func (c *NMSConfig) suppresses(anchor, other *Result) bool {
	if c.ClassAware && anchor.Class != other.Class {
		return false
	}
	return images.CalculateIoU(anchor.Box, other.Box) > c.IoUThreshold
}

// ApplyGreedyNMS performs standard greedy Non-Maximum Suppression.
//
// The highest-scoring remaining box is kept and every later box whose IoU
// with it exceeds the threshold is suppressed, until the candidates are
// exhausted or MaxOutput boxes are kept. Only the first TopN detections are
// considered when TopN is positive.
//
// Arguments:
//   - detections: Slice of detections sorted by descending confidence.
//   - config: NMS configuration.
//
// Returns:
//   - Indices into detections of the kept boxes, in input order. If no
//     detections are provided, returns nil.
func ApplyGreedyNMS(detections []Result, config *NMSConfig) []int {
	n := config.candidates(len(detections))
	if n == 0 {
		return nil
	}

	keep := make([]int, 0, n)
	suppressed := make([]bool, n)

	for i := 0; i < n; i++ {
		if suppressed[i] {
			continue
		}

		keep = append(keep, i)
		if config.full(len(keep)) {
			break
		}

		anchor := &detections[i]
		for j := i + 1; j < n; j++ {
			if suppressed[j] {
				continue
			}
			if config.suppresses(anchor, &detections[j]) {
				suppressed[j] = true
			}
		}
	}

	return keep
}

// ApplyNMS has the same contract and result as ApplyGreedyNMS but, for
// long candidate lists, evaluates each IoU row on a pool of
// config.NumWorkers goroutines. Each worker owns a disjoint slice of the
// row, so the outcome does not depend on scheduling.
//
// Arguments:
//   - detections: Sorted slice of detections (highest score first).
//   - config: NMS configuration.
//
// Returns:
//   - Indices into detections of the kept boxes, in input order.
func ApplyNMS(detections []Result, config *NMSConfig) []int {
	n := config.candidates(len(detections))
	if config.NumWorkers <= 1 || n < minParallelRow {
		return ApplyGreedyNMS(detections, config)
	}

	type job struct {
		anchor, lo, hi int
	}

	keep := make([]int, 0, n)
	suppressed := make([]bool, n)
	jobs := make(chan job, config.NumWorkers)

	var row sync.WaitGroup
	var workers sync.WaitGroup
	for w := 0; w < config.NumWorkers; w++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for task := range jobs {
				anchor := &detections[task.anchor]
				for j := task.lo; j < task.hi; j++ {
					if !suppressed[j] && config.suppresses(anchor, &detections[j]) {
						suppressed[j] = true
					}
				}
				row.Done()
			}
		}()
	}

	for i := 0; i < n; i++ {
		if suppressed[i] {
			continue
		}

		keep = append(keep, i)
		if config.full(len(keep)) {
			break
		}

		rest := n - i - 1
		if rest < minParallelRow {
			anchor := &detections[i]
			for j := i + 1; j < n; j++ {
				if !suppressed[j] && config.suppresses(anchor, &detections[j]) {
					suppressed[j] = true
				}
			}
			continue
		}

		chunk := (rest + config.NumWorkers - 1) / config.NumWorkers
		for lo := i + 1; lo < n; lo += chunk {
			row.Add(1)
			jobs <- job{anchor: i, lo: lo, hi: min(lo+chunk, n)}
		}
		row.Wait()
	}

	close(jobs)
	workers.Wait()

	return keep
}
