// Package rcnn - assembles Faster R-CNN detections from the box regressor
// and classifier outputs.
package rcnn

import (
	"os"

	"github.com/nvr-ai/go-rcnn/models/postprocess"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the post-processing thresholds. It is read once by NewModel
// and never modified afterwards.
type Config struct {
	// ConfidenceThreshold is the inclusive minimum class score, in (0, 1].
	ConfidenceThreshold float32 `json:"confidence_threshold" yaml:"confidence_threshold"`

	// NMS controls the per-class suppression. IoUThreshold must be in (0, 1).
	NMS postprocess.NMSConfig `json:"nms" yaml:"nms"`

	// ClipAfterRescale clips boxes again to the original image after they
	// are scaled back from the network frame. Off by default: boxes are
	// clipped to the network frame only.
	ClipAfterRescale bool `json:"clip_after_rescale" yaml:"clip_after_rescale"`

	// NumWorkers is the number of classes processed concurrently (<= 1 runs
	// the classes sequentially).
	NumWorkers int `json:"num_workers" yaml:"num_workers"`
}

// DefaultConfig returns the thresholds commonly used for Faster R-CNN
// inference.
//
// Returns:
//   - Config: A valid configuration.
//
// @example
// config := DefaultConfig()
// config.ConfidenceThreshold = 0.8
// m, err := NewModel(config)
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.5,
		NMS: postprocess.NMSConfig{
			IoUThreshold: 0.3,
		},
	}
}

// Validate checks every threshold against its domain.
func (c Config) Validate() error {
	if !(c.ConfidenceThreshold > 0 && c.ConfidenceThreshold <= 1) {
		return errors.Wrapf(ErrInvalidConfig, "confidence threshold %v not in (0, 1]", c.ConfidenceThreshold)
	}
	if !(c.NMS.IoUThreshold > 0 && c.NMS.IoUThreshold < 1) {
		return errors.Wrapf(ErrInvalidConfig, "nms iou threshold %v not in (0, 1)", c.NMS.IoUThreshold)
	}
	if c.NumWorkers < 0 || c.NMS.NumWorkers < 0 {
		return errors.Wrap(ErrInvalidConfig, "negative worker count")
	}
	return nil
}

// LoadConfig reads a YAML configuration file. Keys missing from the file
// keep their DefaultConfig values.
//
// Arguments:
//   - path: The path of the YAML file.
//
// Returns:
//   - The validated configuration, or an error if the file cannot be read,
//     parsed or validated.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, errors.Wrapf(err, "failed to read config %s", path)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, errors.Wrapf(err, "failed to parse config %s", path)
	}
	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}
