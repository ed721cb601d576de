// Command rcnn-output assembles Faster R-CNN detections from captured head
// outputs and prints them with their labels.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"github.com/nvr-ai/go-rcnn/models"
	"github.com/nvr-ai/go-rcnn/models/rcnn"
	"github.com/nvr-ai/go-rcnn/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// capture is one set of head outputs to post-process.
type capture struct {
	name string
	in   *rcnn.Inputs
}

// loadCaptures reads a single input file, or every frame-<n>.yaml file of
// dir in frame order.
func loadCaptures(path, dir string) ([]capture, error) {
	if dir == "" {
		in, err := rcnn.LoadInputs(path)
		if err != nil {
			return nil, err
		}
		return []capture{{name: path, in: in}}, nil
	}

	files, err := util.LoadDirectoryCaptures(dir, ".yaml", ".yml")
	if err != nil {
		return nil, err
	}
	captures := make([]capture, 0, len(files))
	for _, f := range files {
		in, err := rcnn.ReadInputs(bytes.NewReader(f.Data))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read inputs %s", f.Path)
		}
		captures = append(captures, capture{name: f.Path, in: in})
	}
	return captures, nil
}

func main() {
	var (
		configFile = flag.String("config", "", "Path to a YAML post-processing config (defaults when empty)")
		inputFile  = flag.String("input", "", "Path to the YAML head outputs (rois, deltas, scores, info)")
		inputDir   = flag.String("input-dir", "", "Directory of frame-<n>.yaml head outputs, processed in frame order")
		labels     = flag.String("labels", string(models.ModelFamilyVOC), "Label map of the model (coco or voc)")
		minScore   = flag.Float64("min-score", 0, "Only print detections scoring at least this much")
		tensorOut  = flag.Bool("tensor", false, "Print the raw [M, 6] output instead of labeled boxes")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if *inputFile == "" && *inputDir == "" {
		logger.Fatal("Head outputs path is required (-input or -input-dir)")
	}

	config := rcnn.DefaultConfig()
	if *configFile != "" {
		var err error
		config, err = rcnn.LoadConfig(*configFile)
		if err != nil {
			logger.WithError(err).Fatal("Failed to load config")
		}
	}

	set, err := models.LookupSet(models.ModelFamily(*labels))
	if err != nil {
		logger.WithError(err).Fatal("Unknown label map")
	}

	captures, err := loadCaptures(*inputFile, *inputDir)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load head outputs")
	}

	m, err := rcnn.NewModel(config, rcnn.WithLogger(logger))
	if err != nil {
		logger.WithError(err).Fatal("Invalid config")
	}

	for _, c := range captures {
		if err := report(logger, m, set, c, float32(*minScore), *tensorOut); err != nil {
			logger.WithError(err).WithField("input", c.name).Fatal("Post-processing failed")
		}
	}
}

// report post-processes one capture and prints its detections.
func report(logger logrus.FieldLogger, m *rcnn.RCNN, set *models.OutputClassSet, c capture, minScore float32, tensorOut bool) error {
	if c.in.NumClasses != set.NumClasses() {
		logger.WithFields(logrus.Fields{
			"input":   c.name,
			"classes": c.in.NumClasses,
			"labels":  set.NumClasses(),
		}).Warn("Classifier width does not match the label map")
	}

	dets, err := m.PostProcess(c.in)
	if err != nil {
		return err
	}
	dets = dets.AboveScore(minScore)

	if tensorOut {
		fmt.Printf("%s\n%v\n", c.name, dets.ToDense())
		return nil
	}

	boxes, err := dets.Labeled(set)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"input":      c.name,
		"detections": len(boxes),
		"skipped":    dets.Skipped,
	}).Info("Assembled detections")

	for _, box := range boxes {
		fmt.Fprintln(os.Stdout, box.String())
	}
	return nil
}
