package rcnn

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// inputsDocument is the YAML layout of a captured set of head outputs, one
// row per proposal.
type inputsDocument struct {
	Info       ImageInfo   `yaml:"info"`
	NumClasses int         `yaml:"num_classes"`
	ROIs       [][]float32 `yaml:"rois"`
	Deltas     [][]float32 `yaml:"deltas"`
	Scores     [][]float32 `yaml:"scores"`
}

// ReadInputs decodes inputs from a YAML document of the form:
//
//	info: {height: 600, width: 800, scale: 1.6}
//	num_classes: 3
//	rois:   [[0, 166.2, 111.2, 790.8, 509.1], ...]  # 4 or 5 columns
//	deltas: [[dx, dy, dw, dh, ...], ...]            # num_classes*4 columns
//	scores: [[0.01, 0.44, 0.55], ...]               # num_classes columns
//
// Returns:
//   - Validated inputs, or an error wrapping ErrInvalidShape for ragged rows.
func ReadInputs(r io.Reader) (*Inputs, error) {
	var doc inputsDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode inputs")
	}

	in := &Inputs{
		NumBoxes:   len(doc.Scores),
		NumClasses: doc.NumClasses,
		ROIStride:  4,
		Info:       doc.Info,
	}
	if len(doc.ROIs) > 0 {
		in.ROIStride = len(doc.ROIs[0])
	}

	var err error
	if in.Scores, err = flattenRows("scores", doc.Scores, doc.NumClasses); err != nil {
		return nil, err
	}
	if in.Deltas, err = flattenRows("deltas", doc.Deltas, doc.NumClasses*DeltaStride); err != nil {
		return nil, err
	}
	if in.ROIs, err = flattenRows("rois", doc.ROIs, in.ROIStride); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	return in, nil
}

// LoadInputs reads inputs from a YAML file. See ReadInputs for the layout.
func LoadInputs(path string) (*Inputs, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open inputs %s", path)
	}
	defer f.Close()

	in, err := ReadInputs(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read inputs %s", path)
	}
	return in, nil
}

func flattenRows(name string, rows [][]float32, width int) ([]float32, error) {
	data := make([]float32, 0, len(rows)*width)
	for i, row := range rows {
		if len(row) != width {
			return nil, errors.Wrapf(ErrInvalidShape, "%s row %d has %d values, expected %d", name, i, len(row), width)
		}
		data = append(data, row...)
	}
	return data, nil
}
