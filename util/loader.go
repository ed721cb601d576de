// Package util - reads numbered capture files from disk.
package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// CaptureFile is one file of a numbered capture sequence.
type CaptureFile struct {
	// Path is the path to the file.
	Path string
	// Data is the raw bytes of the file.
	Data []byte
	// Frame is the frame number parsed from the file name.
	Frame int
}

// LoadDirectoryCaptures reads every "frame-<n><ext>" file of a directory
// whose extension is one of exts, ordered by frame number.
//
// Arguments:
// - dir: Directory path containing the capture files.
// - exts: Accepted file extensions, including the dot.
//
// Returns:
// - []CaptureFile: The files in frame order.
// - error: Error if the directory or a file cannot be read, or a name has no frame number.
//
// @example
// files, err := util.LoadDirectoryCaptures("captures", ".yaml", ".yml")
func LoadDirectoryCaptures(dir string, exts ...string) ([]CaptureFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read directory %s", dir)
	}

	accepted := make(map[string]bool, len(exts))
	for _, ext := range exts {
		accepted[strings.ToLower(ext)] = true
	}

	var files []CaptureFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := filepath.Ext(entry.Name())
		if !accepted[strings.ToLower(ext)] {
			continue
		}

		frame, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(entry.Name(), "frame-"), ext))
		if err != nil {
			return nil, errors.Wrapf(err, "file %s has no frame number", entry.Name())
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", path)
		}
		files = append(files, CaptureFile{Path: path, Data: data, Frame: frame})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Frame < files[j].Frame
	})

	return files, nil
}
